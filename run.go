// SPDX-License-Identifier: MIT
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"notetrack/cmd"
	"notetrack/internal/analysis"
	"notetrack/internal/audio"
	"notetrack/internal/cache"
	"notetrack/internal/config"
	"notetrack/internal/log"
	"notetrack/internal/pitch"
	"notetrack/internal/transport"
	"notetrack/internal/transport/udp"
	"notetrack/internal/tui"
)

// udpResendInterval re-sends the latest events so late listeners catch up.
const udpResendInterval = time.Second

// executeCommand dispatches on config.Command.
func executeCommand(cfg *config.Config, opts *cmd.Options, out io.Writer) error {
	switch cfg.Command {
	case cmd.CommandDevices:
		return withPortAudio(func() error { return audio.ListDevices(out) })
	case cmd.CommandNotes:
		return printNotes(cfg, out)
	case cmd.CommandAnalyze, cmd.CommandRecord:
		return analyze(cfg, opts, out)
	default:
		return fmt.Errorf("unknown command %q", cfg.Command)
	}
}

func withPortAudio(fn func() error) error {
	if err := audio.Initialize(); err != nil {
		return err
	}
	defer func() {
		if err := audio.Terminate(); err != nil {
			log.Warnf("%v", err)
		}
	}()
	return fn()
}

func printNotes(cfg *config.Config, out io.Writer) error {
	table, err := pitch.NoteTable(cfg.Segmenter.A4, cfg.Segmenter.Octaves)
	if err != nil {
		return err
	}
	if cfg.Output.Report != "" {
		data, err := json.MarshalIndent(table, "", "  ")
		if err != nil {
			return err
		}
		return os.WriteFile(cfg.Output.Report, data, 0o644)
	}
	for i, nf := range table {
		fmt.Fprintf(out, "%-4s %9.2f Hz", nf.Note, nf.Frequency)
		if i%4 == 3 {
			fmt.Fprintln(out)
		} else {
			fmt.Fprint(out, "   ")
		}
	}
	fmt.Fprintln(out)
	return nil
}

// loadClip reads the input file or records a new clip.
func loadClip(ctx context.Context, cfg *config.Config, opts *cmd.Options) (*audio.Clip, error) {
	if cfg.Command == cmd.CommandAnalyze {
		return audio.LoadWAV(cfg.Input.Path, cfg.Input.Start, cfg.Input.End)
	}

	var clip *audio.Clip
	err := withPortAudio(func() error {
		if opts != nil && opts.PickDevice {
			id, ok, err := tui.PickInputDevice()
			if err != nil {
				return err
			}
			if !ok {
				return fmt.Errorf("no input device chosen")
			}
			cfg.Capture.Device = id
		}

		rec, err := audio.NewRecorder(&cfg.Capture)
		if err != nil {
			return err
		}
		clip, err = rec.Record(ctx, cfg.Capture.Duration)
		return err
	})
	if err != nil {
		return nil, err
	}

	name := "recording-" + time.Now().UTC().Format("02-01-2006-150405") + ".wav"
	if err := audio.ExportWAV(name, clip.Samples, clip.SampleRate); err != nil {
		log.Warnf("Audio: saving recording: %v", err)
	} else {
		log.Infof("Audio: recording saved to %s", name)
	}
	return clip, nil
}

func openCache(path string) (cache.Cache, error) {
	switch path {
	case "":
		return nil, nil
	case config.MemoryCache:
		return cache.NewMemory(), nil
	default:
		return cache.NewSQLite(path)
	}
}

// openTransports starts every configured feed. The caller closes them.
func openTransports(cfg *config.Config) ([]transport.Transport, *transport.WebSocketTransport, error) {
	var (
		list []transport.Transport
		ws   *transport.WebSocketTransport
	)
	if cfg.Level() == log.LevelDebug {
		list = append(list, transport.NewLoggingTransport())
	}
	if addr := cfg.Transport.WebSocketAddr; addr != "" {
		w, err := transport.NewWebSocketTransport(addr)
		if err != nil {
			return list, nil, err
		}
		ws = w
		list = append(list, w)
	}
	if addr := cfg.Transport.UDPTargetAddress; addr != "" {
		sender, err := udp.NewUDPSender(addr)
		if err != nil {
			return list, ws, err
		}
		pub, err := udp.NewUDPPublisher(udpResendInterval, sender)
		if err != nil {
			sender.Close()
			return list, ws, err
		}
		pub.Start()
		list = append(list, pub)
	}
	return list, ws, nil
}

func analyze(cfg *config.Config, opts *cmd.Options, out io.Writer) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// ==================== ANALYSIS PHASE ====================

	clip, err := loadClip(ctx, cfg, opts)
	if err != nil {
		return err
	}

	c, err := openCache(cfg.Cache.Path)
	if err != nil {
		return err
	}
	if c != nil {
		defer c.Close()
	}

	transports, ws, err := openTransports(cfg)
	defer func() {
		for _, t := range transports {
			if err := t.Close(); err != nil {
				log.Warnf("Transport: close: %v", err)
			}
		}
	}()
	if err != nil {
		return err
	}

	pipelineOpts := []analysis.Option{analysis.WithCache(c)}
	for _, t := range transports {
		pipelineOpts = append(pipelineOpts, analysis.WithTransport(t))
	}
	p, err := analysis.NewPipeline(cfg, pipelineOpts...)
	if err != nil {
		return err
	}

	report, err := p.Run(clip.Source, clip.Samples, clip.SampleRate)
	if err != nil {
		return err
	}

	// ==================== OUTPUT PHASE ====================

	report.WriteSummary(out)

	if path := cfg.Output.Report; path != "" {
		if err := report.SaveJSON(path); err != nil {
			return err
		}
		log.Infof("Report written to %s", path)
	}
	if path := cfg.Output.ExportWAV; path != "" {
		if err := audio.ExportWAV(path, report.Filtered, report.SampleRate); err != nil {
			return err
		}
		log.Infof("Filtered signal written to %s", path)
	}

	if cfg.Output.TUI {
		if err := tui.BrowseNotes(report.Source, report.Events, report.A4, report.Duration); err != nil {
			return err
		}
	}

	if ws != nil {
		fmt.Fprintf(out, "Serving the report on ws://%s/ws, press Ctrl+C to stop.\n", ws.Addr())
		<-ctx.Done()
	}
	return nil
}
