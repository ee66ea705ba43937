// SPDX-License-Identifier: MIT
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"notetrack/internal/config"
	"notetrack/pkg/build"
)

// Commands set on Config.Command.
const (
	CommandAnalyze = "analyze"
	CommandRecord  = "record"
	CommandDevices = "devices"
	CommandNotes   = "notes"
)

// Options carries the CLI switches that are not part of the configuration file.
type Options struct {
	PickDevice bool
}

// ParseArgs parses os.Args into a configuration. A nil config with a nil
// error means cobra already handled the invocation (help or version).
func ParseArgs() (*config.Config, *Options, error) {
	return Parse(os.Args[1:])
}

// overrides copies one flag's value from the flag-bound config to the loaded one.
var overrides = map[string]func(dst, src *config.Config){
	"log-level":         func(d, s *config.Config) { d.LogLevel = s.LogLevel },
	"input":             func(d, s *config.Config) { d.Input.Path = s.Input.Path },
	"start":             func(d, s *config.Config) { d.Input.Start = s.Input.Start },
	"end":               func(d, s *config.Config) { d.Input.End = s.Input.End },
	"cutoff-high":       func(d, s *config.Config) { d.Filter.CutoffHigh = s.Filter.CutoffHigh },
	"cutoff-factor":     func(d, s *config.Config) { d.Filter.CutoffFactor = s.Filter.CutoffFactor },
	"order":             func(d, s *config.Config) { d.Filter.Order = s.Filter.Order },
	"clip-limit":        func(d, s *config.Config) { d.Filter.ClipLimit = s.Filter.ClipLimit },
	"estimator":         func(d, s *config.Config) { d.Analysis.Estimator = s.Analysis.Estimator },
	"frames-file":       func(d, s *config.Config) { d.Analysis.FramesFile = s.Analysis.FramesFile },
	"window-size":       func(d, s *config.Config) { d.Analysis.WindowSize = s.Analysis.WindowSize },
	"overlap":           func(d, s *config.Config) { d.Analysis.Overlap = s.Analysis.Overlap },
	"fft-size":          func(d, s *config.Config) { d.Analysis.FFTSize = s.Analysis.FFTSize },
	"window":            func(d, s *config.Config) { d.Analysis.Window = s.Analysis.Window },
	"band-low":          func(d, s *config.Config) { d.Analysis.BandLow = s.Analysis.BandLow },
	"band-high":         func(d, s *config.Config) { d.Analysis.BandHigh = s.Analysis.BandHigh },
	"envelope-window":   func(d, s *config.Config) { d.Analysis.EnvelopeWindow = s.Analysis.EnvelopeWindow },
	"confidence":        func(d, s *config.Config) { d.Segmenter.MinConfidence = s.Segmenter.MinConfidence },
	"a4":                func(d, s *config.Config) { d.Segmenter.A4 = s.Segmenter.A4 },
	"note-lines":        func(d, s *config.Config) { d.Segmenter.NoteLines = s.Segmenter.NoteLines },
	"octaves":           func(d, s *config.Config) { d.Segmenter.Octaves = s.Segmenter.Octaves },
	"cache":             func(d, s *config.Config) { d.Cache.Path = s.Cache.Path },
	"report":            func(d, s *config.Config) { d.Output.Report = s.Output.Report },
	"export":            func(d, s *config.Config) { d.Output.ExportWAV = s.Output.ExportWAV },
	"include-envelope":  func(d, s *config.Config) { d.Output.IncludeEnvelope = s.Output.IncludeEnvelope },
	"tui":               func(d, s *config.Config) { d.Output.TUI = s.Output.TUI },
	"serve":             func(d, s *config.Config) { d.Transport.WebSocketAddr = s.Transport.WebSocketAddr },
	"udp":               func(d, s *config.Config) { d.Transport.UDPTargetAddress = s.Transport.UDPTargetAddress },
	"device":            func(d, s *config.Config) { d.Capture.Device = s.Capture.Device },
	"channels":          func(d, s *config.Config) { d.Capture.Channels = s.Capture.Channels },
	"sample-rate":       func(d, s *config.Config) { d.Capture.SampleRate = s.Capture.SampleRate },
	"frames-per-buffer": func(d, s *config.Config) { d.Capture.FramesPerBuffer = s.Capture.FramesPerBuffer },
	"low-latency":       func(d, s *config.Config) { d.Capture.LowLatency = s.Capture.LowLatency },
	"duration":          func(d, s *config.Config) { d.Capture.Duration = s.Capture.Duration },
}

// Parse builds the configuration for args. The YAML file (--config or the
// default search) is loaded first; flags override it only when given.
func Parse(args []string) (*config.Config, *Options, error) {
	buildInfo := build.GetBuildFlags()
	flags := config.NewConfig()
	opts := &Options{}
	var (
		configPath string
		result     *config.Config
	)

	// resolve runs once a subcommand is chosen.
	resolve := func(command string) func(cmd *cobra.Command, args []string) error {
		return func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadConfig(configPath)
			if err != nil {
				return err
			}
			cmd.Flags().Visit(func(f *pflag.Flag) {
				if apply, ok := overrides[f.Name]; ok {
					apply(cfg, flags)
				}
			})
			if len(args) > 0 {
				cfg.Input.Path = args[0]
			}
			if err := cfg.Validate(); err != nil {
				return err
			}
			if command == CommandAnalyze && cfg.Input.Path == "" {
				return fmt.Errorf("analyze needs an input file (-i or a positional argument)")
			}
			cfg.Command = command
			result = cfg
			return nil
		}
	}

	rootCmd := &cobra.Command{
		Use:           buildInfo.Name,
		Short:         buildInfo.Description,
		Version:       buildInfo.Version,
		SilenceErrors: true,
		SilenceUsage:  true,
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd:   true,
			DisableDescriptions: true,
			DisableNoDescFlag:   true,
			HiddenDefaultCmd:    true,
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}
	rootCmd.SetHelpCommand(&cobra.Command{Hidden: true})

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&configPath, "config", "", "YAML configuration file (default: notetrack.yaml or config.yaml if present)")
	pf.StringVar(&flags.LogLevel, "log-level", config.DefaultLogLevel, "Log level: debug, info, warn, error")

	// Analysis flags are shared by analyze and record.
	pf.Float64Var(&flags.Filter.CutoffHigh, "cutoff-high", config.DefaultCutoffHigh, "Highest pitch of interest in Hz")
	pf.Float64Var(&flags.Filter.CutoffFactor, "cutoff-factor", config.DefaultCutoffFactor, "Low-pass cutoff as a multiple of --cutoff-high")
	pf.IntVar(&flags.Filter.Order, "order", config.DefaultFilterOrder, "Butterworth filter order")
	pf.Float64Var(&flags.Filter.ClipLimit, "clip-limit", config.DefaultClipLimit, "Zero samples louder than this before filtering (0 disables)")
	pf.StringVarP(&flags.Analysis.Estimator, "estimator", "e", config.DefaultEstimator, "Frequency estimator: band, goertzel or frames")
	pf.StringVar(&flags.Analysis.FramesFile, "frames-file", "", "CSV of time,frequency,confidence for --estimator frames")
	pf.IntVar(&flags.Analysis.WindowSize, "window-size", config.DefaultWindowSize, "Analysis window in samples")
	pf.IntVar(&flags.Analysis.Overlap, "overlap", config.DefaultOverlap, "Window overlap in samples (-1 for window/8)")
	pf.IntVar(&flags.Analysis.FFTSize, "fft-size", config.DefaultFFTSize, "Transform length for the band estimator (0 for next power of two)")
	pf.StringVar(&flags.Analysis.Window, "window", config.DefaultWindow, "Taper: tukey, rect, hann, hamming, blackman, ...")
	pf.Float64Var(&flags.Analysis.BandLow, "band-low", config.DefaultBandLow, "Lowest frequency searched, Hz")
	pf.Float64Var(&flags.Analysis.BandHigh, "band-high", config.DefaultBandHigh, "Highest frequency searched, Hz")
	pf.IntVar(&flags.Analysis.EnvelopeWindow, "envelope-window", config.DefaultEnvelopeWindow, "Envelope averaging window in samples")
	pf.Float64Var(&flags.Segmenter.MinConfidence, "confidence", config.DefaultMinConfidence, "Frames at or below this confidence are silent")
	pf.Float64Var(&flags.Segmenter.A4, "a4", config.DefaultA4, "Tuning reference for A4 in Hz")
	pf.BoolVar(&flags.Segmenter.NoteLines, "note-lines", config.DefaultNoteLines, "Include note guide lines in the report")
	pf.IntVar(&flags.Segmenter.Octaves, "octaves", config.DefaultOctaves, "Octaves in the note table")
	pf.StringVar(&flags.Cache.Path, "cache", "", "Prediction cache: a SQLite file or :memory:")
	pf.StringVarP(&flags.Output.Report, "report", "o", "", "Write the JSON report to this file")
	pf.StringVar(&flags.Output.ExportWAV, "export", "", "Write the filtered signal to this WAV file")
	pf.BoolVar(&flags.Output.IncludeEnvelope, "include-envelope", false, "Embed the envelope in the report")
	pf.BoolVar(&flags.Output.TUI, "tui", false, "Browse the detected notes in the terminal")
	pf.StringVar(&flags.Transport.WebSocketAddr, "serve", "", "Serve the report over WebSocket on this address, e.g. :8080")
	pf.StringVar(&flags.Transport.UDPTargetAddress, "udp", "", "Send note events to this UDP address, e.g. 127.0.0.1:9090")

	analyzeCmd := &cobra.Command{
		Use:   "analyze [file.wav]",
		Short: "Detect notes in a WAV file",
		Args:  cobra.MaximumNArgs(1),
		RunE:  resolve(CommandAnalyze),
	}
	analyzeCmd.Flags().StringVarP(&flags.Input.Path, "input", "i", "", "Input WAV file")
	analyzeCmd.Flags().Float64Var(&flags.Input.Start, "start", config.DefaultStart, "Start of the analysed range in seconds (-1 for the beginning)")
	analyzeCmd.Flags().Float64Var(&flags.Input.End, "end", config.DefaultEnd, "End of the analysed range in seconds (-1 for the end)")
	rootCmd.AddCommand(analyzeCmd)

	recordCmd := &cobra.Command{
		Use:   "record",
		Short: "Record from an input device and detect notes",
		Args:  cobra.NoArgs,
		RunE:  resolve(CommandRecord),
	}
	rf := recordCmd.Flags()
	rf.IntVarP(&flags.Capture.Device, "device", "d", config.DefaultDeviceID,
		"Input device ID, -1 for the default. Use the 'devices' command to list them.")
	rf.IntVarP(&flags.Capture.Channels, "channels", "c", config.DefaultChannels, "Number of channels to record (1=mono, 2=stereo)")
	rf.Float64VarP(&flags.Capture.SampleRate, "sample-rate", "s", config.DefaultSampleRate, "Sample rate, measured in Hertz (Hz)")
	rf.IntVarP(&flags.Capture.FramesPerBuffer, "frames-per-buffer", "b", config.DefaultFramesPerBuffer, "The number of frames per buffer")
	rf.BoolVarP(&flags.Capture.LowLatency, "low-latency", "l", config.DefaultLowLatency, "Use the device's low input latency")
	rf.DurationVarP(&flags.Capture.Duration, "duration", "t", config.DefaultDuration, "Recording length")
	rf.BoolVar(&opts.PickDevice, "pick", false, "Choose the input device interactively")
	rootCmd.AddCommand(recordCmd)

	rootCmd.AddCommand(&cobra.Command{
		Use:   "devices",
		Short: "List available audio devices",
		Args:  cobra.NoArgs,
		RunE:  resolve(CommandDevices),
	})

	rootCmd.AddCommand(&cobra.Command{
		Use:   "notes",
		Short: "Print the note frequency table for --a4 and --octaves",
		Args:  cobra.NoArgs,
		RunE:  resolve(CommandNotes),
	})

	rootCmd.SetArgs(args)
	if err := rootCmd.Execute(); err != nil {
		return nil, nil, err
	}
	return result, opts, nil
}
