// SPDX-License-Identifier: MIT
package audio

import (
	"context"
	"fmt"
	"math"
	"runtime"
	"sync/atomic"
	"time"

	"github.com/gordonklaus/portaudio"

	"notetrack/internal/config"
	"notetrack/internal/log"
)

// Recorder captures a fixed number of frames from an input device into a
// pre-allocated mono buffer. The capture is complete before any analysis
// starts.
type Recorder struct {
	config *config.CaptureConfig

	inputDevice  *portaudio.DeviceInfo
	inputLatency time.Duration
	inputStream  *portaudio.Stream

	// Written only by the stream callback until done is closed.
	samples []float64
	filled  atomic.Int64
	done    chan struct{}
}

// NewRecorder resolves the configured device. PortAudio must be initialized.
func NewRecorder(cfg *config.CaptureConfig) (*Recorder, error) {
	inputDevice, err := InputDevice(cfg.Device)
	if err != nil {
		return nil, err
	}

	r := &Recorder{config: cfg, inputDevice: inputDevice}
	if cfg.LowLatency {
		r.inputLatency = inputDevice.DefaultLowInputLatency
	} else {
		r.inputLatency = inputDevice.DefaultHighInputLatency
	}
	return r, nil
}

// Record captures duration of audio and returns it as a Clip. It returns
// early with what was captured so far if ctx is cancelled.
func (r *Recorder) Record(ctx context.Context, duration time.Duration) (*Clip, error) {
	frames := int(math.Round(duration.Seconds() * r.config.SampleRate))
	if frames <= 0 {
		return nil, fmt.Errorf("capture duration %v holds no frames at %.0f Hz", duration, r.config.SampleRate)
	}
	r.reset(frames)

	params := portaudio.StreamParameters{
		Input: portaudio.StreamDeviceParameters{
			Channels: r.config.Channels,
			Device:   r.inputDevice,
			Latency:  r.inputLatency,
		},
		Output: portaudio.StreamDeviceParameters{
			Channels: 0, // No output device
			Device:   nil,
		},
		FramesPerBuffer: r.config.FramesPerBuffer,
		SampleRate:      r.config.SampleRate,
	}

	stream, err := portaudio.OpenStream(params, r.processInputStream)
	if err != nil {
		return nil, fmt.Errorf("failed to open input stream: %w", err)
	}
	r.inputStream = stream
	defer r.close()

	if err := stream.Start(); err != nil {
		return nil, fmt.Errorf("failed to start input stream: %w", err)
	}
	log.Infof("Audio: recording %v from %s (%d ch, %.0f Hz)",
		duration, r.inputDevice.Name, r.config.Channels, r.config.SampleRate)

	select {
	case <-r.done:
	case <-ctx.Done():
		log.Warnf("Audio: recording interrupted after %d of %d frames", r.filled.Load(), frames)
	}

	if err := stream.Stop(); err != nil {
		return nil, fmt.Errorf("failed to stop input stream: %w", err)
	}
	return r.clip(), nil
}

func (r *Recorder) reset(frames int) {
	r.samples = make([]float64, frames)
	r.filled.Store(0)
	r.done = make(chan struct{})
}

func (r *Recorder) clip() *Clip {
	n := int(r.filled.Load())
	return &Clip{
		Source:     r.inputDevice.Name,
		Samples:    r.samples[:n:n],
		SampleRate: r.config.SampleRate,
		Channels:   r.config.Channels,
	}
}

func (r *Recorder) close() {
	if r.inputStream != nil {
		if err := r.inputStream.Close(); err != nil {
			log.Warnf("Audio: closing input stream: %v", err)
		}
		r.inputStream = nil
	}
}

// processInputStream is the PortAudio callback. It down-mixes interleaved
// int32 frames into the capture buffer and signals done once it is full.
// It writes only into pre-allocated memory.
func (r *Recorder) processInputStream(in []int32) {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	const normFactor = 1.0 / float64(0x80000000)
	channels := r.config.Channels
	pos := int(r.filled.Load())
	if pos >= len(r.samples) {
		return
	}

	frames := min(len(in)/channels, len(r.samples)-pos)
	inv := normFactor / float64(channels)
	for i := range frames {
		var sum float64
		for c := range channels {
			sum += float64(in[i*channels+c])
		}
		r.samples[pos+i] = sum * inv
	}
	pos += frames
	r.filled.Store(int64(pos))

	if pos >= len(r.samples) {
		close(r.done)
	}
}
