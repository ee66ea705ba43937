// SPDX-License-Identifier: MIT
package config

import "time"

// Defaults for the analysis pipeline and the capture device.
const (
	DefaultLogLevel = "info"

	// Input time range, seconds. -1 leaves the bound open.
	DefaultStart = -1
	DefaultEnd   = -1

	// Low-pass stage. The effective cutoff is CutoffHigh * CutoffFactor Hz.
	DefaultCutoffHigh   = 520.0
	DefaultCutoffFactor = 1.6
	DefaultFilterOrder  = 6
	DefaultClipLimit    = 0.0 // 0 disables clipping zero-out

	// Frequency estimation.
	DefaultEstimator      = EstimatorBand
	DefaultWindowSize     = 2048
	DefaultOverlap        = -1 // -1 selects WindowSize/8
	DefaultFFTSize        = 5000
	DefaultWindow         = "tukey"
	DefaultBandLow        = 40.0
	DefaultBandHigh       = 520.0
	DefaultEnvelopeWindow = 1000

	// Segmentation.
	DefaultMinConfidence = 0.65
	DefaultA4            = 440.0
	DefaultNoteLines     = true
	DefaultOctaves       = 8

	// Capture.
	DefaultDeviceID        = MinDeviceID
	DefaultSampleRate      = 44100
	DefaultChannels        = 1
	DefaultFramesPerBuffer = 512
	DefaultLowLatency      = false
	DefaultDuration        = 5 * time.Second

	// Hardware and processing limits
	MinDeviceID     = -1     // -1 represents system default device
	MinSampleRate   = 8000   // Hz
	MaxSampleRate   = 192000 // Hz
	MaxBufferFrames = 8192
	MaxChannels     = 32
)

// Estimator names accepted by analysis.estimator.
const (
	EstimatorBand     = "band"
	EstimatorGoertzel = "goertzel"
	EstimatorFrames   = "frames"
)

// MemoryCache selects the in-process cache for cache.path.
const MemoryCache = ":memory:"

// Config is the complete runtime configuration, loaded from YAML and then
// refined by environment variables and command line flags.
type Config struct {
	LogLevel  string          `yaml:"log_level"` // debug, info, warn, error
	Command   string          `yaml:"-"`         // set by the CLI: analyze, record, devices, notes
	Input     InputConfig     `yaml:"input"`
	Filter    FilterConfig    `yaml:"filter"`
	Analysis  AnalysisConfig  `yaml:"analysis"`
	Segmenter SegmenterConfig `yaml:"segmenter"`
	Cache     CacheConfig     `yaml:"cache"`
	Output    OutputConfig    `yaml:"output"`
	Transport TransportConfig `yaml:"transport"`
	Capture   CaptureConfig   `yaml:"capture"`
}

// InputConfig selects the clip and the part of it to analyse.
type InputConfig struct {
	Path  string  `yaml:"path"`
	Start float64 `yaml:"start"` // seconds, -1 for the beginning
	End   float64 `yaml:"end"`   // seconds, -1 for the end
}

// FilterConfig describes the low-pass stage applied before estimation.
type FilterConfig struct {
	CutoffHigh   float64 `yaml:"cutoff_high"`   // Hz, highest pitch of interest
	CutoffFactor float64 `yaml:"cutoff_factor"` // headroom multiplier over CutoffHigh
	Order        int     `yaml:"order"`
	ClipLimit    float64 `yaml:"clip_limit"` // zero samples above this magnitude, 0 disables
}

// AnalysisConfig selects and tunes the frame frequency estimator.
type AnalysisConfig struct {
	Estimator      string  `yaml:"estimator"`   // band, goertzel or frames
	FramesFile     string  `yaml:"frames_file"` // CSV of time,frequency,confidence for "frames"
	WindowSize     int     `yaml:"window_size"` // samples per analysis window
	Overlap        int     `yaml:"overlap"`     // samples, -1 for WindowSize/8
	FFTSize        int     `yaml:"fft_size"`    // band estimator transform length, 0 for next power of two
	Window         string  `yaml:"window"`      // taper name, see spectrum.ParseWindowFunc
	BandLow        float64 `yaml:"band_low"`    // Hz
	BandHigh       float64 `yaml:"band_high"`   // Hz
	EnvelopeWindow int     `yaml:"envelope_window"`
}

// SegmenterConfig controls note onset extraction.
type SegmenterConfig struct {
	MinConfidence float64 `yaml:"min_confidence"`
	A4            float64 `yaml:"a4"`         // tuning reference, Hz
	NoteLines     bool    `yaml:"note_lines"` // include note guides in the report
	Octaves       int     `yaml:"octaves"`    // note table size for guides
}

// CacheConfig locates the prediction cache. An empty path disables it.
type CacheConfig struct {
	Path string `yaml:"path"`
}

// OutputConfig lists the artefacts written after a run.
type OutputConfig struct {
	Report          string `yaml:"report"`           // JSON report path
	ExportWAV       string `yaml:"export_wav"`       // filtered signal as 16-bit WAV
	IncludeEnvelope bool   `yaml:"include_envelope"` // embed the envelope in the report
	TUI             bool   `yaml:"tui"`              // browse events in the terminal
}

// TransportConfig holds the visualisation feeds.
type TransportConfig struct {
	WebSocketAddr    string `yaml:"websocket_addr"`     // e.g. ":8080", empty disables
	UDPTargetAddress string `yaml:"udp_target_address"` // e.g. "127.0.0.1:9090", empty disables
}

// CaptureConfig holds the settings for recording a clip from an input device.
type CaptureConfig struct {
	Device          int           `yaml:"device"` // PortAudio device index, -1 for default
	SampleRate      float64       `yaml:"sample_rate"`
	Channels        int           `yaml:"channels"`
	FramesPerBuffer int           `yaml:"frames_per_buffer"`
	Duration        time.Duration `yaml:"duration"`
	LowLatency      bool          `yaml:"low_latency"`
}

// NewConfig returns a Config populated with the built-in defaults.
func NewConfig() *Config {
	return &Config{
		LogLevel: DefaultLogLevel,
		Input: InputConfig{
			Start: DefaultStart,
			End:   DefaultEnd,
		},
		Filter: FilterConfig{
			CutoffHigh:   DefaultCutoffHigh,
			CutoffFactor: DefaultCutoffFactor,
			Order:        DefaultFilterOrder,
			ClipLimit:    DefaultClipLimit,
		},
		Analysis: AnalysisConfig{
			Estimator:      DefaultEstimator,
			WindowSize:     DefaultWindowSize,
			Overlap:        DefaultOverlap,
			FFTSize:        DefaultFFTSize,
			Window:         DefaultWindow,
			BandLow:        DefaultBandLow,
			BandHigh:       DefaultBandHigh,
			EnvelopeWindow: DefaultEnvelopeWindow,
		},
		Segmenter: SegmenterConfig{
			MinConfidence: DefaultMinConfidence,
			A4:            DefaultA4,
			NoteLines:     DefaultNoteLines,
			Octaves:       DefaultOctaves,
		},
		Capture: CaptureConfig{
			Device:          DefaultDeviceID,
			SampleRate:      DefaultSampleRate,
			Channels:        DefaultChannels,
			FramesPerBuffer: DefaultFramesPerBuffer,
			Duration:        DefaultDuration,
			LowLatency:      DefaultLowLatency,
		},
	}
}
