// SPDX-License-Identifier: MIT
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"

	"notetrack/internal/errs"
	"notetrack/internal/log"
	"notetrack/internal/spectrum"
)

// LoadConfig loads configuration from a YAML file specified by path. If path is empty,
// it searches default locations ("notetrack.yaml", "config.yaml"). If no file is found,
// it uses built-in defaults. After loading defaults or from file, it applies environment
// variable overrides and validates the final configuration.
func LoadConfig(path string) (*Config, error) {
	cfg := NewConfig()

	if path == "" {
		for _, candidate := range []string{"notetrack.yaml", "config.yaml"} {
			if _, err := os.Stat(candidate); err == nil {
				path = candidate
				break
			}
		}
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
		log.Debugf("Config: loaded %s", path)
	}

	// Apply environment variable overrides AFTER loading from file.
	cfg.applyEnvOverrides()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// Validate reports every malformed value at once. Each error wraps
// errs.ErrInvalidParameter.
func (c *Config) Validate() error {
	var problems []error
	check := func(ok bool, format string, args ...any) {
		if !ok {
			problems = append(problems, errs.Invalid(format, args...))
		}
	}

	_, ok := log.ParseLevel(c.LogLevel)
	check(ok, "log_level %q is not one of debug, info, warn, error", c.LogLevel)

	// Input
	check(c.Input.Start == -1 || c.Input.Start >= 0, "input.start must be >= 0 or -1, got %v", c.Input.Start)
	check(c.Input.End == -1 || c.Input.End > 0, "input.end must be > 0 or -1, got %v", c.Input.End)
	check(c.Input.Start < 0 || c.Input.End < 0 || c.Input.End > c.Input.Start,
		"input.end (%v) must be after input.start (%v)", c.Input.End, c.Input.Start)

	// Filter
	check(c.Filter.CutoffHigh > 0, "filter.cutoff_high must be positive, got %v", c.Filter.CutoffHigh)
	check(c.Filter.CutoffFactor > 0, "filter.cutoff_factor must be positive, got %v", c.Filter.CutoffFactor)
	check(c.Filter.Order >= 1, "filter.order must be >= 1, got %d", c.Filter.Order)
	check(c.Filter.ClipLimit >= 0, "filter.clip_limit must be >= 0, got %v", c.Filter.ClipLimit)

	// Analysis
	a := c.Analysis
	switch a.Estimator {
	case EstimatorBand, EstimatorGoertzel:
	case EstimatorFrames:
		check(a.FramesFile != "", "analysis.frames_file is required for the %q estimator", EstimatorFrames)
	default:
		check(false, "analysis.estimator %q is not one of band, goertzel, frames", a.Estimator)
	}
	check(a.WindowSize >= 1, "analysis.window_size must be >= 1, got %d", a.WindowSize)
	check(a.Overlap >= -1 && a.Overlap < a.WindowSize,
		"analysis.overlap must be -1 or in [0, %d), got %d", a.WindowSize, a.Overlap)
	check(a.FFTSize == 0 || a.FFTSize >= a.WindowSize,
		"analysis.fft_size must be 0 or >= window_size (%d), got %d", a.WindowSize, a.FFTSize)
	if _, err := spectrum.ParseWindowFunc(a.Window); err != nil {
		problems = append(problems, err)
	}
	check(a.BandLow >= 0, "analysis.band_low must be >= 0, got %v", a.BandLow)
	check(a.BandHigh > a.BandLow, "analysis.band_high (%v) must exceed band_low (%v)", a.BandHigh, a.BandLow)
	check(a.EnvelopeWindow >= 1, "analysis.envelope_window must be >= 1, got %d", a.EnvelopeWindow)

	// Segmenter
	check(c.Segmenter.A4 > 0, "segmenter.a4 must be positive, got %v", c.Segmenter.A4)
	check(c.Segmenter.MinConfidence >= 0 && c.Segmenter.MinConfidence <= 1,
		"segmenter.min_confidence must be in [0, 1], got %v", c.Segmenter.MinConfidence)
	check(c.Segmenter.Octaves >= 1, "segmenter.octaves must be >= 1, got %d", c.Segmenter.Octaves)

	// Capture
	cp := c.Capture
	check(cp.Device >= MinDeviceID, "capture.device must be >= %d, got %d", MinDeviceID, cp.Device)
	check(cp.SampleRate >= MinSampleRate && cp.SampleRate <= MaxSampleRate,
		"capture.sample_rate must be in [%d, %d], got %v", MinSampleRate, MaxSampleRate, cp.SampleRate)
	check(cp.Channels >= 1 && cp.Channels <= MaxChannels,
		"capture.channels must be in [1, %d], got %d", MaxChannels, cp.Channels)
	check(cp.FramesPerBuffer >= 1 && cp.FramesPerBuffer <= MaxBufferFrames,
		"capture.frames_per_buffer must be in [1, %d], got %d", MaxBufferFrames, cp.FramesPerBuffer)
	check(cp.Duration > 0, "capture.duration must be positive, got %v", cp.Duration)

	return errors.Join(problems...)
}

// applyEnvOverrides applies ENV_* variables on top of file values. Values that
// fail to parse are logged and ignored.
func (cfg *Config) applyEnvOverrides() {
	// ENV_LOG_LEVEL
	if val, ok := os.LookupEnv("ENV_LOG_LEVEL"); ok {
		cfg.LogLevel = val
		log.Debugf("Config: overriding log_level from env: %s", val)
	}

	// ENV_A4
	if val, ok := os.LookupEnv("ENV_A4"); ok {
		if f, err := strconv.ParseFloat(val, 64); err == nil {
			cfg.Segmenter.A4 = f
			log.Debugf("Config: overriding segmenter.a4 from env: %v", f)
		} else {
			log.Warnf("Config: ignoring ENV_A4=%q: %v", val, err)
		}
	}

	// ENV_MIN_CONFIDENCE
	if val, ok := os.LookupEnv("ENV_MIN_CONFIDENCE"); ok {
		if f, err := strconv.ParseFloat(val, 64); err == nil {
			cfg.Segmenter.MinConfidence = f
			log.Debugf("Config: overriding segmenter.min_confidence from env: %v", f)
		} else {
			log.Warnf("Config: ignoring ENV_MIN_CONFIDENCE=%q: %v", val, err)
		}
	}

	// ENV_ESTIMATOR
	if val, ok := os.LookupEnv("ENV_ESTIMATOR"); ok {
		cfg.Analysis.Estimator = val
		log.Debugf("Config: overriding analysis.estimator from env: %s", val)
	}

	// ENV_CACHE_PATH
	if val, ok := os.LookupEnv("ENV_CACHE_PATH"); ok {
		cfg.Cache.Path = val
		log.Debugf("Config: overriding cache.path from env: %s", val)
	}

	// ENV_UDP_TARGET_ADDRESS
	if val, ok := os.LookupEnv("ENV_UDP_TARGET_ADDRESS"); ok {
		cfg.Transport.UDPTargetAddress = val
		log.Debugf("Config: overriding transport.udp_target_address from env: %s", val)
	}
}
