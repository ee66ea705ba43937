// SPDX-License-Identifier: MIT
package analysis

import (
	"notetrack/internal/config"
	"notetrack/internal/envelope"
	"notetrack/internal/errs"
	"notetrack/internal/segment"
	"notetrack/internal/spectrum"
)

// Input is what an Estimator sees: the filtered mono signal and the voicing
// gate built from its envelope.
type Input struct {
	Samples    []float64
	SampleRate float64
	Gate       *envelope.Gate
}

// Estimator turns a complete signal into a frame-wise pitch track.
// Implementations hold configuration only, so one value may serve many
// clips concurrently.
type Estimator interface {
	Estimate(in Input) ([]segment.Frame, error)
	// Describe renders every setting that changes the output.
	Describe() string
}

// Compile-time checks for interface implementations.
var (
	_ Estimator = (*BandEstimator)(nil)
	_ Estimator = (*GoertzelEstimator)(nil)
	_ Estimator = (*PredictionFile)(nil)
)

// NewEstimator builds the estimator selected by cfg.Analysis.Estimator. The
// choice is made once here; nothing downstream branches on it.
func NewEstimator(cfg *config.Config) (Estimator, error) {
	a := cfg.Analysis
	switch a.Estimator {
	case config.EstimatorBand:
		return &BandEstimator{
			Spectrum: spectrum.Config{
				WindowSize: a.WindowSize,
				Overlap:    cfg.Overlap(),
				FFTSize:    a.FFTSize,
				Window:     cfg.WindowFunc(),
				BandLow:    a.BandLow,
				BandHigh:   a.BandHigh,
			},
		}, nil
	case config.EstimatorGoertzel:
		return &GoertzelEstimator{
			WindowSize: a.WindowSize,
			Hop:        cfg.HopSize(),
			Window:     cfg.WindowFunc(),
			BandLow:    a.BandLow,
			BandHigh:   a.BandHigh,
			A4:         cfg.Segmenter.A4,
		}, nil
	case config.EstimatorFrames:
		return &PredictionFile{Path: a.FramesFile}, nil
	default:
		return nil, errs.Invalid("unknown estimator %q", a.Estimator)
	}
}

// gateConfidence maps the gate decision at a frame centre to 1 or 0. A DC
// peak is never voiced.
func gateConfidence(g *envelope.Gate, centre, sampleRate, freq float64) float64 {
	if freq <= 0 {
		return 0
	}
	if g == nil || g.Voiced(int(centre*sampleRate)) {
		return 1
	}
	return 0
}
