// SPDX-License-Identifier: MIT
package analysis

import (
	"fmt"

	"notetrack/internal/segment"
	"notetrack/internal/spectrum"
)

// BandEstimator reports the dominant spectrogram bin inside the band for every
// window. Confidence is 1 where the envelope gate is open at the window
// centre and 0 elsewhere.
type BandEstimator struct {
	Spectrum spectrum.Config
}

func (e *BandEstimator) Describe() string {
	c := e.Spectrum
	return fmt.Sprintf("band window=%d hop=%d fft=%d taper=%s band=%g-%g",
		c.WindowSize, c.Hop(), c.FFTSize, c.Window, c.BandLow, c.BandHigh)
}

func (e *BandEstimator) Estimate(in Input) ([]segment.Frame, error) {
	a, err := spectrum.NewAnalyzer(e.Spectrum, in.SampleRate)
	if err != nil {
		return nil, err
	}
	columns, err := a.Compute(in.Samples)
	if err != nil {
		return nil, err
	}

	frames := make([]segment.Frame, len(columns))
	for i, col := range columns {
		f := col.Dominant().Frequency
		frames[i] = segment.Frame{
			Time:       col.Time,
			Frequency:  f,
			Confidence: gateConfidence(in.Gate, col.Time, in.SampleRate, f),
		}
	}
	return frames, nil
}
