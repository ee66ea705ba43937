// SPDX-License-Identifier: MIT
//
// Package envelope computes the smoothed amplitude envelope of a signal and
// gates frames as voiced or silent against its mean.
package envelope

import (
	"math"

	"gonum.org/v1/gonum/stat"

	"notetrack/internal/errs"
)

// Compute returns the amplitude envelope of signal: the trailing moving
// average of |x| over window samples. The result has the same length as
// signal. The first window-1 positions, which have no full window behind
// them, repeat the first complete average.
//
// window must satisfy 1 <= window <= len(signal).
func Compute(signal []float64, window int) ([]float64, error) {
	if window < 1 {
		return nil, errs.Invalid("envelope window must be >= 1, got %d", window)
	}
	if window > len(signal) {
		return nil, errs.Invalid("envelope window %d exceeds signal length %d", window, len(signal))
	}

	out := make([]float64, len(signal))
	inv := 1 / float64(window)

	var sum float64
	for i := range window {
		sum += math.Abs(signal[i])
	}
	out[window-1] = math.Max(0, sum*inv)

	for i := window; i < len(signal); i++ {
		sum += math.Abs(signal[i]) - math.Abs(signal[i-window])
		// Rounding in the running sum can dip just below zero on silence.
		out[i] = math.Max(0, sum*inv)
	}

	for i := range window - 1 {
		out[i] = out[window-1]
	}
	return out, nil
}

// Gate decides whether a sample offset is voiced. The threshold is the mean
// of the whole envelope.
type Gate struct {
	env       []float64
	threshold float64
}

// NewGate builds a gate over env. The slice is retained, not copied.
func NewGate(env []float64) (*Gate, error) {
	if len(env) == 0 {
		return nil, errs.Invalid("envelope is empty")
	}
	return &Gate{env: env, threshold: stat.Mean(env, nil)}, nil
}

// Threshold returns the mean envelope value.
func (g *Gate) Threshold() float64 { return g.threshold }

// Len returns the number of samples covered by the gate.
func (g *Gate) Len() int { return len(g.env) }

// Voiced reports whether the envelope at offset strictly exceeds the
// threshold. Offsets past either end are clamped to the buffer.
func (g *Gate) Voiced(offset int) bool {
	return g.At(offset) > g.threshold
}

// At returns the envelope value at offset, clamped to the buffer.
func (g *Gate) At(offset int) float64 {
	offset = max(0, min(offset, len(g.env)-1))
	return g.env[offset]
}

// ZeroClipped returns a copy of signal with every sample whose magnitude
// exceeds limit set to zero.
func ZeroClipped(signal []float64, limit float64) ([]float64, error) {
	if !(limit > 0) {
		return nil, errs.Invalid("clip limit must be positive, got %v", limit)
	}
	out := make([]float64, len(signal))
	for i, v := range signal {
		if math.Abs(v) <= limit {
			out[i] = v
		}
	}
	return out, nil
}
