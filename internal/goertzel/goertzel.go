// SPDX-License-Identifier: MIT
//
// Package goertzel evaluates individual DFT terms for a sparse set of
// frequency ranges. For a window of N samples and B distinct bins the cost is
// O(N*B), which beats a full transform when only a handful of note
// frequencies are of interest.
package goertzel

import (
	"math"

	"notetrack/internal/errs"
)

// Range is a requested frequency span in Hz. Bins are taken from
// floor(Start/step) up to, but not including, ceil(End/step).
type Range struct {
	Start float64
	End   float64
}

// Bin is the DFT term computed for one bin index.
type Bin struct {
	Index     int
	Frequency float64 // Hz
	Real      float64
	Imag      float64
	Power     float64
}

type term struct {
	k     int
	coeff float64
	sin   float64
}

// Plan holds the distinct bins for a window size, sample rate and set of
// ranges. It is immutable once built and safe for concurrent use.
type Plan struct {
	windowSize int
	sampleRate float64
	terms      []term
}

// NewPlan resolves ranges into distinct bin indices for windows of
// windowSize samples. Bins keep the order in which they were first requested.
//
// A range whose ceil(End/step) exceeds windowSize-1 yields ErrOutOfRange.
// A range that collapses to a single index (Start and End inside the same
// step) contributes that one bin.
func NewPlan(windowSize int, sampleRate float64, ranges ...Range) (*Plan, error) {
	if windowSize <= 0 {
		return nil, errs.Invalid("window size must be positive, got %d", windowSize)
	}
	if sampleRate <= 0 || math.IsNaN(sampleRate) || math.IsInf(sampleRate, 0) {
		return nil, errs.Invalid("sample rate must be positive, got %v", sampleRate)
	}
	if len(ranges) == 0 {
		return nil, errs.Invalid("at least one frequency range is required")
	}

	step := sampleRate / float64(windowSize)
	seen := make(map[int]struct{})
	var bins []int

	for _, r := range ranges {
		if r.Start < 0 || r.End < r.Start || math.IsNaN(r.Start) || math.IsNaN(r.End) {
			return nil, errs.Invalid("malformed frequency range (%v, %v)", r.Start, r.End)
		}
		kStart := int(math.Floor(r.Start / step))
		kEnd := int(math.Ceil(r.End / step))
		if kEnd > windowSize-1 {
			return nil, errs.OutOfRange("range (%v, %v) Hz needs bin %d, window of %d holds up to %d",
				r.Start, r.End, kEnd, windowSize, windowSize-1)
		}
		// Start == End on a bin boundary would yield nothing; an exact-frequency request gets that bin.
		if kEnd == kStart {
			kEnd++
		}
		for k := kStart; k < kEnd; k++ {
			if _, ok := seen[k]; ok {
				continue
			}
			seen[k] = struct{}{}
			bins = append(bins, k)
		}
	}

	p := &Plan{
		windowSize: windowSize,
		sampleRate: sampleRate,
		terms:      make([]term, len(bins)),
	}
	for i, k := range bins {
		w := 2 * math.Pi * float64(k) / float64(windowSize)
		p.terms[i] = term{k: k, coeff: 2 * math.Cos(w), sin: math.Sin(w)}
	}
	return p, nil
}

// Len returns the number of distinct bins in the plan.
func (p *Plan) Len() int { return len(p.terms) }

// WindowSize returns the number of samples each Run expects.
func (p *Plan) WindowSize() int { return p.windowSize }

// Step returns the bin spacing in Hz.
func (p *Plan) Step() float64 { return p.sampleRate / float64(p.windowSize) }

// Run computes every planned bin over samples and returns a new slice.
func (p *Plan) Run(samples []float64) ([]Bin, error) {
	out := make([]Bin, len(p.terms))
	if err := p.RunInto(out, samples); err != nil {
		return nil, err
	}
	return out, nil
}

// RunInto is Run without allocation; dst must hold Len() bins.
func (p *Plan) RunInto(dst []Bin, samples []float64) error {
	if len(samples) != p.windowSize {
		return errs.Invalid("plan expects %d samples, got %d", p.windowSize, len(samples))
	}
	if len(dst) != len(p.terms) {
		return errs.Invalid("destination holds %d bins, plan has %d", len(dst), len(p.terms))
	}

	step := p.Step()
	for i, t := range p.terms {
		var d1, d2 float64
		for _, x := range samples {
			y := x + t.coeff*d1 - d2
			d2, d1 = d1, y
		}
		dst[i] = Bin{
			Index:     t.k,
			Frequency: float64(t.k) * step,
			Real:      0.5*t.coeff*d1 - d2,
			Imag:      t.sin * d1,
			Power:     d2*d2 + d1*d1 - t.coeff*d1*d2,
		}
	}
	return nil
}

// Analyze plans and runs in one call, using len(samples) as the window.
func Analyze(samples []float64, sampleRate float64, ranges ...Range) ([]Bin, error) {
	p, err := NewPlan(len(samples), sampleRate, ranges...)
	if err != nil {
		return nil, err
	}
	return p.Run(samples)
}

// Peak returns the bin with the highest power. The first one wins a tie.
func Peak(bins []Bin) (Bin, bool) {
	if len(bins) == 0 {
		return Bin{}, false
	}
	best := bins[0]
	for _, b := range bins[1:] {
		if b.Power > best.Power {
			best = b
		}
	}
	return best, true
}
