// SPDX-License-Identifier: MIT
package analysis

import (
	"fmt"
	"math"

	"notetrack/internal/errs"
	"notetrack/internal/goertzel"
	"notetrack/internal/pitch"
	"notetrack/internal/segment"
	"notetrack/internal/spectrum"
)

// halfSemitone is the frequency ratio from a note centre to its boundary.
var halfSemitone = math.Pow(2, 1.0/24)

// GoertzelEstimator evaluates only the bins of equal-tempered notes
// overlapping the band. Each window's frequency is the bin with the most
// power; confidence comes from the envelope gate as for BandEstimator.
type GoertzelEstimator struct {
	WindowSize int
	Hop        int
	Window     spectrum.WindowFunc
	BandLow    float64
	BandHigh   float64
	A4         float64
}

func (e *GoertzelEstimator) Describe() string {
	return fmt.Sprintf("goertzel window=%d hop=%d taper=%s band=%g-%g a4=%g",
		e.WindowSize, e.Hop, e.Window, e.BandLow, e.BandHigh, e.A4)
}

// NoteRanges returns one range per note whose half-semitone span overlaps
// [low, high], clipped to the band. A band edge that falls inside a note's
// span still yields that note, so every in-band frequency maps to the same
// note NoteFor gives it.
func NoteRanges(low, high, a4 float64) ([]goertzel.Range, error) {
	if !(a4 > 0) {
		return nil, errs.Invalid("A4 reference must be positive, got %v", a4)
	}
	if low < 0 || high <= low {
		return nil, errs.Invalid("band [%v, %v] Hz is empty or negative", low, high)
	}

	c0 := pitch.C0(a4)
	first := int(math.Floor(12*math.Log2(math.Max(low, 1e-9)/c0) - 0.5))
	var ranges []goertzel.Range
	for s := first; ; s++ {
		centre := c0 * math.Pow(2, float64(s)/12)
		start, end := centre/halfSemitone, centre*halfSemitone
		if start >= high {
			break
		}
		if end <= low {
			continue
		}
		ranges = append(ranges, goertzel.Range{Start: math.Max(start, low), End: math.Min(end, high)})
	}
	if len(ranges) == 0 {
		return nil, errs.Invalid("band [%v, %v] Hz holds no note", low, high)
	}
	return ranges, nil
}

func (e *GoertzelEstimator) Estimate(in Input) ([]segment.Frame, error) {
	n := e.WindowSize
	if n < 1 || e.Hop < 1 {
		return nil, errs.Invalid("window (%d) and hop (%d) must be >= 1", n, e.Hop)
	}
	if len(in.Samples) < n {
		return nil, errs.Invalid("signal of %d samples is shorter than the %d sample window", len(in.Samples), n)
	}

	ranges, err := NoteRanges(e.BandLow, e.BandHigh, e.A4)
	if err != nil {
		return nil, err
	}
	plan, err := goertzel.NewPlan(n, in.SampleRate, ranges...)
	if err != nil {
		return nil, err
	}

	taper := e.Window.Coefficients(n)
	buf := make([]float64, n)
	bins := make([]goertzel.Bin, plan.Len())

	count := (len(in.Samples)-n)/e.Hop + 1
	frames := make([]segment.Frame, count)
	for i := range count {
		start := i * e.Hop
		for j, x := range in.Samples[start : start+n] {
			buf[j] = x * taper[j]
		}
		if err := plan.RunInto(bins, buf); err != nil {
			return nil, err
		}
		peak, _ := goertzel.Peak(bins)

		centre := (float64(start) + float64(n)/2) / in.SampleRate
		frames[i] = segment.Frame{
			Time:       centre,
			Frequency:  peak.Frequency,
			Confidence: gateConfidence(in.Gate, centre, in.SampleRate, peak.Frequency),
		}
	}
	return frames, nil
}
