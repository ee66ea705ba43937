// SPDX-License-Identifier: MIT
package goertzel

import (
	"errors"
	"math"
	"math/cmplx"
	"testing"

	"github.com/mjibson/go-dsp/fft"

	"notetrack/internal/errs"
	"notetrack/pkg/utils"
)

func TestAnalyze_NearestBinHasHighestPower(t *testing.T) {
	samples := utils.GenerateSineWave(1000, 1000, 100.3, 1)

	bins, err := Analyze(samples, 1000, Range{90, 105}, Range{98, 112})
	if err != nil {
		t.Fatalf("Analyze() error: %v", err)
	}

	peak, ok := Peak(bins)
	if !ok {
		t.Fatal("Peak() found nothing")
	}
	if peak.Index != 100 || peak.Frequency != 100 {
		t.Fatalf("peak at bin %d (%.1f Hz), want bin 100", peak.Index, peak.Frequency)
	}
	for _, b := range bins {
		if b.Index != peak.Index && b.Power >= peak.Power {
			t.Errorf("bin %d power %.3f not below peak %.3f", b.Index, b.Power, peak.Power)
		}
	}
}

func TestAnalyze_DeduplicatesInInsertionOrder(t *testing.T) {
	samples := make([]float64, 100)
	bins, err := Analyze(samples, 100, Range{10, 14}, Range{12, 16}, Range{5, 7})
	if err != nil {
		t.Fatal(err)
	}
	want := []int{10, 11, 12, 13, 14, 15, 5, 6}
	if len(bins) != len(want) {
		t.Fatalf("got %d bins, want %d", len(bins), len(want))
	}
	for i, k := range want {
		if bins[i].Index != k {
			t.Errorf("bins[%d].Index = %d, want %d", i, bins[i].Index, k)
		}
	}
}

func TestAnalyze_SingleBinRange(t *testing.T) {
	samples := make([]float64, 100)
	bins, err := Analyze(samples, 100, Range{20, 20})
	if err != nil {
		t.Fatal(err)
	}
	if len(bins) != 1 || bins[0].Index != 20 {
		t.Fatalf("got %+v, want exactly bin 20", bins)
	}
}

func TestAnalyze_OutOfRange(t *testing.T) {
	samples := make([]float64, 100)
	_, err := Analyze(samples, 100, Range{0, 150})
	if !errors.Is(err, errs.ErrOutOfRange) {
		t.Fatalf("expected ErrOutOfRange, got %v", err)
	}

	// ceil(99/1) = 99 is the last valid index.
	if _, err := Analyze(samples, 100, Range{90, 99}); err != nil {
		t.Errorf("range ending on the last bin should pass, got %v", err)
	}
}

func TestAnalyze_InvalidParameters(t *testing.T) {
	tests := []struct {
		name       string
		samples    []float64
		sampleRate float64
		ranges     []Range
	}{
		{"Empty window", nil, 100, []Range{{1, 2}}},
		{"Zero sample rate", make([]float64, 10), 0, []Range{{1, 2}}},
		{"No ranges", make([]float64, 10), 100, nil},
		{"Negative start", make([]float64, 10), 100, []Range{{-1, 2}}},
		{"Reversed range", make([]float64, 10), 100, []Range{{30, 20}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Analyze(tt.samples, tt.sampleRate, tt.ranges...)
			if !errors.Is(err, errs.ErrInvalidParameter) {
				t.Errorf("expected ErrInvalidParameter, got %v", err)
			}
		})
	}
}

func TestAnalyze_MatchesFFT(t *testing.T) {
	const n = 512
	const fs = 8000.0
	samples := utils.GenerateComplexWave(n, fs)

	bins, err := Analyze(samples, fs, Range{0, 2000})
	if err != nil {
		t.Fatal(err)
	}
	spectrum := fft.FFTReal(samples)

	for _, b := range bins {
		want := cmplx.Abs(spectrum[b.Index])
		want *= want
		if math.Abs(b.Power-want) > 1e-6*math.Max(1, want) {
			t.Errorf("bin %d: power %.6f, FFT %.6f", b.Index, b.Power, want)
		}
		if mag := b.Real*b.Real + b.Imag*b.Imag; math.Abs(mag-b.Power) > 1e-6*math.Max(1, b.Power) {
			t.Errorf("bin %d: real^2+imag^2 = %.6f, power %.6f", b.Index, mag, b.Power)
		}
	}
}

func TestPlan_RunIntoZeroAllocs(t *testing.T) {
	p, err := NewPlan(1024, 16000, Range{400, 480}, Range{500, 540})
	if err != nil {
		t.Fatal(err)
	}
	samples := utils.GenerateSineWave(1024, 16000, 440, 1)
	dst := make([]Bin, p.Len())

	allocs := testing.AllocsPerRun(100, func() {
		_ = p.RunInto(dst, samples)
	})
	if allocs > 0 {
		t.Errorf("expected zero allocations in RunInto, got %.1f", allocs)
	}
}

func TestPlan_RunRejectsWrongLength(t *testing.T) {
	p, err := NewPlan(64, 1000, Range{100, 200})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := p.Run(make([]float64, 63)); !errors.Is(err, errs.ErrInvalidParameter) {
		t.Errorf("expected ErrInvalidParameter, got %v", err)
	}
}

func TestPeak_Empty(t *testing.T) {
	if _, ok := Peak(nil); ok {
		t.Error("Peak(nil) reported a bin")
	}
}

func BenchmarkPlanRun(b *testing.B) {
	p, err := NewPlan(1024, 16000, Range{40, 520})
	if err != nil {
		b.Fatal(err)
	}
	samples := utils.GenerateComplexWave(1024, 16000)
	dst := make([]Bin, p.Len())
	b.ReportAllocs()
	for b.Loop() {
		_ = p.RunInto(dst, samples)
	}
}
