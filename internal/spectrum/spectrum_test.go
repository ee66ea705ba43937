// SPDX-License-Identifier: MIT
package spectrum

import (
	"errors"
	"math"
	"testing"

	"notetrack/internal/errs"
	"notetrack/pkg/utils"
)

const testSampleRate = 16000

func TestCompute_DominantFrequency(t *testing.T) {
	for _, freq := range []float64{110, 261.63, 440, 523.25} {
		samples := utils.GenerateSineWave(testSampleRate, testSampleRate, freq, 0.8)
		a, err := NewAnalyzer(Config{
			WindowSize: 2048, Overlap: 1536, FFTSize: 8192,
			Window: Hann, BandLow: 100, BandHigh: 1000,
		}, testSampleRate)
		if err != nil {
			t.Fatal(err)
		}
		frames, err := a.Compute(samples)
		if err != nil {
			t.Fatal(err)
		}
		resolution := float64(testSampleRate) / 8192
		for i, f := range frames {
			if got := f.Dominant().Frequency; math.Abs(got-freq) > resolution {
				t.Errorf("%.2f Hz: frame %d dominant %.2f Hz", freq, i, got)
			}
		}
	}
}

func TestCompute_FrameLayout(t *testing.T) {
	samples := make([]float64, 16000)
	a, err := NewAnalyzer(Config{
		WindowSize: 2048, Overlap: 1536, FFTSize: 8192,
		Window: Tukey, BandLow: 100, BandHigh: 1000,
	}, testSampleRate)
	if err != nil {
		t.Fatal(err)
	}
	frames, err := a.Compute(samples)
	if err != nil {
		t.Fatal(err)
	}

	if len(frames) != 28 {
		t.Fatalf("got %d frames, want 28", len(frames))
	}
	if math.Abs(frames[0].Time-0.064) > 1e-12 {
		t.Errorf("first frame at %v s, want 0.064", frames[0].Time)
	}
	if dt := frames[1].Time - frames[0].Time; math.Abs(dt-0.032) > 1e-12 {
		t.Errorf("frame spacing %v s, want 0.032", dt)
	}
	for _, f := range frames {
		if f.Len() != len(a.Frequencies()) {
			t.Fatalf("frame has %d bins, analyzer %d", f.Len(), len(a.Frequencies()))
		}
		if f.Frequencies[0] < 100 || f.Frequencies[f.Len()-1] > 1000 {
			t.Fatalf("bins outside band: %.2f..%.2f", f.Frequencies[0], f.Frequencies[f.Len()-1])
		}
	}
}

func TestCompute_RemovesDCOffset(t *testing.T) {
	samples := utils.GenerateSineWave(8192, testSampleRate, 300, 0.1)
	for i := range samples {
		samples[i] += 5
	}
	a, err := NewAnalyzer(Config{WindowSize: 4096, Overlap: 0, Window: Rectangular, BandLow: 0, BandHigh: 1000}, testSampleRate)
	if err != nil {
		t.Fatal(err)
	}
	frames, err := a.Compute(samples)
	if err != nil {
		t.Fatal(err)
	}
	if got := frames[0].Dominant().Frequency; math.Abs(got-300) > 4 {
		t.Errorf("dominant %.2f Hz, want ~300 (DC should be removed)", got)
	}
}

func TestNewAnalyzer_InvalidConfig(t *testing.T) {
	base := Config{WindowSize: 1024, Overlap: 128, FFTSize: 2048, BandLow: 40, BandHigh: 520}
	tests := []struct {
		name   string
		mutate func(c *Config)
	}{
		{"Zero window", func(c *Config) { c.WindowSize = 0 }},
		{"Overlap equals window", func(c *Config) { c.Overlap = 1024 }},
		{"Negative overlap", func(c *Config) { c.Overlap = -1 }},
		{"FFT shorter than window", func(c *Config) { c.FFTSize = 512 }},
		{"Empty band", func(c *Config) { c.BandHigh = c.BandLow }},
		{"Above Nyquist", func(c *Config) { c.BandHigh = 9000 }},
		{"No bins in band", func(c *Config) { c.WindowSize, c.Overlap, c.FFTSize, c.BandLow, c.BandHigh = 16, 0, 16, 100, 101 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := base
			tt.mutate(&cfg)
			if _, err := NewAnalyzer(cfg, testSampleRate); !errors.Is(err, errs.ErrInvalidParameter) {
				t.Errorf("expected ErrInvalidParameter, got %v", err)
			}
		})
	}
}

func TestNewAnalyzer_DefaultFFTSize(t *testing.T) {
	a, err := NewAnalyzer(Config{WindowSize: 1000, BandLow: 40, BandHigh: 520}, testSampleRate)
	if err != nil {
		t.Fatal(err)
	}
	if got := a.Config().FFTSize; got != 1024 {
		t.Errorf("FFTSize = %d, want 1024", got)
	}
}

func TestCompute_ShortSignal(t *testing.T) {
	a, err := NewAnalyzer(DefaultConfig(1024, 40, 520), testSampleRate)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := a.Compute(make([]float64, 1000)); !errors.Is(err, errs.ErrInvalidParameter) {
		t.Errorf("expected ErrInvalidParameter, got %v", err)
	}
}

func TestDefaultConfig(t *testing.T) {
	c := DefaultConfig(256, 40, 520)
	if c.Overlap != 32 || c.FFTSize != 5000 || c.Window != Tukey || c.Hop() != 224 {
		t.Errorf("unexpected defaults: %+v (hop %d)", c, c.Hop())
	}
}

func TestParseWindowFunc(t *testing.T) {
	tests := []struct {
		in      string
		want    WindowFunc
		wantErr bool
	}{
		{"", Tukey, false},
		{"Tukey", Tukey, false},
		{"hanning", Hann, false},
		{"BOXCAR", Rectangular, false},
		{"nuttall", Nuttall, false},
		{"kaiser", Tukey, true},
	}
	for _, tt := range tests {
		got, err := ParseWindowFunc(tt.in)
		if got != tt.want || (err != nil) != tt.wantErr {
			t.Errorf("ParseWindowFunc(%q) = %v, %v; want %v, err %v", tt.in, got, err, tt.want, tt.wantErr)
		}
	}
}

func TestWindowCoefficients(t *testing.T) {
	rect := Rectangular.Coefficients(8)
	for i, v := range rect {
		if v != 1 {
			t.Errorf("rectangular[%d] = %v, want 1", i, v)
		}
	}
	tukey := Tukey.Coefficients(64)
	if tukey[0] > 1e-6 || math.Abs(tukey[32]-1) > 1e-6 {
		t.Errorf("tukey edges/centre = %v/%v, want 0/1", tukey[0], tukey[32])
	}
}

func BenchmarkCompute(b *testing.B) {
	samples := utils.GenerateComplexWave(32000, testSampleRate)
	a, err := NewAnalyzer(DefaultConfig(2048, 40, 520), testSampleRate)
	if err != nil {
		b.Fatal(err)
	}
	b.ReportAllocs()
	for b.Loop() {
		_, _ = a.Compute(samples)
	}
}
