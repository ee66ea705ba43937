// SPDX-License-Identifier: MIT
//
// Package spectrum computes a short-time spectrogram restricted to a frequency
// band and picks the dominant frequency of every frame.
package spectrum

import (
	"math/cmplx"

	"gonum.org/v1/gonum/dsp/fourier"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"notetrack/internal/errs"
	"notetrack/internal/log"
	"notetrack/pkg/bitint"
)

// Config controls the time/frequency trade-off. A longer WindowSize resolves
// frequency more finely and time more coarsely; FFTSize only interpolates
// the spectrum by zero-padding.
type Config struct {
	WindowSize int        // samples per segment
	Overlap    int        // samples shared by consecutive segments
	FFTSize    int        // transform length, >= WindowSize; 0 picks the next power of two
	Window     WindowFunc // taper applied after detrending
	BandLow    float64    // Hz, inclusive
	BandHigh   float64    // Hz, inclusive
}

// DefaultConfig returns a configuration with an eighth of the window as
// overlap, a 5000 point transform and a Tukey taper.
func DefaultConfig(windowSize int, bandLow, bandHigh float64) Config {
	return Config{
		WindowSize: windowSize,
		Overlap:    windowSize / 8,
		FFTSize:    max(5000, windowSize),
		Window:     Tukey,
		BandLow:    bandLow,
		BandHigh:   bandHigh,
	}
}

// Hop returns the distance in samples between segment starts.
func (c Config) Hop() int { return c.WindowSize - c.Overlap }

// Frame is one column of the band-limited spectrogram.
type Frame struct {
	Time        float64   // centre of the segment, seconds
	Frequencies []float64 // Hz, shared by every frame of one analysis
	Magnitudes  []float64 // parallel to Frequencies
}

// BandBin is a (frequency, magnitude) pair.
type BandBin struct {
	Frequency float64
	Magnitude float64
}

// Bin returns the i-th pair of the frame.
func (f Frame) Bin(i int) BandBin {
	return BandBin{Frequency: f.Frequencies[i], Magnitude: f.Magnitudes[i]}
}

// Len returns the number of bins in the band.
func (f Frame) Len() int { return len(f.Magnitudes) }

// Dominant returns the bin with the largest magnitude. The lowest frequency
// wins a tie.
func (f Frame) Dominant() BandBin {
	return f.Bin(floats.MaxIdx(f.Magnitudes))
}

// Analyzer computes band-limited spectrograms for one sample rate. It keeps
// a scratch buffer, so a single Analyzer must not be shared between
// goroutines; build one per clip instead.
type Analyzer struct {
	cfg        Config
	sampleRate float64
	fft        *fourier.FFT
	window     []float64
	lo         int // first band bin index
	freqs      []float64

	segment []float64
	coeffs  []complex128
}

// NewAnalyzer validates cfg and prepares the transform.
func NewAnalyzer(cfg Config, sampleRate float64) (*Analyzer, error) {
	if sampleRate <= 0 {
		return nil, errs.Invalid("sample rate must be positive, got %v", sampleRate)
	}
	if cfg.WindowSize < 1 {
		return nil, errs.Invalid("window size must be >= 1, got %d", cfg.WindowSize)
	}
	if cfg.Overlap < 0 || cfg.Overlap >= cfg.WindowSize {
		return nil, errs.Invalid("overlap must be in [0, %d), got %d", cfg.WindowSize, cfg.Overlap)
	}
	if cfg.FFTSize == 0 {
		cfg.FFTSize = bitint.NextPowerOfTwo(cfg.WindowSize)
	}
	if cfg.FFTSize < cfg.WindowSize {
		return nil, errs.Invalid("fft size %d is shorter than the window %d", cfg.FFTSize, cfg.WindowSize)
	}
	if cfg.BandLow < 0 || cfg.BandHigh <= cfg.BandLow {
		return nil, errs.Invalid("band [%v, %v] Hz is empty or negative", cfg.BandLow, cfg.BandHigh)
	}
	if cfg.BandHigh > sampleRate/2 {
		return nil, errs.Invalid("band high %v Hz is above Nyquist (%v Hz)", cfg.BandHigh, sampleRate/2)
	}
	if !bitint.IsPowerOfTwo(cfg.FFTSize) {
		log.Debugf("Spectrum: fft size %d is not a power of two, transforms run on the mixed-radix path", cfg.FFTSize)
	}

	a := &Analyzer{
		cfg:        cfg,
		sampleRate: sampleRate,
		fft:        fourier.NewFFT(cfg.FFTSize),
		window:     cfg.Window.Coefficients(cfg.WindowSize),
		lo:         -1,
		segment:    make([]float64, cfg.FFTSize),
		coeffs:     make([]complex128, cfg.FFTSize/2+1),
	}
	for k := range a.coeffs {
		f := a.fft.Freq(k) * sampleRate
		if f < cfg.BandLow || f > cfg.BandHigh {
			continue
		}
		if a.lo < 0 {
			a.lo = k
		}
		a.freqs = append(a.freqs, f)
	}
	if a.lo < 0 {
		return nil, errs.Invalid("band [%v, %v] Hz holds no bin at %v Hz resolution",
			cfg.BandLow, cfg.BandHigh, sampleRate/float64(cfg.FFTSize))
	}

	log.Infof("Spectrum: window %d (%v), hop %d, fft %d, band %.1f-%.1f Hz (%d bins)",
		cfg.WindowSize, cfg.Window, cfg.Hop(), cfg.FFTSize, cfg.BandLow, cfg.BandHigh, len(a.freqs))
	return a, nil
}

// Config returns the effective configuration.
func (a *Analyzer) Config() Config { return a.cfg }

// Frequencies returns the bin frequencies inside the band.
func (a *Analyzer) Frequencies() []float64 { return a.freqs }

// Compute slides the window across samples and returns one Frame per full
// segment. Each segment has its mean removed before the taper is applied.
func (a *Analyzer) Compute(samples []float64) ([]Frame, error) {
	n := a.cfg.WindowSize
	if len(samples) < n {
		return nil, errs.Invalid("signal of %d samples is shorter than the %d sample window", len(samples), n)
	}

	hop := a.cfg.Hop()
	count := (len(samples)-n)/hop + 1
	frames := make([]Frame, 0, count)
	// One backing array for every frame's magnitudes.
	width := len(a.freqs)
	mags := make([]float64, count*width)

	for i := range count {
		start := i * hop
		seg := samples[start : start+n]
		mean := stat.Mean(seg, nil)

		for j, x := range seg {
			a.segment[j] = (x - mean) * a.window[j]
		}
		clear(a.segment[n:])

		a.fft.Coefficients(a.coeffs, a.segment)

		row := mags[i*width : (i+1)*width : (i+1)*width]
		for j := range row {
			row[j] = cmplx.Abs(a.coeffs[a.lo+j])
		}
		frames = append(frames, Frame{
			Time:        (float64(start) + float64(n)/2) / a.sampleRate,
			Frequencies: a.freqs,
			Magnitudes:  row,
		})
	}
	return frames, nil
}
