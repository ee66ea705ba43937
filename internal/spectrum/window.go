// SPDX-License-Identifier: MIT
package spectrum

import (
	"strings"

	"gonum.org/v1/gonum/dsp/window"

	"notetrack/internal/errs"
)

// WindowFunc selects the taper applied to each analysis segment.
type WindowFunc int

// Available window functions.
const (
	Tukey WindowFunc = iota
	Rectangular
	BartlettHann
	Blackman
	BlackmanNuttall
	Hann
	Hamming
	Lanczos
	Nuttall
)

// TukeyAlpha is the taper ratio used by the Tukey window.
const TukeyAlpha = 0.25

var windowNames = map[WindowFunc]string{
	Tukey:           "tukey",
	Rectangular:     "rectangular",
	BartlettHann:    "bartletthann",
	Blackman:        "blackman",
	BlackmanNuttall: "blackmannuttall",
	Hann:            "hann",
	Hamming:         "hamming",
	Lanczos:         "lanczos",
	Nuttall:         "nuttall",
}

func (w WindowFunc) String() string {
	if name, ok := windowNames[w]; ok {
		return name
	}
	return "unknown"
}

// ParseWindowFunc converts a name (case-insensitive) to a WindowFunc. Unknown
// names return Tukey and an ErrInvalidParameter.
func ParseWindowFunc(name string) (WindowFunc, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "tukey":
		return Tukey, nil
	case "rectangular", "rect", "boxcar", "none":
		return Rectangular, nil
	case "bartletthann":
		return BartlettHann, nil
	case "blackman":
		return Blackman, nil
	case "blackmannuttall":
		return BlackmanNuttall, nil
	case "hann", "hanning":
		return Hann, nil
	case "hamming":
		return Hamming, nil
	case "lanczos":
		return Lanczos, nil
	case "nuttall":
		return Nuttall, nil
	default:
		return Tukey, errs.Invalid("unknown window function %q", name)
	}
}

// Coefficients returns the window of the given length.
func (w WindowFunc) Coefficients(size int) []float64 {
	coeffs := make([]float64, size)
	for i := range coeffs {
		coeffs[i] = 1.0
	}
	switch w {
	case Rectangular:
		window.Rectangular(coeffs)
	case BartlettHann:
		window.BartlettHann(coeffs)
	case Blackman:
		window.Blackman(coeffs)
	case BlackmanNuttall:
		window.BlackmanNuttall(coeffs)
	case Hann:
		window.Hann(coeffs)
	case Hamming:
		window.Hamming(coeffs)
	case Lanczos:
		window.Lanczos(coeffs)
	case Nuttall:
		window.Nuttall(coeffs)
	default:
		window.Tukey{Alpha: TukeyAlpha}.Transform(coeffs)
	}
	return coeffs
}
