// SPDX-License-Identifier: MIT
//
// Package filter designs and applies the band-limiting low-pass stage that
// runs before pitch estimation.
package filter

import (
	"math"
	"math/cmplx"

	"notetrack/internal/errs"
)

// Coefficients is a digital transfer function in polynomial form:
//
//	        B[0] + B[1] z^-1 + ... + B[n] z^-n
//	H(z) = ------------------------------------
//	        A[0] + A[1] z^-1 + ... + A[n] z^-n
//
// B (feed-forward) and A (feed-back) are always used together. For a filter of
// order n both hold n+1 values.
type Coefficients struct {
	B []float64
	A []float64
}

// Order returns the filter order (number of delay elements).
func (c Coefficients) Order() int {
	return max(len(c.B), len(c.A)) - 1
}

// Validate checks the pairing invariants required by Apply.
func (c Coefficients) Validate() error {
	if len(c.B) == 0 || len(c.A) == 0 {
		return errs.Invalid("filter coefficients must not be empty (b=%d, a=%d)", len(c.B), len(c.A))
	}
	if len(c.B) != len(c.A) {
		return errs.Invalid("feed-forward and feed-back lengths differ (b=%d, a=%d)", len(c.B), len(c.A))
	}
	if c.A[0] == 0 {
		return errs.Invalid("leading feed-back coefficient must be non-zero")
	}
	return nil
}

// ButterworthLowpass designs an order-n low-pass Butterworth filter with the
// -3 dB point at cutoff Hz for a signal sampled at sampleRate Hz.
//
// The cutoff is normalized against Nyquist (cutoff / (sampleRate/2)) and must
// fall strictly inside (0, 1). The analog prototype is pre-warped and mapped
// through the bilinear transform, so the digital -3 dB point lands exactly on
// cutoff. Gain is normalized to unity at DC.
func ButterworthLowpass(cutoff, sampleRate float64, order int) (Coefficients, error) {
	if order < 1 {
		return Coefficients{}, errs.Invalid("filter order must be >= 1, got %d", order)
	}
	if sampleRate <= 0 || math.IsNaN(sampleRate) || math.IsInf(sampleRate, 0) {
		return Coefficients{}, errs.Invalid("sample rate must be positive, got %v", sampleRate)
	}
	wn := cutoff / (sampleRate / 2)
	if !(wn > 0 && wn < 1) {
		return Coefficients{}, errs.Invalid("normalized cutoff %v (cutoff %v Hz at %v Hz) outside (0, 1)", wn, cutoff, sampleRate)
	}

	// Bilinear transform with fs=2 (normalized frequency), as tan(pi*wn/2)
	// pre-warps the analog cutoff.
	const fs2 = 4.0
	warped := fs2 * math.Tan(math.Pi*wn/2)

	// Analog poles sit on the left half of a circle of radius warped.
	poles := make([]complex128, order)
	for k := range order {
		theta := math.Pi * float64(2*k+order+1) / float64(2*order)
		p := complex(warped, 0) * cmplx.Exp(complex(0, theta))
		poles[k] = (fs2 + p) / (fs2 - p)
	}

	a := realPoly(poles)

	// All zeros at z = -1: (1 + z^-1)^n, scaled for unity DC gain.
	var sumA float64
	for _, v := range a {
		sumA += v
	}
	gain := sumA / math.Pow(2, float64(order))
	b := make([]float64, order+1)
	for i := range b {
		b[i] = gain * binomial(order, i)
	}

	return Coefficients{B: b, A: a}, nil
}

// realPoly expands prod(1 - r z^-1) over the roots and returns the real parts.
// Roots come in conjugate pairs, so the imaginary parts cancel.
func realPoly(roots []complex128) []float64 {
	poly := make([]complex128, 1, len(roots)+1)
	poly[0] = 1
	for _, r := range roots {
		next := make([]complex128, len(poly)+1)
		for i, c := range poly {
			next[i] += c
			next[i+1] -= c * r
		}
		poly = next
	}
	out := make([]float64, len(poly))
	for i, c := range poly {
		out[i] = real(c)
	}
	return out
}

func binomial(n, k int) float64 {
	res := 1.0
	for i := 1; i <= k; i++ {
		res = res * float64(n-k+i) / float64(i)
	}
	return res
}
