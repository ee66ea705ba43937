// SPDX-License-Identifier: MIT
package filter

// Apply runs samples through the IIR filter described by c and returns a new
// buffer of the same length. The input is never modified.
//
// The recurrence is the transposed direct form II:
//
//	y[n] = (b0 x[n] + z0[n-1]) / a0
//	zi[n] = bi+1 x[n] + zi+1[n-1] - ai+1 y[n]
//
// The delay line starts at zero and is discarded when Apply returns. The first
// samples therefore carry the filter's warm-up transient (roughly the length
// of its impulse response). This is a known characteristic of the stage and is
// not compensated.
func Apply(c Coefficients, samples []float64) ([]float64, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}

	a0 := c.A[0]
	b := make([]float64, len(c.B))
	a := make([]float64, len(c.A))
	for i := range b {
		b[i] = c.B[i] / a0
		a[i] = c.A[i] / a0
	}

	out := make([]float64, len(samples))
	n := len(b)
	if n == 1 {
		for i, x := range samples {
			out[i] = b[0] * x
		}
		return out, nil
	}

	z := make([]float64, n-1)
	for i, x := range samples {
		y := b[0]*x + z[0]
		for j := 1; j < n-1; j++ {
			z[j-1] = b[j]*x + z[j] - a[j]*y
		}
		z[n-2] = b[n-1]*x - a[n-1]*y
		out[i] = y
	}

	return out, nil
}

// Lowpass designs a Butterworth low-pass and applies it in one call.
func Lowpass(samples []float64, cutoff, sampleRate float64, order int) ([]float64, error) {
	c, err := ButterworthLowpass(cutoff, sampleRate, order)
	if err != nil {
		return nil, err
	}
	return Apply(c, samples)
}
