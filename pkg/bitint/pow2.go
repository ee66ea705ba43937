/*
Package bitint provides the power-of-2 helpers used for FFT and capture
buffer sizing.

Usage:

	// Zero-padded FFT length for a 1500-sample analysis window
	fftSize := bitint.NextPowerOfTwo(1500) // Returns 2048

	// Verify a capture buffer size
	isValid := bitint.IsPowerOfTwo(framesPerBuffer)

----------------------------------------------------------------------

NextPowerOfTwo subtracts 1 before taking the bit length so that exact
powers of 2 are preserved:

	size = 8:  bits.Len(7) = 3, 1 << 3 = 8
	size = 9:  bits.Len(8) = 4, 1 << 4 = 16
*/
package bitint

import "math/bits"

// NextPowerOfTwo returns the next power of 2 >= size.
//
//	Input  Output
//	4      4
//	5      8
//	0      1
//	-1     1
func NextPowerOfTwo(size int) int {
	if size <= 0 {
		return 1
	}
	return 1 << bits.Len(uint(size-1))
}

// IsPowerOfTwo reports whether n is a positive power of 2.
// Powers of 2 have exactly one bit set, so n&(n-1) clears it to zero.
func IsPowerOfTwo(n int) bool {
	return n > 0 && (n&(n-1)) == 0
}
