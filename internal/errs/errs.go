// SPDX-License-Identifier: MIT
//
// Package errs holds the error taxonomy shared by every analysis stage.
//
// Two kinds of failure are surfaced by the core:
//
//   - ErrInvalidParameter: malformed configuration (non-positive frequency,
//     cutoff outside the Nyquist range, zero window size, ...). Always detected
//     before any heavy computation and never clamped silently.
//   - ErrOutOfRange: a requested Goertzel range falls outside the bins that a
//     window of the given size can represent.
//
// Neither is retryable: every stage is a deterministic function of its input.
// Callers match with errors.Is.
package errs

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidParameter reports a malformed argument or configuration value.
	ErrInvalidParameter = errors.New("invalid parameter")

	// ErrOutOfRange reports a frequency request outside the representable bins.
	ErrOutOfRange = errors.New("out of range")
)

// Invalid returns an error wrapping ErrInvalidParameter with a formatted detail.
func Invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidParameter, fmt.Sprintf(format, args...))
}

// OutOfRange returns an error wrapping ErrOutOfRange with a formatted detail.
func OutOfRange(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrOutOfRange, fmt.Sprintf(format, args...))
}
