// SPDX-License-Identifier: MIT
package errs

import (
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestInvalid(t *testing.T) {
	t.Parallel()
	err := Invalid("window size must be positive, got %d", 0)
	if !errors.Is(err, ErrInvalidParameter) {
		t.Fatalf("expected ErrInvalidParameter, got %v", err)
	}
	if errors.Is(err, ErrOutOfRange) {
		t.Error("invalid parameter error must not match ErrOutOfRange")
	}
	if !strings.Contains(err.Error(), "got 0") {
		t.Errorf("detail missing from message: %q", err.Error())
	}
}

func TestOutOfRange_SurvivesWrapping(t *testing.T) {
	t.Parallel()
	err := fmt.Errorf("frame 12: %w", OutOfRange("bin %d exceeds %d", 150, 99))
	if !errors.Is(err, ErrOutOfRange) {
		t.Fatalf("expected ErrOutOfRange through wrapping, got %v", err)
	}
}
