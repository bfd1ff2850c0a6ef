package checks

import (
	"errors"
	"fmt"
	"strings"
)

// ErrValidationFailed matches every *ValidationError via errors.Is.
var ErrValidationFailed = errors.New("validation failed")

// ValidationError is returned by a check run with Abort that did not pass.
type ValidationError struct {
	Check   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("Validation failed: %s - %s", e.Check, e.Message)
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidationFailed
}

// OnFail controls what a failing check does after recording its result.
type OnFail int

const (
	// Continue records the failure and lets the run go on.
	Continue OnFail = iota
	// Abort records the failure and halts the run with a *ValidationError.
	Abort
)

func (o OnFail) String() string {
	if o == Abort {
		return "error"
	}
	return "warn"
}

// ParseOnFail accepts "error"/"abort" and "warn"/"continue". Empty means
// Continue.
func ParseOnFail(raw string) (OnFail, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "", "warn", "warning", "continue":
		return Continue, nil
	case "error", "abort":
		return Abort, nil
	default:
		return Continue, fmt.Errorf("unsupported on_fail %q (must be one of: error, warn)", raw)
	}
}
