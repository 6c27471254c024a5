package core

import (
	"errors"
	"fmt"
)

// Domain errors - centralized error definitions
var (
	// Data errors: malformed or inconsistent input records.
	// Fatal at load time, before any sampling iteration executes.
	ErrData            = errors.New("invalid data")
	ErrUnknownCategory = fmt.Errorf("%w: unknown category label", ErrData)
	ErrBadRuntime      = fmt.Errorf("%w: non-positive runtime", ErrData)
	ErrMissingYear     = fmt.Errorf("%w: missing year", ErrData)

	// Config errors: invalid configuration values. Fatal before the run starts.
	ErrConfig = errors.New("invalid configuration")

	// Numerical errors: overflow/underflow/NaN while evaluating a single
	// proposal. Recovered locally by rejecting the proposal.
	ErrNumerical = errors.New("numerical failure in evaluation")
)

// Error constructors with context
func NewDataError(row int, reason string) error {
	return fmt.Errorf("%w: row %d: %s", ErrData, row, reason)
}

func NewUnknownCategoryError(row int, axis, label string) error {
	return fmt.Errorf("%w: row %d: %s %q", ErrUnknownCategory, row, axis, label)
}

func NewConfigError(field string, reason string) error {
	return fmt.Errorf("%w: %s: %s", ErrConfig, field, reason)
}

func NewNumericalError(stage string) error {
	return fmt.Errorf("%w: %s", ErrNumerical, stage)
}

// Error checking helpers
func IsDataError(err error) bool {
	return errors.Is(err, ErrData)
}

func IsConfigError(err error) bool {
	return errors.Is(err, ErrConfig)
}

func IsNumericalError(err error) bool {
	return errors.Is(err, ErrNumerical)
}
