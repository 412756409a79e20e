// Package failures defines the error kinds shared by the analytics engine.
//
// Store and record level failures are absorbed by the report assembler and
// turned into section statuses. Usage failures (bad ranges, bad limits, empty
// inputs to extremal lookups) are returned to the caller before any work starts.
package failures

import (
	"errors"
	"fmt"
)

var (
	// ErrStoreUnavailable is reported when a fetch from the event store failed
	// (transport, auth, timeout or an open circuit breaker).
	ErrStoreUnavailable = errors.New("store unavailable")

	// ErrMalformedRecord is reported for a single record whose timestamp or
	// category cannot be interpreted.
	ErrMalformedRecord = errors.New("malformed record")

	// ErrInvalidRange is reported for inverted date ranges and non-positive
	// limits or windows.
	ErrInvalidRange = errors.New("invalid range")

	// ErrDegenerateInput is reported when an operation needs at least one entry
	// and got none.
	ErrDegenerateInput = errors.New("degenerate input")
)

// StoreError carries the underlying cause of a failed fetch. It matches
// ErrStoreUnavailable so callers never have to look at the raw transport error.
type StoreError struct {
	Collection string
	Cause      error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("store unavailable: fetching %s: %v", e.Collection, e.Cause)
}

// Is reports whether target is ErrStoreUnavailable.
func (e *StoreError) Is(target error) bool {
	return target == ErrStoreUnavailable
}

// Unwrap exposes the cause for logging.
func (e *StoreError) Unwrap() error {
	return e.Cause
}

// InvalidRange wraps ErrInvalidRange with a formatted reason.
func InvalidRange(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidRange, fmt.Sprintf(format, args...))
}

// Degenerate wraps ErrDegenerateInput with a formatted reason.
func Degenerate(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrDegenerateInput, fmt.Sprintf(format, args...))
}

// Malformed wraps ErrMalformedRecord with a formatted reason.
func Malformed(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrMalformedRecord, fmt.Sprintf(format, args...))
}
