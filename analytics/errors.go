/*
errors.go - Centralized error types for the analytics engine

PURPOSE:
  All error types in one place for consistency and discoverability.
  The engine itself only ever fails on an unresolvable period; the other
  sentinels here are shared with the record stores and the API layer.

ERROR CATEGORIES:
  1. Range errors - The requested period cannot be resolved
  2. Validation errors - A record rejected at ingestion
  3. Store errors - Missing records

USAGE:
  snap, err := analytics.ComputeSnapshot(in, r, ref)
  if errors.Is(err, analytics.ErrInvalidRange) {
      // programming error in the caller: bad range
  }

SEE ALSO:
  - period.go: Returns InvalidRangeError
  - api/handlers.go: Maps these errors to HTTP status codes
*/
package analytics

import (
	"errors"
	"fmt"
	"time"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrInvalidRange is returned when a period cannot be resolved: an explicit
	// range whose end precedes its start, or an unrecognized named range.
	ErrInvalidRange = errors.New("invalid range")

	// ErrInvalidRecord is returned when a record fails ingestion validation.
	ErrInvalidRecord = errors.New("invalid record")

	// ErrRecordNotFound is returned when a referenced record doesn't exist.
	ErrRecordNotFound = errors.New("record not found")
)

// =============================================================================
// STRUCTURED ERRORS - Carry additional context
// =============================================================================

// InvalidRangeError describes why a range could not be resolved.
type InvalidRangeError struct {
	Name   string // set for unrecognized named ranges
	From   time.Time
	To     time.Time
	Reason string
}

func (e *InvalidRangeError) Error() string {
	if e.Name != "" {
		return fmt.Sprintf("invalid range %q: %s", e.Name, e.Reason)
	}
	return fmt.Sprintf("invalid range [%s, %s]: %s",
		e.From.Format(time.RFC3339), e.To.Format(time.RFC3339), e.Reason)
}

func (e *InvalidRangeError) Unwrap() error {
	return ErrInvalidRange
}

// ValidationError reports a record field that failed validation.
type ValidationError struct {
	Kind    string // "appointment", "payment", "patient"
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s.%s: %s", e.Kind, e.Field, e.Message)
}

func (e *ValidationError) Unwrap() error {
	return ErrInvalidRecord
}

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsClientError returns true if the error is due to invalid client input.
func IsClientError(err error) bool {
	return errors.Is(err, ErrInvalidRange) ||
		errors.Is(err, ErrInvalidRecord)
}

// IsNotFound returns true if the error indicates a missing record.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrRecordNotFound)
}
