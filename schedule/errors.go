/*
errors.go - Centralized error types for the scheduling core

PURPOSE:
  All error types in one place for consistency and discoverability.
  The taxonomy is small and deliberate:

  1. Validation errors - malformed or out-of-range input, caller's fault,
     always recoverable by correcting the input.
  2. Slot conflicts   - a check-then-act race lost at transition time,
     recoverable by re-listing candidates and retrying.
  3. Not found        - a referenced appointment or blocked slot is missing.

  "Not eligible" is intentionally NOT an error. Eligibility rejection is a
  frequent, expected outcome and is surfaced as ordinary return data
  (Eligibility.BlockingReasons) by the reschedule coordinator.

USAGE:
  Callers branch with errors.Is / errors.As:

    if errors.Is(err, schedule.ErrSlotConflict) {
        // re-list candidates and retry
    }

SEE ALSO:
  - availability.go: raises validation errors
  - store.go: store implementations map constraint violations to these
*/
package schedule

import (
	"errors"
	"fmt"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrValidation is returned for malformed or out-of-range input.
	ErrValidation = errors.New("validation failed")

	// ErrSlotConflict is returned when a slot transition loses a race:
	// the target slot was claimed between listing and execution.
	ErrSlotConflict = errors.New("slot already taken")

	// ErrNotFound is returned when a referenced record doesn't exist.
	ErrNotFound = errors.New("not found")

	// ErrStatusConflict is returned when a status transition's precondition
	// no longer holds (the appointment changed status concurrently).
	ErrStatusConflict = errors.New("status changed concurrently")
)

// =============================================================================
// STRUCTURED ERRORS - Carry additional context
// =============================================================================

// ValidationError describes which input was rejected and why.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

// SlotConflictError identifies the contested slot.
type SlotConflictError struct {
	Date Date
	Time SlotTime
}

func (e *SlotConflictError) Error() string {
	return fmt.Sprintf("slot %s %s already taken", e.Date, e.Time)
}

func (e *SlotConflictError) Unwrap() error { return ErrSlotConflict }

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsConflict returns true if the error means the caller should re-list
// candidate slots and retry.
func IsConflict(err error) bool {
	return errors.Is(err, ErrSlotConflict) || errors.Is(err, ErrStatusConflict)
}

// IsClientError returns true if the error is due to invalid client input.
func IsClientError(err error) bool {
	return errors.Is(err, ErrValidation)
}

// IsNotFound returns true if the error indicates a missing record.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}
