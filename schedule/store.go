/*
store.go - Collaborator contracts for persistence

PURPOSE:
  Defines the interfaces between the pure scheduling core and the
  authoritative appointment store. The core computes decisions over
  snapshots; the store owns the data and the concurrency control.

ENFORCEMENT POINT:
  Pure logic cannot guarantee slot exclusivity: between listing candidates
  and executing a move, time passes (classic check-then-act race). The store
  must therefore expose conditional writes backed by a unique constraint on
  (date, time, status != cancelled) - or an equivalent compare-and-swap - and
  report a lost race as ErrSlotConflict. Create and Move are those
  conditional writes.

IMPLEMENTATIONS:
  - store/sqlite: production store, partial unique index
  - schedule/store: in-memory store for tests and dev

SEE ALSO:
  - reschedule.go: the transition contract consuming Move
*/
package schedule

import (
	"context"
	"time"
)

// =============================================================================
// APPOINTMENT STORE
// =============================================================================

// AppointmentStore is the authoritative appointment collection.
type AppointmentStore interface {
	// Get returns the appointment or ErrNotFound.
	Get(ctx context.Context, id AppointmentID) (*Appointment, error)

	// ListByDate returns all appointments on date, any status, ordered by time.
	ListByDate(ctx context.Context, date Date) ([]Appointment, error)

	// ListByDateRange returns all appointments with date in [from, to].
	ListByDateRange(ctx context.Context, from, to Date) ([]Appointment, error)

	// Create inserts a new appointment. Returns ErrSlotConflict if a live
	// appointment already holds (Date, Time).
	Create(ctx context.Context, appt Appointment) error

	// Move atomically updates the appointment's (date, time) in one write,
	// leaving status unchanged. Returns ErrSlotConflict if the target slot
	// is held by a live appointment, ErrNotFound if id doesn't exist.
	// No partial state: on error the appointment keeps its old slot.
	Move(ctx context.Context, id AppointmentID, newDate Date, newTime SlotTime) (*Appointment, error)

	// SetStatus transitions status from expect to next, stamping at for
	// cancellations. Returns ErrStatusConflict if the current status is not
	// expect (lost an optimistic race), ErrNotFound if id doesn't exist.
	SetStatus(ctx context.Context, id AppointmentID, expect, next AppointmentStatus, at time.Time) (*Appointment, error)

	// MarkReminderSent stamps the reminder flag. Best-effort bookkeeping for
	// the notification dispatcher; never affects slot accounting.
	MarkReminderSent(ctx context.Context, id AppointmentID, at time.Time) error
}

// =============================================================================
// BLOCKED-SLOT STORE
// =============================================================================

// BlockedSlotStore is the administrator's unavailability declarations.
type BlockedSlotStore interface {
	// ListByDate returns blocks for one date (whole-day blocks included).
	ListByDate(ctx context.Context, date Date) ([]BlockedSlot, error)

	// ListByDateRange returns blocks with date in [from, to].
	ListByDateRange(ctx context.Context, from, to Date) ([]BlockedSlot, error)

	// Create inserts a block. Administrator-only by caller policy.
	Create(ctx context.Context, block BlockedSlot) error

	// Delete removes a block, or returns ErrNotFound.
	Delete(ctx context.Context, id BlockedSlotID) error
}
