/*
Package schedule provides the scheduling correctness core.

PURPOSE:
  This package contains the pure logic for single-provider slot booking:
  which slots on the fixed grid are actually bookable at any moment, and
  whether (and where) an existing appointment may move. It holds no mutable
  state and performs no I/O - every function takes a snapshot of external
  state and returns a value.

KEY CONCEPTS IN THIS FILE (types.go):
  - Appointment: one reserved slot with its lifecycle status
  - BlockedSlot: an administrator-declared unavailability window
  - Date/SlotTime: the (day, grid-time) coordinates of a slot (see time.go)

CORE INVARIANT:
  At most one non-cancelled appointment may exist for a given (date, time)
  pair. The availability resolver and reschedule coordinator jointly preserve
  it in pure logic; the authoritative enforcement point is the store's
  conditional write (see store.go).

DESIGN PRINCIPLES:
  1. Purity: components accept snapshots, never hold live collections
  2. Determinism: `now` is always injected, never read from the wall clock
  3. Precision: money fields use decimal.Decimal, never floats
  4. Explicit config: the slot grid is a value passed in, not a global

SEE ALSO:
  - grid.go: the slot grid and booking horizon
  - availability.go: slot availability resolution
  - reschedule.go: reschedule eligibility and candidate listing
  - store.go: collaborator contracts (appointment + blocked-slot stores)
*/
package schedule

import (
	"time"

	"github.com/shopspring/decimal"
)

// =============================================================================
// IDENTIFIERS
// =============================================================================

type AppointmentID string
type BlockedSlotID string

// ClientRef is an opaque reference to the appointment's owner. Identity and
// role checks live with the caller; the core only compares these for
// equality.
type ClientRef string

// ProductRef identifies the booked service or package.
type ProductRef string

// =============================================================================
// APPOINTMENT - One reserved slot
// =============================================================================

type AppointmentStatus string

const (
	// StatusPendingPayment is the initial state: slot held, payment due.
	StatusPendingPayment AppointmentStatus = "pending_payment"
	// StatusConfirmed means payment completed.
	StatusConfirmed AppointmentStatus = "confirmed"
	// StatusCompleted means the appointment time has elapsed. Terminal.
	StatusCompleted AppointmentStatus = "completed"
	// StatusCancelled frees the slot for reuse. Terminal.
	StatusCancelled AppointmentStatus = "cancelled"
)

// Terminal reports whether the status admits no further transitions.
func (s AppointmentStatus) Terminal() bool {
	return s == StatusCompleted || s == StatusCancelled
}

// Appointment is one reserved slot on the grid.
type Appointment struct {
	ID         AppointmentID
	Date       Date
	Time       SlotTime
	Status     AppointmentStatus
	ClientRef  ClientRef
	ProductRef ProductRef

	// Amount is the payable total, set at pricing time.
	Amount decimal.Decimal

	// Audit timestamps
	CreatedAt      time.Time
	CancelledAt    *time.Time
	ReminderSentAt *time.Time
}

// Live reports whether the appointment still consumes its slot.
// Only cancellation frees a slot; completed appointments keep theirs
// (the slot is in the past anyway).
func (a Appointment) Live() bool { return a.Status != StatusCancelled }

// StartsAt returns the appointment's start instant.
func (a Appointment) StartsAt() time.Time { return StartsAt(a.Date, a.Time) }

// =============================================================================
// BLOCKED SLOT - Administrator-declared unavailability
// =============================================================================

// BlockedSlot removes a time, or an entire day, from availability regardless
// of booking state. Time == nil means the whole day is blocked; a whole-day
// block supersedes all per-time queries for that date.
type BlockedSlot struct {
	ID        BlockedSlotID
	Date      Date
	Time      *SlotTime
	Reason    string
	CreatedAt time.Time
}

// WholeDay reports whether the block covers the entire date.
func (b BlockedSlot) WholeDay() bool { return b.Time == nil }
