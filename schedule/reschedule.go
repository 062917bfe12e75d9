/*
reschedule.go - Reschedule eligibility and candidate listing

PURPOSE:
  Decides whether an appointment may move at all, and if so, which slots on a
  target date it may move to. The actual move is an atomic store operation
  (AppointmentStore.Move); this file is the pure rule layer in front of it.

ELIGIBILITY RULES:
  - cancelled:  never eligible (already cancelled)
  - completed:  never eligible (already completed)
  - confirmed / pending_payment inside the cutoff window: not eligible
    ("too close to appointment time")
  - otherwise eligible, possibly with non-blocking warnings

  Ownership and role checks (is this the owner or an administrator?) are the
  caller's job. The coordinator encodes only time-based and status-based
  rules, and it returns rejection as data - blocking reasons are a normal,
  expected outcome, not an error.

OWN-SLOT RE-ADMISSION:
  When listing candidates for the appointment's own current date, the
  appointment's own slot would appear "taken" by itself. The coordinator
  resolves availability with the appointment removed from the snapshot, so
  its own (date, time) is offered again. On any other target date no such
  re-admission happens.

SEE ALSO:
  - availability.go: the resolver this delegates to
  - store.go: the Move contract that executes the transition
*/
package schedule

import "time"

// =============================================================================
// REASONS - Stable, enumerable codes for callers to translate
// =============================================================================

type Reason string

const (
	// Blocking reasons
	ReasonAlreadyCancelled Reason = "already_cancelled"
	ReasonAlreadyCompleted Reason = "already_completed"
	ReasonInsideCutoff     Reason = "inside_cutoff"

	// Warnings (non-blocking advisories)
	ReasonShortNotice Reason = "short_notice"
)

// Eligibility is the outcome of a reschedule eligibility check.
// BlockingReasons make Allowed false; Warnings never do.
type Eligibility struct {
	Allowed           bool
	BlockingReasons   []Reason
	Warnings          []Reason
	MinRescheduleDate Date
}

// =============================================================================
// COORDINATOR
// =============================================================================

// Coordinator applies the reschedule rules for one provider's calendar.
type Coordinator struct {
	Grid Grid

	// Cutoff is the minimum lead time before the appointment's own start for
	// it to remain reschedulable.
	Cutoff time.Duration

	// WarningWindow, when non-zero and wider than Cutoff, marks eligible
	// moves inside it with a short-notice warning.
	WarningWindow time.Duration
}

// CheckEligibility reports whether appt may be moved as of now.
func (c Coordinator) CheckEligibility(appt Appointment, now time.Time) Eligibility {
	e := Eligibility{
		// Never earlier than today; the resolver's horizon bounds the far end.
		MinRescheduleDate: DateOf(now),
	}

	switch appt.Status {
	case StatusCancelled:
		e.BlockingReasons = append(e.BlockingReasons, ReasonAlreadyCancelled)
	case StatusCompleted:
		e.BlockingReasons = append(e.BlockingReasons, ReasonAlreadyCompleted)
	default:
		lead := appt.StartsAt().Sub(now)
		if lead < c.Cutoff {
			e.BlockingReasons = append(e.BlockingReasons, ReasonInsideCutoff)
		} else if c.WarningWindow > c.Cutoff && lead < c.WarningWindow {
			e.Warnings = append(e.Warnings, ReasonShortNotice)
		}
	}

	e.Allowed = len(e.BlockingReasons) == 0
	return e
}

// ListCandidateSlots returns the slots appt may move to on targetDate,
// in grid order. The appointment's own slot is re-admitted when targetDate
// equals its current date (see the package comment). Eligibility is NOT
// re-checked here; callers gate on CheckEligibility first.
func (c Coordinator) ListCandidateSlots(
	appt Appointment,
	targetDate Date,
	existingAppointments []Appointment,
	blockedSlots []BlockedSlot,
	now time.Time,
) ([]SlotTime, error) {
	snapshot := existingAppointments
	if targetDate.Equal(appt.Date) {
		snapshot = make([]Appointment, 0, len(existingAppointments))
		for _, other := range existingAppointments {
			if other.ID == appt.ID {
				continue
			}
			snapshot = append(snapshot, other)
		}
	}
	return ResolveAvailableSlots(targetDate, c.Grid, snapshot, blockedSlots, now)
}
