/*
availability.go - Slot availability resolution

PURPOSE:
  Computes which slots on a date are actually bookable: the full grid minus
  live appointments, minus administrator blocks, minus slots whose start has
  already elapsed when the date is today.

ALGORITHM:
  1. Dates outside [today, today+horizon] resolve to an empty sequence.
     Empty is the caller-visible "no slots" case, not an error.
  2. A whole-day block (BlockedSlot.Time == nil) short-circuits to empty.
  3. Otherwise: start from the grid, drop every time equal to a live
     appointment's time or a per-time block, and - for today only - drop
     times at or before `now`.

  Removal is set difference, so it is order-independent; the result follows
  the grid's chronological order. Each call is a fresh computation over its
  input snapshot and carries no state between calls.

SEE ALSO:
  - grid.go: grid and horizon configuration
  - reschedule.go: reuses the resolver for candidate listing
*/
package schedule

import "time"

// ResolveAvailableSlots returns the bookable slot times for date, in grid
// order. existingAppointments and blockedSlots may contain entries for other
// dates; they are filtered internally by equality on date. A malformed
// (zero) date is a validation error; all other inputs are assumed
// pre-validated by the caller.
func ResolveAvailableSlots(
	date Date,
	grid Grid,
	existingAppointments []Appointment,
	blockedSlots []BlockedSlot,
	now time.Time,
) ([]SlotTime, error) {
	if date.IsZero() {
		return nil, &ValidationError{Field: "date", Message: "date is required"}
	}

	today := DateOf(now)
	if !grid.WithinHorizon(date, today) {
		return []SlotTime{}, nil
	}

	// Whole-day block supersedes everything else on the date.
	taken := make(map[SlotTime]bool)
	for _, b := range blockedSlots {
		if !b.Date.Equal(date) {
			continue
		}
		if b.WholeDay() {
			return []SlotTime{}, nil
		}
		taken[*b.Time] = true
	}

	for _, a := range existingAppointments {
		if a.Live() && a.Date.Equal(date) {
			taken[a.Time] = true
		}
	}

	isToday := date.Equal(today)
	slots := []SlotTime{}
	for _, t := range grid.Times() {
		if taken[t] {
			continue
		}
		// A slot at 09:00 is not offered once it is 09:01 today.
		if isToday && !StartsAt(date, t).After(now) {
			continue
		}
		slots = append(slots, t)
	}
	return slots, nil
}
