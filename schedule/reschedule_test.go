package schedule_test

import (
	"testing"
	"time"

	"github.com/warp/booking-engine/schedule"
)

func testCoordinator() schedule.Coordinator {
	return schedule.Coordinator{
		Grid:          hourlyGrid(),
		Cutoff:        24 * time.Hour,
		WarningWindow: 48 * time.Hour,
	}
}

func hasReason(reasons []schedule.Reason, want schedule.Reason) bool {
	for _, r := range reasons {
		if r == want {
			return true
		}
	}
	return false
}

// =============================================================================
// ELIGIBILITY TESTS
// =============================================================================

func TestEligibility_CancelledNeverEligible(t *testing.T) {
	// GIVEN: a cancelled appointment far in the future
	// WHEN: checking eligibility
	// THEN: blocked with already_cancelled; lead time is irrelevant

	c := testCoordinator()
	now := time.Date(2024, time.June, 1, 10, 0, 0, 0, time.UTC)
	appt := liveAppt("a-1", schedule.NewDate(2024, time.July, 1), at(10, 0))
	appt.Status = schedule.StatusCancelled

	e := c.CheckEligibility(appt, now)

	if e.Allowed {
		t.Fatal("cancelled appointment must not be reschedulable")
	}
	if !hasReason(e.BlockingReasons, schedule.ReasonAlreadyCancelled) {
		t.Errorf("expected already_cancelled, got %v", e.BlockingReasons)
	}
}

func TestEligibility_CompletedNeverEligible(t *testing.T) {
	c := testCoordinator()
	now := time.Date(2024, time.June, 1, 10, 0, 0, 0, time.UTC)
	appt := liveAppt("a-1", schedule.NewDate(2024, time.May, 20), at(10, 0))
	appt.Status = schedule.StatusCompleted

	e := c.CheckEligibility(appt, now)

	if e.Allowed {
		t.Fatal("completed appointment must not be reschedulable")
	}
	if !hasReason(e.BlockingReasons, schedule.ReasonAlreadyCompleted) {
		t.Errorf("expected already_completed, got %v", e.BlockingReasons)
	}
}

func TestEligibility_InsideCutoff_Blocked(t *testing.T) {
	// GIVEN: a 24h cutoff and an appointment 10 hours out
	// THEN: blocked with inside_cutoff

	c := testCoordinator()
	appt := liveAppt("a-1", schedule.NewDate(2024, time.June, 2), at(10, 0))
	now := appt.StartsAt().Add(-10 * time.Hour)

	e := c.CheckEligibility(appt, now)

	if e.Allowed {
		t.Fatal("appointment inside the cutoff must not be reschedulable")
	}
	if !hasReason(e.BlockingReasons, schedule.ReasonInsideCutoff) {
		t.Errorf("expected inside_cutoff, got %v", e.BlockingReasons)
	}
}

func TestEligibility_CutoffBoundary_Allowed(t *testing.T) {
	// Lead time exactly equal to the cutoff is still allowed.
	c := testCoordinator()
	appt := liveAppt("a-1", schedule.NewDate(2024, time.June, 2), at(10, 0))
	now := appt.StartsAt().Add(-24 * time.Hour)

	e := c.CheckEligibility(appt, now)

	if !e.Allowed {
		t.Fatalf("lead == cutoff should be allowed, got %v", e.BlockingReasons)
	}
	if !hasReason(e.Warnings, schedule.ReasonShortNotice) {
		t.Errorf("24h lead inside the 48h warning window should warn, got %v", e.Warnings)
	}
}

func TestEligibility_WarningWindow_AllowedWithWarning(t *testing.T) {
	// GIVEN: 36 hours of lead, between cutoff (24h) and warning window (48h)
	// THEN: allowed, but flagged short_notice

	c := testCoordinator()
	appt := liveAppt("a-1", schedule.NewDate(2024, time.June, 2), at(10, 0))
	now := appt.StartsAt().Add(-36 * time.Hour)

	e := c.CheckEligibility(appt, now)

	if !e.Allowed {
		t.Fatalf("expected allowed, got %v", e.BlockingReasons)
	}
	if !hasReason(e.Warnings, schedule.ReasonShortNotice) {
		t.Errorf("expected short_notice warning, got %v", e.Warnings)
	}
}

func TestEligibility_AmpleLead_CleanPass(t *testing.T) {
	c := testCoordinator()
	appt := liveAppt("a-1", schedule.NewDate(2024, time.July, 1), at(10, 0))
	now := time.Date(2024, time.June, 1, 10, 0, 0, 0, time.UTC)

	e := c.CheckEligibility(appt, now)

	if !e.Allowed || len(e.Warnings) != 0 {
		t.Errorf("expected clean pass, got allowed=%v warnings=%v", e.Allowed, e.Warnings)
	}
	if !e.MinRescheduleDate.Equal(schedule.DateOf(now)) {
		t.Errorf("min reschedule date should be today, got %s", e.MinRescheduleDate)
	}
}

func TestEligibility_PendingPaymentFollowsTimeRules(t *testing.T) {
	// pending_payment is not terminal; only the time rules apply to it.
	c := testCoordinator()
	appt := liveAppt("a-1", schedule.NewDate(2024, time.July, 1), at(10, 0))
	appt.Status = schedule.StatusPendingPayment
	now := time.Date(2024, time.June, 1, 10, 0, 0, 0, time.UTC)

	if e := c.CheckEligibility(appt, now); !e.Allowed {
		t.Errorf("pending appointment with ample lead should be eligible, got %v", e.BlockingReasons)
	}
}

// =============================================================================
// CANDIDATE LISTING TESTS
// =============================================================================

func TestCandidates_OwnSlotReadmittedOnSameDate(t *testing.T) {
	// GIVEN: the appointment holds 11:00 on its own date
	// WHEN: listing candidates for that same date
	// THEN: 11:00 is offered even though the appointment itself occupies it

	c := testCoordinator()
	date := schedule.NewDate(2024, time.June, 10)
	now := time.Date(2024, time.June, 1, 10, 0, 0, 0, time.UTC)

	appt := liveAppt("a-1", date, at(11, 0))
	others := []schedule.Appointment{appt, liveAppt("a-2", date, at(13, 0))}

	slots, err := c.ListCandidateSlots(appt, date, others, nil, now)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !hasSlot(slots, at(11, 0)) {
		t.Errorf("own slot should be re-admitted on the same date, got %v", slots)
	}
	if hasSlot(slots, at(13, 0)) {
		t.Errorf("another client's slot must stay excluded, got %v", slots)
	}
}

func TestCandidates_NoReadmissionOnOtherDate(t *testing.T) {
	// On a different target date the appointment's own time means nothing:
	// if someone else holds 11:00 there, it stays excluded.

	c := testCoordinator()
	now := time.Date(2024, time.June, 1, 10, 0, 0, 0, time.UTC)
	ownDate := schedule.NewDate(2024, time.June, 10)
	target := schedule.NewDate(2024, time.June, 12)

	appt := liveAppt("a-1", ownDate, at(11, 0))
	onTarget := []schedule.Appointment{liveAppt("a-2", target, at(11, 0))}

	slots, err := c.ListCandidateSlots(appt, target, onTarget, nil, now)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if hasSlot(slots, at(11, 0)) {
		t.Errorf("11:00 on the target date is held by someone else, got %v", slots)
	}
}

func TestCandidates_BlockedOwnSlotStaysExcluded(t *testing.T) {
	// Re-admission only undoes the appointment's own occupancy. An admin
	// block on the same time still wins.

	c := testCoordinator()
	date := schedule.NewDate(2024, time.June, 10)
	now := time.Date(2024, time.June, 1, 10, 0, 0, 0, time.UTC)

	appt := liveAppt("a-1", date, at(11, 0))
	blocks := []schedule.BlockedSlot{timeBlock(date, at(11, 0))}

	slots, err := c.ListCandidateSlots(appt, date, []schedule.Appointment{appt}, blocks, now)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if hasSlot(slots, at(11, 0)) {
		t.Errorf("a blocked slot is unavailable even to its current holder, got %v", slots)
	}
}

func TestCandidates_TargetOutsideHorizon_Empty(t *testing.T) {
	c := testCoordinator()
	now := time.Date(2024, time.June, 1, 10, 0, 0, 0, time.UTC)
	appt := liveAppt("a-1", schedule.NewDate(2024, time.June, 10), at(11, 0))

	slots, err := c.ListCandidateSlots(appt, schedule.DateOf(now).AddDays(31), nil, nil, now)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(slots) != 0 {
		t.Errorf("expected empty outside the horizon, got %v", slots)
	}
}

func hasSlot(slots []schedule.SlotTime, want schedule.SlotTime) bool {
	for _, s := range slots {
		if s == want {
			return true
		}
	}
	return false
}
