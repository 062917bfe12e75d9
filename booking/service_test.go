package booking_test

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/booking-engine/booking"
	"github.com/warp/booking-engine/schedule"
	"github.com/warp/booking-engine/store/sqlite"
)

// =============================================================================
// TEST SETUP
// =============================================================================

// testClock is an adjustable clock so cutoff and past-slot behavior can be
// exercised without sleeping.
type testClock struct {
	now time.Time
}

func (c *testClock) Now() time.Time { return c.now }

func newTestService(t *testing.T) (*booking.Service, *testClock) {
	store, err := sqlite.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	clock := &testClock{now: time.Date(2024, time.June, 1, 10, 0, 0, 0, time.UTC)}
	svc := booking.NewService(store, store.Blocks(), clock, booking.StandardPolicy())
	return svc, clock
}

func bookReq(date schedule.Date, hour int) booking.BookRequest {
	return booking.BookRequest{
		Date:      date,
		Time:      schedule.NewSlotTime(hour, 0),
		ClientRef: "client-1",
		UnitPrice: decimal.NewFromInt(3000),
		Sessions:  1,
	}
}

func june(day int) schedule.Date {
	return schedule.NewDate(2024, time.June, day)
}

// =============================================================================
// BOOKING TESTS
// =============================================================================

func TestBook_CreatesPendingAppointment(t *testing.T) {
	// GIVEN: an open 11:00 slot on June 10
	// WHEN: booking 5 sessions at 3000 with the special-category discount
	// THEN: a pending_payment appointment priced at 12000 (20% off 15000)

	svc, _ := newTestService(t)
	ctx := context.Background()

	req := bookReq(june(10), 11)
	req.Sessions = 5
	req.SpecialCategory = true

	appt, quote, err := svc.Book(ctx, req)
	require.NoError(t, err)

	assert.Equal(t, schedule.StatusPendingPayment, appt.Status)
	assert.True(t, quote.TotalBeforeDiscount.Equal(decimal.NewFromInt(15000)))
	assert.True(t, quote.TotalAfterDiscount.Equal(decimal.NewFromInt(12000)))
	assert.True(t, appt.Amount.Equal(decimal.NewFromInt(12000)), "appointment stores the discounted total")

	stored, err := svc.Appointments.Get(ctx, appt.ID)
	require.NoError(t, err)
	assert.Equal(t, appt.ID, stored.ID)
}

func TestBook_TakenSlot_Conflict(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	_, _, err := svc.Book(ctx, bookReq(june(10), 11))
	require.NoError(t, err)

	_, _, err = svc.Book(ctx, bookReq(june(10), 11))
	assert.ErrorIs(t, err, schedule.ErrSlotConflict)
}

func TestBook_CancelThenRebook(t *testing.T) {
	// GIVEN: a booked then cancelled 11:00 slot
	// WHEN: another client books the same slot
	// THEN: it succeeds; cancellation frees the slot

	svc, _ := newTestService(t)
	ctx := context.Background()

	appt, _, err := svc.Book(ctx, bookReq(june(10), 11))
	require.NoError(t, err)

	cancelled, err := svc.Cancel(ctx, appt.ID)
	require.NoError(t, err)
	assert.Equal(t, schedule.StatusCancelled, cancelled.Status)
	assert.NotNil(t, cancelled.CancelledAt)

	req := bookReq(june(10), 11)
	req.ClientRef = "client-2"
	_, _, err = svc.Book(ctx, req)
	assert.NoError(t, err, "cancelled appointments do not hold their slot")
}

func TestBook_Validation(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	t.Run("off-grid time", func(t *testing.T) {
		req := bookReq(june(10), 11)
		req.Time = schedule.NewSlotTime(11, 30)
		_, _, err := svc.Book(ctx, req)
		assert.ErrorIs(t, err, schedule.ErrValidation)
	})

	t.Run("outside horizon", func(t *testing.T) {
		_, _, err := svc.Book(ctx, bookReq(june(1).AddDays(31), 11))
		assert.ErrorIs(t, err, schedule.ErrValidation)
	})

	t.Run("missing client ref", func(t *testing.T) {
		req := bookReq(june(10), 11)
		req.ClientRef = ""
		_, _, err := svc.Book(ctx, req)
		assert.ErrorIs(t, err, schedule.ErrValidation)
	})

	t.Run("zero sessions", func(t *testing.T) {
		req := bookReq(june(10), 11)
		req.Sessions = 0
		_, _, err := svc.Book(ctx, req)
		assert.ErrorIs(t, err, schedule.ErrValidation)
	})
}

func TestBook_BlockedSlot_Conflict(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	eleven := schedule.NewSlotTime(11, 0)
	_, err := svc.BlockSlot(ctx, june(10), &eleven, "maintenance")
	require.NoError(t, err)

	_, _, err = svc.Book(ctx, bookReq(june(10), 11))
	assert.ErrorIs(t, err, schedule.ErrSlotConflict)

	// A neighboring slot is unaffected.
	_, _, err = svc.Book(ctx, bookReq(june(10), 12))
	assert.NoError(t, err)
}

func TestBook_WholeDayBlock(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	block, err := svc.BlockSlot(ctx, june(10), nil, "closed")
	require.NoError(t, err)

	_, _, err = svc.Book(ctx, bookReq(june(10), 11))
	assert.ErrorIs(t, err, schedule.ErrSlotConflict)

	// Unblocking reopens the day.
	require.NoError(t, svc.UnblockSlot(ctx, block.ID))
	_, _, err = svc.Book(ctx, bookReq(june(10), 11))
	assert.NoError(t, err)
}

// =============================================================================
// LIFECYCLE TESTS
// =============================================================================

func TestConfirmPayment(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	appt, _, err := svc.Book(ctx, bookReq(june(10), 11))
	require.NoError(t, err)

	confirmed, err := svc.ConfirmPayment(ctx, appt.ID)
	require.NoError(t, err)
	assert.Equal(t, schedule.StatusConfirmed, confirmed.Status)

	// A second confirm finds the expected status gone.
	_, err = svc.ConfirmPayment(ctx, appt.ID)
	assert.ErrorIs(t, err, schedule.ErrStatusConflict)
}

func TestCancel_Terminal_Rejected(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	appt, _, err := svc.Book(ctx, bookReq(june(10), 11))
	require.NoError(t, err)
	_, err = svc.Cancel(ctx, appt.ID)
	require.NoError(t, err)

	_, err = svc.Cancel(ctx, appt.ID)
	assert.ErrorIs(t, err, schedule.ErrValidation, "cancelling a cancelled appointment")
}

func TestComplete(t *testing.T) {
	svc, clock := newTestService(t)
	ctx := context.Background()

	appt, _, err := svc.Book(ctx, bookReq(june(10), 11))
	require.NoError(t, err)
	_, err = svc.ConfirmPayment(ctx, appt.ID)
	require.NoError(t, err)

	// Not elapsed yet.
	_, err = svc.Complete(ctx, appt.ID)
	assert.ErrorIs(t, err, schedule.ErrValidation)

	clock.now = time.Date(2024, time.June, 10, 12, 30, 0, 0, time.UTC)
	done, err := svc.Complete(ctx, appt.ID)
	require.NoError(t, err)
	assert.Equal(t, schedule.StatusCompleted, done.Status)
}

func TestComplete_RequiresConfirmed(t *testing.T) {
	svc, clock := newTestService(t)
	ctx := context.Background()

	appt, _, err := svc.Book(ctx, bookReq(june(10), 11))
	require.NoError(t, err)

	clock.now = time.Date(2024, time.June, 10, 12, 30, 0, 0, time.UTC)
	_, err = svc.Complete(ctx, appt.ID)
	assert.ErrorIs(t, err, schedule.ErrValidation, "pending appointments do not complete")
}

// =============================================================================
// AVAILABILITY TESTS
// =============================================================================

func TestAvailableSlots_ReflectsBookingsAndBlocks(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	_, _, err := svc.Book(ctx, bookReq(june(10), 11))
	require.NoError(t, err)
	fourteen := schedule.NewSlotTime(14, 0)
	_, err = svc.BlockSlot(ctx, june(10), &fourteen, "")
	require.NoError(t, err)

	slots, err := svc.AvailableSlots(ctx, june(10))
	require.NoError(t, err)

	want := []schedule.SlotTime{
		schedule.NewSlotTime(9, 0), schedule.NewSlotTime(10, 0),
		schedule.NewSlotTime(12, 0), schedule.NewSlotTime(13, 0),
		schedule.NewSlotTime(15, 0), schedule.NewSlotTime(16, 0),
		schedule.NewSlotTime(17, 0),
	}
	assert.Equal(t, want, slots)
}

func TestAvailabilityWindow_SpansHorizon(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	window, err := svc.AvailabilityWindow(ctx)
	require.NoError(t, err)

	require.Len(t, window, 31, "today plus 30 horizon days")
	assert.True(t, window[0].Date.Equal(june(1)))
	assert.True(t, window[30].Date.Equal(june(1).AddDays(30)))

	// Today at 10:00: the 09:00 and 10:00 slots are already gone.
	assert.NotContains(t, window[0].Slots, schedule.NewSlotTime(9, 0))
	assert.NotContains(t, window[0].Slots, schedule.NewSlotTime(10, 0))
	assert.Contains(t, window[0].Slots, schedule.NewSlotTime(11, 0))
}

// =============================================================================
// RESCHEDULE TESTS
// =============================================================================

func TestReschedule_MovesAppointment(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	appt, _, err := svc.Book(ctx, bookReq(june(10), 11))
	require.NoError(t, err)
	_, err = svc.ConfirmPayment(ctx, appt.ID)
	require.NoError(t, err)

	moved, err := svc.Reschedule(ctx, appt.ID, june(12), schedule.NewSlotTime(14, 0))
	require.NoError(t, err)

	assert.True(t, moved.Date.Equal(june(12)))
	assert.Equal(t, schedule.NewSlotTime(14, 0), moved.Time)
	assert.Equal(t, schedule.StatusConfirmed, moved.Status, "a move never changes status")

	// The old slot is free again.
	slots, err := svc.AvailableSlots(ctx, june(10))
	require.NoError(t, err)
	assert.Contains(t, slots, schedule.NewSlotTime(11, 0))
}

func TestReschedule_TargetTaken_Conflict(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	appt, _, err := svc.Book(ctx, bookReq(june(10), 11))
	require.NoError(t, err)

	other := bookReq(june(12), 14)
	other.ClientRef = "client-2"
	_, _, err = svc.Book(ctx, other)
	require.NoError(t, err)

	_, err = svc.Reschedule(ctx, appt.ID, june(12), schedule.NewSlotTime(14, 0))
	assert.ErrorIs(t, err, schedule.ErrSlotConflict)

	// The appointment is untouched by the failed move.
	unchanged, err := svc.Appointments.Get(ctx, appt.ID)
	require.NoError(t, err)
	assert.True(t, unchanged.Date.Equal(june(10)))
}

func TestReschedule_Cancelled_NotEligible(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	appt, _, err := svc.Book(ctx, bookReq(june(10), 11))
	require.NoError(t, err)
	_, err = svc.Cancel(ctx, appt.ID)
	require.NoError(t, err)

	_, err = svc.Reschedule(ctx, appt.ID, june(12), schedule.NewSlotTime(14, 0))
	assert.ErrorIs(t, err, booking.ErrNotEligible)

	var notEligible *booking.NotEligibleError
	require.ErrorAs(t, err, &notEligible)
	assert.Contains(t, notEligible.Reasons, schedule.ReasonAlreadyCancelled)
}

func TestReschedule_InsideCutoff_NotEligible(t *testing.T) {
	svc, clock := newTestService(t)
	ctx := context.Background()

	appt, _, err := svc.Book(ctx, bookReq(june(10), 11))
	require.NoError(t, err)

	// 10 hours before start, inside the 24h cutoff.
	clock.now = time.Date(2024, time.June, 10, 1, 0, 0, 0, time.UTC)

	_, err = svc.Reschedule(ctx, appt.ID, june(12), schedule.NewSlotTime(14, 0))
	assert.ErrorIs(t, err, booking.ErrNotEligible)
}

func TestCheckReschedule_IneligibilityIsData(t *testing.T) {
	// Queries report ineligibility as a normal result, not an error.
	svc, _ := newTestService(t)
	ctx := context.Background()

	appt, _, err := svc.Book(ctx, bookReq(june(10), 11))
	require.NoError(t, err)
	_, err = svc.Cancel(ctx, appt.ID)
	require.NoError(t, err)

	elig, err := svc.CheckReschedule(ctx, appt.ID)
	require.NoError(t, err)
	assert.False(t, elig.Allowed)
	assert.Contains(t, elig.BlockingReasons, schedule.ReasonAlreadyCancelled)
}

func TestRescheduleOptions_OwnSlotOffered(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	appt, _, err := svc.Book(ctx, bookReq(june(10), 11))
	require.NoError(t, err)

	elig, slots, err := svc.RescheduleOptions(ctx, appt.ID, june(10))
	require.NoError(t, err)
	assert.True(t, elig.Allowed)
	assert.Contains(t, slots, schedule.NewSlotTime(11, 0), "own slot is offered on the same date")
}

func TestRescheduleOptions_NotAllowed_NoSlots(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	appt, _, err := svc.Book(ctx, bookReq(june(10), 11))
	require.NoError(t, err)
	_, err = svc.Cancel(ctx, appt.ID)
	require.NoError(t, err)

	elig, slots, err := svc.RescheduleOptions(ctx, appt.ID, june(12))
	require.NoError(t, err)
	assert.False(t, elig.Allowed)
	assert.Nil(t, slots)
}

func TestReschedule_NotFound(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.Reschedule(ctx, "no-such-id", june(12), schedule.NewSlotTime(14, 0))
	assert.ErrorIs(t, err, schedule.ErrNotFound)
}
