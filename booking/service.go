/*
Package booking orchestrates the scheduling core against the stores.

PURPOSE:
  Wires the availability resolver, reschedule coordinator, and pricing
  engine into the operations callers actually perform: book, confirm,
  cancel, reschedule, and administer blocked time. The package owns no
  scheduling rules itself - it loads snapshots, calls the pure core, and
  executes transitions through the stores' conditional writes.

CONTROL FLOW (reschedule):
  1. CheckEligibility gates the move (status + cutoff rules)
  2. ListCandidateSlots produces the choices for the target date
  3. AppointmentStore.Move executes the atomic transition, re-checking the
     target slot; a lost race surfaces as ErrSlotConflict and the caller
     re-lists candidates

ERROR CONTRACT:
  Validation and conflict errors propagate from the schedule package.
  A reschedule attempt on an ineligible appointment returns
  *NotEligibleError carrying the blocking reason codes; eligibility
  *queries* never error on ineligibility - it is ordinary return data.

SEE ALSO:
  - policies.go: preset business policies (grid, cutoff, pricing)
  - reminders.go: background reminder dispatch
*/
package booking

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/warp/booking-engine/pricing"
	"github.com/warp/booking-engine/schedule"
)

// =============================================================================
// ERRORS
// =============================================================================

// ErrNotEligible is returned when a reschedule is attempted on an
// appointment whose eligibility check fails.
var ErrNotEligible = errors.New("appointment not eligible for reschedule")

// NotEligibleError carries the blocking reason codes for the caller to
// translate into user-facing messages.
type NotEligibleError struct {
	Reasons []schedule.Reason
}

func (e *NotEligibleError) Error() string {
	return fmt.Sprintf("not eligible for reschedule: %v", e.Reasons)
}

func (e *NotEligibleError) Unwrap() error { return ErrNotEligible }

// =============================================================================
// SERVICE
// =============================================================================

// Service executes booking operations for one provider's calendar.
type Service struct {
	Appointments schedule.AppointmentStore
	Blocks       schedule.BlockedSlotStore
	Clock        schedule.Clock
	Policy       Policy
}

// NewService wires a service with the given stores and policy.
func NewService(appts schedule.AppointmentStore, blocks schedule.BlockedSlotStore, clock schedule.Clock, policy Policy) *Service {
	return &Service{Appointments: appts, Blocks: blocks, Clock: clock, Policy: policy}
}

func (s *Service) coordinator() schedule.Coordinator {
	return schedule.Coordinator{
		Grid:          s.Policy.Grid,
		Cutoff:        s.Policy.Cutoff,
		WarningWindow: s.Policy.WarningWindow,
	}
}

// snapshot loads the appointment and block collections for one date.
func (s *Service) snapshot(ctx context.Context, date schedule.Date) ([]schedule.Appointment, []schedule.BlockedSlot, error) {
	appts, err := s.Appointments.ListByDate(ctx, date)
	if err != nil {
		return nil, nil, fmt.Errorf("list appointments: %w", err)
	}
	blocks, err := s.Blocks.ListByDate(ctx, date)
	if err != nil {
		return nil, nil, fmt.Errorf("list blocked slots: %w", err)
	}
	return appts, blocks, nil
}

// =============================================================================
// AVAILABILITY
// =============================================================================

// AvailableSlots resolves the bookable slots for one date.
func (s *Service) AvailableSlots(ctx context.Context, date schedule.Date) ([]schedule.SlotTime, error) {
	appts, blocks, err := s.snapshot(ctx, date)
	if err != nil {
		return nil, err
	}
	return schedule.ResolveAvailableSlots(date, s.Policy.Grid, appts, blocks, s.Clock.Now())
}

// DayAvailability is one day of the availability window.
type DayAvailability struct {
	Date  schedule.Date
	Slots []schedule.SlotTime
}

// AvailabilityWindow resolves every day from today through the horizon in
// one pass over the stores.
func (s *Service) AvailabilityWindow(ctx context.Context) ([]DayAvailability, error) {
	now := s.Clock.Now()
	today := schedule.DateOf(now)
	end := today.AddDays(s.Policy.Grid.HorizonDays)

	appts, err := s.Appointments.ListByDateRange(ctx, today, end)
	if err != nil {
		return nil, fmt.Errorf("list appointments: %w", err)
	}
	blocks, err := s.Blocks.ListByDateRange(ctx, today, end)
	if err != nil {
		return nil, fmt.Errorf("list blocked slots: %w", err)
	}

	window := make([]DayAvailability, 0, s.Policy.Grid.HorizonDays+1)
	for d := today; d.BeforeOrEqual(end); d = d.AddDays(1) {
		slots, err := schedule.ResolveAvailableSlots(d, s.Policy.Grid, appts, blocks, now)
		if err != nil {
			return nil, err
		}
		window = append(window, DayAvailability{Date: d, Slots: slots})
	}
	return window, nil
}

// =============================================================================
// BOOKING
// =============================================================================

// BookRequest is one checkout: a slot plus the pricing inputs.
type BookRequest struct {
	Date            schedule.Date
	Time            schedule.SlotTime
	ClientRef       schedule.ClientRef
	ProductRef      schedule.ProductRef
	UnitPrice       decimal.Decimal
	Sessions        int
	SpecialCategory bool
}

// Quote prices a purchase under the service's pricing policy without
// booking anything.
func (s *Service) Quote(unitPrice decimal.Decimal, sessions int, specialCategory bool) (pricing.Quote, error) {
	return pricing.ComputeTotal(pricing.Input{
		UnitPrice:       unitPrice,
		SessionCount:    sessions,
		SpecialCategory: specialCategory,
		Policy:          s.Policy.Pricing,
	})
}

// Book prices the purchase and claims the slot, creating the appointment in
// pending_payment. The store's conditional insert is the authoritative
// uniqueness check; a lost race returns ErrSlotConflict.
func (s *Service) Book(ctx context.Context, req BookRequest) (*schedule.Appointment, pricing.Quote, error) {
	now := s.Clock.Now()

	if req.Date.IsZero() {
		return nil, pricing.Quote{}, &schedule.ValidationError{Field: "date", Message: "date is required"}
	}
	if !s.Policy.Grid.Contains(req.Time) {
		return nil, pricing.Quote{}, &schedule.ValidationError{Field: "time", Message: fmt.Sprintf("%s is not on the slot grid", req.Time)}
	}
	if !s.Policy.Grid.WithinHorizon(req.Date, schedule.DateOf(now)) {
		return nil, pricing.Quote{}, &schedule.ValidationError{Field: "date", Message: "outside the booking horizon"}
	}
	if req.ClientRef == "" {
		return nil, pricing.Quote{}, &schedule.ValidationError{Field: "client_ref", Message: "client reference is required"}
	}

	quote, err := s.Quote(req.UnitPrice, req.Sessions, req.SpecialCategory)
	if err != nil {
		return nil, pricing.Quote{}, err
	}

	// Advisory pre-check against a snapshot; the Create below is the real
	// exclusivity guarantee.
	appts, blocks, err := s.snapshot(ctx, req.Date)
	if err != nil {
		return nil, pricing.Quote{}, err
	}
	available, err := schedule.ResolveAvailableSlots(req.Date, s.Policy.Grid, appts, blocks, now)
	if err != nil {
		return nil, pricing.Quote{}, err
	}
	if !containsSlot(available, req.Time) {
		return nil, pricing.Quote{}, &schedule.SlotConflictError{Date: req.Date, Time: req.Time}
	}

	appt := schedule.Appointment{
		ID:         schedule.AppointmentID(uuid.NewString()),
		Date:       req.Date,
		Time:       req.Time,
		Status:     schedule.StatusPendingPayment,
		ClientRef:  req.ClientRef,
		ProductRef: req.ProductRef,
		Amount:     quote.TotalAfterDiscount,
		CreatedAt:  now,
	}
	if err := s.Appointments.Create(ctx, appt); err != nil {
		return nil, pricing.Quote{}, err
	}
	return &appt, quote, nil
}

// ConfirmPayment marks a pending_payment appointment as paid.
func (s *Service) ConfirmPayment(ctx context.Context, id schedule.AppointmentID) (*schedule.Appointment, error) {
	return s.Appointments.SetStatus(ctx, id, schedule.StatusPendingPayment, schedule.StatusConfirmed, s.Clock.Now())
}

// Cancel cancels a non-terminal appointment, freeing its slot for others.
func (s *Service) Cancel(ctx context.Context, id schedule.AppointmentID) (*schedule.Appointment, error) {
	appt, err := s.Appointments.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if appt.Status.Terminal() {
		return nil, &schedule.ValidationError{Field: "status", Message: fmt.Sprintf("appointment is already %s", appt.Status)}
	}
	return s.Appointments.SetStatus(ctx, id, appt.Status, schedule.StatusCancelled, s.Clock.Now())
}

// Complete marks an elapsed appointment completed. Invoked by an external
// process after the appointment time passes.
func (s *Service) Complete(ctx context.Context, id schedule.AppointmentID) (*schedule.Appointment, error) {
	appt, err := s.Appointments.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if appt.Status != schedule.StatusConfirmed {
		return nil, &schedule.ValidationError{Field: "status", Message: fmt.Sprintf("only confirmed appointments complete, got %s", appt.Status)}
	}
	if appt.StartsAt().After(s.Clock.Now()) {
		return nil, &schedule.ValidationError{Field: "time", Message: "appointment has not elapsed yet"}
	}
	return s.Appointments.SetStatus(ctx, id, schedule.StatusConfirmed, schedule.StatusCompleted, s.Clock.Now())
}

// =============================================================================
// RESCHEDULING
// =============================================================================

// CheckReschedule reports eligibility for a move. Ineligibility is data,
// never an error.
func (s *Service) CheckReschedule(ctx context.Context, id schedule.AppointmentID) (schedule.Eligibility, error) {
	appt, err := s.Appointments.Get(ctx, id)
	if err != nil {
		return schedule.Eligibility{}, err
	}
	return s.coordinator().CheckEligibility(*appt, s.Clock.Now()), nil
}

// RescheduleOptions returns the eligibility verdict and, when allowed, the
// candidate slots on targetDate.
func (s *Service) RescheduleOptions(ctx context.Context, id schedule.AppointmentID, targetDate schedule.Date) (schedule.Eligibility, []schedule.SlotTime, error) {
	appt, err := s.Appointments.Get(ctx, id)
	if err != nil {
		return schedule.Eligibility{}, nil, err
	}
	now := s.Clock.Now()
	elig := s.coordinator().CheckEligibility(*appt, now)
	if !elig.Allowed {
		return elig, nil, nil
	}

	appts, blocks, err := s.snapshot(ctx, targetDate)
	if err != nil {
		return schedule.Eligibility{}, nil, err
	}
	slots, err := s.coordinator().ListCandidateSlots(*appt, targetDate, appts, blocks, now)
	if err != nil {
		return schedule.Eligibility{}, nil, err
	}
	return elig, slots, nil
}

// Reschedule moves an appointment to (newDate, newTime). The store's Move
// re-checks the target slot atomically; a lost race returns ErrSlotConflict
// and the caller should re-list candidates. Status is unchanged by the move.
func (s *Service) Reschedule(ctx context.Context, id schedule.AppointmentID, newDate schedule.Date, newTime schedule.SlotTime) (*schedule.Appointment, error) {
	appt, err := s.Appointments.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	now := s.Clock.Now()

	elig := s.coordinator().CheckEligibility(*appt, now)
	if !elig.Allowed {
		return nil, &NotEligibleError{Reasons: elig.BlockingReasons}
	}
	if !s.Policy.Grid.Contains(newTime) {
		return nil, &schedule.ValidationError{Field: "time", Message: fmt.Sprintf("%s is not on the slot grid", newTime)}
	}

	appts, blocks, err := s.snapshot(ctx, newDate)
	if err != nil {
		return nil, err
	}
	candidates, err := s.coordinator().ListCandidateSlots(*appt, newDate, appts, blocks, now)
	if err != nil {
		return nil, err
	}
	if !containsSlot(candidates, newTime) {
		return nil, &schedule.SlotConflictError{Date: newDate, Time: newTime}
	}

	return s.Appointments.Move(ctx, id, newDate, newTime)
}

// =============================================================================
// BLOCKED-TIME ADMINISTRATION
// =============================================================================

// BlockSlot declares a time - or with t == nil, an entire day - unavailable.
func (s *Service) BlockSlot(ctx context.Context, date schedule.Date, t *schedule.SlotTime, reason string) (*schedule.BlockedSlot, error) {
	if date.IsZero() {
		return nil, &schedule.ValidationError{Field: "date", Message: "date is required"}
	}
	if t != nil && !s.Policy.Grid.Contains(*t) {
		return nil, &schedule.ValidationError{Field: "time", Message: fmt.Sprintf("%s is not on the slot grid", *t)}
	}

	block := schedule.BlockedSlot{
		ID:        schedule.BlockedSlotID(uuid.NewString()),
		Date:      date,
		Time:      t,
		Reason:    reason,
		CreatedAt: s.Clock.Now(),
	}
	if err := s.Blocks.Create(ctx, block); err != nil {
		return nil, err
	}
	return &block, nil
}

// UnblockSlot removes a block.
func (s *Service) UnblockSlot(ctx context.Context, id schedule.BlockedSlotID) error {
	return s.Blocks.Delete(ctx, id)
}

func containsSlot(slots []schedule.SlotTime, t schedule.SlotTime) bool {
	for _, s := range slots {
		if s == t {
			return true
		}
	}
	return false
}
