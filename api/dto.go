/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication. These types decouple
  the internal domain model from the external API contract.

WIRE FORMAT:
  Dates are YYYY-MM-DD strings, times are HH:MM 24-hour strings on the
  fixed grid step, money travels as decimal strings.

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients

SEE ALSO:
  - handlers.go: Uses these types
*/
package api

import (
	"time"

	"github.com/warp/booking-engine/booking"
	"github.com/warp/booking-engine/pricing"
	"github.com/warp/booking-engine/schedule"
)

// =============================================================================
// REQUEST/RESPONSE TYPES
// =============================================================================

// AppointmentDTO represents an appointment in API responses.
type AppointmentDTO struct {
	ID             string  `json:"id"`
	Date           string  `json:"date"`
	Time           string  `json:"time"`
	Status         string  `json:"status"`
	ClientRef      string  `json:"client_ref"`
	ProductRef     string  `json:"product_ref,omitempty"`
	Amount         string  `json:"amount"`
	CreatedAt      string  `json:"created_at,omitempty"`
	CancelledAt    *string `json:"cancelled_at,omitempty"`
	ReminderSentAt *string `json:"reminder_sent_at,omitempty"`
}

// CreateAppointmentRequest is one checkout.
type CreateAppointmentRequest struct {
	Date            string `json:"date"`
	Time            string `json:"time"`
	ClientRef       string `json:"client_ref"`
	ProductRef      string `json:"product_ref,omitempty"`
	UnitPrice       string `json:"unit_price"`
	Sessions        int    `json:"sessions"`
	SpecialCategory bool   `json:"special_category"`
}

// BookingResponseDTO returns the created appointment plus its quote.
type BookingResponseDTO struct {
	Appointment AppointmentDTO `json:"appointment"`
	Quote       QuoteDTO       `json:"quote"`
}

// DayAvailabilityDTO is one day of bookable slots.
type DayAvailabilityDTO struct {
	Date  string   `json:"date"`
	Slots []string `json:"slots"`
}

// EligibilityDTO is the reschedule eligibility verdict.
type EligibilityDTO struct {
	Allowed           bool     `json:"allowed"`
	BlockingReasons   []string `json:"blocking_reasons,omitempty"`
	Warnings          []string `json:"warnings,omitempty"`
	MinRescheduleDate string   `json:"min_reschedule_date"`
}

// RescheduleOptionsDTO pairs the verdict with candidate slots.
type RescheduleOptionsDTO struct {
	Eligibility EligibilityDTO `json:"eligibility"`
	Date        string         `json:"date"`
	Slots       []string       `json:"slots"`
}

// RescheduleRequest is the chosen replacement slot.
type RescheduleRequest struct {
	Date string `json:"date"`
	Time string `json:"time"`
}

// QuoteRequest prices a purchase without booking.
type QuoteRequest struct {
	UnitPrice       string `json:"unit_price"`
	Sessions        int    `json:"sessions"`
	SpecialCategory bool   `json:"special_category"`
}

// QuoteDTO is the pricing outcome.
type QuoteDTO struct {
	UnitDiscountPercent string `json:"unit_discount_percent"`
	TotalBeforeDiscount string `json:"total_before_discount"`
	TotalAfterDiscount  string `json:"total_after_discount"`
}

// BlockedSlotDTO represents an administrator block.
type BlockedSlotDTO struct {
	ID        string  `json:"id"`
	Date      string  `json:"date"`
	Time      *string `json:"time,omitempty"` // null = whole day
	Reason    string  `json:"reason,omitempty"`
	CreatedAt string  `json:"created_at,omitempty"`
}

// CreateBlockedSlotRequest declares a time or whole day unavailable.
type CreateBlockedSlotRequest struct {
	Date   string  `json:"date"`
	Time   *string `json:"time,omitempty"` // null = whole day
	Reason string  `json:"reason,omitempty"`
}

// ErrorResponse is the standard error response.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

// =============================================================================
// CONVERSION HELPERS
// =============================================================================

func toAppointmentDTO(a schedule.Appointment) AppointmentDTO {
	dto := AppointmentDTO{
		ID:         string(a.ID),
		Date:       a.Date.String(),
		Time:       a.Time.String(),
		Status:     string(a.Status),
		ClientRef:  string(a.ClientRef),
		ProductRef: string(a.ProductRef),
		Amount:     a.Amount.String(),
		CreatedAt:  a.CreatedAt.Format(time.RFC3339),
	}
	if a.CancelledAt != nil {
		s := a.CancelledAt.Format(time.RFC3339)
		dto.CancelledAt = &s
	}
	if a.ReminderSentAt != nil {
		s := a.ReminderSentAt.Format(time.RFC3339)
		dto.ReminderSentAt = &s
	}
	return dto
}

func toQuoteDTO(q pricing.Quote) QuoteDTO {
	return QuoteDTO{
		UnitDiscountPercent: q.UnitDiscountPercent.String(),
		TotalBeforeDiscount: q.TotalBeforeDiscount.String(),
		TotalAfterDiscount:  q.TotalAfterDiscount.String(),
	}
}

func toSlotStrings(slots []schedule.SlotTime) []string {
	out := make([]string, len(slots))
	for i, s := range slots {
		out[i] = s.String()
	}
	return out
}

func toEligibilityDTO(e schedule.Eligibility) EligibilityDTO {
	return EligibilityDTO{
		Allowed:           e.Allowed,
		BlockingReasons:   toReasonStrings(e.BlockingReasons),
		Warnings:          toReasonStrings(e.Warnings),
		MinRescheduleDate: e.MinRescheduleDate.String(),
	}
}

func toReasonStrings(reasons []schedule.Reason) []string {
	if len(reasons) == 0 {
		return nil
	}
	out := make([]string, len(reasons))
	for i, r := range reasons {
		out[i] = string(r)
	}
	return out
}

func toBlockedSlotDTO(b schedule.BlockedSlot) BlockedSlotDTO {
	dto := BlockedSlotDTO{
		ID:        string(b.ID),
		Date:      b.Date.String(),
		Reason:    b.Reason,
		CreatedAt: b.CreatedAt.Format(time.RFC3339),
	}
	if b.Time != nil {
		s := b.Time.String()
		dto.Time = &s
	}
	return dto
}

func toDayAvailabilityDTOs(window []booking.DayAvailability) []DayAvailabilityDTO {
	out := make([]DayAvailabilityDTO, len(window))
	for i, day := range window {
		out[i] = DayAvailabilityDTO{Date: day.Date.String(), Slots: toSlotStrings(day.Slots)}
	}
	return out
}
