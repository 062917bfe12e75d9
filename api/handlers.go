/*
handlers.go - HTTP API handlers for the booking engine

PURPOSE:
  Exposes the booking service via REST API. Handles HTTP request/response,
  JSON serialization, and delegates every decision to the booking service.

ENDPOINTS:
  Availability:
    GET    /api/availability                       Window (today..horizon)
    GET    /api/availability?date=YYYY-MM-DD       One day

  Appointments:
    POST   /api/appointments                       Book a slot
    GET    /api/appointments/{id}                  Fetch one
    POST   /api/appointments/{id}/confirm          Payment confirmed
    POST   /api/appointments/{id}/cancel           Cancel
    GET    /api/appointments/{id}/reschedule-options?date=YYYY-MM-DD
    POST   /api/appointments/{id}/reschedule       Execute the move

  Pricing:
    POST   /api/pricing/quote                      Price without booking

  Admin:
    GET    /api/admin/blocked-slots?from=&to=      List blocks
    POST   /api/admin/blocked-slots                Block a time or day
    DELETE /api/admin/blocked-slots/{id}           Remove a block

ERROR HANDLING:
  Errors are returned as JSON with appropriate HTTP status:
  - 400: Validation errors, invalid input
  - 404: Appointment or block not found
  - 409: Slot taken or status changed underneath the caller
  - 422: Reschedule attempted on an ineligible appointment
  - 500: Internal errors

SECURITY NOTE:
  No authentication middleware. The admin routes are expected to sit behind
  a gateway that enforces auth.

SEE ALSO:
  - dto.go: Request/response data structures
  - server.go: Router setup and middleware
*/
package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/warp/booking-engine/booking"
	"github.com/warp/booking-engine/schedule"
)

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Service *booking.Service
	Log     *zap.Logger
}

// NewHandler creates a new handler around the booking service.
func NewHandler(svc *booking.Service, log *zap.Logger) *Handler {
	if log == nil {
		log = zap.NewNop()
	}
	return &Handler{Service: svc, Log: log}
}

// =============================================================================
// AVAILABILITY HANDLERS
// =============================================================================

// GetAvailability returns bookable slots. With ?date= it resolves one day;
// without, the full window from today through the horizon.
func (h *Handler) GetAvailability(w http.ResponseWriter, r *http.Request) {
	if raw := r.URL.Query().Get("date"); raw != "" {
		date, err := schedule.ParseDate(raw)
		if err != nil {
			h.writeDomainError(w, err)
			return
		}
		slots, err := h.Service.AvailableSlots(r.Context(), date)
		if err != nil {
			h.writeDomainError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, DayAvailabilityDTO{Date: date.String(), Slots: toSlotStrings(slots)})
		return
	}

	window, err := h.Service.AvailabilityWindow(r.Context())
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toDayAvailabilityDTOs(window))
}

// =============================================================================
// APPOINTMENT HANDLERS
// =============================================================================

// CreateAppointment books a slot and returns the appointment with its quote.
func (h *Handler) CreateAppointment(w http.ResponseWriter, r *http.Request) {
	var req CreateAppointmentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	bookReq, err := h.toBookRequest(req)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}

	appt, quote, err := h.Service.Book(r.Context(), bookReq)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, BookingResponseDTO{
		Appointment: toAppointmentDTO(*appt),
		Quote:       toQuoteDTO(quote),
	})
}

func (h *Handler) toBookRequest(req CreateAppointmentRequest) (booking.BookRequest, error) {
	date, err := schedule.ParseDate(req.Date)
	if err != nil {
		return booking.BookRequest{}, err
	}
	t, err := schedule.ParseSlotTime(req.Time)
	if err != nil {
		return booking.BookRequest{}, err
	}
	unitPrice, err := decimal.NewFromString(req.UnitPrice)
	if err != nil {
		return booking.BookRequest{}, &schedule.ValidationError{Field: "unit_price", Message: "must be a decimal number"}
	}
	return booking.BookRequest{
		Date:            date,
		Time:            t,
		ClientRef:       schedule.ClientRef(req.ClientRef),
		ProductRef:      schedule.ProductRef(req.ProductRef),
		UnitPrice:       unitPrice,
		Sessions:        req.Sessions,
		SpecialCategory: req.SpecialCategory,
	}, nil
}

// GetAppointment returns a single appointment.
func (h *Handler) GetAppointment(w http.ResponseWriter, r *http.Request) {
	id := schedule.AppointmentID(chi.URLParam(r, "id"))

	appt, err := h.Service.Appointments.Get(r.Context(), id)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toAppointmentDTO(*appt))
}

// ConfirmAppointment marks a pending appointment as paid.
func (h *Handler) ConfirmAppointment(w http.ResponseWriter, r *http.Request) {
	id := schedule.AppointmentID(chi.URLParam(r, "id"))

	appt, err := h.Service.ConfirmPayment(r.Context(), id)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toAppointmentDTO(*appt))
}

// CancelAppointment cancels a non-terminal appointment.
func (h *Handler) CancelAppointment(w http.ResponseWriter, r *http.Request) {
	id := schedule.AppointmentID(chi.URLParam(r, "id"))

	appt, err := h.Service.Cancel(r.Context(), id)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toAppointmentDTO(*appt))
}

// =============================================================================
// RESCHEDULE HANDLERS
// =============================================================================

// GetRescheduleOptions returns the eligibility verdict and, when allowed,
// candidate slots for ?date=. An ineligible appointment is a 200 with
// allowed=false, not an error.
func (h *Handler) GetRescheduleOptions(w http.ResponseWriter, r *http.Request) {
	id := schedule.AppointmentID(chi.URLParam(r, "id"))

	raw := r.URL.Query().Get("date")
	if raw == "" {
		elig, err := h.Service.CheckReschedule(r.Context(), id)
		if err != nil {
			h.writeDomainError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, RescheduleOptionsDTO{Eligibility: toEligibilityDTO(elig)})
		return
	}

	date, err := schedule.ParseDate(raw)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}

	elig, slots, err := h.Service.RescheduleOptions(r.Context(), id, date)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, RescheduleOptionsDTO{
		Eligibility: toEligibilityDTO(elig),
		Date:        date.String(),
		Slots:       toSlotStrings(slots),
	})
}

// RescheduleAppointment executes the move. A lost race on the target slot
// returns 409; the client should re-fetch options and retry.
func (h *Handler) RescheduleAppointment(w http.ResponseWriter, r *http.Request) {
	id := schedule.AppointmentID(chi.URLParam(r, "id"))

	var req RescheduleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	date, err := schedule.ParseDate(req.Date)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	t, err := schedule.ParseSlotTime(req.Time)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}

	appt, err := h.Service.Reschedule(r.Context(), id, date, t)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toAppointmentDTO(*appt))
}

// =============================================================================
// PRICING HANDLERS
// =============================================================================

// QuotePrice prices a purchase without creating anything.
func (h *Handler) QuotePrice(w http.ResponseWriter, r *http.Request) {
	var req QuoteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	unitPrice, err := decimal.NewFromString(req.UnitPrice)
	if err != nil {
		h.writeDomainError(w, &schedule.ValidationError{Field: "unit_price", Message: "must be a decimal number"})
		return
	}

	quote, err := h.Service.Quote(unitPrice, req.Sessions, req.SpecialCategory)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toQuoteDTO(quote))
}

// =============================================================================
// ADMIN HANDLERS
// =============================================================================

// ListBlockedSlots returns blocks in [from, to]; both default to the booking
// window when omitted.
func (h *Handler) ListBlockedSlots(w http.ResponseWriter, r *http.Request) {
	now := h.Service.Clock.Now()
	from := schedule.DateOf(now)
	to := from.AddDays(h.Service.Policy.Grid.HorizonDays)

	var err error
	if raw := r.URL.Query().Get("from"); raw != "" {
		if from, err = schedule.ParseDate(raw); err != nil {
			h.writeDomainError(w, err)
			return
		}
	}
	if raw := r.URL.Query().Get("to"); raw != "" {
		if to, err = schedule.ParseDate(raw); err != nil {
			h.writeDomainError(w, err)
			return
		}
	}

	blocks, err := h.Service.Blocks.ListByDateRange(r.Context(), from, to)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	dtos := make([]BlockedSlotDTO, len(blocks))
	for i, b := range blocks {
		dtos[i] = toBlockedSlotDTO(b)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// CreateBlockedSlot blocks one time, or the whole day when time is null.
func (h *Handler) CreateBlockedSlot(w http.ResponseWriter, r *http.Request) {
	var req CreateBlockedSlotRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	date, err := schedule.ParseDate(req.Date)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	var t *schedule.SlotTime
	if req.Time != nil {
		parsed, err := schedule.ParseSlotTime(*req.Time)
		if err != nil {
			h.writeDomainError(w, err)
			return
		}
		t = &parsed
	}

	block, err := h.Service.BlockSlot(r.Context(), date, t, req.Reason)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toBlockedSlotDTO(*block))
}

// DeleteBlockedSlot removes a block.
func (h *Handler) DeleteBlockedSlot(w http.ResponseWriter, r *http.Request) {
	id := schedule.BlockedSlotID(chi.URLParam(r, "id"))

	if err := h.Service.UnblockSlot(r.Context(), id); err != nil {
		h.writeDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// =============================================================================
// RESPONSE HELPERS
// =============================================================================

// writeDomainError maps domain errors onto HTTP statuses and stable codes.
func (h *Handler) writeDomainError(w http.ResponseWriter, err error) {
	var status int
	var code string

	switch {
	case errors.Is(err, schedule.ErrValidation):
		status, code = http.StatusBadRequest, "validation"
	case errors.Is(err, schedule.ErrNotFound):
		status, code = http.StatusNotFound, "not_found"
	case errors.Is(err, schedule.ErrSlotConflict):
		status, code = http.StatusConflict, "slot_conflict"
	case errors.Is(err, schedule.ErrStatusConflict):
		status, code = http.StatusConflict, "status_conflict"
	case errors.Is(err, booking.ErrNotEligible):
		status, code = http.StatusUnprocessableEntity, "not_eligible"
	default:
		status, code = http.StatusInternalServerError, "internal"
		h.Log.Error("request failed", zap.Error(err))
	}

	writeJSON(w, status, ErrorResponse{Error: err.Error(), Code: code})
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Error = message + ": " + err.Error()
	}
	writeJSON(w, status, resp)
}
