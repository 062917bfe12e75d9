/*
server.go - HTTP router and middleware configuration

PURPOSE:
  Configures the HTTP router (chi), middleware stack, and route definitions.
  This is the wiring layer that connects URLs to handlers.

MIDDLEWARE STACK:
  1. RequestID:  Unique ID per request for tracing
  2. Recoverer:  Panic recovery (500 instead of crash)
  3. zap logger: Structured request logging
  4. CORS:       Cross-origin requests for the booking frontend

ROUTE GROUPS:
  /api/availability       Slot availability
  /api/appointments/*     Booking lifecycle and rescheduling
  /api/pricing/*          Quotes
  /api/admin/*            Blocked-time administration

SEE ALSO:
  - handlers.go: Handler implementations
  - cmd/server/main.go: Server startup
*/
package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"
)

// NewRouter creates a new router with all routes configured.
func NewRouter(h *Handler) *chi.Mux {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(requestLogger(h.Log))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"http://localhost:5173", "http://localhost:8080"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
	}))

	// API routes
	r.Route("/api", func(r chi.Router) {
		r.Get("/availability", h.GetAvailability)

		r.Route("/appointments", func(r chi.Router) {
			r.Post("/", h.CreateAppointment)
			r.Get("/{id}", h.GetAppointment)
			r.Post("/{id}/confirm", h.ConfirmAppointment)
			r.Post("/{id}/cancel", h.CancelAppointment)
			r.Get("/{id}/reschedule-options", h.GetRescheduleOptions)
			r.Post("/{id}/reschedule", h.RescheduleAppointment)
		})

		r.Route("/pricing", func(r chi.Router) {
			r.Post("/quote", h.QuotePrice)
		})

		r.Route("/admin", func(r chi.Router) {
			r.Get("/blocked-slots", h.ListBlockedSlots)
			r.Post("/blocked-slots", h.CreateBlockedSlot)
			r.Delete("/blocked-slots/{id}", h.DeleteBlockedSlot)
		})
	})

	return r
}

// requestLogger logs one line per request with method, path, status, and
// duration.
func requestLogger(log *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)
			log.Info("http request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Duration("duration", time.Since(start)),
				zap.String("request_id", middleware.GetReqID(r.Context())),
			)
		})
	}
}
