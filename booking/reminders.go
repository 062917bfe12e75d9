/*
reminders.go - Automated appointment reminder dispatch

PURPOSE:
  Periodically scans for live appointments starting within the reminder
  lead time and hands them to the notification dispatcher. Notification is
  fire-and-forget: a dispatcher failure never rolls back or blocks any
  scheduling outcome, and the reminder flag keeps dispatch at-most-once
  per appointment.

DESIGN:
  - Background goroutine with a configurable scan interval
  - Skips cancelled appointments and appointments already reminded
  - Marks the reminder sent only after a successful dispatch

SEE ALSO:
  - schedule/store.go: MarkReminderSent contract
*/
package booking

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/warp/booking-engine/schedule"
)

// Notifier delivers a reminder for one appointment. Implementations are
// external (email, chat); best-effort semantics are acceptable.
type Notifier interface {
	SendReminder(ctx context.Context, appt schedule.Appointment) error
}

// ReminderScanner dispatches reminders for upcoming appointments.
type ReminderScanner struct {
	Service      *Service
	Notifier     Notifier
	Log          *zap.Logger
	LeadTime     time.Duration // how far ahead to remind (default 24h)
	ScanInterval time.Duration // how often to scan (default 15m)

	ticker *time.Ticker
	stop   chan struct{}
	wg     sync.WaitGroup
	mu     sync.Mutex
}

// NewReminderScanner creates a scanner with default windows.
func NewReminderScanner(svc *Service, notifier Notifier, log *zap.Logger) *ReminderScanner {
	return &ReminderScanner{
		Service:      svc,
		Notifier:     notifier,
		Log:          log,
		LeadTime:     24 * time.Hour,
		ScanInterval: 15 * time.Minute,
		stop:         make(chan struct{}),
	}
}

// Start begins scanning in the background.
func (rs *ReminderScanner) Start() {
	rs.mu.Lock()
	defer rs.mu.Unlock()

	rs.ticker = time.NewTicker(rs.ScanInterval)
	rs.wg.Add(1)
	go rs.run()
	rs.Log.Info("reminder scanner started", zap.Duration("interval", rs.ScanInterval))
}

// Stop halts scanning and waits for the current pass to finish.
func (rs *ReminderScanner) Stop() {
	rs.mu.Lock()
	defer rs.mu.Unlock()

	if rs.ticker != nil {
		rs.ticker.Stop()
		close(rs.stop)
		rs.wg.Wait()
		rs.Log.Info("reminder scanner stopped")
	}
}

func (rs *ReminderScanner) run() {
	defer rs.wg.Done()

	rs.ScanOnce(context.Background())
	for {
		select {
		case <-rs.ticker.C:
			rs.ScanOnce(context.Background())
		case <-rs.stop:
			return
		}
	}
}

// ScanOnce performs a single reminder pass. Exported for tests and for
// one-shot invocation from jobs.
func (rs *ReminderScanner) ScanOnce(ctx context.Context) {
	now := rs.Service.Clock.Now()
	today := schedule.DateOf(now)
	horizon := schedule.DateOf(now.Add(rs.LeadTime))

	appts, err := rs.Service.Appointments.ListByDateRange(ctx, today, horizon)
	if err != nil {
		rs.Log.Warn("reminder scan failed", zap.Error(err))
		return
	}

	for _, a := range appts {
		if !a.Live() || a.ReminderSentAt != nil {
			continue
		}
		start := a.StartsAt()
		if start.Before(now) || start.Sub(now) > rs.LeadTime {
			continue
		}
		if err := rs.Notifier.SendReminder(ctx, a); err != nil {
			// Best-effort: leave the flag unset so a later pass retries.
			rs.Log.Warn("reminder dispatch failed",
				zap.String("appointment_id", string(a.ID)), zap.Error(err))
			continue
		}
		if err := rs.Service.Appointments.MarkReminderSent(ctx, a.ID, now); err != nil {
			rs.Log.Warn("reminder flag update failed",
				zap.String("appointment_id", string(a.ID)), zap.Error(err))
		}
	}
}
