/*
Package sqlite provides SQLite-backed implementations of the storage
interfaces.

PURPOSE:
  Implements schedule.AppointmentStore and schedule.BlockedSlotStore using
  SQLite. In production the same patterns apply to PostgreSQL - only minor
  SQL dialect differences.

ENFORCEMENT POINT:
  The core uniqueness invariant - at most one non-cancelled appointment per
  (date, time) - is enforced here, by a partial unique index:

    CREATE UNIQUE INDEX idx_appointments_live_slot
      ON appointments(date, time) WHERE status != 'cancelled'

  Create and Move are conditional writes against that index; a violation is
  mapped to schedule.ErrSlotConflict. This is the compare-and-swap the pure
  scheduling logic relies on (check-then-act races cannot be closed in pure
  logic alone).

STATUS TRANSITIONS:
  SetStatus is an optimistic update: UPDATE ... WHERE id = ? AND status = ?.
  Zero rows affected means the expected status no longer holds and the
  caller lost a race (schedule.ErrStatusConflict).

WAL MODE:
  SQLite is opened with WAL (Write-Ahead Logging): readers don't block, a
  single writer at a time, better crash recovery.

USAGE:
  store, err := sqlite.New("./data/booking.db")
  if err != nil {
      log.Fatal(err)
  }
  defer store.Close()

MIGRATION:
  Schema is auto-migrated on New(). For production, use a proper migration
  tool (golang-migrate, goose) with versioned migrations.

SEE ALSO:
  - schedule/store.go: interface definitions
  - schedule/store/memory.go: in-memory implementation for testing
*/
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"

	"github.com/warp/booking-engine/schedule"
)

// Store implements the schedule storage interfaces using SQLite.
type Store struct {
	db *sql.DB
}

// New creates a new SQLite store with the given database path.
// Use ":memory:" for an in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return store, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// migrate creates the database schema.
func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS appointments (
		id TEXT PRIMARY KEY,
		date TEXT NOT NULL,
		time TEXT NOT NULL,
		status TEXT NOT NULL,
		client_ref TEXT NOT NULL,
		product_ref TEXT,
		amount TEXT NOT NULL,
		created_at TEXT NOT NULL,
		cancelled_at TEXT,
		reminder_sent_at TEXT
	);

	-- CRITICAL: at most one non-cancelled appointment per (date, time).
	-- This partial unique index is the authoritative exclusivity guarantee
	-- the scheduling core's check-then-act flow relies on.
	CREATE UNIQUE INDEX IF NOT EXISTS idx_appointments_live_slot
		ON appointments(date, time) WHERE status != 'cancelled';

	CREATE INDEX IF NOT EXISTS idx_appointments_date
		ON appointments(date);
	CREATE INDEX IF NOT EXISTS idx_appointments_status
		ON appointments(status);
	CREATE INDEX IF NOT EXISTS idx_appointments_client
		ON appointments(client_ref);

	CREATE TABLE IF NOT EXISTS blocked_slots (
		id TEXT PRIMARY KEY,
		date TEXT NOT NULL,
		time TEXT,
		reason TEXT,
		created_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_blocked_slots_date
		ON blocked_slots(date);
	`

	_, err := s.db.Exec(schema)
	return err
}

// =============================================================================
// APPOINTMENT STORE (schedule.AppointmentStore interface)
// =============================================================================

const appointmentColumns = `id, date, time, status, client_ref, product_ref,
	amount, created_at, cancelled_at, reminder_sent_at`

// Get returns one appointment.
func (s *Store) Get(ctx context.Context, id schedule.AppointmentID) (*schedule.Appointment, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+appointmentColumns+` FROM appointments WHERE id = ?`, id)

	appt, err := scanAppointment(row)
	if err == sql.ErrNoRows {
		return nil, schedule.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return appt, nil
}

// ListByDate returns all appointments on a date, ordered by time.
func (s *Store) ListByDate(ctx context.Context, date schedule.Date) ([]schedule.Appointment, error) {
	return s.ListByDateRange(ctx, date, date)
}

// ListByDateRange returns appointments with date in [from, to].
func (s *Store) ListByDateRange(ctx context.Context, from, to schedule.Date) ([]schedule.Appointment, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+appointmentColumns+`
		 FROM appointments
		 WHERE date >= ? AND date <= ?
		 ORDER BY date ASC, time ASC`,
		from.String(), to.String())
	if err != nil {
		return nil, fmt.Errorf("failed to query appointments: %w", err)
	}
	defer rows.Close()

	var appts []schedule.Appointment
	for rows.Next() {
		appt, err := scanAppointment(rows)
		if err != nil {
			return nil, err
		}
		appts = append(appts, *appt)
	}
	return appts, rows.Err()
}

// Create inserts a new appointment. The partial unique index rejects a
// second live appointment on the same slot.
func (s *Store) Create(ctx context.Context, appt schedule.Appointment) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO appointments
		(id, date, time, status, client_ref, product_ref, amount, created_at, cancelled_at, reminder_sent_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		appt.ID,
		appt.Date.String(),
		appt.Time.String(),
		appt.Status,
		appt.ClientRef,
		nullString(string(appt.ProductRef)),
		appt.Amount.String(),
		appt.CreatedAt.UTC().Format(time.RFC3339),
		nullTime(appt.CancelledAt),
		nullTime(appt.ReminderSentAt),
	)
	if err != nil {
		if isLiveSlotConflict(err) {
			return &schedule.SlotConflictError{Date: appt.Date, Time: appt.Time}
		}
		return fmt.Errorf("failed to create appointment: %w", err)
	}
	return nil
}

// Move atomically updates (date, time). The partial unique index performs
// the re-check: if a live appointment holds the target slot, the UPDATE
// fails and no partial state is left behind.
func (s *Store) Move(ctx context.Context, id schedule.AppointmentID, newDate schedule.Date, newTime schedule.SlotTime) (*schedule.Appointment, error) {
	res, err := s.db.ExecContext(ctx,
		`UPDATE appointments SET date = ?, time = ? WHERE id = ?`,
		newDate.String(), newTime.String(), id)
	if err != nil {
		if isLiveSlotConflict(err) {
			return nil, &schedule.SlotConflictError{Date: newDate, Time: newTime}
		}
		return nil, fmt.Errorf("failed to move appointment: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return nil, schedule.ErrNotFound
	}
	return s.Get(ctx, id)
}

// SetStatus performs an optimistic status transition.
func (s *Store) SetStatus(ctx context.Context, id schedule.AppointmentID, expect, next schedule.AppointmentStatus, at time.Time) (*schedule.Appointment, error) {
	var cancelledAt any
	if next == schedule.StatusCancelled {
		cancelledAt = at.UTC().Format(time.RFC3339)
	}

	res, err := s.db.ExecContext(ctx,
		`UPDATE appointments
		 SET status = ?, cancelled_at = COALESCE(?, cancelled_at)
		 WHERE id = ? AND status = ?`,
		next, cancelledAt, id, expect)
	if err != nil {
		return nil, fmt.Errorf("failed to update status: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		// Distinguish missing from raced.
		if _, getErr := s.Get(ctx, id); getErr != nil {
			return nil, getErr
		}
		return nil, schedule.ErrStatusConflict
	}
	return s.Get(ctx, id)
}

// MarkReminderSent stamps the reminder flag.
func (s *Store) MarkReminderSent(ctx context.Context, id schedule.AppointmentID, at time.Time) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE appointments SET reminder_sent_at = ? WHERE id = ?`,
		at.UTC().Format(time.RFC3339), id)
	if err != nil {
		return fmt.Errorf("failed to mark reminder: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return schedule.ErrNotFound
	}
	return nil
}

// =============================================================================
// BLOCKED-SLOT STORE (schedule.BlockedSlotStore interface)
// =============================================================================

// Blocks returns the blocked-slot store view. Both views share the same
// underlying database handle.
func (s *Store) Blocks() *BlockStore { return &BlockStore{db: s.db} }

// BlockStore implements schedule.BlockedSlotStore.
type BlockStore struct {
	db *sql.DB
}

// ListByDate returns blocks for one date.
func (b *BlockStore) ListByDate(ctx context.Context, date schedule.Date) ([]schedule.BlockedSlot, error) {
	return b.ListByDateRange(ctx, date, date)
}

// ListByDateRange returns blocks with date in [from, to].
func (b *BlockStore) ListByDateRange(ctx context.Context, from, to schedule.Date) ([]schedule.BlockedSlot, error) {
	rows, err := b.db.QueryContext(ctx,
		`SELECT id, date, time, reason, created_at
		 FROM blocked_slots
		 WHERE date >= ? AND date <= ?
		 ORDER BY date ASC, time ASC`,
		from.String(), to.String())
	if err != nil {
		return nil, fmt.Errorf("failed to query blocked slots: %w", err)
	}
	defer rows.Close()

	var blocks []schedule.BlockedSlot
	for rows.Next() {
		var (
			block     schedule.BlockedSlot
			dateStr   string
			timeStr   sql.NullString
			reason    sql.NullString
			createdAt string
		)
		if err := rows.Scan(&block.ID, &dateStr, &timeStr, &reason, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan blocked slot: %w", err)
		}
		date, err := schedule.ParseDate(dateStr)
		if err != nil {
			return nil, err
		}
		block.Date = date
		if timeStr.Valid {
			t, err := schedule.ParseSlotTime(timeStr.String)
			if err != nil {
				return nil, err
			}
			block.Time = &t
		}
		block.Reason = reason.String
		block.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
		blocks = append(blocks, block)
	}
	return blocks, rows.Err()
}

// Create inserts a block.
func (b *BlockStore) Create(ctx context.Context, block schedule.BlockedSlot) error {
	var timeStr any
	if block.Time != nil {
		timeStr = block.Time.String()
	}
	_, err := b.db.ExecContext(ctx,
		`INSERT INTO blocked_slots (id, date, time, reason, created_at)
		 VALUES (?, ?, ?, ?, ?)`,
		block.ID, block.Date.String(), timeStr,
		nullString(block.Reason),
		block.CreatedAt.UTC().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("failed to create blocked slot: %w", err)
	}
	return nil
}

// Delete removes a block.
func (b *BlockStore) Delete(ctx context.Context, id schedule.BlockedSlotID) error {
	res, err := b.db.ExecContext(ctx, `DELETE FROM blocked_slots WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete blocked slot: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return schedule.ErrNotFound
	}
	return nil
}

// =============================================================================
// SCAN HELPERS
// =============================================================================

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAppointment(row rowScanner) (*schedule.Appointment, error) {
	var (
		appt           schedule.Appointment
		dateStr        string
		timeStr        string
		productRef     sql.NullString
		amountStr      string
		createdAt      string
		cancelledAt    sql.NullString
		reminderSentAt sql.NullString
	)

	err := row.Scan(
		&appt.ID, &dateStr, &timeStr, &appt.Status, &appt.ClientRef,
		&productRef, &amountStr, &createdAt, &cancelledAt, &reminderSentAt,
	)
	if err == sql.ErrNoRows {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan appointment: %w", err)
	}

	if appt.Date, err = schedule.ParseDate(dateStr); err != nil {
		return nil, err
	}
	if appt.Time, err = schedule.ParseSlotTime(timeStr); err != nil {
		return nil, err
	}
	appt.ProductRef = schedule.ProductRef(productRef.String)
	appt.Amount, err = decimal.NewFromString(amountStr)
	if err != nil {
		return nil, fmt.Errorf("failed to parse amount: %w", err)
	}
	appt.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	if cancelledAt.Valid {
		t, _ := time.Parse(time.RFC3339, cancelledAt.String)
		appt.CancelledAt = &t
	}
	if reminderSentAt.Valid {
		t, _ := time.Parse(time.RFC3339, reminderSentAt.String)
		appt.ReminderSentAt = &t
	}
	return &appt, nil
}

// Helper functions

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

func nullTime(t *time.Time) sql.NullString {
	if t == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: t.UTC().Format(time.RFC3339), Valid: true}
}

func isLiveSlotConflict(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed: appointments.date, appointments.time")
}
