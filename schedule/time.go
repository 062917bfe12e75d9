package schedule

import (
	"fmt"
	"time"
)

// =============================================================================
// DATE - Calendar day with no time-of-day component
// =============================================================================

// Date is a calendar day. The system operates in a single fixed local time
// frame, so dates are normalized to midnight UTC and all arithmetic is plain
// wall-clock arithmetic (no DST or zone conversion).
type Date struct {
	Time time.Time
}

const dateLayout = "2006-01-02"

// NewDate builds a Date from year/month/day.
func NewDate(year int, month time.Month, day int) Date {
	return Date{Time: time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

// ParseDate parses a YYYY-MM-DD string.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return Date{}, &ValidationError{Field: "date", Message: fmt.Sprintf("invalid date %q (use YYYY-MM-DD)", s)}
	}
	return Date{Time: t.UTC()}, nil
}

// DateOf truncates an instant to its calendar day.
func DateOf(t time.Time) Date {
	return NewDate(t.Year(), t.Month(), t.Day())
}

func (d Date) normalize() time.Time {
	return time.Date(d.Time.Year(), d.Time.Month(), d.Time.Day(), 0, 0, 0, 0, time.UTC)
}

// Comparison
func (d Date) Before(other Date) bool        { return d.normalize().Before(other.normalize()) }
func (d Date) Equal(other Date) bool         { return d.normalize().Equal(other.normalize()) }
func (d Date) After(other Date) bool         { return d.normalize().After(other.normalize()) }
func (d Date) BeforeOrEqual(other Date) bool { return d.Before(other) || d.Equal(other) }
func (d Date) AfterOrEqual(other Date) bool  { return d.After(other) || d.Equal(other) }

// Arithmetic
func (d Date) AddDays(n int) Date { return Date{Time: d.normalize().AddDate(0, 0, n)} }

// DaysUntil returns the number of whole days from d to other (negative if
// other is earlier).
func (d Date) DaysUntil(other Date) int {
	return int(other.normalize().Sub(d.normalize()).Hours() / 24)
}

func (d Date) IsZero() bool   { return d.Time.IsZero() }
func (d Date) String() string { return d.normalize().Format(dateLayout) }

// =============================================================================
// SLOT TIME - Slot start quantized to the grid
// =============================================================================

// SlotTime is a slot start time expressed as minutes from midnight.
// The wire format is "HH:MM" 24-hour.
type SlotTime int

const slotTimeLayout = "15:04"

// NewSlotTime builds a SlotTime from an hour and minute.
func NewSlotTime(hour, minute int) SlotTime {
	return SlotTime(hour*60 + minute)
}

// ParseSlotTime parses an HH:MM string.
func ParseSlotTime(s string) (SlotTime, error) {
	t, err := time.Parse(slotTimeLayout, s)
	if err != nil {
		return 0, &ValidationError{Field: "time", Message: fmt.Sprintf("invalid time %q (use HH:MM)", s)}
	}
	return NewSlotTime(t.Hour(), t.Minute()), nil
}

func (st SlotTime) Hour() int   { return int(st) / 60 }
func (st SlotTime) Minute() int { return int(st) % 60 }

// Add advances the slot time by a duration (used to walk the grid).
func (st SlotTime) Add(d time.Duration) SlotTime { return st + SlotTime(d.Minutes()) }

func (st SlotTime) String() string {
	return fmt.Sprintf("%02d:%02d", st.Hour(), st.Minute())
}

// StartsAt combines a date and a slot time into the slot's start instant.
func StartsAt(d Date, st SlotTime) time.Time {
	return d.normalize().Add(time.Duration(st) * time.Minute)
}

// =============================================================================
// CLOCK - Injected time source
// =============================================================================

// Clock supplies the current instant. It is injected rather than read
// globally so horizon, cutoff, and past-slot logic stay deterministic in
// tests. The pure functions in this package take `now` as a parameter
// instead; Clock exists for the service layer that wraps them.
type Clock interface {
	Now() time.Time
}

// SystemClock reads the wall clock.
type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now().UTC() }

// ClockFunc adapts a function to the Clock interface.
type ClockFunc func() time.Time

func (f ClockFunc) Now() time.Time { return f() }
