// Package store provides in-memory implementations of the schedule store
// interfaces, for tests and development.
package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/warp/booking-engine/schedule"
)

// =============================================================================
// MEMORY APPOINTMENT STORE - In-memory implementation (for testing/dev)
// =============================================================================

// Memory implements schedule.AppointmentStore. The slot-uniqueness invariant
// is enforced under one mutex, which is the in-memory analogue of the
// production store's partial unique index.
type Memory struct {
	mu           sync.RWMutex
	appointments map[schedule.AppointmentID]schedule.Appointment
}

func NewMemory() *Memory {
	return &Memory{appointments: make(map[schedule.AppointmentID]schedule.Appointment)}
}

// slotHeldLocked reports whether a live appointment other than exclude holds
// (date, time).
func (m *Memory) slotHeldLocked(date schedule.Date, t schedule.SlotTime, exclude schedule.AppointmentID) bool {
	for _, a := range m.appointments {
		if a.ID != exclude && a.Live() && a.Date.Equal(date) && a.Time == t {
			return true
		}
	}
	return false
}

func (m *Memory) Get(_ context.Context, id schedule.AppointmentID) (*schedule.Appointment, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	a, ok := m.appointments[id]
	if !ok {
		return nil, schedule.ErrNotFound
	}
	return &a, nil
}

func (m *Memory) ListByDate(ctx context.Context, date schedule.Date) ([]schedule.Appointment, error) {
	return m.ListByDateRange(ctx, date, date)
}

func (m *Memory) ListByDateRange(_ context.Context, from, to schedule.Date) ([]schedule.Appointment, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var result []schedule.Appointment
	for _, a := range m.appointments {
		if a.Date.AfterOrEqual(from) && a.Date.BeforeOrEqual(to) {
			result = append(result, a)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		if !result[i].Date.Equal(result[j].Date) {
			return result[i].Date.Before(result[j].Date)
		}
		return result[i].Time < result[j].Time
	})
	return result, nil
}

func (m *Memory) Create(_ context.Context, appt schedule.Appointment) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if appt.Live() && m.slotHeldLocked(appt.Date, appt.Time, appt.ID) {
		return &schedule.SlotConflictError{Date: appt.Date, Time: appt.Time}
	}
	m.appointments[appt.ID] = appt
	return nil
}

func (m *Memory) Move(_ context.Context, id schedule.AppointmentID, newDate schedule.Date, newTime schedule.SlotTime) (*schedule.Appointment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	a, ok := m.appointments[id]
	if !ok {
		return nil, schedule.ErrNotFound
	}
	// Re-check under the lock: the slot may have been claimed since listing.
	if m.slotHeldLocked(newDate, newTime, id) {
		return nil, &schedule.SlotConflictError{Date: newDate, Time: newTime}
	}
	a.Date = newDate
	a.Time = newTime
	m.appointments[id] = a
	return &a, nil
}

func (m *Memory) SetStatus(_ context.Context, id schedule.AppointmentID, expect, next schedule.AppointmentStatus, at time.Time) (*schedule.Appointment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	a, ok := m.appointments[id]
	if !ok {
		return nil, schedule.ErrNotFound
	}
	if a.Status != expect {
		return nil, schedule.ErrStatusConflict
	}
	a.Status = next
	if next == schedule.StatusCancelled {
		cancelled := at
		a.CancelledAt = &cancelled
	}
	m.appointments[id] = a
	return &a, nil
}

func (m *Memory) MarkReminderSent(_ context.Context, id schedule.AppointmentID, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	a, ok := m.appointments[id]
	if !ok {
		return schedule.ErrNotFound
	}
	sent := at
	a.ReminderSentAt = &sent
	m.appointments[id] = a
	return nil
}

// =============================================================================
// MEMORY BLOCKED-SLOT STORE
// =============================================================================

// MemoryBlocks implements schedule.BlockedSlotStore.
type MemoryBlocks struct {
	mu     sync.RWMutex
	blocks map[schedule.BlockedSlotID]schedule.BlockedSlot
}

func NewMemoryBlocks() *MemoryBlocks {
	return &MemoryBlocks{blocks: make(map[schedule.BlockedSlotID]schedule.BlockedSlot)}
}

func (m *MemoryBlocks) ListByDate(ctx context.Context, date schedule.Date) ([]schedule.BlockedSlot, error) {
	return m.ListByDateRange(ctx, date, date)
}

func (m *MemoryBlocks) ListByDateRange(_ context.Context, from, to schedule.Date) ([]schedule.BlockedSlot, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var result []schedule.BlockedSlot
	for _, b := range m.blocks {
		if b.Date.AfterOrEqual(from) && b.Date.BeforeOrEqual(to) {
			result = append(result, b)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		if !result[i].Date.Equal(result[j].Date) {
			return result[i].Date.Before(result[j].Date)
		}
		return result[i].ID < result[j].ID
	})
	return result, nil
}

func (m *MemoryBlocks) Create(_ context.Context, block schedule.BlockedSlot) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.blocks[block.ID] = block
	return nil
}

func (m *MemoryBlocks) Delete(_ context.Context, id schedule.BlockedSlotID) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.blocks[id]; !ok {
		return schedule.ErrNotFound
	}
	delete(m.blocks, id)
	return nil
}
