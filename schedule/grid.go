package schedule

import (
	"fmt"
	"time"
)

// =============================================================================
// GRID - The business's fixed slot grid and booking horizon
// =============================================================================

// Grid is the ordered set of bookable times per day plus the horizon length.
// All services share one slot length, so availability is exact equality on
// grid times - no overlap math. The grid is configuration: an explicit value
// passed into the resolver, never a module-level constant, so tests can
// exercise alternate grids without global state.
type Grid struct {
	// Open is the first bookable slot of the day, Close the last.
	// Both are inclusive: an hourly 09:00-17:00 grid has nine slots.
	Open  SlotTime
	Close SlotTime

	// Step is the fixed slot length.
	Step time.Duration

	// HorizonDays is the maximum number of days into the future a slot may
	// be requested, counted from "today". Today itself is day zero.
	HorizonDays int
}

// NewGrid builds and validates a grid.
func NewGrid(open, close SlotTime, step time.Duration, horizonDays int) (Grid, error) {
	g := Grid{Open: open, Close: close, Step: step, HorizonDays: horizonDays}
	if err := g.Validate(); err != nil {
		return Grid{}, err
	}
	return g, nil
}

// Validate checks the grid's internal consistency.
func (g Grid) Validate() error {
	if g.Step < time.Minute {
		return &ValidationError{Field: "grid.step", Message: "step must be at least one minute"}
	}
	if g.Close < g.Open {
		return &ValidationError{Field: "grid.close", Message: "close precedes open"}
	}
	if (g.Close-g.Open)%SlotTime(g.Step.Minutes()) != 0 {
		return &ValidationError{Field: "grid.close", Message: fmt.Sprintf("close %s is not on the %s grid from %s", g.Close, g.Step, g.Open)}
	}
	if g.HorizonDays < 0 {
		return &ValidationError{Field: "grid.horizon_days", Message: "horizon must not be negative"}
	}
	return nil
}

// Times returns the full grid for one day in chronological order.
func (g Grid) Times() []SlotTime {
	var times []SlotTime
	for t := g.Open; t <= g.Close; t = t.Add(g.Step) {
		times = append(times, t)
	}
	return times
}

// Contains reports whether t is a valid slot start on this grid.
func (g Grid) Contains(t SlotTime) bool {
	if t < g.Open || t > g.Close {
		return false
	}
	return (t-g.Open)%SlotTime(g.Step.Minutes()) == 0
}

// WithinHorizon reports whether date falls in [today, today+horizon].
func (g Grid) WithinHorizon(date, today Date) bool {
	return date.AfterOrEqual(today) && date.BeforeOrEqual(today.AddDays(g.HorizonDays))
}
