/*
policies.go - Pre-built business policy configurations

PURPOSE:
  Ready-to-use policies bundling the slot grid, reschedule windows, and
  discount constants. These are starting points; deployments tune hours,
  horizon, and cutoffs per business.

POLICY COMPONENTS:
  Grid:          bookable times per day + booking horizon
  Cutoff:        minimum lead time for a reschedule to remain allowed
  WarningWindow: lead time under which an allowed move carries a
                 short-notice warning
  Pricing:       discount constants for the pricing engine

SEE ALSO:
  - schedule/grid.go: grid semantics
  - pricing/policies.go: discount presets
*/
package booking

import (
	"time"

	"github.com/warp/booking-engine/pricing"
	"github.com/warp/booking-engine/schedule"
)

// =============================================================================
// BUSINESS POLICY
// =============================================================================

// Policy is the explicit configuration for one provider's calendar.
type Policy struct {
	Grid          schedule.Grid
	Cutoff        time.Duration
	WarningWindow time.Duration
	Pricing       pricing.Policy
}

// StandardPolicy is the default single-provider setup: hourly slots
// 09:00-17:00, a 30-day booking horizon, a 24-hour reschedule cutoff with a
// 48-hour short-notice warning, and the standard layered discounts.
func StandardPolicy() Policy {
	return Policy{
		Grid: schedule.Grid{
			Open:        schedule.NewSlotTime(9, 0),
			Close:       schedule.NewSlotTime(17, 0),
			Step:        time.Hour,
			HorizonDays: 30,
		},
		Cutoff:        24 * time.Hour,
		WarningWindow: 48 * time.Hour,
		Pricing:       pricing.StandardPolicy(),
	}
}

// HalfDayPolicy is a shorter-hours variant useful for demos and tests:
// 30-minute slots 09:00-12:00 and a one-week horizon.
func HalfDayPolicy() Policy {
	return Policy{
		Grid: schedule.Grid{
			Open:        schedule.NewSlotTime(9, 0),
			Close:       schedule.NewSlotTime(12, 0),
			Step:        30 * time.Minute,
			HorizonDays: 7,
		},
		Cutoff:        24 * time.Hour,
		WarningWindow: 48 * time.Hour,
		Pricing:       pricing.StandardPolicy(),
	}
}
