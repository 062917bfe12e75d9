/*
Package pricing computes payable totals under layered discounts.

PURPOSE:
  A single pure function over a small input record: unit price, session
  count, and discount flags. Two independent discount sources - a bulk
  discount for multi-session purchases and a special-category discount -
  accumulate additively, then the sum is clamped to a hard cap. They are
  NOT applied multiplicatively or sequentially.

ROUNDING:
  Totals are rounded half-up to the smallest currency unit
  (decimal.Round with half away from zero; prices are non-negative, so the
  two rules coincide). One rule, applied consistently.

PURITY:
  ComputeTotal has no side effects and is idempotent: identical input yields
  identical output. All arithmetic uses decimal.Decimal - no floats in the
  money path.

SEE ALSO:
  - policies.go: preset discount policies
*/
package pricing

import (
	"github.com/shopspring/decimal"

	"github.com/warp/booking-engine/schedule"
)

// =============================================================================
// INPUT / OUTPUT
// =============================================================================

// Policy holds the discount constants. Explicit configuration, not globals.
type Policy struct {
	// BulkThreshold is the lowest session count that earns the bulk
	// discount. The default policies use 2: any multi-session purchase.
	BulkThreshold int

	// BulkPercent and CategoryPercent are the two discount sources.
	BulkPercent     decimal.Decimal
	CategoryPercent decimal.Decimal

	// MaxCombinedPercent caps the summed discount percent.
	MaxCombinedPercent decimal.Decimal
}

// Input is the ephemeral value object for one pricing call.
type Input struct {
	// UnitPrice is the per-session price in the smallest currency unit.
	UnitPrice decimal.Decimal

	// SessionCount is the number of sessions purchased (>= 1).
	SessionCount int

	// SpecialCategory selects the special-category discount.
	SpecialCategory bool

	Policy Policy
}

// Quote is the pricing outcome.
type Quote struct {
	UnitDiscountPercent decimal.Decimal
	TotalBeforeDiscount decimal.Decimal
	TotalAfterDiscount  decimal.Decimal
}

// =============================================================================
// ENGINE
// =============================================================================

var hundred = decimal.NewFromInt(100)

// ComputeTotal prices one purchase.
//
//	totalBefore = unitPrice * sessionCount
//	percent     = min(bulk + category, maxCombined)
//	totalAfter  = round(totalBefore * (1 - percent/100))
func ComputeTotal(in Input) (Quote, error) {
	if in.SessionCount < 1 {
		return Quote{}, &schedule.ValidationError{Field: "session_count", Message: "must be at least 1"}
	}
	if in.UnitPrice.IsNegative() {
		return Quote{}, &schedule.ValidationError{Field: "unit_price", Message: "must not be negative"}
	}

	percent := decimal.Zero
	threshold := in.Policy.BulkThreshold
	if threshold < 2 {
		threshold = 2
	}
	if in.SessionCount >= threshold {
		percent = percent.Add(in.Policy.BulkPercent)
	}
	if in.SpecialCategory {
		percent = percent.Add(in.Policy.CategoryPercent)
	}
	if percent.GreaterThan(in.Policy.MaxCombinedPercent) {
		percent = in.Policy.MaxCombinedPercent
	}

	before := in.UnitPrice.Mul(decimal.NewFromInt(int64(in.SessionCount)))
	after := before.Mul(hundred.Sub(percent)).Div(hundred).Round(0)

	return Quote{
		UnitDiscountPercent: percent,
		TotalBeforeDiscount: before,
		TotalAfterDiscount:  after,
	}, nil
}
