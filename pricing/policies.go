/*
policies.go - Pre-built discount policy configurations

PURPOSE:
  Ready-to-use discount policies for common setups. Starting points; real
  deployments tune the percentages and cap per business.
*/
package pricing

import "github.com/shopspring/decimal"

// =============================================================================
// COMMON DISCOUNT POLICIES
// =============================================================================

// StandardPolicy is the usual layered setup: 10% for multi-session
// purchases, 10% for the special category, capped at 20% combined.
func StandardPolicy() Policy {
	return Policy{
		BulkThreshold:      2,
		BulkPercent:        decimal.NewFromInt(10),
		CategoryPercent:    decimal.NewFromInt(10),
		MaxCombinedPercent: decimal.NewFromInt(20),
	}
}

// NoDiscountPolicy prices everything at list.
func NoDiscountPolicy() Policy {
	return Policy{
		BulkThreshold:      2,
		BulkPercent:        decimal.Zero,
		CategoryPercent:    decimal.Zero,
		MaxCombinedPercent: decimal.Zero,
	}
}
