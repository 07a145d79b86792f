// Package allowance tracks a purchase's day balance: total purchased days,
// days consumed by created phases, and whether a new phase of N days fits.
package allowance

import (
	"github.com/nutrisched/nutrisched/internal/types"
)

// Remaining returns the purchase's unconsumed day balance, floored at zero.
func Remaining(p *types.Purchase) int {
	r := p.TotalPurchasedDays - p.DaysUsed
	if r < 0 {
		return 0
	}
	return r
}

// CanAfford reports whether a new phase of requestedDays can draw from the
// purchase. Only active purchases can fund phases.
func CanAfford(p *types.Purchase, requestedDays int) bool {
	if p.Status != types.PurchaseStatusActive {
		return false
	}
	return Remaining(p) >= requestedDays
}

// Commit consumes days from the purchase's balance, incrementing DaysUsed.
// The balance is never decremented: deleting or cancelling a phase does not
// return its days to the pool. Persisting the updated purchase is the
// caller's responsibility.
func Commit(p *types.Purchase, days int) error {
	if days > Remaining(p) {
		return &types.AllowanceExceededError{
			PurchaseID:    p.ID,
			RequestedDays: days,
			RemainingDays: Remaining(p),
		}
	}
	p.DaysUsed += days
	return nil
}
