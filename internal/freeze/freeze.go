// Package freeze implements the freeze-day ledger: marking calendar days
// within a phase as skipped and relocating their content to make-up days
// appended past the phase's end, without changing the phase's original
// duration.
package freeze

import (
	"time"

	"github.com/nutrisched/nutrisched/internal/dates"
	"github.com/nutrisched/nutrisched/internal/types"
)

// SharedCount returns the total number of freeze entries across every phase
// in the chain that draws quota from the given purchase, directly or via a
// parent-purchase link. When phases share one purchase, the freeze quota is
// a single pool across the whole chain.
func SharedCount(chain []*types.Phase, purchaseID string) int {
	total := 0
	for _, p := range chain {
		if p.SharesQuotaWith(purchaseID) {
			total += p.TotalFreezeCount()
		}
	}
	return total
}

// Remaining returns the unconsumed freeze-day quota for the purchase,
// counted across the whole chain, floored at zero. The allowed cap comes
// from the purchase's pricing tier.
func Remaining(purchase *types.Purchase, chain []*types.Phase) int {
	r := purchase.AllowedFreezeDays - SharedCount(chain, purchase.ID)
	if r < 0 {
		return 0
	}
	return r
}

// Freeze records freeze entries for the given dates on the phase and
// extends its end date by one day per entry. Appended make-up dates are
// assigned sequentially starting at endDate+1 in the order the input dates
// were given, not sorted. Validation is all-or-nothing: no entry is written
// unless every requested date is valid and within quota.
//
// Each date must lie within [StartDate, EndDate], must not be before today,
// and must not already be frozen. Quota is checked against remaining, which
// callers compute across the phase's purchase chain; date validity and
// appended-date placement are scoped to this phase alone.
func Freeze(phase *types.Phase, dts []dates.Date, today dates.Date, remaining int) ([]types.FreezeEntry, error) {
	if len(dts) > remaining {
		return nil, &types.QuotaExceededError{
			RequestedDays: len(dts),
			RemainingDays: remaining,
		}
	}

	requested := make(map[dates.Date]bool, len(dts))
	for _, d := range dts {
		if d.Before(phase.StartDate) || d.After(phase.EndDate) {
			return nil, &types.InvalidDateError{Date: d, Reason: "outside the phase date range"}
		}
		if d.Before(today) {
			return nil, &types.InvalidDateError{Date: d, Reason: "in the past"}
		}
		if phase.IsFrozen(d) || requested[d] {
			return nil, &types.InvalidDateError{Date: d, Reason: "already frozen"}
		}
		requested[d] = true
	}

	now := time.Now()
	appended := make([]types.FreezeEntry, 0, len(dts))
	next := phase.EndDate.AddDays(1)
	for _, d := range dts {
		entry := types.FreezeEntry{
			FrozenDate:   d,
			AppendedDate: next,
			CreatedAt:    now,
		}
		appended = append(appended, entry)
		next = next.AddDays(1)
	}

	phase.FreezeEntries = append(phase.FreezeEntries, appended...)
	phase.EndDate = phase.EndDate.AddDays(len(dts))
	return appended, nil
}

// Unfreeze removes the freeze entries for the given dates and pulls the
// phase's end date back by one day per removed entry. All-or-nothing:
// nothing is removed unless every requested date has an entry.
//
// Surviving entries are re-assigned make-up dates packed onto the phase's
// new tail, preserving their order, so no entry points past the shortened
// end date.
func Unfreeze(phase *types.Phase, dts []dates.Date) error {
	requested := make(map[dates.Date]int, len(dts))
	for _, d := range dts {
		if !phase.IsFrozen(d) || requested[d] > 0 {
			return &types.NotFrozenError{Date: d}
		}
		requested[d]++
	}

	kept := phase.FreezeEntries[:0]
	for _, e := range phase.FreezeEntries {
		if requested[e.FrozenDate] == 0 {
			kept = append(kept, e)
		}
	}
	phase.FreezeEntries = kept
	phase.EndDate = phase.EndDate.AddDays(-len(dts))

	for i := range kept {
		kept[i].AppendedDate = phase.EndDate.AddDays(i - len(kept) + 1)
	}
	return nil
}
