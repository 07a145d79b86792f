package freeze

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nutrisched/nutrisched/internal/dates"
	"github.com/nutrisched/nutrisched/internal/types"
)

func phase(id, purchaseID, start, end string) *types.Phase {
	s := dates.MustParseISO(start)
	e := dates.MustParseISO(end)
	return &types.Phase{
		ID:                   id,
		PurchaseID:           purchaseID,
		ClientID:             "cl-1",
		StartDate:            s,
		EndDate:              e,
		OriginalDurationDays: s.DaysUntil(e) + 1,
		Status:               types.PhaseStatusActive,
	}
}

func day(s string) dates.Date { return dates.MustParseISO(s) }

func TestFreezeSingleDay(t *testing.T) {
	// Spec scenario: start Jan 1, end Jan 10, freeze Jan 5
	p := phase("ph-1", "pu-1", "2024-01-01", "2024-01-10")
	today := day("2024-01-01")

	entries, err := Freeze(p, []dates.Date{day("2024-01-05")}, today, 5)
	require.NoError(t, err)
	require.Len(t, entries, 1)

	assert.Equal(t, "2024-01-05", entries[0].FrozenDate.String())
	assert.Equal(t, "2024-01-11", entries[0].AppendedDate.String())
	assert.Equal(t, "2024-01-11", p.EndDate.String())
	assert.Equal(t, 10, p.OriginalDurationDays)
	require.NoError(t, p.CheckSpan())
}

func TestFreezeAppendsInInputOrder(t *testing.T) {
	p := phase("ph-1", "pu-1", "2024-01-01", "2024-01-10")
	today := day("2024-01-01")

	// Deliberately unsorted: appended dates must follow input order
	entries, err := Freeze(p, []dates.Date{day("2024-01-08"), day("2024-01-03"), day("2024-01-06")}, today, 5)
	require.NoError(t, err)
	require.Len(t, entries, 3)

	assert.Equal(t, "2024-01-08", entries[0].FrozenDate.String())
	assert.Equal(t, "2024-01-11", entries[0].AppendedDate.String())
	assert.Equal(t, "2024-01-03", entries[1].FrozenDate.String())
	assert.Equal(t, "2024-01-12", entries[1].AppendedDate.String())
	assert.Equal(t, "2024-01-06", entries[2].FrozenDate.String())
	assert.Equal(t, "2024-01-13", entries[2].AppendedDate.String())

	assert.Equal(t, "2024-01-13", p.EndDate.String())
	require.NoError(t, p.CheckSpan())
}

func TestFreezeValidation(t *testing.T) {
	today := day("2024-01-04")

	tests := []struct {
		name   string
		dts    []dates.Date
		reason string
	}{
		{"before phase start", []dates.Date{day("2023-12-31")}, "outside the phase date range"},
		{"after phase end", []dates.Date{day("2024-01-11")}, "outside the phase date range"},
		{"in the past", []dates.Date{day("2024-01-03")}, "in the past"},
		{"duplicate in request", []dates.Date{day("2024-01-05"), day("2024-01-05")}, "already frozen"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := phase("ph-1", "pu-1", "2024-01-01", "2024-01-10")
			_, err := Freeze(p, tt.dts, today, 5)
			require.Error(t, err)

			var invalidErr *types.InvalidDateError
			require.ErrorAs(t, err, &invalidErr)
			assert.Equal(t, tt.reason, invalidErr.Reason)

			// Failed freeze must leave the phase untouched
			assert.Equal(t, "2024-01-10", p.EndDate.String())
			assert.Empty(t, p.FreezeEntries)
		})
	}
}

func TestFreezeAlreadyFrozen(t *testing.T) {
	p := phase("ph-1", "pu-1", "2024-01-01", "2024-01-10")
	today := day("2024-01-01")

	_, err := Freeze(p, []dates.Date{day("2024-01-05")}, today, 5)
	require.NoError(t, err)

	_, err = Freeze(p, []dates.Date{day("2024-01-05")}, today, 5)
	require.Error(t, err)
	var invalidErr *types.InvalidDateError
	require.ErrorAs(t, err, &invalidErr)
	assert.Equal(t, "already frozen", invalidErr.Reason)
}

func TestFreezeQuotaExceeded(t *testing.T) {
	p := phase("ph-1", "pu-1", "2024-01-01", "2024-01-10")
	today := day("2024-01-01")

	_, err := Freeze(p, []dates.Date{day("2024-01-05"), day("2024-01-06")}, today, 1)
	require.Error(t, err)

	var quotaErr *types.QuotaExceededError
	require.ErrorAs(t, err, &quotaErr)
	assert.Equal(t, 2, quotaErr.RequestedDays)
	assert.Equal(t, 1, quotaErr.RemainingDays)
	assert.Empty(t, p.FreezeEntries)
}

func TestUnfreezeRoundTrip(t *testing.T) {
	// Spec round-trip law: unfreeze after freeze restores the original
	// end date and empties the ledger
	p := phase("ph-1", "pu-1", "2024-01-01", "2024-01-10")
	today := day("2024-01-01")

	_, err := Freeze(p, []dates.Date{day("2024-01-05"), day("2024-01-07")}, today, 5)
	require.NoError(t, err)
	assert.Equal(t, "2024-01-12", p.EndDate.String())

	require.NoError(t, Unfreeze(p, []dates.Date{day("2024-01-05"), day("2024-01-07")}))
	assert.Equal(t, "2024-01-10", p.EndDate.String())
	assert.Empty(t, p.FreezeEntries)
	require.NoError(t, p.CheckSpan())
}

func TestUnfreezePartial(t *testing.T) {
	p := phase("ph-1", "pu-1", "2024-01-01", "2024-01-10")
	today := day("2024-01-01")

	_, err := Freeze(p, []dates.Date{day("2024-01-05"), day("2024-01-07")}, today, 5)
	require.NoError(t, err)

	require.NoError(t, Unfreeze(p, []dates.Date{day("2024-01-05")}))
	assert.Equal(t, "2024-01-11", p.EndDate.String())
	require.Len(t, p.FreezeEntries, 1)
	assert.Equal(t, "2024-01-07", p.FreezeEntries[0].FrozenDate.String())
	// The surviving make-up day re-packs onto the new tail, never past
	// the shortened end date
	assert.Equal(t, "2024-01-11", p.FreezeEntries[0].AppendedDate.String())
	require.NoError(t, p.CheckSpan())
}

func TestUnfreezeRepacksSurvivingMakeupDays(t *testing.T) {
	p := phase("ph-1", "pu-1", "2024-01-01", "2024-01-10")
	today := day("2024-01-01")

	_, err := Freeze(p, []dates.Date{day("2024-01-03"), day("2024-01-05"), day("2024-01-07")}, today, 5)
	require.NoError(t, err)
	assert.Equal(t, "2024-01-13", p.EndDate.String())

	// Drop the middle entry: the survivors keep their order and occupy
	// the last two days of the phase
	require.NoError(t, Unfreeze(p, []dates.Date{day("2024-01-05")}))
	assert.Equal(t, "2024-01-12", p.EndDate.String())
	require.Len(t, p.FreezeEntries, 2)
	assert.Equal(t, "2024-01-03", p.FreezeEntries[0].FrozenDate.String())
	assert.Equal(t, "2024-01-11", p.FreezeEntries[0].AppendedDate.String())
	assert.Equal(t, "2024-01-07", p.FreezeEntries[1].FrozenDate.String())
	assert.Equal(t, "2024-01-12", p.FreezeEntries[1].AppendedDate.String())
	require.NoError(t, p.CheckSpan())
}

func TestUnfreezeNotFrozen(t *testing.T) {
	p := phase("ph-1", "pu-1", "2024-01-01", "2024-01-10")

	err := Unfreeze(p, []dates.Date{day("2024-01-05")})
	require.Error(t, err)

	var notFrozenErr *types.NotFrozenError
	require.ErrorAs(t, err, &notFrozenErr)
	assert.Equal(t, "2024-01-05", notFrozenErr.Date.String())
	assert.Equal(t, "2024-01-10", p.EndDate.String())
}

func TestSharedQuotaAcrossChain(t *testing.T) {
	// Two phases funded by the same purchase share one freeze pool, but
	// each phase's freeze dates are scoped to its own calendar
	purchase := &types.Purchase{
		ID:                 "pu-1",
		ClientID:           "cl-1",
		TotalPurchasedDays: 30,
		AllowedFreezeDays:  3,
		Status:             types.PurchaseStatusActive,
	}
	a := phase("ph-a", "pu-1", "2024-01-01", "2024-01-10")
	b := phase("ph-b", "pu-2", "2024-01-11", "2024-01-20")
	b.ParentPurchaseID = "pu-1"
	chain := []*types.Phase{a, b}

	today := day("2024-01-01")
	assert.Equal(t, 3, Remaining(purchase, chain))

	_, err := Freeze(a, []dates.Date{day("2024-01-04"), day("2024-01-05")}, today, Remaining(purchase, chain))
	require.NoError(t, err)
	assert.Equal(t, 1, Remaining(purchase, chain))

	// Phase A's frozen dates never appear in phase B's ledger
	assert.False(t, b.IsFrozen(day("2024-01-04")))

	// Only one shared day left: freezing two in phase B must fail
	_, err = Freeze(b, []dates.Date{day("2024-01-12"), day("2024-01-13")}, today, Remaining(purchase, chain))
	var quotaErr *types.QuotaExceededError
	require.ErrorAs(t, err, &quotaErr)

	_, err = Freeze(b, []dates.Date{day("2024-01-12")}, today, Remaining(purchase, chain))
	require.NoError(t, err)
	assert.Equal(t, 0, Remaining(purchase, chain))

	// Phase B's appended date follows B's own end date, not A's
	assert.Equal(t, "2024-01-21", b.FreezeEntries[0].AppendedDate.String())
}
