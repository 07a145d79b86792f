package scheduler

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nutrisched/nutrisched/internal/chainview"
	"github.com/nutrisched/nutrisched/internal/dates"
	"github.com/nutrisched/nutrisched/internal/events"
	"github.com/nutrisched/nutrisched/internal/storage"
	"github.com/nutrisched/nutrisched/internal/types"
)

func day(s string) dates.Date { return dates.MustParseISO(s) }

// newTestScheduler pins today to 2024-01-01 over a fresh sqlite store.
func newTestScheduler(t *testing.T) (*Scheduler, storage.Storage) {
	t.Helper()
	store, err := storage.NewStorage(context.Background(), &storage.Config{
		Path: filepath.Join(t.TempDir(), "test.db"),
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	sched := New(store, WithToday(func() dates.Date { return day("2024-01-01") }))
	return sched, store
}

func createPurchase(t *testing.T, sched *Scheduler, total, freezeDays int) *types.Purchase {
	t.Helper()
	purchase, evs, err := sched.CreatePurchase(context.Background(), PurchaseRequest{
		ClientID:           "cl-1",
		TotalPurchasedDays: total,
		AllowedFreezeDays:  freezeDays,
	})
	require.NoError(t, err)
	require.Len(t, evs, 1)
	return purchase
}

func createPhase(t *testing.T, sched *Scheduler, purchaseID, start string, duration int) *types.Phase {
	t.Helper()
	phase, _, err := sched.CreatePhase(context.Background(), CreatePhaseRequest{
		PurchaseID:   purchaseID,
		StartDate:    day(start),
		DurationDays: duration,
	})
	require.NoError(t, err)
	return phase
}

func TestCreatePhaseAllowanceScenario(t *testing.T) {
	// Spec scenario: 30-day purchase funds a 10-day and a 20-day phase,
	// then a 1-day phase must fail
	sched, store := newTestScheduler(t)
	ctx := context.Background()
	purchase := createPurchase(t, sched, 30, 0)

	a := createPhase(t, sched, purchase.ID, "2024-01-01", 10)
	assert.Equal(t, "2024-01-10", a.EndDate.String())

	got, err := store.GetPurchase(ctx, purchase.ID)
	require.NoError(t, err)
	assert.Equal(t, 10, got.DaysUsed)

	b := createPhase(t, sched, purchase.ID, "2024-01-11", 20)
	assert.Equal(t, "2024-01-30", b.EndDate.String())

	got, err = store.GetPurchase(ctx, purchase.ID)
	require.NoError(t, err)
	assert.Equal(t, 30, got.DaysUsed)

	_, _, err = sched.CreatePhase(ctx, CreatePhaseRequest{
		PurchaseID:   purchase.ID,
		StartDate:    day("2024-01-31"),
		DurationDays: 1,
	})
	var allowErr *types.AllowanceExceededError
	require.ErrorAs(t, err, &allowErr)
	assert.Equal(t, 0, allowErr.RemainingDays)
}

func TestCreatePhaseRejectsOverlap(t *testing.T) {
	sched, _ := newTestScheduler(t)
	ctx := context.Background()
	purchase := createPurchase(t, sched, 30, 0)
	createPhase(t, sched, purchase.ID, "2024-01-01", 10)

	_, _, err := sched.CreatePhase(ctx, CreatePhaseRequest{
		PurchaseID:   purchase.ID,
		StartDate:    day("2024-01-05"),
		DurationDays: 10,
	})
	var overlapErr *types.OverlapError
	require.ErrorAs(t, err, &overlapErr)
	assert.Equal(t, "2024-01-11", overlapErr.NextAvailableStart.String())
}

func TestCreatePhaseRejectsOutOfWindow(t *testing.T) {
	sched, _ := newTestScheduler(t)
	ctx := context.Background()

	ws := day("2024-01-01")
	we := day("2024-01-31")
	purchase, _, err := sched.CreatePurchase(ctx, PurchaseRequest{
		ClientID:           "cl-1",
		TotalPurchasedDays: 30,
		ExpectedStartDate:  &ws,
		ExpectedEndDate:    &we,
	})
	require.NoError(t, err)

	_, _, err = sched.CreatePhase(ctx, CreatePhaseRequest{
		PurchaseID:   purchase.ID,
		StartDate:    day("2024-02-01"),
		DurationDays: 10,
	})
	var windowErr *types.OutOfWindowError
	require.ErrorAs(t, err, &windowErr)

	// Starting inside the window is fine even though the phase runs past
	// the expected end
	phase, _, err := sched.CreatePhase(ctx, CreatePhaseRequest{
		PurchaseID:   purchase.ID,
		StartDate:    day("2024-01-25"),
		DurationDays: 10,
	})
	require.NoError(t, err)
	assert.Equal(t, "2024-02-03", phase.EndDate.String())
}

func TestFreezeUnfreezeScenario(t *testing.T) {
	// Spec scenario: freeze Jan 5 on a Jan 1-10 phase, then unfreeze it
	sched, store := newTestScheduler(t)
	ctx := context.Background()
	purchase := createPurchase(t, sched, 30, 5)
	phase := createPhase(t, sched, purchase.ID, "2024-01-01", 10)

	frozen, evs, err := sched.Freeze(ctx, phase.ID, []dates.Date{day("2024-01-05")})
	require.NoError(t, err)
	require.Len(t, evs, 1)
	assert.Equal(t, events.EventTypePhaseFrozen, evs[0].Type)

	assert.Equal(t, "2024-01-11", frozen.EndDate.String())
	require.Len(t, frozen.FreezeEntries, 1)
	assert.Equal(t, "2024-01-05", frozen.FreezeEntries[0].FrozenDate.String())
	assert.Equal(t, "2024-01-11", frozen.FreezeEntries[0].AppendedDate.String())
	assert.Equal(t, 10, frozen.OriginalDurationDays)

	// Persisted state matches
	got, err := store.GetPhase(ctx, phase.ID)
	require.NoError(t, err)
	assert.Equal(t, "2024-01-11", got.EndDate.String())
	require.NoError(t, got.CheckSpan())

	unfrozen, _, err := sched.Unfreeze(ctx, phase.ID, []dates.Date{day("2024-01-05")})
	require.NoError(t, err)
	assert.Equal(t, "2024-01-10", unfrozen.EndDate.String())
	assert.Empty(t, unfrozen.FreezeEntries)

	got, err = store.GetPhase(ctx, phase.ID)
	require.NoError(t, err)
	assert.Equal(t, "2024-01-10", got.EndDate.String())
	assert.Empty(t, got.FreezeEntries)
}

func TestFreezeSharedQuota(t *testing.T) {
	sched, _ := newTestScheduler(t)
	ctx := context.Background()
	purchase := createPurchase(t, sched, 30, 2)

	a := createPhase(t, sched, purchase.ID, "2024-02-01", 10)
	b, _, err := sched.CreatePhase(ctx, CreatePhaseRequest{
		PurchaseID:       purchase.ID,
		StartDate:        day("2024-02-11"),
		DurationDays:     10,
		ParentPurchaseID: purchase.ID,
	})
	require.NoError(t, err)

	_, _, err = sched.Freeze(ctx, a.ID, []dates.Date{day("2024-02-03"), day("2024-02-04")})
	require.NoError(t, err)

	remaining, allowed, err := sched.FreezeQuota(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, allowed)
	assert.Equal(t, 0, remaining)

	// Quota is pooled: phase B cannot freeze anything
	_, _, err = sched.Freeze(ctx, b.ID, []dates.Date{day("2024-02-12")})
	var quotaErr *types.QuotaExceededError
	require.ErrorAs(t, err, &quotaErr)
}

func TestExtendCascadeScenario(t *testing.T) {
	// Spec scenario: chain [A: Jan1-10][B: Jan11-20], extend A to Jan 3
	// forces A to Jan3-12 and B to Jan13-22
	sched, store := newTestScheduler(t)
	ctx := context.Background()
	purchase := createPurchase(t, sched, 30, 0)
	a := createPhase(t, sched, purchase.ID, "2024-01-01", 10)
	b := createPhase(t, sched, purchase.ID, "2024-01-11", 10)

	changed, evs, err := sched.Extend(ctx, a.ID, day("2024-01-03"))
	require.NoError(t, err)
	require.Len(t, changed, 2)
	require.Len(t, evs, 2)
	assert.Equal(t, events.EventTypePhaseExtended, evs[0].Type)
	assert.Equal(t, events.EventTypePhaseRescheduled, evs[1].Type)

	gotA, err := store.GetPhase(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, "2024-01-03", gotA.StartDate.String())
	assert.Equal(t, "2024-01-12", gotA.EndDate.String())
	assert.Equal(t, 10, gotA.OriginalDurationDays)

	gotB, err := store.GetPhase(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, "2024-01-13", gotB.StartDate.String())
	assert.Equal(t, "2024-01-22", gotB.EndDate.String())

	chain, err := store.GetChain(ctx, "cl-1")
	require.NoError(t, err)
	require.NoError(t, types.CheckContiguity(chain))
}

func TestExtendBackwardCascade(t *testing.T) {
	sched, store := newTestScheduler(t)
	ctx := context.Background()
	purchase := createPurchase(t, sched, 30, 0)
	a := createPhase(t, sched, purchase.ID, "2024-01-01", 10)
	b := createPhase(t, sched, purchase.ID, "2024-01-11", 10)

	// Moving B earlier drags A backward so A still ends the day before B
	_, _, err := sched.Extend(ctx, b.ID, day("2024-01-08"))
	require.NoError(t, err)

	gotA, err := store.GetPhase(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, "2023-12-29", gotA.StartDate.String())
	assert.Equal(t, "2024-01-07", gotA.EndDate.String())

	gotB, err := store.GetPhase(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, "2024-01-08", gotB.StartDate.String())
	assert.Equal(t, "2024-01-17", gotB.EndDate.String())
}

func TestExtendIsIdempotent(t *testing.T) {
	sched, _ := newTestScheduler(t)
	ctx := context.Background()
	purchase := createPurchase(t, sched, 30, 0)
	a := createPhase(t, sched, purchase.ID, "2024-01-01", 10)
	createPhase(t, sched, purchase.ID, "2024-01-11", 10)

	_, _, err := sched.Extend(ctx, a.ID, day("2024-01-03"))
	require.NoError(t, err)

	// Re-running with the same target converges: no phases move, no events
	changed, evs, err := sched.Extend(ctx, a.ID, day("2024-01-03"))
	require.NoError(t, err)
	assert.Empty(t, changed)
	assert.Empty(t, evs)
}

func TestExtendPreservesFrozenSpan(t *testing.T) {
	sched, store := newTestScheduler(t)
	ctx := context.Background()
	purchase := createPurchase(t, sched, 30, 5)
	a := createPhase(t, sched, purchase.ID, "2024-01-01", 10)
	b := createPhase(t, sched, purchase.ID, "2024-01-11", 10)

	// Freeze a day in B: B now spans 11 calendar days
	_, _, err := sched.Freeze(ctx, b.ID, []dates.Date{day("2024-01-15")})
	require.NoError(t, err)

	_, _, err = sched.Extend(ctx, a.ID, day("2024-01-02"))
	require.NoError(t, err)

	gotB, err := store.GetPhase(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, "2024-01-12", gotB.StartDate.String())
	assert.Equal(t, "2024-01-22", gotB.EndDate.String())
	require.NoError(t, gotB.CheckSpan())

	// The frozen day and its make-up day moved forward with B's window
	require.Len(t, gotB.FreezeEntries, 1)
	assert.Equal(t, "2024-01-16", gotB.FreezeEntries[0].FrozenDate.String())
	assert.Equal(t, "2024-01-22", gotB.FreezeEntries[0].AppendedDate.String())
}

func TestExtendSkipsCancelledSiblings(t *testing.T) {
	sched, store := newTestScheduler(t)
	ctx := context.Background()
	purchase := createPurchase(t, sched, 40, 0)
	a := createPhase(t, sched, purchase.ID, "2024-01-01", 10)
	b := createPhase(t, sched, purchase.ID, "2024-01-11", 10)
	c := createPhase(t, sched, purchase.ID, "2024-01-21", 10)

	_, _, err := sched.Cancel(ctx, b.ID)
	require.NoError(t, err)

	_, _, err = sched.Extend(ctx, a.ID, day("2024-01-03"))
	require.NoError(t, err)

	// C becomes contiguous with A; cancelled B is left untouched
	gotC, err := store.GetPhase(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, "2024-01-13", gotC.StartDate.String())

	gotB, err := store.GetPhase(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, "2024-01-11", gotB.StartDate.String())
}

func TestPauseAsymmetry(t *testing.T) {
	sched, store := newTestScheduler(t)
	ctx := context.Background()
	purchase := createPurchase(t, sched, 40, 0)

	// Running phase (started on or before today): end date pushed out
	running := createPhase(t, sched, purchase.ID, "2024-01-01", 10)
	paused, _, err := sched.Pause(ctx, running.ID, 3)
	require.NoError(t, err)
	assert.Equal(t, types.PhaseStatusPaused, paused.Status)
	assert.Equal(t, "2024-01-13", paused.EndDate.String())
	assert.Equal(t, 3, paused.PausedDays)
	require.NoError(t, paused.CheckSpan())

	// Future phase: status flips, dates untouched
	future := createPhase(t, sched, purchase.ID, "2024-01-14", 10)
	paused, _, err = sched.Pause(ctx, future.ID, 3)
	require.NoError(t, err)
	assert.Equal(t, types.PhaseStatusPaused, paused.Status)
	assert.Equal(t, "2024-01-23", paused.EndDate.String())
	assert.Equal(t, 0, paused.PausedDays)

	// Resume restores active without touching dates
	resumed, _, err := sched.Resume(ctx, future.ID)
	require.NoError(t, err)
	assert.Equal(t, types.PhaseStatusActive, resumed.Status)

	got, err := store.GetPhase(ctx, future.ID)
	require.NoError(t, err)
	assert.Equal(t, "2024-01-14", got.StartDate.String())
	assert.Equal(t, "2024-01-23", got.EndDate.String())
}

func TestPauseRequiresActivePhase(t *testing.T) {
	sched, _ := newTestScheduler(t)
	ctx := context.Background()
	purchase := createPurchase(t, sched, 30, 0)
	phase := createPhase(t, sched, purchase.ID, "2024-01-01", 10)

	_, _, err := sched.Cancel(ctx, phase.ID)
	require.NoError(t, err)

	_, _, err = sched.Pause(ctx, phase.ID, 2)
	assert.Error(t, err)
	_, _, err = sched.Resume(ctx, phase.ID)
	assert.Error(t, err)
}

func TestDuplicateRevalidates(t *testing.T) {
	sched, _ := newTestScheduler(t)
	ctx := context.Background()
	purchase := createPurchase(t, sched, 25, 0)
	phase, _, err := sched.CreatePhase(ctx, CreatePhaseRequest{
		PurchaseID:   purchase.ID,
		StartDate:    day("2024-01-01"),
		DurationDays: 10,
		Title:        "low carb",
	})
	require.NoError(t, err)

	// Overlapping duplicate rejected
	_, _, err = sched.Duplicate(ctx, phase.ID, day("2024-01-05"))
	var overlapErr *types.OverlapError
	require.ErrorAs(t, err, &overlapErr)

	dup, _, err := sched.Duplicate(ctx, phase.ID, day("2024-01-11"))
	require.NoError(t, err)
	assert.Equal(t, "low carb", dup.Title)
	assert.Equal(t, 10, dup.OriginalDurationDays)

	// Allowance now has 5 left: a second duplicate cannot afford 10
	_, _, err = sched.Duplicate(ctx, phase.ID, day("2024-01-21"))
	var allowErr *types.AllowanceExceededError
	require.ErrorAs(t, err, &allowErr)
}

func TestCurrentView(t *testing.T) {
	sched, _ := newTestScheduler(t)
	ctx := context.Background()
	purchase := createPurchase(t, sched, 30, 0)
	createPhase(t, sched, purchase.ID, "2024-01-01", 10)

	view, err := sched.CurrentView(ctx, "cl-1")
	require.NoError(t, err)
	assert.Equal(t, chainview.LabelRunning, view.Label)

	view, err = sched.CurrentView(ctx, "cl-unknown")
	require.NoError(t, err)
	assert.Equal(t, chainview.LabelNone, view.Label)
}

func TestSpanInvariantAcrossCommandSequence(t *testing.T) {
	// The duration law must hold after every command in a mixed sequence
	sched, store := newTestScheduler(t)
	ctx := context.Background()
	purchase := createPurchase(t, sched, 40, 5)
	a := createPhase(t, sched, purchase.ID, "2024-01-01", 10)
	b := createPhase(t, sched, purchase.ID, "2024-01-11", 10)

	checkAll := func() {
		chain, err := store.GetChain(ctx, "cl-1")
		require.NoError(t, err)
		for _, p := range chain {
			require.NoError(t, p.CheckSpan(), "phase %s", p.ID)
		}
	}

	checkAll()
	_, _, err := sched.Freeze(ctx, a.ID, []dates.Date{day("2024-01-04"), day("2024-01-06")})
	require.NoError(t, err)
	checkAll()
	_, _, err = sched.Extend(ctx, b.ID, day("2024-01-15"))
	require.NoError(t, err)
	checkAll()
	_, _, err = sched.Pause(ctx, a.ID, 2)
	require.NoError(t, err)
	checkAll()
	_, _, err = sched.Resume(ctx, a.ID)
	require.NoError(t, err)
	checkAll()
	_, _, err = sched.Unfreeze(ctx, a.ID, []dates.Date{day("2024-01-04")})
	require.NoError(t, err)
	checkAll()
}
