// Package scheduler orchestrates phase lifecycle commands: create, pause,
// resume, extend (with cascading re-dating of sibling phases), freeze, and
// unfreeze. Each command validates against the purchase allowance, the
// expected window, and the client's existing chain, then persists every
// affected record in one storage transaction and returns the outbound
// events for the caller to dispatch.
package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/nutrisched/nutrisched/internal/allowance"
	"github.com/nutrisched/nutrisched/internal/chainview"
	"github.com/nutrisched/nutrisched/internal/dates"
	"github.com/nutrisched/nutrisched/internal/events"
	"github.com/nutrisched/nutrisched/internal/freeze"
	"github.com/nutrisched/nutrisched/internal/overlap"
	"github.com/nutrisched/nutrisched/internal/storage"
	"github.com/nutrisched/nutrisched/internal/types"
)

// Scheduler executes scheduling commands against a storage backend.
type Scheduler struct {
	store storage.Storage
	today func() dates.Date
}

// Option configures a Scheduler.
type Option func(*Scheduler)

// WithToday overrides the clock used for "today" comparisons. Tests use
// this to pin freeze validation and view projection to a fixed date.
func WithToday(fn func() dates.Date) Option {
	return func(s *Scheduler) { s.today = fn }
}

// New creates a Scheduler on the given storage backend.
func New(store storage.Storage, opts ...Option) *Scheduler {
	s := &Scheduler{
		store: store,
		today: dates.Today,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// PurchaseRequest carries the fields needed to register a day allowance.
// Purchases are created externally at payment confirmation; the scheduler
// only records them.
type PurchaseRequest struct {
	ClientID           string
	TotalPurchasedDays int
	AllowedFreezeDays  int
	ExpectedStartDate  *dates.Date
	ExpectedEndDate    *dates.Date
}

// CreatePurchase registers a new day allowance for a client.
func (s *Scheduler) CreatePurchase(ctx context.Context, req PurchaseRequest) (*types.Purchase, []*events.PhaseEvent, error) {
	now := time.Now()
	purchase := &types.Purchase{
		ID:                 uuid.New().String(),
		ClientID:           req.ClientID,
		TotalPurchasedDays: req.TotalPurchasedDays,
		AllowedFreezeDays:  req.AllowedFreezeDays,
		ExpectedStartDate:  req.ExpectedStartDate,
		ExpectedEndDate:    req.ExpectedEndDate,
		Status:             types.PurchaseStatusActive,
		CreatedAt:          now,
		UpdatedAt:          now,
	}
	if err := purchase.Validate(); err != nil {
		return nil, nil, err
	}

	evs := []*events.PhaseEvent{events.NewPurchaseCreated(purchase)}
	if err := s.store.CreatePurchase(ctx, purchase, evs); err != nil {
		return nil, nil, err
	}
	return purchase, evs, nil
}

// CreatePhaseRequest carries the fields needed to commit a new phase.
type CreatePhaseRequest struct {
	PurchaseID   string
	StartDate    dates.Date
	DurationDays int
	Title        string
	// ParentPurchaseID links this phase into another purchase's freeze
	// quota pool. Leave empty for a standalone ledger.
	ParentPurchaseID string
}

// CreatePhase validates and commits a new phase against a purchase.
//
// Order of checks: allowance affordability, expected-window placement,
// overlap against the client's chain. On success the phase insert and the
// allowance consumption commit in one transaction.
func (s *Scheduler) CreatePhase(ctx context.Context, req CreatePhaseRequest) (*types.Phase, []*events.PhaseEvent, error) {
	if req.DurationDays <= 0 {
		return nil, nil, fmt.Errorf("duration must be positive (got %d)", req.DurationDays)
	}

	purchase, err := s.store.GetPurchase(ctx, req.PurchaseID)
	if err != nil {
		return nil, nil, err
	}
	if !allowance.CanAfford(purchase, req.DurationDays) {
		return nil, nil, &types.AllowanceExceededError{
			PurchaseID:    purchase.ID,
			RequestedDays: req.DurationDays,
			RemainingDays: allowance.Remaining(purchase),
		}
	}

	endDate := req.StartDate.AddDays(req.DurationDays - 1)

	if err := overlap.ValidateStartWithinWindow(req.StartDate, purchase.ExpectedStartDate, purchase.ExpectedEndDate); err != nil {
		return nil, nil, err
	}

	chain, err := s.store.GetChain(ctx, purchase.ClientID)
	if err != nil {
		return nil, nil, err
	}
	if err := overlap.Check(req.StartDate, endDate, chain, ""); err != nil {
		return nil, nil, err
	}

	now := time.Now()
	phase := &types.Phase{
		ID:                   uuid.New().String(),
		PurchaseID:           purchase.ID,
		ParentPurchaseID:     req.ParentPurchaseID,
		ClientID:             purchase.ClientID,
		Title:                req.Title,
		StartDate:            req.StartDate,
		EndDate:              endDate,
		OriginalDurationDays: req.DurationDays,
		Status:               types.PhaseStatusActive,
		CreatedAt:            now,
		UpdatedAt:            now,
	}

	evs := []*events.PhaseEvent{events.NewPhaseCreated(phase)}
	if err := s.store.CreatePhase(ctx, phase, evs); err != nil {
		return nil, nil, err
	}
	return phase, evs, nil
}

// Pause pauses a phase. A phase that is already running has its end date
// pushed out by pauseDays; a phase that has not started yet only flips to
// paused, with its dates untouched. The asymmetry is deliberate: pausing a
// future phase costs nothing, pausing a running one defers the remaining
// days.
func (s *Scheduler) Pause(ctx context.Context, phaseID string, pauseDays int) (*types.Phase, []*events.PhaseEvent, error) {
	if pauseDays < 0 {
		return nil, nil, fmt.Errorf("pause days cannot be negative (got %d)", pauseDays)
	}

	phase, err := s.store.GetPhase(ctx, phaseID)
	if err != nil {
		return nil, nil, err
	}
	if !phase.Status.CanTransitionTo(types.PhaseStatusPaused) {
		return nil, nil, fmt.Errorf("cannot pause phase in status %s", phase.Status)
	}

	today := s.today()
	if phase.StartDate.After(today) {
		// Not started yet: status only
		phase.Status = types.PhaseStatusPaused
		evs := []*events.PhaseEvent{events.NewPhasePaused(phase, 0)}
		if err := s.store.SetPhaseStatus(ctx, phase.ID, types.PhaseStatusPaused, evs); err != nil {
			return nil, nil, err
		}
		return phase, evs, nil
	}

	phase.Status = types.PhaseStatusPaused
	phase.PausedDays += pauseDays
	phase.EndDate = phase.EndDate.AddDays(pauseDays)
	evs := []*events.PhaseEvent{events.NewPhasePaused(phase, pauseDays)}
	if err := s.store.SavePhases(ctx, []*types.Phase{phase}, evs); err != nil {
		return nil, nil, err
	}
	return phase, evs, nil
}

// Resume flips a paused phase back to active without altering its dates.
func (s *Scheduler) Resume(ctx context.Context, phaseID string) (*types.Phase, []*events.PhaseEvent, error) {
	phase, err := s.store.GetPhase(ctx, phaseID)
	if err != nil {
		return nil, nil, err
	}
	if !phase.Status.CanTransitionTo(types.PhaseStatusActive) {
		return nil, nil, fmt.Errorf("cannot resume phase in status %s", phase.Status)
	}

	phase.Status = types.PhaseStatusActive
	evs := []*events.PhaseEvent{events.NewPhaseResumed(phase)}
	if err := s.store.SetPhaseStatus(ctx, phase.ID, types.PhaseStatusActive, evs); err != nil {
		return nil, nil, err
	}
	return phase, evs, nil
}

// Extend slides a phase's window to a new start date, preserving its
// duration, then cascades: every earlier phase in the chain is re-dated
// backward and every later phase forward so each one ends exactly one day
// before the next starts. All re-dated phases persist in one transaction;
// a partial cascade is never written. Re-running Extend with the same
// target start converges and writes nothing new.
func (s *Scheduler) Extend(ctx context.Context, phaseID string, newStart dates.Date) ([]*types.Phase, []*events.PhaseEvent, error) {
	phase, err := s.store.GetPhase(ctx, phaseID)
	if err != nil {
		return nil, nil, err
	}
	if phase.Status == types.PhaseStatusCancelled {
		return nil, nil, fmt.Errorf("cannot extend a cancelled phase")
	}

	chain, err := s.store.GetChain(ctx, phase.ClientID)
	if err != nil {
		return nil, nil, err
	}

	changed, err := Cascade(chain, phaseID, newStart)
	if err != nil {
		return nil, nil, err
	}
	if len(changed) == 0 {
		// Already at the requested dates
		return nil, nil, nil
	}

	evs := make([]*events.PhaseEvent, 0, len(changed))
	for _, c := range changed {
		if c.Phase.ID == phaseID {
			evs = append(evs, events.NewPhaseExtended(c.Phase, c.OldStart))
		} else {
			evs = append(evs, events.NewPhaseRescheduled(c.Phase, c.OldStart, c.OldEnd))
		}
	}

	phases := make([]*types.Phase, 0, len(changed))
	for _, c := range changed {
		phases = append(phases, c.Phase)
	}
	if err := s.store.SavePhases(ctx, phases, evs); err != nil {
		return nil, nil, err
	}
	return phases, evs, nil
}

// Freeze marks the given dates as skipped on the phase, appending one
// make-up day per date past the end. The freeze quota is shared across
// every phase drawing from the same purchase; date validity is scoped to
// this phase alone.
func (s *Scheduler) Freeze(ctx context.Context, phaseID string, dts []dates.Date) (*types.Phase, []*events.PhaseEvent, error) {
	if len(dts) == 0 {
		return nil, nil, fmt.Errorf("no dates given")
	}

	phase, err := s.store.GetPhase(ctx, phaseID)
	if err != nil {
		return nil, nil, err
	}
	if phase.Status == types.PhaseStatusCancelled {
		return nil, nil, fmt.Errorf("cannot freeze a cancelled phase")
	}

	purchase, err := s.store.GetPurchase(ctx, s.quotaPurchaseID(phase))
	if err != nil {
		return nil, nil, err
	}
	chain, err := s.store.GetChain(ctx, phase.ClientID)
	if err != nil {
		return nil, nil, err
	}

	remaining := freeze.Remaining(purchase, chain)
	entries, err := freeze.Freeze(phase, dts, s.today(), remaining)
	if err != nil {
		return nil, nil, err
	}

	evs := []*events.PhaseEvent{events.NewPhaseFrozen(phase, entries)}
	if err := s.store.SavePhases(ctx, []*types.Phase{phase}, evs); err != nil {
		return nil, nil, err
	}
	return phase, evs, nil
}

// Unfreeze removes the freeze entries for the given dates and pulls the
// phase's end date back accordingly.
func (s *Scheduler) Unfreeze(ctx context.Context, phaseID string, dts []dates.Date) (*types.Phase, []*events.PhaseEvent, error) {
	if len(dts) == 0 {
		return nil, nil, fmt.Errorf("no dates given")
	}

	phase, err := s.store.GetPhase(ctx, phaseID)
	if err != nil {
		return nil, nil, err
	}
	if err := freeze.Unfreeze(phase, dts); err != nil {
		return nil, nil, err
	}

	evs := []*events.PhaseEvent{events.NewPhaseUnfrozen(phase, dts)}
	if err := s.store.SavePhases(ctx, []*types.Phase{phase}, evs); err != nil {
		return nil, nil, err
	}
	return phase, evs, nil
}

// Cancel marks a phase cancelled. Its consumed allowance days are not
// returned to the purchase's pool.
func (s *Scheduler) Cancel(ctx context.Context, phaseID string) (*types.Phase, []*events.PhaseEvent, error) {
	phase, err := s.store.GetPhase(ctx, phaseID)
	if err != nil {
		return nil, nil, err
	}
	if !phase.Status.CanTransitionTo(types.PhaseStatusCancelled) {
		return nil, nil, fmt.Errorf("cannot cancel phase in status %s", phase.Status)
	}

	phase.Status = types.PhaseStatusCancelled
	evs := []*events.PhaseEvent{events.NewPhaseCancelled(phase)}
	if err := s.store.SetPhaseStatus(ctx, phase.ID, types.PhaseStatusCancelled, evs); err != nil {
		return nil, nil, err
	}
	return phase, evs, nil
}

// Duplicate creates a new phase seeded from an existing one: same purchase,
// duration, and title, at a new start date. It is a plain CreatePhase with
// all of its validation, not a scheduling primitive.
func (s *Scheduler) Duplicate(ctx context.Context, phaseID string, newStart dates.Date) (*types.Phase, []*events.PhaseEvent, error) {
	src, err := s.store.GetPhase(ctx, phaseID)
	if err != nil {
		return nil, nil, err
	}
	return s.CreatePhase(ctx, CreatePhaseRequest{
		PurchaseID:       src.PurchaseID,
		StartDate:        newStart,
		DurationDays:     src.OriginalDurationDays,
		Title:            src.Title,
		ParentPurchaseID: src.ParentPurchaseID,
	})
}

// GetPurchase retrieves a purchase by ID.
func (s *Scheduler) GetPurchase(ctx context.Context, id string) (*types.Purchase, error) {
	return s.store.GetPurchase(ctx, id)
}

// ListPurchases returns a client's purchases, newest first.
func (s *Scheduler) ListPurchases(ctx context.Context, clientID string) ([]*types.Purchase, error) {
	return s.store.ListPurchases(ctx, clientID)
}

// GetPhase retrieves a phase by ID.
func (s *Scheduler) GetPhase(ctx context.Context, id string) (*types.Phase, error) {
	return s.store.GetPhase(ctx, id)
}

// Chain returns a client's phases ordered by start date.
func (s *Scheduler) Chain(ctx context.Context, clientID string) ([]*types.Phase, error) {
	return s.store.GetChain(ctx, clientID)
}

// PhaseEvents returns a phase's event history, newest first.
func (s *Scheduler) PhaseEvents(ctx context.Context, phaseID string, limit int) ([]*events.PhaseEvent, error) {
	return s.store.GetPhaseEvents(ctx, phaseID, limit)
}

// CurrentView projects the client's chain into its display state for today.
func (s *Scheduler) CurrentView(ctx context.Context, clientID string) (chainview.View, error) {
	chain, err := s.store.GetChain(ctx, clientID)
	if err != nil {
		return chainview.View{}, err
	}
	return chainview.Current(chain, s.today()), nil
}

// FreezeQuota reports the remaining shared freeze quota for a phase.
func (s *Scheduler) FreezeQuota(ctx context.Context, phaseID string) (remaining int, allowed int, err error) {
	phase, err := s.store.GetPhase(ctx, phaseID)
	if err != nil {
		return 0, 0, err
	}
	purchase, err := s.store.GetPurchase(ctx, s.quotaPurchaseID(phase))
	if err != nil {
		return 0, 0, err
	}
	chain, err := s.store.GetChain(ctx, phase.ClientID)
	if err != nil {
		return 0, 0, err
	}
	return freeze.Remaining(purchase, chain), purchase.AllowedFreezeDays, nil
}

// quotaPurchaseID resolves which purchase funds a phase's freeze quota:
// the parent purchase when the phase is chained into a shared pool.
func (s *Scheduler) quotaPurchaseID(phase *types.Phase) string {
	if phase.ParentPurchaseID != "" {
		return phase.ParentPurchaseID
	}
	return phase.PurchaseID
}
