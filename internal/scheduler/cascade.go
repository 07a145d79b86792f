package scheduler

import (
	"fmt"

	"github.com/nutrisched/nutrisched/internal/dates"
	"github.com/nutrisched/nutrisched/internal/types"
)

// ChangedPhase records one phase moved by a cascade, with its prior dates
// for event reporting.
type ChangedPhase struct {
	Phase    *types.Phase
	OldStart dates.Date
	OldEnd   dates.Date
}

// Cascade slides the edited phase to newStart and re-dates the rest of the
// chain so phases stay contiguous and non-overlapping. Pure: it mutates
// the in-memory phases and returns the ones that moved; persistence is the
// caller's concern.
//
// The edited phase keeps its full span (original duration plus freeze and
// pause days); its end becomes newStart + span - 1. Then a backward pass
// walks from the edited phase toward the earliest phase, pinning each
// phase's end to one day before its successor's start, and a forward pass
// walks toward the latest phase, pinning each start to one day after its
// predecessor's end. Every phase preserves its own span, and a moved
// phase's freeze entries shift with its window so frozen and make-up days
// keep their position inside the phase. Cancelled phases no longer occupy
// calendar space and are left where they are.
//
// The cascade is deterministic in the target start, so re-running it with
// the same newStart yields no further movement.
func Cascade(chain []*types.Phase, editedID string, newStart dates.Date) ([]ChangedPhase, error) {
	active := make([]*types.Phase, 0, len(chain))
	for _, p := range chain {
		if p.Status != types.PhaseStatusCancelled {
			active = append(active, p)
		}
	}
	types.SortChain(active)

	idx := -1
	for i, p := range active {
		if p.ID == editedID {
			idx = i
			break
		}
	}
	if idx == -1 {
		return nil, &types.NotFoundError{Kind: "phase", ID: editedID}
	}

	var changed []ChangedPhase
	move := func(p *types.Phase, start, end dates.Date) error {
		if end.Before(start) {
			return &dates.InvalidRangeError{Start: start, End: end}
		}
		if p.StartDate.Equal(start) && p.EndDate.Equal(end) {
			return nil
		}
		changed = append(changed, ChangedPhase{Phase: p, OldStart: p.StartDate, OldEnd: p.EndDate})
		// Freeze entries are calendar dates inside the window; they travel
		// with it
		shift := p.StartDate.DaysUntil(start)
		for i := range p.FreezeEntries {
			p.FreezeEntries[i].FrozenDate = p.FreezeEntries[i].FrozenDate.AddDays(shift)
			p.FreezeEntries[i].AppendedDate = p.FreezeEntries[i].AppendedDate.AddDays(shift)
		}
		p.StartDate = start
		p.EndDate = end
		return nil
	}

	edited := active[idx]
	span := edited.SpanDays()
	if span <= 0 {
		return nil, fmt.Errorf("phase %s has non-positive span %d", edited.ID, span)
	}
	if err := move(edited, newStart, newStart.AddDays(span-1)); err != nil {
		return nil, err
	}

	// Backward pass: each earlier phase ends one day before its successor starts
	for i := idx - 1; i >= 0; i-- {
		p := active[i]
		end := active[i+1].StartDate.AddDays(-1)
		start := end.AddDays(-(p.SpanDays() - 1))
		if err := move(p, start, end); err != nil {
			return nil, err
		}
	}

	// Forward pass: each later phase starts one day after its predecessor ends
	for i := idx + 1; i < len(active); i++ {
		p := active[i]
		start := active[i-1].EndDate.AddDays(1)
		end := start.AddDays(p.SpanDays() - 1)
		if err := move(p, start, end); err != nil {
			return nil, err
		}
	}

	if err := types.CheckContiguity(active); err != nil {
		return nil, err
	}
	return changed, nil
}
