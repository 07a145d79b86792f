// Package overlap validates candidate phase placement against a client's
// existing phase chain.
package overlap

import (
	"github.com/nutrisched/nutrisched/internal/dates"
	"github.com/nutrisched/nutrisched/internal/types"
)

// Conflict describes the first existing phase (in chain order) that
// intersects a candidate range, and the first day after it ends.
type Conflict struct {
	Phase              *types.Phase
	NextAvailableStart dates.Date
}

// FindOverlap returns the first phase in chain order whose inclusive
// [StartDate, EndDate] intersects [candidateStart, candidateEnd], or nil
// when the candidate fits. The phase with excludePhaseID is skipped, as are
// cancelled phases. Closed-interval intersection: the ranges overlap iff
// candidateStart <= phase.EndDate && candidateEnd >= phase.StartDate.
func FindOverlap(candidateStart, candidateEnd dates.Date, chain []*types.Phase, excludePhaseID string) *Conflict {
	for _, p := range chain {
		if p.ID == excludePhaseID || p.Status == types.PhaseStatusCancelled {
			continue
		}
		if !candidateStart.After(p.EndDate) && !candidateEnd.Before(p.StartDate) {
			return &Conflict{
				Phase:              p,
				NextAvailableStart: p.EndDate.AddDays(1),
			}
		}
	}
	return nil
}

// Check is FindOverlap surfaced as an error for command paths.
func Check(candidateStart, candidateEnd dates.Date, chain []*types.Phase, excludePhaseID string) error {
	c := FindOverlap(candidateStart, candidateEnd, chain, excludePhaseID)
	if c == nil {
		return nil
	}
	return &types.OverlapError{
		ConflictPhaseID:    c.Phase.ID,
		ConflictStart:      c.Phase.StartDate,
		ConflictEnd:        c.Phase.EndDate,
		NextAvailableStart: c.NextAvailableStart,
	}
}

// ValidateStartWithinWindow checks the candidate start against the
// purchase's expected window when one is set. Only the start date is
// constrained; a phase may run past the expected end.
func ValidateStartWithinWindow(candidateStart dates.Date, expectedStart, expectedEnd *dates.Date) error {
	if expectedStart == nil || expectedEnd == nil {
		return nil
	}
	if candidateStart.Before(*expectedStart) || candidateStart.After(*expectedEnd) {
		return &types.OutOfWindowError{
			Start:       candidateStart,
			WindowStart: *expectedStart,
			WindowEnd:   *expectedEnd,
		}
	}
	return nil
}
