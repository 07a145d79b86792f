// Package chainview derives the display state of a client's plan chain:
// which phase is currently running, coming up next, or most recently
// finished. Pure projection, no mutation.
package chainview

import (
	"github.com/nutrisched/nutrisched/internal/dates"
	"github.com/nutrisched/nutrisched/internal/types"
)

// Label classifies the phase selected for display.
type Label string

const (
	// LabelRunning marks an active phase whose range contains today.
	LabelRunning Label = "running"
	// LabelUpcoming marks the earliest phase starting after today.
	LabelUpcoming Label = "upcoming"
	// LabelCompleted marks the last-ended phase when nothing runs or is scheduled.
	LabelCompleted Label = "completed"
	// LabelNone means the client has no phases at all.
	LabelNone Label = "none"
)

// View is the projection result: the chosen phase and how to present it.
// Phase is nil only when Label is LabelNone.
type View struct {
	Label Label        `json:"label"`
	Phase *types.Phase `json:"phase,omitempty"`
}

// Current selects the phase to display for today's date.
//
// Selection order: an active phase whose [StartDate, EndDate] contains
// today is running; otherwise the earliest phase starting after today is
// upcoming; otherwise the chain's last phase by end date is completed.
// Cancelled phases are ignored throughout.
func Current(chain []*types.Phase, today dates.Date) View {
	for _, p := range chain {
		if p.Status != types.PhaseStatusActive {
			continue
		}
		if !today.Before(p.StartDate) && !today.After(p.EndDate) {
			return View{Label: LabelRunning, Phase: p}
		}
	}

	var upcoming *types.Phase
	for _, p := range chain {
		if p.Status == types.PhaseStatusCancelled || !p.StartDate.After(today) {
			continue
		}
		if upcoming == nil || p.StartDate.Before(upcoming.StartDate) {
			upcoming = p
		}
	}
	if upcoming != nil {
		return View{Label: LabelUpcoming, Phase: upcoming}
	}

	var last *types.Phase
	for _, p := range chain {
		if p.Status == types.PhaseStatusCancelled {
			continue
		}
		if last == nil || p.EndDate.After(last.EndDate) {
			last = p
		}
	}
	if last != nil {
		return View{Label: LabelCompleted, Phase: last}
	}

	return View{Label: LabelNone}
}
