package events

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/nutrisched/nutrisched/internal/dates"
	"github.com/nutrisched/nutrisched/internal/types"
)

func newEvent(eventType EventType, phase *types.Phase, message string, data map[string]interface{}) *PhaseEvent {
	if data == nil {
		data = make(map[string]interface{})
	}
	return &PhaseEvent{
		ID:         uuid.New().String(),
		Type:       eventType,
		PhaseID:    phase.ID,
		PurchaseID: phase.PurchaseID,
		ClientID:   phase.ClientID,
		Timestamp:  time.Now(),
		Message:    message,
		Data:       data,
	}
}

// NewPurchaseCreated creates the event for a newly registered purchase.
func NewPurchaseCreated(p *types.Purchase) *PhaseEvent {
	return &PhaseEvent{
		ID:         uuid.New().String(),
		Type:       EventTypePurchaseCreated,
		PurchaseID: p.ID,
		ClientID:   p.ClientID,
		Timestamp:  time.Now(),
		Message:    fmt.Sprintf("purchase of %d plan-days registered", p.TotalPurchasedDays),
		Data: map[string]interface{}{
			"total_purchased_days": p.TotalPurchasedDays,
			"allowed_freeze_days":  p.AllowedFreezeDays,
		},
	}
}

// NewPhaseCreated creates the event for a newly committed phase.
func NewPhaseCreated(phase *types.Phase) *PhaseEvent {
	return newEvent(EventTypePhaseCreated, phase,
		fmt.Sprintf("phase scheduled %s to %s (%d days)", phase.StartDate, phase.EndDate, phase.OriginalDurationDays),
		map[string]interface{}{
			"start_date":    phase.StartDate.String(),
			"end_date":      phase.EndDate.String(),
			"duration_days": phase.OriginalDurationDays,
		})
}

// NewPhaseExtended creates the event for a phase whose start slid to a new date.
func NewPhaseExtended(phase *types.Phase, oldStart dates.Date) *PhaseEvent {
	return newEvent(EventTypePhaseExtended, phase,
		fmt.Sprintf("phase moved from start %s to %s to %s", oldStart, phase.StartDate, phase.EndDate),
		map[string]interface{}{
			"old_start_date": oldStart.String(),
			"start_date":     phase.StartDate.String(),
			"end_date":       phase.EndDate.String(),
		})
}

// NewPhaseRescheduled creates the event for a phase re-dated by a cascade.
func NewPhaseRescheduled(phase *types.Phase, oldStart, oldEnd dates.Date) *PhaseEvent {
	return newEvent(EventTypePhaseRescheduled, phase,
		fmt.Sprintf("phase re-dated from %s-%s to %s-%s by cascade", oldStart, oldEnd, phase.StartDate, phase.EndDate),
		map[string]interface{}{
			"old_start_date": oldStart.String(),
			"old_end_date":   oldEnd.String(),
			"start_date":     phase.StartDate.String(),
			"end_date":       phase.EndDate.String(),
		})
}

// NewPhasePaused creates the event for a paused phase. pauseDays is zero
// when the phase had not started yet and only its status changed.
func NewPhasePaused(phase *types.Phase, pauseDays int) *PhaseEvent {
	msg := "phase paused before start"
	if pauseDays > 0 {
		msg = fmt.Sprintf("phase paused for %d days, end date now %s", pauseDays, phase.EndDate)
	}
	return newEvent(EventTypePhasePaused, phase, msg, map[string]interface{}{
		"pause_days": pauseDays,
		"end_date":   phase.EndDate.String(),
	})
}

// NewPhaseResumed creates the event for a resumed phase.
func NewPhaseResumed(phase *types.Phase) *PhaseEvent {
	return newEvent(EventTypePhaseResumed, phase, "phase resumed", nil)
}

// NewPhaseFrozen creates the event for frozen days with their appended
// make-up days.
func NewPhaseFrozen(phase *types.Phase, entries []types.FreezeEntry) *PhaseEvent {
	frozen := make([]string, 0, len(entries))
	appended := make([]string, 0, len(entries))
	for _, e := range entries {
		frozen = append(frozen, e.FrozenDate.String())
		appended = append(appended, e.AppendedDate.String())
	}
	return newEvent(EventTypePhaseFrozen, phase,
		fmt.Sprintf("%d day(s) frozen, end date now %s", len(entries), phase.EndDate),
		map[string]interface{}{
			"frozen_dates":   frozen,
			"appended_dates": appended,
			"end_date":       phase.EndDate.String(),
		})
}

// NewPhaseUnfrozen creates the event for removed freeze entries.
func NewPhaseUnfrozen(phase *types.Phase, dts []dates.Date) *PhaseEvent {
	unfrozen := make([]string, 0, len(dts))
	for _, d := range dts {
		unfrozen = append(unfrozen, d.String())
	}
	return newEvent(EventTypePhaseUnfrozen, phase,
		fmt.Sprintf("%d day(s) unfrozen, end date now %s", len(dts), phase.EndDate),
		map[string]interface{}{
			"unfrozen_dates": unfrozen,
			"end_date":       phase.EndDate.String(),
		})
}

// NewPhaseCancelled creates the event for an explicitly cancelled phase.
func NewPhaseCancelled(phase *types.Phase) *PhaseEvent {
	return newEvent(EventTypePhaseCancelled, phase, "phase cancelled", nil)
}
