// Package events defines the outbound events emitted by scheduling
// commands. Each command returns its event list to the caller instead of
// publishing on a process-wide bus, so any delivery mechanism (UI refresh,
// webhook, log) can be attached outside the core. Consumers re-fetch the
// referenced records on receipt; the payload carries identifiers and a
// human-readable message, not a full record contract.
package events

import "time"

// EventType represents the kind of scheduling change that occurred.
type EventType string

const (
	// EventTypePurchaseCreated indicates a day allowance was registered
	EventTypePurchaseCreated EventType = "purchase_created"
	// EventTypePhaseCreated indicates a new phase was committed against a purchase
	EventTypePhaseCreated EventType = "phase_created"
	// EventTypePhaseExtended indicates a phase's window slid to a new start date
	EventTypePhaseExtended EventType = "phase_extended"
	// EventTypePhaseRescheduled indicates a phase was re-dated by a sibling's cascade
	EventTypePhaseRescheduled EventType = "phase_rescheduled"
	// EventTypePhasePaused indicates a phase was paused
	EventTypePhasePaused EventType = "phase_paused"
	// EventTypePhaseResumed indicates a paused phase became active again
	EventTypePhaseResumed EventType = "phase_resumed"
	// EventTypePhaseFrozen indicates days were frozen and make-up days appended
	EventTypePhaseFrozen EventType = "phase_frozen"
	// EventTypePhaseUnfrozen indicates freeze entries were removed
	EventTypePhaseUnfrozen EventType = "phase_unfrozen"
	// EventTypePhaseCancelled indicates a phase was explicitly cancelled
	EventTypePhaseCancelled EventType = "phase_cancelled"
	// EventTypePhaseDeleted indicates a phase record was removed
	EventTypePhaseDeleted EventType = "phase_deleted"
)

// IsValid checks if the event type value is valid
func (t EventType) IsValid() bool {
	switch t {
	case EventTypePurchaseCreated, EventTypePhaseCreated, EventTypePhaseExtended,
		EventTypePhaseRescheduled, EventTypePhasePaused, EventTypePhaseResumed,
		EventTypePhaseFrozen, EventTypePhaseUnfrozen, EventTypePhaseCancelled,
		EventTypePhaseDeleted:
		return true
	}
	return false
}

// PhaseEvent is one emitted scheduling event.
type PhaseEvent struct {
	// ID is the unique identifier for this event
	ID string `json:"id"`
	// Type classifies the change
	Type EventType `json:"type"`
	// PhaseID references the affected phase; empty for purchase-level events
	PhaseID string `json:"phase_id,omitempty"`
	// PurchaseID references the funding purchase
	PurchaseID string `json:"purchase_id,omitempty"`
	// ClientID references the client whose chain changed
	ClientID string `json:"client_id"`
	// Timestamp is when the event was created
	Timestamp time.Time `json:"timestamp"`
	// Message is a human-readable summary for display and audit
	Message string `json:"message"`
	// Data holds small event-specific details (dates, day counts)
	Data map[string]interface{} `json:"data,omitempty"`
}
