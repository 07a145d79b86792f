package types

import (
	"fmt"
	"sort"
	"time"

	"github.com/nutrisched/nutrisched/internal/dates"
)

// Purchase is a client's paid allowance of plan-days. Phases draw down the
// allowance as they are created; days_used never decreases (cancelling a
// phase does not refund days).
type Purchase struct {
	ID                 string         `json:"id"`
	ClientID           string         `json:"client_id"`
	TotalPurchasedDays int            `json:"total_purchased_days"`
	DaysUsed           int            `json:"days_used"`
	AllowedFreezeDays  int            `json:"allowed_freeze_days"`
	ExpectedStartDate  *dates.Date    `json:"expected_start_date,omitempty"`
	ExpectedEndDate    *dates.Date    `json:"expected_end_date,omitempty"`
	Status             PurchaseStatus `json:"status"`
	CreatedAt          time.Time      `json:"created_at"`
	UpdatedAt          time.Time      `json:"updated_at"`
}

// Validate checks if the purchase has valid field values
func (p *Purchase) Validate() error {
	if p.ClientID == "" {
		return fmt.Errorf("client_id is required")
	}
	if p.TotalPurchasedDays <= 0 {
		return fmt.Errorf("total_purchased_days must be positive (got %d)", p.TotalPurchasedDays)
	}
	if p.DaysUsed < 0 {
		return fmt.Errorf("days_used cannot be negative (got %d)", p.DaysUsed)
	}
	if p.DaysUsed > p.TotalPurchasedDays {
		return fmt.Errorf("days_used %d exceeds total_purchased_days %d", p.DaysUsed, p.TotalPurchasedDays)
	}
	if p.AllowedFreezeDays < 0 {
		return fmt.Errorf("allowed_freeze_days cannot be negative (got %d)", p.AllowedFreezeDays)
	}
	if !p.Status.IsValid() {
		return fmt.Errorf("invalid status: %s", p.Status)
	}
	if p.ExpectedStartDate != nil && p.ExpectedEndDate != nil &&
		p.ExpectedEndDate.Before(*p.ExpectedStartDate) {
		return fmt.Errorf("expected_end_date %s is before expected_start_date %s",
			p.ExpectedEndDate, p.ExpectedStartDate)
	}
	return nil
}

// PurchaseStatus represents the current state of a purchase
type PurchaseStatus string

const (
	PurchaseStatusActive    PurchaseStatus = "active"
	PurchaseStatusExhausted PurchaseStatus = "exhausted"
	PurchaseStatusExpired   PurchaseStatus = "expired"
	PurchaseStatusCancelled PurchaseStatus = "cancelled"
)

// IsValid checks if the purchase status value is valid
func (s PurchaseStatus) IsValid() bool {
	switch s {
	case PurchaseStatusActive, PurchaseStatusExhausted, PurchaseStatusExpired, PurchaseStatusCancelled:
		return true
	}
	return false
}

// Phase is one contiguous meal-plan instance with an inclusive
// [StartDate, EndDate] range drawn from a Purchase's day allowance.
//
// OriginalDurationDays is fixed at creation and never changes afterward,
// across every pause/extend/freeze operation. The visible span obeys
//
//	EndDate - StartDate + 1 == OriginalDurationDays + freezes + PausedDays
//
// where frozen days and pause days push the end date out without touching
// the real duration.
type Phase struct {
	ID                   string        `json:"id"`
	PurchaseID           string        `json:"purchase_id"`
	ParentPurchaseID     string        `json:"parent_purchase_id,omitempty"` // set when phases share one purchase's freeze quota
	ClientID             string        `json:"client_id"`
	Title                string        `json:"title,omitempty"`
	StartDate            dates.Date    `json:"start_date"`
	EndDate              dates.Date    `json:"end_date"`
	OriginalDurationDays int           `json:"original_duration_days"`
	PausedDays           int           `json:"paused_days"`
	Status               PhaseStatus   `json:"status"`
	FreezeEntries        []FreezeEntry `json:"freeze_entries,omitempty"`
	CreatedAt            time.Time     `json:"created_at"`
	UpdatedAt            time.Time     `json:"updated_at"`
}

// Validate checks if the phase has valid field values
func (p *Phase) Validate() error {
	if p.PurchaseID == "" {
		return fmt.Errorf("purchase_id is required")
	}
	if p.ClientID == "" {
		return fmt.Errorf("client_id is required")
	}
	if p.OriginalDurationDays <= 0 {
		return fmt.Errorf("original_duration_days must be positive (got %d)", p.OriginalDurationDays)
	}
	if p.PausedDays < 0 {
		return fmt.Errorf("paused_days cannot be negative (got %d)", p.PausedDays)
	}
	if !p.Status.IsValid() {
		return fmt.Errorf("invalid status: %s", p.Status)
	}
	if p.StartDate.IsZero() || p.EndDate.IsZero() {
		return fmt.Errorf("start_date and end_date are required")
	}
	if p.EndDate.Before(p.StartDate) {
		return fmt.Errorf("end_date %s is before start_date %s", p.EndDate, p.StartDate)
	}
	if err := p.CheckSpan(); err != nil {
		return err
	}
	return nil
}

// TotalFreezeCount returns the number of frozen days recorded on this phase.
func (p *Phase) TotalFreezeCount() int {
	return len(p.FreezeEntries)
}

// SpanDays returns the number of calendar days the phase should occupy:
// its immutable duration plus one day per freeze entry and pause day.
func (p *Phase) SpanDays() int {
	return p.OriginalDurationDays + p.TotalFreezeCount() + p.PausedDays
}

// CheckSpan verifies the duration invariant: the inclusive day count of
// [StartDate, EndDate] must equal SpanDays.
func (p *Phase) CheckSpan() error {
	got, err := dates.InclusiveDayCount(p.StartDate, p.EndDate)
	if err != nil {
		return err
	}
	if got != p.SpanDays() {
		return fmt.Errorf("phase %s spans %d days but duration %d + freezes %d + pauses %d requires %d",
			p.ID, got, p.OriginalDurationDays, p.TotalFreezeCount(), p.PausedDays, p.SpanDays())
	}
	return nil
}

// IsFrozen reports whether the given date already has a freeze entry.
func (p *Phase) IsFrozen(d dates.Date) bool {
	for _, e := range p.FreezeEntries {
		if e.FrozenDate.Equal(d) {
			return true
		}
	}
	return false
}

// EffectiveStatus derives the displayed status: an active phase whose end
// date has passed reads as completed. Completion is derived, never stored.
func (p *Phase) EffectiveStatus(today dates.Date) PhaseStatus {
	if p.Status == PhaseStatusActive && p.EndDate.Before(today) {
		return PhaseStatusCompleted
	}
	return p.Status
}

// SharesQuotaWith reports whether this phase draws freeze quota from the
// given purchase, either directly or through its parent-purchase link.
func (p *Phase) SharesQuotaWith(purchaseID string) bool {
	return p.PurchaseID == purchaseID || p.ParentPurchaseID == purchaseID
}

// PhaseStatus represents the current state of a phase
type PhaseStatus string

const (
	PhaseStatusActive    PhaseStatus = "active"
	PhaseStatusPaused    PhaseStatus = "paused"
	PhaseStatusCompleted PhaseStatus = "completed" // derived from end_date < today, never stored as a transition
	PhaseStatusCancelled PhaseStatus = "cancelled"
)

// IsValid checks if the phase status value is valid
func (s PhaseStatus) IsValid() bool {
	switch s {
	case PhaseStatusActive, PhaseStatusPaused, PhaseStatusCompleted, PhaseStatusCancelled:
		return true
	}
	return false
}

// ValidTransitions returns the stored-state transitions allowed from this
// status. Completed is a derived read, so it never appears as a target.
//
//	active ⇄ paused
//	active → cancelled, paused → cancelled
func (s PhaseStatus) ValidTransitions() []PhaseStatus {
	switch s {
	case PhaseStatusActive:
		return []PhaseStatus{PhaseStatusPaused, PhaseStatusCancelled}
	case PhaseStatusPaused:
		return []PhaseStatus{PhaseStatusActive, PhaseStatusCancelled}
	case PhaseStatusCompleted, PhaseStatusCancelled:
		return []PhaseStatus{} // Terminal
	default:
		return []PhaseStatus{}
	}
}

// CanTransitionTo checks if a transition from this status to the target is valid
func (s PhaseStatus) CanTransitionTo(target PhaseStatus) bool {
	for _, valid := range s.ValidTransitions() {
		if valid == target {
			return true
		}
	}
	return false
}

// FreezeEntry records one frozen day and the make-up day appended at the
// phase's tail. Appended dates are assigned in the order days were frozen.
type FreezeEntry struct {
	FrozenDate   dates.Date `json:"frozen_date"`
	AppendedDate dates.Date `json:"appended_date"`
	CreatedAt    time.Time  `json:"created_at"`
}

// SortChain orders phases by start date in place and returns the slice.
// The chain ordering is what contiguity and cascades are defined over.
func SortChain(chain []*Phase) []*Phase {
	sort.SliceStable(chain, func(i, j int) bool {
		return chain[i].StartDate.Before(chain[j].StartDate)
	})
	return chain
}

// CheckContiguity verifies the chain law: each phase ends exactly one day
// before the next begins. Cancelled phases are skipped, as they no longer
// occupy calendar space.
func CheckContiguity(chain []*Phase) error {
	var prev *Phase
	for _, p := range chain {
		if p.Status == PhaseStatusCancelled {
			continue
		}
		if prev != nil && !prev.EndDate.AddDays(1).Equal(p.StartDate) {
			return fmt.Errorf("chain gap between phase %s (ends %s) and phase %s (starts %s)",
				prev.ID, prev.EndDate, p.ID, p.StartDate)
		}
		prev = p
	}
	return nil
}
