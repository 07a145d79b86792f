package types

import (
	"fmt"

	"github.com/nutrisched/nutrisched/internal/dates"
)

// Scheduling failures are surfaced synchronously with enough context for a
// caller to render a message: the conflicting phase, the next available
// start, the remaining quota. All are matchable with errors.As.

// AllowanceExceededError reports a phase request larger than the purchase's
// remaining day balance.
type AllowanceExceededError struct {
	PurchaseID    string
	RequestedDays int
	RemainingDays int
}

func (e *AllowanceExceededError) Error() string {
	return fmt.Sprintf("purchase %s has %d days remaining, cannot afford %d",
		e.PurchaseID, e.RemainingDays, e.RequestedDays)
}

// OutOfWindowError reports a start date outside the purchase's expected window.
type OutOfWindowError struct {
	Start       dates.Date
	WindowStart dates.Date
	WindowEnd   dates.Date
}

func (e *OutOfWindowError) Error() string {
	return fmt.Sprintf("start date %s is outside the expected window [%s, %s]",
		e.Start, e.WindowStart, e.WindowEnd)
}

// OverlapError reports a candidate range intersecting an existing phase.
// NextAvailableStart is the first day after the conflicting phase ends.
type OverlapError struct {
	ConflictPhaseID    string
	ConflictStart      dates.Date
	ConflictEnd        dates.Date
	NextAvailableStart dates.Date
}

func (e *OverlapError) Error() string {
	return fmt.Sprintf("overlaps phase %s (%s to %s); next available start is %s",
		e.ConflictPhaseID, e.ConflictStart, e.ConflictEnd, e.NextAvailableStart)
}

// InvalidDateError reports a freeze date that is outside the phase range,
// in the past, or already frozen.
type InvalidDateError struct {
	Date   dates.Date
	Reason string
}

func (e *InvalidDateError) Error() string {
	return fmt.Sprintf("invalid date %s: %s", e.Date, e.Reason)
}

// QuotaExceededError reports a freeze request larger than the remaining
// freeze-day quota.
type QuotaExceededError struct {
	RequestedDays int
	RemainingDays int
}

func (e *QuotaExceededError) Error() string {
	return fmt.Sprintf("freeze quota exceeded: %d days requested, %d remaining",
		e.RequestedDays, e.RemainingDays)
}

// NotFrozenError reports an unfreeze of a date with no freeze entry.
type NotFrozenError struct {
	Date dates.Date
}

func (e *NotFrozenError) Error() string {
	return fmt.Sprintf("date %s is not frozen", e.Date)
}

// NotFoundError reports a missing purchase or phase record.
type NotFoundError struct {
	Kind string // "purchase" or "phase"
	ID   string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Kind, e.ID)
}
