package storage

import (
	"context"

	"github.com/nutrisched/nutrisched/internal/events"
	"github.com/nutrisched/nutrisched/internal/storage/sqlite"
	"github.com/nutrisched/nutrisched/internal/types"
)

// Storage defines the interface for scheduling persistence backends.
//
// Every mutating method that accepts an event list executes as one atomic
// unit: the record writes and the event rows commit together or not at all.
// In particular SavePhases persists a whole extend cascade in a single
// transaction, so a partial cascade can never be observed.
type Storage interface {
	// Purchases
	CreatePurchase(ctx context.Context, purchase *types.Purchase, evs []*events.PhaseEvent) error
	GetPurchase(ctx context.Context, id string) (*types.Purchase, error)
	ListPurchases(ctx context.Context, clientID string) ([]*types.Purchase, error)
	UpdatePurchaseStatus(ctx context.Context, id string, status types.PurchaseStatus) error

	// Phases
	// CreatePhase inserts the phase and consumes its duration from the
	// purchase's day balance in the same transaction. The balance update
	// is guarded: it fails with AllowanceExceededError if the purchase
	// cannot cover the phase's duration.
	CreatePhase(ctx context.Context, phase *types.Phase, evs []*events.PhaseEvent) error
	GetPhase(ctx context.Context, id string) (*types.Phase, error)
	// GetChain returns all of a client's phases ordered by start date,
	// with freeze entries loaded.
	GetChain(ctx context.Context, clientID string) ([]*types.Phase, error)
	// SavePhases rewrites the given phases (dates, status, pause days,
	// freeze entries) in one transaction.
	SavePhases(ctx context.Context, phases []*types.Phase, evs []*events.PhaseEvent) error
	SetPhaseStatus(ctx context.Context, id string, status types.PhaseStatus, evs []*events.PhaseEvent) error
	DeletePhase(ctx context.Context, id string, evs []*events.PhaseEvent) error

	// Events
	GetPhaseEvents(ctx context.Context, phaseID string, limit int) ([]*events.PhaseEvent, error)
	GetRecentEvents(ctx context.Context, limit int) ([]*events.PhaseEvent, error)

	// Lifecycle
	Close() error
}

// Config holds database configuration
type Config struct {
	// Path is the SQLite database file path
	// Default: ".nutrisched/nutrisched.db"
	Path string
}

// DefaultConfig returns a config with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Path: ".nutrisched/nutrisched.db",
	}
}

// NewStorage creates a new SQLite storage backend
func NewStorage(ctx context.Context, cfg *Config) (Storage, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if cfg.Path == "" {
		cfg.Path = ".nutrisched/nutrisched.db"
	}
	return sqlite.New(cfg.Path)
}
