package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/nutrisched/nutrisched/internal/dates"
	"github.com/nutrisched/nutrisched/internal/events"
	"github.com/nutrisched/nutrisched/internal/types"
)

// CreatePhase inserts the phase, its freeze entries, and its events, and
// consumes the phase's duration from the funding purchase - all in one
// transaction. The allowance update is guarded at the SQL level, so a
// concurrent create against the same purchase cannot overdraw it.
func (s *SQLiteStorage) CreatePhase(ctx context.Context, phase *types.Phase, evs []*events.PhaseEvent) error {
	if err := phase.Validate(); err != nil {
		return fmt.Errorf("invalid phase: %w", err)
	}

	return s.inTx(ctx, func(tx *sql.Tx) error {
		if err := consumeAllowance(ctx, tx, phase.PurchaseID, phase.OriginalDurationDays); err != nil {
			return err
		}

		_, err := tx.ExecContext(ctx, `
			INSERT INTO phases (
				id, purchase_id, parent_purchase_id, client_id, title,
				start_date, end_date, original_duration_days, paused_days,
				status, created_at, updated_at
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		`, phase.ID, phase.PurchaseID, nullString(phase.ParentPurchaseID), phase.ClientID, phase.Title,
			phase.StartDate, phase.EndDate, phase.OriginalDurationDays, phase.PausedDays,
			phase.Status, phase.CreatedAt, phase.UpdatedAt)
		if err != nil {
			if isUniqueConstraintError(err) {
				return fmt.Errorf("phase %s already exists", phase.ID)
			}
			return fmt.Errorf("failed to insert phase: %w", err)
		}

		if err := replaceFreezeEntries(ctx, tx, phase); err != nil {
			return err
		}
		return insertEvents(ctx, tx, evs)
	})
}

// GetPhase retrieves a phase by ID with its freeze entries loaded.
func (s *SQLiteStorage) GetPhase(ctx context.Context, id string) (*types.Phase, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, purchase_id, parent_purchase_id, client_id, title,
		       start_date, end_date, original_duration_days, paused_days,
		       status, created_at, updated_at
		FROM phases WHERE id = ?
	`, id)

	phase, err := scanPhase(row)
	if err == sql.ErrNoRows {
		return nil, &types.NotFoundError{Kind: "phase", ID: id}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get phase: %w", err)
	}

	if err := s.loadFreezeEntries(ctx, phase); err != nil {
		return nil, err
	}
	return phase, nil
}

// GetChain returns all of a client's phases ordered by start date, with
// freeze entries loaded.
func (s *SQLiteStorage) GetChain(ctx context.Context, clientID string) ([]*types.Phase, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, purchase_id, parent_purchase_id, client_id, title,
		       start_date, end_date, original_duration_days, paused_days,
		       status, created_at, updated_at
		FROM phases WHERE client_id = ?
		ORDER BY start_date
	`, clientID)
	if err != nil {
		return nil, fmt.Errorf("failed to get chain: %w", err)
	}
	defer rows.Close()

	var chain []*types.Phase
	for rows.Next() {
		phase, err := scanPhase(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan phase: %w", err)
		}
		chain = append(chain, phase)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for _, phase := range chain {
		if err := s.loadFreezeEntries(ctx, phase); err != nil {
			return nil, err
		}
	}
	return chain, nil
}

// SavePhases rewrites the given phases in one transaction. Used for every
// multi-record mutation: pause, freeze/unfreeze, and the extend cascade.
// Either every phase in the batch is updated or none are.
func (s *SQLiteStorage) SavePhases(ctx context.Context, phases []*types.Phase, evs []*events.PhaseEvent) error {
	for _, phase := range phases {
		if err := phase.Validate(); err != nil {
			return fmt.Errorf("invalid phase %s: %w", phase.ID, err)
		}
	}

	return s.inTx(ctx, func(tx *sql.Tx) error {
		for _, phase := range phases {
			result, err := tx.ExecContext(ctx, `
				UPDATE phases
				SET start_date = ?, end_date = ?, paused_days = ?, status = ?, title = ?, updated_at = ?
				WHERE id = ?
			`, phase.StartDate, phase.EndDate, phase.PausedDays, phase.Status, phase.Title, touch(), phase.ID)
			if err != nil {
				return fmt.Errorf("failed to update phase %s: %w", phase.ID, err)
			}
			rows, err := result.RowsAffected()
			if err != nil {
				return fmt.Errorf("failed to get rows affected: %w", err)
			}
			if rows == 0 {
				return &types.NotFoundError{Kind: "phase", ID: phase.ID}
			}
			if err := replaceFreezeEntries(ctx, tx, phase); err != nil {
				return err
			}
		}
		return insertEvents(ctx, tx, evs)
	})
}

// SetPhaseStatus updates only a phase's stored status.
func (s *SQLiteStorage) SetPhaseStatus(ctx context.Context, id string, status types.PhaseStatus, evs []*events.PhaseEvent) error {
	if !status.IsValid() {
		return fmt.Errorf("invalid phase status: %s", status)
	}

	return s.inTx(ctx, func(tx *sql.Tx) error {
		result, err := tx.ExecContext(ctx, `
			UPDATE phases SET status = ?, updated_at = ? WHERE id = ?
		`, status, touch(), id)
		if err != nil {
			return fmt.Errorf("failed to update phase status: %w", err)
		}
		rows, err := result.RowsAffected()
		if err != nil {
			return fmt.Errorf("failed to get rows affected: %w", err)
		}
		if rows == 0 {
			return &types.NotFoundError{Kind: "phase", ID: id}
		}
		return insertEvents(ctx, tx, evs)
	})
}

// DeletePhase removes a phase and its freeze entries. The purchase's
// days_used is deliberately left untouched: deletion does not refund days.
func (s *SQLiteStorage) DeletePhase(ctx context.Context, id string, evs []*events.PhaseEvent) error {
	return s.inTx(ctx, func(tx *sql.Tx) error {
		result, err := tx.ExecContext(ctx, `DELETE FROM phases WHERE id = ?`, id)
		if err != nil {
			return fmt.Errorf("failed to delete phase: %w", err)
		}
		rows, err := result.RowsAffected()
		if err != nil {
			return fmt.Errorf("failed to get rows affected: %w", err)
		}
		if rows == 0 {
			return &types.NotFoundError{Kind: "phase", ID: id}
		}
		return insertEvents(ctx, tx, evs)
	})
}

// replaceFreezeEntries rewrites a phase's freeze entry rows to mirror the
// in-memory ledger.
func replaceFreezeEntries(ctx context.Context, tx *sql.Tx, phase *types.Phase) error {
	if _, err := tx.ExecContext(ctx, `DELETE FROM freeze_entries WHERE phase_id = ?`, phase.ID); err != nil {
		return fmt.Errorf("failed to clear freeze entries: %w", err)
	}
	for _, e := range phase.FreezeEntries {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO freeze_entries (phase_id, frozen_date, appended_date, created_at)
			VALUES (?, ?, ?, ?)
		`, phase.ID, e.FrozenDate, e.AppendedDate, e.CreatedAt)
		if err != nil {
			return fmt.Errorf("failed to insert freeze entry: %w", err)
		}
	}
	return nil
}

// loadFreezeEntries populates a phase's ledger, ordered by appended date so
// the slice reflects the order days were frozen.
func (s *SQLiteStorage) loadFreezeEntries(ctx context.Context, phase *types.Phase) error {
	rows, err := s.db.QueryContext(ctx, `
		SELECT frozen_date, appended_date, created_at
		FROM freeze_entries WHERE phase_id = ?
		ORDER BY appended_date
	`, phase.ID)
	if err != nil {
		return fmt.Errorf("failed to load freeze entries: %w", err)
	}
	defer rows.Close()

	phase.FreezeEntries = nil
	for rows.Next() {
		var e types.FreezeEntry
		if err := rows.Scan(&e.FrozenDate, &e.AppendedDate, &e.CreatedAt); err != nil {
			return fmt.Errorf("failed to scan freeze entry: %w", err)
		}
		phase.FreezeEntries = append(phase.FreezeEntries, e)
	}
	return rows.Err()
}

func scanPhase(row rowScanner) (*types.Phase, error) {
	var p types.Phase
	var parentPurchase sql.NullString

	err := row.Scan(&p.ID, &p.PurchaseID, &parentPurchase, &p.ClientID, &p.Title,
		&p.StartDate, &p.EndDate, &p.OriginalDurationDays, &p.PausedDays,
		&p.Status, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	p.ParentPurchaseID = parentPurchase.String
	return &p, nil
}

func nullDate(d *dates.Date) interface{} {
	if d == nil {
		return nil
	}
	return d.String()
}

func parseNullDate(s sql.NullString) (*dates.Date, error) {
	if !s.Valid || s.String == "" {
		return nil, nil
	}
	d, err := dates.ParseISO(s.String)
	if err != nil {
		return nil, fmt.Errorf("failed to parse stored date: %w", err)
	}
	return &d, nil
}
