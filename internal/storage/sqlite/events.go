package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/nutrisched/nutrisched/internal/events"
)

// GetPhaseEvents returns a phase's events, newest first.
func (s *SQLiteStorage) GetPhaseEvents(ctx context.Context, phaseID string, limit int) ([]*events.PhaseEvent, error) {
	if limit <= 0 {
		limit = 50
	}
	return s.queryEvents(ctx, `
		SELECT id, event_type, phase_id, purchase_id, client_id, message, data, created_at
		FROM phase_events WHERE phase_id = ?
		ORDER BY created_at DESC LIMIT ?
	`, phaseID, limit)
}

// GetRecentEvents returns the most recent events across all phases.
func (s *SQLiteStorage) GetRecentEvents(ctx context.Context, limit int) ([]*events.PhaseEvent, error) {
	if limit <= 0 {
		limit = 50
	}
	return s.queryEvents(ctx, `
		SELECT id, event_type, phase_id, purchase_id, client_id, message, data, created_at
		FROM phase_events
		ORDER BY created_at DESC LIMIT ?
	`, limit)
}

func (s *SQLiteStorage) queryEvents(ctx context.Context, query string, args ...interface{}) ([]*events.PhaseEvent, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query events: %w", err)
	}
	defer rows.Close()

	var result []*events.PhaseEvent
	for rows.Next() {
		var ev events.PhaseEvent
		var phaseID, purchaseID sql.NullString
		var data string
		if err := rows.Scan(&ev.ID, &ev.Type, &phaseID, &purchaseID, &ev.ClientID, &ev.Message, &data, &ev.Timestamp); err != nil {
			return nil, fmt.Errorf("failed to scan event: %w", err)
		}
		ev.PhaseID = phaseID.String
		ev.PurchaseID = purchaseID.String
		if data != "" {
			if err := json.Unmarshal([]byte(data), &ev.Data); err != nil {
				return nil, fmt.Errorf("failed to unmarshal event data: %w", err)
			}
		}
		result = append(result, &ev)
	}
	return result, rows.Err()
}
