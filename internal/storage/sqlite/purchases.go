package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/nutrisched/nutrisched/internal/allowance"
	"github.com/nutrisched/nutrisched/internal/events"
	"github.com/nutrisched/nutrisched/internal/types"
)

// CreatePurchase inserts a purchase record and its events atomically.
func (s *SQLiteStorage) CreatePurchase(ctx context.Context, purchase *types.Purchase, evs []*events.PhaseEvent) error {
	if err := purchase.Validate(); err != nil {
		return fmt.Errorf("invalid purchase: %w", err)
	}

	return s.inTx(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO purchases (
				id, client_id, total_purchased_days, days_used, allowed_freeze_days,
				expected_start_date, expected_end_date, status, created_at, updated_at
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		`, purchase.ID, purchase.ClientID, purchase.TotalPurchasedDays, purchase.DaysUsed,
			purchase.AllowedFreezeDays, nullDate(purchase.ExpectedStartDate), nullDate(purchase.ExpectedEndDate),
			purchase.Status, purchase.CreatedAt, purchase.UpdatedAt)
		if err != nil {
			if isUniqueConstraintError(err) {
				return fmt.Errorf("purchase %s already exists", purchase.ID)
			}
			return fmt.Errorf("failed to insert purchase: %w", err)
		}
		return insertEvents(ctx, tx, evs)
	})
}

// GetPurchase retrieves a purchase by ID.
func (s *SQLiteStorage) GetPurchase(ctx context.Context, id string) (*types.Purchase, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, client_id, total_purchased_days, days_used, allowed_freeze_days,
		       expected_start_date, expected_end_date, status, created_at, updated_at
		FROM purchases WHERE id = ?
	`, id)

	purchase, err := scanPurchase(row)
	if err == sql.ErrNoRows {
		return nil, &types.NotFoundError{Kind: "purchase", ID: id}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get purchase: %w", err)
	}
	return purchase, nil
}

// ListPurchases returns a client's purchases, newest first.
func (s *SQLiteStorage) ListPurchases(ctx context.Context, clientID string) ([]*types.Purchase, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, client_id, total_purchased_days, days_used, allowed_freeze_days,
		       expected_start_date, expected_end_date, status, created_at, updated_at
		FROM purchases WHERE client_id = ?
		ORDER BY created_at DESC
	`, clientID)
	if err != nil {
		return nil, fmt.Errorf("failed to list purchases: %w", err)
	}
	defer rows.Close()

	var purchases []*types.Purchase
	for rows.Next() {
		purchase, err := scanPurchase(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan purchase: %w", err)
		}
		purchases = append(purchases, purchase)
	}
	return purchases, rows.Err()
}

// UpdatePurchaseStatus sets a purchase's status.
func (s *SQLiteStorage) UpdatePurchaseStatus(ctx context.Context, id string, status types.PurchaseStatus) error {
	if !status.IsValid() {
		return fmt.Errorf("invalid purchase status: %s", status)
	}

	result, err := s.db.ExecContext(ctx, `
		UPDATE purchases SET status = ?, updated_at = ? WHERE id = ?
	`, status, touch(), id)
	if err != nil {
		return fmt.Errorf("failed to update purchase status: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return &types.NotFoundError{Kind: "purchase", ID: id}
	}
	return nil
}

// consumeAllowance increments days_used inside a command transaction. The
// WHERE clause guards the balance so concurrent phase creation can never
// push days_used past the purchased total. When the guard rejects the
// update, the balance error comes from allowance.Commit on the re-read row,
// keeping one source of truth for the exceeded-allowance shape.
func consumeAllowance(ctx context.Context, tx *sql.Tx, purchaseID string, days int) error {
	result, err := tx.ExecContext(ctx, `
		UPDATE purchases
		SET days_used = days_used + ?, updated_at = ?
		WHERE id = ? AND status = 'active' AND days_used + ? <= total_purchased_days
	`, days, touch(), purchaseID, days)
	if err != nil {
		return fmt.Errorf("failed to consume allowance: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		// Either the purchase is missing/inactive or the balance is short;
		// re-read to report which
		var total, used int
		var status types.PurchaseStatus
		err := tx.QueryRowContext(ctx, `
			SELECT total_purchased_days, days_used, status FROM purchases WHERE id = ?
		`, purchaseID).Scan(&total, &used, &status)
		if err == sql.ErrNoRows {
			return &types.NotFoundError{Kind: "purchase", ID: purchaseID}
		}
		if err != nil {
			return fmt.Errorf("failed to check purchase balance: %w", err)
		}
		if status != types.PurchaseStatusActive {
			return fmt.Errorf("purchase %s is not active (status: %s)", purchaseID, status)
		}
		p := &types.Purchase{
			ID:                 purchaseID,
			TotalPurchasedDays: total,
			DaysUsed:           used,
			Status:             status,
		}
		if err := allowance.Commit(p, days); err != nil {
			return err
		}
		// The guarded UPDATE matched no row yet the in-memory balance says
		// the days fit; the purchase changed under us
		return fmt.Errorf("purchase %s balance changed concurrently", purchaseID)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanPurchase(row rowScanner) (*types.Purchase, error) {
	var p types.Purchase
	var expectedStart, expectedEnd sql.NullString

	err := row.Scan(&p.ID, &p.ClientID, &p.TotalPurchasedDays, &p.DaysUsed, &p.AllowedFreezeDays,
		&expectedStart, &expectedEnd, &p.Status, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}

	if p.ExpectedStartDate, err = parseNullDate(expectedStart); err != nil {
		return nil, err
	}
	if p.ExpectedEndDate, err = parseNullDate(expectedEnd); err != nil {
		return nil, err
	}
	return &p, nil
}
