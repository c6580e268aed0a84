package storage

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/mhutchins/pointflow/internal/model"
)

// RecordMovement appends one ledger entry. Movement IDs are
// deterministic per transaction/scope, so re-recording after a reverse
// replaces rather than duplicates.
func (s *SQLiteStorage) RecordMovement(ctx context.Context, movement *model.BonusPointsMovement) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if movement == nil {
		return fmt.Errorf("%w: movement", ErrNilParameter)
	}
	if err := validateString(movement.TransactionID, "transactionID"); err != nil {
		return err
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO bonus_movements
			(id, transaction_id, user_id, scope_id, period_type, period_key, bonus_points, usage_delta)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		movement.ID, movement.TransactionID, movement.UserID, movement.ScopeID,
		string(movement.PeriodType), movement.Period.String(),
		movement.BonusPoints, movement.UsageDelta,
	)
	if err != nil {
		return fmt.Errorf("failed to record movement %s: %w", movement.ID, err)
	}
	return nil
}

// MovementsForTransaction returns every ledger entry a transaction produced.
func (s *SQLiteStorage) MovementsForTransaction(ctx context.Context, transactionID string) ([]model.BonusPointsMovement, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(transactionID, "transactionID"); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, transaction_id, user_id, scope_id, period_type, period_key,
			bonus_points, usage_delta, created_at
		FROM bonus_movements
		WHERE transaction_id = ?
		ORDER BY id`,
		transactionID)
	if err != nil {
		return nil, fmt.Errorf("failed to query movements for transaction %s: %w", transactionID, err)
	}
	defer func() { _ = rows.Close() }()

	return collectMovements(rows)
}

// DeleteMovementsForTransaction removes a transaction's ledger entries.
// Callers reverse the cap usage deltas first; deleting without reversing
// leaks cap consumption.
func (s *SQLiteStorage) DeleteMovementsForTransaction(ctx context.Context, transactionID string) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateString(transactionID, "transactionID"); err != nil {
		return err
	}

	if _, err := s.db.ExecContext(ctx,
		"DELETE FROM bonus_movements WHERE transaction_id = ?", transactionID); err != nil {
		return fmt.Errorf("failed to delete movements for transaction %s: %w", transactionID, err)
	}
	return nil
}

// TotalForScope sums recorded bonus points for one scope and period.
func (s *SQLiteStorage) TotalForScope(ctx context.Context, userID, scopeID string, periodType model.PeriodType, period model.PeriodKey) (int64, error) {
	if err := validateContext(ctx); err != nil {
		return 0, err
	}
	if err := validateUsageKey(userID, scopeID); err != nil {
		return 0, err
	}

	var total sql.NullInt64
	err := s.db.QueryRowContext(ctx, `
		SELECT SUM(bonus_points)
		FROM bonus_movements
		WHERE user_id = ? AND scope_id = ? AND period_type = ? AND period_key = ?`,
		userID, scopeID, string(periodType), period.String(),
	).Scan(&total)
	if err != nil {
		return 0, fmt.Errorf("failed to total movements: %w", err)
	}
	return total.Int64, nil
}

// ListMovements returns all of a user's ledger entries in insertion order.
func (s *SQLiteStorage) ListMovements(ctx context.Context, userID string) ([]model.BonusPointsMovement, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(userID, "userID"); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, transaction_id, user_id, scope_id, period_type, period_key,
			bonus_points, usage_delta, created_at
		FROM bonus_movements
		WHERE user_id = ?
		ORDER BY rowid`,
		userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list movements: %w", err)
	}
	defer func() { _ = rows.Close() }()

	return collectMovements(rows)
}

// WipeMovements deletes all of a user's ledger entries for backfill.
func (s *SQLiteStorage) WipeMovements(ctx context.Context, userID string) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateString(userID, "userID"); err != nil {
		return err
	}

	if _, err := s.db.ExecContext(ctx,
		"DELETE FROM bonus_movements WHERE user_id = ?", userID); err != nil {
		return fmt.Errorf("failed to wipe movements for user %s: %w", userID, err)
	}
	return nil
}

func collectMovements(rows *sql.Rows) ([]model.BonusPointsMovement, error) {
	var movements []model.BonusPointsMovement
	for rows.Next() {
		var m model.BonusPointsMovement
		var periodType, periodKey string
		if err := rows.Scan(&m.ID, &m.TransactionID, &m.UserID, &m.ScopeID,
			&periodType, &periodKey, &m.BonusPoints, &m.UsageDelta, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan movement: %w", err)
		}
		m.PeriodType = model.PeriodType(periodType)
		period, err := model.ParsePeriodKey(periodKey)
		if err != nil {
			return nil, err
		}
		m.Period = period
		movements = append(movements, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate movements: %w", err)
	}
	return movements, nil
}
