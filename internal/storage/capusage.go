package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/mhutchins/pointflow/internal/common"
	"github.com/mhutchins/pointflow/internal/model"
)

// GetCapUsage reads one usage record. Returns common.ErrNotFound when no
// transaction has consumed the scope's cap in this period yet.
func (s *SQLiteStorage) GetCapUsage(ctx context.Context, userID, scopeID string, periodType model.PeriodType, period model.PeriodKey) (*model.CapUsageRecord, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateUsageKey(userID, scopeID); err != nil {
		return nil, err
	}

	record := model.CapUsageRecord{
		UserID:     userID,
		ScopeID:    scopeID,
		PeriodType: periodType,
		Period:     period,
	}

	err := s.db.QueryRowContext(ctx, `
		SELECT accumulated_value, created_at, updated_at
		FROM cap_usage
		WHERE user_id = ? AND scope_id = ? AND period_type = ? AND period_key = ?`,
		userID, scopeID, string(periodType), period.String(),
	).Scan(&record.AccumulatedValue, &record.CreatedAt, &record.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("cap usage %s/%s/%s: %w", userID, scopeID, period, common.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to read cap usage: %w", err)
	}

	return &record, nil
}

// SaveCapUsage writes a usage record with optimistic concurrency: the
// write succeeds only if the stored accumulated value still equals
// expectedValue. A record that does not exist yet has expected value 0
// and is inserted. On mismatch the caller gets common.ErrUsageConflict
// and must re-read, recompute the clamp, and try again; without this
// check two concurrent submissions could both read the same usage and
// together overshoot the cap.
func (s *SQLiteStorage) SaveCapUsage(ctx context.Context, record *model.CapUsageRecord, expectedValue float64) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if record == nil {
		return fmt.Errorf("%w: record", ErrNilParameter)
	}
	if err := validateUsageKey(record.UserID, record.ScopeID); err != nil {
		return err
	}

	result, err := s.db.ExecContext(ctx, `
		UPDATE cap_usage
		SET accumulated_value = ?, updated_at = CURRENT_TIMESTAMP
		WHERE user_id = ? AND scope_id = ? AND period_type = ? AND period_key = ?
			AND accumulated_value = ?`,
		record.AccumulatedValue,
		record.UserID, record.ScopeID, string(record.PeriodType), record.Period.String(),
		expectedValue,
	)
	if err != nil {
		return fmt.Errorf("failed to update cap usage: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check cap usage update: %w", err)
	}
	if rows > 0 {
		return nil
	}

	// No row updated: either the record is new, or someone else moved
	// the accumulated value since we read it.
	if expectedValue == 0 {
		_, err = s.db.ExecContext(ctx, `
			INSERT INTO cap_usage (user_id, scope_id, period_type, period_key, accumulated_value)
			VALUES (?, ?, ?, ?, ?)`,
			record.UserID, record.ScopeID, string(record.PeriodType), record.Period.String(),
			record.AccumulatedValue,
		)
		if err == nil {
			return nil
		}
		// Insert raced with another writer; fall through to conflict.
	}

	return fmt.Errorf("cap usage %s/%s/%s: %w", record.UserID, record.ScopeID, record.Period, common.ErrUsageConflict)
}

// AdjustCapUsage applies a signed delta atomically. Ledger reversal uses
// this with the movement's recorded amount; the accumulated value is
// floored at zero so a double reversal cannot drive usage negative.
func (s *SQLiteStorage) AdjustCapUsage(ctx context.Context, userID, scopeID string, periodType model.PeriodType, period model.PeriodKey, delta float64) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateUsageKey(userID, scopeID); err != nil {
		return err
	}

	result, err := s.db.ExecContext(ctx, `
		UPDATE cap_usage
		SET accumulated_value = MAX(0, accumulated_value + ?), updated_at = CURRENT_TIMESTAMP
		WHERE user_id = ? AND scope_id = ? AND period_type = ? AND period_key = ?`,
		delta, userID, scopeID, string(periodType), period.String(),
	)
	if err != nil {
		return fmt.Errorf("failed to adjust cap usage: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check cap usage adjustment: %w", err)
	}
	if rows == 0 {
		if delta > 0 {
			_, err = s.db.ExecContext(ctx, `
				INSERT INTO cap_usage (user_id, scope_id, period_type, period_key, accumulated_value)
				VALUES (?, ?, ?, ?, ?)`,
				userID, scopeID, string(periodType), period.String(), delta)
			if err != nil {
				return fmt.Errorf("failed to create cap usage record: %w", err)
			}
			return nil
		}
		return fmt.Errorf("cap usage %s/%s/%s: %w", userID, scopeID, period, common.ErrNotFound)
	}
	return nil
}

// ListCapUsage returns all of a user's usage records.
func (s *SQLiteStorage) ListCapUsage(ctx context.Context, userID string) ([]model.CapUsageRecord, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(userID, "userID"); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT user_id, scope_id, period_type, period_key, accumulated_value, created_at, updated_at
		FROM cap_usage
		WHERE user_id = ?
		ORDER BY scope_id, period_key`,
		userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list cap usage: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var records []model.CapUsageRecord
	for rows.Next() {
		var record model.CapUsageRecord
		var periodType, periodKey string
		if err := rows.Scan(&record.UserID, &record.ScopeID, &periodType, &periodKey,
			&record.AccumulatedValue, &record.CreatedAt, &record.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan cap usage: %w", err)
		}
		record.PeriodType = model.PeriodType(periodType)
		record.Period, err = model.ParsePeriodKey(periodKey)
		if err != nil {
			return nil, err
		}
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate cap usage: %w", err)
	}
	return records, nil
}

// WipeCapUsage deletes all of a user's usage records. Only backfill
// calls this, immediately before replaying the transaction history.
func (s *SQLiteStorage) WipeCapUsage(ctx context.Context, userID string) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateString(userID, "userID"); err != nil {
		return err
	}

	if _, err := s.db.ExecContext(ctx, "DELETE FROM cap_usage WHERE user_id = ?", userID); err != nil {
		return fmt.Errorf("failed to wipe cap usage for user %s: %w", userID, err)
	}
	return nil
}
