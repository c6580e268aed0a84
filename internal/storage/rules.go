package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/mhutchins/pointflow/internal/common"
	"github.com/mhutchins/pointflow/internal/model"
)

const ruleColumns = `id, card_type_id, name, priority, seq, enabled, conditions, reward, created_at, updated_at`

// CreateRule inserts a rule into the catalog, assigning it the next
// sequence number. Seq is what makes the equal-priority tie-break
// stable: first-declared rules keep winning no matter how the store
// returns rows.
func (s *SQLiteStorage) CreateRule(ctx context.Context, rule *model.RewardRule) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateRule(rule); err != nil {
		return err
	}

	conditions, err := model.EncodeConditions(rule.Conditions)
	if err != nil {
		return err
	}
	reward, err := json.Marshal(rule.Reward)
	if err != nil {
		return fmt.Errorf("failed to encode reward spec: %w", err)
	}

	var maxSeq sql.NullInt64
	if err := s.db.QueryRowContext(ctx, "SELECT MAX(seq) FROM reward_rules").Scan(&maxSeq); err != nil {
		return fmt.Errorf("failed to determine rule sequence: %w", err)
	}
	rule.Seq = int(maxSeq.Int64) + 1

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO reward_rules (id, card_type_id, name, priority, seq, enabled, conditions, reward)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		rule.ID, rule.CardTypeID, rule.Name, rule.Priority, rule.Seq,
		rule.Enabled, string(conditions), string(reward),
	)
	if err != nil {
		return fmt.Errorf("failed to create rule %s: %w", rule.ID, err)
	}

	rule.CreatedAt = time.Now()
	rule.UpdatedAt = rule.CreatedAt
	return nil
}

// UpdateRule replaces a rule's definition, keeping its sequence number.
func (s *SQLiteStorage) UpdateRule(ctx context.Context, rule *model.RewardRule) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateRule(rule); err != nil {
		return err
	}

	conditions, err := model.EncodeConditions(rule.Conditions)
	if err != nil {
		return err
	}
	reward, err := json.Marshal(rule.Reward)
	if err != nil {
		return fmt.Errorf("failed to encode reward spec: %w", err)
	}

	result, err := s.db.ExecContext(ctx, `
		UPDATE reward_rules
		SET card_type_id = ?, name = ?, priority = ?, enabled = ?,
			conditions = ?, reward = ?, updated_at = CURRENT_TIMESTAMP
		WHERE id = ?`,
		rule.CardTypeID, rule.Name, rule.Priority, rule.Enabled,
		string(conditions), string(reward), rule.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update rule %s: %w", rule.ID, err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check update result: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("rule %s: %w", rule.ID, common.ErrNotFound)
	}
	return nil
}

// DeleteRule removes a rule from the catalog.
func (s *SQLiteStorage) DeleteRule(ctx context.Context, id string) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateString(id, "id"); err != nil {
		return err
	}

	result, err := s.db.ExecContext(ctx, "DELETE FROM reward_rules WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete rule %s: %w", id, err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check delete result: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("rule %s: %w", id, common.ErrNotFound)
	}
	return nil
}

// SetRuleEnabled toggles a rule without touching its definition.
func (s *SQLiteStorage) SetRuleEnabled(ctx context.Context, id string, enabled bool) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateString(id, "id"); err != nil {
		return err
	}

	result, err := s.db.ExecContext(ctx,
		"UPDATE reward_rules SET enabled = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?",
		enabled, id)
	if err != nil {
		return fmt.Errorf("failed to toggle rule %s: %w", id, err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check toggle result: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("rule %s: %w", id, common.ErrNotFound)
	}
	return nil
}

// GetRule retrieves a single rule by ID.
func (s *SQLiteStorage) GetRule(ctx context.Context, id string) (*model.RewardRule, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(id, "id"); err != nil {
		return nil, err
	}

	row := s.db.QueryRowContext(ctx,
		"SELECT "+ruleColumns+" FROM reward_rules WHERE id = ?", id)
	rule, err := scanRule(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("rule %s: %w", id, common.ErrNotFound)
		}
		return nil, err
	}
	return rule, nil
}

// GetRulesForCardType returns a card type's rules in catalog order.
func (s *SQLiteStorage) GetRulesForCardType(ctx context.Context, cardTypeID string) ([]model.RewardRule, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(cardTypeID, "cardTypeID"); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx,
		"SELECT "+ruleColumns+" FROM reward_rules WHERE card_type_id = ? ORDER BY seq ASC",
		cardTypeID)
	if err != nil {
		return nil, fmt.Errorf("failed to query rules for card type %s: %w", cardTypeID, err)
	}
	defer func() { _ = rows.Close() }()

	return collectRules(rows)
}

// ListRules returns the entire catalog in declaration order.
func (s *SQLiteStorage) ListRules(ctx context.Context) ([]model.RewardRule, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx,
		"SELECT "+ruleColumns+" FROM reward_rules ORDER BY seq ASC")
	if err != nil {
		return nil, fmt.Errorf("failed to list rules: %w", err)
	}
	defer func() { _ = rows.Close() }()

	return collectRules(rows)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRule(row rowScanner) (*model.RewardRule, error) {
	var rule model.RewardRule
	var conditionsJSON, rewardJSON string

	err := row.Scan(
		&rule.ID, &rule.CardTypeID, &rule.Name, &rule.Priority, &rule.Seq,
		&rule.Enabled, &conditionsJSON, &rewardJSON, &rule.CreatedAt, &rule.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	rule.Conditions, err = model.DecodeConditions([]byte(conditionsJSON))
	if err != nil {
		return nil, fmt.Errorf("rule %s has malformed conditions: %w", rule.ID, err)
	}
	if err := json.Unmarshal([]byte(rewardJSON), &rule.Reward); err != nil {
		return nil, fmt.Errorf("rule %s has malformed reward spec: %w", rule.ID, err)
	}
	return &rule, nil
}

func collectRules(rows *sql.Rows) ([]model.RewardRule, error) {
	var rules []model.RewardRule
	for rows.Next() {
		rule, err := scanRule(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan rule: %w", err)
		}
		rules = append(rules, *rule)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate rules: %w", err)
	}
	return rules, nil
}
