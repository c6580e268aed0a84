package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
)

// ExpectedSchemaVersion is the latest schema version that the application expects.
// If the database cannot be migrated to this version, it's a fatal error.
const ExpectedSchemaVersion = 3

// Migration represents a database schema migration.
type Migration struct {
	Up          func(*sql.Tx) error
	Description string
	Version     int
}

var migrations = []Migration{
	{
		Version:     1,
		Description: "Initial schema: reward rules and cap usage",
		Up: func(tx *sql.Tx) error {
			queries := []string{
				`CREATE TABLE IF NOT EXISTS reward_rules (
					id TEXT PRIMARY KEY,
					card_type_id TEXT NOT NULL,
					name TEXT NOT NULL,
					priority INTEGER NOT NULL DEFAULT 1,
					seq INTEGER NOT NULL,
					enabled INTEGER NOT NULL DEFAULT 1,
					conditions TEXT NOT NULL DEFAULT '[]',
					reward TEXT NOT NULL,
					created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
					updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
				)`,
				`CREATE INDEX idx_reward_rules_card_type ON reward_rules(card_type_id)`,

				`CREATE TABLE IF NOT EXISTS cap_usage (
					user_id TEXT NOT NULL,
					scope_id TEXT NOT NULL,
					period_type TEXT NOT NULL,
					period_key TEXT NOT NULL,
					accumulated_value REAL NOT NULL DEFAULT 0,
					created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
					updated_at DATETIME DEFAULT CURRENT_TIMESTAMP,
					PRIMARY KEY (user_id, scope_id, period_type, period_key)
				)`,
			}

			for _, query := range queries {
				if _, err := tx.Exec(query); err != nil {
					return fmt.Errorf("failed to execute query: %w", err)
				}
			}
			return nil
		},
	},
	{
		Version:     2,
		Description: "Bonus points ledger",
		Up: func(tx *sql.Tx) error {
			queries := []string{
				`CREATE TABLE IF NOT EXISTS bonus_movements (
					id TEXT PRIMARY KEY,
					transaction_id TEXT NOT NULL,
					user_id TEXT NOT NULL,
					scope_id TEXT NOT NULL,
					period_type TEXT NOT NULL,
					period_key TEXT NOT NULL,
					bonus_points INTEGER NOT NULL,
					usage_delta REAL NOT NULL,
					created_at DATETIME DEFAULT CURRENT_TIMESTAMP
				)`,
				`CREATE INDEX idx_bonus_movements_transaction ON bonus_movements(transaction_id)`,
				`CREATE INDEX idx_bonus_movements_scope ON bonus_movements(user_id, scope_id, period_type, period_key)`,
			}

			for _, query := range queries {
				if _, err := tx.Exec(query); err != nil {
					return fmt.Errorf("failed to execute query: %w", err)
				}
			}
			return nil
		},
	},
	{
		Version:     3,
		Description: "Transaction history for backfill",
		Up: func(tx *sql.Tx) error {
			queries := []string{
				`CREATE TABLE IF NOT EXISTS transactions (
					id TEXT PRIMARY KEY,
					user_id TEXT NOT NULL,
					card_type_id TEXT NOT NULL,
					date DATETIME NOT NULL,
					amount REAL NOT NULL,
					currency TEXT NOT NULL,
					converted_amount REAL NOT NULL DEFAULT 0,
					converted_currency TEXT NOT NULL DEFAULT '',
					mcc TEXT NOT NULL DEFAULT '',
					merchant_name TEXT NOT NULL DEFAULT '',
					category TEXT NOT NULL DEFAULT '',
					is_online INTEGER NOT NULL DEFAULT 0,
					is_contactless INTEGER NOT NULL DEFAULT 0,
					created_at DATETIME DEFAULT CURRENT_TIMESTAMP
				)`,
				`CREATE INDEX idx_transactions_user_date ON transactions(user_id, date)`,
			}

			for _, query := range queries {
				if _, err := tx.Exec(query); err != nil {
					return fmt.Errorf("failed to execute query: %w", err)
				}
			}
			return nil
		},
	},
}

// Migrate applies all pending schema migrations.
func (s *SQLiteStorage) Migrate(ctx context.Context) error {
	if err := validateContext(ctx); err != nil {
		return err
	}

	var currentVersion int
	err := s.db.QueryRowContext(ctx, "PRAGMA user_version").Scan(&currentVersion)
	if err != nil {
		return fmt.Errorf("failed to get schema version: %w", err)
	}

	for _, migration := range migrations {
		if migration.Version <= currentVersion {
			continue
		}

		tx, txErr := s.db.BeginTx(ctx, nil)
		if txErr != nil {
			return fmt.Errorf("failed to begin transaction: %w", txErr)
		}

		if upErr := migration.Up(tx); upErr != nil {
			_ = tx.Rollback()
			return fmt.Errorf("migration %d failed: %w", migration.Version, upErr)
		}

		if _, execErr := tx.Exec(fmt.Sprintf("PRAGMA user_version = %d", migration.Version)); execErr != nil {
			_ = tx.Rollback()
			return fmt.Errorf("failed to update schema version: %w", execErr)
		}

		if commitErr := tx.Commit(); commitErr != nil {
			return fmt.Errorf("failed to commit migration %d: %w", migration.Version, commitErr)
		}

		slog.Info("Applied migration",
			"version", migration.Version,
			"description", migration.Description)
	}

	var finalVersion int
	err = s.db.QueryRowContext(ctx, "PRAGMA user_version").Scan(&finalVersion)
	if err != nil {
		return fmt.Errorf("failed to verify final schema version: %w", err)
	}

	if finalVersion != ExpectedSchemaVersion {
		return fmt.Errorf("database schema version mismatch: expected %d, got %d", ExpectedSchemaVersion, finalVersion)
	}

	return nil
}
