package storage

import (
	"context"
	"fmt"

	"github.com/mhutchins/pointflow/internal/model"
)

// SaveTransactions stores committed transaction contexts for later
// backfill. Transaction CRUD beyond this append lives outside the
// engine; this table only exists so backfill has a history to replay.
func (s *SQLiteStorage) SaveTransactions(ctx context.Context, transactions []model.TransactionContext) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateTransactions(transactions); err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT OR REPLACE INTO transactions
			(id, user_id, card_type_id, date, amount, currency,
			converted_amount, converted_currency, mcc, merchant_name,
			category, is_online, is_contactless)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	for _, txn := range transactions {
		_, err := stmt.ExecContext(ctx,
			txn.TransactionID, txn.UserID, txn.CardTypeID, txn.Date,
			txn.Amount, txn.Currency, txn.ConvertedAmount, txn.ConvertedCurrency,
			txn.MCC, txn.MerchantName, txn.Category, txn.IsOnline, txn.IsContactless)
		if err != nil {
			return fmt.Errorf("failed to save transaction %s: %w", txn.TransactionID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transactions: %w", err)
	}
	return nil
}

// ListUserTransactions returns a user's transactions ordered by date
// ascending with ties broken by ID, the only order backfill may replay in.
func (s *SQLiteStorage) ListUserTransactions(ctx context.Context, userID string) ([]model.TransactionContext, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(userID, "userID"); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, user_id, card_type_id, date, amount, currency,
			converted_amount, converted_currency, mcc, merchant_name,
			category, is_online, is_contactless
		FROM transactions
		WHERE user_id = ?
		ORDER BY date ASC, id ASC`,
		userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list transactions: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var transactions []model.TransactionContext
	for rows.Next() {
		var txn model.TransactionContext
		if err := rows.Scan(&txn.TransactionID, &txn.UserID, &txn.CardTypeID, &txn.Date,
			&txn.Amount, &txn.Currency, &txn.ConvertedAmount, &txn.ConvertedCurrency,
			&txn.MCC, &txn.MerchantName, &txn.Category, &txn.IsOnline, &txn.IsContactless); err != nil {
			return nil, fmt.Errorf("failed to scan transaction: %w", err)
		}
		transactions = append(transactions, txn)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate transactions: %w", err)
	}
	return transactions, nil
}

// DeleteTransaction removes a transaction from history. Callers reverse
// its ledger movements first.
func (s *SQLiteStorage) DeleteTransaction(ctx context.Context, transactionID string) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateString(transactionID, "transactionID"); err != nil {
		return err
	}

	if _, err := s.db.ExecContext(ctx,
		"DELETE FROM transactions WHERE id = ?", transactionID); err != nil {
		return fmt.Errorf("failed to delete transaction %s: %w", transactionID, err)
	}
	return nil
}
