package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/mhutchins/pointflow/internal/model"
)

// Validation errors.
var (
	ErrNilContext   = errors.New("context cannot be nil")
	ErrEmptyString  = errors.New("string parameter cannot be empty")
	ErrNilParameter = errors.New("parameter cannot be nil")
	ErrEmptySlice   = errors.New("slice cannot be empty")
)

// validateContext ensures the context is not nil.
func validateContext(ctx context.Context) error {
	if ctx == nil {
		return ErrNilContext
	}
	return nil
}

// validateString ensures a string parameter is not empty.
func validateString(s string, paramName string) error {
	if strings.TrimSpace(s) == "" {
		return fmt.Errorf("%w: %s", ErrEmptyString, paramName)
	}
	return nil
}

// validateRule validates a reward rule before it is written to the catalog.
func validateRule(rule *model.RewardRule) error {
	if rule == nil {
		return fmt.Errorf("%w: rule", ErrNilParameter)
	}
	return rule.Validate()
}

// validateTransactions validates a slice of transaction contexts.
func validateTransactions(transactions []model.TransactionContext) error {
	if transactions == nil {
		return fmt.Errorf("%w: transactions", ErrNilParameter)
	}
	if len(transactions) == 0 {
		return fmt.Errorf("%w: transactions", ErrEmptySlice)
	}

	for i, txn := range transactions {
		if txn.TransactionID == "" {
			return fmt.Errorf("transaction at index %d: missing transaction ID", i)
		}
		if txn.UserID == "" {
			return fmt.Errorf("transaction at index %d: missing user ID", i)
		}
		if txn.Date.IsZero() {
			return fmt.Errorf("transaction at index %d: missing date", i)
		}
	}
	return nil
}

// validateUsageKey validates the composite key of a cap usage lookup.
func validateUsageKey(userID, scopeID string) error {
	if err := validateString(userID, "userID"); err != nil {
		return err
	}
	return validateString(scopeID, "scopeID")
}
