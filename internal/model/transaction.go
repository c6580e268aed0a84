package model

import (
	"crypto/sha256"
	"fmt"
	"time"
)

// TransactionContext carries everything the engine needs to evaluate one
// purchase. Callers build it from a transaction plus its merchant; the
// engine never reads transaction storage directly.
type TransactionContext struct {
	Date              time.Time
	TransactionID     string
	UserID            string
	CardTypeID        string
	Currency          string
	MCC               string
	MerchantName      string
	Category          string
	ConvertedCurrency string
	Amount            float64
	ConvertedAmount   float64
	IsOnline          bool
	IsContactless     bool
}

// SpendAmount returns the amount that counts against spend-based caps:
// the converted amount when a conversion was supplied, otherwise the
// original amount.
func (t *TransactionContext) SpendAmount() float64 {
	if t.ConvertedAmount != 0 {
		return t.ConvertedAmount
	}
	return t.Amount
}

// TypeTokens returns the transaction-type tokens this transaction
// carries, derived from the online/contactless booleans.
func (t *TransactionContext) TypeTokens() []string {
	tokens := make([]string, 0, 2)
	if t.IsOnline {
		tokens = append(tokens, TxTypeOnline)
	} else {
		tokens = append(tokens, TxTypeInStore)
	}
	if t.IsContactless {
		tokens = append(tokens, TxTypeContactless)
	}
	return tokens
}

// GenerateHash creates a stable hash for duplicate detection during
// backfill imports.
func (t *TransactionContext) GenerateHash() string {
	data := fmt.Sprintf("%s:%s:%.2f:%s:%s",
		t.UserID,
		t.Date.Format("2006-01-02"),
		t.Amount,
		t.MerchantName,
		t.CardTypeID)
	hash := sha256.Sum256([]byte(data))
	return fmt.Sprintf("%x", hash)
}
