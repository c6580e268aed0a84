// Package service defines the interfaces for all application services.
package service

import (
	"context"
	"time"

	"github.com/mhutchins/pointflow/internal/model"
)

// RuleCatalog is the engine's read/write view of issuer reward rules.
// GetRulesForCardType must return rules in stable catalog order (Seq
// ascending); the selector relies on that order to break priority ties.
type RuleCatalog interface {
	GetRulesForCardType(ctx context.Context, cardTypeID string) ([]model.RewardRule, error)
	GetRule(ctx context.Context, id string) (*model.RewardRule, error)
	ListRules(ctx context.Context) ([]model.RewardRule, error)
	CreateRule(ctx context.Context, rule *model.RewardRule) error
	UpdateRule(ctx context.Context, rule *model.RewardRule) error
	DeleteRule(ctx context.Context, id string) error
	SetRuleEnabled(ctx context.Context, id string, enabled bool) error
}

// CapUsageStore persists per-period cap consumption.
//
// SaveCapUsage is a compare-and-swap: the write succeeds only if the
// stored AccumulatedValue still equals expectedValue (0 for a record
// that does not exist yet). On mismatch it returns
// common.ErrUsageConflict and the caller re-reads and recomputes.
type CapUsageStore interface {
	GetCapUsage(ctx context.Context, userID, scopeID string, periodType model.PeriodType, period model.PeriodKey) (*model.CapUsageRecord, error)
	SaveCapUsage(ctx context.Context, record *model.CapUsageRecord, expectedValue float64) error
	AdjustCapUsage(ctx context.Context, userID, scopeID string, periodType model.PeriodType, period model.PeriodKey, delta float64) error
	ListCapUsage(ctx context.Context, userID string) ([]model.CapUsageRecord, error)
	WipeCapUsage(ctx context.Context, userID string) error
}

// LedgerStore persists bonus point movements, one per committed
// transaction per capped scope that awarded points.
type LedgerStore interface {
	RecordMovement(ctx context.Context, movement *model.BonusPointsMovement) error
	MovementsForTransaction(ctx context.Context, transactionID string) ([]model.BonusPointsMovement, error)
	DeleteMovementsForTransaction(ctx context.Context, transactionID string) error
	TotalForScope(ctx context.Context, userID, scopeID string, periodType model.PeriodType, period model.PeriodKey) (int64, error)
	ListMovements(ctx context.Context, userID string) ([]model.BonusPointsMovement, error)
	WipeMovements(ctx context.Context, userID string) error
}

// TransactionHistory supplies committed transactions for backfill,
// ordered by date ascending with ties broken by transaction ID. Cap
// clamping is order dependent, so any other order makes backfill
// non-reproducible.
type TransactionHistory interface {
	SaveTransactions(ctx context.Context, transactions []model.TransactionContext) error
	ListUserTransactions(ctx context.Context, userID string) ([]model.TransactionContext, error)
	DeleteTransaction(ctx context.Context, transactionID string) error
}

// Storage is the full persistence contract the application wires up.
type Storage interface {
	RuleCatalog
	CapUsageStore
	LedgerStore
	TransactionHistory

	Migrate(ctx context.Context) error
	Close() error
}

// RetryOptions configures retry behavior for operations.
type RetryOptions struct {
	MaxAttempts  int
	InitialDelay time.Duration
	MaxDelay     time.Duration
	Multiplier   float64
}
