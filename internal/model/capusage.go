package model

import "time"

// CapUsageRecord accumulates cap consumption for one (user, scope,
// period) bucket. Records are created on the first qualifying
// transaction, mutated additively after that, and frozen when a new
// period begins. Only an explicit backfill wipe deletes them.
type CapUsageRecord struct {
	CreatedAt        time.Time  `json:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at"`
	UserID           string     `json:"user_id"`
	ScopeID          string     `json:"scope_id"`
	PeriodType       PeriodType `json:"period_type"`
	Period           PeriodKey  `json:"period"`
	AccumulatedValue float64    `json:"accumulated_value"`
}

// BonusPointsMovement is one append-only ledger entry recording the
// bonus points a committed transaction actually drew from a cap scope.
// It is the only source of truth for reversing cap usage on edit or
// delete: the original award may no longer be recomputable from the
// transaction once the transaction has changed.
type BonusPointsMovement struct {
	CreatedAt     time.Time  `json:"created_at"`
	ID            string     `json:"id"`
	TransactionID string     `json:"transaction_id"`
	UserID        string     `json:"user_id"`
	ScopeID       string     `json:"scope_id"`
	PeriodType    PeriodType `json:"period_type"`
	Period        PeriodKey  `json:"period"`
	BonusPoints   int64      `json:"bonus_points"`

	// UsageDelta is what this movement added to the scope's
	// CapUsageRecord: bonus points for bonusPoints caps, awarded spend
	// for spendAmount caps. Reverse subtracts exactly this value.
	UsageDelta float64 `json:"usage_delta"`
}
