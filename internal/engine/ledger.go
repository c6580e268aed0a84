package engine

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/mhutchins/pointflow/internal/common"
	"github.com/mhutchins/pointflow/internal/model"
	"github.com/mhutchins/pointflow/internal/service"
)

// movementNamespace seeds deterministic movement IDs. The same
// transaction and scope always produce the same ID, which is what makes
// backfill reproduce an identical ledger run after run.
var movementNamespace = uuid.MustParse("9f2c1b6a-3d84-4e5f-8a07-c2d97c54e1b2")

// Ledger is the append-and-reverse bookkeeping layer over the movement
// and cap usage stores. Movements are the only source of truth for
// reversal: an edited transaction no longer reflects what was originally
// awarded, so Reverse subtracts the recorded amounts, never a recompute.
type Ledger struct {
	usage     service.CapUsageStore
	movements service.LedgerStore
}

// NewLedger creates a ledger over the given stores.
func NewLedger(usage service.CapUsageStore, movements service.LedgerStore) *Ledger {
	return &Ledger{usage: usage, movements: movements}
}

// MovementID derives the deterministic ID for a transaction/scope pair.
func MovementID(transactionID, scopeID string) string {
	return uuid.NewSHA1(movementNamespace, []byte(transactionID+"/"+scopeID)).String()
}

// Record appends one movement for a committed transaction. The caller
// has already written the matching cap usage delta; Record only persists
// the audit entry that later makes that delta reversible.
func (l *Ledger) Record(ctx context.Context, tc *model.TransactionContext, scopeID string, periodType model.PeriodType, period model.PeriodKey, bonusPoints int64, usageDelta float64) (*model.BonusPointsMovement, error) {
	movement := &model.BonusPointsMovement{
		ID:            MovementID(tc.TransactionID, scopeID),
		TransactionID: tc.TransactionID,
		UserID:        tc.UserID,
		ScopeID:       scopeID,
		PeriodType:    periodType,
		Period:        period,
		BonusPoints:   bonusPoints,
		UsageDelta:    usageDelta,
		CreatedAt:     time.Now().UTC(),
	}

	if err := l.movements.RecordMovement(ctx, movement); err != nil {
		return nil, fmt.Errorf("failed to record bonus movement: %w", err)
	}
	return movement, nil
}

// Reverse undoes every movement a transaction produced: each movement's
// recorded usage delta is subtracted from its cap usage record, then the
// movements are deleted. Called before recomputing on edit and on
// delete; skipping it leaks cap consumption permanently.
func (l *Ledger) Reverse(ctx context.Context, transactionID string) error {
	movements, err := l.movements.MovementsForTransaction(ctx, transactionID)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil
		}
		return fmt.Errorf("failed to load movements for transaction %s: %w", transactionID, err)
	}

	for _, m := range movements {
		if m.UsageDelta == 0 {
			continue
		}
		if err := l.usage.AdjustCapUsage(ctx, m.UserID, m.ScopeID, m.PeriodType, m.Period, -m.UsageDelta); err != nil {
			return fmt.Errorf("failed to reverse cap usage for transaction %s: %w", transactionID, err)
		}
	}

	if err := l.movements.DeleteMovementsForTransaction(ctx, transactionID); err != nil {
		return fmt.Errorf("failed to delete movements for transaction %s: %w", transactionID, err)
	}

	return nil
}

// TotalForScope sums recorded bonus points for a scope and period.
func (l *Ledger) TotalForScope(ctx context.Context, userID, scopeID string, periodType model.PeriodType, period model.PeriodKey) (int64, error) {
	total, err := l.movements.TotalForScope(ctx, userID, scopeID, periodType, period)
	if err != nil {
		return 0, fmt.Errorf("failed to total movements for scope %s: %w", scopeID, err)
	}
	return total, nil
}

// Wipe removes all of a user's movements. Only backfill calls this,
// immediately before rebuilding the ledger from history.
func (l *Ledger) Wipe(ctx context.Context, userID string) error {
	if err := l.movements.WipeMovements(ctx, userID); err != nil {
		return fmt.Errorf("failed to wipe movements for user %s: %w", userID, err)
	}
	return nil
}
