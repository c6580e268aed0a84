package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/mhutchins/pointflow/internal/common"
	"github.com/mhutchins/pointflow/internal/model"
	"github.com/mhutchins/pointflow/internal/service"
)

// RewardEngine orchestrates the full calculation pipeline: rule
// selection, point calculation, cap clamping, and ledger bookkeeping.
// All collaborators are injected; the engine holds no global state and a
// test can run it entirely against fakes.
type RewardEngine struct {
	catalog   service.RuleCatalog
	usage     service.CapUsageStore
	ledger    *Ledger
	history   service.TransactionHistory
	retryOpts service.RetryOptions
}

// Config holds configuration options for the reward engine.
type Config struct {
	Retry service.RetryOptions
}

// DefaultConfig returns the default configuration.
func DefaultConfig() Config {
	return Config{
		Retry: service.RetryOptions{
			MaxAttempts:  5,
			InitialDelay: 10 * time.Millisecond,
			MaxDelay:     500 * time.Millisecond,
			Multiplier:   2.0,
		},
	}
}

// New creates a reward engine with the given dependencies.
func New(catalog service.RuleCatalog, usage service.CapUsageStore, movements service.LedgerStore, history service.TransactionHistory) *RewardEngine {
	return NewWithConfig(catalog, usage, movements, history, DefaultConfig())
}

// NewWithConfig creates a reward engine with custom configuration.
func NewWithConfig(catalog service.RuleCatalog, usage service.CapUsageStore, movements service.LedgerStore, history service.TransactionHistory, config Config) *RewardEngine {
	return &RewardEngine{
		catalog:   catalog,
		usage:     usage,
		ledger:    NewLedger(usage, movements),
		history:   history,
		retryOpts: config.Retry,
	}
}

// Ledger exposes the engine's ledger for callers that need reversal or
// scope totals directly.
func (e *RewardEngine) Ledger() *Ledger {
	return e.ledger
}

// SimulateRewards computes what a transaction would earn without
// mutating any state. Safe to call speculatively, e.g. from a live form
// preview: it reads rules and current cap usage and nothing else. Only
// RecordAward commits usage and ledger entries.
func (e *RewardEngine) SimulateRewards(ctx context.Context, tc *model.TransactionContext) (*model.SimulationResult, error) {
	rule, breakdown, err := e.selectAndCalculate(ctx, tc)
	if err != nil {
		return nil, err
	}

	if rule == nil {
		return &model.SimulationResult{
			Messages: []string{"no applicable reward rule for this card"},
		}, nil
	}

	result := &model.SimulationResult{
		AppliedRule:    rule,
		PointsCurrency: rule.Reward.PointsCurrency,
		BasePoints:     breakdown.BasePoints,
		BonusPoints:    breakdown.BonusPoints,
		TotalPoints:    breakdown.TotalPoints,
	}

	if rule.Reward.MonthlyCap == nil {
		return result, nil
	}

	period := ResolvePeriod(tc.Date, rule.Reward.PeriodType, rule.Reward.AnchorDay, rule.Reward.PromoStartDate)
	current, err := e.currentUsage(ctx, tc.UserID, rule.CapScopeID(), rule.Reward.PeriodType, period)
	if err != nil {
		return nil, err
	}

	decision := ApplyCap(breakdown, rule.Reward, tc.SpendAmount(), current)
	result.BonusPoints = decision.AwardedBonusPoints
	result.TotalPoints = breakdown.BasePoints + decision.AwardedBonusPoints
	remaining := decision.Remaining
	result.RemainingMonthlyBonus = &remaining

	if decision.Capped {
		if decision.AwardedBonusPoints == 0 {
			result.Messages = append(result.Messages, fmt.Sprintf("monthly bonus cap reached for %s", rule.Name))
		} else {
			result.Messages = append(result.Messages, fmt.Sprintf("bonus partially capped for %s", rule.Name))
		}
	}

	return result, nil
}

// RecordAward is the committed-transaction path: it recomputes the award
// against fresh cap usage, persists the new usage with compare-and-swap,
// and appends the ledger movement. The read-compute-write step retries
// on write conflicts so two concurrent submissions for the same scope
// and period can never both slip under the cap.
func (e *RewardEngine) RecordAward(ctx context.Context, tc *model.TransactionContext) (*model.AwardResult, error) {
	rule, breakdown, err := e.selectAndCalculate(ctx, tc)
	if err != nil {
		return nil, err
	}

	if rule == nil {
		return &model.AwardResult{}, nil
	}

	result := &model.AwardResult{
		AppliedRule: rule,
		BasePoints:  breakdown.BasePoints,
		BonusPoints: breakdown.BonusPoints,
		TotalPoints: breakdown.TotalPoints,
	}

	if rule.Reward.MonthlyCap == nil {
		return result, nil
	}

	period := ResolvePeriod(tc.Date, rule.Reward.PeriodType, rule.Reward.AnchorDay, rule.Reward.PromoStartDate)
	scopeID := rule.CapScopeID()

	var decision CapDecision
	err = common.WithRetry(ctx, func() error {
		current, usageErr := e.currentUsage(ctx, tc.UserID, scopeID, rule.Reward.PeriodType, period)
		if usageErr != nil {
			return usageErr
		}

		decision = ApplyCap(breakdown, rule.Reward, tc.SpendAmount(), current)
		if decision.UsageDelta == 0 {
			return nil
		}

		record := &model.CapUsageRecord{
			UserID:           tc.UserID,
			ScopeID:          scopeID,
			PeriodType:       rule.Reward.PeriodType,
			Period:           period,
			AccumulatedValue: decision.NewUsage,
		}
		return e.usage.SaveCapUsage(ctx, record, current)
	}, e.retryOpts)
	if err != nil {
		return nil, fmt.Errorf("failed to persist cap usage for scope %s: %w", scopeID, err)
	}

	result.BonusPoints = decision.AwardedBonusPoints
	result.TotalPoints = breakdown.BasePoints + decision.AwardedBonusPoints

	if decision.UsageDelta > 0 {
		movement, recordErr := e.ledger.Record(ctx, tc, scopeID, rule.Reward.PeriodType, period, decision.AwardedBonusPoints, decision.UsageDelta)
		if recordErr != nil {
			return nil, recordErr
		}
		result.Movement = movement
	}

	if decision.Capped {
		slog.Info("Bonus clamped by cap",
			"transaction_id", tc.TransactionID,
			"scope_id", scopeID,
			"period", period.String(),
			"awarded", decision.AwardedBonusPoints,
			"uncapped", breakdown.BonusPoints)
	}

	return result, nil
}

// ReverseAward undoes a transaction's recorded award. Editing a
// transaction is always reverse-then-RecordAward; recomputing without
// reversing first double-counts cap usage.
func (e *RewardEngine) ReverseAward(ctx context.Context, transactionID string) error {
	return e.ledger.Reverse(ctx, transactionID)
}

// ReapplyAward is the edit flow: reverse whatever the transaction
// previously awarded, then record it fresh.
func (e *RewardEngine) ReapplyAward(ctx context.Context, tc *model.TransactionContext) (*model.AwardResult, error) {
	if err := e.ledger.Reverse(ctx, tc.TransactionID); err != nil {
		return nil, err
	}
	return e.RecordAward(ctx, tc)
}

// Backfill wipes all of a user's cap usage and movements and rebuilds
// them from transaction history in date-ascending order. Cap clamping is
// order dependent, so the replay order is fixed: date ascending, ties
// broken by transaction ID. Backfill assumes exclusive access to the
// user's records; it must not overlap live transaction inserts.
//
// The progress callback, if non-nil, is invoked after each transaction.
func (e *RewardEngine) Backfill(ctx context.Context, userID string, progress func(done, total int)) error {
	if e.history == nil {
		return fmt.Errorf("%w: transaction history not configured", common.ErrMissingConfig)
	}

	transactions, err := e.history.ListUserTransactions(ctx, userID)
	if err != nil {
		return fmt.Errorf("failed to load transaction history for user %s: %w", userID, err)
	}

	sort.SliceStable(transactions, func(i, j int) bool {
		if !transactions[i].Date.Equal(transactions[j].Date) {
			return transactions[i].Date.Before(transactions[j].Date)
		}
		return transactions[i].TransactionID < transactions[j].TransactionID
	})

	if err := e.usage.WipeCapUsage(ctx, userID); err != nil {
		return fmt.Errorf("failed to wipe cap usage for user %s: %w", userID, err)
	}
	if err := e.ledger.Wipe(ctx, userID); err != nil {
		return err
	}

	slog.Info("Starting backfill", "user_id", userID, "transactions", len(transactions))

	for i := range transactions {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		if _, err := e.RecordAward(ctx, &transactions[i]); err != nil {
			return fmt.Errorf("backfill failed at transaction %s: %w", transactions[i].TransactionID, err)
		}
		if progress != nil {
			progress(i+1, len(transactions))
		}
	}

	slog.Info("Backfill complete", "user_id", userID, "transactions", len(transactions))
	return nil
}

// selectAndCalculate loads the card's rules, picks the applicable one,
// and computes the uncapped breakdown. A nil rule with nil error means
// no rule matched and no catch-all exists; callers return a zero result.
func (e *RewardEngine) selectAndCalculate(ctx context.Context, tc *model.TransactionContext) (*model.RewardRule, model.CalculationBreakdown, error) {
	if e.catalog == nil {
		return nil, model.CalculationBreakdown{}, common.ErrCatalogNotReady
	}

	rules, err := e.catalog.GetRulesForCardType(ctx, tc.CardTypeID)
	if err != nil {
		return nil, model.CalculationBreakdown{}, fmt.Errorf("failed to load rules for card type %s: %w", tc.CardTypeID, err)
	}

	rule := SelectRule(rules, tc)
	if rule == nil {
		return nil, model.CalculationBreakdown{}, nil
	}

	return rule, Calculate(tc.SpendAmount(), rule.Reward), nil
}

// currentUsage reads a scope's accumulated value, treating a missing
// record as zero consumption.
func (e *RewardEngine) currentUsage(ctx context.Context, userID, scopeID string, periodType model.PeriodType, period model.PeriodKey) (float64, error) {
	record, err := e.usage.GetCapUsage(ctx, userID, scopeID, periodType, period)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return 0, nil
		}
		return 0, fmt.Errorf("failed to read cap usage for scope %s: %w", scopeID, err)
	}
	return record.AccumulatedValue, nil
}
