package engine

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/mhutchins/pointflow/internal/common"
	"github.com/mhutchins/pointflow/internal/model"
)

// fakeCatalog serves a fixed rule list in declaration order.
type fakeCatalog struct {
	rules []model.RewardRule
	err   error
}

func (f *fakeCatalog) GetRulesForCardType(_ context.Context, cardTypeID string) ([]model.RewardRule, error) {
	if f.err != nil {
		return nil, f.err
	}
	var out []model.RewardRule
	for _, r := range f.rules {
		if r.CardTypeID == cardTypeID {
			out = append(out, r)
		}
	}
	return out, nil
}

func (f *fakeCatalog) GetRule(_ context.Context, id string) (*model.RewardRule, error) {
	for i := range f.rules {
		if f.rules[i].ID == id {
			return &f.rules[i], nil
		}
	}
	return nil, common.ErrNotFound
}

func (f *fakeCatalog) ListRules(_ context.Context) ([]model.RewardRule, error) {
	return f.rules, nil
}

func (f *fakeCatalog) CreateRule(_ context.Context, rule *model.RewardRule) error {
	rule.Seq = len(f.rules) + 1
	f.rules = append(f.rules, *rule)
	return nil
}

func (f *fakeCatalog) UpdateRule(_ context.Context, rule *model.RewardRule) error {
	for i := range f.rules {
		if f.rules[i].ID == rule.ID {
			rule.Seq = f.rules[i].Seq
			f.rules[i] = *rule
			return nil
		}
	}
	return common.ErrNotFound
}

func (f *fakeCatalog) DeleteRule(_ context.Context, id string) error {
	for i := range f.rules {
		if f.rules[i].ID == id {
			f.rules = append(f.rules[:i], f.rules[i+1:]...)
			return nil
		}
	}
	return common.ErrNotFound
}

func (f *fakeCatalog) SetRuleEnabled(_ context.Context, id string, enabled bool) error {
	for i := range f.rules {
		if f.rules[i].ID == id {
			f.rules[i].Enabled = enabled
			return nil
		}
	}
	return common.ErrNotFound
}

func usageKey(userID, scopeID string, periodType model.PeriodType, period model.PeriodKey) string {
	return fmt.Sprintf("%s|%s|%s|%s", userID, scopeID, periodType, period)
}

// fakeUsageStore implements compare-and-swap semantics in memory.
// conflictsRemaining, when positive, forces that many SaveCapUsage calls
// to fail with ErrUsageConflict to exercise the retry path.
type fakeUsageStore struct {
	records            map[string]*model.CapUsageRecord
	mu                 sync.Mutex
	conflictsRemaining int
	saveCalls          int
}

func newFakeUsageStore() *fakeUsageStore {
	return &fakeUsageStore{records: make(map[string]*model.CapUsageRecord)}
}

func (f *fakeUsageStore) GetCapUsage(_ context.Context, userID, scopeID string, periodType model.PeriodType, period model.PeriodKey) (*model.CapUsageRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	record, ok := f.records[usageKey(userID, scopeID, periodType, period)]
	if !ok {
		return nil, common.ErrNotFound
	}
	copied := *record
	return &copied, nil
}

func (f *fakeUsageStore) SaveCapUsage(_ context.Context, record *model.CapUsageRecord, expectedValue float64) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.saveCalls++
	if f.conflictsRemaining > 0 {
		f.conflictsRemaining--
		return common.ErrUsageConflict
	}

	key := usageKey(record.UserID, record.ScopeID, record.PeriodType, record.Period)
	existing, ok := f.records[key]
	current := 0.0
	if ok {
		current = existing.AccumulatedValue
	}
	if current != expectedValue {
		return common.ErrUsageConflict
	}

	copied := *record
	copied.UpdatedAt = time.Now()
	f.records[key] = &copied
	return nil
}

func (f *fakeUsageStore) AdjustCapUsage(_ context.Context, userID, scopeID string, periodType model.PeriodType, period model.PeriodKey, delta float64) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	key := usageKey(userID, scopeID, periodType, period)
	record, ok := f.records[key]
	if !ok {
		if delta > 0 {
			f.records[key] = &model.CapUsageRecord{
				UserID: userID, ScopeID: scopeID, PeriodType: periodType,
				Period: period, AccumulatedValue: delta,
			}
			return nil
		}
		return common.ErrNotFound
	}
	record.AccumulatedValue += delta
	if record.AccumulatedValue < 0 {
		record.AccumulatedValue = 0
	}
	return nil
}

func (f *fakeUsageStore) ListCapUsage(_ context.Context, userID string) ([]model.CapUsageRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []model.CapUsageRecord
	for _, record := range f.records {
		if record.UserID == userID {
			out = append(out, *record)
		}
	}
	return out, nil
}

func (f *fakeUsageStore) WipeCapUsage(_ context.Context, userID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for key, record := range f.records {
		if record.UserID == userID {
			delete(f.records, key)
		}
	}
	return nil
}

// fakeLedgerStore is an in-memory movement store.
type fakeLedgerStore struct {
	movements []model.BonusPointsMovement
	mu        sync.Mutex
}

func (f *fakeLedgerStore) RecordMovement(_ context.Context, movement *model.BonusPointsMovement) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.movements = append(f.movements, *movement)
	return nil
}

func (f *fakeLedgerStore) MovementsForTransaction(_ context.Context, transactionID string) ([]model.BonusPointsMovement, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []model.BonusPointsMovement
	for _, m := range f.movements {
		if m.TransactionID == transactionID {
			out = append(out, m)
		}
	}
	return out, nil
}

func (f *fakeLedgerStore) DeleteMovementsForTransaction(_ context.Context, transactionID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	kept := f.movements[:0]
	for _, m := range f.movements {
		if m.TransactionID != transactionID {
			kept = append(kept, m)
		}
	}
	f.movements = kept
	return nil
}

func (f *fakeLedgerStore) TotalForScope(_ context.Context, userID, scopeID string, periodType model.PeriodType, period model.PeriodKey) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var total int64
	for _, m := range f.movements {
		if m.UserID == userID && m.ScopeID == scopeID && m.PeriodType == periodType && m.Period == period {
			total += m.BonusPoints
		}
	}
	return total, nil
}

func (f *fakeLedgerStore) ListMovements(_ context.Context, userID string) ([]model.BonusPointsMovement, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []model.BonusPointsMovement
	for _, m := range f.movements {
		if m.UserID == userID {
			out = append(out, m)
		}
	}
	return out, nil
}

func (f *fakeLedgerStore) WipeMovements(_ context.Context, userID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	kept := f.movements[:0]
	for _, m := range f.movements {
		if m.UserID != userID {
			kept = append(kept, m)
		}
	}
	f.movements = kept
	return nil
}

// fakeHistory serves a fixed transaction list.
type fakeHistory struct {
	transactions []model.TransactionContext
}

func (f *fakeHistory) SaveTransactions(_ context.Context, transactions []model.TransactionContext) error {
	f.transactions = append(f.transactions, transactions...)
	return nil
}

func (f *fakeHistory) ListUserTransactions(_ context.Context, userID string) ([]model.TransactionContext, error) {
	var out []model.TransactionContext
	for _, txn := range f.transactions {
		if txn.UserID == userID {
			out = append(out, txn)
		}
	}
	return out, nil
}

func (f *fakeHistory) DeleteTransaction(_ context.Context, transactionID string) error {
	for i, txn := range f.transactions {
		if txn.TransactionID == transactionID {
			f.transactions = append(f.transactions[:i], f.transactions[i+1:]...)
			return nil
		}
	}
	return common.ErrNotFound
}
