package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validRule() RewardRule {
	return RewardRule{
		ID:         "dining-5x",
		CardTypeID: "gold-card",
		Name:       "5x dining",
		Priority:   10,
		Enabled:    true,
		Reward: RewardSpec{
			PointsCurrency:  "MR",
			PointsRounding:  RoundFloor,
			AmountRounding:  AmountRoundNone,
			PeriodType:      PeriodCalendar,
			BaseMultiplier:  1,
			BonusMultiplier: 4,
			BlockSize:       1,
		},
	}
}

func TestRuleValidate(t *testing.T) {
	tests := []struct {
		mutate  func(*RewardRule)
		name    string
		wantErr bool
	}{
		{name: "valid", mutate: func(*RewardRule) {}},
		{name: "missing ID", mutate: func(r *RewardRule) { r.ID = "" }, wantErr: true},
		{name: "missing card type", mutate: func(r *RewardRule) { r.CardTypeID = "" }, wantErr: true},
		{name: "missing name", mutate: func(r *RewardRule) { r.Name = "" }, wantErr: true},
		{name: "zero block size", mutate: func(r *RewardRule) { r.Reward.BlockSize = 0 }, wantErr: true},
		{name: "negative multiplier", mutate: func(r *RewardRule) { r.Reward.BonusMultiplier = -1 }, wantErr: true},
		{name: "bad rounding", mutate: func(r *RewardRule) { r.Reward.PointsRounding = "ceil" }, wantErr: true},
		{name: "bad amount rounding", mutate: func(r *RewardRule) { r.Reward.AmountRounding = "truncate" }, wantErr: true},
		{name: "bad period type", mutate: func(r *RewardRule) { r.Reward.PeriodType = "fortnight" }, wantErr: true},
		{
			name:    "promotional without start date",
			mutate:  func(r *RewardRule) { r.Reward.PeriodType = PeriodPromotional },
			wantErr: true,
		},
		{
			name: "promotional with start date",
			mutate: func(r *RewardRule) {
				start := time.Date(2025, time.June, 1, 0, 0, 0, 0, time.UTC)
				r.Reward.PeriodType = PeriodPromotional
				r.Reward.PromoStartDate = &start
			},
		},
		{
			name:    "zero cap value",
			mutate:  func(r *RewardRule) { r.Reward.MonthlyCap = &MonthlyCap{Value: 0, Type: CapBonusPoints} },
			wantErr: true,
		},
		{
			name:    "bad cap type",
			mutate:  func(r *RewardRule) { r.Reward.MonthlyCap = &MonthlyCap{Value: 100, Type: "transactions"} },
			wantErr: true,
		},
		{
			name:   "spend cap",
			mutate: func(r *RewardRule) { r.Reward.MonthlyCap = &MonthlyCap{Value: 2000, Type: CapSpendAmount} },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rule := validRule()
			tt.mutate(&rule)
			err := rule.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestCapScopeID(t *testing.T) {
	rule := validRule()
	assert.Equal(t, "dining-5x", rule.CapScopeID())

	rule.Reward.CapGroupID = "dining-group"
	assert.Equal(t, "dining-group", rule.CapScopeID())
}

func TestIsCatchAll(t *testing.T) {
	rule := validRule()
	assert.False(t, rule.IsCatchAll())

	rule.Priority = 1
	assert.True(t, rule.IsCatchAll())

	rule.Conditions = []Condition{Leaf{Field: FieldMCC, Op: OpInclude, Values: []any{"5812"}}}
	assert.False(t, rule.IsCatchAll())
}

func TestPeriodKeyRoundTrip(t *testing.T) {
	key := PeriodKey{Year: 2025, Month: time.January, CycleStartDay: 19}
	assert.Equal(t, "2025-01/19", key.String())

	parsed, err := ParsePeriodKey(key.String())
	require.NoError(t, err)
	assert.Equal(t, key, parsed)

	_, err = ParsePeriodKey("2025-13/01")
	assert.Error(t, err)

	_, err = ParsePeriodKey("not-a-key")
	assert.Error(t, err)
}

func TestTransactionSpendAmount(t *testing.T) {
	txn := TransactionContext{Amount: 100, Currency: "SGD"}
	assert.InDelta(t, 100, txn.SpendAmount(), 1e-9)

	txn.ConvertedAmount = 74.5
	txn.ConvertedCurrency = "USD"
	assert.InDelta(t, 74.5, txn.SpendAmount(), 1e-9)
}

func TestTransactionTypeTokens(t *testing.T) {
	txn := TransactionContext{}
	assert.Equal(t, []string{TxTypeInStore}, txn.TypeTokens())

	txn.IsOnline = true
	assert.Equal(t, []string{TxTypeOnline}, txn.TypeTokens())

	txn.IsOnline = false
	txn.IsContactless = true
	assert.Equal(t, []string{TxTypeInStore, TxTypeContactless}, txn.TypeTokens())
}
