package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/mhutchins/pointflow/internal/model"
)

func TestMatchCondition_Leaf(t *testing.T) {
	tc := &model.TransactionContext{
		Amount:        42.50,
		Currency:      "USD",
		MCC:           "5411",
		MerchantName:  "AMZN Mktp US",
		Category:      "groceries",
		IsOnline:      true,
		IsContactless: false,
	}

	tests := []struct {
		name string
		cond model.Condition
		want bool
	}{
		{
			name: "mcc include match",
			cond: model.Leaf{Field: model.FieldMCC, Op: model.OpInclude, Values: []any{"5411", "5812"}},
			want: true,
		},
		{
			name: "mcc include miss",
			cond: model.Leaf{Field: model.FieldMCC, Op: model.OpInclude, Values: []any{"5812"}},
			want: false,
		},
		{
			name: "mcc exclude",
			cond: model.Leaf{Field: model.FieldMCC, Op: model.OpExclude, Values: []any{"5812"}},
			want: true,
		},
		{
			name: "mcc numeric value coerced",
			cond: model.Leaf{Field: model.FieldMCC, Op: model.OpInclude, Values: []any{float64(5411)}},
			want: true,
		},
		{
			name: "currency equals",
			cond: model.Leaf{Field: model.FieldCurrency, Op: model.OpEquals, Values: []any{"usd"}},
			want: true,
		},
		{
			name: "currency not equals",
			cond: model.Leaf{Field: model.FieldCurrency, Op: model.OpNotEquals, Values: []any{"JPY"}},
			want: true,
		},
		{
			name: "category include",
			cond: model.Leaf{Field: model.FieldCategory, Op: model.OpInclude, Values: []any{"groceries"}},
			want: true,
		},
		{
			name: "merchant rule value is substring of transaction merchant",
			cond: model.Leaf{Field: model.FieldMerchant, Op: model.OpInclude, Values: []any{"amzn"}},
			want: true,
		},
		{
			name: "merchant transaction merchant is substring of rule value",
			cond: model.Leaf{Field: model.FieldMerchant, Op: model.OpInclude, Values: []any{"AMZN Mktp US Marketplace"}},
			want: true,
		},
		{
			name: "merchant exclude",
			cond: model.Leaf{Field: model.FieldMerchant, Op: model.OpExclude, Values: []any{"starbucks"}},
			want: true,
		},
		{
			name: "merchant no match",
			cond: model.Leaf{Field: model.FieldMerchant, Op: model.OpInclude, Values: []any{"costco"}},
			want: false,
		},
		{
			name: "transaction type online",
			cond: model.Leaf{Field: model.FieldTransactionType, Op: model.OpInclude, Values: []any{"online"}},
			want: true,
		},
		{
			name: "transaction type in_store miss for online purchase",
			cond: model.Leaf{Field: model.FieldTransactionType, Op: model.OpInclude, Values: []any{"in_store"}},
			want: false,
		},
		{
			name: "transaction type exclude contactless",
			cond: model.Leaf{Field: model.FieldTransactionType, Op: model.OpExclude, Values: []any{"contactless"}},
			want: true,
		},
		{
			name: "amount greater than",
			cond: model.Leaf{Field: model.FieldAmount, Op: model.OpGreaterThan, Values: []any{40.0}},
			want: true,
		},
		{
			name: "amount less than miss",
			cond: model.Leaf{Field: model.FieldAmount, Op: model.OpLessThan, Values: []any{40.0}},
			want: false,
		},
		{
			name: "amount between inclusive bounds",
			cond: model.Leaf{Field: model.FieldAmount, Op: model.OpBetween, Values: []any{42.50, 100.0}},
			want: true,
		},
		{
			name: "amount between string bounds coerced",
			cond: model.Leaf{Field: model.FieldAmount, Op: model.OpBetween, Values: []any{"10", "50"}},
			want: true,
		},
		{
			name: "between with one value fails closed",
			cond: model.Leaf{Field: model.FieldAmount, Op: model.OpBetween, Values: []any{10.0}},
			want: false,
		},
		{
			name: "unknown field fails closed",
			cond: model.Leaf{Field: "postcode", Op: model.OpInclude, Values: []any{"90210"}},
			want: false,
		},
		{
			name: "unknown operation fails closed",
			cond: model.Leaf{Field: model.FieldMCC, Op: "matches", Values: []any{"5411"}},
			want: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, MatchCondition(tt.cond, tc))
		})
	}
}

func TestMatchCondition_Compound(t *testing.T) {
	tc := &model.TransactionContext{
		Amount:   25,
		MCC:      "5812",
		Currency: "USD",
	}

	diningMCC := model.Leaf{Field: model.FieldMCC, Op: model.OpInclude, Values: []any{"5812"}}
	groceryMCC := model.Leaf{Field: model.FieldMCC, Op: model.OpInclude, Values: []any{"5411"}}
	bigAmount := model.Leaf{Field: model.FieldAmount, Op: model.OpGreaterThan, Values: []any{100.0}}

	tests := []struct {
		name string
		cond model.Condition
		want bool
	}{
		{
			name: "any with one matching branch",
			cond: model.Compound{Op: model.OpAny, Sub: []model.Condition{groceryMCC, diningMCC}},
			want: true,
		},
		{
			name: "any with no matching branch",
			cond: model.Compound{Op: model.OpAny, Sub: []model.Condition{groceryMCC, bigAmount}},
			want: false,
		},
		{
			name: "empty any never matches",
			cond: model.Compound{Op: model.OpAny},
			want: false,
		},
		{
			name: "all with every branch matching",
			cond: model.Compound{Op: model.OpAll, Sub: []model.Condition{diningMCC}},
			want: true,
		},
		{
			name: "all with a failing branch",
			cond: model.Compound{Op: model.OpAll, Sub: []model.Condition{diningMCC, bigAmount}},
			want: false,
		},
		{
			name: "empty all vacuously matches",
			cond: model.Compound{Op: model.OpAll},
			want: true,
		},
		{
			name: "nested compound",
			cond: model.Compound{Op: model.OpAll, Sub: []model.Condition{
				diningMCC,
				model.Compound{Op: model.OpAny, Sub: []model.Condition{groceryMCC, diningMCC}},
			}},
			want: true,
		},
		{
			name: "unknown compound op fails closed",
			cond: model.Compound{Op: "xor", Sub: []model.Condition{diningMCC}},
			want: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, MatchCondition(tt.cond, tc))
		})
	}
}

func TestMatchAll_EmptyListAlwaysMatches(t *testing.T) {
	tc := &model.TransactionContext{Amount: 1}
	assert.True(t, MatchAll(nil, tc))
	assert.True(t, MatchAll([]model.Condition{}, tc))
}

func TestMatchAll_RequiresEveryCondition(t *testing.T) {
	tc := &model.TransactionContext{Amount: 25, MCC: "5812"}

	conds := []model.Condition{
		model.Leaf{Field: model.FieldMCC, Op: model.OpInclude, Values: []any{"5812"}},
		model.Leaf{Field: model.FieldAmount, Op: model.OpLessThan, Values: []any{10.0}},
	}
	assert.False(t, MatchAll(conds, tc))
}
