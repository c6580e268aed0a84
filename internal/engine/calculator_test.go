package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/mhutchins/pointflow/internal/model"
)

func TestCalculate(t *testing.T) {
	tests := []struct {
		name         string
		amount       float64
		spec         model.RewardSpec
		wantEligible float64
		wantBase     int64
		wantBonus    int64
	}{
		{
			name:   "fifteen times tier floors to five dollar blocks",
			amount: 64.68,
			spec: model.RewardSpec{
				BaseMultiplier:  5,
				BonusMultiplier: 70,
				BlockSize:       5,
				AmountRounding:  model.AmountFloorToBlock,
				PointsRounding:  model.RoundFloor,
			},
			wantEligible: 60,
			wantBase:     60,
			wantBonus:    840,
		},
		{
			name:   "unit block without amount rounding",
			amount: 12.30,
			spec: model.RewardSpec{
				BaseMultiplier: 1,
				BlockSize:      1,
				AmountRounding: model.AmountRoundNone,
				PointsRounding: model.RoundFloor,
			},
			wantEligible: 12.30,
			wantBase:     12,
			wantBonus:    0,
		},
		{
			name:   "nearest rounds half up",
			amount: 12.50,
			spec: model.RewardSpec{
				BaseMultiplier: 1,
				BlockSize:      1,
				AmountRounding: model.AmountRoundNone,
				PointsRounding: model.RoundNearest,
			},
			wantEligible: 12.50,
			wantBase:     13,
			wantBonus:    0,
		},
		{
			name:   "base and bonus rounded separately",
			amount: 3,
			spec: model.RewardSpec{
				BaseMultiplier:  0.5,
				BonusMultiplier: 0.5,
				BlockSize:       1,
				AmountRounding:  model.AmountRoundNone,
				PointsRounding:  model.RoundFloor,
			},
			wantEligible: 3,
			// 1.5 + 1.5 floors to 1 + 1, not floor(3.0) = 3.
			wantBase:  1,
			wantBonus: 1,
		},
		{
			name:   "amount smaller than one block earns nothing under floorToBlock",
			amount: 4.99,
			spec: model.RewardSpec{
				BaseMultiplier:  5,
				BonusMultiplier: 70,
				BlockSize:       5,
				AmountRounding:  model.AmountFloorToBlock,
				PointsRounding:  model.RoundFloor,
			},
			wantEligible: 0,
			wantBase:     0,
			wantBonus:    0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Calculate(tt.amount, tt.spec)
			assert.InDelta(t, tt.wantEligible, got.EligibleAmount, 1e-9)
			assert.Equal(t, tt.wantBase, got.BasePoints)
			assert.Equal(t, tt.wantBonus, got.BonusPoints)
			assert.Equal(t, got.BasePoints+got.BonusPoints, got.TotalPoints)
		})
	}
}

func TestCalculate_NonPositiveAmountsEarnNothing(t *testing.T) {
	spec := model.RewardSpec{
		BaseMultiplier:  5,
		BonusMultiplier: 70,
		BlockSize:       5,
		AmountRounding:  model.AmountFloorToBlock,
		PointsRounding:  model.RoundNearest,
	}

	for _, amount := range []float64{0, -0.01, -64.68} {
		got := Calculate(amount, spec)
		assert.Equal(t, model.CalculationBreakdown{}, got, "amount %v", amount)
	}
}

func TestCalculate_TotalInvariant(t *testing.T) {
	spec := model.RewardSpec{
		BaseMultiplier:  1.5,
		BonusMultiplier: 2.25,
		BlockSize:       5,
		AmountRounding:  model.AmountFloorToBlock,
		PointsRounding:  model.RoundNearest,
	}

	for _, amount := range []float64{0.01, 4.99, 5, 7.77, 64.68, 100, 12345.67} {
		got := Calculate(amount, spec)
		assert.Equal(t, got.BasePoints+got.BonusPoints, got.TotalPoints, "amount %v", amount)
	}
}

func TestRoundPoints(t *testing.T) {
	assert.Equal(t, int64(2), RoundPoints(2.99, model.RoundFloor))
	assert.Equal(t, int64(3), RoundPoints(2.5, model.RoundNearest))
	assert.Equal(t, int64(2), RoundPoints(2.49, model.RoundNearest))
	assert.Equal(t, int64(0), RoundPoints(0, model.RoundFloor))
}
