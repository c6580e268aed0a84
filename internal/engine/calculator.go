package engine

import (
	"math"

	"github.com/mhutchins/pointflow/internal/model"
)

// Calculate computes the points a matched rule earns on an amount,
// before any cap clamping.
//
// Base and bonus are rounded separately rather than as a combined total
// so a cap can later clamp the bonus alone without perturbing base
// earnings. The raw pre-rounding values are kept in the breakdown
// because spend-amount caps prorate the raw bonus before rounding.
//
// Zero and negative amounts (rebates, refunds) earn nothing. That is a
// business rule, not defensive arithmetic: refunds never earn points and
// never give them back.
func Calculate(amount float64, spec model.RewardSpec) model.CalculationBreakdown {
	if amount <= 0 {
		return model.CalculationBreakdown{}
	}

	blockSize := spec.BlockSize
	if blockSize <= 0 {
		// Catalog validation rejects this; treat a bad stored value as
		// unit blocks rather than dividing by zero.
		blockSize = 1
	}

	eligible := amount
	if spec.AmountRounding == model.AmountFloorToBlock {
		eligible = math.Floor(amount/blockSize) * blockSize
	}

	blocks := eligible / blockSize
	rawBase := blocks * spec.BaseMultiplier
	rawBonus := blocks * spec.BonusMultiplier

	basePoints := RoundPoints(rawBase, spec.PointsRounding)
	bonusPoints := RoundPoints(rawBonus, spec.PointsRounding)

	return model.CalculationBreakdown{
		EligibleAmount: eligible,
		Blocks:         blocks,
		RawBase:        rawBase,
		RawBonus:       rawBonus,
		BasePoints:     basePoints,
		BonusPoints:    bonusPoints,
		TotalPoints:    basePoints + bonusPoints,
	}
}

// RoundPoints converts a raw point value to whole points under the
// rule's rounding strategy: floor truncates toward zero, nearest rounds
// half-up to match issuer statements.
func RoundPoints(raw float64, strategy model.RoundingStrategy) int64 {
	switch strategy {
	case model.RoundNearest:
		return int64(math.Floor(raw + 0.5))
	default:
		return int64(math.Trunc(raw))
	}
}
