package model

// CalculationBreakdown is the raw output of the reward calculator for a
// matched rule and amount, before any cap clamping. Raw values are kept
// alongside the rounded points because spend-amount caps prorate the raw
// bonus before rounding.
type CalculationBreakdown struct {
	EligibleAmount float64
	Blocks         float64
	RawBase        float64
	RawBonus       float64
	BasePoints     int64
	BonusPoints    int64
	TotalPoints    int64
}

// SimulationResult is what SimulateRewards returns to the caller. It is
// computed without side effects so forms can preview points live.
type SimulationResult struct {
	AppliedRule           *RewardRule
	RemainingMonthlyBonus *float64
	PointsCurrency        string
	Messages              []string
	BasePoints            int64
	BonusPoints           int64
	TotalPoints           int64
}

// AwardResult describes what a committed transaction actually earned
// after cap clamping, including the ledger bookkeeping that was written.
type AwardResult struct {
	Movement    *BonusPointsMovement
	AppliedRule *RewardRule
	BasePoints  int64
	BonusPoints int64
	TotalPoints int64
}
