package engine

import (
	"math"

	"github.com/mhutchins/pointflow/internal/model"
)

// CapDecision is the outcome of clamping one transaction's bonus against
// a scope's period cap.
type CapDecision struct {
	// AwardedBonusPoints is the bonus that survives the clamp. Base
	// points are never clamped by any cap.
	AwardedBonusPoints int64
	// UsageDelta is what this transaction adds to the scope's usage
	// record: bonus points for bonusPoints caps, awarded spend for
	// spendAmount caps. Zero when the cap was already exhausted.
	UsageDelta float64
	// NewUsage is the accumulated value after this transaction.
	NewUsage float64
	// Remaining is the headroom left in the period after this award.
	Remaining float64
	// Capped reports whether the clamp reduced the bonus.
	Capped bool
	// Tracked reports whether this rule participates in cap accounting
	// at all; untracked awards never touch usage records.
	Tracked bool
}

// ApplyCap clamps a calculated bonus against the rule's monthly cap
// given the scope's current accumulated usage.
//
// For bonusPoints caps, the candidate is the rounded bonus and the cap
// counts points. For spendAmount caps, the cap counts the transaction's
// converted spend; when only part of the spend fits under the cap, the
// bonus is prorated by awardedSpend/candidateSpend against the raw
// (pre-rounding) bonus and then rounded, so a straddling transaction
// earns a proportional bonus rather than all or nothing.
func ApplyCap(breakdown model.CalculationBreakdown, spec model.RewardSpec, spendAmount, currentUsage float64) CapDecision {
	if spec.MonthlyCap == nil {
		return CapDecision{
			AwardedBonusPoints: breakdown.BonusPoints,
			Tracked:            false,
		}
	}

	capValue := spec.MonthlyCap.Value

	switch spec.MonthlyCap.Type {
	case model.CapSpendAmount:
		remaining := math.Max(0, capValue-currentUsage)
		candidateSpend := spendAmount
		if candidateSpend < 0 {
			candidateSpend = 0
		}
		awardedSpend := math.Min(candidateSpend, remaining)

		var awarded int64
		switch {
		case awardedSpend <= 0 || candidateSpend == 0:
			awarded = 0
			awardedSpend = 0
		case awardedSpend < candidateSpend:
			ratio := awardedSpend / candidateSpend
			awarded = RoundPoints(breakdown.RawBonus*ratio, spec.PointsRounding)
		default:
			awarded = breakdown.BonusPoints
		}

		newUsage := currentUsage + awardedSpend
		return CapDecision{
			AwardedBonusPoints: awarded,
			UsageDelta:         awardedSpend,
			NewUsage:           newUsage,
			Remaining:          math.Max(0, capValue-newUsage),
			Capped:             awarded < breakdown.BonusPoints,
			Tracked:            true,
		}

	default: // bonusPoints
		remaining := math.Max(0, capValue-currentUsage)
		candidate := float64(breakdown.BonusPoints)
		awardValue := math.Min(candidate, remaining)
		awarded := int64(math.Floor(awardValue))
		if awarded < 0 {
			awarded = 0
		}

		newUsage := currentUsage + float64(awarded)
		return CapDecision{
			AwardedBonusPoints: awarded,
			UsageDelta:         float64(awarded),
			NewUsage:           newUsage,
			Remaining:          math.Max(0, capValue-newUsage),
			Capped:             awarded < breakdown.BonusPoints,
			Tracked:            true,
		}
	}
}
