package engine

import (
	"log/slog"

	"github.com/mhutchins/pointflow/internal/model"
)

// SelectRule finds the single applicable rule for a transaction:
// enabled rules for the transaction's card type whose conditions match,
// highest priority winning. Equal priorities resolve to the rule with
// the lowest catalog sequence number, so the tie-break is the documented
// first-declared-wins order rather than whatever order the store
// happened to return.
//
// When nothing matches, the catch-all base rule (priority 1, no
// conditions) is used if the catalog has one. Returns nil when even that
// is absent; callers treat a nil applied rule as a zero-point result,
// not an error.
func SelectRule(rules []model.RewardRule, tc *model.TransactionContext) *model.RewardRule {
	var best *model.RewardRule

	for i := range rules {
		rule := &rules[i]
		if !rule.Enabled || rule.CardTypeID != tc.CardTypeID {
			continue
		}
		if !MatchAll(rule.Conditions, tc) {
			continue
		}
		if best == nil ||
			rule.Priority > best.Priority ||
			(rule.Priority == best.Priority && rule.Seq < best.Seq) {
			best = rule
		}
	}

	if best != nil {
		return best
	}

	// Fall back to the catch-all base rule if the catalog declares one.
	for i := range rules {
		rule := &rules[i]
		if rule.Enabled && rule.CardTypeID == tc.CardTypeID && rule.IsCatchAll() {
			return rule
		}
	}

	slog.Debug("No applicable reward rule",
		"card_type", tc.CardTypeID,
		"mcc", tc.MCC,
		"merchant", tc.MerchantName)
	return nil
}
