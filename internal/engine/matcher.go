// Package engine implements the reward calculation engine: condition
// matching, rule selection, point calculation, period resolution, and
// cap tracking.
package engine

import (
	"encoding/json"
	"log/slog"
	"strconv"
	"strings"

	"github.com/mhutchins/pointflow/internal/model"
)

// MatchAll evaluates a rule's top-level condition list against a
// transaction. An empty list always matches; this is what makes the
// catch-all base rule work.
func MatchAll(conditions []model.Condition, tc *model.TransactionContext) bool {
	for _, cond := range conditions {
		if !MatchCondition(cond, tc) {
			return false
		}
	}
	return true
}

// MatchCondition evaluates a single condition node. It is pure and never
// panics: unknown fields, unknown operations, and malformed value lists
// all fail closed (no match) with a debug log for catalog authors.
func MatchCondition(cond model.Condition, tc *model.TransactionContext) bool {
	switch c := cond.(type) {
	case model.Leaf:
		return matchLeaf(c, tc)
	case model.Compound:
		return matchCompound(c, tc)
	default:
		slog.Debug("Unknown condition node type, treating as non-matching")
		return false
	}
}

func matchCompound(c model.Compound, tc *model.TransactionContext) bool {
	switch c.Op {
	case model.OpAll:
		for _, sub := range c.Sub {
			if !MatchCondition(sub, tc) {
				return false
			}
		}
		return true
	case model.OpAny:
		for _, sub := range c.Sub {
			if MatchCondition(sub, tc) {
				return true
			}
		}
		return false
	default:
		slog.Debug("Unknown compound operation", "op", c.Op)
		return false
	}
}

func matchLeaf(c model.Leaf, tc *model.TransactionContext) bool {
	switch c.Field {
	case model.FieldMCC:
		return matchMembership(c, tc.MCC)
	case model.FieldCurrency:
		return matchMembership(c, tc.Currency)
	case model.FieldCategory:
		return matchMembership(c, tc.Category)
	case model.FieldMerchant:
		return matchMerchant(c, tc.MerchantName)
	case model.FieldTransactionType:
		return matchTransactionType(c, tc)
	case model.FieldAmount:
		return matchAmount(c, tc.Amount)
	default:
		slog.Debug("Unknown condition field", "field", c.Field)
		return false
	}
}

// matchMembership handles set and equality tests for plain string fields.
func matchMembership(c model.Leaf, actual string) bool {
	switch c.Op {
	case model.OpInclude, model.OpEquals:
		return containsValue(c.Values, actual)
	case model.OpExclude, model.OpNotEquals:
		return !containsValue(c.Values, actual)
	default:
		slog.Debug("Unsupported operation for membership field", "field", c.Field, "op", c.Op)
		return false
	}
}

// matchMerchant matches merchant names by case-insensitive substring in
// either direction, so abbreviated names on either side still match
// ("AMZN" in the catalog vs "AMZN Mktp US" from the card feed, or
// "Amazon Marketplace" in the catalog vs "amazon" from the feed).
func matchMerchant(c model.Leaf, merchant string) bool {
	merchant = strings.ToLower(strings.TrimSpace(merchant))

	anyMatch := false
	for _, v := range c.Values {
		pattern, ok := valueString(v)
		if !ok {
			continue
		}
		pattern = strings.ToLower(strings.TrimSpace(pattern))
		if pattern == "" || merchant == "" {
			continue
		}
		if strings.Contains(merchant, pattern) || strings.Contains(pattern, merchant) {
			anyMatch = true
			break
		}
	}

	switch c.Op {
	case model.OpInclude, model.OpEquals:
		return anyMatch
	case model.OpExclude, model.OpNotEquals:
		return !anyMatch
	default:
		slog.Debug("Unsupported operation for merchant field", "op", c.Op)
		return false
	}
}

// matchTransactionType tests online/in_store/contactless tokens against
// the booleans derived from the transaction.
func matchTransactionType(c model.Leaf, tc *model.TransactionContext) bool {
	tokens := tc.TypeTokens()

	anyMatch := false
	for _, v := range c.Values {
		token, ok := valueString(v)
		if !ok {
			continue
		}
		for _, t := range tokens {
			if strings.EqualFold(token, t) {
				anyMatch = true
				break
			}
		}
		if anyMatch {
			break
		}
	}

	switch c.Op {
	case model.OpInclude, model.OpEquals:
		return anyMatch
	case model.OpExclude, model.OpNotEquals:
		return !anyMatch
	default:
		slog.Debug("Unsupported operation for transactionType field", "op", c.Op)
		return false
	}
}

func matchAmount(c model.Leaf, amount float64) bool {
	switch c.Op {
	case model.OpGreaterThan:
		bound, ok := valueFloat(firstValue(c.Values))
		return ok && amount > bound
	case model.OpLessThan:
		bound, ok := valueFloat(firstValue(c.Values))
		return ok && amount < bound
	case model.OpBetween:
		if len(c.Values) < 2 {
			slog.Debug("Malformed between condition, fewer than two values", "values", len(c.Values))
			return false
		}
		low, okLow := valueFloat(c.Values[0])
		high, okHigh := valueFloat(c.Values[1])
		if !okLow || !okHigh {
			slog.Debug("Malformed between condition, non-numeric bounds")
			return false
		}
		return amount >= low && amount <= high
	case model.OpEquals:
		bound, ok := valueFloat(firstValue(c.Values))
		return ok && amount == bound
	default:
		slog.Debug("Unsupported operation for amount field", "op", c.Op)
		return false
	}
}

func containsValue(values []any, actual string) bool {
	for _, v := range values {
		s, ok := valueString(v)
		if !ok {
			continue
		}
		if strings.EqualFold(strings.TrimSpace(s), strings.TrimSpace(actual)) {
			return true
		}
	}
	return false
}

func firstValue(values []any) any {
	if len(values) == 0 {
		return nil
	}
	return values[0]
}

// valueString coerces a condition value decoded from JSON to a string.
func valueString(v any) (string, bool) {
	switch val := v.(type) {
	case string:
		return val, true
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64), true
	case json.Number:
		return val.String(), true
	case int:
		return strconv.Itoa(val), true
	default:
		return "", false
	}
}

// valueFloat coerces a condition value decoded from JSON to a number.
func valueFloat(v any) (float64, bool) {
	switch val := v.(type) {
	case float64:
		return val, true
	case int:
		return float64(val), true
	case json.Number:
		f, err := val.Float64()
		return f, err == nil
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(val), 64)
		return f, err == nil
	default:
		return 0, false
	}
}
