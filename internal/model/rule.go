package model

import (
	"fmt"
	"time"
)

// RoundingStrategy controls how raw point values become whole points.
type RoundingStrategy string

// Points rounding constants.
const (
	RoundFloor   RoundingStrategy = "floor"
	RoundNearest RoundingStrategy = "nearest"
)

// AmountRounding controls how the spend amount is adjusted before the
// block calculation.
type AmountRounding string

// Amount rounding constants.
const (
	AmountRoundNone    AmountRounding = "none"
	AmountFloorToBlock AmountRounding = "floorToBlock"
)

// PeriodType selects the bucketing model used for cap periods.
type PeriodType string

// Period type constants.
const (
	PeriodCalendar       PeriodType = "calendar"
	PeriodStatementMonth PeriodType = "statementMonth"
	PeriodPromotional    PeriodType = "promotional"
)

// CapType selects what a monthly cap counts: earned bonus points or the
// converted spend amount.
type CapType string

// Cap type constants.
const (
	CapBonusPoints CapType = "bonusPoints"
	CapSpendAmount CapType = "spendAmount"
)

// MonthlyCap limits how much bonus a scope can accumulate per period.
type MonthlyCap struct {
	Value float64 `json:"value"`
	Type  CapType `json:"capType"`
}

// RewardSpec describes how a matched rule converts spend into points.
type RewardSpec struct {
	PromoStartDate  *time.Time       `json:"promo_start_date,omitempty"`
	MonthlyCap      *MonthlyCap      `json:"monthly_cap,omitempty"`
	PointsCurrency  string           `json:"points_currency"`
	PointsRounding  RoundingStrategy `json:"points_rounding"`
	AmountRounding  AmountRounding   `json:"amount_rounding"`
	PeriodType      PeriodType       `json:"period_type"`
	CapGroupID      string           `json:"cap_group_id,omitempty"`
	BaseMultiplier  float64          `json:"base_multiplier"`
	BonusMultiplier float64          `json:"bonus_multiplier"`
	BlockSize       float64          `json:"block_size"`
	AnchorDay       int              `json:"anchor_day"`
}

// RewardRule is an issuer-defined earning rule for one card type.
// Priority ties are broken by Seq, the stable catalog declaration order:
// the first-declared rule wins.
type RewardRule struct {
	CreatedAt  time.Time   `json:"created_at"`
	UpdatedAt  time.Time   `json:"updated_at"`
	ID         string      `json:"id"`
	CardTypeID string      `json:"card_type_id"`
	Name       string      `json:"name"`
	Conditions []Condition `json:"conditions"`
	Reward     RewardSpec  `json:"reward"`
	Priority   int         `json:"priority"`
	Seq        int         `json:"seq"`
	Enabled    bool        `json:"enabled"`
}

// CapScopeID returns the scope that cap usage is tracked under: the
// shared cap group when configured, otherwise the rule's own ID.
func (r *RewardRule) CapScopeID() string {
	if r.Reward.CapGroupID != "" {
		return r.Reward.CapGroupID
	}
	return r.ID
}

// IsCatchAll reports whether this is the base fallback rule: priority 1
// with no conditions, matching every transaction.
func (r *RewardRule) IsCatchAll() bool {
	return r.Priority == 1 && len(r.Conditions) == 0
}

// Validate ensures the rule is well formed before it enters the catalog.
func (r *RewardRule) Validate() error {
	if r.ID == "" {
		return fmt.Errorf("rule ID is required")
	}
	if r.CardTypeID == "" {
		return fmt.Errorf("card type ID is required")
	}
	if r.Name == "" {
		return fmt.Errorf("rule name is required")
	}
	if r.Reward.BlockSize <= 0 {
		return fmt.Errorf("block size must be positive, got %v", r.Reward.BlockSize)
	}
	if r.Reward.BaseMultiplier < 0 || r.Reward.BonusMultiplier < 0 {
		return fmt.Errorf("multipliers must not be negative")
	}
	switch r.Reward.PointsRounding {
	case RoundFloor, RoundNearest:
	default:
		return fmt.Errorf("invalid points rounding strategy %q", r.Reward.PointsRounding)
	}
	switch r.Reward.AmountRounding {
	case AmountRoundNone, AmountFloorToBlock:
	default:
		return fmt.Errorf("invalid amount rounding strategy %q", r.Reward.AmountRounding)
	}
	switch r.Reward.PeriodType {
	case PeriodCalendar, PeriodStatementMonth:
	case PeriodPromotional:
		if r.Reward.PromoStartDate == nil {
			return fmt.Errorf("promotional rule requires a promo start date")
		}
	default:
		return fmt.Errorf("invalid period type %q", r.Reward.PeriodType)
	}
	if cap := r.Reward.MonthlyCap; cap != nil {
		if cap.Value <= 0 {
			return fmt.Errorf("cap value must be positive, got %v", cap.Value)
		}
		switch cap.Type {
		case CapBonusPoints, CapSpendAmount:
		default:
			return fmt.Errorf("invalid cap type %q", cap.Type)
		}
	}
	return nil
}
