// Package model defines the core data structures for the pointflow engine.
package model

import (
	"encoding/json"
	"fmt"
)

// ConditionField identifies the transaction attribute a leaf condition tests.
type ConditionField string

// Condition field constants.
const (
	FieldMCC             ConditionField = "mcc"
	FieldMerchant        ConditionField = "merchant"
	FieldTransactionType ConditionField = "transactionType"
	FieldCurrency        ConditionField = "currency"
	FieldAmount          ConditionField = "amount"
	FieldCategory        ConditionField = "category"
)

// ConditionOp identifies the comparison a condition applies.
type ConditionOp string

// Condition operation constants.
const (
	OpInclude     ConditionOp = "include"
	OpExclude     ConditionOp = "exclude"
	OpEquals      ConditionOp = "equals"
	OpNotEquals   ConditionOp = "notEquals"
	OpGreaterThan ConditionOp = "greaterThan"
	OpLessThan    ConditionOp = "lessThan"
	OpBetween     ConditionOp = "between"
	OpAny         ConditionOp = "any"
	OpAll         ConditionOp = "all"
)

// Transaction type tokens used by transactionType leaf conditions.
const (
	TxTypeOnline      = "online"
	TxTypeInStore     = "in_store"
	TxTypeContactless = "contactless"
)

// Condition is the closed set of rule condition nodes. The only
// implementations are Leaf and Compound; the JSON form carries a "type"
// discriminant and unknown discriminants are rejected at decode time.
type Condition interface {
	isCondition()
}

// Leaf tests a single transaction attribute against a list of values.
type Leaf struct {
	Field  ConditionField `json:"field"`
	Op     ConditionOp    `json:"op"`
	Values []any          `json:"values,omitempty"`
}

func (Leaf) isCondition() {}

// Compound combines sub-conditions with any (OR) or all (AND) semantics.
// An empty sub-condition list is vacuously true for all and false for any.
type Compound struct {
	Op  ConditionOp `json:"op"`
	Sub []Condition `json:"conditions"`
}

func (Compound) isCondition() {}

// MarshalJSON emits the leaf with its type discriminant.
func (l Leaf) MarshalJSON() ([]byte, error) {
	type alias Leaf
	return json.Marshal(struct {
		Type string `json:"type"`
		alias
	}{Type: "leaf", alias: alias(l)})
}

// MarshalJSON emits the compound node with its type discriminant.
func (c Compound) MarshalJSON() ([]byte, error) {
	sub := make([]json.RawMessage, 0, len(c.Sub))
	for _, s := range c.Sub {
		data, err := json.Marshal(s)
		if err != nil {
			return nil, err
		}
		sub = append(sub, data)
	}
	return json.Marshal(struct {
		Type string            `json:"type"`
		Op   ConditionOp       `json:"op"`
		Sub  []json.RawMessage `json:"conditions"`
	}{Type: "compound", Op: c.Op, Sub: sub})
}

// DecodeCondition parses a single condition node from its JSON form,
// recursing into compound sub-conditions. Unknown discriminants are an
// error so that malformed catalog entries are caught when the rule is
// loaded, not silently matched.
func DecodeCondition(data []byte) (Condition, error) {
	var probe struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(data, &probe); err != nil {
		return nil, fmt.Errorf("failed to decode condition: %w", err)
	}

	switch probe.Type {
	case "leaf":
		var leaf Leaf
		if err := json.Unmarshal(data, &leaf); err != nil {
			return nil, fmt.Errorf("failed to decode leaf condition: %w", err)
		}
		return leaf, nil
	case "compound":
		var raw struct {
			Op  ConditionOp       `json:"op"`
			Sub []json.RawMessage `json:"conditions"`
		}
		if err := json.Unmarshal(data, &raw); err != nil {
			return nil, fmt.Errorf("failed to decode compound condition: %w", err)
		}
		compound := Compound{Op: raw.Op, Sub: make([]Condition, 0, len(raw.Sub))}
		for i, subRaw := range raw.Sub {
			sub, err := DecodeCondition(subRaw)
			if err != nil {
				return nil, fmt.Errorf("sub-condition %d: %w", i, err)
			}
			compound.Sub = append(compound.Sub, sub)
		}
		return compound, nil
	default:
		return nil, fmt.Errorf("unknown condition type %q", probe.Type)
	}
}

// DecodeConditions parses the top-level condition list stored with a rule.
// An empty or null document yields an empty list, which always matches.
func DecodeConditions(data []byte) ([]Condition, error) {
	if len(data) == 0 {
		return nil, nil
	}
	var rawList []json.RawMessage
	if err := json.Unmarshal(data, &rawList); err != nil {
		return nil, fmt.Errorf("failed to decode condition list: %w", err)
	}
	conditions := make([]Condition, 0, len(rawList))
	for i, raw := range rawList {
		cond, err := DecodeCondition(raw)
		if err != nil {
			return nil, fmt.Errorf("condition %d: %w", i, err)
		}
		conditions = append(conditions, cond)
	}
	return conditions, nil
}

// EncodeConditions serializes a condition list for storage.
func EncodeConditions(conditions []Condition) ([]byte, error) {
	if len(conditions) == 0 {
		return []byte("[]"), nil
	}
	data, err := json.Marshal(conditions)
	if err != nil {
		return nil, fmt.Errorf("failed to encode conditions: %w", err)
	}
	return data, nil
}
