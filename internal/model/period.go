package model

import (
	"fmt"
	"time"
)

// PeriodKey identifies one cap accounting window. Two transactions share
// a PeriodKey iff they fall in the same billing, calendar, or promotional
// window for a given scope.
type PeriodKey struct {
	Year          int        `json:"year"`
	Month         time.Month `json:"month"`
	CycleStartDay int        `json:"cycle_start_day"`
}

// String renders the canonical storage form, e.g. "2025-01/19".
func (k PeriodKey) String() string {
	return fmt.Sprintf("%04d-%02d/%02d", k.Year, int(k.Month), k.CycleStartDay)
}

// ParsePeriodKey parses the canonical form produced by String.
func ParsePeriodKey(s string) (PeriodKey, error) {
	var year, month, day int
	if _, err := fmt.Sscanf(s, "%d-%d/%d", &year, &month, &day); err != nil {
		return PeriodKey{}, fmt.Errorf("invalid period key %q: %w", s, err)
	}
	if month < 1 || month > 12 {
		return PeriodKey{}, fmt.Errorf("invalid period key %q: month out of range", s)
	}
	return PeriodKey{Year: year, Month: time.Month(month), CycleStartDay: day}, nil
}
