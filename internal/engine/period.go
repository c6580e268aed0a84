package engine

import (
	"log/slog"
	"time"

	"github.com/mhutchins/pointflow/internal/model"
)

// ResolvePeriod maps a transaction date into the cap accounting period
// it belongs to. It is a pure function of its arguments: no clock, no
// time zone conversion beyond what the caller put into date.
//
// Statement periods are anchored to a day of month: with anchorDay 19, a
// transaction on Jan 5 belongs to the December period spanning
// Dec 19 - Jan 18. Anchor days 29-31 are used literally; months with
// fewer days simply compare against the raw day number, no end-of-month
// clamping. Callers that want safe anchors should keep them in 1-28.
func ResolvePeriod(date time.Time, periodType model.PeriodType, anchorDay int, promoStart *time.Time) model.PeriodKey {
	switch periodType {
	case model.PeriodCalendar:
		return model.PeriodKey{Year: date.Year(), Month: date.Month(), CycleStartDay: 1}

	case model.PeriodStatementMonth:
		if anchorDay < 1 {
			anchorDay = 1
		}
		year, month := date.Year(), date.Month()
		if date.Day() < anchorDay {
			if month == time.January {
				year--
				month = time.December
			} else {
				month--
			}
		}
		return model.PeriodKey{Year: year, Month: month, CycleStartDay: anchorDay}

	case model.PeriodPromotional:
		if promoStart == nil {
			slog.Warn("Promotional period without a start date, falling back to calendar bucketing")
			return model.PeriodKey{Year: date.Year(), Month: date.Month(), CycleStartDay: 1}
		}
		// Every transaction under an active promotion shares one bucket
		// keyed by the promotion's own start month.
		return model.PeriodKey{Year: promoStart.Year(), Month: promoStart.Month(), CycleStartDay: 1}

	default:
		slog.Warn("Unknown period type, falling back to calendar bucketing", "period_type", periodType)
		return model.PeriodKey{Year: date.Year(), Month: date.Month(), CycleStartDay: 1}
	}
}
