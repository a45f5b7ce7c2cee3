package billing

import (
	"fmt"
	"time"
)

// =============================================================================
// PERIOD - The date range a single invoice covers
// =============================================================================

// Period is an inclusive date range [Start, End]. It is derived, never
// stored: recomputed from an invoice's issue date and a billing schedule
// whenever it is needed.
type Period struct {
	Start Date
	End   Date
}

// Contains returns true if the date is within the period [Start, End].
func (p Period) Contains(d Date) bool {
	return d.AfterOrEqual(p.Start) && d.BeforeOrEqual(p.End)
}

// TotalDays returns the inclusive day count of the period.
func (p Period) TotalDays() int {
	return DaysBetween(p.Start, p.End) + 1
}

func (p Period) String() string {
	return "[" + p.Start.String() + ", " + p.End.String() + "]"
}

// =============================================================================
// PERIOD RESOLVER - Which billing period does an invoice cover?
// =============================================================================

// PeriodResolution is the result of resolving an invoice date against a
// billing schedule. Fallback is true when the calendar anchor search failed
// and the degraded rule (invoice date as start, schedule length as duration)
// was used instead. Callers must log fallback resolutions: they indicate a
// calendar-logic gap, not a legitimate case.
type PeriodResolution struct {
	Period   Period
	Fallback bool
}

// Quarter anchor months: each quarterly period starts on the schedule's
// StartDay of one of these months.
var quarterAnchorMonths = []time.Month{time.January, time.April, time.July, time.October}

// ResolvePeriod computes the billing period that an invoice issued on
// invoiceDate covers. Only monthly and quarterly schedules resolve; anything
// else fails with ErrUnsupportedFrequency.
func ResolvePeriod(invoiceDate Date, schedule BillingSchedule) (PeriodResolution, error) {
	switch schedule.Frequency {
	case FrequencyMonthly:
		return resolveMonthly(invoiceDate, schedule), nil
	case FrequencyQuarterly:
		return resolveQuarterly(invoiceDate, schedule), nil
	default:
		return PeriodResolution{}, &UnsupportedFrequencyError{Frequency: schedule.Frequency}
	}
}

// resolveMonthly anchors the period at StartDay. An invoice issued on or
// after the anchor day covers the month starting in its own month; earlier
// invoices cover the month starting in the previous month. The period ends
// the day before the next anchor.
func resolveMonthly(invoiceDate Date, schedule BillingSchedule) PeriodResolution {
	var start Date
	if invoiceDate.Day() >= schedule.StartDay {
		start = NewDate(invoiceDate.Year(), invoiceDate.Month(), schedule.StartDay)
	} else if invoiceDate.Month() == time.January {
		start = NewDate(invoiceDate.Year()-1, time.December, schedule.StartDay)
	} else {
		start = NewDate(invoiceDate.Year(), invoiceDate.Month()-1, schedule.StartDay)
	}

	var nextStart Date
	if start.Month() == time.December {
		nextStart = NewDate(start.Year()+1, time.January, schedule.StartDay)
	} else {
		nextStart = NewDate(start.Year(), start.Month()+1, schedule.StartDay)
	}

	return PeriodResolution{Period: Period{Start: start, End: nextStart.AddDays(-1)}}
}

// resolveQuarterly searches the quarter anchors (Jan/Apr/Jul/Oct on StartDay)
// of the invoice's year, then of the previous year, for the unique anchor
// such that anchor <= invoiceDate < next anchor. The search over both years
// is exhaustive for any date on or after the previous year's January anchor;
// the fallback exists only as a guard against calendar-logic gaps.
func resolveQuarterly(invoiceDate Date, schedule BillingSchedule) PeriodResolution {
	for _, year := range []int{invoiceDate.Year(), invoiceDate.Year() - 1} {
		for _, anchorMonth := range quarterAnchorMonths {
			start := NewDate(year, anchorMonth, schedule.StartDay)
			var nextStart Date
			if anchorMonth == time.October {
				nextStart = NewDate(year+1, time.January, schedule.StartDay)
			} else {
				nextStart = NewDate(year, anchorMonth+3, schedule.StartDay)
			}
			if start.BeforeOrEqual(invoiceDate) && invoiceDate.Before(nextStart) {
				return PeriodResolution{Period: Period{Start: start, End: nextStart.AddDays(-1)}}
			}
		}
	}
	return fallbackResolution(invoiceDate, schedule)
}

// fallbackResolution treats the invoice date itself as the period start with
// the schedule's nominal length. Degraded: flagged so callers can surface it.
func fallbackResolution(invoiceDate Date, schedule BillingSchedule) PeriodResolution {
	length := schedule.PeriodDays
	if length <= 0 {
		length = 90
	}
	return PeriodResolution{
		Period:   Period{Start: invoiceDate, End: invoiceDate.AddDays(length - 1)},
		Fallback: true,
	}
}

// ResolvePeriodForCode is a convenience joining the code table and the
// resolver: it fails with ErrUnknownContactCode for codes outside the table
// and ErrUnsupportedFrequency for non-billable schedules.
func ResolvePeriodForCode(invoiceDate Date, code ContactCode) (PeriodResolution, error) {
	schedule, ok := LookupSchedule(code)
	if !ok {
		return PeriodResolution{}, &UnknownContactCodeError{Code: code}
	}
	res, err := ResolvePeriod(invoiceDate, schedule)
	if err != nil {
		return PeriodResolution{}, fmt.Errorf("contact code %s: %w", code, err)
	}
	return res, nil
}
