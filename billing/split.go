package billing

import (
	"github.com/shopspring/decimal"
)

// =============================================================================
// PRO-RATA SPLIT CALCULATOR
// =============================================================================

// OccupierShare is one bucket of a split: how many days of the period it
// covers and the money allocated to it.
type OccupierShare struct {
	Days   int
	Amount Money
}

// SplitAllocation partitions a billing period across an occupier change:
// the previous occupier up to the vacate date, an unbilled void gap, and the
// new occupier from the move-in date. The three day counts always sum to the
// period's total; the three amounts are rounded up to 10p independently and
// may sum to slightly more than the original invoice total. The void amount
// is written off, so no reconciliation against the original is performed.
type SplitAllocation struct {
	Period     Period
	VacateDate Date
	MoveInDate Date

	TotalDays int
	DailyRate decimal.Decimal // unrounded

	PreviousOccupier OccupierShare
	VoidPeriod       OccupierShare
	NewOccupier      OccupierShare
}

// CalculateSplit computes the three-way allocation of invoiceTotal across
// the period. Preconditions, checked in order, each with a distinct error:
//  1. vacateDate within the period
//  2. moveInDate within the period
//  3. moveInDate strictly after vacateDate
func CalculateSplit(period Period, vacateDate, moveInDate Date, invoiceTotal Money) (SplitAllocation, error) {
	if period.End.Before(period.Start) {
		return SplitAllocation{}, ErrInvalidPeriod
	}
	if !period.Contains(vacateDate) {
		return SplitAllocation{}, &OutOfRangeError{Field: "vacate_date", Date: vacateDate, Period: period}
	}
	if !period.Contains(moveInDate) {
		return SplitAllocation{}, &OutOfRangeError{Field: "move_in_date", Date: moveInDate, Period: period}
	}
	if !moveInDate.After(vacateDate) {
		return SplitAllocation{}, &OrderingError{VacateDate: vacateDate, MoveInDate: moveInDate}
	}

	totalDays := period.TotalDays()
	previousDays := DaysBetween(period.Start, vacateDate) + 1
	newDays := DaysBetween(moveInDate, period.End) + 1
	// Zero when move-in is the day after vacate: the common no-gap case.
	voidDays := DaysBetween(vacateDate, moveInDate) - 1

	dailyRate := invoiceTotal.Value.Div(decimal.NewFromInt(int64(totalDays)))

	return SplitAllocation{
		Period:           period,
		VacateDate:       vacateDate,
		MoveInDate:       moveInDate,
		TotalDays:        totalDays,
		DailyRate:        dailyRate,
		PreviousOccupier: shareFor(dailyRate, previousDays),
		VoidPeriod:       shareFor(dailyRate, voidDays),
		NewOccupier:      shareFor(dailyRate, newDays),
	}, nil
}

func shareFor(dailyRate decimal.Decimal, days int) OccupierShare {
	raw := Money{Value: dailyRate.Mul(decimal.NewFromInt(int64(days)))}
	return OccupierShare{Days: days, Amount: raw.CeilToTenPence()}
}

// PreviousPeriodLabel is the human-readable label annotated onto the
// adjusted invoice's line items, e.g. "Period: 2025-02-01 to 2025-02-13".
func (a SplitAllocation) PreviousPeriodLabel() string {
	return "Period: " + a.Period.Start.String() + " to " + a.VacateDate.String()
}

// NewPeriodLabel is the label for the new occupier's invoice.
func (a SplitAllocation) NewPeriodLabel() string {
	return "Period: " + a.MoveInDate.String() + " to " + a.Period.End.String()
}

// VoidPeriodLabel describes the unbilled gap, or "none" when there is no gap.
func (a SplitAllocation) VoidPeriodLabel() string {
	if a.VoidPeriod.Days <= 0 {
		return "none"
	}
	return a.VacateDate.AddDays(1).String() + " to " + a.MoveInDate.AddDays(-1).String()
}
