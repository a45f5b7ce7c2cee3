package billing_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/brae/tenancy-engine/billing"
)

func date(y int, m time.Month, d int) billing.Date {
	return billing.NewDate(y, m, d)
}

// =============================================================================
// MONTHLY RESOLUTION
// =============================================================================

func TestResolveMonthly_Day1Schedule(t *testing.T) {
	// GIVEN: the /3B schedule (monthly, anchored on the 1st)
	// WHEN: an invoice is issued mid-month
	// THEN: the period is that calendar month

	res, err := billing.ResolvePeriodForCode(date(2025, time.February, 10), "/3B")
	require.NoError(t, err)
	assert.False(t, res.Fallback)
	assert.Equal(t, date(2025, time.February, 1), res.Period.Start)
	assert.Equal(t, date(2025, time.February, 28), res.Period.End)
	assert.Equal(t, 28, res.Period.TotalDays())
}

func TestResolveMonthly_BeforeAnchorUsesPreviousMonth(t *testing.T) {
	// GIVEN: the /3C schedule (monthly, anchored on the 16th)
	// WHEN: the invoice date is before the anchor day
	// THEN: the period starts on the 16th of the previous month

	res, err := billing.ResolvePeriodForCode(date(2025, time.March, 10), "/3C")
	require.NoError(t, err)
	assert.Equal(t, date(2025, time.February, 16), res.Period.Start)
	assert.Equal(t, date(2025, time.March, 15), res.Period.End)
}

func TestResolveMonthly_OnAnchorStartsOwnPeriod(t *testing.T) {
	res, err := billing.ResolvePeriodForCode(date(2025, time.March, 16), "/3C")
	require.NoError(t, err)
	assert.Equal(t, date(2025, time.March, 16), res.Period.Start)
	assert.Equal(t, date(2025, time.April, 15), res.Period.End)
}

func TestResolveMonthly_JanuaryRollsBackToDecember(t *testing.T) {
	// GIVEN: day-16 schedule, invoice issued 15 January
	// THEN: the period starts 16 December of the previous year

	res, err := billing.ResolvePeriodForCode(date(2025, time.January, 15), "/3C")
	require.NoError(t, err)
	assert.Equal(t, date(2024, time.December, 16), res.Period.Start)
	assert.Equal(t, date(2025, time.January, 15), res.Period.End)
}

func TestResolveMonthly_DecemberPeriodCrossesYearEnd(t *testing.T) {
	res, err := billing.ResolvePeriodForCode(date(2024, time.December, 20), "/3C")
	require.NoError(t, err)
	assert.Equal(t, date(2024, time.December, 16), res.Period.Start)
	assert.Equal(t, date(2025, time.January, 15), res.Period.End)
}

func TestResolveMonthly_FebruaryLengthVaries(t *testing.T) {
	// Leap year February on the day-1 schedule
	res, err := billing.ResolvePeriodForCode(date(2024, time.February, 5), "/3B")
	require.NoError(t, err)
	assert.Equal(t, 29, res.Period.TotalDays())
}

// =============================================================================
// QUARTERLY RESOLUTION
// =============================================================================

func TestResolveQuarterly_Day1Schedule(t *testing.T) {
	// GIVEN: the /1A schedule (quarterly on the 1st)
	// WHEN: an invoice is issued mid-quarter
	// THEN: the period is the Jan-Mar quarter

	res, err := billing.ResolvePeriodForCode(date(2025, time.February, 10), "/1A")
	require.NoError(t, err)
	assert.False(t, res.Fallback)
	assert.Equal(t, date(2025, time.January, 1), res.Period.Start)
	assert.Equal(t, date(2025, time.March, 31), res.Period.End)
	assert.Equal(t, 90, res.Period.TotalDays())
}

func TestResolveQuarterly_BeforeFirstAnchorUsesPreviousYear(t *testing.T) {
	// GIVEN: the /2A schedule (quarterly on the 5th)
	// WHEN: the invoice date is 3 January, before the year's first anchor
	// THEN: the period is the previous year's October quarter

	res, err := billing.ResolvePeriodForCode(date(2025, time.January, 3), "/2A")
	require.NoError(t, err)
	assert.False(t, res.Fallback)
	assert.Equal(t, date(2024, time.October, 5), res.Period.Start)
	assert.Equal(t, date(2025, time.January, 4), res.Period.End)
}

func TestResolveQuarterly_OnAnchor(t *testing.T) {
	res, err := billing.ResolvePeriodForCode(date(2025, time.July, 14), "/3A")
	require.NoError(t, err)
	assert.Equal(t, date(2025, time.July, 14), res.Period.Start)
	assert.Equal(t, date(2025, time.October, 13), res.Period.End)
}

func TestResolveQuarterly_OctoberQuarterEndsNextYear(t *testing.T) {
	res, err := billing.ResolvePeriodForCode(date(2025, time.December, 1), "/1A")
	require.NoError(t, err)
	assert.Equal(t, date(2025, time.October, 1), res.Period.Start)
	assert.Equal(t, date(2025, time.December, 31), res.Period.End)
}

func TestResolveQuarterly_PaymentTypeCodesResolve(t *testing.T) {
	// Payment-type codes default to the quarterly day-1 schedule.
	for _, code := range []billing.ContactCode{"/1C", "/A", "/B", "/D"} {
		res, err := billing.ResolvePeriodForCode(date(2025, time.May, 20), code)
		require.NoError(t, err, "code %s", code)
		assert.Equal(t, date(2025, time.April, 1), res.Period.Start, "code %s", code)
		assert.Equal(t, date(2025, time.June, 30), res.Period.End, "code %s", code)
	}
}

// TestResolve_EveryDateResolvesWithoutFallback sweeps two full years of
// invoice dates across every billable schedule: the anchor search must
// always find a containing period.
func TestResolve_EveryDateResolvesWithoutFallback(t *testing.T) {
	codes := []billing.ContactCode{"/1A", "/2A", "/1B", "/3A", "/3B", "/3C", "/3D"}

	for _, code := range codes {
		d := date(2024, time.January, 1)
		end := date(2025, time.December, 31)
		for d.BeforeOrEqual(end) {
			res, err := billing.ResolvePeriodForCode(d, code)
			require.NoError(t, err, "code %s date %s", code, d)
			require.False(t, res.Fallback, "code %s date %s used fallback", code, d)
			require.True(t, res.Period.Contains(d),
				"code %s: period %s does not contain %s", code, res.Period, d)
			d = d.AddDays(1)
		}
	}
}

// =============================================================================
// NON-BILLABLE SCHEDULES
// =============================================================================

func TestResolvePeriod_NonBillableFrequencies(t *testing.T) {
	for _, code := range []billing.ContactCode{"/P", "/Q", "/R", "/S", "/CR", "/LH"} {
		_, err := billing.ResolvePeriodForCode(date(2025, time.February, 10), code)
		require.Error(t, err, "code %s", code)
		assert.ErrorIs(t, err, billing.ErrUnsupportedFrequency)
	}
}

func TestResolvePeriodForCode_UnknownCode(t *testing.T) {
	_, err := billing.ResolvePeriodForCode(date(2025, time.February, 10), "/ZZ")
	require.Error(t, err)
	assert.ErrorIs(t, err, billing.ErrUnknownContactCode)
}
