package billing

import (
	"strings"

	"github.com/shopspring/decimal"
)

// =============================================================================
// MONEY - GBP amount with exact decimal arithmetic
// =============================================================================

// Money is a sterling amount. It wraps decimal.Decimal so that pro-rata
// arithmetic never goes through binary floating point; the daily rate in a
// split is carried at full precision and only the final bucket amounts and
// line amounts are rounded.
type Money struct {
	Value decimal.Decimal
}

func NewMoney(value float64) Money {
	return Money{Value: decimal.NewFromFloat(value)}
}

func NewMoneyFromInt(value int) Money {
	return Money{Value: decimal.NewFromInt(int64(value))}
}

// ParseMoney parses a decimal string such as "280.00".
func ParseMoney(s string) (Money, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Money{}, err
	}
	return Money{Value: d}, nil
}

func (m Money) Add(o Money) Money           { return Money{Value: m.Value.Add(o.Value)} }
func (m Money) Sub(o Money) Money           { return Money{Value: m.Value.Sub(o.Value)} }
func (m Money) Mul(s decimal.Decimal) Money { return Money{Value: m.Value.Mul(s)} }
func (m Money) Div(s decimal.Decimal) Money { return Money{Value: m.Value.Div(s)} }
func (m Money) Neg() Money                  { return Money{Value: m.Value.Neg()} }
func (m Money) IsZero() bool                { return m.Value.IsZero() }
func (m Money) IsPositive() bool            { return m.Value.IsPositive() }
func (m Money) IsNegative() bool            { return m.Value.IsNegative() }
func (m Money) Equal(o Money) bool          { return m.Value.Equal(o.Value) }
func (m Money) GreaterThan(o Money) bool    { return m.Value.GreaterThan(o.Value) }
func (m Money) LessThan(o Money) bool       { return m.Value.LessThan(o.Value) }

// CeilToTenPence rounds up to the nearest £0.10. This is the bucket rounding
// policy for split allocations: each bucket rounds up independently, so the
// buckets may sum to slightly more than the original invoice total.
func (m Money) CeilToTenPence() Money {
	ten := decimal.NewFromInt(10)
	return Money{Value: m.Value.Mul(ten).Ceil().Div(ten)}
}

// RoundToPence rounds to 2 decimal places, half away from zero. Used for
// line-item amounts, which follow ordinary money rounding rather than the
// 10p ceiling applied to bucket totals.
func (m Money) RoundToPence() Money {
	return Money{Value: m.Value.Round(2)}
}

// ParseMoneyOrZero parses a decimal string, yielding zero on bad input.
// For literals in seed data and tests; real input goes through ParseMoney.
func ParseMoneyOrZero(s string) Money {
	m, err := ParseMoney(s)
	if err != nil {
		return Money{}
	}
	return m
}

// String formats the amount with two decimal places.
func (m Money) String() string { return m.Value.StringFixed(2) }

// JSON representation is the plain decimal string.
func (m Money) MarshalJSON() ([]byte, error) {
	return []byte(`"` + m.Value.String() + `"`), nil
}

func (m *Money) UnmarshalJSON(data []byte) error {
	s := strings.Trim(string(data), `"`)
	if s == "null" || s == "" {
		*m = Money{}
		return nil
	}
	parsed, err := ParseMoney(s)
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}
