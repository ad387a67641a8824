// Package core provides money parsing and handling utilities.
//
// Amounts are kept as arbitrary-precision decimals and only rounded when
// they are formatted for display.
package core

import (
	"strings"

	"github.com/shopspring/decimal"
)

// Money is a decimal amount in the canonical currency (INR) unless stated
// otherwise by the surrounding record.
type Money struct {
	d decimal.Decimal
}

var hundred = decimal.NewFromInt(100)

// NewMoney wraps a decimal value.
func NewMoney(d decimal.Decimal) Money {
	return Money{d: d}
}

// MoneyFromInt returns a whole-rupee amount.
func MoneyFromInt(v int64) Money {
	return Money{d: decimal.NewFromInt(v)}
}

// Zero is the zero amount.
func Zero() Money {
	return Money{}
}

// ParseAmount converts user input to Money.
//
// It accepts "1234.5", "1,234.50" (comma as thousands separator) and
// surrounding whitespace. Signs are rejected; zero is allowed so that a
// limit or target of 0 can be stored. Callers that need strictly positive
// amounts check IsPositive.
//
// Examples:
//	ParseAmount("500")      -> 500
//	ParseAmount("1,234.50") -> 1234.50
//	ParseAmount("-3")       -> ErrInvalidAmount
func ParseAmount(s string) (Money, error) {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "₹")
	s = strings.ReplaceAll(s, ",", "")
	s = strings.TrimSpace(s)
	if s == "" {
		return Money{}, ErrInvalidAmount
	}
	if strings.HasPrefix(s, "+") || strings.HasPrefix(s, "-") {
		return Money{}, ErrInvalidAmount
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Money{}, ErrInvalidAmount
	}
	return Money{d: d}, nil
}

func (m Money) Decimal() decimal.Decimal { return m.d }

func (m Money) Add(o Money) Money { return Money{d: m.d.Add(o.d)} }

func (m Money) Sub(o Money) Money { return Money{d: m.d.Sub(o.d)} }

func (m Money) Cmp(o Money) int { return m.d.Cmp(o.d) }

func (m Money) Equal(o Money) bool { return m.d.Equal(o.d) }

func (m Money) GreaterThan(o Money) bool { return m.d.GreaterThan(o.d) }

func (m Money) IsZero() bool { return m.d.IsZero() }

func (m Money) IsPositive() bool { return m.d.IsPositive() }

func (m Money) IsNegative() bool { return m.d.IsNegative() }

// Percent returns m/of*100 as a float for display. It returns 0 when of is
// not positive.
func (m Money) Percent(of Money) float64 {
	if !of.d.IsPositive() {
		return 0
	}
	f, _ := m.d.Div(of.d).Mul(hundred).Float64()
	return f
}

// Max returns the larger of m and o.
func (m Money) Max(o Money) Money {
	if m.d.GreaterThanOrEqual(o.d) {
		return m
	}
	return o
}

// String renders the plain decimal, as used on the wire and in CSV.
func (m Money) String() string {
	return m.d.String()
}

// Input renders the amount for an editable form field (two decimals).
func (m Money) Input() string {
	return m.d.StringFixed(2)
}

// Format renders the amount for display, e.g. "₹1,234.50" or "-₹20.00".
func (m Money) Format() string {
	return FormatAmount(m, "₹")
}

// FormatAmount renders m with the given currency symbol and thousands
// separators, rounded half-up to two decimals.
func FormatAmount(m Money, symbol string) string {
	neg := m.d.IsNegative()
	s := m.d.Abs().StringFixed(2)
	intPart, frac, _ := strings.Cut(s, ".")

	var b strings.Builder
	if neg {
		b.WriteByte('-')
	}
	b.WriteString(symbol)
	for i, r := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}
	b.WriteByte('.')
	b.WriteString(frac)
	return b.String()
}

// MarshalJSON emits a bare JSON number.
func (m Money) MarshalJSON() ([]byte, error) {
	return []byte(m.d.String()), nil
}

// UnmarshalJSON accepts numbers, quoted numbers and null.
func (m *Money) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		m.d = decimal.Zero
		return nil
	}
	return m.d.UnmarshalJSON(b)
}

// Sum adds all amounts.
func Sum(amounts ...Money) Money {
	total := decimal.Zero
	for _, a := range amounts {
		total = total.Add(a.d)
	}
	return Money{d: total}
}
