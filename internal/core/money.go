// Package core provides money parsing and handling utilities.
//
// This file contains the decimal Money type used for every amount and the
// helpers that parse user input and render amounts in the Vietnamese dong
// display convention.
package core

import (
	"strings"
	"unicode"

	"github.com/shopspring/decimal"
)

// Money is a non-negative decimal amount in the display currency.
// It encodes as a bare JSON number.
type Money struct {
	decimal.Decimal
}

// Zero is the additive identity.
var Zero = Money{Decimal: decimal.Zero}

// NewMoney builds Money from an integer number of currency units.
func NewMoney(units int64) Money {
	return Money{Decimal: decimal.NewFromInt(units)}
}

// MustMoney parses a decimal literal and panics on failure. Intended for
// tests and constants.
func MustMoney(s string) Money {
	return Money{Decimal: decimal.RequireFromString(s)}
}

// Add returns m + o.
func (m Money) Add(o Money) Money {
	return Money{Decimal: m.Decimal.Add(o.Decimal)}
}

// Equal compares by value, ignoring exponent differences.
func (m Money) Equal(o Money) bool {
	return m.Decimal.Equal(o.Decimal)
}

func (m Money) MarshalJSON() ([]byte, error) {
	return []byte(m.Decimal.String()), nil
}

func (m *Money) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		m.Decimal = decimal.Zero
		return nil
	}
	return m.Decimal.UnmarshalJSON(b)
}

// ParseAmount converts user input into Money.
//
// It accepts dot (12.5) and comma (12,5) decimal separators, ignores spaces
// and rejects signs, letters and empty input. Zero is accepted.
//
// Examples:
//
//	ParseAmount("50000")  -> 50000, nil
//	ParseAmount("12,50")  -> 12.5, nil
//	ParseAmount("-1")     -> ErrInvalidAmount
//	ParseAmount("abc")    -> ErrInvalidAmount
func ParseAmount(s string) (Money, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Money{}, ErrInvalidAmount
	}
	s = strings.ReplaceAll(s, " ", "")
	s = strings.ReplaceAll(s, ",", ".")
	if strings.Count(s, ".") > 1 {
		return Money{}, ErrInvalidAmount
	}
	for _, r := range s {
		if r != '.' && !unicode.IsDigit(r) {
			return Money{}, ErrInvalidAmount
		}
	}
	if s == "." {
		return Money{}, ErrInvalidAmount
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Money{}, ErrInvalidAmount
	}
	return Money{Decimal: d}, nil
}

// FormatVND renders an amount as "50.000 ₫": dot thousands separator,
// comma decimal separator, fraction rounded to whole dong.
func FormatVND(m Money) string {
	return groupThousands(m.Decimal.Round(0).String()) + " ₫"
}

func groupThousands(digits string) string {
	neg := strings.HasPrefix(digits, "-")
	digits = strings.TrimPrefix(digits, "-")
	var b strings.Builder
	lead := len(digits) % 3
	if lead == 0 {
		lead = 3
	}
	b.WriteString(digits[:lead])
	for i := lead; i < len(digits); i += 3 {
		b.WriteByte('.')
		b.WriteString(digits[i : i+3])
	}
	if neg {
		return "-" + b.String()
	}
	return b.String()
}
