// Package core provides the domain types of the budget tracker and the pure
// computations over them: money handling, the category registry, filtering
// and aggregation.
//
// This file contains functions for parsing monetary amounts from strings
// and converting between cents and decimal representations.
package core

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// ParseDecimalToCents converts a decimal string to cents with half-up rounding.
//
// It accepts both dot (12.34) and comma (12,34) decimal separators. Signs,
// exponents and anything other than digits and one separator are rejected, as
// are zero amounts.
//
// Examples:
//
//	ParseDecimalToCents("12.34")  -> 1234, nil
//	ParseDecimalToCents("12,34")  -> 1234, nil
//	ParseDecimalToCents("12.345") -> 1235, nil
//	ParseDecimalToCents("12.344") -> 1234, nil
func ParseDecimalToCents(s string) (int64, error) {
	d, err := parsePlainDecimal(s)
	if err != nil {
		return 0, err
	}
	cents := toCents(d)
	if cents <= 0 {
		return 0, ErrInvalidAmount
	}
	return cents, nil
}

// ParseNonNegativeCents behaves like ParseDecimalToCents but accepts zero.
func ParseNonNegativeCents(s string) (int64, error) {
	d, err := parsePlainDecimal(s)
	if err != nil {
		return 0, err
	}
	return toCents(d), nil
}

func parsePlainDecimal(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, ErrInvalidAmount
	}
	s = strings.ReplaceAll(s, ",", ".")
	if strings.Count(s, ".") > 1 {
		return decimal.Zero, ErrInvalidAmount
	}
	for _, r := range s {
		if (r < '0' || r > '9') && r != '.' {
			return decimal.Zero, ErrInvalidAmount
		}
	}
	if s == "." {
		return decimal.Zero, ErrInvalidAmount
	}
	if strings.HasPrefix(s, ".") {
		s = "0" + s
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, ErrInvalidAmount
	}
	return d, checkRange(d)
}

// maxAmount keeps every amount, in cents, well inside int64.
var maxAmount = decimal.New(1, 16)

func checkRange(d decimal.Decimal) error {
	if d.Abs().GreaterThan(maxAmount) {
		return ErrInvalidAmount
	}
	return nil
}

// ParseLenientCents reads any numeric form decimal understands, including
// signs and exponents, with comma or dot separators. Negative values clamp
// to zero.
func ParseLenientCents(s string) (int64, error) {
	s = strings.ReplaceAll(strings.TrimSpace(s), ",", ".")
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, ErrInvalidAmount
	}
	if err := checkRange(d); err != nil {
		return 0, err
	}
	if d.IsNegative() {
		return 0, nil
	}
	return toCents(d), nil
}

func toCents(d decimal.Decimal) int64 {
	return d.Shift(2).Round(0).IntPart()
}

// MoneyFromFloat converts a float amount, as produced by JSON decoders, to
// Money rounded half-up to the cent.
func MoneyFromFloat(f float64) Money {
	return Money{Cents: toCents(decimal.NewFromFloat(f))}
}

// Decimal returns the amount in currency units.
func (m Money) Decimal() decimal.Decimal {
	return decimal.New(m.Cents, -2)
}

// Float returns the amount as a float64 for display and chart math.
// Use cents for sums to avoid floating-point drift.
func (m Money) Float() float64 {
	return m.Decimal().InexactFloat64()
}

// String renders the amount with exactly two decimals, e.g. "12.50".
func (m Money) String() string {
	return m.Decimal().StringFixed(2)
}

// Format renders the amount as a dollar string, e.g. "$12.50".
func (m Money) Format() string {
	if m.Cents < 0 {
		return "-$" + Money{Cents: -m.Cents}.String()
	}
	return "$" + m.String()
}

// MarshalJSON encodes money as a plain JSON number in currency units.
func (m Money) MarshalJSON() ([]byte, error) {
	return []byte(m.Decimal().String()), nil
}

// UnmarshalJSON accepts a JSON number or a numeric string.
func (m *Money) UnmarshalJSON(b []byte) error {
	s := strings.Trim(strings.TrimSpace(string(b)), `"`)
	if s == "" || s == "null" {
		m.Cents = 0
		return nil
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return fmt.Errorf("decode amount %q: %w", s, ErrInvalidAmount)
	}
	if err := checkRange(d); err != nil {
		return fmt.Errorf("decode amount %q: %w", s, err)
	}
	m.Cents = toCents(d)
	return nil
}
