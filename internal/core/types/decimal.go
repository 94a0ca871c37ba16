// Package types provides common type aliases and utilities.
package types

import (
	"github.com/shopspring/decimal"
)

// Money represents a monetary value with full precision.
// Uses decimal.Decimal to avoid floating-point errors.
type Money = decimal.Decimal

// Rate is a percentage expressed in percent points (18 means 18%).
type Rate = decimal.Decimal

// MoneyScale is the number of fractional digits kept on persisted amounts.
const MoneyScale int32 = 2

var hundred = decimal.NewFromInt(100)

// NewMoneyFromString creates a Money value from a string.
// This is the preferred method for monetary values.
func NewMoneyFromString(s string) (Money, error) {
	return decimal.NewFromString(s)
}

// MustMoney creates a Money value from a string, panics on error.
// Use only for constants and tests.
func MustMoney(s string) Money {
	d, err := NewMoneyFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

// Zero returns zero Money value.
func Zero() Money {
	return decimal.Zero
}

// FromInt converts a unit count to a decimal.
func FromInt(v int64) Money {
	return decimal.NewFromInt(v)
}

// Round rounds half away from zero to MoneyScale digits.
func Round(m Money) Money {
	return m.Round(MoneyScale)
}

// Percent returns amount * rate / 100 without rounding.
func Percent(amount Money, rate Rate) Money {
	return amount.Mul(rate).Div(hundred)
}

// IsValidRate reports whether rate is within [0, 100].
func IsValidRate(rate Rate) bool {
	return !rate.IsNegative() && rate.LessThanOrEqual(hundred)
}
