// Package core holds the domain model shared by the ingestion and reporting
// layers: transactions, budget lines, period keys and the money helpers the
// aggregation engine leans on.
package core

import (
	"math"
	"strings"

	"github.com/shopspring/decimal"
)

// Epsilon is the threshold under which an account figure is considered
// settled for display purposes (1/1000 of the currency unit).
var Epsilon = decimal.New(1, -3)

// ParseAmount parses a signed decimal amount from an export field.
func ParseAmount(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, ErrInvalidAmount
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, ErrInvalidAmount
	}
	return d, nil
}

// Negligible reports whether d is below Epsilon in magnitude.
func Negligible(d decimal.Decimal) bool {
	return d.Abs().LessThan(Epsilon)
}

// Ratio divides num by den and returns the result as a float64.
// A zero denominator is a legitimate degenerate state (zero expected budget,
// zero eligible spend) and yields NaN rather than an error.
func Ratio(num, den decimal.Decimal) float64 {
	if den.IsZero() {
		return math.NaN()
	}
	return num.Div(den).InexactFloat64()
}
