package core

import (
	"strings"

	"github.com/shopspring/decimal"
)

const noteTrimCutset = "%\n\r\t "

var oneHundred = decimal.NewFromInt(100)

// ParseNote splits a raw note on the first occurrence of sep and returns the
// clean note text plus the embedded cashback percentage as a ratio.
//
// "Coffee|5%" yields ("Coffee", 0.05). When the separator is absent, or the
// trailing segment does not parse as a percentage in [0, 100], the original
// text comes back verbatim with a zero rate. This never fails: malformed
// annotations degrade silently to no cashback.
func ParseNote(raw, sep string) (string, decimal.Decimal) {
	if sep == "" {
		sep = NoteSeparator
	}
	idx := strings.Index(raw, sep)
	if idx < 0 {
		return raw, decimal.Zero
	}
	note := strings.Trim(raw[:idx], noteTrimCutset)
	pct := strings.Trim(raw[idx+len(sep):], noteTrimCutset)
	value, err := decimal.NewFromString(pct)
	if err != nil {
		return raw, decimal.Zero
	}
	rate := value.Div(oneHundred)
	if rate.IsNegative() || rate.GreaterThan(decimal.NewFromInt(1)) {
		return raw, decimal.Zero
	}
	return note, rate
}
