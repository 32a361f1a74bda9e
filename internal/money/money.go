// Package money converts between integer cents and decimal amounts.
//
// All matching arithmetic stays in int64 cents; decimals only appear at the
// edges (display strings in responses, amounts typed by an operator).
package money

import (
	"fmt"

	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// Format renders cents as a fixed two-decimal string, e.g. 80050 -> "800.50".
func Format(cents int64) string {
	return decimal.New(cents, -2).StringFixed(2)
}

// ParseCents parses a decimal amount such as "800.5" into cents. Amounts with
// more than two fractional digits are rejected rather than rounded.
func ParseCents(amount string) (int64, error) {
	d, err := decimal.NewFromString(amount)
	if err != nil {
		return 0, fmt.Errorf("invalid amount %q: %w", amount, err)
	}
	cents := d.Mul(hundred)
	if !cents.Equal(cents.Truncate(0)) {
		return 0, fmt.Errorf("invalid amount %q: more than two decimal places", amount)
	}
	if !cents.BigInt().IsInt64() {
		return 0, fmt.Errorf("invalid amount %q: out of range", amount)
	}
	return cents.IntPart(), nil
}
