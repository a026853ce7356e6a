package fixedpoint

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Decimal renders x as a decimal number with the given number of fractional
// digits, e.g. 1500000 with 4 decimals is 150.
func (x Int128) Decimal(decimals uint32) decimal.Decimal {
	return decimal.NewFromBigInt(x.Big(), -int32(decimals))
}

// FromDecimal converts a decimal number to fixed point, discarding digits
// beyond the requested precision by flooring.
func FromDecimal(d decimal.Decimal, decimals uint32) (Int128, error) {
	return FromBig(d.Shift(int32(decimals)).Floor().BigInt())
}

// ParseDecimal parses a decimal string such as "42.015" into fixed point.
func ParseDecimal(s string, decimals uint32) (Int128, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Int128{}, fmt.Errorf("fixedpoint: invalid decimal %q: %w", s, err)
	}
	return FromDecimal(d, decimals)
}
