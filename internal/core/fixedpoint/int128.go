// Package fixedpoint implements the signed 128-bit integer used for prices,
// fees and balances, together with the fixed-point helpers built on it.
//
// Arithmetic that can exceed 128 bits (the multiply-before-divide step of a
// fixed-point division, sums of many prices) is carried out on math/big
// values and narrowed back with an explicit range check.
package fixedpoint

import (
	"errors"
	"fmt"
	"math/big"
)

var (
	// ErrOverflow is returned when a result does not fit in 128 bits.
	ErrOverflow = errors.New("fixedpoint: value overflows int128")

	// ErrDivisionByZero is returned by divisions with a zero divisor.
	ErrDivisionByZero = errors.New("fixedpoint: division by zero")

	// ErrEmpty is returned by Mean for an empty input.
	ErrEmpty = errors.New("fixedpoint: no values")
)

var (
	one       = big.NewInt(1)
	maxInt128 = new(big.Int).Sub(new(big.Int).Lsh(one, 127), one)
	minInt128 = new(big.Int).Neg(new(big.Int).Lsh(one, 127))
	lowMask   = new(big.Int).SetUint64(^uint64(0))
)

// Int128 is a two's complement signed 128-bit integer. The zero value is 0.
// Int128 is comparable and can be used as a map key.
type Int128 struct {
	Hi int64
	Lo uint64
}

// Zero is the Int128 value 0.
var Zero = Int128{}

// FromInt64 widens v to 128 bits.
func FromInt64(v int64) Int128 {
	if v < 0 {
		return Int128{Hi: -1, Lo: uint64(v)}
	}
	return Int128{Lo: uint64(v)}
}

// FromUint64 widens v to 128 bits.
func FromUint64(v uint64) Int128 {
	return Int128{Lo: v}
}

// FromBig narrows b to 128 bits, failing with ErrOverflow when it does not fit.
func FromBig(b *big.Int) (Int128, error) {
	if b.Cmp(minInt128) < 0 || b.Cmp(maxInt128) > 0 {
		return Int128{}, ErrOverflow
	}
	lo := new(big.Int).And(b, lowMask)
	hi := new(big.Int).Rsh(b, 64)
	return Int128{Hi: hi.Int64(), Lo: lo.Uint64()}, nil
}

// Parse reads a base-10 integer.
func Parse(s string) (Int128, error) {
	b, ok := new(big.Int).SetString(s, 10)
	if !ok {
		return Int128{}, fmt.Errorf("fixedpoint: invalid integer %q", s)
	}
	return FromBig(b)
}

// Big returns x as a newly allocated big.Int.
func (x Int128) Big() *big.Int {
	b := big.NewInt(x.Hi)
	b.Lsh(b, 64)
	return b.Add(b, new(big.Int).SetUint64(x.Lo))
}

// Sign returns -1, 0 or +1.
func (x Int128) Sign() int {
	switch {
	case x.Hi < 0:
		return -1
	case x.Hi == 0 && x.Lo == 0:
		return 0
	default:
		return 1
	}
}

// IsZero reports whether x == 0.
func (x Int128) IsZero() bool {
	return x.Hi == 0 && x.Lo == 0
}

// Cmp compares x and y and returns -1, 0 or +1.
func (x Int128) Cmp(y Int128) int {
	switch {
	case x.Hi < y.Hi:
		return -1
	case x.Hi > y.Hi:
		return 1
	case x.Lo < y.Lo:
		return -1
	case x.Lo > y.Lo:
		return 1
	}
	return 0
}

// Add returns x + y.
func (x Int128) Add(y Int128) (Int128, error) {
	return FromBig(new(big.Int).Add(x.Big(), y.Big()))
}

// Sub returns x - y.
func (x Int128) Sub(y Int128) (Int128, error) {
	return FromBig(new(big.Int).Sub(x.Big(), y.Big()))
}

// Mul returns x * y.
func (x Int128) Mul(y Int128) (Int128, error) {
	return FromBig(new(big.Int).Mul(x.Big(), y.Big()))
}

// Neg returns -x.
func (x Int128) Neg() (Int128, error) {
	return FromBig(new(big.Int).Neg(x.Big()))
}

// String formats x in base 10.
func (x Int128) String() string {
	return x.Big().String()
}

// MarshalText implements encoding.TextMarshaler. JSON renders Int128 as a
// quoted base-10 string so that values beyond 2^53 survive clients.
func (x Int128) MarshalText() ([]byte, error) {
	return []byte(x.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (x *Int128) UnmarshalText(text []byte) error {
	v, err := Parse(string(text))
	if err != nil {
		return err
	}
	*x = v
	return nil
}
