package fixedpoint

import (
	"math/big"
	"sync"
)

var (
	pow10Mu    sync.Mutex
	pow10Cache = map[uint32]*big.Int{}
)

// pow10 returns 10^n. The returned value must not be modified.
func pow10(n uint32) *big.Int {
	pow10Mu.Lock()
	defer pow10Mu.Unlock()
	if p, ok := pow10Cache[n]; ok {
		return p
	}
	p := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(n)), nil)
	pow10Cache[n] = p
	return p
}

// floorDiv returns floor(n / d) for d != 0.
func floorDiv(n, d *big.Int) *big.Int {
	q, r := new(big.Int).QuoRem(n, d, new(big.Int))
	if r.Sign() != 0 && (r.Sign() < 0) != (d.Sign() < 0) {
		q.Sub(q, one)
	}
	return q
}

// FixedDivFloor computes floor(x * 10^decimals / y), rounding toward negative
// infinity. The intermediate product is unbounded, so it never overflows
// before the division; only the final quotient must fit in 128 bits.
func FixedDivFloor(x, y Int128, decimals uint32) (Int128, error) {
	if y.IsZero() {
		return Int128{}, ErrDivisionByZero
	}
	n := new(big.Int).Mul(x.Big(), pow10(decimals))
	return FromBig(floorDiv(n, y.Big()))
}

// Normalize scales an integer amount to a fixed-point value with the given
// number of decimals: Normalize(150, 14) == 150 * 10^14.
func Normalize(v int64, decimals uint32) (Int128, error) {
	return FromBig(new(big.Int).Mul(big.NewInt(v), pow10(decimals)))
}

// Mean returns the floor of the arithmetic mean of values.
func Mean(values []Int128) (Int128, error) {
	if len(values) == 0 {
		return Int128{}, ErrEmpty
	}
	sum := new(big.Int)
	for _, v := range values {
		sum.Add(sum, v.Big())
	}
	return FromBig(floorDiv(sum, big.NewInt(int64(len(values)))))
}
