package oracle

import "github.com/LeJamon/goPriceOracle/internal/core/fixedpoint"

// LookupFunc resolves the value of one grid slot. It reports false for an
// empty slot.
type LookupFunc func(timestamp uint64) (fixedpoint.Int128, bool, error)

// Scan visits rounds grid slots starting at start and moving back by step,
// newest first, and returns the slots that hold a value. Empty slots are
// skipped but still consume a round. The walk ends early rather than step
// below zero. Scan returns nil when no slot holds a value.
func Scan(start, step uint64, rounds uint32, lookup LookupFunc) ([]PriceData, error) {
	var out []PriceData
	ts := start
	for i := uint32(0); i < rounds; i++ {
		price, ok, err := lookup(ts)
		if err != nil {
			return nil, err
		}
		if ok {
			out = append(out, PriceData{Price: price, Timestamp: ts})
		}
		if step == 0 || ts < step {
			break
		}
		ts -= step
	}
	return out, nil
}
