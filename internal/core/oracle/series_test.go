package oracle

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/LeJamon/goPriceOracle/internal/core/fixedpoint"
)

func lookupFrom(slots map[uint64]int64) LookupFunc {
	return func(ts uint64) (fixedpoint.Int128, bool, error) {
		v, ok := slots[ts]
		return fixedpoint.FromInt64(v), ok, nil
	}
}

func TestQuantize(t *testing.T) {
	assert.Equal(t, uint64(600), Quantize(659, 60))
	assert.Equal(t, uint64(600), Quantize(600, 60))
	assert.Equal(t, uint64(0), Quantize(59, 60))
	assert.Equal(t, uint64(17), Quantize(17, 0))

	for _, r := range []uint32{1, 7, 60, 300000} {
		for _, ts := range []uint64{0, 1, 299999, 300000, 1234567890} {
			q := Quantize(ts, r)
			assert.Equal(t, q, Quantize(q, r))
			assert.Zero(t, q%uint64(r))
			assert.LessOrEqual(t, q, ts)
		}
	}
}

func TestScanNewestFirst(t *testing.T) {
	got, err := Scan(300, 100, 3, lookupFrom(map[uint64]int64{100: 1, 200: 2, 300: 3}))
	require.NoError(t, err)
	assert.Equal(t, []PriceData{
		{Price: fixedpoint.FromInt64(3), Timestamp: 300},
		{Price: fixedpoint.FromInt64(2), Timestamp: 200},
		{Price: fixedpoint.FromInt64(1), Timestamp: 100},
	}, got)
}

func TestScanSkipsGaps(t *testing.T) {
	// every other slot is filled; n rounds still cover n slots
	slots := map[uint64]int64{1000: 10, 800: 8, 600: 6}
	got, err := Scan(1000, 100, 4, lookupFrom(slots))
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, uint64(1000), got[0].Timestamp)
	assert.Equal(t, uint64(800), got[1].Timestamp)
}

func TestScanStopsAtZero(t *testing.T) {
	calls := 0
	lookup := func(ts uint64) (fixedpoint.Int128, bool, error) {
		calls++
		return fixedpoint.FromInt64(int64(ts) + 1), true, nil
	}
	got, err := Scan(200, 100, 10, lookup)
	require.NoError(t, err)
	assert.Len(t, got, 3)
	assert.Equal(t, 3, calls)
	assert.Equal(t, uint64(0), got[2].Timestamp)
}

func TestScanEmpty(t *testing.T) {
	got, err := Scan(500, 100, 3, lookupFrom(nil))
	require.NoError(t, err)
	assert.Nil(t, got)

	got, err = Scan(500, 100, 0, lookupFrom(map[uint64]int64{500: 1}))
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestScanPropagatesError(t *testing.T) {
	boom := errors.New("boom")
	_, err := Scan(500, 100, 3, func(uint64) (fixedpoint.Int128, bool, error) {
		return fixedpoint.Int128{}, false, boom
	})
	assert.ErrorIs(t, err, boom)
}
