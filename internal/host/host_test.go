package host

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/LeJamon/goPriceOracle/internal/core/fixedpoint"
	"github.com/LeJamon/goPriceOracle/internal/core/oracle"
	"github.com/LeJamon/goPriceOracle/internal/storage/database"
	"github.com/LeJamon/goPriceOracle/internal/storage/database/memory"
)

type recordingObserver struct {
	calls []string
	last  bool
}

func (r *recordingObserver) ObserveCall(op string, committed bool, writes int, elapsed time.Duration) {
	r.calls = append(r.calls, op)
	r.last = committed
}

func newHost(t *testing.T, opts ...Option) (*Host, database.DB) {
	t.Helper()
	db := memory.New()
	h, err := New(db, opts...)
	require.NoError(t, err)
	return h, db
}

func TestExecuteCommits(t *testing.T) {
	ctx := context.Background()
	h, db := newHost(t)

	price := fixedpoint.FromInt64(42)
	err := h.Execute(ctx, "set", func(st oracle.Storage) error {
		require.NoError(t, st.Set(oracle.PriceKey("BTC", 600), price))
		return st.Set(oracle.AssetsKey, []oracle.Address{"BTC", "ETH"})
	})
	require.NoError(t, err)

	raw, err := db.Read(ctx, oracle.PriceKey("BTC", 600).Bytes())
	require.NoError(t, err)
	var stored fixedpoint.Int128
	require.NoError(t, Decode(raw, &stored))
	assert.Equal(t, price, stored)

	err = h.View(ctx, "get", func(st oracle.Storage) error {
		var assets []oracle.Address
		ok, err := st.Get(oracle.AssetsKey, &assets)
		require.NoError(t, err)
		assert.True(t, ok)
		assert.Equal(t, []oracle.Address{"BTC", "ETH"}, assets)
		return nil
	})
	require.NoError(t, err)
}

func TestExecuteRollsBackOnError(t *testing.T) {
	ctx := context.Background()
	h, db := newHost(t)
	boom := errors.New("boom")

	err := h.Execute(ctx, "fail", func(st oracle.Storage) error {
		require.NoError(t, st.Set(oracle.TimestampKey, uint64(900)))

		// the call sees its own writes
		var ts uint64
		ok, err := st.Get(oracle.TimestampKey, &ts)
		require.NoError(t, err)
		assert.True(t, ok)
		assert.Equal(t, uint64(900), ts)
		return boom
	})
	assert.ErrorIs(t, err, boom)

	_, err = db.Read(ctx, oracle.TimestampKey.Bytes())
	assert.ErrorIs(t, err, database.ErrKeyNotFound)

	err = h.View(ctx, "check", func(st oracle.Storage) error {
		ok, err := st.Has(oracle.TimestampKey)
		require.NoError(t, err)
		assert.False(t, ok)
		return nil
	})
	require.NoError(t, err)
}

func TestViewDiscardsWrites(t *testing.T) {
	ctx := context.Background()
	h, db := newHost(t)

	require.NoError(t, h.View(ctx, "view", func(st oracle.Storage) error {
		return st.Set(oracle.DecimalsKey, uint32(7))
	}))
	_, err := db.Read(ctx, oracle.DecimalsKey.Bytes())
	assert.ErrorIs(t, err, database.ErrKeyNotFound)
}

func TestExecuteCanceledContext(t *testing.T) {
	h, _ := newHost(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	called := false
	err := h.Execute(ctx, "noop", func(oracle.Storage) error {
		called = true
		return nil
	})
	assert.ErrorIs(t, err, context.Canceled)
	assert.False(t, called)
}

func TestObserverAndCache(t *testing.T) {
	ctx := context.Background()
	obs := &recordingObserver{}
	h, _ := newHost(t, WithObserver(obs), WithCacheSize(16))

	require.NoError(t, h.Execute(ctx, "write", func(st oracle.Storage) error {
		return st.Set(oracle.ResolutionKey, uint32(300))
	}))
	assert.True(t, obs.last)

	require.NoError(t, h.View(ctx, "read", func(st oracle.Storage) error {
		var r uint32
		_, err := st.Get(oracle.ResolutionKey, &r)
		assert.Equal(t, uint32(300), r)
		return err
	}))
	assert.False(t, obs.last)
	assert.Equal(t, []string{"write", "read"}, obs.calls)

	hits, _ := h.Cache().Stats()
	assert.Equal(t, uint64(1), hits)
}

func TestClock(t *testing.T) {
	start := time.Unix(1_700_000_000, 0)
	clock := NewFixedClock(start)
	h, _ := newHost(t, WithClock(clock))

	assert.Equal(t, uint64(1_700_000_000), h.Now())
	clock.Advance(5 * time.Minute)
	assert.Equal(t, uint64(1_700_000_300), h.Now())
	clock.Set(time.Unix(-5, 0))
	assert.Equal(t, uint64(0), h.Now())
}

func TestCodecRoundTrip(t *testing.T) {
	big, err := fixedpoint.Parse("-170141183460469231731687303715884105728")
	require.NoError(t, err)

	data, err := Encode(big)
	require.NoError(t, err)
	var out fixedpoint.Int128
	require.NoError(t, Decode(data, &out))
	assert.Equal(t, big, out)
}
