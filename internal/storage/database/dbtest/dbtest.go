// Package dbtest is a conformance suite run against every database backend.
package dbtest

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/LeJamon/goPriceOracle/internal/storage/database"
)

// Run exercises db through the database.DB contract. db must be empty.
func Run(t *testing.T, db database.DB) {
	ctx := context.Background()

	t.Run("Read missing key", func(t *testing.T) {
		_, err := db.Read(ctx, []byte("missing"))
		assert.ErrorIs(t, err, database.ErrKeyNotFound)
	})

	t.Run("Write Read Delete", func(t *testing.T) {
		key := []byte("lifecycle-test")
		value := []byte("test-value")

		require.NoError(t, db.Write(ctx, key, value))
		got, err := db.Read(ctx, key)
		require.NoError(t, err)
		assert.Equal(t, value, got)

		require.NoError(t, db.Write(ctx, key, []byte("overwritten")))
		got, err = db.Read(ctx, key)
		require.NoError(t, err)
		assert.Equal(t, []byte("overwritten"), got)

		require.NoError(t, db.Delete(ctx, key))
		_, err = db.Read(ctx, key)
		assert.ErrorIs(t, err, database.ErrKeyNotFound)
	})

	t.Run("Batch Operations", func(t *testing.T) {
		require.NoError(t, db.Write(ctx, []byte("batch-gone"), []byte("x")))

		ops := []database.BatchOperation{
			{Type: database.BatchPut, Key: []byte("batch-1"), Value: []byte("one")},
			{Type: database.BatchPut, Key: []byte("batch-2"), Value: []byte("two")},
			{Type: database.BatchDelete, Key: []byte("batch-gone")},
		}
		require.NoError(t, db.Batch(ctx, ops))

		got, err := db.Read(ctx, []byte("batch-1"))
		require.NoError(t, err)
		assert.Equal(t, []byte("one"), got)
		got, err = db.Read(ctx, []byte("batch-2"))
		require.NoError(t, err)
		assert.Equal(t, []byte("two"), got)
		_, err = db.Read(ctx, []byte("batch-gone"))
		assert.ErrorIs(t, err, database.ErrKeyNotFound)
	})

	t.Run("Iterator", func(t *testing.T) {
		for i := 0; i < 5; i++ {
			key := []byte(fmt.Sprintf("iter-%d", i))
			require.NoError(t, db.Write(ctx, key, []byte{byte(i)}))
		}

		collect := func(start, end []byte) []string {
			it, err := db.Iterator(ctx, start, end)
			require.NoError(t, err)
			defer it.Close()

			var keys []string
			for it.Next() {
				keys = append(keys, string(it.Key()))
			}
			require.NoError(t, it.Error())
			return keys
		}

		assert.Equal(t, []string{"iter-1", "iter-2", "iter-3"}, collect([]byte("iter-1"), []byte("iter-4")))

		prefix := []byte("iter-")
		assert.Equal(t,
			[]string{"iter-0", "iter-1", "iter-2", "iter-3", "iter-4"},
			collect(prefix, database.PrefixEnd(prefix)))

		all := collect(nil, nil)
		assert.Contains(t, all, "batch-1")
		assert.Contains(t, all, "iter-4")
	})

	t.Run("Values are copied", func(t *testing.T) {
		value := []byte("original")
		require.NoError(t, db.Write(ctx, []byte("copy"), value))
		value[0] = 'X'

		got, err := db.Read(ctx, []byte("copy"))
		require.NoError(t, err)
		assert.Equal(t, []byte("original"), got)
	})
}
