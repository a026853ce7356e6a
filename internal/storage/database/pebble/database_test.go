package pebble

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/LeJamon/goPriceOracle/internal/storage/database"
	"github.com/LeJamon/goPriceOracle/internal/storage/database/dbtest"
)

func TestPebbleDB(t *testing.T) {
	db, err := Open(filepath.Join(t.TempDir(), "oracle.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	dbtest.Run(t, db)
}

func TestPebbleReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "oracle.db")
	ctx := context.Background()

	db, err := database.Open("pebble", path)
	require.NoError(t, err)
	require.NoError(t, db.Write(ctx, []byte("k"), []byte("v")))
	require.NoError(t, db.Close())

	_, err = db.Read(ctx, []byte("k"))
	assert.ErrorIs(t, err, database.ErrDBClosed)

	db, err = database.Open("pebble", path)
	require.NoError(t, err)
	defer db.Close()

	got, err := db.Read(ctx, []byte("k"))
	require.NoError(t, err)
	assert.Equal(t, []byte("v"), got)
}
