package bbolt

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/LeJamon/goPriceOracle/internal/storage/database"
	"github.com/LeJamon/goPriceOracle/internal/storage/database/dbtest"
)

func TestBBoltDB(t *testing.T) {
	path := filepath.Join(t.TempDir(), "oracle.bolt")
	db, err := database.Open("bbolt", path)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	// Verify DB file exists
	_, err = os.Stat(path)
	assert.NoError(t, err)

	dbtest.Run(t, db)
}
