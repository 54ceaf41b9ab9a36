// Package dbtest opens throwaway migrated SQLite databases for tests.
package dbtest

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/mrlokans/library/internal/config"
	"github.com/mrlokans/library/internal/database"
)

// Open creates a migrated database in a temporary directory. It is closed when
// the test ends.
func Open(t testing.TB) *database.Database {
	t.Helper()
	path := filepath.Join(t.TempDir(), "library-test.db")
	db, err := database.NewDatabase(config.Database{Driver: config.DriverSQLite, Path: path}, zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}
