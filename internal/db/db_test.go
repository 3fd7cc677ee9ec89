package db

import (
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRebind(t *testing.T) {
	q := `UPDATE timers SET state = ?, note = 'why?' WHERE id = ? AND user_id = ?`

	assert.Equal(t, q, Rebind(SQLite, q))
	assert.Equal(t,
		`UPDATE timers SET state = $1, note = 'why?' WHERE id = $2 AND user_id = $3`,
		Rebind(Postgres, q))
	assert.Equal(t, "SELECT 1", Rebind(Postgres, "SELECT 1"))
}

func TestRunMigrationsIsRepeatable(t *testing.T) {
	database, err := OpenSQLite(filepath.Join(t.TempDir(), "nested", "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = database.Close() })

	_, currentFile, _, _ := runtime.Caller(0)
	dir := filepath.Join(filepath.Dir(currentFile), "..", "..", "migrations")

	require.NoError(t, RunMigrations(database, SQLite, dir))
	require.NoError(t, RunMigrations(database, SQLite, dir))

	var count int
	require.NoError(t, database.QueryRow(`SELECT COUNT(1) FROM schema_migrations`).Scan(&count))
	assert.Equal(t, 1, count)

	_, err = database.Exec(`SELECT id, end_time, display_order FROM timers LIMIT 1`)
	assert.NoError(t, err)
}

func TestOpenPostgresRequiresDSN(t *testing.T) {
	_, err := OpenPostgres(t.Context(), "")
	assert.Error(t, err)
}
