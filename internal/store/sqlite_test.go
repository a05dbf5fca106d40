package store

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestSQLiteStore(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := NewSQLiteStore(context.Background(), filepath.Join(t.TempDir(), "entries.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestSQLiteStoreContract(t *testing.T) {
	runEntryStoreContract(t, func(t *testing.T) entryStore {
		return newTestSQLiteStore(t)
	})
}

func TestSQLiteInitCreatesTable(t *testing.T) {
	s := newTestSQLiteStore(t)

	var name string
	err := s.db.QueryRow(`SELECT name FROM sqlite_master WHERE type='table' AND name='entries'`).Scan(&name)
	require.NoError(t, err)
	assert.Equal(t, "entries", name)
}

func TestSQLiteMigrateIsIdempotent(t *testing.T) {
	s := newTestSQLiteStore(t)
	ctx := context.Background()

	_, err := s.Save(ctx, sampleEntry("alice", "2024-01-01"))
	require.NoError(t, err)
	require.NoError(t, s.Migrate(ctx))

	exists, err := s.Exists(ctx, "alice", "2024-01-01")
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestSQLiteMigratesLegacyTable(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "legacy.db")

	// Schema from before entries had owners.
	raw, err := sql.Open("sqlite", path)
	require.NoError(t, err)
	_, err = raw.Exec(`
		CREATE TABLE entries (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			date TEXT NOT NULL,
			journal TEXT, intention TEXT, dream TEXT, priorities TEXT,
			reflection TEXT, strategy TEXT,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)`)
	require.NoError(t, err)
	_, err = raw.Exec(`INSERT INTO entries (date, journal, intention) VALUES ('2023-12-31', 'old journal', NULL)`)
	require.NoError(t, err)
	require.NoError(t, raw.Close())

	s, err := NewSQLiteStore(ctx, path)
	require.NoError(t, err)
	defer s.Close()

	got, err := s.GetByDate(ctx, LegacyOwner, "2023-12-31")
	require.NoError(t, err)
	assert.Equal(t, "old journal", got.Journal)
	assert.Equal(t, "", got.Intention, "NULL columns read as empty text")
	assert.False(t, got.CreatedAt.IsZero())

	_, err = s.Save(ctx, sampleEntry(LegacyOwner, "2023-12-31"))
	assert.Error(t, err, "unique index applies to migrated rows")
}

func TestSQLiteTimeScan(t *testing.T) {
	var ts sqliteTime
	require.NoError(t, ts.Scan("2024-01-01 08:30:00"))
	require.NoError(t, ts.Scan([]byte("2024-01-01T08:30:00Z")))
	require.NoError(t, ts.Scan(nil))
	assert.Error(t, ts.Scan("yesterday"))
	assert.Error(t, ts.Scan(42))
}
