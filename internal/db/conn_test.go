package db

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewStore(t *testing.T) {
	ctx := context.Background()
	dbPath := filepath.Join(t.TempDir(), "data", "nested", "fathom.db")

	store, err := NewStore(ctx, dbPath)
	require.NoError(t, err)
	defer store.Close()

	_, err = os.Stat(dbPath)
	require.NoError(t, err, "database file and parent directories are created")

	pragmas := []struct {
		name string
		want string
	}{
		{"journal_mode", "wal"},
		{"foreign_keys", "1"},
		{"busy_timeout", "5000"},
	}
	for _, p := range pragmas {
		t.Run(p.name, func(t *testing.T) {
			var got string
			require.NoError(t, store.QueryRowContext(ctx, "PRAGMA "+p.name).Scan(&got))
			assert.Equal(t, p.want, got)
		})
	}

	assert.Equal(t, 1, store.Stats().MaxOpenConnections)
}

func TestStore_Migrate(t *testing.T) {
	t.Run("applies migrations", func(t *testing.T) {
		ctx := context.Background()
		store, err := NewStore(ctx, filepath.Join(t.TempDir(), "test.db"))
		require.NoError(t, err)
		defer store.Close()

		before, err := store.AppliedMigrations(ctx)
		require.NoError(t, err)
		assert.Empty(t, before)

		ran, err := store.Migrate(ctx)
		require.NoError(t, err)
		assert.Equal(t, []string{"001_annotations.sql", "002_corpus_imports.sql"}, ran)

		for _, table := range []string{"annotated_lines", "corpus_imports"} {
			var name string
			err = store.QueryRowContext(ctx,
				"SELECT name FROM sqlite_master WHERE type='table' AND name=?", table).Scan(&name)
			assert.NoError(t, err)
			assert.Equal(t, table, name)
		}
	})

	t.Run("is idempotent", func(t *testing.T) {
		ctx := context.Background()
		store, err := NewStore(ctx, filepath.Join(t.TempDir(), "test.db"))
		require.NoError(t, err)
		defer store.Close()

		_, err = store.Migrate(ctx)
		require.NoError(t, err)

		ran, err := store.Migrate(ctx)
		require.NoError(t, err)
		assert.Empty(t, ran)

		applied, err := store.AppliedMigrations(ctx)
		require.NoError(t, err)
		assert.Len(t, applied, 2)

		count, err := store.CountLines(ctx)
		assert.NoError(t, err)
		assert.Equal(t, int64(0), count)
	})
}

func TestExtractUpMigration(t *testing.T) {
	t.Run("extracts up portion", func(t *testing.T) {
		content := `-- +migrate Up
CREATE TABLE test (id INTEGER);

-- +migrate Down
DROP TABLE test;
`
		assert.Equal(t, "CREATE TABLE test (id INTEGER);", extractUpMigration(content))
	})

	t.Run("handles no down marker", func(t *testing.T) {
		content := "-- +migrate Up\nCREATE TABLE test (id INTEGER);\n"
		assert.Equal(t, "CREATE TABLE test (id INTEGER);", extractUpMigration(content))
	})
}

// NewTestStore provides a migrated database in a temporary directory.
func NewTestStore(t *testing.T) *Store {
	t.Helper()

	ctx := context.Background()
	store, err := NewStore(ctx, filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)

	_, err = store.Migrate(ctx)
	require.NoError(t, err)

	t.Cleanup(func() {
		store.Close()
	})

	return store
}
