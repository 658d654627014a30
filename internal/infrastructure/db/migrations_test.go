package db_test

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/ArkLabsHQ/lightwallet/internal/infrastructure/db"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"
)

func openMigrationTestDB(t *testing.T, schemaVersion int64) *sql.DB {
	t.Helper()
	dbh, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	dbh.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = dbh.Close() })

	_, err = dbh.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER NOT NULL PRIMARY KEY,
			dirty BOOLEAN NOT NULL
		);
	`)
	require.NoError(t, err)
	_, err = dbh.Exec(`INSERT INTO schema_migrations(version, dirty) VALUES (?, false)`, schemaVersion)
	require.NoError(t, err)
	return dbh
}

func countApplied(t *testing.T, dbh *sql.DB, version string) int {
	t.Helper()
	var count int
	err := dbh.QueryRow(`SELECT COUNT(*) FROM go_migrations WHERE version = ?`, version).Scan(&count)
	require.NoError(t, err)
	return count
}

func noop(context.Context, *sql.DB) error { return nil }

func TestApplyGoMigrations(t *testing.T) {
	ctx := context.Background()

	t.Run("runs in order and records", func(t *testing.T) {
		dbh := openMigrationTestDB(t, 99999999999999)

		var order []string
		migrations := []db.GoMigration{
			{Version: "20250101000001", Run: func(context.Context, *sql.DB) error {
				order = append(order, "first")
				return nil
			}},
			{Version: "20250101000002", Run: func(context.Context, *sql.DB) error {
				order = append(order, "second")
				return nil
			}},
		}

		require.NoError(t, db.ApplyGoMigrations(ctx, dbh, migrations))
		require.Equal(t, []string{"first", "second"}, order)
		require.Equal(t, 1, countApplied(t, dbh, "20250101000001"))
		require.Equal(t, 1, countApplied(t, dbh, "20250101000002"))

		// Already applied migrations are skipped.
		require.NoError(t, db.ApplyGoMigrations(ctx, dbh, migrations))
		require.Len(t, order, 2)
	})

	t.Run("stops at first failure and retries", func(t *testing.T) {
		dbh := openMigrationTestDB(t, 99999999999999)

		attempts := 0
		secondCalled := false
		migrations := []db.GoMigration{
			{Version: "20250101000001", Run: func(context.Context, *sql.DB) error {
				attempts++
				if attempts == 1 {
					return errors.New("boom")
				}
				return nil
			}},
			{Version: "20250101000002", Run: func(context.Context, *sql.DB) error {
				secondCalled = true
				return nil
			}},
		}

		err := db.ApplyGoMigrations(ctx, dbh, migrations)
		require.ErrorContains(t, err, "boom")
		require.False(t, secondCalled)
		require.Zero(t, countApplied(t, dbh, "20250101000001"))

		require.NoError(t, db.ApplyGoMigrations(ctx, dbh, migrations))
		require.Equal(t, 2, attempts)
		require.True(t, secondCalled)
	})

	t.Run("invalid versions", func(t *testing.T) {
		dbh := openMigrationTestDB(t, 99999999999999)

		fixtures := []struct {
			name        string
			migrations  []db.GoMigration
			expectedErr string
		}{
			{
				name:        "empty",
				migrations:  []db.GoMigration{{Version: "", Run: noop}},
				expectedErr: "empty version",
			},
			{
				name:        "not a number",
				migrations:  []db.GoMigration{{Version: "v1", Run: noop}},
				expectedErr: "invalid version format",
			},
			{
				name: "duplicate",
				migrations: []db.GoMigration{
					{Version: "20250101000001", Run: noop},
					{Version: "20250101000001", Run: noop},
				},
				expectedErr: "duplicate go migration version",
			},
		}
		for _, f := range fixtures {
			t.Run(f.name, func(t *testing.T) {
				err := db.ApplyGoMigrations(ctx, dbh, f.migrations)
				require.ErrorContains(t, err, f.expectedErr)
			})
		}
	})

	t.Run("requires schema version", func(t *testing.T) {
		dbh := openMigrationTestDB(t, 20250101000000)

		err := db.ApplyGoMigrations(ctx, dbh, []db.GoMigration{
			{Version: "20250101000001", Run: noop},
		})
		require.ErrorContains(t, err, "requires SQL migration")
	})
}
