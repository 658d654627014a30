package db

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"time"

	log "github.com/sirupsen/logrus"
)

// GoMigration is a data migration bound to the schema migration with the same
// version. Run must be idempotent: it is retried on the next startup if the
// completion row could not be recorded.
type GoMigration struct {
	Version string
	Run     func(ctx context.Context, db *sql.DB) error
}

// ApplyGoMigrations runs, in order, every migration not yet recorded in the
// go_migrations table. It stops at the first failure without recording it.
func ApplyGoMigrations(ctx context.Context, db *sql.DB, migrations []GoMigration) error {
	versions, err := parseVersions(migrations)
	if err != nil {
		return err
	}

	if _, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS go_migrations (
			version    TEXT PRIMARY KEY,
			applied_at INTEGER NOT NULL
		);
	`); err != nil {
		return fmt.Errorf("ensure go_migrations table: %w", err)
	}

	var schemaVersion int64
	if err := db.QueryRowContext(
		ctx, `SELECT version FROM schema_migrations LIMIT 1`,
	).Scan(&schemaVersion); err != nil {
		return fmt.Errorf("read schema migration version: %w", err)
	}

	for i, m := range migrations {
		if schemaVersion < versions[i] {
			return fmt.Errorf(
				"go migration %s requires SQL migration %s, but schema version is %d",
				m.Version, m.Version, schemaVersion,
			)
		}

		var count int
		if err := db.QueryRowContext(ctx,
			`SELECT COUNT(*) FROM go_migrations WHERE version = ?`, m.Version,
		).Scan(&count); err != nil {
			return fmt.Errorf("check go migration %s: %w", m.Version, err)
		}
		if count > 0 {
			continue
		}

		log.Infof("applying go migration %s", m.Version)
		if err := m.Run(ctx, db); err != nil {
			return fmt.Errorf("go migration %s: %w", m.Version, err)
		}

		if _, err := db.ExecContext(ctx,
			`INSERT INTO go_migrations (version, applied_at) VALUES (?, ?)`,
			m.Version, time.Now().Unix(),
		); err != nil {
			return fmt.Errorf("record go migration %s: %w", m.Version, err)
		}
	}
	return nil
}

func parseVersions(migrations []GoMigration) ([]int64, error) {
	seen := make(map[string]struct{}, len(migrations))
	versions := make([]int64, 0, len(migrations))
	for _, m := range migrations {
		if m.Version == "" {
			return nil, fmt.Errorf("go migration has empty version")
		}
		v, err := strconv.ParseInt(m.Version, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("go migration %q has invalid version format: %w", m.Version, err)
		}
		if _, ok := seen[m.Version]; ok {
			return nil, fmt.Errorf("duplicate go migration version %s", m.Version)
		}
		seen[m.Version] = struct{}{}
		versions = append(versions, v)
	}
	return versions, nil
}
