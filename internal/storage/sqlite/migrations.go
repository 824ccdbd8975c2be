package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/entirecontext/ec/internal/storage/sqlite/migrations"
)

// Migration is a single named, idempotent forward step applied after
// the base schema (spec.md §4.1: "forward-only migrations guarded by
// an exclusive transaction; each migration is named and idempotent").
type Migration struct {
	Name string
	Func func(*sql.DB) error
}

// migrationsList runs in order every time the database opens; each
// migration is responsible for detecting that its change already
// applied and returning nil immediately (see the sqlite_master index
// checks in internal/storage/sqlite/migrations).
var migrationsList = []Migration{
	{"turn_content_hash_index", migrations.TurnContentHashIndex},
	{"futures_assessments_created_index", migrations.FuturesAssessmentsCreatedIndex},
	{"checkpoints_metadata_source_index", migrations.CheckpointsMetadataSourceBackfill},
}

// currentVersion reads the singleton schema_version row.
func currentVersion(db *sql.DB) (int, error) {
	var version int
	err := db.QueryRow(`SELECT version FROM schema_version LIMIT 1`).Scan(&version)
	if err != nil {
		return 0, err
	}
	return version, nil
}

// RunMigrations applies every migration in migrationsList inside a
// single EXCLUSIVE transaction scope, serializing migration runs
// across concurrently-starting processes the way the teacher's
// RunMigrations does (internal/storage/sqlite/migrations.go).
func RunMigrations(ctx context.Context, db *sql.DB) error {
	if _, err := db.ExecContext(ctx, "BEGIN EXCLUSIVE"); err != nil {
		return fmt.Errorf("acquire exclusive lock for migrations: %w", err)
	}
	committed := false
	defer func() {
		if !committed {
			_, _ = db.ExecContext(ctx, "ROLLBACK")
		}
	}()

	version, err := currentVersion(db)
	if err != nil {
		return fmt.Errorf("read schema_version: %w", err)
	}

	for i, m := range migrationsList {
		target := i + 1
		if version >= target {
			continue
		}
		if err := m.Func(db); err != nil {
			return fmt.Errorf("migration %q: %w", m.Name, err)
		}
		if _, err := db.ExecContext(ctx, "UPDATE schema_version SET version = ?", target); err != nil {
			return fmt.Errorf("record migration %q: %w", m.Name, err)
		}
	}

	if _, err := db.ExecContext(ctx, "COMMIT"); err != nil {
		return fmt.Errorf("commit migrations: %w", err)
	}
	committed = true
	return nil
}
