// Package migrations holds the individual forward-only steps applied
// by sqlite.RunMigrations, one file per concern, following the
// teacher's internal/storage/sqlite/migrations layout.
package migrations

import (
	"database/sql"
	"fmt"
)

// indexExists mirrors the teacher's pragma_table_info probe
// (migrations/010_content_hash_column.go), adapted to sqlite_master
// for index existence rather than column existence.
func indexExists(db *sql.DB, name string) (bool, error) {
	var got string
	err := db.QueryRow(`SELECT name FROM sqlite_master WHERE type = 'index' AND name = ?`, name).Scan(&got)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// TurnContentHashIndex adds a lookup index on turn_content.content_hash
// for finding a stored blob by digest. (The codex-style ingester's
// dedup queries turns.content_hash, which this index does not cover.)
func TurnContentHashIndex(db *sql.DB) error {
	exists, err := indexExists(db, "idx_turn_content_hash")
	if err != nil {
		return fmt.Errorf("check idx_turn_content_hash: %w", err)
	}
	if exists {
		return nil
	}
	_, err = db.Exec(`CREATE INDEX idx_turn_content_hash ON turn_content(content_hash)`)
	if err != nil {
		return fmt.Errorf("create idx_turn_content_hash: %w", err)
	}
	return nil
}

// FuturesAssessmentsCreatedIndex speeds up the default recency
// ordering used when listing assessments.
func FuturesAssessmentsCreatedIndex(db *sql.DB) error {
	exists, err := indexExists(db, "idx_futures_assessments_created")
	if err != nil {
		return fmt.Errorf("check idx_futures_assessments_created: %w", err)
	}
	if exists {
		return nil
	}
	_, err = db.Exec(`CREATE INDEX idx_futures_assessments_created ON futures_assessments(created_at)`)
	if err != nil {
		return fmt.Errorf("create idx_futures_assessments_created: %w", err)
	}
	return nil
}

// CheckpointsMetadataSourceBackfill ensures every pre-existing
// checkpoint row has a metadata.source key, so `rewind` and `doctor`
// can assume the key is always present rather than special-casing its
// absence. New rows always carry it (written by C5/C10); this only
// backfills rows from before the key was introduced.
func CheckpointsMetadataSourceBackfill(db *sql.DB) error {
	_, err := db.Exec(`
		UPDATE checkpoints
		SET metadata = json_set(metadata, '$.source', 'unknown')
		WHERE json_extract(metadata, '$.source') IS NULL
	`)
	if err != nil {
		return fmt.Errorf("backfill checkpoints.metadata.source: %w", err)
	}
	return nil
}
