package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/entirecontext/ec/internal/ecerr"
	"github.com/entirecontext/ec/internal/types"
)

const checkpointColumns = `id, session_id, commit_hash, branch, created_at, diff_summary, files_snapshot, metadata`

func scanCheckpoint(row interface{ Scan(...any) error }) (*types.Checkpoint, error) {
	var c types.Checkpoint
	var filesJSON, metadataJSON string
	if err := row.Scan(
		&c.ID, &c.SessionID, &c.CommitHash, &c.Branch, &c.CreatedAt,
		&c.DiffSummary, &filesJSON, &metadataJSON,
	); err != nil {
		return nil, err
	}
	if filesJSON != "" {
		if err := json.Unmarshal([]byte(filesJSON), &c.FilesSnapshot); err != nil {
			return nil, fmt.Errorf("decode files_snapshot: %w", err)
		}
	}
	md, err := types.DecodeMetadata(metadataJSON)
	if err != nil {
		return nil, err
	}
	c.Metadata = md
	return &c, nil
}

// CreateCheckpoint inserts a new Checkpoint, terminal on creation
// (spec.md §4.10's state machine).
func (s *Store) CreateCheckpoint(ctx context.Context, c *types.Checkpoint) error {
	filesJSON, err := json.Marshal(c.FilesSnapshot)
	if err != nil {
		return fmt.Errorf("encode files_snapshot: %w", err)
	}
	if c.Metadata == nil {
		c.Metadata = types.Metadata{}
	}
	metadataJSON, err := c.Metadata.Value()
	if err != nil {
		return err
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO checkpoints (id, session_id, commit_hash, branch, diff_summary, files_snapshot, metadata)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, c.ID, c.SessionID, c.CommitHash, c.Branch, c.DiffSummary, string(filesJSON), metadataJSON)
	if err != nil {
		return fmt.Errorf("create checkpoint: %w", err)
	}
	return nil
}

// GetCheckpoint returns the checkpoint with the exact id.
func (s *Store) GetCheckpoint(ctx context.Context, id string) (*types.Checkpoint, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+checkpointColumns+` FROM checkpoints WHERE id = ?`, id)
	cp, err := scanCheckpoint(row)
	if err == sql.ErrNoRows {
		return nil, ecerr.New(ecerr.CheckpointNotFound, "no checkpoint with id %s", id)
	}
	return cp, err
}

// GetCheckpointByPrefix resolves a possibly-partial id, per spec.md §9's
// prefix-lookup design note: `WHERE id LIKE prefix||'%'` ordered by
// length, failing deterministically on more than one match.
func (s *Store) GetCheckpointByPrefix(ctx context.Context, prefix string) (*types.Checkpoint, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+checkpointColumns+` FROM checkpoints
		WHERE id LIKE ? || '%' ORDER BY length(id) ASC LIMIT 2
	`, prefix)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var matches []*types.Checkpoint
	for rows.Next() {
		cp, err := scanCheckpoint(rows)
		if err != nil {
			return nil, err
		}
		matches = append(matches, cp)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	switch len(matches) {
	case 0:
		return nil, ecerr.New(ecerr.CheckpointNotFound, "no checkpoint matching prefix %s", prefix)
	case 1:
		return matches[0], nil
	default:
		return nil, ecerr.New(ecerr.AmbiguousPrefix, "prefix %s matches more than one checkpoint", prefix)
	}
}

// ListCheckpoints returns every checkpoint for sessionID, most recent first.
func (s *Store) ListCheckpoints(ctx context.Context, sessionID string) ([]*types.Checkpoint, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+checkpointColumns+` FROM checkpoints WHERE session_id = ? ORDER BY created_at DESC
	`, sessionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*types.Checkpoint
	for rows.Next() {
		cp, err := scanCheckpoint(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, cp)
	}
	return out, rows.Err()
}

// AllCheckpoints returns every checkpoint in the repo, most recent
// first, for the shadow-branch export's manifest (spec.md §4.9).
func (s *Store) AllCheckpoints(ctx context.Context) ([]*types.Checkpoint, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+checkpointColumns+` FROM checkpoints ORDER BY created_at DESC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*types.Checkpoint
	for rows.Next() {
		cp, err := scanCheckpoint(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, cp)
	}
	return out, rows.Err()
}

// LatestCheckpoint returns the most recently created checkpoint for
// sessionID, used by PostCommit to diff against (spec.md §4.5).
func (s *Store) LatestCheckpoint(ctx context.Context, sessionID string) (*types.Checkpoint, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+checkpointColumns+` FROM checkpoints
		WHERE session_id = ? ORDER BY created_at DESC LIMIT 1
	`, sessionID)
	cp, err := scanCheckpoint(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return cp, err
}
