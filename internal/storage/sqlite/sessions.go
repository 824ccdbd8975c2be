package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/entirecontext/ec/internal/types"
)

func scanSession(row interface{ Scan(...any) error }) (*types.Session, error) {
	var s types.Session
	var endedAt sql.NullTime
	var metadataJSON string
	if err := row.Scan(
		&s.ID, &s.ProjectID, &s.Kind, &s.StartedAt, &s.LastActivityAt,
		&endedAt, &s.TotalTurns, &s.Title, &s.Summary, &metadataJSON,
	); err != nil {
		return nil, err
	}
	if endedAt.Valid {
		s.EndedAt = &endedAt.Time
	}
	md, err := types.DecodeMetadata(metadataJSON)
	if err != nil {
		return nil, fmt.Errorf("decode session metadata: %w", err)
	}
	s.Metadata = md
	return &s, nil
}

const sessionColumns = `id, project_id, kind, started_at, last_activity_at, ended_at, total_turns, title, summary, metadata`

// CreateSession creates-or-returns a Session for sessionID (spec.md
// §4.4: "creates-or-returns existing (idempotent by id)").
func (s *Store) CreateSession(ctx context.Context, projectID, sessionID, kind string, metadata types.Metadata) (*types.Session, error) {
	if existing, err := s.GetSession(ctx, sessionID); err == nil {
		return existing, nil
	} else if err != sql.ErrNoRows {
		return nil, err
	}

	if metadata == nil {
		metadata = types.Metadata{}
	}
	metadataJSON, err := metadata.Value()
	if err != nil {
		return nil, err
	}
	if kind == "" {
		kind = "manual"
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO sessions (id, project_id, kind, metadata)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(id) DO NOTHING
	`, sessionID, projectID, kind, metadataJSON)
	if err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}
	return s.GetSession(ctx, sessionID)
}

// GetSession returns the session with the given id.
func (s *Store) GetSession(ctx context.Context, id string) (*types.Session, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+sessionColumns+` FROM sessions WHERE id = ?`, id)
	return scanSession(row)
}

// ListSessions returns every session in projectID ordered by
// started_at DESC (spec.md §4.4).
func (s *Store) ListSessions(ctx context.Context, projectID string) ([]*types.Session, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+sessionColumns+` FROM sessions WHERE project_id = ? ORDER BY started_at DESC
	`, projectID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*types.Session
	for rows.Next() {
		sess, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, sess)
	}
	return out, rows.Err()
}

// AllSessionsAcrossProjects returns every session in the repo's single
// database, most recent first, for the shadow-branch export (spec.md
// §4.9) which is not scoped to a single project.
func (s *Store) AllSessionsAcrossProjects(ctx context.Context) ([]*types.Session, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+sessionColumns+` FROM sessions ORDER BY started_at DESC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*types.Session
	for rows.Next() {
		sess, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, sess)
	}
	return out, rows.Err()
}

// GetCurrentSession returns the session in projectID with a null
// ended_at and the latest started_at (spec.md §3: "active session").
func (s *Store) GetCurrentSession(ctx context.Context, projectID string) (*types.Session, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+sessionColumns+` FROM sessions
		WHERE project_id = ? AND ended_at IS NULL
		ORDER BY started_at DESC LIMIT 1
	`, projectID)
	return scanSession(row)
}

// TouchSession advances last_activity_at to now, called on every
// capture event that mutates an active session.
func (s *Store) TouchSession(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx, `UPDATE sessions SET last_activity_at = ? WHERE id = ?`, time.Now().UTC(), id)
	return err
}

// SetSessionSummary updates title/summary, used by post-stop
// summarisation and by the external LLM collaborator's write-back path.
func (s *Store) SetSessionSummary(ctx context.Context, id, title, summary string) error {
	_, err := s.db.ExecContext(ctx, `UPDATE sessions SET title = ?, summary = ? WHERE id = ?`, title, summary, id)
	return err
}

// EndSession sets ended_at = now, idempotent if already ended.
func (s *Store) EndSession(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE sessions SET ended_at = ? WHERE id = ? AND ended_at IS NULL
	`, time.Now().UTC(), id)
	return err
}

// RecountSessionTurns recomputes total_turns from the turns table
// within tx, preserving invariant 2 (spec.md §8) after every committed
// turn write.
func RecountSessionTurns(ctx context.Context, tx *sql.Tx, sessionID string) error {
	_, err := tx.ExecContext(ctx, `
		UPDATE sessions SET total_turns = (
			SELECT COUNT(*) FROM turns WHERE session_id = ?
		) WHERE id = ?
	`, sessionID, sessionID)
	return err
}
