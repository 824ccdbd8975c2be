package sqlite

import (
	"context"
	"fmt"

	"github.com/entirecontext/ec/internal/types"
)

// CreateAttribution inserts a line-range attribution claim. Overlapping
// ranges within one checkpoint are allowed; resolution at query time is
// last-writer-wins (spec.md §3).
func (s *Store) CreateAttribution(ctx context.Context, a *types.Attribution) error {
	var confidence any
	if a.Confidence != nil {
		confidence = *a.Confidence
	}
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO attributions (file_path, start_line, end_line, checkpoint_id, kind, agent_id, confidence)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, a.FilePath, a.StartLine, a.EndLine, a.CheckpointID, string(a.Kind), a.AgentID, confidence)
	if err != nil {
		return fmt.Errorf("create attribution: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	a.ID = id
	return nil
}

// ListAttributionsForRange returns every attribution on filePath whose
// range intersects [start, end], most recently created checkpoint
// last so that callers resolving overlap can apply last-writer-wins by
// iterating in order.
func (s *Store) ListAttributionsForRange(ctx context.Context, filePath string, start, end int) ([]*types.Attribution, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT a.id, a.file_path, a.start_line, a.end_line, a.checkpoint_id, a.kind, a.agent_id, a.confidence
		FROM attributions a
		JOIN checkpoints c ON c.id = a.checkpoint_id
		WHERE a.file_path = ? AND a.start_line <= ? AND a.end_line >= ?
		ORDER BY c.created_at ASC, a.id ASC
	`, filePath, end, start)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*types.Attribution
	for rows.Next() {
		a := &types.Attribution{}
		var kind string
		var confidence *float64
		if err := rows.Scan(&a.ID, &a.FilePath, &a.StartLine, &a.EndLine, &a.CheckpointID, &kind, &a.AgentID, &confidence); err != nil {
			return nil, err
		}
		a.Kind = types.AttributionKind(kind)
		a.Confidence = confidence
		out = append(out, a)
	}
	return out, rows.Err()
}
