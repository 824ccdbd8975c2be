package sqlite

import (
	"context"
	"fmt"

	"github.com/entirecontext/ec/internal/ecerr"
	"github.com/entirecontext/ec/internal/types"
)

const futuresColumns = `id, verdict, impact_summary, roadmap_alignment, suggestion, feedback, feedback_reason, created_at`

func scanFuturesAssessment(row interface{ Scan(...any) error }) (*types.FuturesAssessment, error) {
	var f types.FuturesAssessment
	var verdict, feedback string
	if err := row.Scan(
		&f.ID, &verdict, &f.ImpactSummary, &f.RoadmapAlignment, &f.Suggestion,
		&feedback, &f.FeedbackReason, &f.CreatedAt,
	); err != nil {
		return nil, err
	}
	f.Verdict = types.Verdict(verdict)
	f.Feedback = types.Feedback(feedback)
	return &f, nil
}

// CreateFuturesAssessment stores an assessment produced by the
// out-of-scope LLM collaborator (spec.md §3). verdict must already be
// one of the three recognized values; internal/futures.CreateAssessment
// validates before calling this.
func (s *Store) CreateFuturesAssessment(ctx context.Context, f *types.FuturesAssessment) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO futures_assessments (id, verdict, impact_summary, roadmap_alignment, suggestion, feedback, feedback_reason)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, f.ID, string(f.Verdict), f.ImpactSummary, f.RoadmapAlignment, f.Suggestion, string(f.Feedback), f.FeedbackReason)
	if err != nil {
		return fmt.Errorf("create futures assessment: %w", err)
	}
	return nil
}

// GetFuturesAssessmentByPrefix resolves a possibly-partial id, the same
// LIKE-prefix-ordered-by-length rule as checkpoints (spec.md §9).
func (s *Store) GetFuturesAssessmentByPrefix(ctx context.Context, prefix string) (*types.FuturesAssessment, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+futuresColumns+` FROM futures_assessments
		WHERE id LIKE ? || '%' ORDER BY length(id) ASC LIMIT 2
	`, prefix)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var matches []*types.FuturesAssessment
	for rows.Next() {
		f, err := scanFuturesAssessment(rows)
		if err != nil {
			return nil, err
		}
		matches = append(matches, f)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	switch len(matches) {
	case 0:
		return nil, ecerr.New(ecerr.NotFound, "no futures assessment matching prefix %s", prefix)
	case 1:
		return matches[0], nil
	default:
		return nil, ecerr.New(ecerr.AmbiguousPrefix, "prefix %s matches more than one futures assessment", prefix)
	}
}

// UpdateFuturesAssessmentFeedback records agree/disagree feedback and
// the caller's reason. feedback must already be validated by the caller
// (internal/futures.AddFeedback raises ecerr.InvalidFeedback on a bad
// value before this is called).
func (s *Store) UpdateFuturesAssessmentFeedback(ctx context.Context, id string, feedback types.Feedback, reason string) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE futures_assessments SET feedback = ?, feedback_reason = ? WHERE id = ?
	`, string(feedback), reason, id)
	return err
}

// ListFuturesAssessments returns every assessment, most recent first.
func (s *Store) ListFuturesAssessments(ctx context.Context) ([]*types.FuturesAssessment, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+futuresColumns+` FROM futures_assessments ORDER BY created_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*types.FuturesAssessment
	for rows.Next() {
		f, err := scanFuturesAssessment(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, f)
	}
	return out, rows.Err()
}
