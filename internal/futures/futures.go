// Package futures implements the FuturesAssessment model: creating and
// listing Tidy-First-style roadmap assessments, recording feedback on
// them, and distilling accepted assessments into a lessons digest.
// EntireContext only stores and serves these records — producing a
// verdict is an out-of-scope LLM collaborator's job (spec.md §3) — but
// the validation, prefix lookup, and lessons digest are in-scope CLI
// surface, ported from the original's entirecontext.core.futures
// module (original_source/tests/test_futures.py).
package futures

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/entirecontext/ec/internal/ecerr"
	"github.com/entirecontext/ec/internal/storage/sqlite"
	"github.com/entirecontext/ec/internal/types"
)

var validVerdicts = map[types.Verdict]bool{
	types.VerdictExpand:  true,
	types.VerdictNarrow:  true,
	types.VerdictNeutral: true,
}

var validFeedback = map[types.Feedback]bool{
	types.FeedbackAgree:    true,
	types.FeedbackDisagree: true,
}

// CreateAssessment validates verdict and stores a new FuturesAssessment.
func CreateAssessment(ctx context.Context, store *sqlite.Store, verdict types.Verdict, impactSummary, roadmapAlignment, suggestion string) (*types.FuturesAssessment, error) {
	if !validVerdicts[verdict] {
		return nil, ecerr.New(ecerr.InvalidVerdict, "invalid verdict %q: must be expand, narrow, or neutral", verdict)
	}

	f := &types.FuturesAssessment{
		ID:               uuid.NewString(),
		Verdict:          verdict,
		ImpactSummary:    impactSummary,
		RoadmapAlignment: roadmapAlignment,
		Suggestion:       suggestion,
	}
	if err := store.CreateFuturesAssessment(ctx, f); err != nil {
		return nil, fmt.Errorf("create assessment: %w", err)
	}
	return store.GetFuturesAssessmentByPrefix(ctx, f.ID)
}

// GetAssessment resolves idOrPrefix to a single assessment by id prefix
// (a full id is its own prefix), per the original's regression test
// (test_get_assessment_prefix_match: a 12-char CLI-displayed prefix
// must resolve).
func GetAssessment(ctx context.Context, store *sqlite.Store, idOrPrefix string) (*types.FuturesAssessment, error) {
	return store.GetFuturesAssessmentByPrefix(ctx, idOrPrefix)
}

// AddFeedback validates feedback and records it against idOrPrefix.
func AddFeedback(ctx context.Context, store *sqlite.Store, idOrPrefix string, feedback types.Feedback, reason string) (*types.FuturesAssessment, error) {
	if !validFeedback[feedback] {
		return nil, ecerr.New(ecerr.InvalidFeedback, "invalid feedback %q: must be agree or disagree", feedback)
	}

	existing, err := store.GetFuturesAssessmentByPrefix(ctx, idOrPrefix)
	if err != nil {
		return nil, err
	}
	if err := store.UpdateFuturesAssessmentFeedback(ctx, existing.ID, feedback, reason); err != nil {
		return nil, fmt.Errorf("add feedback: %w", err)
	}
	existing.Feedback = feedback
	existing.FeedbackReason = reason
	return existing, nil
}

// ListAssessments returns every assessment, optionally filtered to one
// verdict (verdict == "" means no filter).
func ListAssessments(ctx context.Context, store *sqlite.Store, verdict types.Verdict) ([]*types.FuturesAssessment, error) {
	all, err := store.ListFuturesAssessments(ctx)
	if err != nil {
		return nil, err
	}
	if verdict == "" {
		return all, nil
	}
	var filtered []*types.FuturesAssessment
	for _, f := range all {
		if f.Verdict == verdict {
			filtered = append(filtered, f)
		}
	}
	return filtered, nil
}

// GetLessons returns every assessment that has received feedback — the
// set distillation works from, since un-reviewed assessments carry no
// confirmed lesson yet.
func GetLessons(ctx context.Context, store *sqlite.Store) ([]*types.FuturesAssessment, error) {
	all, err := store.ListFuturesAssessments(ctx)
	if err != nil {
		return nil, err
	}
	var withFeedback []*types.FuturesAssessment
	for _, f := range all {
		if f.Feedback != "" {
			withFeedback = append(withFeedback, f)
		}
	}
	return withFeedback, nil
}

// DistillLessons renders assessments as a markdown lessons-learned
// digest, one section per assessment, the Go equivalent of the
// original's distill_lessons (original_source/tests/test_futures.py:
// "# Lessons Learned", one entry per assessment, a placeholder line
// when empty).
func DistillLessons(assessments []*types.FuturesAssessment) string {
	var b strings.Builder
	b.WriteString("# Lessons Learned\n\n")

	if len(assessments) == 0 {
		b.WriteString("No lessons recorded yet.\n")
		return b.String()
	}

	for _, f := range assessments {
		fmt.Fprintf(&b, "## %s — %s\n\n", f.CreatedAt.Format("2006-01-02"), strings.ToUpper(string(f.Verdict)))
		if f.ImpactSummary != "" {
			fmt.Fprintf(&b, "**Impact:** %s\n\n", f.ImpactSummary)
		}
		if f.RoadmapAlignment != "" {
			fmt.Fprintf(&b, "**Roadmap alignment:** %s\n\n", f.RoadmapAlignment)
		}
		if f.Suggestion != "" {
			fmt.Fprintf(&b, "**Suggestion:** %s\n\n", f.Suggestion)
		}
		if f.Feedback != "" {
			fmt.Fprintf(&b, "**Feedback:** %s", f.Feedback)
			if f.FeedbackReason != "" {
				fmt.Fprintf(&b, " — %s", f.FeedbackReason)
			}
			b.WriteString("\n\n")
		}
	}
	return b.String()
}
