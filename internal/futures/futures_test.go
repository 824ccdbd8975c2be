package futures

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/entirecontext/ec/internal/ecerr"
	"github.com/entirecontext/ec/internal/storage/sqlite"
	"github.com/entirecontext/ec/internal/types"
)

func setupStore(t *testing.T) *sqlite.Store {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "test.db")
	store, err := sqlite.Open(context.Background(), dbPath)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func TestCreateAssessmentAndGet(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()

	f, err := CreateAssessment(ctx, store, types.VerdictExpand, "Adds new API surface", "Aligned with Q1 goals", "Consider extracting interface")
	if err != nil {
		t.Fatalf("create assessment: %v", err)
	}
	if f.Verdict != types.VerdictExpand {
		t.Fatalf("expected expand, got %s", f.Verdict)
	}
	if f.ID == "" {
		t.Fatal("expected a generated id")
	}

	fetched, err := GetAssessment(ctx, store, f.ID)
	if err != nil {
		t.Fatalf("get assessment: %v", err)
	}
	if fetched.ImpactSummary != "Adds new API surface" {
		t.Fatalf("unexpected impact summary: %q", fetched.ImpactSummary)
	}
}

func TestListAssessmentsFiltersByVerdict(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()

	mustCreate(t, store, types.VerdictExpand, "A")
	mustCreate(t, store, types.VerdictNarrow, "B")
	mustCreate(t, store, types.VerdictExpand, "C")

	all, err := ListAssessments(ctx, store, "")
	if err != nil {
		t.Fatalf("list all: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("expected 3 assessments, got %d", len(all))
	}

	expandOnly, err := ListAssessments(ctx, store, types.VerdictExpand)
	if err != nil {
		t.Fatalf("list expand: %v", err)
	}
	if len(expandOnly) != 2 {
		t.Fatalf("expected 2 expand assessments, got %d", len(expandOnly))
	}
	for _, f := range expandOnly {
		if f.Verdict != types.VerdictExpand {
			t.Fatalf("expected only expand verdicts, got %s", f.Verdict)
		}
	}

	narrowOnly, err := ListAssessments(ctx, store, types.VerdictNarrow)
	if err != nil {
		t.Fatalf("list narrow: %v", err)
	}
	if len(narrowOnly) != 1 {
		t.Fatalf("expected 1 narrow assessment, got %d", len(narrowOnly))
	}
}

func TestAddFeedbackRecordsReasonAndLessons(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()

	f := mustCreate(t, store, types.VerdictNeutral, "Test")
	if _, err := AddFeedback(ctx, store, f.ID, types.FeedbackAgree, "Looks correct"); err != nil {
		t.Fatalf("add feedback: %v", err)
	}

	fetched, err := GetAssessment(ctx, store, f.ID)
	if err != nil {
		t.Fatalf("get assessment: %v", err)
	}
	if fetched.Feedback != types.FeedbackAgree {
		t.Fatalf("expected agree, got %s", fetched.Feedback)
	}
	if fetched.FeedbackReason != "Looks correct" {
		t.Fatalf("expected reason to be recorded, got %q", fetched.FeedbackReason)
	}

	lessons, err := GetLessons(ctx, store)
	if err != nil {
		t.Fatalf("get lessons: %v", err)
	}
	if len(lessons) != 1 || lessons[0].ID != f.ID {
		t.Fatalf("expected one lesson for %s, got %v", f.ID, lessons)
	}
}

func TestCreateAssessmentRejectsInvalidVerdict(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()

	_, err := CreateAssessment(ctx, store, types.Verdict("invalid"), "", "", "")
	if err == nil {
		t.Fatal("expected an error for an invalid verdict")
	}
	var domainErr *ecerr.Error
	if !errors.As(err, &domainErr) || domainErr.Kind != ecerr.InvalidVerdict {
		t.Fatalf("expected ecerr.InvalidVerdict, got %v", err)
	}
}

func TestAddFeedbackRejectsInvalidFeedback(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()

	f := mustCreate(t, store, types.VerdictExpand, "Test")
	_, err := AddFeedback(ctx, store, f.ID, types.Feedback("maybe"), "")
	if err == nil {
		t.Fatal("expected an error for an invalid feedback value")
	}
	var domainErr *ecerr.Error
	if !errors.As(err, &domainErr) || domainErr.Kind != ecerr.InvalidFeedback {
		t.Fatalf("expected ecerr.InvalidFeedback, got %v", err)
	}
}

func TestGetAssessmentSupportsPrefixMatch(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()

	f := mustCreate(t, store, types.VerdictExpand, "Prefix test")

	if _, err := GetAssessment(ctx, store, f.ID); err != nil {
		t.Fatalf("full id lookup: %v", err)
	}

	fetched, err := GetAssessment(ctx, store, f.ID[:12])
	if err != nil {
		t.Fatalf("12-char prefix lookup: %v", err)
	}
	if fetched.ID != f.ID {
		t.Fatalf("expected id %s, got %s", f.ID, fetched.ID)
	}

	fetched2, err := GetAssessment(ctx, store, f.ID[:8])
	if err != nil {
		t.Fatalf("8-char prefix lookup: %v", err)
	}
	if fetched2.ID != f.ID {
		t.Fatalf("expected id %s, got %s", f.ID, fetched2.ID)
	}
}

func TestAddFeedbackAcceptsPrefix(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()

	f := mustCreate(t, store, types.VerdictNarrow, "Feedback prefix test")
	if _, err := AddFeedback(ctx, store, f.ID[:12], types.FeedbackDisagree, "Testing prefix"); err != nil {
		t.Fatalf("add feedback by prefix: %v", err)
	}

	fetched, err := GetAssessment(ctx, store, f.ID)
	if err != nil {
		t.Fatalf("get assessment: %v", err)
	}
	if fetched.Feedback != types.FeedbackDisagree {
		t.Fatalf("expected disagree, got %s", fetched.Feedback)
	}
}

func TestDistillLessonsFormatsAssessments(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()

	f := mustCreate(t, store, types.VerdictExpand, "Good change")
	if _, err := AddFeedback(ctx, store, f.ID, types.FeedbackAgree, "Correct"); err != nil {
		t.Fatalf("add feedback: %v", err)
	}
	lessons, err := GetLessons(ctx, store)
	if err != nil {
		t.Fatalf("get lessons: %v", err)
	}

	text := DistillLessons(lessons)
	if !containsAll(text, "# Lessons Learned", "Good change", "EXPAND") {
		t.Fatalf("unexpected lessons digest:\n%s", text)
	}
}

func TestDistillLessonsEmpty(t *testing.T) {
	text := DistillLessons(nil)
	if !containsAll(text, "No lessons recorded yet") {
		t.Fatalf("expected empty-lessons placeholder, got %q", text)
	}
}

func mustCreate(t *testing.T, store *sqlite.Store, verdict types.Verdict, impact string) *types.FuturesAssessment {
	t.Helper()
	f, err := CreateAssessment(context.Background(), store, verdict, impact, "", "")
	if err != nil {
		t.Fatalf("create assessment: %v", err)
	}
	return f
}

func containsAll(s string, substrs ...string) bool {
	for _, sub := range substrs {
		if !strings.Contains(s, sub) {
			return false
		}
	}
	return true
}
