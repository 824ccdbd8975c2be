package search

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/google/uuid"

	"github.com/entirecontext/ec/internal/ecerr"
	"github.com/entirecontext/ec/internal/storage/sqlite"
	"github.com/entirecontext/ec/internal/types"
)

func setupSearchStore(t *testing.T) *sqlite.Store {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "test.db")
	store, err := sqlite.Open(context.Background(), dbPath)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func seedTurn(t *testing.T, store *sqlite.Store, sessionID, userMessage, assistantSummary string) {
	t.Helper()
	ctx := context.Background()
	turn, err := store.CreateTurn(ctx, sessionID, uuid.NewString(), userMessage)
	if err != nil {
		t.Fatalf("create turn: %v", err)
	}
	if err := store.FinalizeTurn(ctx, turn.ID, assistantSummary, "hash-"+turn.ID); err != nil {
		t.Fatalf("finalize turn: %v", err)
	}
}

func TestFTSSearchFindsTurn(t *testing.T) {
	store := setupSearchStore(t)
	ctx := context.Background()
	proj, _ := store.CreateProject(ctx, "/repo", "repo")
	sess, _ := store.CreateSession(ctx, proj.ID, "s1", "claude", nil)
	seedTurn(t, store, sess.ID, "Fix auth bug", "Fixed it")
	seedTurn(t, store, sess.ID, "Unrelated change", "Done")

	results, err := Search(ctx, store, Options{Query: "auth", Mode: types.ModeFTS, Target: types.TargetTurn})
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("expected 1 result, got %d", len(results))
	}
	if results[0].SessionID != sess.ID {
		t.Fatalf("expected session %s, got %s", sess.ID, results[0].SessionID)
	}
}

func TestRegexSearchMatchesAssistantSummary(t *testing.T) {
	store := setupSearchStore(t)
	ctx := context.Background()
	proj, _ := store.CreateProject(ctx, "/repo", "repo")
	sess, _ := store.CreateSession(ctx, proj.ID, "s2", "claude", nil)
	seedTurn(t, store, sess.ID, "first", "contains exponential backoff logic")

	results, err := Search(ctx, store, Options{Query: "expo.*backoff", Mode: types.ModeRegex, Target: types.TargetTurn})
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("expected 1 result, got %d", len(results))
	}
}

func TestSemanticSearchReturnsMissingBackend(t *testing.T) {
	store := setupSearchStore(t)
	ctx := context.Background()

	_, err := Search(ctx, store, Options{Query: "anything", Mode: types.ModeSemantic, Target: types.TargetTurn})
	var domainErr *ecerr.Error
	if err == nil {
		t.Fatalf("expected an error")
	}
	if !asEcerr(err, &domainErr) || domainErr.Kind != ecerr.MissingEmbeddingBackend {
		t.Fatalf("expected MissingEmbeddingBackend, got %v", err)
	}
}

func asEcerr(err error, target **ecerr.Error) bool {
	e, ok := err.(*ecerr.Error)
	if !ok {
		return false
	}
	*target = e
	return true
}

func TestEventSearch(t *testing.T) {
	store := setupSearchStore(t)
	ctx := context.Background()
	proj, _ := store.CreateProject(ctx, "/repo", "repo")
	sess, _ := store.CreateSession(ctx, proj.ID, "s3", "claude", nil)
	if err := store.RecordEvent(ctx, sess.ID, "checkpoint", "checkpoint created at deadbeef"); err != nil {
		t.Fatalf("record event: %v", err)
	}

	results, err := Search(ctx, store, Options{Query: "deadbeef", Mode: types.ModeRegex, Target: types.TargetEvent})
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("expected 1 event result, got %d", len(results))
	}
}
