package model

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/entirecontext/ec/internal/storage/sqlite"
)

func setupTestModel(t *testing.T) *Model {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "test.db")
	store, err := sqlite.Open(context.Background(), dbPath)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return New(store)
}

func TestParseTranscript(t *testing.T) {
	data := []byte(`{"role":"user","content":"Fix auth bug"}
{"role":"assistant","content":"Fixed it"}
not json at all
{"role":"assistant","content":[{"type":"text","text":" and tested"}]}
`)
	user, assistant := ParseTranscript(data)
	if user != "Fix auth bug" {
		t.Fatalf("expected user message, got %q", user)
	}
	if assistant != " and tested" {
		t.Fatalf("expected last assistant text to win, got %q", assistant)
	}
}

func TestOpenTurnOverwritesPendingPrompt(t *testing.T) {
	m := setupTestModel(t)
	ctx := context.Background()

	proj, err := m.EnsureProject(ctx, "/repo", "repo")
	if err != nil {
		t.Fatalf("ensure project: %v", err)
	}
	if _, err := m.StartSession(ctx, proj.ID, "s1", "claude", nil); err != nil {
		t.Fatalf("start session: %v", err)
	}

	t1, err := m.OpenTurn(ctx, "s1", "first draft")
	if err != nil {
		t.Fatalf("open turn: %v", err)
	}
	t2, err := m.OpenTurn(ctx, "s1", "revised draft")
	if err != nil {
		t.Fatalf("reopen turn: %v", err)
	}
	if t1.ID != t2.ID {
		t.Fatalf("expected repeated UserPromptSubmit to reuse the same turn")
	}
	if t2.UserMessage != "revised draft" {
		t.Fatalf("expected overwritten prompt, got %q", t2.UserMessage)
	}
}

func TestIngestCodexRolloutIsIdempotent(t *testing.T) {
	m := setupTestModel(t)
	ctx := context.Background()

	proj, err := m.EnsureProject(ctx, "/repo", "repo")
	if err != nil {
		t.Fatalf("ensure project: %v", err)
	}

	rollout := filepath.Join(t.TempDir(), "rollout-abc123.jsonl")
	content := `{"type":"session_meta","session_id":"codex-s1"}
{"type":"response_item","role":"user","content":"Add retry logic"}
{"type":"response_item","role":"assistant","content":"Added exponential backoff"}
`
	if err := os.WriteFile(rollout, []byte(content), 0o644); err != nil {
		t.Fatalf("write rollout: %v", err)
	}

	_, created, err := m.IngestCodexRollout(ctx, proj.ID, rollout)
	if err != nil {
		t.Fatalf("ingest rollout: %v", err)
	}
	if created != 1 {
		t.Fatalf("expected 1 turn created, got %d", created)
	}

	_, createdAgain, err := m.IngestCodexRollout(ctx, proj.ID, rollout)
	if err != nil {
		t.Fatalf("re-ingest rollout: %v", err)
	}
	if createdAgain != 0 {
		t.Fatalf("expected re-ingest to create 0 new turns, got %d", createdAgain)
	}
}
