package syncbranch

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/entirecontext/ec/internal/redact"
	"github.com/entirecontext/ec/internal/storage/sqlite"
	"github.com/google/uuid"
)

func setupStoreWithSession(t *testing.T) (*sqlite.Store, string) {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "test.db")
	store, err := sqlite.Open(context.Background(), dbPath)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	ctx := context.Background()
	proj, err := store.CreateProject(ctx, "/repo", "repo")
	if err != nil {
		t.Fatalf("create project: %v", err)
	}
	sess, err := store.CreateSession(ctx, proj.ID, "s1", "claude", nil)
	if err != nil {
		t.Fatalf("create session: %v", err)
	}
	turn, err := store.CreateTurn(ctx, sess.ID, uuid.NewString(), "fix password=abc123secret please")
	if err != nil {
		t.Fatalf("create turn: %v", err)
	}
	if err := store.FinalizeTurn(ctx, turn.ID, "done", "hash1"); err != nil {
		t.Fatalf("finalize turn: %v", err)
	}
	return store, sess.ID
}

func TestExportWritesManifestTranscriptAndAppliesRedaction(t *testing.T) {
	store, sessionID := setupStoreWithSession(t)
	destDir := t.TempDir()

	if err := Export(context.Background(), store, destDir, redact.NewExportFilter(true)); err != nil {
		t.Fatalf("export: %v", err)
	}

	manifest, err := ReadManifest(destDir)
	if err != nil {
		t.Fatalf("read manifest: %v", err)
	}
	if _, ok := manifest.Sessions[sessionID]; !ok {
		t.Fatalf("expected session %s in manifest, got %+v", sessionID, manifest.Sessions)
	}

	entries, err := ReadTranscript(destDir, sessionID)
	if err != nil {
		t.Fatalf("read transcript: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected 1 transcript entry, got %d", len(entries))
	}
	if entries[0].UserMessage == "fix password=abc123secret please" {
		t.Fatalf("expected user_message to be redacted, got raw secret: %q", entries[0].UserMessage)
	}
}

func TestExportWithRedactionDisabledKeepsOriginalText(t *testing.T) {
	store, sessionID := setupStoreWithSession(t)
	destDir := t.TempDir()

	if err := Export(context.Background(), store, destDir, redact.NewExportFilter(false)); err != nil {
		t.Fatalf("export: %v", err)
	}
	entries, err := ReadTranscript(destDir, sessionID)
	if err != nil {
		t.Fatalf("read transcript: %v", err)
	}
	if entries[0].UserMessage != "fix password=abc123secret please" {
		t.Fatalf("expected unredacted text with filter disabled, got %q", entries[0].UserMessage)
	}
}
