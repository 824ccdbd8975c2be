package attribution

import (
	"context"
	"path/filepath"
	"testing"

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

func TestBlameAggregatesHumanAndAgentLines(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()

	proj, _ := store.CreateProject(ctx, "/repo", "repo")
	sess, _ := store.CreateSession(ctx, proj.ID, "s1", "claude", nil)

	cp := &types.Checkpoint{ID: "cp1", SessionID: sess.ID, CommitHash: "deadbeef", Branch: "main"}
	if err := store.CreateCheckpoint(ctx, cp); err != nil {
		t.Fatalf("create checkpoint: %v", err)
	}

	if err := store.UpsertAgent(ctx, &types.Agent{ID: "claude-1", AgentType: "claude", DisplayName: "Claude"}); err != nil {
		t.Fatalf("upsert agent: %v", err)
	}

	if err := store.CreateAttribution(ctx, &types.Attribution{
		FilePath: "main.go", StartLine: 1, EndLine: 5, CheckpointID: cp.ID, Kind: types.AttributionHuman,
	}); err != nil {
		t.Fatalf("create attribution: %v", err)
	}
	if err := store.CreateAttribution(ctx, &types.Attribution{
		FilePath: "main.go", StartLine: 6, EndLine: 10, CheckpointID: cp.ID, Kind: types.AttributionAgent, AgentID: "claude-1",
	}); err != nil {
		t.Fatalf("create attribution: %v", err)
	}

	ranges, summary, err := Blame(ctx, store, "main.go", 1, 10)
	if err != nil {
		t.Fatalf("blame: %v", err)
	}
	if len(ranges) != 2 {
		t.Fatalf("expected 2 attribution ranges, got %d", len(ranges))
	}
	if summary.TotalLines != 10 {
		t.Fatalf("expected 10 total lines, got %d", summary.TotalLines)
	}
	if summary.HumanLines != 5 || summary.AgentLines != 5 {
		t.Fatalf("expected 5/5 split, got human=%d agent=%d", summary.HumanLines, summary.AgentLines)
	}
	if summary.Agents["Claude"] != 5 {
		t.Fatalf("expected Claude attributed 5 lines, got %v", summary.Agents)
	}
}

func TestBlameSingleLineQuery(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()
	proj, _ := store.CreateProject(ctx, "/repo2", "repo2")
	sess, _ := store.CreateSession(ctx, proj.ID, "s2", "claude", nil)
	cp := &types.Checkpoint{ID: "cp2", SessionID: sess.ID, CommitHash: "cafebabe", Branch: "main"}
	if err := store.CreateCheckpoint(ctx, cp); err != nil {
		t.Fatalf("create checkpoint: %v", err)
	}
	if err := store.CreateAttribution(ctx, &types.Attribution{
		FilePath: "a.go", StartLine: 3, EndLine: 3, CheckpointID: cp.ID, Kind: types.AttributionHuman,
	}); err != nil {
		t.Fatalf("create attribution: %v", err)
	}

	ranges, summary, err := Blame(ctx, store, "a.go", 3, 3)
	if err != nil {
		t.Fatalf("blame: %v", err)
	}
	if len(ranges) != 1 || summary.TotalLines != 1 || summary.HumanLines != 1 {
		t.Fatalf("unexpected single-line blame result: %+v %+v", ranges, summary)
	}
}

func TestResolveCheckpointByPrefix(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()
	proj, _ := store.CreateProject(ctx, "/repo3", "repo3")
	sess, _ := store.CreateSession(ctx, proj.ID, "s3", "claude", nil)
	cp := &types.Checkpoint{ID: "abc123def", SessionID: sess.ID, CommitHash: "deadbeef", Branch: "main"}
	if err := store.CreateCheckpoint(ctx, cp); err != nil {
		t.Fatalf("create checkpoint: %v", err)
	}

	got, err := ResolveCheckpoint(ctx, store, "abc123")
	if err != nil {
		t.Fatalf("resolve by prefix: %v", err)
	}
	if got.ID != cp.ID {
		t.Fatalf("expected %s, got %s", cp.ID, got.ID)
	}

	got2, err := ResolveCheckpoint(ctx, store, cp.ID)
	if err != nil {
		t.Fatalf("resolve by exact id: %v", err)
	}
	if got2.ID != cp.ID {
		t.Fatalf("expected %s, got %s", cp.ID, got2.ID)
	}
}
