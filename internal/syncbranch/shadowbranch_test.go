package syncbranch

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"testing"
)

func runGit(t *testing.T, dir string, args ...string) {
	t.Helper()
	cmd := exec.Command("git", args...)
	cmd.Dir = dir
	cmd.Env = append(os.Environ(),
		"GIT_AUTHOR_NAME=test", "GIT_AUTHOR_EMAIL=test@example.com",
		"GIT_COMMITTER_NAME=test", "GIT_COMMITTER_EMAIL=test@example.com",
	)
	if out, err := cmd.CombinedOutput(); err != nil {
		t.Fatalf("git %v: %v: %s", args, err, out)
	}
}

// setupRemoteAndClone creates a bare "remote" repo and a clone with an
// initial commit on main, mirroring how a real shadow-branch sync would
// see a normal git remote.
func setupRemoteAndClone(t *testing.T) (remotePath, clonePath string) {
	t.Helper()
	remotePath = filepath.Join(t.TempDir(), "remote.git")
	runGit(t, t.TempDir(), "init", "--bare", remotePath)

	clonePath = t.TempDir()
	runGit(t, filepath.Dir(clonePath), "clone", remotePath, clonePath)
	if err := os.WriteFile(filepath.Join(clonePath, "README.md"), []byte("hello\n"), 0o644); err != nil {
		t.Fatalf("write readme: %v", err)
	}
	runGit(t, clonePath, "add", "README.md")
	runGit(t, clonePath, "commit", "-m", "initial commit")
	runGit(t, clonePath, "push", "origin", "HEAD:main")
	return remotePath, clonePath
}

func TestTransportCheckoutCreatesOrphanShadowBranch(t *testing.T) {
	_, repoRoot := setupRemoteAndClone(t)
	transport := NewTransport(repoRoot, "entirecontext-sync")

	if err := transport.Checkout(context.Background()); err != nil {
		t.Fatalf("checkout: %v", err)
	}
	if _, err := os.Stat(transport.WorktreePath); err != nil {
		t.Fatalf("expected worktree dir to exist: %v", err)
	}

	cmd := exec.Command("git", "symbolic-ref", "--short", "HEAD")
	cmd.Dir = transport.WorktreePath
	out, err := cmd.Output()
	if err != nil {
		t.Fatalf("symbolic-ref: %v", err)
	}
	if got := string(out); got != "entirecontext-sync\n" {
		t.Fatalf("expected worktree on entirecontext-sync, got %q", got)
	}
}

func TestTransportCommitAndPushThenPullRoundTrips(t *testing.T) {
	_, repoRoot := setupRemoteAndClone(t)
	transport := NewTransport(repoRoot, "entirecontext-sync")
	ctx := context.Background()

	if err := transport.Checkout(ctx); err != nil {
		t.Fatalf("checkout: %v", err)
	}
	if err := os.WriteFile(filepath.Join(transport.WorktreePath, "manifest.json"), []byte(`{"version":1}`), 0o640); err != nil {
		t.Fatalf("write manifest: %v", err)
	}
	if err := transport.CommitAndPush(ctx, "origin", "export"); err != nil {
		t.Fatalf("commit and push: %v", err)
	}

	head, ok := transport.RemoteHead(ctx, "origin")
	if !ok || head == "" {
		t.Fatalf("expected a remote head after push, ok=%v head=%q", ok, head)
	}

	// Corrupt the local file without committing, then Pull should reset
	// hard to the pushed remote state and discard the local edit.
	manifestPath := filepath.Join(transport.WorktreePath, "manifest.json")
	if err := os.WriteFile(manifestPath, []byte("corrupted"), 0o640); err != nil {
		t.Fatalf("corrupt manifest: %v", err)
	}
	if err := transport.Pull(ctx, "origin"); err != nil {
		t.Fatalf("pull: %v", err)
	}
	data, err := os.ReadFile(manifestPath)
	if err != nil {
		t.Fatalf("read manifest after pull: %v", err)
	}
	if string(data) != `{"version":1}` {
		t.Fatalf("expected pull to restore pushed manifest, got %q", data)
	}
}
