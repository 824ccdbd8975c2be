package gitprobe

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"testing"
)

// setupRepo creates a throwaway git repo with one commit, the same
// exec.Command-based pattern used by cmd/ec/cli's command tests.
func setupRepo(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	runGit(t, dir, "init")
	runGit(t, dir, "config", "user.email", "test@example.com")
	runGit(t, dir, "config", "user.name", "test")
	if err := os.WriteFile(filepath.Join(dir, "file.txt"), []byte("one\n"), 0o644); err != nil {
		t.Fatalf("write file: %v", err)
	}
	runGit(t, dir, "add", "file.txt")
	runGit(t, dir, "commit", "-m", "initial")
	return dir
}

func runGit(t *testing.T, dir string, args ...string) {
	t.Helper()
	cmd := exec.Command("git", append([]string{"-C", dir}, args...)...)
	out, err := cmd.CombinedOutput()
	if err != nil {
		t.Fatalf("git %v: %v\n%s", args, err, out)
	}
}

func TestCurrentCommitReturnsFullHash(t *testing.T) {
	dir := setupRepo(t)
	p := New(dir)

	hash, ok := p.CurrentCommit(context.Background())
	if !ok {
		t.Fatal("expected ok=true")
	}
	if len(hash) != 40 {
		t.Fatalf("expected a 40-char hash, got %q", hash)
	}
}

func TestCurrentBranchReturnsName(t *testing.T) {
	dir := setupRepo(t)
	p := New(dir)

	branch, ok := p.CurrentBranch(context.Background())
	if !ok {
		t.Fatal("expected ok=true")
	}
	if branch == "" || branch == "HEAD" {
		t.Fatalf("expected a real branch name, got %q", branch)
	}
}

func TestCurrentBranchFalseOnDetachedHead(t *testing.T) {
	dir := setupRepo(t)
	p := New(dir)
	hash, _ := p.CurrentCommit(context.Background())
	runGit(t, dir, "checkout", hash)

	_, ok := p.CurrentBranch(context.Background())
	if ok {
		t.Fatal("expected ok=false for a detached HEAD")
	}
}

func TestIsDirtyReflectsWorkingTreeState(t *testing.T) {
	dir := setupRepo(t)
	p := New(dir)

	dirty, ok := p.IsDirty(context.Background())
	if !ok {
		t.Fatal("expected ok=true")
	}
	if dirty {
		t.Fatal("expected a clean working tree right after commit")
	}

	if err := os.WriteFile(filepath.Join(dir, "file.txt"), []byte("two\n"), 0o644); err != nil {
		t.Fatalf("write file: %v", err)
	}

	dirty, ok = p.IsDirty(context.Background())
	if !ok {
		t.Fatal("expected ok=true")
	}
	if !dirty {
		t.Fatal("expected a dirty working tree after uncommitted edit")
	}
}

func TestTrackedFilesSnapshotIncludesCommittedFile(t *testing.T) {
	dir := setupRepo(t)
	p := New(dir)

	snapshot, ok := p.TrackedFilesSnapshot(context.Background())
	if !ok {
		t.Fatal("expected ok=true")
	}
	if _, present := snapshot["file.txt"]; !present {
		t.Fatalf("expected file.txt in snapshot, got %v", snapshot)
	}
}

func TestCommitCountIncrementsWithEachCommit(t *testing.T) {
	dir := setupRepo(t)
	p := New(dir)

	count, ok := p.CommitCount(context.Background())
	if !ok {
		t.Fatal("expected ok=true")
	}
	if count != 1 {
		t.Fatalf("expected 1 commit, got %d", count)
	}

	if err := os.WriteFile(filepath.Join(dir, "file2.txt"), []byte("more\n"), 0o644); err != nil {
		t.Fatalf("write file: %v", err)
	}
	runGit(t, dir, "add", "file2.txt")
	runGit(t, dir, "commit", "-m", "second")

	count, ok = p.CommitCount(context.Background())
	if !ok {
		t.Fatal("expected ok=true")
	}
	if count != 2 {
		t.Fatalf("expected 2 commits, got %d", count)
	}
}

func TestLatestCommitForMatchesCurrentCommit(t *testing.T) {
	dir := setupRepo(t)
	p := New(dir)

	head, ok := p.CurrentCommit(context.Background())
	if !ok {
		t.Fatal("expected ok=true")
	}

	resolved, ok := p.LatestCommitFor(context.Background(), "HEAD")
	if !ok {
		t.Fatal("expected ok=true")
	}
	if resolved != head {
		t.Fatalf("expected %q, got %q", head, resolved)
	}
}

func TestDiffStatReportsChangeBetweenCommits(t *testing.T) {
	dir := setupRepo(t)
	p := New(dir)
	first, _ := p.CurrentCommit(context.Background())

	if err := os.WriteFile(filepath.Join(dir, "file.txt"), []byte("one\ntwo\n"), 0o644); err != nil {
		t.Fatalf("write file: %v", err)
	}
	runGit(t, dir, "add", "file.txt")
	runGit(t, dir, "commit", "-m", "second")
	second, _ := p.CurrentCommit(context.Background())

	summary, ok := p.DiffStat(context.Background(), first, second)
	if !ok {
		t.Fatal("expected ok=true")
	}
	if summary == "" {
		t.Fatal("expected a non-empty diff summary")
	}
}

func TestProbesFalseOnNonGitDirectory(t *testing.T) {
	dir := t.TempDir()
	p := New(dir)

	if _, ok := p.CurrentCommit(context.Background()); ok {
		t.Fatal("expected ok=false outside a git repo")
	}
	if _, ok := p.IsDirty(context.Background()); ok {
		t.Fatal("expected ok=false outside a git repo")
	}
}
