package syncbranch

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"
)

const (
	gitTimeout = 30 * time.Second
)

// Transport drives the shadow branch in repoRoot as a detached git
// worktree, so export/import never disturbs the user's checked-out
// working branch (spec.md §4.9: "a dedicated git branch ... never
// merged into the user's working branches"). Unlike gitprobe's
// never-fail probes, these operations are real commands whose failure
// must be reported to the caller — pull/push is exactly the kind of
// operation spec.md §7 says should "refuse ... and report why".
type Transport struct {
	RepoRoot     string
	Branch       string
	WorktreePath string
}

// NewTransport roots a Transport at repoRoot, staging the shadow branch
// worktree under .entirecontext/sync-worktree so it never collides with
// a path the user might check out themselves.
func NewTransport(repoRoot, branch string) *Transport {
	return &Transport{
		RepoRoot:     repoRoot,
		Branch:       branch,
		WorktreePath: filepath.Join(repoRoot, ".entirecontext", "sync-worktree"),
	}
}

func (t *Transport) run(ctx context.Context, dir string, args ...string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, gitTimeout)
	defer cancel()
	cmd := exec.CommandContext(ctx, "git", args...)
	if dir != "" {
		cmd.Dir = dir
	}
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("git %s: %w: %s", strings.Join(args, " "), err, strings.TrimSpace(stderr.String()))
	}
	return stdout.String(), nil
}

func (t *Transport) branchExists(ctx context.Context, ref string) bool {
	_, err := t.run(ctx, t.RepoRoot, "rev-parse", "--verify", ref)
	return err == nil
}

// Checkout ensures the shadow branch's worktree exists and is on
// Branch, creating an orphan branch with no history if this is the
// first export, since the shadow branch is a separate, never-merged
// commit graph from the user's working branch.
func (t *Transport) Checkout(ctx context.Context) error {
	if _, err := os.Stat(t.WorktreePath); err == nil {
		return nil
	}

	if t.branchExists(ctx, t.Branch) {
		_, err := t.run(ctx, t.RepoRoot, "worktree", "add", t.WorktreePath, t.Branch)
		return err
	}

	if err := os.MkdirAll(t.WorktreePath, 0o750); err != nil {
		return fmt.Errorf("create worktree dir: %w", err)
	}
	if _, err := t.run(ctx, t.RepoRoot, "worktree", "add", "--detach", t.WorktreePath); err != nil {
		return err
	}
	if _, err := t.run(ctx, t.WorktreePath, "checkout", "--orphan", t.Branch); err != nil {
		return err
	}
	if _, err := t.run(ctx, t.WorktreePath, "rm", "-rf", "--quiet", "."); err != nil {
		// An empty orphan branch has nothing to remove; not fatal.
		_ = err
	}
	return nil
}

// Pull fetches the remote shadow branch and hard-resets the local
// worktree to it, discarding local edits, if a remote copy exists. A missing remote branch is not an
// error — it just means this is the first sync.
func (t *Transport) Pull(ctx context.Context, remote string) error {
	if _, err := t.run(ctx, t.WorktreePath, "fetch", remote, t.Branch); err != nil {
		return nil
	}
	_, err := t.run(ctx, t.WorktreePath, "reset", "--hard", remote+"/"+t.Branch)
	return err
}

// CommitAndPush stages every file under the worktree, commits with
// message, and pushes Branch to remote.
func (t *Transport) CommitAndPush(ctx context.Context, remote, message string) error {
	if _, err := t.run(ctx, t.WorktreePath, "add", "-A"); err != nil {
		return err
	}
	if _, err := t.run(ctx, t.WorktreePath, "diff", "--cached", "--quiet"); err == nil {
		return nil // nothing changed
	}
	if _, err := t.run(ctx, t.WorktreePath, "commit", "-m", message); err != nil {
		return err
	}
	_, err := t.run(ctx, t.WorktreePath, "push", remote, t.Branch)
	return err
}

// RemoteHead returns the current commit hash of remote/Branch, or
// ok=false if the remote branch doesn't exist yet.
func (t *Transport) RemoteHead(ctx context.Context, remote string) (hash string, ok bool) {
	if _, err := t.run(ctx, t.RepoRoot, "fetch", remote, t.Branch); err != nil {
		return "", false
	}
	out, err := t.run(ctx, t.RepoRoot, "rev-parse", remote+"/"+t.Branch)
	if err != nil {
		return "", false
	}
	return strings.TrimSpace(out), true
}

// ForcePushDetected reports whether storedSHA is no longer an ancestor
// of the remote branch's current head, meaning the remote history was
// rewritten (force-push or rebase) since the last sync.
func (t *Transport) ForcePushDetected(ctx context.Context, remote, storedSHA string) (bool, error) {
	if storedSHA == "" {
		return false, nil
	}
	currentSHA, ok := t.RemoteHead(ctx, remote)
	if !ok || currentSHA == storedSHA {
		return false, nil
	}
	_, err := t.run(ctx, t.RepoRoot, "merge-base", "--is-ancestor", storedSHA, currentSHA)
	return err != nil, nil
}
