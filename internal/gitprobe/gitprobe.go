// Package gitprobe implements C3: pure, read-only queries over a git
// working tree, used by the capture pipeline and the checkpoint/rewind
// commands. Every operation returns an absent result (ok=false) rather
// than an error on a non-zero exit, timeout, or missing git binary, per
// spec.md §4.3 — these are probes, not commands that can fail the caller.
package gitprobe

import (
	"bytes"
	"context"
	"os/exec"
	"strconv"
	"strings"
	"time"
)

const (
	revParseTimeout = 5 * time.Second
	diffTimeout     = 10 * time.Second
	lsFilesTimeout  = 30 * time.Second
)

// Prober runs git commands rooted at RepoPath.
type Prober struct {
	RepoPath string
}

// New returns a Prober rooted at repoPath.
func New(repoPath string) *Prober {
	return &Prober{RepoPath: repoPath}
}

func (p *Prober) run(ctx context.Context, timeout time.Duration, args ...string) (string, bool) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, "git", append([]string{"-C", p.RepoPath}, args...)...)
	var stdout bytes.Buffer
	cmd.Stdout = &stdout
	if err := cmd.Run(); err != nil {
		return "", false
	}
	return stdout.String(), true
}

// CurrentCommit returns the full hash of HEAD, or ok=false if unavailable.
func (p *Prober) CurrentCommit(ctx context.Context) (hash string, ok bool) {
	out, ok := p.run(ctx, revParseTimeout, "rev-parse", "HEAD")
	if !ok {
		return "", false
	}
	return strings.TrimSpace(out), true
}

// CurrentBranch returns the current branch name. Returns ok=false for a
// detached HEAD, matching spec.md §4.3.
func (p *Prober) CurrentBranch(ctx context.Context) (branch string, ok bool) {
	out, ok := p.run(ctx, revParseTimeout, "rev-parse", "--abbrev-ref", "HEAD")
	if !ok {
		return "", false
	}
	branch = strings.TrimSpace(out)
	if branch == "" || branch == "HEAD" {
		return "", false
	}
	return branch, true
}

// DiffStat returns the `git diff --stat` summary between two refs.
func (p *Prober) DiffStat(ctx context.Context, fromRef, toRef string) (summary string, ok bool) {
	out, ok := p.run(ctx, diffTimeout, "diff", "--stat", fromRef, toRef)
	if !ok {
		return "", false
	}
	return strings.TrimSpace(out), true
}

// TrackedFilesSnapshot returns a map of tracked file path to git object
// hash, parsed from `git ls-files -s`. Malformed lines are ignored.
func (p *Prober) TrackedFilesSnapshot(ctx context.Context) (map[string]string, bool) {
	out, ok := p.run(ctx, lsFilesTimeout, "ls-files", "-s")
	if !ok {
		return nil, false
	}

	snapshot := make(map[string]string)
	for _, line := range strings.Split(out, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		// Format: "<mode> <hash> <stage>\t<path>"
		tabIdx := strings.Index(line, "\t")
		if tabIdx < 0 {
			continue
		}
		meta := strings.Fields(line[:tabIdx])
		path := line[tabIdx+1:]
		if len(meta) < 2 || path == "" {
			continue
		}
		snapshot[path] = meta[1]
	}
	return snapshot, true
}

// IsDirty reports whether the working tree has uncommitted changes.
// Used by `rewind --restore` to refuse on a dirty tree (spec.md §6).
func (p *Prober) IsDirty(ctx context.Context) (dirty bool, ok bool) {
	out, ok := p.run(ctx, diffTimeout, "status", "--porcelain")
	if !ok {
		return false, false
	}
	return strings.TrimSpace(out) != "", true
}

// LatestCommitFor returns the commit hash ref resolves to (`git
// rev-parse ref`).
func (p *Prober) LatestCommitFor(ctx context.Context, ref string) (string, bool) {
	out, ok := p.run(ctx, revParseTimeout, "rev-parse", ref)
	if !ok {
		return "", false
	}
	return strings.TrimSpace(out), true
}

// CommitCount returns the number of commits reachable from HEAD. Not
// part of the core contract but cheap to derive from the same probe
// primitives.
func (p *Prober) CommitCount(ctx context.Context) (int, bool) {
	out, ok := p.run(ctx, diffTimeout, "rev-list", "--count", "HEAD")
	if !ok {
		return 0, false
	}
	n, err := strconv.Atoi(strings.TrimSpace(out))
	if err != nil {
		return 0, false
	}
	return n, true
}
