package syncbranch

import (
	"context"
	"fmt"
	"os"

	"github.com/entirecontext/ec/internal/redact"
	"github.com/entirecontext/ec/internal/storage/sqlite"
)

// RemoteSHAConfigKey stores the last-seen remote shadow-branch commit,
// used to detect a force-push/rebase on the next sync (spec.md §7).
const RemoteSHAConfigKey = "sync.remote_sha"

// Options configures a Pull/sync run.
type Options struct {
	Remote  string // defaults to "origin"
	Redact  bool   // default true, per spec.md §4.9
	Message string // commit message for the shadow-branch commit
}

// Result reports what a Pull run did.
type Result struct {
	Branch        string
	ForcePushed   bool
	MergedSummary Manifest
}

// Pull runs one full sync cycle (spec.md §4.9/§6's `sync`/`pull`
// commands): export the local store, pull and merge with whatever the
// remote shadow branch already has, then push the merged result back.
// Detects (but does not refuse on) a force-pushed remote; callers
// surface ForcePushed to the user.
func Pull(ctx context.Context, store *sqlite.Store, repoRoot string, opts Options) (*Result, error) {
	if opts.Remote == "" {
		opts.Remote = "origin"
	}
	if opts.Message == "" {
		opts.Message = "sync"
	}

	branch, err := Get(ctx, store)
	if err != nil {
		return nil, fmt.Errorf("resolve sync branch: %w", err)
	}

	transport := NewTransport(repoRoot, branch)
	if err := transport.Checkout(ctx); err != nil {
		return nil, fmt.Errorf("checkout shadow branch: %w", err)
	}

	storedSHA, err := store.GetConfig(ctx, RemoteSHAConfigKey)
	if err != nil {
		return nil, fmt.Errorf("read stored remote sha: %w", err)
	}
	forcePushed, _ := transport.ForcePushDetected(ctx, opts.Remote, storedSHA)

	if err := transport.Pull(ctx, opts.Remote); err != nil {
		return nil, fmt.Errorf("pull shadow branch: %w", err)
	}

	localDir, err := os.MkdirTemp("", "ec-sync-local-*")
	if err != nil {
		return nil, fmt.Errorf("create local staging dir: %w", err)
	}
	defer os.RemoveAll(localDir)

	filter := redact.NewExportFilter(opts.Redact)
	if err := Export(ctx, store, localDir, filter); err != nil {
		return nil, fmt.Errorf("export local store: %w", err)
	}

	remoteManifest, err := ReadManifest(transport.WorktreePath)
	hasRemote := err == nil
	if !hasRemote {
		remoteManifest = Manifest{Checkpoints: map[string]ManifestCheckpoint{}, Sessions: map[string]ManifestSession{}}
	}
	localManifest, err := ReadManifest(localDir)
	if err != nil {
		return nil, fmt.Errorf("read local manifest: %w", err)
	}
	merged := MergeManifests(localManifest, remoteManifest)

	for sessionID := range merged.Sessions {
		localEntries, err := ReadTranscript(localDir, sessionID)
		if err != nil {
			return nil, fmt.Errorf("read local transcript %s: %w", sessionID, err)
		}
		var remoteEntries []TranscriptEntry
		if hasRemote {
			remoteEntries, err = ReadTranscript(transport.WorktreePath, sessionID)
			if err != nil {
				return nil, fmt.Errorf("read remote transcript %s: %w", sessionID, err)
			}
		}
		mergedEntries := MergeTranscripts(localEntries, remoteEntries)
		if err := writeTranscriptEntries(transport.WorktreePath, sessionID, mergedEntries); err != nil {
			return nil, err
		}
	}

	if err := MergeCheckpointFiles(localDir, transport.WorktreePath, transport.WorktreePath); err != nil {
		return nil, fmt.Errorf("merge checkpoint files: %w", err)
	}
	if err := writeManifest(transport.WorktreePath, merged); err != nil {
		return nil, fmt.Errorf("write merged manifest: %w", err)
	}

	if err := transport.CommitAndPush(ctx, opts.Remote, opts.Message); err != nil {
		return nil, fmt.Errorf("push shadow branch: %w", err)
	}

	if newSHA, ok := transport.RemoteHead(ctx, opts.Remote); ok {
		if err := store.SetConfig(ctx, RemoteSHAConfigKey, newSHA); err != nil {
			return nil, fmt.Errorf("store remote sha: %w", err)
		}
	}

	return &Result{Branch: branch, ForcePushed: forcePushed, MergedSummary: merged}, nil
}
