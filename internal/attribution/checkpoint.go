// Package attribution implements C10: checkpoint creation (explicit or
// from PostCommit), checkpoint lookup by id or prefix, and blame
// aggregation over attribution ranges.
package attribution

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/entirecontext/ec/internal/ecerr"
	"github.com/entirecontext/ec/internal/gitprobe"
	"github.com/entirecontext/ec/internal/storage/sqlite"
	"github.com/entirecontext/ec/internal/types"
)

// CreateCheckpoint anchors sessionID to the repo's current HEAD. It
// returns created=false, with no error, when git is unavailable or HEAD
// is unchanged from the most recent checkpoint for this session — the
// same dedup rule PostCommit and an explicit `checkpoint create` share
// (spec.md §4.5, §4.10: "a Checkpoint is created either by PostCommit
// or explicitly").
func CreateCheckpoint(ctx context.Context, store *sqlite.Store, git *gitprobe.Prober, sessionID, source string) (*types.Checkpoint, bool, error) {
	commit, ok := git.CurrentCommit(ctx)
	if !ok {
		return nil, false, nil
	}
	branch, _ := git.CurrentBranch(ctx)

	latest, err := store.LatestCheckpoint(ctx, sessionID)
	if err != nil {
		return nil, false, fmt.Errorf("lookup latest checkpoint: %w", err)
	}
	if latest != nil && latest.CommitHash == commit {
		return latest, false, nil
	}

	var diffSummary string
	if latest != nil {
		diffSummary, _ = git.DiffStat(ctx, latest.CommitHash, commit)
	}
	snapshot, _ := git.TrackedFilesSnapshot(ctx)

	cp := &types.Checkpoint{
		ID:            uuid.NewString(),
		SessionID:     sessionID,
		CommitHash:    commit,
		Branch:        branch,
		DiffSummary:   diffSummary,
		FilesSnapshot: snapshot,
		Metadata:      types.Metadata{"source": source},
	}
	if err := store.CreateCheckpoint(ctx, cp); err != nil {
		return nil, false, fmt.Errorf("create checkpoint: %w", err)
	}
	return cp, true, nil
}

// ResolveCheckpoint finds a checkpoint by exact id first, then by id
// prefix — the lookup shape `rewind` and the cross-repo rewind need,
// thin over the storage layer's own prefix-match primitives.
func ResolveCheckpoint(ctx context.Context, store *sqlite.Store, idOrPrefix string) (*types.Checkpoint, error) {
	cp, err := store.GetCheckpoint(ctx, idOrPrefix)
	if err == nil {
		return cp, nil
	}
	if domainErr, ok := err.(*ecerr.Error); ok && domainErr.Kind == ecerr.CheckpointNotFound {
		return store.GetCheckpointByPrefix(ctx, idOrPrefix)
	}
	return nil, err
}
