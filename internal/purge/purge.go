// Package purge implements C8: dry-run-by-default deletion of turns and
// sessions by id or pattern, cascading to blobs and the FTS index
// (spec.md §4.8). Grounded on the teacher's own delete command
// (cmd/bd/delete.go), which defaults to a dry run and reports a
// matched/deleted count distinct from zero.
package purge

import (
	"context"
	"fmt"
	"os"
	"regexp"

	"github.com/entirecontext/ec/internal/ecerr"
	"github.com/entirecontext/ec/internal/storage/sqlite"
)

// Result mirrors spec.md §4.8's dry-run response shape:
// {matched_turns, deleted, dry_run}.
type Result struct {
	MatchedTurns int  `json:"matched_turns"`
	Deleted      int  `json:"deleted"`
	DryRun       bool `json:"dry_run"`
}

// Turns deletes (or, if dryRun, merely counts) the turns identified by
// ids. Unknown ids are silently ignored, matching CreateTurn/GetTurn's
// existing tolerance of id's supplied by an external caller.
func Turns(ctx context.Context, store *sqlite.Store, ids []string, dryRun bool) (Result, error) {
	matched, err := store.TurnsMatchingIDs(ctx, ids)
	if err != nil {
		return Result{}, fmt.Errorf("match turns: %w", err)
	}
	result := Result{MatchedTurns: len(matched), DryRun: dryRun}
	if dryRun || len(matched) == 0 {
		return result, nil
	}

	blobPaths, err := store.ContentPathsForTurns(ctx, matched)
	if err != nil {
		return Result{}, fmt.Errorf("resolve blob paths: %w", err)
	}
	if err := store.DeleteTurns(ctx, matched); err != nil {
		return Result{}, fmt.Errorf("delete turns: %w", err)
	}
	removeBlobs(blobPaths)
	result.Deleted = len(matched)
	return result, nil
}

// Session deletes (or counts) every turn owned by sessionID, refusing
// to act on a session that is still active (ended_at IS NULL), per
// spec.md §4.8 and §7 ("purge and sync refuse destructive actions on
// dirty or active state").
func Session(ctx context.Context, store *sqlite.Store, sessionID string, dryRun bool) (Result, error) {
	sess, err := store.GetSession(ctx, sessionID)
	if err != nil {
		return Result{}, fmt.Errorf("get session: %w", err)
	}
	if sess.Active() {
		return Result{}, ecerr.New(ecerr.ActiveSessionError, "session %s is still active (ended_at is null); end it before purging", sessionID)
	}

	turns, err := store.ListTurns(ctx, sessionID)
	if err != nil {
		return Result{}, fmt.Errorf("list turns: %w", err)
	}
	result := Result{MatchedTurns: len(turns), DryRun: dryRun}
	if dryRun || len(turns) == 0 {
		if !dryRun {
			// No turns to orphan; still remove the now-empty session row.
			if err := store.DeleteSession(ctx, sessionID); err != nil {
				return Result{}, fmt.Errorf("delete session: %w", err)
			}
		}
		return result, nil
	}

	ids := make([]string, len(turns))
	for i, t := range turns {
		ids[i] = t.ID
	}
	blobPaths, err := store.ContentPathsForTurns(ctx, ids)
	if err != nil {
		return Result{}, fmt.Errorf("resolve blob paths: %w", err)
	}

	// DeleteSession cascades to turns/turn_content/checkpoints/events via
	// the schema's ON DELETE CASCADE foreign keys; no need to delete
	// turns separately first.
	if err := store.DeleteSession(ctx, sessionID); err != nil {
		return Result{}, fmt.Errorf("delete session: %w", err)
	}
	removeBlobs(blobPaths)
	result.Deleted = len(turns)
	return result, nil
}

// ByPattern matches every turn whose user_message matches the regex
// pattern, then deletes (or counts) exactly those turns. Matching
// happens app-side, the same way C6's regex search scans turns, since
// the user_message column carries no index worth a SQL LIKE pass over.
func ByPattern(ctx context.Context, store *sqlite.Store, pattern string, dryRun bool) (Result, error) {
	re, err := regexp.Compile(pattern)
	if err != nil {
		return Result{}, fmt.Errorf("compile pattern: %w", err)
	}

	all, err := store.AllTurnMessages(ctx)
	if err != nil {
		return Result{}, fmt.Errorf("list turn messages: %w", err)
	}
	var ids []string
	for _, t := range all {
		if re.MatchString(t.UserMessage) {
			ids = append(ids, t.ID)
		}
	}

	return Turns(ctx, store, ids, dryRun)
}

// removeBlobs best-effort removes blob files after their owning rows
// are already gone; a missing file is not an error (it may never have
// been written, e.g. for a codex-ingested turn).
func removeBlobs(paths []string) {
	for _, p := range paths {
		if p == "" {
			continue
		}
		_ = os.Remove(p)
	}
}
