package registry

import (
	"context"
	"sort"

	"github.com/entirecontext/ec/internal/attribution"
	"github.com/entirecontext/ec/internal/ecerr"
	"github.com/entirecontext/ec/internal/search"
	"github.com/entirecontext/ec/internal/storage/sqlite"
	"github.com/entirecontext/ec/internal/types"
)

// CrossRepoSearch runs a C6 search against every repo in entries,
// opening each store read-only, annotating results with repo_name and
// repo_path, discarding per-repo failures, and truncating the merged,
// recency-sorted list to limit (spec.md §4.7).
func CrossRepoSearch(ctx context.Context, entries []types.RepoIndexEntry, opts search.Options) []types.SearchResult {
	var merged []types.SearchResult
	for _, e := range entries {
		store, err := sqlite.OpenReadOnly(ctx, e.DBPath)
		if err != nil {
			continue
		}
		results, err := search.Search(ctx, store, opts)
		store.Close()
		if err != nil {
			continue
		}
		for i := range results {
			results[i].RepoName = e.RepoName
			results[i].RepoPath = e.RepoPath
		}
		merged = append(merged, results...)
	}

	sort.Slice(merged, func(i, j int) bool { return merged[i].Timestamp.After(merged[j].Timestamp) })
	if opts.Limit > 0 && len(merged) > opts.Limit {
		merged = merged[:opts.Limit]
	}
	return merged
}

// RepoSession pairs a Session with the repo it came from, for
// cross-repo session listing and detail.
type RepoSession struct {
	Session  *types.Session
	RepoName string
	RepoPath string
}

// CrossRepoSessions lists every session across entries, most recent
// first, truncated to limit. A repo whose store can't be opened is
// silently skipped.
func CrossRepoSessions(ctx context.Context, entries []types.RepoIndexEntry, limit int) []RepoSession {
	var merged []RepoSession
	for _, e := range entries {
		store, err := sqlite.OpenReadOnly(ctx, e.DBPath)
		if err != nil {
			continue
		}
		sessions, err := allSessions(ctx, store)
		store.Close()
		if err != nil {
			continue
		}
		for _, s := range sessions {
			merged = append(merged, RepoSession{Session: s, RepoName: e.RepoName, RepoPath: e.RepoPath})
		}
	}

	sort.Slice(merged, func(i, j int) bool {
		return merged[i].Session.StartedAt.After(merged[j].Session.StartedAt)
	})
	if limit > 0 && len(merged) > limit {
		merged = merged[:limit]
	}
	return merged
}

// CrossRepoSessionDetail finds the session with sessionID across
// entries, returning the first repo that has it and its turns.
func CrossRepoSessionDetail(ctx context.Context, entries []types.RepoIndexEntry, sessionID string) (*RepoSession, []*types.Turn, error) {
	for _, e := range entries {
		store, err := sqlite.OpenReadOnly(ctx, e.DBPath)
		if err != nil {
			continue
		}
		sess, err := store.GetSession(ctx, sessionID)
		if err != nil {
			store.Close()
			continue
		}
		turns, err := store.ListTurns(ctx, sessionID)
		store.Close()
		if err != nil {
			continue
		}
		return &RepoSession{Session: sess, RepoName: e.RepoName, RepoPath: e.RepoPath}, turns, nil
	}
	return nil, nil, ecerr.New(ecerr.NotFound, "no session %s found across %d registered repos", sessionID, len(entries))
}

// RepoCheckpoint pairs a Checkpoint with the repo it came from.
type RepoCheckpoint struct {
	Checkpoint *types.Checkpoint
	RepoName   string
	RepoPath   string
}

// CrossRepoRewind resolves idOrPrefix against every entry's store in
// turn, returning the first match found.
func CrossRepoRewind(ctx context.Context, entries []types.RepoIndexEntry, idOrPrefix string) (*RepoCheckpoint, error) {
	for _, e := range entries {
		store, err := sqlite.OpenReadOnly(ctx, e.DBPath)
		if err != nil {
			continue
		}
		cp, err := attribution.ResolveCheckpoint(ctx, store, idOrPrefix)
		store.Close()
		if err != nil {
			continue
		}
		return &RepoCheckpoint{Checkpoint: cp, RepoName: e.RepoName, RepoPath: e.RepoPath}, nil
	}
	return nil, ecerr.New(ecerr.CheckpointNotFound, "no checkpoint matching %q found across %d registered repos", idOrPrefix, len(entries))
}

func allSessions(ctx context.Context, store *sqlite.Store) ([]*types.Session, error) {
	rows, err := store.UnderlyingDB().QueryContext(ctx, `SELECT id FROM sessions`)
	if err != nil {
		return nil, err
	}
	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return nil, err
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	rows.Close()

	sessions := make([]*types.Session, 0, len(ids))
	for _, id := range ids {
		s, err := store.GetSession(ctx, id)
		if err != nil {
			continue
		}
		sessions = append(sessions, s)
	}
	return sessions, nil
}
