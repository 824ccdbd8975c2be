// Package search implements C6: regex, FTS and (unsupported) semantic
// retrieval across the turn/session/event/content targets named in
// spec.md §4.6, built directly on *sqlite.Store.
package search

import (
	"bufio"
	"context"
	"database/sql"
	"fmt"
	"os"
	"regexp"

	"github.com/entirecontext/ec/internal/ecerr"
	"github.com/entirecontext/ec/internal/storage/sqlite"
	"github.com/entirecontext/ec/internal/types"
)

const defaultLimit = 20

// blobScanCap bounds how many recent turns' blobs a content-target regex
// search will read from disk, so a large repo can't turn a search into
// an unbounded filesystem walk.
const blobScanCap = 500

// Options parameterizes a single C6 search call.
type Options struct {
	Query  string
	Mode   types.SearchMode
	Target types.SearchTarget
	Limit  int
}

// Search dispatches to the mode/target combination requested, per the
// table in spec.md §4.6.
func Search(ctx context.Context, store *sqlite.Store, opts Options) ([]types.SearchResult, error) {
	limit := opts.Limit
	if limit <= 0 {
		limit = defaultLimit
	}

	switch opts.Mode {
	case types.ModeSemantic:
		return nil, ecerr.New(ecerr.MissingEmbeddingBackend,
			"semantic search requires an external embedding backend, which is not configured")
	case types.ModeFTS:
		return searchFTS(ctx, store, opts.Target, opts.Query, limit)
	case types.ModeRegex, "":
		return searchRegex(ctx, store, opts.Target, opts.Query, limit)
	default:
		return nil, fmt.Errorf("search: unrecognized mode %q", opts.Mode)
	}
}

func searchFTS(ctx context.Context, store *sqlite.Store, target types.SearchTarget, query string, limit int) ([]types.SearchResult, error) {
	db := store.UnderlyingDB()
	switch target {
	case types.TargetTurn, types.TargetContent:
		// content's FTS pass is the turns index (summary text); a
		// full blob-text index isn't maintained, per spec.md's
		// non-goal against general-purpose-database scale indexing.
		// Regex mode on TargetContent greps the actual blobs for
		// exact full-text matches instead.
		rows, err := db.QueryContext(ctx, `
			SELECT t.id, t.session_id, t.user_message, t.assistant_summary, t.created_at, bm25(fts_turns) AS rank
			FROM fts_turns
			JOIN turns t ON t.rowid = fts_turns.rowid
			WHERE fts_turns MATCH ?
			ORDER BY rank ASC, t.created_at DESC
			LIMIT ?
		`, query, limit)
		if err != nil {
			return nil, fmt.Errorf("fts turn search: %w", err)
		}
		defer rows.Close()

		var results []types.SearchResult
		for rows.Next() {
			var r types.SearchResult
			var userMessage, assistantSummary string
			if err := rows.Scan(&r.ID, &r.SessionID, &userMessage, &assistantSummary, &r.Timestamp, &r.Rank); err != nil {
				return nil, fmt.Errorf("scan fts turn row: %w", err)
			}
			r.Target = target
			r.Snippet = snippet(userMessage, assistantSummary)
			results = append(results, r)
		}
		return results, rows.Err()

	case types.TargetSession:
		rows, err := db.QueryContext(ctx, `
			SELECT s.id, s.title, s.summary, s.started_at, bm25(fts_sessions) AS rank
			FROM fts_sessions
			JOIN sessions s ON s.rowid = fts_sessions.rowid
			WHERE fts_sessions MATCH ?
			ORDER BY rank ASC, s.started_at DESC
			LIMIT ?
		`, query, limit)
		if err != nil {
			return nil, fmt.Errorf("fts session search: %w", err)
		}
		defer rows.Close()

		var results []types.SearchResult
		for rows.Next() {
			var r types.SearchResult
			var title, summary string
			if err := rows.Scan(&r.ID, &title, &summary, &r.Timestamp, &r.Rank); err != nil {
				return nil, fmt.Errorf("scan fts session row: %w", err)
			}
			r.Target = target
			r.SessionID = r.ID
			r.Snippet = snippet(title, summary)
			results = append(results, r)
		}
		return results, rows.Err()

	case types.TargetEvent:
		// No FTS index over events (low write volume; regex is cheap
		// enough at this scale). Fall back to the same scan regex
		// mode uses.
		return searchEventsRegex(ctx, store, query, limit)

	default:
		return nil, fmt.Errorf("search: unrecognized target %q", target)
	}
}

func searchRegex(ctx context.Context, store *sqlite.Store, target types.SearchTarget, query string, limit int) ([]types.SearchResult, error) {
	re, err := regexp.Compile(query)
	if err != nil {
		return nil, fmt.Errorf("compile search pattern: %w", err)
	}

	switch target {
	case types.TargetTurn:
		return searchTurnsRegex(ctx, store, re, limit)
	case types.TargetSession:
		return searchSessionsRegex(ctx, store, re, limit)
	case types.TargetEvent:
		return searchEventsRegexCompiled(ctx, store, re, limit)
	case types.TargetContent:
		return searchContentRegex(ctx, store, re, limit)
	default:
		return nil, fmt.Errorf("search: unrecognized target %q", target)
	}
}

func searchTurnsRegex(ctx context.Context, store *sqlite.Store, re *regexp.Regexp, limit int) ([]types.SearchResult, error) {
	rows, err := store.UnderlyingDB().QueryContext(ctx, `
		SELECT id, session_id, user_message, assistant_summary, created_at
		FROM turns ORDER BY created_at DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("scan turns: %w", err)
	}
	defer rows.Close()

	var results []types.SearchResult
	for rows.Next() && len(results) < limit {
		var r types.SearchResult
		var userMessage, assistantSummary string
		if err := rows.Scan(&r.ID, &r.SessionID, &userMessage, &assistantSummary, &r.Timestamp); err != nil {
			return nil, fmt.Errorf("scan turn row: %w", err)
		}
		if !re.MatchString(userMessage) && !re.MatchString(assistantSummary) {
			continue
		}
		r.Target = types.TargetTurn
		r.Snippet = snippet(userMessage, assistantSummary)
		results = append(results, r)
	}
	return results, rows.Err()
}

func searchSessionsRegex(ctx context.Context, store *sqlite.Store, re *regexp.Regexp, limit int) ([]types.SearchResult, error) {
	rows, err := store.UnderlyingDB().QueryContext(ctx, `
		SELECT id, title, summary, started_at FROM sessions ORDER BY started_at DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("scan sessions: %w", err)
	}
	defer rows.Close()

	var results []types.SearchResult
	for rows.Next() && len(results) < limit {
		var r types.SearchResult
		var title, summary string
		if err := rows.Scan(&r.ID, &title, &summary, &r.Timestamp); err != nil {
			return nil, fmt.Errorf("scan session row: %w", err)
		}
		if !re.MatchString(title) && !re.MatchString(summary) {
			continue
		}
		r.Target = types.TargetSession
		r.SessionID = r.ID
		r.Snippet = snippet(title, summary)
		results = append(results, r)
	}
	return results, rows.Err()
}

func searchEventsRegex(ctx context.Context, store *sqlite.Store, query string, limit int) ([]types.SearchResult, error) {
	re, err := regexp.Compile(query)
	if err != nil {
		return nil, fmt.Errorf("compile search pattern: %w", err)
	}
	return searchEventsRegexCompiled(ctx, store, re, limit)
}

func searchEventsRegexCompiled(ctx context.Context, store *sqlite.Store, re *regexp.Regexp, limit int) ([]types.SearchResult, error) {
	rows, err := store.UnderlyingDB().QueryContext(ctx, `
		SELECT id, session_id, event_type, summary, created_at FROM events ORDER BY created_at DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("scan events: %w", err)
	}
	defer rows.Close()

	var results []types.SearchResult
	for rows.Next() && len(results) < limit {
		var id int64
		var r types.SearchResult
		var eventType, eventSummary string
		if err := rows.Scan(&id, &r.SessionID, &eventType, &eventSummary, &r.Timestamp); err != nil {
			return nil, fmt.Errorf("scan event row: %w", err)
		}
		if !re.MatchString(eventSummary) && !re.MatchString(eventType) {
			continue
		}
		r.Target = types.TargetEvent
		r.ID = fmt.Sprintf("%d", id)
		r.Snippet = eventType + ": " + eventSummary
		results = append(results, r)
	}
	return results, rows.Err()
}

// searchContentRegex greps the raw transcript blobs backing completed
// turns, the one retrieval path that sees text beyond the stored
// summary columns.
func searchContentRegex(ctx context.Context, store *sqlite.Store, re *regexp.Regexp, limit int) ([]types.SearchResult, error) {
	rows, err := store.UnderlyingDB().QueryContext(ctx, `
		SELECT tc.turn_id, tc.content_path, t.session_id, t.created_at
		FROM turn_content tc
		JOIN turns t ON t.id = tc.turn_id
		ORDER BY t.created_at DESC
		LIMIT ?
	`, blobScanCap)
	if err != nil {
		return nil, fmt.Errorf("scan turn_content: %w", err)
	}
	defer rows.Close()

	type candidate struct {
		turnID, path, sessionID string
		ts                      sql.NullTime
	}
	var candidates []candidate
	for rows.Next() {
		var c candidate
		if err := rows.Scan(&c.turnID, &c.path, &c.sessionID, &c.ts); err != nil {
			return nil, fmt.Errorf("scan turn_content row: %w", err)
		}
		candidates = append(candidates, c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	var results []types.SearchResult
	for _, c := range candidates {
		if len(results) >= limit {
			break
		}
		if ctx.Err() != nil {
			return results, ctx.Err()
		}
		line, ok := grepFile(c.path, re)
		if !ok {
			continue
		}
		results = append(results, types.SearchResult{
			Target:    types.TargetContent,
			ID:        c.turnID,
			SessionID: c.sessionID,
			Snippet:   line,
			Timestamp: c.ts.Time,
		})
	}
	return results, nil
}

func grepFile(path string, re *regexp.Regexp) (string, bool) {
	f, err := os.Open(path)
	if err != nil {
		return "", false
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 8*1024*1024)
	for scanner.Scan() {
		line := scanner.Text()
		if re.MatchString(line) {
			return line, true
		}
	}
	return "", false
}

func snippet(a, b string) string {
	if a != "" && b != "" {
		return a + " — " + b
	}
	if a != "" {
		return a
	}
	return b
}
