package sqlite

import (
	"context"
	"database/sql"
)

// TurnsMatchingIDs returns the subset of ids that exist as turns, for
// computing a dry-run's matched count before anything is deleted.
func (s *Store) TurnsMatchingIDs(ctx context.Context, ids []string) ([]string, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	q, args := inClause(`SELECT id FROM turns WHERE id IN (`, ids)
	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var matched []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		matched = append(matched, id)
	}
	return matched, rows.Err()
}

// ContentPathsForTurns returns the blob path recorded for each of the
// given turn ids that has one, so callers can remove the backing files
// after the rows are gone.
func (s *Store) ContentPathsForTurns(ctx context.Context, ids []string) ([]string, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	q, args := inClause(`SELECT content_path FROM turn_content WHERE turn_id IN (`, ids)
	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var paths []string
	for rows.Next() {
		var p string
		if err := rows.Scan(&p); err != nil {
			return nil, err
		}
		paths = append(paths, p)
	}
	return paths, rows.Err()
}

// DeleteTurns removes the given turns. turn_content rows cascade via
// the FK declared ON DELETE CASCADE in the schema, which also fires the
// fts_turns AFTER DELETE trigger, keeping invariant 5 (spec.md §8) on
// the purge path without any extra bookkeeping here. The owning
// session's total_turns is recounted in the same transaction to
// preserve invariant 2.
func (s *Store) DeleteTurns(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	return s.RunInTransaction(ctx, func(tx *sql.Tx) error {
		sessionIDs := map[string]struct{}{}
		for _, id := range ids {
			var sid string
			if err := tx.QueryRowContext(ctx, `SELECT session_id FROM turns WHERE id = ?`, id).Scan(&sid); err != nil {
				if err == sql.ErrNoRows {
					continue
				}
				return err
			}
			sessionIDs[sid] = struct{}{}
		}

		q, args := inClause(`DELETE FROM turns WHERE id IN (`, ids)
		if _, err := tx.ExecContext(ctx, q, args...); err != nil {
			return err
		}
		for sid := range sessionIDs {
			if err := RecountSessionTurns(ctx, tx, sid); err != nil {
				return err
			}
		}
		return nil
	})
}

// DeleteSession removes a session and, via ON DELETE CASCADE, every
// turn/checkpoint/event it owns (and, transitively, every turn's
// turn_content). Callers are responsible for enforcing the
// active-session refusal rule (spec.md §4.8) before calling this.
func (s *Store) DeleteSession(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM sessions WHERE id = ?`, id)
	return err
}

// TurnIDAndMessage pairs a turn id with its user_message, returned by
// AllTurnMessages for app-side pattern matching.
type TurnIDAndMessage struct {
	ID          string
	UserMessage string
}

// AllTurnMessages returns the id and user_message of every turn in the
// repo, for app-side regex matching by purge_by_pattern (spec.md §4.8:
// "matches the user_message column server-side" — the column has no
// index worth a LIKE scan over, so matching happens in Go the same way
// C6's regex search does).
func (s *Store) AllTurnMessages(ctx context.Context) ([]TurnIDAndMessage, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, user_message FROM turns`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []TurnIDAndMessage
	for rows.Next() {
		var r TurnIDAndMessage
		if err := rows.Scan(&r.ID, &r.UserMessage); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func inClause(prefix string, ids []string) (string, []any) {
	q := prefix
	args := make([]any, len(ids))
	for i, id := range ids {
		if i > 0 {
			q += ", "
		}
		q += "?"
		args[i] = id
	}
	q += ")"
	return q, args
}
