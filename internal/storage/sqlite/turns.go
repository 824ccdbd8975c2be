package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/entirecontext/ec/internal/types"
)

const turnColumns = `id, session_id, turn_number, user_message, assistant_summary, tools_used, files_touched, status, content_hash, created_at`

func scanTurn(row interface{ Scan(...any) error }) (*types.Turn, error) {
	var t types.Turn
	var toolsJSON, filesJSON string
	if err := row.Scan(
		&t.ID, &t.SessionID, &t.TurnNumber, &t.UserMessage, &t.AssistantSummary,
		&toolsJSON, &filesJSON, &t.Status, &t.ContentHash, &t.CreatedAt,
	); err != nil {
		return nil, err
	}
	tools, err := types.DecodeStringList(toolsJSON)
	if err != nil {
		return nil, err
	}
	files, err := types.DecodeStringList(filesJSON)
	if err != nil {
		return nil, err
	}
	t.ToolsUsed = tools
	t.FilesTouched = files
	return &t, nil
}

// CreateTurn opens a new in-progress turn for sessionID. turnNumber is
// assigned as max(existing)+1 inside the same transaction that inserts
// the row, retrying on a unique-constraint race up to a small bound
// (spec.md §4.4, §5).
func (s *Store) CreateTurn(ctx context.Context, sessionID, turnID, userMessage string) (*types.Turn, error) {
	const maxAttempts = 5
	var created *types.Turn

	for attempt := 0; attempt < maxAttempts; attempt++ {
		err := s.RunInTransaction(ctx, func(tx *sql.Tx) error {
			var maxNum sql.NullInt64
			if err := tx.QueryRowContext(ctx,
				`SELECT MAX(turn_number) FROM turns WHERE session_id = ?`, sessionID,
			).Scan(&maxNum); err != nil {
				return err
			}
			turnNumber := int(maxNum.Int64) + 1

			_, err := tx.ExecContext(ctx, `
				INSERT INTO turns (id, session_id, turn_number, user_message, status)
				VALUES (?, ?, ?, ?, 'in_progress')
			`, turnID, sessionID, turnNumber, userMessage)
			if err != nil {
				return err
			}
			return RecountSessionTurns(ctx, tx, sessionID)
		})
		if err == nil {
			created, err = s.GetTurn(ctx, turnID)
			return created, err
		}
		if !isUniqueConstraintErr(err) {
			return nil, fmt.Errorf("create turn: %w", err)
		}
		// Lost the race on (session_id, turn_number); retry with a fresh MAX().
	}
	return nil, fmt.Errorf("create turn: exceeded %d attempts resolving turn_number race", maxAttempts)
}

func isUniqueConstraintErr(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "unique") || strings.Contains(msg, "constraint")
}

// GetActiveTurn returns the in-progress turn for sessionID, if any.
func (s *Store) GetActiveTurn(ctx context.Context, sessionID string) (*types.Turn, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+turnColumns+` FROM turns
		WHERE session_id = ? AND status = 'in_progress'
		ORDER BY turn_number DESC LIMIT 1
	`, sessionID)
	return scanTurn(row)
}

// OverwritePendingPrompt replaces the user_message of the session's
// current in-progress turn, implementing the idempotence rule for a
// repeated UserPromptSubmit (spec.md §4.5: "overwrites the pending
// prompt rather than creating a second turn").
func (s *Store) OverwritePendingPrompt(ctx context.Context, turnID, userMessage string) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE turns SET user_message = ? WHERE id = ? AND status = 'in_progress'
	`, userMessage, turnID)
	return err
}

// AppendToolUsed appends toolName to tools_used if not already present.
func (s *Store) AppendToolUsed(ctx context.Context, turnID, toolName string) error {
	return s.appendJSONListColumn(ctx, "tools_used", turnID, toolName)
}

// AppendFileTouched appends path to files_touched if not already present.
func (s *Store) AppendFileTouched(ctx context.Context, turnID, path string) error {
	return s.appendJSONListColumn(ctx, "files_touched", turnID, path)
}

func (s *Store) appendJSONListColumn(ctx context.Context, column, turnID, value string) error {
	var raw string
	if err := s.db.QueryRowContext(ctx,
		fmt.Sprintf(`SELECT %s FROM turns WHERE id = ?`, column), turnID,
	).Scan(&raw); err != nil {
		return err
	}
	list, err := types.DecodeStringList(raw)
	if err != nil {
		return err
	}
	list = list.Append(value)
	encoded, err := list.Value()
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx,
		fmt.Sprintf(`UPDATE turns SET %s = ? WHERE id = ?`, column), encoded, turnID,
	)
	return err
}

// FinalizeTurn transitions a turn to completed, terminal per spec.md
// §4.10's state machine; re-finalisation is a no-op.
func (s *Store) FinalizeTurn(ctx context.Context, turnID, assistantSummary, contentHash string) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE turns SET assistant_summary = ?, content_hash = ?, status = 'completed'
		WHERE id = ? AND status = 'in_progress'
	`, assistantSummary, contentHash, turnID)
	return err
}

// GetTurn returns the turn with the given id.
func (s *Store) GetTurn(ctx context.Context, id string) (*types.Turn, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+turnColumns+` FROM turns WHERE id = ?`, id)
	return scanTurn(row)
}

// ListTurns returns every turn in sessionID ordered by turn_number ASC.
func (s *Store) ListTurns(ctx context.Context, sessionID string) ([]*types.Turn, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+turnColumns+` FROM turns WHERE session_id = ? ORDER BY turn_number ASC
	`, sessionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*types.Turn
	for rows.Next() {
		t, err := scanTurn(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

// CreateTurnContent records the blob backing a completed turn.
func (s *Store) CreateTurnContent(ctx context.Context, tc *types.TurnContent) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO turn_content (turn_id, content_path, size_bytes, content_hash)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(turn_id) DO UPDATE SET
			content_path = excluded.content_path,
			size_bytes = excluded.size_bytes,
			content_hash = excluded.content_hash
	`, tc.TurnID, tc.ContentPath, tc.SizeBytes, tc.ContentHash)
	if err != nil {
		return fmt.Errorf("create turn content: %w", err)
	}
	return nil
}

// GetTurnContent returns the blob record for turnID, if any.
func (s *Store) GetTurnContent(ctx context.Context, turnID string) (*types.TurnContent, error) {
	tc := &types.TurnContent{}
	err := s.db.QueryRowContext(ctx, `
		SELECT turn_id, content_path, size_bytes, content_hash FROM turn_content WHERE turn_id = ?
	`, turnID).Scan(&tc.TurnID, &tc.ContentPath, &tc.SizeBytes, &tc.ContentHash)
	if err != nil {
		return nil, err
	}
	return tc, nil
}

// FindTurnByContentHash supports the codex-style ingester's
// idempotence requirement: re-ingesting the same rollout event must
// not create a duplicate turn (spec.md §4.4). Returns (nil, nil) when
// no such turn exists yet.
func (s *Store) FindTurnByContentHash(ctx context.Context, sessionID, contentHash string) (*types.Turn, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+turnColumns+` FROM turns WHERE session_id = ? AND content_hash = ? LIMIT 1
	`, sessionID, contentHash)
	t, err := scanTurn(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return t, err
}
