// Package model implements C4: session/turn CRUD and invariants,
// active-turn tracking, and transcript/codex-rollout parsing, layered
// on top of internal/storage/sqlite's plain CRUD.
package model

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"github.com/entirecontext/ec/internal/storage/sqlite"
	"github.com/entirecontext/ec/internal/types"
)

// Model is the C4 handle for one repo's store.
type Model struct {
	Store *sqlite.Store
}

// New wraps store with the session/turn business rules.
func New(store *sqlite.Store) *Model {
	return &Model{Store: store}
}

// EnsureProject registers repoPath as a Project, idempotent.
func (m *Model) EnsureProject(ctx context.Context, repoPath, name string) (*types.Project, error) {
	return m.Store.CreateProject(ctx, repoPath, name)
}

// StartSession creates-or-returns the session for sessionID, per
// spec.md §4.4.
func (m *Model) StartSession(ctx context.Context, projectID, sessionID, kind string, metadata types.Metadata) (*types.Session, error) {
	return m.Store.CreateSession(ctx, projectID, sessionID, kind, metadata)
}

// CurrentSession returns the project's active session, or nil if none.
func (m *Model) CurrentSession(ctx context.Context, projectID string) (*types.Session, error) {
	sess, err := m.Store.GetCurrentSession(ctx, projectID)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return sess, err
}

// EndSession finalises a session; idempotent if already ended.
func (m *Model) EndSession(ctx context.Context, sessionID string) error {
	return m.Store.EndSession(ctx, sessionID)
}

// OpenTurn opens a new in-progress turn, or — if one is already
// in-progress for sessionID — overwrites its pending prompt in place,
// implementing the re-delivery idempotence rule of spec.md §4.5.
func (m *Model) OpenTurn(ctx context.Context, sessionID, userMessage string) (*types.Turn, error) {
	active, err := m.Store.GetActiveTurn(ctx, sessionID)
	switch {
	case err == nil:
		if err := m.Store.OverwritePendingPrompt(ctx, active.ID, userMessage); err != nil {
			return nil, fmt.Errorf("overwrite pending prompt: %w", err)
		}
		active.UserMessage = userMessage
		return active, nil
	case err == sql.ErrNoRows:
		return m.Store.CreateTurn(ctx, sessionID, uuid.NewString(), userMessage)
	default:
		return nil, fmt.Errorf("lookup active turn: %w", err)
	}
}

// RecordToolUse appends toolName and, if present, filePath to the
// current active turn of sessionID. A missing active turn is a no-op —
// a PostToolUse arriving with no open turn has nothing to attach to.
func (m *Model) RecordToolUse(ctx context.Context, sessionID, toolName, filePath string) error {
	active, err := m.Store.GetActiveTurn(ctx, sessionID)
	if err == sql.ErrNoRows {
		return nil
	}
	if err != nil {
		return fmt.Errorf("lookup active turn: %w", err)
	}
	if toolName != "" {
		if err := m.Store.AppendToolUsed(ctx, active.ID, toolName); err != nil {
			return err
		}
	}
	if filePath != "" {
		if err := m.Store.AppendFileTouched(ctx, active.ID, filePath); err != nil {
			return err
		}
	}
	return nil
}

// FinalizeActiveTurn finalises the session's in-progress turn with the
// parsed assistant summary and content hash; a no-op if none is in
// progress (spec.md §4.5: "repeated Stop on an already-completed turn
// is a no-op").
func (m *Model) FinalizeActiveTurn(ctx context.Context, sessionID, assistantSummary, contentHash string) (*types.Turn, error) {
	active, err := m.Store.GetActiveTurn(ctx, sessionID)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("lookup active turn: %w", err)
	}
	if err := m.Store.FinalizeTurn(ctx, active.ID, assistantSummary, contentHash); err != nil {
		return nil, err
	}
	return m.Store.GetTurn(ctx, active.ID)
}
