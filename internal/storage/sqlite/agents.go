package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/entirecontext/ec/internal/types"
)

// UpsertAgent creates or updates the display name of a named agent,
// referenced by Attribution.AgentID (spec.md §3).
func (s *Store) UpsertAgent(ctx context.Context, a *types.Agent) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO agents (id, agent_type, display_name) VALUES (?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET agent_type = excluded.agent_type, display_name = excluded.display_name
	`, a.ID, a.AgentType, a.DisplayName)
	if err != nil {
		return fmt.Errorf("upsert agent: %w", err)
	}
	return nil
}

// GetAgent returns the agent with the given id.
func (s *Store) GetAgent(ctx context.Context, id string) (*types.Agent, error) {
	a := &types.Agent{}
	err := s.db.QueryRowContext(ctx,
		`SELECT id, agent_type, display_name FROM agents WHERE id = ?`, id,
	).Scan(&a.ID, &a.AgentType, &a.DisplayName)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return a, nil
}
