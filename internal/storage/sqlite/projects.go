package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"github.com/entirecontext/ec/internal/types"
)

// CreateProject creates a Project for repoPath or returns the existing
// one, idempotent on the unique repo_path column (spec.md §3).
func (s *Store) CreateProject(ctx context.Context, repoPath, name string) (*types.Project, error) {
	if existing, err := s.GetProjectByPath(ctx, repoPath); err == nil {
		return existing, nil
	} else if err != sql.ErrNoRows {
		return nil, err
	}

	p := &types.Project{ID: uuid.NewString(), Name: name, RepoPath: repoPath}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO projects (id, name, repo_path) VALUES (?, ?, ?)
		 ON CONFLICT(repo_path) DO NOTHING`,
		p.ID, p.Name, p.RepoPath,
	)
	if err != nil {
		return nil, fmt.Errorf("create project: %w", err)
	}
	return s.GetProjectByPath(ctx, repoPath)
}

// GetProjectByPath returns the Project registered for repoPath.
func (s *Store) GetProjectByPath(ctx context.Context, repoPath string) (*types.Project, error) {
	p := &types.Project{}
	err := s.db.QueryRowContext(ctx,
		`SELECT id, name, repo_path FROM projects WHERE repo_path = ?`, repoPath,
	).Scan(&p.ID, &p.Name, &p.RepoPath)
	if err != nil {
		return nil, err
	}
	return p, nil
}

// GetProject returns the Project with the given id.
func (s *Store) GetProject(ctx context.Context, id string) (*types.Project, error) {
	p := &types.Project{}
	err := s.db.QueryRowContext(ctx,
		`SELECT id, name, repo_path FROM projects WHERE id = ?`, id,
	).Scan(&p.ID, &p.Name, &p.RepoPath)
	if err != nil {
		return nil, err
	}
	return p, nil
}
