// Package logging carries structured diagnostic context (session, repo,
// component) through a context.Context and wires slog to a rotating file
// so that hook processes, which must never write unexpected bytes to
// stdout/stderr, still leave an observable trail of caught errors.
package logging

import "context"

type contextKey int

const (
	sessionIDKey contextKey = iota
	repoPathKey
	componentKey
)

// WithSession attaches a session ID to the context.
func WithSession(ctx context.Context, sessionID string) context.Context {
	return context.WithValue(ctx, sessionIDKey, sessionID)
}

// WithRepo attaches a repo path to the context.
func WithRepo(ctx context.Context, repoPath string) context.Context {
	return context.WithValue(ctx, repoPathKey, repoPath)
}

// WithComponent attaches a component name (e.g. "capture", "search") to
// the context, identifying which subsystem emitted a log line.
func WithComponent(ctx context.Context, component string) context.Context {
	return context.WithValue(ctx, componentKey, component)
}

// SessionIDFromContext extracts the session ID, or "" if unset.
func SessionIDFromContext(ctx context.Context) string {
	s, _ := ctx.Value(sessionIDKey).(string)
	return s
}

// RepoPathFromContext extracts the repo path, or "" if unset.
func RepoPathFromContext(ctx context.Context) string {
	s, _ := ctx.Value(repoPathKey).(string)
	return s
}

// ComponentFromContext extracts the component name, or "" if unset.
func ComponentFromContext(ctx context.Context) string {
	s, _ := ctx.Value(componentKey).(string)
	return s
}
