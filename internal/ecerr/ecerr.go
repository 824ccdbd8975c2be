// Package ecerr defines the domain error taxonomy shared by every
// component, so commands can map a returned error to a one-line message
// and an exit code, and cross-repo/hook callers can type-switch on it
// without string matching.
package ecerr

import "fmt"

// Kind enumerates the domain error taxonomy.
type Kind string

const (
	NotInitialized          Kind = "not_initialized"
	NotInGitRepo             Kind = "not_in_git_repo"
	ActiveSessionError       Kind = "active_session"
	CheckpointNotFound       Kind = "checkpoint_not_found"
	InvalidVerdict           Kind = "invalid_verdict"
	InvalidFeedback          Kind = "invalid_feedback"
	MissingEmbeddingBackend  Kind = "missing_embedding_backend"
	ExternalToolUnavailable  Kind = "external_tool_unavailable"
	StorageCorrupt           Kind = "storage_corrupt"
	HookMalformedPayload     Kind = "hook_malformed_payload"
	AmbiguousPrefix          Kind = "ambiguous_prefix"
	NotFound                 Kind = "not_found"
	DirtyWorkingTree         Kind = "dirty_working_tree"
)

// Error is a typed domain error. Wrap with fmt.Errorf("...: %w", err) to
// add context while keeping Kind matchable via errors.As.
type Error struct {
	Kind    Kind
	Message string
}

func (e *Error) Error() string {
	if e.Message == "" {
		return string(e.Kind)
	}
	return e.Message
}

// New creates an Error of the given kind with a formatted message.
func New(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Is allows errors.Is(err, ecerr.New(kind, "")) to match on Kind alone.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

// ExitCode maps a Kind to the CLI exit code convention from spec.md §6:
// 0 success, 1 user error, 2 reserved for hook-dispatch soft failures.
func (k Kind) ExitCode() int {
	switch k {
	case HookMalformedPayload:
		return 2
	default:
		return 1
	}
}
