// Package capture implements C5: the six hook handlers that translate
// agent-host events into writes against C4's session/turn model, with
// C2's filtering applied on the way in and C3's git probes used for
// post-commit checkpoints. Every handler is defensive per spec.md
// §4.5/§9: caught errors are logged and swallowed so the calling hook
// process always exits 0 on a recognised event.
package capture

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"

	"github.com/entirecontext/ec/internal/attribution"
	"github.com/entirecontext/ec/internal/config"
	"github.com/entirecontext/ec/internal/filter"
	"github.com/entirecontext/ec/internal/gitprobe"
	"github.com/entirecontext/ec/internal/logging"
	"github.com/entirecontext/ec/internal/model"
	"github.com/entirecontext/ec/internal/paths"
	"github.com/entirecontext/ec/internal/types"
)

// Handler wires the C4 model, C2 filter and C3 prober for one repo's
// hook invocations.
type Handler struct {
	RepoRoot string
	Model    *model.Model
	Filter   *filter.Filter
	Git      *gitprobe.Prober
	Logger   *logging.Logger
}

// NewHandler builds a Handler rooted at repoRoot, loading filter rules
// from the active config layer.
func NewHandler(repoRoot string, m *model.Model, logger *logging.Logger) *Handler {
	f := filter.New(
		filter.Exclusions{
			Enabled:         config.GetBool("capture.exclusions.enabled"),
			ContentPatterns: config.GetStringSlice("capture.exclusions.content_patterns"),
			FilePatterns:    config.GetStringSlice("capture.exclusions.file_patterns"),
			ToolNames:       config.GetStringSlice("capture.exclusions.tool_names"),
			RedactPatterns:  config.GetStringSlice("capture.exclusions.redact_patterns"),
		},
		filter.QueryRedaction{
			Enabled:     config.GetBool("filtering.query_redaction.enabled"),
			Patterns:    config.GetStringSlice("filtering.query_redaction.patterns"),
			Replacement: config.GetString("filtering.query_redaction.replacement"),
		},
	)
	return &Handler{
		RepoRoot: repoRoot,
		Model:    m,
		Filter:   f,
		Git:      gitprobe.New(repoRoot),
		Logger:   logger,
	}
}

// Event is a normalized hook payload; fields not relevant to hookType
// are left zero. PostCommit carries no session_id in its own payload —
// the handler resolves the active session itself.
type Event struct {
	HookType       string
	SessionID      string
	Cwd            string
	Source         string
	Prompt         string
	ToolName       string
	ToolInput      map[string]any
	TranscriptPath string
}

// Dispatch routes a recognized hook event to its handler, catching any
// error and logging it rather than propagating — hook processes always
// exit 0 on a recognized event (spec.md §4.5, §9 Open Question).
// Unknown hook types are a silent no-op.
func (h *Handler) Dispatch(ctx context.Context, ev Event) {
	var err error
	switch ev.HookType {
	case "SessionStart":
		err = h.HandleSessionStart(ctx, ev.SessionID, ev.Source)
	case "UserPromptSubmit":
		err = h.HandleUserPromptSubmit(ctx, ev.SessionID, ev.Prompt)
	case "PostToolUse":
		err = h.HandlePostToolUse(ctx, ev.SessionID, ev.ToolName, ev.ToolInput)
	case "Stop":
		err = h.HandleStop(ctx, ev.SessionID, ev.TranscriptPath)
	case "SessionEnd":
		err = h.HandleSessionEnd(ctx, ev.SessionID)
	case "PostCommit":
		err = h.HandlePostCommit(ctx)
	default:
		return
	}
	if err != nil {
		h.Logger.WithContext(logging.WithSession(ctx, ev.SessionID)).Error(
			"capture handler failed", "hook_type", ev.HookType, "error", err)
	}
}

// suppressed reports whether capture.auto_capture is off globally, or
// the session carries capture_disabled = true in its metadata
// (spec.md §4.5: "suppresses all mutations except SessionEnd").
func (h *Handler) suppressed(ctx context.Context, sessionID string) bool {
	if !config.GetBool("capture.auto_capture") {
		return true
	}
	sess, err := h.Model.Store.GetSession(ctx, sessionID)
	if err != nil {
		return false
	}
	return sess.Metadata.Bool("capture_disabled")
}

// HandleSessionStart resolves/inits the project and creates a session
// in the active state; idempotent on a re-delivered session_id.
func (h *Handler) HandleSessionStart(ctx context.Context, sessionID, source string) error {
	if !config.GetBool("capture.auto_capture") {
		return nil
	}
	proj, err := h.Model.EnsureProject(ctx, h.RepoRoot, repoName(h.RepoRoot))
	if err != nil {
		return fmt.Errorf("ensure project: %w", err)
	}
	if source == "" {
		source = "manual"
	}
	if _, err := h.Model.StartSession(ctx, proj.ID, sessionID, source, nil); err != nil {
		return fmt.Errorf("start session: %w", err)
	}
	_ = h.Model.Store.RecordEvent(ctx, sessionID, "session_start", "session started")
	return nil
}

// HandleUserPromptSubmit applies the skip/redact predicates and opens
// (or re-opens) the in-progress turn carrying the redacted prompt.
func (h *Handler) HandleUserPromptSubmit(ctx context.Context, sessionID, prompt string) error {
	if h.suppressed(ctx, sessionID) {
		return nil
	}
	if h.Filter.ShouldSkipTurn(prompt) {
		return nil
	}
	redacted := h.Filter.RedactContent(prompt)
	if _, err := h.Model.OpenTurn(ctx, sessionID, redacted); err != nil {
		return fmt.Errorf("open turn: %w", err)
	}
	return nil
}

// HandlePostToolUse applies the tool/file skip predicates and appends
// unique entries to the active turn's tools_used/files_touched.
func (h *Handler) HandlePostToolUse(ctx context.Context, sessionID, toolName string, toolInput map[string]any) error {
	if h.suppressed(ctx, sessionID) {
		return nil
	}
	if h.Filter.ShouldSkipTool(toolName) {
		return nil
	}
	filePath := extractFilePath(toolInput)
	if filePath != "" && h.Filter.ShouldSkipFile(filePath) {
		filePath = ""
	}
	if err := h.Model.RecordToolUse(ctx, sessionID, toolName, filePath); err != nil {
		return fmt.Errorf("record tool use: %w", err)
	}
	return nil
}

// HandleStop parses the transcript, finalises the in-progress turn and
// persists its content blob. A no-op if no turn is in progress
// (repeated Stop on an already-completed turn).
func (h *Handler) HandleStop(ctx context.Context, sessionID, transcriptPath string) error {
	if h.suppressed(ctx, sessionID) {
		return nil
	}
	active, err := h.Model.Store.GetActiveTurn(ctx, sessionID)
	if err == sql.ErrNoRows {
		return nil
	}
	if err != nil {
		return fmt.Errorf("lookup active turn: %w", err)
	}

	data, err := os.ReadFile(transcriptPath)
	if err != nil {
		return fmt.Errorf("read transcript: %w", err)
	}
	_, assistantSummary := model.ParseTranscript(data)

	sum := sha256.Sum256(data)
	contentHash := hex.EncodeToString(sum[:])

	blobPath := paths.TurnBlobPath(h.RepoRoot, sessionID, active.ID)
	if err := writeBlob(blobPath, data); err != nil {
		return fmt.Errorf("write turn blob: %w", err)
	}

	if _, err := h.Model.FinalizeActiveTurn(ctx, sessionID, assistantSummary, contentHash); err != nil {
		return fmt.Errorf("finalize turn: %w", err)
	}
	if err := h.Model.Store.CreateTurnContent(ctx, &types.TurnContent{
		TurnID:      active.ID,
		ContentPath: blobPath,
		SizeBytes:   int64(len(data)),
		ContentHash: contentHash,
	}); err != nil {
		return fmt.Errorf("record turn content: %w", err)
	}
	return nil
}

// HandleSessionEnd sets ended_at; never suppressed, per spec.md §4.5.
func (h *Handler) HandleSessionEnd(ctx context.Context, sessionID string) error {
	if err := h.Model.EndSession(ctx, sessionID); err != nil {
		return fmt.Errorf("end session: %w", err)
	}
	_ = h.Model.Store.RecordEvent(ctx, sessionID, "session_end", "session ended")
	return nil
}

// HandlePostCommit creates a Checkpoint for the project's active
// session, skipping quietly if there is no active session, git is
// unavailable, or HEAD is unchanged from the most recent checkpoint.
func (h *Handler) HandlePostCommit(ctx context.Context) error {
	proj, err := h.Model.EnsureProject(ctx, h.RepoRoot, repoName(h.RepoRoot))
	if err != nil {
		return fmt.Errorf("ensure project: %w", err)
	}
	sess, err := h.Model.CurrentSession(ctx, proj.ID)
	if err != nil {
		return fmt.Errorf("lookup current session: %w", err)
	}
	if sess == nil {
		return nil
	}
	if h.suppressed(ctx, sess.ID) {
		return nil
	}

	cp, created, err := attribution.CreateCheckpoint(ctx, h.Model.Store, h.Git, sess.ID, "post_commit")
	if err != nil {
		return fmt.Errorf("create checkpoint: %w", err)
	}
	if created {
		_ = h.Model.Store.RecordEvent(ctx, sess.ID, "checkpoint", "checkpoint created at "+cp.CommitHash)
	}
	return nil
}

func extractFilePath(toolInput map[string]any) string {
	if toolInput == nil {
		return ""
	}
	if v, ok := toolInput["file_path"].(string); ok {
		return v
	}
	if v, ok := toolInput["path"].(string); ok {
		return v
	}
	return ""
}

func repoName(repoRoot string) string {
	return filepath.Base(repoRoot)
}

func writeBlob(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o640)
}
