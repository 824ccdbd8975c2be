package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/entirecontext/ec/internal/capture"
	"github.com/entirecontext/ec/internal/ecerr"
	"github.com/entirecontext/ec/internal/logging"
	"github.com/entirecontext/ec/internal/model"
	"github.com/entirecontext/ec/internal/paths"
)

var hookType string

// hookPayload mirrors the stdin JSON shape described in spec.md §6:
// hook_type plus whichever of the event fields that hook type carries.
type hookPayload struct {
	HookType       string         `json:"hook_type"`
	SessionID      string         `json:"session_id"`
	Cwd            string         `json:"cwd"`
	Source         string         `json:"source"`
	Prompt         string         `json:"prompt"`
	ToolName       string         `json:"tool_name"`
	ToolInput      map[string]any `json:"tool_input"`
	TranscriptPath string         `json:"transcript_path"`
}

var hookCmd = &cobra.Command{
	Use:     "hook",
	GroupID: "hooks",
	Short:   "Entry points invoked by the agent host's hook mechanism",
}

// hookHandleCmd never returns a non-zero exit for a recognized, well
// formed payload (spec.md §4.5/§9 Open Question) — only a malformed
// invocation (unreadable stdin, missing hook_type) is a user error.
var hookHandleCmd = &cobra.Command{
	Use:   "handle",
	Short: "Dispatch one hook event read as JSON from stdin",
	RunE: func(cmd *cobra.Command, args []string) error {
		raw, err := io.ReadAll(os.Stdin)
		if err != nil {
			return ecerr.New(ecerr.HookMalformedPayload, "read stdin: %v", err)
		}

		var payload hookPayload
		if len(raw) > 0 {
			if err := json.Unmarshal(raw, &payload); err != nil {
				return ecerr.New(ecerr.HookMalformedPayload, "parse hook payload: %v", err)
			}
		}
		if hookType != "" {
			payload.HookType = hookType
		}
		if payload.HookType == "" {
			return ecerr.New(ecerr.HookMalformedPayload, "missing hook_type")
		}

		cwd := payload.Cwd
		if cwd == "" {
			cwd, err = os.Getwd()
			if err != nil {
				return ecerr.New(ecerr.HookMalformedPayload, "resolve cwd: %v", err)
			}
		}
		repoRoot, err := paths.RepoRoot(cwd)
		if err != nil {
			// Not inside a git repo is not an error for a hook process:
			// nothing to capture, exit 0 silently.
			return nil
		}
		dbPath := paths.DBPath(repoRoot)
		if _, err := os.Stat(dbPath); err != nil {
			// ec init was never run here; a hook has nothing to write to.
			return nil
		}

		store := requireStore(repoRoot)
		defer store.Close()

		logger := logging.New(paths.RepoDir(repoRoot), "info")
		defer logger.Close()

		handler := capture.NewHandler(repoRoot, model.New(store), logger)
		handler.Dispatch(rootCtx, capture.Event{
			HookType:       payload.HookType,
			SessionID:      payload.SessionID,
			Cwd:            cwd,
			Source:         payload.Source,
			Prompt:         payload.Prompt,
			ToolName:       payload.ToolName,
			ToolInput:      payload.ToolInput,
			TranscriptPath: payload.TranscriptPath,
		})
		return nil
	},
}

var hookCodexNotifyCmd = &cobra.Command{
	Use:   "codex-notify [payload]",
	Short: "Ingest a Codex CLI rollout file referenced by a notify payload",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var raw []byte
		var err error
		if len(args) == 1 {
			raw = []byte(args[0])
		} else {
			raw, err = io.ReadAll(os.Stdin)
			if err != nil {
				return ecerr.New(ecerr.HookMalformedPayload, "read payload: %v", err)
			}
		}

		var notify struct {
			SessionIDSubstring string `json:"session-id"`
		}
		if len(raw) > 0 {
			_ = json.Unmarshal(raw, &notify)
		}

		cwd, err := os.Getwd()
		if err != nil {
			return nil
		}
		repoRoot, err := paths.RepoRoot(cwd)
		if err != nil {
			return nil
		}
		dbPath := paths.DBPath(repoRoot)
		if _, err := os.Stat(dbPath); err != nil {
			return nil
		}

		store := requireStore(repoRoot)
		defer store.Close()

		codexHome := os.Getenv("CODEX_HOME")
		if codexHome == "" {
			home, err := os.UserHomeDir()
			if err != nil {
				return nil
			}
			codexHome = home + "/.codex"
		}
		rolloutPath, ok := model.FindRolloutFile(codexHome, notify.SessionIDSubstring)
		if !ok {
			return nil
		}

		project, err := store.GetProjectByPath(rootCtx, repoRoot)
		if err != nil {
			return nil
		}
		session, turnCount, err := model.New(store).IngestCodexRollout(rootCtx, project.ID, rolloutPath)
		if err != nil {
			return nil
		}

		if jsonOutput {
			outputJSON(map[string]any{"session_id": session.ID, "turns_ingested": turnCount})
			return nil
		}
		fmt.Printf("Ingested %d turn(s) into session %s\n", turnCount, session.ID)
		return nil
	},
}

func init() {
	hookHandleCmd.Flags().StringVar(&hookType, "type", "", "Hook type, if not carried in the JSON payload's hook_type field")
	hookCmd.AddCommand(hookHandleCmd, hookCodexNotifyCmd)
	rootCmd.AddCommand(hookCmd)
}
