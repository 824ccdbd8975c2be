package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/entirecontext/ec/internal/ui"
)

// hookSignature marks a post-commit hook as ours, the way the teacher's
// pre-commit/post-merge hooks carry a "bd (beads) ... hook" comment
// (init_git_hooks.go) that hooksInstalled greps for.
const hookSignature = "ec (entirecontext) post-commit hook"

// agentHookTypes are the host-side hook events captured by invoking
// `ec hook handle`, installed into the agent host's settings file
// rather than a git hook (spec.md §4.5: SessionStart, UserPromptSubmit,
// PostToolUse, Stop, SessionEnd all arrive from the agent host, not git).
var agentHookTypes = []string{"SessionStart", "UserPromptSubmit", "PostToolUse", "Stop", "SessionEnd"}

// gitDir resolves <repoRoot>/.git, tolerating a worktree or submodule
// whose .git is a file pointing elsewhere (git itself always reports
// the right place via rev-parse --git-dir).
func gitDir(repoRoot string) (string, error) {
	cmd := exec.Command("git", "-C", repoRoot, "rev-parse", "--git-dir")
	out, err := cmd.Output()
	if err != nil {
		return "", err
	}
	dir := strings.TrimSpace(string(out))
	if !filepath.IsAbs(dir) {
		dir = filepath.Join(repoRoot, dir)
	}
	return dir, nil
}

func postCommitHookPath(repoRoot string) (string, error) {
	dir, err := gitDir(repoRoot)
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "hooks", "post-commit"), nil
}

func postCommitHookBody() string {
	return `#!/bin/sh
#
# ` + hookSignature + `
#
# Records a checkpoint for the active session after each commit.
# Failures here must never block a commit: ec itself treats every
# hook error as a logged no-op, so this script never exits non-zero.

ec hook handle --type PostCommit >/dev/null 2>&1 || true
`
}

func settingsPath(repoRoot string) string {
	return filepath.Join(repoRoot, ".claude", "settings.json")
}

// hookEntry is one entry in a Claude Code style settings.json "hooks"
// block: { "<EventName>": [ { "hooks": [ { "type": "command", "command": "..." } ] } ] }.
type hookCommand struct {
	Type    string `json:"type"`
	Command string `json:"command"`
}
type hookEntry struct {
	Hooks []hookCommand `json:"hooks"`
}

func installAgentHooks(repoRoot string) error {
	path := settingsPath(repoRoot)
	settings := map[string]any{}
	if raw, err := os.ReadFile(path); err == nil {
		if err := json.Unmarshal(raw, &settings); err != nil {
			return fmt.Errorf("parse %s: %w", path, err)
		}
	}

	hooks, _ := settings["hooks"].(map[string]any)
	if hooks == nil {
		hooks = map[string]any{}
	}
	for _, hookType := range agentHookTypes {
		hooks[hookType] = []hookEntry{{Hooks: []hookCommand{{
			Type:    "command",
			Command: fmt.Sprintf("ec hook handle --type %s", hookType),
		}}}}
	}
	settings["hooks"] = hooks

	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return err
	}
	out, err := json.MarshalIndent(settings, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, out, 0o640)
}

func removeAgentHooks(repoRoot string) error {
	path := settingsPath(repoRoot)
	raw, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return err
	}
	settings := map[string]any{}
	if err := json.Unmarshal(raw, &settings); err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}
	delete(settings, "hooks")
	out, err := json.MarshalIndent(settings, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, out, 0o640)
}

// hooksInstalled reports whether both the post-commit git hook and the
// agent-host settings hooks are present and recognizably ours.
func hooksInstalled(repoRoot string) bool {
	hookPath, err := postCommitHookPath(repoRoot)
	if err != nil {
		return false
	}
	content, err := os.ReadFile(hookPath)
	if err != nil || !strings.Contains(string(content), hookSignature) {
		return false
	}
	info, err := os.Stat(hookPath)
	if err != nil || info.Mode().Perm()&0o111 == 0 {
		return false
	}

	raw, err := os.ReadFile(settingsPath(repoRoot))
	if err != nil {
		return false
	}
	return strings.Contains(string(raw), "ec hook handle")
}

func renderStatus(label string, ok bool) string {
	if ok {
		return fmt.Sprintf("%s %s", ui.RenderPass("✓"), label)
	}
	return fmt.Sprintf("%s %s", ui.RenderFail("✗"), label)
}
