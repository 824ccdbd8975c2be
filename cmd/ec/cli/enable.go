package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
)

var enableCmd = &cobra.Command{
	Use:     "enable",
	GroupID: "setup",
	Short:   "Install hook entries in the host's settings file",
	RunE: func(cmd *cobra.Command, args []string) error {
		repoRoot := requireRepoRoot()

		hookPath, err := postCommitHookPath(repoRoot)
		if err != nil {
			return fmt.Errorf("resolve git hooks directory: %w", err)
		}
		if err := os.MkdirAll(filepath.Dir(hookPath), 0o750); err != nil {
			return err
		}
		if err := os.WriteFile(hookPath, []byte(postCommitHookBody()), 0o700); err != nil {
			return fmt.Errorf("write post-commit hook: %w", err)
		}

		if err := installAgentHooks(repoRoot); err != nil {
			return fmt.Errorf("install agent-host hooks: %w", err)
		}

		if jsonOutput {
			outputJSON(map[string]any{"post_commit_hook": hookPath, "settings_file": settingsPath(repoRoot)})
			return nil
		}
		fmt.Println("Installed post-commit git hook and agent-host hook entries.")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(enableCmd)
}
