package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
)

var disableCmd = &cobra.Command{
	Use:     "disable",
	GroupID: "setup",
	Short:   "Remove hook entries from the host's settings file",
	RunE: func(cmd *cobra.Command, args []string) error {
		repoRoot := requireRepoRoot()

		hookPath, err := postCommitHookPath(repoRoot)
		if err == nil {
			if content, readErr := os.ReadFile(hookPath); readErr == nil && strings.Contains(string(content), hookSignature) {
				_ = os.Remove(hookPath)
			}
		}

		if err := removeAgentHooks(repoRoot); err != nil {
			return fmt.Errorf("remove agent-host hooks: %w", err)
		}

		if jsonOutput {
			outputJSON(map[string]string{"status": "disabled"})
			return nil
		}
		fmt.Println("Removed post-commit git hook and agent-host hook entries.")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(disableCmd)
}
