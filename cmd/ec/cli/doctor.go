package cli

import (
	"fmt"
	"os/exec"

	"github.com/spf13/cobra"

	"github.com/entirecontext/ec/internal/syncbranch"
	"github.com/entirecontext/ec/internal/ui"
)

var doctorCmd = &cobra.Command{
	Use:     "doctor",
	GroupID: "setup",
	Short:   "Self-check of hook installation and sync health",
	RunE: func(cmd *cobra.Command, args []string) error {
		repoRoot := requireRepoRoot()

		hooksOK := hooksInstalled(repoRoot)

		store := requireStore(repoRoot)
		defer store.Close()

		branch, branchErr := syncbranch.Get(rootCtx, store)
		shadowFetchable := false
		if branchErr == nil {
			shadowFetchable = remoteRefFetchable(repoRoot, "origin", branch)
		}

		if jsonOutput {
			outputJSON(map[string]any{
				"hooks_installed":  hooksOK,
				"sync_branch":      branch,
				"shadow_fetchable": shadowFetchable,
			})
			return nil
		}

		fmt.Println(renderStatus("Hooks installed", hooksOK))
		if !hooksOK {
			fmt.Println(ui.RenderMuted("  run `ec enable` to install them"))
		}
		if branchErr != nil {
			fmt.Println(renderStatus("Sync branch resolvable", false))
		} else {
			fmt.Println(renderStatus(fmt.Sprintf("Shadow branch %q fetchable from origin", branch), shadowFetchable))
			if !shadowFetchable {
				fmt.Println(ui.RenderMuted("  no remote copy yet; run `ec sync` to publish one"))
			}
		}
		return nil
	},
}

// remoteRefFetchable checks whether refs/heads/<branch> exists on
// remote without fetching it, the supplemented doctor check: a stale
// or never-pushed shadow branch means a clone sees no shared context
// until someone runs `ec sync` from a machine that has it.
func remoteRefFetchable(repoRoot, remote, branch string) bool {
	cmd := exec.CommandContext(rootCtx, "git", "-C", repoRoot, "ls-remote", "--exit-code", remote, "refs/heads/"+branch)
	return cmd.Run() == nil
}

func init() {
	rootCmd.AddCommand(doctorCmd)
}
