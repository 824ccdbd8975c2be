package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/entirecontext/ec/internal/attribution"
	"github.com/entirecontext/ec/internal/ecerr"
	"github.com/entirecontext/ec/internal/gitprobe"
)

var rewindRestore bool

var rewindCmd = &cobra.Command{
	Use:     "rewind <checkpoint-id-or-prefix>",
	GroupID: "views",
	Short:   "Resolve a checkpoint and, optionally, restore the tree to it",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		repoRoot := requireRepoRoot()
		store := requireStore(repoRoot)
		defer store.Close()

		cp, err := attribution.ResolveCheckpoint(rootCtx, store, args[0])
		if err != nil {
			return err
		}

		if rewindRestore {
			git := gitprobe.New(repoRoot)
			dirty, ok := git.IsDirty(rootCtx)
			if ok && dirty {
				return ecerr.New(ecerr.DirtyWorkingTree,
					"working tree has uncommitted changes; commit or stash before --restore")
			}
		}

		if jsonOutput {
			outputJSON(cp)
			return nil
		}
		fmt.Printf("Checkpoint %s\n", cp.ID)
		fmt.Printf("  session:  %s\n", cp.SessionID)
		fmt.Printf("  commit:   %s\n", cp.CommitHash)
		fmt.Printf("  branch:   %s\n", cp.Branch)
		fmt.Printf("  created:  %s\n", cp.CreatedAt)
		if cp.DiffSummary != "" {
			fmt.Printf("  diff:     %s\n", cp.DiffSummary)
		}
		if rewindRestore {
			fmt.Printf("\nRun `git checkout %s` to restore this commit.\n", cp.CommitHash)
		}
		return nil
	},
}

func init() {
	rewindCmd.Flags().BoolVar(&rewindRestore, "restore", false, "Refuse if the working tree is dirty, then point at the commit to check out")
	rootCmd.AddCommand(rewindCmd)
}
