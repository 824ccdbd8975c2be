package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/entirecontext/ec/internal/purge"
)

var purgeExecute bool

var purgeCmd = &cobra.Command{
	Use:     "purge",
	GroupID: "sync",
	Short:   "Delete captured data by turn, session, or search pattern",
}

var purgeTurnCmd = &cobra.Command{
	Use:   "turn <turn-id> [turn-id...]",
	Short: "Delete specific turns and their blobs",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		repoRoot := requireRepoRoot()
		store := requireStore(repoRoot)
		defer store.Close()

		result, err := purge.Turns(rootCtx, store, args, !purgeExecute)
		if err != nil {
			return err
		}
		reportPurge(result)
		return nil
	},
}

var purgeSessionCmd = &cobra.Command{
	Use:   "session <session-id>",
	Short: "Delete an entire session and its turns and blobs",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		repoRoot := requireRepoRoot()
		store := requireStore(repoRoot)
		defer store.Close()

		result, err := purge.Session(rootCtx, store, args[0], !purgeExecute)
		if err != nil {
			return err
		}
		reportPurge(result)
		return nil
	},
}

var purgeMatchCmd = &cobra.Command{
	Use:   "match <pattern>",
	Short: "Delete every turn whose content matches a regex pattern",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		repoRoot := requireRepoRoot()
		store := requireStore(repoRoot)
		defer store.Close()

		result, err := purge.ByPattern(rootCtx, store, args[0], !purgeExecute)
		if err != nil {
			return err
		}
		reportPurge(result)
		return nil
	},
}

func reportPurge(result purge.Result) {
	if jsonOutput {
		outputJSON(result)
		return
	}
	if result.DryRun {
		fmt.Printf("Dry run: %d turn(s) would be deleted. Re-run with --execute to apply.\n", result.MatchedTurns)
		return
	}
	fmt.Printf("Deleted %d turn(s).\n", result.Deleted)
}

func init() {
	purgeCmd.PersistentFlags().BoolVar(&purgeExecute, "execute", false, "Actually delete (default: dry run)")
	purgeCmd.AddCommand(purgeTurnCmd, purgeSessionCmd, purgeMatchCmd)
	rootCmd.AddCommand(purgeCmd)
}
