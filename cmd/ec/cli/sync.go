package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/entirecontext/ec/internal/syncbranch"
)

var (
	syncRemote  string
	syncNoRedact bool
)

var syncCmd = &cobra.Command{
	Use:     "sync",
	GroupID: "sync",
	Short:   "Export, merge and push this repo's context to the shadow branch",
	RunE:    runSync,
}

var pullCmd = &cobra.Command{
	Use:     "pull",
	GroupID: "sync",
	Short:   "Alias for sync: pull and merge the remote shadow branch",
	RunE:    runSync,
}

func runSync(cmd *cobra.Command, args []string) error {
	repoRoot := requireRepoRoot()
	store := requireStore(repoRoot)
	defer store.Close()

	result, err := syncbranch.Pull(rootCtx, store, repoRoot, syncbranch.Options{
		Remote: syncRemote,
		Redact: !syncNoRedact,
	})
	if err != nil {
		return err
	}

	if jsonOutput {
		outputJSON(result)
		return nil
	}
	fmt.Printf("Synced to %s\n", result.Branch)
	if result.ForcePushed {
		fmt.Println("Warning: remote shadow branch history was rewritten since the last sync.")
	}
	fmt.Printf("Sessions: %d, Checkpoints: %d\n", len(result.MergedSummary.Sessions), len(result.MergedSummary.Checkpoints))
	return nil
}

func init() {
	for _, c := range []*cobra.Command{syncCmd, pullCmd} {
		c.Flags().StringVar(&syncRemote, "remote", "origin", "Git remote to sync with")
		c.Flags().BoolVar(&syncNoRedact, "no-redact", false, "Export unredacted transcripts (default: redact secrets)")
	}
	rootCmd.AddCommand(syncCmd)
	rootCmd.AddCommand(pullCmd)
}
