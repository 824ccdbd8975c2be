package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var indexCmd = &cobra.Command{
	Use:     "index",
	GroupID: "sync",
	Short:   "Rebuild the full-text search index from the turns/sessions tables",
	RunE: func(cmd *cobra.Command, args []string) error {
		repoRoot := requireRepoRoot()
		store := requireStore(repoRoot)
		defer store.Close()

		db := store.UnderlyingDB()
		if _, err := db.ExecContext(rootCtx, `INSERT INTO fts_turns(fts_turns) VALUES ('rebuild')`); err != nil {
			return fmt.Errorf("rebuild fts_turns: %w", err)
		}
		if _, err := db.ExecContext(rootCtx, `INSERT INTO fts_sessions(fts_sessions) VALUES ('rebuild')`); err != nil {
			return fmt.Errorf("rebuild fts_sessions: %w", err)
		}

		if jsonOutput {
			outputJSON(map[string]string{"status": "rebuilt"})
			return nil
		}
		fmt.Println("FTS index rebuilt.")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(indexCmd)
}
