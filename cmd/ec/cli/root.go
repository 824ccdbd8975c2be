// Package cli implements the `ec` command-line surface (spec.md §6):
// one *cobra.Command per subcommand, wired into rootCmd and grouped the
// way the teacher's cmd/bd groups its own command tree (GroupID:
// "setup", "views", "sync"), built directly on the C1-C10 packages
// rather than an RPC/daemon layer, since EntireContext has no
// long-lived daemon process (spec.md §5: "no long-lived background
// scheduler").
package cli

import (
	"context"
	"os"

	"github.com/spf13/cobra"

	"github.com/entirecontext/ec/internal/config"
	"github.com/entirecontext/ec/internal/paths"
)

// rootCtx is shared by every command; no command outlives the process,
// so there is no cancellation source beyond the background context.
var rootCtx = context.Background()

// jsonOutput is set by the persistent --json flag, read by outputJSON
// and by commands that also print a human-readable summary.
var jsonOutput bool

var rootCmd = &cobra.Command{
	Use:           "ec",
	Short:         "EntireContext: capture and retrieve AI coding session context",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if cmd.Name() == "version" {
			return nil
		}
		if err := config.Initialize(); err != nil {
			return err
		}
		if cwd, err := os.Getwd(); err == nil {
			if repoRoot, err := paths.RepoRoot(cwd); err == nil {
				_ = config.ApplyTOMLFile(paths.ConfigPath(repoRoot))
			}
		}
		return nil
	},
}

func init() {
	rootCmd.AddGroup(
		&cobra.Group{ID: "setup", Title: "Setup commands:"},
		&cobra.Group{ID: "views", Title: "Inspection commands:"},
		&cobra.Group{ID: "sync", Title: "Sync & maintenance commands:"},
		&cobra.Group{ID: "hooks", Title: "Hook entry points:"},
	)
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "Output machine-readable JSON")
}

// Execute runs the root command; main() is the only caller.
func Execute() error {
	return rootCmd.Execute()
}
