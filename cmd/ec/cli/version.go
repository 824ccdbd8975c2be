package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// Version, Build and Commit are set via -ldflags at release build time;
// they default to "dev" for a local `go build`.
var (
	Version = "dev"
	Build   = "unknown"
	Commit  = "unknown"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the ec version",
	RunE: func(cmd *cobra.Command, args []string) error {
		if jsonOutput {
			outputJSON(map[string]string{
				"version": Version,
				"build":   Build,
				"commit":  Commit,
			})
			return nil
		}
		fmt.Printf("ec version %s (build %s, commit %s)\n", Version, Build, Commit)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
