package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/entirecontext/ec/internal/registry"
)

var repoCmd = &cobra.Command{
	Use:     "repo",
	GroupID: "views",
	Short:   "Inspect the global cross-repo registry",
}

var repoListCmd = &cobra.Command{
	Use:   "list",
	Short: "List every repo registered with EntireContext",
	RunE: func(cmd *cobra.Command, args []string) error {
		reg, err := registry.Open()
		if err != nil {
			return fmt.Errorf("open global registry: %w", err)
		}
		entries, err := reg.List(nil)
		if err != nil {
			return err
		}
		if jsonOutput {
			outputJSON(entries)
			return nil
		}
		if len(entries) == 0 {
			fmt.Println("No repos registered.")
			return nil
		}
		for _, e := range entries {
			fmt.Printf("%-20s %s\n", e.RepoName, e.RepoPath)
		}
		return nil
	},
}

func init() {
	repoCmd.AddCommand(repoListCmd)
	rootCmd.AddCommand(repoCmd)
}
