package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/entirecontext/ec/internal/registry"
	"github.com/entirecontext/ec/internal/search"
	"github.com/entirecontext/ec/internal/types"
)

var (
	searchMode   string
	searchTarget string
	searchLimit  int
	searchGlobal bool
	searchRepo   string
)

var searchCmd = &cobra.Command{
	Use:     "search <query>",
	GroupID: "views",
	Short:   "Search captured turns, sessions, events, or content",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		opts := search.Options{
			Query:  args[0],
			Mode:   types.SearchMode(searchMode),
			Target: types.SearchTarget(searchTarget),
			Limit:  searchLimit,
		}

		var results []types.SearchResult
		if searchGlobal {
			entries, err := registeredRepos(searchRepo)
			if err != nil {
				return err
			}
			results = registry.CrossRepoSearch(rootCtx, entries, opts)
		} else {
			repoRoot := requireRepoRoot()
			store := requireStore(repoRoot)
			defer store.Close()
			r, err := search.Search(rootCtx, store, opts)
			if err != nil {
				return err
			}
			results = r
		}

		if jsonOutput {
			outputJSON(results)
			return nil
		}
		if len(results) == 0 {
			fmt.Println("No matches.")
			return nil
		}
		for _, r := range results {
			prefix := ""
			if r.RepoName != "" {
				prefix = r.RepoName + ": "
			}
			fmt.Printf("%s[%s] %s %s\n", prefix, r.Target, r.ID, r.Snippet)
		}
		return nil
	},
}

func init() {
	searchCmd.Flags().StringVar(&searchMode, "mode", string(types.ModeRegex), "Search mode: regex, fts, semantic")
	searchCmd.Flags().StringVar(&searchTarget, "target", string(types.TargetTurn), "Search target: turn, session, event, content")
	searchCmd.Flags().IntVar(&searchLimit, "limit", 20, "Maximum results")
	searchCmd.Flags().BoolVar(&searchGlobal, "global", false, "Search across every registered repo")
	searchCmd.Flags().StringVarP(&searchRepo, "repo", "r", "", "Restrict --global to one repo name")
	rootCmd.AddCommand(searchCmd)
}
