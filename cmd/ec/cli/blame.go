package cli

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/entirecontext/ec/internal/attribution"
)

var (
	blameStart int
	blameEnd   int
)

var blameCmd = &cobra.Command{
	Use:     "blame <file>",
	GroupID: "views",
	Short:   "Show which agent or human authored each line of a file",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		repoRoot := requireRepoRoot()
		store := requireStore(repoRoot)
		defer store.Close()

		start, end := blameStart, blameEnd
		if start == 0 && end == 0 {
			data, err := os.ReadFile(filepath.Join(repoRoot, args[0]))
			if err != nil {
				return fmt.Errorf("read %s: %w", args[0], err)
			}
			start, end = 1, bytes.Count(data, []byte("\n"))
			if len(data) > 0 && data[len(data)-1] != '\n' {
				end++
			}
		}

		attrs, summary, err := attribution.Blame(rootCtx, store, args[0], start, end)
		if err != nil {
			return err
		}

		if jsonOutput {
			outputJSON(map[string]any{
				"attributions": attrs,
				"summary":      summary,
			})
			return nil
		}
		for _, a := range attrs {
			who := string(a.Kind)
			if a.AgentID != "" {
				who = a.AgentID
			}
			fmt.Printf("%d-%d  %-12s %s\n", a.StartLine, a.EndLine, who, a.CheckpointID)
		}
		fmt.Printf("\n%d lines: %.1f%% human, %.1f%% agent\n", summary.TotalLines, summary.HumanPct, summary.AgentPct)
		for agent, lines := range summary.Agents {
			fmt.Printf("  %s: %d lines\n", agent, lines)
		}
		return nil
	},
}

func init() {
	blameCmd.Flags().IntVar(&blameStart, "start", 0, "First line of the query range (--start and --end both 0 = whole file)")
	blameCmd.Flags().IntVar(&blameEnd, "end", 0, "Last line of the query range (--start and --end both 0 = whole file)")
	rootCmd.AddCommand(blameCmd)
}
