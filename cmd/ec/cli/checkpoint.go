package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/entirecontext/ec/internal/attribution"
	"github.com/entirecontext/ec/internal/gitprobe"
	"github.com/entirecontext/ec/internal/model"
)

var checkpointCmd = &cobra.Command{
	Use:     "checkpoint",
	GroupID: "views",
	Short:   "Inspect or create checkpoints",
}

var checkpointListCmd = &cobra.Command{
	Use:   "list",
	Short: "List checkpoints for the current session",
	RunE: func(cmd *cobra.Command, args []string) error {
		repoRoot := requireRepoRoot()
		store := requireStore(repoRoot)
		defer store.Close()

		project, err := store.GetProjectByPath(rootCtx, repoRoot)
		if err != nil {
			return fmt.Errorf("look up project: %w", err)
		}
		session, err := model.New(store).CurrentSession(rootCtx, project.ID)
		if err != nil {
			return fmt.Errorf("look up current session: %w", err)
		}
		if session == nil {
			if jsonOutput {
				outputJSON([]any{})
				return nil
			}
			fmt.Println("No active session.")
			return nil
		}

		checkpoints, err := store.ListCheckpoints(rootCtx, session.ID)
		if err != nil {
			return err
		}
		if jsonOutput {
			outputJSON(checkpoints)
			return nil
		}
		for _, cp := range checkpoints {
			fmt.Printf("%s  %s  %s\n", cp.ID, cp.CommitHash, cp.CreatedAt)
		}
		return nil
	},
}

var checkpointCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a checkpoint for the current session now",
	RunE: func(cmd *cobra.Command, args []string) error {
		repoRoot := requireRepoRoot()
		store := requireStore(repoRoot)
		defer store.Close()

		project, err := store.GetProjectByPath(rootCtx, repoRoot)
		if err != nil {
			return fmt.Errorf("look up project: %w", err)
		}
		session, err := model.New(store).CurrentSession(rootCtx, project.ID)
		if err != nil {
			return fmt.Errorf("look up current session: %w", err)
		}
		if session == nil {
			fmt.Println("No active session; nothing to checkpoint.")
			return nil
		}

		cp, created, err := attribution.CreateCheckpoint(rootCtx, store, gitprobe.New(repoRoot), session.ID, "manual")
		if err != nil {
			return err
		}

		if jsonOutput {
			outputJSON(map[string]any{"checkpoint": cp, "created": created})
			return nil
		}
		if created {
			fmt.Printf("Created checkpoint %s at %s\n", cp.ID, cp.CommitHash)
		} else if cp == nil {
			fmt.Println("No git commit available; nothing to checkpoint.")
		} else {
			fmt.Printf("Checkpoint %s already covers the current commit\n", cp.ID)
		}
		return nil
	},
}

func init() {
	checkpointCmd.AddCommand(checkpointListCmd, checkpointCreateCmd)
	rootCmd.AddCommand(checkpointCmd)
}
