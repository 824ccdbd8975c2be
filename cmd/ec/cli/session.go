package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/entirecontext/ec/internal/ecerr"
	"github.com/entirecontext/ec/internal/model"
	"github.com/entirecontext/ec/internal/registry"
	"github.com/entirecontext/ec/internal/types"
)

var (
	sessionGlobal bool
	sessionRepo   string
	sessionLimit  int
)

var sessionCmd = &cobra.Command{
	Use:     "session",
	GroupID: "views",
	Short:   "Inspect sessions",
}

var sessionListCmd = &cobra.Command{
	Use:   "list",
	Short: "List sessions for this repo, or --global for every registered repo",
	RunE: func(cmd *cobra.Command, args []string) error {
		if sessionGlobal {
			entries, err := registeredRepos(sessionRepo)
			if err != nil {
				return err
			}
			sessions := registry.CrossRepoSessions(rootCtx, entries, sessionLimit)
			if jsonOutput {
				outputJSON(sessions)
				return nil
			}
			for _, rs := range sessions {
				fmt.Printf("%s  %-20s %s (%d turns)\n", rs.Session.ID, rs.RepoName, rs.Session.StartedAt, rs.Session.TotalTurns)
			}
			return nil
		}

		repoRoot := requireRepoRoot()
		store := requireStore(repoRoot)
		defer store.Close()

		project, err := store.GetProjectByPath(rootCtx, repoRoot)
		if err != nil {
			return fmt.Errorf("look up project: %w", err)
		}
		sessions, err := store.ListSessions(rootCtx, project.ID)
		if err != nil {
			return err
		}
		if jsonOutput {
			outputJSON(sessions)
			return nil
		}
		for _, s := range sessions {
			fmt.Printf("%s  %s (%d turns)\n", s.ID, s.StartedAt, s.TotalTurns)
		}
		return nil
	},
}

var sessionCurrentCmd = &cobra.Command{
	Use:   "current",
	Short: "Show the active session for this repo",
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
			return err
		}
		if session == nil {
			if jsonOutput {
				outputJSON(nil)
				return nil
			}
			fmt.Println("No active session.")
			return nil
		}
		if jsonOutput {
			outputJSON(session)
			return nil
		}
		fmt.Printf("%s  started %s  %d turns\n", session.ID, session.StartedAt, session.TotalTurns)
		return nil
	},
}

var sessionShowCmd = &cobra.Command{
	Use:   "show <session-id>",
	Short: "Show a session's turns",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if sessionGlobal {
			entries, err := registeredRepos(sessionRepo)
			if err != nil {
				return err
			}
			rs, turns, err := registry.CrossRepoSessionDetail(rootCtx, entries, args[0])
			if err != nil {
				return err
			}
			if jsonOutput {
				outputJSON(map[string]any{"session": rs.Session, "repo_name": rs.RepoName, "turns": turns})
				return nil
			}
			fmt.Printf("%s (%s)\n", rs.Session.ID, rs.RepoName)
			for _, t := range turns {
				fmt.Printf("  %s  %s\n", t.ID, t.UserMessage)
			}
			return nil
		}

		repoRoot := requireRepoRoot()
		store := requireStore(repoRoot)
		defer store.Close()

		session, err := store.GetSession(rootCtx, args[0])
		if err != nil {
			return ecerr.New(ecerr.NotFound, "session %s not found", args[0])
		}
		turns, err := store.ListTurns(rootCtx, args[0])
		if err != nil {
			return err
		}
		if jsonOutput {
			outputJSON(map[string]any{"session": session, "turns": turns})
			return nil
		}
		fmt.Printf("%s\n", session.ID)
		for _, t := range turns {
			fmt.Printf("  %s  %s\n", t.ID, t.UserMessage)
		}
		return nil
	},
}

// registeredRepos resolves the global registry, optionally filtered to
// a single repo name for --global -r usage.
func registeredRepos(name string) ([]types.RepoIndexEntry, error) {
	reg, err := registry.Open()
	if err != nil {
		return nil, fmt.Errorf("open global registry: %w", err)
	}
	var names []string
	if name != "" {
		names = []string{name}
	}
	return reg.List(names)
}

func init() {
	sessionCmd.PersistentFlags().BoolVar(&sessionGlobal, "global", false, "Operate across every registered repo")
	sessionCmd.PersistentFlags().StringVarP(&sessionRepo, "repo", "r", "", "Restrict --global to one repo name")
	sessionListCmd.Flags().IntVar(&sessionLimit, "limit", 50, "Maximum sessions to list")
	sessionCmd.AddCommand(sessionListCmd, sessionCurrentCmd, sessionShowCmd)
	rootCmd.AddCommand(sessionCmd)
}
