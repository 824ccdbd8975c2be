package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/entirecontext/ec/internal/ecerr"
	"github.com/entirecontext/ec/internal/model"
	"github.com/entirecontext/ec/internal/paths"
	"github.com/entirecontext/ec/internal/registry"
	"github.com/entirecontext/ec/internal/storage/sqlite"
	"github.com/entirecontext/ec/internal/types"
)

var initCmd = &cobra.Command{
	Use:     "init",
	GroupID: "setup",
	Short:   "Create .entirecontext/, its database, and a global registry entry",
	RunE: func(cmd *cobra.Command, args []string) error {
		cwd, err := os.Getwd()
		if err != nil {
			return err
		}
		repoRoot, err := paths.RepoRoot(cwd)
		if err != nil {
			return ecerr.New(ecerr.NotInGitRepo, "not inside a git repository: %v", err)
		}

		for _, dir := range []string{
			filepath.Dir(paths.DBPath(repoRoot)),
			paths.ContentDirPath(repoRoot),
			paths.LogsDirPath(repoRoot),
		} {
			if err := os.MkdirAll(dir, 0o750); err != nil {
				return fmt.Errorf("create %s: %w", dir, err)
			}
		}

		store, err := sqlite.Open(rootCtx, paths.DBPath(repoRoot))
		if err != nil {
			return err
		}
		defer store.Close()

		name := repoName(repoRoot)
		project, err := model.New(store).EnsureProject(rootCtx, repoRoot, name)
		if err != nil {
			return fmt.Errorf("register project: %w", err)
		}

		reg, err := registry.Open()
		if err != nil {
			return fmt.Errorf("open global registry: %w", err)
		}
		if err := reg.Register(types.RepoIndexEntry{
			RepoPath: repoRoot,
			RepoName: name,
			DBPath:   paths.DBPath(repoRoot),
		}); err != nil {
			return fmt.Errorf("register in global index: %w", err)
		}

		if jsonOutput {
			outputJSON(map[string]any{
				"repo_root":  repoRoot,
				"project_id": project.ID,
				"db_path":    paths.DBPath(repoRoot),
			})
			return nil
		}
		fmt.Printf("Initialized EntireContext in %s\n", paths.RepoDir(repoRoot))
		fmt.Printf("Registered project %q (%s)\n", name, project.ID)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(initCmd)
}
