package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/entirecontext/ec/internal/model"
	"github.com/entirecontext/ec/internal/paths"
	"github.com/entirecontext/ec/internal/storage/sqlite"
)

var statusCmd = &cobra.Command{
	Use:     "status",
	GroupID: "views",
	Short:   "Show initialization state, session counts, and index freshness",
	RunE: func(cmd *cobra.Command, args []string) error {
		repoRoot := requireRepoRoot()
		store := requireStore(repoRoot)
		defer store.Close()

		project, err := store.GetProjectByPath(rootCtx, repoRoot)
		if err != nil {
			return fmt.Errorf("look up project: %w", err)
		}

		sessions, err := store.ListSessions(rootCtx, project.ID)
		if err != nil {
			return fmt.Errorf("list sessions: %w", err)
		}
		current, err := model.New(store).CurrentSession(rootCtx, project.ID)
		if err != nil {
			return fmt.Errorf("look up current session: %w", err)
		}

		blobBytes, blobFiles := dirSize(paths.ContentDirPath(repoRoot))
		ftsFresh, ftsErr := ftsIsFresh(store)

		result := map[string]any{
			"repo_root":      repoRoot,
			"project_id":     project.ID,
			"project_name":   project.Name,
			"db_path":        paths.DBPath(repoRoot),
			"session_count":  len(sessions),
			"blob_bytes":     blobBytes,
			"blob_files":     blobFiles,
			"fts_fresh":      ftsFresh,
			"current_session": nil,
		}
		if current != nil {
			result["current_session"] = current.ID
		}
		if ftsErr != nil {
			result["fts_error"] = ftsErr.Error()
		}

		if jsonOutput {
			outputJSON(result)
			return nil
		}

		fmt.Printf("Repo:      %s\n", repoRoot)
		fmt.Printf("Project:   %s (%s)\n", project.Name, project.ID)
		fmt.Printf("Sessions:  %d\n", len(sessions))
		if current != nil {
			fmt.Printf("Active:    %s\n", current.ID)
		} else {
			fmt.Println("Active:    none")
		}
		fmt.Printf("Blobs:     %d files, %d bytes\n", blobFiles, blobBytes)
		if ftsErr != nil {
			fmt.Printf("FTS index: unknown (%v)\n", ftsErr)
		} else if ftsFresh {
			fmt.Println("FTS index: up to date")
		} else {
			fmt.Println("FTS index: stale, run `ec index`")
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

// dirSize walks root and sums regular-file sizes, tolerating a
// not-yet-created directory (a freshly initialized repo with no turns
// captured yet).
func dirSize(root string) (bytes int64, files int) {
	_ = filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil || info == nil || info.IsDir() {
			return nil
		}
		bytes += info.Size()
		files++
		return nil
	})
	return bytes, files
}

// ftsIsFresh compares the turns table's row count against fts_turns',
// the cheap freshness proxy for index staleness: the FTS table is kept
// in sync by triggers on insert/update, so a mismatch only happens if
// rows were written outside those triggers (a restored backup, a
// manual DB edit) or the triggers themselves are missing after a
// partial migration.
func ftsIsFresh(store *sqlite.Store) (bool, error) {
	db := store.UnderlyingDB()
	var turns, indexed int
	if err := db.QueryRowContext(rootCtx, `SELECT count(*) FROM turns`).Scan(&turns); err != nil {
		return false, err
	}
	if err := db.QueryRowContext(rootCtx, `SELECT count(*) FROM fts_turns`).Scan(&indexed); err != nil {
		return false, err
	}
	return turns == indexed, nil
}
