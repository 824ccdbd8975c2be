package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/entirecontext/ec/internal/ecerr"
	"github.com/entirecontext/ec/internal/paths"
	"github.com/entirecontext/ec/internal/storage/sqlite"
)

// outputJSON writes v to stdout as indented JSON, the convention every
// listing/lookup command follows when --json is set.
func outputJSON(v any) {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	_ = enc.Encode(v)
}

// fatalErr prints a one-line message for err and exits with the code
// ecerr.Kind maps it to, or 1 for any other error (spec.md §6/§7).
func fatalErr(err error) {
	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	var domainErr *ecerr.Error
	if errors.As(err, &domainErr) {
		os.Exit(domainErr.Kind.ExitCode())
	}
	os.Exit(1)
}

// requireRepoRoot resolves the git repository root for the current
// working directory, or exits with NotInGitRepo.
func requireRepoRoot() string {
	cwd, err := os.Getwd()
	if err != nil {
		fatalErr(fmt.Errorf("resolve working directory: %w", err))
	}
	root, err := paths.RepoRoot(cwd)
	if err != nil {
		fatalErr(ecerr.New(ecerr.NotInGitRepo, "not inside a git repository: %v", err))
	}
	return root
}

// requireStore opens the repo's database, or exits with NotInitialized
// if `ec init` has never been run here.
func requireStore(repoRoot string) *sqlite.Store {
	dbPath := paths.DBPath(repoRoot)
	if _, err := os.Stat(dbPath); err != nil {
		fatalErr(ecerr.New(ecerr.NotInitialized, "no EntireContext database found; run `ec init` first"))
	}
	store, err := sqlite.Open(rootCtx, dbPath)
	if err != nil {
		fatalErr(err)
	}
	return store
}

// repoName derives a display name for repoRoot, the project name stored
// alongside its registry entry.
func repoName(repoRoot string) string {
	return filepath.Base(repoRoot)
}
