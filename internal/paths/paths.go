// Package paths centralizes the on-disk layout under a repo's
// .entirecontext/ directory and the global per-user registry location,
// per spec.md §4.1 and §6.
package paths

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"
)

// Directory and file name constants for the per-repo store (spec.md §4.1).
const (
	EntireContextDir = ".entirecontext"
	DBDir            = "db"
	DBFileName       = "local.db"
	ContentDir       = "content"
	LogsDir          = "logs"
	ConfigFileName   = "config.toml"
)

// GlobalDirName is the per-user directory holding the cross-repo registry
// (spec.md §6: "a per-user path, location overridable for tests").
const GlobalDirName = ".entirecontext"

// GlobalRegistryFileName is the file holding the RepoIndex (spec.md §3/§4.7).
const GlobalRegistryFileName = "registry.json"

// RepoDir returns <repoRoot>/.entirecontext.
func RepoDir(repoRoot string) string {
	return filepath.Join(repoRoot, EntireContextDir)
}

// DBPath returns the path to the per-repo SQLite database file.
func DBPath(repoRoot string) string {
	return filepath.Join(RepoDir(repoRoot), DBDir, DBFileName)
}

// ContentDirPath returns the content-addressed blob directory root.
func ContentDirPath(repoRoot string) string {
	return filepath.Join(RepoDir(repoRoot), ContentDir)
}

// TurnBlobPath returns the path of a single turn's transcript blob.
func TurnBlobPath(repoRoot, sessionID, turnID string) string {
	return filepath.Join(ContentDirPath(repoRoot), sessionID, turnID+".jsonl")
}

// ConfigPath returns the per-repo config.toml override path.
func ConfigPath(repoRoot string) string {
	return filepath.Join(RepoDir(repoRoot), ConfigFileName)
}

// LogsDirPath returns the diagnostic log directory.
func LogsDirPath(repoRoot string) string {
	return filepath.Join(RepoDir(repoRoot), LogsDir)
}

// globalDirOverride lets tests redirect the global registry location
// (spec.md §6: "location overridable for tests").
var globalDirOverride string

// SetGlobalDirOverride overrides the global directory for the duration of
// a test; pass "" to clear it.
func SetGlobalDirOverride(dir string) {
	globalDirOverride = dir
}

// GlobalDir returns the per-user directory holding the cross-repo registry.
func GlobalDir() (string, error) {
	if globalDirOverride != "" {
		return globalDirOverride, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, GlobalDirName), nil
}

// GlobalRegistryPath returns the path to the global repo registry file.
func GlobalRegistryPath() (string, error) {
	dir, err := GlobalDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, GlobalRegistryFileName), nil
}

// RepoRoot returns the git repository root for the directory cwd, using
// `git rev-parse --show-toplevel` with a bounded timeout (spec.md §4.3).
// Returns "" and a non-nil error if cwd is not inside a git work tree.
func RepoRoot(cwd string) (string, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	cmd := exec.CommandContext(ctx, "git", "-C", cwd, "rev-parse", "--show-toplevel")
	out, err := cmd.Output()
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(out)), nil
}
