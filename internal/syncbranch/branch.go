package syncbranch

import (
	"context"
	"fmt"
	"os"
	"regexp"

	"github.com/entirecontext/ec/internal/config"
	"github.com/entirecontext/ec/internal/storage/sqlite"
)

// ConfigKey is the database config key for the shadow sync branch name.
const ConfigKey = "sync.branch"

// EnvVar overrides the sync branch at runtime, highest precedence.
const EnvVar = "EC_SYNC_BRANCH"

// DefaultBranch is used when nothing configures a sync branch.
const DefaultBranch = "entirecontext-sync"

var branchNamePattern = regexp.MustCompile(`^[a-zA-Z0-9][a-zA-Z0-9._/-]*[a-zA-Z0-9]$`)

// ValidateBranchName checks a branch name against git-check-ref-format's
// practical subset, rejecting names that would confuse a worktree-based
// export (reserved names, leading/trailing slashes, consecutive dots).
func ValidateBranchName(name string) error {
	if name == "" {
		return nil
	}
	if len(name) > 255 {
		return fmt.Errorf("branch name too long (max 255 characters)")
	}
	if !branchNamePattern.MatchString(name) {
		return fmt.Errorf("invalid branch name %q: must start and end with alphanumeric, may contain .-_/ in between", name)
	}
	if name == "HEAD" || name == "." || name == ".." {
		return fmt.Errorf("invalid branch name: %q is reserved", name)
	}
	if regexp.MustCompile(`\.\.`).MatchString(name) {
		return fmt.Errorf("invalid branch name: cannot contain '..'")
	}
	return nil
}

// ValidateSyncBranchName additionally rejects main/master: the shadow
// branch is a dedicated transport branch, never the user's working
// branch, and git can't check out the same branch in two worktrees at
// once.
func ValidateSyncBranchName(name string) error {
	if err := ValidateBranchName(name); err != nil {
		return err
	}
	if name == "main" || name == "master" {
		return fmt.Errorf("cannot use %q as the sync branch: it would collide with the working branch in a worktree checkout; pick a dedicated name like %q", name, DefaultBranch)
	}
	return nil
}

// Get resolves the sync branch name with precedence: EC_SYNC_BRANCH env
// var, then the per-repo config key "sync.branch" (config.toml or
// flags), then the value persisted in the repo's own database (so a
// clone that hasn't re-run `ec config` yet still finds it), falling
// back to DefaultBranch.
func Get(ctx context.Context, store *sqlite.Store) (string, error) {
	if envBranch := os.Getenv(EnvVar); envBranch != "" {
		if err := ValidateBranchName(envBranch); err != nil {
			return "", fmt.Errorf("invalid %s: %w", EnvVar, err)
		}
		return envBranch, nil
	}
	if cfgBranch := config.GetString(ConfigKey); cfgBranch != "" {
		if err := ValidateBranchName(cfgBranch); err != nil {
			return "", fmt.Errorf("invalid %s in config: %w", ConfigKey, err)
		}
		return cfgBranch, nil
	}

	dbBranch, err := store.GetConfig(ctx, ConfigKey)
	if err != nil {
		return "", fmt.Errorf("read %s from db: %w", ConfigKey, err)
	}
	if dbBranch != "" {
		if err := ValidateBranchName(dbBranch); err != nil {
			return "", fmt.Errorf("invalid %s in db: %w", ConfigKey, err)
		}
		return dbBranch, nil
	}
	return DefaultBranch, nil
}

// Set validates and persists branch in both the in-memory config
// singleton and the repo's own database, so the choice survives a
// restart even before the config file is rewritten to disk.
func Set(ctx context.Context, store *sqlite.Store, branch string) error {
	if err := ValidateSyncBranchName(branch); err != nil {
		return err
	}
	config.Set(ConfigKey, branch)
	return store.SetConfig(ctx, ConfigKey, branch)
}
