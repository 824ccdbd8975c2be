// Package registry implements C7: the global cross-repo RepoIndex and
// the fan-out orchestrator that runs a C6 search (or session lookup)
// against every registered repo's store, tolerating a broken or absent
// per-repo database without failing the whole query (spec.md §4.7).
package registry

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/gofrs/flock"

	"github.com/entirecontext/ec/internal/paths"
	"github.com/entirecontext/ec/internal/types"
)

// RepoIndex manages the global registry file at paths.GlobalRegistryPath,
// synchronizing read-modify-write cycles across processes with an
// exclusive file lock (grounded on the teacher's own
// internal/daemon/registry.go withFileLock pattern, here built on
// github.com/gofrs/flock instead of a hand-rolled syscall wrapper).
type RepoIndex struct {
	path     string
	lockPath string
	mu       sync.Mutex
}

// Open returns the RepoIndex at the per-user global path, creating its
// parent directory if needed.
func Open() (*RepoIndex, error) {
	regPath, err := paths.GlobalRegistryPath()
	if err != nil {
		return nil, fmt.Errorf("resolve global registry path: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(regPath), 0o750); err != nil {
		return nil, fmt.Errorf("create global registry dir: %w", err)
	}
	return &RepoIndex{path: regPath, lockPath: regPath + ".lock"}, nil
}

func (r *RepoIndex) withFileLock(fn func() error) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	fl := flock.New(r.lockPath)
	if err := fl.Lock(); err != nil {
		return fmt.Errorf("acquire registry lock: %w", err)
	}
	defer fl.Unlock()

	return fn()
}

func (r *RepoIndex) readEntriesLocked() ([]types.RepoIndexEntry, error) {
	data, err := os.ReadFile(r.path)
	if err != nil {
		if os.IsNotExist(err) {
			return []types.RepoIndexEntry{}, nil
		}
		return nil, fmt.Errorf("read registry: %w", err)
	}
	if len(data) == 0 {
		return []types.RepoIndexEntry{}, nil
	}
	var entries []types.RepoIndexEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		// A corrupted registry just means repos need re-registering;
		// treat it as empty rather than failing every subsequent call.
		return []types.RepoIndexEntry{}, nil
	}
	return entries, nil
}

func (r *RepoIndex) writeEntriesLocked(entries []types.RepoIndexEntry) error {
	if entries == nil {
		entries = []types.RepoIndexEntry{}
	}
	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal registry: %w", err)
	}

	dir := filepath.Dir(r.path)
	tmp, err := os.CreateTemp(dir, "registry-*.json.tmp")
	if err != nil {
		return fmt.Errorf("create temp registry file: %w", err)
	}
	tmpPath := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("write temp registry file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("sync temp registry file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return err
	}
	if err := os.Rename(tmpPath, r.path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("rename temp registry file: %w", err)
	}
	return nil
}

// Register upserts entry by RepoPath.
func (r *RepoIndex) Register(entry types.RepoIndexEntry) error {
	return r.withFileLock(func() error {
		entries, err := r.readEntriesLocked()
		if err != nil {
			return err
		}
		filtered := entries[:0]
		for _, e := range entries {
			if e.RepoPath != entry.RepoPath {
				filtered = append(filtered, e)
			}
		}
		filtered = append(filtered, entry)
		return r.writeEntriesLocked(filtered)
	})
}

// Unregister removes the entry for repoPath, if present.
func (r *RepoIndex) Unregister(repoPath string) error {
	return r.withFileLock(func() error {
		entries, err := r.readEntriesLocked()
		if err != nil {
			return err
		}
		filtered := entries[:0]
		for _, e := range entries {
			if e.RepoPath != repoPath {
				filtered = append(filtered, e)
			}
		}
		return r.writeEntriesLocked(filtered)
	})
}

// List returns the registry filtered to `names` (all entries if names
// is empty), skipping any entry whose database file is missing or
// unreadable, per spec.md §4.7.
func (r *RepoIndex) List(names []string) ([]types.RepoIndexEntry, error) {
	var entries []types.RepoIndexEntry
	err := r.withFileLock(func() error {
		var err error
		entries, err = r.readEntriesLocked()
		return err
	})
	if err != nil {
		return nil, err
	}

	wanted := make(map[string]bool, len(names))
	for _, n := range names {
		wanted[n] = true
	}

	out := make([]types.RepoIndexEntry, 0, len(entries))
	for _, e := range entries {
		if len(wanted) > 0 && !wanted[e.RepoName] {
			continue
		}
		if !readableFile(e.DBPath) {
			continue
		}
		out = append(out, e)
	}
	return out, nil
}

func readableFile(path string) bool {
	f, err := os.Open(path)
	if err != nil {
		return false
	}
	f.Close()
	return true
}
