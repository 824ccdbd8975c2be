package syncbranch

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// MergeManifests implements spec.md §4.9's app-level union, not a git
// 3-way merge: version takes the max of both sides, checkpoints and
// sessions are key-unioned, and a session id present on both sides
// keeps whichever record has the larger total_turns (a tie keeps the
// local record, so on a tie the result depends on which side is "local").
// Grounded on the teacher's internal/merge union-by-key approach
// (internal/merge/merge.go), generalized from its issue-specific field
// set to the manifest shape named in spec.md §4.9.
func MergeManifests(local, remote Manifest) Manifest {
	merged := Manifest{
		Version:     local.Version,
		Checkpoints: make(map[string]ManifestCheckpoint, len(local.Checkpoints)+len(remote.Checkpoints)),
		Sessions:    make(map[string]ManifestSession, len(local.Sessions)+len(remote.Sessions)),
	}
	if remote.Version > merged.Version {
		merged.Version = remote.Version
	}

	for id, cp := range local.Checkpoints {
		merged.Checkpoints[id] = cp
	}
	for id, cp := range remote.Checkpoints {
		if _, exists := merged.Checkpoints[id]; !exists {
			merged.Checkpoints[id] = cp
		}
	}

	for id, sess := range local.Sessions {
		merged.Sessions[id] = sess
	}
	for id, remoteSess := range remote.Sessions {
		localSess, exists := merged.Sessions[id]
		if !exists || remoteSess.TotalTurns > localSess.TotalTurns {
			merged.Sessions[id] = remoteSess
		}
	}

	return merged
}

// MergeTranscripts concatenates local then remote and de-duplicates by
// id, preserving first-seen order (spec.md §4.9), so merge(x, x) == x
// and the result doesn't depend on which copy of a duplicated entry won
// (they're expected to be identical once ids match).
func MergeTranscripts(local, remote []TranscriptEntry) []TranscriptEntry {
	seen := make(map[string]bool, len(local)+len(remote))
	merged := make([]TranscriptEntry, 0, len(local)+len(remote))
	for _, entries := range [][]TranscriptEntry{local, remote} {
		for _, e := range entries {
			if seen[e.ID] {
				continue
			}
			seen[e.ID] = true
			merged = append(merged, e)
		}
	}
	return merged
}

// MergeCheckpointFiles unions the per-checkpoint JSON files under
// localDir/checkpoints and remoteDir/checkpoints into destDir/checkpoints.
// An existing destination filename is never overwritten — first write
// wins, giving the whole merge idempotence on repeated runs (spec.md
// §4.9, invariant 8: merge(x, x) == x).
func MergeCheckpointFiles(localDir, remoteDir, destDir string) error {
	destCheckpoints := filepath.Join(destDir, "checkpoints")
	if err := os.MkdirAll(destCheckpoints, 0o750); err != nil {
		return fmt.Errorf("create dest checkpoints dir: %w", err)
	}
	for _, srcDir := range []string{localDir, remoteDir} {
		srcCheckpoints := filepath.Join(srcDir, "checkpoints")
		entries, err := os.ReadDir(srcCheckpoints)
		if os.IsNotExist(err) {
			continue
		}
		if err != nil {
			return fmt.Errorf("read %s: %w", srcCheckpoints, err)
		}
		for _, entry := range entries {
			if entry.IsDir() {
				continue
			}
			destPath := filepath.Join(destCheckpoints, entry.Name())
			if _, err := os.Stat(destPath); err == nil {
				continue // first write wins
			}
			if err := copyFile(filepath.Join(srcCheckpoints, entry.Name()), destPath); err != nil {
				return err
			}
		}
	}
	return nil
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("open %s: %w", src, err)
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return fmt.Errorf("create %s: %w", dst, err)
	}
	defer out.Close()

	if _, err := io.Copy(out, in); err != nil {
		return fmt.Errorf("copy %s to %s: %w", src, dst, err)
	}
	return nil
}
