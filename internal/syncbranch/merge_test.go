package syncbranch

import (
	"os"
	"path/filepath"
	"testing"
)

func TestMergeManifestsUnionsKeysAndKeepsLargerTotalTurns(t *testing.T) {
	local := Manifest{
		Version:     1,
		Checkpoints: map[string]ManifestCheckpoint{"cp1": {ID: "cp1"}},
		Sessions:    map[string]ManifestSession{"s1": {ID: "s1", TotalTurns: 5}},
	}
	remote := Manifest{
		Version:     2,
		Checkpoints: map[string]ManifestCheckpoint{"cp2": {ID: "cp2"}},
		Sessions:    map[string]ManifestSession{"s1": {ID: "s1", TotalTurns: 10}},
	}

	merged := MergeManifests(local, remote)
	if merged.Version != 2 {
		t.Fatalf("expected version=max(1,2)=2, got %d", merged.Version)
	}
	if len(merged.Checkpoints) != 2 {
		t.Fatalf("expected checkpoint key union, got %+v", merged.Checkpoints)
	}
	if merged.Sessions["s1"].TotalTurns != 10 {
		t.Fatalf("expected larger total_turns (10) to win, got %d", merged.Sessions["s1"].TotalTurns)
	}
}

func TestMergeManifestsIsCommutativeOnKeyUnion(t *testing.T) {
	local := Manifest{Checkpoints: map[string]ManifestCheckpoint{"a": {ID: "a"}}, Sessions: map[string]ManifestSession{}}
	remote := Manifest{Checkpoints: map[string]ManifestCheckpoint{"b": {ID: "b"}}, Sessions: map[string]ManifestSession{}}

	lr := MergeManifests(local, remote)
	rl := MergeManifests(remote, local)
	if len(lr.Checkpoints) != len(rl.Checkpoints) || len(lr.Checkpoints) != 2 {
		t.Fatalf("expected merge_manifests(L,R) and merge_manifests(R,L) to agree on key union, got %+v vs %+v", lr.Checkpoints, rl.Checkpoints)
	}
}

func TestMergeTranscriptsDedupesByIDPreservingFirstSeenOrder(t *testing.T) {
	local := []TranscriptEntry{{ID: "t1", TurnNumber: 1}, {ID: "t2", TurnNumber: 2}}
	remote := []TranscriptEntry{{ID: "t2", TurnNumber: 2}, {ID: "t3", TurnNumber: 3}}

	merged := MergeTranscripts(local, remote)
	if len(merged) != 3 {
		t.Fatalf("expected 3 deduped entries, got %d: %+v", len(merged), merged)
	}
	gotOrder := []string{merged[0].ID, merged[1].ID, merged[2].ID}
	wantOrder := []string{"t1", "t2", "t3"}
	for i := range wantOrder {
		if gotOrder[i] != wantOrder[i] {
			t.Fatalf("expected first-seen order %v, got %v", wantOrder, gotOrder)
		}
	}
}

func TestMergeTranscriptsIsIdempotent(t *testing.T) {
	entries := []TranscriptEntry{{ID: "t1"}, {ID: "t2"}}
	once := MergeTranscripts(entries, nil)
	twice := MergeTranscripts(once, once)
	if len(twice) != len(once) {
		t.Fatalf("expected merge(x,x) == x, got len %d vs %d", len(twice), len(once))
	}
}

func TestMergeCheckpointFilesFirstWriteWins(t *testing.T) {
	localDir := t.TempDir()
	remoteDir := t.TempDir()
	destDir := t.TempDir()

	mustWriteCheckpoint(t, localDir, "cp1.json", `{"id":"cp1","source":"local"}`)
	mustWriteCheckpoint(t, remoteDir, "cp1.json", `{"id":"cp1","source":"remote"}`)
	mustWriteCheckpoint(t, remoteDir, "cp2.json", `{"id":"cp2","source":"remote"}`)

	if err := MergeCheckpointFiles(localDir, remoteDir, destDir); err != nil {
		t.Fatalf("merge checkpoint files: %v", err)
	}

	data, err := os.ReadFile(filepath.Join(destDir, "checkpoints", "cp1.json"))
	if err != nil {
		t.Fatalf("read merged cp1: %v", err)
	}
	if string(data) != `{"id":"cp1","source":"local"}` {
		t.Fatalf("expected local's cp1 to win (first write wins), got %s", data)
	}
	if _, err := os.Stat(filepath.Join(destDir, "checkpoints", "cp2.json")); err != nil {
		t.Fatalf("expected cp2 carried over from remote: %v", err)
	}
}

func mustWriteCheckpoint(t *testing.T, dir, name, content string) {
	t.Helper()
	cpDir := filepath.Join(dir, "checkpoints")
	if err := os.MkdirAll(cpDir, 0o750); err != nil {
		t.Fatalf("mkdir checkpoints: %v", err)
	}
	if err := os.WriteFile(filepath.Join(cpDir, name), []byte(content), 0o640); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
}
