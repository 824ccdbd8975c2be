// Package syncbranch implements C9: shadow-branch export/import and the
// app-level union merge of spec.md §4.9. A dedicated git branch (never
// merged into the user's working branches) carries a manifest, one
// transcript file per session, and one file per checkpoint as the
// transport between machines sharing a repo.
package syncbranch

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/entirecontext/ec/internal/redact"
	"github.com/entirecontext/ec/internal/storage/sqlite"
	"github.com/entirecontext/ec/internal/types"
)

// ManifestSession is the per-session summary carried in manifest.json,
// named so a merge can compare total_turns without reading the
// transcript files (spec.md §4.9: "on session id collision the record
// with the larger total_turns wins").
type ManifestSession struct {
	ID             string    `json:"id"`
	Kind           string    `json:"kind"`
	TotalTurns     int       `json:"total_turns"`
	StartedAt      time.Time `json:"started_at"`
	LastActivityAt time.Time `json:"last_activity_at"`
	Title          string    `json:"title,omitempty"`
}

// ManifestCheckpoint is the per-checkpoint summary carried in manifest.json.
type ManifestCheckpoint struct {
	ID         string    `json:"id"`
	SessionID  string    `json:"session_id"`
	CommitHash string    `json:"commit_hash"`
	Branch     string    `json:"branch"`
	CreatedAt  time.Time `json:"created_at"`
}

// Manifest is the top-level manifest.json document.
type Manifest struct {
	Version     int                           `json:"version"`
	Checkpoints map[string]ManifestCheckpoint `json:"checkpoints"`
	Sessions    map[string]ManifestSession    `json:"sessions"`
}

// TranscriptEntry is one line of transcripts/<session_id>.jsonl.
type TranscriptEntry struct {
	ID               string   `json:"id"`
	TurnNumber       int      `json:"turn_number"`
	UserMessage      string   `json:"user_message"`
	AssistantSummary string   `json:"assistant_summary,omitempty"`
	ToolsUsed        []string `json:"tools_used,omitempty"`
	FilesTouched     []string `json:"files_touched,omitempty"`
}

// Export writes manifest.json, transcripts/<session_id>.jsonl, and
// checkpoints/<id>.json under destDir, the staging directory that gets
// committed to the shadow branch. filter is applied to every text field
// that could carry secrets (spec.md §4.9's export security filter,
// default on).
func Export(ctx context.Context, store *sqlite.Store, destDir string, filter *redact.ExportFilter) error {
	sessions, err := store.AllSessionsAcrossProjects(ctx)
	if err != nil {
		return fmt.Errorf("list sessions: %w", err)
	}
	checkpoints, err := store.AllCheckpoints(ctx)
	if err != nil {
		return fmt.Errorf("list checkpoints: %w", err)
	}

	manifest := Manifest{
		Version:     1,
		Checkpoints: make(map[string]ManifestCheckpoint, len(checkpoints)),
		Sessions:    make(map[string]ManifestSession, len(sessions)),
	}

	if err := os.MkdirAll(filepath.Join(destDir, "transcripts"), 0o750); err != nil {
		return fmt.Errorf("create transcripts dir: %w", err)
	}
	if err := os.MkdirAll(filepath.Join(destDir, "checkpoints"), 0o750); err != nil {
		return fmt.Errorf("create checkpoints dir: %w", err)
	}

	for _, sess := range sessions {
		manifest.Sessions[sess.ID] = ManifestSession{
			ID: sess.ID, Kind: sess.Kind, TotalTurns: sess.TotalTurns,
			StartedAt: sess.StartedAt, LastActivityAt: sess.LastActivityAt,
			Title: filter.String(sess.Title),
		}

		turns, err := store.ListTurns(ctx, sess.ID)
		if err != nil {
			return fmt.Errorf("list turns for %s: %w", sess.ID, err)
		}
		if err := writeTranscript(destDir, sess.ID, turns, filter); err != nil {
			return err
		}
	}

	for _, cp := range checkpoints {
		manifest.Checkpoints[cp.ID] = ManifestCheckpoint{
			ID: cp.ID, SessionID: cp.SessionID, CommitHash: cp.CommitHash,
			Branch: cp.Branch, CreatedAt: cp.CreatedAt,
		}
		if err := writeCheckpointFile(destDir, cp, filter); err != nil {
			return err
		}
	}

	return writeManifest(destDir, manifest)
}

func writeTranscript(destDir, sessionID string, turns []*types.Turn, filter *redact.ExportFilter) error {
	path := filepath.Join(destDir, "transcripts", sessionID+".jsonl")
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create transcript file: %w", err)
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	for _, t := range turns {
		entry := TranscriptEntry{
			ID: t.ID, TurnNumber: t.TurnNumber,
			UserMessage:      filter.String(t.UserMessage),
			AssistantSummary: filter.String(t.AssistantSummary),
			ToolsUsed:        []string(t.ToolsUsed),
			FilesTouched:     []string(t.FilesTouched),
		}
		if err := enc.Encode(entry); err != nil {
			return fmt.Errorf("encode transcript entry: %w", err)
		}
	}
	return nil
}

// writeTranscriptEntries writes already-merged entries verbatim (no
// further redaction: each entry was already filtered when its owning
// side exported it).
func writeTranscriptEntries(destDir, sessionID string, entries []TranscriptEntry) error {
	if err := os.MkdirAll(filepath.Join(destDir, "transcripts"), 0o750); err != nil {
		return fmt.Errorf("create transcripts dir: %w", err)
	}
	path := filepath.Join(destDir, "transcripts", sessionID+".jsonl")
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create transcript file: %w", err)
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	for _, e := range entries {
		if err := enc.Encode(e); err != nil {
			return fmt.Errorf("encode transcript entry: %w", err)
		}
	}
	return nil
}

func writeCheckpointFile(destDir string, cp *types.Checkpoint, filter *redact.ExportFilter) error {
	path := filepath.Join(destDir, "checkpoints", cp.ID+".json")
	out := *cp
	out.DiffSummary = filter.String(cp.DiffSummary)
	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal checkpoint %s: %w", cp.ID, err)
	}
	return os.WriteFile(path, data, 0o640)
}

func writeManifest(destDir string, m Manifest) error {
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal manifest: %w", err)
	}
	return os.WriteFile(filepath.Join(destDir, "manifest.json"), data, 0o640)
}

// ReadManifest loads manifest.json from dir.
func ReadManifest(dir string) (Manifest, error) {
	data, err := os.ReadFile(filepath.Join(dir, "manifest.json"))
	if err != nil {
		return Manifest{}, fmt.Errorf("read manifest: %w", err)
	}
	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return Manifest{}, fmt.Errorf("decode manifest: %w", err)
	}
	if m.Checkpoints == nil {
		m.Checkpoints = map[string]ManifestCheckpoint{}
	}
	if m.Sessions == nil {
		m.Sessions = map[string]ManifestSession{}
	}
	return m, nil
}

// ReadTranscript loads transcripts/<sessionID>.jsonl from dir, if present.
func ReadTranscript(dir, sessionID string) ([]TranscriptEntry, error) {
	path := filepath.Join(dir, "transcripts", sessionID+".jsonl")
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read transcript %s: %w", sessionID, err)
	}
	dec := json.NewDecoder(bytes.NewReader(data))
	var out []TranscriptEntry
	for {
		var entry TranscriptEntry
		if err := dec.Decode(&entry); err != nil {
			break
		}
		out = append(out, entry)
	}
	return out, nil
}
