package model

import (
	"bufio"
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/entirecontext/ec/internal/types"
)

// codexRecord is one line of a codex rollout file: either a session_meta
// header or a response_item carrying a role/content message, matched
// loosely the way ParseTranscript matches transcript lines.
type codexRecord struct {
	Type      string          `json:"type"`
	SessionID string          `json:"session_id,omitempty"`
	Role      string          `json:"role,omitempty"`
	Content   json.RawMessage `json:"content,omitempty"`
}

// FindRolloutFile locates a codex rollout file under codexHome whose
// name contains idSubstring (spec.md §4.4: "locates the file by id
// substring match").
func FindRolloutFile(codexHome, idSubstring string) (string, bool) {
	var found string
	_ = filepath.WalkDir(codexHome, func(path string, d os.DirEntry, err error) error {
		if err != nil || found != "" {
			return nil
		}
		if d.IsDir() {
			return nil
		}
		if strings.Contains(d.Name(), idSubstring) {
			found = path
		}
		return nil
	})
	return found, found != ""
}

// IngestCodexRollout reads a rollout file and creates a session plus
// its turns, idempotent by session_id and a content hash derived from
// each user/assistant text pair (spec.md §4.4).
func (m *Model) IngestCodexRollout(ctx context.Context, projectID, rolloutPath string) (*types.Session, int, error) {
	data, err := os.ReadFile(rolloutPath)
	if err != nil {
		return nil, 0, fmt.Errorf("read rollout file: %w", err)
	}

	var sessionID string
	var pendingUser string
	created := 0

	scanner := bufio.NewScanner(bytes.NewReader(data))
	scanner.Buffer(make([]byte, 0, 64*1024), 8*1024*1024)

	for scanner.Scan() {
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}
		var rec codexRecord
		if err := json.Unmarshal(line, &rec); err != nil {
			continue
		}

		switch rec.Type {
		case "session_meta":
			if rec.SessionID != "" {
				sessionID = rec.SessionID
			}
		case "response_item":
			if sessionID == "" {
				continue
			}
			text, ok := extractText(rec.Content)
			if !ok {
				continue
			}
			switch rec.Role {
			case "user":
				pendingUser = text
			case "assistant":
				if pendingUser == "" {
					continue
				}
				hash := turnContentHash(pendingUser, text)
				existing, err := m.Store.FindTurnByContentHash(ctx, sessionID, hash)
				if err != nil {
					return nil, created, fmt.Errorf("check existing turn: %w", err)
				}
				if existing == nil {
					if _, err := m.ingestCodexTurn(ctx, projectID, sessionID, pendingUser, text, hash); err != nil {
						return nil, created, err
					}
					created++
				}
				pendingUser = ""
			}
		}
	}

	if sessionID == "" {
		return nil, 0, fmt.Errorf("no session_meta record found in %s", rolloutPath)
	}
	sess, err := m.Store.GetSession(ctx, sessionID)
	if err != nil {
		return nil, created, fmt.Errorf("load ingested session: %w", err)
	}
	return sess, created, nil
}

func (m *Model) ingestCodexTurn(ctx context.Context, projectID, sessionID, userMessage, assistantSummary, hash string) (*types.Turn, error) {
	if _, err := m.Store.CreateSession(ctx, projectID, sessionID, "codex", nil); err != nil {
		return nil, fmt.Errorf("ensure codex session: %w", err)
	}
	turn, err := m.OpenTurn(ctx, sessionID, userMessage)
	if err != nil {
		return nil, fmt.Errorf("open codex turn: %w", err)
	}
	if err := m.Store.FinalizeTurn(ctx, turn.ID, assistantSummary, hash); err != nil {
		return nil, fmt.Errorf("finalize codex turn: %w", err)
	}
	return m.Store.GetTurn(ctx, turn.ID)
}

// turnContentHash derives a stable identity for a user/assistant text
// pair so re-ingesting the same rollout event is a no-op.
func turnContentHash(userMessage, assistantSummary string) string {
	sum := sha256.Sum256([]byte(userMessage + "\x00" + assistantSummary))
	return hex.EncodeToString(sum[:])
}
