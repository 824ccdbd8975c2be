package model

import (
	"bufio"
	"bytes"
	"encoding/json"
)

// rawMessage is one line of a newline-delimited transcript, as
// produced by the agent host (spec.md §4.4). Content is either a bare
// string or a list of typed blocks.
type rawMessage struct {
	Role    string          `json:"role"`
	Content json.RawMessage `json:"content"`
}

type contentBlock struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// ParseTranscript extracts the last user and last assistant text from
// newline-delimited JSON, per spec.md §4.4. Unrecognised records are
// ignored rather than failing the parse.
func ParseTranscript(data []byte) (userMessage, assistantSummary string) {
	scanner := bufio.NewScanner(bytes.NewReader(data))
	scanner.Buffer(make([]byte, 0, 64*1024), 8*1024*1024)

	for scanner.Scan() {
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}
		var msg rawMessage
		if err := json.Unmarshal(line, &msg); err != nil {
			continue
		}
		text, ok := extractText(msg.Content)
		if !ok {
			continue
		}
		switch msg.Role {
		case "user":
			userMessage = text
		case "assistant":
			assistantSummary = text
		}
	}
	return userMessage, assistantSummary
}

// extractText recognises a bare JSON string or an array of
// {type: "text"|"input_text"|"output_text", text: ...} blocks, joining
// recognized block text in order.
func extractText(raw json.RawMessage) (string, bool) {
	if len(raw) == 0 {
		return "", false
	}

	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s, true
	}

	var blocks []contentBlock
	if err := json.Unmarshal(raw, &blocks); err != nil {
		return "", false
	}
	var out string
	found := false
	for _, b := range blocks {
		switch b.Type {
		case "text", "input_text", "output_text":
			out += b.Text
			found = true
		}
	}
	return out, found
}
