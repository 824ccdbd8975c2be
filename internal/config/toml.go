package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// ApplyTOMLFile decodes a .entirecontext/config.toml override file into
// the viper singleton. Unlike the YAML config file (loaded once at
// Initialize), config.toml is the destination `ec config` actually
// writes to (spec.md §6: "Show or set a dotted config key
// (TOML-backed)"), so it is re-applied on every command rather than
// loaded a single time at startup.
func ApplyTOMLFile(path string) error {
	if v == nil {
		return fmt.Errorf("config: not initialized")
	}
	raw, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return err
	}
	var parsed map[string]any
	if err := toml.Unmarshal(raw, &parsed); err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}
	for key, value := range flattenTOML("", parsed) {
		v.Set(key, value)
	}
	return nil
}

// flattenTOML turns nested TOML tables into dotted keys ("sync":
// {"branch": "x"} -> "sync.branch") so values land on the same dotted
// keys the rest of the config layer (and `ec config`) use.
func flattenTOML(prefix string, table map[string]any) map[string]any {
	out := map[string]any{}
	for key, value := range table {
		full := key
		if prefix != "" {
			full = prefix + "." + key
		}
		if nested, ok := value.(map[string]any); ok {
			for k, v := range flattenTOML(full, nested) {
				out[k] = v
			}
			continue
		}
		out[full] = value
	}
	return out
}

// WriteTOMLKey sets key=value inside the TOML file at path, creating it
// (and its parent directory) if needed, and preserving any other keys
// already present. Dotted keys are expanded into nested tables so the
// file reads as ordinary TOML rather than one flat table of
// dotted-string keys.
func WriteTOMLKey(path, key string, value string) error {
	doc := map[string]any{}
	if raw, err := os.ReadFile(path); err == nil {
		if err := toml.Unmarshal(raw, &doc); err != nil {
			return fmt.Errorf("parse %s: %w", path, err)
		}
	} else if !os.IsNotExist(err) {
		return err
	}

	setDotted(doc, key, value)

	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return err
	}
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o640)
	if err != nil {
		return err
	}
	defer f.Close()
	return toml.NewEncoder(f).Encode(doc)
}

// ReadTOMLAll returns every key in the TOML file at path, flattened to
// dotted form, or an empty map if the file does not exist.
func ReadTOMLAll(path string) (map[string]any, error) {
	raw, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return map[string]any{}, nil
	}
	if err != nil {
		return nil, err
	}
	var parsed map[string]any
	if err := toml.Unmarshal(raw, &parsed); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return flattenTOML("", parsed), nil
}

func setDotted(doc map[string]any, dottedKey string, value string) {
	parts := splitDotted(dottedKey)
	cur := doc
	for _, part := range parts[:len(parts)-1] {
		next, ok := cur[part].(map[string]any)
		if !ok {
			next = map[string]any{}
			cur[part] = next
		}
		cur = next
	}
	cur[parts[len(parts)-1]] = value
}

func splitDotted(key string) []string {
	var parts []string
	start := 0
	for i := 0; i < len(key); i++ {
		if key[i] == '.' {
			parts = append(parts, key[start:i])
			start = i + 1
		}
	}
	parts = append(parts, key[start:])
	return parts
}
