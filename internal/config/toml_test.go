package config

import (
	"path/filepath"
	"testing"
)

func TestWriteTOMLKeyThenApplyTOMLFileRoundTrips(t *testing.T) {
	if err := Initialize(); err != nil {
		t.Fatalf("init config: %v", err)
	}
	path := filepath.Join(t.TempDir(), "config.toml")

	if err := WriteTOMLKey(path, "sync.branch", "entirecontext-sync"); err != nil {
		t.Fatalf("write key: %v", err)
	}
	if err := WriteTOMLKey(path, "capture.auto_capture", "false"); err != nil {
		t.Fatalf("write second key: %v", err)
	}

	if err := ApplyTOMLFile(path); err != nil {
		t.Fatalf("apply toml file: %v", err)
	}

	if got := GetString("sync.branch"); got != "entirecontext-sync" {
		t.Fatalf("expected sync.branch = entirecontext-sync, got %q", got)
	}
	if got := GetString("capture.auto_capture"); got != "false" {
		t.Fatalf("expected capture.auto_capture = false, got %q", got)
	}
}

func TestReadTOMLAllFlattensNestedTables(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := WriteTOMLKey(path, "search.default_mode", "fts"); err != nil {
		t.Fatalf("write key: %v", err)
	}
	if err := WriteTOMLKey(path, "search.limit", "10"); err != nil {
		t.Fatalf("write key: %v", err)
	}

	all, err := ReadTOMLAll(path)
	if err != nil {
		t.Fatalf("read all: %v", err)
	}
	if all["search.default_mode"] != "fts" {
		t.Fatalf("expected search.default_mode = fts, got %v", all["search.default_mode"])
	}
	if all["search.limit"] != "10" {
		t.Fatalf("expected search.limit = 10, got %v", all["search.limit"])
	}
}

func TestReadTOMLAllOnMissingFileReturnsEmptyMap(t *testing.T) {
	all, err := ReadTOMLAll(filepath.Join(t.TempDir(), "absent.toml"))
	if err != nil {
		t.Fatalf("expected no error for missing file, got %v", err)
	}
	if len(all) != 0 {
		t.Fatalf("expected empty map, got %v", all)
	}
}
