package cli

import (
	"bytes"
	"encoding/json"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"

	"github.com/entirecontext/ec/internal/paths"
)

// setupRepo creates a throwaway git repo and chdirs the test into it,
// mirroring the teacher's init_test.go TempDir/t.Chdir pattern.
func setupRepo(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	runGit(t, dir, "init")
	runGit(t, dir, "config", "user.email", "test@example.com")
	runGit(t, dir, "config", "user.name", "test")
	if err := os.WriteFile(filepath.Join(dir, "README.md"), []byte("hi\n"), 0o644); err != nil {
		t.Fatalf("write readme: %v", err)
	}
	runGit(t, dir, "add", "README.md")
	runGit(t, dir, "commit", "-m", "initial")
	t.Chdir(dir)
	return dir
}

func runGit(t *testing.T, dir string, args ...string) {
	t.Helper()
	cmd := exec.Command("git", append([]string{"-C", dir}, args...)...)
	out, err := cmd.CombinedOutput()
	if err != nil {
		t.Fatalf("git %v: %v\n%s", args, err, out)
	}
}

// run executes rootCmd with args, capturing stdout, the way the
// teacher's command tests drive rootCmd.SetArgs + rootCmd.Execute.
func run(t *testing.T, args ...string) string {
	t.Helper()
	old := os.Stdout
	r, w, err := os.Pipe()
	if err != nil {
		t.Fatalf("pipe: %v", err)
	}
	os.Stdout = w
	rootCmd.SetArgs(args)
	runErr := rootCmd.Execute()
	w.Close()
	os.Stdout = old

	var buf bytes.Buffer
	buf.ReadFrom(r)
	if runErr != nil {
		t.Fatalf("ec %v: %v\noutput: %s", args, runErr, buf.String())
	}
	return buf.String()
}

func TestInitCreatesStoreAndRegistersRepo(t *testing.T) {
	dir := setupRepo(t)
	paths.SetGlobalDirOverride(t.TempDir())
	t.Cleanup(func() { paths.SetGlobalDirOverride("") })

	out := run(t, "--json", "init")

	if _, err := os.Stat(filepath.Join(dir, ".entirecontext", "db", "local.db")); err != nil {
		t.Fatalf("expected db file: %v", err)
	}
	var result map[string]any
	if err := json.Unmarshal([]byte(out), &result); err != nil {
		t.Fatalf("parse init output: %v\n%s", err, out)
	}
	if result["repo_root"] != dir {
		t.Fatalf("expected repo_root %q, got %v", dir, result["repo_root"])
	}
}

func TestStatusReportsZeroSessionsAfterInit(t *testing.T) {
	setupRepo(t)
	paths.SetGlobalDirOverride(t.TempDir())
	t.Cleanup(func() { paths.SetGlobalDirOverride("") })
	run(t, "init")

	out := run(t, "--json", "status")
	var result map[string]any
	if err := json.Unmarshal([]byte(out), &result); err != nil {
		t.Fatalf("parse status output: %v\n%s", err, out)
	}
	if result["session_count"].(float64) != 0 {
		t.Fatalf("expected 0 sessions, got %v", result["session_count"])
	}
}

func TestConfigSetGetRoundTripsThroughTOMLFile(t *testing.T) {
	dir := setupRepo(t)
	paths.SetGlobalDirOverride(t.TempDir())
	t.Cleanup(func() { paths.SetGlobalDirOverride("") })
	run(t, "init")

	run(t, "config", "capture.auto_capture", "false")

	tomlPath := filepath.Join(dir, ".entirecontext", "config.toml")
	if _, err := os.Stat(tomlPath); err != nil {
		t.Fatalf("expected config.toml to be written: %v", err)
	}

	out := run(t, "config", "capture.auto_capture")
	if strings.TrimSpace(out) != "false" {
		t.Fatalf("expected 'false', got %q", out)
	}
}

func TestConfigSetSyncBranchRejectsReservedName(t *testing.T) {
	setupRepo(t)
	paths.SetGlobalDirOverride(t.TempDir())
	t.Cleanup(func() { paths.SetGlobalDirOverride("") })
	run(t, "init")

	rootCmd.SetArgs([]string{"config", "sync.branch", "main"})
	if err := rootCmd.Execute(); err == nil {
		t.Fatal("expected error setting sync.branch to a reserved name")
	}
}

func TestHookHandleSessionStartThenStatusShowsOneSession(t *testing.T) {
	setupRepo(t)
	paths.SetGlobalDirOverride(t.TempDir())
	t.Cleanup(func() { paths.SetGlobalDirOverride("") })
	run(t, "init")

	old := os.Stdin
	r, w, err := os.Pipe()
	if err != nil {
		t.Fatalf("pipe: %v", err)
	}
	w.WriteString(`{"hook_type":"SessionStart","session_id":"sess-1","source":"startup"}`)
	w.Close()
	os.Stdin = r
	rootCmd.SetArgs([]string{"hook", "handle"})
	runErr := rootCmd.Execute()
	os.Stdin = old
	if runErr != nil {
		t.Fatalf("hook handle: %v", runErr)
	}

	out := run(t, "--json", "status")
	var result map[string]any
	if err := json.Unmarshal([]byte(out), &result); err != nil {
		t.Fatalf("parse status output: %v\n%s", err, out)
	}
	if result["session_count"].(float64) != 1 {
		t.Fatalf("expected 1 session after SessionStart, got %v", result["session_count"])
	}
}

func TestPurgeTurnDefaultsToDryRun(t *testing.T) {
	setupRepo(t)
	paths.SetGlobalDirOverride(t.TempDir())
	t.Cleanup(func() { paths.SetGlobalDirOverride("") })
	run(t, "init")

	out := run(t, "purge", "turn", "does-not-exist")
	if !strings.Contains(out, "Dry run") {
		t.Fatalf("expected dry-run message, got %q", out)
	}
}
