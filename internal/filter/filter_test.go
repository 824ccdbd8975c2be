package filter

import "testing"

func TestShouldSkipTurnRequiresEnabled(t *testing.T) {
	f := New(Exclusions{Enabled: false, ContentPatterns: []string{"secret"}}, QueryRedaction{})
	if f.ShouldSkipTurn("this has a secret in it") {
		t.Fatal("expected disabled exclusions to never skip a turn")
	}

	f = New(Exclusions{Enabled: true, ContentPatterns: []string{"secret"}}, QueryRedaction{})
	if !f.ShouldSkipTurn("this has a secret in it") {
		t.Fatal("expected a content_patterns match to skip the turn")
	}
	if f.ShouldSkipTurn("nothing sensitive here") {
		t.Fatal("expected no match to not skip the turn")
	}
}

func TestShouldSkipFileMatchesGlobAndBaseName(t *testing.T) {
	f := New(Exclusions{Enabled: true, FilePatterns: []string{"*.env"}}, QueryRedaction{})

	if !f.ShouldSkipFile(".env") {
		t.Fatal("expected .env to match *.env")
	}
	if !f.ShouldSkipFile("config/.env") {
		t.Fatal("expected config/.env to match *.env via base name")
	}
	if f.ShouldSkipFile("main.go") {
		t.Fatal("expected main.go to not match *.env")
	}
}

func TestShouldSkipToolExactMatchOnly(t *testing.T) {
	f := New(Exclusions{Enabled: true, ToolNames: []string{"Bash"}}, QueryRedaction{})

	if !f.ShouldSkipTool("Bash") {
		t.Fatal("expected exact match Bash to be skipped")
	}
	if f.ShouldSkipTool("bash") {
		t.Fatal("expected case-sensitive exact match, bash should not match Bash")
	}
	if f.ShouldSkipTool("Read") {
		t.Fatal("expected Read to not be skipped")
	}
}

func TestRedactContentAppliesPatternsWhenEnabled(t *testing.T) {
	f := New(Exclusions{Enabled: true, RedactPatterns: []string{`sk-[a-zA-Z0-9]+`}}, QueryRedaction{})

	got := f.RedactContent("api key is sk-abc123, keep it safe")
	want := "api key is [FILTERED], keep it safe"
	if got != want {
		t.Fatalf("expected %q, got %q", want, got)
	}

	f = New(Exclusions{Enabled: false, RedactPatterns: []string{`sk-[a-zA-Z0-9]+`}}, QueryRedaction{})
	untouched := "api key is sk-abc123, keep it safe"
	if f.RedactContent(untouched) != untouched {
		t.Fatal("expected disabled exclusions to leave content untouched")
	}
}

func TestRedactQueryUsesConfiguredReplacement(t *testing.T) {
	f := New(Exclusions{}, QueryRedaction{
		Enabled:     true,
		Patterns:    []string{`password=\S+`},
		Replacement: "<redacted>",
	})

	got := f.RedactQuery("login with password=hunter2 please")
	want := "login with <redacted> please"
	if got != want {
		t.Fatalf("expected %q, got %q", want, got)
	}
}

func TestRedactQueryDisabledLeavesContentUntouched(t *testing.T) {
	f := New(Exclusions{}, QueryRedaction{Enabled: false, Patterns: []string{`password=\S+`}})
	content := "login with password=hunter2 please"
	if f.RedactQuery(content) != content {
		t.Fatal("expected disabled query_redaction to leave content untouched")
	}
}

func TestInvalidPatternsAreSkippedSilently(t *testing.T) {
	f := New(Exclusions{Enabled: true, ContentPatterns: []string{"(unclosed"}}, QueryRedaction{})
	if f.ShouldSkipTurn("anything at all") {
		t.Fatal("expected an invalid regex to never match")
	}
}
