// Package filter implements C2: stateless predicates and redactors
// driven by configuration — skip-turn, skip-file, skip-tool,
// redact-on-store, redact-on-query. Every predicate returns false when
// its section's "enabled" flag is absent or false (spec.md §4.2).
package filter

import (
	"path/filepath"

	"github.com/entirecontext/ec/internal/redact"
)

// Exclusions is the recognized shape of the capture.exclusions config
// section (spec.md §4.2).
type Exclusions struct {
	Enabled          bool     `toml:"enabled" yaml:"enabled"`
	ContentPatterns  []string `toml:"content_patterns" yaml:"content_patterns"`
	FilePatterns     []string `toml:"file_patterns" yaml:"file_patterns"`
	ToolNames        []string `toml:"tool_names" yaml:"tool_names"`
	RedactPatterns   []string `toml:"redact_patterns" yaml:"redact_patterns"`
}

// QueryRedaction is the recognized shape of the filtering.query_redaction
// config section (spec.md §4.2).
type QueryRedaction struct {
	Enabled     bool     `toml:"enabled" yaml:"enabled"`
	Patterns    []string `toml:"patterns" yaml:"patterns"`
	Replacement string   `toml:"replacement" yaml:"replacement"`
}

// Filter evaluates the C2 predicates against a fixed configuration.
type Filter struct {
	Exclusions     Exclusions
	QueryRedaction QueryRedaction
}

// New builds a Filter from the two recognized config sections.
func New(exclusions Exclusions, queryRedaction QueryRedaction) *Filter {
	return &Filter{Exclusions: exclusions, QueryRedaction: queryRedaction}
}

// ShouldSkipTurn reports whether userMessage matches a content_patterns
// entry and the whole turn should be dropped.
func (f *Filter) ShouldSkipTurn(userMessage string) bool {
	if !f.Exclusions.Enabled {
		return false
	}
	return redact.MatchesAny(userMessage, f.Exclusions.ContentPatterns)
}

// ShouldSkipFile reports whether path matches a file_patterns glob and
// should be excluded from files_touched.
func (f *Filter) ShouldSkipFile(path string) bool {
	if !f.Exclusions.Enabled {
		return false
	}
	for _, pattern := range f.Exclusions.FilePatterns {
		if ok, err := filepath.Match(pattern, path); err == nil && ok {
			return true
		}
		// Also try matching against the base name, so "*.env" matches
		// "config/.env" the way a user expects a glob to behave.
		if ok, err := filepath.Match(pattern, filepath.Base(path)); err == nil && ok {
			return true
		}
	}
	return false
}

// ShouldSkipTool reports whether toolName is an exact-match entry in
// tool_names and should be dropped from tools_used.
func (f *Filter) ShouldSkipTool(toolName string) bool {
	if !f.Exclusions.Enabled {
		return false
	}
	for _, name := range f.Exclusions.ToolNames {
		if name == toolName {
			return true
		}
	}
	return false
}

// RedactContent applies redact_patterns to content before it is stored.
func (f *Filter) RedactContent(content string) string {
	if !f.Exclusions.Enabled {
		return content
	}
	return redact.ApplyPatterns(content, f.Exclusions.RedactPatterns, redact.Placeholder)
}

// RedactQuery applies filtering.query_redaction to content at query
// display time (spec.md §4.2).
func (f *Filter) RedactQuery(content string) string {
	if !f.QueryRedaction.Enabled {
		return content
	}
	return redact.ApplyPatterns(content, f.QueryRedaction.Patterns, f.QueryRedaction.Replacement)
}
