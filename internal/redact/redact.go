// Package redact implements the pattern-based redaction used by the
// content filter (C2: redact_patterns, query_redaction) and by the
// shadow-branch export security filter (C9). Invalid regexes are
// tolerated — skipped silently, never fatal — per spec.md §4.2.
package redact

import "regexp"

// Placeholder is substituted for matched content when no explicit
// replacement is configured.
const Placeholder = "[FILTERED]"

// ApplyPatterns replaces every match of each pattern in patterns with
// replacement, composing left-to-right over the pattern list (spec.md
// §4.2: "Redaction composes left-to-right over the pattern list").
// Patterns that fail to compile are skipped with no effect.
func ApplyPatterns(s string, patterns []string, replacement string) string {
	if replacement == "" {
		replacement = Placeholder
	}
	out := s
	for _, pat := range patterns {
		re, err := regexp.Compile(pat)
		if err != nil {
			continue
		}
		out = re.ReplaceAllString(out, replacement)
	}
	return out
}

// MatchesAny reports whether s matches any of patterns. Invalid patterns
// are skipped silently and never cause a match.
func MatchesAny(s string, patterns []string) bool {
	for _, pat := range patterns {
		re, err := regexp.Compile(pat)
		if err != nil {
			continue
		}
		if re.MatchString(s) {
			return true
		}
	}
	return false
}
