package redact

import (
	"sort"
	"strings"
	"sync"

	"github.com/zricethezav/gitleaks/v8/detect"
)

// builtinPatterns are the default patterns applied to every shadow-branch
// export stream (spec.md §4.9): API keys, bearer tokens, GitHub PATs,
// password=... forms. These run unconditionally; gitleaks below adds
// broader, rule-based recall on top.
var builtinPatterns = []string{
	`(?i)bearer\s+[a-z0-9._-]{10,}`,
	`(?i)api[_-]?key["'\s:=]+[a-z0-9._-]{10,}`,
	`ghp_[A-Za-z0-9]{36}`,
	`gh[oprsu]_[A-Za-z0-9]{36}`,
	`(?i)password\s*=\s*\S+`,
}

var (
	detector     *detect.Detector
	detectorOnce sync.Once
)

func getDetector() *detect.Detector {
	detectorOnce.Do(func() {
		d, err := detect.NewDetectorDefaultConfig()
		if err != nil {
			return
		}
		detector = d
	})
	return detector
}

// ExportFilter applies the built-in pattern set, then gitleaks' broader
// rule set, to a single text stream destined for the shadow branch.
// Enabled by default (spec.md §4.9); disabling it is a caller decision.
type ExportFilter struct {
	Enabled bool
}

// NewExportFilter returns a filter with the default-on behaviour spec.md
// §4.9 calls for.
func NewExportFilter(enabled bool) *ExportFilter {
	return &ExportFilter{Enabled: enabled}
}

// String redacts s, replacing matches with [REDACTED].
func (f *ExportFilter) String(s string) string {
	if !f.Enabled {
		return s
	}

	redacted := ApplyPatterns(s, builtinPatterns, "[REDACTED]")

	type region struct{ start, end int }
	var regions []region
	if d := getDetector(); d != nil {
		for _, finding := range d.DetectString(redacted) {
			if finding.Secret == "" {
				continue
			}
			searchFrom := 0
			for {
				idx := strings.Index(redacted[searchFrom:], finding.Secret)
				if idx < 0 {
					break
				}
				abs := searchFrom + idx
				regions = append(regions, region{abs, abs + len(finding.Secret)})
				searchFrom = abs + len(finding.Secret)
			}
		}
	}
	if len(regions) == 0 {
		return redacted
	}

	sort.Slice(regions, func(i, j int) bool { return regions[i].start < regions[j].start })
	merged := []region{regions[0]}
	for _, r := range regions[1:] {
		last := &merged[len(merged)-1]
		if r.start <= last.end {
			if r.end > last.end {
				last.end = r.end
			}
		} else {
			merged = append(merged, r)
		}
	}

	var b strings.Builder
	prev := 0
	for _, r := range merged {
		b.WriteString(redacted[prev:r.start])
		b.WriteString("[REDACTED]")
		prev = r.end
	}
	b.WriteString(redacted[prev:])
	return b.String()
}

// Bytes is a convenience wrapper around String for []byte content.
func (f *ExportFilter) Bytes(b []byte) []byte {
	return []byte(f.String(string(b)))
}
