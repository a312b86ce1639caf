package ingest

import (
	"regexp"
	"strings"
)

var measurePattern = regexp.MustCompile(`\d+\s*(?:ft|feet|')`)

// FormatInfo cleans an accumulated info buffer: paragraphs are trimmed,
// empty and repeated paragraphs dropped, and runs of measurement or email
// paragraphs folded into one. Applying it to its own output is a no-op.
func FormatInfo(info string) string {
	seen := make(map[string]struct{})
	var paragraphs []string

	for _, section := range strings.Split(info, "\n\n") {
		section = strings.TrimSpace(section)
		if section == "" {
			continue
		}
		if _, dup := seen[section]; dup {
			continue
		}
		seen[section] = struct{}{}

		if n := len(paragraphs); n > 0 && shouldMerge(paragraphs[n-1], section) {
			paragraphs[n-1] += "\n" + section
			continue
		}
		paragraphs = append(paragraphs, section)
	}

	for i, p := range paragraphs {
		lines := strings.Split(p, "\n")
		for j := range lines {
			lines[j] = strings.TrimSpace(lines[j])
		}
		paragraphs[i] = strings.Join(lines, "\n")
	}

	return strings.Join(paragraphs, "\n\n")
}

// shouldMerge compares the growing tail paragraph against the next one.
func shouldMerge(tail, next string) bool {
	if measurePattern.MatchString(tail) && measurePattern.MatchString(next) {
		return true
	}
	return mentionsEmail(tail) && mentionsEmail(next)
}
