package ingest

import (
	"regexp"
	"sort"
)

var emailPattern = regexp.MustCompile(`[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}`)

// ExtractEmails returns every address-shaped token in line, in order.
func ExtractEmails(line string) []string {
	return emailPattern.FindAllString(line, -1)
}

// normalizeEmails deduplicates (case-sensitive) and sorts ascending.
func normalizeEmails(emails []string) []string {
	out := make([]string, 0, len(emails))
	seen := make(map[string]struct{}, len(emails))
	for _, e := range emails {
		if _, ok := seen[e]; ok {
			continue
		}
		seen[e] = struct{}{}
		out = append(out, e)
	}
	sort.Strings(out)
	return out
}
