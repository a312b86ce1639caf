package query

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/cognicore/deptdir/pkg/deptdir/ingest"
)

// snippetRadius is how many bytes of context surround a match in a snippet.
const snippetRadius = 40

// Request is a directory search: a free-text term plus flag filters.
type Request struct {
	Term             string
	StatenIslandOnly bool
	EndTimeOnly      bool
}

// Hit explains why a department matched.
type Hit struct {
	Field   string // "id", "info" or "" for an empty term
	Snippet string
}

// Match reports whether d passes the flag filters and contains the term in
// its id or info, case-insensitively. An empty term matches everything.
func Match(d ingest.Department, req Request) (Hit, bool) {
	if req.StatenIslandOnly && !d.IsStatenIsland {
		return Hit{}, false
	}
	if req.EndTimeOnly && !d.HasEndTime {
		return Hit{}, false
	}

	term := strings.TrimSpace(req.Term)
	if term == "" {
		return Hit{}, true
	}

	if strings.Contains(strings.ToLower(d.ID), strings.ToLower(term)) {
		return Hit{Field: "id", Snippet: d.ID}, true
	}

	idx, n := indexFold(d.Info, term)
	if idx < 0 {
		return Hit{}, false
	}
	return Hit{Field: "info", Snippet: snippet(d.Info, idx, n)}, true
}

// indexFold finds the first case-insensitive occurrence of term in s and
// returns its byte offset and length in s itself. Runes are lowered one at a
// time so the offsets stay valid in s.
func indexFold(s, term string) (int, int) {
	want := []rune(strings.Map(unicode.ToLower, term))
	if len(want) == 0 {
		return 0, 0
	}
	for i := range s {
		j, k := i, 0
		for k < len(want) && j < len(s) {
			r, size := utf8.DecodeRuneInString(s[j:])
			if unicode.ToLower(r) != want[k] {
				break
			}
			j += size
			k++
		}
		if k == len(want) {
			return i, j - i
		}
	}
	return -1, 0
}

// Result pairs a matching department with its hit.
type Result struct {
	Department ingest.Department
	Hit        Hit
}

// Filter returns the departments matching req, in input order.
func Filter(depts []ingest.Department, req Request) []Result {
	results := make([]Result, 0, len(depts))
	for _, d := range depts {
		if hit, ok := Match(d, req); ok {
			results = append(results, Result{Department: d, Hit: hit})
		}
	}
	return results
}

// snippet cuts a window around info[idx:idx+n], widened to rune boundaries
// and flattened onto one line.
func snippet(info string, idx, n int) string {
	start := idx - snippetRadius
	if start < 0 {
		start = 0
	}
	end := idx + n + snippetRadius
	if end > len(info) {
		end = len(info)
	}
	for start > 0 && !isRuneStart(info[start]) {
		start--
	}
	for end < len(info) && !isRuneStart(info[end]) {
		end++
	}

	s := strings.Join(strings.Fields(info[start:end]), " ")
	if start > 0 {
		s = "…" + s
	}
	if end < len(info) {
		s += "…"
	}
	return s
}

func isRuneStart(b byte) bool {
	return b&0xC0 != 0x80
}
