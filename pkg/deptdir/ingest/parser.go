package ingest

import (
	"bytes"
	"io"
	"regexp"
	"strings"
	"unicode/utf8"
)

var headerPattern = regexp.MustCompile(`^(\d+)\s*-`)

// parseState is everything a parse pass carries from one line to the next.
type parseState struct {
	drafts  map[string]*draft
	order   []string
	current *draft

	// Staten Island region text, resolved into department 332 after the pass
	statenActive bool
	statenText   strings.Builder
}

func newParseState() *parseState {
	s := &parseState{drafts: make(map[string]*draft)}
	s.add(newDraft(NoSignatureDeptID, NoSignatureNotice))
	return s
}

func (s *parseState) add(d *draft) {
	s.drafts[d.id] = d
	s.order = append(s.order, d.id)
}

// Parse converts a department directory document into department records.
// Records are returned in order of first appearance, with the seeded
// no-signature department first.
func Parse(data string) []Department {
	return ParseLines(strings.Split(data, "\n"))
}

// ParseBytes is Parse for a raw payload. A nil payload or one that is not
// valid UTF-8 yields an *InvalidInputError.
func ParseBytes(data []byte) ([]Department, error) {
	if data == nil {
		return nil, &InvalidInputError{Reason: "payload is nil"}
	}
	if !utf8.Valid(data) {
		return nil, &InvalidInputError{Reason: "payload is not valid UTF-8 text"}
	}
	return Parse(string(data)), nil
}

// ParseReader reads the whole payload from r and parses it.
func ParseReader(r io.Reader) ([]Department, error) {
	if r == nil {
		return nil, &InvalidInputError{Reason: "reader is nil"}
	}
	var buf bytes.Buffer
	if _, err := buf.ReadFrom(r); err != nil {
		return nil, err
	}
	return ParseBytes(buf.Bytes())
}

// ParseLines runs the classifier over an already split document.
func ParseLines(lines []string) []Department {
	s := newParseState()
	for _, line := range lines {
		line = strings.TrimRight(line, "\r")
		if strings.TrimSpace(line) == "" {
			continue
		}
		s.consume(line)
	}
	s.resolveStatenIsland()

	out := make([]Department, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.drafts[id].finalize())
	}
	return out
}

// consume classifies one non-blank line. The order of the checks is the
// classification priority.
func (s *parseState) consume(line string) {
	if strings.Contains(line, statenIslandMarker) {
		s.statenActive = true
		return
	}

	if m := headerPattern.FindStringSubmatch(line); m != nil {
		s.header(m[1], line)
		return
	}

	if strings.Contains(line, "@") {
		if s.current != nil {
			s.current.emails = append(s.current.emails, ExtractEmails(line)...)
		}
		return
	}

	if s.statenActive {
		s.statenText.WriteString(strings.TrimSpace(line))
		s.statenText.WriteByte(' ')
		return
	}

	// a department whose header carried no text takes no continuation lines
	if s.current != nil && s.current.info != "" {
		s.continuation(line)
	}
}

func (s *parseState) header(id, line string) {
	info := strings.TrimSpace(line[strings.Index(line, "-")+1:])
	s.statenActive = false

	if d, ok := s.drafts[id]; ok {
		if !strings.Contains(d.info, info) {
			d.appendText("\n\n", info)
		}
		s.current = d
	} else {
		d := newDraft(id, info)
		if d.hasEndTime {
			d.appendText("\n\n", EndTimeNotice)
		}
		s.add(d)
		s.current = d
	}

	s.checkOperator(line)
}

func (s *parseState) continuation(line string) {
	d := s.current
	trimmed := strings.TrimSpace(line)

	if !strings.Contains(d.info, trimmed) {
		if (mentionsMeasure(trimmed) && !d.seenMeasure) ||
			(mentionsEmail(trimmed) && !d.seenEmail) ||
			(mentionsPlease(trimmed) && !d.seenPlease) {
			d.appendText("\n\n", trimmed)
		} else {
			d.appendText(" ", trimmed)
		}
	}

	s.checkOperator(line)
}

func (s *parseState) checkOperator(line string) {
	if !strings.Contains(strings.ToLower(line), operatorName) {
		return
	}
	if !s.current.hasEmail(OperatorEmail) {
		s.current.emails = append(s.current.emails, OperatorEmail)
	}
}

func (s *parseState) resolveStatenIsland() {
	text := strings.TrimSpace(s.statenText.String())
	if text == "" {
		return
	}
	if d, ok := s.drafts[StatenIslandDeptID]; ok {
		d.appendText("\n\n", StatenIslandPrefix+text)
	}
}

func mentionsMeasure(s string) bool {
	return strings.Contains(s, "ft") || strings.Contains(s, "feet") || strings.Contains(s, "'")
}

func mentionsEmail(s string) bool {
	return strings.Contains(strings.ToLower(s), "email")
}

func mentionsPlease(s string) bool {
	return strings.Contains(s, "Please")
}
