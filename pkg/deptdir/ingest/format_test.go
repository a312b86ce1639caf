package ingest

import "testing"

func TestFormatInfo(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{
			name:  "empty",
			input: "",
			want:  "",
		},
		{
			name:  "single paragraph",
			input: "  Crew reports to gate 4.  ",
			want:  "Crew reports to gate 4.",
		},
		{
			name:  "drops empty and repeated paragraphs",
			input: "A\n\nB\n\nA\n\n   \n\nB ",
			want:  "A\n\nB",
		},
		{
			name:  "trims lines inside a paragraph",
			input: "  first line  \n   second line ",
			want:  "first line\nsecond line",
		},
		{
			name:  "merges measurement run",
			input: "Height 10 ft\n\nWidth 4 feet\n\nDepth 3'\n\nNotes",
			want:  "Height 10 ft\nWidth 4 feet\nDepth 3'\n\nNotes",
		},
		{
			name:  "merges email run regardless of case",
			input: "Notes\n\nEmail a\n\nemail b\n\nEMAIL c",
			want:  "Notes\n\nEmail a\nemail b\nEMAIL c",
		},
		{
			name:  "merge compares against growing tail",
			input: "Ladder 20 ft\n\nSend email with 6 ft notes\n\nemail again",
			want:  "Ladder 20 ft\nSend email with 6 ft notes\nemail again",
		},
		{
			name:  "ft without a number does not merge",
			input: "Bring a lift\n\nClear 10 ft",
			want:  "Bring a lift\n\nClear 10 ft",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := FormatInfo(tt.input)
			if got != tt.want {
				t.Errorf("FormatInfo(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestFormatInfoIdempotent(t *testing.T) {
	inputs := []string{
		NoSignatureNotice,
		"Scheduled crews\n\n" + EndTimeNotice,
		"Height 10 ft\n\nWidth 4 feet\n\nNotes\n\nEmail a\n\nemail b",
		"A\n\nB\n\nA\n\n\n\n  C  \n  D ",
		"SI Overhead\n\n" + StatenIslandPrefix + "No re-route messages. ",
	}

	for _, input := range inputs {
		once := FormatInfo(input)
		twice := FormatInfo(once)
		if once != twice {
			t.Errorf("FormatInfo not idempotent for %q:\n once: %q\ntwice: %q", input, once, twice)
		}
	}
}

func TestExtractEmails(t *testing.T) {
	tests := []struct {
		line string
		want []string
	}{
		{"Contact: a.b+tag@example.co.uk or c@sub.example.org for info", []string{"a.b+tag@example.co.uk", "c@sub.example.org"}},
		{"ops_desk%1@coned.com", []string{"ops_desk%1@coned.com"}},
		{"user@localhost", nil},
		{"@ mention only", nil},
		{"x@y.c", nil},
	}

	for _, tt := range tests {
		got := ExtractEmails(tt.line)
		if len(got) != len(tt.want) {
			t.Errorf("ExtractEmails(%q) = %v, want %v", tt.line, got, tt.want)
			continue
		}
		for i := range got {
			if got[i] != tt.want[i] {
				t.Errorf("ExtractEmails(%q)[%d] = %q, want %q", tt.line, i, got[i], tt.want[i])
			}
		}
	}
}
