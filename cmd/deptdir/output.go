package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fatih/color"
	"golang.org/x/term"
	"gopkg.in/yaml.v3"

	"github.com/cognicore/deptdir/pkg/deptdir/cards"
)

// printValue writes v as JSON or YAML.
func printValue(w io.Writer, format string, v any) error {
	switch format {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	case "yaml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return err
		}
		return enc.Close()
	default:
		return fmt.Errorf("unsupported output format %q", format)
	}
}

// palette holds the colors used for text cards.
type palette struct {
	title    *color.Color
	staten   *color.Color
	endTime  *color.Color
	email    *color.Color
	dim      *color.Color
	emphasis *color.Color
}

func newPalette(enabled bool) palette {
	p := palette{
		title:    color.New(color.FgWhite, color.Bold),
		staten:   color.New(color.FgYellow, color.Bold),
		endTime:  color.New(color.FgMagenta, color.Bold),
		email:    color.New(color.FgCyan),
		dim:      color.New(color.Faint),
		emphasis: color.New(color.FgGreen, color.Bold),
	}
	for _, c := range []*color.Color{p.title, p.staten, p.endTime, p.email, p.dim, p.emphasis} {
		if enabled {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
	}
	return p
}

// colorEnabled resolves --color against the output writer.
func colorEnabled(mode string, w io.Writer) bool {
	switch mode {
	case "always":
		return true
	case "never":
		return false
	}
	if os.Getenv("NO_COLOR") != "" {
		return false
	}
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// printCards renders cards for a terminal.
func printCards(w io.Writer, p palette, cs []cards.Card) {
	if len(cs) == 0 {
		fmt.Fprintln(w, "No departments found.")
		return
	}

	for i, card := range cs {
		if i > 0 {
			fmt.Fprintln(w)
		}
		printCard(w, p, card)
	}
	fmt.Fprintln(w)
	p.dim.Fprintf(w, "%d department(s)\n", len(cs))
}

func printCard(w io.Writer, p palette, card cards.Card) {
	p.title.Fprintf(w, "── %s ", card.Title)
	for _, b := range card.Badges {
		switch b {
		case cards.BadgeStatenIsland:
			p.staten.Fprintf(w, "[%s] ", b)
		case cards.BadgeEndTime:
			p.endTime.Fprintf(w, "[%s] ", b)
		default:
			fmt.Fprintf(w, "[%s] ", b)
		}
	}
	fmt.Fprintln(w)

	if card.Highlight != nil {
		p.emphasis.Fprintf(w, "  match in %s: ", card.Highlight.Field)
		fmt.Fprintln(w, card.Highlight.Snippet)
	}

	for _, para := range card.Paragraphs {
		for _, line := range strings.Split(para, "\n") {
			fmt.Fprintf(w, "  %s\n", line)
		}
		fmt.Fprintln(w)
	}

	if len(card.Emails) == 0 {
		p.dim.Fprintln(w, "  no email addresses")
		return
	}
	p.dim.Fprint(w, "  emails: ")
	p.email.Fprintln(w, cards.ClipboardText(card.Emails))
}
