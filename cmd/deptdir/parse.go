package main

import (
	"github.com/spf13/cobra"

	"github.com/cognicore/deptdir/internal/fetch"
	"github.com/cognicore/deptdir/pkg/deptdir/cards"
	"github.com/cognicore/deptdir/pkg/deptdir/ingest"
)

func (c *cli) parseCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "parse [file|url|-]",
		Short: "Parse a directory document without storing it",
		Long: `Parse reads a directory document and prints the departments it yields.

The document comes from the argument (a file path, an http(s) URL, or "-"
for stdin) or, without an argument, from the configured source. Nothing is
written to the database.`,
		Args: cobra.MaximumNArgs(1),
		RunE: c.runParse,
	}
}

func (c *cli) runParse(cmd *cobra.Command, args []string) error {
	var (
		depts []ingest.Department
		err   error
	)

	switch {
	case len(args) == 1 && args[0] == "-":
		depts, err = ingest.ParseReader(cmd.InOrStdin())
	default:
		location := c.cfg.Source
		if len(args) == 1 {
			location = args[0]
		} else if err := c.cfg.RequireSource(); err != nil {
			return err
		}
		var text string
		text, err = fetch.New(location, c.fetchOptions()).Fetch(cmd.Context())
		if err == nil {
			depts = ingest.Parse(text)
		}
	}
	if err != nil {
		return err
	}

	c.logger.Debug("parsed directory", zapCount(len(depts)))

	out := cmd.OutOrStdout()
	if c.output != "text" {
		return printValue(out, c.output, depts)
	}

	b := cards.New()
	cs := make([]cards.Card, 0, len(depts))
	for _, d := range depts {
		cs = append(cs, b.Build(d))
	}
	printCards(out, newPalette(colorEnabled(c.color, out)), cs)
	return nil
}
