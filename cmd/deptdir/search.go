package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/cognicore/deptdir/pkg/deptdir/cards"
	"github.com/cognicore/deptdir/pkg/deptdir/query"
)

func (c *cli) searchCmd() *cobra.Command {
	var req query.Request

	cmd := &cobra.Command{
		Use:   "search [term...]",
		Short: "Search stored departments by ID or text",
		Long: `Search matches the term against department IDs and info text,
case-insensitively. With no term every department is listed. The filters
narrow the result to Staten Island or end time departments.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			req.Term = strings.Join(args, " ")

			dir, err := c.openDirectory(cmd, false)
			if err != nil {
				return err
			}
			defer dir.Close()

			cs, err := dir.Search(cmd.Context(), req)
			if err != nil {
				return err
			}
			return c.printCards(cmd, cs)
		},
	}

	cmd.Flags().BoolVar(&req.StatenIslandOnly, "staten-island", false, "only Staten Island departments")
	cmd.Flags().BoolVar(&req.EndTimeOnly, "end-time", false, "only end time departments")
	return cmd
}

func (c *cli) showCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Show one department",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, err := c.openDirectory(cmd, false)
			if err != nil {
				return err
			}
			defer dir.Close()

			card, err := dir.Department(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if c.output != "text" {
				return printValue(cmd.OutOrStdout(), c.output, card)
			}
			return c.printCards(cmd, []cards.Card{card})
		},
	}
}

func (c *cli) emailsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "emails <id>",
		Short: "Print a department's emails as clipboard text",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, err := c.openDirectory(cmd, false)
			if err != nil {
				return err
			}
			defer dir.Close()

			text, err := dir.Emails(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if c.output != "text" {
				return printValue(cmd.OutOrStdout(), c.output, map[string]string{
					"id":     args[0],
					"emails": text,
				})
			}
			fmt.Fprintln(cmd.OutOrStdout(), text)
			return nil
		},
	}
}

func (c *cli) printCards(cmd *cobra.Command, cs []cards.Card) error {
	out := cmd.OutOrStdout()
	if c.output != "text" {
		return printValue(out, c.output, cs)
	}
	printCards(out, newPalette(colorEnabled(c.color, out)), cs)
	return nil
}
