package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func zapCount(n int) zap.Field { return zap.Int("departments", n) }

func (c *cli) refreshCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "refresh",
		Short: "Fetch the source and replace the stored directory",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, err := c.openDirectory(cmd, true)
			if err != nil {
				return err
			}
			defer dir.Close()

			snap, err := dir.Refresh(cmd.Context())
			if err != nil {
				return fmt.Errorf("refresh: %w", err)
			}

			out := cmd.OutOrStdout()
			if c.output != "text" {
				return printValue(out, c.output, snap)
			}
			fmt.Fprintf(out, "Stored %d departments from %s\n", snap.Count, snap.Source)
			fmt.Fprintf(out, "Snapshot %s at %s\n", snap.ID, snap.FetchedAt.Format(time.RFC3339))
			return nil
		},
	}
}
