package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/cognicore/deptdir/internal/server"
	"github.com/cognicore/deptdir/internal/watch"
	"github.com/cognicore/deptdir/pkg/deptdir"
)

func (c *cli) serveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the directory over HTTP",
		Long: `Serve exposes search, department lookup, clipboard email text and
refresh over HTTP.

When the database holds no snapshot yet and a source is configured, the
directory is refreshed once before listening. With --watch and a file
source, the directory is refreshed whenever the file changes.`,
		Args: cobra.NoArgs,
		RunE: c.runServe,
	}
	cmd.Flags().String("listen", "", "listen address (default from config)")
	cmd.Flags().Bool("watch", false, "refresh when the source file changes")
	return cmd
}

func (c *cli) runServe(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	dir, err := c.openDirectory(cmd, false)
	if err != nil {
		return err
	}
	defer dir.Close()

	if err := c.initialRefresh(ctx, dir); err != nil {
		return err
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return server.New(c.cfg.Listen, dir, c.logger.Named("http")).Serve(ctx)
	})

	if c.cfg.Watch {
		switch {
		case c.cfg.Source == "":
			c.logger.Warn("watch requested without a source, ignoring")
		case c.cfg.IsRemote():
			c.logger.Warn("watch only applies to file sources, ignoring", zap.String("source", c.cfg.Source))
		default:
			g.Go(func() error {
				return watch.File(ctx, c.cfg.Source, watch.DefaultDebounce, c.logger.Named("watch"), func() {
					snap, err := dir.Refresh(ctx)
					if err != nil {
						c.logger.Error("refresh after change failed", zap.Error(err))
						return
					}
					c.logger.Info("refreshed after change",
						zap.String("snapshot", snap.ID),
						zapCount(snap.Count))
				})
			})
		}
	}

	return g.Wait()
}

// initialRefresh populates an empty database from the configured source.
func (c *cli) initialRefresh(ctx context.Context, dir *deptdir.Directory) error {
	if c.cfg.Source == "" {
		return nil
	}
	_, ok, err := dir.Snapshot(ctx)
	if err != nil {
		return err
	}
	if ok {
		return nil
	}
	if _, err := dir.Refresh(ctx); err != nil {
		return fmt.Errorf("initial refresh: %w", err)
	}
	return nil
}
