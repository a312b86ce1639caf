package main

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/cognicore/deptdir/internal/fetch"
	"github.com/cognicore/deptdir/pkg/deptdir"
	"github.com/cognicore/deptdir/pkg/deptdir/config"
	"github.com/cognicore/deptdir/pkg/deptdir/store/sqlite"
)

// defaultConfigFile is picked up from the working directory when --config
// is not given.
const defaultConfigFile = "deptdir.yaml"

// cli holds flag values and the state built from them before a command runs.
type cli struct {
	cfgFile string
	output  string
	color   string
	debug   bool

	cfg    *config.Config
	logger *zap.Logger
}

func newRootCmd() *cobra.Command {
	c := &cli{}

	root := &cobra.Command{
		Use:   "deptdir",
		Short: "Department directory parser and search",
		Long: `deptdir turns the plaintext department directory into searchable
department cards.

It parses "<id> - <text>" headers, collects email addresses, folds
continuation lines into paragraphs and attaches the standing notices for
the Staten Island, end time and no-signature departments.

Settings come from a YAML file (--config, or ./deptdir.yaml), overridden
by DEPTDIR_* environment variables, overridden by flags.`,
		SilenceUsage:      true,
		PersistentPreRunE: c.setup,
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if c.logger != nil {
				_ = c.logger.Sync()
			}
		},
	}

	pf := root.PersistentFlags()
	pf.StringVar(&c.cfgFile, "config", "", "config file (default: ./deptdir.yaml if present)")
	pf.String("source", "", "directory source: file path or http(s) URL")
	pf.String("db", "", "SQLite database path")
	pf.StringVarP(&c.output, "output", "o", "text", "output format: text, json or yaml")
	pf.StringVar(&c.color, "color", "auto", "colorize text output: auto, always or never")
	pf.BoolVar(&c.debug, "debug", false, "enable debug logging")

	root.AddCommand(
		c.parseCmd(),
		c.refreshCmd(),
		c.searchCmd(),
		c.showCmd(),
		c.emailsCmd(),
		c.serveCmd(),
	)
	return root
}

// setup loads configuration and builds the logger.
func (c *cli) setup(cmd *cobra.Command, args []string) error {
	switch c.output {
	case "text", "json", "yaml":
	default:
		return fmt.Errorf("unknown output format %q", c.output)
	}
	switch c.color {
	case "auto", "always", "never":
	default:
		return fmt.Errorf("unknown color mode %q", c.color)
	}

	cfg, err := c.loadConfig()
	if err != nil {
		return err
	}

	v := viper.New()
	v.SetEnvPrefix("DEPTDIR")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("source", cfg.Source)
	v.SetDefault("db", cfg.DB)
	v.SetDefault("listen", cfg.Listen)
	v.SetDefault("watch", cfg.Watch)
	v.SetDefault("fetch.attempts", cfg.Fetch.Attempts)
	v.SetDefault("fetch.delay", cfg.Fetch.Delay)
	v.SetDefault("fetch.timeout", cfg.Fetch.Timeout)

	flags := cmd.Root().PersistentFlags()
	for _, name := range []string{"source", "db"} {
		if err := v.BindPFlag(name, flags.Lookup(name)); err != nil {
			return err
		}
	}
	// serve-only flags
	for _, name := range []string{"listen", "watch"} {
		if f := cmd.Flags().Lookup(name); f != nil {
			if err := v.BindPFlag(name, f); err != nil {
				return err
			}
		}
	}

	cfg.Source = v.GetString("source")
	cfg.DB = v.GetString("db")
	cfg.Listen = v.GetString("listen")
	cfg.Watch = v.GetBool("watch")
	cfg.Fetch.Attempts = v.GetUint("fetch.attempts")
	cfg.Fetch.Delay = v.GetDuration("fetch.delay")
	cfg.Fetch.Timeout = v.GetDuration("fetch.timeout")

	if err := cfg.Validate(); err != nil {
		return err
	}
	c.cfg = cfg

	zc := zap.NewProductionConfig()
	if c.debug {
		zc.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
	}
	logger, err := zc.Build()
	if err != nil {
		return fmt.Errorf("build logger: %w", err)
	}
	c.logger = logger.Named("deptdir")
	return nil
}

func (c *cli) loadConfig() (*config.Config, error) {
	if c.cfgFile != "" {
		cfg, err := config.Load(c.cfgFile)
		if err != nil {
			return nil, fmt.Errorf("load config: %w", err)
		}
		return cfg, nil
	}

	cfg, err := config.Load(defaultConfigFile)
	if errors.Is(err, fs.ErrNotExist) {
		return config.Default(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	return cfg, nil
}

func (c *cli) fetchOptions() fetch.Options {
	return fetch.Options{
		Attempts: c.cfg.Fetch.Attempts,
		Delay:    c.cfg.Fetch.Delay,
		Timeout:  c.cfg.Fetch.Timeout,
	}
}

// openDirectory opens the database and wires the configured source, if any.
func (c *cli) openDirectory(cmd *cobra.Command, needSource bool) (*deptdir.Directory, error) {
	if needSource {
		if err := c.cfg.RequireSource(); err != nil {
			return nil, err
		}
	}

	st, err := sqlite.OpenSQLite(cmd.Context(), c.cfg.DB)
	if err != nil {
		return nil, fmt.Errorf("open database %s: %w", c.cfg.DB, err)
	}

	opts := deptdir.Options{Store: st, Logger: c.logger}
	if c.cfg.Source != "" {
		opts.Source = fetch.New(c.cfg.Source, c.fetchOptions())
	}
	return deptdir.New(opts), nil
}
