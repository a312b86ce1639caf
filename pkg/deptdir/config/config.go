package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/cognicore/deptdir/pkg/deptdir/internalerr"
)

// Config is the deptdir configuration file
type Config struct {
	Source string `yaml:"source"`
	DB     string `yaml:"db"`
	Listen string `yaml:"listen"`
	Watch  bool   `yaml:"watch"`
	Fetch  Fetch  `yaml:"fetch"`
}

// Fetch holds retry settings for remote sources
type Fetch struct {
	Attempts uint          `yaml:"attempts"`
	Delay    time.Duration `yaml:"delay"`
	Timeout  time.Duration `yaml:"timeout"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		DB:     "deptdir.db",
		Listen: "127.0.0.1:8080",
		Fetch: Fetch{
			Attempts: 3,
			Delay:    time.Second,
			Timeout:  15 * time.Second,
		},
	}
}

// Load reads a YAML config file over the defaults. Keys missing from the
// file keep their default values.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}

	return cfg, nil
}

// Validate checks that the configuration can be used.
func (c *Config) Validate() error {
	var problems []string

	if strings.TrimSpace(c.DB) == "" {
		problems = append(problems, "db path is required")
	}
	if c.Fetch.Attempts == 0 {
		problems = append(problems, "fetch.attempts must be at least 1")
	}
	if c.Fetch.Delay < 0 {
		problems = append(problems, "fetch.delay must not be negative")
	}
	if c.Fetch.Timeout <= 0 {
		problems = append(problems, "fetch.timeout must be positive")
	}

	if len(problems) > 0 {
		return fmt.Errorf("%w: %s", internalerr.ErrInvalidConfig, strings.Join(problems, "; "))
	}
	return nil
}

// RequireSource reports an error when no source location is configured.
func (c *Config) RequireSource() error {
	if strings.TrimSpace(c.Source) == "" {
		return fmt.Errorf("%w: source is required", internalerr.ErrInvalidConfig)
	}
	return nil
}

// IsRemote reports whether the source is fetched over HTTP.
func (c *Config) IsRemote() bool {
	return strings.HasPrefix(c.Source, "http://") || strings.HasPrefix(c.Source, "https://")
}
