// Package config holds hook configuration: compiled-in defaults,
// optionally overridden by a .ghcid-feedback.yaml in the project root.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// WaitStrategy selects how the run blocks for a new report.
type WaitStrategy string

const (
	// WaitPoll checks the report mtime at a fixed interval.
	WaitPoll WaitStrategy = "poll"
	// WaitNotify uses filesystem events, falling back to polling if
	// the watcher cannot be created. Same timeout contract as poll.
	WaitNotify WaitStrategy = "notify"
)

// FileName is the optional per-project config file.
const FileName = ".ghcid-feedback.yaml"

// Config controls one hook invocation.
type Config struct {
	// Extensions are the source file suffixes that participate in
	// staleness detection.
	Extensions []string

	// Command is the watch tool invocation; the report output flag is
	// appended by the spawner.
	Command []string

	// Timeout bounds the wait for a new report.
	Timeout time.Duration

	// FreshnessWindow is the trailing duration after a report write
	// within which the report is trusted without timestamp comparison.
	FreshnessWindow time.Duration

	// PollInterval is the wait loop's sleep between mtime checks.
	PollInterval time.Duration

	// WaitStrategy selects poll (default) or notify.
	WaitStrategy WaitStrategy

	// StateDir holds the PID file and report file. Defaults to the
	// system temp directory.
	StateDir string
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Extensions:      []string{".hs", ".lhs"},
		Command:         []string{"stack", "exec", "ghcid", "--"},
		Timeout:         20 * time.Second,
		FreshnessWindow: 3 * time.Second,
		PollInterval:    100 * time.Millisecond,
		WaitStrategy:    WaitPoll,
		StateDir:        os.TempDir(),
	}
}

// fileConfig is the on-disk YAML schema. Durations are strings
// ("20s", "100ms") because yaml.v3 has no native time.Duration support.
type fileConfig struct {
	Extensions      []string `yaml:"extensions"`
	Command         []string `yaml:"command"`
	Timeout         string   `yaml:"timeout"`
	FreshnessWindow string   `yaml:"freshness_window"`
	PollInterval    string   `yaml:"poll_interval"`
	WaitStrategy    string   `yaml:"wait_strategy"`
	StateDir        string   `yaml:"state_dir"`
}

// Load returns the defaults merged with the project config file, if one
// exists at root. A missing file is not an error; a malformed one is.
func Load(root string) (Config, error) {
	return LoadFile(filepath.Join(root, FileName))
}

// LoadFile loads configuration from an explicit path over the defaults.
func LoadFile(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("failed to read config %s: %w", path, err)
	}

	var fc fileConfig
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return cfg, fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	if err := cfg.apply(fc); err != nil {
		return cfg, fmt.Errorf("invalid config %s: %w", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return cfg, nil
}

// apply overlays the non-empty fields of a file config onto c.
func (c *Config) apply(fc fileConfig) error {
	if len(fc.Extensions) > 0 {
		c.Extensions = fc.Extensions
	}
	if len(fc.Command) > 0 {
		c.Command = fc.Command
	}
	if fc.WaitStrategy != "" {
		c.WaitStrategy = WaitStrategy(fc.WaitStrategy)
	}
	if fc.StateDir != "" {
		c.StateDir = fc.StateDir
	}

	for _, f := range []struct {
		raw string
		dst *time.Duration
		key string
	}{
		{fc.Timeout, &c.Timeout, "timeout"},
		{fc.FreshnessWindow, &c.FreshnessWindow, "freshness_window"},
		{fc.PollInterval, &c.PollInterval, "poll_interval"},
	} {
		if f.raw == "" {
			continue
		}
		d, err := time.ParseDuration(f.raw)
		if err != nil {
			return fmt.Errorf("%s: %w", f.key, err)
		}
		*f.dst = d
	}
	return nil
}

// Validate rejects configurations the state machine cannot run with.
func (c Config) Validate() error {
	if len(c.Command) == 0 {
		return fmt.Errorf("command must not be empty")
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive, got %s", c.Timeout)
	}
	if c.FreshnessWindow <= 0 {
		return fmt.Errorf("freshness_window must be positive, got %s", c.FreshnessWindow)
	}
	if c.PollInterval <= 0 {
		return fmt.Errorf("poll_interval must be positive, got %s", c.PollInterval)
	}
	if c.WaitStrategy != WaitPoll && c.WaitStrategy != WaitNotify {
		return fmt.Errorf("unknown wait_strategy %q", c.WaitStrategy)
	}
	return nil
}
