// Package config handles configuration parsing for claude-bridge.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Run modes.
const (
	ModeStructured  = "structured"  // JSON commands in, JSON events out
	ModeInteractive = "interactive" // raw byte passthrough
)

// DefaultConfigPath returns the default config file path:
// $XDG_CONFIG_HOME/claude-bridge/config.yaml or ~/.config/claude-bridge/config.yaml
func DefaultConfigPath() string {
	dir := os.Getenv("XDG_CONFIG_HOME")
	if dir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return ""
		}
		dir = filepath.Join(home, ".config")
	}
	return filepath.Join(dir, "claude-bridge", "config.yaml")
}

// Config represents the top-level configuration.
type Config struct {
	Mode            string        `yaml:"mode"`             // "structured" or "interactive"
	WorkingDir      string        `yaml:"working_dir"`      // working directory for the wrapped CLI
	SkipPermissions bool          `yaml:"skip_permissions"` // bypass the CLI's confirmation prompts
	Command         CommandConfig `yaml:"command"`
	Send            SendConfig    `yaml:"send"`
	Timeouts        TimeoutConfig `yaml:"timeouts"`
	Retry           RetryConfig   `yaml:"retry"`
	Logging         LoggingConfig `yaml:"logging"`
}

// CommandConfig controls how the wrapped CLI is resolved.
type CommandConfig struct {
	Path string   `yaml:"path"` // explicit executable path (overrides detection)
	Args []string `yaml:"args"` // extra arguments appended after resolved args
}

// SendConfig controls chunked message delivery pacing.
type SendConfig struct {
	ChunkSize       int           `yaml:"chunk_size"`        // bytes per write (default 1024)
	InterChunkDelay time.Duration `yaml:"inter_chunk_delay"` // pause between chunks (default 200ms)
	SettleDelay     time.Duration `yaml:"settle_delay"`      // pause before the commit keystroke (default 300ms)
}

// TimeoutConfig holds the engine's timing heuristics.
type TimeoutConfig struct {
	Startup    time.Duration `yaml:"startup"`    // bound on reaching initial readiness (default 30s)
	Response   time.Duration `yaml:"response"`   // hard cap on one response (default 180s)
	Inactivity time.Duration `yaml:"inactivity"` // quiet period that completes a response (default 5s)
	Debounce   time.Duration `yaml:"debounce"`   // output batching window (default 500ms)
	Poll       time.Duration `yaml:"poll"`       // readiness-wait interval per loop iteration (default 100ms)
	Terminate  time.Duration `yaml:"terminate"`  // graceful shutdown bound before SIGKILL (default 5s)
}

// RetryConfig controls the per-request retry loop.
type RetryConfig struct {
	MaxRetries int `yaml:"max_retries"` // attempts per logical request (default 3)
}

// LoggingConfig defines logging settings.
type LoggingConfig struct {
	Level    string `yaml:"level"`    // "debug", "info", "warn", "error"
	Sanitize bool   `yaml:"sanitize"` // sanitize sensitive data from logs
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Mode: ModeStructured,
		Send: SendConfig{
			ChunkSize:       1024,
			InterChunkDelay: 200 * time.Millisecond,
			SettleDelay:     300 * time.Millisecond,
		},
		Timeouts: TimeoutConfig{
			Startup:    30 * time.Second,
			Response:   180 * time.Second,
			Inactivity: 5 * time.Second,
			Debounce:   500 * time.Millisecond,
			Poll:       100 * time.Millisecond,
			Terminate:  5 * time.Second,
		},
		Retry: RetryConfig{
			MaxRetries: 3,
		},
		Logging: LoggingConfig{
			Level:    "info",
			Sanitize: true,
		},
	}
}

// Load loads configuration from a YAML file. A missing file yields defaults.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config file: %w", err)
	}

	return cfg, nil
}

// Validate validates the configuration, filling zero values with defaults.
func (c *Config) Validate() error {
	switch c.Mode {
	case "":
		c.Mode = ModeStructured
	case ModeStructured, ModeInteractive:
	default:
		return fmt.Errorf("invalid mode %q (want %q or %q)", c.Mode, ModeStructured, ModeInteractive)
	}

	// An unusable working_dir is not fatal: the wrapped CLI falls back to
	// the inherited directory.
	if c.WorkingDir != "" {
		info, err := os.Stat(c.WorkingDir)
		switch {
		case err != nil:
			slog.Warn("working_dir unavailable, using inherited directory",
				slog.String("working_dir", c.WorkingDir),
				slog.String("error", err.Error()),
			)
			c.WorkingDir = ""
		case !info.IsDir():
			slog.Warn("working_dir is not a directory, using inherited directory",
				slog.String("working_dir", c.WorkingDir),
			)
			c.WorkingDir = ""
		}
	}

	def := DefaultConfig()
	if c.Send.ChunkSize <= 0 {
		c.Send.ChunkSize = def.Send.ChunkSize
	}
	if c.Send.InterChunkDelay <= 0 {
		c.Send.InterChunkDelay = def.Send.InterChunkDelay
	}
	if c.Send.SettleDelay <= 0 {
		c.Send.SettleDelay = def.Send.SettleDelay
	}
	if c.Timeouts.Startup <= 0 {
		c.Timeouts.Startup = def.Timeouts.Startup
	}
	if c.Timeouts.Response <= 0 {
		c.Timeouts.Response = def.Timeouts.Response
	}
	if c.Timeouts.Inactivity <= 0 {
		c.Timeouts.Inactivity = def.Timeouts.Inactivity
	}
	if c.Timeouts.Debounce <= 0 {
		c.Timeouts.Debounce = def.Timeouts.Debounce
	}
	if c.Timeouts.Poll <= 0 {
		c.Timeouts.Poll = def.Timeouts.Poll
	}
	if c.Timeouts.Terminate <= 0 {
		c.Timeouts.Terminate = def.Timeouts.Terminate
	}
	if c.Retry.MaxRetries <= 0 {
		c.Retry.MaxRetries = def.Retry.MaxRetries
	}
	if c.Logging.Level == "" {
		c.Logging.Level = def.Logging.Level
	}

	return nil
}
