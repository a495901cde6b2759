// Copyright 2025 Tom Barlow
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package config loads library and tool configuration from a YAML file
// with environment variable overrides.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// ErrInvalidConfig is returned when configuration validation fails.
var ErrInvalidConfig = errors.New("config: invalid configuration")

// Config is the complete configuration for the claudecode library and
// its command-line tool.
type Config struct {
	// CLI configures how the backend binary is located and run.
	CLI CLIConfig `yaml:"cli"`

	// Models maps tier names to concrete model IDs.
	Models ModelTierMap `yaml:"models,omitempty"`

	// Log configures structured logging.
	Log LogConfig `yaml:"log,omitempty"`

	// History configures the invocation history store.
	History HistoryConfig `yaml:"history,omitempty"`
}

// CLIConfig configures backend binary invocation.
type CLIConfig struct {
	// Command overrides the binary to run. Empty means auto-detect
	// ("claude", then "claude-code") on PATH.
	// Environment: CLAUDECODE_CLI
	Command string `yaml:"command,omitempty"`

	// DefaultTimeout bounds invocations whose Config carries no
	// timeout of its own.
	// Default: 5m
	DefaultTimeout time.Duration `yaml:"default_timeout,omitempty"`
}

// LogConfig configures structured logging output.
type LogConfig struct {
	// Level is the minimum level (trace, debug, info, warn, error).
	Level string `yaml:"level,omitempty"`

	// Format is json or text.
	Format string `yaml:"format,omitempty"`
}

// HistoryConfig configures the SQLite invocation history.
type HistoryConfig struct {
	// Enabled turns history recording on.
	Enabled bool `yaml:"enabled"`

	// Path is the database file. Empty means
	// $XDG_DATA_HOME/claudecode/history.db.
	Path string `yaml:"path,omitempty"`
}

// ModelTierMap maps tier names to model IDs. Tiers let hosts ask for
// "fast" or "strategic" without pinning a model generation.
type ModelTierMap struct {
	Fast      string `yaml:"fast,omitempty"`
	Balanced  string `yaml:"balanced,omitempty"`
	Strategic string `yaml:"strategic,omitempty"`
}

// IsEmpty returns true if no tier mappings are configured.
func (m ModelTierMap) IsEmpty() bool {
	return m.Fast == "" && m.Balanced == "" && m.Strategic == ""
}

// Default model IDs per tier, used when the user has not mapped a tier.
const (
	defaultFastModel      = "claude-3-5-haiku-20241022"
	defaultBalancedModel  = "claude-sonnet-4-20250514"
	defaultStrategicModel = "claude-opus-4-20250514"
)

// Resolve maps a tier name to its model ID. Anything that is not a tier
// name is assumed to already be a model ID and returned unchanged.
func (m ModelTierMap) Resolve(model string) string {
	switch model {
	case "fast":
		if m.Fast != "" {
			return m.Fast
		}
		return defaultFastModel
	case "balanced":
		if m.Balanced != "" {
			return m.Balanced
		}
		return defaultBalancedModel
	case "strategic":
		if m.Strategic != "" {
			return m.Strategic
		}
		return defaultStrategicModel
	default:
		return model
	}
}

// Default returns a Config with sensible defaults.
func Default() *Config {
	return &Config{
		CLI: CLIConfig{
			DefaultTimeout: 5 * time.Minute,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

// Load reads configuration from the given path, falling back to
// defaults when the file does not exist, then applies environment
// overrides. An empty path means DefaultPath().
func Load(path string) (*Config, error) {
	cfg := Default()

	if path == "" {
		path = DefaultPath()
	}

	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist), path == "":
		// No file is fine; env overrides still apply.
	case err != nil:
		return nil, fmt.Errorf("config: reading %s: %w", path, err)
	default:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrInvalidConfig, path, err)
		}
	}

	cfg.applyEnv()

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// DefaultPath returns the config file location, honoring XDG_CONFIG_HOME.
func DefaultPath() string {
	if dir := os.Getenv("XDG_CONFIG_HOME"); dir != "" {
		return filepath.Join(dir, "claudecode", "config.yaml")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", "claudecode", "config.yaml")
}

// DefaultHistoryPath returns the history database location, honoring
// XDG_DATA_HOME.
func DefaultHistoryPath() string {
	if dir := os.Getenv("XDG_DATA_HOME"); dir != "" {
		return filepath.Join(dir, "claudecode", "history.db")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".local", "share", "claudecode", "history.db")
}

// applyEnv layers environment variables over file values. Environment
// always wins.
func (c *Config) applyEnv() {
	if v := os.Getenv("CLAUDECODE_CLI"); v != "" {
		c.CLI.Command = v
	}
	if v := os.Getenv("CLAUDECODE_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			c.CLI.DefaultTimeout = d
		}
	}
	if v := os.Getenv("CLAUDECODE_LOG_LEVEL"); v != "" {
		c.Log.Level = v
	}
	if v := os.Getenv("CLAUDECODE_LOG_FORMAT"); v != "" {
		c.Log.Format = v
	}
	if v := os.Getenv("CLAUDECODE_HISTORY"); v == "1" || v == "true" {
		c.History.Enabled = true
	}
	if v := os.Getenv("CLAUDECODE_HISTORY_PATH"); v != "" {
		c.History.Path = v
	}
}

func (c *Config) validate() error {
	if c.CLI.DefaultTimeout < 0 {
		return fmt.Errorf("%w: cli.default_timeout must not be negative", ErrInvalidConfig)
	}
	switch c.Log.Format {
	case "", "json", "text":
	default:
		return fmt.Errorf("%w: log.format must be json or text, got %q", ErrInvalidConfig, c.Log.Format)
	}
	return nil
}
