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

// Package log provides structured logging for the claudecode library.
package log

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

// Format represents the log output format.
type Format string

const (
	// FormatJSON outputs logs in JSON format for machine parsing.
	FormatJSON Format = "json"
	// FormatText outputs logs in human-readable text format.
	FormatText Format = "text"
)

// LevelTrace is more verbose than Debug, used for detailed tracing
// (CLI argument lists, raw backend output).
const LevelTrace = slog.Level(-8)

// Standard field keys for structured logging. These constants keep
// field naming consistent across the codebase.
const (
	// InvocationIDKey is the field key for invocation identifiers.
	InvocationIDKey = "invocation_id"
	// ModelKey is the field key for model IDs.
	ModelKey = "model"
	// ErrorCodeKey is the field key for boundary error codes.
	ErrorCodeKey = "error_code"
	// DurationKey is the field key for duration in milliseconds.
	DurationKey = "duration_ms"
	// BackendKey is the field key for the backend command name.
	BackendKey = "backend"
)

// Config holds the logging configuration.
type Config struct {
	// Level sets the minimum log level (trace, debug, info, warn, error).
	// Default: info
	Level string

	// Format sets the output format (json, text).
	// Default: json
	Format Format

	// Output is the writer for log output.
	// Default: os.Stderr
	Output io.Writer

	// AddSource adds source file and line information to logs.
	// Default: false
	AddSource bool
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Level:     "info",
		Format:    FormatJSON,
		Output:    os.Stderr,
		AddSource: false,
	}
}

// FromEnv creates a Config from environment variables.
// Supported environment variables:
//   - CLAUDECODE_DEBUG: true/1 to enable debug level and source logging
//   - CLAUDECODE_LOG_LEVEL: trace, debug, info, warn, error (default: info)
//   - CLAUDECODE_LOG_FORMAT: json, text (default: json)
func FromEnv() *Config {
	cfg := DefaultConfig()

	debug := os.Getenv("CLAUDECODE_DEBUG")
	if debug == "true" || debug == "1" {
		cfg.Level = "debug"
		cfg.AddSource = true
	}

	if debug == "" {
		if level := os.Getenv("CLAUDECODE_LOG_LEVEL"); level != "" {
			cfg.Level = strings.ToLower(level)
		}
	}

	if format := os.Getenv("CLAUDECODE_LOG_FORMAT"); format != "" {
		cfg.Format = Format(strings.ToLower(format))
	}

	return cfg
}

// New creates a new structured logger from the given configuration.
func New(cfg *Config) *slog.Logger {
	if cfg == nil {
		cfg = DefaultConfig()
	}

	output := cfg.Output
	if output == nil {
		output = os.Stderr
	}

	opts := &slog.HandlerOptions{
		Level:     parseLevel(cfg.Level),
		AddSource: cfg.AddSource,
	}

	var handler slog.Handler
	switch cfg.Format {
	case FormatText:
		handler = slog.NewTextHandler(output, opts)
	case FormatJSON:
		fallthrough
	default:
		handler = slog.NewJSONHandler(output, opts)
	}

	return slog.New(handler)
}

// parseLevel converts a string level to slog.Level.
func parseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "trace":
		return LevelTrace
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// WithInvocationID returns a new logger with an invocation ID field.
func WithInvocationID(logger *slog.Logger, id string) *slog.Logger {
	return logger.With(InvocationIDKey, id)
}

// WithComponent returns a new logger with a component name field.
func WithComponent(logger *slog.Logger, component string) *slog.Logger {
	return logger.With("component", component)
}
