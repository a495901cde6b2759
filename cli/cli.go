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

// Package cli invokes the Claude Code command-line binary and normalizes
// its output into the claudecode boundary contract. It is the invocation
// collaborator: every failure it detects is mapped to exactly one
// claudecode.ErrorCode inside a failed Result, and everything it returns
// has passed the boundary validator.
package cli

import (
	"log/slog"
	"sync"
	"time"

	"github.com/tombee/claudecode"
	"github.com/tombee/claudecode/internal/config"
	intlog "github.com/tombee/claudecode/internal/log"
)

// candidateCommands are tried in order when no explicit command is
// configured.
var candidateCommands = []string{"claude", "claude-code"}

// Runner invokes the Claude Code CLI. It implements claudecode.Invoker
// and claudecode.CapabilityQuerier.
//
// A Runner is safe for concurrent use. Detection and capability probing
// run once per Runner; replace the Runner to pick up a new binary.
type Runner struct {
	logger         *slog.Logger
	tiers          config.ModelTierMap
	defaultTimeout time.Duration
	command        string // explicit command override, empty = auto-detect

	mu      sync.Mutex
	binary  string // resolved command name
	binPath string // resolved absolute path
	caps    *claudecode.Capabilities
}

// Option configures a Runner.
type Option func(*Runner)

// WithCommand pins the backend binary instead of auto-detecting it.
func WithCommand(command string) Option {
	return func(r *Runner) { r.command = command }
}

// WithModelTiers sets the tier-to-model mapping used to resolve tier
// names in Config.Model.
func WithModelTiers(tiers config.ModelTierMap) Option {
	return func(r *Runner) { r.tiers = tiers }
}

// WithDefaultTimeout bounds invocations whose Config carries no timeout.
func WithDefaultTimeout(d time.Duration) Option {
	return func(r *Runner) { r.defaultTimeout = d }
}

// WithLogger sets the structured logger. Defaults to a logger built
// from the environment.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Runner) { r.logger = logger }
}

// New creates a Runner.
func New(opts ...Option) *Runner {
	r := &Runner{
		defaultTimeout: 5 * time.Minute,
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.logger == nil {
		r.logger = intlog.New(intlog.FromEnv())
	}
	r.logger = intlog.WithComponent(r.logger, "cli")
	return r
}

var (
	_ claudecode.Invoker           = (*Runner)(nil)
	_ claudecode.CapabilityQuerier = (*Runner)(nil)
)
