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

package claudecode

import (
	"errors"
	"strings"
	"time"

	"github.com/bmatcuk/doublestar/v4"
)

// Config describes one agent invocation.
//
// A Config is built by the host, handed to an Invoker, and never mutated
// afterwards. Constructing a Config cannot fail; contextual validity is
// checked by the invocation collaborator via Validate. Optional fields
// left at their zero value mean "use the backend default", never "none".
type Config struct {
	// Prompt is the task for the agent. Required, non-empty.
	Prompt string

	// SystemPrompt provides system-level instructions. Optional.
	SystemPrompt string

	// WorkingDir scopes the agent to a directory. Required when the task
	// touches the file system, optional otherwise.
	WorkingDir string

	// Model is a model ID or a tier name ("fast", "balanced",
	// "strategic"). Empty means the backend default model.
	Model string

	// Timeout bounds the invocation. Zero means the backend default
	// timeout, not "no timeout".
	Timeout time.Duration

	// AllowedTools restricts which tools the agent may invoke. Each entry
	// is an exact tool name or a glob pattern ("file.*"). An empty list
	// means no restriction beyond backend defaults.
	AllowedTools []string

	// DisallowedTools blocks tools even when AllowedTools would permit
	// them. Deny patterns take precedence.
	DisallowedTools []string

	// MaxTurns caps agent turns for multi-step tasks. Zero means the
	// backend default.
	MaxTurns int

	// Metadata carries host-side correlation values (run IDs, tenant
	// names). The backend never interprets it.
	Metadata map[string]string
}

// ErrEmptyPrompt is returned by Validate when the prompt is missing.
var ErrEmptyPrompt = errors.New("claudecode: prompt must not be empty")

// Validate checks the fields required for a minimal invocation. It is
// called by invocation collaborators before dispatch; a failure there is
// surfaced as ErrorCodeInvalidRequest, not as a transport error.
func (c Config) Validate() error {
	if strings.TrimSpace(c.Prompt) == "" {
		return ErrEmptyPrompt
	}
	return nil
}

// PermitsTool reports whether the tool permission set allows the named
// tool. Deny patterns win over allow patterns; an empty allow list
// permits everything not explicitly denied.
func (c Config) PermitsTool(name string) bool {
	for _, pattern := range c.DisallowedTools {
		if matchesToolPattern(name, strings.TrimPrefix(pattern, "!")) {
			return false
		}
	}
	if len(c.AllowedTools) == 0 {
		return true
	}
	for _, pattern := range c.AllowedTools {
		if matchesToolPattern(name, pattern) {
			return true
		}
	}
	return false
}

// matchesToolPattern checks a tool name against an exact name or a glob
// pattern like "file.*". Invalid patterns fall back to exact matching.
func matchesToolPattern(name, pattern string) bool {
	if name == pattern {
		return true
	}
	matched, err := doublestar.Match(pattern, name)
	if err != nil {
		return false
	}
	return matched
}
