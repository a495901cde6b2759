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

package cli

import (
	"fmt"
	"strings"

	"github.com/tombee/claudecode"
)

// buildArgs constructs the argument list for one invocation. Optional
// config fields that are zero are omitted so the backend applies its own
// defaults. Flags gated by capabilities are only emitted when the
// snapshot confirms support.
func buildArgs(cfg claudecode.Config, model string, caps claudecode.Capabilities) []string {
	args := []string{"-p", cfg.Prompt}

	if model != "" {
		args = append(args, "--model", model)
	}
	if cfg.SystemPrompt != "" {
		args = append(args, "--append-system-prompt", cfg.SystemPrompt)
	}
	if cfg.MaxTurns > 0 {
		args = append(args, "--max-turns", fmt.Sprintf("%d", cfg.MaxTurns))
	}
	if caps.Tools {
		if len(cfg.AllowedTools) > 0 {
			args = append(args, "--allowedTools", strings.Join(cfg.AllowedTools, ","))
		}
		if len(cfg.DisallowedTools) > 0 {
			args = append(args, "--disallowedTools", strings.Join(cfg.DisallowedTools, ","))
		}
	}
	if caps.StructuredOutput {
		args = append(args, "--output-format", "json", "--verbose")
	}

	return args
}

// streamArgs is buildArgs plus the streaming output format. Only called
// when the capability snapshot reports streaming support.
func streamArgs(cfg claudecode.Config, model string, caps claudecode.Capabilities) []string {
	args := buildArgs(cfg, model, claudecode.Capabilities{Tools: caps.Tools})
	return append(args, "--output-format", "stream-json", "--verbose")
}
