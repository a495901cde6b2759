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
	"slices"
	"strings"
	"testing"
	"time"

	"github.com/tombee/claudecode"
)

func TestBuildArgs_Minimal(t *testing.T) {
	args := buildArgs(claudecode.Config{Prompt: "fix the tests"}, "", claudecode.Capabilities{})

	want := []string{"-p", "fix the tests"}
	if !slices.Equal(args, want) {
		t.Errorf("expected %v, got %v", want, args)
	}
}

func TestBuildArgs_AllOptions(t *testing.T) {
	cfg := claudecode.Config{
		Prompt:          "refactor",
		SystemPrompt:    "be careful",
		MaxTurns:        5,
		AllowedTools:    []string{"file.*", "http.request"},
		DisallowedTools: []string{"shell.run"},
		Timeout:         time.Minute,
	}
	caps := claudecode.Capabilities{Tools: true, StructuredOutput: true}

	args := buildArgs(cfg, "claude-sonnet-4-20250514", caps)
	joined := strings.Join(args, " ")

	for _, want := range []string{
		"--model claude-sonnet-4-20250514",
		"--append-system-prompt be careful",
		"--max-turns 5",
		"--allowedTools file.*,http.request",
		"--disallowedTools shell.run",
		"--output-format json",
	} {
		if !strings.Contains(joined, want) {
			t.Errorf("expected args to contain %q, got %q", want, joined)
		}
	}
}

func TestBuildArgs_CapabilityGating(t *testing.T) {
	cfg := claudecode.Config{
		Prompt:       "x",
		AllowedTools: []string{"file.*"},
	}

	// A backend without tool or structured-output support must not
	// receive the corresponding flags.
	args := buildArgs(cfg, "", claudecode.Capabilities{})
	joined := strings.Join(args, " ")

	if strings.Contains(joined, "--allowedTools") {
		t.Error("tool flags must be gated on the capability snapshot")
	}
	if strings.Contains(joined, "--output-format") {
		t.Error("output format must be gated on the capability snapshot")
	}
}

func TestStreamArgs(t *testing.T) {
	cfg := claudecode.Config{Prompt: "x"}
	caps := claudecode.Capabilities{Streaming: true, StructuredOutput: true, Tools: true}

	args := streamArgs(cfg, "", caps)
	joined := strings.Join(args, " ")

	if !strings.Contains(joined, "--output-format stream-json") {
		t.Errorf("expected stream-json output format, got %q", joined)
	}
	if strings.Count(joined, "--output-format") != 1 {
		t.Errorf("output format must appear exactly once, got %q", joined)
	}
}
