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
	"testing"
)

func TestConfigValidate(t *testing.T) {
	if err := (Config{Prompt: "fix the tests"}).Validate(); err != nil {
		t.Errorf("minimal config should validate, got %v", err)
	}

	if err := (Config{}).Validate(); !errors.Is(err, ErrEmptyPrompt) {
		t.Errorf("expected ErrEmptyPrompt, got %v", err)
	}

	if err := (Config{Prompt: "   \n"}).Validate(); !errors.Is(err, ErrEmptyPrompt) {
		t.Errorf("expected whitespace-only prompt to be rejected, got %v", err)
	}
}

func TestPermitsTool_NoRestrictions(t *testing.T) {
	cfg := Config{Prompt: "x"}
	for _, tool := range []string{"file.read", "shell.run", "anything"} {
		if !cfg.PermitsTool(tool) {
			t.Errorf("empty permission set should permit %q", tool)
		}
	}
}

func TestPermitsTool_AllowList(t *testing.T) {
	cfg := Config{
		Prompt:       "x",
		AllowedTools: []string{"file.*", "http.request"},
	}

	cases := map[string]bool{
		"file.read":    true,
		"file.write":   true,
		"http.request": true,
		"shell.run":    false,
		"http.serve":   false,
	}
	for tool, want := range cases {
		if got := cfg.PermitsTool(tool); got != want {
			t.Errorf("PermitsTool(%q) = %v, want %v", tool, got, want)
		}
	}
}

func TestPermitsTool_DenyTakesPrecedence(t *testing.T) {
	cfg := Config{
		Prompt:          "x",
		AllowedTools:    []string{"file.*"},
		DisallowedTools: []string{"file.write", "!file.delete"},
	}

	if !cfg.PermitsTool("file.read") {
		t.Error("file.read should be permitted")
	}
	if cfg.PermitsTool("file.write") {
		t.Error("deny pattern should override allow pattern")
	}
	if cfg.PermitsTool("file.delete") {
		t.Error("deny pattern with leading ! should still apply")
	}
}

func TestPermitsTool_InvalidPatternFallsBackToExact(t *testing.T) {
	cfg := Config{
		Prompt:       "x",
		AllowedTools: []string{"file.[read"},
	}

	if !cfg.PermitsTool("file.[read") {
		t.Error("exact match on invalid pattern should be permitted")
	}
	if cfg.PermitsTool("file.read") {
		t.Error("invalid pattern should not glob-match")
	}
}
