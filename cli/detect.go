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
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"regexp"
	"strings"
	"time"

	"github.com/tombee/claudecode"
)

var versionRegex = regexp.MustCompile(`(\d+\.\d+\.\d+)`)

// Detect checks whether the backend binary is available. The first
// successful lookup is cached for the lifetime of the Runner.
func (r *Runner) Detect() (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.detectLocked()
}

func (r *Runner) detectLocked() (bool, error) {
	if r.binary != "" {
		return true, nil
	}

	candidates := candidateCommands
	if r.command != "" {
		candidates = []string{r.command}
	}

	for _, cmd := range candidates {
		if path, err := exec.LookPath(cmd); err == nil {
			r.binary = cmd
			r.binPath = path
			return true, nil
		}
	}
	return false, nil
}

// Capabilities returns the capability snapshot for the detected binary,
// probing it on first use. The snapshot is cached; create a new Runner
// after upgrading the backend.
func (r *Runner) Capabilities(ctx context.Context) (claudecode.Capabilities, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.caps != nil {
		return *r.caps, nil
	}

	found, err := r.detectLocked()
	if err != nil {
		return claudecode.Capabilities{}, err
	}
	if !found {
		return claudecode.Capabilities{}, fmt.Errorf("cli: backend binary not found in PATH (tried %s)",
			strings.Join(candidateCommands, ", "))
	}

	caps := r.probe(ctx)
	r.caps = &caps
	return caps, nil
}

// probe builds a capability snapshot from the binary's version and help
// output. Anything the probe cannot confirm stays unsupported.
func (r *Runner) probe(ctx context.Context) claudecode.Capabilities {
	caps := claudecode.Capabilities{}

	if version, err := r.detectVersion(ctx); err == nil {
		caps.Version = version
	} else {
		r.logger.Debug("version probe failed", "error", err)
	}

	help, err := r.helpOutput(ctx)
	if err != nil {
		r.logger.Debug("help probe failed", "error", err)
		return caps
	}

	caps.StructuredOutput = strings.Contains(help, "--output-format")
	caps.Streaming = strings.Contains(help, "stream-json")
	caps.Tools = strings.Contains(help, "--allowedTools") || strings.Contains(help, "--allowed-tools")
	caps.MCP = strings.Contains(help, "--mcp-config")
	return caps
}

// detectVersion runs the binary with --version and extracts a semver
// string. Output formats seen in the wild: "claude version X.Y.Z",
// "X.Y.Z", "claude-code X.Y.Z".
func (r *Runner) detectVersion(ctx context.Context) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	cmd := exec.CommandContext(ctx, r.binary, "--version")
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("cli: version check failed: %w (stderr: %s)", err, redact(stderr.String()))
	}

	output := strings.TrimSpace(stdout.String())
	if matches := versionRegex.FindStringSubmatch(output); len(matches) > 1 {
		return matches[1], nil
	}
	if output != "" {
		return output, nil
	}
	return "unknown", nil
}

// helpOutput captures the binary's --help text for flag probing.
func (r *Runner) helpOutput(ctx context.Context) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	cmd := exec.CommandContext(ctx, r.binary, "--help")
	var stdout bytes.Buffer
	cmd.Stdout = &stdout
	// Some versions print usage to stderr on --help.
	cmd.Stderr = &stdout

	if err := cmd.Run(); err != nil && stdout.Len() == 0 {
		return "", fmt.Errorf("cli: help probe failed: %w", err)
	}
	return stdout.String(), nil
}
