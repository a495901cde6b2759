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
	"strings"
	"time"
)

// HealthStep identifies a stage of the backend health check.
type HealthStep string

const (
	// HealthStepInstalled checks the binary is on PATH.
	HealthStepInstalled HealthStep = "installed"

	// HealthStepAuthenticated checks the backend has credentials.
	HealthStepAuthenticated HealthStep = "authenticated"

	// HealthStepWorking checks a minimal request round-trips.
	HealthStepWorking HealthStep = "working"
)

// HealthResult reports the outcome of a three-step backend check.
type HealthResult struct {
	Installed     bool
	Authenticated bool
	Working       bool

	// Version is the backend version when it could be read.
	Version string

	// Err is the failure, if any; FailedStep says where it happened.
	Err        error
	FailedStep HealthStep

	// Message carries actionable guidance for the user.
	Message string
}

// Healthy reports whether every step passed.
func (h HealthResult) Healthy() bool {
	return h.Installed && h.Authenticated && h.Working && h.Err == nil
}

// HealthCheck verifies the backend is installed, authenticated, and able
// to serve a minimal request. The backend has no auth-status command, so
// authentication and connectivity are both verified by one tiny request.
func (r *Runner) HealthCheck(ctx context.Context) HealthResult {
	result := HealthResult{}

	found, err := r.Detect()
	if err != nil {
		result.Err = err
		result.FailedStep = HealthStepInstalled
		result.Message = "Failed to detect the Claude Code binary"
		return result
	}
	if !found {
		result.Err = fmt.Errorf("cli: backend binary not found in PATH")
		result.FailedStep = HealthStepInstalled
		result.Message = installGuidance
		return result
	}
	result.Installed = true

	if version, err := r.detectVersion(ctx); err == nil {
		result.Version = version
	}

	if err, isAuth := r.checkWorking(ctx); err != nil {
		if isAuth {
			result.Err = err
			result.FailedStep = HealthStepAuthenticated
			result.Message = authGuidance
			return result
		}
		result.Authenticated = true
		result.Err = err
		result.FailedStep = HealthStepWorking
		result.Message = workingGuidance(err)
		return result
	}
	result.Authenticated = true
	result.Working = true
	result.Message = "Backend is healthy and ready"
	return result
}

// checkWorking issues a minimal request. The bool result reports whether
// the failure looks like an authentication problem.
func (r *Runner) checkWorking(ctx context.Context) (error, bool) {
	ctx, cancel := context.WithTimeout(ctx, 20*time.Second)
	defer cancel()

	cmd := exec.CommandContext(ctx, r.binary, "-p", "respond with just: ok")
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		msg := stderr.String()
		if isAuthFailure(msg) {
			return fmt.Errorf("cli: authentication failed: %s", redact(msg)), true
		}
		return fmt.Errorf("cli: connectivity test failed: %w (stderr: %s)", err, redact(msg)), false
	}
	return nil, false
}

func isAuthFailure(stderr string) bool {
	s := strings.ToLower(stderr)
	for _, marker := range []string{"not authenticated", "not logged in", "authentication", "api key", "unauthorized"} {
		if strings.Contains(s, marker) {
			return true
		}
	}
	return false
}

const installGuidance = `Claude Code binary not found. To install:

  Visit https://claude.ai/download or use your package manager

Verify installation:
  claude --version

After installation, authenticate with:
  claude auth login`

const authGuidance = `Claude Code is not authenticated. To authenticate:

  claude auth login

This opens a browser window to complete authentication.
Once authenticated, try again.`

// workingGuidance tailors troubleshooting advice to the failure.
func workingGuidance(err error) string {
	msg := err.Error()

	if strings.Contains(msg, "timeout") || strings.Contains(msg, "deadline") {
		return `Connection timeout. Possible issues:
  - Network connectivity problems
  - Anthropic API service may be unavailable
  - Firewall blocking requests

Try again in a moment, or check your network connection.`
	}

	if strings.Contains(msg, "rate limit") {
		return "Rate limit reached. Please wait a moment and try again."
	}

	return fmt.Sprintf(`Backend test request failed: %v

Possible issues:
  - Network connectivity problems
  - Anthropic API service may be unavailable
  - Session may have expired

Try re-authenticating with:
  claude auth login`, err)
}
