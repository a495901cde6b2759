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
	"errors"
	"fmt"
	"log/slog"
	"os/exec"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/tombee/claudecode"
	intlog "github.com/tombee/claudecode/internal/log"
)

var tracer trace.Tracer = otel.Tracer("github.com/tombee/claudecode/cli")

// Invoke runs one agent invocation and returns a validated Result.
//
// Every failure the Runner detects comes back as a failed Result with a
// classified error code, never as a raw transport error. The returned
// error is non-nil only when the backend's output could not be brought
// into trustworthy shape, which the caller must treat as "could not
// validate" rather than a failed run.
func (r *Runner) Invoke(ctx context.Context, cfg claudecode.Config) (*claudecode.Result, error) {
	start := time.Now()
	invocationID := uuid.NewString()
	logger := intlog.WithInvocationID(r.logger, invocationID)

	ctx, span := tracer.Start(ctx, "claudecode.invoke")
	defer span.End()
	span.SetAttributes(
		attribute.String("claudecode.invocation_id", invocationID),
		attribute.String("claudecode.model", cfg.Model),
	)
	for k, v := range cfg.Metadata {
		span.SetAttributes(attribute.String("claudecode.meta."+k, v))
		logger = logger.With("meta."+k, v)
	}

	if err := cfg.Validate(); err != nil {
		return r.finish(logger, span, start, claudecode.Failure(claudecode.ErrorCodeInvalidRequest, err.Error())), nil
	}

	caps, err := r.Capabilities(ctx)
	if err != nil {
		return r.finish(logger, span, start,
			claudecode.Failure(claudecode.ErrorCodeBackendUnavailable, redact(err.Error()))), nil
	}

	model := r.tiers.Resolve(cfg.Model)
	args := buildArgs(cfg, model, caps)

	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = r.defaultTimeout
	}
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	logger.Debug("invoking backend",
		intlog.BackendKey, r.binary,
		intlog.ModelKey, model,
		"timeout", timeout.String(),
	)

	cmd := exec.CommandContext(ctx, r.binPath, args...)
	cmd.Dir = cfg.WorkingDir
	cmd.WaitDelay = time.Second
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if runErr := cmd.Run(); runErr != nil {
		res := classifyRunError(ctx, runErr, stderr.String())
		return r.finish(logger, span, start, res), nil
	}

	var res *claudecode.Result
	if caps.StructuredOutput {
		parsed, perr := parseTranscript(stdout.Bytes())
		if perr != nil {
			res = claudecode.Failure(claudecode.ErrorCodeProtocolError, redact(perr.Error()))
		} else {
			res = parsed
		}
	} else {
		// Plain-text mode: the backend cannot report tool calls or
		// classified failures, only output.
		res = &claudecode.Result{
			Success: true,
			Output:  strings.TrimSpace(stdout.String()),
		}
	}

	// The boundary gate. Nothing the Runner normalized is trusted until
	// it passes.
	if !claudecode.IsResult(res) {
		span.SetStatus(codes.Error, "result failed boundary validation")
		logger.Error("normalized backend output failed boundary validation")
		return nil, &claudecode.ParseError{Reason: "normalized backend output failed validation"}
	}

	r.warnDeniedToolCalls(logger, cfg, res)
	return r.finish(logger, span, start, res), nil
}

// finish records metrics, tracing, and logs for a completed invocation
// and hands the result back.
func (r *Runner) finish(logger *slog.Logger, span spanRecorder, start time.Time, res *claudecode.Result) *claudecode.Result {
	elapsed := time.Since(start)
	recordInvocation(res, elapsed.Seconds())

	if res.Success {
		span.SetStatus(codes.Ok, "")
		logger.Info("invocation succeeded",
			intlog.DurationKey, elapsed.Milliseconds(),
			"tool_calls", len(res.ToolCalls),
		)
	} else {
		span.SetStatus(codes.Error, string(res.ErrorCode))
		span.SetAttributes(attribute.String("claudecode.error_code", string(res.ErrorCode)))
		logger.Warn("invocation failed",
			intlog.DurationKey, elapsed.Milliseconds(),
			intlog.ErrorCodeKey, string(res.ErrorCode),
			"detail", res.ErrorDetail,
		)
	}
	return res
}

// spanRecorder is the slice of the otel span surface finish needs.
// Narrowing it keeps finish testable without a tracer provider.
type spanRecorder interface {
	SetStatus(code codes.Code, description string)
	SetAttributes(...attribute.KeyValue)
}

// classifyRunError maps a subprocess failure to exactly one error code.
func classifyRunError(ctx context.Context, runErr error, stderr string) *claudecode.Result {
	detail := redact(stderr)
	if detail == "" {
		detail = redact(runErr.Error())
	}

	switch {
	case errors.Is(ctx.Err(), context.DeadlineExceeded):
		return claudecode.Failure(claudecode.ErrorCodeTimeoutExceeded, detail)
	case errors.Is(ctx.Err(), context.Canceled):
		// The host canceled, not the backend failing.
		return claudecode.Failure(claudecode.ErrorCodeInvocationFailed,
			"invocation canceled by the caller")
	case errors.Is(runErr, exec.ErrNotFound):
		return claudecode.Failure(claudecode.ErrorCodeBackendUnavailable, detail)
	case isLimitFailure(stderr):
		return claudecode.Failure(claudecode.ErrorCodeLimitExceeded, detail)
	}

	var exitErr *exec.ExitError
	if errors.As(runErr, &exitErr) {
		// The backend ran and exited non-zero without producing a
		// result envelope.
		return claudecode.Failure(claudecode.ErrorCodeInvocationFailed,
			fmt.Sprintf("backend exited with code %d: %s", exitErr.ExitCode(), detail))
	}

	return claudecode.Failure(claudecode.ErrorCodeBackendUnavailable, detail)
}

// isLimitFailure spots stderr text indicating a resource limit rather
// than a transport problem.
func isLimitFailure(stderr string) bool {
	s := strings.ToLower(stderr)
	return strings.Contains(s, "rate limit") ||
		strings.Contains(s, "budget") ||
		strings.Contains(s, "quota")
}

// warnDeniedToolCalls logs tool calls the agent surfaced despite the
// config's permission set. The host still owns the execute/reject
// decision; this is an early signal that the backend ignored a
// restriction.
func (r *Runner) warnDeniedToolCalls(logger *slog.Logger, cfg claudecode.Config, res *claudecode.Result) {
	for _, tc := range res.ToolCalls {
		if !cfg.PermitsTool(tc.Name) {
			logger.Warn("backend surfaced a tool call outside the permitted set",
				"tool", tc.Name,
				"tool_use_id", tc.ID,
			)
		}
	}
}
