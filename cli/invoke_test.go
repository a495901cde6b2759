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
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"reflect"
	"runtime"
	"strings"
	"testing"
	"time"

	"github.com/tombee/claudecode"
)

// fakeBackend writes an executable shell script standing in for the
// Claude Code binary and returns a Runner pinned to it.
func fakeBackend(t *testing.T, body string) *Runner {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("fake backend scripts require a POSIX shell")
	}

	script := "#!/bin/sh\n" + body
	path := filepath.Join(t.TempDir(), "claude")
	if err := os.WriteFile(path, []byte(script), 0o755); err != nil {
		t.Fatalf("writing fake backend: %v", err)
	}

	return New(
		WithCommand(path),
		WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
	)
}

// structuredHelp advertises the flags the capability probe looks for.
const structuredHelp = `Usage: claude [options]
  --output-format <text|json|stream-json>
  --allowedTools <tools>
  --mcp-config <path>`

// probeCases answers the --version and --help probes; anything else
// falls through to the script body.
func probeCases(help string) string {
	return `case "$1" in
  --version) echo "claude version 9.9.9"; exit 0;;
  --help) cat <<'EOF'
` + help + `
EOF
    exit 0;;
esac
`
}

func TestInvoke_Success(t *testing.T) {
	r := fakeBackend(t, probeCases(structuredHelp)+
		`echo '{"type": "assistant", "message": {"role": "assistant", "content": [{"type": "tool_use", "id": "toolu_1", "name": "file.read", "input": {"path": "go.mod"}}]}}'
echo '{"type": "result", "subtype": "success", "is_error": false, "result": "done"}'
`)

	res, err := r.Invoke(context.Background(), claudecode.Config{Prompt: "read go.mod"})
	if err != nil {
		t.Fatalf("Invoke failed: %v", err)
	}
	if !res.Success {
		t.Fatalf("expected success, got %+v", res)
	}
	if res.Output != "done" {
		t.Errorf("unexpected output %q", res.Output)
	}
	if len(res.ToolCalls) != 1 || res.ToolCalls[0].Name != "file.read" {
		t.Errorf("unexpected tool calls %+v", res.ToolCalls)
	}
	if !claudecode.IsResult(res) {
		t.Error("returned result must pass the boundary validator")
	}
}

func TestInvoke_EmptyPromptIsInvalidRequest(t *testing.T) {
	r := fakeBackend(t, probeCases(structuredHelp)+"exit 0\n")

	res, err := r.Invoke(context.Background(), claudecode.Config{})
	if err != nil {
		t.Fatalf("Invoke failed: %v", err)
	}
	if res.Success {
		t.Fatal("expected failure")
	}
	if res.ErrorCode != claudecode.ErrorCodeInvalidRequest {
		t.Errorf("expected INVALID_REQUEST, got %q", res.ErrorCode)
	}
}

func TestInvoke_MissingBinaryIsBackendUnavailable(t *testing.T) {
	r := New(
		WithCommand(filepath.Join(t.TempDir(), "no-such-binary")),
		WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
	)

	res, err := r.Invoke(context.Background(), claudecode.Config{Prompt: "x"})
	if err != nil {
		t.Fatalf("Invoke failed: %v", err)
	}
	if res.ErrorCode != claudecode.ErrorCodeBackendUnavailable {
		t.Errorf("expected BACKEND_UNAVAILABLE, got %q", res.ErrorCode)
	}
}

func TestInvoke_NonZeroExitIsInvocationFailed(t *testing.T) {
	r := fakeBackend(t, probeCases(structuredHelp)+
		`echo "boom" >&2
exit 3
`)

	res, err := r.Invoke(context.Background(), claudecode.Config{Prompt: "x"})
	if err != nil {
		t.Fatalf("Invoke failed: %v", err)
	}
	if res.ErrorCode != claudecode.ErrorCodeInvocationFailed {
		t.Errorf("expected INVOCATION_FAILED, got %q", res.ErrorCode)
	}
	if res.ErrorDetail == "" {
		t.Error("expected diagnostic detail")
	}
}

func TestInvoke_RateLimitStderrIsLimitExceeded(t *testing.T) {
	r := fakeBackend(t, probeCases(structuredHelp)+
		`echo "rate limit reached, try later" >&2
exit 1
`)

	res, err := r.Invoke(context.Background(), claudecode.Config{Prompt: "x"})
	if err != nil {
		t.Fatalf("Invoke failed: %v", err)
	}
	if res.ErrorCode != claudecode.ErrorCodeLimitExceeded {
		t.Errorf("expected LIMIT_EXCEEDED, got %q", res.ErrorCode)
	}
}

func TestInvoke_TimeoutIsTimeoutExceeded(t *testing.T) {
	r := fakeBackend(t, probeCases(structuredHelp)+"sleep 5\n")

	res, err := r.Invoke(context.Background(), claudecode.Config{
		Prompt:  "x",
		Timeout: 100 * time.Millisecond,
	})
	if err != nil {
		t.Fatalf("Invoke failed: %v", err)
	}
	if res.ErrorCode != claudecode.ErrorCodeTimeoutExceeded {
		t.Errorf("expected TIMEOUT_EXCEEDED, got %q", res.ErrorCode)
	}
}

func TestInvoke_CallerCancelIsInvocationFailed(t *testing.T) {
	r := fakeBackend(t, probeCases(structuredHelp)+"sleep 5\n")

	ctx, cancel := context.WithCancel(context.Background())
	timer := time.AfterFunc(100*time.Millisecond, cancel)
	defer timer.Stop()
	defer cancel()

	res, err := r.Invoke(ctx, claudecode.Config{Prompt: "x"})
	if err != nil {
		t.Fatalf("Invoke failed: %v", err)
	}
	if res.ErrorCode != claudecode.ErrorCodeInvocationFailed {
		t.Errorf("expected INVOCATION_FAILED, got %q", res.ErrorCode)
	}
	if !strings.Contains(res.ErrorDetail, "canceled") {
		t.Errorf("detail should name the cancellation, got %q", res.ErrorDetail)
	}
}

func TestInvoke_MetadataReachesLogFields(t *testing.T) {
	r := fakeBackend(t, probeCases(structuredHelp)+
		`echo '{"type": "result", "subtype": "success", "is_error": false, "result": "done"}'
`)
	var buf bytes.Buffer
	r.logger = slog.New(slog.NewJSONHandler(&buf, nil))

	_, err := r.Invoke(context.Background(), claudecode.Config{
		Prompt:   "x",
		Metadata: map[string]string{"run_id": "run-42"},
	})
	if err != nil {
		t.Fatalf("Invoke failed: %v", err)
	}
	if !strings.Contains(buf.String(), `"meta.run_id":"run-42"`) {
		t.Errorf("metadata missing from invocation logs:\n%s", buf.String())
	}
}

func TestInvoke_GarbageOutputIsProtocolError(t *testing.T) {
	r := fakeBackend(t, probeCases(structuredHelp)+
		`echo "this is not json"
`)

	res, err := r.Invoke(context.Background(), claudecode.Config{Prompt: "x"})
	if err != nil {
		t.Fatalf("Invoke failed: %v", err)
	}
	if res.ErrorCode != claudecode.ErrorCodeProtocolError {
		t.Errorf("expected PROTOCOL_ERROR, got %q", res.ErrorCode)
	}
}

func TestInvoke_PlainTextBackend(t *testing.T) {
	// Help output without --output-format: the probe must downgrade to
	// plain-text mode and wrap stdout as a successful result.
	r := fakeBackend(t, probeCases("Usage: claude [-p prompt]")+
		`echo "plain answer"
`)

	res, err := r.Invoke(context.Background(), claudecode.Config{Prompt: "x"})
	if err != nil {
		t.Fatalf("Invoke failed: %v", err)
	}
	if !res.Success {
		t.Fatalf("expected success, got %+v", res)
	}
	if res.Output != "plain answer" {
		t.Errorf("unexpected output %q", res.Output)
	}
	if len(res.ToolCalls) != 0 {
		t.Errorf("plain-text mode cannot carry tool calls, got %+v", res.ToolCalls)
	}
}

func TestCapabilitiesProbe(t *testing.T) {
	r := fakeBackend(t, probeCases(structuredHelp)+"exit 0\n")

	caps, err := r.Capabilities(context.Background())
	if err != nil {
		t.Fatalf("Capabilities failed: %v", err)
	}

	if caps.Version != "9.9.9" {
		t.Errorf("expected version 9.9.9, got %q", caps.Version)
	}
	if !caps.StructuredOutput || !caps.Streaming || !caps.Tools || !caps.MCP {
		t.Errorf("expected all probed features supported, got %+v", caps)
	}

	// Snapshot semantics: the second query must not re-probe.
	again, err := r.Capabilities(context.Background())
	if err != nil {
		t.Fatalf("second Capabilities failed: %v", err)
	}
	if !reflect.DeepEqual(again, caps) {
		t.Errorf("capability snapshot changed between queries: %+v vs %+v", caps, again)
	}
}

func TestCapabilitiesProbe_MinimalBackend(t *testing.T) {
	r := fakeBackend(t, probeCases("Usage: claude [-p prompt]")+"exit 0\n")

	caps, err := r.Capabilities(context.Background())
	if err != nil {
		t.Fatalf("Capabilities failed: %v", err)
	}
	if caps.StructuredOutput || caps.Streaming || caps.Tools || caps.MCP {
		t.Errorf("unprobed features must stay unsupported, got %+v", caps)
	}
}

func TestStream_UnsupportedBackend(t *testing.T) {
	r := fakeBackend(t, probeCases("Usage: claude [-p prompt]")+"exit 0\n")

	if _, err := r.Stream(context.Background(), claudecode.Config{Prompt: "x"}); err != ErrStreamingUnsupported {
		t.Errorf("expected ErrStreamingUnsupported, got %v", err)
	}
}

func TestStream_EmitsChunksAndValidatedResult(t *testing.T) {
	r := fakeBackend(t, probeCases(structuredHelp)+
		`echo '{"type": "assistant", "message": {"role": "assistant", "content": [{"type": "text", "text": "working on it"}]}}'
echo '{"type": "assistant", "message": {"role": "assistant", "content": [{"type": "tool_use", "id": "toolu_1", "name": "file.read", "input": {}}]}}'
echo '{"type": "result", "subtype": "success", "is_error": false, "result": "done"}'
`)

	chunks, err := r.Stream(context.Background(), claudecode.Config{Prompt: "x"})
	if err != nil {
		t.Fatalf("Stream failed: %v", err)
	}

	var (
		text   string
		tools  int
		result *claudecode.Result
	)
	for chunk := range chunks {
		if chunk.Err != nil {
			t.Fatalf("unexpected stream error: %v", chunk.Err)
		}
		text += chunk.Content
		if chunk.ToolCall != nil {
			tools++
		}
		if chunk.Result != nil {
			result = chunk.Result
		}
	}

	if text != "working on it" {
		t.Errorf("unexpected streamed text %q", text)
	}
	if tools != 1 {
		t.Errorf("expected 1 streamed tool call, got %d", tools)
	}
	if result == nil || !result.Success {
		t.Fatalf("expected a validated final result, got %+v", result)
	}
}

func TestStream_TimeoutIsTimeoutExceeded(t *testing.T) {
	r := fakeBackend(t, probeCases(structuredHelp)+"sleep 5\n")

	start := time.Now()
	chunks, err := r.Stream(context.Background(), claudecode.Config{
		Prompt:  "x",
		Timeout: 100 * time.Millisecond,
	})
	if err != nil {
		t.Fatalf("Stream failed: %v", err)
	}

	var result *claudecode.Result
	for chunk := range chunks {
		if chunk.Err != nil {
			t.Fatalf("expected a classified result, got stream error: %v", chunk.Err)
		}
		if chunk.Result != nil {
			result = chunk.Result
		}
	}

	if elapsed := time.Since(start); elapsed > 2*time.Second {
		t.Fatalf("stream outlived its timeout: ran %v", elapsed)
	}
	if result == nil {
		t.Fatal("expected a final result chunk")
	}
	if result.ErrorCode != claudecode.ErrorCodeTimeoutExceeded {
		t.Errorf("expected TIMEOUT_EXCEEDED, got %q", result.ErrorCode)
	}
}
