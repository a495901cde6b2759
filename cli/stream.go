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
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os/exec"
	"time"

	"github.com/tombee/claudecode"
)

// ErrStreamingUnsupported is returned by Stream when the capability
// snapshot does not include streaming. Callers are expected to have
// branched on Capabilities first.
var ErrStreamingUnsupported = errors.New("cli: backend does not support streaming")

// Chunk is one increment of a streaming invocation.
type Chunk struct {
	// Content is incremental output text.
	Content string

	// ToolCall is set when the agent requested a tool mid-stream.
	ToolCall *claudecode.ToolCall

	// Result is set on the final chunk, after passing the boundary
	// validator.
	Result *claudecode.Result

	// Err terminates the stream when set.
	Err error
}

// Stream runs an invocation and emits output incrementally. The caller
// must consume the channel until it closes. The final chunk carries
// either a validated Result or an error.
func (r *Runner) Stream(ctx context.Context, cfg claudecode.Config) (<-chan Chunk, error) {
	caps, err := r.Capabilities(ctx)
	if err != nil {
		return nil, err
	}
	if !caps.Supports(claudecode.FeatureStreaming) {
		return nil, ErrStreamingUnsupported
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	model := r.tiers.Resolve(cfg.Model)
	args := streamArgs(cfg, model, caps)

	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = r.defaultTimeout
	}
	cancel := context.CancelFunc(func() {})
	if timeout > 0 {
		ctx, cancel = context.WithTimeout(ctx, timeout)
	}

	cmd := exec.CommandContext(ctx, r.binPath, args...)
	cmd.Dir = cfg.WorkingDir
	// Close the pipe shortly after the deadline even if the backend
	// leaves children holding it open.
	cmd.WaitDelay = time.Second
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		cancel()
		return nil, fmt.Errorf("cli: stdout pipe: %w", err)
	}
	if err := cmd.Start(); err != nil {
		cancel()
		return nil, fmt.Errorf("cli: starting backend: %w", err)
	}

	chunks := make(chan Chunk, 16)
	go func() {
		defer close(chunks)
		defer cancel()

		var (
			final     *claudecode.Result
			streamErr error
		)
		scanner := bufio.NewScanner(stdout)
		scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)

		for scanner.Scan() {
			line := scanner.Bytes()
			if len(line) == 0 {
				continue
			}

			var ev event
			if err := json.Unmarshal(line, &ev); err != nil {
				streamErr = fmt.Errorf("cli: malformed stream event: %w", err)
				break
			}

			switch ev.Type {
			case "assistant":
				if ev.Message == nil {
					continue
				}
				for _, block := range ev.Message.Content {
					switch block.Type {
					case "text":
						chunks <- Chunk{Content: block.Text}
					case "tool_use":
						chunks <- Chunk{ToolCall: &claudecode.ToolCall{
							ID:        block.ID,
							Name:      block.Name,
							Arguments: block.Input,
						}}
					}
				}
			case "result":
				final = resultFromEnvelope(ev)
			}
		}
		if streamErr != nil {
			// Stop the backend; nothing consumes the rest.
			cancel()
		}
		waitErr := cmd.Wait()

		switch {
		case streamErr != nil:
			chunks <- Chunk{Err: streamErr}
		case final == nil && waitErr != nil:
			// The process died before emitting a result envelope: a
			// killed-on-deadline stream surfaces here.
			chunks <- Chunk{Result: classifyRunError(ctx, waitErr, "")}
		case scanner.Err() != nil:
			chunks <- Chunk{Err: fmt.Errorf("cli: reading stream: %w", scanner.Err())}
		case final == nil:
			chunks <- Chunk{Err: &claudecode.ParseError{Reason: "stream ended without a result envelope"}}
		case !claudecode.IsResult(final):
			chunks <- Chunk{Err: &claudecode.ParseError{Reason: "streamed result failed validation"}}
		default:
			chunks <- Chunk{Result: final}
		}
	}()

	return chunks, nil
}
