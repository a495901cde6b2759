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
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/tombee/claudecode"
)

// event is one JSON object in the backend's output. With
// --output-format json the backend emits a single result envelope; with
// stream-json it emits one event per line (system, assistant, user,
// result).
type event struct {
	Type    string   `json:"type"`
	Subtype string   `json:"subtype,omitempty"`
	IsError bool     `json:"is_error,omitempty"`
	Result  string   `json:"result,omitempty"`
	Message *message `json:"message,omitempty"`
}

type message struct {
	Role    string         `json:"role"`
	Content []contentBlock `json:"content"`
}

// contentBlock is a single block in an assistant message: text or
// tool_use.
type contentBlock struct {
	Type  string          `json:"type"`
	Text  string          `json:"text,omitempty"`
	ID    string          `json:"id,omitempty"`
	Name  string          `json:"name,omitempty"`
	Input json.RawMessage `json:"input,omitempty"`
}

// subtype values the backend uses on its result envelope.
const (
	subtypeSuccess         = "success"
	subtypeMaxTurns        = "error_max_turns"
	subtypeDuringExecution = "error_during_execution"
)

// parseTranscript normalizes raw backend JSON output into the boundary
// shape. It accepts both a single result envelope and a newline-delimited
// event stream, collecting tool calls from assistant messages in
// emission order. The returned Result still has to pass the boundary
// validator before the caller may trust it.
func parseTranscript(data []byte) (*claudecode.Result, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return nil, fmt.Errorf("empty backend output")
	}

	var (
		toolCalls []claudecode.ToolCall
		text      strings.Builder
		final     *event
	)

	scanner := bufio.NewScanner(bytes.NewReader(trimmed))
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	for scanner.Scan() {
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}

		var ev event
		if err := json.Unmarshal(line, &ev); err != nil {
			return nil, fmt.Errorf("line is not a JSON event: %w", err)
		}

		switch ev.Type {
		case "assistant":
			if ev.Message == nil {
				continue
			}
			for _, block := range ev.Message.Content {
				switch block.Type {
				case "tool_use":
					toolCalls = append(toolCalls, claudecode.ToolCall{
						ID:        block.ID,
						Name:      block.Name,
						Arguments: block.Input,
					})
				case "text":
					if text.Len() > 0 {
						text.WriteString("\n")
					}
					text.WriteString(block.Text)
				}
			}
		case "result":
			final = &ev
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading backend output: %w", err)
	}

	if final == nil {
		return nil, fmt.Errorf("backend output contains no result envelope")
	}

	res := resultFromEnvelope(*final)
	if res.Success && res.Output == "" {
		res.Output = text.String()
	}
	res.ToolCalls = toolCalls
	return res, nil
}

// resultFromEnvelope maps a result envelope to a Result, classifying
// failures into the closed taxonomy. Unknown failure subtypes become
// EXECUTION_FAILED: the agent ran and told us it did not finish.
func resultFromEnvelope(ev event) *claudecode.Result {
	if !ev.IsError && ev.Subtype == subtypeSuccess {
		return &claudecode.Result{
			Success: true,
			Output:  ev.Result,
		}
	}

	var code claudecode.ErrorCode
	switch ev.Subtype {
	case subtypeMaxTurns:
		code = claudecode.ErrorCodeLimitExceeded
	case subtypeDuringExecution:
		code = claudecode.ErrorCodeExecutionFailed
	default:
		code = claudecode.ErrorCodeExecutionFailed
	}

	detail := ev.Result
	if detail == "" {
		detail = fmt.Sprintf("backend reported %s", nonEmpty(ev.Subtype, "an error"))
	}
	return claudecode.Failure(code, redact(detail))
}

func nonEmpty(s, fallback string) string {
	if s != "" {
		return s
	}
	return fallback
}
