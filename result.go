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

import "encoding/json"

// ToolCall describes one tool invocation the agent requested while
// processing a task. It is a description, never an action: the host
// decides whether to execute, reject, or simulate it.
type ToolCall struct {
	// ID correlates this call with a specific step in a multi-call
	// result (the backend's tool_use_id).
	ID string `json:"id"`

	// Name identifies the tool, e.g. "file.read".
	Name string `json:"name"`

	// Arguments is the tool's input payload. It is opaque at this
	// layer; the tool executor validates it per tool.
	Arguments json.RawMessage `json:"arguments"`
}

// Result is the normalized outcome of one invocation. Values of this
// type exist only on the trusted side of the boundary: they are produced
// by ParseResult (or checked with IsResult) and are immutable afterwards.
//
// Invariant: a successful Result carries no error code; a failed Result
// carries exactly one code from the closed taxonomy.
type Result struct {
	// Success discriminates between a completed task and a classified
	// failure.
	Success bool `json:"success"`

	// Output is the agent's primary output. May be empty on failure.
	Output string `json:"output"`

	// ToolCalls lists tool invocations in the order the agent emitted
	// them. Ordering is significant and preserved end-to-end.
	ToolCalls []ToolCall `json:"toolCalls,omitempty"`

	// ErrorCode classifies the failure. Set exactly when Success is
	// false.
	ErrorCode ErrorCode `json:"errorCode,omitempty"`

	// ErrorDetail is diagnostic text accompanying ErrorCode. Sanitized
	// by the invocation collaborator before it gets here.
	ErrorDetail string `json:"errorDetail,omitempty"`
}

// Failure builds a failed Result with the given code and detail. It is
// the one constructor invocation collaborators use to honor the
// propagation policy: no raw transport error crosses the boundary.
func Failure(code ErrorCode, detail string) *Result {
	return &Result{
		Success:     false,
		ErrorCode:   code,
		ErrorDetail: detail,
	}
}
