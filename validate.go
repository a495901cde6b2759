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
	"encoding/json"
	"fmt"
)

// ParseError describes why a raw value failed boundary validation. It is
// distinct from a valid-but-failed Result: a ParseError means the data
// never reached trustworthy shape.
type ParseError struct {
	Reason string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("claudecode: invalid result: %s", e.Reason)
}

// IsResult reports whether an untrusted value structurally matches
// Result. It is the sole gate between raw backend output and the rest of
// the host: downstream code may treat any value that passed as a
// trustworthy Result.
//
// The check is a pure predicate. It never panics, classifies nil,
// primitives, arrays, and malformed maps as false, rejects unrecognized
// error codes, and rejects the two contradictions (success with an error
// code, failure without one). Decoded-JSON maps and already-typed Result
// values are both accepted.
func IsResult(v any) bool {
	return checkResult(v) == nil
}

// ParseResult decodes raw backend output and validates it in one step.
// It returns a *ParseError when the bytes are not valid JSON or do not
// match the Result shape. Hosts that prefer branching on a boolean use
// IsResult instead.
func ParseResult(data []byte) (*Result, error) {
	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, &ParseError{Reason: fmt.Sprintf("not valid JSON: %v", err)}
	}
	if err := checkResult(raw); err != nil {
		return nil, err
	}
	var res Result
	if err := json.Unmarshal(data, &res); err != nil {
		return nil, &ParseError{Reason: fmt.Sprintf("decode failed: %v", err)}
	}
	return &res, nil
}

// checkResult is the shared structural walk behind IsResult and
// ParseResult. A nil return means the value is in contract.
func checkResult(v any) *ParseError {
	switch r := v.(type) {
	case nil:
		return &ParseError{Reason: "value is nil"}
	case *Result:
		if r == nil {
			return &ParseError{Reason: "value is nil"}
		}
		return checkTyped(*r)
	case Result:
		return checkTyped(r)
	case map[string]any:
		return checkRaw(r)
	default:
		return &ParseError{Reason: fmt.Sprintf("value is %T, not an object", v)}
	}
}

// checkTyped enforces the invariants a Result built in-process must
// still satisfy before crossing into host code.
func checkTyped(r Result) *ParseError {
	if r.Success && r.ErrorCode != "" {
		return &ParseError{Reason: "successful result carries an error code"}
	}
	if !r.Success {
		if r.ErrorCode == "" {
			return &ParseError{Reason: "failed result carries no error code"}
		}
		if !r.ErrorCode.Valid() {
			return &ParseError{Reason: fmt.Sprintf("unrecognized error code %q", r.ErrorCode)}
		}
	}
	for i, tc := range r.ToolCalls {
		if tc.ID == "" {
			return &ParseError{Reason: fmt.Sprintf("tool call %d has no id", i)}
		}
		if tc.Name == "" {
			return &ParseError{Reason: fmt.Sprintf("tool call %d has no name", i)}
		}
		if len(tc.Arguments) == 0 {
			return &ParseError{Reason: fmt.Sprintf("tool call %d has no argument payload", i)}
		}
	}
	return nil
}

// checkRaw walks a decoded-JSON object. Unknown keys are ignored so that
// newer backends can add optional fields without breaking older hosts.
func checkRaw(m map[string]any) *ParseError {
	successVal, ok := m["success"]
	if !ok {
		return &ParseError{Reason: "missing success discriminant"}
	}
	success, ok := successVal.(bool)
	if !ok {
		return &ParseError{Reason: "success is not a boolean"}
	}

	code, err := rawErrorCode(m)
	if err != nil {
		return err
	}
	if success && code != "" {
		return &ParseError{Reason: "successful result carries an error code"}
	}
	if !success {
		if code == "" {
			return &ParseError{Reason: "failed result carries no error code"}
		}
		if !ErrorCode(code).Valid() {
			return &ParseError{Reason: fmt.Sprintf("unrecognized error code %q", code)}
		}
	}

	if v, ok := m["output"]; ok && v != nil {
		if _, ok := v.(string); !ok {
			return &ParseError{Reason: "output is not a string"}
		}
	}
	if v, ok := m["errorDetail"]; ok && v != nil {
		if _, ok := v.(string); !ok {
			return &ParseError{Reason: "errorDetail is not a string"}
		}
	}

	return checkRawToolCalls(m)
}

// rawErrorCode extracts the errorCode field, treating an absent key,
// explicit null, or empty string as "no code".
func rawErrorCode(m map[string]any) (string, *ParseError) {
	v, ok := m["errorCode"]
	if !ok || v == nil {
		return "", nil
	}
	s, ok := v.(string)
	if !ok {
		return "", &ParseError{Reason: "errorCode is not a string"}
	}
	return s, nil
}

func checkRawToolCalls(m map[string]any) *ParseError {
	v, ok := m["toolCalls"]
	if !ok || v == nil {
		return nil
	}
	list, ok := v.([]any)
	if !ok {
		return &ParseError{Reason: "toolCalls is not an array"}
	}
	for i, entry := range list {
		call, ok := entry.(map[string]any)
		if !ok {
			return &ParseError{Reason: fmt.Sprintf("tool call %d is not an object", i)}
		}
		if s, ok := call["id"].(string); !ok || s == "" {
			return &ParseError{Reason: fmt.Sprintf("tool call %d has no id", i)}
		}
		if s, ok := call["name"].(string); !ok || s == "" {
			return &ParseError{Reason: fmt.Sprintf("tool call %d has no name", i)}
		}
		if args, ok := call["arguments"]; !ok || args == nil {
			return &ParseError{Reason: fmt.Sprintf("tool call %d has no argument payload", i)}
		}
	}
	return nil
}
