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

// ErrorCode classifies why an invocation failed. The set is closed:
// invocation collaborators must map every failure to exactly one of
// these codes before it reaches the validated-result boundary, and the
// validator rejects raw values carrying anything else. New codes may be
// added; existing codes never change meaning.
type ErrorCode string

const (
	// ErrorCodeBackendUnavailable means the backend could not be
	// reached or started at all (binary missing, spawn failure).
	ErrorCodeBackendUnavailable ErrorCode = "BACKEND_UNAVAILABLE"

	// ErrorCodeInvocationFailed means the backend started but the
	// invocation failed at the transport level (non-zero exit before
	// producing a result, broken pipe).
	ErrorCodeInvocationFailed ErrorCode = "INVOCATION_FAILED"

	// ErrorCodeExecutionFailed means the backend ran the task and
	// reported that it failed mid-run.
	ErrorCodeExecutionFailed ErrorCode = "EXECUTION_FAILED"

	// ErrorCodeInvalidRequest means the request was rejected before
	// execution (empty prompt, malformed configuration).
	ErrorCodeInvalidRequest ErrorCode = "INVALID_REQUEST"

	// ErrorCodeTimeoutExceeded means the invocation hit its time limit.
	ErrorCodeTimeoutExceeded ErrorCode = "TIMEOUT_EXCEEDED"

	// ErrorCodeLimitExceeded means a resource limit other than time was
	// hit (turns, budget, output size).
	ErrorCodeLimitExceeded ErrorCode = "LIMIT_EXCEEDED"

	// ErrorCodeProtocolError means the backend returned output that
	// could not be interpreted as a result.
	ErrorCodeProtocolError ErrorCode = "PROTOCOL_ERROR"
)

// ErrorClass groups error codes by where the failure happened, for
// hosts that handle whole classes rather than individual codes.
type ErrorClass string

const (
	// ErrorClassInvocation covers failures reaching or starting the
	// backend.
	ErrorClassInvocation ErrorClass = "invocation"

	// ErrorClassExecution covers failures reported by the agent while
	// running the task.
	ErrorClassExecution ErrorClass = "execution"

	// ErrorClassLimit covers request validation and resource limit
	// failures.
	ErrorClassLimit ErrorClass = "limit"

	// ErrorClassProtocol covers out-of-contract backend responses.
	ErrorClassProtocol ErrorClass = "protocol"
)

var errorClasses = map[ErrorCode]ErrorClass{
	ErrorCodeBackendUnavailable: ErrorClassInvocation,
	ErrorCodeInvocationFailed:   ErrorClassInvocation,
	ErrorCodeExecutionFailed:    ErrorClassExecution,
	ErrorCodeInvalidRequest:     ErrorClassLimit,
	ErrorCodeTimeoutExceeded:    ErrorClassLimit,
	ErrorCodeLimitExceeded:      ErrorClassLimit,
	ErrorCodeProtocolError:      ErrorClassProtocol,
}

// Valid reports whether the code belongs to the closed taxonomy.
func (c ErrorCode) Valid() bool {
	_, ok := errorClasses[c]
	return ok
}

// Class returns the failure class for the code, or the empty string for
// unrecognized codes.
func (c ErrorCode) Class() ErrorClass {
	return errorClasses[c]
}

// Retryable reports whether a failure with this code is worth retrying
// without changing the request. Execution and protocol failures may
// repeat deterministically; invocation and timeout failures are usually
// transient.
func (c ErrorCode) Retryable() bool {
	switch c {
	case ErrorCodeBackendUnavailable, ErrorCodeInvocationFailed, ErrorCodeTimeoutExceeded:
		return true
	default:
		return false
	}
}
