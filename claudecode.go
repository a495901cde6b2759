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

// Package claudecode defines the boundary contract between a host
// orchestration system and a Claude Code agent backend.
//
// The package contains only data shapes and a validation predicate:
// the configuration accepted by one invocation (Config), the capability
// snapshot used for feature detection (Capabilities), the normalized
// outcome of an invocation (Result with its ToolCall entries), the closed
// failure taxonomy (ErrorCode), and the boundary validator (IsResult /
// ParseResult) that gates untrusted backend output before the host
// trusts it.
//
// The actual subprocess invocation lives in the cli subpackage. Hosts
// that bring their own transport implement Invoker and CapabilityQuerier
// against the types defined here.
package claudecode

import "context"

// Invoker executes one agent invocation described by a Config.
//
// Implementations must map every failure they detect into exactly one
// ErrorCode carried inside a failed Result. A non-nil error is reserved
// for raw backend output that never reached trustworthy shape - the
// caller must treat that as "could not validate", not as a failed run.
type Invoker interface {
	Invoke(ctx context.Context, cfg Config) (*Result, error)
}

// CapabilityQuerier reports what a specific backend instance supports.
//
// The returned Capabilities value is a snapshot, not a live query. Hosts
// must re-query after replacing or upgrading the backend.
type CapabilityQuerier interface {
	Capabilities(ctx context.Context) (Capabilities, error)
}
