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

// Feature names a single optional backend behavior that a host may
// branch on before constructing a Config.
type Feature string

const (
	// FeatureStreaming indicates the backend can emit partial output
	// while an invocation is still running.
	FeatureStreaming Feature = "streaming"

	// FeatureStructuredOutput indicates the backend can return its
	// result as structured JSON rather than plain text.
	FeatureStructuredOutput Feature = "structured_output"

	// FeatureTools indicates the backend can surface tool calls in
	// its results.
	FeatureTools Feature = "tools"

	// FeatureMCP indicates the backend can attach MCP servers to an
	// invocation.
	FeatureMCP Feature = "mcp"
)

// Capabilities is a read-only snapshot of what one backend instance
// supports. It is obtained once per instance (see CapabilityQuerier) and
// must be re-queried if the backend binary is replaced or upgraded.
//
// The zero value claims nothing: every flag defaults to unsupported,
// which is always the safe interpretation. Callers branch on these flags
// instead of comparing backend version strings.
type Capabilities struct {
	// Version is the backend version string, when it could be
	// determined. Informational only; never branch on it.
	Version string

	// Streaming reports partial-output support.
	Streaming bool

	// StructuredOutput reports structured JSON result support.
	StructuredOutput bool

	// Tools reports tool-call support.
	Tools bool

	// MCP reports MCP server attachment support.
	MCP bool

	// MaxToolCallsPerInvocation is the backend's tool-call ceiling per
	// invocation. Zero means no known limit.
	MaxToolCallsPerInvocation int

	// Models lists the model IDs the backend accepts, when known.
	Models []string
}

// Supports reports whether the snapshot includes the named feature.
// Unknown features are unsupported.
func (c Capabilities) Supports(f Feature) bool {
	switch f {
	case FeatureStreaming:
		return c.Streaming
	case FeatureStructuredOutput:
		return c.StructuredOutput
	case FeatureTools:
		return c.Tools
	case FeatureMCP:
		return c.MCP
	default:
		return false
	}
}

// HasModel reports whether the snapshot lists the given model ID. An
// empty model list means the set is unknown, so nothing is claimed.
func (c Capabilities) HasModel(id string) bool {
	for _, m := range c.Models {
		if m == id {
			return true
		}
	}
	return false
}
