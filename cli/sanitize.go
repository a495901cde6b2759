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
	"regexp"
	"strings"
)

// redactions are applied to diagnostic text before it is placed in a
// Result. Error details may travel far beyond this process, so home
// directories, usernames, and addresses never leave in the clear.
// Private ranges are matched before the general IP pattern.
var redactions = []struct {
	pattern     *regexp.Regexp
	replacement string
}{
	{regexp.MustCompile(`/Users/[^/\s]+`), "[PATH]"},
	{regexp.MustCompile(`/home/[^/\s]+`), "[PATH]"},
	{regexp.MustCompile(`C:\\Users\\[^\\]+`), "[PATH]"},
	{regexp.MustCompile(`user(?:name)?[:\s]+[^\s]+`), "user: [REDACTED]"},
	{regexp.MustCompile(`\b(?:10\.|172\.(?:1[6-9]|2[0-9]|3[01])\.|192\.168\.)[0-9.]+\b`), "[PRIVATE_IP]"},
	{regexp.MustCompile(`\b(?:[0-9]{1,3}\.){3}[0-9]{1,3}\b`), "[IP]"},
}

// redact removes sensitive details from diagnostic text: absolute home
// paths, usernames, IP addresses, and stack trace lines.
func redact(s string) string {
	for _, r := range redactions {
		s = r.pattern.ReplaceAllString(s, r.replacement)
	}

	lines := strings.Split(s, "\n")
	kept := lines[:0]
	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "at ") || strings.Contains(trimmed, ".go:") {
			continue
		}
		kept = append(kept, line)
	}

	return strings.TrimSpace(strings.Join(kept, "\n"))
}
