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

package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tombee/claudecode"
)

func newDetectCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "detect",
		Short: "Check whether the backend binary is installed",
		RunE: func(cmd *cobra.Command, args []string) error {
			r := a.runner()
			found, err := r.Detect()
			if err != nil {
				return err
			}
			if !found {
				return fmt.Errorf("backend binary not found in PATH")
			}

			caps, err := r.Capabilities(cmd.Context())
			if err != nil {
				return err
			}

			if a.jsonOut {
				return printJSON(cmd, map[string]string{"version": caps.Version})
			}
			cmd.Printf("Claude Code backend detected (version %s)\n", caps.Version)
			return nil
		},
	}
}

func newCapabilitiesCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "capabilities",
		Short: "Show the backend's capability snapshot",
		RunE: func(cmd *cobra.Command, args []string) error {
			caps, err := a.runner().Capabilities(cmd.Context())
			if err != nil {
				return err
			}

			if a.jsonOut {
				return printJSON(cmd, caps)
			}

			cmd.Printf("version:           %s\n", caps.Version)
			for _, f := range []claudecode.Feature{
				claudecode.FeatureStreaming,
				claudecode.FeatureStructuredOutput,
				claudecode.FeatureTools,
				claudecode.FeatureMCP,
			} {
				cmd.Printf("%-18s %v\n", string(f)+":", caps.Supports(f))
			}
			return nil
		},
	}
}

func newHealthCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "Run the three-step backend health check",
		RunE: func(cmd *cobra.Command, args []string) error {
			result := a.runner().HealthCheck(cmd.Context())

			if a.jsonOut {
				return printJSON(cmd, map[string]any{
					"installed":     result.Installed,
					"authenticated": result.Authenticated,
					"working":       result.Working,
					"version":       result.Version,
					"healthy":       result.Healthy(),
					"message":       result.Message,
				})
			}

			step := func(name string, ok bool) {
				mark := "ok"
				if !ok {
					mark = "FAILED"
				}
				cmd.Printf("  %-14s %s\n", name, mark)
			}
			step("installed", result.Installed)
			step("authenticated", result.Authenticated)
			step("working", result.Working)
			if result.Version != "" {
				cmd.Printf("  version        %s\n", result.Version)
			}
			cmd.Println()
			cmd.Println(result.Message)

			if !result.Healthy() {
				return fmt.Errorf("backend is not healthy")
			}
			return nil
		},
	}
}
