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
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/tombee/claudecode"
	"github.com/tombee/claudecode/internal/history"
)

// runFlags holds the flag targets for the run command. Values are
// bound once against the command's flag set and read back after parse.
type runFlags struct {
	model           string
	systemPrompt    string
	workdir         string
	timeout         time.Duration
	maxTurns        int
	allowedTools    []string
	disallowedTools []string
}

func (f *runFlags) bind(fs *pflag.FlagSet) {
	fs.StringVarP(&f.model, "model", "m", "", "model name or tier (fast, balanced, strategic)")
	fs.StringVar(&f.systemPrompt, "system-prompt", "", "append to the backend's system prompt")
	fs.StringVarP(&f.workdir, "workdir", "w", "", "working directory for the invocation")
	fs.DurationVar(&f.timeout, "timeout", 0, "invocation timeout (default from config)")
	fs.IntVar(&f.maxTurns, "max-turns", 0, "cap on agentic turns (0 = backend default)")
	fs.StringSliceVar(&f.allowedTools, "allowed-tools", nil, "tool patterns the backend may use")
	fs.StringSliceVar(&f.disallowedTools, "disallowed-tools", nil, "tool patterns the backend must not use")
}

func (f *runFlags) config(prompt string) claudecode.Config {
	return claudecode.Config{
		Prompt:          prompt,
		SystemPrompt:    f.systemPrompt,
		WorkingDir:      f.workdir,
		Model:           f.model,
		Timeout:         f.timeout,
		AllowedTools:    f.allowedTools,
		DisallowedTools: f.disallowedTools,
		MaxTurns:        f.maxTurns,
	}
}

func newRunCmd(a *app) *cobra.Command {
	flags := &runFlags{}

	cmd := &cobra.Command{
		Use:   "run [prompt]",
		Short: "Invoke the backend with a prompt and print the result",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := flags.config(strings.Join(args, " "))

			started := time.Now()
			res, err := a.runner().Invoke(cmd.Context(), cfg)
			if err != nil {
				return err
			}

			if a.cfg.History.Enabled {
				a.recordHistory(cmd, cfg, res, started)
			}

			if a.jsonOut {
				return printJSON(cmd, res)
			}

			if !res.Success {
				cmd.PrintErrf("error %s: %s\n", res.ErrorCode, res.ErrorDetail)
				return fmt.Errorf("invocation failed")
			}
			for _, tc := range res.ToolCalls {
				cmd.PrintErrf("tool call: %s (%s)\n", tc.Name, tc.ID)
			}
			cmd.Println(res.Output)
			return nil
		},
	}

	flags.bind(cmd.Flags())
	return cmd
}

// recordHistory persists the finished invocation. Failures here are
// logged rather than surfaced; history is best-effort.
func (a *app) recordHistory(cmd *cobra.Command, cfg claudecode.Config, res *claudecode.Result, started time.Time) {
	store, err := history.Open(a.historyPath())
	if err != nil {
		a.logger.Warn("history store unavailable", "error", err)
		return
	}
	defer store.Close()

	entry := history.Entry{
		ID:        uuid.NewString(),
		StartedAt: started,
		Duration:  time.Since(started),
		Model:     cfg.Model,
		Success:   res.Success,
		ErrorCode: string(res.ErrorCode),
		ToolCalls: len(res.ToolCalls),
		Output:    res.Output,
	}
	if err := store.Record(cmd.Context(), entry); err != nil {
		a.logger.Warn("history record failed", "error", err)
	}
}
