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
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/tombee/claudecode/internal/config"
	"github.com/tombee/claudecode/internal/history"
)

func (a *app) historyPath() string {
	if a.cfg.History.Path != "" {
		return a.cfg.History.Path
	}
	return config.DefaultHistoryPath()
}

func newHistoryCmd(a *app) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recent invocations from the history store",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := history.Open(a.historyPath())
			if err != nil {
				return err
			}
			defer store.Close()

			entries, err := store.List(cmd.Context(), limit)
			if err != nil {
				return err
			}

			if a.jsonOut {
				return printJSON(cmd, entries)
			}

			if len(entries) == 0 {
				cmd.Println("no invocations recorded")
				return nil
			}
			for _, e := range entries {
				status := "ok"
				if !e.Success {
					status = e.ErrorCode
				}
				cmd.Printf("%s  %s  %-8s  %6s  tools=%d  %s\n",
					e.StartedAt.Format("2006-01-02 15:04:05"),
					shortID(e.ID),
					status,
					e.Duration.Round(10*time.Millisecond),
					e.ToolCalls,
					truncate(e.Output, 60),
				)
			}
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "maximum entries to show")
	return cmd
}

// shortID abbreviates an entry ID for display. IDs written by the run
// command are UUIDs, but the store accepts any non-empty string.
func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func truncate(s string, n int) string {
	runes := []rune(strings.ReplaceAll(s, "\n", " "))
	if len(runes) <= n {
		return string(runes)
	}
	return string(runes[:n-3]) + "..."
}
