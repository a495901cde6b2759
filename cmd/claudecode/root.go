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
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/tombee/claudecode/cli"
	"github.com/tombee/claudecode/internal/config"
	intlog "github.com/tombee/claudecode/internal/log"
)

// app carries the state shared by all subcommands.
type app struct {
	cfg     *config.Config
	logger  *slog.Logger
	jsonOut bool
}

// runner builds a CLI runner from the loaded configuration.
func (a *app) runner() *cli.Runner {
	opts := []cli.Option{
		cli.WithLogger(a.logger),
		cli.WithModelTiers(a.cfg.Models),
		cli.WithDefaultTimeout(a.cfg.CLI.DefaultTimeout),
	}
	if a.cfg.CLI.Command != "" {
		opts = append(opts, cli.WithCommand(a.cfg.CLI.Command))
	}
	return cli.New(opts...)
}

// printJSON writes v as indented JSON to the command's stdout.
func printJSON(cmd *cobra.Command, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling output: %w", err)
	}
	cmd.Println(string(data))
	return nil
}

func newRootCmd() *cobra.Command {
	a := &app{}
	var configPath string

	root := &cobra.Command{
		Use:   "claudecode",
		Short: "Probe and invoke the Claude Code backend",
		Long: `claudecode wraps the Claude Code command-line backend behind a
validated boundary: it detects the binary, reports its capabilities,
checks its health, and runs one-shot tasks whose results are always
classified and validated before display.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			a.cfg = cfg

			logCfg := intlog.FromEnv()
			if cfg.Log.Level != "" {
				logCfg.Level = cfg.Log.Level
			}
			if cfg.Log.Format != "" {
				logCfg.Format = intlog.Format(cfg.Log.Format)
			}
			a.logger = intlog.New(logCfg)
			return nil
		},
	}

	root.PersistentFlags().StringVar(&configPath, "config", "", "path to the config file")
	root.PersistentFlags().BoolVar(&a.jsonOut, "json", false, "output machine-readable JSON")

	root.AddCommand(
		newVersionCmd(),
		newDetectCmd(a),
		newCapabilitiesCmd(a),
		newHealthCmd(a),
		newRunCmd(a),
		newHistoryCmd(a),
	)
	return root
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		RunE: func(cmd *cobra.Command, args []string) error {
			cmd.Printf("claudecode version %s\n", version)
			cmd.Printf("  commit:     %s\n", commit)
			cmd.Printf("  build date: %s\n", buildDate)
			return nil
		},
	}
}
