/*
 *  Copyright 2026 porterlab
 *
 *  Licensed under the Apache License, Version 2.0 (the "License");
 *  you may not use this file except in compliance with the License.
 *  You may obtain a copy of the License at
 *
 *      http://www.apache.org/licenses/LICENSE-2.0
 *
 *  Unless required by applicable law or agreed to in writing, software
 *  distributed under the License is distributed on an "AS IS" BASIS,
 *  WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 *  See the License for the specific language governing permissions and
 *  limitations under the License.
 */

// Package cli implements the porterload command.
package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/porterlab/porterload"
	"github.com/porterlab/porterload/internal/config"
	"github.com/porterlab/porterload/scenario"
)

// NewRootCmd returns the porterload command with its subcommands.
func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:     "porterload",
		Short:   "Integration load test for Porter applications",
		Version: porterload.Version,
		Long: `porterload sends the integration load scenario to a target server.

It runs standalone, joins a Locust master as a worker, or serves the target
endpoints itself:

  porterload run --host http://127.0.0.1:3000 --users 10 --spawn-rate 2 --run-time 1m
  porterload worker --master-host 127.0.0.1 --master-port 5557
  porterload target --addr :3000`,
		SilenceUsage: true,
		Run: func(cmd *cobra.Command, args []string) {
			_ = cmd.Help()
		},
	}

	flags := root.PersistentFlags()
	flags.StringP("config", "c", "", "YAML configuration file")
	flags.String("log-level", "", "log level: debug, info, warn or error")
	flags.Bool("no-color", false, "disable colored output")
	flags.StringP("host", "H", "", "base URL of the target server")
	flags.String("scenario", "", "task set to run: default or mixed")
	flags.StringSlice("tags", nil, "run only tasks with one of these tags")
	flags.StringSlice("exclude-tags", nil, "skip tasks with one of these tags")
	flags.Duration("timeout", 0, "timeout of each request")
	flags.Duration("wait-time", 0, "pause between two tasks of a user")

	root.AddCommand(newRunCmd())
	root.AddCommand(newWorkerCmd())
	root.AddCommand(newTargetCmd())

	return root
}

// Execute runs the porterload command.
func Execute() error {
	return NewRootCmd().Execute()
}

// loadConfig loads the configuration file and applies the flags given on the command line.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	flags := cmd.Flags()
	if flags.Changed("log-level") {
		cfg.LogLevel, _ = flags.GetString("log-level")
	}
	if flags.Changed("no-color") {
		cfg.NoColor, _ = flags.GetBool("no-color")
	}
	if flags.Changed("host") {
		cfg.Host, _ = flags.GetString("host")
	}
	if flags.Changed("scenario") {
		cfg.Scenario, _ = flags.GetString("scenario")
	}
	if flags.Changed("tags") {
		cfg.Tags, _ = flags.GetStringSlice("tags")
	}
	if flags.Changed("exclude-tags") {
		cfg.ExcludeTags, _ = flags.GetStringSlice("exclude-tags")
	}
	if flags.Changed("timeout") {
		cfg.Timeout, _ = flags.GetDuration("timeout")
	}
	if flags.Changed("wait-time") {
		cfg.WaitTime, _ = flags.GetDuration("wait-time")
	}
	if flags.Lookup("users") != nil && flags.Changed("users") {
		cfg.Users, _ = flags.GetInt("users")
	}
	if flags.Lookup("spawn-rate") != nil && flags.Changed("spawn-rate") {
		cfg.SpawnRate, _ = flags.GetFloat64("spawn-rate")
	}
	if flags.Lookup("run-time") != nil && flags.Changed("run-time") {
		cfg.RunTime, _ = flags.GetDuration("run-time")
	}
	if flags.Lookup("master-host") != nil && flags.Changed("master-host") {
		cfg.Master.Host, _ = flags.GetString("master-host")
	}
	if flags.Lookup("master-port") != nil && flags.Changed("master-port") {
		cfg.Master.Port, _ = flags.GetInt("master-port")
	}
	if flags.Lookup("addr") != nil && flags.Changed("addr") {
		cfg.Target.Addr, _ = flags.GetString("addr")
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func setupLogger(w io.Writer, cfg *config.Config) *slog.Logger {
	// validated by loadConfig
	level, _ := cfg.SlogLevel()
	logger := slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)
	return logger
}

func signalContext(ctx context.Context) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
}

func newUserFactory(cfg *config.Config) (func() porterload.User, error) {
	return scenario.NewWebsiteUser(scenario.Options{
		Scenario: cfg.Scenario,
		Timeout:  cfg.Timeout,
		WaitTime: cfg.WaitTime,
	})
}

func durationOrUnlimited(d time.Duration) any {
	if d <= 0 {
		return "unlimited"
	}
	return d
}
