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

package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/porterlab/porterload"
	"github.com/porterlab/porterload/internal/report"
	"github.com/porterlab/porterload/scenario"
)

func newRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the load scenario without a master",
		Long: `Run ramps up the users at the spawn rate, keeps them running for the run time
and prints the request statistics. Interrupt to stop early.`,
		Args: cobra.NoArgs,
		RunE: runStandalone,
	}

	flags := cmd.Flags()
	flags.IntP("users", "u", 0, "number of concurrent users")
	flags.Float64P("spawn-rate", "r", 0, "users started per second, 0 starts all at once")
	flags.DurationP("run-time", "t", 0, "stop after this duration, 0 runs until interrupted")

	return cmd
}

func runStandalone(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	logger := setupLogger(cmd.ErrOrStderr(), cfg)

	newUser, err := newUserFactory(cfg)
	if err != nil {
		return err
	}

	s := porterload.NewStandalone(cfg.Host, cfg.Users,
		porterload.WithSpawnRate(cfg.SpawnRate),
		porterload.WithRunTime(cfg.RunTime),
		porterload.WithTags(cfg.Tags),
		porterload.WithExcludeTags(cfg.ExcludeTags),
		porterload.WithStandaloneLogger(logger),
	)
	s.RegisterUser(scenario.UserClass, newUser)

	ctx, stop := signalContext(cmd.Context())
	defer stop()

	logger.Info("Starting load test.", "scenario", cfg.Scenario, "runTime", durationOrUnlimited(cfg.RunTime))
	result, err := s.Run(ctx)
	if err != nil {
		return err
	}

	if err := report.NewPrinter(cmd.OutOrStdout(), cfg.NoColor).Print(result); err != nil {
		return err
	}

	if result.Total.NumFailures > 0 || len(result.Exceptions) > 0 {
		return fmt.Errorf("load test finished with %d failed requests and %d exceptions",
			result.Total.NumFailures, len(result.Exceptions))
	}
	return nil
}
