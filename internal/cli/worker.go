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
	"github.com/spf13/cobra"

	"github.com/porterlab/porterload"
	"github.com/porterlab/porterload/scenario"
)

func newWorkerCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "worker",
		Short: "Join a Locust master as a worker",
		Long: `Worker connects to a Locust master and runs WebsiteUser users whenever the
master asks for them. Host and tags sent by the master take precedence; the
configured host is used when the master sends none.`,
		Args: cobra.NoArgs,
		RunE: runWorker,
	}

	flags := cmd.Flags()
	flags.String("master-host", "", "address of the Locust master")
	flags.Int("master-port", 0, "port of the Locust master")

	return cmd
}

func runWorker(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	logger := setupLogger(cmd.ErrOrStderr(), cfg)

	newUser, err := newUserFactory(cfg)
	if err != nil {
		return err
	}

	transport := porterload.NewZmqTransport(cfg.Master.Host, cfg.Master.Port)
	w, err := porterload.NewWorker(transport,
		porterload.WithHeartbeatInterval(cfg.Worker.HeartbeatInterval),
		porterload.WithMasterHeartbeatTimeout(cfg.Worker.MasterHeartbeatTimeout),
		porterload.WithStatsReportInterval(cfg.Worker.StatsReportInterval),
		porterload.WithDefaultHost(cfg.Host),
		porterload.WithLogger(logger),
	)
	if err != nil {
		return err
	}
	w.RegisterUser(scenario.UserClass, newUser)

	ctx, stop := signalContext(cmd.Context())
	defer stop()
	go func() {
		<-ctx.Done()
		w.Quit()
	}()

	logger.Info("Joining master.", "host", cfg.Master.Host, "port", cfg.Master.Port, "clientID", w.ClientID())
	return w.Join()
}
