/*
 *  Copyright 2024 qitoi
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

package porterload

import (
	"log/slog"
	"time"

	"github.com/porterlab/porterload/spawner"
)

type WorkerOption func(w *Worker)

// WithVersion sets worker version.
func WithVersion(version string) WorkerOption {
	return func(w *Worker) {
		w.version = version
	}
}

// WithClientID sets client unique id.
func WithClientID(clientID string) WorkerOption {
	return func(w *Worker) {
		w.clientID = clientID
	}
}

// WithHeartbeatInterval sets the interval at which the worker sends a heartbeat message to the master.
func WithHeartbeatInterval(heartbeatInterval time.Duration) WorkerOption {
	return func(w *Worker) {
		w.heartbeatInterval = heartbeatInterval
	}
}

// WithMasterHeartbeatTimeout sets the timeout for the heartbeat from the master.
func WithMasterHeartbeatTimeout(masterHeartbeatTimeout time.Duration) WorkerOption {
	return func(w *Worker) {
		w.masterHeartbeatTimeout = masterHeartbeatTimeout
	}
}

// WithMetricsMonitorInterval sets the interval at which the worker samples the process metrics.
func WithMetricsMonitorInterval(monitorInterval time.Duration) WorkerOption {
	return func(w *Worker) {
		w.metricsMonitorInterval = monitorInterval
	}
}

// WithStatsReportInterval sets the interval at which the worker sends statistics to the master.
func WithStatsReportInterval(reportInterval time.Duration) WorkerOption {
	return func(w *Worker) {
		w.statsReportInterval = reportInterval
	}
}

// WithStatsAggregationInterval sets the interval at which each user merges its statistics.
func WithStatsAggregationInterval(aggregateInterval time.Duration) WorkerOption {
	return func(w *Worker) {
		w.loadGenerator.StatsNotifyInterval = aggregateInterval
	}
}

// WithRestartMode sets what happens to a user that stops on its own.
func WithRestartMode(mode spawner.RestartMode) WorkerOption {
	return func(w *Worker) {
		w.loadGenerator.RestartMode = mode
	}
}

// WithDefaultHost sets the host used when the master starts a test without one.
func WithDefaultHost(host string) WorkerOption {
	return func(w *Worker) {
		w.defaultHost = host
	}
}

// WithLogger sets the logger of lifecycle events.
func WithLogger(logger *slog.Logger) WorkerOption {
	return func(w *Worker) {
		w.logger = logger
	}
}
