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
	"bytes"
	"io"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/porterlab/porterload/internal/target"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()

	var out bytes.Buffer
	root := NewRootCmd()
	root.SetOut(&out)
	root.SetErr(io.Discard)
	root.SetArgs(args)

	err := root.Execute()
	return out.String(), err
}

func TestRootHelp(t *testing.T) {
	out, err := execute(t, "--help")
	require.NoError(t, err)
	require.Contains(t, out, "run")
	require.Contains(t, out, "worker")
	require.Contains(t, out, "target")
}

func TestRun(t *testing.T) {
	ts := httptest.NewServer(target.NewServer(":0"))
	defer ts.Close()

	out, err := execute(t, "run",
		"--host", ts.URL,
		"--users", "2",
		"--spawn-rate", "0",
		"--run-time", "300ms",
		"--wait-time", "10ms",
		"--no-color",
	)
	require.NoError(t, err)
	require.Contains(t, out, "/empty")
	require.Contains(t, out, "Aggregated")
	require.NotContains(t, out, "/load")
	require.NotContains(t, out, "/hello")
}

func TestRun_Failures(t *testing.T) {
	ts := httptest.NewServer(target.NewServer(":0"))
	host := ts.URL
	ts.Close()

	out, err := execute(t, "run",
		"--host", host,
		"--users", "1",
		"--run-time", "200ms",
		"--wait-time", "10ms",
		"--timeout", "100ms",
		"--no-color",
	)
	require.Error(t, err)
	require.Contains(t, err.Error(), "failed requests")
	require.Contains(t, out, "/empty")
}

func TestRun_InvalidScenario(t *testing.T) {
	_, err := execute(t, "run", "--scenario", "burst", "--run-time", "10ms")
	require.Error(t, err)
}

func TestLoadConfig(t *testing.T) {
	input := `
	host: http://127.0.0.1:8080
	users: 5
	scenario: mixed
	master:
		port: 6000
	`
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(strings.ReplaceAll(input, "\t", "  ")), 0o600))

	t.Run("FileOnly", func(t *testing.T) {
		cmd, _, err := NewRootCmd().Find([]string{"worker"})
		require.NoError(t, err)
		require.NoError(t, cmd.ParseFlags([]string{"--config", path}))

		cfg, err := loadConfig(cmd)
		require.NoError(t, err)
		require.Equal(t, "http://127.0.0.1:8080", cfg.Host)
		require.Equal(t, "mixed", cfg.Scenario)
		require.Equal(t, 6000, cfg.Master.Port)
		require.Equal(t, "127.0.0.1", cfg.Master.Host)
		require.Equal(t, time.Second, cfg.WaitTime)
	})

	t.Run("FlagsOverride", func(t *testing.T) {
		cmd, _, err := NewRootCmd().Find([]string{"run"})
		require.NoError(t, err)
		require.NoError(t, cmd.ParseFlags([]string{
			"--config", path,
			"--users", "7",
			"--scenario", "default",
			"--tags", "empty,latency",
			"--log-level", "debug",
		}))

		cfg, err := loadConfig(cmd)
		require.NoError(t, err)
		require.Equal(t, 7, cfg.Users)
		require.Equal(t, "default", cfg.Scenario)
		require.Equal(t, []string{"empty", "latency"}, cfg.Tags)
		require.Equal(t, "debug", cfg.LogLevel)
		require.Equal(t, "http://127.0.0.1:8080", cfg.Host)
	})

	t.Run("InvalidOverride", func(t *testing.T) {
		cmd, _, err := NewRootCmd().Find([]string{"worker"})
		require.NoError(t, err)
		require.NoError(t, cmd.ParseFlags([]string{"--master-port", "70000"}))

		_, err = loadConfig(cmd)
		require.Error(t, err)
	})

	t.Run("MissingFile", func(t *testing.T) {
		cmd, _, err := NewRootCmd().Find([]string{"target"})
		require.NoError(t, err)
		require.NoError(t, cmd.ParseFlags([]string{"--config", filepath.Join(t.TempDir(), "none.yaml")}))

		_, err = loadConfig(cmd)
		require.Error(t, err)
	})
}
