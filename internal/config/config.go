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

// Package config loads the YAML configuration of the porterload command.
package config

import (
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/creasty/defaults"
	"gopkg.in/yaml.v3"
)

const (
	ScenarioDefault = "default"
	ScenarioMixed   = "mixed"
)

type Config struct {
	Host        string        `yaml:"host" default:"http://127.0.0.1:3000"`
	Users       int           `yaml:"users" default:"1"`
	SpawnRate   float64       `yaml:"spawnRate" default:"1"`
	RunTime     time.Duration `yaml:"runTime"`
	Scenario    string        `yaml:"scenario" default:"default"`
	WaitTime    time.Duration `yaml:"waitTime" default:"1s"`
	Tags        []string      `yaml:"tags"`
	ExcludeTags []string      `yaml:"excludeTags"`
	Timeout     time.Duration `yaml:"timeout" default:"30s"`
	LogLevel    string        `yaml:"logLevel" default:"info"`
	NoColor     bool          `yaml:"noColor"`
	Master      MasterConfig  `yaml:"master"`
	Worker      WorkerConfig  `yaml:"worker"`
	Target      TargetConfig  `yaml:"target"`
}

type MasterConfig struct {
	Host string `yaml:"host" default:"127.0.0.1"`
	Port int    `yaml:"port" default:"5557"`
}

type WorkerConfig struct {
	HeartbeatInterval      time.Duration `yaml:"heartbeatInterval" default:"1s"`
	MasterHeartbeatTimeout time.Duration `yaml:"masterHeartbeatTimeout" default:"60s"`
	StatsReportInterval    time.Duration `yaml:"statsReportInterval" default:"3s"`
}

type TargetConfig struct {
	Addr string `yaml:"addr" default:":3000"`
}

// Validate checks the configuration after command line overrides were applied.
func (c *Config) Validate() error {
	u, err := url.Parse(c.Host)
	if err != nil {
		return fmt.Errorf("invalid config, host: %w", err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("invalid config, host must be an http(s) URL: %q", c.Host)
	}
	if c.Users < 0 {
		return fmt.Errorf("invalid config, users cannot be negative: %d", c.Users)
	}
	if c.SpawnRate < 0 {
		return fmt.Errorf("invalid config, spawnRate cannot be negative: %v", c.SpawnRate)
	}
	if c.RunTime < 0 || c.WaitTime < 0 || c.Timeout < 0 {
		return fmt.Errorf("invalid config, durations cannot be negative")
	}
	switch c.Scenario {
	case ScenarioDefault, ScenarioMixed:
	default:
		return fmt.Errorf("invalid config, unknown scenario: %q", c.Scenario)
	}
	if _, err := c.SlogLevel(); err != nil {
		return err
	}
	if c.Master.Port <= 0 || c.Master.Port > 65535 {
		return fmt.Errorf("invalid config, master port out of range: %d", c.Master.Port)
	}
	if strings.TrimSpace(c.Master.Host) == "" {
		return fmt.Errorf("invalid config, master host cannot be blank")
	}
	return nil
}

// SlogLevel parses LogLevel.
func (c *Config) SlogLevel() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return 0, fmt.Errorf("invalid config, logLevel: %w", err)
	}
	return level, nil
}

// Load reads the configuration at configPath. An empty path yields the defaults.
func Load(configPath string) (*Config, error) {
	if configPath == "" {
		return loadFromBytes(nil)
	}
	contents, err := os.ReadFile(configPath)
	if err != nil {
		return nil, err
	}
	return loadFromBytes(contents)
}

func loadFromBytes(contents []byte) (*Config, error) {
	config := &Config{}
	if err := defaults.Set(config); err != nil {
		return nil, err
	}
	if err := yaml.Unmarshal(contents, config); err != nil {
		return nil, err
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}
