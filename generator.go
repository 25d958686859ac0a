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
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/porterlab/porterload/spawner"
	"github.com/porterlab/porterload/stats"
)

const (
	defaultStatsNotifyInterval = 100 * time.Millisecond
)

// UnknownUserError is an error that trying to spawn unregistered user.
type UnknownUserError struct {
	User string
}

func (e *UnknownUserError) Error() string {
	return fmt.Sprintf("unknown user %s", e.User)
}

// LoadGenerator runs the registered user classes and collects their statistics.
type LoadGenerator struct {
	// RestartMode is the mode of spawning users.
	RestartMode spawner.RestartMode

	// StatsNotifyInterval is the interval at which each user merges its statistics.
	StatsNotifyInterval time.Duration

	userSpawners map[string]*spawner.Spawner
	stats        *stats.Stats

	testStartHandlers []func(ctx context.Context) error
	testStopHandlers  []func(ctx context.Context)

	mu          sync.Mutex
	cancelStart context.CancelFunc
}

func NewLoadGenerator() *LoadGenerator {
	return &LoadGenerator{
		RestartMode:         spawner.RestartNever,
		StatsNotifyInterval: defaultStatsNotifyInterval,

		userSpawners: map[string]*spawner.Spawner{},
		stats:        stats.New(),
	}
}

// RegisterUser registers a user class. f creates a new user for every spawned goroutine.
func (l *LoadGenerator) RegisterUser(r Runner, name string, f func() User) {
	spawnFunc := func(ctx context.Context) {
		agg := stats.NewAggregator(l.stats, l.StatsNotifyInterval)
		defer agg.Close()

		user := f()
		user.Init(user, r, agg)
		if err := processUser(ctx, user); err != nil && !errors.Is(err, context.Canceled) {
			r.ReportException(err)
		}
	}
	l.userSpawners[name] = spawner.New(spawnFunc, l.RestartMode)
}

// OnTestStart registers a function to be called when the load test starts.
func (l *LoadGenerator) OnTestStart(f func(ctx context.Context) error) {
	l.testStartHandlers = append(l.testStartHandlers, f)
}

// OnTestStop registers a function to be called when the load test stops.
func (l *LoadGenerator) OnTestStop(f func(ctx context.Context)) {
	l.testStopHandlers = append(l.testStopHandlers, f)
}

// Start runs the test start handlers and enables spawning.
func (l *LoadGenerator) Start() error {
	ctx, cancel := context.WithCancel(context.Background())
	l.mu.Lock()
	l.cancelStart = cancel
	l.mu.Unlock()

	for _, f := range l.testStartHandlers {
		if err := f(ctx); err != nil {
			return err
		}
	}
	for _, s := range l.userSpawners {
		s.Start()
	}
	return nil
}

// Stop stops every user and waits for them before running the test stop handlers.
func (l *LoadGenerator) Stop() {
	l.mu.Lock()
	if l.cancelStart != nil {
		l.cancelStart()
		l.cancelStart = nil
	}
	l.mu.Unlock()

	for _, s := range l.userSpawners {
		s.Cap(0)
		s.Stop()
	}
	for _, s := range l.userSpawners {
		s.StopAll()
	}

	ctx := context.Background()
	for _, f := range l.testStopHandlers {
		f(ctx)
	}
}

// Spawn sets the number of running users of a user class.
func (l *LoadGenerator) Spawn(user string, count int) error {
	if s, ok := l.userSpawners[user]; ok {
		s.Cap(count)
		return nil
	}
	return &UnknownUserError{User: user}
}

// Users returns the number of running users per user class.
func (l *LoadGenerator) Users() map[string]int64 {
	ret := make(map[string]int64, len(l.userSpawners))
	for name, s := range l.userSpawners {
		ret[name] = s.Count()
	}
	return ret
}

// UserClasses returns the names of the registered user classes.
func (l *LoadGenerator) UserClasses() []string {
	names := make([]string, 0, len(l.userSpawners))
	for name := range l.userSpawners {
		names = append(names, name)
	}
	return names
}

// FlushStats returns the statistics collected since the previous flush and resets them.
func (l *LoadGenerator) FlushStats() (stats.Entries, *stats.Entry, stats.Errors) {
	return l.stats.Flush()
}

// SnapshotStats returns a copy of the statistics collected so far.
func (l *LoadGenerator) SnapshotStats() (stats.Entries, *stats.Entry, stats.Errors) {
	return l.stats.Snapshot()
}
