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

package porterload

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/porterlab/porterload/stats"
)

const (
	defaultProgressInterval = 5 * time.Second
)

var (
	_ Runner = (*Standalone)(nil)
)

// Result is the outcome of a standalone run.
type Result struct {
	Entries    stats.Entries
	Total      *stats.Entry
	Errors     stats.Errors
	Exceptions []ExceptionCount
	Users      map[string]int64
	Duration   time.Duration
}

// ExceptionCount is an exception raised by users and how many times it occurred.
type ExceptionCount struct {
	Msg         string
	Traceback   string
	Occurrences int64
}

// Standalone runs users without a master: it ramps them up, holds them for the run time
// and returns the collected statistics.
type Standalone struct {
	host             string
	users            int
	spawnRate        float64
	runTime          time.Duration
	progressInterval time.Duration
	tags             *[]string
	excludeTags      *[]string
	options          func(v interface{}) error
	logger           *slog.Logger

	loadGenerator *LoadGenerator
	classes       []string

	mu         sync.Mutex
	exceptions map[string]*ExceptionCount
}

type StandaloneOption func(s *Standalone)

// WithSpawnRate sets the number of users started per second. Zero starts all users at once.
func WithSpawnRate(rate float64) StandaloneOption {
	return func(s *Standalone) {
		s.spawnRate = rate
	}
}

// WithRunTime stops the test after d once all users are running. Zero runs until canceled.
func WithRunTime(d time.Duration) StandaloneOption {
	return func(s *Standalone) {
		s.runTime = d
	}
}

// WithTags runs only tasks carrying one of tags. nil disables the filter.
func WithTags(tags []string) StandaloneOption {
	return func(s *Standalone) {
		s.tags = ptrOrNil(tags)
	}
}

// WithExcludeTags skips tasks carrying one of tags.
func WithExcludeTags(tags []string) StandaloneOption {
	return func(s *Standalone) {
		s.excludeTags = ptrOrNil(tags)
	}
}

// WithProgressInterval sets how often running statistics are logged. Zero disables it.
func WithProgressInterval(d time.Duration) StandaloneOption {
	return func(s *Standalone) {
		s.progressInterval = d
	}
}

// WithOptions sets the decoder behind Runner.Options.
func WithOptions(f func(v interface{}) error) StandaloneOption {
	return func(s *Standalone) {
		s.options = f
	}
}

func WithStandaloneLogger(logger *slog.Logger) StandaloneOption {
	return func(s *Standalone) {
		s.logger = logger
	}
}

func NewStandalone(host string, users int, options ...StandaloneOption) *Standalone {
	s := &Standalone{
		host:             host,
		users:            users,
		progressInterval: defaultProgressInterval,
		logger:           slog.Default(),
		loadGenerator:    NewLoadGenerator(),
		exceptions:       map[string]*ExceptionCount{},
	}
	for _, option := range options {
		option(s)
	}
	return s
}

// RegisterUser registers a user class. Users are spread evenly over the registered classes.
func (s *Standalone) RegisterUser(name string, f func() User) {
	s.loadGenerator.RegisterUser(s, name, f)
	s.classes = append(s.classes, name)
}

// OnTestStart registers function to be called when the test starts.
func (s *Standalone) OnTestStart(f func(ctx context.Context) error) {
	s.loadGenerator.OnTestStart(f)
}

// OnTestStop registers function to be called when the test stops.
func (s *Standalone) OnTestStop(f func(ctx context.Context)) {
	s.loadGenerator.OnTestStop(f)
}

// Run runs the test until the run time elapses or ctx is done.
func (s *Standalone) Run(ctx context.Context) (*Result, error) {
	if len(s.classes) == 0 {
		return nil, fmt.Errorf("no user class registered")
	}

	start := time.Now()
	if err := s.loadGenerator.Start(); err != nil {
		s.loadGenerator.Stop()
		return nil, err
	}
	s.logger.Info("Load test started.", "host", s.host, "users", s.users, "spawnRate", s.spawnRate)

	progressCtx, stopProgress := context.WithCancel(ctx)
	var wg sync.WaitGroup
	s.startProgressProcess(progressCtx, &wg)

	if err := s.ramp(ctx); err == nil {
		s.logger.Info("All users spawned.", "users", s.loadGenerator.Users())
		s.hold(ctx)
	}

	stopProgress()
	wg.Wait()

	users := s.loadGenerator.Users()
	s.loadGenerator.Stop()
	entries, total, errs := s.loadGenerator.SnapshotStats()
	s.logger.Info("Load test stopped.", "requests", total.NumRequests, "failures", total.NumFailures)

	return &Result{
		Entries:    entries,
		Total:      total,
		Errors:     errs,
		Exceptions: s.Exceptions(),
		Users:      users,
		Duration:   time.Since(start),
	}, nil
}

// ramp raises the user count one user at a time at the spawn rate.
func (s *Standalone) ramp(ctx context.Context) error {
	counts := make(map[string]int, len(s.classes))
	if s.spawnRate <= 0 {
		for i := 0; i < s.users; i++ {
			counts[s.classes[i%len(s.classes)]]++
		}
		for name, n := range counts {
			_ = s.loadGenerator.Spawn(name, n)
		}
		return ctx.Err()
	}

	ticker := time.NewTicker(time.Duration(float64(time.Second) / s.spawnRate))
	defer ticker.Stop()

	for i := 0; i < s.users; i++ {
		name := s.classes[i%len(s.classes)]
		counts[name]++
		_ = s.loadGenerator.Spawn(name, counts[name])
		if i == s.users-1 {
			break
		}
		select {
		case <-ticker.C:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return nil
}

func (s *Standalone) hold(ctx context.Context) {
	if s.runTime <= 0 {
		<-ctx.Done()
		return
	}
	timer := time.NewTimer(s.runTime)
	defer timer.Stop()
	select {
	case <-timer.C:
	case <-ctx.Done():
	}
}

func (s *Standalone) startProgressProcess(ctx context.Context, wg *sync.WaitGroup) {
	if s.progressInterval <= 0 {
		return
	}

	wg.Add(1)
	go func() {
		defer wg.Done()

		ticker := time.NewTicker(s.progressInterval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				_, total, _ := s.loadGenerator.SnapshotStats()
				s.logger.Info("Running.",
					"users", s.loadGenerator.Users(),
					"requests", total.NumRequests,
					"failures", total.NumFailures,
					"avg", total.AvgResponseTime(),
				)

			case <-ctx.Done():
				return
			}
		}
	}()
}

func (s *Standalone) Host() string {
	return s.host
}

func (s *Standalone) Tags() (tags, excludeTags *[]string) {
	return s.tags, s.excludeTags
}

func (s *Standalone) Options(v interface{}) error {
	if s.options == nil {
		return nil
	}
	return s.options(v)
}

// ReportException counts err by message and logs its first occurrence.
func (s *Standalone) ReportException(err error) {
	msg := err.Error()

	s.mu.Lock()
	e, ok := s.exceptions[msg]
	if !ok {
		e = &ExceptionCount{Msg: msg, Traceback: Traceback(err)}
		s.exceptions[msg] = e
	}
	e.Occurrences++
	s.mu.Unlock()

	if !ok {
		s.logger.Error("User raised an exception.", "error", err, "traceback", e.Traceback)
	}
}

// Exceptions returns the exceptions reported so far, most frequent first.
func (s *Standalone) Exceptions() []ExceptionCount {
	s.mu.Lock()
	defer s.mu.Unlock()
	ret := make([]ExceptionCount, 0, len(s.exceptions))
	for _, e := range s.exceptions {
		ret = append(ret, *e)
	}
	sort.Slice(ret, func(i, j int) bool {
		if ret[i].Occurrences != ret[j].Occurrences {
			return ret[i].Occurrences > ret[j].Occurrences
		}
		return ret[i].Msg < ret[j].Msg
	})
	return ret
}

func ptrOrNil(tags []string) *[]string {
	if tags == nil {
		return nil
	}
	return &tags
}
