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
	"time"

	"github.com/porterlab/porterload/internal"
)

var (
	// StopUser is returned from a task or hook to stop the running user.
	StopUser = errors.New("stop user")
)

// Runner is the environment a user runs in.
type Runner interface {
	// Host returns the base URL of the system under test.
	Host() string
	// Tags returns the tag filters of the current test. nil means no filter.
	Tags() (tags, excludeTags *[]string)
	// Options decodes the runner specific options into v.
	Options(v interface{}) error
	// ReportException reports an unexpected error raised by a user.
	ReportException(err error)
}

// Reporter receives the result of every request made by a user.
type Reporter interface {
	Report(requestType, name string, responseTime time.Duration, contentLength int64, err error)
}

// User is a virtual user spawned by the load generator.
type User interface {
	Init(u User, r Runner, rep Reporter)
	Runner() Runner
	Report(requestType, name string, responseTime time.Duration, contentLength int64, err error)
	WaitTime() WaitTimeFunc
	Wait(ctx context.Context) error
	OnStart(ctx context.Context) error
	OnStop(ctx context.Context) error
	Process(ctx context.Context) error
}

// BaseUserImpl implements everything of User except Process.
type BaseUserImpl struct {
	runner   Runner
	reporter Reporter
	waiter   internal.Waiter
}

// Init binds the user to its runner and reporter. u is the outermost user value.
func (b *BaseUserImpl) Init(u User, r Runner, rep Reporter) {
	b.runner = r
	b.reporter = rep
	b.waiter.Init(u.WaitTime())
}

func (b *BaseUserImpl) Runner() Runner {
	return b.runner
}

func (b *BaseUserImpl) Report(requestType, name string, responseTime time.Duration, contentLength int64, err error) {
	if b.reporter == nil {
		return
	}
	b.reporter.Report(requestType, name, responseTime, contentLength, err)
}

// WaitTime returns the wait time between tasks. The default is no wait.
func (b *BaseUserImpl) WaitTime() WaitTimeFunc {
	return Constant(0)
}

func (b *BaseUserImpl) Wait(ctx context.Context) error {
	return b.waiter.Wait(ctx)
}

func (b *BaseUserImpl) OnStart(ctx context.Context) error {
	return nil
}

func (b *BaseUserImpl) OnStop(ctx context.Context) error {
	return nil
}

// RecordedError is implemented by errors that were already counted as a failed request.
type RecordedError interface {
	error
	Recorded() bool
}

// IsRecorded reports whether err, or an error it wraps, was already counted as a failed request.
func IsRecorded(err error) bool {
	var r RecordedError
	return errors.As(err, &r) && r.Recorded()
}

func processUser(ctx context.Context, user User) error {
	if err := user.OnStart(ctx); err != nil {
		if errors.Is(err, StopUser) {
			return nil
		}
		return err
	}

	for {
		err := user.Process(ctx)
		if err == nil {
			continue
		}
		if errors.Is(err, context.Canceled) || errors.Is(err, StopUser) {
			break
		}
		// the user is dropped, OnStop still runs
		_ = user.OnStop(ctx)
		return err
	}

	// the test context may be done already, hooks get a fresh one
	if err := user.OnStop(context.WithoutCancel(ctx)); err != nil && !errors.Is(err, StopUser) {
		return err
	}
	return nil
}
