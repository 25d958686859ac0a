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

package scenario

import (
	"context"
	"fmt"
	"time"

	"github.com/porterlab/porterload"
	"github.com/porterlab/porterload/httpuser"
	"github.com/porterlab/porterload/taskset"
)

const (
	// UserClass is the name the user is registered and spawned by.
	UserClass = "WebsiteUser"

	ScenarioDefault = "default"
	ScenarioMixed   = "mixed"

	defaultWaitTime = time.Second
)

var (
	EmptyTask       = newTask("empty", "empty", Empty)
	RandLatencyTask = newTask("rand_latency", "latency", RandLatency)
	NoKeepAliveTask = newTask("no_keep_alive", "keepalive", NoKeepAlive)
)

type clientUser interface {
	Client() *httpuser.Client
}

func newTask(name, tag string, f func(ctx context.Context, c Client) error) taskset.Task {
	run := func(ctx context.Context, u porterload.User) error {
		cu, ok := u.(clientUser)
		if !ok || cu.Client() == nil {
			return porterload.Wrap(fmt.Errorf("task %s: %T has no HTTP client", name, u))
		}
		return f(ctx, cu.Client())
	}
	return taskset.Name(taskset.Tag(taskset.TaskFunc(run), tag), name)
}

// UserBehavior returns the tasks a WebsiteUser runs: only Empty is active.
func UserBehavior() *taskset.Random {
	return taskset.NewRandom(
		EmptyTask,
	)
}

// AllBehaviors returns the alternative weighting of the latency and keep-alive requests.
func AllBehaviors() *taskset.Random {
	return taskset.NewRandom(
		taskset.Weight(RandLatencyTask, 1),
		taskset.Weight(NoKeepAliveTask, 1),
	)
}

// Behavior returns the task set of the named scenario.
func Behavior(name string) (*taskset.Random, error) {
	switch name {
	case "", ScenarioDefault:
		return UserBehavior(), nil
	case ScenarioMixed:
		return AllBehaviors(), nil
	}
	return nil, fmt.Errorf("unknown scenario %q", name)
}

// Options configures the users created by NewWebsiteUser.
type Options struct {
	Scenario string
	Timeout  time.Duration
	// WaitTime is the pause between two tasks. Zero means the default of one second.
	WaitTime time.Duration
}

// WebsiteUser is the virtual user of the integration load test.
type WebsiteUser struct {
	httpuser.User

	behavior *taskset.Random
	waitTime time.Duration
}

// NewWebsiteUser returns the user factory to register under UserClass.
func NewWebsiteUser(opts Options) (func() porterload.User, error) {
	if _, err := Behavior(opts.Scenario); err != nil {
		return nil, err
	}
	waitTime := opts.WaitTime
	if waitTime <= 0 {
		waitTime = defaultWaitTime
	}
	return func() porterload.User {
		// validated above
		behavior, _ := Behavior(opts.Scenario)
		u := &WebsiteUser{
			behavior: behavior,
			waitTime: waitTime,
		}
		u.Timeout = opts.Timeout
		return u
	}, nil
}

func (u *WebsiteUser) TaskSet() taskset.TaskSet {
	return u.behavior
}

func (u *WebsiteUser) WaitTime() porterload.WaitTimeFunc {
	return porterload.Constant(u.waitTime)
}
