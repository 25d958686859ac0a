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

package taskset_test

import (
	"context"
	"errors"
	"slices"
	"sync"
	"testing"

	"github.com/porterlab/porterload"
	"github.com/porterlab/porterload/taskset"
)

type testUser struct {
	porterload.BaseUserImpl
	Result []int
}

func (u *testUser) Process(ctx context.Context) error {
	return nil
}

func (u *testUser) Add(n int) {
	u.Result = append(u.Result, n)
}

func step(n int, ret error) taskset.Task {
	return taskset.TaskFunc(func(ctx context.Context, u porterload.User) error {
		u.(*testUser).Add(n)
		return ret
	})
}

// once returns a task returning each error in turn, then StopUser.
func once(n int, rets ...error) taskset.Task {
	i := 0
	return taskset.TaskFunc(func(ctx context.Context, u porterload.User) error {
		u.(*testUser).Add(n)
		if i >= len(rets) {
			return porterload.StopUser
		}
		i++
		return rets[i-1]
	})
}

func TestRun_ControlFlow(t *testing.T) {
	testcases := []struct {
		Name          string
		TaskSet       taskset.TaskSet
		Expected      []int
		ExpectedError error
	}{
		{
			Name:          "Stop User",
			TaskSet:       taskset.NewRandom(step(1, porterload.StopUser)),
			Expected:      []int{1},
			ExpectedError: porterload.StopUser,
		},
		{
			Name:          "Reschedule until stop",
			TaskSet:       taskset.NewRandom(once(1, nil, taskset.RescheduleTask, taskset.RescheduleTaskImmediately)),
			Expected:      []int{1, 1, 1, 1},
			ExpectedError: porterload.StopUser,
		},
		{
			Name:          "Interrupt TaskSet",
			TaskSet:       taskset.NewRandom(step(1, taskset.InterruptTaskSet)),
			Expected:      []int{1},
			ExpectedError: taskset.RescheduleTask,
		},
		{
			Name:          "Interrupt TaskSet Immediately",
			TaskSet:       taskset.NewRandom(step(1, taskset.InterruptTaskSetImmediately)),
			Expected:      []int{1},
			ExpectedError: taskset.RescheduleTaskImmediately,
		},
		{
			Name:          "Reschedule immediately",
			TaskSet:       taskset.NewRandom(once(0, taskset.RescheduleTaskImmediately)),
			Expected:      []int{0, 0},
			ExpectedError: porterload.StopUser,
		},
		{
			Name: "Nested stop user",
			TaskSet: taskset.NewRandom(
				taskset.NewRandom(step(2, porterload.StopUser)),
			),
			Expected:      []int{2},
			ExpectedError: porterload.StopUser,
		},
	}

	for _, testcase := range testcases {
		t.Run(testcase.Name, func(t *testing.T) {
			u := &testUser{}
			err := taskset.Run(context.Background(), testcase.TaskSet, u)
			if !errors.Is(err, testcase.ExpectedError) {
				t.Fatalf("unexpected error. got:%v want:%v", err, testcase.ExpectedError)
			}
			if slices.Compare(u.Result, testcase.Expected) != 0 {
				t.Fatalf("unexpected result. got:%v want:%v", u.Result, testcase.Expected)
			}
		})
	}
}

func TestRun_NestedInterrupt(t *testing.T) {
	u := &testUser{}
	calls := 0
	inner := taskset.NewRandom(step(2, taskset.InterruptTaskSet))
	outer := taskset.NewRandom(taskset.TaskFunc(func(ctx context.Context, user porterload.User) error {
		calls++
		if calls > 3 {
			return porterload.StopUser
		}
		return inner.Run(ctx, user)
	}))

	err := taskset.Run(context.Background(), outer, u)
	if !errors.Is(err, porterload.StopUser) {
		t.Fatalf("unexpected error. got:%v want:%v", err, porterload.StopUser)
	}
	if slices.Compare(u.Result, []int{2, 2, 2}) != 0 {
		t.Fatalf("unexpected result. got:%v want:%v", u.Result, []int{2, 2, 2})
	}
}

func TestRun_ContextCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	u := &testUser{}
	ts := taskset.NewRandom(taskset.TaskFunc(func(ctx context.Context, user porterload.User) error {
		cancel()
		return ctx.Err()
	}))

	if err := taskset.Run(ctx, ts, u); !errors.Is(err, context.Canceled) {
		t.Fatalf("unexpected error. got:%v want:%v", err, context.Canceled)
	}
}

type recordingRunner struct {
	mu          sync.Mutex
	tags        *[]string
	excludeTags *[]string
	exceptions  []error
}

func (r *recordingRunner) Host() string {
	return ""
}

func (r *recordingRunner) Tags() (*[]string, *[]string) {
	return r.tags, r.excludeTags
}

func (r *recordingRunner) Options(v interface{}) error {
	return nil
}

func (r *recordingRunner) ReportException(err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.exceptions = append(r.exceptions, err)
}

type recordedError struct{}

func (recordedError) Error() string {
	return "request failed"
}

func (recordedError) Recorded() bool {
	return true
}

func TestRun_Exceptions(t *testing.T) {
	runner := &recordingRunner{}
	u := &testUser{}
	u.Init(u, runner, nil)

	boom := errors.New("boom")
	ts := taskset.NewRandom(once(1, boom, recordedError{}))

	if err := taskset.Run(context.Background(), ts, u); !errors.Is(err, porterload.StopUser) {
		t.Fatalf("unexpected error. got:%v want:%v", err, porterload.StopUser)
	}
	if len(runner.exceptions) != 1 || !errors.Is(runner.exceptions[0], boom) {
		t.Fatalf("unexpected exceptions. got:%v want:%v", runner.exceptions, []error{boom})
	}
}
