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

package taskset

import (
	"context"
	"errors"

	"github.com/porterlab/porterload"
	"github.com/porterlab/porterload/internal"
)

var (
	// RescheduleTask ends the current task and picks the next one after waiting.
	RescheduleTask = errors.New("reschedule task")
	// RescheduleTaskImmediately picks the next task without waiting.
	RescheduleTaskImmediately = errors.New("reschedule task immediately")
	// InterruptTaskSet leaves the current taskset, returning to the parent after waiting.
	InterruptTaskSet = errors.New("interrupt taskset")
	// InterruptTaskSetImmediately leaves the current taskset without waiting.
	InterruptTaskSetImmediately = errors.New("interrupt taskset immediately")

	// ErrNoTasks is returned when a taskset has no task left to run, e.g. after tag filtering.
	ErrNoTasks = errors.New("no tasks to run")
)

// TaskSet is a collection of tasks that is itself a task.
type TaskSet interface {
	Task

	// Len returns the number of selectable tasks.
	Len() int
	// Next picks the task to run next.
	Next() Task
	// WaitTime overrides the user's wait time inside the taskset when non-nil.
	WaitTime() porterload.WaitTimeFunc
	OnStart(ctx context.Context) error
	OnStop(ctx context.Context) error

	// FilterTasks replaces the selectable tasks with f applied to all tasks.
	FilterTasks(f func(tasks []Task) []Task)
}

// Run runs tasks of t until a task stops the user, interrupts the taskset or ctx is done.
func Run(ctx context.Context, t TaskSet, user porterload.User) error {
	var waiter *internal.Waiter
	if f := t.WaitTime(); f != nil {
		waiter = &internal.Waiter{}
		waiter.Init(f)
	}

	if err := t.OnStart(ctx); err != nil {
		return interrupted(err)
	}

	for {
		if t.Len() == 0 {
			_ = t.OnStop(ctx)
			return ErrNoTasks
		}

		err := t.Next().Run(ctx, user)

		switch {
		case err == nil || errors.Is(err, RescheduleTask):
			if err := wait(ctx, user, waiter); err != nil {
				return err
			}

		case errors.Is(err, RescheduleTaskImmediately):

		case errors.Is(err, porterload.StopUser):
			_ = t.OnStop(ctx)
			return err

		case errors.Is(err, InterruptTaskSet), errors.Is(err, InterruptTaskSetImmediately):
			if err := t.OnStop(ctx); errors.Is(err, porterload.StopUser) {
				return err
			}
			return interrupted(err)

		case ctx.Err() != nil:
			return ctx.Err()

		default:
			// failed requests are already counted by the client
			if !porterload.IsRecorded(err) {
				reportException(user, err)
			}
			if err := wait(ctx, user, waiter); err != nil {
				return err
			}
		}
	}
}

// interrupted maps a taskset interruption to the rescheduling the parent applies.
func interrupted(err error) error {
	switch {
	case errors.Is(err, InterruptTaskSet):
		return RescheduleTask
	case errors.Is(err, InterruptTaskSetImmediately):
		return RescheduleTaskImmediately
	}
	return err
}

func reportException(user porterload.User, err error) {
	if user == nil {
		return
	}
	if r := user.Runner(); r != nil {
		r.ReportException(err)
	}
}

func wait(ctx context.Context, user porterload.User, waiter *internal.Waiter) error {
	if waiter != nil {
		return waiter.Wait(ctx)
	}
	if user == nil {
		return ctx.Err()
	}
	return user.Wait(ctx)
}
