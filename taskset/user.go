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
	"fmt"

	"github.com/porterlab/porterload"
)

// User is implemented by users whose behavior is a taskset.
type User interface {
	porterload.User

	// TaskSet returns the taskset the user runs. It is called once per user.
	TaskSet() TaskSet
}

// UserImpl runs the taskset of the user embedding it.
type UserImpl struct {
	porterload.BaseUserImpl
	self    porterload.User
	taskset TaskSet
}

func (tu *UserImpl) Init(u porterload.User, r porterload.Runner, rep porterload.Reporter) {
	tsu, ok := u.(User)
	if !ok {
		panic(fmt.Sprintf("%T does not implement taskset.User", u))
	}
	tu.BaseUserImpl.Init(u, r, rep)
	tu.self = u
	tu.taskset = tsu.TaskSet()
}

// OnStart applies the runner's tag filter to the taskset.
func (tu *UserImpl) OnStart(ctx context.Context) error {
	var opts []FilterOption
	if r := tu.Runner(); r != nil {
		tags, exclude := r.Tags()
		if tags != nil {
			opts = append(opts, IncludeTags(*tags...))
		}
		if exclude != nil {
			opts = append(opts, ExcludeTags(*exclude...))
		}
	}
	if len(opts) > 0 {
		tu.taskset.FilterTasks(func(tasks []Task) []Task {
			return FilterTasks(tasks, opts...)
		})
	}
	return nil
}

// Process runs the taskset once. Reschedule requests from the top level taskset are absorbed.
func (tu *UserImpl) Process(ctx context.Context) error {
	err := Run(ctx, tu.taskset, tu.self)
	if errors.Is(err, RescheduleTask) || errors.Is(err, RescheduleTaskImmediately) {
		return nil
	}
	if errors.Is(err, ErrNoTasks) {
		return porterload.Wrap(fmt.Errorf("%w: check the tag filters", err))
	}
	return err
}
