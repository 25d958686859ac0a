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
	"math/rand"

	"github.com/porterlab/porterload"
)

var (
	_ TaskSet = (*Random)(nil)
)

// Random picks its next task at random, proportionally to the task weights.
// Tasks without a weight count as weight 1.
type Random struct {
	tasks    []Task
	filtered []Task // weight expanded: a task of weight n appears n times
	waitTime porterload.WaitTimeFunc
}

func NewRandom(tasks ...Task) *Random {
	r := &Random{tasks: tasks}
	r.filtered = expandWeights(tasks)
	return r
}

// WithWaitTime sets a wait time used inside the taskset instead of the user's.
func (r *Random) WithWaitTime(f porterload.WaitTimeFunc) *Random {
	r.waitTime = f
	return r
}

func (r *Random) Len() int {
	return len(r.filtered)
}

func (r *Random) Next() Task {
	return r.filtered[rand.Intn(len(r.filtered))]
}

// Tasks returns the selectable tasks, each repeated by its weight.
func (r *Random) Tasks() []Task {
	return r.filtered
}

func (r *Random) WaitTime() porterload.WaitTimeFunc {
	return r.waitTime
}

func (r *Random) OnStart(ctx context.Context) error {
	return nil
}

func (r *Random) OnStop(ctx context.Context) error {
	return nil
}

func (r *Random) FilterTasks(f func(tasks []Task) []Task) {
	r.filtered = expandWeights(f(r.tasks))
}

func (r *Random) Run(ctx context.Context, u porterload.User) error {
	return Run(ctx, r, u)
}

func expandWeights(tasks []Task) []Task {
	var expanded []Task
	for _, t := range tasks {
		for i := 0; i < max(GetWeight(t), 1); i++ {
			expanded = append(expanded, t)
		}
	}
	return expanded
}
