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

// Package taskset runs weighted sets of tasks on behalf of a user.
package taskset

import (
	"context"

	"github.com/porterlab/porterload"
)

var (
	_ Task = TaskFunc(nil)
)

// Task is one unit of user behavior.
type Task interface {
	Run(ctx context.Context, u porterload.User) error
}

type TaskFunc func(ctx context.Context, u porterload.User) error

func (t TaskFunc) Run(ctx context.Context, u porterload.User) error {
	return t(ctx, u)
}

// unwrapTask walks the Unwrap chain of task and returns the first value of type T.
func unwrapTask[T any](task Task) (T, bool) {
	for task != nil {
		if t, ok := task.(T); ok {
			return t, true
		}
		u, ok := task.(interface{ Unwrap() Task })
		if !ok {
			break
		}
		task = u.Unwrap()
	}
	var zero T
	return zero, false
}
