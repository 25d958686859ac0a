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

package mock

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/porterlab/porterload"
)

// User runs the task given to UserGenerator and counts its lifecycle.
type User struct {
	porterload.BaseUserImpl

	ID int64

	task    func(ctx context.Context) error
	onStart func(ctx context.Context) error
	onStop  func(ctx context.Context) error
}

func (u *User) Process(ctx context.Context) error {
	return u.task(ctx)
}

func (u *User) OnStart(ctx context.Context) error {
	return u.onStart(ctx)
}

func (u *User) OnStop(ctx context.Context) error {
	return u.onStop(ctx)
}

// UserController lets a test block until a number of users started or stopped.
type UserController struct {
	mu      sync.Mutex
	cond    *sync.Cond
	started int
	stopped int
	loops   map[int64]int
}

func newUserController() *UserController {
	uc := &UserController{loops: map[int64]int{}}
	uc.cond = sync.NewCond(&uc.mu)
	return uc
}

func (uc *UserController) update(f func()) {
	uc.mu.Lock()
	defer uc.mu.Unlock()
	f()
	uc.cond.Broadcast()
}

func (uc *UserController) Started() int {
	uc.mu.Lock()
	defer uc.mu.Unlock()
	return uc.started
}

func (uc *UserController) Stopped() int {
	uc.mu.Lock()
	defer uc.mu.Unlock()
	return uc.stopped
}

// Loops returns how many times Process ran per user id.
func (uc *UserController) Loops() map[int64]int {
	uc.mu.Lock()
	defer uc.mu.Unlock()
	m := make(map[int64]int, len(uc.loops))
	for k, v := range uc.loops {
		m[k] = v
	}
	return m
}

func (uc *UserController) WaitStart(n int) {
	uc.mu.Lock()
	defer uc.mu.Unlock()
	for uc.started < n {
		uc.cond.Wait()
	}
}

func (uc *UserController) WaitStop(n int) {
	uc.mu.Lock()
	defer uc.mu.Unlock()
	for uc.stopped < n {
		uc.cond.Wait()
	}
}

// UserGenerator returns a user factory whose users run f on every Process call.
func UserGenerator(f func(ctx context.Context, u *User) error) (func() porterload.User, *UserController) {
	var id atomic.Int64
	uc := newUserController()

	generator := func() porterload.User {
		uid := id.Add(1)
		var u *User
		u = &User{
			ID: uid,
			onStart: func(ctx context.Context) error {
				uc.update(func() { uc.started += 1 })
				return nil
			},
			task: func(ctx context.Context) error {
				uc.update(func() { uc.loops[uid] += 1 })
				return f(ctx, u)
			},
			onStop: func(ctx context.Context) error {
				uc.update(func() { uc.stopped += 1 })
				return nil
			},
		}
		return u
	}

	return generator, uc
}
