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

// Package internal holds helpers shared by the user and taskset packages.
package internal

import (
	"context"
	"time"
)

// Waiter sleeps for the duration returned by its wait time function, reusing one timer.
type Waiter struct {
	waitTime func() time.Duration
	timer    *time.Timer
}

func (w *Waiter) Init(waitTime func() time.Duration) {
	w.waitTime = waitTime
	w.timer = time.NewTimer(time.Hour)
	w.timer.Stop()
}

// Wait blocks until the next wait time elapses or ctx is done.
func (w *Waiter) Wait(ctx context.Context) error {
	if w.waitTime == nil || w.timer == nil {
		return ctx.Err()
	}

	d := w.waitTime()
	if d <= 0 {
		return ctx.Err()
	}
	w.timer.Reset(d)

	select {
	case <-w.timer.C:
		return nil
	case <-ctx.Done():
		if !w.timer.Stop() {
			select {
			case <-w.timer.C:
			default:
			}
		}
		return ctx.Err()
	}
}
