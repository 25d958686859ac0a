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
	"math/rand"
	"time"
)

var (
	nowFunc = time.Now
)

// WaitTimeFunc returns the time a user waits between two tasks.
type WaitTimeFunc func() time.Duration

// Between waits a uniformly random duration in [min, max).
func Between(min, max time.Duration) WaitTimeFunc {
	return func() time.Duration {
		if max <= min {
			return min
		}
		return min + time.Duration(rand.Int63n(int64(max-min)))
	}
}

// Constant always waits d.
func Constant(d time.Duration) WaitTimeFunc {
	return func() time.Duration {
		return d
	}
}

// ConstantPacing makes task runs start every d, whatever the task took.
func ConstantPacing(d time.Duration) WaitTimeFunc {
	lastRun := nowFunc()
	var lastWait time.Duration
	return func() time.Duration {
		now := nowFunc()
		elapsed := now.Sub(lastRun) - lastWait
		lastRun = now
		lastWait = max(0, d-elapsed)
		return lastWait
	}
}

// ConstantThroughput runs at most taskRunsPerSecond tasks per second per user.
func ConstantThroughput(taskRunsPerSecond float64) WaitTimeFunc {
	if taskRunsPerSecond <= 0 {
		return Constant(0)
	}
	return ConstantPacing(time.Duration(float64(time.Second) / taskRunsPerSecond))
}
