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

var (
	_ Task = (*weightedTask)(nil)
)

type weightedTask struct {
	Task
	weight int
}

func (w *weightedTask) Unwrap() Task {
	return w.Task
}

// Weight sets the relative selection weight of task in a Random taskset.
func Weight(task Task, weight int) Task {
	return &weightedTask{Task: task, weight: weight}
}

// GetWeight returns the outermost weight of task, or 0 when unset.
func GetWeight(task Task) int {
	if wt, ok := unwrapTask[*weightedTask](task); ok {
		return wt.weight
	}
	return 0
}
