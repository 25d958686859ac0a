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
	_ Task = (*namedTask)(nil)
)

type namedTask struct {
	Task
	name string
}

func (n *namedTask) Unwrap() Task {
	return n.Task
}

// Name labels task for task ratio listings.
func Name(task Task, name string) Task {
	return &namedTask{Task: task, name: name}
}

// GetName returns the name given to task, or "" when it has none.
func GetName(task Task) string {
	if nt, ok := unwrapTask[*namedTask](task); ok {
		return nt.name
	}
	return ""
}
