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
	"testing"

	"github.com/porterlab/porterload/taskset"
)

type dummyTask struct {
	taskset.Task
}

func (d dummyTask) Unwrap() taskset.Task {
	return d.Task
}

func TestGetWeight(t *testing.T) {
	testcases := []struct {
		Name     string
		Task     taskset.Task
		Expected int
	}{
		{"No Weight", taskset.Tag(nil, "tag"), 0},
		{"Single Weight Task", taskset.Weight(nil, 10), 10},
		{"Nested Weight Task", taskset.Weight(taskset.Weight(nil, 20), 30), 30},
		{"Weight Task in Dummy Task", dummyTask{taskset.Weight(nil, 40)}, 40},
		{"Weight under Name", taskset.Name(taskset.Weight(nil, 5), "named"), 5},
	}

	for _, testcase := range testcases {
		t.Run(testcase.Name, func(t *testing.T) {
			if weight := taskset.GetWeight(testcase.Task); weight != testcase.Expected {
				t.Fatalf("unexpected weight. got:%v want:%v", weight, testcase.Expected)
			}
		})
	}
}

func TestGetName(t *testing.T) {
	task := taskset.Weight(taskset.Tag(taskset.Name(nil, "empty"), "tag"), 3)
	if name := taskset.GetName(task); name != "empty" {
		t.Fatalf("unexpected name. got:%v want:%v", name, "empty")
	}
	if name := taskset.GetName(taskset.Weight(nil, 1)); name != "" {
		t.Fatalf("unexpected name. got:%v want:%v", name, "")
	}
}
