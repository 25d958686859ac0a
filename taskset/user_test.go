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
	"context"
	"errors"
	"testing"

	"github.com/porterlab/porterload"
	"github.com/porterlab/porterload/taskset"
)

type tasksetUser struct {
	taskset.UserImpl
	ran []string
}

func (u *tasksetUser) TaskSet() taskset.TaskSet {
	record := func(name string) taskset.Task {
		return taskset.Tag(taskset.TaskFunc(func(ctx context.Context, user porterload.User) error {
			u.ran = append(u.ran, name)
			if len(u.ran) >= 20 {
				return porterload.StopUser
			}
			return nil
		}), name)
	}
	return taskset.NewRandom(record("empty"), record("latency"), record("keepalive"))
}

func TestUserImpl_TagFilter(t *testing.T) {
	include := []string{"latency", "keepalive"}
	exclude := []string{"keepalive"}
	runner := &recordingRunner{tags: &include, excludeTags: &exclude}

	u := &tasksetUser{}
	u.Init(u, runner, nil)

	if err := u.OnStart(context.Background()); err != nil {
		t.Fatal(err)
	}
	if err := u.Process(context.Background()); !errors.Is(err, porterload.StopUser) {
		t.Fatalf("unexpected error. got:%v want:%v", err, porterload.StopUser)
	}

	for _, name := range u.ran {
		if name != "latency" {
			t.Fatalf("unexpected task ran. got:%v want:%v", name, "latency")
		}
	}
}

func TestUserImpl_NoTasks(t *testing.T) {
	include := []string{"unknown"}
	runner := &recordingRunner{tags: &include}

	u := &tasksetUser{}
	u.Init(u, runner, nil)

	if err := u.OnStart(context.Background()); err != nil {
		t.Fatal(err)
	}
	if err := u.Process(context.Background()); !errors.Is(err, taskset.ErrNoTasks) {
		t.Fatalf("unexpected error. got:%v want:%v", err, taskset.ErrNoTasks)
	}
	if len(u.ran) != 0 {
		t.Fatalf("unexpected tasks ran. got:%v", u.ran)
	}
}

func TestUserImpl_NotTasksetUser(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("Init did not panic")
		}
	}()
	var impl taskset.UserImpl
	impl.Init(&testUser{}, &recordingRunner{}, nil)
}

func TestUserImpl_Unfiltered(t *testing.T) {
	u := &tasksetUser{}
	u.Init(u, &recordingRunner{}, nil)

	if err := u.OnStart(context.Background()); err != nil {
		t.Fatal(err)
	}
	if err := u.Process(context.Background()); !errors.Is(err, porterload.StopUser) {
		t.Fatalf("unexpected error. got:%v want:%v", err, porterload.StopUser)
	}
	if len(u.ran) != 20 {
		t.Fatalf("unexpected task runs. got:%v want:%v", len(u.ran), 20)
	}
}
