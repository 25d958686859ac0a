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

package porterload_test

import (
	"context"
	"errors"
	"reflect"
	"sync"
	"testing"
	"time"

	"github.com/porterlab/porterload"
	"github.com/porterlab/porterload/internal/mock"
	"github.com/porterlab/porterload/stats"
)

type stubRunner struct {
	mu         sync.Mutex
	exceptions []error
}

func (r *stubRunner) Host() string                        { return "http://127.0.0.1" }
func (r *stubRunner) Tags() (tags, excludeTags *[]string) { return nil, nil }
func (r *stubRunner) Options(v interface{}) error         { return nil }

func (r *stubRunner) ReportException(err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.exceptions = append(r.exceptions, err)
}

func (r *stubRunner) Exceptions() []error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]error(nil), r.exceptions...)
}

func waitUser(ctx context.Context, u *mock.User) error {
	return Wait(ctx)
}

func TestLoadGenerator_OnTestStart(t *testing.T) {
	r := porterload.NewLoadGenerator()

	result := false
	r.OnTestStart(func(ctx context.Context) error {
		result = true
		return nil
	})

	if err := r.Start(); err != nil {
		t.Fatal(err)
	}
	if !result {
		t.Fatal("OnTestStart not called")
	}
}

func TestLoadGenerator_OnTestStart_Error(t *testing.T) {
	r := porterload.NewLoadGenerator()

	expected := errors.New("error")
	r.OnTestStart(func(ctx context.Context) error {
		return expected
	})

	if err := r.Start(); !errors.Is(err, expected) {
		t.Fatalf("unexpected result got:%v want:%v", err, expected)
	}
}

func TestLoadGenerator_OnTestStop(t *testing.T) {
	r := porterload.NewLoadGenerator()

	result := false
	r.OnTestStop(func(ctx context.Context) {
		result = true
	})

	if err := r.Start(); err != nil {
		t.Fatal(err)
	}
	r.Stop()

	if !result {
		t.Fatal("OnTestStop not called")
	}
}

func TestLoadGenerator_Spawn(t *testing.T) {
	r := porterload.NewLoadGenerator()

	userFunc, uc := mock.UserGenerator(waitUser)
	r.RegisterUser(&stubRunner{}, "TestUser", userFunc)

	if err := r.Start(); err != nil {
		t.Fatal(err)
	}

	if err := r.Spawn("TestUser", 1); err != nil {
		t.Fatal(err)
	}
	uc.WaitStart(1)

	expectedUsers := map[string]int64{"TestUser": 1}
	if users := r.Users(); !reflect.DeepEqual(users, expectedUsers) {
		t.Fatalf("unexpected users. got:%v want:%v", users, expectedUsers)
	}

	if err := r.Spawn("TestUser", 3); err != nil {
		t.Fatal(err)
	}
	uc.WaitStart(3)

	expectedUsers = map[string]int64{"TestUser": 3}
	if users := r.Users(); !reflect.DeepEqual(users, expectedUsers) {
		t.Fatalf("unexpected users. got:%v want:%v", users, expectedUsers)
	}
	if n := uc.Stopped(); n != 0 {
		t.Fatalf("unexpected stopped user. got:%v want:%v", n, 0)
	}

	r.Stop()

	if n := uc.Stopped(); n != 3 {
		t.Fatalf("unexpected stopped user. got:%v want:%v", n, 3)
	}
	expectedUsers = map[string]int64{"TestUser": 0}
	if users := r.Users(); !reflect.DeepEqual(users, expectedUsers) {
		t.Fatalf("unexpected users. got:%v want:%v", users, expectedUsers)
	}
}

func TestLoadGenerator_Spawn_UnknownUser(t *testing.T) {
	r := porterload.NewLoadGenerator()

	err := r.Spawn("Nobody", 1)
	var unknown *porterload.UnknownUserError
	if !errors.As(err, &unknown) || unknown.User != "Nobody" {
		t.Fatalf("unexpected result got:%v want:%v", err, &porterload.UnknownUserError{User: "Nobody"})
	}
}

func TestLoadGenerator_Spawn_MultiUser(t *testing.T) {
	r := porterload.NewLoadGenerator()

	userFunc1, uc1 := mock.UserGenerator(waitUser)
	userFunc2, uc2 := mock.UserGenerator(waitUser)
	r.RegisterUser(&stubRunner{}, "TestUser1", userFunc1)
	r.RegisterUser(&stubRunner{}, "TestUser2", userFunc2)

	if err := r.Start(); err != nil {
		t.Fatal(err)
	}
	_ = r.Spawn("TestUser1", 2)
	_ = r.Spawn("TestUser2", 3)

	uc1.WaitStart(2)
	uc2.WaitStart(3)

	expectedUsers := map[string]int64{
		"TestUser1": 2,
		"TestUser2": 3,
	}
	if users := r.Users(); !reflect.DeepEqual(users, expectedUsers) {
		t.Fatalf("unexpected users. got:%v want:%v", users, expectedUsers)
	}

	r.Stop()

	if n := uc1.Stopped(); n != 2 {
		t.Fatalf("unexpected stopped user. got:%v want:%v", n, 2)
	}
	if n := uc2.Stopped(); n != 3 {
		t.Fatalf("unexpected stopped user. got:%v want:%v", n, 3)
	}
}

func TestLoadGenerator_Stats(t *testing.T) {
	r := porterload.NewLoadGenerator()

	userFunc, uc := mock.UserGenerator(func(ctx context.Context, u *mock.User) error {
		u.Report("GET", "/empty", 10*time.Millisecond, 0, nil)
		return Wait(ctx)
	})
	r.RegisterUser(&stubRunner{}, "TestUser", userFunc)

	if err := r.Start(); err != nil {
		t.Fatal(err)
	}
	_ = r.Spawn("TestUser", 4)
	uc.WaitStart(4)
	r.Stop()

	entries, total, _ := r.FlushStats()
	entry, ok := entries[stats.EntryKey{Method: "GET", Name: "/empty"}]
	if !ok {
		t.Fatalf("missing entry. got:%v", entries)
	}
	if entry.NumRequests != 4 {
		t.Fatalf("unexpected request count. got:%v want:%v", entry.NumRequests, 4)
	}
	if total.NumRequests != 4 {
		t.Fatalf("unexpected total request count. got:%v want:%v", total.NumRequests, 4)
	}

	entries, _, _ = r.FlushStats()
	if len(entries) != 0 {
		t.Fatalf("unexpected entries after flush. got:%v", len(entries))
	}
}

func TestLoadGenerator_ReportException(t *testing.T) {
	r := porterload.NewLoadGenerator()
	runner := &stubRunner{}

	errUser := errors.New("user error")
	userFunc, uc := mock.UserGenerator(func(ctx context.Context, u *mock.User) error {
		return errUser
	})
	r.RegisterUser(runner, "TestUser", userFunc)

	if err := r.Start(); err != nil {
		t.Fatal(err)
	}
	_ = r.Spawn("TestUser", 2)
	uc.WaitStop(2)
	r.Stop()

	exceptions := runner.Exceptions()
	if len(exceptions) != 2 || !errors.Is(exceptions[0], errUser) {
		t.Fatalf("unexpected exceptions. got:%v want:%v", exceptions, []error{errUser, errUser})
	}
}
