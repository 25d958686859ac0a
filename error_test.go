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
	"errors"
	"strings"
	"testing"

	"github.com/porterlab/porterload"
)

func TestWrap(t *testing.T) {
	base := errors.New("boom")
	err := porterload.Wrap(base)

	if !errors.Is(err, base) {
		t.Fatalf("wrapped error does not unwrap. got:%v want:%v", err, base)
	}
	if err.Error() != "boom" {
		t.Fatalf("unexpected message. got:%v want:%v", err.Error(), "boom")
	}
	tb := porterload.Traceback(err)
	if !strings.Contains(tb, "error_test.go") || !strings.Contains(tb, "TestWrap") {
		t.Fatalf("unexpected traceback. got:%v", tb)
	}
}

func TestWrap_Nil(t *testing.T) {
	if err := porterload.Wrap(nil); err != nil {
		t.Fatalf("unexpected error. got:%v want:%v", err, nil)
	}
	if tb := porterload.Traceback(errors.New("plain")); tb != "" {
		t.Fatalf("unexpected traceback. got:%v want:%v", tb, "")
	}
}
