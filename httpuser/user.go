/*
 *  Copyright 2026 porterlab
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

package httpuser

import (
	"context"
	"time"

	"github.com/porterlab/porterload"
	"github.com/porterlab/porterload/taskset"
)

// User is a task set user with an HTTP client bound to the runner's host.
//
// Embed it and implement TaskSet:
//
//	type MyUser struct {
//		httpuser.User
//	}
//
//	func (u *MyUser) TaskSet() taskset.TaskSet { ... }
type User struct {
	taskset.UserImpl

	// Timeout bounds every request. Zero means no timeout.
	Timeout time.Duration

	client *Client
}

func (u *User) Init(self porterload.User, r porterload.Runner, rep porterload.Reporter) {
	u.UserImpl.Init(self, r, rep)

	host := ""
	if r != nil {
		host = r.Host()
	}
	u.client = NewClient(host, self.Report, u.Timeout)
}

// Client returns the user's HTTP client. It is nil before Init.
func (u *User) Client() *Client {
	return u.client
}

func (u *User) OnStop(ctx context.Context) error {
	if u.client != nil {
		u.client.CloseIdleConnections()
	}
	return u.UserImpl.OnStop(ctx)
}
