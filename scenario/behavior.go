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

// Package scenario defines the requests the integration load test sends to the target server.
package scenario

import (
	"context"
	"math/rand"
	"net/http"
	"strconv"
)

const (
	PathEmpty = "/empty"
	PathLoad  = "/load"
	PathHello = "/hello"

	HeaderResponseTime = "X-Response-Time"
	HeaderConnection   = "Connection"

	// MinLatency and MaxLatency bound the synthetic latency in milliseconds, both inclusive.
	MinLatency = 1
	MaxLatency = 999
)

// Client sends a GET request and records its outcome.
type Client interface {
	Get(ctx context.Context, path string, header http.Header) error
}

// RandomLatency returns a latency such as "372ms", uniform in [MinLatency, MaxLatency].
func RandomLatency() string {
	ms := MinLatency + rand.Intn(MaxLatency-MinLatency+1)
	return strconv.Itoa(ms) + "ms"
}

// Empty requests a response without a body.
func Empty(ctx context.Context, c Client) error {
	return c.Get(ctx, PathEmpty, nil)
}

// RandLatency asks the server to delay its response by a random latency.
func RandLatency(ctx context.Context, c Client) error {
	header := http.Header{}
	header.Set(HeaderResponseTime, RandomLatency())
	return c.Get(ctx, PathLoad, header)
}

// NoKeepAlive requests a page on a connection that is closed afterwards.
func NoKeepAlive(ctx context.Context, c Client) error {
	header := http.Header{}
	header.Set(HeaderConnection, "close")
	return c.Get(ctx, PathHello, header)
}
