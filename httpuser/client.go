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

// Package httpuser provides a virtual user that talks HTTP and records every request it makes.
package httpuser

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// ReportFunc receives the result of one request.
type ReportFunc func(requestType, name string, responseTime time.Duration, contentLength int64, err error)

// StatusError is the failure recorded for a response with an error status.
type StatusError struct {
	StatusCode int
	Status     string
}

func (e *StatusError) Error() string {
	return e.Status
}

// RequestError is returned for a request that was already recorded as a failure.
type RequestError struct {
	Method string
	Path   string
	Err    error
}

func (e *RequestError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Method, e.Path, e.Err)
}

func (e *RequestError) Unwrap() error {
	return e.Err
}

func (e *RequestError) Recorded() bool {
	return true
}

// Response is a fully read response.
type Response struct {
	StatusCode    int
	Header        http.Header
	Body          []byte
	ResponseTime  time.Duration
	ContentLength int64
}

// Client issues requests against one host and reports each of them.
type Client struct {
	host   string
	client *http.Client
	report ReportFunc
}

// NewClient returns a client with its own connection pool. A zero timeout means no timeout.
func NewClient(host string, report ReportFunc, timeout time.Duration) *Client {
	transport := http.DefaultTransport.(*http.Transport).Clone()
	return &Client{
		host: strings.TrimRight(host, "/"),
		client: &http.Client{
			Transport: transport,
			Timeout:   timeout,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= 10 {
					return http.ErrUseLastResponse
				}
				return nil
			},
		},
		report: report,
	}
}

// Host returns the base URL requests are resolved against.
func (c *Client) Host() string {
	return c.host
}

// Request sends one request and reads the whole body. The request is reported under its path.
// A "Connection: close" header also closes the underlying connection after the response.
func (c *Client) Request(ctx context.Context, method, path string, header http.Header, body io.Reader) (*Response, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.host+path, body)
	if err != nil {
		return nil, err
	}
	for k, v := range header {
		req.Header[http.CanonicalHeaderKey(k)] = v
	}
	if strings.EqualFold(req.Header.Get("Connection"), "close") {
		req.Close = true
	}

	start := time.Now()
	resp, err := c.client.Do(req)
	if err != nil {
		// a canceled test is not a failed request
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		c.record(method, path, time.Since(start), 0, err)
		return nil, &RequestError{Method: method, Path: path, Err: err}
	}
	defer resp.Body.Close()

	b, err := io.ReadAll(resp.Body)
	responseTime := time.Since(start)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		c.record(method, path, responseTime, int64(len(b)), err)
		return nil, &RequestError{Method: method, Path: path, Err: err}
	}

	r := &Response{
		StatusCode:    resp.StatusCode,
		Header:        resp.Header,
		Body:          b,
		ResponseTime:  responseTime,
		ContentLength: int64(len(b)),
	}

	if resp.StatusCode >= http.StatusBadRequest {
		serr := &StatusError{StatusCode: resp.StatusCode, Status: resp.Status}
		c.record(method, path, responseTime, r.ContentLength, serr)
		return r, &RequestError{Method: method, Path: path, Err: serr}
	}

	c.record(method, path, responseTime, r.ContentLength, nil)
	return r, nil
}

// Get sends a GET request without a body and discards the response.
func (c *Client) Get(ctx context.Context, path string, header http.Header) error {
	_, err := c.Request(ctx, http.MethodGet, path, header, nil)
	return err
}

// CloseIdleConnections closes the pooled keep-alive connections.
func (c *Client) CloseIdleConnections() {
	c.client.CloseIdleConnections()
}

func (c *Client) record(method, path string, responseTime time.Duration, contentLength int64, err error) {
	if c.report != nil {
		c.report(method, path, responseTime, contentLength, err)
	}
}
