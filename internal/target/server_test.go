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

package target

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestServer(t *testing.T) {
	s := NewServer(":0")

	testcases := []struct {
		name       string
		path       string
		header     map[string]string
		wantStatus int
		wantBody   string
		minElapsed time.Duration
	}{
		{
			name:       "empty",
			path:       "/empty",
			wantStatus: http.StatusOK,
			wantBody:   "",
		},
		{
			name:       "hello",
			path:       "/hello",
			wantStatus: http.StatusOK,
			wantBody:   "Hello world\n",
		},
		{
			name:       "load with latency",
			path:       "/load",
			header:     map[string]string{"X-Response-Time": "20ms"},
			wantStatus: http.StatusOK,
			minElapsed: 20 * time.Millisecond,
		},
		{
			name:       "load with invalid latency",
			path:       "/load",
			header:     map[string]string{"X-Response-Time": "soon"},
			wantStatus: http.StatusInternalServerError,
		},
		{
			name:       "unknown path",
			path:       "/missing",
			wantStatus: http.StatusNotFound,
			wantBody:   "404 page not found",
		},
	}
	for _, tc := range testcases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, tc.path, nil)
			for k, v := range tc.header {
				req.Header.Set(k, v)
			}
			rec := httptest.NewRecorder()

			start := time.Now()
			s.ServeHTTP(rec, req)

			require.Equal(t, tc.wantStatus, rec.Code)
			require.Equal(t, tc.wantBody, rec.Body.String())
			require.GreaterOrEqual(t, time.Since(start), tc.minElapsed)
		})
	}
}

func TestServer_LoadDefaultDelay(t *testing.T) {
	s := NewServer(":0")

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	req := httptest.NewRequest(http.MethodGet, "/load", nil).WithContext(ctx)
	rec := httptest.NewRecorder()

	start := time.Now()
	s.ServeHTTP(rec, req)

	// the default delay is a second, the request gives up long before
	require.Less(t, time.Since(start), 500*time.Millisecond)
	require.Equal(t, 499, rec.Code)
}

func TestServer_Run(t *testing.T) {
	s := NewServer("127.0.0.1:0")

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() {
		errCh <- s.Run(ctx)
	}()

	cancel()
	select {
	case err := <-errCh:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop")
	}
}
