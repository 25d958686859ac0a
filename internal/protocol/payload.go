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

package protocol

import (
	"github.com/vmihailenco/msgpack/v5"

	"github.com/porterlab/porterload/stats"
)

type AckPayload struct {
	Index int64 `msgpack:"index"`
}

type SpawnPayload struct {
	Timestamp        float64            `msgpack:"timestamp"`
	UserClassesCount map[string]int64   `msgpack:"user_classes_count"`
	Host             string             `msgpack:"host"`
	StopTimeout      float64            `msgpack:"stop_timeout"`
	ParsedOptions    msgpack.RawMessage `msgpack:"parsed_options"`
}

type HeartbeatPayload struct {
	State              string  `msgpack:"state"`
	CurrentCPUUsage    float64 `msgpack:"current_cpu_usage"`
	CurrentMemoryUsage uint64  `msgpack:"current_memory_usage"`
}

type SpawningCompletePayload struct {
	UserClassesCount map[string]int64 `msgpack:"user_classes_count"`
	UserCount        int64            `msgpack:"user_count"`
}

type ExceptionPayload struct {
	Msg       string `msgpack:"msg"`
	Traceback string `msgpack:"traceback"`
}

type StatsPayloadEntry struct {
	Name                 string          `msgpack:"name"`
	Method               string          `msgpack:"method"`
	LastRequestTimestamp float64         `msgpack:"last_request_timestamp"`
	StartTime            float64         `msgpack:"start_time"`
	NumRequests          int64           `msgpack:"num_requests"`
	NumNoneRequests      int64           `msgpack:"num_none_requests"`
	NumFailures          int64           `msgpack:"num_failures"`
	TotalResponseTime    float64         `msgpack:"total_response_time"`
	MaxResponseTime      float64         `msgpack:"max_response_time"`
	MinResponseTime      *float64        `msgpack:"min_response_time"`
	TotalContentLength   int64           `msgpack:"total_content_length"`
	ResponseTimes        map[int64]int64 `msgpack:"response_times"`
	NumReqsPerSec        map[int64]int64 `msgpack:"num_reqs_per_sec"`
	NumFailPerSec        map[int64]int64 `msgpack:"num_fail_per_sec"`
}

type StatsPayloadError struct {
	Name        string `msgpack:"name"`
	Method      string `msgpack:"method"`
	Error       string `msgpack:"error"`
	Occurrences int64  `msgpack:"occurrences"`
}

type StatsPayload struct {
	Stats            []*StatsPayloadEntry          `msgpack:"stats"`
	StatsTotal       *StatsPayloadEntry            `msgpack:"stats_total"`
	Errors           map[string]*StatsPayloadError `msgpack:"errors"`
	UserClassesCount map[string]int64              `msgpack:"user_classes_count"`
	UserCount        int64                         `msgpack:"user_count"`
}

// NewStatsPayload converts flushed statistics into the master's units: seconds for
// timestamps, milliseconds for response times.
func NewStatsPayload(entries stats.Entries, total *stats.Entry, errors stats.Errors, users map[string]int64) *StatsPayload {
	payload := &StatsPayload{
		Stats:            make([]*StatsPayloadEntry, 0, len(entries)),
		StatsTotal:       newStatsPayloadEntry("Aggregated", "", total),
		Errors:           make(map[string]*StatsPayloadError, len(errors)),
		UserClassesCount: users,
	}
	for key, entry := range entries {
		payload.Stats = append(payload.Stats, newStatsPayloadEntry(key.Name, key.Method, entry))
	}
	for key, occurrences := range errors {
		payload.Errors[key.Encode()] = &StatsPayloadError{
			Name:        key.Name,
			Method:      key.Method,
			Error:       key.Error,
			Occurrences: occurrences,
		}
	}
	for _, n := range users {
		payload.UserCount += n
	}
	return payload
}

func newStatsPayloadEntry(name, method string, e *stats.Entry) *StatsPayloadEntry {
	var minResponseTime *float64
	if e.MinResponseTime >= 0 {
		v := float64(e.MinResponseTime.Nanoseconds()) / 1e6
		minResponseTime = &v
	}
	return &StatsPayloadEntry{
		Name:                 name,
		Method:               method,
		LastRequestTimestamp: float64(e.LastRequestTimestamp) / 1e9,
		StartTime:            float64(e.StartTime) / 1e9,
		NumRequests:          e.NumRequests,
		NumNoneRequests:      e.NumNoneRequests,
		NumFailures:          e.NumFailures,
		TotalResponseTime:    float64(e.TotalResponseTime.Nanoseconds()) / 1e6,
		MaxResponseTime:      float64(e.MaxResponseTime.Nanoseconds()) / 1e6,
		MinResponseTime:      minResponseTime,
		TotalContentLength:   e.TotalContentLength,
		ResponseTimes:        e.ResponseTimes,
		NumReqsPerSec:        e.NumRequestsPerSec,
		NumFailPerSec:        e.NumFailuresPerSec,
	}
}
