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

package stats

import (
	"math"
	"time"
)

// EntryKey identifies the request an Entry is collected for.
type EntryKey struct {
	Method string
	Name   string
}

// Entries holds an Entry per request.
type Entries map[EntryKey]*Entry

// Merge adds every entry of src into e.
func (e Entries) Merge(src Entries) {
	for k, v := range src {
		dst, ok := e[k]
		if !ok {
			dst = NewEntry()
			e[k] = dst
		}
		dst.Merge(v)
	}
}

// Aggregate folds all entries into a single total Entry.
func (e Entries) Aggregate() *Entry {
	total := NewEntry()
	for _, n := range e {
		total.Merge(n)
	}
	return total
}

// Entry is the Locust compatible statistics of one request name.
//
// A negative response time marks a request without timing (Locust's "none" request).
// MinResponseTime stays negative until a timed request is added.
type Entry struct {
	StartTime            int64 // [ns]
	LastRequestTimestamp int64 // [ns]

	NumRequests       int64
	NumNoneRequests   int64
	NumFailures       int64
	NumRequestsPerSec map[int64]int64
	NumFailuresPerSec map[int64]int64

	TotalResponseTime time.Duration
	MinResponseTime   time.Duration
	MaxResponseTime   time.Duration

	TotalContentLength int64

	// ResponseTimes counts requests per rounded response time [ms].
	ResponseTimes map[int64]int64
}

func NewEntry() *Entry {
	return &Entry{
		NumRequestsPerSec: map[int64]int64{},
		NumFailuresPerSec: map[int64]int64{},
		MinResponseTime:   -1,
		ResponseTimes:     map[int64]int64{},
	}
}

// Add records one request finished at now.
func (e *Entry) Add(now time.Time, responseTime time.Duration, contentLength int64, err error) {
	sec := now.Unix()
	ns := now.UnixNano()

	if e.StartTime == 0 || ns < e.StartTime {
		e.StartTime = ns
	}
	if ns > e.LastRequestTimestamp {
		e.LastRequestTimestamp = ns
	}

	e.NumRequests++
	e.NumRequestsPerSec[sec]++

	if responseTime < 0 {
		e.NumNoneRequests++
	} else {
		e.TotalResponseTime += responseTime
		if e.MinResponseTime < 0 || responseTime < e.MinResponseTime {
			e.MinResponseTime = responseTime
		}
		e.MaxResponseTime = max(e.MaxResponseTime, responseTime)
		e.ResponseTimes[RoundResponseTime(responseTime)]++
	}

	if contentLength > 0 {
		e.TotalContentLength += contentLength
	}

	if err != nil {
		e.NumFailures++
		e.NumFailuresPerSec[sec]++
	}
}

// Merge adds src into e.
func (e *Entry) Merge(src *Entry) {
	if src.StartTime != 0 && (e.StartTime == 0 || src.StartTime < e.StartTime) {
		e.StartTime = src.StartTime
	}
	e.LastRequestTimestamp = max(e.LastRequestTimestamp, src.LastRequestTimestamp)

	e.NumRequests += src.NumRequests
	e.NumNoneRequests += src.NumNoneRequests
	e.NumFailures += src.NumFailures
	mergeCounts(e.NumRequestsPerSec, src.NumRequestsPerSec)
	mergeCounts(e.NumFailuresPerSec, src.NumFailuresPerSec)

	e.TotalResponseTime += src.TotalResponseTime
	if src.MinResponseTime >= 0 && (e.MinResponseTime < 0 || src.MinResponseTime < e.MinResponseTime) {
		e.MinResponseTime = src.MinResponseTime
	}
	e.MaxResponseTime = max(e.MaxResponseTime, src.MaxResponseTime)

	e.TotalContentLength += src.TotalContentLength
	mergeCounts(e.ResponseTimes, src.ResponseTimes)
}

// AvgResponseTime returns the mean response time of the timed requests.
func (e *Entry) AvgResponseTime() time.Duration {
	timed := e.NumRequests - e.NumNoneRequests
	if timed <= 0 {
		return 0
	}
	return e.TotalResponseTime / time.Duration(timed)
}

// FailRatio returns NumFailures / NumRequests.
func (e *Entry) FailRatio() float64 {
	if e.NumRequests == 0 {
		return 0
	}
	return float64(e.NumFailures) / float64(e.NumRequests)
}

func mergeCounts(dst, src map[int64]int64) {
	for k, v := range src {
		dst[k] += v
	}
}

// RoundResponseTime rounds d to milliseconds the way Locust buckets response times:
// 2 significant digits above 100ms, 1ms precision below.
func RoundResponseTime(d time.Duration) int64 {
	ms := float64(d.Microseconds()) / 1e3
	switch {
	case ms < 100:
		return int64(math.Round(ms))
	case ms < 1000:
		return int64(math.Round(ms/10)) * 10
	case ms < 10000:
		return int64(math.Round(ms/100)) * 100
	default:
		return int64(math.Round(ms/1000)) * 1000
	}
}
