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
	"sync"
	"time"
)

type report struct {
	now           time.Time
	requestType   string
	name          string
	responseTime  time.Duration
	contentLength int64
	err           error
}

// Aggregator batches reports from many users and merges them into a Stats every interval,
// so users never contend on the shared Stats lock.
type Aggregator struct {
	ch        chan report
	done      chan struct{}
	closeOnce sync.Once
}

// NewAggregator starts an aggregation goroutine merging into dst.
func NewAggregator(dst *Stats, interval time.Duration) *Aggregator {
	a := &Aggregator{
		ch:   make(chan report, 100),
		done: make(chan struct{}),
	}
	go a.run(dst, interval)
	return a
}

// Report queues one request result. It must not be called after Close.
func (a *Aggregator) Report(requestType, name string, responseTime time.Duration, contentLength int64, err error) {
	a.ch <- report{
		now:           time.Now(),
		requestType:   requestType,
		name:          name,
		responseTime:  responseTime,
		contentLength: contentLength,
		err:           err,
	}
}

// Close merges the pending reports and stops the aggregation goroutine.
func (a *Aggregator) Close() {
	a.closeOnce.Do(func() {
		close(a.ch)
	})
	<-a.done
}

func (a *Aggregator) run(dst *Stats, interval time.Duration) {
	defer close(a.done)

	batch := New()
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	flush := func() {
		entries, _, errors := batch.Flush()
		if len(entries) > 0 {
			dst.Merge(entries, errors)
		}
	}

	for {
		select {
		case r, ok := <-a.ch:
			if !ok {
				flush()
				return
			}
			batch.add(r.now, r.requestType, r.name, r.responseTime, r.contentLength, r.err)

		case <-ticker.C:
			flush()
		}
	}
}
