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

// Package stats collects request statistics in the format a Locust master expects.
package stats

import (
	"sync"
	"time"
)

// Stats is the goroutine safe set of entries and errors collected since the last Flush.
type Stats struct {
	mu      sync.Mutex
	entries Entries
	errors  Errors
}

func New() *Stats {
	return &Stats{
		entries: Entries{},
		errors:  Errors{},
	}
}

// Add records one request.
func (s *Stats) Add(now time.Time, requestType, name string, responseTime time.Duration, contentLength int64, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.add(now, requestType, name, responseTime, contentLength, err)
}

func (s *Stats) add(now time.Time, requestType, name string, responseTime time.Duration, contentLength int64, err error) {
	key := EntryKey{Method: requestType, Name: name}
	entry, ok := s.entries[key]
	if !ok {
		entry = NewEntry()
		s.entries[key] = entry
	}
	entry.Add(now, responseTime, contentLength, err)

	if err != nil {
		s.errors.Add(requestType, name, err)
	}
}

// Merge adds entries and errors collected elsewhere.
func (s *Stats) Merge(entries Entries, errors Errors) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries.Merge(entries)
	s.errors.Merge(errors)
}

// Flush returns the collected statistics with their total and resets s.
func (s *Stats) Flush() (Entries, *Entry, Errors) {
	s.mu.Lock()
	entries, errors := s.entries, s.errors
	s.entries = Entries{}
	s.errors = Errors{}
	s.mu.Unlock()

	return entries, entries.Aggregate(), errors
}

// Snapshot returns a deep copy of the collected statistics without resetting s.
func (s *Stats) Snapshot() (Entries, *Entry, Errors) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries := Entries{}
	entries.Merge(s.entries)
	errors := Errors{}
	errors.Merge(s.errors)
	return entries, entries.Aggregate(), errors
}

// Clear drops everything collected so far.
func (s *Stats) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = Entries{}
	s.errors = Errors{}
}
