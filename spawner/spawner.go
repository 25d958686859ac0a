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

// Package spawner keeps a requested number of goroutines running.
package spawner

import (
	"context"
	"sync"
	"sync/atomic"
)

// RestartMode decides what happens when a goroutine returns on its own.
type RestartMode int

const (
	// RestartNever keeps the slot taken until the capacity is lowered below it.
	RestartNever RestartMode = iota
	// RestartAlways starts a replacement goroutine right away.
	RestartAlways
)

// SpawnFunc is run by every spawned goroutine. It must return once ctx is done.
type SpawnFunc func(ctx context.Context)

// Spawner runs up to Cap goroutines of one SpawnFunc.
type Spawner struct {
	mode      RestartMode
	spawnFunc SpawnFunc

	mu       sync.Mutex
	running  bool
	capacity int
	threads  threadList
	// exited counts goroutines that returned on their own and still take a slot.
	exited int
	wg     sync.WaitGroup

	spawned atomic.Int64
}

func New(f SpawnFunc, mode RestartMode) *Spawner {
	return &Spawner{
		mode:      mode,
		spawnFunc: f,
	}
}

// Cap sets the number of goroutines to keep running.
// Shrinking cancels the most recently spawned goroutines first.
func (s *Spawner) Cap(count int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.capacity = max(count, 0)
	if s.running {
		s.adjust()
		return
	}
	s.exited = min(s.exited, s.capacity)
}

// Count returns the number of goroutines currently running.
func (s *Spawner) Count() int64 {
	return s.spawned.Load()
}

// Start starts spawning up to the capacity.
func (s *Spawner) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.running = true
	s.adjust()
}

// Stop stops spawning. Running goroutines are left alone.
func (s *Spawner) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.running = false
}

// StopAll cancels every running goroutine and waits for them to return.
// Call Stop first, otherwise RestartAlways may start new ones meanwhile.
func (s *Spawner) StopAll() {
	s.mu.Lock()
	s.threads.popNewest(s.threads.len())
	s.exited = 0
	s.mu.Unlock()

	s.wg.Wait()
}

func (s *Spawner) adjust() {
	if n := s.threads.len() + s.exited - s.capacity; n > 0 {
		released := min(n, s.exited)
		s.exited -= released
		s.threads.popNewest(n - released)
		return
	}
	for s.threads.len()+s.exited < s.capacity {
		s.spawn()
	}
}

func (s *Spawner) spawn() {
	ctx, cancel := context.WithCancel(context.Background())
	id := s.threads.add(cancel)

	s.wg.Add(1)
	s.spawned.Add(1)
	go func() {
		defer s.wg.Done()
		defer s.spawned.Add(-1)

		s.spawnFunc(ctx)
		s.finished(id)
	}()
}

func (s *Spawner) finished(id uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	// a goroutine still listed returned by itself rather than by cancellation
	if !s.threads.remove(id) {
		return
	}
	if s.mode == RestartNever {
		s.exited++
		return
	}
	if s.running {
		s.adjust()
	}
}
