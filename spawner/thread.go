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

package spawner

type thread struct {
	id     uint64
	cancel func()
}

// threadList is ordered oldest first. Guarded by Spawner.mu.
type threadList struct {
	threads []thread
	lastID  uint64
}

func (tl *threadList) len() int {
	return len(tl.threads)
}

func (tl *threadList) add(cancel func()) uint64 {
	tl.lastID++
	tl.threads = append(tl.threads, thread{id: tl.lastID, cancel: cancel})
	return tl.lastID
}

// remove cancels and drops the thread with id, reporting whether it was listed.
func (tl *threadList) remove(id uint64) bool {
	for i, t := range tl.threads {
		if t.id == id {
			t.cancel()
			tl.threads = append(tl.threads[:i], tl.threads[i+1:]...)
			return true
		}
	}
	return false
}

func (tl *threadList) popNewest(n int) {
	n = min(n, len(tl.threads))
	if n <= 0 {
		return
	}
	keep := len(tl.threads) - n
	for _, t := range tl.threads[keep:] {
		t.cancel()
	}
	tl.threads = tl.threads[:keep]
}
