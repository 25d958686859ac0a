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
	"crypto/sha256"
	"encoding/hex"
)

// ErrorKey identifies a failure by request and error message.
type ErrorKey struct {
	Method string
	Name   string
	Error  string
}

// Encode returns the key Locust uses for the error in stats reports.
func (k ErrorKey) Encode() string {
	sum := sha256.Sum256([]byte(k.Method + "." + k.Name + "." + k.Error))
	return hex.EncodeToString(sum[:])
}

// Errors counts occurrences per ErrorKey.
type Errors map[ErrorKey]int64

func (e Errors) Add(method, name string, err error) {
	e[ErrorKey{Method: method, Name: name, Error: err.Error()}]++
}

func (e Errors) Merge(src Errors) {
	for k, v := range src {
		e[k] += v
	}
}
