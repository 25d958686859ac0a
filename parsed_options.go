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

package porterload

import (
	"github.com/vmihailenco/msgpack/v5"
)

var (
	_ msgpack.CustomDecoder = (*ParsedOptions)(nil)
)

// ParsedOptions is the subset of the master's command line options a worker acts on.
// Options not listed here are still available through Extract.
type ParsedOptions struct {
	Host        string    `msgpack:"host"`         // --host
	NumUsers    *int64    `msgpack:"num_users"`    // --users
	SpawnRate   *float64  `msgpack:"spawn_rate"`   // --spawn-rate
	RunTime     *int64    `msgpack:"run_time"`     // --run-time
	Tags        *[]string `msgpack:"tags"`         // --tags
	ExcludeTags *[]string `msgpack:"exclude_tags"` // --exclude-tags
	StopTimeout int       `msgpack:"stop_timeout"` // --stop-timeout
	UserClasses []string  `msgpack:"user_classes"`

	raw msgpack.RawMessage `msgpack:"-"`
}

func (p *ParsedOptions) DecodeMsgpack(dec *msgpack.Decoder) error {
	// avoid unmarshal infinite loop
	type parsedOptions ParsedOptions
	tp := (*parsedOptions)(p)

	raw, err := dec.DecodeRaw()
	if err != nil {
		return err
	}
	if err := msgpack.Unmarshal(raw, tp); err != nil {
		return err
	}
	p.raw = raw
	return nil
}

// Extract decodes the full option map, custom arguments included, into v.
func (p *ParsedOptions) Extract(v interface{}) error {
	if len(p.raw) == 0 {
		return nil
	}
	return msgpack.Unmarshal(p.raw, v)
}

func parseOptions(raw msgpack.RawMessage) (*ParsedOptions, error) {
	var p ParsedOptions
	if len(raw) == 0 {
		return &p, nil
	}
	if err := msgpack.Unmarshal(raw, &p); err != nil {
		return nil, err
	}
	return &p, nil
}
