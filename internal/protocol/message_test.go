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
	"errors"
	"testing"
	"time"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/porterlab/porterload/stats"
)

func TestEncode(t *testing.T) {
	b, err := Encode(Message{
		Type:   MessageClientReady,
		Data:   "2.31.8",
		NodeID: "host_0123",
	})
	if err != nil {
		t.Fatal(err)
	}

	var frame []interface{}
	if err := msgpack.Unmarshal(b, &frame); err != nil {
		t.Fatal(err)
	}
	if len(frame) != 3 {
		t.Fatalf("unexpected frame length. got:%v want:%v", len(frame), 3)
	}
	if frame[0] != MessageClientReady || frame[1] != "2.31.8" || frame[2] != "host_0123" {
		t.Fatalf("unexpected frame. got:%v", frame)
	}
}

func TestDecode(t *testing.T) {
	b, err := Encode(Message{
		Type:   MessageAck,
		Data:   AckPayload{Index: 4},
		NodeID: "host_0123",
	})
	if err != nil {
		t.Fatal(err)
	}

	msg, err := Decode(b)
	if err != nil {
		t.Fatal(err)
	}
	if msg.Type != MessageAck || msg.NodeID != "host_0123" {
		t.Fatalf("unexpected message. got:%v/%v want:%v/%v", msg.Type, msg.NodeID, MessageAck, "host_0123")
	}

	var payload AckPayload
	if err := msg.DecodePayload(&payload); err != nil {
		t.Fatal(err)
	}
	if payload.Index != 4 {
		t.Fatalf("unexpected index. got:%v want:%v", payload.Index, 4)
	}
}

func TestDecode_NilNodeID(t *testing.T) {
	b, err := msgpack.Marshal([]interface{}{MessageHeartbeat, nil, nil})
	if err != nil {
		t.Fatal(err)
	}

	msg, err := Decode(b)
	if err != nil {
		t.Fatal(err)
	}
	if msg.Type != MessageHeartbeat || msg.NodeID != "" {
		t.Fatalf("unexpected message. got:%v/%q", msg.Type, msg.NodeID)
	}
}

func TestDecode_Invalid(t *testing.T) {
	if _, err := Decode([]byte{0xc1}); err == nil {
		t.Fatalf("unexpected success decoding an invalid frame")
	}
}

func TestNewStatsPayload(t *testing.T) {
	s := stats.New()
	now := time.Unix(1700000000, 0)
	s.Add(now, "GET", "/empty", 12*time.Millisecond, 3, nil)
	s.Add(now, "GET", "/empty", 30*time.Millisecond, 0, errors.New("boom"))
	entries, total, errs := s.Flush()

	payload := NewStatsPayload(entries, total, errs, map[string]int64{"WebsiteUser": 2, "Other": 1})

	if len(payload.Stats) != 1 {
		t.Fatalf("unexpected stats length. got:%v want:%v", len(payload.Stats), 1)
	}
	e := payload.Stats[0]
	if e.TotalResponseTime != 42 {
		t.Fatalf("unexpected total response time. got:%v want:%v", e.TotalResponseTime, 42)
	}
	if e.MinResponseTime == nil || *e.MinResponseTime != 12 {
		t.Fatalf("unexpected min response time. got:%v want:%v", e.MinResponseTime, 12)
	}
	if e.MaxResponseTime != 30 {
		t.Fatalf("unexpected max response time. got:%v want:%v", e.MaxResponseTime, 30)
	}
	if e.StartTime != 1700000000 {
		t.Fatalf("unexpected start time. got:%v want:%v", e.StartTime, 1700000000)
	}
	if e.TotalContentLength != 3 {
		t.Fatalf("unexpected content length. got:%v want:%v", e.TotalContentLength, 3)
	}
	if payload.StatsTotal.Name != "Aggregated" || payload.StatsTotal.Method != "" {
		t.Fatalf("unexpected total key. got:%v/%v", payload.StatsTotal.Method, payload.StatsTotal.Name)
	}
	if payload.UserCount != 3 {
		t.Fatalf("unexpected user count. got:%v want:%v", payload.UserCount, 3)
	}

	key := stats.ErrorKey{Method: "GET", Name: "/empty", Error: "boom"}
	if got, ok := payload.Errors[key.Encode()]; !ok || got.Occurrences != 1 {
		t.Fatalf("unexpected errors. got:%v", payload.Errors)
	}
}

func TestNewStatsPayload_NoRequests(t *testing.T) {
	payload := NewStatsPayload(stats.Entries{}, stats.NewEntry(), stats.Errors{}, nil)
	if payload.StatsTotal.MinResponseTime != nil {
		t.Fatalf("unexpected min response time. got:%v want:nil", *payload.StatsTotal.MinResponseTime)
	}
}
