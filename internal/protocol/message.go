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

// Package protocol implements the messages exchanged between a Locust master and its workers.
package protocol

import (
	"bytes"

	"github.com/vmihailenco/msgpack/v5"
)

const (
	MessageHeartbeat = "heartbeat"
	MessageQuit      = "quit"

	// master to worker

	MessageAck       = "ack"
	MessageSpawn     = "spawn"
	MessageStop      = "stop"
	MessageReconnect = "reconnect"

	// worker to master

	MessageClientReady      = "client_ready"
	MessageClientStopped    = "client_stopped"
	MessageSpawning         = "spawning"
	MessageSpawningComplete = "spawning_complete"
	MessageStats            = "stats"
	MessageException        = "exception"
)

// Message is a message to send. Data is encoded with msgpack.
type Message struct {
	Type   string
	Data   any
	NodeID string
}

// ReceivedMessage is a decoded message whose payload is kept raw until DecodePayload.
type ReceivedMessage struct {
	Type   string
	Data   msgpack.RawMessage
	NodeID string
}

func (r *ReceivedMessage) DecodePayload(v interface{}) error {
	return msgpack.Unmarshal(r.Data, v)
}

// Encode frames msg as the 3 element array [type, data, node_id] Locust expects.
func Encode(msg Message) ([]byte, error) {
	var b bytes.Buffer
	enc := msgpack.NewEncoder(&b)
	if err := enc.EncodeArrayLen(3); err != nil {
		return nil, err
	}
	if err := enc.EncodeString(msg.Type); err != nil {
		return nil, err
	}
	if err := enc.Encode(msg.Data); err != nil {
		return nil, err
	}
	if err := enc.EncodeString(msg.NodeID); err != nil {
		return nil, err
	}
	return b.Bytes(), nil
}

func Decode(data []byte) (ReceivedMessage, error) {
	dec := msgpack.NewDecoder(bytes.NewReader(data))
	if _, err := dec.DecodeArrayLen(); err != nil {
		return ReceivedMessage{}, err
	}
	var msg ReceivedMessage
	var err error
	if msg.Type, err = dec.DecodeString(); err != nil {
		return ReceivedMessage{}, err
	}
	if msg.Data, err = dec.DecodeRaw(); err != nil {
		return ReceivedMessage{}, err
	}
	// node_id is nil in messages broadcast by the master
	if err := dec.Decode(&msg.NodeID); err != nil {
		return ReceivedMessage{}, err
	}
	return msg, nil
}
