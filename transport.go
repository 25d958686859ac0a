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
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/go-zeromq/zmq4"
)

var (
	ErrConnectionClosed = errors.New("connection closed")
)

// Transport carries encoded messages between a worker and its master.
type Transport interface {
	Open(ctx context.Context, clientID string) error
	Close() error
	Send(msg []byte) error
	Receive() ([]byte, error)
}

var (
	_ Transport = (*ZmqTransport)(nil)
)

// ZmqTransport connects to a Locust master with a ZeroMQ DEALER socket.
type ZmqTransport struct {
	addr string

	mu     sync.RWMutex
	socket zmq4.Socket
}

func NewZmqTransport(host string, port int) *ZmqTransport {
	return &ZmqTransport{
		addr: fmt.Sprintf("tcp://%s:%d", host, port),
	}
}

func (t *ZmqTransport) Open(ctx context.Context, clientID string) error {
	socket := zmq4.NewDealer(ctx, zmq4.WithID(zmq4.SocketIdentity(clientID)))
	if err := socket.Dial(t.addr); err != nil {
		_ = socket.Close()
		return err
	}
	t.mu.Lock()
	t.socket = socket
	t.mu.Unlock()
	return nil
}

func (t *ZmqTransport) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.socket == nil {
		return nil
	}
	err := t.socket.Close()
	t.socket = nil
	return err
}

func (t *ZmqTransport) Send(msg []byte) error {
	t.mu.RLock()
	socket := t.socket
	t.mu.RUnlock()
	if socket == nil {
		return ErrConnectionClosed
	}
	return socket.Send(zmq4.NewMsg(msg))
}

func (t *ZmqTransport) Receive() ([]byte, error) {
	t.mu.RLock()
	socket := t.socket
	t.mu.RUnlock()
	if socket == nil {
		return nil, ErrConnectionClosed
	}
	msg, err := socket.Recv()
	if err != nil {
		return nil, err
	}
	return msg.Bytes(), nil
}
