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

// Package mock provides in-memory doubles for worker and generator tests.
package mock

import (
	"context"
	"errors"
	"sync"
)

var (
	ErrClosed = errors.New("mock transport closed")
)

// Transport is one end of an in-memory connection. It satisfies porterload.Transport.
type Transport struct {
	peer *Transport
	in   chan []byte

	mu     sync.Mutex
	closed chan struct{}
}

// MakeTransportSet returns two connected ends, the first one for the master.
func MakeTransportSet() (*Transport, *Transport) {
	t1 := &Transport{in: make(chan []byte, 100), closed: make(chan struct{})}
	t2 := &Transport{in: make(chan []byte, 100), closed: make(chan struct{})}
	t1.peer, t2.peer = t2, t1
	return t1, t2
}

// Open reopens a closed end. An open end is left as is.
func (m *Transport) Open(ctx context.Context, clientID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	select {
	case <-m.closed:
		m.closed = make(chan struct{})
	default:
	}
	return nil
}

func (m *Transport) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	select {
	case <-m.closed:
	default:
		close(m.closed)
	}
	return nil
}

func (m *Transport) done() <-chan struct{} {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closed
}

func (m *Transport) Send(msg []byte) error {
	select {
	case <-m.done():
		return ErrClosed
	default:
	}
	select {
	case m.peer.in <- msg:
		return nil
	case <-m.done():
		return ErrClosed
	}
}

// Receive returns the next message. Messages sent before the peer closed are still delivered.
func (m *Transport) Receive() ([]byte, error) {
	select {
	case b := <-m.in:
		return b, nil
	case <-m.done():
		return nil, ErrClosed
	case <-m.peer.done():
		select {
		case b := <-m.in:
			return b, nil
		default:
			return nil, ErrClosed
		}
	}
}
