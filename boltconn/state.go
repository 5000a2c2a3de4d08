/*
 * Copyright 2024 CloudWeGo Authors
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package boltconn

import (
	"sync/atomic"

	"github.com/go-bolt/boltcore/bolterr"
)

func sessionBusyErr() error {
	return bolterr.New(bolterr.SessionBusy, "connection already has an operation in flight")
}

// State is the session state machine of spec §4.6, stored as an
// atomic.Uint32 the way connstate.ConnState is an atomic-backed enum.
type State uint32

const (
	StateUnconnected State = iota
	StateReady
	StateStreaming
	StateTxReady
	StateTxStreaming
	StateFailed
	StateDefunct
)

func (s State) String() string {
	switch s {
	case StateUnconnected:
		return "unconnected"
	case StateReady:
		return "ready"
	case StateStreaming:
		return "streaming"
	case StateTxReady:
		return "tx_ready"
	case StateTxStreaming:
		return "tx_streaming"
	case StateFailed:
		return "failed"
	case StateDefunct:
		return "defunct"
	default:
		return "unknown"
	}
}

func (c *Connection) setState(s State) {
	atomic.StoreUint32(&c.state, uint32(s))
}

// State returns the connection's current session state.
func (c *Connection) State() State {
	return State(atomic.LoadUint32(&c.state))
}

func (c *Connection) inTx() bool {
	switch c.State() {
	case StateTxReady, StateTxStreaming:
		return true
	default:
		return false
	}
}

// Poison marks the connection unsafe to continue (spec §5's single
// atomic poison flag, polled by tx.Transaction.Defunct).
func (c *Connection) Poison() {
	atomic.StoreUint32(&c.poisoned, 1)
	c.setState(StateDefunct)
}

// Poisoned reports whether Poison has been called.
func (c *Connection) Poisoned() bool {
	return atomic.LoadUint32(&c.poisoned) != 0
}

// acquire enforces the single-owner rule of spec §5: concurrent
// invocation from a second caller is rejected with SessionBusy rather
// than silently interleaving I/O on the shared ring buffers.
func (c *Connection) acquire() error {
	if !atomic.CompareAndSwapInt32(&c.owner, 0, 1) {
		return sessionBusyErr()
	}
	return nil
}

func (c *Connection) releaseOwner() {
	atomic.StoreInt32(&c.owner, 0)
}
