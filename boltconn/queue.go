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
	"github.com/go-bolt/boltcore/boltvalue"
	"github.com/go-bolt/boltcore/mempool"
	"github.com/go-bolt/boltcore/message"
)

// queueEntry is spec §4's request-queue entry: a callback invoked once
// per matching response, popped once it reports itself satisfied
// (RUN/RESET/ACK_FAILURE/BEGIN/COMMIT/ROLLBACK expect exactly one
// terminal response; PULL_ALL/DISCARD_ALL expect 0..N RECORD then one
// terminal response).
//
// pool is the arena the response is decoded into. Its lifetime is the
// enclosing operation's, not the connection's (spec.md:189/§3): a
// Stream's two entries (RUN, then PULL_ALL/DISCARD_ALL) share the
// Stream's own sub-pool, freed on Stream.Close; every other entry
// (INIT, RESET, ACK_FAILURE, BEGIN, COMMIT, ROLLBACK) gets a pool
// scoped to that single call, released by its caller once it has
// copied out whatever it needs to keep.
type queueEntry struct {
	pool      *mempool.Pool
	onMessage func(message.Inbound) (done bool)
}

func (c *Connection) enqueue(e queueEntry) {
	c.queue = append(c.queue, e)
}

// Pump reads exactly one message off the wire and dispatches it to the
// queue head, popping the head once its callback reports done. It
// implements result.Pumper. A FAILURE response moves the connection to
// Failed; every other still-pending queue entry stays queued and will
// receive IGNORED responses from the server until ACK_FAILURE/RESET
// (spec §4.6's failure semantics) — Pump itself does not fabricate
// those; it only classifies what the server actually sends.
func (c *Connection) Pump() error {
	if err := c.acquire(); err != nil {
		return err
	}
	defer c.releaseOwner()
	return c.pumpLocked()
}

func (c *Connection) pumpLocked() error {
	if len(c.queue) == 0 {
		return nil
	}
	head := &c.queue[0]
	in, err := message.Read(c.chunkR, head.pool)
	c.chunkR.Reset()
	if err != nil {
		c.Poison()
		c.failAll(err)
		return err
	}
	if in.Kind == message.KindFailure {
		c.setState(StateFailed)
		if err := in.Neo4jError(); err != nil {
			c.cfg.logger().Warnf("server reported failure: %s", err.Error())
		}
	}
	done := head.onMessage(in)
	if done {
		c.queue = c.queue[1:]
		if len(c.queue) == 0 && c.State() == StateStreaming {
			c.setState(StateReady)
		}
		if len(c.queue) == 0 && c.State() == StateTxStreaming {
			c.setState(StateTxReady)
		}
	}
	return nil
}

// failAll cancels every pending queue entry with a synthetic
// transport-error FAILURE once the connection has become Defunct.
func (c *Connection) failAll(cause error) {
	pending := c.queue
	c.queue = nil
	synthetic := message.Inbound{
		Kind: message.KindFailure,
		Fields: []boltvalue.Value{boltvalue.Map([]boltvalue.MapEntry{
			{Key: "code", Val: boltvalue.String("Neo.TransientError.Connection.Defunct")},
			{Key: "message", Val: boltvalue.String(cause.Error())},
		})},
	}
	for i := range pending {
		pending[i].onMessage(synthetic)
	}
	c.cfg.logger().Errorf("connection defunct, failing %d pending request(s): %v", len(pending), cause)
}
