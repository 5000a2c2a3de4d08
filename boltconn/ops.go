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
	"github.com/go-bolt/boltcore/bolterr"
	"github.com/go-bolt/boltcore/boltvalue"
	"github.com/go-bolt/boltcore/mempool"
	"github.com/go-bolt/boltcore/message"
	"github.com/go-bolt/boltcore/result"
)

func (c *Connection) streamingState() State {
	if c.inTx() {
		return StateTxStreaming
	}
	return StateStreaming
}

// Run pipelines RUN + PULL_ALL and returns a result.Stream driven by
// this Connection. extra carries tx metadata (mode/db/bookmarks) when
// running inside a transaction on protocol version 3+; nil elsewhere.
func (c *Connection) Run(statement string, params []boltvalue.MapEntry, extra []boltvalue.MapEntry) (*result.Stream, error) {
	return c.run(statement, params, extra, false)
}

// Send pipelines RUN + DISCARD_ALL and returns a result.Stream whose
// records are never materialized, only the terminal metadata.
func (c *Connection) Send(statement string, params []boltvalue.MapEntry, extra []boltvalue.MapEntry) (*result.Stream, error) {
	return c.run(statement, params, extra, true)
}

func (c *Connection) run(statement string, params, extra []boltvalue.MapEntry, discardOnly bool) (*result.Stream, error) {
	if err := c.acquire(); err != nil {
		return nil, err
	}
	defer c.releaseOwner()

	if c.Poisoned() {
		return nil, bolterr.New(bolterr.ConnectionClosed, "boltconn: connection is defunct")
	}

	stream := result.New(c)

	if c.version >= 3 {
		if err := c.msgW.WriteRunWithMeta(statement, params, extra); err != nil {
			return nil, bolterr.Wrap(bolterr.ConnectionClosed, err, "boltconn: write RUN")
		}
	} else {
		if err := c.msgW.WriteRun(statement, params); err != nil {
			return nil, bolterr.Wrap(bolterr.ConnectionClosed, err, "boltconn: write RUN")
		}
	}
	if discardOnly {
		if err := c.msgW.WriteDiscardAll(); err != nil {
			return nil, bolterr.Wrap(bolterr.ConnectionClosed, err, "boltconn: write DISCARD_ALL")
		}
	} else {
		if err := c.msgW.WritePullAll(); err != nil {
			return nil, bolterr.Wrap(bolterr.ConnectionClosed, err, "boltconn: write PULL_ALL")
		}
	}
	if err := c.out.Flush(); err != nil {
		return nil, bolterr.Wrap(bolterr.ConnectionClosed, err, "boltconn: flush RUN")
	}

	c.enqueue(queueEntry{pool: stream.Pool(), onMessage: stream.OnRunResponse})
	c.enqueue(queueEntry{pool: stream.Pool(), onMessage: stream.OnPullResponse})
	c.setState(c.streamingState())

	// Wait for RUN's own response so NFields/CheckFailure are valid the
	// moment the caller gets the Stream back; PULL_ALL/DISCARD_ALL's
	// response is still fetched lazily by FetchNext/Peek/bufferRest.
	if err := stream.AwaitRun(); err != nil {
		return stream, err
	}
	return stream, nil
}

// Reset sends RESET and waits for its SUCCESS, returning the
// connection to Ready. Any requests already queued ahead of RESET
// (e.g. an undrained PULL_ALL) are drained first, through whatever
// real responses the server sends for them (typically IGNORED, per
// spec §4.6's failure semantics) — RESET's own response is read only
// once every earlier queue entry has been dispatched, preserving the
// wire's strict response ordering.
func (c *Connection) Reset() error {
	in, release, err := c.sendQueued(func() error { return c.msgW.WriteReset() }, "RESET")
	defer release()
	if err != nil {
		return err
	}
	if in.Kind != message.KindSuccess {
		return bolterr.New(bolterr.UnexpectedError, "boltconn: RESET not acknowledged")
	}
	c.setState(StateReady)
	return nil
}

// AckFailure sends ACK_FAILURE and waits for its SUCCESS, clearing a
// Failed state back to Ready (spec §4.6's failure-recovery step).
func (c *Connection) AckFailure() error {
	in, release, err := c.sendQueued(func() error { return c.msgW.WriteAckFailure() }, "ACK_FAILURE")
	defer release()
	if err != nil {
		return err
	}
	if in.Kind != message.KindSuccess {
		return bolterr.New(bolterr.UnexpectedError, "boltconn: ACK_FAILURE not acknowledged")
	}
	c.setState(StateReady)
	return nil
}

// SendAndAwait is the single-response synchronous primitive the tx
// package drives BEGIN/COMMIT/ROLLBACK through. The returned release
// func frees the response's arena (spec.md:189 — private to the
// operation, not the connection) and must be called only after the
// caller has copied out whatever it needs from the Inbound; it is
// always safe to call, including after an error.
func (c *Connection) SendAndAwait(writeFn func() error) (message.Inbound, func(), error) {
	return c.sendQueued(writeFn, "request")
}

// sendQueued writes one request via writeFn, flushes it, and enqueues
// a queue entry for its response behind whatever is already pending —
// never reads straight off the wire, since an earlier RUN/PULL_ALL
// response the caller hasn't drained yet would otherwise be
// misinterpreted as this request's response. Holds the single-owner
// lock across the whole round trip. The response is decoded into a
// pool scoped to this one call; the caller is responsible for invoking
// the returned release func once done with the Inbound.
func (c *Connection) sendQueued(writeFn func() error, what string) (message.Inbound, func(), error) {
	pool := mempool.New(0)
	release := pool.Reset

	if err := c.acquire(); err != nil {
		return message.Inbound{}, release, err
	}
	defer c.releaseOwner()

	if c.Poisoned() {
		return message.Inbound{}, release, bolterr.New(bolterr.ConnectionClosed, "boltconn: connection is defunct")
	}
	if err := writeFn(); err != nil {
		return message.Inbound{}, release, bolterr.Wrap(bolterr.ConnectionClosed, err, "boltconn: write %s", what)
	}
	if err := c.out.Flush(); err != nil {
		return message.Inbound{}, release, bolterr.Wrap(bolterr.ConnectionClosed, err, "boltconn: flush %s", what)
	}

	var resp message.Inbound
	done := false
	c.enqueue(queueEntry{pool: pool, onMessage: func(in message.Inbound) bool {
		resp = in
		done = true
		return true
	}})
	for !done {
		if err := c.pumpLocked(); err != nil {
			return message.Inbound{}, release, err
		}
	}
	return resp, release, nil
}

// Writer exposes the message.Writer for the tx package's BEGIN/COMMIT/
// ROLLBACK calls, which must go through SendAndAwait for the owner
// lock but still need to build the right wire message.
func (c *Connection) Writer() *message.Writer { return c.msgW }

// SetState lets the tx package drive the TxReady/TxStreaming/Ready
// transitions BEGIN/COMMIT/ROLLBACK cause, mirroring pumpLocked's own
// Streaming/Ready transition.
func (c *Connection) SetState(s State) { c.setState(s) }
