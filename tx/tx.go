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

// Package tx implements the explicit transaction of spec §4.8:
// BEGIN/COMMIT/ROLLBACK framed as a single-response round trip on top
// of boltconn.Connection, with RUN inside the transaction routed
// through the connection's normal pipelined Run/Send. Grounded on
// outgoing.go's begin()/commit()/rollback() methods and on
// apache.TTransport's open/flush/close lifecycle shape: a Transaction
// is either open or it isn't, and every operation after close fails
// the same way regardless of why it closed.
package tx

import (
	"strings"

	"github.com/go-bolt/boltcore/boltconn"
	"github.com/go-bolt/boltcore/bolterr"
	"github.com/go-bolt/boltcore/boltlog"
	"github.com/go-bolt/boltcore/boltvalue"
	"github.com/go-bolt/boltcore/message"
	"github.com/go-bolt/boltcore/result"
)

// AccessMode selects the routing metadata sent with BEGIN/RUN.
type AccessMode string

const (
	ModeWrite AccessMode = "WRITE"
	ModeRead  AccessMode = "READ"
)

// Transaction is spec §4.8's explicit transaction. A single failed
// bool plus the failureKind/failureCode/failureMessage fields record
// why it failed, rather than separate sentinels per failure cause (recorded
// as an Open Question decision: one boolean is enough since failure
// state is always recovered the same way, by rolling back).
type Transaction struct {
	conn *boltconn.Connection

	isOpen    bool
	isExpired bool

	failed         bool
	failureKind    bolterr.Kind
	failureCode    string
	failureMessage string

	commitBookmark string

	timeoutMs int64
	mode      AccessMode
	db        string

	logger boltlog.Logger
}

// Begin sends BEGIN{tx_timeout, mode, db} and waits for its SUCCESS.
// It fails with FeatureUnavailable on protocol versions before 3,
// since BEGIN/COMMIT/ROLLBACK did not exist on the wire before then.
func Begin(conn *boltconn.Connection, timeoutMs int64, mode AccessMode, db string, logger boltlog.Logger) (*Transaction, error) {
	if conn.Version() < 3 {
		return nil, bolterr.New(bolterr.FeatureUnavailable, "tx: explicit BEGIN requires protocol version 3 or later, negotiated %d", conn.Version())
	}
	if logger == nil {
		logger = boltlog.Nop
	}
	if mode == "" {
		mode = ModeWrite
	}

	t := &Transaction{conn: conn, timeoutMs: timeoutMs, mode: mode, db: db, logger: logger}

	extra := t.extraMetadata()
	in, release, err := conn.SendAndAwait(func() error {
		return conn.Writer().WriteBegin(extra)
	})
	defer release()
	if err != nil {
		return nil, err
	}
	if in.Kind != message.KindSuccess {
		t.recordFailure(in)
		return nil, bolterr.New(bolterr.TransactionFailed, "tx: BEGIN failed: %s", t.failureMessage)
	}
	t.isOpen = true
	conn.SetState(boltconn.StateTxReady)
	logger.Debugf("tx: began (mode=%s db=%q timeout_ms=%d)", mode, db, timeoutMs)
	return t, nil
}

func (t *Transaction) extraMetadata() []boltvalue.MapEntry {
	extra := []boltvalue.MapEntry{
		{Key: "mode", Val: boltvalue.String(string(t.mode))},
	}
	if t.timeoutMs > 0 {
		extra = append(extra, boltvalue.MapEntry{Key: "tx_timeout", Val: boltvalue.Int(t.timeoutMs)})
	}
	if t.db != "" {
		extra = append(extra, boltvalue.MapEntry{Key: "db", Val: boltvalue.String(t.db)})
	}
	return extra
}

func (t *Transaction) recordFailure(in message.Inbound) {
	t.failed = true
	t.failureKind = bolterr.TransactionFailed
	if neoErr := in.Neo4jError(); neoErr != nil {
		t.failureCode = neoErr.Code
		t.failureMessage = neoErr.Message
		if neoErr.IsTransactionTimeout() {
			t.isExpired = true
		}
	} else {
		t.failureMessage = "request ignored"
	}
}

// Run executes statement inside the transaction, pipelining RUN +
// PULL_ALL (or RUN + DISCARD_ALL when discardOnly). Fails with
// TransactionDefunct if the transaction is not open or is defunct.
func (t *Transaction) Run(statement string, params []boltvalue.MapEntry, discardOnly bool) (*result.Stream, error) {
	if err := t.checkUsable(); err != nil {
		return nil, err
	}
	extra := t.runExtra()
	var stream *result.Stream
	var err error
	if discardOnly {
		stream, err = t.conn.Send(statement, params, extra)
	} else {
		stream, err = t.conn.Run(statement, params, extra)
	}
	if err != nil {
		return nil, err
	}
	if stream.HasFailure() {
		t.failed = true
		t.failureKind = bolterr.TransactionFailed
		neoErr := stream.CheckFailure()
		t.failureCode = neoErr.Code
		t.failureMessage = neoErr.Message
		if neoErr.IsTransactionTimeout() {
			t.isExpired = true
		}
	}
	return stream, nil
}

// runExtra builds RUN's extra map; from protocol version 4 onward a
// statement naming an explicit database is routed via this field
// rather than a separate RUN_WITH_METADATA/ROUTE exchange.
func (t *Transaction) runExtra() []boltvalue.MapEntry {
	extra := []boltvalue.MapEntry{{Key: "mode", Val: boltvalue.String(string(t.mode))}}
	if t.db != "" && t.conn.Version() >= 4 {
		extra = append(extra, boltvalue.MapEntry{Key: "db", Val: boltvalue.String(t.db)})
	}
	return extra
}

func (t *Transaction) checkUsable() error {
	if t.Defunct() {
		return bolterr.New(bolterr.TransactionDefunct, "tx: transaction is no longer usable")
	}
	if !t.isOpen {
		return bolterr.New(bolterr.TransactionDefunct, "tx: transaction is not open")
	}
	return nil
}

// Commit sends COMMIT and waits for its SUCCESS, capturing a bookmark
// if the server returned one.
func (t *Transaction) Commit() error {
	if err := t.checkUsable(); err != nil {
		return err
	}
	in, release, err := t.conn.SendAndAwait(func() error {
		return t.conn.Writer().WriteCommit()
	})
	defer release()
	if err != nil {
		return err
	}
	if in.Kind != message.KindSuccess {
		t.recordFailure(in)
		return bolterr.New(bolterr.TransactionFailed, "tx: COMMIT failed: %s", t.failureMessage)
	}
	if bm, ok := boltvalue.Map(in.Metadata()).MapGet("bookmark"); ok {
		// Cloned off the pool-backed string view: release (deferred
		// above) frees that arena once this function returns.
		t.commitBookmark = strings.Clone(bm.AsString())
	}
	t.isOpen = false
	t.failed = false
	t.conn.SetState(boltconn.StateReady)
	t.logger.Debugf("tx: committed (bookmark=%q)", t.commitBookmark)
	return nil
}

// Rollback sends ROLLBACK and waits for its SUCCESS, clearing the
// transaction's open/failed state regardless of the failure it is
// recovering from.
func (t *Transaction) Rollback() error {
	if !t.isOpen {
		return bolterr.New(bolterr.TransactionDefunct, "tx: transaction is not open")
	}
	in, release, err := t.conn.SendAndAwait(func() error {
		return t.conn.Writer().WriteRollback()
	})
	defer release()
	if err != nil {
		return err
	}
	t.isOpen = false
	t.failed = false
	t.conn.SetState(boltconn.StateReady)
	if in.Kind != message.KindSuccess {
		t.logger.Warnf("tx: ROLLBACK not acknowledged cleanly")
		return bolterr.New(bolterr.TransactionFailed, "tx: ROLLBACK failed")
	}
	t.logger.Debugf("tx: rolled back")
	return nil
}

// Defunct reports whether the transaction can no longer be used:
// because it expired, because its connection is poisoned, or because
// its last observed failure was a transaction timeout.
func (t *Transaction) Defunct() bool {
	return t.isExpired || t.conn.Poisoned()
}

// IsOpen reports whether BEGIN succeeded and neither COMMIT nor
// ROLLBACK has completed yet.
func (t *Transaction) IsOpen() bool { return t.isOpen }

// Failed reports whether the last operation against this transaction
// observed a server FAILURE.
func (t *Transaction) Failed() bool { return t.failed }

// FailureCode returns the Neo4j error code of the last recorded
// failure, or "" if none.
func (t *Transaction) FailureCode() string { return t.failureCode }

// FailureMessage returns the message of the last recorded failure, or
// "" if none.
func (t *Transaction) FailureMessage() string { return t.failureMessage }

// Bookmark returns the bookmark captured from the last successful
// Commit, or "" if none was returned.
func (t *Transaction) Bookmark() string { return t.commitBookmark }
