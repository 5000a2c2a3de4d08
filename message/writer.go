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

package message

import (
	"github.com/go-bolt/boltcore/boltvalue"
	"github.com/go-bolt/boltcore/chunked"
	"github.com/go-bolt/boltcore/packstream"
)

// Writer serializes outbound messages onto a chunked.Writer. It keeps
// one reusable scratch buffer across calls, following outgoing.go's
// begin()/end() bracketing: begin resets the scratch buffer, the
// per-message append* method fills it, end flushes it as one chunked
// message.
type Writer struct {
	out     *chunked.Writer
	scratch []byte
}

// NewWriter returns a Writer framing messages onto out.
func NewWriter(out *chunked.Writer) *Writer {
	return &Writer{out: out}
}

func (w *Writer) begin() {
	w.scratch = w.scratch[:0]
}

func (w *Writer) end() error {
	if _, err := w.out.Write(w.scratch); err != nil {
		return err
	}
	return w.out.EndMessage()
}

func (w *Writer) writeStruct(sig byte, fields ...boltvalue.Value) error {
	w.begin()
	s := boltvalue.StructOf(boltvalue.NewStruct(sig, fields))
	w.scratch = packstream.AppendValue(w.scratch, s)
	return w.end()
}

// WriteInit sends INIT{client_id, auth} (spec §4.6's handshake step;
// protocol versions 1-2 use this form — v3 and later replace it with
// HELLO, which this module's v1-4 scope does not otherwise need).
func (w *Writer) WriteInit(clientID, scheme, principal, credentials string) error {
	auth := boltvalue.Map([]boltvalue.MapEntry{
		{Key: "scheme", Val: boltvalue.String(scheme)},
		{Key: "principal", Val: boltvalue.String(principal)},
		{Key: "credentials", Val: boltvalue.String(credentials)},
	})
	return w.writeStruct(SigInit, boltvalue.String(clientID), auth)
}

// WriteRun sends the legacy 2-field RUN{statement, params} used by
// protocol versions 1-2.
func (w *Writer) WriteRun(statement string, params []boltvalue.MapEntry) error {
	return w.writeStruct(SigRun, boltvalue.String(statement), boltvalue.Map(params))
}

// WriteRunWithMeta sends the 3-field RUN{statement, params, extra}
// used from protocol version 3 onward, where extra carries tx mode/db/
// bookmarks metadata (empty map outside a transaction).
func (w *Writer) WriteRunWithMeta(statement string, params, extra []boltvalue.MapEntry) error {
	return w.writeStruct(SigRun, boltvalue.String(statement), boltvalue.Map(params), boltvalue.Map(extra))
}

// WriteDiscardAll sends DISCARD_ALL (no fields).
func (w *Writer) WriteDiscardAll() error {
	return w.writeStruct(SigDiscardAll)
}

// WritePullAll sends PULL_ALL (no fields).
func (w *Writer) WritePullAll() error {
	return w.writeStruct(SigPullAll)
}

// WriteAckFailure sends ACK_FAILURE (no fields).
func (w *Writer) WriteAckFailure() error {
	return w.writeStruct(SigAckFailure)
}

// WriteReset sends RESET (no fields).
func (w *Writer) WriteReset() error {
	return w.writeStruct(SigReset)
}

// WriteBegin sends BEGIN{extra}, extra carrying tx_timeout/mode/db per
// spec §4.8.
func (w *Writer) WriteBegin(extra []boltvalue.MapEntry) error {
	return w.writeStruct(SigBegin, boltvalue.Map(extra))
}

// WriteCommit sends COMMIT (no fields).
func (w *Writer) WriteCommit() error {
	return w.writeStruct(SigCommit)
}

// WriteRollback sends ROLLBACK (no fields).
func (w *Writer) WriteRollback() error {
	return w.writeStruct(SigRollback)
}
