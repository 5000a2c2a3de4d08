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

// Package message implements the Bolt message codec of spec §4.5: one
// logical message is a PackStream struct (a signature byte plus N
// fields), framed by the chunked stream. Writer mirrors the Neo4j
// driver's outgoing.go begin()/end() bracketing — build the struct's
// fields into a scratch buffer, then flush it through a chunked.Writer —
// and Read classifies an assembled message by its response signature
// (SUCCESS/RECORD/IGNORED/FAILURE).
package message

import (
	"strings"

	"github.com/go-bolt/boltcore/bolterr"
	"github.com/go-bolt/boltcore/boltvalue"
	"github.com/go-bolt/boltcore/chunked"
	"github.com/go-bolt/boltcore/mempool"
	"github.com/go-bolt/boltcore/packstream"
)

// Signature bytes for spec §4.5's table, plus BEGIN/COMMIT/ROLLBACK
// (spec §4.8 names these operations but the distilled message table
// omits their wire signatures; 0x11/0x12/0x13 are the real Bolt v3+
// values the Transaction module requires).
const (
	SigInit       byte = 0x01
	SigRun        byte = 0x10
	SigDiscardAll byte = 0x2F
	SigPullAll    byte = 0x3F
	SigAckFailure byte = 0x0E
	SigReset      byte = 0x0F
	SigBegin      byte = 0x11
	SigCommit     byte = 0x12
	SigRollback   byte = 0x13

	SigSuccess byte = 0x70
	SigRecord  byte = 0x71
	SigIgnored byte = 0x7E
	SigFailure byte = 0x7F
)

// Kind classifies a decoded inbound message.
type Kind uint8

const (
	KindSuccess Kind = iota
	KindRecord
	KindIgnored
	KindFailure
)

// Inbound is one decoded server message: its classification plus the
// struct's raw fields, still owned by whatever mempool.Pool the caller
// decoded it with.
type Inbound struct {
	Kind   Kind
	Fields []boltvalue.Value
}

// Metadata returns field 0 as a map, for SUCCESS/IGNORED responses
// whose single field is the metadata map (empty map if absent).
func (in Inbound) Metadata() []boltvalue.MapEntry {
	if len(in.Fields) == 0 {
		return nil
	}
	return in.Fields[0].AsMap()
}

// Record returns field 0 as a list, for RECORD responses.
func (in Inbound) Record() []boltvalue.Value {
	if len(in.Fields) == 0 {
		return nil
	}
	return in.Fields[0].AsList()
}

// Neo4jError builds a bolterr.Neo4jError from a FAILURE response's
// argv map (spec §7's `code`/`message` fields). Returns nil if in is
// not a FAILURE or carries no such fields. Code/Message are cloned off
// the pool-backed string views so the returned error stays valid after
// the pool that decoded in is drained or reused by a later operation.
func (in Inbound) Neo4jError() *bolterr.Neo4jError {
	if in.Kind != KindFailure || len(in.Fields) == 0 {
		return nil
	}
	m := in.Fields[0].AsMap()
	e := &bolterr.Neo4jError{}
	for _, entry := range m {
		switch entry.Key {
		case "code":
			e.Code = strings.Clone(entry.Val.AsString())
		case "message":
			e.Message = strings.Clone(entry.Val.AsString())
		}
	}
	return e
}

// Read assembles one full message from r (which must already be
// positioned at a message boundary — see chunked.Reader.Reset) and
// classifies it. Unrecognized response signatures are a protocol
// error; the generic Struct fallback in packstream only applies to
// values nested inside a message, not the top-level message envelope.
//
// On any failure the pool is rewound to the depth captured on entry
// before the error is returned, per packstream.DecodeValue's own
// rewind-on-error contract and spec §7's propagation policy.
func Read(r *chunked.Reader, pool *mempool.Pool) (Inbound, error) {
	depth := pool.Depth()
	raw, err := chunked.ReadMessage(r, pool.Alloc)
	if err != nil {
		pool.DrainTo(depth)
		return Inbound{}, err
	}
	v, _, err := packstream.DecodeValue(raw, pool)
	if err != nil {
		pool.DrainTo(depth)
		return Inbound{}, err
	}
	if v.Kind() != boltvalue.KindStruct {
		pool.DrainTo(depth)
		return Inbound{}, bolterr.ProtocolErrorf("message: expected a struct envelope, got kind %d", v.Kind())
	}
	s := v.AsStruct()
	switch s.Signature {
	case SigSuccess:
		return Inbound{Kind: KindSuccess, Fields: s.Fields}, nil
	case SigRecord:
		return Inbound{Kind: KindRecord, Fields: s.Fields}, nil
	case SigIgnored:
		return Inbound{Kind: KindIgnored, Fields: s.Fields}, nil
	case SigFailure:
		return Inbound{Kind: KindFailure, Fields: s.Fields}, nil
	}
	pool.DrainTo(depth)
	return Inbound{}, bolterr.ProtocolErrorf("message: unrecognized response signature 0x%02X", s.Signature)
}
