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

// Package result implements the lazy RECORD sequence of spec §4.7: a
// Stream is fed RECORD/SUCCESS/FAILURE messages by whatever drives the
// connection's request queue (see boltconn), buffers ahead for Peek,
// and exposes terminal metadata (counts, statement type/plan) only
// after the stream is exhausted — querying it earlier forces the
// remaining records to be buffered.
package result

import (
	"github.com/go-bolt/boltcore/bolterr"
	"github.com/go-bolt/boltcore/boltvalue"
	"github.com/go-bolt/boltcore/container/strmap"
	"github.com/go-bolt/boltcore/mempool"
	"github.com/go-bolt/boltcore/message"
)

// Pumper drives one more inbound message through the connection's
// request queue, invoking whichever queue entry's callback matches.
// boltconn.Connection implements it.
type Pumper interface {
	Pump() error
}

// UpdateCounts mirrors the subset of a SUCCESS{stats:{...}} map this
// module surfaces (spec §4.7's update_counts()).
type UpdateCounts struct {
	NodesCreated         int64
	NodesDeleted         int64
	RelationshipsCreated int64
	RelationshipsDeleted int64
	PropertiesSet        int64
	LabelsAdded          int64
	LabelsRemoved        int64
	IndexesAdded         int64
	IndexesRemoved       int64
	ConstraintsAdded     int64
	ConstraintsRemoved   int64
}

// Stream is a lazy sequence of Records produced by one RUN, buffered
// across two queue entries (RUN's column-name SUCCESS, then PULL_ALL's
// RECORD*/terminal SUCCESS or FAILURE).
type Stream struct {
	pump Pumper
	pool *mempool.Pool

	fields    []string
	fieldsSet bool
	fieldIdx  *strmap.StrMap[int]

	buffered []*Record
	cursor   int
	runDone  bool
	pullDone bool

	failure *bolterr.Neo4jError

	count          int64
	availableAfter int64
	consumedAfter  int64
	haveTiming     bool

	updateCounts    UpdateCounts
	statementType   string
	statementPlan   boltvalue.Value
	haveTerminalMd  bool

	outstanding int
	closed      bool
}

// New creates a Stream driven by pump, allocating its own sub-pool
// sized for typical record decode traffic.
func New(pump Pumper) *Stream {
	return &Stream{pump: pump, pool: mempool.New(0)}
}

// Pool returns the sub-pool RECORD fields should be decoded into.
func (s *Stream) Pool() *mempool.Pool { return s.pool }

// OnRunResponse is the queue callback for the RUN request: it captures
// the column names from SUCCESS, or the failure from FAILURE/IGNORED.
// It always reports done=true — RUN expects exactly one terminal
// response.
func (s *Stream) OnRunResponse(in message.Inbound) (done bool) {
	s.runDone = true
	switch in.Kind {
	case message.KindSuccess:
		if fv, ok := boltvalue.Map(in.Metadata()).MapGet("fields"); ok {
			list := fv.AsList()
			s.fields = make([]string, len(list))
			idx := make([]int, len(list))
			for i, v := range list {
				s.fields[i] = v.AsString()
				idx[i] = i
			}
			s.fieldIdx = strmap.NewFromSlice(s.fields, idx)
		}
		s.fieldsSet = true
	case message.KindFailure:
		s.failure = in.Neo4jError()
	case message.KindIgnored:
		s.failure = &bolterr.Neo4jError{Code: "Neo.ClientError.Request.Ignored", Message: "request ignored while connection is failed"}
	}
	return true
}

// OnPullResponse is the queue callback for the PULL_ALL request: RECORD
// messages are buffered and reported not-done; the terminal SUCCESS/
// FAILURE/IGNORED marks the stream exhausted.
func (s *Stream) OnPullResponse(in message.Inbound) (done bool) {
	switch in.Kind {
	case message.KindRecord:
		s.buffered = append(s.buffered, &Record{stream: s, values: in.Record()})
		return false
	case message.KindSuccess:
		s.captureTerminal(in.Metadata())
	case message.KindFailure:
		if s.failure == nil {
			s.failure = in.Neo4jError()
		}
	case message.KindIgnored:
		if s.failure == nil {
			s.failure = &bolterr.Neo4jError{Code: "Neo.ClientError.Request.Ignored", Message: "request ignored while connection is failed"}
		}
	}
	s.pullDone = true
	return true
}

func (s *Stream) captureTerminal(meta []boltvalue.MapEntry) {
	m := boltvalue.Map(meta)
	if v, ok := m.MapGet("available_after"); ok {
		s.availableAfter = v.AsInt()
		s.haveTiming = true
	}
	if v, ok := m.MapGet("consumed_after"); ok {
		s.consumedAfter = v.AsInt()
		s.haveTiming = true
	}
	if v, ok := m.MapGet("type"); ok {
		s.statementType = v.AsString()
	}
	if v, ok := m.MapGet("plan"); ok {
		s.statementPlan = v
	} else if v, ok := m.MapGet("profile"); ok {
		s.statementPlan = v
	}
	if v, ok := m.MapGet("stats"); ok {
		stats := boltvalue.Map(v.AsMap())
		s.updateCounts = UpdateCounts{
			NodesCreated:         statInt(stats, "nodes-created"),
			NodesDeleted:         statInt(stats, "nodes-deleted"),
			RelationshipsCreated: statInt(stats, "relationships-created"),
			RelationshipsDeleted: statInt(stats, "relationships-deleted"),
			PropertiesSet:        statInt(stats, "properties-set"),
			LabelsAdded:          statInt(stats, "labels-added"),
			LabelsRemoved:        statInt(stats, "labels-removed"),
			IndexesAdded:         statInt(stats, "indexes-added"),
			IndexesRemoved:       statInt(stats, "indexes-removed"),
			ConstraintsAdded:     statInt(stats, "constraints-added"),
			ConstraintsRemoved:   statInt(stats, "constraints-removed"),
		}
	}
	s.haveTerminalMd = true
}

func statInt(m boltvalue.Value, key string) int64 {
	if v, ok := m.MapGet(key); ok {
		return v.AsInt()
	}
	return 0
}

// CheckFailure returns the server FAILURE (or synthesized IGNORED
// failure) observed on this stream, or nil if none occurred.
func (s *Stream) CheckFailure() *bolterr.Neo4jError { return s.failure }

// HasFailure reports whether the stream has observed a FAILURE/IGNORED.
func (s *Stream) HasFailure() bool { return s.failure != nil }

// NFields returns the number of result columns (valid once the RUN
// response has arrived).
func (s *Stream) NFields() int { return len(s.fields) }

// FieldName returns the i'th column name, or "" if out of range.
func (s *Stream) FieldName(i int) string {
	if i < 0 || i >= len(s.fields) {
		return ""
	}
	return s.fields[i]
}

// FieldIndex returns the column index of the named field, for
// Record.FieldByName lookups, without a linear scan over NFields().
// Valid once the RUN response has arrived (see AwaitRun/RunAcknowledged).
func (s *Stream) FieldIndex(name string) (int, bool) {
	if s.fieldIdx == nil {
		return 0, false
	}
	return s.fieldIdx.Get(name)
}

func (s *Stream) exhausted() bool { return s.pullDone }

// RunAcknowledged reports whether the RUN request's own SUCCESS/
// FAILURE has been observed yet (as opposed to the PULL_ALL/
// DISCARD_ALL response, which is fetched lazily).
func (s *Stream) RunAcknowledged() bool { return s.runDone }

// AwaitRun pumps the connection until the RUN response has been
// observed, so NFields/FieldName/CheckFailure are valid as soon as
// the caller gets the Stream back, matching the run() contract of
// spec §4.7/§4.8 (fields and any immediate failure are known before
// the first fetch_next call).
func (s *Stream) AwaitRun() error {
	for !s.runDone {
		if err := s.pump.Pump(); err != nil {
			return err
		}
	}
	return nil
}

// advance pumps the connection until either a new record is buffered
// or the stream reaches its terminal response.
func (s *Stream) advance() error {
	for len(s.buffered) <= s.cursor && !s.exhausted() {
		if err := s.pump.Pump(); err != nil {
			return err
		}
	}
	return nil
}

// FetchNext drives the I/O loop until one Record is available or the
// stream completes. Returns (nil, nil) at end-of-stream.
func (s *Stream) FetchNext() (*Record, error) {
	if err := s.advance(); err != nil {
		return nil, err
	}
	if s.cursor >= len(s.buffered) {
		return nil, nil
	}
	rec := s.buffered[s.cursor]
	s.cursor++
	s.outstanding++
	return rec, nil
}

// Peek buffers up to depth+1 records ahead without consuming them and
// returns the one at that depth, or nil at end-of-stream.
func (s *Stream) Peek(depth int) (*Record, error) {
	for len(s.buffered) <= s.cursor+depth && !s.exhausted() {
		if err := s.pump.Pump(); err != nil {
			return nil, err
		}
	}
	if s.cursor+depth >= len(s.buffered) {
		return nil, nil
	}
	return s.buffered[s.cursor+depth], nil
}

// bufferRest forces every remaining record into memory, for
// UpdateCounts/StatementType/StatementPlan called before exhaustion.
func (s *Stream) bufferRest() error {
	for !s.exhausted() {
		if err := s.pump.Pump(); err != nil {
			return err
		}
	}
	return nil
}

// Count returns the number of records buffered so far.
func (s *Stream) Count() int64 { return int64(len(s.buffered)) }

// AvailableAfter returns the server-reported ms-to-first-record. Valid
// only after the terminal SUCCESS.
func (s *Stream) AvailableAfter() (int64, bool) { return s.availableAfter, s.haveTiming }

// ConsumedAfter returns the server-reported ms-to-consume-rest. Valid
// only after the terminal SUCCESS.
func (s *Stream) ConsumedAfter() (int64, bool) { return s.consumedAfter, s.haveTiming }

// UpdateCounts returns the write statistics from the terminal SUCCESS,
// forcing full buffering if the stream has not yet completed.
func (s *Stream) UpdateCounts() (UpdateCounts, error) {
	if err := s.bufferRest(); err != nil {
		return UpdateCounts{}, err
	}
	return s.updateCounts, nil
}

// StatementType returns the terminal SUCCESS's "type" field ("r", "w",
// "rw", or "s"), forcing full buffering if needed.
func (s *Stream) StatementType() (string, error) {
	if err := s.bufferRest(); err != nil {
		return "", err
	}
	return s.statementType, nil
}

// StatementPlan returns the terminal SUCCESS's plan/profile tree if
// present, forcing full buffering if needed.
func (s *Stream) StatementPlan() (boltvalue.Value, error) {
	if err := s.bufferRest(); err != nil {
		return boltvalue.Null(), err
	}
	return s.statementPlan, nil
}

// Close drains any unpulled records by discarding them and releases
// the sub-pool once no Record remains outstanding. Records obtained
// before Close and not yet Released are invalidated once released.
func (s *Stream) Close() error {
	if s.closed {
		return nil
	}
	if err := s.bufferRest(); err != nil {
		s.closed = true
		return err
	}
	s.closed = true
	s.maybeFreePool()
	return nil
}

func (s *Stream) release() {
	if s.outstanding > 0 {
		s.outstanding--
	}
	s.maybeFreePool()
}

func (s *Stream) maybeFreePool() {
	if s.closed && s.outstanding == 0 {
		s.pool.Reset()
	}
}
