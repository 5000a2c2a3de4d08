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

package result

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/go-bolt/boltcore/boltvalue"
	"github.com/go-bolt/boltcore/message"
)

// scriptedPump feeds a fixed sequence of (run, pull) message pairs to
// a Stream's callbacks on each Pump call, mimicking what boltconn's
// dispatcher would do against a live connection.
type scriptedPump struct {
	script []func()
	pos    int
}

func (p *scriptedPump) Pump() error {
	if p.pos >= len(p.script) {
		return nil
	}
	f := p.script[p.pos]
	p.pos++
	f()
	return nil
}

func TestFetchNextDrainsRecordsThenEndsStream(t *testing.T) {
	p := &scriptedPump{}
	s := New(p)
	p.script = []func(){
		func() {
			s.OnRunResponse(message.Inbound{Kind: message.KindSuccess, Fields: []boltvalue.Value{
				boltvalue.Map([]boltvalue.MapEntry{{Key: "fields", Val: boltvalue.List([]boltvalue.Value{boltvalue.String("n")})}}),
			}})
		},
		func() {
			s.OnPullResponse(message.Inbound{Kind: message.KindRecord, Fields: []boltvalue.Value{boltvalue.List([]boltvalue.Value{boltvalue.Int(1)})}})
		},
		func() {
			s.OnPullResponse(message.Inbound{Kind: message.KindRecord, Fields: []boltvalue.Value{boltvalue.List([]boltvalue.Value{boltvalue.Int(2)})}})
		},
		func() {
			s.OnPullResponse(message.Inbound{Kind: message.KindSuccess, Fields: []boltvalue.Value{
				boltvalue.Map([]boltvalue.MapEntry{
					{Key: "type", Val: boltvalue.String("rw")},
					{Key: "stats", Val: boltvalue.Map([]boltvalue.MapEntry{{Key: "nodes-created", Val: boltvalue.Int(99)}})},
				}),
			}})
		},
	}

	require.False(t, s.HasFailure())

	r1, err := s.FetchNext()
	require.NoError(t, err)
	require.NotNil(t, r1)
	assert.Equal(t, int64(1), r1.Field(0).AsInt())
	r1.Release()

	r2, err := s.FetchNext()
	require.NoError(t, err)
	require.NotNil(t, r2)
	assert.Equal(t, int64(2), r2.Field(0).AsInt())
	r2.Release()

	r3, err := s.FetchNext()
	require.NoError(t, err)
	assert.Nil(t, r3)

	counts, err := s.UpdateCounts()
	require.NoError(t, err)
	assert.Equal(t, int64(99), counts.NodesCreated)

	stmtType, err := s.StatementType()
	require.NoError(t, err)
	assert.Equal(t, "rw", stmtType)

	require.NoError(t, s.Close())
}

func TestFieldByNameLooksUpColumnIndex(t *testing.T) {
	p := &scriptedPump{}
	s := New(p)
	p.script = []func(){
		func() {
			s.OnRunResponse(message.Inbound{Kind: message.KindSuccess, Fields: []boltvalue.Value{
				boltvalue.Map([]boltvalue.MapEntry{{Key: "fields", Val: boltvalue.List([]boltvalue.Value{
					boltvalue.String("name"), boltvalue.String("age"),
				})}}),
			})
		},
		func() {
			s.OnPullResponse(message.Inbound{Kind: message.KindRecord, Fields: []boltvalue.Value{boltvalue.List([]boltvalue.Value{
				boltvalue.String("ada"), boltvalue.Int(36),
			})}})
		},
		func() {
			s.OnPullResponse(message.Inbound{Kind: message.KindSuccess, Fields: []boltvalue.Value{boltvalue.Map(nil)}})
		},
	}

	require.NoError(t, s.AwaitRun())
	idx, ok := s.FieldIndex("age")
	require.True(t, ok)
	assert.Equal(t, 1, idx)
	_, ok = s.FieldIndex("missing")
	assert.False(t, ok)

	rec, err := s.FetchNext()
	require.NoError(t, err)
	require.NotNil(t, rec)
	assert.Equal(t, int64(36), rec.FieldByName("age").AsInt())
	assert.True(t, rec.FieldByName("missing").IsNull())
}

func TestFieldOutOfRangeReturnsNull(t *testing.T) {
	s := New(&scriptedPump{})
	rec := &Record{stream: s, values: []boltvalue.Value{boltvalue.Int(1)}}
	assert.True(t, rec.Field(5).IsNull())
	assert.True(t, rec.Field(-1).IsNull())
}

func TestPeekDoesNotConsume(t *testing.T) {
	p := &scriptedPump{}
	s := New(p)
	p.script = []func(){
		func() {
			s.OnPullResponse(message.Inbound{Kind: message.KindRecord, Fields: []boltvalue.Value{boltvalue.List([]boltvalue.Value{boltvalue.Int(7)})}})
		},
		func() {
			s.OnPullResponse(message.Inbound{Kind: message.KindSuccess, Fields: []boltvalue.Value{boltvalue.Map(nil)}})
		},
	}

	peeked, err := s.Peek(0)
	require.NoError(t, err)
	require.NotNil(t, peeked)
	assert.Equal(t, int64(7), peeked.Field(0).AsInt())

	got, err := s.FetchNext()
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, int64(7), got.Field(0).AsInt())
}
