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
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/go-bolt/boltcore/boltvalue"
	"github.com/go-bolt/boltcore/chunked"
	"github.com/go-bolt/boltcore/mempool"
	"github.com/go-bolt/boltcore/packstream"
)

func decodeForTest(raw []byte, pool *mempool.Pool) (boltvalue.Value, int, error) {
	return packstream.DecodeValue(raw, pool)
}

func TestWriteRunThenReadRecognizesEnvelope(t *testing.T) {
	var wire bytes.Buffer
	cw := chunked.NewWriter(&wire)
	w := NewWriter(cw)
	require.NoError(t, w.WriteRun("RETURN 1", nil))

	cr := chunked.NewReader(&wire)
	pool := mempool.New(0)
	raw, err := chunked.ReadMessage(cr, pool.Alloc)
	require.NoError(t, err)

	v, n, err := decodeForTest(raw, pool)
	require.NoError(t, err)
	assert.Equal(t, len(raw), n)
	require.Equal(t, boltvalue.KindStruct, v.Kind())
	s := v.AsStruct()
	assert.Equal(t, SigRun, s.Signature)
	require.Len(t, s.Fields, 2)
	assert.Equal(t, "RETURN 1", s.Fields[0].AsString())
}

func TestReadClassifiesSuccess(t *testing.T) {
	var wire bytes.Buffer
	cw := chunked.NewWriter(&wire)
	w := NewWriter(cw)
	// directly compose a SUCCESS{fields:["n"]} server response using
	// the same struct machinery the Writer uses for client messages.
	require.NoError(t, w.writeStruct(SigSuccess, boltvalue.Map([]boltvalue.MapEntry{
		{Key: "fields", Val: boltvalue.List([]boltvalue.Value{boltvalue.String("n")})},
	})))

	cr := chunked.NewReader(&wire)
	pool := mempool.New(0)
	in, err := Read(cr, pool)
	require.NoError(t, err)
	assert.Equal(t, KindSuccess, in.Kind)
	meta := in.Metadata()
	require.Len(t, meta, 1)
	assert.Equal(t, "fields", meta[0].Key)
}

func TestReadClassifiesFailureAndExtractsNeo4jError(t *testing.T) {
	var wire bytes.Buffer
	cw := chunked.NewWriter(&wire)
	w := NewWriter(cw)
	require.NoError(t, w.writeStruct(SigFailure, boltvalue.Map([]boltvalue.MapEntry{
		{Key: "code", Val: boltvalue.String("Neo.ClientError.Transaction.TransactionTimedOut")},
		{Key: "message", Val: boltvalue.String("timed out")},
	})))

	cr := chunked.NewReader(&wire)
	pool := mempool.New(0)
	in, err := Read(cr, pool)
	require.NoError(t, err)
	assert.Equal(t, KindFailure, in.Kind)

	neoErr := in.Neo4jError()
	require.NotNil(t, neoErr)
	assert.True(t, neoErr.IsTransactionTimeout())
}

func TestReadRejectsUnrecognizedSignature(t *testing.T) {
	var wire bytes.Buffer
	cw := chunked.NewWriter(&wire)
	w := NewWriter(cw)
	require.NoError(t, w.writeStruct(0x99))

	cr := chunked.NewReader(&wire)
	pool := mempool.New(0)
	_, err := Read(cr, pool)
	assert.Error(t, err)
}

func TestChunkedReaderResetAllowsSecondMessageOnSameStream(t *testing.T) {
	var wire bytes.Buffer
	cw := chunked.NewWriter(&wire)
	w := NewWriter(cw)
	require.NoError(t, w.WriteReset())
	require.NoError(t, w.WritePullAll())

	cr := chunked.NewReader(&wire)
	pool := mempool.New(0)

	raw, err := chunked.ReadMessage(cr, pool.Alloc)
	require.NoError(t, err)
	v, _, err := decodeForTest(raw, pool)
	require.NoError(t, err)
	assert.Equal(t, SigReset, v.AsStruct().Signature)

	cr.Reset()
	raw, err = chunked.ReadMessage(cr, pool.Alloc)
	require.NoError(t, err)
	v, _, err = decodeForTest(raw, pool)
	require.NoError(t, err)
	assert.Equal(t, SigPullAll, v.AsStruct().Signature)
}
