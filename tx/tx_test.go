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

package tx

import (
	"encoding/binary"
	"io"
	"net"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/go-bolt/boltcore/bolterr"
	"github.com/go-bolt/boltcore/boltconn"
	"github.com/go-bolt/boltcore/boltvalue"
	"github.com/go-bolt/boltcore/chunked"
	"github.com/go-bolt/boltcore/mempool"
	"github.com/go-bolt/boltcore/message"
	"github.com/go-bolt/boltcore/packstream"
)

// fakeServer mirrors boltconn's own test harness: net.Pipe plus raw
// handshake bytes and message.Writer-shaped framed responses.
type fakeServer struct {
	conn   net.Conn
	chunkW *chunked.Writer
	chunkR *chunked.Reader
	pool   *mempool.Pool
}

func newFakeServer(conn net.Conn) *fakeServer {
	return &fakeServer{conn: conn, chunkW: chunked.NewWriter(conn), chunkR: chunked.NewReader(conn), pool: mempool.New(0)}
}

func (s *fakeServer) acceptHandshakeAndAgree(version uint32) error {
	buf := make([]byte, 4+4*4)
	if _, err := io.ReadFull(s.conn, buf); err != nil {
		return err
	}
	var resp [4]byte
	binary.BigEndian.PutUint32(resp[:], version)
	_, err := s.conn.Write(resp[:])
	return err
}

func (s *fakeServer) readRequest() (byte, []boltvalue.Value, error) {
	raw, err := chunked.ReadMessage(s.chunkR, s.pool.Alloc)
	if err != nil {
		return 0, nil, err
	}
	s.chunkR.Reset()
	v, _, err := packstream.DecodeValue(raw, s.pool)
	if err != nil {
		return 0, nil, err
	}
	st := v.AsStruct()
	return st.Signature, st.Fields, nil
}

func (s *fakeServer) writeStructMessage(sig byte, fields ...boltvalue.Value) error {
	v := boltvalue.StructOf(boltvalue.NewStruct(sig, fields))
	buf := packstream.AppendValue(nil, v)
	if _, err := s.chunkW.Write(buf); err != nil {
		return err
	}
	return s.chunkW.EndMessage()
}

func (s *fakeServer) writeSuccess(meta []boltvalue.MapEntry) error {
	return s.writeStructMessage(message.SigSuccess, boltvalue.Map(meta))
}

func (s *fakeServer) writeRecord(values []boltvalue.Value) error {
	return s.writeStructMessage(message.SigRecord, boltvalue.List(values))
}

func (s *fakeServer) writeFailure(code, msg string) error {
	return s.writeStructMessage(message.SigFailure, boltvalue.Map([]boltvalue.MapEntry{
		{Key: "code", Val: boltvalue.String(code)},
		{Key: "message", Val: boltvalue.String(msg)},
	}))
}

func establishOverPipe(t *testing.T, version uint32) (*boltconn.Connection, *fakeServer) {
	t.Helper()
	clientConn, serverConn := net.Pipe()
	srv := newFakeServer(serverConn)

	ready := make(chan error, 1)
	go func() {
		if err := srv.acceptHandshakeAndAgree(version); err != nil {
			ready <- err
			return
		}
		if _, _, err := srv.readRequest(); err != nil { // INIT
			ready <- err
			return
		}
		ready <- srv.writeSuccess(nil)
	}()

	conn, err := boltconn.Establish(clientConn, boltconn.Config{})
	require.NoError(t, err)
	require.NoError(t, <-ready)
	return conn, srv
}

func TestBeginCommitRoundTrip(t *testing.T) {
	conn, srv := establishOverPipe(t, 3)

	done := make(chan error, 1)
	go func() {
		if _, _, err := srv.readRequest(); err != nil { // BEGIN
			done <- err
			return
		}
		if err := srv.writeSuccess(nil); err != nil {
			done <- err
			return
		}
		if _, _, err := srv.readRequest(); err != nil { // COMMIT
			done <- err
			return
		}
		done <- srv.writeSuccess([]boltvalue.MapEntry{{Key: "bookmark", Val: boltvalue.String("tx:1")}})
	}()

	txn, err := Begin(conn, 5000, ModeWrite, "", nil)
	require.NoError(t, err)
	assert.True(t, txn.IsOpen())

	require.NoError(t, txn.Commit())
	require.NoError(t, <-done)
	assert.False(t, txn.IsOpen())
	assert.Equal(t, "tx:1", txn.Bookmark())
}

func TestBeginFailsOnProtocolVersionBelow3(t *testing.T) {
	conn, _ := establishOverPipe(t, 2)
	_, err := Begin(conn, 0, ModeWrite, "", nil)
	require.Error(t, err)
}

// S6 — transaction happy path: begin, run, two records then end-of-
// stream, commit capturing a bookmark.
func TestS6TransactionHappyPath(t *testing.T) {
	conn, srv := establishOverPipe(t, 4)

	done := make(chan error, 1)
	go func() {
		if _, _, err := srv.readRequest(); err != nil { // BEGIN
			done <- err
			return
		}
		if err := srv.writeSuccess(nil); err != nil {
			done <- err
			return
		}
		// The client flushes RUN and PULL_ALL in one write over the
		// unbuffered pipe, so both are read before either is answered.
		if _, _, err := srv.readRequest(); err != nil { // RUN
			done <- err
			return
		}
		if _, _, err := srv.readRequest(); err != nil { // PULL_ALL
			done <- err
			return
		}
		if err := srv.writeSuccess([]boltvalue.MapEntry{
			{Key: "fields", Val: boltvalue.List([]boltvalue.Value{boltvalue.String("n")})},
		}); err != nil {
			done <- err
			return
		}
		if err := srv.writeRecord([]boltvalue.Value{boltvalue.Int(1)}); err != nil {
			done <- err
			return
		}
		if err := srv.writeRecord([]boltvalue.Value{boltvalue.Int(2)}); err != nil {
			done <- err
			return
		}
		if err := srv.writeSuccess([]boltvalue.MapEntry{
			{Key: "type", Val: boltvalue.String("rw")},
			{Key: "stats", Val: boltvalue.Map([]boltvalue.MapEntry{
				{Key: "nodes-created", Val: boltvalue.Int(99)},
			})},
		}); err != nil {
			done <- err
			return
		}
		if _, _, err := srv.readRequest(); err != nil { // COMMIT
			done <- err
			return
		}
		done <- srv.writeSuccess([]boltvalue.MapEntry{{Key: "bookmark", Val: boltvalue.String("b:1")}})
	}()

	txn, err := Begin(conn, 10000, ModeWrite, "neo4j", nil)
	require.NoError(t, err)
	assert.True(t, txn.IsOpen())

	stream, err := txn.Run("RETURN 1", nil, false)
	require.NoError(t, err)

	rec, err := stream.FetchNext()
	require.NoError(t, err)
	require.NotNil(t, rec)
	rec, err = stream.FetchNext()
	require.NoError(t, err)
	require.NotNil(t, rec)
	rec, err = stream.FetchNext()
	require.NoError(t, err)
	require.Nil(t, rec)

	assert.False(t, stream.HasFailure())

	counts, err := stream.UpdateCounts()
	require.NoError(t, err)
	assert.Equal(t, int64(99), counts.NodesCreated)

	require.NoError(t, txn.Commit())
	require.NoError(t, <-done)
	assert.Equal(t, "b:1", txn.Bookmark())
	assert.False(t, txn.IsOpen())
}

// S7 — a RUN-level transaction timeout leaves the transaction failed,
// expired, and defunct, and rejects a subsequent Commit.
func TestS7TransactionTimeout(t *testing.T) {
	conn, srv := establishOverPipe(t, 4)

	done := make(chan error, 1)
	go func() {
		if _, _, err := srv.readRequest(); err != nil { // BEGIN
			done <- err
			return
		}
		if err := srv.writeSuccess(nil); err != nil {
			done <- err
			return
		}
		// RUN and PULL_ALL arrive in one write; read both first.
		if _, _, err := srv.readRequest(); err != nil { // RUN
			done <- err
			return
		}
		if _, _, err := srv.readRequest(); err != nil { // PULL_ALL
			done <- err
			return
		}
		if err := srv.writeFailure("Neo.ClientError.Transaction.TransactionTimedOut", "transaction timed out"); err != nil {
			done <- err
			return
		}
		done <- srv.writeFailure("Neo.ClientError.Transaction.TransactionTimedOut", "transaction timed out")
	}()

	txn, err := Begin(conn, 10000, ModeWrite, "neo4j", nil)
	require.NoError(t, err)

	stream, err := txn.Run("RETURN 1", nil, false)
	require.NoError(t, err)

	_, err = stream.FetchNext() // drives PULL_ALL's queued FAILURE through; Run already consumed RUN's
	require.NoError(t, err)
	require.NoError(t, <-done)

	assert.True(t, txn.Failed())
	assert.True(t, txn.isExpired)
	assert.True(t, txn.Defunct())

	err = txn.Commit()
	require.Error(t, err)
	var berr *bolterr.Error
	require.ErrorAs(t, err, &berr)
	assert.Equal(t, bolterr.TransactionDefunct, berr.Kind)
}

func TestRollbackClearsOpenStateEvenAfterFailure(t *testing.T) {
	conn, srv := establishOverPipe(t, 3)

	done := make(chan error, 1)
	go func() {
		if _, _, err := srv.readRequest(); err != nil { // BEGIN
			done <- err
			return
		}
		if err := srv.writeSuccess(nil); err != nil {
			done <- err
			return
		}
		// RUN and PULL_ALL arrive in one write; read both first.
		if _, _, err := srv.readRequest(); err != nil { // RUN
			done <- err
			return
		}
		if _, _, err := srv.readRequest(); err != nil { // PULL_ALL
			done <- err
			return
		}
		if err := srv.writeFailure("Neo.ClientError.Statement.SyntaxError", "bad cypher"); err != nil {
			done <- err
			return
		}
		if err := srv.writeFailure("Neo.ClientError.Statement.SyntaxError", "bad cypher"); err != nil {
			done <- err
			return
		}
		if _, _, err := srv.readRequest(); err != nil { // ROLLBACK
			done <- err
			return
		}
		done <- srv.writeSuccess(nil)
	}()

	txn, err := Begin(conn, 0, ModeWrite, "", nil)
	require.NoError(t, err)

	stream, err := txn.Run("RETURN bad cypher", nil, false)
	require.NoError(t, err)
	_, err = stream.FetchNext() // drives PULL_ALL's queued FAILURE through; Run already consumed RUN's
	require.NoError(t, err)
	assert.True(t, stream.HasFailure())

	require.NoError(t, txn.Rollback())
	require.NoError(t, <-done)
	assert.False(t, txn.IsOpen())
}
