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

package packstream

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/go-bolt/boltcore/bolterr"
	"github.com/go-bolt/boltcore/boltvalue"
	"github.com/go-bolt/boltcore/mempool"
)

func decodeOne(t *testing.T, buf []byte) (boltvalue.Value, int) {
	t.Helper()
	pool := mempool.New(0)
	v, n, err := DecodeValue(buf, pool)
	require.NoError(t, err)
	return v, n
}

// S1 — tiny int round-trip.
func TestS1TinyIntRoundTrip(t *testing.T) {
	assert.Equal(t, []byte{0x00}, AppendInt(nil, 0))
	assert.Equal(t, []byte{0xFF}, AppendInt(nil, -1))

	v, n := decodeOne(t, []byte{0x00})
	assert.Equal(t, 1, n)
	assert.True(t, boltvalue.Equal(boltvalue.Int(0), v))

	v, n = decodeOne(t, []byte{0x7F})
	assert.Equal(t, 1, n)
	assert.True(t, boltvalue.Equal(boltvalue.Int(127), v))
}

// S2 — tiny string.
func TestS2TinyString(t *testing.T) {
	wire := []byte{0x86, 0x62, 0x65, 0x72, 0x6E, 0x69, 0x65}
	v, n := decodeOne(t, wire)
	assert.Equal(t, len(wire), n)
	assert.True(t, boltvalue.Equal(boltvalue.String("bernie"), v))

	assert.Equal(t, wire, AppendString(nil, "bernie"))
}

// S3 — tiny map, preserving entry order.
func TestS3TinyMap(t *testing.T) {
	wire := []byte{0xA3, 0x81, 0x62, 0x01, 0x81, 0x65, 0x02, 0x81, 0x72, 0x03}
	v, n := decodeOne(t, wire)
	assert.Equal(t, len(wire), n)

	pairs := v.AsMap()
	require.Len(t, pairs, 3)
	assert.Equal(t, "b", pairs[0].Key)
	assert.Equal(t, "e", pairs[1].Key)
	assert.Equal(t, "r", pairs[2].Key)
	assert.True(t, boltvalue.Equal(boltvalue.Int(1), pairs[0].Val))
	assert.True(t, boltvalue.Equal(boltvalue.Int(2), pairs[1].Val))
	assert.True(t, boltvalue.Equal(boltvalue.Int(3), pairs[2].Val))
}

// S4 — map with a non-string key yields ProtocolError / InvalidMapKeyType
// and the decode makes no partial Map available to the caller. The
// first entry's string key is decoded (and allocated into pool) before
// the second entry's bad key is reached, so this also exercises that a
// failure after a real allocation still leaves the pool rewindable to
// its entry depth.
func TestS4MapWithNonStringKey(t *testing.T) {
	// tiny map, 2 entries: {"a": 1, Bool(true): 2}.
	wire := []byte{0xA2, 0x81, 0x61, 0x01, 0xC3, 0x02}
	pool := mempool.New(0)
	depth := pool.Depth()
	_, _, err := DecodeValue(wire, pool)
	require.Error(t, err)
	require.Greater(t, pool.Depth(), depth, "the first entry's string key should have allocated before the second entry's key failed")

	var berr *bolterr.Error
	require.ErrorAs(t, err, &berr)
	assert.Equal(t, bolterr.InvalidMapKeyType, berr.Kind)

	pool.DrainTo(depth)
	assert.Equal(t, depth, pool.Depth())
}

// S5 — Node struct, decode + canonical string form.
func TestS5Node(t *testing.T) {
	wire := []byte{
		0xDC, 0x03, 0x4E,
		0x01,
		0x91, 0x8A, 'J', 'o', 'u', 'r', 'n', 'a', 'l', 'i', 's', 't',
		0xA1, 0x84, 't', 'y', 'p', 'e', 0x85, 'G', 'o', 'n', 'z', 'o',
	}
	v, n := decodeOne(t, wire)
	assert.Equal(t, len(wire), n)

	require.Equal(t, boltvalue.KindNode, v.Kind())
	node := v.AsNode()
	assert.Equal(t, int64(1), node.Identity)
	assert.Equal(t, []string{"Journalist"}, node.Labels)
	assert.Equal(t, `(:Journalist{type:"Gonzo"})`, v.String())

	// the encoder picks the minimal tiny-struct marker (0xB3) rather
	// than the non-minimal struct8 form the literal wire used above.
	encoded := AppendValue(nil, v)
	assert.Equal(t, byte(0xB3), encoded[0])
	assert.Equal(t, byte(boltvalue.SigNode), encoded[1])
}

func TestMinimalEncodingAcrossIntWidths(t *testing.T) {
	cases := []struct {
		n      int64
		marker byte
	}{
		{0, 0x00},
		{-16, 0xF0},
		{127, 0x7F},
		{-17, markerInt8},
		{128, markerInt16},
		{32768, markerInt32},
		{1 << 40, markerInt64},
	}
	for _, c := range cases {
		buf := AppendInt(nil, c.n)
		assert.Equal(t, c.marker, buf[0], "n=%d", c.n)
		v, _, err := DecodeValue(buf, mempool.New(0))
		require.NoError(t, err)
		assert.True(t, boltvalue.Equal(boltvalue.Int(c.n), v))
	}
}

func TestFloatRoundTripUsesBitPattern(t *testing.T) {
	buf := AppendFloat(nil, 3.14)
	require.Equal(t, byte(markerFloat), buf[0])
	require.Len(t, buf, 9)
	v, n, err := DecodeValue(buf, mempool.New(0))
	require.NoError(t, err)
	assert.Equal(t, 9, n)
	assert.True(t, boltvalue.Equal(boltvalue.Float(3.14), v))
}

func TestListRoundTrip(t *testing.T) {
	v := boltvalue.List([]boltvalue.Value{boltvalue.Int(1), boltvalue.String("x"), boltvalue.Bool(true)})
	buf := AppendValue(nil, v)
	got, n, err := DecodeValue(buf, mempool.New(0))
	require.NoError(t, err)
	assert.Equal(t, len(buf), n)
	assert.True(t, boltvalue.Equal(v, got))
}

func TestSkipAdvancesPastStructWithoutAllocating(t *testing.T) {
	wire := []byte{
		0xDC, 0x03, 0x4E,
		0x01,
		0x91, 0x8A, 'J', 'o', 'u', 'r', 'n', 'a', 'l', 'i', 's', 't',
		0xA1, 0x84, 't', 'y', 'p', 'e', 0x85, 'G', 'o', 'n', 'z', 'o',
	}
	trailing := []byte{0x01, 0x02}
	n, err := Skip(append(append([]byte{}, wire...), trailing...))
	require.NoError(t, err)
	assert.Equal(t, len(wire), n)
}

func TestBytesRoundTrip(t *testing.T) {
	v := boltvalue.Bytes([]byte{0xDE, 0xAD, 0xBE, 0xEF})
	buf := AppendValue(nil, v)
	got, n, err := DecodeValue(buf, mempool.New(0))
	require.NoError(t, err)
	assert.Equal(t, len(buf), n)
	assert.True(t, boltvalue.Equal(v, got))
}
