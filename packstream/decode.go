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
	"math"

	"github.com/go-bolt/boltcore/bolterr"
	"github.com/go-bolt/boltcore/boltvalue"
	"github.com/go-bolt/boltcore/mempool"
	"github.com/go-bolt/boltcore/unsafex"
)

const defaultRecursionDepth = 64

// DecodeValue decodes one value starting at buf[0], returning the
// value, the number of bytes consumed, and an error. String and Bytes
// payloads are copied into pool so the Value outlives a subsequent
// rewind of the caller's wire buffer; on error the caller is expected
// to rewind pool to the depth captured before calling (spec §7
// propagation policy).
func DecodeValue(buf []byte, pool *mempool.Pool) (boltvalue.Value, int, error) {
	return decodeValue(buf, pool, defaultRecursionDepth)
}

func decodeValue(buf []byte, pool *mempool.Pool, depth int) (boltvalue.Value, int, error) {
	if depth == 0 {
		return boltvalue.Null(), 0, bolterr.ProtocolErrorf("packstream: struct nesting too deep")
	}
	if len(buf) == 0 {
		return boltvalue.Null(), 0, errBufferTooShort
	}
	marker := buf[0]
	switch {
	case marker <= markerTinyIntPosMax:
		return boltvalue.Int(int64(int8(marker))), 1, nil
	case marker >= markerTinyIntNegMin:
		return boltvalue.Int(int64(int8(marker))), 1, nil
	case marker >= markerTinyStringMin && marker <= markerTinyStringMax:
		n := int(marker & 0x0F)
		return decodeFixedString(buf[1:], n, pool, 1)
	case marker >= markerTinyListMin && marker <= markerTinyListMax:
		n := int(marker & 0x0F)
		return decodeFixedList(buf[1:], n, pool, depth, 1)
	case marker >= markerTinyMapMin && marker <= markerTinyMapMax:
		n := int(marker & 0x0F)
		return decodeFixedMap(buf[1:], n, pool, depth, 1)
	case marker >= markerTinyStructMin && marker <= markerTinyStructMax:
		n := int(marker & 0x0F)
		return decodeStruct(buf[1:], n, pool, depth, 1)
	}

	switch marker {
	case markerNull:
		return boltvalue.Null(), 1, nil
	case markerFalse:
		return boltvalue.Bool(false), 1, nil
	case markerTrue:
		return boltvalue.Bool(true), 1, nil
	case markerFloat:
		f, n, err := decodeFloat(buf[1:])
		return f, n + 1, err
	case markerInt8:
		if len(buf) < 2 {
			return boltvalue.Null(), 0, errBufferTooShort
		}
		return boltvalue.Int(int64(int8(buf[1]))), 2, nil
	case markerInt16:
		if len(buf) < 3 {
			return boltvalue.Null(), 0, errBufferTooShort
		}
		return boltvalue.Int(int64(int16(readUint16(buf[1:])))), 3, nil
	case markerInt32:
		if len(buf) < 5 {
			return boltvalue.Null(), 0, errBufferTooShort
		}
		return boltvalue.Int(int64(int32(readUint32(buf[1:])))), 5, nil
	case markerInt64:
		if len(buf) < 9 {
			return boltvalue.Null(), 0, errBufferTooShort
		}
		return boltvalue.Int(int64(readUint64(buf[1:]))), 9, nil
	case markerBytes8:
		return decodeLenPrefixedBytes(buf[1:], 1, pool, 1)
	case markerBytes16:
		return decodeLenPrefixedBytes(buf[1:], 2, pool, 1)
	case markerBytes32:
		return decodeLenPrefixedBytes(buf[1:], 4, pool, 1)
	case markerString8:
		return decodeLenPrefixedString(buf[1:], 1, pool, 1)
	case markerString16:
		return decodeLenPrefixedString(buf[1:], 2, pool, 1)
	case markerString32:
		return decodeLenPrefixedString(buf[1:], 4, pool, 1)
	case markerList8:
		return decodeLenPrefixedList(buf[1:], 1, pool, depth, 1)
	case markerList16:
		return decodeLenPrefixedList(buf[1:], 2, pool, depth, 1)
	case markerList32:
		return decodeLenPrefixedList(buf[1:], 4, pool, depth, 1)
	case markerMap8:
		return decodeLenPrefixedMap(buf[1:], 1, pool, depth, 1)
	case markerMap16:
		return decodeLenPrefixedMap(buf[1:], 2, pool, depth, 1)
	case markerMap32:
		return decodeLenPrefixedMap(buf[1:], 4, pool, depth, 1)
	case markerStruct8:
		return decodeLenPrefixedStruct(buf[1:], 1, pool, depth, 1)
	case markerStruct16:
		return decodeLenPrefixedStruct(buf[1:], 2, pool, depth, 1)
	}
	return boltvalue.Null(), 0, errUnknownMarker(marker)
}

func decodeFloat(buf []byte) (boltvalue.Value, int, error) {
	if len(buf) < 8 {
		return boltvalue.Null(), 0, errBufferTooShort
	}
	return boltvalue.Float(math.Float64frombits(readUint64(buf))), 8, nil
}

// readLen reads a big-endian length field of width bytes (1, 2, or 4).
func readLen(buf []byte, width int) (int, int, error) {
	if len(buf) < width {
		return 0, 0, errBufferTooShort
	}
	switch width {
	case 1:
		return int(buf[0]), 1, nil
	case 2:
		return int(readUint16(buf)), 2, nil
	default:
		n := readUint32(buf)
		if n > math.MaxInt32 {
			return 0, 0, bolterr.ProtocolErrorf("packstream: length %d exceeds int32 range", n)
		}
		return int(n), 4, nil
	}
}

func copyBytes(pool *mempool.Pool, src []byte) []byte {
	dst := pool.Alloc(len(src))
	copy(dst, src)
	return dst
}

func copyString(pool *mempool.Pool, src []byte) string {
	return unsafex.BinaryToString(copyBytes(pool, src))
}

func decodeFixedString(buf []byte, n int, pool *mempool.Pool, consumed int) (boltvalue.Value, int, error) {
	if len(buf) < n {
		return boltvalue.Null(), 0, errBufferTooShort
	}
	return boltvalue.String(copyString(pool, buf[:n])), consumed + n, nil
}

func decodeLenPrefixedString(buf []byte, width int, pool *mempool.Pool, consumed int) (boltvalue.Value, int, error) {
	n, l, err := readLen(buf, width)
	if err != nil {
		return boltvalue.Null(), 0, err
	}
	return decodeFixedString(buf[l:], n, pool, consumed+l)
}

func decodeLenPrefixedBytes(buf []byte, width int, pool *mempool.Pool, consumed int) (boltvalue.Value, int, error) {
	n, l, err := readLen(buf, width)
	if err != nil {
		return boltvalue.Null(), 0, err
	}
	if len(buf) < l+n {
		return boltvalue.Null(), 0, errBufferTooShort
	}
	return boltvalue.Bytes(copyBytes(pool, buf[l:l+n])), consumed + l + n, nil
}

func decodeFixedList(buf []byte, n int, pool *mempool.Pool, depth, consumed int) (boltvalue.Value, int, error) {
	items := make([]boltvalue.Value, n)
	off := 0
	for i := 0; i < n; i++ {
		v, l, err := decodeValue(buf[off:], pool, depth-1)
		if err != nil {
			return boltvalue.Null(), 0, err
		}
		items[i] = v
		off += l
	}
	return boltvalue.List(items), consumed + off, nil
}

func decodeLenPrefixedList(buf []byte, width int, pool *mempool.Pool, depth, consumed int) (boltvalue.Value, int, error) {
	n, l, err := readLen(buf, width)
	if err != nil {
		return boltvalue.Null(), 0, err
	}
	return decodeFixedList(buf[l:], n, pool, depth, consumed+l)
}

func decodeFixedMap(buf []byte, n int, pool *mempool.Pool, depth, consumed int) (boltvalue.Value, int, error) {
	keys := make([]boltvalue.Value, n)
	vals := make([]boltvalue.Value, n)
	off := 0
	for i := 0; i < n; i++ {
		k, l, err := decodeValue(buf[off:], pool, depth-1)
		if err != nil {
			return boltvalue.Null(), 0, err
		}
		off += l
		v, l2, err := decodeValue(buf[off:], pool, depth-1)
		if err != nil {
			return boltvalue.Null(), 0, err
		}
		off += l2
		keys[i], vals[i] = k, v
	}
	m, err := boltvalue.NewMapFromEntries(keys, vals)
	if err != nil {
		return boltvalue.Null(), 0, err
	}
	return m, consumed + off, nil
}

func decodeLenPrefixedMap(buf []byte, width int, pool *mempool.Pool, depth, consumed int) (boltvalue.Value, int, error) {
	n, l, err := readLen(buf, width)
	if err != nil {
		return boltvalue.Null(), 0, err
	}
	return decodeFixedMap(buf[l:], n, pool, depth, consumed+l)
}

func decodeStruct(buf []byte, n int, pool *mempool.Pool, depth, consumed int) (boltvalue.Value, int, error) {
	if len(buf) < 1 {
		return boltvalue.Null(), 0, errBufferTooShort
	}
	sig := buf[0]
	off := 1
	fields := make([]boltvalue.Value, n)
	for i := 0; i < n; i++ {
		v, l, err := decodeValue(buf[off:], pool, depth-1)
		if err != nil {
			return boltvalue.Null(), 0, err
		}
		fields[i] = v
		off += l
	}
	v, err := buildTypedStruct(sig, fields)
	if err != nil {
		return boltvalue.Null(), 0, err
	}
	return v, consumed + off, nil
}

func decodeLenPrefixedStruct(buf []byte, width int, pool *mempool.Pool, depth, consumed int) (boltvalue.Value, int, error) {
	n, l, err := readLen(buf, width)
	if err != nil {
		return boltvalue.Null(), 0, err
	}
	return decodeStruct(buf[l:], n, pool, depth, consumed+l)
}

func readUint16(b []byte) uint16 {
	return uint16(b[0])<<8 | uint16(b[1])
}

func readUint32(b []byte) uint32 {
	return uint32(b[0])<<24 | uint32(b[1])<<16 | uint32(b[2])<<8 | uint32(b[3])
}

func readUint64(b []byte) uint64 {
	return uint64(b[0])<<56 | uint64(b[1])<<48 | uint64(b[2])<<40 | uint64(b[3])<<32 |
		uint64(b[4])<<24 | uint64(b[5])<<16 | uint64(b[6])<<8 | uint64(b[7])
}
