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

// Package ringbuf implements a fixed-capacity FIFO byte buffer backed
// by a single contiguous array, exposing scatter/gather iovec views
// for zero-copy fill/drain against net.Conn.
package ringbuf

import (
	"errors"
	"io"
	"net"
)

// ErrNoBufferSpace is returned by Read when the buffer is already full.
var ErrNoBufferSpace = errors.New("ringbuf: no buffer space available (ENOBUFS)")

var errInvalidSize = errors.New("ringbuf: size must be > 0")

// Buffer is a fixed-capacity ring over a contiguous byte array.
//
// Invariants: used <= len(buf); readPos is always in [0, len(buf)).
type Buffer struct {
	buf     []byte
	readPos int
	used    int
}

// New allocates a ring buffer of the given capacity.
func New(size int) (*Buffer, error) {
	if size <= 0 {
		return nil, errInvalidSize
	}
	return &Buffer{buf: make([]byte, size)}, nil
}

// Size returns the buffer's fixed capacity.
func (b *Buffer) Size() int { return len(b.buf) }

// Used returns the number of bytes currently stored.
func (b *Buffer) Used() int { return b.used }

// Space returns the number of free bytes available to Append.
func (b *Buffer) Space() int { return len(b.buf) - b.used }

// IsEmpty reports whether the buffer holds no data.
func (b *Buffer) IsEmpty() bool { return b.used == 0 }

// IsFull reports whether the buffer has no free space.
func (b *Buffer) IsFull() bool { return b.used == len(b.buf) }

func (b *Buffer) writePos() int {
	p := b.readPos + b.used
	if p >= len(b.buf) {
		p -= len(b.buf)
	}
	return p
}

// Append copies up to n bytes (bounded by available space and len(src))
// into the buffer. It never blocks and never returns an error; the
// actual number of bytes written is returned.
func (b *Buffer) Append(src []byte, n int) int {
	if n > len(src) {
		n = len(src)
	}
	if n > b.Space() {
		n = b.Space()
	}
	if n == 0 {
		return 0
	}
	wp := b.writePos()
	first := len(b.buf) - wp
	if first > n {
		first = n
	}
	copy(b.buf[wp:wp+first], src[:first])
	if rem := n - first; rem > 0 {
		copy(b.buf[0:rem], src[first:first+rem])
	}
	b.used += n
	return n
}

// Discard advances the read pointer by up to n bytes without copying
// them anywhere, clamped to the available data.
func (b *Buffer) Discard(n int) int {
	if n > b.used {
		n = b.used
	}
	if n <= 0 {
		return 0
	}
	b.readPos += n
	if b.readPos >= len(b.buf) {
		b.readPos -= len(b.buf)
	}
	b.used -= n
	return n
}

// Advance extends the used region by n bytes after the caller has
// written directly into the slice returned by SpaceIovec. It is
// clamped to available space.
func (b *Buffer) Advance(n int) int {
	if n > b.Space() {
		n = b.Space()
	}
	if n <= 0 {
		return 0
	}
	b.used += n
	return n
}

// Extract copies up to n bytes (bounded by used data and len(dst))
// out of the buffer starting at the read pointer, without consuming
// them; callers that want to consume must also call Discard.
func (b *Buffer) Extract(dst []byte, n int) int {
	if n > len(dst) {
		n = len(dst)
	}
	if n > b.used {
		n = b.used
	}
	if n == 0 {
		return 0
	}
	first := len(b.buf) - b.readPos
	if first > n {
		first = n
	}
	copy(dst[:first], b.buf[b.readPos:b.readPos+first])
	if rem := n - first; rem > 0 {
		copy(dst[first:first+rem], b.buf[0:rem])
	}
	return n
}

// SpaceIovec returns 1 or 2 slices describing up to n bytes of free
// space at the write wrap, without mutating state. Callers must call
// Advance after writing into these slices; the buffer never does so
// implicitly, since that would expose uninitialized bytes to a
// subsequent reader.
func (b *Buffer) SpaceIovec(n int) [][]byte {
	if n > b.Space() {
		n = b.Space()
	}
	if n <= 0 {
		return nil
	}
	wp := b.writePos()
	first := len(b.buf) - wp
	if first >= n {
		return [][]byte{b.buf[wp : wp+n]}
	}
	return [][]byte{b.buf[wp:], b.buf[0 : n-first]}
}

// DataIovec returns 1 or 2 slices describing up to n bytes of stored
// data starting at the read pointer, without mutating state. On wrap,
// segment one is the tail of the buffer and segment two is the head.
func (b *Buffer) DataIovec(n int) [][]byte {
	if n > b.used {
		n = b.used
	}
	if n <= 0 {
		return nil
	}
	first := len(b.buf) - b.readPos
	if first >= n {
		return [][]byte{b.buf[b.readPos : b.readPos+n]}
	}
	return [][]byte{b.buf[b.readPos:], b.buf[0 : n-first]}
}

// Peek is a convenience wrapper around DataIovec for the common case
// of wanting a single contiguous look at the next n bytes without
// consuming them; if the data wraps, it is copied into scratch.
func (b *Buffer) Peek(n int, scratch []byte) []byte {
	segs := b.DataIovec(n)
	if len(segs) == 0 {
		return nil
	}
	if len(segs) == 1 {
		return segs[0]
	}
	total := len(segs[0]) + len(segs[1])
	if cap(scratch) < total {
		scratch = make([]byte, total)
	}
	scratch = scratch[:total]
	copy(scratch, segs[0])
	copy(scratch[len(segs[0]):], segs[1])
	return scratch
}

// Read fills the buffer with n bytes (clamped to the free space) read
// from r, using one io.ReadFull per contiguous free segment (two when
// the free space wraps). On a read error it returns the count stored
// so far together with that error. Returns ErrNoBufferSpace if the
// buffer is already full.
func (b *Buffer) Read(r io.Reader, n int) (int, error) {
	if b.IsFull() {
		return 0, ErrNoBufferSpace
	}
	if n > b.Space() {
		n = b.Space()
	}
	segs := b.SpaceIovec(n)
	total := 0
	for _, seg := range segs {
		if total >= n {
			break
		}
		want := seg
		if len(want) > n-total {
			want = want[:n-total]
		}
		m, err := io.ReadFull(r, want)
		total += m
		b.Advance(m)
		if err != nil {
			return total, err
		}
		if m < len(want) {
			break
		}
	}
	return total, nil
}

// Write drains up to n bytes from the buffer into w via a single
// vectored write where possible (net.Buffers when w is a net.Conn),
// advancing the read pointer by the amount actually written.
func (b *Buffer) Write(w io.Writer, n int) (int, error) {
	if n > b.used {
		n = b.used
	}
	if n == 0 {
		return 0, nil
	}
	segs := b.DataIovec(n)
	if len(segs) == 1 {
		m, err := w.Write(segs[0])
		b.Discard(m)
		return m, err
	}
	bufs := net.Buffers(make([][]byte, len(segs)))
	for i, s := range segs {
		bufs[i] = s
	}
	written, err := bufs.WriteTo(w)
	b.Discard(int(written))
	return int(written), err
}
