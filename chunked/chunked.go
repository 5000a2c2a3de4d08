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

// Package chunked implements the Bolt chunked-message framing of spec
// §4.4: a logical message is zero or more `{u16 length, length bytes}`
// chunks terminated by an empty chunk. Writer buffers up to MaxChunkSize
// bytes before emitting a chunk header, mirroring how protocol/ttheader
// defers its length field until the payload size is known; Reader
// streams one chunk's payload at a time and signals end-of-message on
// the zero-length terminator.
package chunked

import (
	"io"

	"github.com/go-bolt/boltcore/bolterr"
)

// MaxChunkSize is the largest payload a single chunk may carry (spec
// §4.4's max_chunk, default 65535 — the largest value a u16 length
// field can hold).
const MaxChunkSize = 65535

const chunkHeaderSize = 2

// Writer buffers one message's worth of bytes and frames them into
// chunks as the buffer fills and on EndMessage. It is not safe for
// concurrent use.
type Writer struct {
	out io.Writer
	buf []byte
}

// NewWriter returns a Writer that frames chunks onto out.
func NewWriter(out io.Writer) *Writer {
	return &Writer{out: out}
}

// Write buffers p, flushing full MaxChunkSize chunks as the buffer
// fills. It never returns a short write without an error.
func (w *Writer) Write(p []byte) (int, error) {
	n := len(p)
	for len(p) > 0 {
		room := MaxChunkSize - len(w.buf)
		if room == 0 {
			if err := w.flushChunk(); err != nil {
				return n - len(p), err
			}
			room = MaxChunkSize
		}
		take := room
		if take > len(p) {
			take = len(p)
		}
		w.buf = append(w.buf, p[:take]...)
		p = p[take:]
	}
	return n, nil
}

// flushChunk emits whatever is currently buffered as one chunk (even
// if empty — callers needing the end-of-message terminator call
// EndMessage instead, which never emits a chunk for an empty buffer).
func (w *Writer) flushChunk() error {
	hdr := [chunkHeaderSize]byte{byte(len(w.buf) >> 8), byte(len(w.buf))}
	if _, err := w.out.Write(hdr[:]); err != nil {
		return err
	}
	if len(w.buf) > 0 {
		if _, err := w.out.Write(w.buf); err != nil {
			return err
		}
	}
	w.buf = w.buf[:0]
	return nil
}

// EndMessage flushes any buffered bytes as a final chunk (skipped if
// empty) and writes the zero-length terminator chunk that marks the
// message boundary.
func (w *Writer) EndMessage() error {
	if len(w.buf) > 0 {
		if err := w.flushChunk(); err != nil {
			return err
		}
	}
	var term [chunkHeaderSize]byte
	_, err := w.out.Write(term[:])
	return err
}

// Reader streams one message's payload, chunk by chunk, from in.
// Read returns io.EOF exactly when the zero-length terminator chunk is
// consumed; a new Reader (or Reset) must be used for the next message.
type Reader struct {
	in        io.Reader
	remaining int
	done      bool
	hdr       [chunkHeaderSize]byte
}

// NewReader returns a Reader over in, positioned at the start of a
// message.
func NewReader(in io.Reader) *Reader {
	return &Reader{in: in}
}

// Reset rearms r to read a new message from the same underlying
// stream (the caller is responsible for having fully drained the
// previous message first).
func (r *Reader) Reset() {
	r.remaining = 0
	r.done = false
}

func (r *Reader) nextChunk() error {
	if _, err := io.ReadFull(r.in, r.hdr[:]); err != nil {
		return err
	}
	r.remaining = int(r.hdr[0])<<8 | int(r.hdr[1])
	if r.remaining == 0 {
		r.done = true
	}
	return nil
}

// Read implements io.Reader over the de-chunked payload stream.
func (r *Reader) Read(p []byte) (int, error) {
	if r.done {
		return 0, io.EOF
	}
	if r.remaining == 0 {
		if err := r.nextChunk(); err != nil {
			return 0, err
		}
		if r.done {
			return 0, io.EOF
		}
	}
	if len(p) > r.remaining {
		p = p[:r.remaining]
	}
	n, err := r.in.Read(p)
	r.remaining -= n
	return n, err
}

// ReadMessage reads one complete message's bytes (across as many
// chunks as needed) into a single slice allocated from pool's arena,
// so its lifetime follows the enclosing deserialize/result-stream
// operation per spec §4.1's memory pool design.
func ReadMessage(r *Reader, alloc func(int) []byte) ([]byte, error) {
	var total []byte
	var scratch [4096]byte
	for {
		n, err := r.Read(scratch[:])
		if n > 0 {
			total = appendChunkSpan(total, scratch[:n])
		}
		if err == io.EOF {
			msg := alloc(len(total))
			copy(msg, total)
			return msg, nil
		}
		if err != nil {
			return nil, bolterr.Wrap(bolterr.ConnectionClosed, err, "chunked: read message")
		}
	}
}

// appendChunkSpan concatenates src onto dst. It is a plain append, kept
// as a named step so ReadMessage's intent (accumulate chunk payloads
// into one logical message buffer) reads clearly at the call site.
func appendChunkSpan(dst, src []byte) []byte {
	return append(dst, src...)
}
