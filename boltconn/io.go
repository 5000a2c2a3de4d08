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

package boltconn

import (
	"net"
	"time"

	"github.com/go-bolt/boltcore/ringbuf"
)

// outboundIO adapts an outbound ringbuf.Buffer to io.Writer: Write
// stages bytes into the ring (spec §4's "chunks are written into the
// outbound ring buffer"); Flush drains everything staged out to conn
// (spec's "flushed to the socket"), applying the configured deadline
// to each underlying socket write.
type outboundIO struct {
	buf     *ringbuf.Buffer
	conn    net.Conn
	timeout time.Duration
}

func (o *outboundIO) Write(p []byte) (int, error) {
	n := o.buf.Append(p, len(p))
	if n < len(p) {
		return n, ringbuf.ErrNoBufferSpace
	}
	return n, nil
}

func (o *outboundIO) Flush() error {
	for o.buf.Used() > 0 {
		if o.timeout > 0 {
			if err := o.conn.SetWriteDeadline(time.Now().Add(o.timeout)); err != nil {
				return err
			}
		}
		if _, err := o.buf.Write(o.conn, o.buf.Used()); err != nil {
			return err
		}
	}
	return nil
}

// inboundIO adapts an inbound ringbuf.Buffer to io.Reader: each Read
// pulls exactly as many fresh bytes from conn as the caller asked for
// (never more), so chunked.Reader's exact-size header/payload reads
// never block waiting for bytes nobody asked for yet.
type inboundIO struct {
	buf     *ringbuf.Buffer
	conn    net.Conn
	timeout time.Duration
}

func (i *inboundIO) Read(p []byte) (int, error) {
	if i.buf.Used() == 0 {
		if i.timeout > 0 {
			if err := i.conn.SetReadDeadline(time.Now().Add(i.timeout)); err != nil {
				return 0, err
			}
		}
		if _, err := i.buf.Read(i.conn, len(p)); err != nil && i.buf.Used() == 0 {
			return 0, err
		}
	}
	n := i.buf.Extract(p, len(p))
	i.buf.Discard(n)
	return n, nil
}
