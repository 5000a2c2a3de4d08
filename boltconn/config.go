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

// Package boltconn implements the Connection of spec §4.6: TCP/TLS
// dial, Bolt version handshake, INIT, the request queue and its
// dispatcher, and the session state machine. A Connection embeds a
// ringbuf.Buffer pair the way netx.conn embeds a bufiox.Reader/Writer
// pair over a net.Conn (response arenas are per operation, not per
// Connection); SessionBusy detection
// follows connstate's atomic-CAS "is this fd already owned" idiom,
// repurposed to "is a call already in flight."
package boltconn

import (
	"crypto/tls"
	"time"

	"github.com/go-bolt/boltcore/boltlog"
)

// DefaultVersions is the set of Bolt protocol versions this module
// offers during handshake, highest preferred first (spec §6 sends
// exactly four, zero-padding unused slots).
var DefaultVersions = [4]uint32{4, 3, 2, 1}

// Config carries everything about a Connection that is read-only after
// construction (spec §5's "Logger and config are read-only").
type Config struct {
	// Versions to offer during handshake, highest preferred first.
	// Zero entries are sent as literal zero (spec §6).
	Versions [4]uint32

	ClientID    string
	AuthScheme  string
	Principal   string
	Credentials string

	// TLSConfig, if non-nil, wraps the dialed net.Conn with tls.Client
	// before the handshake preamble.
	TLSConfig *tls.Config

	// SocketTimeout is applied via net.Conn.SetDeadline before each
	// blocking read/write; zero disables deadlines.
	SocketTimeout time.Duration

	// MaxPipelinedRequests is carried for callers but not enforced:
	// the request queue is unbounded and Run/Send never wait for room.
	MaxPipelinedRequests int

	// RingBufferSize sizes each of the inbound/outbound ringbuf.Buffers.
	RingBufferSize int

	Logger boltlog.Logger
}

func (c *Config) logger() boltlog.Logger {
	if c.Logger == nil {
		return boltlog.Nop
	}
	return c.Logger
}

const defaultRingBufferSize = 64 * 1024
