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
	"crypto/tls"
	"encoding/binary"
	"net"
	"strconv"
	"time"

	"github.com/go-bolt/boltcore/bolterr"
	"github.com/go-bolt/boltcore/chunked"
	"github.com/go-bolt/boltcore/mempool"
	"github.com/go-bolt/boltcore/message"
	"github.com/go-bolt/boltcore/ringbuf"
)

// handshakePreamble is the 4-byte magic spec §6 requires before the
// version proposals.
var handshakePreamble = [4]byte{0x60, 0x60, 0xB0, 0x17}

// Connection is one Bolt session over a single net.Conn. It is not
// safe for concurrent use (spec §5) — acquire/releaseOwner enforce
// that with SessionBusy.
type Connection struct {
	conn net.Conn
	cfg  Config

	inBuf  *ringbuf.Buffer
	outBuf *ringbuf.Buffer
	chunkW *chunked.Writer
	chunkR *chunked.Reader
	msgW   *message.Writer

	out *outboundIO

	version uint32

	state    uint32
	owner    int32
	poisoned uint32

	queue []queueEntry
}

// Connect dials host:port, optionally upgrades to TLS, then hands the
// established net.Conn to Establish.
func Connect(host string, port int, cfg Config) (*Connection, error) {
	addr := net.JoinHostPort(host, strconv.Itoa(port))
	rawConn, err := net.Dial("tcp", addr)
	if err != nil {
		return nil, bolterr.Wrap(bolterr.UnknownHost, err, "boltconn: dial %s", addr)
	}

	netConn := rawConn
	if cfg.TLSConfig != nil {
		tlsConn := tls.Client(rawConn, cfg.TLSConfig)
		if err := tlsConn.Handshake(); err != nil {
			_ = rawConn.Close()
			return nil, classifyTLSError(err)
		}
		netConn = tlsConn
	}
	return Establish(netConn, cfg)
}

// Establish performs the Bolt handshake and INIT over an already-
// connected net.Conn (TLS, if any, already applied) and returns a
// Ready Connection. Split out from Connect so tests can drive it over
// a net.Pipe the way bolt5server drives bolt5.Connect in the pack's
// reference driver tests.
func Establish(netConn net.Conn, cfg Config) (*Connection, error) {
	if cfg.Versions == ([4]uint32{}) {
		cfg.Versions = DefaultVersions
	}
	ringSize := cfg.RingBufferSize
	if ringSize <= 0 {
		ringSize = defaultRingBufferSize
	}

	inBuf, err := ringbuf.New(ringSize)
	if err != nil {
		_ = netConn.Close()
		return nil, bolterr.Wrap(bolterr.UnexpectedError, err, "boltconn: allocate inbound ring buffer")
	}
	outBuf, err := ringbuf.New(ringSize)
	if err != nil {
		_ = netConn.Close()
		return nil, bolterr.Wrap(bolterr.UnexpectedError, err, "boltconn: allocate outbound ring buffer")
	}

	out := &outboundIO{buf: outBuf, conn: netConn, timeout: cfg.SocketTimeout}
	in := &inboundIO{buf: inBuf, conn: netConn, timeout: cfg.SocketTimeout}

	c := &Connection{
		conn:   netConn,
		cfg:    cfg,
		inBuf:  inBuf,
		outBuf: outBuf,
		chunkW: chunked.NewWriter(out),
		chunkR: chunked.NewReader(in),
		out:    out,
	}
	c.msgW = message.NewWriter(c.chunkW)

	if err := c.handshake(); err != nil {
		_ = netConn.Close()
		return nil, err
	}
	if err := c.init(); err != nil {
		_ = netConn.Close()
		return nil, err
	}
	c.setState(StateReady)
	return c, nil
}

func (c *Connection) handshake() error {
	buf := make([]byte, 4+4*4)
	copy(buf[:4], handshakePreamble[:])
	for i, v := range c.cfg.Versions {
		binary.BigEndian.PutUint32(buf[4+i*4:], v)
	}
	if c.cfg.SocketTimeout > 0 {
		if err := c.conn.SetDeadline(time.Now().Add(c.cfg.SocketTimeout)); err != nil {
			return bolterr.Wrap(bolterr.ConnectionClosed, err, "boltconn: set handshake deadline")
		}
	}
	if _, err := c.conn.Write(buf); err != nil {
		return bolterr.Wrap(bolterr.ProtocolNegotiationFailed, err, "boltconn: write handshake")
	}
	var resp [4]byte
	if _, err := readFull(c.conn, resp[:]); err != nil {
		return bolterr.Wrap(bolterr.ProtocolNegotiationFailed, err, "boltconn: read handshake response")
	}
	c.version = binary.BigEndian.Uint32(resp[:])
	if c.version == 0 {
		return bolterr.New(bolterr.ProtocolNegotiationFailed, "boltconn: server rejected every offered version")
	}
	return nil
}

func (c *Connection) init() error {
	if err := c.msgW.WriteInit(c.cfg.ClientID, c.cfg.AuthScheme, c.cfg.Principal, c.cfg.Credentials); err != nil {
		return bolterr.Wrap(bolterr.ConnectionClosed, err, "boltconn: write INIT")
	}
	if err := c.out.Flush(); err != nil {
		return bolterr.Wrap(bolterr.ConnectionClosed, err, "boltconn: flush INIT")
	}
	// INIT's response arena is scoped to this one call (spec.md:189) —
	// Connection keeps no pool of its own past the handshake.
	pool := mempool.New(0)
	defer pool.Reset()
	in, err := message.Read(c.chunkR, pool)
	c.chunkR.Reset()
	if err != nil {
		return bolterr.Wrap(bolterr.ConnectionClosed, err, "boltconn: read INIT response")
	}
	if in.Kind != message.KindSuccess {
		if neoErr := in.Neo4jError(); neoErr != nil {
			return bolterr.Wrap(bolterr.InvalidCredentials, neoErr, "boltconn: INIT failed")
		}
		return bolterr.New(bolterr.InvalidCredentials, "boltconn: INIT rejected")
	}
	return nil
}

// Version returns the negotiated Bolt protocol version (1-4).
func (c *Connection) Version() int { return int(c.version) }

// Close flushes pending responses where possible and closes the
// transport (spec §4.6).
func (c *Connection) Close() error {
	if err := c.acquire(); err != nil {
		return err
	}
	defer c.releaseOwner()
	for len(c.queue) > 0 {
		if err := c.pumpLocked(); err != nil {
			break
		}
	}
	return c.conn.Close()
}

func classifyTLSError(err error) error {
	return bolterr.Wrap(bolterr.TLSVerificationFailed, err, "boltconn: TLS handshake failed")
}

func readFull(r net.Conn, p []byte) (int, error) {
	total := 0
	for total < len(p) {
		n, err := r.Read(p[total:])
		total += n
		if err != nil {
			return total, err
		}
	}
	return total, nil
}
