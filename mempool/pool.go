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

// Package mempool implements the depth-tracked bump arena backing Bolt
// value deserialization: alloc is O(1) amortized, and an entire
// operation's worth of allocations is freed in one shot by rewinding
// to a depth captured on entry.
package mempool

import (
	"github.com/bytedance/gopkg/lang/mcache"
)

const defaultChunkSize = 16 * 1024

// Pool is an append-only arena. It is not safe for concurrent use;
// ownership follows the single-threaded-connection rule of the Bolt
// core (see boltconn). chunks[len(chunks)-1], when non-empty, is the
// chunk currently being filled; earlier chunks may have unused room
// left but are never allocated from again.
type Pool struct {
	chunks    [][]byte
	chunkSize int
}

// New creates a Pool that acquires memory in chunkSize increments (0
// selects a sane default).
func New(chunkSize int) *Pool {
	if chunkSize <= 0 {
		chunkSize = defaultChunkSize
	}
	return &Pool{chunkSize: chunkSize}
}

// Depth returns an opaque high-water mark that can later be passed to
// DrainTo to free every allocation made since.
func (p *Pool) Depth() int {
	n := len(p.chunks)
	if n == 0 {
		return 0
	}
	return (n-1)<<32 | len(p.chunks[n-1])
}

func depthParts(d int) (chunkIdx, curLen int) {
	return d >> 32, d & 0xffffffff
}

// Alloc returns an n-byte slice whose contents are not zeroed. The
// slice is valid until the next DrainTo that rewinds past it.
func (p *Pool) Alloc(n int) []byte {
	if n == 0 {
		return nil
	}
	if len(p.chunks) == 0 || len(p.chunks[len(p.chunks)-1])+n > cap(p.chunks[len(p.chunks)-1]) {
		p.growFor(n)
	}
	last := len(p.chunks) - 1
	start := len(p.chunks[last])
	p.chunks[last] = p.chunks[last][:start+n]
	return p.chunks[last][start : start+n : start+n]
}

// Calloc is Alloc with the result zeroed, for count*size bytes.
func (p *Pool) Calloc(count, size int) []byte {
	buf := p.Alloc(count * size)
	for i := range buf {
		buf[i] = 0
	}
	return buf
}

func (p *Pool) growFor(n int) {
	size := p.chunkSize
	for size < n {
		size *= 2
	}
	buf := mcache.Malloc(size)
	p.chunks = append(p.chunks, buf[:0])
}

// DrainTo frees every allocation made since depth was captured by
// Depth. Allocations returned after that point must not be used
// again.
func (p *Pool) DrainTo(depth int) {
	chunkIdx, curLen := depthParts(depth)
	if chunkIdx >= len(p.chunks) {
		return
	}
	for i := chunkIdx + 1; i < len(p.chunks); i++ {
		mcache.Free(p.chunks[i][:cap(p.chunks[i])])
		p.chunks[i] = nil
	}
	if curLen == 0 {
		mcache.Free(p.chunks[chunkIdx][:cap(p.chunks[chunkIdx])])
		p.chunks = p.chunks[:chunkIdx]
		return
	}
	p.chunks = p.chunks[:chunkIdx+1]
	p.chunks[chunkIdx] = p.chunks[chunkIdx][:curLen]
}

// Reset frees all memory held by the pool; the pool may be reused
// afterward.
func (p *Pool) Reset() {
	p.DrainTo(0)
}
