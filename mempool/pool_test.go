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

package mempool

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAllocWritesDistinctMemory(t *testing.T) {
	p := New(64)
	a := p.Alloc(8)
	b := p.Alloc(8)
	for i := range a {
		a[i] = 0xAA
	}
	for i := range b {
		b[i] = 0xBB
	}
	assert.Equal(t, byte(0xAA), a[0])
	assert.Equal(t, byte(0xBB), b[0])
}

func TestDrainToRewindsAllocations(t *testing.T) {
	p := New(64)
	depth := p.Depth()
	p.Alloc(16)
	p.Alloc(16)
	p.DrainTo(depth)
	assert.Equal(t, depth, p.Depth())

	// allocations after rewind reuse/extend the arena without panicking
	c := p.Alloc(8)
	assert.Len(t, c, 8)
}

func TestGrowAcrossChunkBoundary(t *testing.T) {
	p := New(16)
	depth := p.Depth()
	_ = p.Alloc(10)
	big := p.Alloc(100) // forces a new, larger chunk
	assert.Len(t, big, 100)
	p.DrainTo(depth)
	assert.Equal(t, depth, p.Depth())
}

func TestCallocZeroesMemory(t *testing.T) {
	p := New(64)
	buf := p.Alloc(8)
	for i := range buf {
		buf[i] = 0xFF
	}
	p.Reset()
	z := p.Calloc(4, 2)
	for _, b := range z {
		assert.Equal(t, byte(0), b)
	}
}
