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

package chunked

import (
	"bytes"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriterEmitsChunkThenTerminator(t *testing.T) {
	var out bytes.Buffer
	w := NewWriter(&out)
	_, err := w.Write([]byte("hello"))
	require.NoError(t, err)
	require.NoError(t, w.EndMessage())

	want := []byte{0x00, 0x05, 'h', 'e', 'l', 'l', 'o', 0x00, 0x00}
	assert.Equal(t, want, out.Bytes())
}

func TestWriterSplitsAtMaxChunkSize(t *testing.T) {
	var out bytes.Buffer
	w := NewWriter(&out)
	payload := bytes.Repeat([]byte{'x'}, MaxChunkSize+10)
	_, err := w.Write(payload)
	require.NoError(t, err)
	require.NoError(t, w.EndMessage())

	r := NewReader(&out)
	got, err := io.ReadAll(r)
	require.NoError(t, err)
	assert.Equal(t, payload, got)
}

func TestReaderSignalsEOFAtTerminator(t *testing.T) {
	var out bytes.Buffer
	w := NewWriter(&out)
	_, err := w.Write([]byte("abc"))
	require.NoError(t, err)
	require.NoError(t, w.EndMessage())

	r := NewReader(&out)
	got, err := io.ReadAll(r)
	require.NoError(t, err)
	assert.Equal(t, []byte("abc"), got)

	// a further Read past the terminator keeps returning EOF.
	n, err := r.Read(make([]byte, 4))
	assert.Equal(t, 0, n)
	assert.Equal(t, io.EOF, err)
}

func TestReaderAssemblesMultipleChunksIntoOneMessage(t *testing.T) {
	var out bytes.Buffer
	// two chunks, "ab" then "cd", then terminator.
	out.Write([]byte{0x00, 0x02, 'a', 'b'})
	out.Write([]byte{0x00, 0x02, 'c', 'd'})
	out.Write([]byte{0x00, 0x00})

	r := NewReader(&out)
	got, err := io.ReadAll(r)
	require.NoError(t, err)
	assert.Equal(t, []byte("abcd"), got)
}

func TestReadMessageAccumulatesIntoPoolAllocations(t *testing.T) {
	var out bytes.Buffer
	out.Write([]byte{0x00, 0x03, 'f', 'o', 'o'})
	out.Write([]byte{0x00, 0x00})

	r := NewReader(&out)
	msg, err := ReadMessage(r, func(n int) []byte { return make([]byte, n) })
	require.NoError(t, err)
	assert.Equal(t, []byte("foo"), msg)
}

func TestReaderResetAllowsNextMessage(t *testing.T) {
	var out bytes.Buffer
	w := NewWriter(&out)
	_, _ = w.Write([]byte("one"))
	require.NoError(t, w.EndMessage())
	_, _ = w.Write([]byte("two"))
	require.NoError(t, w.EndMessage())

	r := NewReader(&out)
	first, err := io.ReadAll(r)
	require.NoError(t, err)
	assert.Equal(t, []byte("one"), first)

	r.Reset()
	second, err := io.ReadAll(r)
	require.NoError(t, err)
	assert.Equal(t, []byte("two"), second)
}
