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

package result

import "github.com/go-bolt/boltcore/boltvalue"

// Record is a fixed-arity vector of Values produced by one RECORD
// message. Its Values are owned by the Stream's sub-pool; Release
// drops the Stream's outstanding-record count, and the sub-pool is
// freed once both the stream is closed and no outstanding Record
// remains (spec §4.7's retain/release contract).
type Record struct {
	stream *Stream
	values []boltvalue.Value
	freed  bool
}

// Field returns the i'th value, or Null if i is out of range.
func (r *Record) Field(i int) boltvalue.Value {
	if i < 0 || i >= len(r.values) {
		return boltvalue.Null()
	}
	return r.values[i]
}

// FieldByName returns the value of the named column, or Null if the
// stream has no such field. Looks the index up via Stream.FieldIndex
// rather than scanning FieldName(i) for every i.
func (r *Record) FieldByName(name string) boltvalue.Value {
	i, ok := r.stream.FieldIndex(name)
	if !ok {
		return boltvalue.Null()
	}
	return r.Field(i)
}

// Len returns the record's arity.
func (r *Record) Len() int { return len(r.values) }

// Release drops this Record's hold on the stream's sub-pool. A Record
// must not be used after Release.
func (r *Record) Release() {
	if r.freed {
		return
	}
	r.freed = true
	r.stream.release()
}
