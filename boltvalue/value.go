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

// Package boltvalue implements the Bolt value model: a tagged union
// of primitive, composite and typed-struct kinds plus accessors, structural
// equality, and the canonical text form. Values are borrowed — they
// do not own the backing arrays referenced by their payload; see
// mempool for the arena that does.
package boltvalue

import (
	"math"

	"github.com/go-bolt/boltcore/bolterr"
)

// Kind discriminates the variant held by a Value.
type Kind uint8

const (
	KindNull Kind = iota
	KindBool
	KindInt
	KindFloat
	KindString
	KindBytes
	KindList
	KindMap
	KindNode
	KindRelationship
	KindUnboundRelationship
	KindPath
	KindStruct
	KindIdentity
	KindPoint
	KindLocalDateTime
	KindOffsetDateTime
	KindZonedDateTime
	KindLocalDate
	KindLocalTime
	KindOffsetTime
	KindDuration
)

// MapEntry is one key/value pair of a Map value. Keys are always
// String-tagged per the Bolt data model.
type MapEntry struct {
	Key string
	Val Value
}

// Value is the Bolt tagged union. Only the fields relevant to Kind
// are meaningful; zero value is Null.
type Value struct {
	kind Kind

	b     bool
	i     int64
	f     float64
	s     string
	bytes []byte
	list  []Value
	pairs []MapEntry

	node       *Node
	rel        *Relationship
	unboundRel *UnboundRelationship
	path       *Path
	strct      *Struct
	point      *Point
	dt         *DateTime
	dur        *Duration
	ident      int64
}

// Kind returns the discriminant of v.
func (v Value) Kind() Kind { return v.kind }

// Null is the Null value.
func Null() Value { return Value{kind: KindNull} }

// IsNull reports whether v is Null.
func (v Value) IsNull() bool { return v.kind == KindNull }

// Bool constructs a Bool value.
func Bool(b bool) Value { return Value{kind: KindBool, b: b} }

// AsBool returns v's payload if v is Bool, else false.
func (v Value) AsBool() bool { return v.kind == KindBool && v.b }

// Int constructs an Int value (64-bit signed).
func Int(i int64) Value { return Value{kind: KindInt, i: i} }

// AsInt returns v's payload if v is Int, else 0.
func (v Value) AsInt() int64 {
	if v.kind == KindInt {
		return v.i
	}
	return 0
}

// Float constructs a Float value (IEEE-754 binary64).
func Float(f float64) Value { return Value{kind: KindFloat, f: f} }

// AsFloat returns v's payload if v is Float, else 0.
func (v Value) AsFloat() float64 {
	if v.kind == KindFloat {
		return v.f
	}
	return 0
}

// String constructs a String value from s, interpreted as UTF-8. s is
// stored as given, without a copy.
func String(s string) Value { return Value{kind: KindString, s: s} }

// AsString returns v's payload if v is String, else "".
func (v Value) AsString() string {
	if v.kind == KindString {
		return v.s
	}
	return ""
}

// Bytes constructs a Bytes value from a borrowed opaque byte slice.
func Bytes(b []byte) Value { return Value{kind: KindBytes, bytes: b} }

// AsBytes returns v's payload if v is Bytes, else nil.
func (v Value) AsBytes() []byte {
	if v.kind == KindBytes {
		return v.bytes
	}
	return nil
}

// List constructs a List value from a borrowed contiguous sequence.
func List(items []Value) Value { return Value{kind: KindList, list: items} }

// AsList returns v's payload if v is List, else nil.
func (v Value) AsList() []Value {
	if v.kind == KindList {
		return v.list
	}
	return nil
}

// Identity constructs an Identity value: an Int wrapped in a distinct
// tag indicating it names a graph entity.
func Identity(id int64) Value { return Value{kind: KindIdentity, ident: id} }

// AsIdentity returns v's payload if v is Identity, else 0.
func (v Value) AsIdentity() int64 {
	if v.kind == KindIdentity {
		return v.ident
	}
	return 0
}

// Map constructs a Map value from key/value pairs. Every entry in
// pairs already carries a string Key by construction (MapEntry.Key is
// a Go string, not a Value), so unlike NewMapFromEntries this
// constructor cannot fail on key type; it exists for callers building
// values to send rather than values received.
func Map(pairs []MapEntry) Value { return Value{kind: KindMap, pairs: pairs} }

// NewMapFromEntries builds a Map value from raw (key Value, val Value)
// pairs decoded off the wire, validating every key has tag String
// (spec §3 invariant, §8 Testable property 6: map(entries) with any
// non-String key yields Null + InvalidMapKeyType).
func NewMapFromEntries(rawKeys []Value, vals []Value) (Value, error) {
	if len(rawKeys) != len(vals) {
		return Null(), bolterr.ProtocolErrorf("map key/value count mismatch: %d keys, %d values", len(rawKeys), len(vals))
	}
	pairs := make([]MapEntry, len(rawKeys))
	for i, k := range rawKeys {
		if k.Kind() != KindString {
			return Null(), bolterr.New(bolterr.InvalidMapKeyType, "map key %d has tag %d, want String", i, k.Kind())
		}
		pairs[i] = MapEntry{Key: k.AsString(), Val: vals[i]}
	}
	return Map(pairs), nil
}

// AsMap returns v's payload if v is Map, else nil.
func (v Value) AsMap() []MapEntry {
	if v.kind == KindMap {
		return v.pairs
	}
	return nil
}

// MapGet looks up key in a Map value by linear scan (Bolt maps are
// small; this mirrors how the wire form is walked during decode).
func (v Value) MapGet(key string) (Value, bool) {
	if v.kind != KindMap {
		return Null(), false
	}
	for _, e := range v.pairs {
		if e.Key == key {
			return e.Val, true
		}
	}
	return Null(), false
}

// StructOf wraps s as the generic Struct variant (unrecognized
// signature, dispatched to this fallback by the PackStream decoder).
func StructOf(s *Struct) Value { return Value{kind: KindStruct, strct: s} }

// AsStruct returns v's payload if v is Struct, else nil.
func (v Value) AsStruct() *Struct {
	if v.kind == KindStruct {
		return v.strct
	}
	return nil
}

// NodeValue wraps n as a Node-tagged Value.
func NodeValue(n *Node) Value { return Value{kind: KindNode, node: n} }

// AsNode returns v's payload if v is Node, else nil.
func (v Value) AsNode() *Node {
	if v.kind == KindNode {
		return v.node
	}
	return nil
}

// RelationshipValue wraps r as a Relationship-tagged Value.
func RelationshipValue(r *Relationship) Value { return Value{kind: KindRelationship, rel: r} }

// AsRelationship returns v's payload if v is Relationship, else nil.
func (v Value) AsRelationship() *Relationship {
	if v.kind == KindRelationship {
		return v.rel
	}
	return nil
}

// UnboundRelationshipValue wraps r as an UnboundRelationship-tagged Value.
func UnboundRelationshipValue(r *UnboundRelationship) Value {
	return Value{kind: KindUnboundRelationship, unboundRel: r}
}

// AsUnboundRelationship returns v's payload if v is UnboundRelationship, else nil.
func (v Value) AsUnboundRelationship() *UnboundRelationship {
	if v.kind == KindUnboundRelationship {
		return v.unboundRel
	}
	return nil
}

// PathValue wraps p as a Path-tagged Value.
func PathValue(p *Path) Value { return Value{kind: KindPath, path: p} }

// AsPath returns v's payload if v is Path, else nil.
func (v Value) AsPath() *Path {
	if v.kind == KindPath {
		return v.path
	}
	return nil
}

// PointValue wraps p as a Point-tagged Value.
func PointValue(p *Point) Value { return Value{kind: KindPoint, point: p} }

// AsPoint returns v's payload if v is Point, else nil.
func (v Value) AsPoint() *Point {
	if v.kind == KindPoint {
		return v.point
	}
	return nil
}

// DateTimeValue wraps dt as a Value of the given date/time Kind
// (LocalDateTime, OffsetDateTime, ZonedDateTime, LocalDate, LocalTime,
// or OffsetTime — the caller selects which via k).
func DateTimeValue(k Kind, dt *DateTime) Value { return Value{kind: k, dt: dt} }

// AsDateTime returns v's payload if v's Kind is one of the six
// date/time variants, else nil.
func (v Value) AsDateTime() *DateTime {
	switch v.kind {
	case KindLocalDateTime, KindOffsetDateTime, KindZonedDateTime, KindLocalDate, KindLocalTime, KindOffsetTime:
		return v.dt
	}
	return nil
}

// DurationValue wraps d as a Duration-tagged Value.
func DurationValue(d *Duration) Value { return Value{kind: KindDuration, dur: d} }

// AsDuration returns v's payload if v is Duration, else nil.
func (v Value) AsDuration() *Duration {
	if v.kind == KindDuration {
		return v.dur
	}
	return nil
}

// Equal implements the structural equality rules of the data model:
// same tag required, Float compares by IEEE bit pattern (NaN != NaN),
// composite types compare element/field-wise, cross-type comparisons
// are always false.
func Equal(a, b Value) bool {
	if a.kind != b.kind {
		return false
	}
	switch a.kind {
	case KindNull:
		return true
	case KindBool:
		return a.b == b.b
	case KindInt:
		return a.i == b.i
	case KindFloat:
		return math.Float64bits(a.f) == math.Float64bits(b.f)
	case KindString:
		return a.s == b.s
	case KindBytes:
		return bytesEqual(a.bytes, b.bytes)
	case KindIdentity:
		return a.ident == b.ident
	case KindList:
		return listEqual(a.list, b.list)
	case KindMap:
		return mapEqual(a.pairs, b.pairs)
	case KindNode:
		return nodeEqual(a.node, b.node)
	case KindRelationship:
		return relEqual(a.rel, b.rel)
	case KindUnboundRelationship:
		return unboundRelEqual(a.unboundRel, b.unboundRel)
	case KindPath:
		return pathEqual(a.path, b.path)
	case KindStruct:
		return structEqual(a.strct, b.strct)
	case KindPoint:
		return pointEqual(a.point, b.point)
	case KindLocalDateTime, KindOffsetDateTime, KindZonedDateTime, KindLocalDate, KindLocalTime, KindOffsetTime:
		return dateTimeEqual(a.dt, b.dt)
	case KindDuration:
		return durationEqual(a.dur, b.dur)
	}
	return false
}

func bytesEqual(a, b []byte) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func listEqual(a, b []Value) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !Equal(a[i], b[i]) {
			return false
		}
	}
	return true
}

func mapEqual(a, b []MapEntry) bool {
	if len(a) != len(b) {
		return false
	}
	for _, ea := range a {
		found := false
		for _, eb := range b {
			if ea.Key == eb.Key {
				if !Equal(ea.Val, eb.Val) {
					return false
				}
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}
