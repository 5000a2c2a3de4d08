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

package packstream

import (
	"github.com/go-bolt/boltcore/bolterr"
	"github.com/go-bolt/boltcore/boltvalue"
)

// buildTypedStruct dispatches on sig (spec §4.3's "second table"): a
// recognized signature with the right field count is built into its
// strongly-typed Value; anything else — unknown signature, or a
// recognized one with a mismatched field count — falls back to the
// generic Struct value.
func buildTypedStruct(sig byte, fields []boltvalue.Value) (boltvalue.Value, error) {
	switch sig {
	case boltvalue.SigNode:
		if len(fields) != 3 {
			break
		}
		return buildNode(fields)
	case boltvalue.SigRelationship:
		if len(fields) != 5 {
			break
		}
		return buildRelationship(fields)
	case boltvalue.SigUnboundRelationship:
		if len(fields) != 3 {
			break
		}
		return buildUnboundRelationship(fields)
	case boltvalue.SigPath:
		if len(fields) != 3 {
			break
		}
		return buildPath(fields)
	case boltvalue.SigPoint2D:
		if len(fields) != 3 {
			break
		}
		return boltvalue.PointValue(boltvalue.NewPoint2D(uint32(fields[0].AsInt()), fields[1].AsFloat(), fields[2].AsFloat())), nil
	case boltvalue.SigPoint3D:
		if len(fields) != 4 {
			break
		}
		return boltvalue.PointValue(boltvalue.NewPoint3D(uint32(fields[0].AsInt()), fields[1].AsFloat(), fields[2].AsFloat(), fields[3].AsFloat())), nil
	case boltvalue.SigLocalDate:
		if len(fields) != 1 {
			break
		}
		return boltvalue.DateTimeValue(boltvalue.KindLocalDate, boltvalue.NewLocalDate(fields[0].AsInt())), nil
	case boltvalue.SigLocalTime:
		if len(fields) != 1 {
			break
		}
		return boltvalue.DateTimeValue(boltvalue.KindLocalTime, boltvalue.NewLocalTime(fields[0].AsInt())), nil
	case boltvalue.SigLocalDateTime:
		if len(fields) != 2 {
			break
		}
		return boltvalue.DateTimeValue(boltvalue.KindLocalDateTime, boltvalue.NewLocalDateTime(fields[0].AsInt(), int32(fields[1].AsInt()))), nil
	case boltvalue.SigOffsetTime:
		if len(fields) != 2 {
			break
		}
		return boltvalue.DateTimeValue(boltvalue.KindOffsetTime, boltvalue.NewOffsetTime(fields[0].AsInt(), int32(fields[1].AsInt()))), nil
	case boltvalue.SigOffsetDateTime:
		if len(fields) != 3 {
			break
		}
		return boltvalue.DateTimeValue(boltvalue.KindOffsetDateTime, boltvalue.NewOffsetDateTime(fields[0].AsInt(), int32(fields[1].AsInt()), int32(fields[2].AsInt()))), nil
	case boltvalue.SigZonedDateTime:
		if len(fields) != 3 {
			break
		}
		return boltvalue.DateTimeValue(boltvalue.KindZonedDateTime, boltvalue.NewZonedDateTime(fields[0].AsInt(), int32(fields[1].AsInt()), fields[2].AsString())), nil
	case boltvalue.SigDuration:
		if len(fields) != 4 {
			break
		}
		return boltvalue.DurationValue(boltvalue.NewDuration(fields[0].AsInt(), fields[1].AsInt(), fields[2].AsInt(), int32(fields[3].AsInt()))), nil
	}
	return boltvalue.StructOf(boltvalue.NewStruct(sig, fields)), nil
}

func buildNode(fields []boltvalue.Value) (boltvalue.Value, error) {
	identity := fields[0].AsInt()
	rawLabels := fields[1].AsList()
	props := fields[2].AsMap()
	n, err := boltvalue.NewNodeFromValues(identity, rawLabels, props)
	if err != nil {
		return boltvalue.Null(), err
	}
	return boltvalue.NodeValue(n), nil
}

func buildRelationship(fields []boltvalue.Value) (boltvalue.Value, error) {
	r := boltvalue.NewRelationship(fields[0].AsInt(), fields[1].AsInt(), fields[2].AsInt(), fields[3].AsString(), fields[4].AsMap())
	return boltvalue.RelationshipValue(r), nil
}

func buildUnboundRelationship(fields []boltvalue.Value) (boltvalue.Value, error) {
	r := boltvalue.NewUnboundRelationship(fields[0].AsInt(), fields[1].AsString(), fields[2].AsMap())
	return boltvalue.UnboundRelationshipValue(r), nil
}

// buildPath validates the sequence-adjacent element tags (spec §8
// property 7's sibling for the wire decoder: an InvalidPathNodeType /
// InvalidPathRelationshipType / InvalidPathSequenceIdxType each name a
// tag mismatch that NewPath's index-range checks cannot see, since
// that constructor receives already-typed *Node/*UnboundRelationship
// slices).
func buildPath(fields []boltvalue.Value) (boltvalue.Value, error) {
	rawNodes := fields[0].AsList()
	rawRels := fields[1].AsList()
	rawSeq := fields[2].AsList()

	nodes := make([]*boltvalue.Node, len(rawNodes))
	for i, v := range rawNodes {
		n := v.AsNode()
		if v.Kind() != boltvalue.KindNode || n == nil {
			return boltvalue.Null(), bolterr.New(bolterr.InvalidPathNodeType, "path node %d has tag %d, want Node", i, v.Kind())
		}
		nodes[i] = n
	}
	rels := make([]*boltvalue.UnboundRelationship, len(rawRels))
	for i, v := range rawRels {
		r := v.AsUnboundRelationship()
		if v.Kind() != boltvalue.KindUnboundRelationship || r == nil {
			return boltvalue.Null(), bolterr.New(bolterr.InvalidPathRelationshipType, "path relationship %d has tag %d, want UnboundRelationship", i, v.Kind())
		}
		rels[i] = r
	}
	seq := make([]int64, len(rawSeq))
	for i, v := range rawSeq {
		if v.Kind() != boltvalue.KindInt {
			return boltvalue.Null(), bolterr.New(bolterr.InvalidPathSequenceIdxType, "path sequence entry %d has tag %d, want Int", i, v.Kind())
		}
		seq[i] = v.AsInt()
	}

	p, err := boltvalue.NewPath(nodes, rels, seq)
	if err != nil {
		return boltvalue.Null(), err
	}
	return boltvalue.PathValue(p), nil
}
