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

package boltvalue

import "github.com/go-bolt/boltcore/bolterr"

// Signature bytes for the PackStream structs recognized as typed
// Bolt values (spec §3/§4.3).
const (
	SigNode                = 0x4E
	SigRelationship        = 0x52
	SigUnboundRelationship = 0x72
	SigPath                = 0x50
	SigPoint2D             = 0x58
	SigPoint3D             = 0x59
	SigLocalDate           = 0x44
	SigLocalTime           = 0x74
	SigLocalDateTime       = 0x64
	SigOffsetDateTime      = 0x46
	SigZonedDateTime       = 0x66
	SigOffsetTime          = 0x54
	SigDuration            = 0x45
)

// Node is the 3-field struct (signature 0x4E): Int identity, List of
// String labels, Map of properties.
type Node struct {
	Identity   int64
	Labels     []string
	Properties []MapEntry
}

// NewNode constructs a Node without any validation. Labels are already
// []string here because InvalidLabelType is only reachable from the
// wire decoder, which builds a Node from raw Values and validates their
// tags — see NewNodeFromValues.
func NewNode(identity int64, labels []string, properties []MapEntry) *Node {
	return &Node{Identity: identity, Labels: labels, Properties: properties}
}

// NewNodeFromValues constructs a Node from a raw label list decoded
// off the wire, validating that every label is a String value
// (spec §3, Testable property 7 sibling for nodes).
func NewNodeFromValues(identity int64, rawLabels []Value, properties []MapEntry) (*Node, error) {
	labels := make([]string, len(rawLabels))
	for i, l := range rawLabels {
		if l.Kind() != KindString {
			return nil, bolterr.New(bolterr.InvalidLabelType, "label %d has tag %d, want String", i, l.Kind())
		}
		labels[i] = l.AsString()
	}
	return &Node{Identity: identity, Labels: labels, Properties: properties}, nil
}

func nodeEqual(a, b *Node) bool {
	if a == nil || b == nil {
		return a == b
	}
	if a.Identity != b.Identity || len(a.Labels) != len(b.Labels) {
		return false
	}
	for i := range a.Labels {
		if a.Labels[i] != b.Labels[i] {
			return false
		}
	}
	return mapEqual(a.Properties, b.Properties)
}

// Relationship is the 5-field struct (signature 0x52): Int identity,
// Int start-id, Int end-id, String type, Map of properties.
type Relationship struct {
	Identity   int64
	StartID    int64
	EndID      int64
	Type       string
	Properties []MapEntry
}

func NewRelationship(identity, startID, endID int64, typ string, properties []MapEntry) *Relationship {
	return &Relationship{Identity: identity, StartID: startID, EndID: endID, Type: typ, Properties: properties}
}

func relEqual(a, b *Relationship) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.Identity == b.Identity && a.StartID == b.StartID && a.EndID == b.EndID &&
		a.Type == b.Type && mapEqual(a.Properties, b.Properties)
}

// UnboundRelationship is the 3-field struct (signature 0x72): Int
// identity, String type, Map of properties — a Relationship without
// its endpoints, as seen embedded in a Path.
type UnboundRelationship struct {
	Identity   int64
	Type       string
	Properties []MapEntry
}

func NewUnboundRelationship(identity int64, typ string, properties []MapEntry) *UnboundRelationship {
	return &UnboundRelationship{Identity: identity, Type: typ, Properties: properties}
}

func unboundRelEqual(a, b *UnboundRelationship) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.Identity == b.Identity && a.Type == b.Type && mapEqual(a.Properties, b.Properties)
}

// Bind attaches start/end node identities to an UnboundRelationship,
// producing the full Relationship a Path segment represents.
func (u *UnboundRelationship) Bind(startID, endID int64) *Relationship {
	return &Relationship{
		Identity:   u.Identity,
		StartID:    startID,
		EndID:      endID,
		Type:       u.Type,
		Properties: u.Properties,
	}
}

// Path is the 3-field struct (signature 0x50): List<Node> nodes,
// List<UnboundRelationship> rels, List<Int> sequence. Sequence pairs
// are (relIdx, nodeIdx): relIdx in [-N_rels, N_rels]\{0} (sign gives
// traversal direction, magnitude is a 1-based index into rels),
// nodeIdx in [0, N_nodes).
type Path struct {
	Nodes    []*Node
	Rels     []*UnboundRelationship
	Sequence []int64
}

// NewPath validates the sequence per spec §3/§8 property 7: even
// length, relIdx in [-N,N]\{0}, nodeIdx in [0,N_nodes).
func NewPath(nodes []*Node, rels []*UnboundRelationship, sequence []int64) (*Path, error) {
	if len(sequence)%2 != 0 {
		return nil, bolterr.New(bolterr.InvalidPathSequenceLength, "sequence length %d is odd", len(sequence))
	}
	nRels := int64(len(rels))
	nNodes := int64(len(nodes))
	for i := 0; i < len(sequence); i += 2 {
		relIdx := sequence[i]
		nodeIdx := sequence[i+1]
		if relIdx == 0 || relIdx < -nRels || relIdx > nRels {
			return nil, bolterr.New(bolterr.InvalidPathSequenceIdxRange, "relationship index %d out of range for %d relationships", relIdx, nRels)
		}
		if nodeIdx < 0 || nodeIdx >= nNodes {
			return nil, bolterr.New(bolterr.InvalidPathSequenceIdxRange, "node index %d out of range for %d nodes", nodeIdx, nNodes)
		}
	}
	return &Path{Nodes: nodes, Rels: rels, Sequence: sequence}, nil
}

func pathEqual(a, b *Path) bool {
	if a == nil || b == nil {
		return a == b
	}
	if len(a.Nodes) != len(b.Nodes) || len(a.Rels) != len(b.Rels) || len(a.Sequence) != len(b.Sequence) {
		return false
	}
	for i := range a.Nodes {
		if !nodeEqual(a.Nodes[i], b.Nodes[i]) {
			return false
		}
	}
	for i := range a.Rels {
		if !unboundRelEqual(a.Rels[i], b.Rels[i]) {
			return false
		}
	}
	for i := range a.Sequence {
		if a.Sequence[i] != b.Sequence[i] {
			return false
		}
	}
	return true
}

// Segments walks the path's flattened node/rel/sequence encoding into
// (startNode, relationship-in-traversal-direction, endNode) triples.
func (p *Path) Segments() []Segment {
	segs := make([]Segment, 0, len(p.Sequence)/2)
	cur := p.Nodes[0]
	for i := 0; i < len(p.Sequence); i += 2 {
		relIdx := p.Sequence[i]
		nodeIdx := p.Sequence[i+1]
		next := p.Nodes[nodeIdx]
		var rel *UnboundRelationship
		forward := relIdx > 0
		if forward {
			rel = p.Rels[relIdx-1]
		} else {
			rel = p.Rels[-relIdx-1]
		}
		seg := Segment{Rel: rel, Forward: forward}
		if forward {
			seg.Start, seg.End = cur, next
		} else {
			seg.Start, seg.End = next, cur
		}
		segs = append(segs, seg)
		cur = next
	}
	return segs
}

// Segment is one hop of a Path, resolved to concrete start/end nodes
// and traversal direction.
type Segment struct {
	Start   *Node
	Rel     *UnboundRelationship
	End     *Node
	Forward bool
}

// Struct is the generic fallback for a PackStream struct whose
// signature is not one of the recognized typed forms.
type Struct struct {
	Signature byte
	Fields    []Value
}

func NewStruct(sig byte, fields []Value) *Struct {
	return &Struct{Signature: sig, Fields: fields}
}

func structEqual(a, b *Struct) bool {
	if a == nil || b == nil {
		return a == b
	}
	if a.Signature != b.Signature || len(a.Fields) != len(b.Fields) {
		return false
	}
	for i := range a.Fields {
		if !Equal(a.Fields[i], b.Fields[i]) {
			return false
		}
	}
	return true
}
