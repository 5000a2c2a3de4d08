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

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEqualRequiresSameTag(t *testing.T) {
	assert.False(t, Equal(Int(1), Float(1)))
	assert.False(t, Equal(Null(), Bool(false)))
}

func TestEqualFloatUsesBitPattern(t *testing.T) {
	nan := Float(math.NaN())
	assert.False(t, Equal(nan, nan))
	assert.True(t, Equal(Float(1.5), Float(1.5)))
	assert.False(t, Equal(Float(0.0), Float(math.Copysign(0, -1))))
}

func TestEqualMapIsUnorderedByKey(t *testing.T) {
	a := Map([]MapEntry{{Key: "a", Val: Int(1)}, {Key: "b", Val: Int(2)}})
	b := Map([]MapEntry{{Key: "b", Val: Int(2)}, {Key: "a", Val: Int(1)}})
	assert.True(t, Equal(a, b))
}

func TestEqualListIsOrdered(t *testing.T) {
	a := List([]Value{Int(1), Int(2)})
	b := List([]Value{Int(2), Int(1)})
	assert.False(t, Equal(a, b))
}

func TestNewMapFromEntriesRejectsNonStringKey(t *testing.T) {
	_, err := NewMapFromEntries([]Value{Bool(true)}, []Value{Int(1)})
	require.Error(t, err)
}

func TestNewMapFromEntriesPreservesOrder(t *testing.T) {
	v, err := NewMapFromEntries(
		[]Value{String("b"), String("e"), String("r")},
		[]Value{Int(1), Int(2), Int(3)},
	)
	require.NoError(t, err)
	pairs := v.AsMap()
	require.Len(t, pairs, 3)
	assert.Equal(t, "b", pairs[0].Key)
	assert.Equal(t, "e", pairs[1].Key)
	assert.Equal(t, "r", pairs[2].Key)
}

// S5 from spec §8: Node(id=1, labels=["Journalist"], props={"type":"Gonzo"})
// stringifies to (:Journalist{type:"Gonzo"}).
func TestNodeCanonicalString(t *testing.T) {
	n := NewNode(1, []string{"Journalist"}, []MapEntry{{Key: "type", Val: String("Gonzo")}})
	v := NodeValue(n)
	assert.Equal(t, `(:Journalist{type:"Gonzo"})`, v.String())
}

func TestNodeWithNoPropertiesOmitsBraces(t *testing.T) {
	n := NewNode(1, []string{"X"}, nil)
	assert.Equal(t, "(:X)", NodeValue(n).String())
}

func TestPathValidationRejectsOddSequence(t *testing.T) {
	_, err := NewPath([]*Node{NewNode(0, nil, nil)}, nil, []int64{1})
	require.Error(t, err)
}

func TestPathValidationRejectsZeroRelIdx(t *testing.T) {
	nodes := []*Node{NewNode(0, nil, nil), NewNode(1, nil, nil)}
	rels := []*UnboundRelationship{NewUnboundRelationship(0, "T", nil)}
	_, err := NewPath(nodes, rels, []int64{0, 1})
	require.Error(t, err)
}

func TestPathValidationRejectsOutOfRangeNodeIdx(t *testing.T) {
	nodes := []*Node{NewNode(0, nil, nil)}
	rels := []*UnboundRelationship{NewUnboundRelationship(0, "T", nil)}
	_, err := NewPath(nodes, rels, []int64{1, 5})
	require.Error(t, err)
}

func TestPathStringRendersDirectionalSegments(t *testing.T) {
	nodes := []*Node{NewNode(0, []string{"A"}, nil), NewNode(1, []string{"B"}, nil)}
	rels := []*UnboundRelationship{NewUnboundRelationship(0, "KNOWS", nil)}
	p, err := NewPath(nodes, rels, []int64{1, 1})
	require.NoError(t, err)
	assert.Equal(t, "(:A)-[:KNOWS]->(:B)", PathValue(p).String())
}

func TestPointStringForms(t *testing.T) {
	p2 := NewPoint2D(SRIDWGS84_2D, 12.5, 56.0)
	assert.Equal(t, "point({latitude:56,longitude:12.5})", PointValue(p2).String())

	p3 := NewPoint3D(SRIDCartesian3D, 1, 2, 3)
	assert.Equal(t, "point({x:1,y:2,z:3})", PointValue(p3).String())
}

func TestLocalDateTimeTrimsTrailingZeros(t *testing.T) {
	dt := NewLocalDateTime(0, 500000000)
	v := DateTimeValue(KindLocalDateTime, dt)
	assert.Equal(t, "1970-01-01T00:00:00.5", v.String())
}

func TestOffsetDateTimeAppendsOffset(t *testing.T) {
	dt := NewOffsetDateTime(0, 0, 3600)
	v := DateTimeValue(KindOffsetDateTime, dt)
	assert.Equal(t, "1970-01-01T00:00:00+01:00", v.String())
}
