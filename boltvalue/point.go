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

// Well-known SRIDs, used only to pick the canonical text form (spec §6).
const (
	SRIDCartesian2D   = 7203
	SRIDCartesian3D   = 9157
	SRIDWGS84_2D      = 4326
	SRIDWGS84_3D      = 4979
)

// Point is a 2D or 3D point with a spatial reference id. Storage is
// reused across 2D/3D forms (Z is 0 and unused when Is3D is false) per
// spec §3 ("reused payload storage permitted").
type Point struct {
	SRID uint32
	X, Y, Z float64
	Is3D bool
}

// NewPoint2D constructs a 2D point (PackStream signature 0x58).
func NewPoint2D(srid uint32, x, y float64) *Point {
	return &Point{SRID: srid, X: x, Y: y}
}

// NewPoint3D constructs a 3D point (PackStream signature 0x59).
func NewPoint3D(srid uint32, x, y, z float64) *Point {
	return &Point{SRID: srid, X: x, Y: y, Z: z, Is3D: true}
}

func pointEqual(a, b *Point) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.SRID == b.SRID && a.Is3D == b.Is3D && a.X == b.X && a.Y == b.Y && a.Z == b.Z
}
