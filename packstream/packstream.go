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

// Package packstream implements the PackStream binary codec: the
// marker-byte dispatch table of spec §4.3, minimal-width encoding on
// write, and recursive decode of values (including the typed Struct
// forms — Node, Relationship, Path, Point, the date/time variants) off
// a borrowed byte slice backed by a mempool.Pool arena.
package packstream

import "github.com/go-bolt/boltcore/bolterr"

// Marker bytes, per spec §4.3.
const (
	markerTinyIntPosMin = 0x00
	markerTinyIntPosMax = 0x7F
	markerTinyIntNegMin = 0xF0
	markerTinyIntNegMax = 0xFF

	markerTinyStringMin = 0x80
	markerTinyStringMax = 0x8F
	markerTinyListMin   = 0x90
	markerTinyListMax   = 0x9F
	markerTinyMapMin    = 0xA0
	markerTinyMapMax    = 0xAF
	markerTinyStructMin = 0xB0
	markerTinyStructMax = 0xBF

	markerNull    = 0xC0
	markerFloat   = 0xC1
	markerFalse   = 0xC2
	markerTrue    = 0xC3
	markerInt8    = 0xC8
	markerInt16   = 0xC9
	markerInt32   = 0xCA
	markerInt64   = 0xCB

	markerBytes8  = 0xCC
	markerBytes16 = 0xCD
	markerBytes32 = 0xCE

	markerString8  = 0xD0
	markerString16 = 0xD1
	markerString32 = 0xD2

	markerList8  = 0xD4
	markerList16 = 0xD5
	markerList32 = 0xD6

	markerMap8  = 0xD8
	markerMap16 = 0xD9
	markerMap32 = 0xDA

	markerStruct8  = 0xDC
	markerStruct16 = 0xDD
)

// errBufferTooShort mirrors the source's ENOBUFS-style short-read
// signal: the marker promises more bytes than buf holds.
var errBufferTooShort = bolterr.ProtocolErrorf("packstream: buffer too short for marker")

func errUnknownMarker(marker byte) error {
	return bolterr.ProtocolErrorf("packstream: unknown marker 0x%02X", marker)
}
