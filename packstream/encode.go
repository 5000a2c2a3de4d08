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
	"math"

	"github.com/go-bolt/boltcore/boltvalue"
)

// AppendValue serializes v onto buf, choosing the smallest marker
// family that represents it (spec §8 Testable property 2), and
// returns the extended slice.
func AppendValue(buf []byte, v boltvalue.Value) []byte {
	switch v.Kind() {
	case boltvalue.KindNull:
		return append(buf, markerNull)
	case boltvalue.KindBool:
		if v.AsBool() {
			return append(buf, markerTrue)
		}
		return append(buf, markerFalse)
	case boltvalue.KindInt, boltvalue.KindIdentity:
		n := v.AsInt()
		if v.Kind() == boltvalue.KindIdentity {
			n = v.AsIdentity()
		}
		return AppendInt(buf, n)
	case boltvalue.KindFloat:
		return AppendFloat(buf, v.AsFloat())
	case boltvalue.KindString:
		return AppendString(buf, v.AsString())
	case boltvalue.KindBytes:
		return AppendBytes(buf, v.AsBytes())
	case boltvalue.KindList:
		return appendList(buf, v.AsList())
	case boltvalue.KindMap:
		return appendMap(buf, v.AsMap())
	case boltvalue.KindNode:
		return appendNode(buf, v.AsNode())
	case boltvalue.KindRelationship:
		return appendRelationship(buf, v.AsRelationship())
	case boltvalue.KindUnboundRelationship:
		return appendUnboundRelationship(buf, v.AsUnboundRelationship())
	case boltvalue.KindPath:
		return appendPath(buf, v.AsPath())
	case boltvalue.KindStruct:
		s := v.AsStruct()
		return appendStructHeader(buf, s.Signature, len(s.Fields), func(buf []byte) []byte {
			for _, f := range s.Fields {
				buf = AppendValue(buf, f)
			}
			return buf
		})
	case boltvalue.KindPoint:
		return appendPoint(buf, v.AsPoint())
	case boltvalue.KindLocalDate:
		return appendLocalDate(buf, v.AsDateTime())
	case boltvalue.KindLocalTime:
		return appendLocalTime(buf, v.AsDateTime())
	case boltvalue.KindLocalDateTime:
		return appendLocalDateTime(buf, v.AsDateTime())
	case boltvalue.KindOffsetTime:
		return appendOffsetTime(buf, v.AsDateTime())
	case boltvalue.KindOffsetDateTime:
		return appendOffsetDateTime(buf, v.AsDateTime())
	case boltvalue.KindZonedDateTime:
		return appendZonedDateTime(buf, v.AsDateTime())
	case boltvalue.KindDuration:
		return appendDuration(buf, v.AsDuration())
	}
	return append(buf, markerNull)
}

// AppendInt writes n using the narrowest marker that represents it.
func AppendInt(buf []byte, n int64) []byte {
	switch {
	case n >= -16 && n <= 127:
		return append(buf, byte(int8(n)))
	case n >= math.MinInt8 && n <= math.MaxInt8:
		return append(buf, markerInt8, byte(int8(n)))
	case n >= math.MinInt16 && n <= math.MaxInt16:
		return appendUint16(append(buf, markerInt16), uint16(int16(n)))
	case n >= math.MinInt32 && n <= math.MaxInt32:
		return appendUint32(append(buf, markerInt32), uint32(int32(n)))
	default:
		return appendUint64(append(buf, markerInt64), uint64(n))
	}
}

// AppendFloat writes f as the fixed 8-byte IEEE-754 big-endian form;
// there is no narrower encoding for Float (spec §4.3).
func AppendFloat(buf []byte, f float64) []byte {
	return appendUint64(append(buf, markerFloat), math.Float64bits(f))
}

// AppendString writes s with the narrowest length-prefixed marker.
func AppendString(buf []byte, s string) []byte {
	n := len(s)
	switch {
	case n <= 15:
		return append(append(buf, byte(markerTinyStringMin|n)), s...)
	case n <= math.MaxUint8:
		return append(append(buf, markerString8, byte(n)), s...)
	case n <= math.MaxUint16:
		return append(appendUint16(append(buf, markerString16), uint16(n)), s...)
	default:
		return append(appendUint32(append(buf, markerString32), uint32(n)), s...)
	}
}

// AppendBytes writes b with the narrowest length-prefixed marker.
func AppendBytes(buf []byte, b []byte) []byte {
	n := len(b)
	switch {
	case n <= math.MaxUint8:
		return append(append(buf, markerBytes8, byte(n)), b...)
	case n <= math.MaxUint16:
		return append(appendUint16(append(buf, markerBytes16), uint16(n)), b...)
	default:
		return append(appendUint32(append(buf, markerBytes32), uint32(n)), b...)
	}
}

func appendListHeader(buf []byte, n int) []byte {
	switch {
	case n <= 15:
		return append(buf, byte(markerTinyListMin|n))
	case n <= math.MaxUint8:
		return append(buf, markerList8, byte(n))
	case n <= math.MaxUint16:
		return appendUint16(append(buf, markerList16), uint16(n))
	default:
		return appendUint32(append(buf, markerList32), uint32(n))
	}
}

func appendList(buf []byte, list []boltvalue.Value) []byte {
	buf = appendListHeader(buf, len(list))
	for _, e := range list {
		buf = AppendValue(buf, e)
	}
	return buf
}

func appendMapHeader(buf []byte, n int) []byte {
	switch {
	case n <= 15:
		return append(buf, byte(markerTinyMapMin|n))
	case n <= math.MaxUint8:
		return append(buf, markerMap8, byte(n))
	case n <= math.MaxUint16:
		return appendUint16(append(buf, markerMap16), uint16(n))
	default:
		return appendUint32(append(buf, markerMap32), uint32(n))
	}
}

func appendMap(buf []byte, pairs []boltvalue.MapEntry) []byte {
	buf = appendMapHeader(buf, len(pairs))
	for _, e := range pairs {
		buf = AppendString(buf, e.Key)
		buf = AppendValue(buf, e.Val)
	}
	return buf
}

// appendStructHeader writes the narrowest struct marker plus the
// signature byte, then calls fields to append the field values.
func appendStructHeader(buf []byte, sig byte, n int, fields func([]byte) []byte) []byte {
	switch {
	case n <= 15:
		buf = append(buf, byte(markerTinyStructMin|n), sig)
	case n <= math.MaxUint8:
		buf = append(buf, markerStruct8, byte(n), sig)
	default:
		buf = appendUint16(append(buf, markerStruct16), uint16(n))
		buf = append(buf, sig)
	}
	return fields(buf)
}

func appendNode(buf []byte, n *boltvalue.Node) []byte {
	return appendStructHeader(buf, boltvalue.SigNode, 3, func(buf []byte) []byte {
		buf = AppendInt(buf, n.Identity)
		buf = appendListHeader(buf, len(n.Labels))
		for _, l := range n.Labels {
			buf = AppendString(buf, l)
		}
		return appendMap(buf, n.Properties)
	})
}

func appendRelationship(buf []byte, r *boltvalue.Relationship) []byte {
	return appendStructHeader(buf, boltvalue.SigRelationship, 5, func(buf []byte) []byte {
		buf = AppendInt(buf, r.Identity)
		buf = AppendInt(buf, r.StartID)
		buf = AppendInt(buf, r.EndID)
		buf = AppendString(buf, r.Type)
		return appendMap(buf, r.Properties)
	})
}

func appendUnboundRelationship(buf []byte, r *boltvalue.UnboundRelationship) []byte {
	return appendStructHeader(buf, boltvalue.SigUnboundRelationship, 3, func(buf []byte) []byte {
		buf = AppendInt(buf, r.Identity)
		buf = AppendString(buf, r.Type)
		return appendMap(buf, r.Properties)
	})
}

func appendPath(buf []byte, p *boltvalue.Path) []byte {
	return appendStructHeader(buf, boltvalue.SigPath, 3, func(buf []byte) []byte {
		buf = appendListHeader(buf, len(p.Nodes))
		for _, n := range p.Nodes {
			buf = appendNode(buf, n)
		}
		buf = appendListHeader(buf, len(p.Rels))
		for _, r := range p.Rels {
			buf = appendUnboundRelationship(buf, r)
		}
		buf = appendListHeader(buf, len(p.Sequence))
		for _, s := range p.Sequence {
			buf = AppendInt(buf, s)
		}
		return buf
	})
}

func appendPoint(buf []byte, p *boltvalue.Point) []byte {
	if p.Is3D {
		return appendStructHeader(buf, boltvalue.SigPoint3D, 4, func(buf []byte) []byte {
			buf = AppendInt(buf, int64(p.SRID))
			buf = AppendFloat(buf, p.X)
			buf = AppendFloat(buf, p.Y)
			return AppendFloat(buf, p.Z)
		})
	}
	return appendStructHeader(buf, boltvalue.SigPoint2D, 3, func(buf []byte) []byte {
		buf = AppendInt(buf, int64(p.SRID))
		buf = AppendFloat(buf, p.X)
		return AppendFloat(buf, p.Y)
	})
}

func appendLocalDate(buf []byte, dt *boltvalue.DateTime) []byte {
	return appendStructHeader(buf, boltvalue.SigLocalDate, 1, func(buf []byte) []byte {
		return AppendInt(buf, dt.EpochDays)
	})
}

func appendLocalTime(buf []byte, dt *boltvalue.DateTime) []byte {
	return appendStructHeader(buf, boltvalue.SigLocalTime, 1, func(buf []byte) []byte {
		return AppendInt(buf, dt.NanosOfDay)
	})
}

func appendLocalDateTime(buf []byte, dt *boltvalue.DateTime) []byte {
	return appendStructHeader(buf, boltvalue.SigLocalDateTime, 2, func(buf []byte) []byte {
		buf = AppendInt(buf, dt.EpochSeconds)
		return AppendInt(buf, int64(dt.NanosOfSecond))
	})
}

func appendOffsetTime(buf []byte, dt *boltvalue.DateTime) []byte {
	return appendStructHeader(buf, boltvalue.SigOffsetTime, 2, func(buf []byte) []byte {
		buf = AppendInt(buf, dt.NanosOfDay)
		return AppendInt(buf, int64(dt.OffsetSeconds))
	})
}

func appendOffsetDateTime(buf []byte, dt *boltvalue.DateTime) []byte {
	return appendStructHeader(buf, boltvalue.SigOffsetDateTime, 3, func(buf []byte) []byte {
		buf = AppendInt(buf, dt.EpochSeconds)
		buf = AppendInt(buf, int64(dt.NanosOfSecond))
		return AppendInt(buf, int64(dt.OffsetSeconds))
	})
}

func appendZonedDateTime(buf []byte, dt *boltvalue.DateTime) []byte {
	return appendStructHeader(buf, boltvalue.SigZonedDateTime, 3, func(buf []byte) []byte {
		buf = AppendInt(buf, dt.EpochSeconds)
		buf = AppendInt(buf, int64(dt.NanosOfSecond))
		return AppendString(buf, dt.ZoneID)
	})
}

func appendDuration(buf []byte, d *boltvalue.Duration) []byte {
	return appendStructHeader(buf, boltvalue.SigDuration, 4, func(buf []byte) []byte {
		buf = AppendInt(buf, d.Months)
		buf = AppendInt(buf, d.Days)
		buf = AppendInt(buf, d.Seconds)
		return AppendInt(buf, int64(d.Nanoseconds))
	})
}

func appendUint16(buf []byte, v uint16) []byte {
	return append(buf, byte(v>>8), byte(v))
}

func appendUint32(buf []byte, v uint32) []byte {
	return append(buf, byte(v>>24), byte(v>>16), byte(v>>8), byte(v))
}

func appendUint64(buf []byte, v uint64) []byte {
	return append(buf, byte(v>>56), byte(v>>48), byte(v>>40), byte(v>>32),
		byte(v>>24), byte(v>>16), byte(v>>8), byte(v))
}
