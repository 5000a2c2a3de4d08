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
	"fmt"
	"io"
	"strconv"
	"strings"
	"unicode"
)

// String renders v in the canonical text form defined by spec §6.
func (v Value) String() string {
	var sb strings.Builder
	writeValue(&sb, v)
	return sb.String()
}

// WriteTo writes v's canonical text form to w and returns the number
// of bytes written, mirroring the source's to_fprint.
func (v Value) WriteTo(w io.Writer) (int64, error) {
	s := v.String()
	n, err := io.WriteString(w, s)
	return int64(n), err
}

func writeValue(sb *strings.Builder, v Value) {
	switch v.kind {
	case KindNull:
		sb.WriteString("null")
	case KindBool:
		if v.b {
			sb.WriteString("true")
		} else {
			sb.WriteString("false")
		}
	case KindInt:
		sb.WriteString(strconv.FormatInt(v.i, 10))
	case KindFloat:
		sb.WriteString(strconv.FormatFloat(v.f, 'f', 6, 64))
	case KindString:
		writeQuotedString(sb, v.s)
	case KindBytes:
		writeHexBytes(sb, v.bytes)
	case KindIdentity:
		sb.WriteString(strconv.FormatInt(v.ident, 10))
	case KindList:
		writeList(sb, v.list)
	case KindMap:
		writeMap(sb, v.pairs)
	case KindNode:
		writeNode(sb, v.node)
	case KindRelationship:
		writeUnboundLike(sb, v.rel.Type, v.rel.Properties)
	case KindUnboundRelationship:
		writeUnboundLike(sb, v.unboundRel.Type, v.unboundRel.Properties)
	case KindPath:
		writePath(sb, v.path)
	case KindStruct:
		writeGenericStruct(sb, v.strct)
	case KindPoint:
		writePoint(sb, v.point)
	case KindLocalDate:
		writeLocalDate(sb, v.dt.EpochDays)
	case KindLocalTime:
		writeNanosOfDay(sb, v.dt.NanosOfDay)
	case KindLocalDateTime:
		writeLocalDateTime(sb, v.dt.EpochSeconds, v.dt.NanosOfSecond)
	case KindOffsetTime:
		writeNanosOfDay(sb, v.dt.NanosOfDay)
		writeOffset(sb, v.dt.OffsetSeconds)
	case KindOffsetDateTime:
		writeLocalDateTime(sb, v.dt.EpochSeconds, v.dt.NanosOfSecond)
		writeOffset(sb, v.dt.OffsetSeconds)
	case KindZonedDateTime:
		writeLocalDateTime(sb, v.dt.EpochSeconds, v.dt.NanosOfSecond)
		sb.WriteByte('[')
		sb.WriteString(v.dt.ZoneID)
		sb.WriteByte(']')
	case KindDuration:
		fmt.Fprintf(sb, "P%dM%dDT%dS%dN", v.dur.Months, v.dur.Days, v.dur.Seconds, v.dur.Nanoseconds)
	default:
		sb.WriteString("?")
	}
}

func writeQuotedString(sb *strings.Builder, s string) {
	sb.WriteByte('"')
	for _, r := range s {
		if r == '"' || r == '\\' {
			sb.WriteByte('\\')
		}
		sb.WriteRune(r)
	}
	sb.WriteByte('"')
}

const hexDigits = "0123456789abcdef"

func writeHexBytes(sb *strings.Builder, b []byte) {
	sb.WriteByte('#')
	for _, c := range b {
		sb.WriteByte(hexDigits[c>>4])
		sb.WriteByte(hexDigits[c&0xF])
	}
}

func writeList(sb *strings.Builder, list []Value) {
	sb.WriteByte('[')
	for i, e := range list {
		if i > 0 {
			sb.WriteByte(',')
		}
		writeValue(sb, e)
	}
	sb.WriteByte(']')
}

func isIdent(s string) bool {
	if s == "" {
		return false
	}
	for i, r := range s {
		if r == '_' || unicode.IsLetter(r) {
			continue
		}
		if i > 0 && unicode.IsDigit(r) {
			continue
		}
		return false
	}
	return true
}

func writeMapKey(sb *strings.Builder, key string) {
	if isIdent(key) {
		sb.WriteString(key)
		return
	}
	sb.WriteByte('`')
	sb.WriteString(key)
	sb.WriteByte('`')
}

func writeMap(sb *strings.Builder, pairs []MapEntry) {
	sb.WriteByte('{')
	for i, e := range pairs {
		if i > 0 {
			sb.WriteByte(',')
		}
		writeMapKey(sb, e.Key)
		sb.WriteByte(':')
		writeValue(sb, e.Val)
	}
	sb.WriteByte('}')
}

func writeProps(sb *strings.Builder, props []MapEntry) {
	if len(props) == 0 {
		return
	}
	writeMap(sb, props)
}

func writeNode(sb *strings.Builder, n *Node) {
	sb.WriteByte('(')
	for _, l := range n.Labels {
		sb.WriteByte(':')
		sb.WriteString(l)
	}
	writeProps(sb, n.Properties)
	sb.WriteByte(')')
}

func writeUnboundLike(sb *strings.Builder, typ string, props []MapEntry) {
	sb.WriteString("-[:")
	sb.WriteString(typ)
	writeProps(sb, props)
	sb.WriteString("]-")
}

func writePath(sb *strings.Builder, p *Path) {
	if len(p.Nodes) == 0 {
		return
	}
	writeNode(sb, p.Nodes[0])
	for _, seg := range p.Segments() {
		if seg.Forward {
			sb.WriteString("-[:")
			sb.WriteString(seg.Rel.Type)
			writeProps(sb, seg.Rel.Properties)
			sb.WriteString("]->")
		} else {
			sb.WriteString("<-[:")
			sb.WriteString(seg.Rel.Type)
			writeProps(sb, seg.Rel.Properties)
			sb.WriteString("]-")
		}
		writeNode(sb, seg.End)
	}
}

func writeGenericStruct(sb *strings.Builder, s *Struct) {
	fmt.Fprintf(sb, "struct<0x%02X>(", s.Signature)
	for i, f := range s.Fields {
		if i > 0 {
			sb.WriteByte(',')
		}
		writeValue(sb, f)
	}
	sb.WriteByte(')')
}

func writePoint(sb *strings.Builder, p *Point) {
	sb.WriteString("point({")
	switch p.SRID {
	case SRIDWGS84_2D:
		fmt.Fprintf(sb, "latitude:%s,longitude:%s", trimFloat(p.Y), trimFloat(p.X))
	case SRIDWGS84_3D:
		fmt.Fprintf(sb, "latitude:%s,longitude:%s,height:%s", trimFloat(p.Y), trimFloat(p.X), trimFloat(p.Z))
	case SRIDCartesian2D:
		fmt.Fprintf(sb, "x:%s,y:%s", trimFloat(p.X), trimFloat(p.Y))
	case SRIDCartesian3D:
		fmt.Fprintf(sb, "x:%s,y:%s,z:%s", trimFloat(p.X), trimFloat(p.Y), trimFloat(p.Z))
	default:
		if p.Is3D {
			fmt.Fprintf(sb, "x:%s,y:%s,z:%s,srid:%d", trimFloat(p.X), trimFloat(p.Y), trimFloat(p.Z), p.SRID)
		} else {
			fmt.Fprintf(sb, "x:%s,y:%s,srid:%d", trimFloat(p.X), trimFloat(p.Y), p.SRID)
		}
	}
	sb.WriteString("})")
}

func trimFloat(f float64) string {
	return strconv.FormatFloat(f, 'g', -1, 64)
}

const secondsPerDay = 24 * 60 * 60

func writeLocalDate(sb *strings.Builder, epochDays int64) {
	y, m, d := civilFromDays(epochDays)
	fmt.Fprintf(sb, "%04d-%02d-%02d", y, m, d)
}

func writeNanosOfDay(sb *strings.Builder, nanosOfDay int64) {
	secs := nanosOfDay / 1e9
	nanos := int32(nanosOfDay % 1e9)
	h := secs / 3600
	m := (secs % 3600) / 60
	s := secs % 60
	fmt.Fprintf(sb, "%02d:%02d:%02d", h, m, s)
	writeTrimmedNanos(sb, nanos)
}

func writeLocalDateTime(sb *strings.Builder, epochSeconds int64, nanos int32) {
	days := epochSeconds / secondsPerDay
	secOfDay := epochSeconds % secondsPerDay
	if secOfDay < 0 {
		secOfDay += secondsPerDay
		days--
	}
	y, mo, d := civilFromDays(days)
	h := secOfDay / 3600
	mi := (secOfDay % 3600) / 60
	s := secOfDay % 60
	fmt.Fprintf(sb, "%04d-%02d-%02dT%02d:%02d:%02d", y, mo, d, h, mi, s)
	writeTrimmedNanos(sb, nanos)
}

func writeTrimmedNanos(sb *strings.Builder, nanos int32) {
	if nanos == 0 {
		return
	}
	digits := fmt.Sprintf("%09d", nanos)
	for len(digits) > 0 && digits[len(digits)-1] == '0' {
		digits = digits[:len(digits)-1]
	}
	sb.WriteByte('.')
	sb.WriteString(digits)
}

func writeOffset(sb *strings.Builder, offsetSeconds int32) {
	sign := byte('+')
	o := offsetSeconds
	if o < 0 {
		sign = '-'
		o = -o
	}
	h := o / 3600
	m := (o % 3600) / 60
	s := o % 60
	sb.WriteByte(sign)
	fmt.Fprintf(sb, "%02d:%02d", h, m)
	if s != 0 {
		fmt.Fprintf(sb, ":%02d", s)
	}
}

// civilFromDays converts a day count since 1970-01-01 into a
// proleptic Gregorian (year, month, day), via Howard Hinnant's
// civil_from_days algorithm.
func civilFromDays(z int64) (year int64, month, day int) {
	z += 719468
	era := z
	if z < 0 {
		era -= 146096
	}
	era /= 146097
	doe := z - era*146097
	yoe := (doe - doe/1460 + doe/36524 - doe/146096) / 365
	y := yoe + era*400
	doy := doe - (365*yoe + yoe/4 - yoe/100)
	mp := (5*doy + 2) / 153
	d := doy - (153*mp+2)/5 + 1
	m := mp + 3
	if m > 12 {
		m -= 12
	}
	if m <= 2 {
		y++
	}
	return y, int(m), int(d)
}
