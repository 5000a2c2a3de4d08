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

// DateTime is the shared payload for the six date/time Kinds. Which
// fields are meaningful depends on the Kind the owning Value carries:
//
//	LocalDate       EpochDays
//	LocalTime       NanosOfDay
//	LocalDateTime   EpochSeconds, NanosOfSecond
//	OffsetTime      NanosOfDay, OffsetSeconds
//	OffsetDateTime  EpochSeconds, NanosOfSecond, OffsetSeconds
//	ZonedDateTime   EpochSeconds, NanosOfSecond, ZoneID
type DateTime struct {
	EpochSeconds  int64
	EpochDays     int64
	NanosOfDay    int64
	NanosOfSecond int32
	OffsetSeconds int32
	ZoneID        string
}

func NewLocalDate(epochDays int64) *DateTime {
	return &DateTime{EpochDays: epochDays}
}

func NewLocalTime(nanosOfDay int64) *DateTime {
	return &DateTime{NanosOfDay: nanosOfDay}
}

func NewLocalDateTime(epochSeconds int64, nanosOfSecond int32) *DateTime {
	return &DateTime{EpochSeconds: epochSeconds, NanosOfSecond: nanosOfSecond}
}

func NewOffsetTime(nanosOfDay int64, offsetSeconds int32) *DateTime {
	return &DateTime{NanosOfDay: nanosOfDay, OffsetSeconds: offsetSeconds}
}

func NewOffsetDateTime(epochSeconds int64, nanosOfSecond, offsetSeconds int32) *DateTime {
	return &DateTime{EpochSeconds: epochSeconds, NanosOfSecond: nanosOfSecond, OffsetSeconds: offsetSeconds}
}

func NewZonedDateTime(epochSeconds int64, nanosOfSecond int32, zoneID string) *DateTime {
	return &DateTime{EpochSeconds: epochSeconds, NanosOfSecond: nanosOfSecond, ZoneID: zoneID}
}

func dateTimeEqual(a, b *DateTime) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

// Duration is the PackStream struct (signature 0x45, 4 fields):
// months, days, seconds, nanoseconds — an expansion over spec.md's
// core type list, grounded on real Bolt traffic (see SPEC_FULL.md §3).
type Duration struct {
	Months      int64
	Days        int64
	Seconds     int64
	Nanoseconds int32
}

func NewDuration(months, days, seconds int64, nanos int32) *Duration {
	return &Duration{Months: months, Days: days, Seconds: seconds, Nanoseconds: nanos}
}

func durationEqual(a, b *Duration) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}
