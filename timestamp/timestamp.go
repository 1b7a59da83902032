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

// Package timestamp provides a 64-bit signed nanosecond count since
// the Unix epoch, with conversions to/from a civil calendar time,
// generalizing gopool's own time.Now().UnixMilli()-captured-as-an-
// integer idiom from a millisecond worker-age counter to a full
// nanosecond log-message timestamp. Reaching for the standard
// library's time package here is the grounded choice, not a fallback:
// none of the retrieved examples wrap time.Time in a third-party
// alternative.
package timestamp

import "time"

// Nanos is the core's wire/in-memory timestamp representation:
// nanoseconds since the Unix epoch (1970-01-01T00:00:00Z), matching
// what time.Time.UnixNano returns.
type Nanos int64

// Min and Max bound the supported timestamp range.
var (
	Min = FromTime(time.Date(1907, time.September, 23, 0, 0, 0, 0, time.UTC))
	Max = FromTime(time.Date(2492, time.April, 10, 0, 0, 0, 0, time.UTC))
)

// Now returns the current instant as Nanos.
func Now() Nanos {
	return FromTime(time.Now())
}

// FromTime converts a civil-calendar time.Time to Nanos.
func FromTime(t time.Time) Nanos {
	return Nanos(t.UnixNano())
}

// Time converts Nanos back to a civil-calendar time.Time (UTC).
func (n Nanos) Time() time.Time {
	return time.Unix(0, int64(n)).UTC()
}

// InRange reports whether n falls within the supported epoch range.
func (n Nanos) InRange() bool {
	return n >= Min && n <= Max
}

// Before reports strict ordering; equal timestamps are neither Before
// nor After each other — consumers that assert timestamps are
// non-decreasing must tolerate equal values.
func (n Nanos) Before(other Nanos) bool {
	return n < other
}
