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

package logcontroller

import "github.com/nanolog/nanolog/dispatch"

// Sink receives the rendered text for every message it's interested
// in. Write is called from the LogController's drain loop, never from
// the Log() call path itself.
type Sink interface {
	// Interested reports whether the sink wants messages at level at
	// all; the controller only bothers retrieving/formatting the
	// payload if at least one registered sink returns true.
	Interested(level dispatch.Level) bool
	Write(msg dispatch.LogMessage, line string)
}

// sinkInterestMask computes the OR of each sink's interest across the
// fixed level range into one bitmap, checked once per Log() call
// instead of walking the sink list every time.
func sinkInterestMask(sinks []Sink) uint64 {
	var mask uint64
	for lvl := dispatch.LevelVerbose; lvl <= dispatch.LevelFatal; lvl++ {
		for _, s := range sinks {
			if s.Interested(lvl) {
				mask |= 1 << uint(lvl)
				break
			}
		}
	}
	return mask
}
