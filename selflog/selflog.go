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

// Package selflog is the core's own diagnostic channel: a bounded
// in-memory record of the core's internal failures, entirely separate
// from the main dispatch path so a SelfLog failure can never recurse
// into it.
package selflog

import (
	"fmt"
	"log"
	"sync"
	"sync/atomic"

	"github.com/nanolog/nanolog/nanoerr"
)

// Mode controls where SelfLog events go. Mode changes are atomic.
type Mode int32

const (
	Disabled Mode = iota
	InMemory
	InMemoryAndMirrorToHostErrorChannel
)

// Event is one recorded SelfLog occurrence.
type Event struct {
	Code    nanoerr.Code
	Message string
}

const defaultCapacity = 256

var (
	mode     atomic.Int32
	mu       sync.Mutex
	ring     []Event
	head     int
	count    int
	capacity = defaultCapacity

	expect *expectationScope
)

func init() {
	ring = make([]Event, capacity)
	mode.Store(int32(InMemory))
}

// SetMode atomically switches the active mode.
func SetMode(m Mode) {
	mode.Store(int32(m))
}

// CurrentMode returns the active mode.
func CurrentMode() Mode {
	return Mode(mode.Load())
}

// Report records an event under a short mutex-guarded section. It
// never allocates on the common path besides the message string itself
// (callers already pay for that to build a human-readable detail).
func Report(code nanoerr.Code, message string) {
	m := CurrentMode()
	if m == Disabled {
		return
	}

	ev := Event{Code: code, Message: message}

	mu.Lock()
	ring[head] = ev
	head = (head + 1) % capacity
	if count < capacity {
		count++
	}
	scope := expect
	mu.Unlock()

	if scope != nil {
		scope.observe(ev)
	}

	if m == InMemoryAndMirrorToHostErrorChannel {
		log.Printf("nanolog selflog: %s: %s", code, message)
	}
}

// Reportf is a convenience wrapper formatting like fmt.Sprintf; the
// nanoerr.Code identifiers are fixed strings, so this is used only to
// attach a detail (e.g. a TypeId or argument index).
func Reportf(code nanoerr.Code, format string, args ...interface{}) {
	Report(code, fmt.Sprintf(format, args...))
}

// Events returns a snapshot of the currently buffered events, oldest
// first.
func Events() []Event {
	mu.Lock()
	defer mu.Unlock()
	out := make([]Event, count)
	start := head - count
	if start < 0 {
		start += capacity
	}
	for i := 0; i < count; i++ {
		out[i] = ring[(start+i)%capacity]
	}
	return out
}

// Reset clears all buffered events. Intended for test isolation.
func Reset() {
	mu.Lock()
	defer mu.Unlock()
	head, count = 0, 0
	for i := range ring {
		ring[i] = Event{}
	}
}
