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

import "math/bits"

// maxDecorators bounds the number of concurrently-registered
// decorators. A fixed capacity keeps decorator lookup on the hot Log()
// path a flat array scan rather than a map.
const maxDecorators = 32

// Decorator contributes one extra context field to every log message
// a LogController emits: TemplateSuffix is appended to the message
// template text (its own "{name}" hole), Value recomputes the
// matching context payload bytes (TypeId tag + raw value, see
// contextwriter.EncodeTag) each time a message is built.
//
// Values are recomputed per-message rather than allocated once and
// shared, because MemoryManager child handles don't support shared
// ownership across independently-released composite payloads without
// either leaking a lock forever or racing the owning message's
// release — recomputing avoids that lifetime hazard entirely.
type Decorator struct {
	TemplateSuffix string
	Value          func() []byte
}

// decoratorHandle names a registered slot for later Deregister calls.
type decoratorHandle int

// decoratorSet is a fixed-capacity occupancy table. Slot claim/release
// via a bitmask of free/used slots is adapted from the pack's
// buddy-allocator free-bitmap technique (unsafex/malloc), narrowed
// here to a flat table since decorators never need buddy-merging —
// only "is this slot free" and "find me any free slot".
type decoratorSet struct {
	used  uint64
	slots [maxDecorators]Decorator
}

func (d *decoratorSet) add(dec Decorator) (decoratorHandle, bool) {
	free := ^d.used
	if free == 0 {
		return 0, false
	}
	idx := bits.TrailingZeros64(free)
	if idx >= maxDecorators {
		return 0, false
	}
	d.slots[idx] = dec
	d.used |= 1 << uint(idx)
	return decoratorHandle(idx), true
}

func (d *decoratorSet) remove(h decoratorHandle) {
	if h < 0 || h >= maxDecorators {
		return
	}
	bit := uint64(1) << uint(h)
	if d.used&bit == 0 {
		return
	}
	d.used &^= bit
	d.slots[h] = Decorator{}
}

// each invokes fn for every occupied slot, lowest index first.
func (d *decoratorSet) each(fn func(Decorator)) {
	rem := d.used
	for rem != 0 {
		idx := bits.TrailingZeros64(rem)
		fn(d.slots[idx])
		rem &^= 1 << uint(idx)
	}
}

func (d *decoratorSet) count() int {
	return bits.OnesCount64(d.used)
}
