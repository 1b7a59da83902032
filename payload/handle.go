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

// Package payload defines the opaque PayloadHandle token and the
// in-ring PayloadBlockHeader. A PayloadHandle is Plain Old Data:
// copyable between goroutines, equality is bitwise, and its validity
// is only meaningful against the MemoryManager that produced it.
package payload

import "fmt"

const (
	// MinimumPayloadSize and MaximumPayloadSize bound the `size`
	// field of a PayloadBlockHeader.
	MinimumPayloadSize = 1
	MaximumPayloadSize = 1 << 24 // 16MiB, comfortably above any single log argument

	// MaximumDisjointedPayloadCount bounds the number of children a
	// disjointed payload may reference.
	MaximumDisjointedPayloadCount = 64

	// HeaderSize is the fixed, in-ring size of a PayloadBlockHeader.
	HeaderSize = 16

	// Alignment every ring allocation is rounded up to; matches the
	// widest field written into a header.
	Alignment = 8
)

// BufferID identifies which ring a PayloadHandle's offset is relative
// to.
type BufferID uint8

const (
	BufferA BufferID = iota
	BufferB
	BufferOverflow
	BufferDecorator
	bufferInvalid
)

func (b BufferID) String() string {
	switch b {
	case BufferA:
		return "A"
	case BufferB:
		return "B"
	case BufferOverflow:
		return "Overflow"
	case BufferDecorator:
		return "Decorator"
	default:
		return "Invalid"
	}
}

const (
	lockedBit     = uint64(1) << 62
	disjointedBit = uint64(1) << 63

	offsetMask  = uint64(0xFFFFFFFF)
	versionMask = uint64(0xFFFFFF) << 32
	bufferMask  = uint64(0x3F) << 56
)

// Handle is the opaque 64-bit token: (offset, version, bufferId,
// locked, disjointed) packed into one machine word. Layout, low to
// high bit:
//
//	[0:32)  offset    32 bits
//	[32:56) version   24 bits
//	[56:62) bufferId  6 bits
//	62      locked
//	63      disjointed
type Handle uint64

// Invalid is the zero handle. Its bufferId bits decode to BufferA, so
// it is told apart by its version: 0 is the sentinel "never allocated"
// value, which no allocation hands out.
const Invalid Handle = 0

// NewHandle packs a fresh handle. version must never be 0 (the
// sentinel), enforced by callers (ring/memmanager), not here.
func NewHandle(bufferID BufferID, offset uint32, version uint32, disjointed bool) Handle {
	h := uint64(offset) & offsetMask
	h |= (uint64(version) << 32) & versionMask
	h |= (uint64(bufferID) << 56) & bufferMask
	if disjointed {
		h |= disjointedBit
	}
	return Handle(h)
}

func (h Handle) Offset() uint32 {
	return uint32(uint64(h) & offsetMask)
}

func (h Handle) Version() uint32 {
	return uint32((uint64(h) & versionMask) >> 32)
}

func (h Handle) BufferID() BufferID {
	return BufferID((uint64(h) & bufferMask) >> 56)
}

func (h Handle) Locked() bool {
	return uint64(h)&lockedBit != 0
}

func (h Handle) Disjointed() bool {
	return uint64(h)&disjointedBit != 0
}

// WithLocked returns a copy of h with the locked bit set/cleared. The
// lock bit is part of the handle returned to the caller that locked
// it, not shared mutable state on the handle itself (the header's
// lockCount is the real lock state; this bit only documents intent on
// the value a caller is holding).
func (h Handle) WithLocked(locked bool) Handle {
	if locked {
		return Handle(uint64(h) | lockedBit)
	}
	return Handle(uint64(h) &^ lockedBit)
}

// Valid reports whether h could possibly reference a live ring. Full
// validity (version match against the live header) additionally
// requires a MemoryManager, so this is a cheap syntactic pre-check.
func (h Handle) Valid() bool {
	return h != Invalid && h.BufferID() != bufferInvalid && h.Version() != 0
}

func (h Handle) String() string {
	return fmt.Sprintf("Handle{buf:%s off:%d ver:%d locked:%v disjointed:%v}",
		h.BufferID(), h.Offset(), h.Version(), h.Locked(), h.Disjointed())
}
