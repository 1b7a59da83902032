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

// Package ring implements a single-producer-safe, multi-reader byte
// ring buffer: a contiguous byte array with an explicit fence to
// support wrap-around, handing out aligned byte regions to callers
// (payload.BlockHeader-prefixed allocations, in practice).
//
// Unlike container/ring (a fixed generic item ring with no concept of
// allocation or reclamation), this ring hands out variable-size byte
// windows and tracks free space with a (head, tail, fence) control
// triple.
package ring

import "github.com/nanolog/nanolog/payload"

// Control is the (head, tail, fence) triple, exposed read-only via
// Snapshot for property-based tests.
type Control struct {
	Head, Tail, Fence int
}

// Buffer is a bounded byte ring. Zero value is not usable; construct
// with New.
type Buffer struct {
	data  []byte
	head  int
	tail  int
	fence int
}

// New allocates a ring of the given capacity. capacity is clamped to
// [MinCapacity, MaxCapacity].
const (
	MinCapacity = 256
	MaxCapacity = 1 << 30
)

func New(capacity int) *Buffer {
	if capacity < MinCapacity {
		capacity = MinCapacity
	}
	if capacity > MaxCapacity {
		capacity = MaxCapacity
	}
	return &Buffer{
		data:  make([]byte, capacity),
		head:  0,
		tail:  0,
		fence: capacity - 1,
	}
}

func align(n int) int {
	a := payload.Alignment
	return (n + a - 1) &^ (a - 1)
}

// Capacity returns the ring's total byte capacity.
func (b *Buffer) Capacity() int {
	return len(b.data)
}

// BytesAllocated returns the number of bytes currently in use (not
// reclaimed by Free).
func (b *Buffer) BytesAllocated() int {
	if b.head >= b.tail {
		return b.head - b.tail
	}
	return (b.fence - b.tail) + b.head
}

// Snapshot returns the current control triple, for tests and
// diagnostics.
func (b *Buffer) Snapshot() Control {
	return Control{Head: b.head, Tail: b.tail, Fence: b.fence}
}

// Allocate reserves size bytes (rounded up to payload.Alignment
// including the header) and returns the offset of the start of the
// full region (header + payload). ok is false if no contiguous region
// is currently free; the ring is left unmodified on failure.
//
// Wrap tie-break: prefer contiguous space at head; wrap to offset 0
// only if the remaining capacity from head to the end of the backing
// array is smaller than the request AND the request fits in [0,
// tail). Wrapping sets fence <- head before moving head to 0.
func (b *Buffer) Allocate(size int) (offset int, ok bool) {
	total := align(payload.HeaderSize + size)

	if b.head >= b.tail {
		// Free region is [head, fence) when occupied, or the whole
		// ring when empty (head == tail == 0, fence == cap-1).
		freeAtHead := (b.fence + 1) - b.head
		if total <= freeAtHead {
			off := b.head
			b.head += total
			return off, true
		}
		// Not enough room ahead of head within [head, fence]. Try a
		// wrap: only valid if there is genuinely free room before
		// tail (i.e. we aren't the only thing allocated) and it's
		// big enough.
		if total < b.tail {
			b.fence = b.head
			b.head = total
			return 0, true
		}
		return 0, false
	}

	// head < tail: free region is [head, tail). head must stay strictly
	// below tail here, since head == tail reads as the unwrapped case.
	free := b.tail - b.head
	if total < free {
		off := b.head
		b.head += total
		return off, true
	}
	return 0, false
}

// Free advances tail past a released block of `size` total bytes
// (header included), reclaiming the slot. If after the advance tail
// >= fence or tail == head, the control triple resets to a
// defragmented logical-empty state (0, 0, capacity-1). Callers
// (MemoryManager.Update) call this once per contiguous released block
// starting at tail, in order; it is never valid to Free a block that
// isn't the current tail block.
func (b *Buffer) Free(size int) {
	total := align(payload.HeaderSize + size)
	b.tail += total

	if b.tail >= b.fence || b.tail == b.head {
		capacity := len(b.data)
		b.head, b.tail, b.fence = 0, 0, capacity-1
	}
}


// TailOffset returns the current tail offset, for callers that walk
// released blocks starting at tail (MemoryManager.Update's reclaim
// pass).
func (b *Buffer) TailOffset() int {
	return b.tail
}

// HeadOffset returns the current head offset, for diagnostics.
func (b *Buffer) HeadOffset() int {
	return b.head
}

// Bytes returns the raw byte slice starting at off, length n. Callers
// are responsible for staying within bounds established by a prior
// Allocate; this is an unsafe, zero-copy view into the backing array.
func (b *Buffer) Bytes(off, n int) []byte {
	return b.data[off : off+n]
}

// HeaderAt returns a header view at the given offset.
func (b *Buffer) HeaderAt(off int) payload.BlockHeader {
	return payload.NewBlockHeaderView(b.data[off : off+payload.HeaderSize])
}

// PayloadAt returns the payload bytes (post-header) at off, given the
// header's recorded size.
func (b *Buffer) PayloadAt(off int, size uint32) []byte {
	start := off + payload.HeaderSize
	return b.data[start : start+int(size)]
}

// Reclaim walks blocks starting at tail and advances past every
// contiguous run of already-released blocks (header.Version() == 0),
// stopping at the first still-live block or once the ring is fully
// drained. Returns the number of blocks reclaimed. This is the
// mechanical half of MemoryManager.Update's reclaim pass; deciding
// which blocks are released (clearing a payload's version to 0) is
// the MemoryManager's job, done at release time, not here.
func (b *Buffer) Reclaim() int {
	n := 0
	for b.BytesAllocated() > 0 {
		off := b.TailOffset()
		h := b.HeaderAt(off)
		if h.Version() != 0 {
			break
		}
		b.Free(int(h.Size()))
		n++
	}
	return n
}

// AllocatedTotalSize is the ring-accounting size (header + aligned
// payload) for a payload of n bytes; ring.Free must be called with
// this same n so the two Allocate/Free calls agree on the accounted
// region size.
func AllocatedTotalSize(n int) int {
	return align(payload.HeaderSize + n)
}
