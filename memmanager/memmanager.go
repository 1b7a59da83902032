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

// Package memmanager implements MemoryManager: the bounded,
// concurrent, pooled allocator that hands out PayloadHandles backed by
// two symmetric default ring buffers plus an optional overflow ring,
// with automatic grow/shrink and a composite ("disjointed") payload
// for multi-field messages.
package memmanager

import (
	"encoding/binary"
	"math"

	"github.com/nanolog/nanolog/nanoerr"
	"github.com/nanolog/nanolog/payload"
	nanoring "github.com/nanolog/nanolog/ring"
	"github.com/nanolog/nanolog/selflog"
	"github.com/nanolog/nanolog/spinlock"
)

// Result is the outcome of ReleasePayloadBuffer.
type Result int

const (
	Success Result = iota
	ForcedRelease
	BufferLocked
	InvalidHandle
	DisjointedPayloadReleaseFailed
)

func (r Result) String() string {
	switch r {
	case Success:
		return "Success"
	case ForcedRelease:
		return "ForcedRelease"
	case BufferLocked:
		return "BufferLocked"
	case InvalidHandle:
		return "InvalidHandle"
	case DisjointedPayloadReleaseFailed:
		return "DisjointedPayloadReleaseFailed"
	default:
		return "Unknown"
	}
}

type ringSlot struct {
	buf     *nanoring.Buffer
	version uint32
}

func newRingSlot(capacity int) *ringSlot {
	return &ringSlot{buf: nanoring.New(capacity)}
}

// MemoryManager is the bounded, concurrent payload allocator. Zero
// value is not usable; construct with New.
type MemoryManager struct {
	mu spinlock.RW

	cfg Config

	a, b      *ringSlot
	activeIsA bool

	overflow       *ringSlot
	overflowUsed   bool

	avg *movingAverage
}

// LockToken is the capability returned by LockPayloadBuffer; it must
// be passed back to UnlockPayloadBuffer.
type LockToken struct {
	h payload.Handle
}

// New constructs a MemoryManager from cfg (sanitized per-field).
func New(cfg Config) *MemoryManager {
	cfg = cfg.Sanitized()
	m := &MemoryManager{
		cfg:       cfg,
		a:         newRingSlot(cfg.InitialBufferCapacity),
		b:         newRingSlot(nanoring.MinCapacity),
		activeIsA: true,
		avg:       newMovingAverage(cfg.BufferSampleCount),
	}
	if cfg.OverflowBufferSize > 0 {
		m.overflow = newRingSlot(cfg.OverflowBufferSize)
	}
	return m
}

func (m *MemoryManager) activeSlot() (*ringSlot, payload.BufferID) {
	if m.activeIsA {
		return m.a, payload.BufferA
	}
	return m.b, payload.BufferB
}

func (m *MemoryManager) inactiveSlot() (*ringSlot, payload.BufferID) {
	if m.activeIsA {
		return m.b, payload.BufferB
	}
	return m.a, payload.BufferA
}

func (m *MemoryManager) slotFor(id payload.BufferID) *ringSlot {
	switch id {
	case payload.BufferA:
		return m.a
	case payload.BufferB:
		return m.b
	case payload.BufferOverflow:
		return m.overflow
	default:
		return nil
	}
}

// AllocatePayloadBuffer allocates a payload of the given size from the
// active default ring, falling back to overflow (if enabled) on
// failure.
func (m *MemoryManager) AllocatePayloadBuffer(size int) (payload.Handle, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.allocateLocked(size)
}

func (m *MemoryManager) allocateLocked(size int) (payload.Handle, bool) {
	if size < payload.MinimumPayloadSize || size > payload.MaximumPayloadSize {
		selflog.Report(nanoerr.FailedToAllocatePayloadBecauseOfItsSize, "requested size out of bounds")
		return payload.Invalid, false
	}

	active, activeID := m.activeSlot()
	if off, ok := active.buf.Allocate(size); ok {
		return m.finishAllocation(active, activeID, off, size), true
	}

	if m.overflow != nil {
		if off, ok := m.overflow.buf.Allocate(size); ok {
			m.overflowUsed = true
			return m.finishAllocation(m.overflow, payload.BufferOverflow, off, size), true
		}
	}

	selflog.Report(nanoerr.FailedToAllocatePayloadBecauseOfItsSize, "no ring had room for the requested allocation")
	return payload.Invalid, false
}

func (m *MemoryManager) finishAllocation(slot *ringSlot, id payload.BufferID, off, size int) payload.Handle {
	slot.version = payload.NextVersion(slot.version)
	hdr := slot.buf.HeaderAt(off)
	hdr.ResetForAllocation()
	hdr.SetSize(uint32(size))
	hdr.SetVersion(slot.version)
	return payload.NewHandle(id, uint32(off), slot.version, false)
}

// AllocateDisjointedBuffer allocates a head block (an array of N child
// handles) plus N independently-allocated child payloads. On any
// failure, every already-allocated child and the head are released
// before returning.
func (m *MemoryManager) AllocateDisjointedBuffer(sizes []int) (head payload.Handle, children []payload.Handle, ok bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if len(sizes) == 0 || len(sizes) > payload.MaximumDisjointedPayloadCount {
		selflog.Report(nanoerr.FailedToCreateDisjointedBuffer, "invalid child count")
		return payload.Invalid, nil, false
	}
	for _, sz := range sizes {
		if sz < payload.MinimumPayloadSize || sz > payload.MaximumPayloadSize {
			selflog.Report(nanoerr.FailedToCreateDisjointedBuffer, "invalid child size")
			return payload.Invalid, nil, false
		}
	}

	headHandle, ok := m.allocateLocked(len(sizes) * 8)
	if !ok {
		selflog.Report(nanoerr.FailedToCreateDisjointedBuffer, "head allocation failed")
		return payload.Invalid, nil, false
	}
	m.markHead(headHandle)

	children = make([]payload.Handle, 0, len(sizes))
	for _, sz := range sizes {
		ch, ok := m.allocateLocked(sz)
		if !ok {
			for _, done := range children {
				m.releaseLocked(done, true)
			}
			m.releaseLocked(headHandle, true)
			selflog.Report(nanoerr.FailedToCreateDisjointedBuffer, "child allocation failed")
			return payload.Invalid, nil, false
		}
		children = append(children, ch)
	}

	m.writeChildren(headHandle, children)
	return headHandle.AsDisjointedHead(), children, true
}

// CreateDisjointedFromExisting builds a disjointed head referencing
// already-allocated payloads. Rejects any handle that is itself a
// disjointed head, or invalid.
func (m *MemoryManager) CreateDisjointedFromExisting(handles []payload.Handle) (payload.Handle, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if len(handles) == 0 || len(handles) > payload.MaximumDisjointedPayloadCount {
		return payload.Invalid, false
	}
	for _, h := range handles {
		if h.Disjointed() || !m.isValidLocked(h) {
			selflog.Report(nanoerr.FailedToCreateDisjointedBuffer, "child handle invalid or itself disjointed")
			return payload.Invalid, false
		}
	}

	headHandle, ok := m.allocateLocked(len(handles) * 8)
	if !ok {
		selflog.Report(nanoerr.FailedToCreateDisjointedBuffer, "head allocation failed")
		return payload.Invalid, false
	}
	m.markHead(headHandle)
	m.writeChildren(headHandle, handles)
	return headHandle.AsDisjointedHead(), true
}

func (m *MemoryManager) markHead(h payload.Handle) {
	slot := m.slotFor(h.BufferID())
	slot.buf.HeaderAt(int(h.Offset())).SetHead(true)
}

func (m *MemoryManager) writeChildren(head payload.Handle, children []payload.Handle) {
	slot := m.slotFor(head.BufferID())
	hdr := slot.buf.HeaderAt(int(head.Offset()))
	buf := slot.buf.PayloadAt(int(head.Offset()), hdr.Size())
	for i, ch := range children {
		binary.LittleEndian.PutUint64(buf[i*8:i*8+8], uint64(ch))
	}
}

func (m *MemoryManager) readChildren(head payload.Handle) []payload.Handle {
	slot := m.slotFor(head.BufferID())
	hdr := slot.buf.HeaderAt(int(head.Offset()))
	buf := slot.buf.PayloadAt(int(head.Offset()), hdr.Size())
	n := len(buf) / 8
	out := make([]payload.Handle, n)
	for i := 0; i < n; i++ {
		out[i] = payload.Handle(binary.LittleEndian.Uint64(buf[i*8 : i*8+8]))
	}
	return out
}

// LockPayloadBuffer increments h's lock count, pinning it against
// release (unless forced). Returns a token to pass to
// UnlockPayloadBuffer.
func (m *MemoryManager) LockPayloadBuffer(h payload.Handle) (LockToken, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	slot := m.slotFor(h.BufferID())
	if slot == nil {
		return LockToken{}, false
	}
	hdr := slot.buf.HeaderAt(int(h.Offset()))
	if hdr.Version() != h.Version() {
		selflog.Report(nanoerr.FailedToLockPayloadBuffer, "stale handle")
		return LockToken{}, false
	}
	hdr.IncLock()
	return LockToken{h: h}, true
}

// UnlockPayloadBuffer decrements the lock count associated with tok.
func (m *MemoryManager) UnlockPayloadBuffer(tok LockToken) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()

	slot := m.slotFor(tok.h.BufferID())
	if slot == nil {
		return false
	}
	hdr := slot.buf.HeaderAt(int(tok.h.Offset()))
	if hdr.Version() != tok.h.Version() {
		return false
	}
	hdr.DecLock()
	return true
}

// ReleasePayloadBuffer releases h per the Result taxonomy above. A
// locked handle (lock count > 0) always returns BufferLocked unless
// force is true, which takes precedence over any disjointed-payload
// inconsistency.
func (m *MemoryManager) ReleasePayloadBuffer(h payload.Handle, force bool) Result {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.releaseLocked(h, force)
}

func (m *MemoryManager) releaseLocked(h payload.Handle, force bool) Result {
	slot := m.slotFor(h.BufferID())
	if slot == nil {
		return InvalidHandle
	}
	hdr := slot.buf.HeaderAt(int(h.Offset()))
	if hdr.Version() != h.Version() {
		return InvalidHandle
	}

	locked := hdr.LockCount() > 0
	isDisjointed := h.Disjointed() || hdr.IsHead()

	if locked {
		if !force {
			return BufferLocked
		}
		if isDisjointed {
			for _, ch := range m.readChildren(h) {
				m.releaseLocked(ch, true)
			}
		}
		hdr.SetVersion(0)
		return ForcedRelease
	}

	if isDisjointed {
		children := m.readChildren(h)
		allOK := true
		for _, ch := range children {
			res := m.releaseLocked(ch, force)
			if res != Success && res != ForcedRelease {
				allOK = false
			}
		}
		if !allOK {
			if !force {
				return DisjointedPayloadReleaseFailed
			}
			for _, ch := range children {
				m.releaseLocked(ch, true)
			}
			hdr.SetVersion(0)
			return ForcedRelease
		}
		hdr.SetVersion(0)
		return Success
	}

	hdr.SetVersion(0)
	return Success
}

// ForceReleasePayloads force-releases every handle in handles,
// ignoring individual result codes — the cancellation path for
// abandoning a half-built disjointed payload before it is ever
// enqueued.
func (m *MemoryManager) ForceReleasePayloads(handles []payload.Handle) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, h := range handles {
		m.releaseLocked(h, true)
	}
}

// RetrievePayloadBuffer returns the live byte range for h.
func (m *MemoryManager) RetrievePayloadBuffer(h payload.Handle) ([]byte, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.retrieveLocked(h)
}

func (m *MemoryManager) retrieveLocked(h payload.Handle) ([]byte, bool) {
	slot := m.slotFor(h.BufferID())
	if slot == nil {
		return nil, false
	}
	hdr := slot.buf.HeaderAt(int(h.Offset()))
	if hdr.Version() != h.Version() {
		return nil, false
	}
	return slot.buf.PayloadAt(int(h.Offset()), hdr.Size()), true
}

// RetrieveDisjointedPayloadBuffer returns the byte range of the i-th
// child of a disjointed head.
func (m *MemoryManager) RetrieveDisjointedPayloadBuffer(head payload.Handle, i int) ([]byte, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	slot := m.slotFor(head.BufferID())
	if slot == nil {
		return nil, false
	}
	hdr := slot.buf.HeaderAt(int(head.Offset()))
	if hdr.Version() != head.Version() || !hdr.IsHead() {
		return nil, false
	}
	children := m.readChildren(head)
	if i < 0 || i >= len(children) {
		return nil, false
	}
	return m.retrieveLocked(children[i])
}

func (m *MemoryManager) isValidLocked(h payload.Handle) bool {
	slot := m.slotFor(h.BufferID())
	if slot == nil {
		return false
	}
	hdr := slot.buf.HeaderAt(int(h.Offset()))
	return hdr.Version() == h.Version()
}

// Utilization returns the active ring's current fraction in use, for
// diagnostics/tests.
func (m *MemoryManager) Utilization() float64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	active, _ := m.activeSlot()
	return float64(active.buf.BytesAllocated()) / float64(active.buf.Capacity())
}

// ActiveCapacity returns the active ring's current capacity.
func (m *MemoryManager) ActiveCapacity() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	active, _ := m.activeSlot()
	return active.buf.Capacity()
}

// Update reclaims released blocks, samples utilization, and performs
// any grow/shrink decided by the moving average or by overflow usage.
// Serialized with allocation under the write lock.
func (m *MemoryManager) Update() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.a.buf.Reclaim()
	m.b.buf.Reclaim()
	if m.overflow != nil {
		m.overflow.buf.Reclaim()
	}

	active, _ := m.activeSlot()
	if m.cfg.BufferSampleCount > 0 {
		m.avg.push(float64(active.buf.BytesAllocated()) / float64(active.buf.Capacity()))
	}

	overflowUsed := m.overflowUsed
	m.overflowUsed = false

	grow := overflowUsed
	if !grow && m.cfg.BufferGrowThreshold > 0 && m.avg.full() && m.avg.average() > m.cfg.BufferGrowThreshold {
		grow = true
	}
	shrink := false
	if !grow && !overflowUsed && m.cfg.BufferShrinkThreshold > 0 && m.avg.full() && m.avg.average() < m.cfg.BufferShrinkThreshold {
		shrink = true
	}

	switch {
	case grow:
		m.resize(m.cfg.BufferGrowFactor)
	case shrink:
		m.resize(m.cfg.BufferShrinkFactor)
	}
}

// resize replaces the inactive ring with one sized
// ceil(activeCapacity * factor) and flips the active flag. The
// previous ring keeps serving its live payloads and stays allocated,
// even once empty, until a later resize replaces it. If the inactive ring still
// holds live payloads, the resize is skipped for this Update call and
// retried on a later one, rather than forcing eviction.
func (m *MemoryManager) resize(factor float64) {
	inactive, _ := m.inactiveSlot()
	if inactive.buf.BytesAllocated() != 0 {
		return
	}
	active, _ := m.activeSlot()
	newCap := int(math.Ceil(float64(active.buf.Capacity()) * factor))
	if newCap < nanoring.MinCapacity {
		newCap = nanoring.MinCapacity
	}
	if newCap > nanoring.MaxCapacity {
		newCap = nanoring.MaxCapacity
	}
	inactive.buf = nanoring.New(newCap)
	inactive.version = 0
	m.activeIsA = !m.activeIsA
}
