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

package payload

import (
	"encoding/binary"
	"sync/atomic"
)

// BlockHeader is the fixed-size record that immediately precedes every
// allocation inside a RingBuffer. It is read and written in-place
// inside ring storage, never copied out as a Go struct value across
// goroutines without synchronization — callers go through
// ring.HeaderAt(off) to get a view into the backing array.
//
// Layout (HeaderSize == 16 bytes):
//
//	[0:4)  size       uint32  payload bytes, excluding header/padding
//	[4:8)  version    uint32  generation counter; 0 is the sentinel
//	[8:12) lockCount  int32   0 == unlocked
//	[12:13) head      byte    1 if this is a disjointed head block
//	[13:16) reserved
type BlockHeader struct {
	raw []byte // HeaderSize-byte window into the ring's backing array
}

// NewBlockHeaderView wraps a HeaderSize-byte slice (a window into a
// RingBuffer's backing array) as a BlockHeader. Panics if buf is
// shorter than HeaderSize, since that indicates a ring bookkeeping
// bug, not a recoverable runtime condition.
func NewBlockHeaderView(buf []byte) BlockHeader {
	if len(buf) < HeaderSize {
		panic("payload: short header view")
	}
	return BlockHeader{raw: buf[:HeaderSize]}
}

func (h BlockHeader) Size() uint32 {
	return binary.LittleEndian.Uint32(h.raw[0:4])
}

func (h BlockHeader) SetSize(v uint32) {
	binary.LittleEndian.PutUint32(h.raw[0:4], v)
}

func (h BlockHeader) Version() uint32 {
	return atomic.LoadUint32((*uint32)(rawPtr32(h.raw[4:8])))
}

func (h BlockHeader) SetVersion(v uint32) {
	atomic.StoreUint32((*uint32)(rawPtr32(h.raw[4:8])), v)
}

// LockCount returns the current lock depth (0 == unlocked).
func (h BlockHeader) LockCount() int32 {
	return atomic.LoadInt32((*int32)(rawPtr32(h.raw[8:12])))
}

// IncLock atomically increments the lock depth and returns the new value.
func (h BlockHeader) IncLock() int32 {
	return atomic.AddInt32((*int32)(rawPtr32(h.raw[8:12])), 1)
}

// DecLock atomically decrements the lock depth and returns the new
// value. Never drops below 0; an unbalanced Unlock is a caller bug
// and is clamped rather than allowed to go negative, so a subsequent
// Release's "is it locked" check stays correct.
func (h BlockHeader) DecLock() int32 {
	p := (*int32)(rawPtr32(h.raw[8:12]))
	for {
		cur := atomic.LoadInt32(p)
		if cur <= 0 {
			return 0
		}
		if atomic.CompareAndSwapInt32(p, cur, cur-1) {
			return cur - 1
		}
	}
}

// ResetForAllocation zeroes lockCount and the head flag; called right
// after a ring slot is (re)claimed for a new allocation, since a
// reused slot's bytes may still carry a previous occupant's state.
func (h BlockHeader) ResetForAllocation() {
	atomic.StoreInt32((*int32)(rawPtr32(h.raw[8:12])), 0)
	h.raw[12] = 0
}

func (h BlockHeader) IsHead() bool {
	return h.raw[12] != 0
}

func (h BlockHeader) SetHead(v bool) {
	if v {
		h.raw[12] = 1
	} else {
		h.raw[12] = 0
	}
}

// NextVersion returns the version that follows cur, skipping the 0
// sentinel (0 is reserved to mean "never allocated"). It wraps within
// the 24 version bits a Handle carries.
func NextVersion(cur uint32) uint32 {
	v := (cur + 1) & uint32(versionMask>>32)
	if v == 0 {
		v = 1
	}
	return v
}
