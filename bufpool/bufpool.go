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

// Package bufpool is a narrow, size-classed byte-slice pool backing
// contextwriter.EncodeTag's scratch buffers: the short-lived
// TypeId-tagged byte slices a Log() call builds and then immediately
// copies into the message's own MemoryManager-owned payload. That
// round trip isn't on the MemoryManager's own hot allocation path, but
// it runs once per logged argument, often enough under load that a
// bare `make([]byte, n)` per call would show up in profiles.
//
// Adapted from the teacher's cache/mempool size-classed sync.Pool
// technique (power-of-two buckets selected by bits.Len), narrowed to
// the small range this module actually needs (64B..64KB) and without
// mempool's footer-tag double-free guard: bufpool buffers never
// escape past the call that borrowed them (no generic `Append`-style
// public API that could be handed a foreign slice), so the guard
// mempool needs for that open-ended use case is unnecessary here.
package bufpool

import (
	"math/bits"
	"sync"
)

const (
	minSize = 64
	maxSize = 64 << 10
)

var buckets []*sync.Pool
var bucketSize []int

func init() {
	for sz := minSize; sz <= maxSize; sz <<= 1 {
		sz := sz
		buckets = append(buckets, &sync.Pool{
			New: func() interface{} {
				b := make([]byte, sz)
				return &b
			},
		})
		bucketSize = append(bucketSize, sz)
	}
}

func bucketIndex(n int) int {
	if n <= minSize {
		return 0
	}
	idx := bits.Len(uint(n-1)) - bits.Len(uint(minSize-1))
	if idx < 0 {
		idx = 0
	}
	if idx >= len(buckets) {
		return len(buckets) - 1
	}
	return idx
}

// Get returns a []byte with length n, backed by a pooled buffer sized
// to the next power-of-two bucket >= n. For n above maxSize, Get
// allocates directly (oversized scratch buffers are not pooled).
func Get(n int) []byte {
	if n <= 0 {
		return nil
	}
	if n > maxSize {
		return make([]byte, n)
	}
	idx := bucketIndex(n)
	p := buckets[idx].Get().(*[]byte)
	buf := (*p)[:n]
	return buf
}

// Put returns a buffer obtained from Get back to its pool. Buffers
// larger than maxSize (never pooled by Get) are silently dropped.
func Put(buf []byte) {
	c := cap(buf)
	if c < minSize || c > maxSize {
		return
	}
	if c&(c-1) != 0 {
		// not one of our power-of-two buckets; ignore rather than
		// panic, since scratch buffers are sometimes grown by
		// callers via append.
		return
	}
	idx := bucketIndex(c)
	if idx >= len(buckets) || bucketSize[idx] != c {
		return
	}
	full := buf[:cap(buf)]
	buckets[idx].Put(&full)
}
