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

// Package dispatch implements DispatchQueue: a bounded MPMC queue of
// LogMessage records feeding sinks. Producers add from any thread;
// consumers drain in FIFO order per producer; across producers,
// timestamps are the only ordering guarantee.
//
// Grounded on the retrieved lock-free ring buffer examples
// (willibrandon/mtlog-audit's MultiProducerRingBuffer and the LMAX
// disruptor sketch): slots are claimed with a CAS on writeReserve, written,
// then committed in order so a slow producer can't let a reader run
// ahead into a slot that looks written but isn't actually theirs yet.
package dispatch

import (
	"runtime"
	"sync/atomic"

	"github.com/nanolog/nanolog/payload"
	"github.com/nanolog/nanolog/timestamp"
)

// Level is the minimal severity concept LogController's
// HasSinksFor(level) check needs, without importing a concrete sink.
type Level uint8

const (
	LevelVerbose Level = iota
	LevelDebug
	LevelInfo
	LevelWarning
	LevelError
	LevelFatal
)

// LogMessage is the {payload, timestamp_ns, stack_trace_id, level}
// record a producer hands off to the dispatch queue.
type LogMessage struct {
	Payload       payload.Handle
	TimestampNs   timestamp.Nanos
	StackTraceID  uint64
	Level         Level
}

// Queue is a bounded MPMC ring of LogMessage. Zero value is not
// usable; construct with New.
type Queue struct {
	buffer []LogMessage
	mask   uint64
	size   uint64

	_            [64]byte
	writeReserve uint64
	_            [56]byte
	writeCommit  uint64
	_            [56]byte
	readPos      uint64
	_            [56]byte
}

// New creates a queue with capacity rounded up to the next power of
// two (so index masking replaces a modulo on the hot path).
func New(capacity int) *Queue {
	size := uint64(1)
	for size < uint64(capacity) {
		size <<= 1
	}
	if size == 0 {
		size = 1
	}
	return &Queue{
		buffer: make([]LogMessage, size),
		mask:   size - 1,
		size:   size,
	}
}

// Push enqueues msg. Returns false if the queue is full — a full
// queue is a fatal-for-that-message event the caller
// (LogController.Log) must handle by force-releasing the payload and
// reporting to SelfLog.
func (q *Queue) Push(msg LogMessage) bool {
	for {
		reserve := atomic.LoadUint64(&q.writeReserve)
		read := atomic.LoadUint64(&q.readPos)
		if reserve-read >= q.size {
			return false
		}
		if atomic.CompareAndSwapUint64(&q.writeReserve, reserve, reserve+1) {
			idx := reserve & q.mask
			q.buffer[idx] = msg
			for !atomic.CompareAndSwapUint64(&q.writeCommit, reserve, reserve+1) {
				runtime.Gosched()
			}
			return true
		}
		runtime.Gosched()
	}
}

// Pop dequeues the oldest committed LogMessage. ok is false if the
// queue is currently empty.
func (q *Queue) Pop() (msg LogMessage, ok bool) {
	for {
		read := atomic.LoadUint64(&q.readPos)
		commit := atomic.LoadUint64(&q.writeCommit)
		if read >= commit {
			return LogMessage{}, false
		}
		if atomic.CompareAndSwapUint64(&q.readPos, read, read+1) {
			idx := read & q.mask
			return q.buffer[idx], true
		}
		runtime.Gosched()
	}
}

// Len returns the current number of committed, unread messages.
func (q *Queue) Len() int {
	commit := atomic.LoadUint64(&q.writeCommit)
	read := atomic.LoadUint64(&q.readPos)
	return int(commit - read)
}

// Capacity returns the queue's fixed capacity.
func (q *Queue) Capacity() int {
	return int(q.size)
}
