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

package formatter

import (
	"sync"

	"github.com/bytedance/gopkg/lang/mcache"
)

// initialLineCapacity is the starting size handed to mcache for a
// freshly-grown line buffer — large enough that the vast majority of
// formatted log lines never need a second grow.
const initialLineCapacity = 256

var lineBufPool = sync.Pool{
	New: func() interface{} { return &lineBuf{} },
}

// lineBuf is a single pooled, mcache-backed growable byte buffer used
// to accumulate one formatted log line. Adapted from gridbuf's
// WriteBuffer: that type batches multiple independent chunks for
// scatter-gather network writes, which Formatter has no use for since
// it only ever produces one contiguous line of text — so this keeps
// just the pooled-growth-via-mcache technique and drops the
// multi-chunk bookkeeping.
type lineBuf struct {
	buf []byte
}

func getLineBuf() *lineBuf {
	return lineBufPool.Get().(*lineBuf)
}

func (l *lineBuf) release() {
	if l.buf != nil {
		mcache.Free(l.buf)
		l.buf = nil
	}
	lineBufPool.Put(l)
}

// grow ensures at least extra more bytes of spare capacity, migrating
// existing content into a freshly mcache-allocated backing array when
// needed.
func (l *lineBuf) grow(extra int) {
	if l.buf == nil {
		n := initialLineCapacity
		if extra > n {
			n = extra
		}
		l.buf = mcache.Malloc(n)[:0]
		return
	}
	if cap(l.buf)-len(l.buf) >= extra {
		return
	}
	n := cap(l.buf) * 2
	if need := len(l.buf) + extra; n < need {
		n = need
	}
	next := mcache.Malloc(n)[:0]
	next = append(next, l.buf...)
	mcache.Free(l.buf)
	l.buf = next
}

func (l *lineBuf) append(p []byte) {
	l.grow(len(p))
	l.buf = append(l.buf, p...)
}

func (l *lineBuf) appendByte(b byte) {
	l.grow(1)
	l.buf = append(l.buf, b)
}

func (l *lineBuf) bytes() []byte { return l.buf }

func (l *lineBuf) reset() {
	if l.buf != nil {
		l.buf = l.buf[:0]
	}
}
