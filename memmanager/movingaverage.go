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

package memmanager

import containerring "github.com/nanolog/nanolog/container/ring"

// movingAverage is a fixed-size simple moving average of ring
// utilization samples. It is built on container/ring's GC-friendly
// fixed ring rather than a plain slice + index, reusing the teacher's
// generic ring the way it was designed to be used: a fixed-capacity
// set of mutable slots visited round-robin via Item.Pointer(), with
// this type supplying the push/average semantics on top.
type movingAverage struct {
	window *containerring.Ring[float64]
	cursor int
	filled int
	sum    float64
}

func newMovingAverage(n int) *movingAverage {
	if n <= 0 {
		return &movingAverage{}
	}
	return &movingAverage{window: containerring.NewFromSlice(make([]float64, n))}
}

// capacity returns the configured sample count (0 if disabled).
func (m *movingAverage) capacity() int {
	if m.window == nil {
		return 0
	}
	return m.window.Len()
}

// push records a new sample, evicting the oldest once the window is
// full.
func (m *movingAverage) push(v float64) {
	if m.window == nil || m.window.Len() == 0 {
		return
	}
	item, _ := m.window.Get(m.cursor)
	if m.filled >= m.window.Len() {
		m.sum -= *item.Pointer()
	} else {
		m.filled++
	}
	*item.Pointer() = v
	m.sum += v
	m.cursor = (m.cursor + 1) % m.window.Len()
}

// full reports whether the window has accumulated a full sample set.
func (m *movingAverage) full() bool {
	return m.window != nil && m.filled >= m.window.Len() && m.window.Len() > 0
}

// average returns the current mean over whatever samples have been
// recorded so far (0 if none).
func (m *movingAverage) average() float64 {
	if m.filled == 0 {
		return 0
	}
	return m.sum / float64(m.filled)
}

// reset clears all recorded samples without changing capacity.
func (m *movingAverage) reset() {
	m.cursor = 0
	m.filled = 0
	m.sum = 0
	if m.window != nil {
		m.window.Do(func(v *float64) { *v = 0 })
	}
}
