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

import nanoring "github.com/nanolog/nanolog/ring"

// Config holds the recognized MemoryManager configuration parameters.
// Every field validates independently: an out-of-range field resets
// to its default while the rest of the struct's valid fields are
// preserved (mirrors the teacher's `concurrency/gopool.Option` +
// `DefaultOption()` defensive construction, generalized to per-field
// validation).
type Config struct {
	// InitialBufferCapacity is the initial size of the active default
	// ring (A). Ring B starts at ring.MinCapacity and is re-created at
	// the new size on the first resize.
	InitialBufferCapacity int

	// BufferSampleCount is the moving-average window size. 0 disables
	// automatic resizing entirely.
	BufferSampleCount int

	// BufferGrowThreshold / BufferShrinkThreshold are average-
	// utilization thresholds in [0.0, 1.0]. Either being 0 disables
	// the respective direction.
	BufferGrowThreshold   float64
	BufferShrinkThreshold float64

	// BufferGrowFactor must be > 1; BufferShrinkFactor must be in (0, 1).
	BufferGrowFactor   float64
	BufferShrinkFactor float64

	// OverflowBufferSize is the size of the overflow ring; 0 disables
	// overflow entirely.
	OverflowBufferSize int

	// DispatchQueueSize sizes a companion DispatchQueue (not owned by
	// MemoryManager itself, carried here since it's one of the
	// recognized configuration parameters for a LogController).
	DispatchQueueSize int
}

// DefaultConfig returns the defaults every invalid field resets to.
func DefaultConfig() Config {
	return Config{
		InitialBufferCapacity: 64 << 10,
		BufferSampleCount:     0,
		BufferGrowThreshold:   0,
		BufferShrinkThreshold: 0,
		BufferGrowFactor:      2.0,
		BufferShrinkFactor:    0.5,
		OverflowBufferSize:    0,
		DispatchQueueSize:     1024,
	}
}

const maxSampleCount = 10000

// Sanitized returns a copy of c with every out-of-range field reset to
// its default, per field, independently.
func (c Config) Sanitized() Config {
	d := DefaultConfig()
	out := c

	if out.InitialBufferCapacity < nanoring.MinCapacity || out.InitialBufferCapacity > nanoring.MaxCapacity {
		out.InitialBufferCapacity = d.InitialBufferCapacity
	}
	if out.BufferSampleCount < 0 || out.BufferSampleCount > maxSampleCount {
		out.BufferSampleCount = d.BufferSampleCount
	}
	if out.BufferGrowThreshold < 0 || out.BufferGrowThreshold > 1 {
		out.BufferGrowThreshold = d.BufferGrowThreshold
	}
	if out.BufferShrinkThreshold < 0 || out.BufferShrinkThreshold > 1 {
		out.BufferShrinkThreshold = d.BufferShrinkThreshold
	}
	if out.BufferGrowFactor <= 1 {
		out.BufferGrowFactor = d.BufferGrowFactor
	}
	if out.BufferShrinkFactor <= 0 || out.BufferShrinkFactor >= 1 {
		out.BufferShrinkFactor = d.BufferShrinkFactor
	}
	if out.OverflowBufferSize < 0 || (out.OverflowBufferSize != 0 && out.OverflowBufferSize < nanoring.MinCapacity) {
		out.OverflowBufferSize = d.OverflowBufferSize
	}
	if out.DispatchQueueSize <= 0 {
		out.DispatchQueueSize = d.DispatchQueueSize
	}

	// If both thresholds are 0, buffer_sample_count is forced to 0:
	// sampling with no configured resize direction is pure wasted work
	// on the Update hot path.
	if out.BufferGrowThreshold == 0 && out.BufferShrinkThreshold == 0 {
		out.BufferSampleCount = 0
	}

	return out
}
