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

package ring

import (
	"container/ring"
	"fmt"
	"math/rand"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
)

type ringItem struct {
	value int
}

func newRandomValue(n int) []int {
	vs := make([]int, 0, n)
	for i := 0; i < n; i++ {
		vs = append(vs, rand.Intn(n))
	}
	return vs
}

func newRingItemSlice(vs []int) []ringItem {
	items := make([]ringItem, 0, len(vs))
	for i := 0; i < len(vs); i++ {
		items = append(items, ringItem{value: vs[i]})
	}
	return items
}

func newStdRing(vs []ringItem) *ring.Ring {
	r := ring.New(len(vs))
	for i := 0; i < len(vs); i++ {
		r.Value = &vs[i]
		r = r.Next()
	}
	return r
}

func TestGetAndLen(t *testing.T) {
	n := 100
	vs := newRandomValue(n)
	r := NewFromSlice(newRingItemSlice(vs))

	assert.Equal(t, n, r.Len())
	for i := 0; i < n; i++ {
		it, ok := r.Get(i)
		assert.True(t, ok)
		assert.Equal(t, vs[i], it.Pointer().value)
	}
	_, ok := r.Get(-1)
	assert.False(t, ok)
	_, ok = r.Get(n)
	assert.False(t, ok)
}

func TestDoVisitsEveryValueInOrder(t *testing.T) {
	n := 100
	vs := newRandomValue(n)
	r := NewFromSlice(newRingItemSlice(vs))

	var visited []int
	r.Do(func(v *ringItem) { visited = append(visited, v.value) })
	assert.Equal(t, vs, visited)
}

func TestPointerMutatesInPlace(t *testing.T) {
	n := 10
	r := NewFromSlice(newRingItemSlice(newRandomValue(n)))
	for i := 0; i < n; i++ {
		it, _ := r.Get(i)
		it.Pointer().value = i * 2
	}
	for i := 0; i < n; i++ {
		it, _ := r.Get(i)
		assert.Equal(t, i*2, it.Pointer().value)
	}
}

func BenchmarkNew(b *testing.B) {
	nn := []int{100000, 400000}
	for _, n := range nn {
		vs := newRandomValue(n)

		b.Run(fmt.Sprintf("std-keysize_n_%d", n), func(b *testing.B) {
			b.ResetTimer()
			for j := 0; j < b.N; j++ {
				stdRing := newStdRing(newRingItemSlice(vs))
				_ = stdRing
			}
		})
		runtime.GC()

		b.Run(fmt.Sprintf("new-keysize_n_%d", n), func(b *testing.B) {
			b.ResetTimer()
			for j := 0; j < b.N; j++ {
				newRing := NewFromSlice(newRingItemSlice(vs))
				_ = newRing
			}
		})
		runtime.GC()
	}
}

func BenchmarkDo(b *testing.B) {
	nn := []int{10000, 40000}
	for _, n := range nn {
		vs := newRandomValue(n)
		b.Run(fmt.Sprintf("std-keysize_n_%d", n), func(b *testing.B) {
			b.ResetTimer()
			stdRing := newStdRing(newRingItemSlice(vs))
			for j := 0; j < b.N; j++ {
				stdRing.Do(func(i any) {})
			}
		})
		runtime.GC()

		b.Run(fmt.Sprintf("new-keysize_n_%d", n), func(b *testing.B) {
			b.ResetTimer()
			newRing := NewFromSlice(newRingItemSlice(vs))
			for j := 0; j < b.N; j++ {
				newRing.Do(func(i *ringItem) {})
			}
		})
		runtime.GC()
	}
}

func BenchmarkGC(b *testing.B) {
	nn := []int{100000, 400000}
	for _, n := range nn {
		vs := newRandomValue(n)

		b.Run(fmt.Sprintf("std-keysize_n_%d", n), func(b *testing.B) {
			stdRing := newStdRing(newRingItemSlice(vs))
			b.ResetTimer()
			for j := 0; j < b.N; j++ {
				runtime.GC()
			}
			runtime.KeepAlive(stdRing)
			stdRing = nil
			_ = stdRing
		})
		runtime.GC()

		b.Run(fmt.Sprintf("new-keysize_n_%d", n), func(b *testing.B) {
			newRing := NewFromSlice(newRingItemSlice(vs))
			b.ResetTimer()
			for j := 0; j < b.N; j++ {
				runtime.GC()
			}
			runtime.KeepAlive(newRing)
			newRing = nil
			_ = newRing
		})
		runtime.GC()
	}
}
