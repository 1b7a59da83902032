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

package spinlock

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestExclusiveMutualExclusion(t *testing.T) {
	var l Exclusive
	var counter int
	var wg sync.WaitGroup
	const goroutines = 32
	const perGoroutine = 200
	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < perGoroutine; j++ {
				close := Guard(&l)
				counter++
				close()
			}
		}()
	}
	wg.Wait()
	require.Equal(t, goroutines*perGoroutine, counter)
}

func TestRWAllowsConcurrentReaders(t *testing.T) {
	var l RW
	var wg sync.WaitGroup
	const readers = 16
	start := make(chan struct{})
	for i := 0; i < readers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			close := RGuard(&l)
			defer close()
		}()
	}
	close(start)
	wg.Wait()
}

func TestRWWriterExcludesReaders(t *testing.T) {
	var l RW
	var value int32
	var wg sync.WaitGroup
	const writers = 8
	const perWriter = 100
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < perWriter; j++ {
				close := WGuard(&l)
				value++
				close()
			}
		}()
	}
	wg.Wait()
	require.Equal(t, int32(writers*perWriter), value)
}
