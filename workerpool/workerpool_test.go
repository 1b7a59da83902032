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

package workerpool

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestRunTickerFiresRepeatedly(t *testing.T) {
	r := New()
	var count int32
	r.RunTicker("tick", 5*time.Millisecond, func() {
		atomic.AddInt32(&count, 1)
	})
	time.Sleep(40 * time.Millisecond)
	r.Stop()
	require.GreaterOrEqual(t, atomic.LoadInt32(&count), int32(2))
}

func TestRunLoopSurvivesPanic(t *testing.T) {
	r := New()
	var panics int32
	r.SetPanicHandler(func(label string, rec interface{}) {
		atomic.AddInt32(&panics, 1)
	})

	var calls int32
	r.RunLoop("drain", time.Millisecond, func() bool {
		n := atomic.AddInt32(&calls, 1)
		if n == 3 {
			panic("boom")
		}
		return n < 10
	})

	time.Sleep(30 * time.Millisecond)
	r.Stop()
	require.GreaterOrEqual(t, atomic.LoadInt32(&calls), int32(3))
	require.Equal(t, int32(1), atomic.LoadInt32(&panics))
}

func TestStopIsIdempotentSafe(t *testing.T) {
	r := New()
	r.RunTicker("noop", time.Millisecond, func() {})
	time.Sleep(5 * time.Millisecond)
	r.Stop()
	require.NotPanics(t, r.Stop)
}
