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

// Package workerpool runs a LogController's two background loops — the
// periodic MemoryManager.Update() tick and the DispatchQueue drain
// loop — each panic-isolated so a bug rendering one message, or one
// bad Update cycle, can't take the whole process down with it.
//
// Adapted from concurrency/gopool.GoPool's panic-recovery idiom
// (recover + log.Printf by default, overridable via SetPanicHandler).
// gopool itself is an elastic pool for bursty one-off background
// tasks; this package's jobs are exactly two long-lived loops known
// ahead of time, so the elastic worker/idle-timeout machinery that
// gopool needs doesn't apply here — only its panic-containment
// pattern survives into Runner.recoverLoop.
package workerpool

import (
	"context"
	"log"
	"runtime/debug"
	"sync"
	"time"
)

// PanicHandler is invoked (recover()'d value, not re-panicked) whenever
// a loop function panics.
type PanicHandler func(label string, r interface{})

// Runner supervises a fixed set of named background loops.
type Runner struct {
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu      sync.Mutex
	onPanic PanicHandler
}

// New constructs a Runner. Call Stop to shut every loop down.
func New() *Runner {
	ctx, cancel := context.WithCancel(context.Background())
	return &Runner{ctx: ctx, cancel: cancel}
}

// SetPanicHandler overrides the default log.Printf-and-continue panic
// handler.
func (r *Runner) SetPanicHandler(f PanicHandler) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.onPanic = f
}

func (r *Runner) handlePanic(label string, rec interface{}) {
	r.mu.Lock()
	h := r.onPanic
	r.mu.Unlock()
	if h != nil {
		h(label, rec)
		return
	}
	log.Printf("workerpool: panic in %s: %v\n%s", label, rec, debug.Stack())
}

// recoverLoop runs fn once, catching and reporting any panic rather
// than letting it propagate into the calling goroutine. Returns
// whether fn returned normally (true) or panicked (false) so the
// caller can decide to restart it.
func (r *Runner) recoverLoop(label string, fn func()) (ok bool) {
	defer func() {
		if rec := recover(); rec != nil {
			r.handlePanic(label, rec)
			ok = false
		}
	}()
	fn()
	return true
}

// RunTicker starts a goroutine that calls fn every interval until
// Stop is called. A panic inside fn is contained and logged; the
// ticker keeps running on the next tick.
func (r *Runner) RunTicker(label string, interval time.Duration, fn func()) {
	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		t := time.NewTicker(interval)
		defer t.Stop()
		for {
			select {
			case <-r.ctx.Done():
				return
			case <-t.C:
				r.recoverLoop(label, fn)
			}
		}
	}()
}

// RunLoop starts a goroutine that calls fn repeatedly until Stop is
// called, pausing for idleBackoff whenever fn reports no work was
// done (returns false) so an empty queue doesn't spin a CPU core.
func (r *Runner) RunLoop(label string, idleBackoff time.Duration, fn func() bool) {
	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		for {
			select {
			case <-r.ctx.Done():
				return
			default:
			}

			var didWork bool
			r.recoverLoop(label, func() {
				didWork = fn()
			})
			if !didWork {
				select {
				case <-r.ctx.Done():
					return
				case <-time.After(idleBackoff):
				}
			}
		}
	}()
}

// Stop signals every running loop to exit and waits for them to do so.
func (r *Runner) Stop() {
	r.cancel()
	r.wg.Wait()
}
