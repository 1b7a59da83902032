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

// Package logcontroller implements LogController: the per-logger
// composition of a MemoryManager, a DispatchQueue, a set of
// decorators, and the sinks that ultimately consume rendered text.
package logcontroller

import (
	"sync/atomic"

	"github.com/nanolog/nanolog/contextwriter"
	"github.com/nanolog/nanolog/dispatch"
	"github.com/nanolog/nanolog/formatter"
	"github.com/nanolog/nanolog/memmanager"
	"github.com/nanolog/nanolog/nanoerr"
	"github.com/nanolog/nanolog/payload"
	"github.com/nanolog/nanolog/selflog"
	"github.com/nanolog/nanolog/spinlock"
	"github.com/nanolog/nanolog/timestamp"
)

// Config bundles the construction parameters for a LogController.
// DispatchQueueSize lives on the embedded memmanager.Config since it's
// already one of MemoryManager's own recognized configuration
// parameters.
type Config struct {
	Memory   memmanager.Config
	MinLevel dispatch.Level
}

// LogController is the per-logger object. Construct with New; zero
// value is not usable.
type LogController struct {
	mm    *memmanager.MemoryManager
	queue *dispatch.Queue
	fmt   *formatter.Formatter

	minLevel int32 // atomic, dispatch.Level

	mu           spinlock.RW
	decorators   decoratorSet
	sinks        []Sink
	sinkInterest uint64 // atomic snapshot of sinkInterestMask(sinks)
}

// New constructs a LogController with its own MemoryManager,
// DispatchQueue, and a ContextWriterRegistry pre-loaded with the
// builtin primitive writers.
func New(cfg Config) *LogController {
	sanitized := cfg.Memory.Sanitized()
	c := &LogController{
		mm:    memmanager.New(sanitized),
		queue: dispatch.New(sanitized.DispatchQueueSize),
		fmt:   formatter.New(contextwriter.NewWithBuiltins()),
	}
	atomic.StoreInt32(&c.minLevel, int32(cfg.MinLevel))
	return c
}

// Memory exposes the controller's MemoryManager, e.g. for a periodic
// workerpool.Runner.RunTicker driving Update().
func (c *LogController) Memory() *memmanager.MemoryManager { return c.mm }

// SetMinLevel changes the minimum level messages must meet to be
// built at all.
func (c *LogController) SetMinLevel(level dispatch.Level) {
	atomic.StoreInt32(&c.minLevel, int32(level))
}

func (c *LogController) minLevelValue() dispatch.Level {
	return dispatch.Level(atomic.LoadInt32(&c.minLevel))
}

// AddSink registers a sink and recomputes the cached interest bitmap.
func (c *LogController) AddSink(s Sink) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sinks = append(c.sinks, s)
	atomic.StoreUint64(&c.sinkInterest, sinkInterestMask(c.sinks))
}

// RegisterDecorator adds dec to every subsequently-built message.
func (c *LogController) RegisterDecorator(dec Decorator) (int, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	h, ok := c.decorators.add(dec)
	return int(h), ok
}

// DeregisterDecorator removes a previously-registered decorator.
func (c *LogController) DeregisterDecorator(handle int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.decorators.remove(decoratorHandle(handle))
}

// HasSinksFor reports whether any registered sink would consume a
// message at level — the fast-path check Log() uses to skip all
// allocation work entirely when nothing wants the message.
func (c *LogController) HasSinksFor(level dispatch.Level) bool {
	if level < c.minLevelValue() {
		return false
	}
	mask := atomic.LoadUint64(&c.sinkInterest)
	return mask&(1<<uint(level)) != 0
}

// Log builds a disjointed payload from tmpl and args (each already
// encoded via contextwriter.EncodeTag or one of its convenience
// wrappers), merges in every registered decorator's contribution, and
// enqueues it to the dispatch queue. If nothing is interested in
// level, Log returns immediately without allocating anything — the
// whole reason to gate on HasSinksFor first.
//
// A full dispatch queue is fatal for this one message only: the
// payload is force-released and the drop reported via SelfLog.
func (c *LogController) Log(level dispatch.Level, tmpl string, args ...[]byte) {
	if !c.HasSinksFor(level) {
		return
	}

	c.mu.RLock()
	extraSuffix := make([]string, 0, c.decorators.count())
	extraArgs := make([][]byte, 0, c.decorators.count())
	c.decorators.each(func(d Decorator) {
		extraSuffix = append(extraSuffix, d.TemplateSuffix)
		extraArgs = append(extraArgs, d.Value())
	})
	c.mu.RUnlock()

	fullTemplate := tmpl
	for _, suf := range extraSuffix {
		fullTemplate += suf
	}

	sizes := make([]int, 0, 1+len(args)+len(extraArgs))
	sizes = append(sizes, len(fullTemplate))
	for _, a := range args {
		sizes = append(sizes, len(a))
	}
	for _, a := range extraArgs {
		sizes = append(sizes, len(a))
	}

	head, children, ok := c.mm.AllocateDisjointedBuffer(sizes)
	if !ok {
		return // already reported by MemoryManager via SelfLog
	}

	writeChild(c.mm, children[0], []byte(fullTemplate))
	offset := 1
	for _, a := range args {
		writeChild(c.mm, children[offset], a)
		contextwriter.ReleaseEncoded(a)
		offset++
	}
	for _, a := range extraArgs {
		writeChild(c.mm, children[offset], a)
		contextwriter.ReleaseEncoded(a)
		offset++
	}

	msg := dispatch.LogMessage{
		Payload:     head,
		TimestampNs: timestamp.Now(),
		Level:       level,
	}
	if !c.queue.Push(msg) {
		c.mm.ForceReleasePayloads([]payload.Handle{head})
		selflog.Report(nanoerr.FailedToEnqueueLogMessage, "dispatch queue full, message dropped")
	}
}

func writeChild(mm *memmanager.MemoryManager, h payload.Handle, data []byte) {
	buf, ok := mm.RetrievePayloadBuffer(h)
	if !ok {
		return
	}
	copy(buf, data)
}

// DrainOne pops and renders a single queued message, handing the
// result to every interested sink, then releases the payload. Returns
// false if the queue was empty. Intended to be called in a tight loop
// by a workerpool worker.
func (c *LogController) DrainOne() bool {
	msg, ok := c.queue.Pop()
	if !ok {
		return false
	}

	c.mu.RLock()
	sinks := c.sinks
	c.mu.RUnlock()

	line, ok := c.fmt.Format(c.mm, msg.Payload)
	if ok {
		for _, s := range sinks {
			if s.Interested(msg.Level) {
				s.Write(msg, line)
			}
		}
	}
	c.mm.ReleasePayloadBuffer(msg.Payload, false)
	return true
}
