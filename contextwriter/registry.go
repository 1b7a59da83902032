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

// Package contextwriter implements the ContextWriterRegistry: a
// TypeId -> formatter function table that lets Formatter turn an
// opaque context payload's raw bytes into text without knowing its
// concrete type.
package contextwriter

import (
	"github.com/nanolog/nanolog/spinlock"
	"github.com/nanolog/nanolog/typeid"
)

// WriteFunc appends the textual rendering of payload (the raw context
// payload bytes registered under some TypeId, sans the TypeId tag
// itself) to dst, returning the grown slice. Writers never error — the
// formatter itself is lenient, and a writer that can't make sense of
// its bytes still has to produce something.
type WriteFunc func(dst []byte, payload []byte) []byte

// Registry is a concurrent TypeId -> WriteFunc table. The zero value
// is not usable; construct with New.
type Registry struct {
	mu      spinlock.RW
	writers map[typeid.TypeId]WriteFunc
}

// New constructs an empty Registry. Most callers want NewWithBuiltins.
func New() *Registry {
	return &Registry{writers: make(map[typeid.TypeId]WriteFunc)}
}

// NewWithBuiltins constructs a Registry pre-registered with the
// builtin primitive writers (bounded ints, floats, bool, char,
// fixed-capacity strings).
func NewWithBuiltins() *Registry {
	r := New()
	registerBuiltins(r)
	return r
}

// Register associates id with fn, overwriting any previous
// registration — generated wrappers may re-register across hot
// reloads.
func (r *Registry) Register(id typeid.TypeId, fn WriteFunc) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.writers[id] = fn
}

// Deregister removes id's writer, if any.
func (r *Registry) Deregister(id typeid.TypeId) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.writers, id)
}

// Lookup returns id's writer, if registered.
func (r *Registry) Lookup(id typeid.TypeId) (WriteFunc, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	fn, ok := r.writers[id]
	return fn, ok
}
