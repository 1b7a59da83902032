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

// Package formatter implements the Formatter driver: it walks a
// disjointed payload's children — the message template followed by
// its context arguments — and renders one text line.
//
// A disjointed payload formatted by this package always has the
// template text as child 0 and the N positional context payloads
// (each an 8-byte TypeId tag followed by raw value bytes) as children
// 1..N, written that way by logcontroller.LogController.Log.
package formatter

import (
	"encoding/binary"

	"github.com/nanolog/nanolog/contextwriter"
	"github.com/nanolog/nanolog/internal/hack"
	"github.com/nanolog/nanolog/memmanager"
	"github.com/nanolog/nanolog/payload"
	"github.com/nanolog/nanolog/template"
	"github.com/nanolog/nanolog/typeid"
)

// Formatter renders disjointed log payloads to text against a shared
// ContextWriterRegistry. Safe for concurrent use: all state it touches
// (the registry, the MemoryManager) already guards itself.
type Formatter struct {
	writers *contextwriter.Registry
}

// New constructs a Formatter backed by registry. A nil registry is
// replaced with an empty one so Format still runs (every hole simply
// renders as empty, per the lenient/never-erroring requirement).
func New(registry *contextwriter.Registry) *Formatter {
	if registry == nil {
		registry = contextwriter.New()
	}
	return &Formatter{writers: registry}
}

// Format renders the disjointed payload at head into a line of text.
// Missing argument children, unregistered TypeIds, and malformed
// templates all degrade to partial output, matching the template
// parser's own leniency. ok is false only when the template child
// itself cannot be retrieved.
func (f *Formatter) Format(mm *memmanager.MemoryManager, head payload.Handle) (string, bool) {
	lb := getLineBuf()
	defer lb.release()

	ok := f.format(mm, head, lb)
	if !ok {
		return "", false
	}
	out := make([]byte, len(lb.bytes()))
	copy(out, lb.bytes())
	return string(out), true
}

func (f *Formatter) format(mm *memmanager.MemoryManager, head payload.Handle, lb *lineBuf) bool {
	rawTemplate, ok := mm.RetrieveDisjointedPayloadBuffer(head, 0)
	if !ok {
		return false
	}
	// The template bytes live in ring storage for as long as head stays
	// unreleased, which outlives this whole call — safe to view as a
	// string with no copy, the way the teacher's hack package is meant
	// to be used on the hot path.
	tpl := template.Parse(hack.ByteSliceToString(rawTemplate))

	argIdx := -1
	for _, tok := range tpl.Tokens {
		if tok.Kind == template.TokenLiteral {
			lb.append([]byte(tok.Literal))
			continue
		}

		childIndex := tok.Hole.Index
		if childIndex < 0 {
			argIdx++
			childIndex = argIdx
		} else {
			argIdx = childIndex
		}

		f.writeHole(mm, head, childIndex+1, tok.Hole, lb)
	}
	return true
}

// writeHole renders a single hole's value, applying alignment
// padding. A missing child, or a TypeId with no registered writer,
// renders as empty text rather than failing the whole line.
func (f *Formatter) writeHole(mm *memmanager.MemoryManager, head payload.Handle, childIndex int, h template.Hole, lb *lineBuf) {
	start := len(lb.bytes())

	raw, ok := mm.RetrieveDisjointedPayloadBuffer(head, childIndex)
	if ok && len(raw) >= 8 {
		id := typeid.TypeId(binary.LittleEndian.Uint64(raw[:8]))
		if fn, ok := f.writers.Lookup(id); ok {
			lb.buf = fn(lb.buf, raw[8:])
		}
	}

	written := len(lb.bytes()) - start
	if h.Alignment == 0 {
		return
	}
	width := h.Alignment
	leftAlign := width < 0
	if leftAlign {
		width = -width
	}
	if written >= width {
		return
	}
	pad := width - written
	if leftAlign {
		for i := 0; i < pad; i++ {
			lb.appendByte(' ')
		}
		return
	}
	// Right-align: shift the just-written value right by inserting
	// spaces before it.
	lb.grow(pad)
	buf := lb.buf
	buf = buf[:len(buf)+pad]
	copy(buf[start+pad:], buf[start:start+written])
	for i := 0; i < pad; i++ {
		buf[start+i] = ' '
	}
	lb.buf = buf
}
