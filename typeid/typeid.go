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

// Package typeid defines the 8-byte TypeId tag that precedes every
// context payload and a stable way to derive one from a type name at
// registration time.
package typeid

import "unsafe"

// TypeId identifies the writer function registered for a context
// payload's shape. It is the first 8 bytes of every context payload.
type TypeId uint64

// Invalid is never assigned to a registered writer.
const Invalid TypeId = 0

// Builtin primitive TypeIds, pre-registered by contextwriter.NewWithBuiltins.
// Fixed constants (rather than derived) so they're stable across
// processes and binaries.
const (
	Bool TypeId = iota + 1
	Int8
	Int16
	Int32
	Int64
	Uint8
	Uint16
	Uint32
	Uint64
	Float32
	Float64
	Char
	String32
	String64
	String128
	String512
	String4096

	firstUserTypeID = 1 << 16
)

// FixedStringCapacities lists the fixed-capacity UTF-8 string writer
// sizes registered by contextwriter.NewWithBuiltins.
var FixedStringCapacities = [...]int{32, 64, 128, 512, 4096}

// DeriveTypeID derives a stable TypeId for a user type name, the way
// generated Log.Info wrappers (external to this core) would tag a
// struct writer at build time. Adapted from the FNV-1a-over-
// unsafe-bytes technique the pack uses for fast, allocation-free
// hashing of identifiers (hash/xfnv in the teacher corpus): we fold
// the hash into the user range so generated IDs never collide with
// the fixed builtin constants above.
func DeriveTypeID(name string) TypeId {
	h := fnvHashStr(name)
	id := TypeId(h)
	if id < firstUserTypeID {
		id += firstUserTypeID
	}
	return id
}

const (
	fnvOffset64 = uint64(14695981039346656037)
	fnvPrime64  = uint64(1099511628211)
)

// fnvHashStr hashes a string's bytes without copying them into a
// []byte first, reading 8 bytes at a time the way xfnv does; this
// matters only at registration time (not the hot path) but keeping
// the same technique avoids reaching for a different hashing idiom
// for the one spot in this module that needs a string hash.
func fnvHashStr(s string) uint64 {
	h := fnvOffset64
	data := unsafe.Pointer(unsafe.StringData(s))
	n := len(s)
	i := 0
	for ; i+8 <= n; i += 8 {
		v := *(*uint64)(unsafe.Add(data, i))
		h = (h ^ v) * fnvPrime64
	}
	for ; i < n; i++ {
		b := *(*byte)(unsafe.Add(data, i))
		h = (h ^ uint64(b)) * fnvPrime64
	}
	return h
}
