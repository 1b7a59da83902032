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

package contextwriter

import (
	"encoding/binary"
	"math"

	"github.com/nanolog/nanolog/bufpool"
	"github.com/nanolog/nanolog/typeid"
)

// EncodeTag prepends id as an 8-byte little-endian tag to value,
// producing the wire shape a context payload always has: a TypeId
// followed by the type's raw value bytes. Generated call-site
// wrappers, external to this core, are expected to build arguments
// this way.
//
// The returned slice is borrowed from bufpool rather than freshly
// made: it's only ever read once, by logcontroller.LogController.Log
// while copying it into the message's own disjointed payload, which
// returns it to the pool via ReleaseEncoded right after.
func EncodeTag(id typeid.TypeId, value []byte) []byte {
	out := bufpool.Get(8 + len(value))
	binary.LittleEndian.PutUint64(out[:8], uint64(id))
	copy(out[8:], value)
	return out
}

// ReleaseEncoded returns a slice built by EncodeTag (or one of its
// convenience wrappers) back to bufpool. Safe to call on any byte
// slice, pooled or not — bufpool.Put silently drops any slice whose
// capacity is not one of its bucket sizes.
func ReleaseEncoded(buf []byte) {
	bufpool.Put(buf)
}

// EncodeBool, EncodeInt64, EncodeFloat64 and EncodeString are small
// convenience encoders over EncodeTag for the builtin primitive
// TypeIds, used by callers (including cmd/nanologdemo) that aren't
// going through generated code.

func EncodeBool(v bool) []byte {
	b := byte(0)
	if v {
		b = 1
	}
	return EncodeTag(typeid.Bool, []byte{b})
}

func EncodeInt64(v int64) []byte {
	buf := bufpool.Get(8)
	binary.LittleEndian.PutUint64(buf, uint64(v))
	out := EncodeTag(typeid.Int64, buf)
	bufpool.Put(buf)
	return out
}

func EncodeFloat64(v float64) []byte {
	buf := bufpool.Get(8)
	binary.LittleEndian.PutUint64(buf, math.Float64bits(v))
	out := EncodeTag(typeid.Float64, buf)
	bufpool.Put(buf)
	return out
}

func EncodeString(v string) []byte {
	size := len(v)
	id := typeid.String4096
	switch {
	case size <= 32:
		id, size = typeid.String32, 32
	case size <= 64:
		id, size = typeid.String64, 64
	case size <= 128:
		id, size = typeid.String128, 128
	case size <= 512:
		id, size = typeid.String512, 512
	default:
		size = 4096
	}
	buf := bufpool.Get(size)
	// Pooled buffers keep their previous contents; the padding after v
	// must be NUL so writeFixedString trims it.
	clear(buf[copy(buf, v):])
	out := EncodeTag(id, buf)
	bufpool.Put(buf)
	return out
}
