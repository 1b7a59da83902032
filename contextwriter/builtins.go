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
	"strconv"

	"github.com/nanolog/nanolog/typeid"
)

func registerBuiltins(r *Registry) {
	r.Register(typeid.Bool, writeBool)
	r.Register(typeid.Int8, writeInt8)
	r.Register(typeid.Int16, writeInt16)
	r.Register(typeid.Int32, writeInt32)
	r.Register(typeid.Int64, writeInt64)
	r.Register(typeid.Uint8, writeUint8)
	r.Register(typeid.Uint16, writeUint16)
	r.Register(typeid.Uint32, writeUint32)
	r.Register(typeid.Uint64, writeUint64)
	r.Register(typeid.Float32, writeFloat32)
	r.Register(typeid.Float64, writeFloat64)
	r.Register(typeid.Char, writeChar)

	fixedSizes := map[typeid.TypeId]int{
		typeid.String32:   32,
		typeid.String64:   64,
		typeid.String128:  128,
		typeid.String512:  512,
		typeid.String4096: 4096,
	}
	for id, cap := range fixedSizes {
		cap := cap
		r.Register(id, func(dst, p []byte) []byte {
			return writeFixedString(dst, p, cap)
		})
	}
}

func writeBool(dst, p []byte) []byte {
	if len(p) == 0 {
		return append(dst, "False"...)
	}
	if p[0] != 0 {
		return append(dst, "True"...)
	}
	return append(dst, "False"...)
}

func writeInt8(dst, p []byte) []byte {
	if len(p) < 1 {
		return dst
	}
	return strconv.AppendInt(dst, int64(int8(p[0])), 10)
}

func writeInt16(dst, p []byte) []byte {
	if len(p) < 2 {
		return dst
	}
	return strconv.AppendInt(dst, int64(int16(binary.LittleEndian.Uint16(p))), 10)
}

func writeInt32(dst, p []byte) []byte {
	if len(p) < 4 {
		return dst
	}
	return strconv.AppendInt(dst, int64(int32(binary.LittleEndian.Uint32(p))), 10)
}

func writeInt64(dst, p []byte) []byte {
	if len(p) < 8 {
		return dst
	}
	return strconv.AppendInt(dst, int64(binary.LittleEndian.Uint64(p)), 10)
}

func writeUint8(dst, p []byte) []byte {
	if len(p) < 1 {
		return dst
	}
	return strconv.AppendUint(dst, uint64(p[0]), 10)
}

func writeUint16(dst, p []byte) []byte {
	if len(p) < 2 {
		return dst
	}
	return strconv.AppendUint(dst, uint64(binary.LittleEndian.Uint16(p)), 10)
}

func writeUint32(dst, p []byte) []byte {
	if len(p) < 4 {
		return dst
	}
	return strconv.AppendUint(dst, uint64(binary.LittleEndian.Uint32(p)), 10)
}

func writeUint64(dst, p []byte) []byte {
	if len(p) < 8 {
		return dst
	}
	return strconv.AppendUint(dst, binary.LittleEndian.Uint64(p), 10)
}

func writeFloat32(dst, p []byte) []byte {
	if len(p) < 4 {
		return dst
	}
	v := math.Float32frombits(binary.LittleEndian.Uint32(p))
	return strconv.AppendFloat(dst, float64(v), 'g', -1, 32)
}

func writeFloat64(dst, p []byte) []byte {
	if len(p) < 8 {
		return dst
	}
	v := math.Float64frombits(binary.LittleEndian.Uint64(p))
	return strconv.AppendFloat(dst, v, 'g', -1, 64)
}

func writeChar(dst, p []byte) []byte {
	if len(p) < 4 {
		return dst
	}
	r := rune(binary.LittleEndian.Uint32(p))
	return append(dst, string(r)...)
}

// writeFixedString renders a fixed-capacity string payload: UTF-8
// bytes up to cap, NUL-padded. Trailing NULs are trimmed since the
// capacity is a storage bound, not part of the logical value.
func writeFixedString(dst, p []byte, cap int) []byte {
	n := len(p)
	if n > cap {
		n = cap
	}
	end := n
	for end > 0 && p[end-1] == 0 {
		end--
	}
	return append(dst, p[:end]...)
}
