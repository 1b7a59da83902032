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
	"testing"

	"github.com/nanolog/nanolog/typeid"
	"github.com/stretchr/testify/require"
)

func TestBuiltinIntRoundTrip(t *testing.T) {
	r := NewWithBuiltins()
	fn, ok := r.Lookup(typeid.Int32)
	require.True(t, ok)

	p := make([]byte, 4)
	v := int32(-42)
	binary.LittleEndian.PutUint32(p, uint32(v))
	out := fn(nil, p)
	require.Equal(t, "-42", string(out))
}

func TestBuiltinBool(t *testing.T) {
	r := NewWithBuiltins()
	fn, _ := r.Lookup(typeid.Bool)
	require.Equal(t, "True", string(fn(nil, []byte{1})))
	require.Equal(t, "False", string(fn(nil, []byte{0})))
}

func TestFixedStringTrimsTrailingNULs(t *testing.T) {
	r := NewWithBuiltins()
	fn, ok := r.Lookup(typeid.String32)
	require.True(t, ok)

	buf := make([]byte, 32)
	copy(buf, "hello")
	out := fn(nil, buf)
	require.Equal(t, "hello", string(out))
}

func TestRegisterOverwritesAndDeregister(t *testing.T) {
	r := New()
	custom := typeid.DeriveTypeID("widget")
	r.Register(custom, func(dst, p []byte) []byte { return append(dst, "widget"...) })
	fn, ok := r.Lookup(custom)
	require.True(t, ok)
	require.Equal(t, "widget", string(fn(nil, nil)))

	r.Deregister(custom)
	_, ok = r.Lookup(custom)
	require.False(t, ok)
}
