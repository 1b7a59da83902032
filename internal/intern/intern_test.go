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

package intern

import (
	"fmt"
	"testing"
	"unsafe"

	"github.com/stretchr/testify/require"
)

func TestInternReturnsSameBackingString(t *testing.T) {
	tbl := New()
	a := tbl.Intern(fmt.Sprintf("us%s", "er"))
	b := tbl.Intern("user")
	require.Equal(t, "user", a)
	require.Equal(t, 1, tbl.Len())
	require.Equal(t, unsafe.StringData(a), unsafe.StringData(b))
}

func TestInternGrowsPastInitialCapacity(t *testing.T) {
	tbl := New()
	for i := 0; i < initialCapacity*4; i++ {
		tbl.Intern(fmt.Sprintf("key-%d", i))
	}
	require.Equal(t, initialCapacity*4, tbl.Len())
	require.Equal(t, "key-5", tbl.Intern("key-5"))
}

func TestInternEmptyStringIsNoop(t *testing.T) {
	tbl := New()
	require.Equal(t, "", tbl.Intern(""))
	require.Equal(t, 0, tbl.Len())
}
