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

package selflog

import (
	"testing"

	"github.com/nanolog/nanolog/nanoerr"
	"github.com/stretchr/testify/require"
)

func TestReportDisabledIsNoop(t *testing.T) {
	Reset()
	SetMode(Disabled)
	defer SetMode(InMemory)

	Report(nanoerr.UnknownTypeId, "test")
	require.Empty(t, Events())
}

func TestReportInMemoryBuffers(t *testing.T) {
	Reset()
	SetMode(InMemory)

	Report(nanoerr.UnknownTypeId, "TypeId: 42")
	evs := Events()
	require.Len(t, evs, 1)
	require.Equal(t, nanoerr.UnknownTypeId, evs[0].Code)
	require.Equal(t, "TypeId: 42", evs[0].Message)
}

func TestExpectationScopeSatisfied(t *testing.T) {
	Reset()
	SetMode(InMemory)

	scope := ExpectScope(t)
	scope.Expect(nanoerr.UnknownTypeId, 2)
	Report(nanoerr.UnknownTypeId, "a")
	Report(nanoerr.UnknownTypeId, "b")
	scope.Close()
}

func TestExpectationScopeDetectsUnsatisfied(t *testing.T) {
	Reset()
	SetMode(InMemory)

	fake := &fakeT{}
	scope := ExpectScope(fake)
	scope.Expect(nanoerr.UnknownTypeId, 1)
	scope.Close()
	require.True(t, fake.failed)
}

type fakeT struct {
	failed bool
}

func (f *fakeT) Helper() {}
func (f *fakeT) Errorf(format string, args ...interface{}) {
	f.failed = true
}
