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
	"sync"

	"github.com/nanolog/nanolog/nanoerr"
)

// TestReporter is the subset of *testing.T this package needs, so
// selflog itself never imports the "testing" package.
type TestReporter interface {
	Helper()
	Errorf(format string, args ...interface{})
}

// expectationScope consumes expected SelfLog events and asserts, on
// Close, that all of them were observed.
type expectationScope struct {
	mu       sync.Mutex
	t        TestReporter
	expected map[nanoerr.Code]int
	seen     map[nanoerr.Code]int
}

// ExpectScope opens an expectation scope: subsequent Report calls
// matching an Expect()-ed code are tallied, and Close fails t if any
// expectation was never satisfied. Only one scope may be open at a
// time; opening a second panics, the way the teacher's pool code
// treats clearly-a-bug call patterns as panics rather than silent
// misbehavior.
func ExpectScope(t TestReporter) *expectationScope {
	mu.Lock()
	defer mu.Unlock()
	if expect != nil {
		panic("selflog: expectation scope already open")
	}
	s := &expectationScope{
		t:        t,
		expected: map[nanoerr.Code]int{},
		seen:     map[nanoerr.Code]int{},
	}
	expect = s
	return s
}

// Expect registers that code is expected to be reported count times
// (default 1) before Close.
func (s *expectationScope) Expect(code nanoerr.Code, count int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if count <= 0 {
		count = 1
	}
	s.expected[code] += count
}

func (s *expectationScope) observe(ev Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seen[ev.Code]++
}

// Close asserts every expectation was satisfied and releases the
// scope.
func (s *expectationScope) Close() {
	mu.Lock()
	expect = nil
	mu.Unlock()

	s.mu.Lock()
	defer s.mu.Unlock()
	s.t.Helper()
	for code, want := range s.expected {
		if s.seen[code] < want {
			s.t.Errorf("selflog: expected code %s to be reported %d time(s), saw %d", code, want, s.seen[code])
		}
	}
}
