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

package logcontroller

import (
	"testing"

	"github.com/nanolog/nanolog/contextwriter"
	"github.com/nanolog/nanolog/dispatch"
	"github.com/nanolog/nanolog/memmanager"
	"github.com/stretchr/testify/require"
)

type recordingSink struct {
	lines []string
	min   dispatch.Level
}

func (s *recordingSink) Interested(level dispatch.Level) bool { return level >= s.min }
func (s *recordingSink) Write(_ dispatch.LogMessage, line string) {
	s.lines = append(s.lines, line)
}

func TestLogWithNoSinksDoesNotAllocate(t *testing.T) {
	c := New(Config{Memory: memmanager.Config{InitialBufferCapacity: 4096}})
	c.Log(dispatch.LevelInfo, "hello {0}", contextwriter.EncodeInt64(1))
	require.False(t, c.DrainOne())
}

func TestLogDrainRendersToSink(t *testing.T) {
	c := New(Config{Memory: memmanager.Config{InitialBufferCapacity: 4096}})
	sink := &recordingSink{min: dispatch.LevelVerbose}
	c.AddSink(sink)

	c.Log(dispatch.LevelInfo, "count={0}", contextwriter.EncodeInt64(3))
	require.True(t, c.DrainOne())
	require.Equal(t, []string{"count=3"}, sink.lines)
}

func TestMinLevelFiltersMessages(t *testing.T) {
	c := New(Config{Memory: memmanager.Config{InitialBufferCapacity: 4096}, MinLevel: dispatch.LevelWarning})
	sink := &recordingSink{min: dispatch.LevelVerbose}
	c.AddSink(sink)

	c.Log(dispatch.LevelDebug, "ignored")
	require.False(t, c.DrainOne())

	c.Log(dispatch.LevelError, "kept")
	require.True(t, c.DrainOne())
}

func TestDecoratorAppendsToEveryMessage(t *testing.T) {
	c := New(Config{Memory: memmanager.Config{InitialBufferCapacity: 4096}})
	sink := &recordingSink{min: dispatch.LevelVerbose}
	c.AddSink(sink)

	host := "box-1"
	c.RegisterDecorator(Decorator{
		TemplateSuffix: " host={host}",
		Value:          func() []byte { return contextwriter.EncodeString(host) },
	})

	c.Log(dispatch.LevelInfo, "started")
	require.True(t, c.DrainOne())
	require.Equal(t, []string{"started host=box-1"}, sink.lines)
}

func TestDeregisterDecoratorStopsAppending(t *testing.T) {
	c := New(Config{Memory: memmanager.Config{InitialBufferCapacity: 4096}})
	sink := &recordingSink{min: dispatch.LevelVerbose}
	c.AddSink(sink)

	h, ok := c.RegisterDecorator(Decorator{
		TemplateSuffix: " x={0}",
		Value:          func() []byte { return contextwriter.EncodeInt64(1) },
	})
	require.True(t, ok)
	c.DeregisterDecorator(h)

	c.Log(dispatch.LevelInfo, "plain")
	require.True(t, c.DrainOne())
	require.Equal(t, []string{"plain"}, sink.lines)
}

func TestFullQueueForceReleasesPayload(t *testing.T) {
	c := New(Config{Memory: memmanager.Config{InitialBufferCapacity: 1 << 20, DispatchQueueSize: 1}})
	sink := &recordingSink{min: dispatch.LevelVerbose}
	c.AddSink(sink)

	c.Log(dispatch.LevelInfo, "first")
	c.Log(dispatch.LevelInfo, "second: the queue is already full") // dropped

	require.True(t, c.DrainOne())
	require.False(t, c.DrainOne())
	require.Equal(t, []string{"first"}, sink.lines)
}
