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

// Command nanologdemo wires MemoryManager, DispatchQueue, LogController,
// the template parser and Formatter together against a console sink,
// the way a generated Log.Info call site would use this core.
package main

import (
	"fmt"
	"os"
	"time"

	"github.com/nanolog/nanolog/contextwriter"
	"github.com/nanolog/nanolog/dispatch"
	"github.com/nanolog/nanolog/logcontroller"
	"github.com/nanolog/nanolog/memmanager"
	"github.com/nanolog/nanolog/selflog"
	"github.com/nanolog/nanolog/workerpool"
)

// consoleSink writes every message at or above min to stdout.
type consoleSink struct {
	min dispatch.Level
}

func (c consoleSink) Interested(level dispatch.Level) bool { return level >= c.min }

func (c consoleSink) Write(msg dispatch.LogMessage, line string) {
	fmt.Fprintf(os.Stdout, "[%s] %s\n", levelName(msg.Level), line)
}

func levelName(l dispatch.Level) string {
	switch l {
	case dispatch.LevelVerbose:
		return "VRB"
	case dispatch.LevelDebug:
		return "DBG"
	case dispatch.LevelInfo:
		return "INF"
	case dispatch.LevelWarning:
		return "WRN"
	case dispatch.LevelError:
		return "ERR"
	case dispatch.LevelFatal:
		return "FTL"
	default:
		return "???"
	}
}

func main() {
	selflog.SetMode(selflog.InMemoryAndMirrorToHostErrorChannel)

	ctrl := logcontroller.New(logcontroller.Config{
		Memory: memmanager.Config{
			InitialBufferCapacity: 64 << 10,
			BufferSampleCount:     100,
			BufferGrowThreshold:   0.75,
			BufferShrinkThreshold: 0.1,
			BufferGrowFactor:      2.0,
			BufferShrinkFactor:    0.5,
			OverflowBufferSize:    16 << 10,
			DispatchQueueSize:     4096,
		},
		MinLevel: dispatch.LevelVerbose,
	})
	ctrl.AddSink(consoleSink{min: dispatch.LevelVerbose})

	hostname, _ := os.Hostname()
	ctrl.RegisterDecorator(logcontroller.Decorator{
		TemplateSuffix: " host={host}",
		Value:          func() []byte { return contextwriter.EncodeString(hostname) },
	})

	runner := workerpool.New()
	runner.RunTicker("memmanager.Update", 50*time.Millisecond, ctrl.Memory().Update)
	runner.RunLoop("dispatch.drain", time.Millisecond, ctrl.DrainOne)

	for i := 0; i < 5; i++ {
		ctrl.Log(dispatch.LevelInfo, "tick {0} of {1}",
			contextwriter.EncodeInt64(int64(i+1)),
			contextwriter.EncodeInt64(5),
		)
		time.Sleep(10 * time.Millisecond)
	}

	ctrl.Log(dispatch.LevelWarning, "disk usage at {0,6:F1}%", contextwriter.EncodeFloat64(93.2))

	time.Sleep(100 * time.Millisecond)
	runner.Stop()

	for _, ev := range selflog.Events() {
		fmt.Fprintf(os.Stderr, "selflog: %s: %s\n", ev.Code, ev.Message)
	}
}
