/*
 * Copyright 2025 SREDiag Authors
 * Copyright 2023 CloudWeGo Authors
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

package alloc

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"time"

	"github.com/valyala/bytebufferpool"
)

type logger struct {
	name      string
	out       io.Writer
	callDepth int
}

var (
	internalLogger = &logger{"", os.Stdout, 4}
	level          = levelWarn

	magenta = string([]byte{27, 91, 57, 53, 109}) // Trace
	green   = string([]byte{27, 91, 57, 50, 109}) // Debug
	blue    = string([]byte{27, 91, 57, 52, 109}) // Info
	yellow  = string([]byte{27, 91, 57, 51, 109}) // Warn
	red     = string([]byte{27, 91, 57, 49, 109}) // Error
	reset   = string([]byte{27, 91, 48, 109})

	colors = []string{magenta, green, blue, yellow, red}

	levelName = []string{"Trace", "Debug", "Info", "Warn", "Error"}
)

const (
	levelTrace = iota
	levelDebug
	levelInfo
	levelWarn
	levelError
	levelNoPrint
)

// SetLogLevel changes the internal logger's level; the default is Warning.
// The process env `SHMALLOC_LOG_LEVEL` can also set the level.
func SetLogLevel(l int) {
	if l <= levelNoPrint {
		level = l
	}
}

func (l *logger) errorf(format string, a ...interface{}) { l.logf(levelError, format, a...) }
func (l *logger) warnf(format string, a ...interface{})  { l.logf(levelWarn, format, a...) }
func (l *logger) infof(format string, a ...interface{})  { l.logf(levelInfo, format, a...) }
func (l *logger) debugf(format string, a ...interface{}) { l.logf(levelDebug, format, a...) }

func (l *logger) logf(lv int, format string, a ...interface{}) {
	if level > lv {
		return
	}
	if _, err := fmt.Fprintf(l.out, l.prefix(lv)+format+reset+"\n", a...); err != nil {
		fmt.Fprintf(os.Stderr, "logger write failed: %v\n", err)
	}
}

func (l *logger) prefix(lv int) string {
	bb := bytebufferpool.Get()
	defer bytebufferpool.Put(bb)
	_, _ = bb.WriteString(colors[lv])
	_, _ = bb.WriteString(levelName[lv])
	_ = bb.WriteByte(' ')
	_, _ = bb.WriteString(time.Now().Format("2006-01-02 15:04:05.999999"))
	_ = bb.WriteByte(' ')
	_, _ = bb.WriteString(l.location())
	_ = bb.WriteByte(' ')
	_, _ = bb.WriteString(l.name)
	_ = bb.WriteByte(' ')
	return bb.String()
}

func (l *logger) location() string {
	_, file, line, ok := runtime.Caller(l.callDepth)
	if !ok {
		file = "???"
		line = 0
	}
	file = filepath.Base(file)
	return file + ":" + strconv.Itoa(line)
}

// DumpArena renders the arena header and the free-list chain, for diagnosing
// fragmentation or a suspect list. The walk is bounded, so it terminates even
// on a corrupt cycle.
func DumpArena(a *Arena) string {
	bb := bytebufferpool.Get()
	defer bytebufferpool.Put(bb)

	fmt.Fprintf(bb, "arena cap=%d free=%d head=%d", a.capacity(), a.freeBytes(), a.freeHead())
	head := a.freeHead()
	if head == nilOffset {
		bb.WriteString(" (free list not built)")
		return bb.String()
	}
	limit := a.capacity() / blockUnitSize
	curr := head
	for steps := uint64(0); ; steps++ {
		if steps > limit || !a.validBlockOffset(curr) {
			bb.WriteString(" <corrupt>")
			break
		}
		fmt.Fprintf(bb, " [off=%d units=%d]", curr, a.blockSize(curr))
		curr = a.blockNext(curr)
		if curr == head {
			break
		}
	}
	return bb.String()
}
