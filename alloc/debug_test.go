/*
 * Copyright 2025 SREDiag Authors
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
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoggerLevels(t *testing.T) {
	var buf bytes.Buffer
	saved := *internalLogger
	savedLevel := level
	internalLogger.out = &buf
	defer func() {
		*internalLogger = saved
		level = savedLevel
	}()

	SetLogLevel(levelError)
	internalLogger.warnf("suppressed")
	assert.Zero(t, buf.Len())

	SetLogLevel(levelDebug)
	internalLogger.debugf("value=%d", 42)
	out := buf.String()
	assert.Contains(t, out, "Debug")
	assert.Contains(t, out, "value=42")
	assert.Contains(t, out, "debug_test.go:")

	SetLogLevel(levelNoPrint)
	buf.Reset()
	internalLogger.errorf("nothing")
	assert.Zero(t, buf.Len())

	// Out-of-range levels are ignored.
	SetLogLevel(levelNoPrint + 1)
	assert.Equal(t, levelNoPrint, level)
}

func TestDumpArena(t *testing.T) {
	a := newTestArena(t, 4096)

	out := DumpArena(a)
	assert.Contains(t, out, "cap=4096")
	assert.Contains(t, out, "free list not built")

	p, err := a.Alloc(64)
	require.NoError(t, err)
	require.NotNil(t, p)

	out = DumpArena(a)
	assert.Contains(t, out, "units=0", "sentinel node")
	assert.NotContains(t, out, "corrupt")

	require.NoError(t, a.Free(p))
	assert.NotContains(t, DumpArena(a), "corrupt")
}

func TestDumpArenaBoundsCorruptList(t *testing.T) {
	a := newTestArena(t, 4096)
	p, err := a.Alloc(64)
	require.NoError(t, err)
	require.NotNil(t, p)

	// Point the sentinel's next somewhere off the grid. The dump must
	// terminate and flag it rather than loop.
	a.setBlockNext(a.freeHead(), 3)
	assert.Contains(t, DumpArena(a), "corrupt")
}
