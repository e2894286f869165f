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
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	mnoop "go.opentelemetry.io/otel/metric/noop"
	tnoop "go.opentelemetry.io/otel/trace/noop"
)

func newNoopInstrumented(t *testing.T, a Allocator) *Instrumented {
	t.Helper()
	meter := mnoop.NewMeterProvider().Meter("shmalloc-test")
	tracer := tnoop.NewTracerProvider().Tracer("shmalloc-test")
	i, err := Instrument(a, meter, tracer)
	require.NoError(t, err)
	return i
}

func TestInstrumentedPassthrough(t *testing.T) {
	a := newTestArena(t, 4096)
	i := newNoopInstrumented(t, a)
	usable := a.FreeSize()

	p, err := i.Alloc(64)
	require.NoError(t, err)
	require.NotNil(t, p)
	assert.Equal(t, usable-blockBytes(64), i.FreeSize())
	assert.False(t, i.Unified())

	require.NoError(t, i.Free(p))
	assert.Equal(t, usable, i.FreeSize())
	assert.True(t, i.Unified())
}

func TestInstrumentedPropagatesErrors(t *testing.T) {
	a := newTestArena(t, 4096)
	i := newNoopInstrumented(t, a)

	_, err := i.Alloc(0)
	assert.ErrorIs(t, err, ErrZeroSizeAlloc)
	assert.ErrorIs(t, i.Free(make([]byte, 8)), ErrOutOfBounds)

	// Exhaustion stays a value, not an error, through the wrapper.
	p, err := i.Alloc(1 << 20)
	assert.NoError(t, err)
	assert.Nil(t, p)
}

func TestInstrumentedWithContext(t *testing.T) {
	a := newTestArena(t, 4096)
	i := newNoopInstrumented(t, a)

	scoped := i.WithContext(context.Background())
	require.NotNil(t, scoped)
	assert.NotSame(t, i, scoped)

	p, err := scoped.Alloc(32)
	require.NoError(t, err)
	require.NotNil(t, p)
	require.NoError(t, scoped.Free(p))
}
