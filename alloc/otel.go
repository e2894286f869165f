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

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

// Instrumented wraps an Allocator with OpenTelemetry spans and counters.
// It implements Allocator itself, so it can be handed to any consumer of
// the plain surface.
type Instrumented struct {
	inner  Allocator
	tracer trace.Tracer
	ctx    context.Context

	allocs     metric.Int64Counter
	frees      metric.Int64Counter
	allocBytes metric.Int64Counter
	outOfSpace metric.Int64Counter
}

// Instrument wraps a with the given meter and tracer.
func Instrument(a Allocator, meter metric.Meter, tracer trace.Tracer) (*Instrumented, error) {
	allocs, err := meter.Int64Counter("shmalloc.allocs")
	if err != nil {
		return nil, err
	}
	frees, err := meter.Int64Counter("shmalloc.frees")
	if err != nil {
		return nil, err
	}
	allocBytes, err := meter.Int64Counter("shmalloc.allocated_bytes")
	if err != nil {
		return nil, err
	}
	outOfSpace, err := meter.Int64Counter("shmalloc.out_of_space")
	if err != nil {
		return nil, err
	}
	return &Instrumented{
		inner:      a,
		tracer:     tracer,
		ctx:        context.Background(),
		allocs:     allocs,
		frees:      frees,
		allocBytes: allocBytes,
		outOfSpace: outOfSpace,
	}, nil
}

// WithContext returns a view of the wrapper whose spans and measurements
// are parented on ctx.
func (i *Instrumented) WithContext(ctx context.Context) *Instrumented {
	c := *i
	c.ctx = ctx
	return &c
}

func (i *Instrumented) Alloc(n int) ([]byte, error) {
	ctx, span := i.tracer.Start(i.ctx, "alloc.Alloc",
		trace.WithAttributes(attribute.Int("bytes", n)))
	defer span.End()
	p, err := i.inner.Alloc(n)
	switch {
	case err != nil:
		span.RecordError(err)
	case p == nil:
		i.outOfSpace.Add(ctx, 1)
	default:
		i.allocs.Add(ctx, 1)
		i.allocBytes.Add(ctx, int64(n))
	}
	return p, err
}

func (i *Instrumented) Free(p []byte) error {
	ctx, span := i.tracer.Start(i.ctx, "alloc.Free",
		trace.WithAttributes(attribute.Int("bytes", len(p))))
	defer span.End()
	err := i.inner.Free(p)
	if err != nil {
		span.RecordError(err)
		return err
	}
	i.frees.Add(ctx, 1)
	return nil
}

func (i *Instrumented) FreeSize() int {
	return i.inner.FreeSize()
}

func (i *Instrumented) Unified() bool {
	return i.inner.Unified()
}
