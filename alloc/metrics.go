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
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the Prometheus instruments a Region reports through once
// attached with SetMetrics.
type Metrics struct {
	Allocs     prometheus.Counter
	Frees      prometheus.Counter
	AllocBytes prometheus.Counter
	OutOfSpace prometheus.Counter
	FreeBytes  prometheus.Gauge
}

// NewMetrics builds and registers the allocator's instruments with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		Allocs: f.NewCounter(prometheus.CounterOpts{
			Name: "shmalloc_allocs_total",
			Help: "Completed arena allocations.",
		}),
		Frees: f.NewCounter(prometheus.CounterOpts{
			Name: "shmalloc_frees_total",
			Help: "Completed arena deallocations.",
		}),
		AllocBytes: f.NewCounter(prometheus.CounterOpts{
			Name: "shmalloc_allocated_bytes_total",
			Help: "Bytes handed out by the arena, as requested by callers.",
		}),
		OutOfSpace: f.NewCounter(prometheus.CounterOpts{
			Name: "shmalloc_out_of_space_total",
			Help: "Allocations refused because the arena had no fitting block.",
		}),
		FreeBytes: f.NewGauge(prometheus.GaugeOpts{
			Name: "shmalloc_free_bytes",
			Help: "Bytes currently on the arena free list.",
		}),
	}
}
