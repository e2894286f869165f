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

// Allocator is the surface containers and other collaborators program
// against. It is implemented by *Arena (single buffer, caller-synchronized)
// and *Region (shared segment, lock-serialized).
type Allocator interface {
	// Alloc reserves n bytes. A nil slice with a nil error signals that the
	// allocator is out of space; errors are reserved for invalid requests.
	Alloc(n int) ([]byte, error)
	// Free returns a slice obtained from Alloc.
	Free(p []byte) error
	// FreeSize reports the bytes currently available.
	FreeSize() int
	// Unified reports whether the backing arena holds exactly one free
	// block, i.e. no live allocations and no fragmentation.
	Unified() bool
}

var (
	_ Allocator = (*Arena)(nil)
	_ Allocator = (*Region)(nil)
	_ Allocator = (*Instrumented)(nil)
)
