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
	"math"
	"unsafe"
)

// Typed helpers over Allocator, the surface a container adapter consumes.
// Values placed through them must not contain Go pointers when the
// allocator's memory is shared between processes: the other side has no
// idea what this process's addresses mean, and the GC has no idea the
// memory exists.

// New allocates a zeroed T inside the allocator. Returns (nil, nil) when
// the allocator is out of space.
func New[T any](a Allocator) (*T, error) {
	var zero T
	b, err := a.Alloc(int(unsafe.Sizeof(zero)))
	if err != nil || b == nil {
		return nil, err
	}
	clear(b)
	return (*T)(unsafe.Pointer(&b[0])), nil
}

// MakeSlice allocates a zeroed []T of length n inside the allocator.
// Returns (nil, nil) when the allocator is out of space.
func MakeSlice[T any](a Allocator, n int) ([]T, error) {
	if n <= 0 {
		return nil, ErrZeroSizeAlloc
	}
	var zero T
	size := int(unsafe.Sizeof(zero))
	if size > 0 && n > math.MaxInt/size {
		return nil, ErrSizeOverflow
	}
	b, err := a.Alloc(n * size)
	if err != nil || b == nil {
		return nil, err
	}
	clear(b)
	return unsafe.Slice((*T)(unsafe.Pointer(&b[0])), n), nil
}

// FreePtr returns a value obtained from New to the allocator.
func FreePtr[T any](a Allocator, p *T) error {
	if p == nil {
		return ErrNilPointer
	}
	var zero T
	return a.Free(unsafe.Slice((*byte)(unsafe.Pointer(p)), int(unsafe.Sizeof(zero))))
}

// FreeSlice returns a slice obtained from MakeSlice to the allocator.
func FreeSlice[T any](a Allocator, s []T) error {
	if len(s) == 0 {
		return ErrNilPointer
	}
	var zero T
	return a.Free(unsafe.Slice((*byte)(unsafe.Pointer(&s[0])), len(s)*int(unsafe.Sizeof(zero))))
}
