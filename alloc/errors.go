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

import "errors"

var (
	// ErrArenaTooSmall reports a buffer below the minimum that can hold the
	// arena header plus two free-list nodes.
	ErrArenaTooSmall = errors.New("buffer smaller than minimum arena size")

	// ErrBadAlignment reports a buffer whose base address is not 8-byte
	// aligned; header words are accessed in place as uint64s.
	ErrBadAlignment = errors.New("buffer base is not 8-byte aligned")

	// ErrBadArenaHeader reports an attach to a buffer whose header does not
	// describe that buffer.
	ErrBadArenaHeader = errors.New("arena header does not match buffer")

	// ErrZeroSizeAlloc reports an allocation request for zero bytes.
	ErrZeroSizeAlloc = errors.New("cannot allocate zero bytes")

	// ErrSizeOverflow reports a slice request whose total byte size does
	// not fit in an int.
	ErrSizeOverflow = errors.New("allocation size overflows int")

	// ErrNilPointer reports an attempt to free a nil or empty slice.
	ErrNilPointer = errors.New("cannot free nil pointer")

	// ErrOutOfBounds reports a freed pointer whose range does not lie inside
	// the arena, or that does not sit on the allocator's block grid.
	ErrOutOfBounds = errors.New("pointer originates outside arena bounds")

	// ErrUninitialized reports a free against an arena whose free list was
	// never built; no pointer it could legitimately own exists yet.
	ErrUninitialized = errors.New("arena free list is uninitialized")

	// ErrFreeListCorrupted reports an inconsistent free list, typically the
	// result of unsynchronized concurrent mutation or an overrun.
	ErrFreeListCorrupted = errors.New("arena free list is corrupted")

	// ErrBadName reports an empty region name or one containing a path
	// separator.
	ErrBadName = errors.New("invalid shared region name")

	// ErrNameTooLong reports a region name longer than MaxNameLen.
	ErrNameTooLong = errors.New("shared region name too long")

	// ErrShmNoSpace reports that the shm filesystem cannot hold the
	// requested segment.
	ErrShmNoSpace = errors.New("not enough space left on shm device")

	// ErrBadRegionHeader reports a segment whose control header is absent
	// or inconsistent with the segment size.
	ErrBadRegionHeader = errors.New("shared region control header mismatch")

	// ErrRegionClosed reports use of a region handle after its Close.
	ErrRegionClosed = errors.New("shared region handle is closed")
)
