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

import "unsafe"

const (
	// blockUnitSize is the allocator's granularity. Block sizes are counted
	// in these units and every block spends one unit on its own header.
	blockUnitSize = 16

	// Block header layout, relative to the block offset.
	blockNextOffset = 0 // next free block (byte offset from buffer base)
	blockSizeOffset = 8 // block size in units, header included

	// Arena header layout, installed at offset 0 of the managed buffer.
	arenaCapOffset       = 0  // managed capacity in bytes
	arenaFreeStartOffset = 8  // offset of the first usable byte
	arenaFreeSizeOffset  = 16 // bytes currently on the free list
	arenaFreeHeadOffset  = 24 // rotating free-list head, nilOffset until built
	arenaHeaderSize      = 32

	// minArenaSize is the header plus room for the zero-size sentinel node
	// and one block header.
	minArenaSize = arenaHeaderSize + 2*blockUnitSize

	// nilOffset marks the absence of a block. Offset 0 holds the arena
	// header, so no block can ever live there.
	nilOffset = 0
)

// Arena is a first-fit allocator over a single contiguous buffer. The header
// and the address-ordered circular free list live inside that buffer, stored
// as byte offsets from the buffer base, so every process mapping the same
// bytes sees the same allocator state regardless of mapping address.
//
// An *Arena holds no state of its own: copies are shared views onto the same
// buffer. It performs no locking; concurrent Alloc/Free calls must be
// serialized by the caller.
type Arena struct {
	mem []byte
}

// NewArena installs an arena header at the front of buf and returns a handle
// over it. The free list itself is built lazily by the first allocation.
// The header must be installed exactly once per buffer; subsequent holders
// use AttachArena, since reinitializing would corrupt an in-use free list.
func NewArena(buf []byte) (*Arena, error) {
	if len(buf) < minArenaSize {
		return nil, ErrArenaTooSmall
	}
	if uintptr(unsafe.Pointer(&buf[0]))%8 != 0 {
		return nil, ErrBadAlignment
	}
	a := &Arena{mem: buf}
	a.setWord(arenaCapOffset, uint64(len(buf)))
	a.setWord(arenaFreeStartOffset, arenaHeaderSize)
	a.setWord(arenaFreeSizeOffset, uint64(len(buf)-minArenaSize))
	a.setWord(arenaFreeHeadOffset, nilOffset)
	return a, nil
}

// AttachArena returns a handle over a buffer whose header was already
// installed, typically a shared mapping initialized by another process. The
// header is validated against the buffer but never rewritten.
func AttachArena(buf []byte) (*Arena, error) {
	if len(buf) < minArenaSize {
		return nil, ErrArenaTooSmall
	}
	if uintptr(unsafe.Pointer(&buf[0]))%8 != 0 {
		return nil, ErrBadAlignment
	}
	a := &Arena{mem: buf}
	if a.capacity() != uint64(len(buf)) ||
		a.word(arenaFreeStartOffset) != arenaHeaderSize ||
		a.freeBytes() > uint64(len(buf)-minArenaSize) {
		return nil, ErrBadArenaHeader
	}
	if head := a.freeHead(); head != nilOffset && !a.validBlockOffset(head) {
		return nil, ErrBadArenaHeader
	}
	return a, nil
}

// Alloc reserves n bytes and returns a slice aimed at them inside the
// arena's buffer. A nil slice with a nil error means the arena cannot
// satisfy the request right now; the free list is left untouched so the
// caller may fall back or retry after freeing.
func (a *Arena) Alloc(n int) ([]byte, error) {
	if n <= 0 {
		return nil, ErrZeroSizeAlloc
	}
	units := uint64(n+blockUnitSize-1)/blockUnitSize + 1
	if units*blockUnitSize > a.freeBytes() {
		return nil, nil
	}

	last := a.freeHead()
	if last == nilOffset {
		last = a.buildFreeList()
	}

	// First-fit walk starting just past the block that served the previous
	// request; giving up when the walk wraps back to the starting node.
	limit := a.capacity() / blockUnitSize
	curr := a.blockNext(last)
	for steps := uint64(0); ; steps++ {
		if steps > limit || !a.validBlockOffset(curr) {
			return nil, ErrFreeListCorrupted
		}
		if size := a.blockSize(curr); size >= units {
			if size == units {
				a.setBlockNext(last, a.blockNext(curr))
			} else {
				// Carve the tail off the oversized block; the head stays
				// linked with its size reduced.
				a.setBlockSize(curr, size-units)
				curr += (size - units) * blockUnitSize
				a.setBlockSize(curr, units)
			}
			a.setWord(arenaFreeHeadOffset, last)
			a.setWord(arenaFreeSizeOffset, a.freeBytes()-units*blockUnitSize)
			payload := curr + blockUnitSize
			return a.mem[payload : payload+uint64(n) : payload+(units-1)*blockUnitSize], nil
		}
		if curr == a.freeHead() {
			return nil, nil
		}
		last, curr = curr, a.blockNext(curr)
	}
}

// Free returns an allocation obtained from Alloc to the arena, coalescing it
// with physically adjacent free blocks in both directions.
func (a *Arena) Free(p []byte) error {
	if len(p) == 0 {
		return ErrNilPointer
	}
	payload, err := a.offsetOf(p)
	if err != nil {
		return err
	}
	b := payload - blockUnitSize
	if !a.validBlockOffset(b) || b == a.word(arenaFreeStartOffset) {
		return ErrOutOfBounds
	}
	if a.freeHead() == nilOffset {
		return ErrUninitialized
	}
	freed := a.blockSize(b)
	if freed < 2 || b+freed*blockUnitSize > a.capacity() {
		return ErrFreeListCorrupted
	}

	// Locate the two free nodes bracketing b by address. Cases, in order:
	// b strictly between prev and its successor; prev is the highest node
	// and b lies above it; prev is the highest node and b lies below the
	// lowest (wrap). A single-node list satisfies the wrap test for any b.
	prev := a.freeHead()
	limit := a.capacity() / blockUnitSize
	for steps := uint64(0); ; steps++ {
		if steps > limit || !a.validBlockOffset(prev) {
			return ErrFreeListCorrupted
		}
		next := a.blockNext(prev)
		if b == prev || b == next {
			return ErrFreeListCorrupted
		}
		if b > prev && b < next {
			break
		}
		if prev >= next && (b > prev || b < next) {
			break
		}
		prev = next
	}

	next := a.blockNext(prev)
	// Forward merge with the following block when physically adjacent.
	if b+freed*blockUnitSize == next {
		a.setBlockSize(b, freed+a.blockSize(next))
		a.setBlockNext(b, a.blockNext(next))
	} else {
		a.setBlockNext(b, next)
	}
	// Backward merge with the preceding block when physically adjacent.
	if prev+a.blockSize(prev)*blockUnitSize == b {
		a.setBlockSize(prev, a.blockSize(prev)+a.blockSize(b))
		a.setBlockNext(prev, a.blockNext(b))
	} else {
		a.setBlockNext(prev, b)
	}
	a.setWord(arenaFreeHeadOffset, prev)
	a.setWord(arenaFreeSizeOffset, a.freeBytes()+freed*blockUnitSize)
	return nil
}

// FreeSize returns the number of bytes currently on the free list, block
// headers of free blocks included.
func (a *Arena) FreeSize() int {
	return int(a.freeBytes())
}

// Unified reports whether the free list holds exactly one block beyond the
// sentinel, meaning the arena is fully defragmented with no live
// allocations. An arena whose list was never built is not unified, and
// neither is a fully allocated one whose list has collapsed to the bare
// sentinel.
func (a *Arena) Unified() bool {
	head := a.freeHead()
	if head == nilOffset {
		internalLogger.warnf("unified: free list was never built")
		return false
	}
	next := a.blockNext(head)
	return next != head && a.blockNext(next) == head
}

// Capacity returns the total size of the managed buffer.
func (a *Arena) Capacity() int {
	return int(a.capacity())
}

// buildFreeList installs the initial two-node circular list: a zero-size
// sentinel followed by one block spanning all usable space. Returns the
// sentinel, which becomes the first rotating head.
func (a *Arena) buildFreeList() uint64 {
	sentinel := a.word(arenaFreeStartOffset)
	first := sentinel + blockUnitSize
	a.setBlockSize(sentinel, 0)
	a.setBlockNext(sentinel, first)
	a.setBlockSize(first, a.freeBytes()/blockUnitSize)
	a.setBlockNext(first, sentinel)
	a.setWord(arenaFreeHeadOffset, sentinel)
	return sentinel
}

// offsetOf translates a payload slice back to its byte offset, rejecting
// ranges that do not lie inside the managed buffer.
func (a *Arena) offsetOf(p []byte) (uint64, error) {
	base := uintptr(unsafe.Pointer(&a.mem[0]))
	addr := uintptr(unsafe.Pointer(&p[0]))
	if addr <= base || addr >= base+uintptr(len(a.mem)) {
		return 0, ErrOutOfBounds
	}
	off := uint64(addr - base)
	if off+uint64(len(p)) > a.capacity() {
		return 0, ErrOutOfBounds
	}
	return off, nil
}

// validBlockOffset reports whether off sits on the block grid inside the
// usable area, with room for at least a block header.
func (a *Arena) validBlockOffset(off uint64) bool {
	start := a.word(arenaFreeStartOffset)
	return off >= start &&
		off+blockUnitSize <= a.capacity() &&
		(off-start)%blockUnitSize == 0
}

func (a *Arena) word(off uint64) uint64 {
	return *(*uint64)(unsafe.Pointer(&a.mem[off]))
}

func (a *Arena) setWord(off, v uint64) {
	*(*uint64)(unsafe.Pointer(&a.mem[off])) = v
}

func (a *Arena) capacity() uint64  { return a.word(arenaCapOffset) }
func (a *Arena) freeBytes() uint64 { return a.word(arenaFreeSizeOffset) }
func (a *Arena) freeHead() uint64  { return a.word(arenaFreeHeadOffset) }

func (a *Arena) blockNext(b uint64) uint64 { return a.word(b + blockNextOffset) }
func (a *Arena) blockSize(b uint64) uint64 { return a.word(b + blockSizeOffset) }

func (a *Arena) setBlockNext(b, next uint64) { a.setWord(b+blockNextOffset, next) }
func (a *Arena) setBlockSize(b, units uint64) { a.setWord(b+blockSizeOffset, units) }
