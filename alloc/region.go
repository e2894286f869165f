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
	"errors"
	"fmt"
	"strings"
	"sync/atomic"
	"time"
	"unsafe"

	"github.com/cenkalti/backoff/v4"
	cmap "github.com/orcaman/concurrent-map/v2"

	"github.com/srediag/shm-alloc/internal/shm"
)

// Control header layout, installed at the front of the mapped segment. The
// arena's byte offset is stored instead of a mapped base pointer so the
// header stays valid in every process regardless of mapping address.
const (
	regionLockOffset  = 0  // futex word, 4 bytes
	regionRefOffset   = 4  // reference count, 4 bytes
	regionArenaOffset = 8  // byte offset of the arena within the segment
	regionSizeOffset  = 16 // usable arena size in bytes
	regionNameOffset  = 24 // name buffer, MaxNameLen+1 bytes
	regionHeaderSize  = 64 // padded so the arena starts aligned

	// MaxNameLen bounds region names. One extra byte is reserved in the
	// header so a name that exactly fills the limit can still be read back.
	MaxNameLen = 32
)

// regions tracks segments already mapped by this process so a second
// OpenRegion of the same name attaches instead of mapping again.
var regions = cmap.New[*Region]()

// Region is one holder's handle onto a named shared memory segment carrying
// a refcounted control header and an Arena over the remaining bytes. The
// reference count and all Alloc/Free traffic are serialized by a
// process-shared lock in the header; the original design locked only the
// reference count and left allocation races to the caller.
//
// Handles are not duplicated by pointer copy alone: Attach registers a new
// holder, Close releases one. Passing a *Region around transfers the same
// holder without touching the count.
type Region struct {
	mapping *shm.MappedRegion
	lock    *shm.Lock
	arena   *Arena
	name    string
	metrics *Metrics
	closed  atomic.Bool
}

// CreateRegion creates (truncating any previous object with the same name)
// a shared memory segment sized for a control header plus size usable bytes,
// installs the header with a reference count of 1, and builds an arena over
// the remainder.
func CreateRegion(name string, size int) (*Region, error) {
	if err := checkName(name); err != nil {
		return nil, err
	}
	if size < minArenaSize {
		return nil, ErrArenaTooSmall
	}
	total := size + regionHeaderSize
	path := shm.ObjectPath(defaults.Dir, name)
	if !canCreateOnDevShm(uint64(total), path) {
		return nil, fmt.Errorf("%w: %s needs %d bytes", ErrShmNoSpace, path, total)
	}

	m, err := shm.MapRegion(shm.MapOptions{Dir: defaults.Dir, Name: name, Size: total, Create: true})
	if err != nil {
		return nil, err
	}
	// The truncated object reads back as zeroes: the lock word starts
	// unlocked and the name buffer cleared.
	setHdrWord(m.Addr, regionArenaOffset, regionHeaderSize)
	setHdrWord(m.Addr, regionSizeOffset, uint64(size))
	copy(m.Addr[regionNameOffset:regionNameOffset+MaxNameLen], name)

	arena, err := NewArena(m.Addr[regionHeaderSize:])
	if err != nil {
		err = fmt.Errorf("region %q arena init: %w", name, err)
		return nil, errors.Join(err, shm.UnmapRegion(m), shm.UnlinkRegion(m))
	}
	// The nonzero refcount is what OpenRegion polls for, so it must be the
	// last word stored: everything it gates, the arena header included, has
	// to be in place first.
	atomic.StoreUint32(refWord(m.Addr), 1)
	r := &Region{
		mapping: m,
		lock:    shm.LockAt(lockWord(m.Addr)),
		arena:   arena,
		name:    name,
	}
	regions.Set(name, r)
	internalLogger.infof("region %q created: %d usable bytes at %s", name, size, path)
	return r, nil
}

// OpenRegion attaches to a segment created by another process (or earlier in
// this one). It waits briefly, with exponential backoff, for the creator to
// finish installing the control header, then registers this process as a
// holder.
func OpenRegion(name string) (*Region, error) {
	if err := checkName(name); err != nil {
		return nil, err
	}
	if existing, ok := regions.Get(name); ok {
		if h, err := existing.Attach(); err == nil {
			return h, nil
		}
		// The entry is a handle caught mid-Close; map the named object
		// fresh instead of failing the open.
	}

	var (
		m     *shm.MappedRegion
		arena *Arena
	)
	// Everything the refcount publish gates is validated inside the retried
	// closure: a mapping caught between the creator's ftruncate and its final
	// header store must come back around, not fail the open.
	attach := func() error {
		mm, err := shm.MapRegion(shm.MapOptions{Dir: defaults.Dir, Name: name})
		if err != nil {
			// The creator may not have created or sized the object yet.
			return err
		}
		remap := func(cause error) error {
			if err := shm.UnmapRegion(mm); err != nil {
				return backoff.Permanent(err)
			}
			return fmt.Errorf("region %q: %w", name, cause)
		}
		if len(mm.Addr) < regionHeaderSize+minArenaSize ||
			hdrWord(mm.Addr, regionArenaOffset) != regionHeaderSize ||
			atomic.LoadUint32(refWord(mm.Addr)) == 0 {
			return remap(ErrBadRegionHeader)
		}
		size := hdrWord(mm.Addr, regionSizeOffset)
		if regionHeaderSize+size != uint64(len(mm.Addr)) || storedName(mm.Addr) != name {
			return remap(ErrBadRegionHeader)
		}
		a, err := AttachArena(mm.Addr[regionHeaderSize:])
		if err != nil {
			return remap(err)
		}
		m, arena = mm, a
		return nil
	}
	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = 10 * time.Millisecond
	bo.MaxInterval = 250 * time.Millisecond
	if err := backoff.Retry(attach, backoff.WithMaxRetries(bo, 8)); err != nil {
		return nil, err
	}
	r := &Region{
		mapping: m,
		lock:    shm.LockAt(lockWord(m.Addr)),
		arena:   arena,
		name:    name,
	}
	r.lock.Lock()
	ref := atomic.AddUint32(refWord(m.Addr), 1)
	r.lock.Unlock()
	regions.Set(name, r)
	internalLogger.infof("region %q opened, %d holders", name, ref)
	return r, nil
}

// Attach registers another holder of the same segment and returns its
// handle. The reference count moves under the region lock, so concurrent
// attaches and releases across processes never lose an update.
func (r *Region) Attach() (*Region, error) {
	if r.closed.Load() {
		return nil, ErrRegionClosed
	}
	r.lock.Lock()
	ref := atomic.AddUint32(r.ref(), 1)
	r.lock.Unlock()
	internalLogger.debugf("region %q attached, %d holders", r.name, ref)
	return &Region{
		mapping: r.mapping,
		lock:    r.lock,
		arena:   r.arena,
		name:    r.name,
		metrics: r.metrics,
	}, nil
}

// Close releases this handle's hold on the segment. The last release across
// all processes unmaps the segment and unlinks the backing object; any
// teardown failure is returned joined, since a half-released segment cannot
// be retried safely. Close is idempotent per handle.
func (r *Region) Close() error {
	if !r.closed.CompareAndSwap(false, true) {
		return ErrRegionClosed
	}
	r.lock.Lock()
	left := atomic.AddUint32(r.ref(), ^uint32(0))
	r.lock.Unlock()

	regions.RemoveCb(r.name, func(_ string, v *Region, ok bool) bool {
		return ok && v == r
	})
	if left > 0 {
		internalLogger.infof("region %q released, %d holders remain", r.name, left)
		return nil
	}
	internalLogger.infof("region %q released by last holder, tearing down", r.name)
	if defaults.DebugMode {
		internalLogger.debugf("region %q final state: %s", r.name, DumpArena(r.arena))
	}
	if err := errors.Join(shm.UnmapRegion(r.mapping), shm.UnlinkRegion(r.mapping)); err != nil {
		return fmt.Errorf("region %q teardown: %w", r.name, err)
	}
	return nil
}

// Alloc reserves n bytes in the shared arena. Unlike a bare *Arena, the call
// is serialized with every other holder through the region lock.
func (r *Region) Alloc(n int) ([]byte, error) {
	if r.closed.Load() {
		return nil, ErrRegionClosed
	}
	r.lock.Lock()
	p, err := r.arena.Alloc(n)
	free := r.arena.FreeSize()
	r.lock.Unlock()
	if m := r.metrics; m != nil {
		switch {
		case err != nil:
		case p == nil:
			m.OutOfSpace.Inc()
		default:
			m.Allocs.Inc()
			m.AllocBytes.Add(float64(n))
			m.FreeBytes.Set(float64(free))
		}
	}
	return p, err
}

// Free returns an allocation to the shared arena under the region lock.
func (r *Region) Free(p []byte) error {
	if r.closed.Load() {
		return ErrRegionClosed
	}
	r.lock.Lock()
	err := r.arena.Free(p)
	free := r.arena.FreeSize()
	r.lock.Unlock()
	if m := r.metrics; m != nil && err == nil {
		m.Frees.Inc()
		m.FreeBytes.Set(float64(free))
	}
	return err
}

// FreeSize returns the shared arena's current free byte count, or 0 after
// the handle is closed.
func (r *Region) FreeSize() int {
	if r.closed.Load() {
		return 0
	}
	r.lock.Lock()
	defer r.lock.Unlock()
	return r.arena.FreeSize()
}

// Unified reports whether the shared arena is fully defragmented.
func (r *Region) Unified() bool {
	if r.closed.Load() {
		return false
	}
	r.lock.Lock()
	defer r.lock.Unlock()
	return r.arena.Unified()
}

// RefCount returns the segment's current holder count.
func (r *Region) RefCount() uint32 {
	if r.closed.Load() {
		return 0
	}
	return atomic.LoadUint32(r.ref())
}

// Name returns the region's identifier as stored in the control header.
func (r *Region) Name() string {
	return r.name
}

// Size returns the usable arena size in bytes.
func (r *Region) Size() int {
	if r.closed.Load() {
		return 0
	}
	return int(hdrWord(r.mapping.Addr, regionSizeOffset))
}

// SetMetrics attaches Prometheus instrumentation to this handle. Only this
// handle observes through it; other holders keep their own.
func (r *Region) SetMetrics(m *Metrics) {
	r.metrics = m
}

func (r *Region) ref() *uint32 {
	return refWord(r.mapping.Addr)
}

func checkName(name string) error {
	if name == "" || strings.ContainsRune(name, '/') {
		return ErrBadName
	}
	if len(name) > MaxNameLen {
		return ErrNameTooLong
	}
	return nil
}

// storedName reads the name back out of a control header, stopping at the
// first NUL or the buffer end.
func storedName(mem []byte) string {
	buf := mem[regionNameOffset : regionNameOffset+MaxNameLen+1]
	if i := strings.IndexByte(string(buf), 0); i >= 0 {
		return string(buf[:i])
	}
	return string(buf[:MaxNameLen])
}

func hdrWord(mem []byte, off int) uint64 {
	return *(*uint64)(unsafe.Pointer(&mem[off]))
}

func setHdrWord(mem []byte, off int, v uint64) {
	*(*uint64)(unsafe.Pointer(&mem[off])) = v
}

func lockWord(mem []byte) *uint32 {
	return (*uint32)(unsafe.Pointer(&mem[regionLockOffset]))
}

func refWord(mem []byte) *uint32 {
	return (*uint32)(unsafe.Pointer(&mem[regionRefOffset]))
}
