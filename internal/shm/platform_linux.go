//go:build linux

package shm

import (
	"fmt"

	"golang.org/x/sys/unix"
)

// MapRegion creates or opens a named shared memory object and maps it
// read/write, shared across processes. The descriptor is closed before
// returning; the mapping does not depend on it.
func MapRegion(opts MapOptions) (*MappedRegion, error) {
	flags := unix.O_RDWR
	if opts.Create {
		flags |= unix.O_CREAT | unix.O_TRUNC
	}
	path := ObjectPath(opts.Dir, opts.Name)
	fd, err := unix.Open(path, flags, 0o600)
	if err != nil {
		return nil, fmt.Errorf("shm open %s: %w", path, err)
	}
	size := opts.Size
	if opts.Create {
		if err := unix.Ftruncate(fd, int64(size)); err != nil {
			_ = unix.Close(fd)
			return nil, fmt.Errorf("shm ftruncate %s: %w", path, err)
		}
	} else {
		var st unix.Stat_t
		if err := unix.Fstat(fd, &st); err != nil {
			_ = unix.Close(fd)
			return nil, fmt.Errorf("shm fstat %s: %w", path, err)
		}
		size = int(st.Size)
	}
	addr, err := unix.Mmap(fd, 0, size, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED)
	if err != nil {
		_ = unix.Close(fd)
		return nil, fmt.Errorf("shm mmap %s: %w", path, err)
	}
	if err := unix.Close(fd); err != nil {
		_ = unix.Munmap(addr)
		return nil, fmt.Errorf("shm close %s: %w", path, err)
	}
	return &MappedRegion{Addr: addr, Name: opts.Name, Path: path}, nil
}

// UnmapRegion removes the mapping. The backing object is left in place.
func UnmapRegion(r *MappedRegion) error {
	if r == nil || r.Addr == nil {
		return nil
	}
	if err := unix.Munmap(r.Addr); err != nil {
		return fmt.Errorf("shm munmap %s: %w", r.Path, err)
	}
	r.Addr = nil
	return nil
}

// UnlinkRegion removes the named backing object. Existing mappings in any
// process remain usable until they are unmapped.
func UnlinkRegion(r *MappedRegion) error {
	if r == nil {
		return nil
	}
	if err := unix.Unlink(r.Path); err != nil {
		return fmt.Errorf("shm unlink %s: %w", r.Path, err)
	}
	return nil
}
