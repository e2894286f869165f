//go:build !linux

package shm

// The allocator's shared-region layer targets POSIX shared memory and Linux
// futexes. Other platforms can still use the in-buffer arena allocator; the
// segment operations report ErrUnsupported.

func MapRegion(opts MapOptions) (*MappedRegion, error) {
	return nil, ErrUnsupported
}

func UnmapRegion(r *MappedRegion) error {
	if r == nil || r.Addr == nil {
		return nil
	}
	return ErrUnsupported
}

func UnlinkRegion(r *MappedRegion) error {
	if r == nil {
		return nil
	}
	return ErrUnsupported
}
