// Package alloc implements a first-fit arena allocator that keeps all of its
// bookkeeping inside the buffer it manages, and a reference-counted manager
// for arenas placed in named shared memory segments so cooperating processes
// can allocate from the same memory.
//
// The arena embeds a header and an address-ordered circular free list in the
// managed bytes; every reference is a byte offset from the buffer base, so
// the same buffer is valid in any process no matter where it is mapped.
//
// Example usage:
//
//	r, err := alloc.CreateRegion("workers", 1<<20)
//	// ...
//	defer r.Close()
//
//	buf, err := r.Alloc(256)
//	// ...
//	err = r.Free(buf)
//
// A bare *Arena performs no locking of its own; callers running concurrent
// allocation traffic over one arena must serialize it. *Region serializes
// Alloc/Free through the same process-shared lock that guards its reference
// count.
package alloc
