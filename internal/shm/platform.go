// Package shm is the platform layer for named shared memory segments:
// creating, mapping, unmapping and unlinking the backing objects, plus the
// futex-backed lock that lives inside a mapped segment.
package shm

import (
	"errors"
	"path/filepath"
)

// ErrUnsupported is returned on platforms without named shared memory.
var ErrUnsupported = errors.New("shared memory segments are not supported on this platform")

// MappedRegion is a named shared memory object mapped into this process.
// Addr is the whole mapping; it stays valid after the descriptor used to
// create it has been closed.
type MappedRegion struct {
	Addr []byte
	Name string
	Path string
}

// MapOptions control how a segment is created or opened.
type MapOptions struct {
	// Dir is the directory holding named objects (normally /dev/shm).
	Dir string
	// Name identifies the object within Dir.
	Name string
	// Size is the total segment size in bytes. Ignored when opening an
	// existing object, whose size is taken from the object itself.
	Size int
	// Create makes a fresh object, truncating any existing one with the
	// same name. When false the object must already exist.
	Create bool
}

// ObjectPath returns the filesystem path backing a named segment.
func ObjectPath(dir, name string) string {
	return filepath.Join(dir, name)
}
