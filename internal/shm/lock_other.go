//go:build !linux

package shm

import "sync"

// Lock degrades to an in-process mutex where futexes are unavailable. The
// shared-region layer is unsupported there anyway, so cross-process
// exclusion is never required.
type Lock struct {
	mu sync.Mutex
}

func LockAt(word *uint32) *Lock {
	return &Lock{}
}

func (l *Lock) Lock() {
	l.mu.Lock()
}

func (l *Lock) Unlock() {
	l.mu.Unlock()
}
