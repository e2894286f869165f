//go:build linux

package shm

import (
	"sync/atomic"
	"unsafe"

	"golang.org/x/sys/unix"
)

// Lock word states. The word lives inside a shared mapping, so the same
// three-state protocol is observed by every process mapping the segment.
const (
	lockFree = iota
	lockHeld
	lockContended
)

// Futex operation codes from the Linux UAPI (<linux/futex.h>); the shared
// (non-private) forms, which x/sys/unix does not export.
const (
	futexWaitOp = 0 // FUTEX_WAIT
	futexWakeOp = 1 // FUTEX_WAKE
)

// Lock is a mutual exclusion primitive whose entire state is one uint32
// inside a shared memory segment. It uses the shared (non-private) futex
// form so waiters in different processes are woken correctly. A zeroed word
// is an unlocked lock, which is exactly what a freshly truncated segment
// provides; there is nothing to destroy at teardown.
type Lock struct {
	word *uint32
}

// LockAt returns a Lock operating on the given word. The word must be
// 4-byte aligned and shared by every party that takes the lock.
func LockAt(word *uint32) *Lock {
	return &Lock{word: word}
}

// Lock acquires the lock, blocking in the kernel while another holder
// (possibly in another process) has it.
func (l *Lock) Lock() {
	if atomic.CompareAndSwapUint32(l.word, lockFree, lockHeld) {
		return
	}
	for {
		if atomic.LoadUint32(l.word) == lockContended ||
			atomic.CompareAndSwapUint32(l.word, lockHeld, lockContended) {
			futexWait(l.word, lockContended)
		}
		if atomic.CompareAndSwapUint32(l.word, lockFree, lockContended) {
			return
		}
	}
}

// Unlock releases the lock and wakes one waiter if any were queued.
func (l *Lock) Unlock() {
	if atomic.SwapUint32(l.word, lockFree) == lockContended {
		futexWake(l.word, 1)
	}
}

func futexWait(word *uint32, val uint32) {
	// EAGAIN (word changed) and EINTR are handled by the caller's retry loop.
	_, _, _ = unix.Syscall6(unix.SYS_FUTEX, uintptr(unsafe.Pointer(word)),
		uintptr(futexWaitOp), uintptr(val), 0, 0, 0)
}

func futexWake(word *uint32, n int) {
	_, _, _ = unix.Syscall6(unix.SYS_FUTEX, uintptr(unsafe.Pointer(word)),
		uintptr(futexWakeOp), uintptr(n), 0, 0, 0)
}
