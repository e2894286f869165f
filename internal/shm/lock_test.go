package shm

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLockUncontended(t *testing.T) {
	var word uint32
	l := LockAt(&word)
	l.Lock()
	l.Unlock()
	l.Lock()
	l.Unlock()
}

func TestLockMutualExclusion(t *testing.T) {
	var word uint32
	l := LockAt(&word)

	const (
		goroutines = 8
		increments = 2000
	)
	counter := 0
	var wg sync.WaitGroup
	wg.Add(goroutines)
	for g := 0; g < goroutines; g++ {
		go func() {
			defer wg.Done()
			for i := 0; i < increments; i++ {
				l.Lock()
				counter++
				l.Unlock()
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, goroutines*increments, counter)
}
