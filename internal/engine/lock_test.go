package engine

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIssueLocks_SerializesSameKey(t *testing.T) {
	locks := newIssueLocks()

	const workers = 50
	counter := 0
	var wg sync.WaitGroup

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock := locks.Lock(7)
			defer unlock()
			counter++ // safe only if the lock serializes
		}()
	}
	wg.Wait()

	assert.Equal(t, workers, counter)
}

func TestIssueLocks_EntriesReleased(t *testing.T) {
	locks := newIssueLocks()

	unlock := locks.Lock(1)
	unlock()
	unlock2 := locks.Lock(2)
	unlock2()

	locks.mu.Lock()
	defer locks.mu.Unlock()
	assert.Empty(t, locks.locks, "released entries must be removed from the map")
}

func TestIssueLocks_DistinctKeysIndependent(t *testing.T) {
	locks := newIssueLocks()

	unlockA := locks.Lock(1)
	defer unlockA()

	// A different key must not block.
	done := make(chan struct{})
	go func() {
		unlockB := locks.Lock(2)
		unlockB()
		close(done)
	}()
	<-done
}
