package engine

import "sync"

// issueLocks serializes reconciliation per issue id. Events for
// different issues proceed in parallel; events for the same issue run
// their whole lookup-diff-write sequence under one lock so transitions
// are detected against a consistent previous state.
//
// Entries are reference-counted and removed when the last holder
// releases, so the map does not grow with the total number of issues
// ever seen.
type issueLocks struct {
	mu    sync.Mutex
	locks map[int64]*issueLock
}

type issueLock struct {
	mu   sync.Mutex
	refs int
}

func newIssueLocks() *issueLocks {
	return &issueLocks{locks: make(map[int64]*issueLock)}
}

// Lock acquires the lock for an issue id, blocking while another
// goroutine holds it. The returned func releases the lock.
func (l *issueLocks) Lock(id int64) (unlock func()) {
	l.mu.Lock()
	entry, ok := l.locks[id]
	if !ok {
		entry = &issueLock{}
		l.locks[id] = entry
	}
	entry.refs++
	l.mu.Unlock()

	entry.mu.Lock()

	return func() {
		entry.mu.Unlock()

		l.mu.Lock()
		entry.refs--
		if entry.refs == 0 {
			delete(l.locks, id)
		}
		l.mu.Unlock()
	}
}
