package domain

import "sync"

// KeyedLocks serializes critical sections per workspace id. Membership
// invariant checks and column position writes are read-then-write sequences,
// so the read and the write must happen under the same workspace lock.
// Operations on different workspaces never contend.
type KeyedLocks struct {
	mu      sync.Mutex
	entries map[string]*lockEntry
}

type lockEntry struct {
	mu   sync.Mutex
	refs int
}

// NewKeyedLocks creates an empty lock registry.
func NewKeyedLocks() *KeyedLocks {
	return &KeyedLocks{entries: make(map[string]*lockEntry)}
}

// Acquire blocks until the lock for key is held and returns the release
// function. Entries are reference counted and dropped from the registry once
// the last holder releases, so the map does not grow with tenant count.
func (l *KeyedLocks) Acquire(key string) func() {
	l.mu.Lock()
	e, ok := l.entries[key]
	if !ok {
		e = &lockEntry{}
		l.entries[key] = e
	}
	e.refs++
	l.mu.Unlock()

	e.mu.Lock()

	var once sync.Once
	return func() {
		once.Do(func() {
			e.mu.Unlock()
			l.mu.Lock()
			e.refs--
			if e.refs == 0 {
				delete(l.entries, key)
			}
			l.mu.Unlock()
		})
	}
}
