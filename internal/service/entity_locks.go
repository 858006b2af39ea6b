package service

import (
	"bytes"
	"sync"

	"github.com/google/uuid"
)

// entityLocks serializes mutations per entity ID. Every enrollment mutation
// that touches a student or course must hold that entity's lock for the whole
// two-sided update, so concurrent mutations on the same entity can never
// interleave their reference-set writes.
//
// Locks are never removed from the map; the entity population is small and
// bounded by the institution's enrollment, so the memory cost is negligible
// compared to the bookkeeping of reference counting.
type entityLocks struct {
	mu    sync.Mutex
	locks map[uuid.UUID]*sync.Mutex
}

func newEntityLocks() *entityLocks {
	return &entityLocks{
		locks: make(map[uuid.UUID]*sync.Mutex),
	}
}

// get returns the mutex for the given entity ID, creating it on first use.
func (l *entityLocks) get(id uuid.UUID) *sync.Mutex {
	l.mu.Lock()
	defer l.mu.Unlock()

	m, ok := l.locks[id]
	if !ok {
		m = &sync.Mutex{}
		l.locks[id] = m
	}
	return m
}

// lock acquires the mutex for a single entity and returns the unlock function.
func (l *entityLocks) lock(id uuid.UUID) func() {
	m := l.get(id)
	m.Lock()
	return m.Unlock
}

// lockPair acquires the mutexes for two entities in a deterministic order
// (byte order of the IDs), so two goroutines locking the same pair in
// opposite roles cannot deadlock. Returns the unlock function, which releases
// in reverse order.
func (l *entityLocks) lockPair(a, b uuid.UUID) func() {
	if a == b {
		return l.lock(a)
	}

	first, second := a, b
	if bytes.Compare(first[:], second[:]) > 0 {
		first, second = second, first
	}

	fm := l.get(first)
	sm := l.get(second)
	fm.Lock()
	sm.Lock()
	return func() {
		sm.Unlock()
		fm.Unlock()
	}
}
