// Package recorder keeps bounded histories of console output and user
// interactions so they can be attached to a report.
package recorder

import "sync"

// DefaultCapacity is the number of entries each recorder keeps.
const DefaultCapacity = 100

// Ring is a fixed-capacity buffer that evicts its oldest entry when full.
// Entries are kept in insertion order.
type Ring[T any] struct {
	mu       sync.RWMutex
	entries  []T
	capacity int
	head     int // index of the next write once the buffer is full
}

// NewRing returns a ring holding at most capacity entries. A non-positive
// capacity falls back to DefaultCapacity.
func NewRing[T any](capacity int) *Ring[T] {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Ring[T]{
		entries:  make([]T, 0, capacity),
		capacity: capacity,
	}
}

// Push appends e, evicting the oldest entry if the ring is full.
func (r *Ring[T]) Push(e T) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.entries) < r.capacity {
		r.entries = append(r.entries, e)
		return
	}
	r.entries[r.head] = e
	r.head = (r.head + 1) % r.capacity
}

// Snapshot returns a copy of the entries, oldest first.
func (r *Ring[T]) Snapshot() []T {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]T, len(r.entries))
	n := copy(out, r.entries[r.head:])
	copy(out[n:], r.entries[:r.head])
	return out
}

// Len returns the number of entries currently held.
func (r *Ring[T]) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.entries)
}

func (r *Ring[T]) Cap() int {
	return r.capacity
}

// Reset drops all entries.
func (r *Ring[T]) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	clear(r.entries)
	r.entries = r.entries[:0]
	r.head = 0
}
