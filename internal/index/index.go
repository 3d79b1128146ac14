// Package index implements the line-number-to-slot-index mapping the
// cache engine consults on every Get/Put. It is a plain map behind a
// readers-writer lock: a single mutex, exclusive for mutation, shared
// for lookup. It is an unsharded reduction of the sharded-map shape
// used elsewhere for bigger key spaces, since the engine's concurrency
// already goes through the buffer pool's per-slot CAS, not the index.
package index

import "sync"

// Index maps a line number (cache key) to the slot index currently
// bound to it. At most one line maps to any given slot at a time; that
// invariant is enforced by the Cache Engine erasing the old binding
// before installing a new one on a reused slot.
type Index struct {
	mu sync.RWMutex
	m  map[int]int
}

// New returns an empty Index.
func New() *Index {
	return &Index{m: make(map[int]int)}
}

// Lookup returns the slot bound to k, if any.
func (ix *Index) Lookup(k int) (slot int, ok bool) {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	slot, ok = ix.m[k]
	return
}

// Insert binds k to slot, overwriting any prior mapping for k.
func (ix *Index) Insert(k, slot int) {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	ix.m[k] = slot
}

// EraseBySlot removes whichever entry currently maps to slot, if any,
// and reports the key it was bound to. This is an O(len(index)) scan;
// acceptable since the index never grows past the pool's fixed
// capacity C and the scan runs only on eviction.
func (ix *Index) EraseBySlot(slot int) (k int, ok bool) {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	for key, s := range ix.m {
		if s == slot {
			delete(ix.m, key)
			return key, true
		}
	}
	return 0, false
}

// KeyForSlot returns the key currently bound to slot, if any, under a
// shared lock. Used by the flusher to resolve which record to write
// back when it finds a Dirty slot.
func (ix *Index) KeyForSlot(slot int) (k int, ok bool) {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	for key, s := range ix.m {
		if s == slot {
			return key, true
		}
	}
	return 0, false
}

// Len returns the number of bound entries. Used by tests and metrics.
func (ix *Index) Len() int {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return len(ix.m)
}
