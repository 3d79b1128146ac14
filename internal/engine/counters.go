package engine

import "sync/atomic"

// counters tracks engine-level operation tallies with the same
// plain-atomic-fields-plus-snapshot shape used elsewhere for
// per-component counters (internal/cache/counters.go,
// internal/evictor/counters.go).
type counters struct {
	hits      atomic.Int64
	misses    atomic.Int64
	installs  atomic.Int64
	evictions atomic.Int64
	puts      atomic.Int64
}

func newCounters() *counters {
	return &counters{}
}

func (c *counters) snapshot() (hits, misses, installs, evictions, puts int64) {
	return c.hits.Load(), c.misses.Load(), c.installs.Load(), c.evictions.Load(), c.puts.Load()
}
