// Package lfu implements the least-frequently-used eviction.Strategy:
// scan every non-Busy slot and pick the one with the smallest
// frequency, breaking ties by preferring the highest index seen during
// the scan.
package lfu

import "github.com/nullpilot/linecache/internal/pool"

// LFU is the default, and only shipped, eviction strategy.
type LFU[V any] struct{}

// New returns an LFU strategy. It holds no state of its own; every
// selection re-scans the pool.
func New[V any]() *LFU[V] {
	return &LFU[V]{}
}

// Select scans p for the slot with the smallest frequency among those
// not currently Busy. Ties are broken by highest index, since the scan
// runs low-to-high and a later equal-or-lower frequency replaces the
// current pick. Returns ok=false if every slot is Busy.
func (LFU[V]) Select(p *pool.Pool[V]) (slot int, ok bool) {
	best := -1
	var bestFreq uint16
	for i := 0; i < p.Len(); i++ {
		s := p.Load(i)
		if s.Status == pool.Busy {
			continue
		}
		if best == -1 || s.Frequency <= bestFreq {
			best = i
			bestFreq = s.Frequency
		}
	}
	if best == -1 {
		return 0, false
	}
	return best, true
}
