// Package eviction defines the pluggable candidate-selection seam the
// cache engine calls when a miss needs a free slot. Concrete policies
// (lfu being the only one shipped) live in subpackages so swapping the
// policy never touches the engine.
package eviction

import "github.com/nullpilot/linecache/internal/pool"

// Strategy selects a candidate slot for the engine's acquire_slot loop
// to attempt evicting. It returns ok=false when no candidate is
// available (every slot is currently Busy), signalling the caller to
// back off and retry.
type Strategy[V any] interface {
	Select(p *pool.Pool[V]) (slot int, ok bool)
}
