// Package linecache is the public facade composing the Record Store,
// Buffer Pool, Index, Eviction Strategy, Cache Engine, and Flusher into
// a single line-addressed cache behind one struct, the way ashcache.go
// composes its own sub-components at the root of its module.
package linecache

import (
	"context"
	"fmt"

	"github.com/nullpilot/linecache/codec"
	"github.com/nullpilot/linecache/config"
	"github.com/nullpilot/linecache/internal/engine"
	"github.com/nullpilot/linecache/internal/eviction/lfu"
	"github.com/nullpilot/linecache/internal/flusher"
	"github.com/nullpilot/linecache/internal/humanize"
	"github.com/nullpilot/linecache/internal/metrics"
	"github.com/nullpilot/linecache/internal/metrics/prom"
	"github.com/nullpilot/linecache/internal/store"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
)

// Cache is a line-addressed, fixed-capacity cache over a memory-mapped
// record file, backed by a lock-free buffer pool with LFU eviction.
type Cache[V any] struct {
	engine  *engine.Engine[V]
	flusher *flusher.Flusher[V]
	store   *store.Store[V]
	cancel  context.CancelFunc
}

// New opens the record store at cfg.ItemsFile, builds the buffer pool
// and cache engine around it, and starts the background flusher. codec
// determines how values round-trip to the record file's decimal text
// fields (codec.Int or codec.Float, or a custom implementation).
//
// log has no safe zero value; pass zerolog.Nop() for silent operation.
// If cfg.MetricsNamespace is non-empty, a Prometheus metrics.Metrics
// adapter is registered under it; otherwise metrics are a no-op.
func New[V any](ctx context.Context, cfg *config.Cache, c codec.Codec[V], log zerolog.Logger) (*Cache[V], error) {
	if err := cfg.Normalize(); err != nil {
		return nil, err
	}

	st, err := store.Open[V](cfg.ItemsFile, cfg.MaxLines, cfg.RecordWidth, c)
	if err != nil {
		return nil, fmt.Errorf("linecache: open store: %w", err)
	}

	ctx, cancel := context.WithCancel(ctx)

	var m metrics.Metrics = metrics.Noop{}
	if cfg.MetricsNamespace != "" {
		m = prom.New(prometheus.DefaultRegisterer, cfg.MetricsNamespace)
	}

	eng, err := engine.New[V](ctx, st, engine.Options[V]{
		Capacity: cfg.CacheSize,
		Strategy: lfu.New[V](),
		Metrics:  m,
		Logger:   log,
	})
	if err != nil {
		cancel()
		st.Close()
		return nil, fmt.Errorf("linecache: new engine: %w", err)
	}

	fl := flusher.New[V](ctx, cfg.Timeout(), eng.Pool(), eng.Index(), st, m, log)

	log.Info().
		Int("cache_size", cfg.CacheSize).
		Str("items_file", cfg.ItemsFile).
		Int("max_lines", cfg.MaxLines).
		Str("mapped_size", humanize.Bytes(uint64(st.Size()))).
		Dur("flush_period", cfg.Timeout()).
		Msg("linecache started")

	return &Cache[V]{engine: eng, flusher: fl, store: st, cancel: cancel}, nil
}

// Get returns the value bound to line k and whether it was a miss
// (loaded from the record store rather than already cache-resident).
func (c *Cache[V]) Get(k int) (value V, wasMiss bool) {
	return c.engine.Get(k)
}

// Put installs or overwrites the value bound to line k.
func (c *Cache[V]) Put(k int, v V) {
	c.engine.Put(k, v)
}

// Stats returns a point-in-time snapshot of cache counters and occupancy.
func (c *Cache[V]) Stats() engine.Stats {
	return c.engine.Stats()
}

// Close stops the flusher (issuing one final sweep), waits for the
// engine's in-flight eviction writebacks, and unmaps the record store.
// All pending writebacks are guaranteed to complete before Close
// returns.
func (c *Cache[V]) Close() error {
	c.flusher.Stop()
	c.engine.Shutdown()
	c.cancel()
	return c.store.Close()
}
