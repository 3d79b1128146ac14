// Package engine implements the cache engine: it orchestrates Get and
// Put against the buffer pool and index, allocates slots via an
// eviction strategy on miss, and maintains per-slot LFU frequencies.
// The hot path is lock-free CAS over the pool; the only blocking
// points are the index's rw-lock, the Record Store's rw-lock, and the
// backoff sleep inside acquireSlot when every slot is Busy.
package engine

import (
	"context"
	"errors"
	"math"
	"strconv"
	"sync"

	"github.com/nullpilot/linecache/internal/backoff"
	"github.com/nullpilot/linecache/internal/eviction"
	"github.com/nullpilot/linecache/internal/eviction/lfu"
	"github.com/nullpilot/linecache/internal/index"
	"github.com/nullpilot/linecache/internal/metrics"
	"github.com/nullpilot/linecache/internal/pool"
	"github.com/nullpilot/linecache/internal/store"
	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"
)

// errShuttingDown is returned by install when the engine's context is
// cancelled while acquireSlot is still retrying.
var errShuttingDown = errors.New("engine: shutting down")

const defaultBackoffPerSecond = 2000

// Options configures a new Engine. nil Strategy defaults to lfu.New,
// nil Metrics defaults to metrics.Noop. Logger has no safe zero value;
// pass zerolog.Nop() explicitly for silent operation.
type Options[V any] struct {
	Capacity         int
	Strategy         eviction.Strategy[V]
	Metrics          metrics.Metrics
	Logger           zerolog.Logger
	BackoffPerSecond int
}

// Engine wires the buffer pool, index, eviction strategy, record
// store, and miss-coalescing together behind Get/Put.
type Engine[V any] struct {
	pool     *pool.Pool[V]
	idx      *index.Index
	store    *store.Store[V]
	strategy eviction.Strategy[V]
	backoff  *backoff.Backoff
	sf       singleflight.Group
	metrics  metrics.Metrics
	log      zerolog.Logger
	counters *counters

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// New constructs an Engine backed by st, with a pool of opts.Capacity
// slots. ctx bounds the lifetime of the internal backoff pacer and of
// acquireSlot's retry loop. Fire-and-forget eviction writebacks do not
// observe ctx; call Shutdown before discarding the engine so that the
// pacer stops and pending writebacks complete.
func New[V any](ctx context.Context, st *store.Store[V], opts Options[V]) (*Engine[V], error) {
	if opts.Capacity <= 0 {
		return nil, errors.New("engine: capacity must be positive")
	}

	strategy := opts.Strategy
	if strategy == nil {
		strategy = lfu.New[V]()
	}
	m := opts.Metrics
	if m == nil {
		m = metrics.Noop{}
	}
	perSecond := opts.BackoffPerSecond
	if perSecond <= 0 {
		perSecond = defaultBackoffPerSecond
	}

	ectx, cancel := context.WithCancel(ctx)
	return &Engine[V]{
		pool:     pool.New[V](opts.Capacity),
		idx:      index.New(),
		store:    st,
		strategy: strategy,
		backoff:  backoff.New(ectx, perSecond),
		metrics:  m,
		log:      opts.Logger,
		counters: newCounters(),
		ctx:      ectx,
		cancel:   cancel,
	}, nil
}

// Pool exposes the underlying buffer pool for the flusher's DIRTY scan.
func (e *Engine[V]) Pool() *pool.Pool[V] { return e.pool }

// Index exposes the underlying line index for the flusher's key lookup.
func (e *Engine[V]) Index() *index.Index { return e.idx }

// Get returns the value bound to k and whether it was a miss (true when
// the value had to be loaded from the Record Store). A miss loads from the Record Store and installs the result, evicting
// a slot first if the pool is saturated; concurrent misses on the same
// k are coalesced into a single Store.Read plus install.
func (e *Engine[V]) Get(k int) (V, bool) {
	if v, hit := e.lookupAndTouch(k); hit {
		e.counters.hits.Add(1)
		e.metrics.Hit()
		return v, false
	}

	result, err, _ := e.sf.Do(strconv.Itoa(k), func() (any, error) {
		if v, hit := e.lookupAndTouch(k); hit {
			return v, nil
		}
		value, rerr := e.store.Read(k)
		if rerr != nil {
			return value, rerr
		}
		if ierr := e.install(k, value); ierr != nil {
			return value, ierr
		}
		return value, nil
	})

	e.counters.misses.Add(1)
	e.metrics.Miss()

	if err != nil {
		var zero V
		return zero, false
	}
	return result.(V), true
}

// Put writes v for k, updating the bound slot in place if one exists
// and is not mid-eviction, or installing a fresh slot otherwise.
func (e *Engine[V]) Put(k int, v V) {
	for {
		slot, ok := e.idx.Lookup(k)
		if !ok {
			break
		}
		cur := e.pool.Load(slot)
		if cur.Status == pool.Free || cur.Status == pool.Busy {
			// A Busy slot is mid-eviction: the binding is about to be
			// erased, so treat it the same as absent.
			break
		}
		next := &pool.State[V]{
			Frequency: bumpFrequency(cur.Frequency),
			Status:    pool.Dirty,
			Value:     v,
		}
		if e.pool.CAS(slot, cur, next) {
			e.counters.puts.Add(1)
			return
		}
		// Lost the race; loop re-reads the index and slot from scratch.
	}

	if err := e.install(k, v); err != nil {
		e.log.Warn().Err(err).Int("key", k).Msg("put: install aborted")
		return
	}
	e.counters.puts.Add(1)
}

// WaitPending blocks until every eviction writeback issued so far has
// completed, without affecting the engine's ability to keep serving
// requests. Shutdown performs the same wait after cancelling the
// engine's context.
func (e *Engine[V]) WaitPending() {
	e.wg.Wait()
}

// Shutdown cancels the engine's backoff pacer and waits for any
// in-flight eviction writebacks to complete.
func (e *Engine[V]) Shutdown() {
	e.cancel()
	e.wg.Wait()
}

// Stats is a point-in-time snapshot of engine counters and occupancy.
type Stats struct {
	Hits, Misses, Installs, Evictions, Puts int64
	Entries, Capacity                       int
}

// Stats returns a snapshot of the engine's counters and occupancy.
func (e *Engine[V]) Stats() Stats {
	hits, misses, installs, evictions, puts := e.counters.snapshot()
	return Stats{
		Hits: hits, Misses: misses, Installs: installs, Evictions: evictions, Puts: puts,
		Entries: e.idx.Len(), Capacity: e.pool.Len(),
	}
}

// lookupAndTouch looks k up in the index and, if its slot is neither
// Free nor Busy, bumps its frequency and returns its value. A Free
// slot means the binding is stale (the line was evicted since the
// index entry was last valid); a Busy slot means eviction is
// mid-flight. Both are reported as a miss, mirroring the Busy-as-miss
// treatment spec.md gives to Put.
func (e *Engine[V]) lookupAndTouch(k int) (V, bool) {
	var zero V
	slot, ok := e.idx.Lookup(k)
	if !ok {
		return zero, false
	}
	for {
		cur := e.pool.Load(slot)
		if cur.Status == pool.Free || cur.Status == pool.Busy {
			return zero, false
		}
		next := &pool.State[V]{
			Frequency: bumpFrequency(cur.Frequency),
			Status:    cur.Status,
			Value:     cur.Value,
		}
		if e.pool.CAS(slot, cur, next) {
			return cur.Value, true
		}
	}
}

// install acquires a free slot and CASes v into it as the new binding
// for k, retrying the whole acquisition if another goroutine wins the
// freshly freed slot first.
func (e *Engine[V]) install(k int, v V) error {
	for {
		slot, free, ok := e.acquireSlot()
		if !ok {
			return errShuttingDown
		}
		installed := &pool.State[V]{Status: pool.Dirty, Frequency: 1, Value: v}
		if e.pool.CAS(slot, free, installed) {
			e.idx.Insert(k, slot)
			e.counters.installs.Add(1)
			e.metrics.Install()
			e.metrics.Size(e.idx.Len(), e.pool.Len())
			return nil
		}
	}
}

// acquireSlot implements the normative eviction sequence: select a
// non-Busy candidate, claim it by CASing to Busy, erase its index
// binding (capturing the old key and value under the index lock), CAS
// it to Free, and — if it held a Dirty value — fire off its writeback
// asynchronously. The returned free state is the exact snapshot
// installed by this call, for the caller to CAS against.
func (e *Engine[V]) acquireSlot() (slot int, free *pool.State[V], ok bool) {
	for {
		select {
		case <-e.ctx.Done():
			return 0, nil, false
		default:
		}

		cand, found := e.strategy.Select(e.pool)
		if !found {
			e.backoff.Wait(e.ctx)
			continue
		}

		old := e.pool.Load(cand)
		if old.Status == pool.Busy {
			continue
		}
		busy := &pool.State[V]{Frequency: old.Frequency, Status: pool.Busy, Value: old.Value}
		if !e.pool.CAS(cand, old, busy) {
			continue
		}

		oldStatus := old.Status
		oldValue := old.Value
		oldKey, hadKey := e.idx.EraseBySlot(cand)

		freed := &pool.State[V]{Status: pool.Free}
		if !e.pool.CAS(cand, busy, freed) {
			panic("engine: lost exclusive ownership of a Busy slot")
		}

		if hadKey {
			e.counters.evictions.Add(1)
			e.metrics.Evict()
			if oldStatus == pool.Dirty {
				e.writebackAsync(oldKey, oldValue)
			}
		}

		return cand, freed, true
	}
}

// writebackAsync issues a fire-and-forget Store.Write for an evicted
// Dirty value. Shutdown waits for all such writes to finish.
func (e *Engine[V]) writebackAsync(k int, v V) {
	e.wg.Add(1)
	go func() {
		defer e.wg.Done()
		if err := e.store.Write(k, v); err != nil {
			e.log.Warn().Err(err).Int("key", k).Msg("eviction writeback failed")
		}
	}()
}

func bumpFrequency(f uint16) uint16 {
	if f == math.MaxUint16 {
		return f
	}
	return f + 1
}
