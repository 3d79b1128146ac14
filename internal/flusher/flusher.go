// Package flusher implements the single background task that
// periodically writes Dirty slots back to the Record Store and
// transitions them to Valid. Its ticker-plus-context shape is adapted
// from internal/evictor's background worker.
package flusher

import (
	"context"
	"time"

	"github.com/nullpilot/linecache/internal/index"
	"github.com/nullpilot/linecache/internal/metrics"
	"github.com/nullpilot/linecache/internal/pool"
	"github.com/nullpilot/linecache/internal/store"
	"github.com/rs/zerolog"
)

// Flusher walks a pool on a fixed period (and once more at Stop),
// writing back every Dirty slot it finds and marking it Valid.
type Flusher[V any] struct {
	ctx    context.Context
	cancel context.CancelFunc
	period time.Duration

	pool  *pool.Pool[V]
	idx   *index.Index
	store *store.Store[V]

	metrics metrics.Metrics
	log     zerolog.Logger

	done chan struct{}
}

// New starts a Flusher over p/idx/st, sweeping every period. period<=0
// defaults to one second. The flusher runs until Stop is called.
func New[V any](ctx context.Context, period time.Duration, p *pool.Pool[V], idx *index.Index, st *store.Store[V], m metrics.Metrics, log zerolog.Logger) *Flusher[V] {
	if period <= 0 {
		period = time.Second
	}
	if m == nil {
		m = metrics.Noop{}
	}

	fctx, cancel := context.WithCancel(ctx)
	f := &Flusher[V]{
		ctx: fctx, cancel: cancel, period: period,
		pool: p, idx: idx, store: st,
		metrics: m, log: log,
		done: make(chan struct{}),
	}
	go f.run()
	return f
}

// Stop cancels the flusher, waits for its final sweep to finish, and
// returns once every writeback it issued has landed.
func (f *Flusher[V]) Stop() {
	f.cancel()
	<-f.done
}

func (f *Flusher[V]) run() {
	defer close(f.done)

	ticker := time.NewTicker(f.period)
	defer ticker.Stop()

	f.log.Info().Dur("period", f.period).Msg("flusher is running")
	for {
		select {
		case <-f.ctx.Done():
			f.sweep()
			f.log.Info().Msg("flusher is stopped")
			return
		case <-ticker.C:
			f.sweep()
		}
	}
}

// sweep walks every slot once, writing back and marking Valid any slot
// found Dirty. A slot that races with a concurrent CAS (eviction
// claiming it, or another sweep beating this one) or whose index
// binding has already been erased is skipped for this cycle; it will
// be picked up again on the next sweep if still Dirty then.
func (f *Flusher[V]) sweep() {
	for i := 0; i < f.pool.Len(); i++ {
		cur := f.pool.Load(i)
		if cur.Status != pool.Dirty {
			continue
		}

		next := &pool.State[V]{Status: pool.Valid, Frequency: cur.Frequency, Value: cur.Value}
		if !f.pool.CAS(i, cur, next) {
			continue
		}

		k, ok := f.idx.KeyForSlot(i)
		if !ok {
			// Nothing was written, so put the slot back to Dirty unless
			// another goroutine has changed it since.
			f.pool.CAS(i, next, &pool.State[V]{Status: pool.Dirty, Frequency: cur.Frequency, Value: cur.Value})
			continue
		}
		if err := f.store.Write(k, cur.Value); err != nil {
			f.log.Warn().Err(err).Int("slot", i).Msg("flush write failed")
			continue
		}
		f.metrics.Flush()
	}
}
