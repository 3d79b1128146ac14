package engine

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/nullpilot/linecache/codec"
	"github.com/nullpilot/linecache/internal/store"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"
)

func newTestEngine(t *testing.T, capacity int) (*Engine[int64], *store.Store[int64]) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "items.txt")
	st, err := store.Open[int64](path, 100, 10, codec.Int{})
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	e, err := New[int64](context.Background(), st, Options[int64]{
		Capacity: capacity,
		Logger:   zerolog.Nop(),
	})
	require.NoError(t, err)
	t.Cleanup(e.Shutdown)
	return e, st
}

// Scenario 1: basic put/get.
func TestEngine_BasicPutGet(t *testing.T) {
	e, _ := newTestEngine(t, 4)

	e.Put(1, 1000)
	v, miss := e.Get(1)
	require.Equal(t, int64(1000), v)
	require.False(t, miss)
}

// Scenario 2: overwrite.
func TestEngine_Overwrite(t *testing.T) {
	e, _ := newTestEngine(t, 4)

	e.Put(1000, -1000)
	e.Put(1000, -111)
	v, miss := e.Get(1000)
	require.Equal(t, int64(-111), v)
	require.False(t, miss)
}

// Scenario 3: float round-trip.
func TestEngine_FloatRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "items.txt")
	st, err := store.Open[float64](path, 100, 10, codec.Float{})
	require.NoError(t, err)
	defer st.Close()

	e, err := New[float64](context.Background(), st, Options[float64]{Capacity: 4, Logger: zerolog.Nop()})
	require.NoError(t, err)
	defer e.Shutdown()

	e.Put(10, 1000.1)
	v, miss := e.Get(10)
	require.InDelta(t, 1000.1, v, 1e-6)
	require.False(t, miss)
}

// Scenario 4: LFU eviction. Pre-seeding record 4 ensures the
// evicted key's value is observable from disk after eviction, matching
// the scenario's own caveat about needing a flushed (or directly
// pre-seeded) record.
func TestEngine_LFUEviction(t *testing.T) {
	e, st := newTestEngine(t, 4)
	require.NoError(t, st.Write(4, 4444))

	e.Put(1, 1111)
	e.Put(2, 2222)
	e.Put(3, 3333)
	e.Put(4, 4444)

	e.Get(1)
	e.Get(2)
	e.Get(3)

	e.Put(5, 5555)

	v, miss := e.Get(4)
	require.True(t, miss)
	require.Equal(t, int64(4444), v)
}

// Scenario 5: flush persistence — exercised here at the engine level by
// evicting a Dirty slot directly and confirming the writeback lands in
// the record store (the ticking Flusher itself is covered separately).
func TestEngine_EvictionWritesBackDirtyValue(t *testing.T) {
	e, st := newTestEngine(t, 2)

	e.Put(7, 77)
	e.Put(8, 88)
	// Capacity is 2 and both slots are now Dirty; a third distinct put
	// forces an eviction, which must flush whichever slot is chosen.
	e.Put(9, 99)

	e.WaitPending() // waits for any async writeback to land without stopping the engine.

	for _, k := range []int{7, 8} {
		if _, miss := e.Get(k); miss {
			v, err := st.Read(k)
			require.NoError(t, err)
			require.Equal(t, int64(k*11), v)
		}
	}
}

// Scenario 6: saturation liveness.
func TestEngine_SaturationLiveness(t *testing.T) {
	e, _ := newTestEngine(t, 2)

	var g errgroup.Group
	const goroutines = 10
	const opsPerGoroutine = 2000
	for i := 0; i < goroutines; i++ {
		g.Go(func() error {
			for j := 0; j < opsPerGoroutine; j++ {
				k := (j % 100) + 1
				e.Put(k, int64(k*1000+j))
			}
			return nil
		})
	}

	done := make(chan error, 1)
	go func() { done <- g.Wait() }()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(30 * time.Second):
		t.Fatal("saturation workload did not terminate: possible deadlock")
	}
}

func TestEngine_StatsReflectsOccupancyAndCounters(t *testing.T) {
	e, _ := newTestEngine(t, 4)

	e.Put(1, 10)
	e.Get(1)
	e.Get(2) // miss

	stats := e.Stats()
	require.Equal(t, 4, stats.Capacity)
	require.GreaterOrEqual(t, stats.Entries, 1)
	require.Equal(t, int64(1), stats.Hits)
	require.GreaterOrEqual(t, stats.Misses, int64(1))
}

func TestEngine_ConcurrentGetsOnSameMissCoalesce(t *testing.T) {
	e, st := newTestEngine(t, 4)
	require.NoError(t, st.Write(3, 333))

	var g errgroup.Group
	results := make([]int64, 20)
	for i := 0; i < 20; i++ {
		i := i
		g.Go(func() error {
			v, _ := e.Get(3)
			results[i] = v
			return nil
		})
	}
	require.NoError(t, g.Wait())

	for _, v := range results {
		require.Equal(t, int64(333), v)
	}
}
