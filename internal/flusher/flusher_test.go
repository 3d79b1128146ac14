package flusher

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/nullpilot/linecache/codec"
	"github.com/nullpilot/linecache/internal/index"
	"github.com/nullpilot/linecache/internal/pool"
	"github.com/nullpilot/linecache/internal/store"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

func TestFlusher_WritesBackDirtySlotAndMarksValid(t *testing.T) {
	p := pool.New[int64](2)
	idx := index.New()
	path := filepath.Join(t.TempDir(), "items.txt")
	st, err := store.Open[int64](path, 10, 10, codec.Int{})
	require.NoError(t, err)
	defer st.Close()

	p.CAS(0, p.Load(0), &pool.State[int64]{Status: pool.Dirty, Frequency: 1, Value: 77})
	idx.Insert(7, 0)

	f := New[int64](context.Background(), 20*time.Millisecond, p, idx, st, nil, zerolog.Nop())
	defer f.Stop()

	require.Eventually(t, func() bool {
		return p.Load(0).Status == pool.Valid
	}, time.Second, 10*time.Millisecond)

	v, err := st.Read(7)
	require.NoError(t, err)
	require.Equal(t, int64(77), v)
}

func TestFlusher_StopPerformsFinalSweep(t *testing.T) {
	p := pool.New[int64](1)
	idx := index.New()
	path := filepath.Join(t.TempDir(), "items.txt")
	st, err := store.Open[int64](path, 10, 10, codec.Int{})
	require.NoError(t, err)
	defer st.Close()

	p.CAS(0, p.Load(0), &pool.State[int64]{Status: pool.Dirty, Frequency: 1, Value: 55})
	idx.Insert(5, 0)

	// A long period means Stop's final sweep is the only thing that can
	// possibly flush this slot before the assertion below runs.
	f := New[int64](context.Background(), time.Hour, p, idx, st, nil, zerolog.Nop())
	f.Stop()

	require.Equal(t, pool.Valid, p.Load(0).Status)
	v, err := st.Read(5)
	require.NoError(t, err)
	require.Equal(t, int64(55), v)
}

func TestFlusher_SkipsValidSlots(t *testing.T) {
	p := pool.New[int64](1)
	idx := index.New()
	path := filepath.Join(t.TempDir(), "items.txt")
	st, err := store.Open[int64](path, 10, 10, codec.Int{})
	require.NoError(t, err)
	defer st.Close()

	p.CAS(0, p.Load(0), &pool.State[int64]{Status: pool.Valid, Frequency: 1, Value: 1})

	f := New[int64](context.Background(), time.Hour, p, idx, st, nil, zerolog.Nop())
	f.Stop()

	require.Equal(t, pool.Valid, p.Load(0).Status)
}
