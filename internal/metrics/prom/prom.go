// Package prom adapts the engine's metrics.Metrics interface onto
// Prometheus counters and gauges, following the same adapter shape as
// IvanBrykalov-shardcache's metrics/prom package.
package prom

import (
	"github.com/nullpilot/linecache/internal/metrics"
	"github.com/prometheus/client_golang/prometheus"
)

// Adapter implements metrics.Metrics and exports Prometheus series.
// Safe for concurrent use; every Prometheus metric type is
// goroutine-safe.
type Adapter struct {
	hits      prometheus.Counter
	misses    prometheus.Counter
	installs  prometheus.Counter
	evictions prometheus.Counter
	flushes   prometheus.Counter
	entries   prometheus.Gauge
	capacity  prometheus.Gauge
}

// New constructs a Prometheus metrics adapter registered under
// namespace ns. A nil registerer falls back to
// prometheus.DefaultRegisterer.
func New(reg prometheus.Registerer, ns string) *Adapter {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	a := &Adapter{
		hits: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: ns, Name: "hits_total", Help: "Cache hits",
		}),
		misses: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: ns, Name: "misses_total", Help: "Cache misses",
		}),
		installs: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: ns, Name: "installs_total", Help: "Values installed into a free or evicted slot",
		}),
		evictions: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: ns, Name: "evictions_total", Help: "Slots evicted to make room for a miss",
		}),
		flushes: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: ns, Name: "flushes_total", Help: "Dirty slots written back to the record store",
		}),
		entries: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: ns, Name: "size_entries", Help: "Number of bound index entries",
		}),
		capacity: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: ns, Name: "size_capacity", Help: "Pool capacity",
		}),
	}
	reg.MustRegister(a.hits, a.misses, a.installs, a.evictions, a.flushes, a.entries, a.capacity)
	return a
}

func (a *Adapter) Hit()     { a.hits.Inc() }
func (a *Adapter) Miss()    { a.misses.Inc() }
func (a *Adapter) Install() { a.installs.Inc() }
func (a *Adapter) Evict()   { a.evictions.Inc() }
func (a *Adapter) Flush()   { a.flushes.Inc() }

func (a *Adapter) Size(entries, capacity int) {
	a.entries.Set(float64(entries))
	a.capacity.Set(float64(capacity))
}

var _ metrics.Metrics = (*Adapter)(nil)
