// Package metrics defines the cache engine's observability hooks: a
// small interface the engine calls on every Get/Put/evict/flush, with
// a no-op default so instrumentation is opt-in.
package metrics

// Metrics exposes cache engine observability hooks.
type Metrics interface {
	Hit()
	Miss()
	Install()
	Evict()
	Flush()
	Size(entries, capacity int)
}

// Noop is a Metrics implementation that does nothing. It is the
// default when no observability backend is configured.
type Noop struct{}

func (Noop) Hit()                       {}
func (Noop) Miss()                      {}
func (Noop) Install()                   {}
func (Noop) Evict()                     {}
func (Noop) Flush()                     {}
func (Noop) Size(entries, capacity int) {}

var _ Metrics = Noop{}
