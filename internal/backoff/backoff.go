// Package backoff paces retry loops that spin under contention: the
// cache engine's acquire_slot loop, which waits on it whenever the LFU
// strategy's scan finds nothing but BUSY slots. It is the
// same leaky-bucket-plus-channel shape as internal/shared/rate.Jitter,
// renamed to the concern it serves here.
package backoff

import (
	"context"

	"go.uber.org/ratelimit"
)

// Backoff emits a token at most `perSecond` times per second. Callers
// block on Wait until the next token is available or ctx is done.
type Backoff struct {
	ch chan struct{}
	l  ratelimit.Limiter
}

// New starts a Backoff paced at perSecond tokens/second, tied to ctx's
// lifetime. A burst buffer of roughly 10% of perSecond (minimum 1) keeps
// bursts of retries from stalling on channel sends.
func New(ctx context.Context, perSecond int) *Backoff {
	if perSecond <= 0 {
		perSecond = 1
	}
	burst := perSecond / 10
	if burst < 1 {
		burst = 1
	}
	b := &Backoff{
		ch: make(chan struct{}, burst),
		l:  ratelimit.New(perSecond),
	}
	go b.provide(ctx)
	return b
}

func (b *Backoff) provide(ctx context.Context) {
	defer close(b.ch)
	for {
		b.l.Take()
		select {
		case <-ctx.Done():
			return
		case b.ch <- struct{}{}:
		}
	}
}

// Wait blocks until the next token is available or ctx is done.
func (b *Backoff) Wait(ctx context.Context) {
	select {
	case <-b.ch:
	case <-ctx.Done():
	}
}
