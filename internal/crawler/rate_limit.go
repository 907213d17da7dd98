package crawler

import (
	"context"

	"golang.org/x/time/rate"
)

// newRateLimiter returns nil when requestsPerSecond is not positive, which
// disables rate limiting.
func newRateLimiter(requestsPerSecond float64, burst int) *rate.Limiter {
	if requestsPerSecond <= 0 {
		return nil
	}
	if burst <= 0 {
		burst = 1
	}
	return rate.NewLimiter(rate.Limit(requestsPerSecond), burst)
}

// acquireRequestSlot blocks until an outbound request may start. Slots bound
// the number of simultaneous requests across page and link workers; the
// limiter spaces them out. It returns false if ctx ends first.
func (c *crawler) acquireRequestSlot(ctx context.Context) bool {
	if err := c.slots.Acquire(ctx, 1); err != nil {
		return false
	}
	if c.limiter == nil {
		return true
	}
	if err := c.limiter.Wait(ctx); err != nil {
		c.slots.Release(1)
		return false
	}
	return true
}

func (c *crawler) releaseRequestSlot() {
	c.slots.Release(1)
}

// gatedFetcher puts requests made outside the workers, such as robots.txt
// lookups, behind the same slots and limiter.
type gatedFetcher struct {
	c *crawler
}

func (g gatedFetcher) Check(ctx context.Context, target URLKey) Outcome {
	if !g.c.acquireRequestSlot(ctx) {
		return Outcome{URL: target, Status: NoResponse, Err: ctx.Err()}
	}
	defer g.c.releaseRequestSlot()
	return g.c.fetcher.Check(ctx, target)
}

func (g gatedFetcher) Get(ctx context.Context, target URLKey) (Outcome, []byte) {
	if !g.c.acquireRequestSlot(ctx) {
		return Outcome{URL: target, Status: NoResponse, Err: ctx.Err()}, nil
	}
	defer g.c.releaseRequestSlot()
	return g.c.fetcher.Get(ctx, target)
}
