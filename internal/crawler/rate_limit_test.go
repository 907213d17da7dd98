package crawler

import (
	"context"
	"net/http"
	"testing"
	"time"

	"golang.org/x/sync/semaphore"
)

func TestNewRateLimiterDisabled(t *testing.T) {
	t.Parallel()

	if newRateLimiter(0, 4) != nil {
		t.Fatal("expected nil limiter for zero rate")
	}
	l := newRateLimiter(10, 0)
	if l == nil || l.Burst() != 1 {
		t.Fatalf("expected limiter with burst 1, got %v", l)
	}
}

func TestAcquireRequestSlotHonoursContext(t *testing.T) {
	t.Parallel()

	c := &crawler{slots: semaphore.NewWeighted(1), limiter: newRateLimiter(1, 1)}
	if !c.acquireRequestSlot(context.Background()) {
		t.Fatal("expected first slot")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if c.acquireRequestSlot(ctx) {
		t.Fatal("expected acquire to fail while the only slot is held")
	}
	c.releaseRequestSlot()

	ctx2, cancel2 := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel2()
	if c.acquireRequestSlot(ctx2) {
		t.Fatal("expected limiter to refuse a second token within the deadline")
	}
	if !c.slots.TryAcquire(1) {
		t.Fatal("slot must be released when the limiter refuses")
	}
}

func TestCrawlWithRateLimit(t *testing.T) {
	t.Parallel()

	site := newFakeSite(map[string]fakePage{
		"example.test/start": {body: linksHTML("/a", "/b", "https://other.test/")},
		"example.test/a":     {body: linksHTML()},
		"example.test/b":     {body: linksHTML()},
		"other.test/":        {body: linksHTML()},
	})
	cfg := testConfig(site)
	cfg.RequestsPerSecond = 200
	cfg.Burst = 1

	report := runWithDeadline(t, cfg, 3*time.Second)
	assertVisited(t, report, "https://example.test/start", "https://example.test/a", "https://example.test/b")
}

func TestRobotsLookupWaitsForRequestSlot(t *testing.T) {
	t.Parallel()

	site := newFakeSite(map[string]fakePage{
		"example.test/robots.txt": {body: "User-agent: *\nDisallow: /private\n", contentType: "text/plain"},
	})
	c, err := newCrawler(Config{
		StartURL:   "https://example.test/start",
		MaxWorkers: 1,
		Client:     &http.Client{Transport: site},
		Timeout:    time.Second,
	})
	if err != nil {
		t.Fatalf("newCrawler: %v", err)
	}

	if !c.slots.TryAcquire(1) {
		t.Fatal("expected to take the only slot")
	}
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	out, _ := gatedFetcher{c: c}.Get(ctx, "https://example.test/robots.txt")
	if out.Status != NoResponse {
		t.Fatalf("expected no response while the slot is held, got %d", out.Status)
	}
	if got := site.hits("GET", "example.test/robots.txt"); got != 0 {
		t.Fatalf("robots.txt must not be fetched without a slot, got %d requests", got)
	}
	c.releaseRequestSlot()

	if c.robots.allowed(context.Background(), "https://example.test/private/x") {
		t.Fatal("expected /private to be disallowed")
	}
	if got := site.hits("GET", "example.test/robots.txt"); got != 1 {
		t.Fatalf("expected one robots.txt fetch, got %d", got)
	}
	if !c.slots.TryAcquire(1) {
		t.Fatal("robots lookup must release its slot")
	}
}
