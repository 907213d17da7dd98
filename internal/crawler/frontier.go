package crawler

import (
	"context"
	"sync"
)

// Frontier owns the visited set and the FIFO queue of pages awaiting a crawl.
//
// A page is counted as pending from the moment TryEnqueue admits it until the
// worker that received it from Next calls Done. Next reports exhaustion only
// when the queue is empty and nothing is pending, so a worker still crawling
// a page keeps the others waiting for the links it may discover.
type Frontier struct {
	mu      sync.Mutex
	visited map[URLKey]struct{}
	queue   []URLKey
	pending int
	limit   int
	wake    chan struct{}
}

// NewFrontier returns an empty frontier. A positive limit caps the number of
// pages ever admitted.
func NewFrontier(limit int) *Frontier {
	if limit < 0 {
		limit = 0
	}
	return &Frontier{
		visited: make(map[URLKey]struct{}),
		limit:   limit,
		wake:    make(chan struct{}),
	}
}

// TryEnqueue admits u if it has never been seen and the limit is not reached.
// It returns true only for the call that inserted u; that caller owns the
// crawl of u.
func (f *Frontier) TryEnqueue(u URLKey) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, seen := f.visited[u]; seen {
		return false
	}
	if f.limit > 0 && len(f.visited) >= f.limit {
		return false
	}
	f.visited[u] = struct{}{}
	f.queue = append(f.queue, u)
	f.pending++
	f.broadcastLocked()
	return true
}

// Seen reports whether u was ever admitted.
func (f *Frontier) Seen(u URLKey) bool {
	f.mu.Lock()
	_, ok := f.visited[u]
	f.mu.Unlock()
	return ok
}

// Next blocks until a page is available. It returns false once the frontier
// is exhausted or ctx is done.
func (f *Frontier) Next(ctx context.Context) (URLKey, bool) {
	for {
		f.mu.Lock()
		if len(f.queue) > 0 {
			u := f.queue[0]
			f.queue[0] = ""
			f.queue = f.queue[1:]
			f.mu.Unlock()
			return u, true
		}
		if f.pending == 0 {
			f.mu.Unlock()
			return "", false
		}
		wake := f.wake
		f.mu.Unlock()

		select {
		case <-ctx.Done():
			return "", false
		case <-wake:
		}
	}
}

// Done marks one page returned by Next as fully processed.
func (f *Frontier) Done() {
	f.mu.Lock()
	if f.pending > 0 {
		f.pending--
	}
	if f.pending == 0 {
		f.broadcastLocked()
	}
	f.mu.Unlock()
}

// Len returns the number of pages ever admitted.
func (f *Frontier) Len() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.visited)
}

// Queued returns the number of admitted pages not yet handed out.
func (f *Frontier) Queued() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.queue)
}

func (f *Frontier) broadcastLocked() {
	close(f.wake)
	f.wake = make(chan struct{})
}
