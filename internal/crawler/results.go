package crawler

import "sync"

// Aggregator collects the output streams of a crawl. All Record methods are
// safe for concurrent use. Once Finalize has been called further records are
// discarded, so late workers abandoned by a deadline cannot change a result
// that was already handed out.
type Aggregator struct {
	mu        sync.Mutex
	visited   []URLKey
	seen      map[URLKey]struct{}
	bad       []BadLink
	unhandled []UnhandledLink
	errors    []Error
	finalized bool
}

// NewAggregator returns an empty aggregator.
func NewAggregator() *Aggregator {
	return &Aggregator{seen: make(map[URLKey]struct{})}
}

// RecordVisited appends u to the visited pages unless it is already there.
func (a *Aggregator) RecordVisited(u URLKey) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.finalized {
		return
	}
	if _, ok := a.seen[u]; ok {
		return
	}
	a.seen[u] = struct{}{}
	a.visited = append(a.visited, u)
}

// RecordBad appends a bad-link record. 2xx statuses are ignored.
func (a *Aggregator) RecordBad(source, target URLKey, status int) {
	if !IsBad(status) {
		return
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.finalized {
		return
	}
	a.bad = append(a.bad, BadLink{Source: source, Target: target, Status: status})
}

// RecordUnhandled appends an unhandled-link record.
func (a *Aggregator) RecordUnhandled(source, target URLKey, raw string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.finalized {
		return
	}
	a.unhandled = append(a.unhandled, UnhandledLink{Source: source, Target: target, Raw: raw})
}

// RecordError appends a recovered failure.
func (a *Aggregator) RecordError(err Error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.finalized {
		return
	}
	a.errors = append(a.errors, err)
}

// Finalize freezes the aggregator and returns a copy of everything recorded.
func (a *Aggregator) Finalize() Result {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.finalized = true
	return Result{
		Visited:   append([]URLKey(nil), a.visited...),
		BadLinks:  append([]BadLink(nil), a.bad...),
		Unhandled: append([]UnhandledLink(nil), a.unhandled...),
		Errors:    append([]Error(nil), a.errors...),
	}
}
