package crawler

import "sync"

// checkRegistry makes sure every link target is fetched once while every page
// referencing a broken target still gets its own bad-link record.
type checkRegistry struct {
	mu      sync.Mutex
	targets map[URLKey]*checkState
	results *Aggregator
}

type checkState struct {
	done      bool
	status    int
	sources   map[URLKey]struct{}
	referrers []URLKey
}

func newCheckRegistry(results *Aggregator) *checkRegistry {
	return &checkRegistry{
		targets: make(map[URLKey]*checkState),
		results: results,
	}
}

// reference registers source as linking to target. It returns true when
// target had never been referenced before; the caller then owns its check.
// If the target was already checked and found bad, the record for source is
// written immediately.
func (r *checkRegistry) reference(source, target URLKey) bool {
	r.mu.Lock()
	st, ok := r.targets[target]
	if !ok {
		r.targets[target] = &checkState{
			sources:   map[URLKey]struct{}{source: {}},
			referrers: []URLKey{source},
		}
		r.mu.Unlock()
		return true
	}
	if _, dup := st.sources[source]; dup {
		r.mu.Unlock()
		return false
	}
	st.sources[source] = struct{}{}
	if !st.done {
		st.referrers = append(st.referrers, source)
		r.mu.Unlock()
		return false
	}
	status := st.status
	r.mu.Unlock()

	if IsBad(status) {
		r.results.RecordBad(source, target, status)
	}
	return false
}

// resolve stores the check status of target and writes a bad-link record for
// every source that referenced it so far. It returns those sources.
func (r *checkRegistry) resolve(target URLKey, status int) []URLKey {
	r.mu.Lock()
	st, ok := r.targets[target]
	if !ok {
		st = &checkState{sources: map[URLKey]struct{}{}}
		r.targets[target] = st
	}
	if st.done {
		r.mu.Unlock()
		return nil
	}
	st.done = true
	st.status = status
	referrers := st.referrers
	st.referrers = nil
	r.mu.Unlock()

	if IsBad(status) {
		for _, source := range referrers {
			r.results.RecordBad(source, target, status)
		}
	}
	return referrers
}
