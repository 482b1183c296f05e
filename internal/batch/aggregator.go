package batch

import (
	"sort"
	"sync"
)

// aggregator collects results from concurrent workers. The lock is held only
// while a result is recorded.
type aggregator struct {
	mu      sync.Mutex
	results []*Result
	counts  map[Outcome]int
}

func newAggregator() *aggregator {
	return &aggregator{counts: make(map[Outcome]int)}
}

func (a *aggregator) add(r *Result) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.results = append(a.results, r)
	a.counts[r.Outcome]++
}

// sorted returns the results ordered by index. Call only after all workers
// have finished.
func (a *aggregator) sorted() []*Result {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]*Result, len(a.results))
	copy(out, a.results)
	sort.Slice(out, func(i, j int) bool { return out[i].Index < out[j].Index })
	return out
}

func (a *aggregator) count(o Outcome) int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.counts[o]
}
