package strategy

import (
	"sync"

	"github.com/nchalkias/traffic-balancer/internal/backend"
)

// weightedRoundRobinStrategy implements smooth weighted round-robin
// selection (the Nginx algorithm): every backend accumulates its weight
// per selection, the highest accumulated value wins and is reduced by the
// total weight. Selections interleave proportionally instead of bursting.
type weightedRoundRobinStrategy struct {
	mutex   sync.Mutex
	current map[*backend.Backend]int // accumulated weight per backend
	weights map[*backend.Backend]int // weights the current state was built on
}

// NewWeightedRoundRobinStrategy creates a weighted round-robin strategy instance.
func NewWeightedRoundRobinStrategy() Strategy {
	return &weightedRoundRobinStrategy{
		current: make(map[*backend.Backend]int),
		weights: make(map[*backend.Backend]int),
	}
}

// SelectBackend picks the backend with the highest accumulated weight.
// Accumulated state is rebuilt from scratch whenever the pool membership
// or any weight changed since the last selection, so stale counters never
// skew the spread.
func (w *weightedRoundRobinStrategy) SelectBackend(backends []*backend.Backend) *backend.Backend {
	if len(backends) == 0 {
		return nil
	}

	w.mutex.Lock()
	defer w.mutex.Unlock()

	if w.stale(backends) {
		w.reset(backends)
	}

	totalWeight := 0
	var chosen *backend.Backend

	for _, b := range backends {
		weight := w.weights[b]
		if weight <= 0 {
			continue
		}

		w.current[b] += weight
		totalWeight += weight

		if chosen == nil || w.current[b] > w.current[chosen] {
			chosen = b
		}
	}

	if chosen == nil || totalWeight == 0 {
		return nil
	}

	w.current[chosen] -= totalWeight
	return chosen
}

func (w *weightedRoundRobinStrategy) stale(backends []*backend.Backend) bool {
	if len(backends) != len(w.weights) {
		return true
	}

	for _, b := range backends {
		weight, ok := w.weights[b]
		if !ok || weight != b.Weight() {
			return true
		}
	}

	return false
}

func (w *weightedRoundRobinStrategy) reset(backends []*backend.Backend) {
	w.current = make(map[*backend.Backend]int, len(backends))
	w.weights = make(map[*backend.Backend]int, len(backends))

	for _, b := range backends {
		w.weights[b] = b.Weight()
	}
}
