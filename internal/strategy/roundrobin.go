package strategy

import (
	"sync/atomic"

	"github.com/nchalkias/traffic-balancer/internal/backend"
)

type roundRobinStrategy struct {
	current uint64
}

// NewRoundRobinStrategy creates a round-robin strategy instance.
func NewRoundRobinStrategy() Strategy {
	return &roundRobinStrategy{}
}

// SelectBackend advances the shared cursor and returns the backend at the
// new position. Each concurrent selection consumes a distinct advance of
// the counter.
func (rr *roundRobinStrategy) SelectBackend(backends []*backend.Backend) *backend.Backend {
	if len(backends) == 0 {
		return nil
	}

	n := atomic.AddUint64(&rr.current, 1)

	return backends[(n-1)%uint64(len(backends))]
}
