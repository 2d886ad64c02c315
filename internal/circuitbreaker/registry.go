package circuitbreaker

import (
	"sync"
	"time"
)

// Registry lazily creates one breaker per backend id.
type Registry struct {
	mutex     sync.RWMutex
	breakers  map[string]*CircuitBreaker
	threshold int
	timeout   time.Duration
}

func NewRegistry(threshold int, timeout time.Duration) *Registry {
	return &Registry{
		breakers:  make(map[string]*CircuitBreaker),
		threshold: threshold,
		timeout:   timeout,
	}
}

// Get returns the breaker for a backend id, creating it on first use.
func (r *Registry) Get(backendID string) *CircuitBreaker {
	r.mutex.RLock()
	cb, exists := r.breakers[backendID]
	r.mutex.RUnlock()

	if exists {
		return cb
	}

	r.mutex.Lock()
	defer r.mutex.Unlock()

	// Double-check: another goroutine may have created it
	if cb, exists = r.breakers[backendID]; exists {
		return cb
	}

	cb = NewCircuitBreaker(r.threshold, r.timeout)
	r.breakers[backendID] = cb
	return cb
}

// States returns the current state of every known breaker.
func (r *Registry) States() map[string]State {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	states := make(map[string]State, len(r.breakers))
	for id, cb := range r.breakers {
		states[id] = cb.State()
	}
	return states
}
