package registry

import (
	"errors"

	"github.com/nchalkias/traffic-balancer/internal/backend"
)

var (
	// ErrBackendNotFound is returned for admin mutations naming an
	// unknown backend id.
	ErrBackendNotFound = errors.New("backend not found")

	// ErrInvalidWeight is returned for non-positive weights.
	ErrInvalidWeight = errors.New("weight must be positive")
)

// Registry owns the authoritative set of backends. The set is fixed at
// construction and never changes while the process runs; only per-backend
// health and weight mutate, each behind the backend's own lock. Because
// the slice itself is immutable, reads never take a registry-level lock.
type Registry struct {
	backends []*backend.Backend // configuration order
	byID     map[string]*backend.Backend
}

// New creates a Registry over the given backends, preserving their order.
func New(backends []*backend.Backend) *Registry {
	byID := make(map[string]*backend.Backend, len(backends))
	for _, b := range backends {
		byID[b.ID()] = b
	}

	return &Registry{
		backends: backends,
		byID:     byID,
	}
}

// SnapshotHealthy returns the currently healthy backends in configuration
// order. The returned slice is a private copy; callers may hold it across
// I/O without blocking mutations.
func (r *Registry) SnapshotHealthy() []*backend.Backend {
	healthy := make([]*backend.Backend, 0, len(r.backends))

	for _, b := range r.backends {
		if b.IsHealthy() {
			healthy = append(healthy, b)
		}
	}

	return healthy
}

// All returns every backend, healthy or not, in configuration order.
func (r *Registry) All() []*backend.Backend {
	all := make([]*backend.Backend, len(r.backends))
	copy(all, r.backends)
	return all
}

// Get looks up a backend by id.
func (r *Registry) Get(id string) (*backend.Backend, bool) {
	b, ok := r.byID[id]
	return b, ok
}

// SetWeight updates a backend's weight. Returns ErrBackendNotFound for an
// unknown id and ErrInvalidWeight for a non-positive weight; the prior
// weight is left untouched on error.
func (r *Registry) SetWeight(id string, weight int) error {
	b, ok := r.byID[id]
	if !ok {
		return ErrBackendNotFound
	}

	if weight <= 0 {
		return ErrInvalidWeight
	}

	b.SetWeight(weight)
	return nil
}

// Len returns the number of registered backends.
func (r *Registry) Len() int {
	return len(r.backends)
}
