package strategy

import (
	"sync"
	"time"

	"github.com/nchalkias/traffic-balancer/internal/backend"
)

type sessionEntry struct {
	backend  *backend.Backend
	lastSeen time.Time
}

// stickySessionStrategy binds a client key (usually the client IP) to a
// backend for the duration of a timeout window. A lookup hit requires the
// entry to be unexpired and its backend to be present in the offered
// pool; anything else rebinds through an internal round-robin cursor.
// Expired entries are purged lazily on lookup and by a sweep folded into
// selection, keeping the table bounded.
type stickySessionStrategy struct {
	mutex     sync.Mutex
	sessions  map[string]*sessionEntry
	timeout   time.Duration
	key       string
	next      uint64
	lastSweep time.Time
}

// NewStickySessionStrategy creates a sticky-session strategy with the
// given session timeout.
func NewStickySessionStrategy(timeout time.Duration) Strategy {
	return &stickySessionStrategy{
		sessions:  make(map[string]*sessionEntry),
		timeout:   timeout,
		lastSweep: time.Now(),
	}
}

// SetKey stores the client key for the next selection. Callers pair
// SetKey and SelectBackend inside one critical section.
func (s *stickySessionStrategy) SetKey(key string) {
	s.mutex.Lock()
	s.key = key
	s.mutex.Unlock()
}

// SetTimeout updates the session window applied to subsequent lookups.
// Existing entries are judged against the new window as they are touched.
func (s *stickySessionStrategy) SetTimeout(timeout time.Duration) {
	s.mutex.Lock()
	s.timeout = timeout
	s.mutex.Unlock()
}

func (s *stickySessionStrategy) SelectBackend(backends []*backend.Backend) *backend.Backend {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	now := time.Now()
	s.sweep(now)

	if e, ok := s.sessions[s.key]; ok {
		if now.Sub(e.lastSeen) <= s.timeout && contains(backends, e.backend) && e.backend.IsHealthy() {
			e.lastSeen = now
			return e.backend
		}
		delete(s.sessions, s.key)
	}

	if len(backends) == 0 {
		return nil
	}

	n := s.next
	s.next++
	chosen := backends[n%uint64(len(backends))]

	if s.key != "" {
		s.sessions[s.key] = &sessionEntry{backend: chosen, lastSeen: now}
	}

	return chosen
}

// sweep drops expired entries at most once per timeout window.
func (s *stickySessionStrategy) sweep(now time.Time) {
	if now.Sub(s.lastSweep) < s.timeout {
		return
	}

	for key, e := range s.sessions {
		if now.Sub(e.lastSeen) > s.timeout {
			delete(s.sessions, key)
		}
	}

	s.lastSweep = now
}

func contains(backends []*backend.Backend, b *backend.Backend) bool {
	for _, candidate := range backends {
		if candidate == b {
			return true
		}
	}
	return false
}
