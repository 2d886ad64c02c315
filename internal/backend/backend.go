package backend

import (
	"net/http"
	"net/http/httputil"
	"net/url"
	"sync"
)

// Backend represents one upstream server: its forwarding proxy plus the
// mutable state tracked for it (health, weight, failure streak, active
// connections). The id is the URL's host:port and doubles as the
// admin-facing key.
type Backend struct {
	id    string
	url   *url.URL
	proxy *httputil.ReverseProxy

	mutex               sync.Mutex
	weight              int
	isHealthy           bool
	consecutiveFailures int
	activeConnections   int
}

// New creates a Backend forwarding to the given URL with the given weight.
// Backends start healthy.
func New(u *url.URL, weight int) *Backend {
	b := &Backend{
		id:        u.Host,
		url:       u,
		weight:    weight,
		isHealthy: true,
	}

	proxy := httputil.NewSingleHostReverseProxy(u)
	proxy.ErrorHandler = func(w http.ResponseWriter, r *http.Request, err error) {
		if c := carrierFrom(r.Context()); c != nil {
			c.set(err)
			return
		}
		http.Error(w, "Bad Gateway", http.StatusBadGateway)
	}
	b.proxy = proxy

	return b
}

// ID returns the backend's stable identifier (host:port).
func (b *Backend) ID() string {
	return b.id
}

// URL returns the backend server URL.
func (b *Backend) URL() *url.URL {
	return b.url
}

// ReverseProxy returns the HTTP reverse proxy for this backend.
func (b *Backend) ReverseProxy() *httputil.ReverseProxy {
	return b.proxy
}

// Weight returns the backend's configured weight.
func (b *Backend) Weight() int {
	b.mutex.Lock()
	defer b.mutex.Unlock()
	return b.weight
}

// SetWeight updates the backend's weight. Validation happens at the
// registry boundary; the value stored here is trusted.
func (b *Backend) SetWeight(weight int) {
	b.mutex.Lock()
	b.weight = weight
	b.mutex.Unlock()
}

// IsHealthy returns true if the backend is currently healthy.
func (b *Backend) IsHealthy() bool {
	b.mutex.Lock()
	defer b.mutex.Unlock()
	return b.isHealthy
}

// SetHealthy updates the backend's health status.
// Returns true if the status changed, false if it was already in that state.
func (b *Backend) SetHealthy(healthy bool) (changed bool) {
	b.mutex.Lock()
	defer b.mutex.Unlock()

	if b.isHealthy == healthy {
		return false
	}

	b.isHealthy = healthy
	return true
}

// RecordFailure increments the consecutive probe failure counter and
// returns the new count.
func (b *Backend) RecordFailure() int {
	b.mutex.Lock()
	defer b.mutex.Unlock()

	b.consecutiveFailures++
	return b.consecutiveFailures
}

// ResetFailures clears the consecutive failure counter.
func (b *Backend) ResetFailures() {
	b.mutex.Lock()
	b.consecutiveFailures = 0
	b.mutex.Unlock()
}

// ConsecutiveFailures returns the current failure streak.
func (b *Backend) ConsecutiveFailures() int {
	b.mutex.Lock()
	defer b.mutex.Unlock()
	return b.consecutiveFailures
}

// IncrementConn increments the active connection count.
func (b *Backend) IncrementConn() {
	b.mutex.Lock()
	b.activeConnections++
	b.mutex.Unlock()
}

// DecrementConn decrements the active connection count.
func (b *Backend) DecrementConn() {
	b.mutex.Lock()
	if b.activeConnections > 0 {
		b.activeConnections--
	}
	b.mutex.Unlock()
}

// ActiveConnections returns the current number of active connections.
func (b *Backend) ActiveConnections() int {
	b.mutex.Lock()
	defer b.mutex.Unlock()
	return b.activeConnections
}
