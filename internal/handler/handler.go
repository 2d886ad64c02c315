package handler

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/nchalkias/traffic-balancer/internal/backend"
	"github.com/nchalkias/traffic-balancer/internal/balancer"
	"github.com/nchalkias/traffic-balancer/internal/circuitbreaker"
	"github.com/nchalkias/traffic-balancer/internal/metrics"
	"github.com/nchalkias/traffic-balancer/internal/registry"
)

// SessionKeyIP keys sticky sessions on the client IP.
const SessionKeyIP = "ip"

// ProxyHandler is the request-dispatch path: it asks the balancer for a
// backend, forwards the request through that backend's reverse proxy, and
// retries transport failures against the remaining backends before giving
// up with a 503.
type ProxyHandler struct {
	logger         *slog.Logger
	balancer       *balancer.Balancer
	registry       *registry.Registry
	breakers       *circuitbreaker.Registry
	collector      *metrics.Collector
	sessionKey     string
	attemptTimeout time.Duration
	maxRetries     int
}

type statusRecorder struct {
	http.ResponseWriter
	statusCode int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.statusCode = code
	r.ResponseWriter.WriteHeader(code)
}

func NewProxyHandler(
	logger *slog.Logger,
	bal *balancer.Balancer,
	reg *registry.Registry,
	breakers *circuitbreaker.Registry,
	collector *metrics.Collector,
	sessionKey string,
	attemptTimeout time.Duration,
	maxRetries int,
) *ProxyHandler {
	return &ProxyHandler{
		logger:         logger,
		balancer:       bal,
		registry:       reg,
		breakers:       breakers,
		collector:      collector,
		sessionKey:     sessionKey,
		attemptTimeout: attemptTimeout,
		maxRetries:     maxRetries,
	}
}

func (h *ProxyHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	clientIP := extractClientIP(r)

	h.logger.Info("received request",
		slog.String("from", clientIP),
		slog.String("method", r.Method),
		slog.String("path", r.URL.Path))

	body, err := io.ReadAll(r.Body)
	if err != nil {
		http.Error(w, "Bad Request", http.StatusBadRequest)
		return
	}
	r.Body.Close()

	clientKey := h.extractSessionKey(r, clientIP)
	tried := make(map[string]bool)

	for attempt := 0; attempt <= h.maxRetries; attempt++ {
		chosen, err := h.balancer.Select(h.eligible(tried), clientKey)
		if err != nil {
			if attempt == 0 {
				h.logger.Warn("no backend available", slog.String("client", clientIP))
			}
			break
		}

		h.collector.Emit(metrics.MetricEvent{
			Type:      metrics.EventRequestReceived,
			Timestamp: time.Now(),
			Backend:   chosen.ID(),
		})
		h.collector.Emit(metrics.MetricEvent{
			Type:      metrics.EventBackendSelected,
			Timestamp: time.Now(),
			Backend:   chosen.ID(),
		})

		forwarded := h.forward(w, r, chosen, body)
		chosen.DecrementConn()

		if forwarded {
			return
		}

		tried[chosen.ID()] = true

		// Client gone or deadline from an outer layer: retrying is pointless.
		if r.Context().Err() != nil {
			break
		}
	}

	http.Error(w, "Service unavailable", http.StatusServiceUnavailable)
}

// eligible builds the retry pool: healthy backends not yet tried for this
// request and not blocked by their circuit breaker.
func (h *ProxyHandler) eligible(tried map[string]bool) []*backend.Backend {
	healthy := h.registry.SnapshotHealthy()

	pool := make([]*backend.Backend, 0, len(healthy))
	for _, b := range healthy {
		if tried[b.ID()] {
			continue
		}
		if h.breakers != nil && !h.breakers.Get(b.ID()).Allow() {
			continue
		}
		pool = append(pool, b)
	}

	return pool
}

// forward runs one proxy attempt. It returns false only when the attempt
// failed at the transport level before any response bytes were written,
// which is exactly when a retry is safe.
func (h *ProxyHandler) forward(w http.ResponseWriter, r *http.Request, b *backend.Backend, body []byte) bool {
	ctx, cancel := context.WithTimeout(r.Context(), h.attemptTimeout)
	defer cancel()

	ctx, carrier := backend.WithErrorCarrier(ctx)

	req := r.Clone(ctx)
	if len(body) > 0 {
		req.Body = io.NopCloser(bytes.NewReader(body))
		req.ContentLength = int64(len(body))
	} else {
		req.Body = http.NoBody
	}

	w.Header().Set("X-Backend-Server", b.URL().String())

	start := time.Now()
	rec := &statusRecorder{ResponseWriter: w, statusCode: http.StatusOK}
	b.ReverseProxy().ServeHTTP(rec, req)

	if err := carrier.Err(); err != nil {
		h.logger.Warn("forward failed",
			slog.String("backend", b.ID()),
			slog.Any("err", err))
		if h.breakers != nil {
			h.breakers.Get(b.ID()).RecordFailure()
		}
		return false
	}

	if h.breakers != nil {
		h.breakers.Get(b.ID()).RecordSuccess()
	}

	h.collector.Emit(metrics.MetricEvent{
		Type:       metrics.EventResponseCompleted,
		Timestamp:  time.Now(),
		Backend:    b.ID(),
		Duration:   time.Since(start),
		StatusCode: rec.statusCode,
	})

	return true
}

// extractSessionKey resolves the sticky-session key: the client IP, or a
// named cookie's value when configured (falling back to the IP when the
// cookie is absent).
func (h *ProxyHandler) extractSessionKey(r *http.Request, clientIP string) string {
	if h.sessionKey == "" || h.sessionKey == SessionKeyIP {
		return clientIP
	}

	if cookie, err := r.Cookie(h.sessionKey); err == nil && cookie.Value != "" {
		return cookie.Value
	}

	return clientIP
}

func extractClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		return strings.TrimSpace(strings.Split(xff, ",")[0])
	}

	host, _, _ := net.SplitHostPort(r.RemoteAddr)
	return host
}
