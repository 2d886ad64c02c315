package healthcheck

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/nchalkias/traffic-balancer/internal/backend"
	"github.com/nchalkias/traffic-balancer/internal/metrics"
	"github.com/nchalkias/traffic-balancer/internal/registry"
)

// Config carries the probe parameters.
type Config struct {
	Path        string
	Interval    time.Duration
	Timeout     time.Duration
	MaxFailures int
}

// Checker drives the backend health state machine: MaxFailures
// consecutive probe failures demote a backend, a single successful probe
// promotes it back. It is the only writer of backend health.
type Checker struct {
	registry  *registry.Registry
	cfg       Config
	client    *http.Client
	collector *metrics.Collector
	logger    *slog.Logger
}

func New(reg *registry.Registry, cfg Config, collector *metrics.Collector, logger *slog.Logger) *Checker {
	if cfg.Path == "" {
		cfg.Path = "/health"
	}

	return &Checker{
		registry:  reg,
		cfg:       cfg,
		client:    &http.Client{Timeout: cfg.Timeout},
		collector: collector,
		logger:    logger,
	}
}

// Run probes all backends on a fixed interval until ctx is cancelled.
// Probes within a tick run concurrently across backends; a tick waits
// for its probes to finish, so a backend is never probed concurrently
// with itself.
func (c *Checker) Run(ctx context.Context) {
	ticker := time.NewTicker(c.cfg.Interval)
	defer ticker.Stop()

	c.logger.Info("health checker started",
		slog.String("path", c.cfg.Path),
		slog.Duration("interval", c.cfg.Interval))

	for {
		select {
		case <-ctx.Done():
			c.logger.Info("health checker stopped")
			return
		case <-ticker.C:
			c.RunOnce(ctx)
		}
	}
}

// RunOnce performs a single probe pass over every registered backend,
// healthy and unhealthy alike, and returns when all probes finish.
func (c *Checker) RunOnce(ctx context.Context) {
	var wg sync.WaitGroup

	for _, b := range c.registry.All() {
		wg.Add(1)
		go func(b *backend.Backend) {
			defer wg.Done()
			c.probe(ctx, b)
		}(b)
	}

	wg.Wait()
}

func (c *Checker) probe(ctx context.Context, b *backend.Backend) {
	probeCtx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
	defer cancel()

	healthURL := b.URL().ResolveReference(&url.URL{Path: c.cfg.Path})

	req, err := http.NewRequestWithContext(probeCtx, http.MethodGet, healthURL.String(), nil)
	if err != nil {
		return
	}

	res, err := c.client.Do(req)
	if err != nil {
		c.recordFailure(b)
		return
	}

	io.Copy(io.Discard, res.Body)
	res.Body.Close()

	if res.StatusCode < 200 || res.StatusCode >= 300 {
		c.recordFailure(b)
		return
	}

	b.ResetFailures()
	if b.SetHealthy(true) {
		c.logger.Info("backend is back up", slog.String("backend", b.ID()))
		c.collector.Emit(metrics.MetricEvent{
			Type:      metrics.EventHealthChanged,
			Timestamp: time.Now(),
			Backend:   b.ID(),
			Healthy:   true,
		})
	}
}

func (c *Checker) recordFailure(b *backend.Backend) {
	failures := b.RecordFailure()
	if failures < c.cfg.MaxFailures {
		return
	}

	if b.SetHealthy(false) {
		c.logger.Warn("backend is down",
			slog.String("backend", b.ID()),
			slog.Int("consecutive_failures", failures))
		c.collector.Emit(metrics.MetricEvent{
			Type:      metrics.EventHealthChanged,
			Timestamp: time.Now(),
			Backend:   b.ID(),
			Healthy:   false,
		})
	}
}
