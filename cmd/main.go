package main

import (
	"context"
	"log/slog"
	"net/url"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/nchalkias/traffic-balancer/config"
	"github.com/nchalkias/traffic-balancer/internal/backend"
	"github.com/nchalkias/traffic-balancer/internal/balancer"
	"github.com/nchalkias/traffic-balancer/internal/circuitbreaker"
	"github.com/nchalkias/traffic-balancer/internal/handler"
	"github.com/nchalkias/traffic-balancer/internal/healthcheck"
	"github.com/nchalkias/traffic-balancer/internal/httpserver"
	"github.com/nchalkias/traffic-balancer/internal/metrics"
	"github.com/nchalkias/traffic-balancer/internal/registry"
	"github.com/nchalkias/traffic-balancer/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", slog.Any("err", err))
		os.Exit(1)
	}

	log := logger.New(cfg.Logging.Level, true, cfg.Server.Environment)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	reg, err := buildRegistry(cfg, log)
	if err != nil {
		log.Error("failed to initialize backends", slog.Any("err", err))
		os.Exit(1)
	}

	sessionTimeout, err := time.ParseDuration(cfg.Session.Timeout)
	if err != nil {
		log.Error("invalid session timeout", slog.Any("err", err))
		os.Exit(1)
	}

	bal, err := balancer.New(cfg.Strategy.Type, sessionTimeout)
	if err != nil {
		log.Error("failed to create strategy",
			slog.String("strategy", cfg.Strategy.Type),
			slog.Any("err", err))
		os.Exit(1)
	}

	collector := metrics.NewCollector(1024, log)
	collector.Start(ctx)

	checkCfg, err := buildHealthCheckConfig(cfg)
	if err != nil {
		log.Error("invalid health check config", slog.Any("err", err))
		os.Exit(1)
	}

	checker := healthcheck.New(reg, checkCfg, collector, log)
	go checker.Run(ctx)

	attemptTimeout, err := time.ParseDuration(cfg.Proxy.Timeout)
	if err != nil {
		log.Error("invalid proxy timeout", slog.Any("err", err))
		os.Exit(1)
	}

	breakers := circuitbreaker.NewRegistry(checkCfg.MaxFailures, checkCfg.Interval)

	proxyHandler := handler.NewProxyHandler(
		log, bal, reg, breakers, collector,
		cfg.Session.Key, attemptTimeout, cfg.Proxy.MaxRetries)

	mux := setupRouter(log, proxyHandler, bal, reg, collector)

	srv, err := httpserver.New(cfg.Server.Address, mux)
	if err != nil {
		log.Error("failed to create server", slog.Any("err", err))
		os.Exit(1)
	}

	log.Info("starting load balancer",
		slog.String("address", cfg.Server.Address),
		slog.String("strategy", cfg.Strategy.Type),
		slog.Int("backends", reg.Len()))

	srvErrCh := make(chan error, 1)

	go func() {
		srvErrCh <- srv.Start()
	}()

	select {
	case <-ctx.Done():
		log.Info("shutting down gracefully...")
		if err := srv.Shutdown(context.Background()); err != nil {
			log.Error("error during shutdown", slog.Any("err", err))
		}
	case err := <-srvErrCh:
		if err != nil {
			log.Error("error starting load balancer", slog.Any("err", err))
			os.Exit(1)
		}
	}
}

func buildRegistry(cfg *config.Config, log *slog.Logger) (*registry.Registry, error) {
	backends := make([]*backend.Backend, 0, len(cfg.Backends))

	for _, bc := range cfg.Backends {
		u, err := url.Parse(bc.URL)
		if err != nil {
			log.Error("failed to parse backend URL",
				slog.String("url", bc.URL),
				slog.String("error", err.Error()))
			continue
		}

		backends = append(backends, backend.New(u, bc.Weight))
	}

	if len(backends) == 0 {
		return nil, os.ErrInvalid
	}

	return registry.New(backends), nil
}

func buildHealthCheckConfig(cfg *config.Config) (healthcheck.Config, error) {
	interval, err := time.ParseDuration(cfg.HealthCheck.Interval)
	if err != nil {
		return healthcheck.Config{}, err
	}

	timeout, err := time.ParseDuration(cfg.HealthCheck.Timeout)
	if err != nil {
		return healthcheck.Config{}, err
	}

	return healthcheck.Config{
		Path:        cfg.HealthCheck.Path,
		Interval:    interval,
		Timeout:     timeout,
		MaxFailures: cfg.HealthCheck.MaxFailures,
	}, nil
}
