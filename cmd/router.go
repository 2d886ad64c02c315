package main

import (
	"log/slog"
	"net/http"

	"github.com/nchalkias/traffic-balancer/internal/admin"
	"github.com/nchalkias/traffic-balancer/internal/balancer"
	"github.com/nchalkias/traffic-balancer/internal/handler"
	"github.com/nchalkias/traffic-balancer/internal/metrics"
	"github.com/nchalkias/traffic-balancer/internal/registry"
)

func setupRouter(
	log *slog.Logger,
	proxyHandler *handler.ProxyHandler,
	bal *balancer.Balancer,
	reg *registry.Registry,
	collector *metrics.Collector,
) *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("/", proxyHandler.ServeHTTP)
	mux.HandleFunc("/metrics", collector.Handler(bal.StrategyType))

	admin.NewHandler(log, bal, reg).Register(mux)

	return mux
}
