package admin

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/nchalkias/traffic-balancer/internal/balancer"
	"github.com/nchalkias/traffic-balancer/internal/registry"
	"github.com/nchalkias/traffic-balancer/internal/strategy"
)

// Handler translates administrative HTTP calls into balancer and registry
// mutations. Parameter errors are answered to the admin caller and never
// touch in-flight client traffic.
type Handler struct {
	logger   *slog.Logger
	balancer *balancer.Balancer
	registry *registry.Registry
}

func NewHandler(logger *slog.Logger, bal *balancer.Balancer, reg *registry.Registry) *Handler {
	return &Handler{
		logger:   logger,
		balancer: bal,
		registry: reg,
	}
}

// Register mounts the admin endpoints on the given mux.
func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("/admin/strategy", h.switchStrategy)
	mux.HandleFunc("/admin/weight", h.setWeight)
	mux.HandleFunc("/admin/session-timeout", h.setSessionTimeout)
}

func (h *Handler) switchStrategy(w http.ResponseWriter, r *http.Request) {
	typ := r.URL.Query().Get("type")

	if err := h.balancer.SwitchStrategy(typ); err != nil {
		if errors.Is(err, strategy.ErrUnknownType) {
			http.Error(w, fmt.Sprintf("unknown strategy type %q", typ), http.StatusBadRequest)
			return
		}
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	h.logger.Info("strategy switched", slog.String("type", typ))
	fmt.Fprintf(w, "Strategy changed to %s\n", typ)
}

func (h *Handler) setWeight(w http.ResponseWriter, r *http.Request) {
	backendID := r.URL.Query().Get("backend")

	weight, err := strconv.Atoi(r.URL.Query().Get("weight"))
	if err != nil {
		http.Error(w, "weight must be an integer", http.StatusBadRequest)
		return
	}

	switch err := h.registry.SetWeight(backendID, weight); {
	case errors.Is(err, registry.ErrBackendNotFound):
		http.Error(w, fmt.Sprintf("backend %q not found", backendID), http.StatusNotFound)
		return
	case errors.Is(err, registry.ErrInvalidWeight):
		http.Error(w, "weight must be positive", http.StatusBadRequest)
		return
	case err != nil:
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	h.logger.Info("weight updated",
		slog.String("backend", backendID),
		slog.Int("weight", weight))
	fmt.Fprintf(w, "Weight for %s set to %d\n", backendID, weight)
}

func (h *Handler) setSessionTimeout(w http.ResponseWriter, r *http.Request) {
	seconds, err := strconv.Atoi(r.URL.Query().Get("seconds"))
	if err != nil {
		http.Error(w, "seconds must be an integer", http.StatusBadRequest)
		return
	}

	if err := h.balancer.SetSessionTimeout(time.Duration(seconds) * time.Second); err != nil {
		http.Error(w, "seconds must be positive", http.StatusBadRequest)
		return
	}

	h.logger.Info("session timeout updated", slog.Int("seconds", seconds))
	fmt.Fprintf(w, "Session timeout set to %ds\n", seconds)
}
