package strategy

import (
	"errors"
	"time"

	"github.com/nchalkias/traffic-balancer/internal/backend"
)

const (
	TypeRoundRobin = "roundrobin"
	TypeWeighted   = "weighted"
	TypeSticky     = "sticky"
)

// ErrUnknownType is returned by New for unrecognized strategy names.
var ErrUnknownType = errors.New("unknown strategy type")

// Strategy selects one backend from the healthy pool. Implementations
// that key selections on the client (sticky sessions) additionally
// implement SetKey(string); callers set the key and select under one
// critical section.
type Strategy interface {
	SelectBackend(backends []*backend.Backend) *backend.Backend
}

// New creates a fresh strategy instance of the named type. Instances
// carry their own auxiliary state (cursor, weighted counters, session
// table), so a new instance starts clean.
func New(typ string, sessionTimeout time.Duration) (Strategy, error) {
	switch typ {
	case TypeRoundRobin:
		return NewRoundRobinStrategy(), nil
	case TypeWeighted:
		return NewWeightedRoundRobinStrategy(), nil
	case TypeSticky:
		return NewStickySessionStrategy(sessionTimeout), nil
	default:
		return nil, ErrUnknownType
	}
}
