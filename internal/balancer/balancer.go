package balancer

import (
	"errors"
	"sync"
	"time"

	"github.com/nchalkias/traffic-balancer/internal/backend"
	"github.com/nchalkias/traffic-balancer/internal/strategy"
)

var (
	// ErrNoBackendAvailable is returned when the offered pool is empty or
	// the strategy could not choose from it.
	ErrNoBackendAvailable = errors.New("no backend available")

	// ErrInvalidTimeout is returned for non-positive session timeouts.
	ErrInvalidTimeout = errors.New("session timeout must be positive")
)

// Balancer holds the active selection strategy and swaps it at runtime.
// In-flight selections complete under whichever strategy was active when
// they began; a switch installs a fresh instance, so auxiliary strategy
// state never survives reactivation.
type Balancer struct {
	mutex          sync.Mutex
	strategy       strategy.Strategy
	strategyType   string
	sessionTimeout time.Duration
}

// New creates a Balancer running the named strategy.
func New(strategyType string, sessionTimeout time.Duration) (*Balancer, error) {
	strat, err := strategy.New(strategyType, sessionTimeout)
	if err != nil {
		return nil, err
	}

	return &Balancer{
		strategy:       strat,
		strategyType:   strategyType,
		sessionTimeout: sessionTimeout,
	}, nil
}

// Select picks a backend for the given client key from the pool and
// reserves a connection slot on it. The caller releases the slot with
// DecrementConn when the exchange finishes.
func (b *Balancer) Select(pool []*backend.Backend, clientKey string) (*backend.Backend, error) {
	b.mutex.Lock()
	strat := b.strategy
	if ks, ok := strat.(interface{ SetKey(string) }); ok {
		ks.SetKey(clientKey)
	}
	chosen := strat.SelectBackend(pool)
	b.mutex.Unlock()

	if chosen == nil {
		return nil, ErrNoBackendAvailable
	}

	chosen.IncrementConn()
	return chosen, nil
}

// SwitchStrategy atomically replaces the active strategy with a fresh
// instance of the named type. Backend health and weight are untouched.
func (b *Balancer) SwitchStrategy(typ string) error {
	b.mutex.Lock()
	defer b.mutex.Unlock()

	strat, err := strategy.New(typ, b.sessionTimeout)
	if err != nil {
		return err
	}

	b.strategy = strat
	b.strategyType = typ
	return nil
}

// StrategyType returns the name of the active strategy.
func (b *Balancer) StrategyType() string {
	b.mutex.Lock()
	defer b.mutex.Unlock()
	return b.strategyType
}

// SetSessionTimeout updates the sticky-session window used by subsequent
// lookups, including a sticky strategy activated later.
func (b *Balancer) SetSessionTimeout(timeout time.Duration) error {
	if timeout <= 0 {
		return ErrInvalidTimeout
	}

	b.mutex.Lock()
	defer b.mutex.Unlock()

	b.sessionTimeout = timeout
	if st, ok := b.strategy.(interface{ SetTimeout(time.Duration) }); ok {
		st.SetTimeout(timeout)
	}

	return nil
}
