// Package circuitbreaker implements a per-backend circuit breaker used by
// the dispatcher as a fast-fail path alongside the periodic health
// checker.
package circuitbreaker
