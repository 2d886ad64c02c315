// Package balancer ties the strategy engine to the request path: it owns
// the runtime-swappable active strategy and the global session timeout.
package balancer
