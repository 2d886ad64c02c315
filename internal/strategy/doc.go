// Package strategy defines the load balancing strategy interface and
// implements the selection algorithms:
//
//   - Round Robin: sequential distribution across the healthy pool
//   - Weighted Round Robin: smooth distribution proportional to backend weights
//   - Sticky Sessions: client-keyed affinity with round-robin fallback
//
// Strategies operate on the healthy snapshot handed to them and own only
// their private auxiliary state.
package strategy
