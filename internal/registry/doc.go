// Package registry is the single shared structure between the request
// path, the health checker, and the admin surface. It exposes consistent
// healthy-set snapshots to strategies and serialized weight mutations to
// the admin surface.
package registry
