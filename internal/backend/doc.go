// Package backend holds per-upstream-server state and the reverse proxy
// used to forward requests to it. It provides connection tracking, the
// probe failure streak driving health transitions, and HTTP request
// forwarding.
package backend
