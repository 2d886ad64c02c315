// Package admin exposes the runtime mutation endpoints: strategy switch,
// backend weight, and sticky-session timeout.
package admin
