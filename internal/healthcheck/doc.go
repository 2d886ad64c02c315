// Package healthcheck periodically probes every registered backend and
// promotes or demotes it: demotion needs a streak of failed probes,
// recovery needs a single success. The asymmetry damps flapping while
// reinstating capacity fast.
package healthcheck
