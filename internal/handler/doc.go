// Package handler implements the request-dispatch path of the load
// balancer: strategy selection, forwarding, and the retry/503 policy for
// transport failures.
package handler
