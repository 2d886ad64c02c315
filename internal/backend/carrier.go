package backend

import (
	"context"
	"sync"
)

type carrierKey struct{}

// ErrorCarrier collects the transport error of a single forward attempt.
// When present in the request context, the proxy's error handler records
// the error here instead of writing a response, leaving the dispatcher
// free to retry against another backend.
type ErrorCarrier struct {
	mutex sync.Mutex
	err   error
}

func (c *ErrorCarrier) set(err error) {
	c.mutex.Lock()
	c.err = err
	c.mutex.Unlock()
}

// Err returns the transport error recorded during the attempt, or nil.
func (c *ErrorCarrier) Err() error {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	return c.err
}

// WithErrorCarrier returns a context carrying a fresh ErrorCarrier.
func WithErrorCarrier(ctx context.Context) (context.Context, *ErrorCarrier) {
	c := &ErrorCarrier{}
	return context.WithValue(ctx, carrierKey{}, c), c
}

func carrierFrom(ctx context.Context) *ErrorCarrier {
	c, _ := ctx.Value(carrierKey{}).(*ErrorCarrier)
	return c
}
