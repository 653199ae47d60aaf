package call

import (
	"context"
	"net/http"
	"sync/atomic"
)

// failedCall reports an error that happened before anything was sent,
// typically while building the request.
type failedCall[T any] struct {
	req      *http.Request
	err      error
	executed atomic.Bool
}

// Failed returns a Call that completes with err without touching the network.
// req may be nil.
func Failed[T any](req *http.Request, err error) Call[T] {
	return &failedCall[T]{req: req, err: err}
}

func (c *failedCall[T]) Execute(context.Context) (*Response[T], error) {
	if !c.executed.CompareAndSwap(false, true) {
		return nil, ErrAlreadyExecuted
	}
	return nil, c.err
}

func (c *failedCall[T]) Enqueue(cb Callback[T]) {
	err := c.err
	if !c.executed.CompareAndSwap(false, true) {
		err = ErrAlreadyExecuted
	}
	go cb(nil, err)
}

func (c *failedCall[T]) Request() *http.Request {
	return c.req
}

func (c *failedCall[T]) IsExecuted() bool {
	return c.executed.Load()
}
