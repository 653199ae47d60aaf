package call

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
)

var (
	ErrAlreadyExecuted = errors.New("already executed")
	ErrRequestIsNil    = errors.New("request is nil")
)

// Callback receives the outcome of an enqueued call. Exactly one of resp
// and err is non-nil.
type Callback[T any] func(resp *Response[T], err error)

// Call is a single-shot request whose body decodes into T.
type Call[T any] interface {
	// Execute sends the request and blocks until it completes.
	Execute(ctx context.Context) (*Response[T], error)
	// Enqueue sends the request in the background and reports to cb.
	Enqueue(cb Callback[T])
	Request() *http.Request
	IsExecuted() bool
}

// Event describes a finished call. Err is set for transport and decoding
// failures; StatusCode is zero in that case.
type Event struct {
	ID             uuid.UUID
	Method         string
	URL            string
	StatusCode     int
	Message        string
	HasBody        bool
	Err            error
	RequestHeader  http.Header
	ResponseHeader http.Header
	Elapsed        time.Duration
}

// Listener is told about every call completion before the caller is.
type Listener interface {
	CallCompleted(ctx context.Context, e Event)
}

// ListenerFunc adapts a plain function to Listener.
type ListenerFunc func(ctx context.Context, e Event)

func (f ListenerFunc) CallCompleted(ctx context.Context, e Event) {
	f(ctx, e)
}
