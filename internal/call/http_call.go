package call

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"reflect"
	"sync/atomic"
	"time"

	"github.com/Ifelsik/livecall/internal/utils/promise"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

type settings struct {
	log      *logrus.Entry
	listener Listener
}

type Option func(*settings)

func WithLogger(log *logrus.Entry) Option {
	return func(s *settings) {
		s.log = log
	}
}

func WithListener(l Listener) Option {
	return func(s *settings) {
		s.listener = l
	}
}

// HTTPCall is a Call backed by net/http.
type HTTPCall[T any] struct {
	id       uuid.UUID
	log      *logrus.Entry
	listener Listener

	doer    Doer
	req     *http.Request
	decode  Decoder
	newBody func() (target any, value func() T)

	executed atomic.Bool
}

// New builds a call decoding its body into T.
// A nil doer means DefaultClient, a nil decode means JSON.
func New[T any](doer Doer, req *http.Request, decode Decoder, opts ...Option) (*HTTPCall[T], error) {
	return newHTTPCall(doer, req, decode, func() (any, func() T) {
		var body T
		return &body, func() T { return body }
	}, opts)
}

// NewOf builds a call whose body type is only known at runtime.
// The decoded body is delivered as a value of bodyType boxed in any.
func NewOf(doer Doer, req *http.Request, decode Decoder, bodyType reflect.Type, opts ...Option) (*HTTPCall[any], error) {
	if bodyType == nil {
		return nil, errors.New("new call: body type is nil")
	}
	return newHTTPCall(doer, req, decode, func() (any, func() any) {
		target := reflect.New(bodyType)
		return target.Interface(), func() any { return target.Elem().Interface() }
	}, opts)
}

func newHTTPCall[T any](doer Doer, req *http.Request, decode Decoder, newBody func() (any, func() T), opts []Option) (*HTTPCall[T], error) {
	if req == nil {
		return nil, fmt.Errorf("new call: %w", ErrRequestIsNil)
	}
	if doer == nil {
		doer = DefaultClient
	}
	if decode == nil {
		decode = JSON
	}

	s := settings{}
	for _, opt := range opts {
		opt(&s)
	}
	if s.log == nil {
		s.log = logrus.NewEntry(logrus.StandardLogger())
	}

	id, err := uuid.NewV7()
	if err != nil {
		id = uuid.New()
	}

	return &HTTPCall[T]{
		id: id,
		log: s.log.WithFields(logrus.Fields{
			"call_id": id.String(),
			"method":  req.Method,
			"url":     req.URL.String(),
		}),
		listener: s.listener,
		doer:     doer,
		req:      req,
		decode:   decode,
		newBody:  newBody,
	}, nil
}

func (c *HTTPCall[T]) ID() uuid.UUID {
	return c.id
}

func (c *HTTPCall[T]) Request() *http.Request {
	return c.req
}

func (c *HTTPCall[T]) IsExecuted() bool {
	return c.executed.Load()
}

func (c *HTTPCall[T]) Execute(ctx context.Context) (*Response[T], error) {
	if !c.executed.CompareAndSwap(false, true) {
		return nil, ErrAlreadyExecuted
	}
	return c.run(ctx)
}

// Enqueue never blocks; cb runs on a goroutine owned by the call.
func (c *HTTPCall[T]) Enqueue(cb Callback[T]) {
	if !c.executed.CompareAndSwap(false, true) {
		go cb(nil, ErrAlreadyExecuted)
		return
	}

	future := promise.Promise(func() (*Response[T], error) {
		return c.run(c.req.Context())
	})
	promise.Then(future, func(resp *Response[T], err error) {
		cb(resp, err)
	})
}

func (c *HTTPCall[T]) run(ctx context.Context) (*Response[T], error) {
	if ctx == nil {
		ctx = context.Background()
	}

	c.log.Debug("sending request")
	start := time.Now()
	resp, err := c.do(ctx)
	elapsed := time.Since(start)

	if err != nil {
		c.log.WithField("elapsed", elapsed).Warnf("call failed: %v", err)
	} else {
		c.log.WithFields(logrus.Fields{
			"status":  resp.StatusCode,
			"elapsed": elapsed,
		}).Info("call completed")
	}

	if c.listener != nil {
		e := Event{
			ID:            c.id,
			Method:        c.req.Method,
			URL:           c.req.URL.String(),
			Err:           err,
			RequestHeader: c.req.Header,
			Elapsed:       elapsed,
		}
		if resp != nil {
			e.StatusCode = resp.StatusCode
			e.Message = resp.Message
			e.HasBody = resp.HasBody
			e.ResponseHeader = resp.Header
		}
		c.listener.CallCompleted(ctx, e)
	}

	return resp, err
}

func (c *HTTPCall[T]) do(ctx context.Context) (*Response[T], error) {
	httpResp, err := c.doer.Do(c.req.WithContext(ctx))
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = httpResp.Body.Close()
	}()

	resp := &Response[T]{
		StatusCode: httpResp.StatusCode,
		Message:    reasonPhrase(httpResp),
		Header:     httpResp.Header,
	}

	if !resp.IsSuccessful() {
		_, _ = io.Copy(io.Discard, httpResp.Body)
		return resp, nil
	}
	if httpResp.StatusCode == http.StatusNoContent || httpResp.StatusCode == http.StatusResetContent {
		return resp, nil
	}

	body := bufio.NewReader(httpResp.Body)
	if _, err := body.Peek(1); err != nil {
		if errors.Is(err, io.EOF) {
			return resp, nil
		}
		return nil, fmt.Errorf("read body: %w", err)
	}

	target, value := c.newBody()
	if err := c.decode(body, target); err != nil {
		return nil, fmt.Errorf("decode body: %w", err)
	}

	// A literal null leaves pointer-like targets nil, which counts as no body.
	if isNil(reflect.ValueOf(target).Elem()) {
		return resp, nil
	}
	resp.Body = value()
	resp.HasBody = true
	return resp, nil
}

func isNil(v reflect.Value) bool {
	switch v.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Slice, reflect.Interface, reflect.Func, reflect.Chan:
		return v.IsNil()
	default:
		return false
	}
}
