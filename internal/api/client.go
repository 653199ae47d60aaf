// Package api binds structs of func fields to HTTP endpoints. Every field
// tagged with `method` becomes a call whose result is shaped by a
// CallAdapter chosen once, when the struct is bound.
package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"reflect"
	"regexp"
	"strings"

	"github.com/Ifelsik/livecall/internal/call"
	"github.com/sirupsen/logrus"
)

var (
	ErrNoCallAdapter    = errors.New("no call adapter for return type")
	ErrNotStructPointer = errors.New("target must be a non-nil pointer to struct")
	ErrBadSignature     = errors.New("bad method signature")
	ErrBadBaseURL       = errors.New("base URL must be absolute")
)

var placeholder = regexp.MustCompile(`\{[^{}]*\}`)

var contextType = reflect.TypeOf((*context.Context)(nil)).Elem()

type Client struct {
	log       *logrus.Entry
	baseURL   *url.URL
	doer      call.Doer
	decoder   call.Decoder
	listener  call.Listener
	factories []CallAdapterFactory
}

type Option func(*Client)

func WithHTTPClient(doer call.Doer) Option {
	return func(c *Client) {
		c.doer = doer
	}
}

func WithDecoder(decoder call.Decoder) Option {
	return func(c *Client) {
		c.decoder = decoder
	}
}

func WithListener(l call.Listener) Option {
	return func(c *Client) {
		c.listener = l
	}
}

// WithCallAdapterFactory appends f. Factories are asked in the order added.
func WithCallAdapterFactory(f CallAdapterFactory) Option {
	return func(c *Client) {
		c.factories = append(c.factories, f)
	}
}

func WithLogger(log *logrus.Logger) Option {
	return func(c *Client) {
		c.log = logrus.NewEntry(log)
	}
}

func NewClient(baseURL string, opts ...Option) (*Client, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("parse base URL: %w", err)
	}
	if !u.IsAbs() {
		return nil, fmt.Errorf("%w: %q", ErrBadBaseURL, baseURL)
	}

	c := &Client{
		baseURL: u,
		doer:    call.DefaultClient,
		decoder: call.JSON,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.log == nil {
		c.log = logrus.NewEntry(logrus.StandardLogger())
	}
	c.log = c.log.WithField("base_url", u.String())

	return c, nil
}

func (c *Client) Logger() *logrus.Entry {
	return c.log
}

func (c *Client) BaseURL() *url.URL {
	return c.baseURL
}

// CallAdapter asks the factories in turn for an adapter of returnType.
// The first error or accepted type wins.
func (c *Client) CallAdapter(returnType reflect.Type, annotations []Annotation) (CallAdapter, error) {
	for _, f := range c.factories {
		adapter, err := f.Get(returnType, annotations, c)
		if err != nil {
			return nil, err
		}
		if adapter != nil {
			return adapter, nil
		}
	}
	return nil, fmt.Errorf("%w: %v", ErrNoCallAdapter, returnType)
}

// Create fills every func field of *target tagged with `method` (and
// optionally `path`). A field's func may take a leading context.Context;
// the remaining arguments fill the {placeholders} of path in order. A
// placeholder ending in "..." ({rest...}) keeps slashes in its value.
func (c *Client) Create(target any) error {
	v := reflect.ValueOf(target)
	if v.Kind() != reflect.Pointer || v.IsNil() || v.Elem().Kind() != reflect.Struct {
		return fmt.Errorf("create: %w, got %T", ErrNotStructPointer, target)
	}

	s := v.Elem()
	st := s.Type()
	for i := 0; i < st.NumField(); i++ {
		field := st.Field(i)
		httpMethod, ok := field.Tag.Lookup("method")
		if !ok {
			continue
		}

		annotations := []Annotation{
			{Name: "method", Value: strings.ToUpper(httpMethod)},
			{Name: "path", Value: field.Tag.Get("path")},
		}
		fn, err := c.bind(field, annotations)
		if err != nil {
			return fmt.Errorf("create %s.%s: %w", st.Name(), field.Name, err)
		}
		s.Field(i).Set(fn)

		c.log.WithFields(logrus.Fields{
			"field":  field.Name,
			"method": annotations[0].Value,
			"path":   annotations[1].Value,
		}).Debug("method bound")
	}
	return nil
}

type boundMethod struct {
	client     *Client
	adapter    CallAdapter
	httpMethod string
	path       string
	hasContext bool
}

func (c *Client) bind(field reflect.StructField, annotations []Annotation) (reflect.Value, error) {
	ft := field.Type
	if !field.IsExported() {
		return reflect.Value{}, fmt.Errorf("%w: field is not exported", ErrBadSignature)
	}
	if ft.Kind() != reflect.Func || ft.NumOut() != 1 || ft.IsVariadic() {
		return reflect.Value{}, fmt.Errorf("%w: want a non-variadic func with one result, got %v", ErrBadSignature, ft)
	}

	m := &boundMethod{
		client:     c,
		httpMethod: findAnnotation(annotations, "method"),
		path:       findAnnotation(annotations, "path"),
		hasContext: ft.NumIn() > 0 && ft.In(0) == contextType,
	}
	if !validMethod(m.httpMethod) {
		return reflect.Value{}, fmt.Errorf("%w: unknown HTTP method %q", ErrBadSignature, m.httpMethod)
	}

	args := ft.NumIn()
	if m.hasContext {
		args--
	}
	if want := len(placeholder.FindAllStringIndex(m.path, -1)); args != want {
		return reflect.Value{}, fmt.Errorf("%w: path %q has %d placeholders, func takes %d values", ErrBadSignature, m.path, want, args)
	}

	adapter, err := c.CallAdapter(ft.Out(0), annotations)
	if err != nil {
		return reflect.Value{}, err
	}
	m.adapter = adapter

	return reflect.MakeFunc(ft, func(in []reflect.Value) []reflect.Value {
		out := m.adapter.Adapt(m.newCall(in))
		if out == nil {
			return []reflect.Value{reflect.Zero(ft.Out(0))}
		}
		return []reflect.Value{reflect.ValueOf(out)}
	}), nil
}

// newCall never fails: a request that cannot be built becomes a call that
// reports the error when dispatched.
func (m *boundMethod) newCall(in []reflect.Value) call.Call[any] {
	ctx := context.Background()
	if m.hasContext {
		if c, ok := in[0].Interface().(context.Context); ok && c != nil {
			ctx = c
		}
		in = in[1:]
	}

	i := 0
	path := placeholder.ReplaceAllStringFunc(m.path, func(match string) string {
		value := fmt.Sprint(in[i].Interface())
		i++
		if strings.HasSuffix(match, "...}") {
			return escapeSegments(value)
		}
		return url.PathEscape(value)
	})

	req, err := m.client.newRequest(ctx, m.httpMethod, path)
	if err != nil {
		return call.Failed[any](nil, err)
	}

	c, err := call.NewOf(
		m.client.doer,
		req,
		m.client.decoder,
		m.adapter.ResponseType(),
		call.WithLogger(m.client.log),
		call.WithListener(m.client.listener),
	)
	if err != nil {
		return call.Failed[any](req, err)
	}
	return c
}

func (c *Client) newRequest(ctx context.Context, method, path string) (*http.Request, error) {
	ref, err := url.Parse(path)
	if err != nil {
		return nil, fmt.Errorf("parse path: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL.ResolveReference(ref).String(), nil)
	if err != nil {
		return nil, fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	return req, nil
}

func escapeSegments(path string) string {
	segments := strings.Split(path, "/")
	for i, s := range segments {
		segments[i] = url.PathEscape(s)
	}
	return strings.Join(segments, "/")
}

func validMethod(method string) bool {
	switch method {
	case http.MethodGet, http.MethodHead, http.MethodPost, http.MethodPut,
		http.MethodPatch, http.MethodDelete, http.MethodOptions:
		return true
	}
	return false
}
