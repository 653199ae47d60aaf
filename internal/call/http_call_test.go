package call

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"reflect"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type user struct {
	Login string `json:"login"`
	ID    int    `json:"id"`
}

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()

	r := mux.NewRouter()
	r.HandleFunc("/users/{name}", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"login":"`+mux.Vars(r)["name"]+`","id":1}`)
	}).Methods(http.MethodGet)
	r.HandleFunc("/answer", func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, "42")
	})
	r.HandleFunc("/empty", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	r.HandleFunc("/no-content", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
	r.HandleFunc("/null", func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, "null")
	})
	r.HandleFunc("/blank", func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `""`)
	})
	r.HandleFunc("/broken", func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, "{not json")
	})
	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nothing here", http.StatusNotFound)
	})

	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv
}

func newRequest(t *testing.T, url string) *http.Request {
	t.Helper()
	req, err := http.NewRequest(http.MethodGet, url, nil)
	require.NoError(t, err)
	return req
}

func quietLogger() *logrus.Entry {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return logrus.NewEntry(log)
}

func TestExecuteDecodesJSON(t *testing.T) {
	srv := newTestServer(t)

	c, err := New[user](srv.Client(), newRequest(t, srv.URL+"/users/octocat"), nil, WithLogger(quietLogger()))
	require.NoError(t, err)

	resp, err := c.Execute(context.Background())
	require.NoError(t, err)
	assert.True(t, resp.IsSuccessful())
	assert.True(t, resp.HasBody)
	assert.Equal(t, "OK", resp.Message)
	assert.Equal(t, user{Login: "octocat", ID: 1}, resp.Body)
}

func TestExecuteTextBody(t *testing.T) {
	srv := newTestServer(t)

	c, err := New[string](srv.Client(), newRequest(t, srv.URL+"/answer"), Text, WithLogger(quietLogger()))
	require.NoError(t, err)

	resp, err := c.Execute(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 200, resp.StatusCode)
	assert.Equal(t, "42", resp.Body)
}

func TestExecuteWithoutBody(t *testing.T) {
	srv := newTestServer(t)

	for _, path := range []string{"/empty", "/no-content", "/null"} {
		t.Run(path, func(t *testing.T) {
			c, err := New[*user](srv.Client(), newRequest(t, srv.URL+path), nil, WithLogger(quietLogger()))
			require.NoError(t, err)

			resp, err := c.Execute(context.Background())
			require.NoError(t, err)
			assert.True(t, resp.IsSuccessful())
			assert.False(t, resp.HasBody)
		})
	}
}

func TestExecuteEmptyJSONStringIsBody(t *testing.T) {
	srv := newTestServer(t)

	c, err := New[string](srv.Client(), newRequest(t, srv.URL+"/blank"), nil, WithLogger(quietLogger()))
	require.NoError(t, err)

	resp, err := c.Execute(context.Background())
	require.NoError(t, err)
	assert.True(t, resp.HasBody)
	assert.Equal(t, "", resp.Body)
}

func TestExecuteUnsuccessfulStatus(t *testing.T) {
	srv := newTestServer(t)

	c, err := New[user](srv.Client(), newRequest(t, srv.URL+"/missing"), nil, WithLogger(quietLogger()))
	require.NoError(t, err)

	resp, err := c.Execute(context.Background())
	require.NoError(t, err)
	assert.False(t, resp.IsSuccessful())
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "Not Found", resp.Message)
	assert.False(t, resp.HasBody)
}

func TestExecuteDecodeError(t *testing.T) {
	srv := newTestServer(t)

	c, err := New[user](srv.Client(), newRequest(t, srv.URL+"/broken"), nil, WithLogger(quietLogger()))
	require.NoError(t, err)

	_, err = c.Execute(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "decode body")
}

func TestExecuteOnlyOnce(t *testing.T) {
	srv := newTestServer(t)

	c, err := New[string](srv.Client(), newRequest(t, srv.URL+"/answer"), Text, WithLogger(quietLogger()))
	require.NoError(t, err)

	_, err = c.Execute(context.Background())
	require.NoError(t, err)
	require.True(t, c.IsExecuted())

	_, err = c.Execute(context.Background())
	require.ErrorIs(t, err, ErrAlreadyExecuted)

	done := make(chan error, 1)
	c.Enqueue(func(resp *Response[string], err error) {
		assert.Nil(t, resp)
		done <- err
	})
	require.ErrorIs(t, <-done, ErrAlreadyExecuted)
}

func TestEnqueueDoesNotBlock(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-release
		_, _ = io.WriteString(w, `"late"`)
	}))
	t.Cleanup(srv.Close)

	c, err := New[string](srv.Client(), newRequest(t, srv.URL), nil, WithLogger(quietLogger()))
	require.NoError(t, err)

	got := make(chan string, 1)
	c.Enqueue(func(resp *Response[string], err error) {
		if assert.NoError(t, err) {
			got <- resp.Body
		}
	})
	close(release)

	select {
	case body := <-got:
		assert.Equal(t, "late", body)
	case <-time.After(5 * time.Second):
		t.Fatal("callback was not invoked")
	}
}

func TestEnqueueTransportError(t *testing.T) {
	errTimeout := errors.New("network timeout")
	doer := doerFunc(func(*http.Request) (*http.Response, error) { return nil, errTimeout })

	c, err := New[string](doer, newRequest(t, "http://example.invalid/"), nil, WithLogger(quietLogger()))
	require.NoError(t, err)

	done := make(chan error, 1)
	c.Enqueue(func(resp *Response[string], err error) {
		assert.Nil(t, resp)
		done <- err
	})
	require.ErrorIs(t, <-done, errTimeout)
}

func TestNewOfDecodesRuntimeType(t *testing.T) {
	srv := newTestServer(t)

	c, err := NewOf(srv.Client(), newRequest(t, srv.URL+"/users/gopher"), nil, reflect.TypeOf(user{}), WithLogger(quietLogger()))
	require.NoError(t, err)

	resp, err := c.Execute(context.Background())
	require.NoError(t, err)
	require.IsType(t, user{}, resp.Body)
	assert.Equal(t, "gopher", resp.Body.(user).Login)
}

func TestNewRejectsNilRequest(t *testing.T) {
	_, err := New[string](nil, nil, nil)
	require.ErrorIs(t, err, ErrRequestIsNil)

	_, err = NewOf(nil, newRequest(t, "http://localhost/"), nil, nil)
	require.Error(t, err)
}

func TestListenerSeesEveryCompletion(t *testing.T) {
	srv := newTestServer(t)

	var mu sync.Mutex
	var events []Event
	listener := ListenerFunc(func(_ context.Context, e Event) {
		mu.Lock()
		events = append(events, e)
		mu.Unlock()
	})

	ok, err := New[string](srv.Client(), newRequest(t, srv.URL+"/answer"), Text, WithListener(listener), WithLogger(quietLogger()))
	require.NoError(t, err)
	_, err = ok.Execute(context.Background())
	require.NoError(t, err)

	broken, err := New[user](srv.Client(), newRequest(t, srv.URL+"/broken"), nil, WithListener(listener), WithLogger(quietLogger()))
	require.NoError(t, err)
	_, err = broken.Execute(context.Background())
	require.Error(t, err)

	require.Len(t, events, 2)
	assert.Equal(t, ok.ID(), events[0].ID)
	assert.Equal(t, http.StatusOK, events[0].StatusCode)
	assert.NoError(t, events[0].Err)
	assert.Equal(t, http.MethodGet, events[1].Method)
	assert.Error(t, events[1].Err)
}

type doerFunc func(*http.Request) (*http.Response, error)

func (f doerFunc) Do(req *http.Request) (*http.Response, error) {
	return f(req)
}
