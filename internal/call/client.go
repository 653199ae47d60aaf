package call

import (
	"net"
	"net/http"
	"time"
)

const (
	maxIdleConns          = 100
	idleConnTimeout       = 90 * time.Second
	tlsHandshakeTimeout   = 10 * time.Second
	expectContinueTimeout = 1 * time.Second
)

const (
	dialTimeout            = 10 * time.Second
	keepAliveProbeInterval = 30 * time.Second
)

// DefaultTimeout bounds a whole exchange on DefaultClient, body read included.
const DefaultTimeout = 30 * time.Second

// Doer sends a single HTTP request. *http.Client satisfies it.
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

// defaultTransport keeps a pool of TCP connections shared by every call.
var defaultTransport http.RoundTripper = &http.Transport{
	Proxy: http.ProxyFromEnvironment,
	DialContext: (&net.Dialer{
		Timeout:   dialTimeout,
		KeepAlive: keepAliveProbeInterval,
	}).DialContext,
	ForceAttemptHTTP2:     true,
	MaxIdleConns:          maxIdleConns,
	IdleConnTimeout:       idleConnTimeout,
	TLSHandshakeTimeout:   tlsHandshakeTimeout,
	ExpectContinueTimeout: expectContinueTimeout,
}

// DefaultClient is used by calls constructed without a Doer.
var DefaultClient = &http.Client{
	Transport: defaultTransport,
	Timeout:   DefaultTimeout,
}

// NewHTTPClient returns a client sharing the default transport with its own timeout.
func NewHTTPClient(timeout time.Duration) *http.Client {
	return &http.Client{
		Transport: defaultTransport,
		Timeout:   timeout,
	}
}
