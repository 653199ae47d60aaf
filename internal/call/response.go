package call

import (
	"net/http"
	"strconv"
	"strings"
)

// Response is the outcome of a call that reached the server.
// Body is meaningful only when HasBody is set.
type Response[T any] struct {
	StatusCode int
	Message    string // reason phrase, e.g. "Not Found"
	Header     http.Header
	Body       T
	HasBody    bool
}

// IsSuccessful reports whether the status code is in the 2xx range.
func (r *Response[T]) IsSuccessful() bool {
	return r.StatusCode >= http.StatusOK && r.StatusCode < http.StatusMultipleChoices
}

// reasonPhrase strips the numeric code off a status line ("404 Not Found" -> "Not Found").
func reasonPhrase(resp *http.Response) string {
	code := strconv.Itoa(resp.StatusCode)
	return strings.TrimSpace(strings.TrimPrefix(resp.Status, code))
}
