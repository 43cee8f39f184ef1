// Package httputil provides the HTTP transport capability consumed by the
// repository client.
//
// The client core only needs "fetch a URL, get back parsed JSON or an
// error"; that capability is the [Transport] interface. The default
// implementation wraps net/http with a timeout and JSON accept headers and
// reports the response's max-age hint so callers can derive cache TTLs.
// [NewCachingTransport] decorates any Transport with a byte-level response
// cache passed in explicitly by the caller.
//
// The transport never retries. [Retry] is an opt-in helper for callers that
// want backoff around transient failures; the client core does not use it.
package httputil

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"
)

const httpTimeout = 10 * time.Second

// ErrNetwork is returned for failures before an HTTP response is received
// (timeouts, connection errors, DNS failures).
var ErrNetwork = errors.New("network error")

// StatusError is returned for non-2xx HTTP responses. The response is
// surfaced to the caller unmodified; nothing is retried internally.
type StatusError struct {
	StatusCode int
	URL        string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status %d fetching %s", e.StatusCode, e.URL)
}

// ResponseMeta carries response metadata a caller may use for caching
// decisions.
type ResponseMeta struct {
	StatusCode int
	MaxAge     time.Duration // from the Cache-Control max-age directive
	HasMaxAge  bool          // whether a max-age directive was present
}

// Transport fetches a URL and returns the raw JSON body along with
// response metadata.
//
// Implementations must return a non-nil *ResponseMeta whenever the error
// is nil, and must not retry internally; retry policy belongs to the
// caller.
type Transport interface {
	Fetch(ctx context.Context, url string) (json.RawMessage, *ResponseMeta, error)
}

// HTTPTransport is the default Transport backed by net/http.
// It issues GET requests with "Accept: application/json" and a 10s timeout.
// Safe for concurrent use.
type HTTPTransport struct {
	client *http.Client
}

// NewHTTPTransport creates an HTTPTransport with the default timeout.
func NewHTTPTransport() *HTTPTransport {
	return &HTTPTransport{client: &http.Client{Timeout: httpTimeout}}
}

// Fetch performs one GET request against url.
//
// Non-2xx responses produce a *StatusError; network failures wrap
// [ErrNetwork]. On success the body is returned verbatim together with the
// response's cache metadata.
func (t *HTTPTransport) Fetch(ctx context.Context, url string) (json.RawMessage, *ResponseMeta, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, nil, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := t.client.Do(req)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", ErrNetwork, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, nil, &StatusError{StatusCode: resp.StatusCode, URL: url}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", ErrNetwork, err)
	}

	meta := &ResponseMeta{StatusCode: resp.StatusCode}
	meta.MaxAge, meta.HasMaxAge = maxAge(resp.Header.Get("Cache-Control"))
	return json.RawMessage(body), meta, nil
}

// maxAge extracts the max-age directive from a Cache-Control header value.
func maxAge(cacheControl string) (time.Duration, bool) {
	for _, directive := range strings.Split(cacheControl, ",") {
		directive = strings.TrimSpace(directive)
		value, ok := strings.CutPrefix(directive, "max-age=")
		if !ok {
			continue
		}
		secs, err := strconv.Atoi(value)
		if err != nil || secs < 0 {
			return 0, false
		}
		return time.Duration(secs) * time.Second, true
	}
	return 0, false
}

var _ Transport = (*HTTPTransport)(nil)
