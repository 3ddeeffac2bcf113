// Package fetch provides the byte-fetching capability used for playlists and segments,
// plus the bounded retry policy applied to every segment.
package fetch

import (
	"context"
	"fmt"
	"net/http"
)

// Response is the result of one fetch attempt.
type Response struct {
	StatusCode int
	Body       []byte
}

// OK reports whether the status is a 2xx success.
func (r Response) OK() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}

// Fetcher retrieves the bytes behind a URL, carrying whatever session context it was built with.
type Fetcher interface {
	Fetch(ctx context.Context, url string) (Response, error)
}

// FetchFunc adapts a plain function to the Fetcher interface.
type FetchFunc func(ctx context.Context, url string) (Response, error)

// Fetch calls f.
func (f FetchFunc) Fetch(ctx context.Context, url string) (Response, error) {
	return f(ctx, url)
}

// StatusError is the attempt error for a non-2xx response.
type StatusError struct {
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("HTTP %d %s", e.StatusCode, http.StatusText(e.StatusCode))
}
