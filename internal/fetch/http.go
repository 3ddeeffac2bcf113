package fetch

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/jmagar/hlsgrab/internal/model"
)

// maxErrorBody bounds how much of a failed response is drained before closing.
const maxErrorBody = 64 << 10

// Options tune an HTTPFetcher.
type Options struct {
	// Timeout bounds each request, including reading the body.
	Timeout time.Duration
	// RateLimit is a courtesy limit in requests per second; 0 disables it.
	RateLimit int
	// Client overrides the HTTP client, mainly for tests.
	Client *http.Client
}

// HTTPFetcher performs GET requests with a fixed header set.
type HTTPFetcher struct {
	client  *http.Client
	header  http.Header
	timeout time.Duration
	limiter *rateLimiter
}

// NewSessionFetcher forwards the capture step's cookie and headers untouched.
func NewSessionFetcher(session *model.Session, opts Options) *HTTPFetcher {
	header := make(http.Header)
	if session != nil {
		for k, v := range session.Headers {
			header.Set(k, v)
		}
		if strings.TrimSpace(session.Cookie) != "" {
			header.Set("Cookie", session.Cookie)
		}
	}
	return newHTTPFetcher(header, opts)
}

// NewDirectFetcher sends only a descriptive User-Agent/Referer pair.
func NewDirectFetcher(userAgent, referer string, opts Options) *HTTPFetcher {
	if strings.TrimSpace(userAgent) == "" {
		userAgent = model.DirectUserAgent
	}
	if strings.TrimSpace(referer) == "" {
		referer = model.DirectReferer
	}
	header := make(http.Header)
	header.Set("User-Agent", userAgent)
	header.Set("Referer", referer)
	return newHTTPFetcher(header, opts)
}

func newHTTPFetcher(header http.Header, opts Options) *HTTPFetcher {
	// No cookie jar: cookies come only from the captured session, never from responses.
	client := opts.Client
	if client == nil {
		client = &http.Client{}
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = model.DefaultFetchTimeout * time.Second
	}
	return &HTTPFetcher{
		client:  client,
		header:  header,
		timeout: timeout,
		limiter: newRateLimiter(float64(opts.RateLimit)),
	}
}

// Fetch performs one GET. A non-2xx status is returned as a Response, not an error;
// the retry policy decides what counts as failure.
func (f *HTTPFetcher) Fetch(ctx context.Context, url string) (Response, error) {
	waited, err := f.limiter.Wait(ctx)
	if err != nil {
		return Response{}, fmt.Errorf("rate limiter cancelled for %s: %w", url, err)
	}
	if waited > time.Millisecond {
		LogRateLimitWait(url, waited)
	}

	ctx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return Response{}, err
	}
	for k, vs := range f.header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}

	start := time.Now()
	resp, err := f.client.Do(req)
	if err != nil {
		LogRequest(url, 0, time.Since(start), 0, err)
		return Response{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxErrorBody))
		LogRequest(url, resp.StatusCode, time.Since(start), 0, nil)
		return Response{StatusCode: resp.StatusCode}, nil
	}

	body, err := io.ReadAll(resp.Body)
	LogRequest(url, resp.StatusCode, time.Since(start), len(body), err)
	if err != nil {
		return Response{}, fmt.Errorf("read body of %s: %w", url, err)
	}
	return Response{StatusCode: resp.StatusCode, Body: body}, nil
}
