package fetch

import (
	"context"
	"time"

	"github.com/jmagar/hlsgrab/internal/model"
)

// SleepFunc waits for d or until ctx is done.
type SleepFunc func(ctx context.Context, d time.Duration) error

// Retrier applies the bounded retry policy to a single URL.
type Retrier struct {
	MaxAttempts int
	// Sleep defaults to a context-aware timer; tests inject a recorder.
	Sleep SleepFunc
	// OnRetry is called before each backoff wait. Optional.
	OnRetry func(url string, attempt int, wait time.Duration, err error)
}

// NewRetrier returns a Retrier with the given attempt budget (default 3).
func NewRetrier(maxAttempts int) *Retrier {
	if maxAttempts < 1 {
		maxAttempts = model.DefaultMaxAttempts
	}
	return &Retrier{MaxAttempts: maxAttempts, Sleep: sleepContext}
}

// Backoff is the wait after failed attempt n (1-based): 2^(n-1) seconds.
func Backoff(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	return time.Duration(1<<(attempt-1)) * time.Second
}

// Fetch returns the body of url, retrying failed attempts with exponential backoff.
// Each attempt refetches the whole resource.
func (r *Retrier) Fetch(ctx context.Context, url string, f Fetcher) ([]byte, error) {
	attempts := r.MaxAttempts
	if attempts < 1 {
		attempts = model.DefaultMaxAttempts
	}
	sleep := r.Sleep
	if sleep == nil {
		sleep = sleepContext
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		resp, err := f.Fetch(ctx, url)
		if err == nil && resp.OK() {
			return resp.Body, nil
		}
		if err == nil {
			err = &StatusError{StatusCode: resp.StatusCode}
		}
		lastErr = err

		if attempt == attempts {
			break
		}
		wait := Backoff(attempt)
		LogRetryWait(url, attempt, wait, err)
		if r.OnRetry != nil {
			r.OnRetry(url, attempt, wait, err)
		}
		if serr := sleep(ctx, wait); serr != nil {
			return nil, &model.SegmentFetchError{URL: url, Attempts: attempt, Err: serr}
		}
	}

	LogGiveUp(url, attempts, lastErr)
	return nil, &model.SegmentFetchError{URL: url, Attempts: attempts, Err: lastErr}
}

func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
