package fetch

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
)

// LogEntry is a single structured record written to the fetch log file.
// Each field uses snake_case JSON keys for easy grep/jq consumption.
type LogEntry struct {
	Timestamp  string `json:"ts"`
	RunID      string `json:"run"`
	Event      string `json:"event"`                 // "request", "retry_wait", "rate_limit_wait", "give_up"
	URL        string `json:"url,omitempty"`         // request URL
	StatusCode int    `json:"status_code,omitempty"` // HTTP status (0 = network error)
	DurationMS int64  `json:"duration_ms,omitempty"` // round-trip or wait time
	Attempt    int    `json:"attempt,omitempty"`     // 1-based attempt number
	Bytes      int    `json:"bytes,omitempty"`
	Error      string `json:"error,omitempty"`
}

// requestLogger writes JSON-line entries to a dedicated log file.
// All methods are safe for concurrent use.
type requestLogger struct {
	mu    sync.Mutex
	enc   *json.Encoder
	f     *os.File
	runID string
}

// Logger is the package-level fetch logger. It is nil until InitLogger is called.
// All log functions are no-ops when Logger is nil.
var Logger *requestLogger

var loggerOnce sync.Once

// InitLogger opens (or creates) the fetch log at logPath and tags every entry with a new run id.
// Returns the run id. On error logging stays disabled and downloads continue normally.
func InitLogger(logPath string) (string, error) {
	var initErr error
	loggerOnce.Do(func() {
		if err := os.MkdirAll(filepath.Dir(logPath), 0700); err != nil {
			initErr = fmt.Errorf("fetch logger: mkdir %s: %w", filepath.Dir(logPath), err)
			return
		}
		f, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0600)
		if err != nil {
			initErr = fmt.Errorf("fetch logger: open %s: %w", logPath, err)
			return
		}
		Logger = &requestLogger{f: f, enc: json.NewEncoder(f), runID: uuid.NewString()}
	})
	if Logger == nil {
		return "", initErr
	}
	return Logger.runID, initErr
}

// CloseLogger flushes and closes the log file.
func CloseLogger() error {
	if Logger == nil {
		return nil
	}
	Logger.mu.Lock()
	defer Logger.mu.Unlock()
	return Logger.f.Close()
}

// write is the internal append function. Failures are ignored; a logging error
// must never abort a download.
func (l *requestLogger) write(e LogEntry) {
	e.Timestamp = time.Now().UTC().Format(time.RFC3339Nano)
	e.RunID = l.runID
	l.mu.Lock()
	defer l.mu.Unlock()
	_ = l.enc.Encode(e)
}

// LogRequest records one completed HTTP attempt.
func LogRequest(url string, statusCode int, duration time.Duration, size int, reqErr error) {
	if Logger == nil {
		return
	}
	e := LogEntry{
		Event:      "request",
		URL:        url,
		StatusCode: statusCode,
		DurationMS: duration.Milliseconds(),
		Bytes:      size,
	}
	if reqErr != nil {
		e.Error = reqErr.Error()
	}
	Logger.write(e)
}

// LogRetryWait records a backoff sleep before the next attempt.
func LogRetryWait(url string, attempt int, wait time.Duration, cause error) {
	if Logger == nil {
		return
	}
	e := LogEntry{Event: "retry_wait", URL: url, Attempt: attempt, DurationMS: wait.Milliseconds()}
	if cause != nil {
		e.Error = cause.Error()
	}
	Logger.write(e)
}

// LogRateLimitWait records time spent waiting for the rate limiter.
func LogRateLimitWait(url string, waited time.Duration) {
	if Logger == nil {
		return
	}
	Logger.write(LogEntry{Event: "rate_limit_wait", URL: url, DurationMS: waited.Milliseconds()})
}

// LogGiveUp records a URL that exhausted its attempts.
func LogGiveUp(url string, attempts int, cause error) {
	if Logger == nil {
		return
	}
	e := LogEntry{Event: "give_up", URL: url, Attempt: attempts}
	if cause != nil {
		e.Error = cause.Error()
	}
	Logger.write(e)
}
