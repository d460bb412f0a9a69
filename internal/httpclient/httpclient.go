package httpclient

import (
	"net/http"
	"time"

	"finsage/internal/logging"
)

const defaultTimeout = 30 * time.Second

// New builds an HTTP client with a bounded timeout and request logging.
// Every network operation in the engine goes through a client built here so
// timeouts are never unbounded.
func New(timeout time.Duration, logger logging.Logger) *http.Client {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &http.Client{
		Timeout: timeout,
		Transport: &loggingRoundTripper{
			base:   http.DefaultTransport,
			logger: logging.OrNop(logger),
		},
	}
}

type loggingRoundTripper struct {
	base   http.RoundTripper
	logger logging.Logger
}

func (t *loggingRoundTripper) RoundTrip(req *http.Request) (*http.Response, error) {
	start := time.Now()
	resp, err := t.base.RoundTrip(req)
	elapsed := time.Since(start)
	if err != nil {
		t.logger.Warn("%s %s failed after %s: %v", req.Method, req.URL.Path, elapsed, err)
		return nil, err
	}
	t.logger.Debug("%s %s -> %d (%s)", req.Method, req.URL.Path, resp.StatusCode, elapsed)
	return resp, nil
}
