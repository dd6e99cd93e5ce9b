package feed

import (
	"net/http"
	"time"

	"github.com/okian/courtline/pkg/logger"
)

// Option configures an HTTPFetcher.
type Option func(*HTTPFetcher)

// WithHTTPClient replaces the client used for remote feeds.
func WithHTTPClient(c *http.Client) Option {
	return func(f *HTTPFetcher) {
		if c != nil {
			f.client = c
		}
	}
}

// WithTimeout bounds each fetch, including body reads.
func WithTimeout(d time.Duration) Option {
	return func(f *HTTPFetcher) {
		if d > 0 {
			f.timeout = d
		}
	}
}

// WithBreaker sets how many consecutive failures open a feed's breaker and
// how long it stays open.
func WithBreaker(failures uint32, cooldown time.Duration) Option {
	return func(f *HTTPFetcher) {
		if failures > 0 {
			f.breakerFailures = failures
		}
		if cooldown > 0 {
			f.breakerCooldown = cooldown
		}
	}
}

// WithMaxBodyBytes caps the decoded body size.
func WithMaxBodyBytes(n int64) Option {
	return func(f *HTTPFetcher) {
		if n > 0 {
			f.maxBody = n
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l logger.Logger) Option {
	return func(f *HTTPFetcher) {
		if l != nil {
			f.log = l
		}
	}
}
