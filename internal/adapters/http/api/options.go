package api

import (
	"fmt"

	"github.com/ulule/limiter/v3"

	"github.com/okian/courtline/pkg/logger"
)

// Option applies a configuration option to the Server.
type Option func(*Server)

// WithCORSOrigins sets the allowed browser origins.
func WithCORSOrigins(origins []string) Option {
	return func(s *Server) {
		if len(origins) > 0 {
			s.corsOrigins = origins
		}
	}
}

// WithRateLimit limits requests per client IP on the API routes. Health,
// metrics and docs are not limited.
func WithRateLimit(rate limiter.Rate) Option {
	return func(s *Server) {
		if rate.Limit > 0 && rate.Period > 0 {
			s.rate = &rate
		}
	}
}

// WithMaxBodyBytes caps request bodies.
func WithMaxBodyBytes(n int64) Option {
	return func(s *Server) {
		if n > 0 {
			s.maxBody = n
		}
	}
}

// WithLogger sets a custom logger for the handlers.
func WithLogger(l logger.Logger) Option {
	return func(s *Server) {
		if l != nil {
			s.logger = l
		}
	}
}

// ParseRate parses a "<limit>-<period>" rate such as "120-M".
func ParseRate(formatted string) (limiter.Rate, error) {
	rate, err := limiter.NewRateFromFormatted(formatted)
	if err != nil {
		return limiter.Rate{}, fmt.Errorf("%w: rate %q: %w", ErrBadRequest, formatted, err)
	}
	return rate, nil
}
