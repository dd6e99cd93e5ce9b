package service

import (
	"context"

	"github.com/okian/courtline/internal/adapters/feed"
	"github.com/okian/courtline/internal/adapters/repository"
	"github.com/okian/courtline/pkg/logger"
)

// Fetcher retrieves one feed as rows.
type Fetcher interface {
	Fetch(ctx context.Context, src feed.Source) ([][]string, error)
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithFetcher replaces the HTTP feed fetcher.
func WithFetcher(f Fetcher) Option {
	return func(s *Service) {
		if f != nil {
			s.fetcher = f
		}
	}
}

// WithStore replaces the sqlite prediction store. The service does not close
// a store it did not open.
func WithStore(st repository.Store) Option {
	return func(s *Service) {
		if st != nil {
			s.store = st
			s.ownsStore = false
		}
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(logger logger.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithoutInitialRefresh makes Start skip the first feed load.
func WithoutInitialRefresh() Option {
	return func(s *Service) {
		s.initialRefresh = false
	}
}
