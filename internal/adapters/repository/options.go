package repository

import (
	"github.com/okian/courtline/pkg/logger"
)

// Option applies a configuration option to the GormStore.
type Option func(*GormStore)

// WithLogger sets the logger.
func WithLogger(l logger.Logger) Option {
	return func(s *GormStore) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithSQLTrace turns on gorm's statement log.
func WithSQLTrace(enabled bool) Option {
	return func(s *GormStore) {
		s.trace = enabled
	}
}
