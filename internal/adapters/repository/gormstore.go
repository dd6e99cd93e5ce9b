package repository

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/okian/courtline/internal/domain/model"
	"github.com/okian/courtline/pkg/logger"
	"github.com/okian/courtline/pkg/metrics"
)

// MemoryPath opens a private in-memory database.
const MemoryPath = ":memory:"

// GormStore is a Store on sqlite through gorm.
type GormStore struct {
	db     *gorm.DB
	logger logger.Logger
	trace  bool
}

// Open opens (and migrates) the sqlite database at path.
func Open(path string, opts ...Option) (*GormStore, error) {
	s := &GormStore{}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = logger.Named("repository")
	}

	level := gormlogger.Silent
	if s.trace {
		level = gormlogger.Info
	}
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{Logger: gormlogger.Default.LogMode(level)})
	if err != nil {
		// gorm hands back the half-open handle when the first ping fails
		if db != nil {
			if sqlDB, dbErr := db.DB(); dbErr == nil {
				_ = sqlDB.Close()
			}
		}
		return nil, fmt.Errorf("%w: %s: %w", ErrOpenStore, path, err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrOpenStore, err)
	}
	if path == MemoryPath {
		// every pooled connection would otherwise get its own empty database
		sqlDB.SetMaxOpenConns(1)
	}
	if err := db.AutoMigrate(&model.Prediction{}); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("%w: migrate: %w", ErrOpenStore, err)
	}
	s.db = db
	s.refreshGauge(context.Background())
	return s, nil
}

// Append saves p and assigns its sequence number.
func (s *GormStore) Append(ctx context.Context, p *model.Prediction) error {
	if err := s.db.WithContext(ctx).Create(p).Error; err != nil {
		return fmt.Errorf("save prediction: %w", err)
	}
	s.refreshGauge(ctx)
	return nil
}

// List returns every saved prediction in insertion order.
func (s *GormStore) List(ctx context.Context) ([]model.Prediction, error) {
	var out []model.Prediction
	if err := s.db.WithContext(ctx).Order("seq ASC").Find(&out).Error; err != nil {
		return nil, fmt.Errorf("list predictions: %w", err)
	}
	return out, nil
}

// RemoveLast deletes and returns the newest prediction, or ErrNoPredictions.
func (s *GormStore) RemoveLast(ctx context.Context) (model.Prediction, error) {
	var last model.Prediction
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Order("seq DESC").First(&last).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNoPredictions
			}
			return err
		}
		return tx.Delete(&last).Error
	})
	if err != nil {
		if errors.Is(err, ErrNoPredictions) {
			return model.Prediction{}, err
		}
		return model.Prediction{}, fmt.Errorf("remove last prediction: %w", err)
	}
	s.refreshGauge(ctx)
	return last, nil
}

// Clear deletes every prediction and reports how many were removed.
func (s *GormStore) Clear(ctx context.Context) (int64, error) {
	res := s.db.WithContext(ctx).Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(&model.Prediction{})
	if res.Error != nil {
		return 0, fmt.Errorf("clear predictions: %w", res.Error)
	}
	s.refreshGauge(ctx)
	return res.RowsAffected, nil
}

// Count reports how many predictions are saved.
func (s *GormStore) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := s.db.WithContext(ctx).Model(&model.Prediction{}).Count(&n).Error; err != nil {
		return 0, fmt.Errorf("count predictions: %w", err)
	}
	return n, nil
}

// Close releases the underlying connection pool.
func (s *GormStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func (s *GormStore) refreshGauge(ctx context.Context) {
	n, err := s.Count(ctx)
	if err != nil {
		s.logger.Warn(ctx, "count predictions failed", logger.Error(err))
		return
	}
	metrics.UpdatePredictionsStored(n)
}
