package service

import (
	"context"
	"fmt"
	"io"

	"github.com/okian/courtline/internal/adapters/repository"
	"github.com/okian/courtline/internal/domain/model"
	"github.com/okian/courtline/pkg/logger"
)

// SaveLast stores the most recent successful projection.
func (s *Service) SaveLast(ctx context.Context) (*model.Prediction, error) {
	res := s.last.Load()
	if res == nil {
		return nil, ErrNoResult
	}
	return s.Save(ctx, res)
}

// Save stores res as a flattened prediction.
func (s *Service) Save(ctx context.Context, res *model.MatchupResult) (*model.Prediction, error) {
	if res == nil {
		return nil, ErrNoResult
	}
	st, err := s.predictionStore()
	if err != nil {
		return nil, err
	}
	p := model.NewPrediction(*res)
	if err := st.Append(ctx, &p); err != nil {
		return nil, err
	}
	s.logger.Info(ctx, "prediction saved", logger.String("id", p.ID),
		logger.String("away", p.Away), logger.String("home", p.Home))
	return &p, nil
}

// Predictions lists saved predictions, oldest first.
func (s *Service) Predictions(ctx context.Context) ([]model.Prediction, error) {
	st, err := s.predictionStore()
	if err != nil {
		return nil, err
	}
	return st.List(ctx)
}

// UndoPrediction removes the newest saved prediction.
func (s *Service) UndoPrediction(ctx context.Context) (*model.Prediction, error) {
	st, err := s.predictionStore()
	if err != nil {
		return nil, err
	}
	p, err := st.RemoveLast(ctx)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// ClearPredictions removes every saved prediction.
func (s *Service) ClearPredictions(ctx context.Context) (int64, error) {
	st, err := s.predictionStore()
	if err != nil {
		return 0, err
	}
	n, err := st.Clear(ctx)
	if err != nil {
		return 0, err
	}
	s.logger.Info(ctx, "predictions cleared", logger.Int64("removed", n))
	return n, nil
}

// ExportPredictions writes the saved table as CSV.
func (s *Service) ExportPredictions(ctx context.Context, w io.Writer) error {
	rows, err := s.Predictions(ctx)
	if err != nil {
		return err
	}
	if err := repository.WriteCSV(w, rows); err != nil {
		return fmt.Errorf("export predictions: %w", err)
	}
	return nil
}

func (s *Service) predictionStore() (repository.Store, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.store == nil {
		return nil, ErrNotStarted
	}
	return s.store, nil
}
