package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/okian/courtline/internal/domain/edge"
	"github.com/okian/courtline/internal/domain/model"
	"github.com/okian/courtline/internal/domain/projection"
	"github.com/okian/courtline/internal/domain/rating"
	"github.com/okian/courtline/internal/domain/resolve"
	"github.com/okian/courtline/internal/domain/simulation"
	"github.com/okian/courtline/pkg/logger"
	"github.com/okian/courtline/pkg/metrics"
)

// MaxSamples bounds a per-request simulation override.
const MaxSamples = 200_000

// Project resolves both teams and runs the full pipeline against the dataset
// active when the call started.
func (s *Service) Project(ctx context.Context, req model.MatchupRequest) (*model.MatchupResult, error) {
	start := time.Now()
	res, err := s.project(ctx, req, s.Dataset())
	if err != nil {
		metrics.RecordProjectionError(ErrorKind(err))
		return nil, err
	}
	metrics.RecordProjectionLatency(float64(time.Since(start).Microseconds()) / 1000)
	s.last.Store(res)
	return res, nil
}

func (s *Service) project(ctx context.Context, req model.MatchupRequest, ds *rating.Dataset) (*model.MatchupResult, error) {
	if strings.TrimSpace(req.Away) == "" || strings.TrimSpace(req.Home) == "" {
		return nil, fmt.Errorf("%w: away and home are required", ErrInvalidRequest)
	}
	if req.Samples < 0 || req.Samples > MaxSamples {
		return nil, fmt.Errorf("%w: samples must be within [0, %d]", ErrInvalidRequest, MaxSamples)
	}
	if ds.Len() == 0 {
		return nil, rating.ErrEmptyDataset
	}

	away, err := s.resolver.Resolve(req.Away, ds)
	if err != nil {
		return nil, err
	}
	home, err := s.resolver.Resolve(req.Home, ds)
	if err != nil {
		return nil, err
	}

	m, err := s.engine.Project(away, home, ds.Baseline())
	if err != nil {
		return nil, err
	}
	for _, n := range m.Notices {
		metrics.RecordFallback(n.Field, n.Source)
		s.logger.Debug(ctx, "rating substituted",
			logger.String("team", n.Team), logger.String("field", n.Field),
			logger.String("source", n.Source), logger.Float64("value", n.Value))
	}

	homeEdge := s.engine.Params().HomeEdgePoints
	res := &model.MatchupResult{
		Away:       away.Name,
		Home:       home.Name,
		HomeEdge:   homeEdge,
		Matchup:    m,
		Score:      s.engine.Score(m.Possessions, m.Away.PPP, m.Home.PPP, homeEdge),
		Market:     req.Market(),
		ComputedAt: time.Now().UTC(),
	}

	awayPts, homePts := res.Score.Away, res.Score.Home
	mode := "deterministic"
	if s.simulate(req) {
		simStart := time.Now()
		sum, err := s.simulator.Run(ctx, simulation.Input{
			Possessions: m.Possessions,
			PPPAway:     m.Away.PPP,
			PPPHome:     m.Home.PPP,
			HomeEdge:    homeEdge,
			Samples:     req.Samples,
		})
		if err != nil {
			return nil, err
		}
		metrics.RecordSimulationLatency(float64(time.Since(simStart).Microseconds()) / 1000)
		metrics.RecordSimulationSamples(sum.Samples)
		res.Distribution = &sum
		awayPts, homePts = sum.AwayMean, sum.HomeMean
		mode = "simulated"
	}
	metrics.RecordProjection(mode)

	res.Evaluation = s.evaluator.Evaluate(edge.Input{
		AwayName: away.Name, HomeName: home.Name, AwayPoints: awayPts, HomePoints: homePts,
	}, res.Market)
	if p := res.Evaluation.SpreadPlay; p != nil {
		metrics.RecordPlay("spread", p.Kind)
	}
	if p := res.Evaluation.TotalPlay; p != nil {
		metrics.RecordPlay("total", p.Kind)
	}
	return res, nil
}

func (s *Service) simulate(req model.MatchupRequest) bool {
	if req.Simulate != nil {
		return *req.Simulate
	}
	return s.cfg.Simulation.Enabled
}

// ProjectBatch projects every request against one dataset snapshot on the
// batch pool. Per-item failures are reported in place.
func (s *Service) ProjectBatch(ctx context.Context, reqs []model.MatchupRequest) ([]model.BatchItem, error) {
	if len(reqs) == 0 {
		return nil, fmt.Errorf("%w: empty batch", ErrInvalidRequest)
	}
	if len(reqs) > s.cfg.MaxBatchSize {
		return nil, fmt.Errorf("%w: batch of %d exceeds %d", ErrInvalidRequest, len(reqs), s.cfg.MaxBatchSize)
	}
	ds := s.Dataset()
	if ds.Len() == 0 {
		return nil, rating.ErrEmptyDataset
	}

	items := make([]model.BatchItem, len(reqs))
	err := s.batchPool.Run(ctx, len(reqs), func(ctx context.Context, i int) error {
		res, err := s.project(ctx, reqs[i], ds)
		if err != nil {
			metrics.RecordProjectionError(ErrorKind(err))
			items[i] = model.BatchItem{Error: err.Error(), Kind: ErrorKind(err)}
			return nil
		}
		items[i] = model.BatchItem{Result: res}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return items, nil
}

// Teams lists the display names of the active dataset in order.
func (s *Service) Teams() ([]string, error) {
	ds := s.Dataset()
	if ds.Len() == 0 {
		return nil, rating.ErrEmptyDataset
	}
	return ds.Names(), nil
}

// Team resolves query and reports the values a projection would use.
func (s *Service) Team(query string) (*model.TeamView, error) {
	ds := s.Dataset()
	t, err := s.resolver.Resolve(query, ds)
	if err != nil {
		return nil, err
	}
	side, notices, err := s.engine.Describe(t, ds.Baseline())
	if err != nil {
		return nil, err
	}
	return &model.TeamView{
		Name:      t.Name,
		Key:       t.Key,
		Stats:     t.Stats,
		Sources:   t.Sources,
		Effective: side,
		Notices:   notices,
	}, nil
}

// ErrorKind classifies err for metrics and API responses.
func ErrorKind(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrInvalidRequest):
		return "invalid_request"
	case errors.Is(err, resolve.ErrAmbiguousTeamName):
		return "ambiguous_team"
	case errors.Is(err, rating.ErrTeamNotFound):
		return "team_not_found"
	case errors.Is(err, projection.ErrSameTeam):
		return "same_team"
	case errors.Is(err, projection.ErrInsufficientData):
		return "insufficient_data"
	case errors.Is(err, rating.ErrEmptyDataset):
		return "dataset_not_loaded"
	case errors.Is(err, ErrNotStarted):
		return "not_started"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "canceled"
	default:
		return "internal"
	}
}
