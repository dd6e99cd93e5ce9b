// Package service wires the rating dataset, the projection pipeline and the
// prediction store behind the operations the HTTP API and CLI need.
package service

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/okian/courtline/internal/adapters/feed"
	"github.com/okian/courtline/internal/adapters/repository"
	"github.com/okian/courtline/internal/adapters/worker"
	"github.com/okian/courtline/internal/config"
	"github.com/okian/courtline/internal/domain/edge"
	"github.com/okian/courtline/internal/domain/model"
	"github.com/okian/courtline/internal/domain/projection"
	"github.com/okian/courtline/internal/domain/rating"
	"github.com/okian/courtline/internal/domain/resolve"
	"github.com/okian/courtline/internal/domain/simulation"
	"github.com/okian/courtline/pkg/logger"
	"github.com/okian/courtline/pkg/metrics"
)

// Service implements the API dependencies for the projection system.
type Service struct {
	mu sync.RWMutex

	cfg *config.Config

	// Core components
	dataset   atomic.Pointer[rating.Dataset]
	last      atomic.Pointer[model.MatchupResult]
	aliases   rating.Aliases
	resolver  *resolve.Resolver
	engine    *projection.Engine
	simulator *simulation.Simulator
	evaluator *edge.Evaluator
	fetcher   Fetcher
	store     repository.Store
	ownsStore bool

	fetchPool *worker.Pool
	batchPool *worker.Pool
	scheduler *cron.Cron

	// serializes refreshes; projections never take it
	refreshMu sync.Mutex

	initialRefresh bool
	started        bool
	startedAt      time.Time

	logger logger.Logger
}

// New constructs a Service from cfg. Nothing is fetched or opened until Start.
func New(cfg *config.Config, opts ...Option) *Service {
	if cfg == nil {
		cfg = config.New(context.Background())
	}
	s := &Service{
		cfg:            cfg,
		ownsStore:      true,
		initialRefresh: true,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = logger.Get().Named("service")
	}

	s.aliases = rating.NewAliases(cfg.Aliases)
	s.resolver = resolve.New(s.aliases)
	s.engine = projection.New(
		projection.WithParams(modelParams(cfg.Model)),
		projection.WithPolicy(fallbackPolicy(cfg.Fallback)),
	)
	s.simulator = simulation.New(
		simulation.WithSamples(cfg.Simulation.Samples),
		simulation.WithPossessionSD(cfg.Simulation.PossessionSD),
		simulation.WithPPPSD(cfg.Simulation.PPPSD),
		simulation.WithPossessionFloor(cfg.Simulation.PossessionFloor),
		simulation.WithWorkers(cfg.Simulation.Workers),
		simulation.WithSeed(cfg.Simulation.Seed),
	)
	s.evaluator = edge.New(
		edge.WithSpreadThreshold(cfg.Market.SpreadThreshold),
		edge.WithTotalThreshold(cfg.Market.TotalThreshold),
		edge.WithConfidenceReference(cfg.Market.ConfidenceReference),
	)
	if s.fetcher == nil {
		s.fetcher = feed.NewHTTPFetcher(
			feed.WithTimeout(time.Duration(cfg.FetchTimeoutMS)*time.Millisecond),
			feed.WithLogger(s.logger.Named("feed")),
		)
	}
	s.fetchPool = worker.NewPool(cfg.FetchWorkers, worker.WithName("feeds"), worker.WithLogger(s.logger))
	s.batchPool = worker.NewPool(cfg.BatchWorkers, worker.WithName("batch"), worker.WithLogger(s.logger))
	return s
}

// Start opens the store, loads the feeds once and schedules refreshes. A
// failed first load is logged, not returned: the API reports 503 until a
// refresh succeeds.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}
	s.logger.Info(ctx, "starting projection service...")

	// The scheduler is built first so a bad schedule never leaves an open store.
	var c *cron.Cron
	if s.cfg.RefreshSchedule != "" {
		c = cron.New(cron.WithLogger(cronLogger{s.logger.Named("cron")}))
		if _, err := c.AddFunc(s.cfg.RefreshSchedule, s.scheduledRefresh); err != nil {
			return fmt.Errorf("start service: refresh schedule %q: %w", s.cfg.RefreshSchedule, err)
		}
	}

	if s.store == nil {
		st, err := repository.Open(s.cfg.StorePath, repository.WithLogger(s.logger.Named("repository")))
		if err != nil {
			return fmt.Errorf("start service: %w", err)
		}
		s.store = st
	}

	if s.initialRefresh {
		if _, err := s.Refresh(ctx); err != nil {
			s.logger.Error(ctx, "initial dataset load failed", logger.Error(err))
		}
	}

	if c != nil {
		c.Start()
		s.scheduler = c
	}

	s.started = true
	s.startedAt = time.Now()
	s.logger.Info(ctx, "projection service started",
		logger.Int("feeds", len(s.cfg.Feeds)),
		logger.Int("teams", s.Dataset().Len()),
		logger.String("refreshSchedule", s.cfg.RefreshSchedule),
	)
	return nil
}

// Stop halts the scheduler, waits for a running refresh and closes the store.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}
	s.logger.Info(context.Background(), "stopping projection service...")

	if s.scheduler != nil {
		<-s.scheduler.Stop().Done()
		s.scheduler = nil
	}
	if s.ownsStore && s.store != nil {
		if err := s.store.Close(); err != nil {
			s.logger.Warn(context.Background(), "closing store failed", logger.Error(err))
		}
		s.store = nil
	}

	s.started = false
	s.logger.Info(context.Background(), "projection service stopped")
}

// Dataset returns the active snapshot; nil before the first successful load.
func (s *Service) Dataset() *rating.Dataset {
	return s.dataset.Load()
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ds := s.Dataset()
	stats := map[string]interface{}{
		"started":           s.started,
		"teams":             ds.Len(),
		"feeds":             len(s.cfg.Feeds),
		"simulationSamples": s.simulator.Samples(),
		"batchWorkers":      s.batchPool.Size(),
	}
	if ds != nil {
		stats["datasetLoadedAt"] = ds.LoadedAt()
		stats["sources"] = ds.Sources()
	}
	if s.started {
		stats["uptimeSeconds"] = int64(time.Since(s.startedAt).Seconds())
		if n, err := s.store.Count(context.Background()); err == nil {
			stats["predictions"] = n
			metrics.UpdatePredictionsStored(n)
		}
	}
	return stats
}

func modelParams(m config.ModelConfig) projection.Params {
	return projection.Params{
		LeagueRating:   m.LeagueRating,
		LeagueTempo:    m.LeagueTempo,
		HomeEdgePoints: m.HomeEdgePoints,
		WeightEFG:      m.WeightEFG,
		WeightTOV:      m.WeightTOV,
		WeightREB:      m.WeightREB,
		AnchorWeight:   m.AnchorWeight,
		Damping:        m.Damping,
		PPPMin:         m.PPPMin,
		PPPMax:         m.PPPMax,
		TempoShrink:    m.TempoShrink,
		Epsilon:        m.Epsilon,
	}
}

// fallbackPolicy drops unknown stat names; an emptied list falls back to the
// engine default.
func fallbackPolicy(f config.FallbackConfig) projection.Policy {
	parse := func(names []string) []rating.Stat {
		out := make([]rating.Stat, 0, len(names))
		for _, n := range names {
			if st, err := rating.ParseStat(n); err == nil {
				out = append(out, st)
			}
		}
		return out
	}
	return projection.Policy{
		Tempo:         parse(f.Tempo),
		Offense:       parse(f.Offense),
		Defense:       parse(f.Defense),
		AllowBaseline: f.AllowBaseline,
	}
}

// cronLogger adapts the service logger to cron's logger.
type cronLogger struct {
	l logger.Logger
}

func (c cronLogger) Info(msg string, keysAndValues ...interface{}) {
	c.l.Debug(context.Background(), msg, kvFields(keysAndValues)...)
}

func (c cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	c.l.Error(context.Background(), msg, append(kvFields(keysAndValues), logger.Error(err))...)
}

func kvFields(kv []interface{}) []logger.Field {
	fields := make([]logger.Field, 0, len(kv)/2)
	for i := 0; i+1 < len(kv); i += 2 {
		fields = append(fields, logger.Any(fmt.Sprint(kv[i]), kv[i+1]))
	}
	return fields
}
