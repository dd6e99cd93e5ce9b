// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/ulule/limiter/v3"
	"github.com/ulule/limiter/v3/drivers/middleware/stdlib"
	"github.com/ulule/limiter/v3/drivers/store/memory"

	"github.com/okian/courtline/internal/adapters/http/swagger"
	"github.com/okian/courtline/internal/domain/model"
	"github.com/okian/courtline/internal/domain/rating"
	"github.com/okian/courtline/pkg/logger"
	"github.com/okian/courtline/pkg/metrics"
)

const defaultMaxBody = 1 << 20

// ProjectionService computes matchups.
type ProjectionService interface {
	Project(ctx context.Context, req model.MatchupRequest) (*model.MatchupResult, error)
	ProjectBatch(ctx context.Context, reqs []model.MatchupRequest) ([]model.BatchItem, error)
}

// TeamService exposes the loaded teams.
type TeamService interface {
	Teams() ([]string, error)
	Team(query string) (*model.TeamView, error)
}

// PredictionService manages saved predictions.
type PredictionService interface {
	SaveLast(ctx context.Context) (*model.Prediction, error)
	Save(ctx context.Context, res *model.MatchupResult) (*model.Prediction, error)
	Predictions(ctx context.Context) ([]model.Prediction, error)
	UndoPrediction(ctx context.Context) (*model.Prediction, error)
	ClearPredictions(ctx context.Context) (int64, error)
	ExportPredictions(ctx context.Context, w io.Writer) error
}

// DatasetService reloads and reports the rating dataset.
type DatasetService interface {
	Refresh(ctx context.Context) (*rating.Dataset, error)
	Dataset() *rating.Dataset
}

// Dependencies required by HTTP handlers.
type Dependencies interface {
	ProjectionService
	TeamService
	PredictionService
	DatasetService
}

// Server wires HTTP routes for the projection API.
type Server struct {
	corsOrigins []string
	rate        *limiter.Rate
	maxBody     int64
	logger      logger.Logger

	healthHandler     *HealthHandler
	statsHandler      *StatsHandler
	teamsHandler      *TeamsHandler
	projectionHandler *ProjectionHandler
	predictionHandler *PredictionHandler
	datasetHandler    *DatasetHandler
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, statsProvider StatsProvider, opts ...Option) *Server {
	s := &Server{
		corsOrigins: []string{"*"},
		maxBody:     defaultMaxBody,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = logger.Named("api")
	}

	s.healthHandler = NewHealthHandler(deps)
	s.statsHandler = NewStatsHandler(statsProvider)
	s.teamsHandler = NewTeamsHandler(deps, s.logger)
	s.projectionHandler = NewProjectionHandler(deps, s.maxBody, s.logger)
	s.predictionHandler = NewPredictionHandler(deps, deps, s.maxBody, s.logger)
	s.datasetHandler = NewDatasetHandler(deps, s.logger)
	return s
}

// Handler builds the router with all routes attached.
func (s *Server) Handler(ctx context.Context) http.Handler {
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: s.corsOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		ExposedHeaders: []string{"Content-Disposition"},
		MaxAge:         300,
	}))
	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusNotFound, "not_found", nil)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", nil)
	})

	r.Get("/healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(metrics.GetRegistry(), promhttp.HandlerOpts{}))
	swagger.Register(ctx, r)

	r.Group(func(r chi.Router) {
		if s.rate != nil {
			r.Use(s.rateLimit(*s.rate))
		}
		r.Get("/stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))
		r.Get("/teams", MetricsMiddleware(s.teamsHandler.HandleList, "teams"))
		r.Get("/teams/{query}", MetricsMiddleware(s.teamsHandler.HandleGet, "team"))
		r.Post("/projections", MetricsMiddleware(s.projectionHandler.HandleProject, "projections"))
		r.Post("/projections/batch", MetricsMiddleware(s.projectionHandler.HandleBatch, "projections_batch"))
		r.Get("/predictions", MetricsMiddleware(s.predictionHandler.HandleList, "predictions"))
		r.Post("/predictions", MetricsMiddleware(s.predictionHandler.HandleSave, "predictions"))
		r.Delete("/predictions", MetricsMiddleware(s.predictionHandler.HandleClear, "predictions"))
		r.Delete("/predictions/last", MetricsMiddleware(s.predictionHandler.HandleUndo, "predictions_last"))
		r.Get("/predictions/export.csv", MetricsMiddleware(s.predictionHandler.HandleExport, "predictions_export"))
		r.Get("/dataset", MetricsMiddleware(s.datasetHandler.HandleStatus, "dataset"))
		r.Post("/dataset/refresh", MetricsMiddleware(s.datasetHandler.HandleRefresh, "dataset_refresh"))
	})
	return r
}

// rateLimit limits requests per client IP.
func (s *Server) rateLimit(rate limiter.Rate) func(http.Handler) http.Handler {
	lim := limiter.New(memory.NewStore(), rate)
	mw := stdlib.NewMiddleware(lim,
		stdlib.WithLimitReachedHandler(func(w http.ResponseWriter, r *http.Request) {
			s.logger.Warn(r.Context(), "rate limit reached", logger.String("path", r.URL.Path))
			writeFailure(w, NewKind(r.Method+" "+r.URL.Path, ErrRateLimited))
		}),
		stdlib.WithErrorHandler(func(w http.ResponseWriter, r *http.Request, err error) {
			writeFailure(w, Wrap("rate limit", err))
		}),
	)
	return mw.Handler
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}

// writeFailure writes err with the status its kind maps to.
func writeFailure(w http.ResponseWriter, err error) {
	status, code := statusFor(err)
	writeError(w, status, code, err)
}

// decodeJSON reads one JSON value from r into v. An empty body yields io.EOF.
func decodeJSON(w http.ResponseWriter, r *http.Request, limit int64, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, limit))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return err
		}
		return WrapKind("decode body", ErrBadRequest, err)
	}
	if dec.More() {
		return NewKind("decode body", ErrBadRequest)
	}
	return nil
}

func timestamp(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}
