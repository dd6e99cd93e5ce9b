package api

import (
	"errors"
	"io"
	"net/http"

	"github.com/okian/courtline/internal/domain/model"
	"github.com/okian/courtline/internal/report"
	"github.com/okian/courtline/pkg/logger"
)

// ProjectionHandler serves matchup projections.
type ProjectionHandler struct {
	projections ProjectionService
	maxBody     int64
	logger      logger.Logger
}

// NewProjectionHandler creates a new projection handler.
func NewProjectionHandler(projections ProjectionService, maxBody int64, l logger.Logger) *ProjectionHandler {
	return &ProjectionHandler{projections: projections, maxBody: maxBody, logger: l}
}

type batchRequest struct {
	Matchups []model.MatchupRequest `json:"matchups"`
}

type batchResponse struct {
	Count   int               `json:"count"`
	Results []model.BatchItem `json:"results"`
}

// HandleProject handles POST /projections. With ?format=text the fixed-width
// game summary is returned instead of JSON.
func (h *ProjectionHandler) HandleProject(w http.ResponseWriter, r *http.Request) {
	var req model.MatchupRequest
	if err := decodeJSON(w, r, h.maxBody, &req); err != nil {
		if errors.Is(err, io.EOF) {
			err = NewKind("decode body", ErrBadRequest)
		}
		writeFailure(w, err)
		return
	}

	res, err := h.projections.Project(r.Context(), req)
	if err != nil {
		h.logger.Debug(r.Context(), "projection failed",
			logger.String("away", req.Away), logger.String("home", req.Home), logger.Error(err))
		writeFailure(w, Wrap("project", err))
		return
	}

	if r.URL.Query().Get("format") == "text" {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		if err := report.Write(w, res); err != nil {
			h.logger.Warn(r.Context(), "writing summary failed", logger.Error(err))
		}
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// HandleBatch handles POST /projections/batch. Per-item failures are reported
// inline; the request fails only when the batch itself is rejected.
func (h *ProjectionHandler) HandleBatch(w http.ResponseWriter, r *http.Request) {
	var req batchRequest
	if err := decodeJSON(w, r, h.maxBody, &req); err != nil {
		if errors.Is(err, io.EOF) {
			err = NewKind("decode body", ErrBadRequest)
		}
		writeFailure(w, err)
		return
	}

	items, err := h.projections.ProjectBatch(r.Context(), req.Matchups)
	if err != nil {
		writeFailure(w, Wrap("project batch", err))
		return
	}
	writeJSON(w, http.StatusOK, batchResponse{Count: len(items), Results: items})
}
