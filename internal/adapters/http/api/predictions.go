package api

import (
	"bytes"
	"errors"
	"io"
	"net/http"

	"github.com/okian/courtline/internal/domain/model"
	"github.com/okian/courtline/pkg/logger"
)

const exportFilename = "predictions.csv"

// PredictionHandler serves the saved prediction log.
type PredictionHandler struct {
	predictions PredictionService
	projections ProjectionService
	maxBody     int64
	logger      logger.Logger
}

// NewPredictionHandler creates a new prediction handler.
func NewPredictionHandler(predictions PredictionService, projections ProjectionService, maxBody int64, l logger.Logger) *PredictionHandler {
	return &PredictionHandler{predictions: predictions, projections: projections, maxBody: maxBody, logger: l}
}

type predictionsResponse struct {
	Count       int                `json:"count"`
	Predictions []model.Prediction `json:"predictions"`
}

type clearResponse struct {
	Removed int64 `json:"removed"`
}

// HandleList handles GET /predictions.
func (h *PredictionHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	rows, err := h.predictions.Predictions(r.Context())
	if err != nil {
		writeFailure(w, Wrap("list predictions", err))
		return
	}
	if rows == nil {
		rows = []model.Prediction{}
	}
	writeJSON(w, http.StatusOK, predictionsResponse{Count: len(rows), Predictions: rows})
}

// HandleSave handles POST /predictions. An empty body saves the most recent
// projection; a matchup body is projected first and then saved.
func (h *PredictionHandler) HandleSave(w http.ResponseWriter, r *http.Request) {
	var req model.MatchupRequest
	err := decodeJSON(w, r, h.maxBody, &req)
	switch {
	case errors.Is(err, io.EOF):
		p, err := h.predictions.SaveLast(r.Context())
		if err != nil {
			writeFailure(w, Wrap("save last projection", err))
			return
		}
		writeJSON(w, http.StatusCreated, p)
		return
	case err != nil:
		writeFailure(w, err)
		return
	}

	res, err := h.projections.Project(r.Context(), req)
	if err != nil {
		writeFailure(w, Wrap("project", err))
		return
	}
	p, err := h.predictions.Save(r.Context(), res)
	if err != nil {
		writeFailure(w, Wrap("save prediction", err))
		return
	}
	writeJSON(w, http.StatusCreated, p)
}

// HandleUndo handles DELETE /predictions/last.
func (h *PredictionHandler) HandleUndo(w http.ResponseWriter, r *http.Request) {
	p, err := h.predictions.UndoPrediction(r.Context())
	if err != nil {
		writeFailure(w, Wrap("undo prediction", err))
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// HandleClear handles DELETE /predictions.
func (h *PredictionHandler) HandleClear(w http.ResponseWriter, r *http.Request) {
	n, err := h.predictions.ClearPredictions(r.Context())
	if err != nil {
		writeFailure(w, Wrap("clear predictions", err))
		return
	}
	h.logger.Info(r.Context(), "predictions cleared", logger.Int64("removed", n))
	writeJSON(w, http.StatusOK, clearResponse{Removed: n})
}

// HandleExport handles GET /predictions/export.csv. The body is buffered so
// a store failure still produces a JSON error instead of a truncated file.
func (h *PredictionHandler) HandleExport(w http.ResponseWriter, r *http.Request) {
	var buf bytes.Buffer
	if err := h.predictions.ExportPredictions(r.Context(), &buf); err != nil {
		writeFailure(w, Wrap("export predictions", err))
		return
	}
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="`+exportFilename+`"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}
