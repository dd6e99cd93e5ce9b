package api

import (
	"net/http"
	"time"

	"github.com/okian/courtline/internal/domain/rating"
	"github.com/okian/courtline/pkg/logger"
)

// DatasetHandler reports and reloads the rating dataset.
type DatasetHandler struct {
	datasets DatasetService
	logger   logger.Logger
}

// NewDatasetHandler creates a new dataset handler.
func NewDatasetHandler(datasets DatasetService, l logger.Logger) *DatasetHandler {
	return &DatasetHandler{datasets: datasets, logger: l}
}

type datasetResponse struct {
	Teams    int                   `json:"teams"`
	LoadedAt *time.Time            `json:"loadedAt,omitempty"`
	Sources  []rating.SourceStatus `json:"sources"`
}

func newDatasetResponse(ds *rating.Dataset) datasetResponse {
	src := ds.Sources()
	if src == nil {
		src = []rating.SourceStatus{}
	}
	return datasetResponse{Teams: ds.Len(), LoadedAt: timestamp(ds.LoadedAt()), Sources: src}
}

// HandleStatus handles GET /dataset.
func (h *DatasetHandler) HandleStatus(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, newDatasetResponse(h.datasets.Dataset()))
}

// HandleRefresh handles POST /dataset/refresh. On failure the previous
// dataset stays active and the error is returned.
func (h *DatasetHandler) HandleRefresh(w http.ResponseWriter, r *http.Request) {
	ds, err := h.datasets.Refresh(r.Context())
	if err != nil {
		h.logger.Warn(r.Context(), "manual refresh failed", logger.Error(err))
		writeFailure(w, Wrap("refresh dataset", err))
		return
	}
	writeJSON(w, http.StatusOK, newDatasetResponse(ds))
}
