package api

import (
	"net/http"
	"time"
)

// HealthHandler handles health check requests.
type HealthHandler struct {
	datasets DatasetService
}

// NewHealthHandler creates a new health handler.
func NewHealthHandler(datasets DatasetService) *HealthHandler {
	return &HealthHandler{datasets: datasets}
}

type healthResponse struct {
	Status   string     `json:"status"`
	Teams    int        `json:"teams"`
	LoadedAt *time.Time `json:"loadedAt,omitempty"`
}

// HandleHealth handles GET /healthz. It answers 503 until a dataset is loaded
// so that orchestrators hold traffic during the first refresh.
func (h *HealthHandler) HandleHealth(w http.ResponseWriter, _ *http.Request) {
	ds := h.datasets.Dataset()
	if ds.Len() == 0 {
		writeJSON(w, http.StatusServiceUnavailable, healthResponse{Status: "loading"})
		return
	}
	writeJSON(w, http.StatusOK, healthResponse{
		Status:   "ok",
		Teams:    ds.Len(),
		LoadedAt: timestamp(ds.LoadedAt()),
	})
}
