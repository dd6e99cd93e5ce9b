package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/okian/courtline/pkg/logger"
)

// TeamsHandler serves team listings and lookups.
type TeamsHandler struct {
	teams  TeamService
	logger logger.Logger
}

// NewTeamsHandler creates a new teams handler.
func NewTeamsHandler(teams TeamService, l logger.Logger) *TeamsHandler {
	return &TeamsHandler{teams: teams, logger: l}
}

type teamsResponse struct {
	Count int      `json:"count"`
	Teams []string `json:"teams"`
}

// HandleList handles GET /teams.
func (h *TeamsHandler) HandleList(w http.ResponseWriter, _ *http.Request) {
	names, err := h.teams.Teams()
	if err != nil {
		writeFailure(w, Wrap("list teams", err))
		return
	}
	writeJSON(w, http.StatusOK, teamsResponse{Count: len(names), Teams: names})
}

// HandleGet handles GET /teams/{query}; the query is resolved like a matchup name.
func (h *TeamsHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	query := chi.URLParam(r, "query")
	view, err := h.teams.Team(query)
	if err != nil {
		h.logger.Debug(r.Context(), "team lookup failed", logger.String("query", query), logger.Error(err))
		writeFailure(w, Wrap("team "+query, err))
		return
	}
	writeJSON(w, http.StatusOK, view)
}
