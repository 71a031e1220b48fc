package api

import (
	"context"
	"net/http"

	"github.com/okian/festboard/internal/domain/model"
)

// CandidateDependencies defines the interface for candidate operations.
type CandidateDependencies interface {
	SearchCandidates(ctx context.Context, term string) ([]model.Candidate, error)
	Achievements(ctx context.Context, candidateID string) (model.AchievementsView, error)
}

// CandidateHandler handles candidate search and achievement requests.
type CandidateHandler struct {
	deps CandidateDependencies
}

// NewCandidateHandler creates a new candidate handler.
func NewCandidateHandler(deps CandidateDependencies) *CandidateHandler {
	return &CandidateHandler{deps: deps}
}

// HandleSearch handles GET /candidates/search?term= requests. A blank term is
// rejected with 400 and never reaches the festival API.
func (h *CandidateHandler) HandleSearch(w http.ResponseWriter, r *http.Request) {
	found, err := h.deps.SearchCandidates(r.Context(), r.URL.Query().Get("term"))
	respond(w, "candidate_search", found, err)
}

// HandleGetAchievements handles GET /candidates/{id}/results requests.
func (h *CandidateHandler) HandleGetAchievements(w http.ResponseWriter, r *http.Request) {
	view, err := h.deps.Achievements(r.Context(), r.PathValue("id"))
	respond(w, "candidate_achievements", view, err)
}
