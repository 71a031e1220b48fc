package api

import (
	"context"
	"net/http"

	"github.com/okian/festboard/internal/domain/model"
)

// ProgrammeDependencies defines the interface for programme operations.
type ProgrammeDependencies interface {
	Programmes(ctx context.Context) ([]model.ProgrammeEntry, error)
	ProgrammeResults(ctx context.Context, programmeID string) (model.ResultsView, error)
}

// ProgrammeHandler handles programme list and result sheet requests.
type ProgrammeHandler struct {
	deps ProgrammeDependencies
}

// NewProgrammeHandler creates a new programme handler.
func NewProgrammeHandler(deps ProgrammeDependencies) *ProgrammeHandler {
	return &ProgrammeHandler{deps: deps}
}

// HandleListProgrammes handles GET /programmes requests.
func (h *ProgrammeHandler) HandleListProgrammes(w http.ResponseWriter, r *http.Request) {
	entries, err := h.deps.Programmes(r.Context())
	respond(w, "programmes", entries, err)
}

// HandleGetResults handles GET /programmes/{id}/results requests.
func (h *ProgrammeHandler) HandleGetResults(w http.ResponseWriter, r *http.Request) {
	view, err := h.deps.ProgrammeResults(r.Context(), r.PathValue("id"))
	var body resultsResponse
	if err == nil {
		body = resultsResponse{ResultsView: view, Standings: view.Standings()}
	}
	respond(w, "programme_results", body, err)
}
