// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/okian/festboard/internal/domain/model"
	"github.com/okian/festboard/pkg/logger"
)

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to implementations in other packages.
type Dependencies interface {
	LeaderboardDependencies
	ProgrammeDependencies
	CandidateDependencies
	CertificateDependencies
}

// Server wires HTTP routes for the business API.
type Server struct {
	healthHandler      *HealthHandler
	statsHandler       *StatsHandler
	leaderboardHandler *LeaderboardHandler
	programmeHandler   *ProgrammeHandler
	candidateHandler   *CandidateHandler
	certificateHandler *CertificateHandler
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, statsProvider StatsProvider) *Server {
	return &Server{
		healthHandler:      NewHealthHandler(),
		statsHandler:       NewStatsHandler(statsProvider),
		leaderboardHandler: NewLeaderboardHandler(deps),
		programmeHandler:   NewProgrammeHandler(deps),
		candidateHandler:   NewCandidateHandler(deps),
		certificateHandler: NewCertificateHandler(deps),
	}
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(_ context.Context, mux *http.ServeMux) {
	mux.HandleFunc("GET /healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	mux.Handle("GET /metrics", MetricsHandler())
	mux.HandleFunc("GET /stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))

	mux.HandleFunc("GET /leaderboards", MetricsMiddleware(s.leaderboardHandler.HandleGetLeaderboards, "leaderboards"))
	mux.HandleFunc("GET /programmes", MetricsMiddleware(s.programmeHandler.HandleListProgrammes, "programmes"))
	mux.HandleFunc("GET /programmes/{id}/results", MetricsMiddleware(s.programmeHandler.HandleGetResults, "programme_results"))
	mux.HandleFunc("GET /programmes/{id}/results/{resultId}/certificate",
		MetricsMiddleware(s.certificateHandler.HandleGetCertificate, "certificate"))
	mux.HandleFunc("GET /programmes/{id}/results/{resultId}/certificate/download",
		MetricsMiddleware(s.certificateHandler.HandleDownloadCertificate, "certificate_download"))
	mux.HandleFunc("GET /candidates/search", MetricsMiddleware(s.candidateHandler.HandleSearch, "candidate_search"))
	mux.HandleFunc("GET /candidates/{id}/results", MetricsMiddleware(s.candidateHandler.HandleGetAchievements, "candidate_achievements"))
}

// resultsResponse adds the display standings to a programme result sheet.
type resultsResponse struct {
	model.ResultsView
	Standings []model.Result `json:"standings"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Get().Warn(context.Background(), "response write failed", logger.Error(err))
	}
}
