package fakefest

import (
	"encoding/json"
	"net/http"
	"strings"
	"sync"
	"time"
)

// Prefix is the path under which the server answers, matching the real API root.
const Prefix = "/api"

// Fault overrides the answer for one path.
type Fault struct {
	// Status, when non-zero, replaces the response with {"message": Message}.
	Status  int
	Message string
	// Delay holds the response back; a canceled request ends the wait.
	Delay time.Duration
}

// Server answers the festival API endpoints from a Dataset and counts hits per path.
type Server struct {
	data Dataset

	mu     sync.RWMutex
	faults map[string]Fault
	hits   map[string]int
	mux    *http.ServeMux
}

// NewServer returns a server backed by d.
func NewServer(d Dataset) *Server {
	s := &Server{
		data:   d,
		faults: map[string]Fault{},
		hits:   map[string]int{},
		mux:    http.NewServeMux(),
	}
	s.mux.HandleFunc("GET "+Prefix+"/leaderboards", s.leaderboards)
	s.mux.HandleFunc("GET "+Prefix+"/programmes", s.programmes)
	s.mux.HandleFunc("GET "+Prefix+"/programmes/{id}", s.programme)
	s.mux.HandleFunc("GET "+Prefix+"/programmes/{id}/results", s.programmeResults)
	s.mux.HandleFunc("GET "+Prefix+"/programmes/{id}/results/{resultId}/certificate", s.certificate)
	s.mux.HandleFunc("GET "+Prefix+"/candidates", s.candidates)
	s.mux.HandleFunc("GET "+Prefix+"/candidates/search", s.search)
	s.mux.HandleFunc("GET "+Prefix+"/candidates/{id}", s.candidate)
	s.mux.HandleFunc("GET "+Prefix+"/candidates/{id}/results", s.candidateResults)
	return s
}

// Fail makes path (without Prefix) answer with status and a message body.
func (s *Server) Fail(path string, status int, message string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	f := s.faults[path]
	f.Status, f.Message = status, message
	s.faults[path] = f
}

// Delay holds back answers for path (without Prefix) by d.
func (s *Server) Delay(path string, d time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	f := s.faults[path]
	f.Delay = d
	s.faults[path] = f
}

// Clear removes the faults set for path (without Prefix).
func (s *Server) Clear(path string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.faults, path)
}

// Hits returns how many requests reached path (without Prefix).
func (s *Server) Hits(path string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.hits[path]
}

// TotalHits returns the number of requests served.
func (s *Server) TotalHits() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n := 0
	for _, v := range s.hits {
		n += v
	}
	return n
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, Prefix)

	s.mu.Lock()
	s.hits[path]++
	fault, faulty := s.faults[path]
	s.mu.Unlock()

	if faulty && fault.Delay > 0 {
		select {
		case <-r.Context().Done():
			return
		case <-time.After(fault.Delay):
		}
	}
	if faulty && fault.Status != 0 {
		writeJSON(w, fault.Status, map[string]string{"message": fault.Message})
		return
	}
	s.mux.ServeHTTP(w, r)
}

// snapshot returns the dataset, which is fixed at construction.
func (s *Server) snapshot() Dataset {
	return s.data
}

func (s *Server) leaderboards(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.snapshot().Leaderboards())
}

func (s *Server) programmes(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.snapshot().Programmes)
}

func (s *Server) programme(w http.ResponseWriter, r *http.Request) {
	p, ok := s.snapshot().Programme(r.PathValue("id"))
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"message": "Programme not found"})
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (s *Server) programmeResults(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.snapshot().ProgrammeResults(r.PathValue("id")))
}

func (s *Server) certificate(w http.ResponseWriter, r *http.Request) {
	for _, res := range s.snapshot().ProgrammeResults(r.PathValue("id")) {
		if res.ID == r.PathValue("resultId") {
			w.Header().Set("Content-Type", "application/pdf")
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte("%PDF-1.4\n% certificate " + res.ID + "\n%%EOF\n"))
			return
		}
	}
	writeJSON(w, http.StatusNotFound, map[string]string{"message": "Result not found"})
}

func (s *Server) candidates(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.snapshot().Candidates)
}

func (s *Server) search(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.snapshot().Search(r.URL.Query().Get("term")))
}

func (s *Server) candidate(w http.ResponseWriter, r *http.Request) {
	c, ok := s.snapshot().Candidate(r.PathValue("id"))
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"message": "Candidate not found"})
		return
	}
	writeJSON(w, http.StatusOK, c)
}

func (s *Server) candidateResults(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.snapshot().CandidateResults(r.PathValue("id")))
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
