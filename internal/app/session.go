package service

import (
	"context"
	"strings"
	"sync"

	"github.com/okian/festboard/internal/domain/model"
	"github.com/okian/festboard/internal/domain/viewstate"
	"github.com/okian/festboard/pkg/metrics"
)

// SearchSession is the candidate search page: a result list, an optional
// selected candidate and that candidate's achievements.
type SearchSession struct {
	svc *Service

	results      *viewstate.Page[[]model.Candidate]
	achievements *viewstate.Page[model.AchievementsView]

	mu       sync.Mutex
	term     string
	selected *model.Candidate
}

// NewSearchSession returns an idle search page backed by svc.
func NewSearchSession(svc *Service) *SearchSession {
	return &SearchSession{
		svc:          svc,
		results:      viewstate.NewPage[[]model.Candidate](Describe),
		achievements: viewstate.NewPage[model.AchievementsView](Describe),
	}
}

// Search runs a new search. A blank term changes nothing and sends no
// request. Any other term clears the current selection first.
func (s *SearchSession) Search(ctx context.Context, term string) viewstate.State[[]model.Candidate] {
	term = strings.TrimSpace(term)
	if term == "" {
		return s.results.State()
	}

	s.mu.Lock()
	s.term = term
	s.selected = nil
	s.mu.Unlock()
	s.achievements.Leave()

	st := s.results.Load(ctx, func(ctx context.Context) ([]model.Candidate, error) {
		return s.svc.SearchCandidates(ctx, term)
	})
	metrics.RecordViewState("candidate_search", string(st.Status()))
	return st
}

// Select shows the achievements of c. Achievements of an earlier selection
// still loading are discarded.
func (s *SearchSession) Select(ctx context.Context, c model.Candidate) viewstate.State[model.AchievementsView] {
	s.mu.Lock()
	s.selected = &c
	s.mu.Unlock()

	st := s.achievements.Load(ctx, func(ctx context.Context) (model.AchievementsView, error) {
		return s.svc.Achievements(ctx, c.ID)
	})
	metrics.RecordViewState("candidate_achievements", string(st.Status()))
	return st
}

// Back returns to the result list, dropping the selection and any
// achievements still loading.
func (s *SearchSession) Back() {
	s.mu.Lock()
	s.selected = nil
	s.mu.Unlock()
	s.achievements.Leave()
}

// Retry re-runs the failed part of the page: the achievements when a
// candidate is selected, the search otherwise.
func (s *SearchSession) Retry(ctx context.Context) {
	if _, ok := s.Selected(); ok {
		s.achievements.Retry(ctx)
		return
	}
	s.results.Retry(ctx)
}

// Term returns the last searched term.
func (s *SearchSession) Term() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.term
}

// Selected returns the selected candidate.
func (s *SearchSession) Selected() (model.Candidate, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.selected == nil {
		return model.Candidate{}, false
	}
	return *s.selected, true
}

// Results returns the state of the result list.
func (s *SearchSession) Results() viewstate.State[[]model.Candidate] {
	return s.results.State()
}

// Achievements returns the state of the selected candidate's achievements.
func (s *SearchSession) Achievements() viewstate.State[model.AchievementsView] {
	return s.achievements.State()
}
