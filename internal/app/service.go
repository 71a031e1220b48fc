// Package service provides the aggregation layer that joins the festival API
// resources into the views served by the HTTP API and the CLI.
package service

import (
	"context"
	"net/url"
	"strings"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/okian/festboard/internal/domain/fanout"
	"github.com/okian/festboard/internal/domain/join"
	"github.com/okian/festboard/internal/domain/model"
	"github.com/okian/festboard/internal/domain/ranking"
	"github.com/okian/festboard/internal/domain/viewstate"
	"github.com/okian/festboard/pkg/logger"
	"github.com/okian/festboard/pkg/metrics"
	"github.com/okian/festboard/pkg/tracing"
)

// Upstream is the festival API as seen by the service.
type Upstream interface {
	Leaderboards(ctx context.Context) (model.Leaderboards, error)
	Programmes(ctx context.Context) ([]model.Programme, error)
	Programme(ctx context.Context, id string) (model.Programme, error)
	ProgrammeResults(ctx context.Context, id string) ([]model.Result, error)
	Candidates(ctx context.Context) ([]model.Candidate, error)
	Candidate(ctx context.Context, id string) (model.Candidate, error)
	SearchCandidates(ctx context.Context, term string) ([]model.Candidate, error)
	CandidateResults(ctx context.Context, id string) ([]model.Result, error)
	CertificateURL(programmeID, resultID string) string
}

type opStats struct {
	runs     int64
	failures int64
	lastMs   float64
}

// Service implements the aggregation operations. Every call fetches fresh
// data; nothing is cached between calls.
type Service struct {
	api Upstream

	// Configuration
	policy fanout.Policy
	limit  int

	logger logger.Logger
	tracer trace.Tracer

	mu    sync.Mutex
	stats map[Operation]*opStats
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithFanoutPolicy sets how per-item fan-outs react to a failed sub-request.
// The paired fetches every operation starts with always fail fast.
func WithFanoutPolicy(p fanout.Policy) Option {
	return func(s *Service) {
		s.policy = p
	}
}

// WithFanoutLimit caps concurrent sub-requests per fan-out. Zero means unbounded.
func WithFanoutLimit(n int) Option {
	return func(s *Service) {
		if n >= 0 {
			s.limit = n
		}
	}
}

// WithTracer sets the tracer used for operation spans.
func WithTracer(t trace.Tracer) Option {
	return func(s *Service) {
		if t != nil {
			s.tracer = t
		}
	}
}

// New constructs a Service over api.
func New(api Upstream, opts ...Option) *Service {
	s := &Service{
		api:    api,
		policy: fanout.FailFast,
		logger: logger.Nop(),
		tracer: tracing.Tracer(),
		stats:  make(map[Operation]*opStats, len(Operations)),
	}
	for _, op := range Operations {
		s.stats[op] = &opStats{}
	}

	// Apply all options
	for _, opt := range opts {
		opt(s)
	}

	return s
}

// observe runs one operation with a span, metrics, logs and stats around it.
func (s *Service) observe(ctx context.Context, op Operation, fn func(ctx context.Context) error, attrs ...attribute.KeyValue) error {
	ctx, span := s.tracer.Start(ctx, "festboard."+string(op), trace.WithAttributes(attrs...))
	defer span.End()

	metrics.IncAggregationsInFlight(string(op))
	defer metrics.DecAggregationsInFlight(string(op))

	start := time.Now()
	s.logger.Debug(ctx, "aggregation started", logger.String("op", string(op)))

	err := wrap(op, fn(ctx))
	latency := float64(time.Since(start).Microseconds()) / 1000

	outcome := string(viewstate.StatusLoaded)
	if err != nil {
		reason, msg := Describe(err)
		outcome = string(reason)
		span.RecordError(err)
		span.SetStatus(codes.Error, msg)
		metrics.RecordErrorByComponent("service", outcome)
		metrics.RecordErrorLatency("service", outcome, latency)
		s.logger.Warn(ctx, "aggregation failed",
			logger.String("op", string(op)),
			logger.String("reason", outcome),
			logger.Float64("latency_ms", latency),
			logger.Error(err))
	} else {
		s.logger.Debug(ctx, "aggregation finished",
			logger.String("op", string(op)),
			logger.Float64("latency_ms", latency))
	}
	metrics.RecordAggregation(string(op), outcome, latency)
	s.record(op, err, latency)
	return err
}

func (s *Service) record(op Operation, err error, latencyMs float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	st, ok := s.stats[op]
	if !ok {
		st = &opStats{}
		s.stats[op] = st
	}
	st.runs++
	if err != nil {
		st.failures++
	}
	st.lastMs = latencyMs
}

func (s *Service) fanoutOpts() []fanout.Option {
	return []fanout.Option{fanout.WithPolicy(s.policy), fanout.WithLimit(s.limit)}
}

// Leaderboards fetches the leaderboard snapshot and orders every list by
// points, highest first.
func (s *Service) Leaderboards(ctx context.Context) (model.LeaderboardView, error) {
	var view model.LeaderboardView
	err := s.observe(ctx, OpLeaderboards, func(ctx context.Context) error {
		raw, err := s.api.Leaderboards(ctx)
		if err != nil {
			return err
		}
		view = ranking.Leaderboard(raw)
		return nil
	})
	return view, err
}

// Programmes lists programmes by date with the podium of every published one.
// Results are requested for published programmes only.
func (s *Service) Programmes(ctx context.Context) ([]model.ProgrammeEntry, error) {
	var entries []model.ProgrammeEntry
	err := s.observe(ctx, OpProgrammes, func(ctx context.Context) error {
		var (
			programmes []model.Programme
			candidates []model.Candidate
		)
		err := fanout.Pair(ctx,
			func(ctx context.Context) (err error) { programmes, err = s.api.Programmes(ctx); return err },
			func(ctx context.Context) (err error) { candidates, err = s.api.Candidates(ctx); return err },
		)
		if err != nil {
			return err
		}

		programmes = ranking.ByDate(programmes)
		idx := join.CandidatesByID(candidates)

		var published []int
		for i, p := range programmes {
			if p.Published {
				published = append(published, i)
			}
		}

		outcomes, err := fanout.Run(ctx, len(published), func(ctx context.Context, i int) ([]model.Result, error) {
			return s.api.ProgrammeResults(ctx, programmes[published[i]].ID)
		}, s.fanoutOpts()...)
		metrics.RecordFanout(string(OpProgrammes), len(published), fanout.Failed(outcomes))
		if err != nil {
			return err
		}

		entries = make([]model.ProgrammeEntry, len(programmes))
		for i, p := range programmes {
			entries[i] = model.ProgrammeEntry{Programme: p, Pending: !p.Published}
		}
		missing := 0
		for slot, i := range published {
			o := outcomes[slot]
			if o.Err != nil {
				entries[i].WinnersUnavailable = true
				s.logger.Warn(ctx, "programme results unavailable",
					logger.String("programme", programmes[i].ID),
					logger.Error(o.Err))
				continue
			}
			winners, absent := join.ResolveCandidates(ranking.Winners(o.Value), idx)
			entries[i].Winners = winners
			missing += len(absent)
		}
		metrics.RecordMissingReferences(string(OpProgrammes), missing)
		return nil
	})
	return entries, err
}

// ProgrammeResults returns one programme with all of its results, ranked
// results first by ascending rank and unranked ones after them. Each result's
// candidate is fetched on its own; an unknown candidate stays unresolved.
func (s *Service) ProgrammeResults(ctx context.Context, programmeID string) (model.ResultsView, error) {
	var view model.ResultsView
	programmeID = strings.TrimSpace(programmeID)
	err := s.observe(ctx, OpProgrammeResults, func(ctx context.Context) error {
		if programmeID == "" {
			return ErrInvalidID
		}

		var (
			programme model.Programme
			results   []model.Result
		)
		err := fanout.Pair(ctx,
			func(ctx context.Context) (err error) { programme, err = s.api.Programme(ctx, programmeID); return err },
			func(ctx context.Context) (err error) {
				results, err = s.api.ProgrammeResults(ctx, programmeID)
				return err
			},
		)
		if err != nil {
			if isMissing(err) {
				return ErrNotFound
			}
			return err
		}

		outcomes, err := fanout.Run(ctx, len(results), func(ctx context.Context, i int) (*model.Candidate, error) {
			ref := results[i].Candidate
			if ref.Value != nil || ref.ID == "" {
				return ref.Value, nil
			}
			c, err := s.api.Candidate(ctx, ref.ID)
			if err != nil {
				if isMissing(err) {
					return nil, nil
				}
				return nil, err
			}
			return &c, nil
		}, s.fanoutOpts()...)
		metrics.RecordFanout(string(OpProgrammeResults), len(results), fanout.Failed(outcomes))
		if err != nil {
			return err
		}

		joined := make([]model.Result, len(results))
		missing := 0
		for i, r := range results {
			joined[i] = r
			if c := outcomes[i].Value; c != nil {
				joined[i].Candidate = r.Candidate.With(*c)
			} else if r.Candidate.ID != "" {
				missing++
			}
		}
		metrics.RecordMissingReferences(string(OpProgrammeResults), missing)

		view = model.ResultsView{Programme: programme, Results: ranking.ByRank(joined)}
		return nil
	}, attribute.String("programme.id", programmeID))
	return view, err
}

// SearchCandidates asks the API for candidates matching term. A blank term
// fails with ErrEmptyTerm without any request. No match is an empty list.
func (s *Service) SearchCandidates(ctx context.Context, term string) ([]model.Candidate, error) {
	term = strings.TrimSpace(term)
	if term == "" {
		return nil, wrap(OpCandidateSearch, ErrEmptyTerm)
	}

	var found []model.Candidate
	err := s.observe(ctx, OpCandidateSearch, func(ctx context.Context) error {
		var err error
		found, err = s.api.SearchCandidates(ctx, term)
		if found == nil {
			found = []model.Candidate{}
		}
		return err
	})
	return found, err
}

// CertificatePath is the deep link of a result's certificate page.
func CertificatePath(programmeID, resultID string) string {
	return "/programmes/" + url.PathEscape(programmeID) + "/results/" + url.PathEscape(resultID) + "/certificate"
}

// Achievements returns a candidate's placed or graded results, each with a
// link to its certificate page.
func (s *Service) Achievements(ctx context.Context, candidateID string) (model.AchievementsView, error) {
	candidateID = strings.TrimSpace(candidateID)
	view := model.AchievementsView{CandidateID: candidateID, Achievements: []model.Achievement{}}
	err := s.observe(ctx, OpCandidateAchievements, func(ctx context.Context) error {
		if candidateID == "" {
			return ErrInvalidID
		}
		results, err := s.api.CandidateResults(ctx, candidateID)
		if err != nil {
			if isMissing(err) {
				return ErrNotFound
			}
			return err
		}
		for _, r := range ranking.Achievements(results) {
			a := model.Achievement{Result: r}
			if r.Programme.ID != "" && r.ID != "" {
				a.CertificatePath = CertificatePath(r.Programme.ID, r.ID)
			}
			view.Achievements = append(view.Achievements, a)
		}
		return nil
	}, attribute.String("candidate.id", candidateID))
	return view, err
}

// Certificate locates a result inside its programme and joins it with the
// candidate and programme records. A result id absent from the programme
// fails with ErrNotFound, not with an upstream error.
func (s *Service) Certificate(ctx context.Context, programmeID, resultID string) (model.Certificate, error) {
	programmeID, resultID = strings.TrimSpace(programmeID), strings.TrimSpace(resultID)
	var cert model.Certificate
	err := s.observe(ctx, OpCertificate, func(ctx context.Context) error {
		if programmeID == "" || resultID == "" {
			return ErrInvalidID
		}

		results, err := s.api.ProgrammeResults(ctx, programmeID)
		if err != nil {
			if isMissing(err) {
				return ErrNotFound
			}
			return err
		}
		result, ok := join.Find(results, func(r model.Result) bool { return r.ID == resultID })
		if !ok || result.Candidate.ID == "" {
			return ErrNotFound
		}

		var (
			candidate model.Candidate
			programme model.Programme
		)
		err = fanout.Pair(ctx,
			func(ctx context.Context) (err error) {
				candidate, err = s.api.Candidate(ctx, result.Candidate.ID)
				return err
			},
			func(ctx context.Context) (err error) { programme, err = s.api.Programme(ctx, programmeID); return err },
		)
		if err != nil {
			if isMissing(err) {
				return ErrNotFound
			}
			return err
		}

		result.Candidate = result.Candidate.With(candidate)
		cert = model.Certificate{
			Result:      result,
			Candidate:   candidate,
			Programme:   programme,
			DownloadURL: s.api.CertificateURL(programmeID, resultID),
		}
		return nil
	}, attribute.String("programme.id", programmeID), attribute.String("result.id", resultID))
	return cert, err
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]interface{} {
	s.mu.Lock()
	defer s.mu.Unlock()

	ops := make(map[string]interface{}, len(s.stats))
	for op, st := range s.stats {
		ops[string(op)] = map[string]interface{}{
			"runs":          st.runs,
			"failures":      st.failures,
			"lastLatencyMs": st.lastMs,
		}
	}
	return map[string]interface{}{
		"fanoutPolicy": s.policy.String(),
		"fanoutLimit":  s.limit,
		"operations":   ops,
	}
}
