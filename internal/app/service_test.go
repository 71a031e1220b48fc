package service_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/go-cmp/cmp"
	. "github.com/smartystreets/goconvey/convey"

	"github.com/okian/festboard/internal/adapters/upstream"
	service "github.com/okian/festboard/internal/app"
	"github.com/okian/festboard/internal/domain/fanout"
	"github.com/okian/festboard/internal/domain/model"
	"github.com/okian/festboard/internal/domain/viewstate"
	"github.com/okian/festboard/internal/fakefest"
	"github.com/okian/festboard/pkg/metrics"
)

type harness struct {
	srv  *fakefest.Server
	api  *upstream.Client
	svc  *service.Service
	stop func()
}

func newHarness(opts ...service.Option) *harness {
	srv := fakefest.NewServer(fakefest.Fixture())
	ts := httptest.NewServer(srv)
	api, err := upstream.New(ts.URL+fakefest.Prefix, upstream.WithHTTPClient(ts.Client()))
	if err != nil {
		panic(err)
	}
	return &harness{srv: srv, api: api, svc: service.New(api, opts...), stop: ts.Close}
}

func resultIDs(results []model.Result) []string {
	ids := make([]string, len(results))
	for i, r := range results {
		ids[i] = r.ID
	}
	return ids
}

func TestService_Leaderboards(t *testing.T) {
	Convey("Given the festival API", t, func() {
		h := newHarness()
		defer h.stop()

		Convey("When the leaderboards are loaded", func() {
			view, err := h.svc.Leaderboards(context.Background())

			Convey("Then teams are ranked by points, highest first", func() {
				So(err, ShouldBeNil)
				So(view.Teams, ShouldHaveLength, 2)
				So(view.Teams[0].Entry.Name, ShouldEqual, "Blue House")
				So(view.Teams[0].Position, ShouldEqual, 1)
				So(view.Teams[1].Position, ShouldEqual, 2)
			})

			Convey("And ties keep the order the API sent", func() {
				names := []string{}
				for _, row := range view.Overall {
					names = append(names, row.Entry.Name)
				}
				So(cmp.Diff([]string{"Bilal Khan", "Chen Wei", "Asha Menon", "Dina Roy"}, names), ShouldBeEmpty)
			})

			Convey("And categories keep the order the API sent", func() {
				So(view.Categories[0].Category, ShouldEqual, "Literary")
				So(view.Categories[1].Category, ShouldEqual, "Stage")
			})
		})

		Convey("When the API fails with a message", func() {
			h.srv.Fail("/leaderboards", http.StatusInternalServerError, "Leaderboard is being recalculated")
			_, err := h.svc.Leaderboards(context.Background())

			Convey("Then the server message is shown", func() {
				reason, msg := service.Describe(err)
				So(reason, ShouldEqual, viewstate.ReasonUpstream)
				So(msg, ShouldEqual, "Leaderboard is being recalculated")
			})
		})

		Convey("When the API fails without a message", func() {
			h.srv.Fail("/leaderboards", http.StatusBadGateway, "")
			_, err := h.svc.Leaderboards(context.Background())

			Convey("Then the generic message is shown", func() {
				_, msg := service.Describe(err)
				So(msg, ShouldEqual, "Error fetching leaderboards. Please try again.")
				var oe *service.OpError
				So(errors.As(err, &oe), ShouldBeTrue)
				So(oe.Op, ShouldEqual, service.OpLeaderboards)
			})
		})
	})
}

// fanoutFailures reads the failed sub-request counter of operation.
func fanoutFailures(operation string) float64 {
	families, err := metrics.GetRegistry().Gather()
	if err != nil {
		panic(err)
	}
	for _, mf := range families {
		if mf.GetName() != "festboard_fanout_failures_total" {
			continue
		}
		for _, m := range mf.GetMetric() {
			for _, l := range m.GetLabel() {
				if l.GetName() == "operation" && l.GetValue() == operation {
					return m.GetCounter().GetValue()
				}
			}
		}
	}
	return 0
}

func TestService_Programmes(t *testing.T) {
	Convey("Given the festival API", t, func() {
		h := newHarness()
		defer h.stop()

		Convey("When the programme list is loaded", func() {
			entries, err := h.svc.Programmes(context.Background())
			So(err, ShouldBeNil)

			Convey("Then programmes are ordered by date with undated ones last", func() {
				ids := []string{}
				for _, e := range entries {
					ids = append(ids, e.ID)
				}
				So(cmp.Diff([]string{"p-elocution", "p-essay", "p-quiz", "p-poster"}, ids), ShouldBeEmpty)
			})

			Convey("And results are never requested for unpublished programmes", func() {
				So(h.srv.Hits("/programmes/p-quiz/results"), ShouldEqual, 0)
				So(h.srv.Hits("/programmes/p-poster/results"), ShouldEqual, 0)
				So(h.srv.Hits("/programmes/p-essay/results"), ShouldEqual, 1)
				So(entries[2].Pending, ShouldBeTrue)
				So(entries[2].Winners, ShouldBeNil)
			})

			Convey("And winners are the podium in rank order joined with candidates", func() {
				essay := entries[1]
				So(resultIDs(essay.Winners), ShouldResemble, []string{"r2", "r1"})
				c, ok := essay.Winners[0].Candidate.Resolved()
				So(ok, ShouldBeTrue)
				So(c.Name, ShouldEqual, "Bilal Khan")
			})

			Convey("And an unknown winner stays unresolved", func() {
				elocution := entries[0]
				So(resultIDs(elocution.Winners), ShouldResemble, []string{"r5", "r6", "r7"})
				_, ok := elocution.Winners[1].Candidate.Resolved()
				So(ok, ShouldBeFalse)
				So(elocution.Winners[1].Candidate.ID, ShouldEqual, "c-ghost")
			})
		})

		Convey("When one programme's results fail under fail-fast", func() {
			h.srv.Fail("/programmes/p-essay/results", http.StatusInternalServerError, "")
			_, err := h.svc.Programmes(context.Background())

			Convey("Then the whole page fails with one message", func() {
				So(errors.Is(err, upstream.ErrStatus), ShouldBeTrue)
				_, msg := service.Describe(err)
				So(msg, ShouldEqual, "Failed to load programmes and results.")
			})
		})

		Convey("When the candidate list fails", func() {
			h.srv.Fail("/candidates", http.StatusServiceUnavailable, "")
			_, err := h.svc.Programmes(context.Background())
			So(errors.Is(err, upstream.ErrStatus), ShouldBeTrue)
		})
	})

	Convey("Given a collect-all service", t, func() {
		h := newHarness(service.WithFanoutPolicy(fanout.CollectAll), service.WithFanoutLimit(1))
		defer h.stop()

		Convey("When one programme's results fail", func() {
			h.srv.Fail("/programmes/p-essay/results", http.StatusInternalServerError, "")
			before := fanoutFailures(string(service.OpProgrammes))
			entries, err := h.svc.Programmes(context.Background())

			Convey("Then only that programme is marked unavailable", func() {
				So(err, ShouldBeNil)
				So(entries[1].ID, ShouldEqual, "p-essay")
				So(entries[1].WinnersUnavailable, ShouldBeTrue)
				So(entries[0].WinnersUnavailable, ShouldBeFalse)
				So(entries[0].Winners, ShouldHaveLength, 3)
			})

			Convey("And exactly the failed slot is counted", func() {
				So(fanoutFailures(string(service.OpProgrammes))-before, ShouldEqual, 1)
			})
		})
	})
}

func TestService_ProgrammeResults(t *testing.T) {
	Convey("Given the festival API", t, func() {
		h := newHarness()
		defer h.stop()
		ctx := context.Background()

		Convey("When a programme's results are loaded", func() {
			view, err := h.svc.ProgrammeResults(ctx, "p-essay")
			So(err, ShouldBeNil)

			Convey("Then ranked results come first by rank and unranked keep their order", func() {
				So(view.Programme.Name, ShouldEqual, "Essay Writing")
				So(resultIDs(view.Results), ShouldResemble, []string{"r2", "r1", "r3", "r4"})
			})

			Convey("And standings skip results with neither rank nor grade", func() {
				So(resultIDs(view.Standings()), ShouldResemble, []string{"r2", "r1", "r3"})
			})

			Convey("And every candidate was fetched once", func() {
				So(h.srv.Hits("/candidates/c-asha"), ShouldEqual, 1)
				So(h.srv.Hits("/candidates/c-dina"), ShouldEqual, 1)
				c, ok := view.Results[0].Candidate.Resolved()
				So(ok, ShouldBeTrue)
				So(c.Name, ShouldEqual, "Bilal Khan")
			})
		})

		Convey("When a result points at an unknown candidate", func() {
			view, err := h.svc.ProgrammeResults(ctx, "p-elocution")

			Convey("Then the result is kept with an absent candidate", func() {
				So(err, ShouldBeNil)
				So(resultIDs(view.Results), ShouldResemble, []string{"r5", "r6", "r7"})
				_, ok := view.Results[1].Candidate.Resolved()
				So(ok, ShouldBeFalse)
			})
		})

		Convey("When a candidate fetch fails", func() {
			h.srv.Fail("/candidates/c-chen", http.StatusInternalServerError, "")
			_, err := h.svc.ProgrammeResults(ctx, "p-essay")

			Convey("Then the page fails", func() {
				_, msg := service.Describe(err)
				So(msg, ShouldEqual, "Failed to load results.")
			})
		})

		Convey("When the programme does not exist", func() {
			_, err := h.svc.ProgrammeResults(ctx, "p-nope")
			So(errors.Is(err, service.ErrNotFound), ShouldBeTrue)
		})

		Convey("When the id is blank", func() {
			_, err := h.svc.ProgrammeResults(ctx, "  ")
			So(errors.Is(err, service.ErrInvalidID), ShouldBeTrue)
			So(h.srv.TotalHits(), ShouldEqual, 0)
		})
	})
}

func TestService_SearchCandidates(t *testing.T) {
	Convey("Given the festival API", t, func() {
		h := newHarness()
		defer h.stop()
		ctx := context.Background()

		Convey("When searching with a blank term", func() {
			_, err := h.svc.SearchCandidates(ctx, "   ")

			Convey("Then no request is made", func() {
				So(errors.Is(err, service.ErrEmptyTerm), ShouldBeTrue)
				So(h.srv.TotalHits(), ShouldEqual, 0)
				reason, _ := service.Describe(err)
				So(reason, ShouldEqual, viewstate.ReasonInvalidInput)
			})
		})

		Convey("When nobody matches", func() {
			found, err := h.svc.SearchCandidates(ctx, "john")

			Convey("Then the result is an empty list, not an error", func() {
				So(err, ShouldBeNil)
				So(found, ShouldNotBeNil)
				So(found, ShouldBeEmpty)
			})
		})

		Convey("When the term has surrounding spaces", func() {
			found, err := h.svc.SearchCandidates(ctx, "  dina ")
			So(err, ShouldBeNil)
			So(found, ShouldHaveLength, 1)
		})
	})
}

func TestService_Achievements(t *testing.T) {
	Convey("Given the festival API", t, func() {
		h := newHarness()
		defer h.stop()
		ctx := context.Background()

		Convey("When a candidate's achievements are loaded", func() {
			view, err := h.svc.Achievements(ctx, "c-chen")

			Convey("Then each result links to its certificate", func() {
				So(err, ShouldBeNil)
				So(view.CandidateID, ShouldEqual, "c-chen")
				So(view.Achievements, ShouldHaveLength, 2)
				So(view.Achievements[0].CertificatePath, ShouldEqual, "/programmes/p-essay/results/r3/certificate")
				p, ok := view.Achievements[0].Programme.Resolved()
				So(ok, ShouldBeTrue)
				So(p.Name, ShouldEqual, "Essay Writing")
			})
		})

		Convey("When the only result has neither rank nor grade", func() {
			view, err := h.svc.Achievements(ctx, "c-dina")
			So(err, ShouldBeNil)
			So(view.Achievements, ShouldBeEmpty)
		})
	})
}

func TestService_Certificate(t *testing.T) {
	Convey("Given the festival API", t, func() {
		h := newHarness()
		defer h.stop()
		ctx := context.Background()

		Convey("When a certificate is resolved", func() {
			cert, err := h.svc.Certificate(ctx, "p-essay", "r1")

			Convey("Then it joins result, candidate and programme", func() {
				So(err, ShouldBeNil)
				So(cert.Result.ID, ShouldEqual, "r1")
				So(cert.Candidate.Name, ShouldEqual, "Asha Menon")
				So(cert.Programme.Name, ShouldEqual, "Essay Writing")
				So(cert.DownloadURL, ShouldEqual, h.api.BaseURL()+"/programmes/p-essay/results/r1/certificate")
			})
		})

		Convey("When the result id is not in the programme", func() {
			_, err := h.svc.Certificate(ctx, "p-essay", "zzz")

			Convey("Then it is not found rather than a network failure", func() {
				So(errors.Is(err, service.ErrNotFound), ShouldBeTrue)
				So(errors.Is(err, upstream.ErrTransport), ShouldBeFalse)
				reason, msg := service.Describe(err)
				So(reason, ShouldEqual, viewstate.ReasonNotFound)
				So(msg, ShouldEqual, "Certificate data not found.")
				So(h.srv.Hits("/programmes/p-essay"), ShouldEqual, 0)
			})
		})

		Convey("When the results cannot be fetched", func() {
			h.srv.Fail("/programmes/p-essay/results", http.StatusInternalServerError, "")
			_, err := h.svc.Certificate(ctx, "p-essay", "r1")

			Convey("Then it is an upstream failure", func() {
				reason, msg := service.Describe(err)
				So(reason, ShouldEqual, viewstate.ReasonUpstream)
				So(msg, ShouldEqual, "Failed to load certificate data.")
			})
		})

		Convey("When the candidate of the result is unknown", func() {
			_, err := h.svc.Certificate(ctx, "p-elocution", "r6")
			So(errors.Is(err, service.ErrNotFound), ShouldBeTrue)
		})
	})
}

func TestService_GetStats(t *testing.T) {
	Convey("Given a service that ran operations", t, func() {
		h := newHarness(service.WithFanoutLimit(3))
		defer h.stop()
		_, _ = h.svc.Leaderboards(context.Background())
		_, _ = h.svc.Certificate(context.Background(), "p-essay", "zzz")

		stats := h.svc.GetStats()

		Convey("Then runs and failures are counted per operation", func() {
			So(stats["fanoutPolicy"], ShouldEqual, "fail_fast")
			So(stats["fanoutLimit"], ShouldEqual, 3)
			ops := stats["operations"].(map[string]interface{})
			lb := ops["leaderboards"].(map[string]interface{})
			So(lb["runs"], ShouldEqual, int64(1))
			So(lb["failures"], ShouldEqual, int64(0))
			cert := ops["certificate"].(map[string]interface{})
			So(cert["failures"], ShouldEqual, int64(1))
		})
	})
}
