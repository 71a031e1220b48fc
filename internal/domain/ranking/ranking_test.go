package ranking

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/okian/festboard/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

func rank(n int) *int { return &n }

func resultIDs(rs []model.Result) []string {
	ids := make([]string, len(rs))
	for i, r := range rs {
		ids[i] = r.ID
	}
	return ids
}

func TestByPointsDesc(t *testing.T) {
	Convey("Given teams in an arbitrary order", t, func() {
		teams := []model.Team{
			{ID: "a", TotalPoints: 10},
			{ID: "b", TotalPoints: 42},
			{ID: "c", TotalPoints: 10},
			{ID: "d", TotalPoints: 7},
		}

		Convey("When sorting by points", func() {
			sorted := ByPointsDesc(teams, teamPoints)

			Convey("Then the order is descending with ties in fetch order", func() {
				var ids []string
				for _, tm := range sorted {
					ids = append(ids, tm.ID)
				}
				So(ids, ShouldResemble, []string{"b", "a", "c", "d"})
			})

			Convey("And the input is left untouched", func() {
				So(teams[0].ID, ShouldEqual, "a")
			})

			Convey("And sorting again yields the same list", func() {
				So(cmp.Diff(sorted, ByPointsDesc(sorted, teamPoints)), ShouldBeEmpty)
			})
		})
	})
}

func TestLeaderboard(t *testing.T) {
	Convey("Given an unsorted leaderboard payload", t, func() {
		raw := model.Leaderboards{
			Teams: []model.Team{{ID: "t1", TotalPoints: 5}, {ID: "t2", TotalPoints: 9}},
			Overall: []model.Candidate{
				{ID: "c1", TotalPoints: 3}, {ID: "c2", TotalPoints: 8}, {ID: "c3", TotalPoints: 8},
			},
			Categories: []model.CategoryBoard{
				{Category: "Senior", Candidates: []model.Candidate{{ID: "s1", TotalPoints: 1}, {ID: "s2", TotalPoints: 4}}},
				{Category: "Junior", Candidates: nil},
			},
		}

		Convey("When building the view", func() {
			view := Leaderboard(raw)

			Convey("Then every list is descending by points with positions", func() {
				So(view.Teams[0].Entry.ID, ShouldEqual, "t2")
				So(view.Teams[0].Position, ShouldEqual, 1)
				So(view.Teams[1].Position, ShouldEqual, 2)
				So(view.Overall[0].Entry.ID, ShouldEqual, "c2")
				So(view.Overall[1].Entry.ID, ShouldEqual, "c3")
				So(view.Overall[2].Entry.ID, ShouldEqual, "c1")
				So(view.Categories[0].Candidates[0].Entry.ID, ShouldEqual, "s2")
			})

			Convey("And categories keep their served order", func() {
				So(view.Categories[0].Category, ShouldEqual, "Senior")
				So(view.Categories[1].Category, ShouldEqual, "Junior")
				So(view.Categories[1].Candidates, ShouldBeEmpty)
			})
		})
	})
}

func TestByDate(t *testing.T) {
	Convey("Given programmes with and without dates", t, func() {
		at := func(h int) model.Timestamp {
			return model.Timestamp{Time: time.Date(2025, 2, 10, h, 0, 0, 0, time.UTC)}
		}
		programmes := []model.Programme{
			{ID: "late", Date: at(15)},
			{ID: "undated-1"},
			{ID: "early", Date: at(9)},
			{ID: "undated-2"},
			{ID: "mid", Date: at(12)},
		}

		Convey("Then they are ascending by date with undated ones last", func() {
			var ids []string
			for _, p := range ByDate(programmes) {
				ids = append(ids, p.ID)
			}
			So(ids, ShouldResemble, []string{"early", "mid", "late", "undated-1", "undated-2"})
		})
	})
}

func TestByRank(t *testing.T) {
	Convey("Given results mixing null ranks with rank 2 and rank 1", t, func() {
		results := []model.Result{
			{ID: "n1"},
			{ID: "r2", Rank: rank(2)},
			{ID: "n2", Grade: "A"},
			{ID: "r1", Rank: rank(1)},
			{ID: "n3"},
		}

		Convey("Then ranked results come first by rank and null ranks keep their order", func() {
			So(resultIDs(ByRank(results)), ShouldResemble, []string{"r1", "r2", "n1", "n2", "n3"})
		})
	})

	Convey("Given the two-result programme scenario", t, func() {
		results := []model.Result{
			{ID: "r1", Candidate: model.RefTo[model.Candidate]("c1"), Rank: rank(2)},
			{ID: "r2", Candidate: model.RefTo[model.Candidate]("c2"), Rank: rank(1)},
		}

		Convey("Then r2 is ordered before r1", func() {
			So(resultIDs(ByRank(results)), ShouldResemble, []string{"r2", "r1"})
		})
	})
}

func TestWinners(t *testing.T) {
	Convey("Given results with ranks inside and outside the podium", t, func() {
		results := []model.Result{
			{ID: "r4", Rank: rank(4)},
			{ID: "r3", Rank: rank(3)},
			{ID: "none"},
			{ID: "r1", Rank: rank(1)},
			{ID: "zero", Rank: rank(0)},
			{ID: "r2", Rank: rank(2)},
			{ID: "r1b", Rank: rank(1)},
		}

		Convey("Then winners are exactly ranks 1..3 ascending", func() {
			So(resultIDs(Winners(results)), ShouldResemble, []string{"r1", "r1b", "r2", "r3"})
		})
	})

	Convey("Given no placed results", t, func() {
		Convey("Then winners are empty but not nil", func() {
			w := Winners([]model.Result{{ID: "x"}})
			So(w, ShouldNotBeNil)
			So(w, ShouldBeEmpty)
		})
	})
}

func TestAchievements(t *testing.T) {
	Convey("Given a candidate's results", t, func() {
		results := []model.Result{
			{ID: "ranked", Rank: rank(2)},
			{ID: "empty"},
			{ID: "graded", Grade: "A"},
			{ID: "blank-grade", Grade: "  "},
		}

		Convey("Then only results with a rank or a grade remain", func() {
			So(resultIDs(Achievements(results)), ShouldResemble, []string{"ranked", "graded"})
		})
	})
}
