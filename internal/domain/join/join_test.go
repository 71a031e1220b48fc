package join

import (
	"testing"

	"github.com/okian/festboard/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

func TestIndex(t *testing.T) {
	Convey("Given candidates with a duplicate and an empty id", t, func() {
		idx := CandidatesByID([]model.Candidate{
			{ID: "c1", Name: "first"},
			{ID: "c2", Name: "second"},
			{ID: "c1", Name: "shadow"},
			{ID: "", Name: "anonymous"},
		})

		Convey("Then the first record wins and empty ids are skipped", func() {
			So(idx.Len(), ShouldEqual, 2)
			c, ok := idx.Lookup("c1")
			So(ok, ShouldBeTrue)
			So(c.Name, ShouldEqual, "first")
			_, ok = idx.Lookup("")
			So(ok, ShouldBeFalse)
		})

		Convey("Then a miss is reported explicitly", func() {
			c, ok := idx.Lookup("nobody")
			So(ok, ShouldBeFalse)
			So(c, ShouldResemble, model.Candidate{})
		})
	})

	Convey("Given a nil index", t, func() {
		var idx *Index[string, model.Candidate]

		Convey("Then lookups miss instead of panicking", func() {
			_, ok := idx.Lookup("c1")
			So(ok, ShouldBeFalse)
			So(idx.Len(), ShouldEqual, 0)
		})
	})
}

func TestResolveCandidates(t *testing.T) {
	Convey("Given results referencing known, unknown and embedded candidates", t, func() {
		idx := CandidatesByID([]model.Candidate{{ID: "c1", Name: "Amina"}})
		embedded := model.RefTo[model.Candidate]("c3").With(model.Candidate{ID: "c3", Name: "Embedded"})
		results := []model.Result{
			{ID: "r1", Candidate: model.RefTo[model.Candidate]("c1")},
			{ID: "r2", Candidate: model.RefTo[model.Candidate]("ghost")},
			{ID: "r3", Candidate: embedded},
		}

		Convey("When resolving", func() {
			resolved, missing := ResolveCandidates(results, idx)

			Convey("Then known ids are replaced by records", func() {
				c, ok := resolved[0].Candidate.Resolved()
				So(ok, ShouldBeTrue)
				So(c.Name, ShouldEqual, "Amina")
			})

			Convey("And unknown ids stay as absent references", func() {
				_, ok := resolved[1].Candidate.Resolved()
				So(ok, ShouldBeFalse)
				So(resolved[1].Candidate.ID, ShouldEqual, "ghost")
				So(missing, ShouldResemble, []string{"ghost"})
			})

			Convey("And embedded records are kept", func() {
				c, _ := resolved[2].Candidate.Resolved()
				So(c.Name, ShouldEqual, "Embedded")
			})

			Convey("And the input results are not modified", func() {
				_, ok := results[0].Candidate.Resolved()
				So(ok, ShouldBeFalse)
			})
		})
	})
}

func TestFind(t *testing.T) {
	Convey("Given a list of results", t, func() {
		results := []model.Result{{ID: "a"}, {ID: "b"}}

		Convey("Then Find returns the match or reports a miss", func() {
			r, ok := Find(results, func(r model.Result) bool { return r.ID == "b" })
			So(ok, ShouldBeTrue)
			So(r.ID, ShouldEqual, "b")
			_, ok = Find(results, func(r model.Result) bool { return r.ID == "zzz" })
			So(ok, ShouldBeFalse)
		})
	})
}
