// Package ranking orders festival records for display.
//
// Every function returns a new slice and uses a stable sort, so records that
// tie keep the order in which the upstream API returned them.
package ranking

import (
	"cmp"
	"slices"

	"github.com/okian/festboard/internal/domain/model"
)

// PodiumSize is the number of ranks shown as winners.
const PodiumSize = 3

// ByPointsDesc returns items ordered by descending points.
func ByPointsDesc[T any](items []T, points func(T) float64) []T {
	out := slices.Clone(items)
	slices.SortStableFunc(out, func(a, b T) int {
		return cmp.Compare(points(b), points(a))
	})
	return out
}

// Positions numbers already ordered items from 1.
func Positions[T any](items []T) []model.Ranked[T] {
	out := make([]model.Ranked[T], len(items))
	for i, item := range items {
		out[i] = model.Ranked[T]{Position: i + 1, Entry: item}
	}
	return out
}

// Leaderboard re-sorts every list of the upstream leaderboard payload by
// descending total points. Category order is kept as served.
func Leaderboard(raw model.Leaderboards) model.LeaderboardView {
	view := model.LeaderboardView{
		Teams:      Positions(ByPointsDesc(raw.Teams, teamPoints)),
		Overall:    Positions(ByPointsDesc(raw.Overall, candidatePoints)),
		Categories: make([]model.CategoryView, 0, len(raw.Categories)),
	}
	for _, c := range raw.Categories {
		view.Categories = append(view.Categories, model.CategoryView{
			Category:   c.Category,
			Candidates: Positions(ByPointsDesc(c.Candidates, candidatePoints)),
		})
	}
	return view
}

func teamPoints(t model.Team) float64           { return t.TotalPoints }
func candidatePoints(c model.Candidate) float64 { return c.TotalPoints }

// ByDate orders programmes by ascending schedule time; undated ones go last.
func ByDate(programmes []model.Programme) []model.Programme {
	out := slices.Clone(programmes)
	slices.SortStableFunc(out, func(a, b model.Programme) int {
		switch az, bz := a.Date.IsZero(), b.Date.IsZero(); {
		case az && bz:
			return 0
		case az:
			return 1
		case bz:
			return -1
		}
		return a.Date.Compare(b.Date.Time)
	})
	return out
}

// ByRank orders results by ascending rank with unranked results last.
// Relative order inside each group is preserved.
func ByRank(results []model.Result) []model.Result {
	out := slices.Clone(results)
	slices.SortStableFunc(out, compareRank)
	return out
}

func compareRank(a, b model.Result) int {
	ar, aok := a.Placed()
	br, bok := b.Placed()
	switch {
	case aok && bok:
		return cmp.Compare(ar, br)
	case aok:
		return -1
	case bok:
		return 1
	default:
		return 0
	}
}

// Winners returns the podium results (rank 1 to PodiumSize) by ascending rank.
func Winners(results []model.Result) []model.Result {
	out := make([]model.Result, 0, PodiumSize)
	for _, r := range results {
		if rank, ok := r.Placed(); ok && rank <= PodiumSize {
			out = append(out, r)
		}
	}
	slices.SortStableFunc(out, compareRank)
	return out
}

// Achievements keeps the results that earned a rank or a grade.
func Achievements(results []model.Result) []model.Result {
	out := make([]model.Result, 0, len(results))
	for _, r := range results {
		if _, ok := r.Placed(); ok || r.HasGrade() {
			out = append(out, r)
		}
	}
	return out
}
