// Package fakefest provides festival datasets and an HTTP server that answers
// like the festival REST API. It backs package tests and the festfake tool.
package fakefest

import (
	"slices"
	"strings"
	"time"

	"github.com/okian/festboard/internal/domain/model"
)

// Dataset is a normalized festival snapshot as the API stores it.
type Dataset struct {
	Teams      []model.Team
	Candidates []model.Candidate
	Programmes []model.Programme
	Results    []model.Result
}

func rank(n int) *int { return &n }

func date(s string) model.Timestamp {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		panic(err)
	}
	return model.Timestamp{Time: t}
}

// Fixture returns a small fixed dataset. It contains an unpublished and an
// undated programme, an unranked graded result, a result with neither rank nor
// grade, and a result whose candidate does not exist ("c-ghost").
func Fixture() Dataset {
	red := model.Team{ID: "t-red", Name: "Red House", TotalPoints: 40}
	blue := model.Team{ID: "t-blue", Name: "Blue House", TotalPoints: 55}

	return Dataset{
		Teams: []model.Team{red, blue},
		Candidates: []model.Candidate{
			{ID: "c-asha", Name: "Asha Menon", AdmissionNo: "1001", Team: model.RefTo[model.Team](red.ID).With(red), TotalPoints: 12},
			{ID: "c-bilal", Name: "Bilal Khan", AdmissionNo: "1002", Team: model.RefTo[model.Team](blue.ID).With(blue), TotalPoints: 20},
			{ID: "c-chen", Name: "Chen Wei", AdmissionNo: "1003", Team: model.RefTo[model.Team](blue.ID), TotalPoints: 20},
			{ID: "c-dina", Name: "Dina Roy", AdmissionNo: "1004", Team: model.RefTo[model.Team](red.ID).With(red), TotalPoints: 5},
		},
		Programmes: []model.Programme{
			{ID: "p-essay", Name: "Essay Writing", Type: "Literary", Date: date("2024-01-12T09:00:00Z"), Published: true},
			{ID: "p-elocution", Name: "Elocution", Type: "Stage", Date: date("2024-01-10T14:30:00Z"), Published: true},
			{ID: "p-quiz", Name: "Quiz", Type: "General", Date: date("2024-01-15T10:00:00Z"), Published: false},
			{ID: "p-poster", Name: "Poster Design", Type: "Art", Published: false},
		},
		Results: []model.Result{
			{ID: "r1", Programme: model.RefTo[model.ProgrammeSummary]("p-essay"), Candidate: model.RefTo[model.Candidate]("c-asha"), Rank: rank(2), Grade: "A"},
			{ID: "r2", Programme: model.RefTo[model.ProgrammeSummary]("p-essay"), Candidate: model.RefTo[model.Candidate]("c-bilal"), Rank: rank(1), Grade: "A"},
			{ID: "r3", Programme: model.RefTo[model.ProgrammeSummary]("p-essay"), Candidate: model.RefTo[model.Candidate]("c-chen"), Grade: "B"},
			{ID: "r4", Programme: model.RefTo[model.ProgrammeSummary]("p-essay"), Candidate: model.RefTo[model.Candidate]("c-dina")},
			{ID: "r5", Programme: model.RefTo[model.ProgrammeSummary]("p-elocution"), Candidate: model.RefTo[model.Candidate]("c-chen"), Rank: rank(1)},
			{ID: "r6", Programme: model.RefTo[model.ProgrammeSummary]("p-elocution"), Candidate: model.RefTo[model.Candidate]("c-ghost"), Rank: rank(2), Grade: "A"},
			{ID: "r7", Programme: model.RefTo[model.ProgrammeSummary]("p-elocution"), Candidate: model.RefTo[model.Candidate]("c-asha"), Rank: rank(3), Grade: "B"},
		},
	}
}

// Programme returns the programme with id.
func (d Dataset) Programme(id string) (model.Programme, bool) {
	i := slices.IndexFunc(d.Programmes, func(p model.Programme) bool { return p.ID == id })
	if i < 0 {
		return model.Programme{}, false
	}
	return d.Programmes[i], true
}

// Candidate returns the candidate with id.
func (d Dataset) Candidate(id string) (model.Candidate, bool) {
	i := slices.IndexFunc(d.Candidates, func(c model.Candidate) bool { return c.ID == id })
	if i < 0 {
		return model.Candidate{}, false
	}
	return d.Candidates[i], true
}

// ProgrammeResults returns the results of a programme with candidates as bare ids.
func (d Dataset) ProgrammeResults(id string) []model.Result {
	out := []model.Result{}
	for _, r := range d.Results {
		if r.Programme.ID == id {
			out = append(out, r)
		}
	}
	return out
}

// CandidateResults returns a candidate's results with the programme summary embedded.
func (d Dataset) CandidateResults(id string) []model.Result {
	out := []model.Result{}
	for _, r := range d.Results {
		if r.Candidate.ID != id {
			continue
		}
		if p, ok := d.Programme(r.Programme.ID); ok {
			r.Programme = r.Programme.With(model.ProgrammeSummary{ID: p.ID, Name: p.Name})
		}
		out = append(out, r)
	}
	return out
}

// Search matches term against candidate names and admission numbers, ignoring case.
func (d Dataset) Search(term string) []model.Candidate {
	term = strings.ToLower(strings.TrimSpace(term))
	out := []model.Candidate{}
	if term == "" {
		return out
	}
	for _, c := range d.Candidates {
		if strings.Contains(strings.ToLower(c.Name), term) || strings.Contains(strings.ToLower(string(c.AdmissionNo)), term) {
			out = append(out, c)
		}
	}
	return out
}

// Leaderboards builds the pre-aggregated payload. Lists are left in dataset
// order; the API does not promise any ordering.
func (d Dataset) Leaderboards() model.Leaderboards {
	lb := model.Leaderboards{
		Teams:      slices.Clone(d.Teams),
		Overall:    slices.Clone(d.Candidates),
		Categories: []model.CategoryBoard{},
	}

	byCategory := map[string][]string{}
	var order []string
	for _, r := range d.Results {
		p, ok := d.Programme(r.Programme.ID)
		if !ok || p.Type == "" {
			continue
		}
		if _, seen := byCategory[p.Type]; !seen {
			order = append(order, p.Type)
		}
		if !slices.Contains(byCategory[p.Type], r.Candidate.ID) {
			byCategory[p.Type] = append(byCategory[p.Type], r.Candidate.ID)
		}
	}
	for _, category := range order {
		board := model.CategoryBoard{Category: category, Candidates: []model.Candidate{}}
		for _, id := range byCategory[category] {
			if c, ok := d.Candidate(id); ok {
				board.Candidates = append(board.Candidates, c)
			}
		}
		lb.Categories = append(lb.Categories, board)
	}
	return lb
}
