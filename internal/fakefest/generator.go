package fakefest

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"time"

	"github.com/google/uuid"

	"github.com/okian/festboard/internal/domain/model"
)

// GenConfig sizes a generated dataset.
type GenConfig struct {
	Teams             int
	CandidatesPerTeam int
	Programmes        int
	// EntrantsPerProgramme is the number of results per programme.
	EntrantsPerProgramme int
	// PublishedRatio is the share of programmes with published results, 0..1.
	PublishedRatio float64
	// Start is the date of the first programme.
	Start time.Time
}

// Points awarded per placing.
var placePoints = map[int]float64{1: 5, 2: 3, 3: 1}

var (
	categories = []string{"Stage", "Literary", "Art", "General", "Sports"}
	grades     = []string{"A", "B", "C", ""}
)

// randomInt returns a uniform integer in [0, n) using crypto/rand.
func randomInt(n int) int {
	if n <= 1 {
		return 0
	}
	v, err := rand.Int(rand.Reader, big.NewInt(int64(n)))
	if err != nil {
		return 0
	}
	return int(v.Int64())
}

// Generate builds a random but internally consistent dataset: every result
// references an existing programme and candidate, and points add up.
func Generate(cfg GenConfig) (Dataset, error) {
	if cfg.Teams <= 0 || cfg.CandidatesPerTeam <= 0 || cfg.Programmes < 0 || cfg.EntrantsPerProgramme < 0 {
		return Dataset{}, fmt.Errorf("fakefest: invalid generator config %+v", cfg)
	}
	if cfg.PublishedRatio < 0 || cfg.PublishedRatio > 1 {
		return Dataset{}, fmt.Errorf("fakefest: published ratio %v outside [0,1]", cfg.PublishedRatio)
	}
	if cfg.Start.IsZero() {
		cfg.Start = time.Date(2024, time.January, 10, 9, 0, 0, 0, time.UTC)
	}

	var d Dataset
	for t := 0; t < cfg.Teams; t++ {
		d.Teams = append(d.Teams, model.Team{ID: uuid.NewString(), Name: fmt.Sprintf("House %d", t+1)})
	}
	for t, team := range d.Teams {
		for i := 0; i < cfg.CandidatesPerTeam; i++ {
			n := t*cfg.CandidatesPerTeam + i + 1
			d.Candidates = append(d.Candidates, model.Candidate{
				ID:          uuid.NewString(),
				Name:        fmt.Sprintf("Candidate %03d", n),
				AdmissionNo: model.Code(fmt.Sprintf("%d", 1000+n)),
				Team:        model.RefTo[model.Team](team.ID).With(team),
			})
		}
	}

	published := int(float64(cfg.Programmes)*cfg.PublishedRatio + 0.5)
	entrants := min(cfg.EntrantsPerProgramme, len(d.Candidates))
	points := make(map[string]float64, len(d.Candidates))

	for p := 0; p < cfg.Programmes; p++ {
		prog := model.Programme{
			ID:        uuid.NewString(),
			Name:      fmt.Sprintf("Programme %d", p+1),
			Type:      categories[randomInt(len(categories))],
			Date:      model.Timestamp{Time: cfg.Start.Add(time.Duration(randomInt(14*24)) * time.Hour)},
			Published: p < published,
		}
		d.Programmes = append(d.Programmes, prog)

		for i, ci := range pick(len(d.Candidates), entrants) {
			c := d.Candidates[ci]
			r := model.Result{
				ID:        uuid.NewString(),
				Programme: model.RefTo[model.ProgrammeSummary](prog.ID),
				Candidate: model.RefTo[model.Candidate](c.ID),
				Grade:     grades[randomInt(len(grades))],
			}
			if prog.Published && i < 3 {
				place := i + 1
				r.Rank = &place
				points[c.ID] += placePoints[place]
			}
			d.Results = append(d.Results, r)
		}
	}

	teamPoints := make(map[string]float64, len(d.Teams))
	for i := range d.Candidates {
		c := &d.Candidates[i]
		c.TotalPoints = points[c.ID]
		teamPoints[c.Team.ID] += c.TotalPoints
	}
	for i := range d.Teams {
		d.Teams[i].TotalPoints = teamPoints[d.Teams[i].ID]
	}
	return d, nil
}

// pick returns k distinct indexes from [0, n) in random order.
func pick(n, k int) []int {
	idx := make([]int, n)
	for i := range idx {
		idx[i] = i
	}
	for i := 0; i < k; i++ {
		j := i + randomInt(n-i)
		idx[i], idx[j] = idx[j], idx[i]
	}
	return idx[:k]
}
