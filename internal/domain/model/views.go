package model

// Ranked is a display row carrying its 1-based position in a sorted list.
type Ranked[T any] struct {
	Position int `json:"position"`
	Entry    T   `json:"entry"`
}

// LeaderboardView is the leaderboard page: team totals, overall top
// candidates and top candidates per category, each ordered by points.
type LeaderboardView struct {
	Teams      []Ranked[Team]      `json:"teams"`
	Overall    []Ranked[Candidate] `json:"overall"`
	Categories []CategoryView      `json:"categories"`
}

// CategoryView is one category table of the leaderboard page.
type CategoryView struct {
	Category   string              `json:"category"`
	Candidates []Ranked[Candidate] `json:"candidates"`
}

// ProgrammeEntry is one row of the programme list. Published programmes carry
// their podium in Winners (possibly empty); unpublished ones are Pending and
// carry no winners at all.
type ProgrammeEntry struct {
	Programme
	Pending bool     `json:"pending"`
	Winners []Result `json:"winners,omitzero"`
	// WinnersUnavailable marks a published programme whose results could not
	// be fetched under the collect-all fan-out policy.
	WinnersUnavailable bool `json:"winnersUnavailable,omitempty"`
}

// ResultsView is the full result sheet of a single programme. Results is
// ordered ranked-first by ascending rank, unranked entries last.
type ResultsView struct {
	Programme Programme `json:"programme"`
	Results   []Result  `json:"results"`
}

// Standings returns the rows shown on a result sheet: placed results first,
// then unplaced results that earned a grade. Results with neither are left out.
func (v ResultsView) Standings() []Result {
	out := make([]Result, 0, len(v.Results))
	for _, r := range v.Results {
		if _, ok := r.Placed(); ok {
			out = append(out, r)
		}
	}
	for _, r := range v.Results {
		if _, ok := r.Placed(); !ok && r.HasGrade() {
			out = append(out, r)
		}
	}
	return out
}

// Achievement is a candidate result with a deep link to its certificate.
type Achievement struct {
	Result
	CertificatePath string `json:"certificatePath,omitempty"`
}

// AchievementsView is the achievement history of one candidate.
type AchievementsView struct {
	CandidateID  string        `json:"candidateId"`
	Achievements []Achievement `json:"achievements"`
}

// Certificate is everything needed to render a certificate page.
type Certificate struct {
	Result      Result    `json:"result"`
	Candidate   Candidate `json:"candidate"`
	Programme   Programme `json:"programme"`
	DownloadURL string    `json:"downloadUrl"`
}

// PlaceLabel names a podium rank, or returns "" for other ranks.
func PlaceLabel(rank int) string {
	switch rank {
	case 1:
		return "1st Place"
	case 2:
		return "2nd Place"
	case 3:
		return "3rd Place"
	default:
		return ""
	}
}
