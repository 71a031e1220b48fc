package cli

import (
	"io"
	"strconv"
	"strings"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"

	"github.com/okian/festboard/internal/domain/model"
)

// UnknownCandidate is printed for results whose candidate could not be resolved.
const UnknownCandidate = "Unknown candidate"

type printer struct {
	out   io.Writer
	title *color.Color
	note  *color.Color
}

func newPrinter(out io.Writer, noColor bool) *printer {
	p := &printer{
		out:   out,
		title: color.New(color.FgCyan, color.Bold),
		note:  color.New(color.FgYellow),
	}
	if noColor {
		p.title.DisableColor()
		p.note.DisableColor()
	}
	return p
}

func (p *printer) heading(s string) {
	_, _ = p.title.Fprintln(p.out, "\n"+s)
}

func (p *printer) notice(s string) {
	_, _ = p.note.Fprintln(p.out, s)
}

func (p *printer) table(header []string, rows [][]string) {
	t := tablewriter.NewWriter(p.out)
	t.SetHeader(header)
	t.SetAutoWrapText(false)
	t.AppendBulk(rows)
	t.Render()
}

// pairs prints a borderless two column listing.
func (p *printer) pairs(rows [][]string) {
	t := tablewriter.NewWriter(p.out)
	t.SetBorder(false)
	t.SetColumnSeparator(":")
	t.SetAutoWrapText(false)
	t.AppendBulk(rows)
	t.Render()
}

func points(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func date(t model.Timestamp) string {
	if t.IsZero() {
		return "TBA"
	}
	return t.Format("02 Jan 2006")
}

func orDash(s string) string {
	if strings.TrimSpace(s) == "" {
		return "-"
	}
	return s
}

// place labels a rank, falling back to the bare number past the podium.
func place(r model.Result) string {
	rank, ok := r.Placed()
	if !ok {
		return "-"
	}
	if label := model.PlaceLabel(rank); label != "" {
		return label
	}
	return "#" + strconv.Itoa(rank)
}

func candidateOf(r model.Result) (model.Candidate, bool) {
	c, ok := r.Candidate.Resolved()
	if !ok || c.Name == "" {
		return model.Candidate{}, false
	}
	return c, true
}

func candidateName(r model.Result) string {
	if c, ok := candidateOf(r); ok {
		return c.Name
	}
	return UnknownCandidate
}

func programmeName(r model.Result) string {
	if p, ok := r.Programme.Resolved(); ok && p.Name != "" {
		return p.Name
	}
	return r.Programme.ID
}

func rankedCandidates(list []model.Ranked[model.Candidate]) [][]string {
	rows := make([][]string, 0, len(list))
	for _, e := range list {
		rows = append(rows, []string{
			strconv.Itoa(e.Position),
			e.Entry.Name,
			orDash(string(e.Entry.AdmissionNo)),
			orDash(e.Entry.TeamName()),
			points(e.Entry.TotalPoints),
		})
	}
	return rows
}

func (p *printer) leaderboards(v model.LeaderboardView) {
	p.heading("Team Leaderboard")
	teams := make([][]string, 0, len(v.Teams))
	for _, e := range v.Teams {
		teams = append(teams, []string{strconv.Itoa(e.Position), e.Entry.Name, points(e.Entry.TotalPoints)})
	}
	p.table([]string{"Pos", "Team", "Points"}, teams)

	candidateHeader := []string{"Pos", "Name", "Adm No", "Team", "Points"}
	p.heading("Top Students")
	p.table(candidateHeader, rankedCandidates(v.Overall))

	for _, cat := range v.Categories {
		p.heading("Top in " + cat.Category)
		p.table(candidateHeader, rankedCandidates(cat.Candidates))
	}
}

func (p *printer) programmes(entries []model.ProgrammeEntry) {
	p.heading("Programmes")
	if len(entries) == 0 {
		p.notice("No programmes scheduled.")
		return
	}
	rows := make([][]string, 0, len(entries))
	for _, e := range entries {
		status, winners := "Published", ""
		switch {
		case e.Pending:
			status = "Results Pending"
		case e.WinnersUnavailable:
			winners = "unavailable"
		default:
			names := make([]string, 0, len(e.Winners))
			for _, w := range e.Winners {
				names = append(names, place(w)+": "+candidateName(w))
			}
			winners = strings.Join(names, ", ")
		}
		rows = append(rows, []string{date(e.Date), e.Name, orDash(e.Type), status, orDash(winners)})
	}
	p.table([]string{"Date", "Programme", "Category", "Status", "Winners"}, rows)
}

func (p *printer) results(v model.ResultsView) {
	p.heading(v.Programme.Name)
	p.pairs([][]string{
		{"Category", orDash(v.Programme.Type)},
		{"Date", date(v.Programme.Date)},
	})
	standings := v.Standings()
	if len(standings) == 0 {
		p.notice("No results recorded.")
		return
	}
	rows := make([][]string, 0, len(standings))
	for _, r := range standings {
		c, _ := candidateOf(r)
		rows = append(rows, []string{
			place(r),
			candidateName(r),
			orDash(string(c.AdmissionNo)),
			orDash(c.TeamName()),
			orDash(r.Grade),
		})
	}
	p.table([]string{"Place", "Candidate", "Adm No", "Team", "Grade"}, rows)
}

func (p *printer) candidates(found []model.Candidate) {
	p.heading("Candidates")
	if len(found) == 0 {
		p.notice("No candidates found.")
		return
	}
	rows := make([][]string, 0, len(found))
	for i, c := range found {
		rows = append(rows, []string{
			strconv.Itoa(i + 1),
			c.Name,
			orDash(string(c.AdmissionNo)),
			orDash(c.TeamName()),
			points(c.TotalPoints),
		})
	}
	p.table([]string{"#", "Name", "Adm No", "Team", "Points"}, rows)
}

func (p *printer) achievements(v model.AchievementsView) {
	p.heading("Achievements")
	if len(v.Achievements) == 0 {
		p.notice("No achievements recorded.")
		return
	}
	rows := make([][]string, 0, len(v.Achievements))
	for _, a := range v.Achievements {
		rows = append(rows, []string{
			programmeName(a.Result),
			place(a.Result),
			orDash(a.Grade),
			orDash(a.CertificatePath),
		})
	}
	p.table([]string{"Programme", "Place", "Grade", "Certificate"}, rows)
}

func (p *printer) certificate(c model.Certificate) {
	p.heading("Certificate of Achievement")
	p.pairs([][]string{
		{"Candidate", orDash(c.Candidate.Name)},
		{"Admission No", orDash(string(c.Candidate.AdmissionNo))},
		{"Team", orDash(c.Candidate.TeamName())},
		{"Programme", orDash(c.Programme.Name)},
		{"Category", orDash(c.Programme.Type)},
		{"Place", place(c.Result)},
		{"Grade", orDash(c.Result.Grade)},
		{"Download", c.DownloadURL},
	})
}
