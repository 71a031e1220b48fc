// Package model contains the festival records read from the upstream API and
// the view records composed from them.
package model

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Image is a hosted picture reference.
type Image struct {
	URL string `json:"url"`
}

// Team is a competing house/team with its aggregated score.
type Team struct {
	ID          string  `json:"_id"`
	Name        string  `json:"name"`
	TotalPoints float64 `json:"totalPoints"`
}

// Candidate is a participant. Team is usually embedded by the upstream API but
// may arrive as a bare identifier.
type Candidate struct {
	ID          string  `json:"_id"`
	Name        string  `json:"name"`
	AdmissionNo Code    `json:"admissionNo"`
	Image       Image   `json:"image"`
	Team        TeamRef `json:"team"`
	TotalPoints float64 `json:"totalPoints"`
}

// TeamName returns the owning team's name, or "" when only an id is known.
func (c Candidate) TeamName() string {
	if t, ok := c.Team.Resolved(); ok {
		return t.Name
	}
	return ""
}

// Programme is a scheduled competition item.
type Programme struct {
	ID        string    `json:"_id"`
	Name      string    `json:"name"`
	Type      string    `json:"type"`
	Date      Timestamp `json:"date"`
	Published bool      `json:"isResultPublished"`
}

// ProgrammeSummary is the trimmed programme embedded in candidate results.
type ProgrammeSummary struct {
	ID   string `json:"_id"`
	Name string `json:"name"`
}

// Result links a candidate to a programme with an optional placing and grade.
type Result struct {
	ID        string       `json:"_id"`
	Programme ProgrammeRef `json:"programme"`
	Candidate CandidateRef `json:"candidate"`
	Rank      *int         `json:"rank"`
	Grade     string       `json:"grade,omitempty"`
}

// Placed reports the rank when the result carries a positive one.
func (r Result) Placed() (int, bool) {
	if r.Rank == nil || *r.Rank < 1 {
		return 0, false
	}
	return *r.Rank, true
}

// HasGrade reports whether a non-blank grade label is present.
func (r Result) HasGrade() bool {
	return strings.TrimSpace(r.Grade) != ""
}

// Leaderboards is the pre-aggregated payload of GET /leaderboards.
type Leaderboards struct {
	Teams      []Team          `json:"teamLeaderboard"`
	Overall    []Candidate     `json:"overallTopStudents"`
	Categories []CategoryBoard `json:"categoryTopStudents"`
}

// CategoryBoard holds the top candidates of one programme category.
type CategoryBoard struct {
	Category   string      `json:"category"`
	Candidates []Candidate `json:"candidates"`
}

// Ref is a reference that the upstream API sends either as a bare "_id"
// string or as the embedded record. Value is nil until the record is known.
type Ref[T any] struct {
	ID    string
	Value *T
}

// Reference aliases used by the festival records.
type (
	TeamRef      = Ref[Team]
	CandidateRef = Ref[Candidate]
	ProgrammeRef = Ref[ProgrammeSummary]
)

// RefTo builds an unresolved reference.
func RefTo[T any](id string) Ref[T] {
	return Ref[T]{ID: id}
}

// Resolved returns the referenced record when it is known.
func (r Ref[T]) Resolved() (T, bool) {
	if r.Value == nil {
		var zero T
		return zero, false
	}
	return *r.Value, true
}

// With returns a copy of r pointing at v.
func (r Ref[T]) With(v T) Ref[T] {
	return Ref[T]{ID: r.ID, Value: &v}
}

// UnmarshalJSON accepts null, an identifier string or an embedded object.
func (r *Ref[T]) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	switch {
	case len(b) == 0 || bytes.Equal(b, []byte("null")):
		*r = Ref[T]{}
		return nil
	case b[0] == '"':
		var id string
		if err := json.Unmarshal(b, &id); err != nil {
			return err
		}
		*r = Ref[T]{ID: id}
		return nil
	case b[0] == '{':
		var head struct {
			ID string `json:"_id"`
		}
		if err := json.Unmarshal(b, &head); err != nil {
			return err
		}
		var v T
		if err := json.Unmarshal(b, &v); err != nil {
			return err
		}
		*r = Ref[T]{ID: head.ID, Value: &v}
		return nil
	default:
		return fmt.Errorf("reference must be an id or an object, got %s", b)
	}
}

// MarshalJSON writes the embedded record when known, otherwise the id.
func (r Ref[T]) MarshalJSON() ([]byte, error) {
	if r.Value != nil {
		return json.Marshal(r.Value)
	}
	if r.ID == "" {
		return []byte("null"), nil
	}
	return json.Marshal(r.ID)
}

// Code is an identifier-like label that may be sent as a JSON string or number
// (admission numbers are both, depending on how they were entered).
type Code string

// UnmarshalJSON accepts strings, numbers and null.
func (c *Code) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	switch {
	case len(b) == 0 || bytes.Equal(b, []byte("null")):
		*c = ""
	case b[0] == '"':
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*c = Code(s)
	default:
		var n json.Number
		if err := json.Unmarshal(b, &n); err != nil {
			return fmt.Errorf("code must be a string or number: %w", err)
		}
		*c = Code(n.String())
	}
	return nil
}

// Timestamp is a programme schedule time. The zero value means undated.
type Timestamp struct {
	time.Time
}

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	time.DateOnly,
}

// UnmarshalJSON parses ISO-8601 strings and epoch milliseconds. Values that
// cannot be parsed leave the timestamp undated instead of failing the payload.
func (t *Timestamp) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	t.Time = time.Time{}
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		return nil
	}
	if b[0] != '"' {
		ms, err := strconv.ParseInt(string(b), 10, 64)
		if err == nil {
			t.Time = time.UnixMilli(ms).UTC()
		}
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	s = strings.TrimSpace(s)
	for _, layout := range timestampLayouts {
		if parsed, err := time.Parse(layout, s); err == nil {
			t.Time = parsed
			return nil
		}
	}
	return nil
}

// MarshalJSON writes RFC 3339 or null when undated.
func (t Timestamp) MarshalJSON() ([]byte, error) {
	if t.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(t.Time.Format(time.RFC3339Nano))
}
