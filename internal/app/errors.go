package service

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/okian/festboard/internal/adapters/upstream"
	"github.com/okian/festboard/internal/domain/viewstate"
)

// Sentinel kinds for aggregation errors. These allow errors.Is/As from callers.
var (
	ErrNotFound  = errors.New("not found")
	ErrEmptyTerm = errors.New("search term is empty")
	ErrInvalidID = errors.New("identifier is empty")
)

// Operation names one aggregation.
type Operation string

// Aggregation operations.
const (
	OpLeaderboards          Operation = "leaderboards"
	OpProgrammes            Operation = "programmes"
	OpProgrammeResults      Operation = "programme_results"
	OpCandidateSearch       Operation = "candidate_search"
	OpCandidateAchievements Operation = "candidate_achievements"
	OpCertificate           Operation = "certificate"
)

// Operations lists every aggregation in display order.
var Operations = []Operation{
	OpLeaderboards, OpProgrammes, OpProgrammeResults,
	OpCandidateSearch, OpCandidateAchievements, OpCertificate,
}

// OpError records the aggregation that failed.
type OpError struct {
	Op  Operation
	Err error
}

func (e *OpError) Error() string { return fmt.Sprintf("%s: %v", e.Op, e.Err) }

func (e *OpError) Unwrap() error { return e.Err }

func wrap(op Operation, err error) error {
	if err == nil {
		return nil
	}
	var oe *OpError
	if errors.As(err, &oe) {
		return err
	}
	return &OpError{Op: op, Err: err}
}

// failureMessages are shown when an upstream call fails and the API sent no message.
var failureMessages = map[Operation]string{
	OpLeaderboards:          "Error fetching leaderboards. Please try again.",
	OpProgrammes:            "Failed to load programmes and results.",
	OpProgrammeResults:      "Failed to load results.",
	OpCandidateSearch:       "Failed to search candidates.",
	OpCandidateAchievements: "Failed to load achievements.",
	OpCertificate:           "Failed to load certificate data.",
}

var notFoundMessages = map[Operation]string{
	OpProgrammeResults:      "Programme not found.",
	OpCandidateAchievements: "Candidate not found.",
	OpCertificate:           "Certificate data not found.",
}

// Describe turns an aggregation error into a failure reason and one
// human-readable message. It is the viewstate.Classifier of this package.
func Describe(err error) (viewstate.Reason, string) {
	op := Operation("")
	var oe *OpError
	if errors.As(err, &oe) {
		op = oe.Op
	}

	switch {
	case errors.Is(err, ErrEmptyTerm):
		return viewstate.ReasonInvalidInput, "Please enter a name or admission number."
	case errors.Is(err, ErrInvalidID):
		return viewstate.ReasonInvalidInput, "A valid identifier is required."
	case errors.Is(err, ErrNotFound):
		if msg, ok := notFoundMessages[op]; ok {
			return viewstate.ReasonNotFound, msg
		}
		return viewstate.ReasonNotFound, "Not found."
	case errors.Is(err, context.Canceled):
		return viewstate.ReasonCanceled, "Request canceled."
	}

	if msg, ok := upstream.ServerMessage(err); ok {
		return viewstate.ReasonUpstream, msg
	}
	if msg, ok := failureMessages[op]; ok {
		return viewstate.ReasonUpstream, msg
	}
	return viewstate.ReasonUpstream, "Something went wrong. Please try again."
}

// isMissing reports whether the API answered 404 for a requested record.
func isMissing(err error) bool {
	var se *upstream.StatusError
	return errors.As(err, &se) && se.Code == http.StatusNotFound
}
