package api

import (
	"net/http"

	service "github.com/okian/festboard/internal/app"
	"github.com/okian/festboard/internal/domain/viewstate"
	"github.com/okian/festboard/pkg/metrics"
)

// statusFor maps a page state to its HTTP status.
func statusFor[T any](st viewstate.State[T]) int {
	reason, _, failed := st.Failure()
	if !failed {
		return http.StatusOK
	}
	switch reason {
	case viewstate.ReasonInvalidInput:
		return http.StatusBadRequest
	case viewstate.ReasonNotFound:
		return http.StatusNotFound
	case viewstate.ReasonCanceled:
		return statusClientClosedRequest
	default:
		return http.StatusBadGateway
	}
}

// respond turns the result of an aggregation into a state envelope.
func respond[T any](w http.ResponseWriter, view string, data T, err error) viewstate.State[T] {
	st := viewstate.From(data, Wrap("api."+view, err), service.Describe)
	metrics.RecordViewState(view, string(st.Status()))
	writeJSON(w, statusFor(st), st)
	return st
}
