package cli

import (
	"errors"
	"fmt"

	service "github.com/okian/festboard/internal/app"
	"github.com/okian/festboard/internal/domain/viewstate"
)

// ErrInvalidPick is returned when --pick does not name a listed candidate.
var ErrInvalidPick = errors.New("pick is out of range")

// ViewError is a failed view as shown to the user: one readable message,
// with the cause kept for errors.Is.
type ViewError struct {
	Reason  viewstate.Reason
	Message string
	Err     error
}

func (e *ViewError) Error() string { return e.Message }

func (e *ViewError) Unwrap() error { return e.Err }

func fail(err error) error {
	reason, msg := service.Describe(err)
	return &ViewError{Reason: reason, Message: msg, Err: err}
}

func badPick(n, size int) error {
	return fmt.Errorf("%w: %d (choose 1-%d)", ErrInvalidPick, n, size)
}
