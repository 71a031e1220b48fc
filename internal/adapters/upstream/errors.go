package upstream

import (
	"errors"
	"fmt"
)

// Sentinel kinds for upstream failures. Callers match them with errors.Is.
var (
	ErrInvalidBaseURL = errors.New("invalid upstream base url")
	ErrTransport      = errors.New("upstream transport failed")
	ErrStatus         = errors.New("upstream returned an error status")
	ErrDecode         = errors.New("upstream response could not be decoded")
)

// StatusError is returned for non-2xx responses.
type StatusError struct {
	Path string
	Code int
	// Message is the server-provided "message" field, if any.
	Message string
}

func (e *StatusError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("GET %s: status %d: %s", e.Path, e.Code, e.Message)
	}
	return fmt.Sprintf("GET %s: status %d", e.Path, e.Code)
}

// Is reports whether target is ErrStatus.
func (e *StatusError) Is(target error) bool {
	return target == ErrStatus
}

// ServerMessage returns the message the API sent with a failed response.
func ServerMessage(err error) (string, bool) {
	var se *StatusError
	if errors.As(err, &se) && se.Message != "" {
		return se.Message, true
	}
	return "", false
}
