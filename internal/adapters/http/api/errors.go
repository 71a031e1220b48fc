package api

import (
	"errors"
	"fmt"
)

// ErrEncode marks a failed write of a response body.
var ErrEncode = errors.New("response encoding failed")

// Wrap tags err with the handler operation. A nil err stays nil.
func Wrap(op string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", op, err)
}
