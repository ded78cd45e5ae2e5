package extract

import (
	"errors"
	"fmt"
)

// ErrMalformedResponse is returned when the model replies with something
// that cannot be decoded into task drafts. The response is rejected as a
// whole, no partial drafts are ever returned.
var ErrMalformedResponse = errors.New("malformed extraction response")

// ErrRequestFailed wraps a transport or provider failure during extraction.
type ErrRequestFailed struct {
	Provider string
	Cause    error
}

func (e *ErrRequestFailed) Error() string {
	return fmt.Sprintf("extraction request to %s failed: %v", e.Provider, e.Cause)
}

func (e *ErrRequestFailed) Unwrap() error {
	return e.Cause
}
