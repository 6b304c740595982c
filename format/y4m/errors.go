package y4m

import (
	"errors"
	"fmt"
)

var (
	errMissing     = errors.New("missing")
	errNonPositive = errors.New("must be positive")
	errTooLarge    = fmt.Errorf("picture exceeds %d pixels", MaxPixels)
)

// FormatError reports a stream header token that could not be interpreted.
type FormatError struct {
	Token string
	Err   error
}

// Error returns the error message for FormatError.
func (e *FormatError) Error() string {
	return fmt.Sprintf("y4m: format error: token %q: %s", e.Token, e.Err.Error())
}

// Unwrap returns the underlying parse error.
func (e *FormatError) Unwrap() error {
	return e.Err
}

// HeaderTooLongError reports a stream header line exceeding the configured limit.
type HeaderTooLongError struct {
	Limit int
}

// Error returns the error message for HeaderTooLongError.
func (e *HeaderTooLongError) Error() string {
	return fmt.Sprintf("y4m: stream header exceeds %d bytes", e.Limit)
}
