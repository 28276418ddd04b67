package pagination

import (
	"errors"
	"fmt"
)

// ErrInvalidCursor is returned by sources that cannot decode a cursor.
var ErrInvalidCursor = errors.New("invalid cursor")

// FetchError is a recoverable page fetch failure with a human-readable
// description suitable for presenting to a user.
type FetchError struct {
	Message string
	Err     error
}

// Error implements the error interface.
func (e *FetchError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("fetch failed: %s: %v", e.Message, e.Err)
	}
	return fmt.Sprintf("fetch failed: %s", e.Message)
}

// Unwrap implements error unwrapping for errors.Is/As.
func (e *FetchError) Unwrap() error {
	return e.Err
}

// Description returns the user-facing message.
func (e *FetchError) Description() string {
	return e.Message
}

// Describe returns the human-readable description of a fetch error. Errors
// that are not a *FetchError are described by their Error text.
func Describe(err error) string {
	if err == nil {
		return ""
	}
	var fe *FetchError
	if errors.As(err, &fe) && fe.Message != "" {
		return fe.Message
	}
	return err.Error()
}
