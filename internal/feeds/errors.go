// ABOUTME: Parse errors for signature table lines
// ABOUTME: Carries the source file and 1-based line number of the first bad entry

package feeds

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidEntry is wrapped by every table line parse failure.
	ErrInvalidEntry = errors.New("invalid entry")

	// ErrUnknownFormat is returned when asked to parse a format that does not exist.
	ErrUnknownFormat = errors.New("unknown table format")
)

// ParseError reports the first malformed line of a signature table.
type ParseError struct {
	Source string
	Line   int
	Text   string
	Err    error
}

// Error implements the error interface.
func (e *ParseError) Error() string {
	if e.Source == "" {
		return fmt.Sprintf("line %d: %v", e.Line, e.Err)
	}
	return fmt.Sprintf("%s:%d: %v", e.Source, e.Line, e.Err)
}

// Unwrap returns the underlying error for errors.Is/As support.
func (e *ParseError) Unwrap() error {
	return e.Err
}
