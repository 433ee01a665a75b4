package mines

import (
	"errors"
	"fmt"
)

var ErrInvalidDimensions = errors.New("board dimensions must be positive")

// MalformedBoardError reports a board description that does not match
// its declared dimensions or contains values other than 0 and 1. Line is
// 1-based and zero when the error is not tied to a line of input.
type MalformedBoardError struct {
	Line   int
	Reason string
}

// [*MalformedBoardError] implements [error]
func (e *MalformedBoardError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("malformed board: line %d: %s", e.Line, e.Reason)
	}
	return "malformed board: " + e.Reason
}

func malformed(line int, format string, args ...any) *MalformedBoardError {
	return &MalformedBoardError{Line: line, Reason: fmt.Sprintf(format, args...)}
}
