package syntax

import (
	"errors"
	"fmt"
)

// Error is a lexing or parsing error.
type Error struct {
	Pos Pos
	Msg string
	// Incomplete is set when the input ended before the construct being read
	// was finished, so that interactive callers can ask for more lines.
	Incomplete bool
}

func (e *Error) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%d:%d: %s", e.Pos.Line, e.Pos.Col, e.Msg)
	}
	return e.Msg
}

// IsIncomplete reports whether err is a syntax error caused by input ending early.
func IsIncomplete(err error) bool {
	var serr *Error
	return errors.As(err, &serr) && serr.Incomplete
}
