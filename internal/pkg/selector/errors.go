package selector

import (
	"errors"
	"fmt"
)

// ErrEmptyInput is returned when Select is called without candidates.
var ErrEmptyInput = errors.New("selector: no candidates to choose from")

// TerminalModeError reports a failure to switch the terminal into or out of raw mode.
type TerminalModeError struct {
	Op  string
	Err error
}

func (e *TerminalModeError) Error() string {
	return fmt.Sprintf("selector: %s: %v", e.Op, e.Err)
}

func (e *TerminalModeError) Unwrap() error { return e.Err }

// InputReadError reports that no key event could be read. RestoreErr is set
// when the terminal mode could not be restored after the failed read.
type InputReadError struct {
	Err        error
	RestoreErr error
}

func (e *InputReadError) Error() string {
	if e.RestoreErr != nil {
		return fmt.Sprintf("selector: read key: %v (restore terminal: %v)", e.Err, e.RestoreErr)
	}
	return fmt.Sprintf("selector: read key: %v", e.Err)
}

func (e *InputReadError) Unwrap() []error {
	if e.RestoreErr != nil {
		return []error{e.Err, e.RestoreErr}
	}
	return []error{e.Err}
}
