// Copyright © 2024 The ELPS authors

package debugger

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidLocation is returned when a breakpoint target cannot be
	// resolved to an instrumentable point.
	ErrInvalidLocation = errors.New("invalid location")
	// ErrUnknownBreakpoint is returned when no breakpoint has the given id.
	ErrUnknownBreakpoint = errors.New("unknown breakpoint")
	// ErrOutOfRange is returned for frame indices outside the stack.
	ErrOutOfRange = errors.New("out of range")
	// ErrUnknownCommand is returned when a command name does not resolve.
	ErrUnknownCommand = errors.New("unknown command")
	// ErrUnknownSetting is returned for set/show of an unknown option.
	ErrUnknownSetting = errors.New("unknown setting")
	// ErrNotStopped is returned when a command needs a stopped thread.
	ErrNotStopped = errors.New("no thread is stopped")
)

// UserInputError reports a malformed or unknown command.
type UserInputError struct {
	Msg string
	Err error
}

func (e *UserInputError) Error() string { return e.Msg }
func (e *UserInputError) Unwrap() error { return e.Err }

func userErrorf(format string, v ...any) error {
	return &UserInputError{Msg: fmt.Sprintf(format, v...)}
}

// ResolutionError reports a reference to something that does not exist: a
// breakpoint target, a breakpoint id or a frame index.
type ResolutionError struct {
	Msg string
	Err error
}

func (e *ResolutionError) Error() string { return e.Msg }
func (e *ResolutionError) Unwrap() error { return e.Err }

func resolutionErrorf(err error, format string, v ...any) error {
	return &ResolutionError{Msg: fmt.Sprintf(format, v...), Err: err}
}

// EvaluationError reports an expression that failed to evaluate.  It never
// affects the debuggee.
type EvaluationError struct {
	Expr string
	Err  error
}

func (e *EvaluationError) Error() string {
	return fmt.Sprintf("error evaluating %q: %v", e.Expr, e.Err)
}

func (e *EvaluationError) Unwrap() error { return e.Err }

// ProcessControlError reports a failure to signal or re-exec the debuggee
// process.  It is fatal for the operation but not for the session.
type ProcessControlError struct {
	Op  string
	Err error
}

func (e *ProcessControlError) Error() string {
	return fmt.Sprintf("%s failed: %v", e.Op, e.Err)
}

func (e *ProcessControlError) Unwrap() error { return e.Err }
