// Copyright © 2024 The ELPS authors

package debugger

import (
	"fmt"
	"strings"
)

// Interface is the front end a session talks to.  Implementations live in
// package iface and must be safe for concurrent use: line traces and
// warnings may be printed from a running thread while another thread is
// stopped.
type Interface interface {
	// ReadLine prints prompt and reads one line without its terminator.
	// It returns io.EOF once no more input is available.
	ReadLine(prompt string) (string, error)
	// Print writes one line of output.
	Print(line string)
	// PrintError writes one line of error output, prefixed with "*** ".
	PrintError(msg string)
	// Flush writes any buffered output.
	Flush() error
	// Close releases the interface.  Later reads return io.EOF.
	Close() error
}

// ErrorPrefix starts every line written by Interface.PrintError.
const ErrorPrefix = "*** "

// Printf formats a line and prints it on ui.
func Printf(ui Interface, format string, v ...any) {
	ui.Print(fmt.Sprintf(format, v...))
}

// Confirm asks a yes/no question.  Anything but an answer starting with
// y or Y (including end of input) is a no.
func Confirm(ui Interface, question string) bool {
	answer, err := ui.ReadLine(question + " (y/n) ")
	if err != nil {
		return false
	}
	answer = strings.TrimSpace(answer)
	return strings.HasPrefix(answer, "y") || strings.HasPrefix(answer, "Y")
}
