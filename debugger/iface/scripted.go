// Copyright © 2024 The ELPS authors

package iface

import (
	"io"
	"strings"
	"sync"

	"github.com/luthersystems/sdbg/debugger"
)

// Scripted is an Interface that answers reads from a fixed list of lines
// and records everything written to it.  It is used to drive sessions in
// tests.
type Scripted struct {
	mu         sync.Mutex
	input      []string
	transcript []string
	output     []string
	errors     []string
	closes     int
	flushes    int
	closed     bool
}

var _ debugger.Interface = (*Scripted)(nil)

// NewScripted returns an interface that reads lines in order and then
// reports io.EOF.
func NewScripted(lines ...string) *Scripted {
	return &Scripted{input: append([]string(nil), lines...)}
}

// Enter appends lines to the remaining input.
func (s *Scripted) Enter(lines ...string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.input = append(s.input, lines...)
}

// ReadLine implements debugger.Interface.
func (s *Scripted) ReadLine(prompt string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.transcript = append(s.transcript, prompt)
	if s.closed || len(s.input) == 0 {
		return "", io.EOF
	}
	line := s.input[0]
	s.input = s.input[1:]
	s.transcript = append(s.transcript, line)
	return line, nil
}

// Print implements debugger.Interface.
func (s *Scripted) Print(line string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.output = append(s.output, line)
	s.transcript = append(s.transcript, line)
}

// PrintError implements debugger.Interface.
func (s *Scripted) PrintError(msg string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.errors = append(s.errors, msg)
	s.transcript = append(s.transcript, debugger.ErrorPrefix+msg)
}

// Flush implements debugger.Interface.
func (s *Scripted) Flush() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.flushes++
	return nil
}

// Close implements debugger.Interface.
func (s *Scripted) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closes++
	s.closed = true
	return nil
}

// Output returns the lines written with Print.
func (s *Scripted) Output() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.output...)
}

// Errors returns the messages written with PrintError, without prefix.
func (s *Scripted) Errors() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.errors...)
}

// Transcript returns prompts, input lines and output in the order they
// occurred.
func (s *Scripted) Transcript() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.transcript...)
}

// Text returns the transcript joined by newlines.
func (s *Scripted) Text() string {
	return strings.Join(s.Transcript(), "\n")
}

// Remaining returns the number of input lines not yet read.
func (s *Scripted) Remaining() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.input)
}

// Closes returns how many times Close was called.
func (s *Scripted) Closes() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closes
}

// Flushes returns how many times Flush was called.
func (s *Scripted) Flushes() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.flushes
}
