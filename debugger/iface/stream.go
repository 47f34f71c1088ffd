// Copyright © 2018 The ELPS authors

// Package iface provides the front ends a debugger session can talk to: a
// local terminal, a remote socket and a scripted test double.
package iface

import (
	"bufio"
	"errors"
	"io"
	"strings"
	"sync"

	"github.com/luthersystems/sdbg/debugger"
)

// Stream is an Interface over a line oriented byte stream.  Prompts are
// written without a trailing newline.
type Stream struct {
	mu     sync.Mutex
	r      *bufio.Reader
	w      *bufio.Writer
	errW   *bufio.Writer
	closer io.Closer
	closed bool
}

var _ debugger.Interface = (*Stream)(nil)

// NewStream returns an Interface reading commands from r and writing to w.
// Error lines go to errW, or to w when errW is nil.  Close closes c when it
// is not nil.
func NewStream(r io.Reader, w, errW io.Writer, c io.Closer) *Stream {
	s := &Stream{
		r:      bufio.NewReader(r),
		w:      bufio.NewWriter(w),
		closer: c,
	}
	if errW != nil {
		s.errW = bufio.NewWriter(errW)
	}
	return s
}

// ReadLine implements debugger.Interface.
func (s *Stream) ReadLine(prompt string) (string, error) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return "", io.EOF
	}
	if s.errW != nil {
		s.errW.Flush() //nolint:errcheck
	}
	s.w.WriteString(prompt) //nolint:errcheck
	err := s.w.Flush()
	s.mu.Unlock()
	if err != nil {
		return "", err
	}
	line, err := s.r.ReadString('\n')
	if err != nil {
		if errors.Is(err, io.EOF) && line != "" {
			return strings.TrimRight(line, "\r\n"), nil
		}
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}

// Print implements debugger.Interface.
func (s *Stream) Print(line string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.w.WriteString(line) //nolint:errcheck
	s.w.WriteByte('\n')   //nolint:errcheck
	s.w.Flush()           //nolint:errcheck
}

// PrintError implements debugger.Interface.
func (s *Stream) PrintError(msg string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	w := s.errW
	if w == nil {
		w = s.w
	}
	w.WriteString(debugger.ErrorPrefix + msg + "\n") //nolint:errcheck
	w.Flush()                                         //nolint:errcheck
}

// Flush implements debugger.Interface.
func (s *Stream) Flush() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	if s.errW != nil {
		if err := s.errW.Flush(); err != nil {
			return err
		}
	}
	return s.w.Flush()
}

// Close implements debugger.Interface.
func (s *Stream) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	s.w.Flush() //nolint:errcheck
	if s.errW != nil {
		s.errW.Flush() //nolint:errcheck
	}
	if s.closer != nil {
		return s.closer.Close()
	}
	return nil
}
