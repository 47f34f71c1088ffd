// Copyright © 2018 The ELPS authors

package debugger

import (
	"fmt"
	"strings"
)

// Frame is one captured activation record.  Its Scope is borrowed from the
// runtime and must not be used after the stopped thread resumes.
type Frame struct {
	Index      int
	Kind       FrameKind
	Receiver   string
	Method     string
	Location   Location
	Args       []Arg
	Scope      Scope
	BlockDepth int
	Reflective bool
}

// Label is the frame's name without receiver or arguments.  Block frames
// repeat "block in " once per nesting level before the enclosing method.
func (f *Frame) Label() string {
	switch f.Kind {
	case FrameBlock:
		depth := f.BlockDepth
		if depth < 1 {
			depth = 1
		}
		return strings.Repeat("block in ", depth) + f.Method
	case FrameModule:
		return "<module:" + f.Method + ">"
	case FrameClass:
		return "<class:" + f.Method + ">"
	case FrameTop:
		return "<top (required)>"
	default:
		return f.Method
	}
}

// Call renders the frame as it appears in a backtrace, e.g.
// "Foo.bar(a#String, *rest)" in long style or "bar(a, *rest)" in short
// style.
func (f *Frame) Call(style string) string {
	switch f.Kind {
	case FrameModule, FrameClass, FrameTop:
		return f.Label()
	}
	var sb strings.Builder
	if f.Kind == FrameBlock && style != CallStyleShort {
		sb.WriteString("block in ")
	}
	if style != CallStyleShort && f.Receiver != "" {
		sb.WriteString(f.Receiver)
		sb.WriteString(".")
	}
	sb.WriteString(f.Label())
	if len(f.Args) > 0 {
		sb.WriteString("(")
		for i, a := range f.Args {
			if i > 0 {
				sb.WriteString(", ")
			}
			sb.WriteString(formatArg(a, style))
		}
		sb.WriteString(")")
	}
	return sb.String()
}

func formatArg(a Arg, style string) string {
	switch a.Kind {
	case ArgRest:
		return "*" + a.Name
	case ArgKeyRest:
		return "**" + a.Name
	case ArgBlock:
		return "&" + a.Name
	}
	if style == CallStyleShort {
		return a.Name
	}
	typ := a.Type
	if typ == "" {
		typ = TypeName(a.Value)
	}
	return a.Name + "#" + typ
}

// FrameStack is the immutable call stack of a stopped thread.  Index 0 is
// the innermost frame and frame i's caller is frame i+1.
type FrameStack struct {
	frames []Frame
}

// Capture builds a frame stack from the runtime's activation records,
// innermost first.
func Capture(records []ActivationRecord) *FrameStack {
	frames := make([]Frame, len(records))
	for i, r := range records {
		args := make([]Arg, len(r.Args))
		copy(args, r.Args)
		frames[i] = Frame{
			Index:      i,
			Kind:       r.Kind,
			Receiver:   r.Receiver,
			Method:     r.Method,
			Location:   r.Location,
			Args:       args,
			Scope:      r.Scope,
			BlockDepth: r.BlockDepth,
			Reflective: r.Reflective,
		}
	}
	return &FrameStack{frames: frames}
}

// Len returns the number of frames.
func (s *FrameStack) Len() int {
	if s == nil {
		return 0
	}
	return len(s.frames)
}

// FrameAt returns frame i.
func (s *FrameStack) FrameAt(i int) (*Frame, error) {
	if i < 0 || i >= s.Len() {
		return nil, resolutionErrorf(ErrOutOfRange, "frame number %d is out of range (0..%d)", i, s.Len()-1)
	}
	f := s.frames[i]
	return &f, nil
}

// Caller returns the caller of frame i, if any.
func (s *FrameStack) Caller(i int) (*Frame, error) {
	return s.FrameAt(i + 1)
}

// Frames returns a copy of all frames, innermost first.
func (s *FrameStack) Frames() []Frame {
	if s == nil {
		return nil
	}
	cp := make([]Frame, len(s.frames))
	copy(cp, s.frames)
	return cp
}

// frameMark returns the marker printed before a backtrace line.
func frameMark(f *Frame, selected bool) string {
	switch {
	case selected:
		return "-->"
	case f.Reflective:
		return "    ͱ--"
	default:
		return "   "
	}
}

// FormatFrame renders one backtrace line:
//
//	MARK #POS CALL at FILE:LINE
func FormatFrame(f *Frame, selected bool, style string, paths PathStyle) string {
	return fmt.Sprintf("%s #%-2d %s at %s:%d",
		frameMark(f, selected), f.Index, f.Call(style), paths.Render(f.Location.File), f.Location.Line)
}

// Backtrace renders every frame of the stack, one per line, marking the
// selected frame.
func (s *FrameStack) Backtrace(selected int, style string, paths PathStyle) []string {
	lines := make([]string, 0, s.Len())
	for i := range s.frames {
		lines = append(lines, FormatFrame(&s.frames[i], i == selected, style, paths))
	}
	return lines
}
