// Copyright © 2018 The ELPS authors

// Package debugger implements an interactive source-level debugger engine
// for an embedded scripting runtime. It provides breakpoint management,
// stepping, call stack inspection, expression evaluation and process
// control without depending on a particular runtime or front end.
//
// The engine consumes the runtime through the Runtime interface. The
// runtime calls Hook.OnEvent synchronously at every instrumented event on
// the goroutine executing the script. When the session decides to stop,
// OnEvent runs the command loop on that same goroutine, reading commands
// from an Interface, and only returns once a command resumes execution.
// Command processing and script execution therefore never overlap.
//
// Concurrency model: any script thread may call OnEvent. Stops are
// serialized by the session so that at most one thread is inside the
// command loop at a time; other threads that need to stop block until
// the active one resumes.
package debugger

import "fmt"

// EventKind identifies the kind of runtime event delivered to a Hook.
type EventKind int

const (
	// EventLine is delivered before a new source line executes.
	EventLine EventKind = iota
	// EventCall is delivered after a method or block frame is pushed.
	EventCall
	// EventReturn is delivered before a frame is popped.
	EventReturn
	// EventRaise is delivered when the script raises an error.
	EventRaise
	// EventThreadBegin is delivered when a script thread starts.
	EventThreadBegin
	// EventThreadEnd is delivered when a script thread finishes.
	EventThreadEnd
	// EventPause is delivered when the script asks to stop explicitly (a
	// debugger statement in the source).
	EventPause
)

var eventKindStrings = []string{
	EventLine:        "line",
	EventCall:        "call",
	EventReturn:      "return",
	EventRaise:       "raise",
	EventThreadBegin: "thread-begin",
	EventThreadEnd:   "thread-end",
	EventPause:       "pause",
}

func (k EventKind) String() string {
	if k < 0 || int(k) >= len(eventKindStrings) {
		return fmt.Sprintf("EventKind(%d)", int(k))
	}
	return eventKindStrings[k]
}

// Location is a position in a source file.
type Location struct {
	File string
	Line int
}

func (l Location) String() string {
	return fmt.Sprintf("%s:%d", l.File, l.Line)
}

// IsZero returns true when l does not refer to any source.
func (l Location) IsZero() bool {
	return l.File == "" && l.Line == 0
}

// Event describes one instrumented runtime event.
type Event struct {
	Kind     EventKind
	Thread   int
	Location Location
	// Depth is the number of frames on the thread's stack when the event
	// fires.  It is used to implement next and finish without capturing
	// the stack on every event.
	Depth int
	// Method is the qualified method name for call and return events
	// (e.g. "Foo::Bar#baz" or "Foo::Bar.baz").
	Method string
	// Err is the raised error for EventRaise.
	Err error
	// Uncaught is set on EventRaise when no handler will rescue Err.
	Uncaught bool
}

// Directive tells the runtime what to do once OnEvent returns.
type Directive int

const (
	// DirectiveContinue resumes the script.
	DirectiveContinue Directive = iota
	// DirectiveTerminate asks the runtime to abandon the script (the user
	// quit the debugger).
	DirectiveTerminate
)

// Hook receives runtime events.  OnEvent is called on the goroutine that
// executes the script and blocks it for as long as the debugger keeps the
// thread stopped.
type Hook interface {
	OnEvent(ev Event) Directive
}

// Scope is an opaque handle to a frame's variable scope.  It is borrowed
// from the runtime and only valid until the stopped thread resumes; the
// debugger never copies or retains it past a stop.
type Scope any

// Evaluator evaluates source text against a scope handle.
type Evaluator interface {
	Evaluate(scope Scope, expr string) (any, error)
}

// Runtime is the capability the debugger consumes from the host runtime.
type Runtime interface {
	Evaluator

	// SetHook registers h to receive events.  A nil hook unregisters the
	// debugger and the runtime must stop delivering events.
	SetHook(h Hook)

	// Frames returns the activation records of the given thread, innermost
	// first.  It is only called while that thread is blocked in OnEvent.
	Frames(thread int) ([]ActivationRecord, error)

	// Breakable reports whether a breakpoint at loc can ever be hit.
	Breakable(loc Location) bool
}

// FrameKind classifies an activation record.
type FrameKind int

const (
	// FrameMethod is an ordinary method invocation.
	FrameMethod FrameKind = iota
	// FrameBlock is a block or closure executing within an enclosing method.
	FrameBlock
	// FrameModule is the body of a module definition.
	FrameModule
	// FrameClass is the body of a class definition.
	FrameClass
	// FrameTop is the top level of a loaded script.
	FrameTop
)

// ArgKind classifies a formal parameter.
type ArgKind int

const (
	ArgRequired ArgKind = iota
	ArgOptional
	ArgRest
	ArgKeyword
	ArgKeyRest
	ArgBlock
)

// Arg is one formal parameter bound in a frame.
type Arg struct {
	Name  string
	Kind  ArgKind
	Value any
	// Type is the runtime's name for the class of Value.  When empty it is
	// derived from the Go type of Value.
	Type string
}

// ActivationRecord is the runtime's description of one frame.
type ActivationRecord struct {
	Kind FrameKind
	// Receiver is the class (or module) name of the frame's receiver.
	Receiver string
	// Method is the method name for method and block frames, and the
	// module or class name for body frames.
	Method   string
	Location Location
	Args     []Arg
	Scope    Scope
	// BlockDepth is the number of blocks nested between this frame and its
	// enclosing method (FrameBlock only).
	BlockDepth int
	// Reflective is set when the frame was invoked reflectively (e.g. by
	// instance_exec or a constructor) instead of by a direct call.
	Reflective bool
}
