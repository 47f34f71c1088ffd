// Copyright © 2024 The ELPS authors

package debugtest

import (
	"sync"

	"github.com/luthersystems/sdbg/debugger"
	"github.com/luthersystems/sdbg/debugger/exprlang"
)

// Method describes a method invoked with Thread.Call.
type Method struct {
	Receiver string
	Name     string
	// Singleton selects "Receiver.Name" instead of "Receiver#Name" as the
	// qualified name delivered with call events.
	Singleton  bool
	Args       []debugger.Arg
	Reflective bool
}

// Qualified returns the name delivered with call and return events.
func (m Method) Qualified() string {
	if m.Receiver == "" {
		return m.Name
	}
	if m.Singleton {
		return m.Receiver + "." + m.Name
	}
	return m.Receiver + "#" + m.Name
}

type frame struct {
	rec  debugger.ActivationRecord
	vars *exprlang.MapScope
	// method is the qualified name of method frames, empty otherwise.
	method string
}

// Thread executes one script.  Its methods must be called from the
// goroutine running the script.
type Thread struct {
	rt *Runtime
	id int

	mu    sync.Mutex
	stack []*frame // outermost first
}

// ID returns the thread id delivered with events.
func (th *Thread) ID() int {
	return th.id
}

// Depth returns the number of frames on the stack.
func (th *Thread) Depth() int {
	th.mu.Lock()
	defer th.mu.Unlock()
	return len(th.stack)
}

// Line moves the innermost frame to line n of its file and fires a line
// event.
func (th *Thread) Line(n int) {
	th.mu.Lock()
	th.top().rec.Location.Line = n
	th.mu.Unlock()
	th.emit(th.event(debugger.EventLine))
}

// Lines fires a line event for each of lines in order.
func (th *Thread) Lines(lines ...int) {
	for _, n := range lines {
		th.Line(n)
	}
}

// Set binds a variable in the innermost frame.
func (th *Thread) Set(name string, v any) {
	th.mu.Lock()
	defer th.mu.Unlock()
	th.top().vars.Vars[name] = v
}

// Call pushes a method frame in file, runs body and pops the frame.  The
// method's arguments are bound as variables of the new frame.  An empty
// file keeps the caller's file.
func (th *Thread) Call(file string, m Method, body func()) {
	th.mu.Lock()
	loc := th.top().rec.Location
	if file != "" {
		loc = debugger.Location{File: file, Line: loc.Line}
	}
	vars := make(map[string]any, len(m.Args))
	for _, a := range m.Args {
		vars[a.Name] = a.Value
	}
	f := &frame{
		rec: debugger.ActivationRecord{
			Kind:       debugger.FrameMethod,
			Receiver:   m.Receiver,
			Method:     m.Name,
			Location:   loc,
			Args:       m.Args,
			Reflective: m.Reflective,
		},
		vars:   &exprlang.MapScope{Vars: vars},
		method: m.Qualified(),
	}
	th.mu.Unlock()
	th.run(f, body)
}

// Block pushes a block frame of the enclosing method, runs body and pops
// the frame.  Variables of the enclosing frame stay visible.
func (th *Thread) Block(body func()) {
	th.mu.Lock()
	outer := th.top()
	f := &frame{
		rec: debugger.ActivationRecord{
			Kind:       debugger.FrameBlock,
			Receiver:   outer.rec.Receiver,
			Method:     outer.rec.Method,
			Location:   outer.rec.Location,
			BlockDepth: 1,
		},
		vars: &exprlang.MapScope{Vars: make(map[string]any), Parent: outer.vars},
	}
	if outer.rec.Kind == debugger.FrameBlock {
		f.rec.BlockDepth = outer.rec.BlockDepth + 1
	}
	th.mu.Unlock()
	th.run(f, body)
}

// Body pushes the body frame of a module or class definition, runs body
// and pops the frame.
func (th *Thread) Body(kind debugger.FrameKind, name string, body func()) {
	th.mu.Lock()
	f := &frame{
		rec: debugger.ActivationRecord{
			Kind:     kind,
			Method:   name,
			Location: th.top().rec.Location,
		},
		vars: &exprlang.MapScope{Vars: make(map[string]any)},
	}
	th.mu.Unlock()
	th.run(f, body)
}

// Pause fires a pause event, as a debugger statement in the script would.
func (th *Thread) Pause() {
	th.emit(th.event(debugger.EventPause))
}

// Raise fires a raise event for err.
func (th *Thread) Raise(err error, uncaught bool) {
	ev := th.event(debugger.EventRaise)
	ev.Err = err
	ev.Uncaught = uncaught
	th.emit(ev)
}

func (th *Thread) run(f *frame, body func()) {
	th.mu.Lock()
	th.stack = append(th.stack, f)
	th.mu.Unlock()
	defer func() {
		th.mu.Lock()
		th.stack = th.stack[:len(th.stack)-1]
		th.mu.Unlock()
	}()
	call := th.event(debugger.EventCall)
	call.Method = f.method
	th.emit(call)
	if body != nil {
		body()
	}
	ret := th.event(debugger.EventReturn)
	ret.Method = f.method
	th.emit(ret)
}

func (th *Thread) top() *frame {
	return th.stack[len(th.stack)-1]
}

func (th *Thread) event(kind debugger.EventKind) debugger.Event {
	th.mu.Lock()
	defer th.mu.Unlock()
	return debugger.Event{
		Kind:     kind,
		Thread:   th.id,
		Location: th.top().rec.Location,
		Depth:    len(th.stack),
	}
}

// emit delivers ev and unwinds the script when the hook terminates it.
func (th *Thread) emit(ev debugger.Event) {
	if th.rt.deliver(ev) == debugger.DirectiveTerminate {
		panic(terminated{})
	}
}

// records returns the activation records, innermost first.
func (th *Thread) records() []debugger.ActivationRecord {
	th.mu.Lock()
	defer th.mu.Unlock()
	recs := make([]debugger.ActivationRecord, 0, len(th.stack))
	for i := len(th.stack) - 1; i >= 0; i-- {
		rec := th.stack[i].rec
		rec.Scope = th.stack[i].vars
		recs = append(recs, rec)
	}
	return recs
}
