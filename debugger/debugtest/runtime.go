// Copyright © 2024 The ELPS authors

// Package debugtest provides an instrumented script runtime and a harness
// for testing debugger sessions.  Scripts are written as Go functions that
// announce their lines, calls and blocks to a Thread, which delivers the
// corresponding events to the registered hook exactly as an interpreter
// would.
package debugtest

import (
	"errors"
	"fmt"
	"sync"

	"github.com/luthersystems/sdbg/debugger"
	"github.com/luthersystems/sdbg/debugger/exprlang"
)

// ErrTerminated is returned by Run when the hook asked the runtime to
// abandon the script.
var ErrTerminated = errors.New("script terminated by debugger")

type terminated struct{}

// Runtime is a debugger.Runtime whose scripts are Go functions.
type Runtime struct {
	eval debugger.Evaluator

	mu         sync.Mutex
	hook       debugger.Hook
	breakable  map[string]map[int]bool
	threads    map[int]*Thread
	nextThread int
	events     []debugger.Event
	record     bool
}

var _ debugger.Runtime = (*Runtime)(nil)

// RuntimeOption configures a Runtime.
type RuntimeOption func(*Runtime)

// WithEvaluator replaces the expression evaluator.  The default evaluates
// expr-lang expressions against frame variables.
func WithEvaluator(e debugger.Evaluator) RuntimeOption {
	return func(r *Runtime) {
		r.eval = e
	}
}

// WithEventLog records every delivered event, see Events.
func WithEventLog() RuntimeOption {
	return func(r *Runtime) {
		r.record = true
	}
}

// NewRuntime returns an empty runtime.
func NewRuntime(opts ...RuntimeOption) *Runtime {
	r := &Runtime{
		eval:       exprlang.New(),
		breakable:  make(map[string]map[int]bool),
		threads:    make(map[int]*Thread),
		nextThread: 1,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// SetHook implements debugger.Runtime.
func (r *Runtime) SetHook(h debugger.Hook) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.hook = h
}

// Hooked reports whether a hook is registered.
func (r *Runtime) Hooked() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.hook != nil
}

// SetBreakable marks lines of file as breakable.  Files without any
// breakable line accept breakpoints on every line.
func (r *Runtime) SetBreakable(file string, lines ...int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	set := r.breakable[file]
	if set == nil {
		set = make(map[int]bool)
		r.breakable[file] = set
	}
	for _, n := range lines {
		set[n] = true
	}
}

// Breakable implements debugger.Runtime.
func (r *Runtime) Breakable(loc debugger.Location) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	set, ok := r.breakable[loc.File]
	if !ok {
		return loc.Line > 0
	}
	return set[loc.Line]
}

// Evaluate implements debugger.Runtime.
func (r *Runtime) Evaluate(scope debugger.Scope, expr string) (any, error) {
	return r.eval.Evaluate(scope, expr)
}

// Frames implements debugger.Runtime.
func (r *Runtime) Frames(thread int) ([]debugger.ActivationRecord, error) {
	r.mu.Lock()
	th, ok := r.threads[thread]
	r.mu.Unlock()
	if !ok {
		return nil, fmt.Errorf("no thread %d", thread)
	}
	return th.records(), nil
}

// Events returns the events delivered so far when the runtime was created
// with WithEventLog.
func (r *Runtime) Events() []debugger.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]debugger.Event(nil), r.events...)
}

// Run executes script as a new thread whose top level frame belongs to
// file.  It returns ErrTerminated when the hook terminated the script.
func (r *Runtime) Run(file string, script func(th *Thread)) (err error) {
	th := r.newThread(file)
	defer r.endThread(th)
	defer func() {
		if v := recover(); v != nil {
			if _, ok := v.(terminated); !ok {
				panic(v)
			}
			err = ErrTerminated
		}
	}()
	th.emit(th.event(debugger.EventThreadBegin))
	script(th)
	return nil
}

// Go runs script on a new goroutine.  The returned channel receives the
// result of Run.
func (r *Runtime) Go(file string, script func(th *Thread)) <-chan error {
	done := make(chan error, 1)
	go func() {
		done <- r.Run(file, script)
	}()
	return done
}

func (r *Runtime) newThread(file string) *Thread {
	r.mu.Lock()
	defer r.mu.Unlock()
	th := &Thread{rt: r, id: r.nextThread}
	r.nextThread++
	th.stack = []*frame{{
		rec:  debugger.ActivationRecord{Kind: debugger.FrameTop, Location: debugger.Location{File: file}},
		vars: &exprlang.MapScope{Vars: make(map[string]any)},
	}}
	r.threads[th.id] = th
	return th
}

func (r *Runtime) endThread(th *Thread) {
	r.deliver(th.event(debugger.EventThreadEnd))
	r.mu.Lock()
	delete(r.threads, th.id)
	r.mu.Unlock()
}

// deliver calls the hook without holding the runtime lock so that the
// hook may unregister itself.
func (r *Runtime) deliver(ev debugger.Event) debugger.Directive {
	r.mu.Lock()
	h := r.hook
	if r.record {
		r.events = append(r.events, ev)
	}
	r.mu.Unlock()
	if h == nil {
		return debugger.DirectiveContinue
	}
	return h.OnEvent(ev)
}
