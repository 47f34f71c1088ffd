// Copyright © 2024 The ELPS authors

// Package exprlang evaluates debugger expressions with expr-lang/expr.  It
// lets a runtime that has no evaluator of its own answer print commands
// and breakpoint conditions against the variables of a frame.
package exprlang

import (
	"errors"
	"fmt"
	"sort"

	"github.com/expr-lang/expr"
	"github.com/luthersystems/sdbg/debugger"
)

// ErrNoBindings is returned when a scope handle does not expose variables.
var ErrNoBindings = errors.New("scope has no bindings")

// Bindings exposes the variables visible in a frame.
type Bindings interface {
	Lookup(name string) (any, bool)
	Names() []string
}

// MapScope is a Bindings backed by a map, optionally chained to the
// enclosing scope.
type MapScope struct {
	Vars   map[string]any
	Parent Bindings
}

// Lookup implements Bindings.
func (m *MapScope) Lookup(name string) (any, bool) {
	if v, ok := m.Vars[name]; ok {
		return v, true
	}
	if m.Parent != nil {
		return m.Parent.Lookup(name)
	}
	return nil, false
}

// Names implements Bindings.  Names are sorted and shadowed names appear
// once.
func (m *MapScope) Names() []string {
	seen := make(map[string]bool, len(m.Vars))
	var names []string
	for name := range m.Vars {
		seen[name] = true
		names = append(names, name)
	}
	if m.Parent != nil {
		for _, name := range m.Parent.Names() {
			if !seen[name] {
				seen[name] = true
				names = append(names, name)
			}
		}
	}
	sort.Strings(names)
	return names
}

// Evaluator compiles expressions once and runs them against the bindings
// of a scope.  It is safe for concurrent use.
type Evaluator struct {
	cache *programCache
	funcs map[string]any
}

var _ debugger.Evaluator = (*Evaluator)(nil)

// Option configures an Evaluator.
type Option func(*Evaluator)

// WithCacheSize bounds the number of cached programs.
func WithCacheSize(n int) Option {
	return func(e *Evaluator) {
		e.cache = newProgramCache(n)
	}
}

// WithFunction makes fn callable as name in every expression.  Variables
// of a scope shadow functions of the same name.
func WithFunction(name string, fn any) Option {
	return func(e *Evaluator) {
		e.funcs[name] = fn
	}
}

// New returns an Evaluator.
func New(opts ...Option) *Evaluator {
	e := &Evaluator{
		cache: newProgramCache(DefaultCacheSize),
		funcs: make(map[string]any),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Evaluate implements debugger.Evaluator.  The scope must implement
// Bindings, or be nil for expressions without variables.
func (e *Evaluator) Evaluate(scope debugger.Scope, src string) (any, error) {
	env, err := e.env(scope)
	if err != nil {
		return nil, err
	}
	program, ok := e.cache.get(src)
	if !ok {
		program, err = expr.Compile(src, expr.AllowUndefinedVariables())
		if err != nil {
			return nil, err
		}
		e.cache.put(src, program)
	}
	return expr.Run(program, env)
}

func (e *Evaluator) env(scope debugger.Scope) (map[string]any, error) {
	env := make(map[string]any, len(e.funcs))
	for name, fn := range e.funcs {
		env[name] = fn
	}
	switch b := scope.(type) {
	case nil:
	case Bindings:
		for _, name := range b.Names() {
			if v, ok := b.Lookup(name); ok {
				env[name] = v
			}
		}
	default:
		return nil, fmt.Errorf("%w: %T", ErrNoBindings, scope)
	}
	return env, nil
}

// Cached returns the number of compiled programs held.
func (e *Evaluator) Cached() int {
	return e.cache.len()
}
