// Copyright © 2018 The ELPS authors

package debugger

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/trace"
)

// Session drives one debugging session: it receives runtime events,
// decides when a thread stops, and runs the command loop on the stopped
// thread.
type Session struct {
	id          string
	rt          Runtime
	ui          Interface
	log         *logrus.Entry
	settings    *Settings
	overrides   map[string]string
	breakpoints *BreakpointTable
	registry    *Registry
	dispatcher  *dispatcher
	sources     *SourceCache
	proc        Process
	invocation  Invocation
	tracer      *sessionTracer
	dir         string
	initFile    string
	stopOnEntry bool

	// stopMu serializes stops: at most one thread runs the command loop.
	stopMu sync.Mutex
	// initDone and list are guarded by stopMu.
	initDone bool
	list     listState

	entryPending   atomic.Bool
	pauseRequested atomic.Bool
	terminate      atomic.Bool

	mu         sync.Mutex
	started    bool
	contexts   map[int]*Context
	active     *Context
	evaluating map[int]int
}

// Option configures a Session.
type Option func(*Session)

// WithStopOnEntry makes the session stop at the first line event.
func WithStopOnEntry(stop bool) Option {
	return func(s *Session) {
		s.stopOnEntry = stop
	}
}

// WithLogger sets the logger used for diagnostics.  The default logger
// only reports warnings.
func WithLogger(log *logrus.Logger) Option {
	return func(s *Session) {
		if log != nil {
			s.log = log.WithField("session", s.id)
		}
	}
}

// WithTracerProvider sets the provider used to record stop and command
// spans.  The global provider is used by default.
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(s *Session) {
		s.tracer = newSessionTracer(tp, s.id)
	}
}

// WithInitFile runs the commands in path once, at the first stop.
func WithInitFile(path string) Option {
	return func(s *Session) {
		s.initFile = path
	}
}

// WithSettings overrides setting defaults.  Values are parsed as by the
// set command when the session starts.
func WithSettings(values map[string]string) Option {
	return func(s *Session) {
		for k, v := range values {
			s.overrides[k] = v
		}
	}
}

// WithProcess replaces the operating system process used by kill and
// restart.
func WithProcess(p Process) Option {
	return func(s *Session) {
		s.proc = p
	}
}

// WithInvocation records how the debuggee was started so that restart can
// re-exec it.
func WithInvocation(inv Invocation) Option {
	return func(s *Session) {
		s.invocation = inv
	}
}

// WithWorkingDir sets the directory short paths are relative to.  It
// defaults to the process working directory.
func WithWorkingDir(dir string) Option {
	return func(s *Session) {
		s.dir = dir
	}
}

// WithCommands registers additional commands.  They may not reuse the
// name or alias of a built-in command.
func WithCommands(cmds ...*Command) Option {
	return func(s *Session) {
		for _, cmd := range cmds {
			if err := s.registry.Register(cmd); err != nil {
				s.log.WithError(err).Warn("register command")
			}
		}
	}
}

// New returns a session debugging rt through ui.  The session does not
// receive events until Start is called.
func New(rt Runtime, ui Interface, opts ...Option) *Session {
	logger := logrus.New()
	logger.SetLevel(logrus.WarnLevel)
	id := uuid.NewString()
	s := &Session{
		id:          id,
		rt:          rt,
		ui:          ui,
		log:         logger.WithField("session", id),
		settings:    NewSettings(),
		overrides:   make(map[string]string),
		breakpoints: NewBreakpointTable(),
		registry:    NewRegistry(),
		sources:     NewSourceCache(),
		proc:        OSProcess{},
		tracer:      newSessionTracer(nil, id),
	}
	s.dispatcher = &dispatcher{session: s}
	if dir, err := os.Getwd(); err == nil {
		s.dir = dir
	}
	registerBuiltins(s.registry)
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ID returns the unique id of the session.
func (s *Session) ID() string { return s.id }

// Runtime returns the debugged runtime.
func (s *Session) Runtime() Runtime { return s.rt }

// UI returns the session's interface.
func (s *Session) UI() Interface { return s.ui }

// Breakpoints returns the breakpoint table.
func (s *Session) Breakpoints() *BreakpointTable { return s.breakpoints }

// Settings returns the session settings.
func (s *Session) Settings() *Settings { return s.settings }

// Registry returns the command registry.
func (s *Session) Registry() *Registry { return s.registry }

// Sources returns the source cache used for listings.
func (s *Session) Sources() *SourceCache { return s.sources }

// Process returns the process port used by kill and restart.
func (s *Session) Process() Process { return s.proc }

// Invocation returns the saved command line of the debuggee.
func (s *Session) Invocation() Invocation { return s.invocation }

// Logger returns the session's log entry.
func (s *Session) Logger() *logrus.Entry { return s.log }

// Paths returns the path style selected by the current settings.
func (s *Session) Paths() PathStyle {
	return s.settings.PathStyle(s.dir)
}

// Start initializes settings and registers the session as the runtime's
// hook.
func (s *Session) Start() error {
	s.mu.Lock()
	if s.started {
		s.mu.Unlock()
		return errors.New("session already started")
	}
	s.settings.Reset()
	for name, value := range s.overrides {
		if err := s.settings.Set(name, value); err != nil {
			s.mu.Unlock()
			return fmt.Errorf("setting %s: %w", name, err)
		}
	}
	s.contexts = make(map[int]*Context)
	s.evaluating = make(map[int]int)
	s.active = nil
	s.started = true
	s.mu.Unlock()

	s.stopMu.Lock()
	s.initDone = false
	s.stopMu.Unlock()
	s.entryPending.Store(s.stopOnEntry)
	s.pauseRequested.Store(false)
	s.terminate.Store(false)

	s.rt.SetHook(s)
	s.log.Debug("session started")
	return nil
}

// Stop unregisters the session from the runtime, clears the breakpoint
// table and discards every context.  Threads blocked waiting to stop
// resume without stopping.
func (s *Session) Stop() {
	s.mu.Lock()
	if !s.started {
		s.mu.Unlock()
		return
	}
	s.started = false
	contexts := s.contexts
	s.contexts = nil
	s.active = nil
	s.evaluating = nil
	s.mu.Unlock()

	s.rt.SetHook(nil)
	s.breakpoints.Clear()
	for _, ctx := range contexts {
		ctx.discard()
	}
	if err := s.ui.Flush(); err != nil {
		s.log.WithError(err).Debug("flush interface")
	}
	s.log.Debug("session stopped")
}

// Started reports whether the session is receiving events.
func (s *Session) Started() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.started
}

// RequestPause makes the next line event of any thread stop.
func (s *Session) RequestPause() {
	s.pauseRequested.Store(true)
}

// Active returns the context of the stopped thread, or nil when no thread
// is stopped.
func (s *Session) Active() *Context {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.active
}

// Terminate asks the runtime to abandon the script once the stopped thread
// resumes.  It is used by quit.
func (s *Session) Terminate() {
	s.terminate.Store(true)
}

func (s *Session) setActive(ctx *Context) {
	s.mu.Lock()
	s.active = ctx
	s.mu.Unlock()
}

func (s *Session) context(thread int) *Context {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.contexts[thread]
}

func (s *Session) contextFor(thread int) *Context {
	s.mu.Lock()
	defer s.mu.Unlock()
	ctx, ok := s.contexts[thread]
	if !ok {
		ctx = newContext(thread)
		if s.contexts != nil {
			s.contexts[thread] = ctx
		}
	}
	return ctx
}

func (s *Session) isEvaluating(thread int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.evaluating[thread] > 0
}

// Evaluate evaluates expr in the scope of the selected frame of ctx.
// Runtime events fired by the evaluation are ignored.
func (s *Session) Evaluate(ctx *Context, expr string) (any, error) {
	return s.evaluate(ctx.Thread, ctx.Scope(), expr)
}

func (s *Session) evaluate(thread int, scope Scope, expr string) (any, error) {
	s.mu.Lock()
	if s.evaluating != nil {
		s.evaluating[thread]++
	}
	s.mu.Unlock()
	defer func() {
		s.mu.Lock()
		if s.evaluating != nil {
			s.evaluating[thread]--
			if s.evaluating[thread] <= 0 {
				delete(s.evaluating, thread)
			}
		}
		s.mu.Unlock()
	}()
	v, err := s.rt.Evaluate(scope, expr)
	if err != nil {
		return nil, &EvaluationError{Expr: expr, Err: err}
	}
	return v, nil
}

// Truthy reports whether a condition value allows a stop: everything but
// nil and false is true.
func Truthy(v any) bool {
	switch v := v.(type) {
	case nil:
		return false
	case bool:
		return v
	}
	return true
}

// OnEvent implements Hook.
func (s *Session) OnEvent(ev Event) Directive {
	if !s.Started() || s.isEvaluating(ev.Thread) {
		return DirectiveContinue
	}
	ev.Location = eventLocation(ev.Location)
	switch ev.Kind {
	case EventThreadBegin:
		s.log.WithField("thread", ev.Thread).Debug("thread started")
	case EventThreadEnd:
		s.threadEnded(ev.Thread)
	case EventLine:
		return s.onLine(ev)
	case EventCall:
		return s.onCall(ev)
	case EventReturn:
		if ctx := s.context(ev.Thread); ctx != nil && ctx.stepper.ShouldPauseReturn(ev.Depth) {
			return s.stop(ev, StopStep, nil)
		}
	case EventRaise:
		if ev.Uncaught && s.settings.Bool(SettingPostMortem) {
			return s.stop(ev, StopException, nil)
		}
	case EventPause:
		return s.stop(ev, StopPause, nil)
	}
	return DirectiveContinue
}

func eventLocation(loc Location) Location {
	if loc.File == "" || filepath.IsAbs(loc.File) {
		return loc
	}
	return normalizeLocation(loc)
}

func (s *Session) onLine(ev Event) Directive {
	if s.settings.Bool(SettingLinetrace) {
		Printf(s.ui, "Tracing: %s:%d %s",
			s.Paths().Render(ev.Location.File), ev.Location.Line, s.sources.Line(ev.Location.File, ev.Location.Line))
	}
	stop, reason := false, StopStep
	switch {
	case s.entryPending.CompareAndSwap(true, false):
		stop, reason = true, StopEntry
	case s.pauseRequested.CompareAndSwap(true, false):
		stop, reason = true, StopPause
	}
	if ctx := s.context(ev.Thread); ctx != nil {
		if ctx.stepper.ShouldPause(ev.Depth) && !stop {
			stop, reason = true, StopStep
		}
		if !ctx.target.IsZero() && ctx.target == ev.Location {
			ctx.target = Location{}
			stop = true
		}
	}
	bp := s.hitTest(ev, Point{Location: ev.Location})
	if bp != nil {
		return s.stop(ev, StopBreakpoint, bp)
	}
	if stop {
		return s.stop(ev, reason, nil)
	}
	return DirectiveContinue
}

func (s *Session) onCall(ev Event) Directive {
	if ev.Method == "" || !s.breakpoints.HasMethodTargets() {
		return DirectiveContinue
	}
	if bp := s.hitTest(ev, Point{Method: ev.Method}); bp != nil {
		return s.stop(ev, StopBreakpoint, bp)
	}
	return DirectiveContinue
}

func (s *Session) hitTest(ev Event, pt Point) *Breakpoint {
	if s.breakpoints.Len() == 0 {
		return nil
	}
	bp, warn := s.breakpoints.HitTest(pt, s.conditionFunc(ev.Thread))
	if warn != nil {
		s.log.WithError(warn).Warn("breakpoint condition")
		s.ui.PrintError(fmt.Sprintf("Warning: %v", warn))
	}
	return bp
}

// conditionFunc evaluates breakpoint conditions in the innermost frame of
// thread.  The frames are only requested when a condition needs them.
func (s *Session) conditionFunc(thread int) ConditionFunc {
	var (
		scope  Scope
		loaded bool
	)
	return func(cond string) (bool, error) {
		if !loaded {
			records, err := s.rt.Frames(thread)
			if err != nil {
				return false, err
			}
			if len(records) > 0 {
				scope = records[0].Scope
			}
			loaded = true
		}
		v, err := s.evaluate(thread, scope, cond)
		if err != nil {
			return false, err
		}
		return Truthy(v), nil
	}
}

func (s *Session) threadEnded(thread int) {
	s.mu.Lock()
	ctx := s.contexts[thread]
	delete(s.contexts, thread)
	s.mu.Unlock()
	if ctx != nil {
		ctx.Dead = true
		ctx.discard()
	}
	s.log.WithField("thread", thread).Debug("thread finished")
}

// stop captures the stopped thread's context and runs the command loop
// until a command resumes execution.
func (s *Session) stop(ev Event, reason StopReason, bp *Breakpoint) Directive {
	s.stopMu.Lock()
	defer s.stopMu.Unlock()
	if !s.Started() {
		return DirectiveContinue
	}

	records, err := s.rt.Frames(ev.Thread)
	if err != nil {
		s.log.WithError(err).WithField("thread", ev.Thread).Warn("capture frames")
	}
	ctx := s.contextFor(ev.Thread)
	ctx.refresh(Capture(records), ev.Depth, reason, bp)
	ctx.Dead = reason == StopException
	if reason == StopException {
		ctx.Err = ev.Err
	}
	s.setActive(ctx)
	defer s.setActive(nil)

	spanCtx, span := s.tracer.startStop(ctx, ev)
	defer span.End()
	st := stopTrace{ctx: spanCtx, tracer: s.tracer}
	s.log.WithFields(logrus.Fields{
		"thread":   ev.Thread,
		"reason":   reason.String(),
		"location": ev.Location.String(),
	}).Debug("stopped")

	s.list = listState{}
	s.printStop(ctx, ev)

	res := Continue
	if !s.initDone {
		s.initDone = true
		if s.initFile != "" {
			res, err = s.sourceFile(ctx, s.initFile, st)
			if err != nil {
				s.ui.PrintError(err.Error())
			}
		}
	}
	if res == Continue {
		res = s.dispatcher.run(ctx, st)
	}
	ctx.release()
	if err := s.ui.Flush(); err != nil {
		s.log.WithError(err).Debug("flush interface")
	}
	if res == End {
		s.Stop()
		if s.terminate.Load() {
			return DirectiveTerminate
		}
	}
	return DirectiveContinue
}

func (s *Session) printStop(ctx *Context, ev Event) {
	paths := s.Paths()
	switch {
	case ctx.Breakpoint != nil:
		Printf(s.ui, "Stopped by breakpoint %d at %s:%d",
			ctx.Breakpoint.ID, paths.Render(ev.Location.File), ev.Location.Line)
	case ctx.Reason == StopException && ev.Err != nil:
		Printf(s.ui, "Uncaught %s: %v", TypeName(ev.Err), ev.Err)
	}
	if s.settings.Bool(SettingAutolist) {
		s.printListing(ctx.Location(), s.settings.Int(SettingListsize))
	}
}

// listState remembers the last listed range so that list can continue
// from it.
type listState struct {
	file        string
	first, last int
}

// printListing prints a window of size lines centered on loc.
func (s *Session) printListing(loc Location, size int) {
	if loc.File == "" {
		return
	}
	first, last, err := s.sources.Window(loc.File, loc.Line, size)
	if err != nil {
		Printf(s.ui, "No sourcefile available for %s", s.Paths().Render(loc.File))
		return
	}
	s.printRange(loc.File, first, last, loc.Line)
}

func (s *Session) printRange(file string, first, last, current int) {
	for _, line := range s.sources.Listing(file, first, last, current, s.Paths()) {
		s.ui.Print(line)
	}
	s.list = listState{file: file, first: first, last: last}
}

// sourceFile runs the commands in path as if they were typed while ctx is
// stopped.  Empty lines and lines starting with # are skipped.  It stops
// early when a command resumes execution or ends the session.
func (s *Session) sourceFile(ctx *Context, path string, st stopTrace) (Result, error) {
	lines, err := readCommandFile(path)
	if err != nil {
		return Continue, userErrorf("cannot read command file %s: %v", path, err)
	}
	for _, line := range lines {
		res, _ := s.dispatcher.execute(ctx, line, st)
		if res != Continue {
			return res, nil
		}
	}
	return Continue, nil
}

func readCommandFile(path string) ([]string, error) {
	b, err := os.ReadFile(path) //#nosec G304
	if err != nil {
		return nil, err
	}
	var lines []string
	for _, line := range strings.Split(string(b), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		lines = append(lines, line)
	}
	return lines, nil
}
