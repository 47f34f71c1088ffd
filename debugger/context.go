// Copyright © 2018 The ELPS authors

package debugger

// StopReason describes why a thread stopped.
type StopReason int

const (
	StopEntry StopReason = iota
	StopBreakpoint
	StopStep
	StopPause
	StopException
)

var stopReasonStrings = []string{
	StopEntry:      "entry",
	StopBreakpoint: "breakpoint",
	StopStep:       "step",
	StopPause:      "pause",
	StopException:  "exception",
}

func (r StopReason) String() string {
	if r < 0 || int(r) >= len(stopReasonStrings) {
		return "unknown"
	}
	return stopReasonStrings[r]
}

// Context is the debugger's view of one script thread.  It is created at
// the thread's first stop and refreshed at every later one.
type Context struct {
	Thread int
	// Reason and Breakpoint describe the current (or last) stop.
	Reason     StopReason
	Breakpoint *Breakpoint
	// Err is the raised error when Reason is StopException.
	Err error
	// Dead is set once the thread finished or stopped post mortem.
	// Execution control commands other than continue are unavailable.
	Dead bool

	stack    *FrameStack
	selected int
	depth    int
	stepper  *Stepper
	// target is the location of a pending continue-to-line.
	target Location
}

func newContext(thread int) *Context {
	return &Context{
		Thread:  thread,
		stepper: NewStepper(),
	}
}

// refresh installs the stack captured at a new stop and resets the
// selection to the innermost frame.  Step state and a continue target left
// over from an interrupted request are dropped; the resuming command arms
// them again.
func (c *Context) refresh(stack *FrameStack, depth int, reason StopReason, bp *Breakpoint) {
	c.stepper.Reset()
	c.target = Location{}
	c.stack = stack
	c.selected = 0
	c.depth = depth
	c.Reason = reason
	c.Breakpoint = bp
	c.Err = nil
}

// Stack returns the frame stack captured at the current stop.
func (c *Context) Stack() *FrameStack {
	return c.stack
}

// Selected returns the index of the selected frame.
func (c *Context) Selected() int {
	return c.selected
}

// Depth returns the event depth of the current stop.
func (c *Context) Depth() int {
	return c.depth
}

// Stepper returns the thread's step state.
func (c *Context) Stepper() *Stepper {
	return c.stepper
}

// Frame returns the selected frame.
func (c *Context) Frame() (*Frame, error) {
	return c.stack.FrameAt(c.selected)
}

// Select makes frame i the selected frame.
func (c *Context) Select(i int) (*Frame, error) {
	f, err := c.stack.FrameAt(i)
	if err != nil {
		return nil, err
	}
	c.selected = i
	return f, nil
}

// Location returns the location of the selected frame, or the zero
// Location when no frames were captured.
func (c *Context) Location() Location {
	f, err := c.Frame()
	if err != nil {
		return Location{}
	}
	return f.Location
}

// Scope returns the scope handle of the selected frame.
func (c *Context) Scope() Scope {
	f, err := c.Frame()
	if err != nil {
		return nil
	}
	return f.Scope
}

// release drops the frames of a stop once the thread resumes.  Step state
// and a pending continue target are kept.
func (c *Context) release() {
	c.stack = nil
	c.selected = 0
}

// discard drops everything borrowed from the runtime.
func (c *Context) discard() {
	c.stack = nil
	c.selected = 0
	c.Breakpoint = nil
	c.target = Location{}
	c.stepper.Reset()
}
