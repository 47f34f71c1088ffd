// Copyright © 2018 The ELPS authors

package debugger

// StepMode represents the current stepping behavior.
type StepMode int

const (
	// StepNone means no stepping is active (free-running).
	StepNone StepMode = iota
	// StepInto pauses on the next line event regardless of depth.
	StepInto
	// StepOver pauses on the next line event where stack depth <= recorded
	// depth.
	StepOver
	// StepOut pauses once the frame at the recorded depth returns.
	StepOut
)

func (m StepMode) String() string {
	switch m {
	case StepInto:
		return "step"
	case StepOver:
		return "next"
	case StepOut:
		return "finish"
	default:
		return "none"
	}
}

// Stepper implements the step state machine of one thread.  It tracks the
// step mode, the reference stack depth and the number of qualifying line
// events still to skip.
//
// Thread safety: Stepper is NOT safe for concurrent use.  It is owned by a
// Context and only touched by the thread that Context describes, either
// from the command loop or from OnEvent.
type Stepper struct {
	mode  StepMode
	depth int // stack depth when the step command was issued
	count int // qualifying events remaining before a pause
}

// NewStepper returns a stepper in the StepNone state.
func NewStepper() *Stepper {
	return &Stepper{}
}

// Mode returns the current step mode.
func (s *Stepper) Mode() StepMode {
	return s.mode
}

// Depth returns the reference stack depth recorded when the step command
// was issued.
func (s *Stepper) Depth() int {
	return s.depth
}

// Reset clears the stepper to StepNone (free-running).
func (s *Stepper) Reset() {
	s.mode = StepNone
	s.depth = 0
	s.count = 0
}

// SetStepInto configures the stepper to pause on the n-th next line event.
func (s *Stepper) SetStepInto(currentDepth, n int) {
	s.set(StepInto, currentDepth, n)
}

// SetStepOver configures the stepper to pause on the n-th next line event
// at the same or lesser stack depth.
func (s *Stepper) SetStepOver(currentDepth, n int) {
	s.set(StepOver, currentDepth, n)
}

// SetStepOut configures the stepper to pause when the frame at
// frameDepth returns.
func (s *Stepper) SetStepOut(frameDepth int) {
	s.set(StepOut, frameDepth, 1)
}

func (s *Stepper) set(mode StepMode, depth, n int) {
	if n < 1 {
		n = 1
	}
	s.mode = mode
	s.depth = depth
	s.count = n
}

// qualifies decrements the remaining count and reports whether it reached
// zero, resetting the stepper when it did.
func (s *Stepper) qualifies() bool {
	s.count--
	if s.count > 0 {
		return false
	}
	s.Reset()
	return true
}

// ShouldPause returns true if the stepper should cause a pause at a line
// event with the given stack depth.  After returning true, the stepper
// resets to StepNone.
func (s *Stepper) ShouldPause(currentDepth int) bool {
	switch s.mode {
	case StepInto:
		return s.qualifies()
	case StepOver:
		if currentDepth > s.depth {
			// Inside a called method, skip.
			return false
		}
		if currentDepth < s.depth {
			// The enclosing call completed; later lines count against the
			// new depth.
			s.depth = currentDepth
		}
		return s.qualifies()
	case StepOut:
		// Return events may not be delivered for every frame (e.g. frames
		// unwound by a raise), so a line in a caller also completes the step.
		if currentDepth < s.depth {
			s.Reset()
			return true
		}
		return false
	default:
		return false
	}
}

// ShouldPauseReturn returns true if a step-out should pause at a return
// event fired with the given stack depth, before the frame is popped.
func (s *Stepper) ShouldPauseReturn(currentDepth int) bool {
	if s.mode == StepOut && currentDepth <= s.depth {
		s.Reset()
		return true
	}
	return false
}
