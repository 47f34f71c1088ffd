// Copyright © 2018 The ELPS authors

package debugger

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"sync"

	"go.uber.org/multierr"
)

// HitOp is the comparison applied by a hit condition.
type HitOp int

const (
	// HitAlways triggers on every hit.
	HitAlways HitOp = iota
	// HitAtLeast triggers once the hit count is >= Value.
	HitAtLeast
	// HitEqual triggers only when the hit count is == Value.
	HitEqual
	// HitMultiple triggers every Value-th hit.
	HitMultiple
)

// HitCondition restricts which hits of a breakpoint cause a stop.
type HitCondition struct {
	Op    HitOp
	Value int
}

// ParseHitCondition parses "OP N" where OP is one of ">=", "==" or "%".
// The empty string yields HitAlways.
func ParseHitCondition(s string) (HitCondition, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return HitCondition{}, nil
	}
	var hc HitCondition
	switch {
	case strings.HasPrefix(s, ">="):
		hc.Op, s = HitAtLeast, s[2:]
	case strings.HasPrefix(s, "=="):
		hc.Op, s = HitEqual, s[2:]
	case strings.HasPrefix(s, "%"):
		hc.Op, s = HitMultiple, s[1:]
	default:
		return HitCondition{}, userErrorf("invalid hit condition %q: expected >= N, == N or %% N", s)
	}
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || n <= 0 {
		return HitCondition{}, userErrorf("invalid hit count %q: must be a positive integer", strings.TrimSpace(s))
	}
	hc.Value = n
	return hc, nil
}

func (hc HitCondition) String() string {
	switch hc.Op {
	case HitAtLeast:
		return fmt.Sprintf(">= %d", hc.Value)
	case HitEqual:
		return fmt.Sprintf("== %d", hc.Value)
	case HitMultiple:
		return fmt.Sprintf("%% %d", hc.Value)
	default:
		return ""
	}
}

func (hc HitCondition) allows(hits int) bool {
	switch hc.Op {
	case HitAtLeast:
		return hits >= hc.Value
	case HitEqual:
		return hits == hc.Value
	case HitMultiple:
		return hc.Value > 0 && hits%hc.Value == 0
	default:
		return true
	}
}

// Breakpoint represents a location or method where execution should pause.
type Breakpoint struct {
	ID        int
	Target    Target
	Condition string // optional: expression evaluated in the stopping frame
	HitCond   HitCondition
	HitCount  int
	Enabled   bool
}

// Point is the position of a runtime event as seen by the breakpoint
// table: a source location for line events and a method for call events.
type Point struct {
	Location Location
	Method   string
}

func (bp *Breakpoint) matches(pt Point) bool {
	switch bp.Target.Kind {
	case TargetLine:
		return pt.Method == "" && bp.Target.Location == pt.Location
	case TargetMethod:
		return bp.Target.matchesMethod(pt.Method)
	default:
		return false
	}
}

// ConditionFunc evaluates a breakpoint condition in the scope of the
// stopping frame.
type ConditionFunc func(cond string) (bool, error)

// BreakpointTable holds the breakpoints of a session.  Hit testing scans
// breakpoints in insertion order.  All methods are safe for concurrent use
// and share one lock, so a mutation from the stopped thread never races a
// hit test from another thread.
type BreakpointTable struct {
	mu     sync.Mutex
	byID   map[int]*Breakpoint
	order  []*Breakpoint
	nextID int
}

// NewBreakpointTable returns an empty breakpoint table.
func NewBreakpointTable() *BreakpointTable {
	return &BreakpointTable{
		byID: make(map[int]*Breakpoint),
	}
}

// Add creates a breakpoint for target and returns a copy of it.  Line
// targets must be breakable according to breakable, which may be nil to
// accept every line.
func (t *BreakpointTable) Add(target Target, condition string, breakable func(Location) bool) (Breakpoint, error) {
	if target.Kind == TargetLine {
		if target.Location.File == "" || target.Location.Line <= 0 {
			return Breakpoint{}, resolutionErrorf(ErrInvalidLocation, "invalid breakpoint location: %s", target)
		}
		if breakable != nil && !breakable(target.Location) {
			return Breakpoint{}, resolutionErrorf(ErrInvalidLocation, "line %d is not a valid breakpoint in file %s", target.Location.Line, target.Location.File)
		}
	}
	if target.Kind == TargetMethod && target.Method == "" {
		return Breakpoint{}, resolutionErrorf(ErrInvalidLocation, "invalid breakpoint method: %s", target)
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	t.nextID++
	bp := &Breakpoint{
		ID:        t.nextID,
		Target:    target,
		Condition: strings.TrimSpace(condition),
		Enabled:   true,
	}
	t.byID[bp.ID] = bp
	t.order = append(t.order, bp)
	return *bp, nil
}

// Get returns a copy of the breakpoint with the given id.
func (t *BreakpointTable) Get(id int) (Breakpoint, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	bp, err := t.lookup(id)
	if err != nil {
		return Breakpoint{}, err
	}
	return *bp, nil
}

func (t *BreakpointTable) lookup(id int) (*Breakpoint, error) {
	bp, ok := t.byID[id]
	if !ok {
		return nil, resolutionErrorf(ErrUnknownBreakpoint, "no breakpoint number %d", id)
	}
	return bp, nil
}

// Enable enables the breakpoint with the given id.
func (t *BreakpointTable) Enable(id int) error {
	return t.update(id, func(bp *Breakpoint) { bp.Enabled = true })
}

// Disable disables the breakpoint with the given id.
func (t *BreakpointTable) Disable(id int) error {
	return t.update(id, func(bp *Breakpoint) { bp.Enabled = false })
}

// SetCondition replaces the condition of a breakpoint.  An empty
// expression makes the breakpoint unconditional.
func (t *BreakpointTable) SetCondition(id int, expr string) error {
	expr = strings.TrimSpace(expr)
	return t.update(id, func(bp *Breakpoint) { bp.Condition = expr })
}

// SetHitCondition replaces the hit condition of a breakpoint.
func (t *BreakpointTable) SetHitCondition(id int, hc HitCondition) error {
	return t.update(id, func(bp *Breakpoint) { bp.HitCond = hc })
}

func (t *BreakpointTable) update(id int, fn func(*Breakpoint)) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	bp, err := t.lookup(id)
	if err != nil {
		return err
	}
	fn(bp)
	return nil
}

// Delete removes the breakpoint with the given id.  Its id is never
// reused.
func (t *BreakpointTable) Delete(id int) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, err := t.lookup(id); err != nil {
		return err
	}
	delete(t.byID, id)
	for i, bp := range t.order {
		if bp.ID == id {
			t.order = append(t.order[:i:i], t.order[i+1:]...)
			break
		}
	}
	return nil
}

// Clear removes every breakpoint.  The id counter is preserved.
func (t *BreakpointTable) Clear() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.byID = make(map[int]*Breakpoint)
	t.order = nil
}

// Len returns the number of breakpoints.
func (t *BreakpointTable) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.order)
}

// All returns copies of all breakpoints sorted by id.
func (t *BreakpointTable) All() []Breakpoint {
	t.mu.Lock()
	defer t.mu.Unlock()
	result := make([]Breakpoint, 0, len(t.order))
	for _, bp := range t.order {
		result = append(result, *bp)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result
}

// HasMethodTargets reports whether any enabled breakpoint targets a method.
// The session uses it to skip hit testing of call events.
func (t *BreakpointTable) HasMethodTargets() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	for _, bp := range t.order {
		if bp.Enabled && bp.Target.Kind == TargetMethod {
			return true
		}
	}
	return false
}

// HitTest tests every enabled breakpoint matching pt in insertion order.
// Breakpoints whose condition holds have their hit count incremented and
// their hit condition applied; the first one that passes both is returned
// as a copy.  Conditions that fail to evaluate are treated as non-matching
// and reported through the returned warning error, which may be non-nil
// even when a breakpoint is returned.
func (t *BreakpointTable) HitTest(pt Point, cond ConditionFunc) (*Breakpoint, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	var (
		hit  *Breakpoint
		warn error
	)
	for _, bp := range t.order {
		if !bp.Enabled || !bp.matches(pt) {
			continue
		}
		if bp.Condition != "" {
			if cond == nil {
				continue
			}
			ok, err := cond(bp.Condition)
			if err != nil {
				warn = multierr.Append(warn, fmt.Errorf("breakpoint %d: %w", bp.ID, err))
				continue
			}
			if !ok {
				continue
			}
		}
		bp.HitCount++
		if hit == nil && bp.HitCond.allows(bp.HitCount) {
			cp := *bp
			hit = &cp
		}
	}
	return hit, warn
}
