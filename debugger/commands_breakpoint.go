// Copyright © 2018 The ELPS authors

package debugger

import (
	"fmt"
	"strconv"
	"strings"
)

func breakpointCommands() []*Command {
	return []*Command{
		{
			Names: []string{"break", "b"},
			Usage: "break [FILE:LINE | LINE | [Class(#|.)]method] [if EXPR]",
			Help: "Sets a breakpoint.  Without a location the breakpoint is set on the current line of the selected frame. " +
				"A breakpoint with a condition only stops when EXPR evaluates to a value other than nil or false in the scope of the stopping frame.",
			Run: runBreak,
		},
		{
			Names: []string{"delete", "d"},
			Usage: "delete [ID ...]",
			Help:  "Deletes the given breakpoints, or every breakpoint after confirmation.  Deleted ids are never reused.",
			Run:   runDelete,
		},
		{
			Names: []string{"enable"},
			Usage: "enable [breakpoints] [ID ...]",
			Help:  "Enables the given breakpoints, or every breakpoint.",
			Run: func(req *Request) (Result, error) {
				return toggleBreakpoints(req, true)
			},
		},
		{
			Names: []string{"disable"},
			Usage: "disable [breakpoints] [ID ...]",
			Help:  "Disables the given breakpoints, or every breakpoint.  A disabled breakpoint keeps its hit count.",
			Run: func(req *Request) (Result, error) {
				return toggleBreakpoints(req, false)
			},
		},
		{
			Names: []string{"condition"},
			Usage: "condition ID [EXPR]",
			Help:  "Sets the condition of a breakpoint.  Without EXPR the breakpoint becomes unconditional.",
			Run:   runCondition,
		},
		{
			Names: []string{"hits"},
			Usage: "hits ID [>= N | == N | % N]",
			Help:  "Sets the hit condition of a breakpoint.  Without an operator the breakpoint stops on every hit.",
			Run:   runHits,
		},
		{
			Names: []string{"info", "i"},
			Usage: "info (breakpoints | args)",
			Help:  "Shows the breakpoint table, or the arguments of the selected frame.",
			Run:   runInfo,
		},
	}
}

// splitCondition separates "LOCATION if EXPR".
func splitCondition(args string) (loc, cond string) {
	if strings.HasPrefix(args, "if ") {
		return "", strings.TrimSpace(args[3:])
	}
	if i := strings.Index(args, " if "); i >= 0 {
		return strings.TrimSpace(args[:i]), strings.TrimSpace(args[i+4:])
	}
	return strings.TrimSpace(args), ""
}

func runBreak(req *Request) (Result, error) {
	loc, cond := splitCondition(req.Args)
	current := req.Context.Location()
	var (
		target Target
		err    error
	)
	if loc == "" {
		if current.IsZero() {
			return Continue, resolutionErrorf(ErrInvalidLocation, "no current line to set a breakpoint on")
		}
		target = Target{Kind: TargetLine, Location: current}
	} else {
		target, err = ParseTarget(loc, current)
		if err != nil {
			return Continue, err
		}
	}
	s := req.Session
	bp, err := s.breakpoints.Add(target, cond, s.rt.Breakable)
	if err != nil {
		return Continue, err
	}
	Printf(req.UI, "Successfully created breakpoint with id %d", bp.ID)
	return Continue, nil
}

func runDelete(req *Request) (Result, error) {
	table := req.Session.breakpoints
	fields := req.Fields()
	if len(fields) == 0 {
		if table.Len() == 0 {
			return Continue, nil
		}
		if Confirm(req.UI, "Delete all breakpoints?") {
			table.Clear()
		}
		return Continue, nil
	}
	ids, err := parseIDs(fields)
	if err != nil {
		return Continue, err
	}
	for _, id := range ids {
		if err := table.Delete(id); err != nil {
			return Continue, err
		}
		Printf(req.UI, "Deleted breakpoint %d", id)
	}
	return Continue, nil
}

func toggleBreakpoints(req *Request, enable bool) (Result, error) {
	table := req.Session.breakpoints
	fields := req.Fields()
	if len(fields) > 0 && strings.HasPrefix("breakpoints", fields[0]) {
		fields = fields[1:]
	}
	var ids []int
	if len(fields) == 0 {
		for _, bp := range table.All() {
			ids = append(ids, bp.ID)
		}
	} else {
		var err error
		if ids, err = parseIDs(fields); err != nil {
			return Continue, err
		}
	}
	for _, id := range ids {
		var err error
		if enable {
			err = table.Enable(id)
		} else {
			err = table.Disable(id)
		}
		if err != nil {
			return Continue, err
		}
	}
	return Continue, nil
}

func runCondition(req *Request) (Result, error) {
	idStr, expr := splitCommand(req.Args)
	if idStr == "" {
		return Continue, userErrorf("\"condition\" must be followed by a breakpoint number")
	}
	id, err := parseID(idStr)
	if err != nil {
		return Continue, err
	}
	return Continue, req.Session.breakpoints.SetCondition(id, expr)
}

func runHits(req *Request) (Result, error) {
	idStr, rest := splitCommand(req.Args)
	if idStr == "" {
		return Continue, userErrorf("\"hits\" must be followed by a breakpoint number")
	}
	id, err := parseID(idStr)
	if err != nil {
		return Continue, err
	}
	hc, err := ParseHitCondition(rest)
	if err != nil {
		return Continue, err
	}
	return Continue, req.Session.breakpoints.SetHitCondition(id, hc)
}

func runInfo(req *Request) (Result, error) {
	sub, _ := splitCommand(req.Args)
	switch {
	case sub == "":
		return Continue, userErrorf("\"info\" must be followed by the name of an info command: breakpoints, args")
	case strings.HasPrefix("breakpoints", sub):
		printBreakpoints(req)
	case strings.HasPrefix("args", sub):
		return Continue, printArgs(req)
	default:
		return Continue, userErrorf("unknown info command %q", sub)
	}
	return Continue, nil
}

func printBreakpoints(req *Request) {
	bps := req.Session.breakpoints.All()
	if len(bps) == 0 {
		req.UI.Print("No breakpoints.")
		return
	}
	paths := req.Session.Paths()
	req.UI.Print("Num Enb What")
	for _, bp := range bps {
		enb := "n"
		if bp.Enabled {
			enb = "y"
		}
		what := ""
		if bp.Target.Kind == TargetLine {
			what = fmt.Sprintf("at %s:%d", paths.Render(bp.Target.Location.File), bp.Target.Location.Line)
		} else {
			what = "in " + bp.Target.String()
		}
		if bp.Condition != "" {
			what += " if " + bp.Condition
		}
		Printf(req.UI, "%-3d %-3s %s", bp.ID, enb, what)
		if bp.HitCond.Op != HitAlways {
			Printf(req.UI, "\tstop only if hit count %s", bp.HitCond)
		}
		if bp.HitCount > 0 {
			Printf(req.UI, "\tbreakpoint already hit %d %s", bp.HitCount, plural(bp.HitCount, "time", "times"))
		}
	}
}

func printArgs(req *Request) error {
	f, err := req.Context.Frame()
	if err != nil {
		return err
	}
	if len(f.Args) == 0 {
		req.UI.Print("No arguments.")
		return nil
	}
	for _, a := range f.Args {
		Printf(req.UI, "%s = %s", a.Name, FormatValue(a.Value))
	}
	return nil
}

func parseID(s string) (int, error) {
	id, err := strconv.Atoi(s)
	if err != nil || id <= 0 {
		return 0, userErrorf("%q is not a valid breakpoint number", s)
	}
	return id, nil
}

func parseIDs(fields []string) ([]int, error) {
	ids := make([]int, 0, len(fields))
	for _, f := range fields {
		id, err := parseID(f)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}
