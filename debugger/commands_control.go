// Copyright © 2018 The ELPS authors

package debugger

import (
	"strconv"
	"strings"
)

func controlCommands() []*Command {
	return []*Command{
		{
			Names:      []string{"continue", "c"},
			Usage:      "continue [FILE:LINE | LINE]",
			Help:       "Resumes execution.  With a location, execution stops again when that line is reached.",
			Repeatable: true,
			Run:        runContinue,
		},
		{
			Names:      []string{"step", "s"},
			Usage:      "step [N]",
			Help:       "Steps N lines (default 1), entering called methods.",
			Repeatable: true,
			Run: func(req *Request) (Result, error) {
				return runStep(req, StepInto)
			},
		},
		{
			Names:      []string{"next", "n"},
			Usage:      "next [N]",
			Help:       "Steps N lines (default 1) in the selected frame, stepping over called methods.",
			Repeatable: true,
			Run: func(req *Request) (Result, error) {
				return runStep(req, StepOver)
			},
		},
		{
			Names: []string{"finish", "fin"},
			Usage: "finish [N]",
			Help:  "Runs until frame N (default: the selected frame) returns.",
			Run:   runFinish,
		},
		{
			Names: []string{"quit", "q", "exit"},
			Usage: "quit[!| unconditionally]",
			Help:  "Exits the debugger and abandons the script after confirmation.",
			Run:   runQuit,
		},
	}
}

func runContinue(req *Request) (Result, error) {
	ctx := req.Context
	if req.Args == "" {
		return Resume, nil
	}
	target, err := ParseTarget(req.Args, ctx.Location())
	if err != nil {
		return Continue, err
	}
	if target.Kind != TargetLine {
		return Continue, userErrorf("continue needs a line, got %s", req.Args)
	}
	if !req.Session.rt.Breakable(target.Location) {
		return Continue, resolutionErrorf(ErrInvalidLocation, "line %d is not a valid stopping point in file %s",
			target.Location.Line, target.Location.File)
	}
	ctx.target = target.Location
	return Resume, nil
}

func checkAlive(ctx *Context) error {
	if ctx.Dead {
		return userErrorf("execution control commands are not available in post-mortem mode")
	}
	return nil
}

func runStep(req *Request, mode StepMode) (Result, error) {
	ctx := req.Context
	if err := checkAlive(ctx); err != nil {
		return Continue, err
	}
	n, err := parseCount(req.Args, 1)
	if err != nil {
		return Continue, err
	}
	if mode == StepInto {
		ctx.stepper.SetStepInto(ctx.Depth(), n)
	} else {
		ctx.stepper.SetStepOver(ctx.Depth()-ctx.Selected(), n)
	}
	return Resume, nil
}

func runFinish(req *Request) (Result, error) {
	ctx := req.Context
	if err := checkAlive(ctx); err != nil {
		return Continue, err
	}
	frame, err := parseIndex(req.Args, ctx.Selected())
	if err != nil {
		return Continue, err
	}
	if _, err := ctx.stack.FrameAt(frame); err != nil {
		return Continue, err
	}
	ctx.stepper.SetStepOut(ctx.Depth() - frame)
	return Resume, nil
}

func runQuit(req *Request) (Result, error) {
	arg := strings.TrimSpace(req.Args)
	if arg != "!" && arg != "unconditionally" && !Confirm(req.UI, "Really quit?") {
		return Continue, nil
	}
	req.Session.Terminate()
	return End, nil
}

// parseCount parses an optional positive count argument.
func parseCount(arg string, def int) (int, error) {
	arg = strings.TrimSpace(arg)
	if arg == "" {
		return def, nil
	}
	n, err := strconv.Atoi(arg)
	if err != nil || n <= 0 {
		return 0, userErrorf("%q is not a positive number", arg)
	}
	return n, nil
}
