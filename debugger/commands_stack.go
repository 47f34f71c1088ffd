// Copyright © 2018 The ELPS authors

package debugger

import (
	"strconv"
	"strings"
)

func stackCommands() []*Command {
	return []*Command{
		{
			Names: []string{"where", "backtrace", "bt", "w"},
			Usage: "where [N]",
			Help:  "Displays the call stack of the stopped thread, innermost frame first, or only its N innermost frames.",
			Run:   runWhere,
		},
		{
			Names: []string{"frame", "f"},
			Usage: "frame [N]",
			Help:  "Selects frame N, counting from the innermost frame (0).  A negative N counts from the outermost frame.  Without N the selected frame is shown.",
			Run:   runFrame,
		},
		{
			Names:      []string{"up"},
			Usage:      "up [N]",
			Help:       "Selects the frame N (default 1) levels closer to the outermost frame.",
			Repeatable: true,
			Run: func(req *Request) (Result, error) {
				return moveFrame(req, 1)
			},
		},
		{
			Names:      []string{"down"},
			Usage:      "down [N]",
			Help:       "Selects the frame N (default 1) levels closer to the innermost frame.",
			Repeatable: true,
			Run: func(req *Request) (Result, error) {
				return moveFrame(req, -1)
			},
		},
	}
}

func runWhere(req *Request) (Result, error) {
	ctx := req.Context
	s := req.Session
	if ctx.stack.Len() == 0 {
		req.UI.Print("No frames.")
		return Continue, nil
	}
	limit, err := parseCount(req.Args, ctx.stack.Len())
	if err != nil {
		return Continue, err
	}
	lines := ctx.stack.Backtrace(ctx.Selected(), s.settings.Enum(SettingCallstyle), s.Paths())
	if limit < len(lines) {
		lines = lines[:limit]
	}
	for _, line := range lines {
		req.UI.Print(line)
	}
	return Continue, nil
}

func runFrame(req *Request) (Result, error) {
	ctx := req.Context
	arg := strings.TrimSpace(req.Args)
	if arg == "" {
		return Continue, showFrame(req)
	}
	n, err := strconv.Atoi(arg)
	if err != nil {
		return Continue, userErrorf("%q is not a frame number", arg)
	}
	if n < 0 {
		n += ctx.stack.Len()
	}
	if _, err := ctx.Select(n); err != nil {
		return Continue, err
	}
	return Continue, showFrame(req)
}

func moveFrame(req *Request, dir int) (Result, error) {
	ctx := req.Context
	n, err := parseCount(req.Args, 1)
	if err != nil {
		return Continue, err
	}
	target := ctx.Selected() + dir*n
	if target < 0 || target >= ctx.stack.Len() {
		if dir > 0 {
			return Continue, resolutionErrorf(ErrOutOfRange, "can't navigate beyond the oldest frame")
		}
		return Continue, resolutionErrorf(ErrOutOfRange, "can't navigate beyond the newest frame")
	}
	if _, err := ctx.Select(target); err != nil {
		return Continue, err
	}
	return Continue, showFrame(req)
}

// showFrame prints the selected frame and, with autolist on, its source.
func showFrame(req *Request) error {
	ctx := req.Context
	s := req.Session
	f, err := ctx.Frame()
	if err != nil {
		return err
	}
	req.UI.Print(FormatFrame(f, true, s.settings.Enum(SettingCallstyle), s.Paths()))
	if s.settings.Bool(SettingAutolist) {
		s.printListing(f.Location, s.settings.Int(SettingListsize))
	}
	return nil
}

// parseIndex parses an optional non-negative frame index.
func parseIndex(arg string, def int) (int, error) {
	arg = strings.TrimSpace(arg)
	if arg == "" {
		return def, nil
	}
	n, err := strconv.Atoi(arg)
	if err != nil || n < 0 {
		return 0, userErrorf("%q is not a frame number", arg)
	}
	return n, nil
}
