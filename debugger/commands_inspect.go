// Copyright © 2018 The ELPS authors

package debugger

import (
	"strconv"
	"strings"

	"github.com/muesli/reflow/indent"
	"github.com/muesli/reflow/wordwrap"
)

// helpWidth is the column help text is wrapped at.
const helpWidth = 72

func inspectCommands() []*Command {
	return []*Command{
		{
			Names: []string{"eval", "p", "print"},
			Usage: "eval EXPR",
			Help:  "Evaluates EXPR in the scope of the selected frame and prints the result.  Evaluation never resumes the script.",
			Run:   runEval,
		},
		{
			Names:      []string{"list", "l"},
			Usage:      "list [- | = | FIRST[,LAST]]",
			Help:       "Lists source lines.  Without an argument the listing continues after the last one; \"-\" lists backwards and \"=\" lists around the current line.",
			Repeatable: true,
			Run:        runList,
		},
		{
			Names: []string{"source"},
			Usage: "source FILE",
			Help:  "Runs the debugger commands in FILE.  Empty lines and lines starting with # are ignored.",
			Run:   runSource,
		},
		{
			Names: []string{"help", "h"},
			Usage: "help [COMMAND]",
			Help:  "Lists the available commands, or describes COMMAND.",
			Run:   runHelp,
		},
	}
}

func runEval(req *Request) (Result, error) {
	if req.Args == "" {
		return Continue, userErrorf("\"eval\" must be followed by an expression")
	}
	v, err := req.Session.Evaluate(req.Context, req.Args)
	if err != nil {
		return Continue, err
	}
	req.UI.Print(FormatValue(v))
	return Continue, nil
}

func runList(req *Request) (Result, error) {
	s := req.Session
	loc := req.Context.Location()
	size := s.settings.Int(SettingListsize)
	arg := strings.TrimSpace(req.Args)

	if arg == "=" || (s.list.file == "" && (arg == "" || arg == "-")) {
		if loc.File == "" {
			return Continue, userErrorf("no current source file")
		}
		s.printListing(loc, size)
		return Continue, nil
	}

	file := s.list.file
	if file == "" {
		file = loc.File
	}
	lines, err := s.sources.Lines(file)
	if err != nil {
		return Continue, userErrorf("no sourcefile available for %s", s.Paths().Render(file))
	}
	var first, last int
	switch arg {
	case "":
		first = s.list.last + 1
		last = first + size - 1
	case "-":
		last = s.list.first - 1
		first = last - size + 1
	default:
		first, last, err = parseListRange(arg, size)
		if err != nil {
			return Continue, err
		}
	}
	if first < 1 {
		first = 1
	}
	if last > len(lines) {
		last = len(lines)
	}
	if first > len(lines) {
		return Continue, userErrorf("line number %d out of range; %s has %d lines", first, s.Paths().Render(file), len(lines))
	}
	if last < first {
		return Continue, userErrorf("already at the beginning of %s", s.Paths().Render(file))
	}
	current := 0
	if file == loc.File {
		current = loc.Line
	}
	s.printRange(file, first, last, current)
	return Continue, nil
}

// parseListRange parses "FIRST" (centered window), "FIRST,LAST" or
// "FIRST-LAST".
func parseListRange(arg string, size int) (first, last int, err error) {
	sep := strings.IndexAny(arg, ",-")
	if sep < 0 {
		n, err := strconv.Atoi(arg)
		if err != nil {
			return 0, 0, userErrorf("invalid line range %q", arg)
		}
		first = n - size/2
		return first, first + size - 1, nil
	}
	first, err1 := strconv.Atoi(strings.TrimSpace(arg[:sep]))
	last, err2 := strconv.Atoi(strings.TrimSpace(arg[sep+1:]))
	if err1 != nil || err2 != nil || last < first {
		return 0, 0, userErrorf("invalid line range %q", arg)
	}
	return first, last, nil
}

func runSource(req *Request) (Result, error) {
	path := strings.TrimSpace(req.Args)
	if path == "" {
		return Continue, userErrorf("\"source\" must be followed by a file name")
	}
	return req.Session.sourceFile(req.Context, path, req.trace)
}

func runHelp(req *Request) (Result, error) {
	reg := req.Session.registry
	name := strings.TrimSpace(req.Args)
	if name == "" {
		req.UI.Print("Available commands:")
		for _, cmd := range reg.Commands() {
			names := cmd.Name()
			if len(cmd.Names) > 1 {
				names += " (" + strings.Join(cmd.Names[1:], ", ") + ")"
			}
			Printf(req.UI, "  %-28s %s", names, firstSentence(cmd.Help))
		}
		req.UI.Print("Type 'help COMMAND' for more information on a command.")
		return Continue, nil
	}
	cmd, err := reg.Resolve(name)
	if err != nil {
		return Continue, err
	}
	req.UI.Print(cmd.Usage)
	if len(cmd.Names) > 1 {
		Printf(req.UI, "Aliases: %s", strings.Join(cmd.Names[1:], ", "))
	}
	req.UI.Print("")
	for _, line := range strings.Split(indent.String(wordwrap.String(cmd.Help, helpWidth), 2), "\n") {
		req.UI.Print(line)
	}
	return Continue, nil
}

func firstSentence(s string) string {
	if i := strings.Index(s, ".  "); i >= 0 {
		return s[:i+1]
	}
	return s
}
