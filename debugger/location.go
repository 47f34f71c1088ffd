// Copyright © 2024 The ELPS authors

package debugger

import (
	"path/filepath"
	"strconv"
	"strings"

	parsec "github.com/prataprc/goparsec"
)

/*
Breakpoint targets accept the following forms.

	target := file ':' line | line | method
	method := (receiver ('#' | '.'))? name
	receiver := Const ('::' Const)*
*/

// TargetKind distinguishes line targets from method targets.
type TargetKind int

const (
	TargetLine TargetKind = iota
	TargetMethod
)

// Target is the resolved subject of a breakpoint.
type Target struct {
	Kind     TargetKind
	Location Location // TargetLine
	Receiver string   // TargetMethod, optional
	Sep      string   // "#" (instance method) or "." (singleton method)
	Method   string   // TargetMethod
}

func (t Target) String() string {
	if t.Kind == TargetLine {
		return t.Location.String()
	}
	if t.Receiver == "" {
		return t.Method
	}
	return t.Receiver + t.Sep + t.Method
}

// matchesMethod reports whether a qualified method name delivered with a
// call event satisfies t.  A target without receiver matches the method
// name on any receiver.
func (t Target) matchesMethod(qualified string) bool {
	if t.Kind != TargetMethod || qualified == "" {
		return false
	}
	recv, sep, name := splitMethod(qualified)
	if name != t.Method {
		return false
	}
	if t.Receiver == "" {
		return true
	}
	if recv != t.Receiver {
		return false
	}
	return t.Sep == "" || sep == "" || sep == t.Sep
}

func splitMethod(s string) (recv, sep, name string) {
	i := strings.LastIndexAny(s, "#.")
	if i < 0 {
		return "", "", s
	}
	return s[:i], s[i : i+1], s[i+1:]
}

type targetNode struct {
	target Target
	file   string // unresolved file for line targets
	err    error
}

func newTargetParser() parsec.Parser {
	file := parsec.Token(`[^\s:]+`, "FILE")
	colon := parsec.Atom(":", "COLON")
	line := parsec.Token(`[0-9]+`, "LINE")
	method := parsec.Token(`(?:[A-Za-z_]\w*(?:::[A-Za-z_]\w*)*[#.])?[A-Za-z_]\w*[?!=]?`, "METHOD")

	fileLine := parsec.And(func(nodes []parsec.ParsecNode) parsec.ParsecNode {
		f := nodes[0].(*parsec.Terminal).Value
		n, err := strconv.Atoi(nodes[2].(*parsec.Terminal).Value)
		return &targetNode{
			target: Target{Kind: TargetLine, Location: Location{Line: n}},
			file:   f,
			err:    err,
		}
	}, file, colon, line, parsec.End())
	lineOnly := parsec.And(func(nodes []parsec.ParsecNode) parsec.ParsecNode {
		n, err := strconv.Atoi(nodes[0].(*parsec.Terminal).Value)
		return &targetNode{
			target: Target{Kind: TargetLine, Location: Location{Line: n}},
			err:    err,
		}
	}, line, parsec.End())
	methodOnly := parsec.And(func(nodes []parsec.ParsecNode) parsec.ParsecNode {
		recv, sep, name := splitMethod(nodes[0].(*parsec.Terminal).Value)
		return &targetNode{
			target: Target{Kind: TargetMethod, Receiver: recv, Sep: sep, Method: name},
		}
	}, method, parsec.End())
	return parsec.OrdChoice(nil, fileLine, lineOnly, methodOnly)
}

// ParseTarget parses a breakpoint target.  Relative files are resolved
// against the working directory and a bare line number refers to the file
// of current, which must then be non-zero.
func ParseTarget(spec string, current Location) (Target, error) {
	spec = strings.TrimSpace(spec)
	if spec == "" {
		return Target{}, resolutionErrorf(ErrInvalidLocation, "no breakpoint location given")
	}
	root, _ := newTargetParser()(parsec.NewScanner([]byte(spec)))
	node := firstTargetNode(root)
	if node == nil {
		return Target{}, resolutionErrorf(ErrInvalidLocation, "invalid breakpoint location: %s", spec)
	}
	if node.err != nil {
		return Target{}, resolutionErrorf(ErrInvalidLocation, "invalid line number in %s: %v", spec, node.err)
	}
	t := node.target
	if t.Kind == TargetMethod {
		return t, nil
	}
	if t.Location.Line <= 0 {
		return Target{}, resolutionErrorf(ErrInvalidLocation, "line number must be positive: %s", spec)
	}
	switch {
	case node.file != "":
		t.Location.File = normalizePath(node.file)
	case current.File != "":
		t.Location.File = current.File
	default:
		return Target{}, resolutionErrorf(ErrInvalidLocation, "no current file for line %d", t.Location.Line)
	}
	return t, nil
}

func firstTargetNode(n parsec.ParsecNode) *targetNode {
	switch n := n.(type) {
	case *targetNode:
		return n
	case []parsec.ParsecNode:
		for _, c := range n {
			if t := firstTargetNode(c); t != nil {
				return t
			}
		}
	}
	return nil
}

// normalizePath returns an absolute, cleaned form of path.  Paths that
// cannot be made absolute are only cleaned.
func normalizePath(path string) string {
	if path == "" {
		return ""
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return filepath.Clean(path)
	}
	return abs
}

func normalizeLocation(loc Location) Location {
	return Location{File: normalizePath(loc.File), Line: loc.Line}
}

