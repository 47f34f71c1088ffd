// Copyright © 2018 The ELPS authors

package iface

import (
	"bytes"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/ergochat/readline"
	"github.com/luthersystems/sdbg/debugger"
	"golang.org/x/term"
)

type localConfig struct {
	stdin       io.ReadCloser
	stdout      io.Writer
	stderr      io.Writer
	historyFile string
	completions func() []string
	forceTTY    *bool
}

// LocalOption configures a Local interface.
type LocalOption func(*localConfig)

// WithStdin overrides the input of the interface.
func WithStdin(stdin io.ReadCloser) LocalOption {
	return func(c *localConfig) {
		c.stdin = stdin
	}
}

// WithStdout overrides the output of the interface.
func WithStdout(w io.Writer) LocalOption {
	return func(c *localConfig) {
		c.stdout = w
	}
}

// WithStderr overrides the error output of the interface.
func WithStderr(w io.Writer) LocalOption {
	return func(c *localConfig) {
		c.stderr = w
	}
}

// WithHistoryFile sets the file command history is saved to.  An empty
// path disables history.
func WithHistoryFile(path string) LocalOption {
	return func(c *localConfig) {
		c.historyFile = path
	}
}

// WithCompletions sets the source of command names offered for
// completion of the first word.
func WithCompletions(names func() []string) LocalOption {
	return func(c *localConfig) {
		c.completions = names
	}
}

// WithTerminal forces line editing on or off instead of detecting whether
// stdin is a terminal.
func WithTerminal(tty bool) LocalOption {
	return func(c *localConfig) {
		c.forceTTY = &tty
	}
}

// DefaultHistoryFile returns the default history location, ~/.sdbg_history.
func DefaultHistoryFile() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".sdbg_history")
}

// Local is the Interface of a debugger driven from the process's own
// terminal.  When stdin is a terminal lines are read with readline;
// otherwise they are read from a buffered stream.
type Local struct {
	*Stream

	mu sync.Mutex
	rl *readline.Instance
}

// NewLocal returns a terminal interface.
func NewLocal(opts ...LocalOption) (*Local, error) {
	cfg := &localConfig{
		stdin:  os.Stdin,
		stdout: os.Stdout,
		stderr: os.Stderr,
	}
	for _, opt := range opts {
		opt(cfg)
	}
	var closer io.Closer
	if cfg.stdin != os.Stdin {
		closer = cfg.stdin
	}
	l := &Local{Stream: NewStream(cfg.stdin, cfg.stdout, cfg.stderr, closer)}
	if !isTerminal(cfg) {
		return l, nil
	}
	rlCfg := &readline.Config{
		Stdin:             cfg.stdin,
		Stdout:            cfg.stdout,
		Stderr:            cfg.stderr,
		HistoryFile:       cfg.historyFile,
		HistorySearchFold: true,
	}
	if cfg.completions != nil {
		rlCfg.AutoComplete = &commandCompleter{names: cfg.completions}
	}
	rl, err := readline.NewEx(rlCfg)
	if err != nil {
		return nil, err
	}
	l.rl = rl
	return l, nil
}

func isTerminal(cfg *localConfig) bool {
	if cfg.forceTTY != nil {
		return *cfg.forceTTY
	}
	f, ok := cfg.stdin.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// ReadLine implements debugger.Interface.  An interrupt (Ctrl-C) yields an
// empty line.
func (l *Local) ReadLine(prompt string) (string, error) {
	l.mu.Lock()
	rl := l.rl
	l.mu.Unlock()
	if rl == nil {
		return l.Stream.ReadLine(prompt)
	}
	if err := l.Stream.Flush(); err != nil {
		return "", err
	}
	rl.SetPrompt(prompt)
	line, err := rl.ReadSlice()
	if errors.Is(err, readline.ErrInterrupt) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return string(bytes.TrimRight(line, "\r\n")), nil
}

// Close implements debugger.Interface.
func (l *Local) Close() error {
	l.mu.Lock()
	rl := l.rl
	l.rl = nil
	l.mu.Unlock()
	var err error
	if rl != nil {
		err = rl.Close()
	}
	if cerr := l.Stream.Close(); err == nil {
		err = cerr
	}
	return err
}

// commandCompleter implements readline.AutoCompleter for command names.
type commandCompleter struct {
	names func() []string
}

func (c *commandCompleter) Do(line []rune, pos int) ([][]rune, int) {
	prefix := string(line[:pos])
	if strings.ContainsAny(prefix, " \t") {
		return nil, 0
	}
	var result [][]rune
	for _, name := range c.names() {
		if strings.HasPrefix(name, prefix) && name != prefix {
			result = append(result, []rune(name[len(prefix):]))
		}
	}
	return result, len(prefix)
}

var _ debugger.Interface = (*Local)(nil)
