// Copyright © 2024 The ELPS authors

package debugtest

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/luthersystems/sdbg/debugger"
	"github.com/luthersystems/sdbg/debugger/iface"
	"github.com/stretchr/testify/require"
)

// Harness wires a session to a Runtime, a scripted interface and a fake
// process.  Source files written with WriteSource live in a temporary
// directory that is also the session's working directory.
type Harness struct {
	t       testing.TB
	Dir     string
	Runtime *Runtime
	UI      *iface.Scripted
	Process *FakeProcess
	Session *debugger.Session
}

// NewHarness returns a harness whose session reads the given input lines.
// The session is created with opts after the harness defaults and is not
// started.
func NewHarness(t testing.TB, input []string, opts ...debugger.Option) *Harness {
	t.Helper()
	dir, err := filepath.EvalSymlinks(t.TempDir())
	require.NoError(t, err)
	h := &Harness{
		t:       t,
		Dir:     dir,
		Runtime: NewRuntime(),
		UI:      iface.NewScripted(input...),
		Process: NewFakeProcess(4242),
	}
	base := []debugger.Option{
		debugger.WithLogger(NewLogrus(t)),
		debugger.WithProcess(h.Process),
		debugger.WithWorkingDir(dir),
	}
	h.Session = debugger.New(h.Runtime, h.UI, append(base, opts...)...)
	return h
}

// Start starts the session.
func (h *Harness) Start() *Harness {
	h.t.Helper()
	require.NoError(h.t, h.Session.Start())
	return h
}

// WriteSource writes lines to name in the harness directory and returns
// the absolute path.  Non-blank lines become breakable.
func (h *Harness) WriteSource(name string, lines ...string) string {
	h.t.Helper()
	path := filepath.Join(h.Dir, name)
	require.NoError(h.t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(h.t, os.WriteFile(path, []byte(strings.Join(lines, "\n")+"\n"), 0o600))
	var breakable []int
	for i, line := range lines {
		if strings.TrimSpace(line) != "" {
			breakable = append(breakable, i+1)
		}
	}
	h.Runtime.SetBreakable(path, breakable...)
	return path
}

// Run runs script on the calling goroutine.
func (h *Harness) Run(file string, script func(th *Thread)) error {
	return h.Runtime.Run(file, script)
}

// Output returns the lines the session printed.
func (h *Harness) Output() []string {
	return h.UI.Output()
}

// Errors returns the error messages the session printed.
func (h *Harness) Errors() []string {
	return h.UI.Errors()
}
