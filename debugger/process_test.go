// Copyright © 2024 The ELPS authors

package debugger

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sys/unix"
)

func TestLookupSignal(t *testing.T) {
	t.Parallel()
	for _, name := range []string{"TERM", "term", "SIGTERM", "sigterm", " Term "} {
		sig, ok := LookupSignal(name)
		assert.True(t, ok, name)
		assert.Equal(t, unix.SIGTERM, sig, name)
	}
	for _, name := range []string{"", "BLA", "SIG"} {
		_, ok := LookupSignal(name)
		assert.False(t, ok, name)
	}
	assert.Equal(t, "USR1", SignalName(unix.SIGUSR1))
}

func TestIsTerminating(t *testing.T) {
	t.Parallel()
	assert.True(t, IsTerminating(unix.SIGKILL))
	assert.True(t, IsTerminating(unix.SIGTERM))
	assert.True(t, IsTerminating(unix.SIGINT))
	assert.False(t, IsTerminating(unix.SIGUSR1))
	assert.False(t, IsTerminating(unix.SIGCONT))
}

func TestInvocation_Argv(t *testing.T) {
	t.Parallel()
	inv := Invocation{
		Interpreter:  "/usr/bin/ruby",
		DebuggerArgs: []string{"/usr/bin/sdbg", "--no-stop"},
		Script:       "app.rb",
		Args:         []string{"a", "b"},
	}
	assert.Equal(t, []string{"/usr/bin/ruby", "/usr/bin/sdbg", "--no-stop", "app.rb", "a", "b"}, inv.Argv(nil))
	assert.Equal(t, []string{"/usr/bin/ruby", "/usr/bin/sdbg", "--no-stop", "app.rb", "2"}, inv.Argv([]string{"2"}))

	inv.Mode = Attached
	assert.Equal(t, []string{"/usr/bin/ruby", "app.rb", "a", "b"}, inv.Argv(nil))

	inv.Interpreter = ""
	assert.Equal(t, []string{"app.rb"}, inv.Argv([]string{}))
}

func TestShellQuote(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "ruby app.rb --flag=x", ShellQuote([]string{"ruby", "app.rb", "--flag=x"}))
	assert.Equal(t, "echo 'a b' '' 'it'\\''s'", ShellQuote([]string{"echo", "a b", "", "it's"}))
	assert.Equal(t, "'$HOME' '*.rb'", ShellQuote([]string{"$HOME", "*.rb"}))
}

// Not parallel: the test changes the process working directory.
func TestOSProcess_ExecFailureKeepsWorkingDir(t *testing.T) {
	wd, err := os.Getwd()
	require.NoError(t, err)
	dir := t.TempDir()
	bin := filepath.Join(dir, "broken")
	require.NoError(t, os.WriteFile(bin, []byte{0, 1, 2, 3}, 0o755)) //#nosec G306

	err = OSProcess{}.Exec(bin, []string{bin}, os.Environ(), dir)
	assert.Error(t, err)
	got, err := os.Getwd()
	require.NoError(t, err)
	assert.Equal(t, wd, got)
}
