// Copyright © 2024 The ELPS authors

package debugger

import (
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"syscall"

	"go.uber.org/multierr"
	"golang.org/x/sys/unix"
)

// Process is the operating system capability used by kill and restart.
type Process interface {
	// Pid returns the pid of the debuggee process.
	Pid() int
	// Signal delivers sig to pid.
	Signal(pid int, sig syscall.Signal) error
	// Exec replaces the current process image.  It only returns on error.
	Exec(path string, argv []string, env []string, dir string) error
}

// OSProcess is the Process implementation backed by the host OS.
type OSProcess struct{}

var _ Process = OSProcess{}

// Pid implements Process.
func (OSProcess) Pid() int {
	return unix.Getpid()
}

// Signal implements Process.
func (OSProcess) Signal(pid int, sig syscall.Signal) error {
	return unix.Kill(pid, sig)
}

// Exec implements Process.  path is looked up in PATH when it contains no
// separator.  The working directory is restored when the exec fails.
func (OSProcess) Exec(path string, argv []string, env []string, dir string) error {
	bin, err := exec.LookPath(path)
	if err != nil {
		return err
	}
	if dir == "" {
		return unix.Exec(bin, argv, env)
	}
	if bin, err = filepath.Abs(bin); err != nil {
		return err
	}
	prev, err := os.Getwd()
	if err != nil {
		return err
	}
	if err := os.Chdir(dir); err != nil {
		return err
	}
	err = unix.Exec(bin, argv, env)
	if cerr := os.Chdir(prev); cerr != nil {
		return multierr.Append(err, cerr)
	}
	return err
}

// terminatingSignals end the debuggee; the session closes its interface
// after delivering one of them.
var terminatingSignals = map[syscall.Signal]bool{
	unix.SIGHUP:  true,
	unix.SIGINT:  true,
	unix.SIGQUIT: true,
	unix.SIGABRT: true,
	unix.SIGKILL: true,
	unix.SIGTERM: true,
}

// LookupSignal resolves a signal name such as "TERM", "sigterm" or
// "SIGTERM".
func LookupSignal(name string) (syscall.Signal, bool) {
	name = strings.ToUpper(strings.TrimSpace(name))
	if name == "" {
		return 0, false
	}
	if !strings.HasPrefix(name, "SIG") {
		name = "SIG" + name
	}
	sig := unix.SignalNum(name)
	return sig, sig != 0
}

// IsTerminating reports whether sig belongs to the terminating class.
func IsTerminating(sig syscall.Signal) bool {
	return terminatingSignals[sig]
}

// SignalName returns the name of sig without the SIG prefix.
func SignalName(sig syscall.Signal) string {
	return strings.TrimPrefix(unix.SignalName(sig), "SIG")
}

// InvocationMode says how the debuggee was started.
type InvocationMode int

const (
	// Standalone means the debugger launched the script.
	Standalone InvocationMode = iota
	// Attached means the script loaded the debugger itself.
	Attached
)

// Invocation is the saved command line of the debuggee, used by restart.
type Invocation struct {
	Mode InvocationMode
	// Interpreter runs the script.  It may be empty when the script is
	// executable itself.
	Interpreter string
	// DebuggerArgs are the debugger entry point and its flags, placed
	// between the interpreter and the script in standalone mode.
	DebuggerArgs []string
	Script       string
	Args         []string
	Env          []string
	Dir          string
}

// Argv returns the command line that restarts the debuggee.  A non-nil
// args replaces the saved script arguments.
func (inv Invocation) Argv(args []string) []string {
	if args == nil {
		args = inv.Args
	}
	var argv []string
	if inv.Interpreter != "" {
		argv = append(argv, inv.Interpreter)
	}
	if inv.Mode == Standalone {
		argv = append(argv, inv.DebuggerArgs...)
	}
	argv = append(argv, inv.Script)
	return append(argv, args...)
}

// ShellQuote joins argv into a string that a POSIX shell would split back
// into the same words.
func ShellQuote(argv []string) string {
	quoted := make([]string, len(argv))
	for i, a := range argv {
		quoted[i] = shellQuoteWord(a)
	}
	return strings.Join(quoted, " ")
}

func shellQuoteWord(s string) string {
	if s == "" {
		return "''"
	}
	if strings.IndexFunc(s, needsQuote) < 0 {
		return s
	}
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}

func needsQuote(r rune) bool {
	switch {
	case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
		return false
	}
	return !strings.ContainsRune("-_./:=@%+,", r)
}
