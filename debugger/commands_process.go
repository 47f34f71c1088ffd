// Copyright © 2024 The ELPS authors

package debugger

import (
	"os"
	"strings"

	"golang.org/x/sys/unix"
)

func processCommands() []*Command {
	return []*Command{
		{
			Names: []string{"kill"},
			Usage: "kill [SIGNAL]",
			Help: "Sends SIGNAL to the debugged process.  Without SIGNAL, KILL is sent after confirmation.  " +
				"Signal names are case insensitive and the SIG prefix is optional.  Signals that terminate the process end the debugger session.",
			Run: runKill,
		},
		{
			Names: []string{"restart"},
			Usage: "restart [ARGS...]",
			Help:  "Restarts the debugged program by re-executing its original command line.  ARGS replace the original script arguments.",
			Run:   runRestart,
		},
	}
}

func runKill(req *Request) (Result, error) {
	s := req.Session
	name := strings.TrimSpace(req.Args)
	sig := unix.SIGKILL
	if name == "" {
		if !Confirm(req.UI, "Really kill?") {
			return Continue, nil
		}
	} else {
		var ok bool
		if sig, ok = LookupSignal(name); !ok {
			return Continue, userErrorf("signal name %s is not a signal I know about", name)
		}
	}
	if err := req.UI.Flush(); err != nil {
		s.log.WithError(err).Debug("flush interface")
	}
	pid := s.proc.Pid()
	s.log.WithField("signal", SignalName(sig)).WithField("pid", pid).Info("sending signal")
	if err := s.proc.Signal(pid, sig); err != nil {
		return Continue, &ProcessControlError{Op: "kill", Err: err}
	}
	if !IsTerminating(sig) {
		return Continue, nil
	}
	if err := req.UI.Close(); err != nil {
		s.log.WithError(err).Debug("close interface")
	}
	return End, nil
}

func runRestart(req *Request) (Result, error) {
	s := req.Session
	inv := s.invocation
	if inv.Script == "" {
		return Continue, userErrorf("don't know the name of the debugged program")
	}
	var args []string
	if fields := req.Fields(); len(fields) > 0 {
		args = fields
	}
	argv := inv.Argv(args)
	req.UI.Print("Re exec'ing:")
	req.UI.Print("\t" + ShellQuote(argv))
	if err := req.UI.Flush(); err != nil {
		s.log.WithError(err).Debug("flush interface")
	}
	env := inv.Env
	if env == nil {
		env = os.Environ()
	}
	if err := s.proc.Exec(argv[0], argv, env, inv.Dir); err != nil {
		return Continue, &ProcessControlError{Op: "restart", Err: err}
	}
	return End, nil
}
