// Copyright © 2024 The ELPS authors

package debugtest

import (
	"sync"
	"syscall"

	"github.com/luthersystems/sdbg/debugger"
)

// SignalCall records one Signal request.
type SignalCall struct {
	Pid    int
	Signal syscall.Signal
}

// ExecCall records one Exec request.
type ExecCall struct {
	Path string
	Argv []string
	Env  []string
	Dir  string
}

// FakeProcess is a debugger.Process that records requests instead of
// acting on the operating system.
type FakeProcess struct {
	PID       int
	SignalErr error
	ExecErr   error

	mu      sync.Mutex
	signals []SignalCall
	execs   []ExecCall
}

var _ debugger.Process = (*FakeProcess)(nil)

// NewFakeProcess returns a fake process with the given pid.
func NewFakeProcess(pid int) *FakeProcess {
	return &FakeProcess{PID: pid}
}

// Pid implements debugger.Process.
func (p *FakeProcess) Pid() int {
	return p.PID
}

// Signal implements debugger.Process.
func (p *FakeProcess) Signal(pid int, sig syscall.Signal) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.SignalErr != nil {
		return p.SignalErr
	}
	p.signals = append(p.signals, SignalCall{Pid: pid, Signal: sig})
	return nil
}

// Exec implements debugger.Process.
func (p *FakeProcess) Exec(path string, argv []string, env []string, dir string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.ExecErr != nil {
		return p.ExecErr
	}
	p.execs = append(p.execs, ExecCall{
		Path: path,
		Argv: append([]string(nil), argv...),
		Env:  append([]string(nil), env...),
		Dir:  dir,
	})
	return nil
}

// Signals returns the recorded signal requests.
func (p *FakeProcess) Signals() []SignalCall {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]SignalCall(nil), p.signals...)
}

// Execs returns the recorded exec requests.
func (p *FakeProcess) Execs() []ExecCall {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]ExecCall(nil), p.execs...)
}
