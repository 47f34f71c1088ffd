// Copyright © 2018 The ELPS authors

package debugger

import (
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"
)

// Prompt is printed by the command loop before each command.
const Prompt = "(sdbg) "

// Result tells the command loop what to do after a command ran.
type Result int

const (
	// Continue reads the next command.
	Continue Result = iota
	// Resume leaves the command loop and resumes the stopped thread.
	Resume
	// End leaves the command loop and ends the session.  The stopped
	// thread resumes unless the session asked the runtime to terminate.
	End
)

// Request is the input of a command.
type Request struct {
	// Args is the raw text following the command name, trimmed.
	Args    string
	Context *Context
	Session *Session
	UI      Interface
	// Name is the command name as typed.
	Name string

	trace stopTrace
}

// Fields splits Args on white space.
func (r *Request) Fields() []string {
	return strings.Fields(r.Args)
}

// Command is one debugger command.
type Command struct {
	// Names holds the command name followed by its aliases.
	Names []string
	Usage string
	// Help is the long description shown by "help NAME".
	Help string
	// Repeatable commands are re-run when the user enters an empty line.
	Repeatable bool
	Run        func(req *Request) (Result, error)
}

// Name returns the primary name of the command.
func (c *Command) Name() string {
	return c.Names[0]
}

// Registry maps command names and aliases to commands.
type Registry struct {
	mu       sync.RWMutex
	commands []*Command
	byName   map[string]*Command
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{byName: make(map[string]*Command)}
}

// Register adds cmd.  Names and aliases must not collide with a command
// already registered.
func (r *Registry) Register(cmd *Command) error {
	if cmd == nil || len(cmd.Names) == 0 || cmd.Run == nil {
		return errors.New("command needs a name and a Run function")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, name := range cmd.Names {
		if _, ok := r.byName[name]; ok {
			return fmt.Errorf("command name %q already registered", name)
		}
	}
	for _, name := range cmd.Names {
		r.byName[name] = cmd
	}
	r.commands = append(r.commands, cmd)
	return nil
}

// Resolve finds the command for name: an exact name or alias first, then
// an unambiguous prefix of a command name.
func (r *Registry) Resolve(name string) (*Command, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if cmd, ok := r.byName[name]; ok {
		return cmd, nil
	}
	var matches []*Command
	for _, cmd := range r.commands {
		if strings.HasPrefix(cmd.Name(), name) {
			matches = append(matches, cmd)
		}
	}
	switch len(matches) {
	case 0:
		return nil, &UserInputError{
			Msg: fmt.Sprintf("Unknown command '%s'. Try 'help'", name),
			Err: ErrUnknownCommand,
		}
	case 1:
		return matches[0], nil
	}
	names := make([]string, len(matches))
	for i, cmd := range matches {
		names[i] = cmd.Name()
	}
	sort.Strings(names)
	return nil, &UserInputError{
		Msg: fmt.Sprintf("Ambiguous command '%s': %s", name, strings.Join(names, ", ")),
		Err: ErrUnknownCommand,
	}
}

// Commands returns the registered commands sorted by name.
func (r *Registry) Commands() []*Command {
	r.mu.RLock()
	defer r.mu.RUnlock()
	cmds := make([]*Command, len(r.commands))
	copy(cmds, r.commands)
	sort.Slice(cmds, func(i, j int) bool { return cmds[i].Name() < cmds[j].Name() })
	return cmds
}

// Names returns every command name and alias, sorted.  It is used for
// completion.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.byName))
	for name := range r.byName {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// splitCommand separates the command name from its raw arguments.
func splitCommand(line string) (name, args string) {
	line = strings.TrimSpace(line)
	i := strings.IndexAny(line, " \t")
	if i < 0 {
		return line, ""
	}
	return line[:i], strings.TrimSpace(line[i+1:])
}

// dispatcher runs the command loop of a session.  The last command is
// remembered across stops so an empty line can repeat it.
type dispatcher struct {
	session *Session
	lastCmd string
}

// run reads and executes commands for ctx until one resumes execution or
// ends the session.  End of input ends the session.
func (d *dispatcher) run(ctx *Context, stop stopTrace) Result {
	ui := d.session.ui
	for {
		line, err := ui.ReadLine(Prompt)
		if err != nil {
			if !errors.Is(err, io.EOF) {
				d.session.log.WithError(err).Warn("read command")
			}
			return End
		}
		if strings.TrimSpace(line) == "" {
			if d.lastCmd == "" {
				continue
			}
			line = d.lastCmd
		}
		res, cmd := d.execute(ctx, line, stop)
		if cmd != nil {
			if cmd.Repeatable {
				d.lastCmd = line
			} else {
				d.lastCmd = ""
			}
		}
		if res != Continue {
			return res
		}
	}
}

// execute runs one command line.  Errors are printed and never escape.
func (d *dispatcher) execute(ctx *Context, line string, stop stopTrace) (Result, *Command) {
	s := d.session
	name, args := splitCommand(line)
	if name == "" {
		return Continue, nil
	}
	if len(name) > 1 && strings.HasSuffix(name, "!") {
		name = strings.TrimSuffix(name, "!")
		args = strings.TrimSpace("! " + args)
	}
	cmd, err := s.registry.Resolve(name)
	if err != nil {
		s.ui.PrintError(err.Error())
		return Continue, nil
	}
	span := stop.command(cmd.Name())
	defer span.End()
	s.log.WithField("command", cmd.Name()).Debug("run command")
	res, err := cmd.Run(&Request{
		Args:    args,
		Context: ctx,
		Session: s,
		UI:      s.ui,
		Name:    name,
		trace:   stop,
	})
	if err != nil {
		span.RecordError(err)
		s.ui.PrintError(err.Error())
		return Continue, cmd
	}
	return res, cmd
}

func registerBuiltins(r *Registry) {
	var cmds []*Command
	cmds = append(cmds, breakpointCommands()...)
	cmds = append(cmds, controlCommands()...)
	cmds = append(cmds, stackCommands()...)
	cmds = append(cmds, processCommands()...)
	cmds = append(cmds, settingCommands()...)
	cmds = append(cmds, inspectCommands()...)
	for _, cmd := range cmds {
		if err := r.Register(cmd); err != nil {
			panic(err)
		}
	}
}
