// Copyright © 2024 The ELPS authors

// Package attach starts debugger sessions for a runtime from a resolved
// configuration, either on the process's terminal or for a remote client.
package attach

import (
	"context"

	"github.com/luthersystems/sdbg/config"
	"github.com/luthersystems/sdbg/debugger"
	"github.com/luthersystems/sdbg/debugger/iface"
	"github.com/luthersystems/sdbg/debugger/remote"
)

// Local starts a session for rt on the local terminal.  Command names of
// the session are offered for completion.  uiOpts are applied after the
// configured history file; opts after the configured session options.
func Local(rt debugger.Runtime, cfg *config.Config, uiOpts []iface.LocalOption, opts ...debugger.Option) (*debugger.Session, error) {
	var s *debugger.Session
	names := func() []string {
		if s == nil {
			return nil
		}
		return s.Registry().Names()
	}
	ui, err := iface.NewLocal(append(append(cfg.LocalOptions(), iface.WithCompletions(names)), uiOpts...)...)
	if err != nil {
		return nil, err
	}
	s = debugger.New(rt, ui, append(cfg.SessionOptions(cfg.Logger()), opts...)...)
	if err := s.Start(); err != nil {
		ui.Close() //nolint:errcheck
		return nil, err
	}
	return s, nil
}

// Listen opens the remote endpoint named by the configuration.
func Listen(cfg *config.Config, opts ...remote.Option) (*remote.Server, error) {
	return remote.Listen(cfg.RemoteAddress, append([]remote.Option{remote.WithLogger(cfg.Logger())}, opts...)...)
}

// Remote waits for a client to connect to srv and starts a session for rt
// on its command connection.
func Remote(ctx context.Context, srv *remote.Server, rt debugger.Runtime, cfg *config.Config, opts ...debugger.Option) (*debugger.Session, error) {
	ui, err := srv.Accept(ctx)
	if err != nil {
		return nil, err
	}
	s := debugger.New(rt, ui, append(cfg.SessionOptions(cfg.Logger()), opts...)...)
	s.Logger().WithField("address", srv.Addr().String()).Info("remote client attached")
	if err := s.Start(); err != nil {
		ui.Close() //nolint:errcheck
		return nil, err
	}
	return s, nil
}
