// Copyright © 2018 The ELPS authors

package cmd

import (
	"context"
	"errors"
	"os"
	"os/signal"

	"github.com/luthersystems/sdbg/debugger/remote"
	"github.com/spf13/cobra"
	"golang.org/x/sys/unix"
)

var connectCmd = &cobra.Command{
	Use:   "connect [[host:]port]",
	Short: "Attach to a debugger session served over TCP",
	Long: `Connect to a debugger session served by a runtime over TCP.

Two connections are opened: the first carries debugger commands and their
output, the second receives the output of the debugged script.  Lines
typed on stdin are sent as commands.  Without an address the configured
remote.address is used (default: localhost:8989).

Examples:
  sdbg connect                 Connect to the configured address
  sdbg connect 4000            Connect to localhost:4000
  sdbg connect 10.0.0.7:4000   Connect to a remote host`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		addr := cfg.RemoteAddress
		if len(args) > 0 {
			addr = args[0]
		}
		log := cfg.Logger()
		log.WithField("address", addr).Debug("connecting")

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, unix.SIGTERM)
		defer stop()
		client := &remote.Client{Stdin: os.Stdin, Stdout: os.Stdout}
		err = client.Connect(ctx, addr)
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	},
}

func init() {
	rootCmd.AddCommand(connectCmd)
}
