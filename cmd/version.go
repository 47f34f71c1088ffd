// Copyright © 2024 The ELPS authors

package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

// Version is set at build time with -ldflags "-X ...cmd.Version=v1.2.3".
var Version = "devel"

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version of sdbg",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "sdbg version %s\n", Version)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
