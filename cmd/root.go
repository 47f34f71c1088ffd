// Copyright © 2018 The ELPS authors

package cmd

import (
	"fmt"
	"os"

	"github.com/luthersystems/sdbg/config"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var cfgFile string

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "sdbg",
	Short: "sdbg — interactive source debugger",
	Long: `sdbg is an interactive source level debugger for scripts running on an
embedded runtime.  A runtime links the debugger package and hands it a
terminal, or serves the session over TCP for "sdbg connect" to attach to.

Getting started:
  sdbg connect 8989            Attach to a session served on localhost:8989
  sdbg connect host:8989       Attach to a session on another host
  sdbg config                  Show the effective configuration
  sdbg version                 Print the version

Configuration is read from $HOME/.sdbg.yaml (or --config) and from
SDBG_* environment variables, e.g. SDBG_LOG_LEVEL=debug.`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.sdbg.yaml)")
	rootCmd.PersistentFlags().String("log-level", "", "log level: panic, fatal, error, warning, info, debug or trace")
	if err := viper.BindPFlag(config.KeyLogLevel, rootCmd.PersistentFlags().Lookup("log-level")); err != nil {
		panic(err)
	}
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	config.SetDefaults(viper.GetViper())
	if cfgFile != "" {
		// Use config file from the flag.
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}

		// Search config in home directory with name ".sdbg" (without extension).
		viper.AddConfigPath(home)
		viper.SetConfigName(".sdbg")
	}

	config.BindEnv(viper.GetViper())

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	} else if cfgFile != "" {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// loadConfig resolves the configuration after flags and files were read.
func loadConfig() (*config.Config, error) {
	return config.Load(viper.GetViper())
}
