// Copyright © 2018 The ELPS authors

// Package config loads debugger configuration with viper.  Values come
// from a YAML config file and from SDBG_* environment variables, e.g.
//
//	log_level: info
//	stop_on_entry: true
//	init_file: .sdbgrc
//	history_file: ~/.sdbg_history
//	remote:
//	  address: localhost:8989
//	settings:
//	  listsize: 20
//	  callstyle: short
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/luthersystems/sdbg/debugger"
	"github.com/luthersystems/sdbg/debugger/iface"
	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"
)

// Configuration keys.
const (
	KeySettings      = "settings"
	KeyRemoteAddress = "remote.address"
	KeyHistoryFile   = "history_file"
	KeyLogLevel      = "log_level"
	KeyInitFile      = "init_file"
	KeyStopOnEntry   = "stop_on_entry"
)

// EnvPrefix prefixes environment overrides: SDBG_LOG_LEVEL,
// SDBG_REMOTE_ADDRESS and so on.
const EnvPrefix = "SDBG"

// DefaultRemoteAddress is where remote sessions listen unless configured.
const DefaultRemoteAddress = "localhost:8989"

// Config is the resolved debugger configuration.
type Config struct {
	// Settings overrides the defaults of debugger settings by name.
	Settings      map[string]string
	RemoteAddress string
	HistoryFile   string
	LogLevel      logrus.Level
	InitFile      string
	StopOnEntry   bool
}

// SetDefaults registers the default of every key on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault(KeyRemoteAddress, DefaultRemoteAddress)
	v.SetDefault(KeyHistoryFile, iface.DefaultHistoryFile())
	v.SetDefault(KeyLogLevel, logrus.WarnLevel.String())
	v.SetDefault(KeyInitFile, "")
	v.SetDefault(KeyStopOnEntry, false)
}

// BindEnv makes v read SDBG_* environment variables.  Nested keys use an
// underscore: remote.address is SDBG_REMOTE_ADDRESS.
func BindEnv(v *viper.Viper) {
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
}

// Load resolves the configuration held by v.  Setting overrides are
// validated against the debugger's settings so that a bad config file is
// reported before a session starts.
func Load(v *viper.Viper) (*Config, error) {
	level, err := logrus.ParseLevel(v.GetString(KeyLogLevel))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", KeyLogLevel, err)
	}
	c := &Config{
		Settings:      make(map[string]string),
		RemoteAddress: v.GetString(KeyRemoteAddress),
		HistoryFile:   expandHome(v.GetString(KeyHistoryFile)),
		LogLevel:      level,
		InitFile:      expandHome(v.GetString(KeyInitFile)),
		StopOnEntry:   v.GetBool(KeyStopOnEntry),
	}
	check := debugger.NewSettings()
	for name, value := range v.GetStringMapString(KeySettings) {
		if err := check.Set(name, value); err != nil {
			return nil, fmt.Errorf("%s.%s: %w", KeySettings, name, err)
		}
		c.Settings[name] = value
	}
	return c, nil
}

// Logger returns a logger writing to stderr at the configured level.
func (c *Config) Logger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(os.Stderr)
	log.SetLevel(c.LogLevel)
	return log
}

// SessionOptions converts the configuration to session options.
func (c *Config) SessionOptions(log *logrus.Logger) []debugger.Option {
	opts := []debugger.Option{
		debugger.WithStopOnEntry(c.StopOnEntry),
		debugger.WithSettings(c.Settings),
	}
	if log != nil {
		opts = append(opts, debugger.WithLogger(log))
	}
	if c.InitFile != "" {
		opts = append(opts, debugger.WithInitFile(c.InitFile))
	}
	return opts
}

// LocalOptions converts the configuration to options of a terminal
// interface.
func (c *Config) LocalOptions() []iface.LocalOption {
	return []iface.LocalOption{iface.WithHistoryFile(c.HistoryFile)}
}

// Describe returns the effective configuration as "key: value" lines with
// the resolved value of every debugger setting.
func (c *Config) Describe() ([]string, error) {
	lines := []string{
		fmt.Sprintf("%s: %s", KeyLogLevel, c.LogLevel),
		fmt.Sprintf("%s: %t", KeyStopOnEntry, c.StopOnEntry),
		fmt.Sprintf("%s: %s", KeyInitFile, c.InitFile),
		fmt.Sprintf("%s: %s", KeyHistoryFile, c.HistoryFile),
		fmt.Sprintf("%s: %s", KeyRemoteAddress, c.RemoteAddress),
	}
	settings := debugger.NewSettings()
	names := make([]string, 0, len(c.Settings))
	for name := range c.Settings {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		if err := settings.Set(name, c.Settings[name]); err != nil {
			return nil, err
		}
	}
	for _, name := range debugger.SettingNames() {
		line, err := settings.Show(name)
		if err != nil {
			return nil, err
		}
		lines = append(lines, KeySettings+"."+line)
	}
	return lines, nil
}

func expandHome(path string) string {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~"))
}
