// Copyright © 2024 The ELPS authors

package debugger

import (
	"fmt"
	"slices"
	"sort"
	"strconv"
	"strings"
	"sync"
)

// Setting names.
const (
	SettingAutolist   = "autolist"
	SettingBasename   = "basename"
	SettingCallstyle  = "callstyle"
	SettingFullpath   = "fullpath"
	SettingLinetrace  = "linetrace"
	SettingListsize   = "listsize"
	SettingPostMortem = "post_mortem"
)

// Values of the callstyle setting.
const (
	CallStyleLong  = "long"
	CallStyleShort = "short"
)

type settingKind int

const (
	settingBool settingKind = iota
	settingInt
	settingEnum
)

type settingDef struct {
	kind    settingKind
	def     any
	choices []string
	help    string
}

var settingDefs = map[string]settingDef{
	SettingAutolist:   {kind: settingBool, def: true, help: "Display the source window at every stop"},
	SettingBasename:   {kind: settingBool, def: false, help: "Show only the base name of source files"},
	SettingCallstyle:  {kind: settingEnum, def: CallStyleLong, choices: []string{CallStyleLong, CallStyleShort}, help: "Frame display style (long or short)"},
	SettingFullpath:   {kind: settingBool, def: true, help: "Show absolute paths of source files"},
	SettingLinetrace:  {kind: settingBool, def: false, help: "Print every line as it executes"},
	SettingListsize:   {kind: settingInt, def: 10, help: "Number of source lines shown by list"},
	SettingPostMortem: {kind: settingBool, def: false, help: "Stop on uncaught errors"},
}

// SettingNames returns the names of all settings, sorted.
func SettingNames() []string {
	names := make([]string, 0, len(settingDefs))
	for name := range settingDefs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// SettingHelp returns the one line description of a setting.
func SettingHelp(name string) string {
	return settingDefs[name].help
}

// Settings is the flat name to value mapping of session options.  It is
// safe for concurrent use because linetrace is consulted from every
// script thread.
type Settings struct {
	mu     sync.RWMutex
	values map[string]any
}

// NewSettings returns settings initialized with their defaults.
func NewSettings() *Settings {
	s := &Settings{}
	s.Reset()
	return s
}

// Reset restores every setting to its default.
func (s *Settings) Reset() {
	values := make(map[string]any, len(settingDefs))
	for name, def := range settingDefs {
		values[name] = def.def
	}
	s.mu.Lock()
	s.values = values
	s.mu.Unlock()
}

// Get returns the value of a setting.
func (s *Settings) Get(name string) (any, error) {
	if _, ok := settingDefs[name]; !ok {
		return nil, unknownSetting(name)
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.values[name], nil
}

// Bool returns a boolean setting.  Unknown or non-boolean names are false.
func (s *Settings) Bool(name string) bool {
	v, _ := s.Get(name)
	b, _ := v.(bool)
	return b
}

// Int returns an integer setting.  Unknown or non-integer names are 0.
func (s *Settings) Int(name string) int {
	v, _ := s.Get(name)
	n, _ := v.(int)
	return n
}

// Enum returns an enumerated setting.  Unknown or non-enumerated names
// are empty.
func (s *Settings) Enum(name string) string {
	v, _ := s.Get(name)
	str, _ := v.(string)
	return str
}

// Set parses raw and assigns it to the named setting.  Boolean settings
// accept on/off, true/false and 1/0.
func (s *Settings) Set(name, raw string) error {
	def, ok := settingDefs[name]
	if !ok {
		return unknownSetting(name)
	}
	raw = strings.TrimSpace(raw)
	var v any
	switch def.kind {
	case settingBool:
		b, err := parseOnOff(raw)
		if err != nil {
			return userErrorf("%s: %v", name, err)
		}
		v = b
	case settingInt:
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			return userErrorf("%s: expected a positive integer, got %q", name, raw)
		}
		v = n
	case settingEnum:
		choice := strings.ToLower(raw)
		if !slices.Contains(def.choices, choice) {
			return userErrorf("%s: expected one of %s, got %q", name, strings.Join(def.choices, ", "), raw)
		}
		v = choice
	}
	s.mu.Lock()
	s.values[name] = v
	s.mu.Unlock()
	return nil
}

// Assign parses a "set" argument list: "NAME", "noNAME" or "NAME VALUE".
// It returns the name of the setting that changed.
func (s *Settings) Assign(args string) (string, error) {
	fields := strings.Fields(args)
	if len(fields) == 0 {
		return "", userErrorf("\"set\" must be followed by the name of a setting")
	}
	name := fields[0]
	value := strings.Join(fields[1:], " ")
	if value == "" {
		if def, ok := settingDefs[name]; ok && def.kind == settingBool {
			return name, s.Set(name, "on")
		}
		if rest, ok := strings.CutPrefix(name, "no"); ok {
			if def, ok := settingDefs[rest]; ok && def.kind == settingBool {
				return rest, s.Set(rest, "off")
			}
		}
		if _, ok := settingDefs[name]; ok {
			return "", userErrorf("\"set %s\" needs a value", name)
		}
		return "", unknownSetting(name)
	}
	return name, s.Set(name, value)
}

// Show renders a setting for the show command.
func (s *Settings) Show(name string) (string, error) {
	v, err := s.Get(name)
	if err != nil {
		return "", err
	}
	if b, ok := v.(bool); ok {
		return fmt.Sprintf("%s is %s", name, onOff(b)), nil
	}
	return fmt.Sprintf("%s is %v", name, v), nil
}

// Snapshot returns a copy of all values.
func (s *Settings) Snapshot() map[string]any {
	s.mu.RLock()
	defer s.mu.RUnlock()
	m := make(map[string]any, len(s.values))
	for k, v := range s.values {
		m[k] = v
	}
	return m
}

// PathStyle returns the path rendering style selected by the fullpath and
// basename settings.
func (s *Settings) PathStyle(dir string) PathStyle {
	return PathStyle{
		Full:     s.Bool(SettingFullpath),
		Basename: s.Bool(SettingBasename),
		Dir:      dir,
	}
}

func unknownSetting(name string) error {
	return &UserInputError{Msg: fmt.Sprintf("unknown setting %q", name), Err: ErrUnknownSetting}
}

func parseOnOff(raw string) (bool, error) {
	switch strings.ToLower(raw) {
	case "on", "true", "1", "yes":
		return true, nil
	case "off", "false", "0", "no":
		return false, nil
	}
	return false, fmt.Errorf("expected on or off, got %q", raw)
}

func onOff(b bool) string {
	if b {
		return "on"
	}
	return "off"
}
