// Copyright © 2024 The ELPS authors

package debugger

import (
	"fmt"
	"strings"
)

func settingCommands() []*Command {
	return []*Command{
		{
			Names: []string{"set"},
			Usage: "set NAME [VALUE] | set noNAME",
			Help: "Modifies a setting.  Boolean settings are turned on by \"set NAME\" and off by \"set noNAME\", or take on/off as VALUE.  " +
				"Settings: " + settingSummary(),
			Run: runSet,
		},
		{
			Names: []string{"show"},
			Usage: "show [NAME]",
			Help:  "Shows the value of a setting, or of every setting.",
			Run:   runShow,
		},
	}
}

func settingSummary() string {
	parts := make([]string, 0, len(settingDefs))
	for _, name := range SettingNames() {
		parts = append(parts, fmt.Sprintf("%s (%s)", name, strings.ToLower(SettingHelp(name))))
	}
	return strings.Join(parts, "; ")
}

func runSet(req *Request) (Result, error) {
	settings := req.Session.settings
	name, err := settings.Assign(req.Args)
	if err != nil {
		return Continue, err
	}
	line, err := settings.Show(name)
	if err != nil {
		return Continue, err
	}
	req.UI.Print(line)
	return Continue, nil
}

func runShow(req *Request) (Result, error) {
	settings := req.Session.settings
	name := strings.TrimSpace(req.Args)
	names := []string{name}
	if name == "" {
		names = SettingNames()
	}
	for _, n := range names {
		line, err := settings.Show(n)
		if err != nil {
			return Continue, err
		}
		req.UI.Print(line)
	}
	return Continue, nil
}
