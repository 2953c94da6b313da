package cmdshared

import (
	"errors"
	"fmt"

	"github.com/packlaunch/packlaunch/core"
	"github.com/spf13/viper"
	"gopkg.in/dixonwille/wmenu.v4"
)

// SelectOptionalMods asks which of the pack's optional mods to install. Mods in previous (or, when previous is
// nil, mods the pack marks as selected or recommended) are chosen by default.
func SelectOptionalMods(pack *core.PackVersion, server bool, previous []string) ([]string, error) {
	optional := pack.OptionalMods(server)
	if len(optional) == 0 {
		return nil, nil
	}
	isDefault := func(m *core.Mod) bool {
		if previous != nil {
			for _, name := range previous {
				if name == m.Name {
					return true
				}
			}
			return false
		}
		return m.Selected || m.Recommended
	}

	if viper.GetBool("non-interactive") {
		var chosen []string
		for _, m := range optional {
			if isDefault(m) {
				chosen = append(chosen, m.Name)
			}
		}
		return chosen, nil
	}

	var chosen []string
	menu := wmenu.NewMenu("Choose the optional mods to install (separate numbers with spaces):")
	menu.AllowMultiple()
	menu.Option("None", nil, false, nil)
	for _, m := range optional {
		title := m.Name
		if m.Description != "" {
			title = fmt.Sprintf("%s: %s", m.Name, m.Description)
		}
		if m.Warning != "" {
			if w, ok := pack.Warnings[m.Warning]; ok {
				title += " (" + w + ")"
			}
		}
		menu.Option(title, m, isDefault(m), nil)
	}
	menu.Action(func(menuRes []wmenu.Opt) error {
		for _, opt := range menuRes {
			if opt.Value == nil {
				continue
			}
			m, ok := opt.Value.(*core.Mod)
			if !ok {
				return errors.New("error converting interface from wmenu")
			}
			chosen = append(chosen, m.Name)
		}
		return nil
	})
	if err := menu.Run(); err != nil {
		return nil, err
	}
	return chosen, nil
}

// ChooseOne asks which of options to use and returns its index, or -1 if the user cancels. The first option is
// the default, and is picked without asking when there is only one or prompts are turned off.
func ChooseOne(options []string) (int, error) {
	if len(options) == 0 {
		return -1, nil
	}
	if len(options) == 1 || viper.GetBool("non-interactive") {
		return 0, nil
	}
	chosen := -1
	menu := wmenu.NewMenu("Choose a number:")
	menu.Option("Cancel", nil, false, nil)
	for i, o := range options {
		menu.Option(o, i, i == 0, nil)
	}
	menu.Action(func(opts []wmenu.Opt) error {
		if len(opts) == 1 {
			if i, ok := opts[0].Value.(int); ok {
				chosen = i
			}
		}
		return nil
	})
	if err := menu.Run(); err != nil {
		return -1, err
	}
	return chosen, nil
}
