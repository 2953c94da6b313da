package cmd

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/packlaunch/packlaunch/cmdshared"
	"github.com/packlaunch/packlaunch/instance"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/unascribed/FlexVer/go/flexver"
)

// modsCmd represents the mods command
var modsCmd = &cobra.Command{
	Use:   "mods",
	Short: "Manage the mods of an instance",
}

var modsListCmd = &cobra.Command{
	Use:     "list <instance>",
	Short:   "List the mods of an instance",
	Aliases: []string{"ls"},
	Args:    cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		inst := cmdshared.LoadInstance(cmd.Context(), args[0])
		showDisabled := viper.GetBool("mods.list.disabled")
		showEnabled := viper.GetBool("mods.list.enabled")
		if showDisabled && showEnabled {
			fmt.Println("Cannot specify both --enabled and --disabled flags")
			os.Exit(1)
		}
		filter := modFilter{
			Enabled:   showEnabled,
			Disabled:  showDisabled,
			UserAdded: viper.GetBool("mods.list.user"),
		}
		for _, m := range filter.apply(inst.Launcher.Mods) {
			fmt.Println(describeMod(m))
		}
	},
}

var modsEnableCmd = &cobra.Command{
	Use:   "enable <instance> <mod>...",
	Short: "Enable disabled mods",
	Args:  cobra.MinimumNArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		toggleMods(cmd, args, true)
	},
}

var modsDisableCmd = &cobra.Command{
	Use:   "disable <instance> <mod>...",
	Short: "Disable mods without removing them",
	Args:  cobra.MinimumNArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		toggleMods(cmd, args, false)
	},
}

var modsRefreshCmd = &cobra.Command{
	Use:   "refresh <instance>",
	Short: "Pick up mods added to or removed from the instance's folders by hand",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		inst := cmdshared.LoadInstance(cmd.Context(), args[0])
		res, err := inst.Refresh()
		if err != nil {
			fmt.Println(err)
			os.Exit(1)
		}
		if !res.Changed() {
			fmt.Println("Mod list is already up to date!")
			return
		}
		for _, name := range res.Added {
			fmt.Printf("Added %s\n", name)
		}
		for _, name := range res.Removed {
			fmt.Printf("Removed %s\n", name)
		}
		if err := inst.Save(); err != nil {
			fmt.Println(err)
			os.Exit(1)
		}
		fmt.Println("Mod list refreshed!")
	},
}

var modsRemoveCmd = &cobra.Command{
	Use:     "remove <instance> <mod>",
	Short:   "Remove a user added mod from an instance",
	Aliases: []string{"rm", "delete"},
	Args:    cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		inst := cmdshared.LoadInstance(cmd.Context(), args[0])
		m, err := inst.FindModFuzzy(args[1])
		if err != nil {
			fmt.Println(err)
			os.Exit(1)
		}
		if !m.UserAdded {
			fmt.Printf("%s is part of the pack; disable it instead\n", m.Name)
			os.Exit(1)
		}
		name := m.Name
		if err := removeMod(inst, m); err != nil {
			fmt.Println(err)
			os.Exit(1)
		}
		if err := inst.Save(); err != nil {
			fmt.Println(err)
			os.Exit(1)
		}
		fmt.Printf("Mod %s removed successfully!\n", name)
	},
}

type modFilter struct {
	Enabled   bool
	Disabled  bool
	UserAdded bool
}

// apply returns the matching mods sorted by name, with numbers in names compared by value
func (f modFilter) apply(mods []instance.DisableableMod) []instance.DisableableMod {
	var out []instance.DisableableMod
	for _, m := range mods {
		if (f.Enabled && m.Disabled) || (f.Disabled && !m.Disabled) || (f.UserAdded && !m.UserAdded) {
			continue
		}
		out = append(out, m)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return flexver.Compare(strings.ToLower(out[i].Name), strings.ToLower(out[j].Name)) < 0
	})
	return out
}

func describeMod(m instance.DisableableMod) string {
	desc := m.Name
	if m.Version != "" {
		desc += " " + m.Version
	}
	desc += fmt.Sprintf(" (%s, %s)", m.File, m.Type)
	var tags []string
	if m.Disabled {
		tags = append(tags, "disabled")
	}
	if m.Optional {
		tags = append(tags, "optional")
	}
	if m.UserAdded {
		tags = append(tags, "user added")
	}
	if len(tags) > 0 {
		desc += " [" + strings.Join(tags, ", ") + "]"
	}
	return desc
}

func toggleMods(cmd *cobra.Command, args []string, enable bool) {
	inst := cmdshared.LoadInstance(cmd.Context(), args[0])
	changed, err := setModsEnabled(inst, args[1:], enable)
	// Save whatever was moved before an error, so the mod list matches the files
	if len(changed) > 0 {
		if saveErr := inst.Save(); saveErr != nil {
			fmt.Println(saveErr)
			os.Exit(1)
		}
	}
	for _, name := range changed {
		if enable {
			fmt.Printf("Enabled %s\n", name)
		} else {
			fmt.Printf("Disabled %s\n", name)
		}
	}
	if err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

// setModsEnabled enables or disables each named mod, returning the names of those that changed. The instance is
// not saved.
func setModsEnabled(inst *instance.Instance, names []string, enable bool) ([]string, error) {
	var changed []string
	for _, name := range names {
		m, err := inst.FindModFuzzy(name)
		if err != nil {
			return changed, err
		}
		if m.Disabled != enable {
			continue
		}
		if enable {
			err = m.Enable(inst)
		} else {
			err = m.Disable(inst)
		}
		if err != nil {
			return changed, err
		}
		changed = append(changed, m.Name)
	}
	return changed, nil
}

// removeMod deletes a mod's file and drops it from the mod list. m must point into the instance's mod list.
func removeMod(inst *instance.Instance, m *instance.DisableableMod) error {
	p, err := m.Path(inst)
	if err != nil {
		return err
	}
	if err := os.Remove(p); err != nil && !os.IsNotExist(err) {
		return err
	}
	file, typ := m.File, m.Type
	mods := inst.Launcher.Mods[:0]
	for _, other := range inst.Launcher.Mods {
		if other.File != file || other.Type != typ {
			mods = append(mods, other)
		}
	}
	inst.Launcher.Mods = mods
	order := inst.Launcher.JarOrder[:0]
	for _, f := range inst.Launcher.JarOrder {
		if f != file {
			order = append(order, f)
		}
	}
	inst.Launcher.JarOrder = order
	return nil
}

func init() {
	rootCmd.AddCommand(modsCmd)
	modsCmd.AddCommand(modsListCmd, modsEnableCmd, modsDisableCmd, modsRefreshCmd, modsRemoveCmd)

	modsListCmd.Flags().Bool("enabled", false, "Show only enabled mods")
	_ = viper.BindPFlag("mods.list.enabled", modsListCmd.Flags().Lookup("enabled"))
	modsListCmd.Flags().Bool("disabled", false, "Show only disabled mods")
	_ = viper.BindPFlag("mods.list.disabled", modsListCmd.Flags().Lookup("disabled"))
	modsListCmd.Flags().Bool("user", false, "Show only user added mods")
	_ = viper.BindPFlag("mods.list.user", modsListCmd.Flags().Lookup("user"))
}
