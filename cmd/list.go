package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/packlaunch/packlaunch/instance"
	"github.com/packlaunch/packlaunch/minecraft"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// listCmd represents the list command
var listCmd = &cobra.Command{
	Use:     "list",
	Short:   "List all instances",
	Aliases: []string{"ls"},
	Args:    cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		instances, err := instance.List(cmd.Context(), minecraft.DefaultClient)
		if err != nil {
			fmt.Println(err)
			os.Exit(1)
		}
		if len(instances) == 0 {
			fmt.Println("No instances yet; make one with create")
			return
		}
		for _, inst := range instances {
			fmt.Println(describeInstance(inst, viper.GetBool("list.details")))
		}
	},
}

func describeInstance(inst *instance.Instance, details bool) string {
	l := inst.Launcher
	desc := inst.Name()
	switch {
	case l.Pack != "" && l.Version != "":
		desc += fmt.Sprintf(" (%s %s, Minecraft %s)", l.Pack, l.Version, l.Minecraft)
	case l.Minecraft != "":
		desc += fmt.Sprintf(" (Minecraft %s)", l.Minecraft)
	}
	if inst.IsServer() {
		desc += " [server]"
	}
	if !details {
		return desc
	}
	desc += fmt.Sprintf("\n  mods: %d, played %d times for %s", len(l.Mods), l.NumPlays,
		(time.Duration(l.PlayTime) * time.Second).String())
	if !l.LastPlayed.IsZero() {
		desc += ", last on " + l.LastPlayed.Format(time.DateOnly)
	}
	return desc
}

func init() {
	rootCmd.AddCommand(listCmd)

	listCmd.Flags().BoolP("details", "d", false, "Show mod counts and play time")
	_ = viper.BindPFlag("list.details", listCmd.Flags().Lookup("details"))
}
