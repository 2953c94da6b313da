package settings

import (
	"github.com/packlaunch/packlaunch/cmd"
	"github.com/spf13/cobra"
)

// settingsCmd represents the base command when called without any subcommands
var settingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "Manage launcher settings",
}

func init() {
	cmd.Add(settingsCmd)
}
