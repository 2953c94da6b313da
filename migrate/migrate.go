package migrate

import (
	"github.com/packlaunch/packlaunch/cmd"
	"github.com/spf13/cobra"
)

// migrateCmd represents the base command when called without any subcommands
var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Upgrade launcher data written by older versions",
}

func init() {
	cmd.Add(migrateCmd)
}
