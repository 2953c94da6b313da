package curseforge

import (
	"fmt"
	"os"

	"github.com/packlaunch/packlaunch/cmdshared"
	"github.com/packlaunch/packlaunch/core"
	"github.com/skratchdot/open-golang/open"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var openCmd = &cobra.Command{
	Use:     "open <instance> <mod>",
	Short:   "Open the CurseForge page of an installed mod in your browser",
	Aliases: []string{"doc"},
	Args:    cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		inst := cmdshared.LoadInstance(cmd.Context(), args[0])
		m, err := inst.FindModFuzzy(args[1])
		if err != nil {
			fmt.Println(err)
			os.Exit(1)
		}
		if m.CurseForge == nil {
			fmt.Printf("%s was not installed from CurseForge\n", m.Name)
			os.Exit(1)
		}
		page := projectURL(m.CurseForge.ProjectID)
		if err := open.Start(page); err != nil {
			core.Log.Debug("failed to open browser", zap.Error(err))
			fmt.Printf("Couldn't open a browser, the page is at %s\n", page)
		}
	},
}

func init() {
	curseforgeCmd.AddCommand(openCmd)
}
