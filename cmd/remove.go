package cmd

import (
	"fmt"
	"os"

	"github.com/packlaunch/packlaunch/cmdshared"
	"github.com/packlaunch/packlaunch/instance"
	"github.com/spf13/cobra"
)

// removeCmd represents the remove command
var removeCmd = &cobra.Command{
	Use:     "remove <instance>",
	Short:   "Delete an instance and all of its files, including worlds",
	Aliases: []string{"delete", "rm"},
	Args:    cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		inst := cmdshared.LoadInstance(cmd.Context(), args[0])
		fmt.Printf("This deletes %s, including its worlds. Consider making a backup first.\n", inst.Root())
		if !cmdshared.PromptYesNo("Delete " + inst.Name() + "? [Y/n]: ") {
			fmt.Println("Cancelled!")
			return
		}
		if err := instance.Remove(inst); err != nil {
			fmt.Println(err)
			os.Exit(1)
		}
		fmt.Printf("Instance %s removed successfully!\n", inst.Name())
	},
}

func init() {
	rootCmd.AddCommand(removeCmd)
}
