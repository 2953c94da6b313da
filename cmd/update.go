package cmd

import (
	"fmt"
	"os"

	"github.com/packlaunch/packlaunch/cmdshared"
	"github.com/packlaunch/packlaunch/install"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// updateCmd represents the update command
var updateCmd = &cobra.Command{
	Use:     "update <instance>",
	Short:   "Update an instance to the latest version of its pack",
	Aliases: []string{"upgrade"},
	Args:    cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		ctx := cmd.Context()
		inst := cmdshared.LoadInstance(ctx, args[0])
		if inst.Launcher.PackSource == "" && viper.GetString("update.pack") == "" {
			fmt.Printf("Instance %s wasn't installed from a pack, so it can't be updated\n", inst.Name())
			os.Exit(1)
		}

		fmt.Println("Checking for updates...")
		pack, source, err := instancePack(ctx, inst, viper.GetString("update.pack"))
		if err != nil {
			fmt.Println(err)
			os.Exit(1)
		}
		if !install.UpdateAvailable(inst, pack) {
			fmt.Printf("%s is already up to date! (%s)\n", inst.Name(), inst.Launcher.Version)
			return
		}
		fmt.Printf("Update available: %s -> %s\n", inst.Launcher.Version, pack.Version)
		if viper.GetBool("update.check") {
			return
		}
		if viper.GetBool("update.ignore") {
			install.IgnoreUpdate(inst, pack.Version)
			if err := inst.Save(); err != nil {
				fmt.Println(err)
				os.Exit(1)
			}
			fmt.Printf("Version %s will not be offered again\n", pack.Version)
			return
		}

		if pack.Messages.Update != "" {
			fmt.Println(pack.Messages.Update)
		}
		if !cmdshared.PromptYesNo("Do you want to update now? [Y/n]: ") {
			fmt.Println("Cancelled!")
			return
		}

		installer := install.NewUpdate(inst, pack)
		installer.Source = source
		if newMods := install.NewOptionalMods(inst, pack); len(newMods) > 0 {
			fmt.Println("This version has new optional mods:")
			for _, m := range newMods {
				fmt.Println(m.Name)
			}
			installer.Selected, err = cmdshared.SelectOptionalMods(pack, inst.IsServer(), installer.Selected)
			if err != nil {
				fmt.Println(err)
				os.Exit(1)
			}
		}
		runInstaller(ctx, installer)
		fmt.Printf("%s updated to %s!\n", inst.Name(), pack.Version)
	},
}

func init() {
	rootCmd.AddCommand(updateCmd)

	updateCmd.Flags().String("pack", "", "Update from this pack.toml (path or URL) instead of the one the instance was created from")
	_ = viper.BindPFlag("update.pack", updateCmd.Flags().Lookup("pack"))
	updateCmd.Flags().Bool("check", false, "Only check whether an update is available")
	_ = viper.BindPFlag("update.check", updateCmd.Flags().Lookup("check"))
	updateCmd.Flags().Bool("ignore", false, "Ignore the available version; it won't be offered again")
	_ = viper.BindPFlag("update.ignore", updateCmd.Flags().Lookup("ignore"))
}
