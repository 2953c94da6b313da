package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/packlaunch/packlaunch/cmdshared"
	"github.com/packlaunch/packlaunch/core"
	"github.com/packlaunch/packlaunch/install"
	"github.com/packlaunch/packlaunch/instance"
	"github.com/packlaunch/packlaunch/minecraft"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// installCmd represents the install command
var installCmd = &cobra.Command{
	Use:     "install <instance>",
	Short:   "Reinstall an instance from its pack, repairing missing or changed files",
	Aliases: []string{"reinstall", "repair"},
	Args:    cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		ctx := cmd.Context()
		inst := cmdshared.LoadInstance(ctx, args[0])

		fmt.Println("Loading pack...")
		pack, source, err := instancePack(ctx, inst, viper.GetString("install.pack"))
		if err != nil {
			fmt.Println(err)
			os.Exit(1)
		}

		installer := install.NewUpdate(inst, pack)
		installer.Source = source
		if viper.GetBool("install.select") {
			installer.Selected, err = cmdshared.SelectOptionalMods(pack, inst.IsServer(), installer.Selected)
			if err != nil {
				fmt.Println(err)
				os.Exit(1)
			}
		}
		runInstaller(ctx, installer)
		fmt.Printf("Instance %s reinstalled (%s %s)\n", inst.Name(), pack.Name, pack.Version)
	},
}

// instancePack loads the pack an instance was installed from, or from override if given. Instances without a pack
// get a plain Minecraft pack for their version.
func instancePack(ctx context.Context, inst *instance.Instance, override string) (*core.PackVersion, string, error) {
	source := inst.Launcher.PackSource
	if override != "" {
		var err error
		source, err = packSource(override)
		if err != nil {
			return nil, "", err
		}
	}
	if source == "" {
		if inst.Launcher.Minecraft == "" {
			return nil, "", fmt.Errorf("instance %s has no pack and no Minecraft version", inst.Name())
		}
		pack := vanillaPack(inst.Launcher.Minecraft)
		if inst.Launcher.Pack != "" {
			pack.Name = inst.Launcher.Pack
		}
		return pack, "", nil
	}
	pack, err := core.LoadPackVersion(ctx, source)
	if err != nil {
		return nil, "", err
	}
	return pack, source, nil
}

func runInstaller(ctx context.Context, installer *install.Installer) {
	installer.Minecraft = minecraft.DefaultClient
	installer.Progress = cmdshared.NewProgress()
	installer.ManualDownload = cmdshared.ManualDownloads
	if err := installer.Install(ctx); err != nil {
		fmt.Printf("Failed to install %s: %v\n", installer.Instance.Name(), err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.AddCommand(installCmd)

	installCmd.Flags().String("pack", "", "Install from this pack.toml (path or URL) instead of the one the instance was created from")
	_ = viper.BindPFlag("install.pack", installCmd.Flags().Lookup("pack"))
	installCmd.Flags().Bool("select", false, "Choose the optional mods again")
	_ = viper.BindPFlag("install.select", installCmd.Flags().Lookup("select"))
}
