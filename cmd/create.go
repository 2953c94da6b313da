package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/fatih/camelcase"
	"github.com/igorsobreira/titlecase"
	"github.com/packlaunch/packlaunch/cmdshared"
	"github.com/packlaunch/packlaunch/core"
	"github.com/packlaunch/packlaunch/install"
	"github.com/packlaunch/packlaunch/instance"
	"github.com/packlaunch/packlaunch/minecraft"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// createCmd represents the create command
var createCmd = &cobra.Command{
	Use:     "create [name]",
	Short:   "Create an instance from a pack, or a plain Minecraft instance",
	Aliases: []string{"new"},
	Args:    cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		ctx := cmd.Context()
		source := viper.GetString("create.pack")
		mcVersion := viper.GetString("create.minecraft")
		if source != "" && mcVersion != "" {
			fmt.Println("--pack and --minecraft cannot be used together")
			os.Exit(1)
		}

		var pack *core.PackVersion
		var err error
		if source != "" {
			fmt.Println("Loading pack...")
			source, err = packSource(source)
			if err != nil {
				fmt.Println(err)
				os.Exit(1)
			}
			pack, err = core.LoadPackVersion(ctx, source)
			if err != nil {
				fmt.Println(err)
				os.Exit(1)
			}
		} else {
			pack = vanillaPack(cmdshared.CheckValidMCVersion(ctx, mcVersion))
		}

		var name string
		if len(args) > 0 {
			name = args[0]
		} else {
			def := instanceName(pack.Name)
			name = cmdshared.PromptString("Instance name", def)
		}
		if instance.SafeName(name) == "" {
			fmt.Println("The instance name must contain at least one letter or digit")
			os.Exit(1)
		}
		if instance.Exists(name) {
			fmt.Printf("An instance called %s already exists\n", name)
			os.Exit(1)
		}
		inst, err := instance.New(name)
		if err != nil {
			fmt.Println(err)
			os.Exit(1)
		}

		server := viper.GetBool("create.server")
		selected, err := cmdshared.SelectOptionalMods(pack, server, nil)
		if err != nil {
			fmt.Println(err)
			os.Exit(1)
		}
		installer := &install.Installer{
			Pack:           pack,
			Instance:       inst,
			Server:         server,
			Selected:       selected,
			Source:         source,
			Minecraft:      minecraft.DefaultClient,
			Progress:       cmdshared.NewProgress(),
			ManualDownload: cmdshared.ManualDownloads,
		}
		if err := installer.Install(ctx); err != nil {
			fmt.Printf("Failed to install %s: %v\n", name, err)
			// Don't leave a half installed instance behind
			_ = instance.Remove(inst)
			os.Exit(1)
		}
		if pack.Messages.Install != "" {
			fmt.Println(pack.Messages.Install)
		}
		fmt.Printf("Instance %s created (Minecraft %s)\n", inst.Name(), pack.Minecraft)
	},
}

// packSource makes a local pack path absolute, so the instance can find it again for updates
func packSource(source string) (string, error) {
	if strings.HasPrefix(source, "http://") || strings.HasPrefix(source, "https://") {
		return source, nil
	}
	info, err := os.Stat(source)
	if err != nil {
		return "", err
	}
	if info.IsDir() {
		source = filepath.Join(source, "pack.toml")
	}
	return filepath.Abs(source)
}

// vanillaPack is a pack with no mods, for a plain Minecraft instance
func vanillaPack(mcVersion string) *core.PackVersion {
	return &core.PackVersion{
		Name:      "Minecraft " + mcVersion,
		Minecraft: mcVersion,
	}
}

// instanceName turns a pack name like "skyFactory_4" into a proper name like "Sky Factory 4". Names that already
// have spaces are left alone.
func instanceName(packName string) string {
	if strings.ContainsRune(packName, ' ') {
		return packName
	}
	var words []string
	for _, w := range camelcase.Split(packName) {
		w = strings.Trim(w, "-_. ")
		if w != "" {
			words = append(words, w)
		}
	}
	return titlecase.Title(strings.Join(words, " "))
}

func init() {
	rootCmd.AddCommand(createCmd)

	createCmd.Flags().String("pack", "", "The pack.toml (path or URL) to install")
	_ = viper.BindPFlag("create.pack", createCmd.Flags().Lookup("pack"))
	createCmd.Flags().String("minecraft", "", "The Minecraft version for an instance without a pack (default is the latest release)")
	_ = viper.BindPFlag("create.minecraft", createCmd.Flags().Lookup("minecraft"))
	createCmd.Flags().Bool("server", false, "Install the server side of the pack")
	_ = viper.BindPFlag("create.server", createCmd.Flags().Lookup("server"))
}
