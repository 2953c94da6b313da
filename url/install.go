package url

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"os"

	"github.com/packlaunch/packlaunch/cmdshared"
	"github.com/packlaunch/packlaunch/core"
	"github.com/packlaunch/packlaunch/install"
	"github.com/packlaunch/packlaunch/instance"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var installCmd = &cobra.Command{
	Use:     "add <instance> <url> [name]",
	Short:   "Add a file to an instance from a direct download link",
	Aliases: []string{"install", "get"},
	Args:    cobra.RangeArgs(2, 3),
	Run: func(cmd *cobra.Command, args []string) {
		dl, err := url.Parse(args[1])
		if err != nil {
			fmt.Println("Failed parsing URL:", err)
			os.Exit(1)
		}
		if dl.Scheme != "https" && dl.Scheme != "http" {
			fmt.Println("Unsupported url scheme", dl.Scheme)
			os.Exit(1)
		}

		if !viper.GetBool("url.add.force") {
			if msg := supportedSource(dl); msg != "" {
				fmt.Println("Consider using packlaunch", msg, "instead; if you know what you are doing use --force to add this file anyway")
				os.Exit(1)
			}
		}

		ctx := cmd.Context()
		inst := cmdshared.LoadInstance(ctx, args[0])
		var name string
		if len(args) > 2 {
			name = args[2]
		}

		m, err := addURL(ctx, inst, name, args[1], core.ModType(viper.GetString("url.add.type")))
		if err != nil {
			fmt.Printf("Failed to add %s: %v\n", args[1], err)
			os.Exit(1)
		}
		fmt.Println("Successfully added", m.Name, "from url", args[1])
	},
}

// supportedSource suggests the command to use for URLs of sites that have their own
func supportedSource(dl *url.URL) string {
	switch dl.Host {
	case "github.com":
		return "github add <instance> " + dl.String()
	case "modrinth.com", "cdn.modrinth.com":
		return "modrinth add <instance> " + dl.String()
	case "www.curseforge.com", "curseforge.com":
		return "curseforge add <instance> " + dl.String()
	}
	return ""
}

// addURL downloads a file into an instance. Nothing is known about the file in advance, so its SHA-1 is computed
// once it is downloaded.
func addURL(ctx context.Context, inst *instance.Instance, name string, rawURL string, typ core.ModType) (*instance.DisableableMod, error) {
	file := viper.GetString("url.add.file")
	if file == "" {
		file = core.FileNameFromURL(rawURL)
	}
	if file == "" || file == "/" || file == "." {
		return nil, errors.New("the URL has no file name; pass one with --file")
	}
	if typ == "" {
		typ = install.TypeForFile(inst, file)
	}
	if !typ.Valid() {
		return nil, fmt.Errorf("unknown mod type %s", typ)
	}
	return install.AddMod(ctx, inst, instance.DisableableMod{
		Name:        name,
		File:        file,
		Type:        typ,
		DownloadURL: rawURL,
	})
}

func init() {
	urlCmd.AddCommand(installCmd)

	installCmd.Flags().Bool("force", false, "Add a file even if the supplied url is supported by another command")
	installCmd.Flags().String("type", "", "How the file is installed (mods, coremods, jar, resourcepack, shaderpack, plugins...)")
	installCmd.Flags().String("file", "", "The file name to save the download as")
	_ = viper.BindPFlag("url.add.force", installCmd.Flags().Lookup("force"))
	_ = viper.BindPFlag("url.add.type", installCmd.Flags().Lookup("type"))
	_ = viper.BindPFlag("url.add.file", installCmd.Flags().Lookup("file"))
}
