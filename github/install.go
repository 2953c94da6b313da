package github

import (
	"context"
	"fmt"
	"os"

	"github.com/dlclark/regexp2"
	"github.com/packlaunch/packlaunch/cmdshared"
	"github.com/packlaunch/packlaunch/install"
	"github.com/packlaunch/packlaunch/instance"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// installCmd represents the install command
var installCmd = &cobra.Command{
	Use:     "add <instance> <owner/repo|URL>",
	Short:   "Add a mod from a GitHub release to an instance",
	Aliases: []string{"install", "get"},
	Args:    cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		ctx := cmd.Context()
		inst := cmdshared.LoadInstance(ctx, args[0])

		slug, tag, ok := parseSlug(args[1])
		if !ok {
			fmt.Printf("%s is not a GitHub repository\n", args[1])
			os.Exit(1)
		}
		if t := viper.GetString("github.add.tag"); t != "" {
			tag = t
		}

		var expr *regexp2.Regexp
		if pattern := viper.GetString("github.add.regex"); pattern != "" {
			var err error
			expr, err = regexp2.Compile(pattern, regexp2.None)
			if err != nil {
				fmt.Printf("Invalid asset regex: %v\n", err)
				os.Exit(1)
			}
		}

		m, err := addRelease(ctx, inst, slug, tag, viper.GetString("github.add.branch"), expr)
		if err != nil {
			fmt.Printf("Failed to add mod: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Mod \"%s\" successfully added! (%s)\n", m.Name, m.File)
	},
}

// addRelease downloads an asset of a repository's release into an instance's mods folder
func addRelease(ctx context.Context, inst *instance.Instance, slug string, tag string, branch string, expr *regexp2.Regexp) (*instance.DisableableMod, error) {
	repo, err := api.getRepo(ctx, slug)
	if err != nil {
		return nil, err
	}
	releases, err := api.getReleases(ctx, slug)
	if err != nil {
		return nil, err
	}
	release, err := findRelease(releases, tag, branch)
	if err != nil {
		return nil, err
	}
	asset, err := findAsset(release, expr)
	if err != nil {
		return nil, err
	}
	fmt.Printf("Installing %s from release %s\n", asset.Name, release.TagName)

	hashType, hash := asset.digest()
	name := repo.Name
	if name == "" {
		name = slug
	}
	return install.AddMod(ctx, inst, instance.DisableableMod{
		Name:        name,
		Version:     release.TagName,
		File:        asset.Name,
		Type:        install.TypeForFile(inst, asset.Name),
		Description: repo.Description,
		DownloadURL: asset.BrowserDownloadURL,
		Hash:        hash,
		HashType:    hashType,
	})
}

func init() {
	githubCmd.AddCommand(installCmd)

	installCmd.Flags().String("branch", "", "Only use releases made from this branch")
	installCmd.Flags().String("tag", "", "The release tag to add")
	installCmd.Flags().String("regex", "", "A regular expression the asset's file name must match")
	_ = viper.BindPFlag("github.add.branch", installCmd.Flags().Lookup("branch"))
	_ = viper.BindPFlag("github.add.tag", installCmd.Flags().Lookup("tag"))
	_ = viper.BindPFlag("github.add.regex", installCmd.Flags().Lookup("regex"))
}
