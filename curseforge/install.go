package curseforge

import (
	"context"
	"errors"
	"fmt"
	"os"
	"slices"
	"strings"

	"github.com/packlaunch/packlaunch/cmdshared"
	"github.com/packlaunch/packlaunch/install"
	"github.com/packlaunch/packlaunch/instance"
	"github.com/sahilm/fuzzy"
	"github.com/skratchdot/open-golang/open"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// installCmd represents the install command
var installCmd = &cobra.Command{
	Use:     "add <instance> [URL|slug|search]",
	Short:   "Add a project from a CurseForge URL, slug, ID or search to an instance",
	Aliases: []string{"install", "get"},
	Args:    cobra.MinimumNArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		ctx := cmd.Context()
		inst := cmdshared.LoadInstance(ctx, args[0])

		project, err := resolveProject(ctx, args[1:], inst.Launcher.Minecraft)
		if err != nil {
			fmt.Println(err)
			os.Exit(1)
		}
		if project == nil {
			fmt.Println("Cancelled!")
			return
		}

		file, err := chooseFile(ctx, *project, viper.GetUint32("curseforge.add.file-id"), inst.Launcher.Minecraft)
		if err != nil {
			fmt.Println(err)
			os.Exit(1)
		}

		m, err := addFile(ctx, inst, *project, file)
		if err != nil {
			fmt.Println(err)
			os.Exit(1)
		}
		fmt.Printf("Project \"%s\" successfully added! (%s)\n", m.Name, m.File)
	},
}

// resolveProject finds the project a user asked for, searching and asking them to choose when the argument isn't a
// URL, slug or ID. A nil project means the user cancelled.
func resolveProject(ctx context.Context, args []string, mcVersion string) (*modInfo, error) {
	if len(args) == 1 {
		slug, projectID, fileID, ok := parseSlugOrUrl(args[0])
		if ok {
			if projectID == 0 {
				id, err := api.modIDFromSlug(ctx, slug)
				// Not a slug after all; search for it instead
				if err == nil {
					projectID = id
				}
			}
			if projectID != 0 {
				if fileID != 0 {
					viper.Set("curseforge.add.file-id", fileID)
				}
				project, err := api.getModInfo(ctx, projectID)
				if err != nil {
					return nil, err
				}
				return &project, nil
			}
		}
	}

	searchTerm := strings.Join(args, " ")
	fmt.Println("Searching CurseForge...")
	results, err := api.getSearch(ctx, searchTerm, "", mcVersion)
	if err != nil {
		return nil, err
	}
	if len(results) == 0 {
		return nil, errors.New("no projects found")
	}

	// Put the closest names to the search term first
	names := make([]string, len(results))
	for i, v := range results {
		names[i] = v.Name
	}
	order := make([]int, 0, len(results))
	for _, match := range fuzzy.Find(searchTerm, names) {
		order = append(order, match.Index)
	}
	for i := range results {
		if !slices.Contains(order, i) {
			order = append(order, i)
		}
	}
	options := make([]string, len(order))
	for i, idx := range order {
		options[i] = names[idx]
	}
	n, err := cmdshared.ChooseOne(options)
	if err != nil || n < 0 {
		return nil, err
	}
	return &results[order[n]], nil
}

// chooseFile picks fileID if given, otherwise the newest file for the Minecraft version
func chooseFile(ctx context.Context, project modInfo, fileID uint32, mcVersion string) (modFileInfo, error) {
	if fileID == 0 {
		for _, v := range project.GameVersionLatestFiles {
			// Choose "newest" version by largest ID
			if v.GameVersion == mcVersion && v.ID > fileID {
				fileID = v.ID
			}
		}
		if fileID == 0 {
			return modFileInfo{}, fmt.Errorf("no files of %s are available for Minecraft %s", project.Name, mcVersion)
		}
	}

	// The API also provides some files inline, because that's efficient!
	for _, v := range project.LatestFiles {
		if v.ID == fileID {
			return v, nil
		}
	}
	return api.getFileInfo(ctx, project.ID, fileID)
}

// addFile downloads a CurseForge file into an instance. Files the API won't serve are opened in the browser for the
// user to download, then picked up from the Downloads folder.
func addFile(ctx context.Context, inst *instance.Instance, project modInfo, file modFileInfo) (*instance.DisableableMod, error) {
	m, err := toDisableableMod(project, file)
	if err != nil {
		return nil, err
	}
	if m.DownloadURL != "" {
		return install.AddMod(ctx, inst, m)
	}
	return addManually(inst, m, fileDownloadURL(project, file))
}

func addManually(inst *instance.Instance, m instance.DisableableMod, page string) (*instance.DisableableMod, error) {
	fmt.Printf("%s does not allow downloads from other applications; download %s from %s\n", m.Name, m.File, page)
	if viper.GetBool("non-interactive") {
		return nil, install.ErrCancelled
	}
	if cmdshared.PromptYesNo("Open the page in your browser? [Y/n]: ") {
		if err := open.Start(page); err != nil {
			fmt.Println("Opening page failed, direct link:")
			fmt.Println(page)
		}
	}
	if !cmdshared.PromptYesNo("Have you downloaded it? [Y/n]: ") {
		return nil, install.ErrCancelled
	}
	local, err := install.FindInDownloads(m.File, m.Hash, m.HashType)
	if err != nil {
		return nil, err
	}
	return install.AddLocalMod(inst, m, local)
}

func init() {
	curseforgeCmd.AddCommand(installCmd)

	installCmd.Flags().Uint32("file-id", 0, "The CurseForge file ID to add")
	_ = viper.BindPFlag("curseforge.add.file-id", installCmd.Flags().Lookup("file-id"))
}
