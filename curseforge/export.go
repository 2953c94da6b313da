package curseforge

import (
	"archive/zip"
	"bufio"
	"fmt"
	"html"
	"io"
	"os"
	"path"
	"path/filepath"

	"github.com/packlaunch/packlaunch/cmdshared"
	"github.com/packlaunch/packlaunch/curseforge/packinterop"
	"github.com/packlaunch/packlaunch/instance"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// exportCmd represents the export command
var exportCmd = &cobra.Command{
	Use:   "export <instance>",
	Short: "Export an instance into a .zip for curseforge",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		inst := cmdshared.LoadInstance(cmd.Context(), args[0])

		fileName := viper.GetString("curseforge.export.output")
		if fileName == "" {
			fileName = instance.SafeName(inst.Name()) + ".zip"
		}

		expFile, err := os.Create(fileName)
		if err != nil {
			fmt.Printf("Failed to create zip: %s\n", err.Error())
			os.Exit(1)
		}
		cmdshared.PrintDisclaimer(true)
		res, err := exportInstance(inst, expFile, viper.GetUint32("curseforge.export.project-id"))
		if err != nil {
			_ = expFile.Close()
			fmt.Println("Error writing export file: " + err.Error())
			os.Exit(1)
		}
		err = expFile.Close()
		if err != nil {
			fmt.Println("Error writing export file: " + err.Error())
			os.Exit(1)
		}
		for _, f := range res.Overrides {
			fmt.Printf("%s added to zip\n", f)
		}
		fmt.Printf("Modpack exported to %s (%d CurseForge files)\n", fileName, res.CurseForgeFiles)
	},
}

type exportResult struct {
	CurseForgeFiles int
	Overrides       []string
}

// overrideFolders are copied into the export as they are, alongside mods that didn't come from CurseForge
var overrideFolders = []string{"config", "scripts", "resources"}

// exportInstance writes a CurseForge modpack zip. Mods added from CurseForge go in the manifest, every other mod
// file goes in the overrides.
func exportInstance(inst *instance.Instance, out io.Writer, projectID uint32) (exportResult, error) {
	var res exportResult
	exp := zip.NewWriter(out)

	// Add an overrides folder even if there are no files to go in it
	if _, err := exp.Create("overrides/"); err != nil {
		return res, fmt.Errorf("failed to add overrides folder: %w", err)
	}

	var refs []packinterop.AddonFileReference
	for _, m := range inst.Launcher.Mods {
		if m.CurseForge != nil {
			refs = append(refs, packinterop.AddonFileReference{
				ProjectID:        m.CurseForge.ProjectID,
				FileID:           m.CurseForge.FileID,
				OptionalDisabled: m.Disabled,
			})
			continue
		}
		if m.Disabled {
			continue
		}
		p, err := m.Path(inst)
		if err != nil || !m.Exists(inst) {
			continue
		}
		rel, err := filepath.Rel(inst.Root(), p)
		if err != nil {
			return res, err
		}
		dest := path.Join("overrides", filepath.ToSlash(rel))
		if err := cmdshared.AddToZip(exp, p, dest); err != nil {
			return res, err
		}
		res.Overrides = append(res.Overrides, filepath.ToSlash(rel))
	}
	res.CurseForgeFiles = len(refs)

	for _, folder := range overrideFolders {
		root := filepath.Join(inst.Root(), folder)
		err := filepath.Walk(root, func(p string, info os.FileInfo, err error) error {
			if err != nil {
				if os.IsNotExist(err) {
					return nil
				}
				return err
			}
			if info.IsDir() {
				return nil
			}
			rel, err := filepath.Rel(inst.Root(), p)
			if err != nil {
				return err
			}
			res.Overrides = append(res.Overrides, filepath.ToSlash(rel))
			return cmdshared.AddToZip(exp, p, path.Join("overrides", filepath.ToSlash(rel)))
		})
		if err != nil {
			return res, err
		}
	}

	manifestFile, err := exp.Create("manifest.json")
	if err != nil {
		return res, fmt.Errorf("error creating manifest: %w", err)
	}
	err = packinterop.WriteManifest(packinterop.ManifestInfo{
		Name:     inst.Name(),
		Version:  inst.Launcher.Version,
		Versions: map[string]string{"minecraft": inst.Launcher.Minecraft},
	}, refs, projectID, manifestFile)
	if err != nil {
		return res, fmt.Errorf("error writing manifest: %w", err)
	}

	if err := createModlist(exp, inst.Launcher.Mods); err != nil {
		return res, fmt.Errorf("error creating mod list: %w", err)
	}
	return res, exp.Close()
}

func createModlist(zw *zip.Writer, mods []instance.DisableableMod) error {
	modlistFile, err := zw.Create("modlist.html")
	if err != nil {
		return err
	}

	w := bufio.NewWriter(modlistFile)

	_, err = w.WriteString("<ul>\r\n")
	if err != nil {
		return err
	}
	for _, mod := range mods {
		if mod.CurseForge == nil {
			_, err = w.WriteString("<li>" + html.EscapeString(mod.Name) + "</li>\r\n")
		} else {
			_, err = w.WriteString("<li><a href=\"" + projectURL(mod.CurseForge.ProjectID) + "\">" + html.EscapeString(mod.Name) + "</a></li>\r\n")
		}
		if err != nil {
			return err
		}
	}
	_, err = w.WriteString("</ul>\r\n")
	if err != nil {
		return err
	}
	return w.Flush()
}

func init() {
	curseforgeCmd.AddCommand(exportCmd)

	exportCmd.Flags().StringP("output", "o", "", "The file to export the modpack to")
	_ = viper.BindPFlag("curseforge.export.output", exportCmd.Flags().Lookup("output"))
	exportCmd.Flags().Uint32("project-id", 0, "The CurseForge project ID of the modpack")
	_ = viper.BindPFlag("curseforge.export.project-id", exportCmd.Flags().Lookup("project-id"))
}
