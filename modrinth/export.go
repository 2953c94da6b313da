package modrinth

import (
	"archive/zip"
	"encoding/json"
	"fmt"
	"io"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"slices"
	"sort"
	"strings"

	"github.com/packlaunch/packlaunch/cmdshared"
	"github.com/packlaunch/packlaunch/core"
	"github.com/packlaunch/packlaunch/instance"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// Pack is the modrinth.index.json of a .mrpack
type Pack struct {
	FormatVersion uint32            `json:"formatVersion"`
	Game          string            `json:"game"`
	VersionID     string            `json:"versionId"`
	Name          string            `json:"name"`
	Summary       string            `json:"summary,omitempty"`
	Files         []PackFile        `json:"files"`
	Dependencies  map[string]string `json:"dependencies"`
}

type PackFile struct {
	Path      string            `json:"path"`
	Hashes    map[string]string `json:"hashes"`
	Env       *PackFileEnv      `json:"env,omitempty"`
	Downloads []string          `json:"downloads"`
	FileSize  int64             `json:"fileSize"`
}

type PackFileEnv struct {
	Client string `json:"client"`
	Server string `json:"server"`
}

// exportCmd represents the export command
var exportCmd = &cobra.Command{
	Use:   "export <instance>",
	Short: "Export an instance into a .mrpack for Modrinth",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		inst := cmdshared.LoadInstance(cmd.Context(), args[0])

		fileName := viper.GetString("modrinth.export.output")
		if fileName == "" {
			fileName = instance.SafeName(inst.Name()) + ".mrpack"
		}
		if inst.Launcher.Version == "" {
			fmt.Println("Warning: the instance has no pack version; Modrinth requires one for a valid pack")
		}

		expFile, err := os.Create(fileName)
		if err != nil {
			fmt.Printf("Failed to create zip: %s\n", err.Error())
			os.Exit(1)
		}
		res, err := exportInstance(inst, expFile, viper.GetBool("modrinth.export.restrictDomains"))
		if err != nil {
			_ = expFile.Close()
			fmt.Println("Error writing export file: " + err.Error())
			os.Exit(1)
		}
		if err := expFile.Close(); err != nil {
			fmt.Println("Error writing export file: " + err.Error())
			os.Exit(1)
		}
		if len(res.Overrides) > 0 {
			cmdshared.PrintDisclaimer(false)
		}
		for _, f := range res.Overrides {
			fmt.Printf("%s added to zip\n", f)
		}
		fmt.Printf("Modpack exported to %s (%d files in the manifest)\n", fileName, res.ManifestFiles)
	},
}

type exportResult struct {
	ManifestFiles int
	Overrides     []string
}

var whitelistedHosts = []string{
	"cdn.modrinth.com",
	"github.com",
	"raw.githubusercontent.com",
	"gitlab.com",
}

func canBeIncludedDirectly(m instance.DisableableMod, restrictDomains bool) bool {
	if m.DownloadURL == "" {
		return false
	}
	if !restrictDomains {
		return true
	}
	modUrl, err := url.Parse(m.DownloadURL)
	return err == nil && slices.Contains(whitelistedHosts, modUrl.Host)
}

// overrideFolders are copied into the export as they are
var overrideFolders = []string{"config", "scripts", "resources"}

// exportInstance writes a .mrpack of the instance. Enabled mods with a download URL Modrinth accepts go in the
// manifest with hashes computed from the local files, everything else goes in the overrides.
func exportInstance(inst *instance.Instance, out io.Writer, restrictDomains bool) (exportResult, error) {
	var res exportResult
	exp := zip.NewWriter(out)

	// Add an overrides folder even if there are no files to go in it
	if _, err := exp.Create("overrides/"); err != nil {
		return res, fmt.Errorf("failed to add overrides folder: %w", err)
	}

	overrides := "overrides"
	if inst.IsServer() {
		overrides = "server-overrides"
	}
	env := &PackFileEnv{Client: "required", Server: "unsupported"}
	if inst.IsServer() {
		env = &PackFileEnv{Client: "unsupported", Server: "required"}
	}

	manifestFiles := make([]PackFile, 0)
	for _, m := range inst.Launcher.Mods {
		if m.Disabled || !m.Exists(inst) {
			continue
		}
		p, err := m.Path(inst)
		if err != nil {
			continue
		}
		rel, err := filepath.Rel(inst.Root(), p)
		if err != nil {
			return res, err
		}
		rel = filepath.ToSlash(rel)

		if !canBeIncludedDirectly(m, restrictDomains) {
			if err := cmdshared.AddToZip(exp, p, path.Join(overrides, rel)); err != nil {
				return res, err
			}
			res.Overrides = append(res.Overrides, rel)
			continue
		}

		f, err := manifestFile(m, p, rel)
		if err != nil {
			return res, err
		}
		if m.Optional {
			f.Env = &PackFileEnv{Client: "optional", Server: "optional"}
			if inst.IsServer() {
				f.Env.Client = "unsupported"
			} else {
				f.Env.Server = "unsupported"
			}
		} else {
			f.Env = env
		}
		manifestFiles = append(manifestFiles, f)
	}
	// sort by path so exports are reproducible
	sort.Slice(manifestFiles, func(i, j int) bool {
		return manifestFiles[i].Path < manifestFiles[j].Path
	})
	res.ManifestFiles = len(manifestFiles)

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
			return cmdshared.AddToZip(exp, p, path.Join(overrides, filepath.ToSlash(rel)))
		})
		if err != nil {
			return res, err
		}
	}

	dependencies := map[string]string{"minecraft": inst.Launcher.Minecraft}
	for _, loader := range instanceLoaders(inst) {
		if v := loaderVersion(inst, loader); v != "" {
			dependencies[mrpackDependency(loader)] = v
			break
		}
	}

	manifest := Pack{
		FormatVersion: 1,
		Game:          "minecraft",
		VersionID:     inst.Launcher.Version,
		Name:          inst.Name(),
		Summary:       inst.Launcher.Description,
		Files:         manifestFiles,
		Dependencies:  dependencies,
	}
	indexFile, err := exp.Create("modrinth.index.json")
	if err != nil {
		return res, fmt.Errorf("error creating manifest: %w", err)
	}
	w := json.NewEncoder(indexFile)
	w.SetIndent("", "    ")
	if err := w.Encode(manifest); err != nil {
		return res, fmt.Errorf("error writing manifest: %w", err)
	}
	return res, exp.Close()
}

func manifestFile(m instance.DisableableMod, p string, rel string) (PackFile, error) {
	// Modrinth URLs must be RFC3986
	u, err := core.ReencodeURL(m.DownloadURL)
	if err != nil {
		u = m.DownloadURL
	}
	hashes := make(map[string]string)
	for _, algo := range []string{"sha1", "sha512"} {
		hashes[algo], err = core.HashFile(p, algo)
		if err != nil {
			return PackFile{}, err
		}
	}
	info, err := os.Stat(p)
	if err != nil {
		return PackFile{}, err
	}
	return PackFile{
		Path:      rel,
		Hashes:    hashes,
		Downloads: []string{u},
		FileSize:  info.Size(),
	}, nil
}

// loaderVersion finds the version of a loader library in the instance's version data
func loaderVersion(inst *instance.Instance, loader string) string {
	for _, lib := range inst.Libraries {
		for _, v := range libraryLoaders {
			if v.loader != loader || !strings.HasPrefix(lib.Name, v.prefix) {
				continue
			}
			// group:artifact:version
			parts := strings.Split(lib.Name, ":")
			if len(parts) >= 3 {
				// Forge versions are prefixed with the Minecraft version
				return strings.TrimPrefix(parts[2], inst.Launcher.Minecraft+"-")
			}
		}
	}
	return ""
}

func mrpackDependency(loader string) string {
	switch loader {
	case "fabric", "quilt":
		return loader + "-loader"
	}
	return loader
}

func init() {
	modrinthCmd.AddCommand(exportCmd)
	exportCmd.Flags().Bool("restrictDomains", true, "Restricts domains to those allowed by modrinth.com")
	exportCmd.Flags().StringP("output", "o", "", "The file to export the modpack to")
	_ = viper.BindPFlag("modrinth.export.restrictDomains", exportCmd.Flags().Lookup("restrictDomains"))
	_ = viper.BindPFlag("modrinth.export.output", exportCmd.Flags().Lookup("output"))
}
