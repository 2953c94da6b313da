package curseforge

import (
	"archive/zip"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/packlaunch/packlaunch/cmdshared"
	"github.com/packlaunch/packlaunch/core"
	"github.com/packlaunch/packlaunch/curseforge/packinterop"
	"github.com/packlaunch/packlaunch/install"
	"github.com/packlaunch/packlaunch/instance"
	"github.com/packlaunch/packlaunch/minecraft"
	"github.com/spf13/cobra"
)

// importCmd represents the import command
var importCmd = &cobra.Command{
	Use:   "import <modpack zip|CurseForge instance folder> [name]",
	Short: "Create an instance from a CurseForge modpack",
	Args:  cobra.RangeArgs(1, 2),
	Run: func(cmd *cobra.Command, args []string) {
		ctx := cmd.Context()
		src, closer, err := openPackSource(args[0])
		if err != nil {
			fmt.Println(err)
			os.Exit(1)
		}
		defer closer.Close()

		fmt.Println("Reading modpack metadata...")
		imported, err := importPack(ctx, src)
		if err != nil {
			fmt.Println(err)
			os.Exit(1)
		}

		name := imported.Pack.Name
		if len(args) > 1 {
			name = args[1]
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
		packFile := filepath.Join(inst.Root(), "pack.toml")
		if err := os.MkdirAll(inst.Root(), os.ModePerm); err != nil {
			fmt.Println(err)
			os.Exit(1)
		}
		if err := imported.Pack.Write(packFile); err != nil {
			fmt.Println(err)
			os.Exit(1)
		}

		selected, err := cmdshared.SelectOptionalMods(imported.Pack, false, nil)
		if err != nil {
			fmt.Println(err)
			os.Exit(1)
		}
		installer := &install.Installer{
			Pack:           imported.Pack,
			Instance:       inst,
			Selected:       selected,
			Source:         packFile,
			Minecraft:      minecraft.DefaultClient,
			Progress:       cmdshared.NewProgress(),
			ManualDownload: cmdshared.ManualDownloads,
		}
		if err := installer.Install(ctx); err != nil {
			fmt.Printf("Failed to install %s: %v\n", name, err)
			os.Exit(1)
		}

		n, err := extractOverrides(imported.Files, inst.Root())
		if err != nil {
			fmt.Printf("Failed to copy overrides: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Copied %d override files\n", n)
		if len(imported.Loaders) > 0 {
			fmt.Printf("This pack needs %s, which must be added to the instance as a jar mod\n", imported.loaderList())
		}
		fmt.Printf("Instance %s created from %s\n", inst.Name(), imported.Pack.Name)
	},
}

type importedPack struct {
	Pack  *core.PackVersion
	Files []packinterop.File
	// Loaders maps mod loader ids to versions
	Loaders map[string]string
}

func (p *importedPack) loaderList() string {
	list := make([]string, 0, len(p.Loaders))
	for k, v := range p.Loaders {
		list = append(list, k+" "+v)
	}
	sort.Strings(list)
	return strings.Join(list, ", ")
}

// openPackSource opens a CurseForge modpack zip, or a folder holding a manifest.json or minecraftinstance.json
func openPackSource(path string) (packinterop.Source, io.Closer, error) {
	info, err := os.Stat(path)
	if errors.Is(err, os.ErrNotExist) && !filepath.IsAbs(path) {
		// Maybe it names an instance of the CurseForge app
		if curseDir, curseErr := getCurseDir(); curseErr == nil {
			candidate := filepath.Join(curseDir, "Minecraft", "Instances", path)
			if info, err = os.Stat(candidate); err == nil {
				path = candidate
			}
		}
	}
	if err != nil {
		return nil, nil, err
	}
	if info.IsDir() {
		for _, metaName := range []string{"manifest.json", "minecraftinstance.json"} {
			if core.FileExists(filepath.Join(path, metaName)) {
				return packinterop.DirSource(path, metaName), io.NopCloser(nil), nil
			}
		}
		return nil, nil, fmt.Errorf("%s has no manifest.json or minecraftinstance.json", path)
	}

	zr, err := zip.OpenReader(path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open modpack zip: %w", err)
	}
	src, err := packinterop.ZipSource(&zr.Reader, "manifest.json")
	if err != nil {
		_ = zr.Close()
		return nil, nil, fmt.Errorf("%s: %w", path, err)
	}
	return src, zr, nil
}

// importPack turns a CurseForge modpack into a pack version, looking up every file it references
func importPack(ctx context.Context, src packinterop.Source) (*importedPack, error) {
	meta, err := packinterop.ReadMetadata(src)
	if err != nil {
		return nil, err
	}
	versions := meta.Versions()
	refs := meta.Mods()

	fileIDs := make([]uint32, len(refs))
	projectIDs := make([]uint32, len(refs))
	for i, ref := range refs {
		fileIDs[i] = ref.FileID
		projectIDs[i] = ref.ProjectID
	}
	files := make(map[uint32]modFileInfo)
	projects := make(map[uint32]modInfo)
	if len(refs) > 0 {
		fileInfos, err := api.getFileInfoMultiple(ctx, fileIDs)
		if err != nil {
			return nil, err
		}
		for _, v := range fileInfos {
			files[v.ID] = v
		}
		projectInfos, err := api.getModInfoMultiple(ctx, projectIDs)
		if err != nil {
			return nil, err
		}
		for _, v := range projectInfos {
			projects[v.ID] = v
		}
	}

	pack := &core.PackVersion{
		Name:      meta.Name(),
		Version:   meta.PackVersion(),
		Minecraft: versions["minecraft"],
	}
	if pack.Version == "" {
		pack.Version = "1.0.0"
	}
	names := make(map[string]bool)
	for _, ref := range refs {
		file, ok := files[ref.FileID]
		if !ok {
			return nil, fmt.Errorf("file %d of project %d was not found on CurseForge", ref.FileID, ref.ProjectID)
		}
		project, ok := projects[ref.ProjectID]
		if !ok {
			return nil, fmt.Errorf("project %d was not found on CurseForge", ref.ProjectID)
		}
		m, err := toPackMod(project, file, ref.OptionalDisabled)
		if err != nil {
			return nil, err
		}
		if ref.OptionalDisabled {
			m.Selected = false
		}
		if names[m.Name] {
			m.Name += " (" + strconv.FormatUint(uint64(project.ID), 10) + ")"
		}
		names[m.Name] = true
		pack.Mods = append(pack.Mods, m)
	}

	loaders := make(map[string]string)
	for k, v := range versions {
		if k != "minecraft" {
			loaders[k] = v
		}
	}
	if err := pack.Validate(); err != nil {
		return nil, err
	}
	overrides, err := meta.OverrideFiles()
	if err != nil {
		return nil, err
	}
	return &importedPack{Pack: pack, Files: overrides, Loaders: loaders}, nil
}

// extractOverrides copies the pack's override files into the instance
func extractOverrides(files []packinterop.File, root string) (int, error) {
	n := 0
	for _, f := range files {
		name := filepath.FromSlash(f.Name())
		if !filepath.IsLocal(name) {
			return n, fmt.Errorf("override %s is outside the instance", f.Name())
		}
		dest := filepath.Join(root, name)
		if err := os.MkdirAll(filepath.Dir(dest), os.ModePerm); err != nil {
			return n, err
		}
		if err := copyOverride(f, dest); err != nil {
			return n, fmt.Errorf("failed to copy %s: %w", f.Name(), err)
		}
		n++
	}
	return n, nil
}

func copyOverride(f packinterop.File, dest string) error {
	r, err := f.Open()
	if err != nil {
		return err
	}
	defer r.Close()
	w, err := os.Create(dest)
	if err != nil {
		return err
	}
	if _, err := io.Copy(w, r); err != nil {
		_ = w.Close()
		return err
	}
	return w.Close()
}

func init() {
	curseforgeCmd.AddCommand(importCmd)
}
