package install

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/packlaunch/packlaunch/core"
	"github.com/packlaunch/packlaunch/instance"
	"github.com/packlaunch/packlaunch/minecraft"
	"go.uber.org/zap"
)

// ErrCancelled is returned when the user backs out of an install, for example by not fetching a manual download
var ErrCancelled = errors.New("install cancelled")

// Progress is told about each file as the download pool finishes it
type Progress interface {
	Start(stage string, total int)
	Increment()
	Finish()
}

// ManualDownloadHandler is called with the mods that must be downloaded through a browser and could not be
// found. It returns once the user has fetched them, or ErrCancelled.
type ManualDownloadHandler func(mods []*core.Mod, downloadsDir string) error

// Installer installs a pack version into an instance
type Installer struct {
	Pack     *core.PackVersion
	Instance *instance.Instance
	// Server installs the server side of the pack
	Server bool
	// Selected names the optional mods to install; required mods are always installed
	Selected []string
	// Reinstall clears the pack's previous files first, keeping user added mods
	Reinstall bool

	// Source is the path or URL the pack was loaded from, remembered for updates
	Source string

	Minecraft      *minecraft.Client
	Progress       Progress
	ManualDownload ManualDownloadHandler
	Workers        int

	mods          []*core.Mod
	downloads     map[string]string
	files         map[string][]string
	tempDir       string
	jarTempDir    string
	jarOrder      []string
	installed     []instance.DisableableMod
	keptUserMods  []instance.DisableableMod
	wasDisabled   map[string]bool
	version       *minecraft.Version
	natives       []minecraft.NativeJar
	packLibraries []minecraft.Library
}

// IsServer reports whether the server side of the pack is being installed
func (i *Installer) IsServer() bool {
	return i.Server
}

// TempDir is scratch space for archives being unpacked during this install
func (i *Installer) TempDir() string {
	return i.tempDir
}

// Install runs a whole install: Minecraft, libraries, assets, mods and actions. The instance is saved at the end.
func (i *Installer) Install(ctx context.Context) error {
	if err := i.Pack.Validate(); err != nil {
		return err
	}
	if i.Minecraft == nil {
		i.Minecraft = minecraft.DefaultClient
	}
	mods, err := i.Pack.ResolveSelection(i.Selected, i.Server)
	if err != nil {
		return err
	}
	i.mods = mods
	i.downloads = make(map[string]string)
	i.files = make(map[string][]string)

	// The game jar's location depends on both
	if i.Server {
		i.Instance.Type = "server"
	} else {
		i.Instance.Type = "client"
	}
	i.Instance.Launcher.Minecraft = i.Pack.Minecraft
	i.wasDisabled = make(map[string]bool)

	tempRoot, err := core.GetLauncherTempDir()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(tempRoot, os.ModePerm); err != nil {
		return err
	}
	i.tempDir, err = os.MkdirTemp(tempRoot, "install-")
	if err != nil {
		return err
	}
	defer os.RemoveAll(i.tempDir)
	i.jarTempDir = filepath.Join(i.tempDir, "jar")

	if err := i.prepareDirectories(); err != nil {
		return err
	}
	if err := i.downloadEverything(ctx); err != nil {
		return err
	}
	if !i.Server {
		if err := minecraft.ExtractNatives(i.natives, i.Instance.NativesDir()); err != nil {
			return err
		}
	}
	if err := i.installMods(); err != nil {
		return err
	}
	if err := i.runActions(); err != nil {
		return err
	}
	if err := i.finishExtractedPacks(); err != nil {
		return err
	}
	if err := i.finishServerJar(); err != nil {
		return err
	}
	return i.saveInstance()
}

// prepareDirectories creates the instance layout. On reinstall the pack's old files are removed; user added mods
// are set aside and put back.
func (i *Installer) prepareDirectories() error {
	inst := i.Instance
	for _, m := range inst.Launcher.Mods {
		if m.Disabled {
			i.wasDisabled[m.Name] = true
		}
	}

	if i.Reinstall {
		keepDir := filepath.Join(i.tempDir, "kept")
		for _, m := range inst.Launcher.Mods {
			if !m.UserAdded {
				for _, p := range m.TrackedPaths(inst) {
					if err := core.RemoveIfExists(p); err != nil {
						return err
					}
				}
				continue
			}
			if p, err := m.Path(inst); err == nil {
				if core.FileExists(p) {
					if err := core.MoveFile(p, filepath.Join(keepDir, m.Name, m.File)); err != nil {
						return err
					}
					i.keptUserMods = append(i.keptUserMods, m)
				}
			}
		}
		for _, dir := range []string{inst.ModsDir(), inst.CoreModsDir(), inst.JarModsDir(), inst.NativesDir()} {
			if err := os.RemoveAll(dir); err != nil {
				return fmt.Errorf("failed to clear %s: %w", dir, err)
			}
		}
		if err := i.applyDeletes(); err != nil {
			return err
		}
	}

	for _, dir := range []string{inst.Root(), inst.ModsDir(), inst.ConfigDir(), inst.BinDir()} {
		if err := os.MkdirAll(dir, os.ModePerm); err != nil {
			return err
		}
	}
	if !i.Server {
		if err := os.MkdirAll(inst.NativesDir(), os.ModePerm); err != nil {
			return err
		}
	}
	if minecraft.UsesCoreMods(i.Pack.Minecraft) {
		if err := os.MkdirAll(inst.CoreModsDir(), os.ModePerm); err != nil {
			return err
		}
	}

	// Put user added mods back where they were
	keepDir := filepath.Join(i.tempDir, "kept")
	for _, m := range i.keptUserMods {
		p, err := m.Path(inst)
		if err != nil {
			continue
		}
		if err := core.MoveFile(filepath.Join(keepDir, m.Name, m.File), p); err != nil {
			return err
		}
	}
	return nil
}

// applyDeletes removes the files and folders the new pack version lists as no longer wanted
func (i *Installer) applyDeletes() error {
	root := i.Instance.Root()
	for _, rel := range i.Pack.Deletes {
		target := filepath.Join(root, filepath.FromSlash(rel))
		if r, err := filepath.Rel(root, target); err != nil || r == "." || strings.HasPrefix(r, "..") {
			core.Log.Warn("ignoring delete outside of the instance", zap.String("path", rel))
			continue
		}
		if err := core.RemoveIfExists(target); err != nil {
			return err
		}
		core.Log.Debug("deleted", zap.String("path", rel))
	}
	return nil
}

// downloadEverything fetches the game, libraries, assets and mods through one pool
func (i *Installer) downloadEverything(ctx context.Context) error {
	v, err := i.Minecraft.ResolveVersion(ctx, i.Pack.Minecraft)
	if err != nil {
		return err
	}
	i.version = v

	librariesDir, err := core.GetLibrariesDir()
	if err != nil {
		return err
	}
	assetsDir, err := core.GetAssetsDir()
	if err != nil {
		return err
	}
	paths := minecraft.Paths{
		GameJar:      i.Instance.MinecraftJar(),
		LibrariesDir: librariesDir,
		NativesDir:   i.Instance.NativesDir(),
		AssetsDir:    assetsDir,
		ResourcesDir: i.Instance.ResourcesDir(),
	}

	pool := core.NewDownloadPool()
	gameFiles, natives := v.Downloadables(paths, i.Server)
	pool.Add(gameFiles...)
	i.natives = natives
	pool.Add(i.packLibraryDownloads(librariesDir)...)
	if !i.Server {
		assets, err := i.Minecraft.AssetDownloadables(ctx, v, paths)
		if err != nil {
			return err
		}
		pool.Add(assets...)
	}

	modDownloads, err := i.modDownloads(ctx)
	if err != nil {
		return err
	}
	pool.Add(modDownloads...)

	workers := i.Workers
	if workers < 1 {
		workers = core.ConfiguredWorkers()
	}
	if i.Progress != nil {
		i.Progress.Start("Downloading", pool.Len())
		defer i.Progress.Finish()
	}
	var firstErr error
	for dl := range pool.StartDownloads(ctx, workers) {
		if dl.Error != nil {
			if firstErr == nil {
				firstErr = dl.Error
			}
			continue
		}
		if i.Progress != nil {
			i.Progress.Increment()
		}
	}
	if firstErr != nil {
		if errors.Is(firstErr, core.ErrAllMirrorsFailed) {
			failedDir, _ := core.GetFailedDownloadsDir()
			return fmt.Errorf("%w; the files that failed are in %s", firstErr, failedDir)
		}
		return firstErr
	}
	return nil
}

// packLibraryDownloads lists the extra libraries the pack declares, and adds them to the instance's class path
func (i *Installer) packLibraryDownloads(librariesDir string) []*core.Downloadable {
	var downloads []*core.Downloadable
	var libs []minecraft.Library
	for _, lib := range i.Pack.Libraries {
		if lib.Server != "" && i.Server {
			// Server libraries are copied next to the server jar instead
			downloads = append(downloads, &core.Downloadable{
				Name:       lib.File,
				URL:        core.CleanPackURL(lib.URL),
				Path:       filepath.Join(i.Instance.Root(), filepath.FromSlash(lib.Server)),
				Hash:       lib.Hash,
				Size:       lib.Size,
				FromServer: lib.Download == core.DownloadServer,
				Servers:    core.GetServers(),
			})
			continue
		}
		if i.Server {
			continue
		}
		downloads = append(downloads, &core.Downloadable{
			Name:       lib.File,
			URL:        core.CleanPackURL(lib.URL),
			Path:       filepath.Join(librariesDir, filepath.FromSlash(lib.File)),
			Hash:       lib.Hash,
			Size:       lib.Size,
			FromServer: lib.Download == core.DownloadServer,
			Servers:    core.GetServers(),
		})
		artifact := &minecraft.Download{Path: lib.File, Size: lib.Size}
		if core.HashTypeFor(lib.Hash) == "sha1" {
			artifact.SHA1 = lib.Hash
		}
		libs = append(libs, minecraft.Library{
			Name:      lib.File,
			Downloads: &minecraft.LibraryDownloads{Artifact: artifact},
		})
	}
	i.packLibraries = libs
	return downloads
}

// saveInstance records the pack, the installed mods and the launch metadata, then saves the instance
func (i *Installer) saveInstance() error {
	inst := i.Instance
	inst.ApplyVersion(i.version)
	if i.Pack.MainClass != "" {
		inst.MainClass = i.Pack.MainClass
	}
	if i.Pack.ExtraArguments != "" {
		inst.Arguments.Game = append(inst.Arguments.Game, strings.Fields(i.Pack.ExtraArguments)...)
	}
	inst.Libraries = append(append([]minecraft.Library(nil), i.packLibraries...), inst.Libraries...)
	inst.DataVersion = instance.CurrentDataVersion

	l := &inst.Launcher
	if l.Name == "" {
		l.Name = i.Pack.Name
	}
	l.Pack = i.Pack.Name
	l.Version = i.Pack.Version
	l.Minecraft = i.Pack.Minecraft
	l.Java = i.Pack.Java
	l.RequiredMemory = i.Pack.Memory
	l.RequiredPermGen = i.Pack.PermGen
	if i.Source != "" {
		l.PackSource = i.Source
	}

	mods := append([]instance.DisableableMod(nil), i.installed...)
	jarOrder := append([]string(nil), i.jarOrder...)
	for _, m := range i.keptUserMods {
		mods = append(mods, m)
		if m.Type == core.TypeJar {
			jarOrder = append(jarOrder, m.File)
		}
	}
	for idx := range mods {
		m := &mods[idx]
		if !i.wasDisabled[m.Name] || m.UserAdded {
			continue
		}
		if err := m.Disable(inst); err != nil {
			core.Log.Warn("failed to disable mod again", zap.String("mod", m.Name), zap.Error(err))
		}
	}
	l.Mods = mods
	l.JarOrder = jarOrder

	if err := inst.Save(); err != nil {
		return err
	}
	core.Log.Info("installed pack", zap.String("pack", i.Pack.Name), zap.String("version", i.Pack.Version),
		zap.String("instance", inst.Name()), zap.Int("mods", len(mods)))
	return nil
}
