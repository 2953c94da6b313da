package install

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/packlaunch/packlaunch/core"
	"github.com/packlaunch/packlaunch/instance"
	"github.com/packlaunch/packlaunch/minecraft"
	"go.uber.org/zap"
)

// modDownloads builds the pool entries for direct and server downloads, and locates browser downloads on disk
func (i *Installer) modDownloads(ctx context.Context) ([]*core.Downloadable, error) {
	cacheDir, err := core.GetDownloadsCacheDir()
	if err != nil {
		return nil, err
	}
	var downloads []*core.Downloadable
	var browser []*core.Mod
	for _, m := range i.mods {
		switch m.DownloadTypeFor(i.Server) {
		case core.DownloadBrowser:
			browser = append(browser, m)
		case core.DownloadServer, core.DownloadDirect:
			path := filepath.Join(cacheDir, m.DownloadFileName(i.Server))
			downloads = append(downloads, &core.Downloadable{
				Name:       m.Name,
				URL:        m.DownloadURL(i.Server),
				Path:       path,
				Hash:       m.ExpectedHash(i.Server),
				HashType:   m.HashType,
				Size:       m.Size,
				FromServer: m.DownloadTypeFor(i.Server) == core.DownloadServer,
				Servers:    core.GetServers(),
			})
			i.downloads[m.Name] = path
		}
	}
	if len(browser) > 0 {
		if err := i.resolveBrowserDownloads(ctx, browser, cacheDir); err != nil {
			return nil, err
		}
	}
	return downloads, nil
}

// DownloadedFile is where a mod's verified download is, once the download stage has finished
func (i *Installer) DownloadedFile(m *core.Mod) (string, bool) {
	p, ok := i.downloads[m.Name]
	return p, ok
}

// installMods installs every selected mod in pack order
func (i *Installer) installMods() error {
	if i.Server && i.hasServerJarMods() {
		// Jar mods are merged over the server jar's own classes
		if err := core.Unzip(i.Instance.MinecraftJar(), i.jarTempDir); err != nil {
			return fmt.Errorf("failed to unpack the server jar: %w", err)
		}
	}
	for _, m := range i.mods {
		file, err := i.installMod(m)
		if err != nil {
			return fmt.Errorf("failed to install %s: %w", m.Name, err)
		}
		core.Log.Debug("installed mod", zap.String("mod", m.Name), zap.String("type", string(m.TypeFor(i.Server))))
		if file != "" {
			file = filepath.Base(file)
		}
		i.installed = append(i.installed, instance.DisableableMod{
			Name:        m.Name,
			Version:     m.Version,
			Optional:    m.Optional,
			File:        file,
			Type:        i.recordedType(m),
			Description: m.Description,
			WasSelected: true,
			DownloadURL: m.DownloadURL(i.Server),
			Hash:        m.ExpectedHash(i.Server),
			HashType:    m.HashType,
			Files:       i.files[m.Name],
		})
	}
	return nil
}

// recordedType is the type a mod is tracked as, which follows where its file actually went
func (i *Installer) recordedType(m *core.Mod) core.ModType {
	switch t := m.TypeFor(i.Server); {
	case t == core.TypeCoreMods:
		return i.coreModsType()
	case t == core.TypeDecomp && m.DecompType == core.DestJar:
		return core.TypeJar
	default:
		return t
	}
}

func (i *Installer) hasServerJarMods() bool {
	for _, m := range i.mods {
		if m.TypeFor(true) == core.TypeJar {
			return true
		}
	}
	return false
}

// InstalledFile is the path a mod's file is installed at, or "" for types that unpack their contents instead
func (i *Installer) InstalledFile(m *core.Mod) string {
	inst := i.Instance
	name := i.fileName(m)
	switch m.TypeFor(i.Server) {
	case core.TypeJar:
		if i.Server {
			return ""
		}
		return filepath.Join(inst.JarModsDir(), name)
	case core.TypeForge:
		if i.Server {
			return filepath.Join(inst.Root(), name)
		}
		return filepath.Join(inst.JarModsDir(), name)
	case core.TypeMCPC:
		if i.Server {
			return filepath.Join(inst.Root(), name)
		}
		return ""
	case core.TypeMods:
		return filepath.Join(inst.ModsDir(), name)
	case core.TypePlugins:
		return filepath.Join(inst.PluginsDir(), name)
	case core.TypeIC2Lib:
		return filepath.Join(inst.IC2LibDir(), name)
	case core.TypeDenLib:
		return filepath.Join(inst.DenLibDir(), name)
	case core.TypeFlan:
		return filepath.Join(inst.FlanDir(), name)
	case core.TypeDependency:
		return filepath.Join(inst.DependencyDir(), name)
	case core.TypeCoreMods:
		return filepath.Join(i.coreModsDir(), name)
	case core.TypeTexturePack:
		return filepath.Join(inst.TexturePacksDir(), name)
	case core.TypeResourcePack:
		return filepath.Join(inst.ResourcePacksDir(), name)
	case core.TypeShaderPack:
		return filepath.Join(inst.ShaderPacksDir(), name)
	}
	return ""
}

// fileName is the name a mod is installed under. Mods found by pattern take the name of the file that matched.
func (i *Installer) fileName(m *core.Mod) string {
	if m.DownloadFileName(i.Server) == "" {
		if p, ok := i.DownloadedFile(m); ok {
			return m.FilePrefix + filepath.Base(p)
		}
	}
	return m.FileName(i.Server)
}

// coreModsDir is coremods for versions that still load core mods separately, and mods after that
func (i *Installer) coreModsDir() string {
	if minecraft.UsesCoreMods(i.Pack.Minecraft) {
		return i.Instance.CoreModsDir()
	}
	return i.Instance.ModsDir()
}

func (i *Installer) coreModsType() core.ModType {
	if minecraft.UsesCoreMods(i.Pack.Minecraft) {
		return core.TypeCoreMods
	}
	return core.TypeMods
}

// destDir resolves the extractTo and decompType destinations
func (i *Installer) destDir(dest string) (string, error) {
	switch dest {
	case core.DestCoreMods:
		return i.coreModsDir(), nil
	case core.DestJar:
		return i.Instance.JarModsDir(), nil
	case core.DestMods:
		return i.Instance.ModsDir(), nil
	case core.DestRoot:
		return i.Instance.Root(), nil
	}
	return "", fmt.Errorf("unknown destination %q", dest)
}

// installMod dispatches on the mod's type and returns the installed file, if there is one
func (i *Installer) installMod(m *core.Mod) (string, error) {
	src, ok := i.DownloadedFile(m)
	if !ok {
		return "", fmt.Errorf("%s was not downloaded", m.Name)
	}

	switch t := m.TypeFor(i.Server); t {
	case core.TypeJar:
		if i.Server {
			return "", core.Unzip(src, i.jarTempDir)
		}
		return i.copyToJarMods(src, i.fileName(m))
	case core.TypeForge:
		if i.Server {
			dst := i.InstalledFile(m)
			return dst, core.CopyFile(src, dst)
		}
		return i.copyToJarMods(src, i.fileName(m))
	case core.TypeMCPC:
		if !i.Server {
			return "", nil
		}
		dst := i.InstalledFile(m)
		return dst, core.CopyFile(src, dst)
	case core.TypeMods, core.TypePlugins, core.TypeIC2Lib, core.TypeDenLib, core.TypeFlan, core.TypeDependency,
		core.TypeCoreMods, core.TypeTexturePack, core.TypeResourcePack, core.TypeShaderPack:
		dst := i.InstalledFile(m)
		return dst, core.CopyFile(src, dst)
	case core.TypeTexturePackExtract:
		return "", core.Unzip(src, filepath.Join(i.tempDir, "texturepack"))
	case core.TypeResourcePackExtract:
		return "", core.Unzip(src, filepath.Join(i.tempDir, "resourcepack"))
	case core.TypeMillenaire:
		return "", i.installMillenaire(m, src)
	case core.TypeExtract:
		return "", i.installExtract(m, src)
	case core.TypeDecomp:
		return i.installDecomp(m, src)
	default:
		return "", fmt.Errorf("unsupported mod type %s", t)
	}
}

func (i *Installer) copyToJarMods(src string, name string) (string, error) {
	dst := filepath.Join(i.Instance.JarModsDir(), name)
	if err := core.CopyFile(src, dst); err != nil {
		return "", err
	}
	i.jarOrder = append(i.jarOrder, name)
	return dst, nil
}

func (i *Installer) unpackDir(m *core.Mod) string {
	return filepath.Join(i.tempDir, "unpack", m.SafeName())
}

// track remembers files a mod unpacked into the instance, so Refresh doesn't take them for user added mods
func (i *Installer) track(name string, paths ...string) {
	for _, p := range paths {
		rel, err := filepath.Rel(i.Instance.Root(), p)
		if err != nil {
			continue
		}
		i.files[name] = append(i.files[name], filepath.ToSlash(rel))
	}
}

// copyContents copies what is inside folder into dst and tracks every file copied
func (i *Installer) copyContents(m *core.Mod, folder string, dst string) error {
	var copied []string
	err := filepath.WalkDir(folder, func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return err
		}
		rel, err := filepath.Rel(folder, path)
		if err != nil {
			return err
		}
		copied = append(copied, filepath.Join(dst, rel))
		return nil
	})
	if err != nil {
		return err
	}
	if err := core.CopyDir(folder, dst); err != nil {
		return err
	}
	i.track(m.Name, copied...)
	return nil
}

// installMillenaire unzips the archive and copies the contents of the folders inside each top level folder into
// mods
func (i *Installer) installMillenaire(m *core.Mod, src string) error {
	dir := i.unpackDir(m)
	if err := core.Unzip(src, dir); err != nil {
		return err
	}
	top, err := os.ReadDir(dir)
	if err != nil {
		return err
	}
	for _, t := range top {
		if !t.IsDir() {
			continue
		}
		inner, err := os.ReadDir(filepath.Join(dir, t.Name()))
		if err != nil {
			return err
		}
		for _, e := range inner {
			if !e.IsDir() {
				continue
			}
			if err := i.copyContents(m, filepath.Join(dir, t.Name(), e.Name()), i.Instance.ModsDir()); err != nil {
				return err
			}
		}
	}
	return nil
}

// installExtract unzips the archive and copies the contents of its extractFolder into extractTo
func (i *Installer) installExtract(m *core.Mod, src string) error {
	dst, err := i.destDir(m.ExtractTo)
	if err != nil {
		return err
	}
	dir := i.unpackDir(m)
	if err := core.Unzip(src, dir); err != nil {
		return err
	}
	folder, err := safeJoin(dir, m.ExtractFolder)
	if err != nil {
		return err
	}
	if info, err := os.Stat(folder); err != nil || !info.IsDir() {
		return fmt.Errorf("folder %s not found in %s", m.ExtractFolder, filepath.Base(src))
	}
	return i.copyContents(m, folder, dst)
}

// installDecomp unzips the archive and installs its decompFile into decompType. A file is copied as it is, a folder
// has its contents copied, except that a folder destined for the jar is zipped up as a jar mod of its own.
func (i *Installer) installDecomp(m *core.Mod, src string) (string, error) {
	dir := i.unpackDir(m)
	if err := core.Unzip(src, dir); err != nil {
		return "", err
	}
	target, err := safeJoin(dir, m.DecompFile)
	if err != nil {
		return "", err
	}
	info, err := os.Stat(target)
	if err != nil {
		return "", fmt.Errorf("%s not found in %s", m.DecompFile, filepath.Base(src))
	}

	if m.DecompType == core.DestJar {
		if info.IsDir() {
			name := m.SafeName() + ".zip"
			dst := filepath.Join(i.Instance.JarModsDir(), name)
			if err := core.ZipDir(target, dst); err != nil {
				return "", err
			}
			i.jarOrder = append(i.jarOrder, name)
			return dst, nil
		}
		return i.copyToJarMods(target, filepath.Base(target))
	}

	dst, err := i.destDir(m.DecompType)
	if err != nil {
		return "", err
	}
	if info.IsDir() {
		return "", i.copyContents(m, target, dst)
	}
	out := filepath.Join(dst, filepath.Base(target))
	if err := core.CopyFile(target, out); err != nil {
		return "", err
	}
	i.track(m.Name, out)
	return "", nil
}

// safeJoin joins a path from a pack onto dir, refusing anything that would escape it
func safeJoin(dir string, rel string) (string, error) {
	p := filepath.Join(dir, filepath.FromSlash(rel))
	r, err := filepath.Rel(dir, p)
	if err != nil || r == ".." || strings.HasPrefix(r, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("path %s escapes the archive", rel)
	}
	return p, nil
}

// finishExtractedPacks zips up any texture or resource pack contents extracted from mods
func (i *Installer) finishExtractedPacks() error {
	packs := []struct {
		temp string
		dst  string
		typ  core.ModType
	}{
		{filepath.Join(i.tempDir, "texturepack"), filepath.Join(i.Instance.TexturePacksDir(), "TexturePack.zip"),
			core.TypeTexturePackExtract},
		{filepath.Join(i.tempDir, "resourcepack"), filepath.Join(i.Instance.ResourcePacksDir(), "ResourcePack.zip"),
			core.TypeResourcePackExtract},
	}
	for _, p := range packs {
		if _, err := os.Stat(p.temp); err != nil {
			continue
		}
		if err := core.ZipDir(p.temp, p.dst); err != nil {
			return err
		}
		rel, err := filepath.Rel(i.Instance.Root(), p.dst)
		if err != nil {
			return err
		}
		for idx := range i.installed {
			if i.installed[idx].Type == p.typ {
				i.installed[idx].Files = append(i.installed[idx].Files, filepath.ToSlash(rel))
			}
		}
	}
	return nil
}

// finishServerJar writes the server jar back with jar mods merged in and its signature removed
func (i *Installer) finishServerJar() error {
	if !i.Server {
		return nil
	}
	if _, err := os.Stat(i.jarTempDir); err != nil {
		return nil
	}
	jar := i.Instance.MinecraftJar()
	tmp := jar + ".tmp"
	err := core.ZipDirFiltered(i.jarTempDir, tmp, func(rel string, isDir bool) bool {
		return rel == "META-INF" || strings.HasPrefix(rel, "META-INF/")
	})
	if err != nil {
		return err
	}
	return os.Rename(tmp, jar)
}
