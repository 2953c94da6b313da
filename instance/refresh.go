package instance

import (
	"errors"
	"os"
	"path/filepath"
	"strings"

	"github.com/packlaunch/packlaunch/core"
	"go.uber.org/zap"
)

// RefreshResult lists what Refresh changed in the mod list
type RefreshResult struct {
	Added   []string
	Removed []string
}

func (r RefreshResult) Changed() bool {
	return len(r.Added) > 0 || len(r.Removed) > 0
}

var scannedModExtensions = map[core.ModType][]string{
	core.TypeMods:         {".jar", ".zip", ".litemod"},
	core.TypeCoreMods:     {".jar", ".zip"},
	core.TypeJar:          {".jar", ".zip"},
	core.TypeResourcePack: {".zip"},
	core.TypeTexturePack:  {".zip"},
	core.TypeShaderPack:   {".zip"},
	core.TypePlugins:      {".jar"},
}

// Refresh brings the mod list in line with what's on disk: untracked files in the mod folders become user added
// mods, and tracked mods whose file has gone are dropped. The instance is not saved.
func (i *Instance) Refresh() (RefreshResult, error) {
	var result RefreshResult

	kept := i.Launcher.Mods[:0]
	for _, m := range i.Launcher.Mods {
		// Mods that only unpacked files, or merged into the server jar, have no file of their own
		if _, err := m.Dir(i); err == nil && m.File != "" && !m.Exists(i) {
			result.Removed = append(result.Removed, m.Name)
			continue
		}
		kept = append(kept, m)
	}
	i.Launcher.Mods = kept

	tracked := make(map[string]bool)
	for _, m := range i.Launcher.Mods {
		for _, p := range m.TrackedPaths(i) {
			tracked[p] = true
		}
	}

	for _, t := range []core.ModType{core.TypeMods, core.TypeCoreMods, core.TypeJar, core.TypeResourcePack,
		core.TypeTexturePack, core.TypeShaderPack, core.TypePlugins} {
		probe := DisableableMod{Type: t}
		dir, _ := probe.Dir(i)
		entries, err := os.ReadDir(dir)
		if err != nil {
			if errors.Is(err, os.ErrNotExist) {
				continue
			}
			return result, err
		}
		for _, e := range entries {
			if e.IsDir() || !hasExtension(e.Name(), scannedModExtensions[t]) {
				continue
			}
			path := filepath.Join(dir, e.Name())
			if tracked[path] {
				continue
			}
			mod := DisableableMod{
				Name:      strings.TrimSuffix(e.Name(), filepath.Ext(e.Name())),
				File:      e.Name(),
				Type:      t,
				Optional:  true,
				UserAdded: true,
			}
			if meta, err := ReadJarMeta(path); err == nil {
				mod.Name = meta.Name
				mod.Version = meta.Version
				mod.Description = meta.Description
			}
			if t == core.TypeJar {
				i.Launcher.JarOrder = append(i.Launcher.JarOrder, e.Name())
			}
			i.Launcher.Mods = append(i.Launcher.Mods, mod)
			tracked[path] = true
			result.Added = append(result.Added, mod.Name)
			core.Log.Debug("found user added mod", zap.String("file", path))
		}
	}

	if len(result.Removed) > 0 {
		i.pruneJarOrder()
	}
	return result, nil
}

// pruneJarOrder drops jar order entries whose jar mod is no longer present
func (i *Instance) pruneJarOrder() {
	order := i.Launcher.JarOrder[:0]
	for _, f := range i.Launcher.JarOrder {
		if core.FileExists(filepath.Join(i.JarModsDir(), f)) {
			order = append(order, f)
		}
	}
	i.Launcher.JarOrder = order
}

func hasExtension(name string, exts []string) bool {
	lower := strings.ToLower(name)
	for _, ext := range exts {
		if strings.HasSuffix(lower, ext) {
			return true
		}
	}
	return false
}
