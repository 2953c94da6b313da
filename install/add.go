package install

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/packlaunch/packlaunch/core"
	"github.com/packlaunch/packlaunch/instance"
	"go.uber.org/zap"
)

// AddMod downloads a single file from a mod source into an instance and records it as a user added mod. A mod
// already tracked under the same CurseForge or Modrinth project, or the same name, is replaced.
func AddMod(ctx context.Context, inst *instance.Instance, m instance.DisableableMod) (*instance.DisableableMod, error) {
	if m.DownloadURL == "" {
		return nil, fmt.Errorf("%s has no download URL", m.Name)
	}
	target, err := addTarget(inst, &m)
	if err != nil {
		return nil, err
	}

	dl := &core.Downloadable{
		Name:     m.Name,
		URL:      m.DownloadURL,
		Path:     target,
		Hash:     m.Hash,
		HashType: m.HashType,
	}
	if dl.Hash == "" {
		dl.Hash = "-"
	}
	if err := dl.Download(ctx); err != nil {
		return nil, fmt.Errorf("failed to download %s: %w", m.Name, err)
	}
	return recordMod(inst, m, target)
}

// AddLocalMod is AddMod for a file the user downloaded themselves
func AddLocalMod(inst *instance.Instance, m instance.DisableableMod, src string) (*instance.DisableableMod, error) {
	target, err := addTarget(inst, &m)
	if err != nil {
		return nil, err
	}
	if m.Hash != "" && !fileMatches(src, m.Hash, m.HashType) {
		return nil, fmt.Errorf("%w: %s", core.ErrHashMismatch, src)
	}
	if err := core.CopyFile(src, target); err != nil {
		return nil, err
	}
	return recordMod(inst, m, target)
}

// FindInDownloads looks for a file the user downloaded through their browser, checking its digest if one is known
func FindInDownloads(file string, hash string, hashType string) (string, error) {
	downloadsDir, err := core.GetDownloadsDir()
	if err != nil {
		return "", err
	}
	path := filepath.Join(downloadsDir, file)
	if !core.FileExists(path) {
		return "", fmt.Errorf("%s was not found in %s", file, downloadsDir)
	}
	if hash != "" && !fileMatches(path, hash, hashType) {
		return "", fmt.Errorf("%w: %s", core.ErrHashMismatch, path)
	}
	return path, nil
}

func fileMatches(path string, hash string, hashType string) bool {
	if hashType == "" {
		hashType = core.HashTypeFor(hash)
	}
	actual, err := core.HashFile(path, hashType)
	return err == nil && core.HashMatches(actual, hash)
}

// TypeForFile guesses how a file added by hand is installed: zips are resource packs, anything else is a mod
func TypeForFile(inst *instance.Instance, file string) core.ModType {
	switch strings.ToLower(filepath.Ext(file)) {
	case ".zip":
		return core.TypeResourcePack
	case ".jar":
		if inst.IsServer() && len(inst.Libraries) == 0 {
			// Vanilla based servers only take plugins
			return core.TypePlugins
		}
	}
	return core.TypeMods
}

func addTarget(inst *instance.Instance, m *instance.DisableableMod) (string, error) {
	if m.File == "" || filepath.Base(m.File) != m.File || m.File == "." || m.File == ".." {
		return "", fmt.Errorf("invalid file name %q for %s", m.File, m.Name)
	}
	m.Disabled = false
	dir, err := m.Dir(inst)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(dir, os.ModePerm); err != nil {
		return "", err
	}
	return filepath.Join(dir, m.File), nil
}

func recordMod(inst *instance.Instance, m instance.DisableableMod, target string) (*instance.DisableableMod, error) {
	var err error
	if m.Hash == "" {
		m.Hash, err = core.HashFile(target, "sha1")
		if err != nil {
			return nil, err
		}
		m.HashType = "sha1"
	}

	if meta, err := instance.ReadJarMeta(target); err == nil {
		if m.Name == "" {
			m.Name = meta.Name
		}
		if m.Version == "" {
			m.Version = meta.Version
		}
		if m.Description == "" {
			m.Description = meta.Description
		}
	}
	if m.Name == "" {
		m.Name = strings.TrimSuffix(m.File, filepath.Ext(m.File))
	}

	m.UserAdded = true
	m.Optional = true
	idx := existingMod(inst, &m)
	if idx >= 0 {
		old := inst.Launcher.Mods[idx]
		if oldPath, err := old.Path(inst); err == nil && oldPath != target {
			if err := core.RemoveIfExists(oldPath); err != nil {
				return nil, err
			}
			removeFromJarOrder(inst, old.File)
		}
		core.Log.Info("replacing mod", zap.String("mod", old.Name), zap.String("old", old.File), zap.String("new", m.File))
		inst.Launcher.Mods[idx] = m
	} else {
		inst.Launcher.Mods = append(inst.Launcher.Mods, m)
		idx = len(inst.Launcher.Mods) - 1
	}
	if m.Type == core.TypeJar && !containsString(inst.Launcher.JarOrder, m.File) {
		inst.Launcher.JarOrder = append(inst.Launcher.JarOrder, m.File)
	}
	if err := inst.Save(); err != nil {
		return nil, err
	}
	return &inst.Launcher.Mods[idx], nil
}

func existingMod(inst *instance.Instance, m *instance.DisableableMod) int {
	for i, v := range inst.Launcher.Mods {
		switch {
		case m.CurseForge != nil && v.CurseForge != nil:
			if m.CurseForge.ProjectID == v.CurseForge.ProjectID {
				return i
			}
		case m.Modrinth != nil && v.Modrinth != nil:
			if m.Modrinth.ProjectID == v.Modrinth.ProjectID {
				return i
			}
		case strings.EqualFold(v.Name, m.Name):
			return i
		}
	}
	return -1
}

func removeFromJarOrder(inst *instance.Instance, file string) {
	out := inst.Launcher.JarOrder[:0]
	for _, v := range inst.Launcher.JarOrder {
		if v != file {
			out = append(out, v)
		}
	}
	inst.Launcher.JarOrder = out
}

func containsString(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
