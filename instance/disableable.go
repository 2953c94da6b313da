package instance

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/packlaunch/packlaunch/core"
	"go.uber.org/zap"
)

// DisableableMod is a mod file tracked in an instance's mod list
type DisableableMod struct {
	Name        string       `json:"name" mapstructure:"name"`
	Version     string       `json:"version,omitempty" mapstructure:"version"`
	Optional    bool         `json:"optional" mapstructure:"optional"`
	File        string       `json:"file" mapstructure:"file"`
	Type        core.ModType `json:"type" mapstructure:"type"`
	Description string       `json:"description,omitempty" mapstructure:"description"`
	Disabled    bool         `json:"disabled" mapstructure:"disabled"`
	UserAdded   bool         `json:"userAdded" mapstructure:"userAdded"`
	WasSelected bool         `json:"wasSelected" mapstructure:"wasSelected"`

	// Set for mods added from a mod source, so they can be updated later
	CurseForge  *CurseForgeRef `json:"curseForge,omitempty" mapstructure:"-"`
	Modrinth    *ModrinthRef   `json:"modrinth,omitempty" mapstructure:"-"`
	DownloadURL string         `json:"downloadUrl,omitempty" mapstructure:"-"`
	Hash        string         `json:"hash,omitempty" mapstructure:"-"`
	HashType    string         `json:"hashType,omitempty" mapstructure:"-"`

	// Files are what the mod unpacked into the instance, slash separated and relative to the instance root
	Files []string `json:"files,omitempty" mapstructure:"-"`
}

type CurseForgeRef struct {
	ProjectID uint32 `json:"projectId"`
	FileID    uint32 `json:"fileId"`
}

type ModrinthRef struct {
	ProjectID string `json:"projectId"`
	VersionID string `json:"versionId"`
}

// Dir returns the directory an enabled mod of this type lives in
func (m *DisableableMod) Dir(i *Instance) (string, error) {
	switch m.Type {
	case core.TypeForge, core.TypeMCPC:
		if i.IsServer() {
			return i.Root(), nil
		}
		return i.JarModsDir(), nil
	case core.TypeJar:
		return i.JarModsDir(), nil
	case core.TypeTexturePack:
		return i.TexturePacksDir(), nil
	case core.TypeResourcePack:
		return i.ResourcePacksDir(), nil
	case core.TypeMods:
		return i.ModsDir(), nil
	case core.TypeIC2Lib:
		return i.IC2LibDir(), nil
	case core.TypeDenLib:
		return i.DenLibDir(), nil
	case core.TypeCoreMods:
		return i.CoreModsDir(), nil
	case core.TypeShaderPack:
		return i.ShaderPacksDir(), nil
	case core.TypePlugins:
		return i.PluginsDir(), nil
	}
	return "", fmt.Errorf("mod type %s cannot be enabled or disabled", m.Type)
}

// Path returns where the mod's file is, taking into account whether it's disabled
func (m *DisableableMod) Path(i *Instance) (string, error) {
	if m.Disabled {
		return filepath.Join(i.DisabledModsDir(), m.File), nil
	}
	dir, err := m.Dir(i)
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, m.File), nil
}

// TrackedPaths lists every file on disk that belongs to the mod
func (m *DisableableMod) TrackedPaths(i *Instance) []string {
	var paths []string
	if m.File != "" {
		if p, err := m.Path(i); err == nil {
			paths = append(paths, p)
		}
	}
	for _, f := range m.Files {
		paths = append(paths, filepath.Join(i.Root(), filepath.FromSlash(f)))
	}
	return paths
}

// Exists reports whether the mod's file is present where its state says it should be
func (m *DisableableMod) Exists(i *Instance) bool {
	p, err := m.Path(i)
	if err != nil {
		return false
	}
	return core.FileExists(p)
}

// Disable moves the mod's file into disabledmods
func (m *DisableableMod) Disable(i *Instance) error {
	if m.Disabled {
		return nil
	}
	src, err := m.Path(i)
	if err != nil {
		return err
	}
	if !core.FileExists(src) {
		return fmt.Errorf("file %s for mod %s doesn't exist", src, m.Name)
	}
	if err := os.MkdirAll(i.DisabledModsDir(), os.ModePerm); err != nil {
		return err
	}
	if err := core.MoveFile(src, filepath.Join(i.DisabledModsDir(), m.File)); err != nil {
		return fmt.Errorf("failed to disable %s: %w", m.Name, err)
	}
	m.Disabled = true
	core.Log.Debug("disabled mod", zap.String("mod", m.Name), zap.String("file", m.File))
	return nil
}

// Enable moves the mod's file back from disabledmods. Enabling a jar mod strips META-INF from the game jar,
// since its signature would no longer match.
func (m *DisableableMod) Enable(i *Instance) error {
	if !m.Disabled {
		return nil
	}
	dir, err := m.Dir(i)
	if err != nil {
		return err
	}
	src := filepath.Join(i.DisabledModsDir(), m.File)
	if !core.FileExists(src) {
		return fmt.Errorf("file %s for mod %s doesn't exist", src, m.Name)
	}
	if err := os.MkdirAll(dir, os.ModePerm); err != nil {
		return err
	}
	if err := core.MoveFile(src, filepath.Join(dir, m.File)); err != nil {
		return fmt.Errorf("failed to enable %s: %w", m.Name, err)
	}
	m.Disabled = false
	if m.Type == core.TypeJar {
		if err := StripMetaInf(i.MinecraftJar()); err != nil {
			return err
		}
	}
	core.Log.Debug("enabled mod", zap.String("mod", m.Name), zap.String("file", m.File))
	return nil
}

// StripMetaInf removes the META-INF folder from a jar, if the jar exists
func StripMetaInf(jar string) error {
	if !core.FileExists(jar) {
		return nil
	}
	err := core.RewriteZip(jar, func(name string) bool {
		return strings.HasPrefix(name, "META-INF/")
	}, nil)
	if err != nil {
		return fmt.Errorf("failed to strip META-INF from %s: %w", jar, err)
	}
	return nil
}
