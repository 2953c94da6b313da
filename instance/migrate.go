package instance

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/mitchellh/mapstructure"
	"github.com/packlaunch/packlaunch/core"
	"github.com/packlaunch/packlaunch/minecraft"
	"go.uber.org/zap"
)

// VersionResolver looks up the Minecraft version JSON a legacy instance was built on
type VersionResolver interface {
	ResolveVersion(ctx context.Context, id string) (*minecraft.Version, error)
}

// legacyInstance is the flat instance.json format written by older launchers
type legacyInstance struct {
	Name                 string           `mapstructure:"name"`
	Pack                 string           `mapstructure:"pack"`
	InstalledBy          string           `mapstructure:"installedBy"`
	Version              string           `mapstructure:"version"`
	Hash                 string           `mapstructure:"hash"`
	MinecraftVersion     string           `mapstructure:"minecraftVersion"`
	Java                 *legacyJava      `mapstructure:"java"`
	Memory               int              `mapstructure:"memory"`
	PermGen              int              `mapstructure:"permgen"`
	Libraries            []string         `mapstructure:"libraries"`
	LibrariesNeeded      string           `mapstructure:"librariesNeeded"`
	ExtraArguments       string           `mapstructure:"extraArguments"`
	MinecraftArguments   string           `mapstructure:"minecraftArguments"`
	MainClass            string           `mapstructure:"mainClass"`
	Assets               string           `mapstructure:"assets"`
	AssetsMapToResources bool             `mapstructure:"assetsMapToResources"`
	IsConverted          bool             `mapstructure:"isConverted"`
	DataVersion          int              `mapstructure:"dataVersion"`
	IsDev                bool             `mapstructure:"isDev"`
	IsPlayable           bool             `mapstructure:"isPlayable"`
	Mods                 []DisableableMod `mapstructure:"mods"`
	IgnoredUpdates       []string         `mapstructure:"ignoredUpdates"`
}

type legacyJava struct {
	Min string `mapstructure:"min"`
	Max string `mapstructure:"max"`
}

// decodeLegacy reads a legacy instance.json. Old launchers wrote numbers and booleans as strings in places,
// so decoding is weakly typed.
func decodeLegacy(data []byte) (*legacyInstance, error) {
	var raw map[string]interface{}
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, err
	}
	var l legacyInstance
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		WeaklyTypedInput: true,
		Result:           &l,
	})
	if err != nil {
		return nil, err
	}
	if err := dec.Decode(raw); err != nil {
		return nil, fmt.Errorf("failed to decode legacy instance: %w", err)
	}
	return &l, nil
}

// convert runs the in-place upgrade steps of the legacy format, in order
func (l *legacyInstance) convert() {
	if !l.IsConverted {
		if l.MinecraftArguments != "" {
			l.ExtraArguments = l.MinecraftArguments
			l.MinecraftArguments = ""
		}
		l.IsConverted = true
	}

	if l.DataVersion < 1 {
		anySelected := false
		for _, m := range l.Mods {
			if m.WasSelected && !m.UserAdded {
				anySelected = true
				break
			}
		}
		if !anySelected {
			for idx := range l.Mods {
				l.Mods[idx].WasSelected = true
			}
		}
		l.DataVersion = 1
	}

	if l.DataVersion < 2 {
		l.Libraries = nil
		if l.LibrariesNeeded != "" {
			l.Libraries = append(l.Libraries, strings.Split(l.LibrariesNeeded, ",")...)
		}
		l.DataVersion = 2
	}
}

// toInstance builds the current format from a converted legacy instance
func (l *legacyInstance) toInstance(ctx context.Context, root string, resolver VersionResolver) (*Instance, error) {
	v, err := resolver.ResolveVersion(ctx, l.MinecraftVersion)
	if err != nil {
		return nil, fmt.Errorf("failed to find Minecraft version of %s: %w", l.MinecraftVersion, err)
	}
	librariesDir, err := core.GetLibrariesDir()
	if err != nil {
		return nil, err
	}

	inst := &Instance{root: root}
	inst.ApplyVersion(v)

	// Pack libraries were stored as bare file names under the libraries folder
	var packLibraries []minecraft.Library
	for _, name := range l.Libraries {
		if name == "" || strings.Contains(name, "/") {
			continue
		}
		artifact := minecraft.Download{Path: name}
		file := filepath.Join(librariesDir, name)
		if info, err := os.Stat(file); err == nil {
			artifact.Size = info.Size()
			artifact.SHA1, err = core.HashFile(file, "sha1")
			if err != nil {
				return nil, fmt.Errorf("failed to hash library %s: %w", name, err)
			}
		} else {
			core.Log.Warn("legacy library is missing, it will be unverified", zap.String("library", name))
		}
		packLibraries = append(packLibraries, minecraft.Library{
			Name:      name,
			Downloads: &minecraft.LibraryDownloads{Artifact: &artifact},
		})
	}
	inst.Libraries = append(packLibraries, inst.Libraries...)

	if l.MainClass != "" {
		inst.MainClass = l.MainClass
	}
	if l.Assets != "" {
		inst.Assets = l.Assets
	}

	extra := strings.Fields(l.ExtraArguments)
	if len(extra) > 0 {
		if v.Arguments == nil {
			// The extra arguments of an old version hold the whole template
			inst.Arguments.Game = strings.Fields(l.MinecraftArguments)
		}
		inst.Arguments.Game = append(inst.Arguments.Game, extra...)
	}

	inst.Launcher = Launcher{
		Name:            l.Name,
		Pack:            l.Pack,
		Version:         l.Version,
		Minecraft:       l.MinecraftVersion,
		Java:            l.Java.constraint(),
		RequiredMemory:  l.Memory,
		RequiredPermGen: l.PermGen,
		Mods:            l.Mods,
		IgnoredUpdates:  l.IgnoredUpdates,
		MapToResources:  l.AssetsMapToResources,
		CreatedAt:       time.Now(),
	}
	if inst.Launcher.Pack == "" {
		inst.Launcher.Pack = l.Name
	}
	if inst.Launcher.Mods == nil {
		inst.Launcher.Mods = []DisableableMod{}
	}
	for _, m := range inst.Launcher.Mods {
		if (m.Type == core.TypeJar || m.Type == core.TypeForge) && !m.Disabled {
			inst.Launcher.JarOrder = append(inst.Launcher.JarOrder, m.File)
		}
	}
	inst.DataVersion = CurrentDataVersion
	return inst, nil
}

var javaMajorPattern = regexp.MustCompile(`^(?:1\.)?([0-9]+)`)

// constraint turns the legacy min/max pair into a version constraint on the Java major version
func (j *legacyJava) constraint() string {
	if j == nil {
		return ""
	}
	var parts []string
	if m := javaMajorPattern.FindStringSubmatch(j.Min); m != nil {
		parts = append(parts, ">= "+m[1])
	}
	if m := javaMajorPattern.FindStringSubmatch(j.Max); m != nil {
		parts = append(parts, "<= "+m[1])
	}
	return strings.Join(parts, ", ")
}

// ApplyVersion copies launch metadata from a Minecraft version JSON into the instance
func (i *Instance) ApplyVersion(v *minecraft.Version) {
	i.ID = v.ID
	if i.Type == "" {
		i.Type = "client"
	}
	i.MainClass = v.MainClass
	i.Assets = v.Assets
	i.AssetIndex = v.AssetIndex
	if i.AssetIndex.ID == "" {
		i.AssetIndex.ID = v.AssetIndexID()
	}
	i.Libraries = append([]minecraft.Library(nil), v.Libraries...)
	i.JavaVersion = v.JavaVersion.MajorVersion
	i.Arguments = Arguments{
		Game: v.GameArguments(),
		JVM:  v.JVMArguments(),
	}
}

// Migrate upgrades the instance in dir to the current format. Every step runs in memory and the result is
// written once, so an interrupted migration leaves the old file untouched.
func Migrate(ctx context.Context, dir string, resolver VersionResolver) (*Instance, error) {
	path := filepath.Join(dir, FileName)
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if !isLegacy(data) {
		inst, err := Load(dir)
		if err != nil {
			return nil, err
		}
		if inst.DataVersion == CurrentDataVersion {
			return inst, nil
		}
		inst.DataVersion = CurrentDataVersion
		return inst, inst.Save()
	}

	legacy, err := decodeLegacy(data)
	if err != nil {
		return nil, err
	}
	from := legacy.DataVersion
	legacy.convert()
	inst, err := legacy.toInstance(ctx, dir, resolver)
	if err != nil {
		return nil, err
	}
	if err := inst.Save(); err != nil {
		return nil, err
	}
	core.Log.Info("migrated instance", zap.String("instance", inst.Name()),
		zap.Int("from", from), zap.Int("to", CurrentDataVersion))
	return inst, nil
}

// NeedsMigration reports whether the instance in dir is in the legacy format or an older data version
func NeedsMigration(dir string) (bool, error) {
	data, err := os.ReadFile(filepath.Join(dir, FileName))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return false, fmt.Errorf("%w: no %s in %s", ErrNotFound, FileName, dir)
		}
		return false, err
	}
	if isLegacy(data) {
		return true, nil
	}
	var probe struct {
		DataVersion int `json:"dataVersion"`
	}
	if err := json.Unmarshal(data, &probe); err != nil {
		return false, fmt.Errorf("failed to parse %s: %w", filepath.Join(dir, FileName), err)
	}
	return probe.DataVersion < CurrentDataVersion, nil
}

// LoadOrMigrate loads the instance in dir, migrating it first if it's in the legacy format
func LoadOrMigrate(ctx context.Context, dir string, resolver VersionResolver) (*Instance, error) {
	inst, err := Load(dir)
	if errors.Is(err, ErrLegacyFormat) {
		return Migrate(ctx, dir, resolver)
	}
	return inst, err
}

// upgrade fills in fields older revisions of the current format left empty
func upgrade(i *Instance) {
	if i.Launcher.Mods == nil {
		i.Launcher.Mods = []DisableableMod{}
	}
	if i.Type == "" {
		i.Type = "client"
	}
}
