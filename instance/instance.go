package instance

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"time"

	"github.com/packlaunch/packlaunch/core"
	"github.com/packlaunch/packlaunch/minecraft"
)

// CurrentDataVersion is the revision of the instance.json format written by this version of the launcher.
// Versions 0 to 2 belong to the legacy flat format, which is converted by Migrate.
const CurrentDataVersion = 3

// FileName is the name of the instance metadata file inside an instance's root
const FileName = "instance.json"

var (
	// ErrNotFound is returned when no instance matches a name
	ErrNotFound = errors.New("instance not found")
	// ErrLegacyFormat is returned by Load for instances that must be migrated first
	ErrLegacyFormat = errors.New("instance uses the legacy format and must be migrated")
)

// Instance is a locally installed copy of a pack version
type Instance struct {
	DataVersion int    `json:"dataVersion"`
	ID          string `json:"id"`
	// Type is "client" or "server"
	Type       string                  `json:"type"`
	MainClass  string                  `json:"mainClass"`
	Arguments  Arguments               `json:"arguments"`
	Assets     string                  `json:"assets,omitempty"`
	AssetIndex minecraft.AssetIndexRef `json:"assetIndex"`
	Libraries  []minecraft.Library     `json:"libraries"`
	// JavaVersion is the major Java version the Minecraft version was built for
	JavaVersion int      `json:"javaVersion,omitempty"`
	Launcher    Launcher `json:"launcher"`

	root string
}

type Arguments struct {
	Game []string `json:"game"`
	JVM  []string `json:"jvm,omitempty"`
}

// Launcher holds everything about an instance that isn't Minecraft version metadata
type Launcher struct {
	Name        string `json:"name"`
	Pack        string `json:"pack"`
	Version     string `json:"version"`
	Description string `json:"description,omitempty"`
	// PackSource is the path or URL the pack version was installed from
	PackSource string `json:"packSource,omitempty"`
	Minecraft  string `json:"minecraftVersion"`
	// Java is a version constraint from the pack
	Java            string `json:"java,omitempty"`
	RequiredMemory  int    `json:"requiredMemory,omitempty"`
	RequiredPermGen int    `json:"requiredPermGen,omitempty"`

	InitialMemory  int    `json:"initialMemory,omitempty"`
	MaximumMemory  int    `json:"maximumMemory,omitempty"`
	PermGen        int    `json:"permGen,omitempty"`
	JavaPath       string `json:"javaPath,omitempty"`
	JavaArguments  string `json:"javaArguments,omitempty"`
	WrapperCommand string `json:"wrapperCommand,omitempty"`
	Account        string `json:"account,omitempty"`

	Mods           []DisableableMod `json:"mods"`
	JarOrder       []string         `json:"jarOrder,omitempty"`
	IgnoredUpdates []string         `json:"ignoredUpdates,omitempty"`
	// MapToResources copies assets into the instance's resources folder, for versions from before the asset index
	MapToResources bool `json:"assetsMapToResources,omitempty"`

	CreatedAt  time.Time `json:"createdAt,omitempty"`
	LastPlayed time.Time `json:"lastPlayed,omitempty"`
	NumPlays   int       `json:"numPlays,omitempty"`
	// PlayTime is in seconds
	PlayTime int64 `json:"playTime,omitempty"`
}

var unsafeDirChars = regexp.MustCompile(`[^A-Za-z0-9]`)

// SafeName strips everything but letters and digits from an instance name, giving its directory name
func SafeName(name string) string {
	return unsafeDirChars.ReplaceAllString(name, "")
}

// New creates an empty instance rooted under the instances directory
func New(name string) (*Instance, error) {
	safe := SafeName(name)
	if safe == "" {
		return nil, fmt.Errorf("instance name %q has no usable characters", name)
	}
	instancesDir, err := core.GetInstancesDir()
	if err != nil {
		return nil, err
	}
	return &Instance{
		DataVersion: CurrentDataVersion,
		Type:        "client",
		Launcher:    Launcher{Name: name, CreatedAt: time.Now()},
		root:        filepath.Join(instancesDir, safe),
	}, nil
}

// Load reads the instance in dir. Legacy instances return ErrLegacyFormat; use LoadOrMigrate for those.
func Load(dir string) (*Instance, error) {
	data, err := os.ReadFile(filepath.Join(dir, FileName))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: no %s in %s", ErrNotFound, FileName, dir)
		}
		return nil, err
	}
	if isLegacy(data) {
		return nil, fmt.Errorf("%w: %s", ErrLegacyFormat, dir)
	}
	var inst Instance
	if err := json.Unmarshal(data, &inst); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", filepath.Join(dir, FileName), err)
	}
	inst.root = dir
	upgrade(&inst)
	return &inst, nil
}

// isLegacy tells the legacy format apart by its lack of a launcher block
func isLegacy(data []byte) bool {
	var probe map[string]json.RawMessage
	if err := json.Unmarshal(data, &probe); err != nil {
		return false
	}
	_, hasLauncher := probe["launcher"]
	return !hasLauncher
}

// Save writes instance.json atomically
func (i *Instance) Save() error {
	if i.root == "" {
		return errors.New("instance has no root directory")
	}
	data, err := json.MarshalIndent(i, "", "  ")
	if err != nil {
		return err
	}
	if err := core.WriteFileAtomic(filepath.Join(i.root, FileName), data); err != nil {
		return fmt.Errorf("failed to save instance %s: %w", i.Launcher.Name, err)
	}
	return nil
}

func (i *Instance) Name() string {
	return i.Launcher.Name
}

func (i *Instance) IsServer() bool {
	return i.Type == "server"
}

// Root is the instance's game directory
func (i *Instance) Root() string {
	return i.root
}

func (i *Instance) SetRoot(root string) {
	i.root = root
}

func (i *Instance) ModsDir() string         { return filepath.Join(i.root, "mods") }
func (i *Instance) CoreModsDir() string     { return filepath.Join(i.root, "coremods") }
func (i *Instance) JarModsDir() string      { return filepath.Join(i.root, "jarmods") }
func (i *Instance) DisabledModsDir() string { return filepath.Join(i.root, "disabledmods") }
func (i *Instance) BinDir() string          { return filepath.Join(i.root, "bin") }
func (i *Instance) NativesDir() string      { return filepath.Join(i.root, "bin", "natives") }
func (i *Instance) ConfigDir() string       { return filepath.Join(i.root, "config") }
func (i *Instance) ResourcePacksDir() string {
	return filepath.Join(i.root, "resourcepacks")
}
func (i *Instance) TexturePacksDir() string { return filepath.Join(i.root, "texturepacks") }
func (i *Instance) ShaderPacksDir() string  { return filepath.Join(i.root, "shaderpacks") }
func (i *Instance) PluginsDir() string      { return filepath.Join(i.root, "plugins") }
func (i *Instance) IC2LibDir() string       { return filepath.Join(i.root, "mods", "ic2") }
func (i *Instance) DenLibDir() string       { return filepath.Join(i.root, "mods", "denlib") }
func (i *Instance) FlanDir() string         { return filepath.Join(i.root, "Flan") }
func (i *Instance) ResourcesDir() string    { return filepath.Join(i.root, "resources") }

// DependencyDir holds libraries mods load themselves, keyed by Minecraft version
func (i *Instance) DependencyDir() string {
	return filepath.Join(i.root, "mods", i.Launcher.Minecraft)
}

// MinecraftJar is the client jar, or the server jar for server instances
func (i *Instance) MinecraftJar() string {
	if i.IsServer() {
		return filepath.Join(i.root, "minecraft_server."+i.Launcher.Minecraft+".jar")
	}
	return filepath.Join(i.BinDir(), "minecraft.jar")
}

// FindMod returns the tracked mod with the given name, or nil
func (i *Instance) FindMod(name string) *DisableableMod {
	for idx := range i.Launcher.Mods {
		if i.Launcher.Mods[idx].Name == name {
			return &i.Launcher.Mods[idx]
		}
	}
	return nil
}

// SelectedMods returns the names of the optional mods the user picked when installing
func (i *Instance) SelectedMods() []string {
	var out []string
	for _, m := range i.Launcher.Mods {
		if m.WasSelected && m.Optional && !m.UserAdded {
			out = append(out, m.Name)
		}
	}
	return out
}

// HasJarMods reports whether any jar mods are tracked in the jar order
func (i *Instance) HasJarMods() bool {
	return len(i.Launcher.JarOrder) > 0
}

// AddPlayTime records a finished session
func (i *Instance) AddPlayTime(started time.Time, d time.Duration) {
	i.Launcher.LastPlayed = started
	i.Launcher.NumPlays++
	i.Launcher.PlayTime += int64(d.Seconds())
}
