package instance

import (
	"encoding/json"
	"errors"
	"io/fs"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/packlaunch/packlaunch/core"
	"gopkg.in/yaml.v3"
)

// JarMeta is what a mod jar says about itself
type JarMeta struct {
	ID          string
	Name        string
	Version     string
	Description string
}

type fabricModJson struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Version     string `json:"version"`
	Description string `json:"description"`
}

type quiltModJson struct {
	QuiltLoader struct {
		ID       string `json:"id"`
		Version  string `json:"version"`
		Metadata struct {
			Name        string `json:"name"`
			Description string `json:"description"`
		} `json:"metadata"`
	} `json:"quilt_loader"`
}

type mcmodInfoEntry struct {
	ModID       string `json:"modid"`
	Name        string `json:"name"`
	Version     string `json:"version"`
	Description string `json:"description"`
}

type modsToml struct {
	Mods []struct {
		ModID       string `toml:"modId"`
		DisplayName string `toml:"displayName"`
		Version     string `toml:"version"`
		Description string `toml:"description"`
	} `toml:"mods"`
}

type pluginYml struct {
	Name        string `yaml:"name"`
	Version     string `yaml:"version"`
	Description string `yaml:"description"`
}

var jarMetaReaders = []struct {
	entry string
	parse func(data []byte) (JarMeta, error)
}{
	{"fabric.mod.json", parseFabricModJson},
	{"quilt.mod.json", parseQuiltModJson},
	{"META-INF/mods.toml", parseModsToml},
	{"META-INF/neoforge.mods.toml", parseModsToml},
	{"mcmod.info", parseMcmodInfo},
	{"plugin.yml", parsePluginYml},
}

// ErrNoJarMeta is returned when a jar has no metadata file that can be read
var ErrNoJarMeta = errors.New("no mod metadata found")

// ReadJarMeta reads the name and version of a mod or plugin jar from the first metadata file it has
func ReadJarMeta(path string) (JarMeta, error) {
	for _, r := range jarMetaReaders {
		data, err := core.ReadZipEntry(path, r.entry)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return JarMeta{}, err
		}
		meta, err := r.parse(data)
		if err != nil {
			// Broken metadata is common enough; try the next kind
			continue
		}
		if meta.Name == "" {
			meta.Name = meta.ID
		}
		if meta.Name != "" {
			return meta, nil
		}
	}
	return JarMeta{}, ErrNoJarMeta
}

func parseFabricModJson(data []byte) (JarMeta, error) {
	var m fabricModJson
	if err := json.Unmarshal(data, &m); err != nil {
		return JarMeta{}, err
	}
	return JarMeta{ID: m.ID, Name: m.Name, Version: m.Version, Description: m.Description}, nil
}

func parseQuiltModJson(data []byte) (JarMeta, error) {
	var m quiltModJson
	if err := json.Unmarshal(data, &m); err != nil {
		return JarMeta{}, err
	}
	return JarMeta{
		ID:          m.QuiltLoader.ID,
		Name:        m.QuiltLoader.Metadata.Name,
		Version:     m.QuiltLoader.Version,
		Description: m.QuiltLoader.Metadata.Description,
	}, nil
}

func parseModsToml(data []byte) (JarMeta, error) {
	var m modsToml
	if _, err := toml.Decode(string(data), &m); err != nil {
		return JarMeta{}, err
	}
	if len(m.Mods) == 0 {
		return JarMeta{}, ErrNoJarMeta
	}
	first := m.Mods[0]
	meta := JarMeta{ID: first.ModID, Name: first.DisplayName, Version: first.Version, Description: strings.TrimSpace(first.Description)}
	// Filled in from the manifest at build time, so meaningless here
	if strings.HasPrefix(meta.Version, "${") {
		meta.Version = ""
	}
	return meta, nil
}

// mcmod.info is either a bare list or, in its second revision, an object with a modList
func parseMcmodInfo(data []byte) (JarMeta, error) {
	var list []mcmodInfoEntry
	if err := json.Unmarshal(data, &list); err != nil {
		var v2 struct {
			ModList []mcmodInfoEntry `json:"modList"`
		}
		if err2 := json.Unmarshal(data, &v2); err2 != nil {
			return JarMeta{}, err
		}
		list = v2.ModList
	}
	if len(list) == 0 {
		return JarMeta{}, ErrNoJarMeta
	}
	return JarMeta{ID: list[0].ModID, Name: list[0].Name, Version: list[0].Version, Description: list[0].Description}, nil
}

func parsePluginYml(data []byte) (JarMeta, error) {
	var p pluginYml
	if err := yaml.Unmarshal(data, &p); err != nil {
		return JarMeta{}, err
	}
	return JarMeta{ID: p.Name, Name: p.Name, Version: p.Version, Description: p.Description}, nil
}
