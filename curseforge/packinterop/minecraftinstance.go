package packinterop

import (
	"path/filepath"
	"strings"
)

// twitchInstalledPackMeta is the minecraftinstance.json of an instance installed by the CurseForge app
type twitchInstalledPackMeta struct {
	NameInternal string `json:"name"`
	MCVersion    string `json:"gameVersion"`
	Modloader    struct {
		Name               string `json:"name"`
		MavenVersionString string `json:"mavenVersionString"`
	} `json:"baseModLoader"`
	ModpackOverrides []string `json:"modpackOverrides"`
	ModsInternal     []struct {
		ID   uint32 `json:"addonID"`
		File struct {
			ID uint32 `json:"id"`
			// Used to determine if the mod is optional-disabled
			FileNameOnDisk string `json:"fileNameOnDisk"`
		} `json:"installedFile"`
	} `json:"installedAddons"`
	// Unlocked instances may have been changed by the user, so every file is imported rather than just the overrides
	IsUnlocked bool `json:"isUnlocked"`
	importSrc  Source
}

func (m twitchInstalledPackMeta) Name() string {
	return m.NameInternal
}

func (m twitchInstalledPackMeta) PackAuthor() string {
	return ""
}

func (m twitchInstalledPackMeta) PackVersion() string {
	return ""
}

func (m twitchInstalledPackMeta) Versions() map[string]string {
	vers := make(map[string]string)
	vers["minecraft"] = m.MCVersion
	for _, loader := range []struct{ name, maven string }{
		{"forge", "net.minecraftforge:forge:"},
		{"neoforge", "net.neoforged:neoforge:"},
		{"fabric", "net.fabricmc:fabric-loader:"},
		{"quilt", "org.quiltmc:quilt-loader:"},
	} {
		if !strings.HasPrefix(m.Modloader.Name, loader.name+"-") {
			continue
		}
		var v string
		if len(m.Modloader.MavenVersionString) > 0 {
			v = strings.TrimPrefix(m.Modloader.MavenVersionString, loader.maven)
		} else {
			v = strings.TrimPrefix(m.Modloader.Name, loader.name+"-")
		}
		// Remove the minecraft version, if it's there
		v = strings.TrimPrefix(v, m.MCVersion+"-")
		v = strings.TrimSuffix(v, "-"+m.MCVersion)
		vers[loader.name] = v
		break
	}
	return vers
}

func (m twitchInstalledPackMeta) Mods() []AddonFileReference {
	list := make([]AddonFileReference, len(m.ModsInternal))
	for i, v := range m.ModsInternal {
		list[i] = AddonFileReference{
			ProjectID:        v.ID,
			FileID:           v.File.ID,
			OptionalDisabled: strings.HasSuffix(v.File.FileNameOnDisk, ".disabled"),
		}
	}
	return list
}

func (m twitchInstalledPackMeta) OverrideFiles() ([]File, error) {
	if m.IsUnlocked {
		all, err := m.importSrc.Files()
		if err != nil {
			return nil, err
		}
		// The addons themselves are downloaded again, and the metadata file is not part of the instance
		out := make([]File, 0, len(all))
		for _, f := range all {
			if f.Name() == "minecraftinstance.json" || strings.HasPrefix(f.Name(), "mods/") {
				continue
			}
			out = append(out, f)
		}
		return out, nil
	}
	all, err := m.importSrc.Files()
	if err != nil {
		return nil, err
	}
	// Overrides can name folders as well as files
	list := make([]File, 0, len(m.ModpackOverrides))
	for _, f := range all {
		for _, v := range m.ModpackOverrides {
			v = strings.TrimSuffix(filepath.ToSlash(v), "/")
			if f.Name() == v || strings.HasPrefix(f.Name(), v+"/") {
				list = append(list, f)
				break
			}
		}
	}
	return list, nil
}
