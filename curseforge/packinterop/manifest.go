package packinterop

import "strings"

// cursePackManifest is the manifest.json of a CurseForge modpack zip
type cursePackManifest struct {
	Minecraft struct {
		Version    string         `json:"version"`
		ModLoaders []modLoaderDef `json:"modLoaders"`
	} `json:"minecraft"`
	ManifestType    string         `json:"manifestType"`
	ManifestVersion uint32         `json:"manifestVersion"`
	NameInternal    string         `json:"name"`
	Version         string         `json:"version"`
	Author          string         `json:"author"`
	ProjectID       uint32         `json:"projectID,omitempty"`
	Files           []manifestFile `json:"files"`
	Overrides       string         `json:"overrides"`
	importSrc       Source
}

type manifestFile struct {
	ProjectID uint32 `json:"projectID"`
	FileID    uint32 `json:"fileID"`
	Required  bool   `json:"required"`
}

type modLoaderDef struct {
	ID      string `json:"id"`
	Primary bool   `json:"primary"`
}

func (c cursePackManifest) Name() string {
	return c.NameInternal
}

func (c cursePackManifest) PackVersion() string {
	return c.Version
}

func (c cursePackManifest) PackAuthor() string {
	return c.Author
}

func (c cursePackManifest) Versions() map[string]string {
	vers := make(map[string]string)
	vers["minecraft"] = c.Minecraft.Version
	for _, v := range c.Minecraft.ModLoaders {
		// Separate dash-separated modloader/version pairs
		parts := strings.SplitN(v.ID, "-", 2)
		if len(parts) == 2 {
			vers[parts[0]] = parts[1]
		}
	}
	if val, ok := vers["forge"]; ok {
		// Remove the minecraft version prefix, if it exists
		vers["forge"] = strings.TrimPrefix(val, c.Minecraft.Version+"-")
	}
	return vers
}

func (c cursePackManifest) Mods() []AddonFileReference {
	list := make([]AddonFileReference, len(c.Files))
	for i, v := range c.Files {
		list[i] = AddonFileReference{
			ProjectID:        v.ProjectID,
			FileID:           v.FileID,
			OptionalDisabled: !v.Required,
		}
	}
	return list
}

// OverrideFiles returns the files under the overrides folder, named as if it were the instance root
func (c cursePackManifest) OverrideFiles() ([]File, error) {
	if c.Overrides == "" {
		return nil, nil
	}
	all, err := c.importSrc.Files()
	if err != nil {
		return nil, err
	}
	prefix := strings.TrimSuffix(c.Overrides, "/") + "/"
	var list []File
	for _, f := range all {
		rel, ok := strings.CutPrefix(f.Name(), prefix)
		if ok && rel != "" {
			list = append(list, renamed(f, rel))
		}
	}
	return list, nil
}
