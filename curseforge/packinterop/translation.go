package packinterop

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
)

// ReadMetadata parses the pack file of s, which is either a modpack manifest.json or a CurseForge app
// minecraftinstance.json
func ReadMetadata(s Source) (Metadata, error) {
	metaFile := s.MetaFile()
	rdr, err := metaFile.Open()
	if err != nil {
		return nil, fmt.Errorf("error reading %s: %w", metaFile.Name(), err)
	}
	defer rdr.Close()

	// Read the whole file (as we are going to parse it multiple times)
	fileData, err := io.ReadAll(rdr)
	if err != nil {
		return nil, fmt.Errorf("error reading %s: %w", metaFile.Name(), err)
	}

	// Determine what format the file is
	var probe struct {
		ManifestType string `json:"manifestType"`
	}
	if err := json.Unmarshal(fileData, &probe); err != nil {
		return nil, fmt.Errorf("error parsing %s: %w", metaFile.Name(), err)
	}

	if probe.ManifestType == "minecraftModpack" {
		packMeta := cursePackManifest{importSrc: s}
		if err := json.Unmarshal(fileData, &packMeta); err != nil {
			return nil, fmt.Errorf("error parsing %s: %w", metaFile.Name(), err)
		}
		return packMeta, nil
	}
	// encoding/json matches field names case-insensitively, so FileNameOnDisk needs no special handling
	packMeta := twitchInstalledPackMeta{importSrc: s}
	if err := json.Unmarshal(fileData, &packMeta); err != nil {
		return nil, fmt.Errorf("error parsing %s: %w", metaFile.Name(), err)
	}
	if packMeta.MCVersion == "" {
		return nil, fmt.Errorf("%s is not a CurseForge modpack manifest or instance", metaFile.Name())
	}
	return packMeta, nil
}

// AddonFileReference is a struct to reference a single file on CurseForge
type AddonFileReference struct {
	ProjectID uint32
	FileID    uint32
	// OptionalDisabled is true if the file is optional and turned off
	OptionalDisabled bool
}

// ManifestInfo is what a CurseForge modpack manifest says about the pack itself
type ManifestInfo struct {
	Name    string
	Version string
	Author  string
	// Versions maps "minecraft" and the mod loader, if any, to their versions
	Versions map[string]string
}

// loaderOrder is the preference when a pack somehow has more than one loader
var loaderOrder = []string{"fabric", "forge", "neoforge", "quilt"}

func WriteManifest(info ManifestInfo, fileRefs []AddonFileReference, projectID uint32, out io.Writer) error {
	files := make([]manifestFile, len(fileRefs))
	for i, fr := range fileRefs {
		files[i] = manifestFile{ProjectID: fr.ProjectID, FileID: fr.FileID, Required: !fr.OptionalDisabled}
	}
	sort.Slice(files, func(i, j int) bool {
		return files[i].ProjectID < files[j].ProjectID
	})

	modLoaders := make([]modLoaderDef, 0, 1)
	for _, loader := range loaderOrder {
		if v, ok := info.Versions[loader]; ok {
			modLoaders = append(modLoaders, modLoaderDef{ID: loader + "-" + v, Primary: true})
			break
		}
	}

	manifest := cursePackManifest{
		ManifestType:    "minecraftModpack",
		ManifestVersion: 1,
		NameInternal:    info.Name,
		Version:         info.Version,
		Author:          info.Author,
		ProjectID:       projectID,
		Files:           files,
		Overrides:       "overrides",
	}
	manifest.Minecraft.Version = info.Versions["minecraft"]
	manifest.Minecraft.ModLoaders = modLoaders

	w := json.NewEncoder(out)
	w.SetIndent("", "  ") // Match CF export
	return w.Encode(manifest)
}
