package minecraft

import (
	"context"
	"encoding/json"
	"fmt"
	"path/filepath"

	"github.com/packlaunch/packlaunch/core"
)

// Paths says where the files of a version are installed
type Paths struct {
	// GameJar is where the client (or server) jar is written
	GameJar      string
	LibrariesDir string
	NativesDir   string
	AssetsDir    string
	// ResourcesDir receives assets for very old versions which read them from the game directory
	ResourcesDir string
}

// NativeJar is a downloaded natives jar waiting to be extracted
type NativeJar struct {
	Path    string
	Library Library
}

// Downloadables lists the game jar and, for clients, the libraries and natives the version needs
func (v *Version) Downloadables(p Paths, server bool) ([]*core.Downloadable, []NativeJar) {
	var downloads []*core.Downloadable
	side := "client"
	if server {
		side = "server"
	}
	if jar, ok := v.Downloads[side]; ok {
		downloads = append(downloads, &core.Downloadable{
			Name: "Minecraft " + v.ID + " " + side,
			URL:  jar.URL,
			Path: p.GameJar,
			Hash: jar.SHA1,
			Size: jar.Size,
		})
	}
	if server {
		return downloads, nil
	}

	var natives []NativeJar
	for _, lib := range v.Libraries {
		if !lib.Applies() {
			continue
		}
		if a, ok := lib.Artifact(); ok && a.URL != "" {
			downloads = append(downloads, &core.Downloadable{
				Name:       lib.Name,
				URL:        a.URL,
				Path:       filepath.Join(p.LibrariesDir, filepath.FromSlash(a.Path)),
				Hash:       a.SHA1,
				Size:       a.Size,
				UsesPackXz: len(lib.Checksums) > 0,
				Checksums:  lib.Checksums,
			})
		}
		if n, ok := lib.Native(); ok && n.URL != "" {
			path := filepath.Join(p.LibrariesDir, filepath.FromSlash(n.Path))
			downloads = append(downloads, &core.Downloadable{
				Name: lib.Name + " natives",
				URL:  n.URL,
				Path: path,
				Hash: n.SHA1,
				Size: n.Size,
			})
			natives = append(natives, NativeJar{Path: path, Library: lib})
		}
	}
	return downloads, natives
}

// LibraryPaths returns the class path entries for the version's libraries, in declaration order
func (v *Version) LibraryPaths(librariesDir string) []string {
	var paths []string
	seen := make(map[string]bool)
	for _, lib := range v.Libraries {
		if !lib.Applies() {
			continue
		}
		a, ok := lib.Artifact()
		if !ok {
			continue
		}
		path := filepath.Join(librariesDir, filepath.FromSlash(a.Path))
		if !seen[path] {
			seen[path] = true
			paths = append(paths, path)
		}
	}
	return paths
}

// ExtractNatives unpacks natives jars into dir, honouring each library's exclusions
func ExtractNatives(natives []NativeJar, dir string) error {
	for _, n := range natives {
		lib := n.Library
		err := core.UnzipFiltered(n.Path, dir, func(name string) bool {
			return !lib.ExcludedFromExtraction(name)
		})
		if err != nil {
			return fmt.Errorf("failed to extract natives for %s: %w", lib.Name, err)
		}
	}
	return nil
}

type AssetIndex struct {
	Objects        map[string]AssetObject `json:"objects"`
	Virtual        bool                   `json:"virtual,omitempty"`
	MapToResources bool                   `json:"map_to_resources,omitempty"`
}

type AssetObject struct {
	Hash string `json:"hash"`
	Size int64  `json:"size"`
}

// AssetDownloadables fetches the version's asset index, stores it under assets/indexes and returns the
// objects to download. Legacy indexes also get copied to their virtual or resources location.
func (c *Client) AssetDownloadables(ctx context.Context, v *Version, p Paths) ([]*core.Downloadable, error) {
	if v.AssetIndex.URL == "" {
		return nil, nil
	}
	idx, err := c.GetAssetIndex(ctx, v.AssetIndex)
	if err != nil {
		return nil, err
	}
	data, err := json.Marshal(idx)
	if err != nil {
		return nil, err
	}
	indexID := v.AssetIndexID()
	if err := core.WriteFileAtomic(filepath.Join(p.AssetsDir, "indexes", indexID+".json"), data); err != nil {
		return nil, fmt.Errorf("failed to save asset index: %w", err)
	}

	downloads := make([]*core.Downloadable, 0, len(idx.Objects))
	for name, obj := range idx.Objects {
		if len(obj.Hash) < 2 {
			continue
		}
		sub := obj.Hash[:2] + "/" + obj.Hash
		d := &core.Downloadable{
			Name: name,
			URL:  resourcesURL + "/" + sub,
			Path: filepath.Join(p.AssetsDir, "objects", obj.Hash[:2], obj.Hash),
			Hash: obj.Hash,
			Size: obj.Size,
		}
		if idx.MapToResources && p.ResourcesDir != "" {
			d.CopyTo = filepath.Join(p.ResourcesDir, filepath.FromSlash(name))
		} else if idx.Virtual {
			d.CopyTo = filepath.Join(p.AssetsDir, "virtual", indexID, filepath.FromSlash(name))
		}
		downloads = append(downloads, d)
	}
	return downloads, nil
}
