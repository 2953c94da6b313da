package curseforge

import (
	"context"
	"fmt"
	"regexp"
	"strconv"

	"github.com/packlaunch/packlaunch/cmd"
	"github.com/packlaunch/packlaunch/core"
	"github.com/packlaunch/packlaunch/instance"
	"github.com/spf13/cobra"
)

var curseforgeCmd = &cobra.Command{
	Use:     "curseforge",
	Aliases: []string{"cf", "curse"},
	Short:   "Manage curseforge-based mods and modpacks",
}

func init() {
	cmd.Add(curseforgeCmd)
}

var fileIDRegexes = [...]*regexp.Regexp{
	regexp.MustCompile("^https?://(?:www\\.)?curseforge\\.com/minecraft/[a-z-]+/([^/]+)/files/(\\d+)"),
	regexp.MustCompile("^https?://(?:www\\.)?curseforge\\.com/minecraft/[a-z-]+/([^/]+)/download/(\\d+)"),
}

var modSlugRegexes = [...]*regexp.Regexp{
	regexp.MustCompile("^https?://(?:www\\.)?curseforge\\.com/minecraft/[a-z-]+/([^/]+)"),
	// Exact slug matcher
	regexp.MustCompile("^[a-z][\\da-z\\-]{0,127}$"),
}

// parseSlugOrUrl returns the slug (or numeric project ID) and file ID a user gave on the command line. ok is false
// when the argument should be treated as a search term instead.
func parseSlugOrUrl(s string) (slug string, projectID uint32, fileID uint32, ok bool) {
	if id, err := strconv.ParseUint(s, 10, 32); err == nil && id > 0 {
		return "", uint32(id), 0, true
	}
	for _, v := range fileIDRegexes {
		if matches := v.FindStringSubmatch(s); matches != nil {
			id, err := strconv.ParseUint(matches[2], 10, 32)
			if err != nil {
				return "", 0, 0, false
			}
			return matches[1], 0, uint32(id), true
		}
	}
	for _, v := range modSlugRegexes {
		if matches := v.FindStringSubmatch(s); matches != nil {
			return matches[len(matches)-1], 0, 0, true
		}
	}
	return "", 0, 0, false
}

func (c *apiClient) modIDFromSlug(ctx context.Context, slug string) (uint32, error) {
	results, err := c.getSearch(ctx, "", slug, "")
	if err != nil {
		return 0, err
	}
	for _, v := range results {
		if v.Slug == slug {
			return v.ID, nil
		}
	}
	return 0, fmt.Errorf("no CurseForge project found with slug %s", slug)
}

// modTypeFor decides how a project's files are installed from its CurseForge class
func modTypeFor(classID uint32) (core.ModType, error) {
	switch classID {
	case classMods, 0:
		return core.TypeMods, nil
	case classResourcePacks:
		return core.TypeResourcePack, nil
	case classShaderPacks:
		return core.TypeShaderPack, nil
	case classBukkitPlugins:
		return core.TypePlugins, nil
	}
	return "", fmt.Errorf("CurseForge projects of class %d are not supported", classID)
}

func projectURL(projectID uint32) string {
	return "https://www.curseforge.com/projects/" + strconv.FormatUint(uint64(projectID), 10)
}

// fileDownloadURL is the page a file can be downloaded from by hand, for projects that disallow third party downloads
func fileDownloadURL(project modInfo, file modFileInfo) string {
	if project.Links.WebsiteURL != "" {
		return project.Links.WebsiteURL + "/files/" + strconv.FormatUint(uint64(file.ID), 10)
	}
	return projectURL(project.ID)
}

// toDisableableMod describes a CurseForge file as a mod for an instance
func toDisableableMod(project modInfo, file modFileInfo) (instance.DisableableMod, error) {
	typ, err := modTypeFor(project.ClassID)
	if err != nil {
		return instance.DisableableMod{}, err
	}
	hash, hashFormat := file.getBestHash()
	return instance.DisableableMod{
		Name:        project.Name,
		Version:     file.FriendlyName,
		File:        file.FileName,
		Type:        typ,
		Description: project.Summary,
		CurseForge:  &instance.CurseForgeRef{ProjectID: project.ID, FileID: file.ID},
		DownloadURL: file.DownloadURL,
		Hash:        hash,
		HashType:    hashFormat,
	}, nil
}

// toPackMod describes a CurseForge file as a pack mod. Files the API won't give a download URL for become browser
// downloads pointing at the file's page.
func toPackMod(project modInfo, file modFileInfo, optional bool) (core.Mod, error) {
	typ, err := modTypeFor(project.ClassID)
	if err != nil {
		return core.Mod{}, err
	}
	hash, hashFormat := file.getBestHash()
	m := core.Mod{
		Name:        project.Name,
		Version:     file.FriendlyName,
		Description: project.Summary,
		URL:         file.DownloadURL,
		File:        file.FileName,
		Hash:        hash,
		HashType:    hashFormat,
		Size:        int64(file.Length),
		Type:        typ,
		Download:    core.DownloadDirect,
		Optional:    optional,
		Selected:    true,
	}
	if m.URL == "" {
		m.URL = fileDownloadURL(project, file)
		m.Download = core.DownloadBrowser
	}
	return m, nil
}
