package modrinth

import (
	"errors"
	"fmt"
	"math"
	"net/http"
	"net/url"
	"regexp"
	"slices"
	"strings"

	modrinthApi "codeberg.org/jmansfield/go-modrinth/modrinth"
	"github.com/packlaunch/packlaunch/cmd"
	"github.com/packlaunch/packlaunch/core"
	"github.com/packlaunch/packlaunch/instance"
	"github.com/spf13/cobra"
	"github.com/unascribed/FlexVer/go/flexver"
	"go.uber.org/zap"
)

var modrinthCmd = &cobra.Command{
	Use:     "modrinth",
	Aliases: []string{"mr"},
	Short:   "Add Modrinth projects to an instance, or export it as a Modrinth modpack",
}

var client = modrinthApi.NewClient(&http.Client{})

func init() {
	cmd.Add(modrinthCmd)
	client.UserAgent = core.UserAgent
}

func searchProjects(query string, mcVersion string) ([]*modrinthApi.SearchResult, error) {
	opts := &modrinthApi.SearchOptions{Query: query, Index: "relevance", Limit: 5}
	if mcVersion != "" {
		opts.Facets = [][]string{{"versions:" + mcVersion}}
	}
	res, err := client.Projects.Search(opts)
	if err != nil {
		return nil, err
	}
	return res.Hits, nil
}

// universalLoaders are accepted whatever the instance runs: shader loaders, core shaders and resource packs
var universalLoaders = []string{"canvas", "iris", "optifine", "vanilla", "minecraft"}

// loaderOrder ranks loaders for choosing between otherwise equal files; earlier is better. Quilt beats Fabric,
// NeoForge beats Forge, mods beat plugins and newer Bukkit forks beat older ones.
var loaderOrder = []string{
	"quilt", "fabric", "neoforge", "forge", "liteloader", "modloader", "rift",
	"sponge", "purpur", "paper", "spigot", "bukkit", "velocity", "waterfall", "bungeecord",
	"canvas", "iris", "optifine", "vanilla", "datapack", "minecraft",
}

// loaderSupersets maps a loader to the loaders that also run its files. When both sides of a comparison support
// the key, its superset loaders are ignored: [quilt, fabric] ranks the same as [fabric].
var loaderSupersets = map[string][]string{
	"fabric":     {"quilt"},
	"forge":      {"neoforge"},
	"bukkit":     {"purpur", "paper", "spigot"},
	"bungeecord": {"waterfall"},
}

var pluginLoaders = []string{"bukkit", "spigot", "paper", "purpur", "sponge", "bungeecord", "waterfall", "velocity"}

// bestRank is the position in loaderOrder of the best ranked loader in loaders, or math.MaxInt if none are ranked
func bestRank(loaders []string, ignore func(string) bool) int {
	best := math.MaxInt
	for _, l := range loaders {
		if ignore != nil && ignore(l) {
			continue
		}
		if r := slices.Index(loaderOrder, l); r != -1 && r < best {
			best = r
		}
	}
	return best
}

// libraryLoaders maps library name prefixes in an instance's version data to the loader they belong to
var libraryLoaders = []struct {
	prefix string
	loader string
}{
	{"org.quiltmc:quilt-loader:", "quilt"},
	{"net.fabricmc:fabric-loader:", "fabric"},
	{"net.neoforged:neoforge:", "neoforge"},
	{"net.neoforged:forge:", "neoforge"},
	{"net.minecraftforge:forge:", "forge"},
	{"net.minecraftforge:minecraftforge:", "forge"},
	{"com.mumfrey:liteloader:", "liteloader"},
}

// instanceLoaders works out which Modrinth loaders an instance can run, from its libraries and main class
func instanceLoaders(inst *instance.Instance) []string {
	var loaders []string
	add := func(l string) {
		if !slices.Contains(loaders, l) {
			loaders = append(loaders, l)
		}
	}
	for _, lib := range inst.Libraries {
		for _, v := range libraryLoaders {
			if strings.HasPrefix(lib.Name, v.prefix) {
				add(v.loader)
			}
		}
	}
	switch {
	case strings.Contains(inst.MainClass, "quiltmc"):
		add("quilt")
	case strings.Contains(inst.MainClass, "fabricmc"):
		add("fabric")
	case strings.Contains(inst.MainClass, "cpw.mods") || strings.Contains(inst.MainClass, "minecraftforge"):
		add("forge")
	}
	// Quilt runs Fabric mods
	if slices.Contains(loaders, "quilt") {
		add("fabric")
	}
	for _, m := range inst.Launcher.Mods {
		if m.Type == core.TypeForge {
			add("forge")
		}
	}
	if inst.IsServer() {
		loaders = append(loaders, pluginLoaders...)
	}
	return loaders
}

// modTypeFor decides how a Modrinth project's file is installed into an instance
func modTypeFor(projectType string, fileLoaders []string, instLoaders []string) (core.ModType, error) {
	switch projectType {
	case "modpack":
		return "", errors.New("modpacks can't be added to an instance; create a new instance from them instead")
	case "resourcepack":
		return core.TypeResourcePack, nil
	case "shader":
		// Canvas and core shaders are resource packs
		if slices.Contains(fileLoaders, "canvas") || slices.Contains(fileLoaders, "vanilla") {
			return core.TypeResourcePack, nil
		}
		return core.TypeShaderPack, nil
	case "mod", "plugin":
		r := bestRank(fileLoaders, func(l string) bool { return !slices.Contains(instLoaders, l) })
		switch {
		case r == math.MaxInt && slices.Contains(fileLoaders, "datapack"):
			return "", errors.New("datapacks can't be added to an instance; add them to a world instead")
		case r != math.MaxInt && slices.Contains(pluginLoaders, loaderOrder[r]):
			return core.TypePlugins, nil
		}
		return core.TypeMods, nil
	}
	return "", fmt.Errorf("unknown project type %s", projectType)
}

// Slug and version number patterns follow Modrinth's own validation; project and version IDs are base62
const (
	slugPattern    = "[a-zA-Z0-9!@$()`.+,_\"-]{3,64}"
	versionPattern = "[a-zA-Z0-9!@$()`.+,_\"-]{1,32}"
)

var projectPatterns = []struct {
	re   *regexp.Regexp
	bare bool
}{
	{re: regexp.MustCompile("^https?://(?:www\\.)?modrinth\\.com/(?P<category>[^/]+)/(?P<slug>" + slugPattern + ")(?:/version/(?P<version>" + versionPattern + "))?")},
	{re: regexp.MustCompile("^https?://cdn\\.modrinth\\.com/data/(?P<slug>[a-zA-Z0-9]+)/versions/(?P<versionID>[a-zA-Z0-9]+)/(?P<filename>[^/]+)$")},
	{re: regexp.MustCompile("^(?P<slug>" + slugPattern + ")$"), bare: true},
}

var urlCategories = []string{"mod", "plugin", "datapack", "shader", "resourcepack", "modpack"}

// projectRef is what could be worked out about a project from a command line argument
type projectRef struct {
	Slug      string
	Version   string
	VersionID string
	Filename  string
	// BareSlug is set when the argument wasn't a URL, so it may be a search term instead
	BareSlug bool
}

// parseSlugOrUrl recognises Modrinth project and version page URLs, CDN file URLs and bare slugs. ok is false when
// input is none of these.
func parseSlugOrUrl(input string) (ref projectRef, ok bool, err error) {
	for _, p := range projectPatterns {
		matches := p.re.FindStringSubmatch(input)
		if matches == nil {
			continue
		}
		for i, name := range p.re.SubexpNames() {
			switch name {
			case "category":
				if !slices.Contains(urlCategories, matches[i]) {
					return ref, false, errors.New("unknown project type: " + matches[i])
				}
			case "slug":
				ref.Slug = matches[i]
			case "version":
				ref.Version = matches[i]
			case "versionID":
				ref.VersionID = matches[i]
			case "filename":
				if ref.Filename, err = url.PathUnescape(matches[i]); err != nil {
					return ref, false, err
				}
			}
		}
		ref.BareSlug = p.bare
		return ref, true, nil
	}
	return ref, false, nil
}

// compareLoaderLists returns 1 if b has a better ranked loader than a, -1 if a does, and 0 otherwise
func compareLoaderLists(a []string, b []string) int32 {
	var ignored []string
	for base, supersets := range loaderSupersets {
		if slices.Contains(a, base) && slices.Contains(b, base) {
			ignored = append(ignored, supersets...)
		}
	}
	skip := func(l string) bool { return slices.Contains(ignored, l) }
	ra, rb := bestRank(a, skip), bestRank(b, skip)
	switch {
	case rb < ra:
		return 1
	case ra < rb:
		return -1
	}
	return 0
}

// gameVersionRank is the highest index in gameVersions of any version in supported, or -1
func gameVersionRank(gameVersions []string, supported []string) int {
	best := -1
	for _, v := range supported {
		best = max(best, slices.Index(gameVersions, v))
	}
	return best
}

// compareVersions returns a positive number if v is a better choice than best. With useFlexVer the version numbers
// decide first; then later game versions, better loaders and finally newer release dates.
func compareVersions(v, best *modrinthApi.Version, gameVersions []string, useFlexVer bool) int32 {
	if useFlexVer && v.VersionNumber != nil && best.VersionNumber != nil {
		if c := flexver.Compare(*v.VersionNumber, *best.VersionNumber); c != 0 {
			return c
		}
	}
	if c := gameVersionRank(gameVersions, v.GameVersions) - gameVersionRank(gameVersions, best.GameVersions); c != 0 {
		return int32(c)
	}
	if c := compareLoaderLists(best.Loaders, v.Loaders); c != 0 {
		return c
	}
	if v.DatePublished != nil && best.DatePublished != nil && v.DatePublished.After(*best.DatePublished) {
		return 1
	}
	return 0
}

func findLatestVersion(versions []*modrinthApi.Version, gameVersions []string, useFlexVer bool) *modrinthApi.Version {
	best := versions[0]
	for _, v := range versions[1:] {
		if compareVersions(v, best, gameVersions, useFlexVer) > 0 {
			best = v
		}
	}
	return best
}

// getLatestVersion picks the newest release of a project that runs on the instance
func getLatestVersion(projectID string, name string, inst *instance.Instance) (*modrinthApi.Version, error) {
	gameVersions := []string{inst.Launcher.Minecraft}
	versions, err := client.Versions.ListVersions(projectID, modrinthApi.ListVersionsOptions{
		GameVersions: gameVersions,
		Loaders:      append(instanceLoaders(inst), universalLoaders...),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to fetch versions of %s: %w", name, err)
	}
	if len(versions) == 0 {
		return nil, fmt.Errorf("no versions of %s found for Minecraft %s and this instance's loaders", name, inst.Launcher.Minecraft)
	}

	byDate := findLatestVersion(versions, gameVersions, false)
	if byNumber := findLatestVersion(versions, gameVersions, true); byNumber != byDate &&
		byNumber.VersionNumber != nil && byDate.VersionNumber != nil {
		core.Log.Warn("newest Modrinth version by number differs from newest by release date",
			zap.String("project", name),
			zap.String("byNumber", *byNumber.VersionNumber),
			zap.String("byDate", *byDate.VersionNumber))
	}
	return byDate, nil
}

// resolveVersion finds a version of project from its ID or version number
func resolveVersion(project *modrinthApi.Project, version string) (*modrinthApi.Version, error) {
	if slices.Contains(project.Versions, version) {
		v, err := client.Versions.Get(version)
		if err != nil {
			return nil, fmt.Errorf("failed to fetch version %s: %w", version, err)
		}
		return v, nil
	}

	versions, err := client.Versions.ListVersions(*project.ID, modrinthApi.ListVersionsOptions{})
	if err != nil {
		return nil, fmt.Errorf("failed to fetch version list for %s: %w", *project.ID, err)
	}
	// The list is newest first; if a version number was reused, the oldest release wins
	for i := len(versions) - 1; i >= 0; i-- {
		v := versions[i]
		if v.VersionNumber != nil && *v.VersionNumber == version {
			return v, nil
		}
	}
	return nil, fmt.Errorf("%s has no version %s", *project.ID, version)
}

// getBestHash picks the digest stored with an added mod. SHA-1 comes first so it matches what the launcher
// computes for mods it didn't download itself.
func getBestHash(v *modrinthApi.File) (string, string) {
	for _, algo := range []string{"sha1", "sha512", "sha256"} {
		if val, ok := v.Hashes[algo]; ok {
			return algo, val
		}
	}
	return "", ""
}

// primaryFile returns the file named filename, or without one the version's primary file
func primaryFile(version *modrinthApi.Version, filename string) *modrinthApi.File {
	if filename != "" {
		for _, f := range version.Files {
			if f.Filename != nil && *f.Filename == filename {
				return f
			}
		}
		return nil
	}
	for _, f := range version.Files {
		if f.Primary != nil && *f.Primary {
			return f
		}
	}
	if len(version.Files) > 0 {
		return version.Files[0]
	}
	return nil
}

// Quilt replacements for Fabric libraries, by the Modrinth project IDs and slugs of the Fabric ones
const (
	fabricAPI          = "P7dR8mSH"
	quiltedFabricAPI   = "qvIfYCYJ"
	fabricKotlin       = "Ha28R6CL"
	quiltKotlinLibrary = "lwVhp9o5"
)

// mapDepOverride swaps Fabric API dependencies for their Quilt equivalents on Quilt instances
func mapDepOverride(depID string, isQuilt bool, mcVersion string) string {
	if !isQuilt {
		return depID
	}
	switch depID {
	case fabricAPI, "fabric-api":
		return quiltedFabricAPI
	case fabricKotlin, "fabric-language-kotlin":
		// QKL only exists for 1.19.2 and later, and not for snapshots
		if flexver.Less("1.19.1", mcVersion) && flexver.Less(mcVersion, "2.0.0") {
			return quiltKotlinLibrary
		}
	}
	return depID
}
