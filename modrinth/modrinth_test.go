package modrinth

import (
	"archive/zip"
	"bytes"
	"context"
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	modrinthApi "codeberg.org/jmansfield/go-modrinth/modrinth"
	"github.com/jarcoal/httpmock"
	"github.com/packlaunch/packlaunch/core"
	"github.com/packlaunch/packlaunch/instance"
	"github.com/packlaunch/packlaunch/minecraft"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const apiBase = "https://api.modrinth.com/v2"

func setup(t *testing.T) {
	httpmock.Activate(t)
	viper.Set("data-dir", t.TempDir())
	t.Cleanup(func() {
		viper.Set("data-dir", "")
	})
}

func fabricInstance(t *testing.T, name string) *instance.Instance {
	inst, err := instance.New(name)
	require.NoError(t, err)
	inst.Launcher.Minecraft = "1.20.1"
	inst.Launcher.Version = "1.0"
	inst.MainClass = "net.fabricmc.loader.impl.launch.knot.KnotClient"
	inst.Libraries = []minecraft.Library{
		{Name: "net.fabricmc:intermediary:1.20.1"},
		{Name: "net.fabricmc:fabric-loader:0.14.21"},
	}
	return inst
}

func strPtr(s string) *string { return &s }

func TestParseSlugOrUrl(t *testing.T) {
	ref, ok, err := parseSlugOrUrl("https://modrinth.com/mod/sodium/version/mc1.20.1-0.5.0")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "sodium", ref.Slug)
	assert.Equal(t, "mc1.20.1-0.5.0", ref.Version)
	assert.False(t, ref.BareSlug)

	ref, ok, err = parseSlugOrUrl("https://cdn.modrinth.com/data/AANobbMI/versions/OihdIimA/sodium-fabric%2B1.jar")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "AANobbMI", ref.Slug)
	assert.Equal(t, "OihdIimA", ref.VersionID)
	assert.Equal(t, "sodium-fabric+1.jar", ref.Filename)

	ref, ok, err = parseSlugOrUrl("lithium")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.True(t, ref.BareSlug)

	_, _, err = parseSlugOrUrl("https://modrinth.com/user/someone")
	assert.Error(t, err)

	_, ok, err = parseSlugOrUrl("two words")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestCompareLoaderLists(t *testing.T) {
	// Quilt support doesn't imply Fabric support
	assert.Equal(t, int32(-1), compareLoaderLists([]string{"quilt"}, []string{"fabric"}))
	assert.Equal(t, int32(1), compareLoaderLists([]string{"fabric"}, []string{"quilt"}))
	// Both support fabric, so quilt is ignored
	assert.Equal(t, int32(0), compareLoaderLists([]string{"fabric", "quilt"}, []string{"fabric"}))
	assert.Equal(t, int32(-1), compareLoaderLists([]string{"neoforge"}, []string{"forge"}))
}

func TestFindLatestVersion(t *testing.T) {
	older := time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC)
	newer := time.Date(2023, 6, 1, 0, 0, 0, 0, time.UTC)
	versions := []*modrinthApi.Version{
		{ID: strPtr("a"), VersionNumber: strPtr("1.10.0"), GameVersions: []string{"1.20.1"}, Loaders: []string{"fabric"}, DatePublished: &older},
		{ID: strPtr("b"), VersionNumber: strPtr("1.9.0"), GameVersions: []string{"1.20.1"}, Loaders: []string{"fabric"}, DatePublished: &newer},
	}
	assert.Equal(t, "a", *findLatestVersion(versions, []string{"1.20.1"}, true).ID)
	assert.Equal(t, "b", *findLatestVersion(versions, []string{"1.20.1"}, false).ID)

	versions = []*modrinthApi.Version{
		{ID: strPtr("fabric"), VersionNumber: strPtr("1.0"), GameVersions: []string{"1.20.1"}, Loaders: []string{"fabric"}, DatePublished: &newer},
		{ID: strPtr("quilt"), VersionNumber: strPtr("1.0"), GameVersions: []string{"1.20.1"}, Loaders: []string{"quilt"}, DatePublished: &older},
	}
	assert.Equal(t, "quilt", *findLatestVersion(versions, []string{"1.20.1"}, true).ID)
}

func TestInstanceLoaders(t *testing.T) {
	setup(t)
	inst := fabricInstance(t, "Loaders")
	assert.Equal(t, []string{"fabric"}, instanceLoaders(inst))

	inst.Libraries = append(inst.Libraries, minecraft.Library{Name: "org.quiltmc:quilt-loader:0.19.0"})
	assert.ElementsMatch(t, []string{"fabric", "quilt"}, instanceLoaders(inst))

	inst.Libraries = nil
	inst.MainClass = "net.minecraft.launchwrapper.Launch"
	inst.Launcher.Mods = []instance.DisableableMod{{Name: "Forge", File: "forge.zip", Type: core.TypeForge}}
	assert.Equal(t, []string{"forge"}, instanceLoaders(inst))

	inst.Type = "server"
	assert.Contains(t, instanceLoaders(inst), "paper")
}

func TestModTypeFor(t *testing.T) {
	typ, err := modTypeFor("mod", []string{"fabric"}, []string{"fabric"})
	require.NoError(t, err)
	assert.Equal(t, core.TypeMods, typ)

	typ, err = modTypeFor("plugin", []string{"paper", "spigot"}, []string{"paper"})
	require.NoError(t, err)
	assert.Equal(t, core.TypePlugins, typ)

	typ, err = modTypeFor("shader", []string{"iris"}, nil)
	require.NoError(t, err)
	assert.Equal(t, core.TypeShaderPack, typ)

	typ, err = modTypeFor("resourcepack", []string{"minecraft"}, nil)
	require.NoError(t, err)
	assert.Equal(t, core.TypeResourcePack, typ)

	_, err = modTypeFor("modpack", nil, nil)
	assert.Error(t, err)
	_, err = modTypeFor("mod", []string{"datapack"}, []string{"fabric"})
	assert.Error(t, err)
}

func TestAddProject(t *testing.T) {
	setup(t)
	inst := fabricInstance(t, "Add Sodium")

	content := []byte("sodium jar")
	sum := sha1.Sum(content)
	digest := hex.EncodeToString(sum[:])
	downloadURL := "https://cdn.modrinth.com/data/AANobbMI/versions/v1/sodium.jar"

	httpmock.RegisterResponder("GET", apiBase+"/project/sodium", httpmock.NewStringResponder(200, `{
		"id": "AANobbMI", "slug": "sodium", "title": "Sodium", "description": "Rendering engine",
		"project_type": "mod", "versions": ["v1"], "client_side": "required", "server_side": "unsupported"
	}`))
	httpmock.RegisterResponder("GET", apiBase+"/project/AANobbMI/version", httpmock.NewStringResponder(200, `[{
		"id": "v1", "project_id": "AANobbMI", "version_number": "0.5.0",
		"game_versions": ["1.20.1"], "loaders": ["fabric"], "date_published": "2023-08-01T00:00:00Z",
		"dependencies": [],
		"files": [{"url": "`+downloadURL+`", "filename": "sodium.jar", "primary": true, "hashes": {"sha1": "`+digest+`"}}]
	}]`))
	httpmock.RegisterResponder("GET", downloadURL, httpmock.NewBytesResponder(200, content))

	a := adder{ctx: context.Background(), inst: inst}
	require.NoError(t, a.addProjectByID("sodium", ""))

	m := inst.FindMod("Sodium")
	require.NotNil(t, m)
	assert.Equal(t, "sodium.jar", m.File)
	assert.Equal(t, "0.5.0", m.Version)
	assert.Equal(t, core.TypeMods, m.Type)
	assert.True(t, m.UserAdded)
	require.NotNil(t, m.Modrinth)
	assert.Equal(t, "AANobbMI", m.Modrinth.ProjectID)
	assert.Equal(t, "v1", m.Modrinth.VersionID)

	data, err := os.ReadFile(filepath.Join(inst.ModsDir(), "sodium.jar"))
	require.NoError(t, err)
	assert.Equal(t, content, data)
}

func TestExportInstance(t *testing.T) {
	setup(t)
	inst := fabricInstance(t, "Export Me")
	require.NoError(t, os.MkdirAll(inst.ModsDir(), 0755))
	require.NoError(t, os.MkdirAll(inst.ConfigDir(), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(inst.ModsDir(), "sodium.jar"), []byte("sodium"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(inst.ModsDir(), "local.jar"), []byte("local"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(inst.ConfigDir(), "sodium.json"), []byte("{}"), 0644))
	inst.Launcher.Mods = []instance.DisableableMod{
		{Name: "Sodium", File: "sodium.jar", Type: core.TypeMods, DownloadURL: "https://cdn.modrinth.com/data/AANobbMI/versions/v1/sodium.jar"},
		{Name: "Local", File: "local.jar", Type: core.TypeMods, DownloadURL: "https://example.com/local.jar"},
	}

	var buf bytes.Buffer
	res, err := exportInstance(inst, &buf, true)
	require.NoError(t, err)
	assert.Equal(t, 1, res.ManifestFiles)
	assert.ElementsMatch(t, []string{"mods/local.jar", "config/sodium.json"}, res.Overrides)

	zr, err := zip.NewReader(bytes.NewReader(buf.Bytes()), int64(buf.Len()))
	require.NoError(t, err)
	entries := make(map[string][]byte)
	for _, f := range zr.File {
		rc, err := f.Open()
		require.NoError(t, err)
		data, err := io.ReadAll(rc)
		require.NoError(t, err)
		rc.Close()
		entries[f.Name] = data
	}
	assert.Equal(t, []byte("local"), entries["overrides/mods/local.jar"])
	assert.Contains(t, entries, "overrides/config/sodium.json")

	var manifest Pack
	require.NoError(t, json.Unmarshal(entries["modrinth.index.json"], &manifest))
	assert.Equal(t, "Export Me", manifest.Name)
	assert.Equal(t, "1.0", manifest.VersionID)
	assert.Equal(t, map[string]string{"minecraft": "1.20.1", "fabric-loader": "0.14.21"}, manifest.Dependencies)
	require.Len(t, manifest.Files, 1)
	f := manifest.Files[0]
	assert.Equal(t, "mods/sodium.jar", f.Path)
	assert.Equal(t, int64(6), f.FileSize)
	sum := sha1.Sum([]byte("sodium"))
	assert.Equal(t, hex.EncodeToString(sum[:]), f.Hashes["sha1"])
	assert.Len(t, f.Hashes["sha512"], 128)
	require.NotNil(t, f.Env)
	assert.Equal(t, "required", f.Env.Client)
	assert.Equal(t, "unsupported", f.Env.Server)
}
