package curseforge

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"testing"

	"github.com/jarcoal/httpmock"
	"github.com/packlaunch/packlaunch/core"
	"github.com/packlaunch/packlaunch/curseforge/murmur2"
	"github.com/packlaunch/packlaunch/instance"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setup(t *testing.T) {
	httpmock.Activate(t)
	httpmock.ActivateNonDefault(api.r.GetClient())
	viper.Set("data-dir", t.TempDir())
	viper.Set("curseforge.api-key", "test-key")
	t.Cleanup(func() {
		viper.Set("data-dir", "")
		viper.Set("curseforge.api-key", "")
	})
}

func writeZip(t *testing.T, path string, entries map[string]string) {
	f, err := os.Create(path)
	require.NoError(t, err)
	zw := zip.NewWriter(f)
	for name, content := range entries {
		w, err := zw.Create(name)
		require.NoError(t, err)
		_, err = w.Write([]byte(content))
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())
	require.NoError(t, f.Close())
}

func TestParseSlugOrUrl(t *testing.T) {
	slug, projectID, fileID, ok := parseSlugOrUrl("https://www.curseforge.com/minecraft/mc-mods/jei/files/4712866")
	assert.True(t, ok)
	assert.Equal(t, "jei", slug)
	assert.Zero(t, projectID)
	assert.Equal(t, uint32(4712866), fileID)

	slug, _, fileID, ok = parseSlugOrUrl("https://www.curseforge.com/minecraft/texture-packs/faithful-32x")
	assert.True(t, ok)
	assert.Equal(t, "faithful-32x", slug)
	assert.Zero(t, fileID)

	_, projectID, _, ok = parseSlugOrUrl("238222")
	assert.True(t, ok)
	assert.Equal(t, uint32(238222), projectID)

	_, _, _, ok = parseSlugOrUrl("Just Enough Items")
	assert.False(t, ok)
}

func TestGetBestHash(t *testing.T) {
	var file modFileInfo
	require.NoError(t, json.Unmarshal([]byte(`{"fileFingerprint": 1234, "hashes": [
		{"value": "d41d8cd98f00b204e9800998ecf8427e", "algo": 2},
		{"value": "da39a3ee5e6b4b0d3255bfef95601890afd80709", "algo": 1}
	]}`), &file))
	hash, format := file.getBestHash()
	assert.Equal(t, "sha1", format)
	assert.Equal(t, "da39a3ee5e6b4b0d3255bfef95601890afd80709", hash)

	file.Hashes = nil
	hash, format = file.getBestHash()
	assert.Equal(t, "murmur2", format)
	assert.Equal(t, "1234", hash)

	file.Fingerprint = 0
	hash, format = file.getBestHash()
	assert.Empty(t, hash)
	assert.Empty(t, format)
}

func TestRequestsNeedAPIKey(t *testing.T) {
	setup(t)
	viper.Set("curseforge.api-key", "")
	_, err := api.getModInfo(context.Background(), 1)
	assert.ErrorIs(t, err, ErrNoAPIKey)
}

func TestImportPack(t *testing.T) {
	setup(t)
	manifest := `{
		"minecraft": {"version": "1.20.1", "modLoaders": [{"id": "forge-47.2.0", "primary": true}]},
		"manifestType": "minecraftModpack",
		"manifestVersion": 1,
		"name": "Imported",
		"version": "2.0",
		"author": "someone",
		"files": [
			{"projectID": 1, "fileID": 10, "required": true},
			{"projectID": 2, "fileID": 20, "required": false}
		],
		"overrides": "overrides"
	}`
	zipPath := filepath.Join(t.TempDir(), "pack.zip")
	writeZip(t, zipPath, map[string]string{
		"manifest.json":                 manifest,
		"overrides/config/example.toml": "setting = true",
		"overrides/options.txt":         "fov:90",
		"elsewhere/not-an-override.txt": "ignored",
	})

	httpmock.RegisterResponder("POST", apiURL+"/v1/mods/files", httpmock.NewStringResponder(200, `{"data": [
		{"id": 10, "modId": 1, "fileName": "alpha-1.0.jar", "displayName": "Alpha 1.0", "fileLength": 5,
		 "downloadUrl": "https://edge.forgecdn.net/files/alpha-1.0.jar",
		 "hashes": [{"value": "da39a3ee5e6b4b0d3255bfef95601890afd80709", "algo": 1}]},
		{"id": 20, "modId": 2, "fileName": "beta-2.0.zip", "displayName": "Beta 2.0", "fileFingerprint": 99, "downloadUrl": null}
	]}`))
	httpmock.RegisterResponder("POST", apiURL+"/v1/mods", httpmock.NewStringResponder(200, `{"data": [
		{"id": 1, "name": "Alpha", "classId": 6},
		{"id": 2, "name": "Beta Textures", "classId": 12, "links": {"websiteUrl": "https://www.curseforge.com/minecraft/texture-packs/beta"}}
	]}`))

	src, closer, err := openPackSource(zipPath)
	require.NoError(t, err)
	defer closer.Close()
	imported, err := importPack(context.Background(), src)
	require.NoError(t, err)

	pack := imported.Pack
	assert.Equal(t, "Imported", pack.Name)
	assert.Equal(t, "2.0", pack.Version)
	assert.Equal(t, "1.20.1", pack.Minecraft)
	assert.Equal(t, map[string]string{"forge": "47.2.0"}, imported.Loaders)
	require.Len(t, pack.Mods, 2)

	alpha := pack.FindMod("Alpha")
	require.NotNil(t, alpha)
	assert.Equal(t, core.TypeMods, alpha.Type)
	assert.Equal(t, "sha1", alpha.HashType)
	assert.False(t, alpha.Optional)
	assert.Equal(t, core.DownloadDirect, alpha.Download)

	beta := pack.FindMod("Beta Textures")
	require.NotNil(t, beta)
	assert.Equal(t, core.TypeResourcePack, beta.Type)
	assert.True(t, beta.Optional)
	assert.False(t, beta.Selected)
	assert.Equal(t, core.DownloadBrowser, beta.Download)
	assert.Equal(t, "https://www.curseforge.com/minecraft/texture-packs/beta/files/20", beta.URL)
	assert.Equal(t, "murmur2", beta.HashType)

	root := t.TempDir()
	n, err := extractOverrides(imported.Files, root)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	data, err := os.ReadFile(filepath.Join(root, "config", "example.toml"))
	require.NoError(t, err)
	assert.Equal(t, "setting = true", string(data))
	assert.NoFileExists(t, filepath.Join(root, "elsewhere", "not-an-override.txt"))
}

func TestImportFromCurseForgeInstanceFolder(t *testing.T) {
	setup(t)
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "minecraftinstance.json"), []byte(`{
		"name": "App Instance",
		"gameVersion": "1.12.2",
		"baseModLoader": {"name": "forge-14.23.5.2860", "mavenVersionString": "net.minecraftforge:forge:1.12.2-14.23.5.2860"},
		"modpackOverrides": ["config"],
		"installedAddons": [{"addonID": 1, "installedFile": {"id": 10, "FileNameOnDisk": "alpha.jar.disabled"}}],
		"isUnlocked": false
	}`), 0644))
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "config"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config", "a.cfg"), []byte("a"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "options.txt"), []byte("user"), 0644))

	httpmock.RegisterResponder("POST", apiURL+"/v1/mods/files", httpmock.NewStringResponder(200, `{"data": [
		{"id": 10, "modId": 1, "fileName": "alpha.jar", "downloadUrl": "https://edge.forgecdn.net/files/alpha.jar", "fileFingerprint": 5}
	]}`))
	httpmock.RegisterResponder("POST", apiURL+"/v1/mods", httpmock.NewStringResponder(200, `{"data": [{"id": 1, "name": "Alpha", "classId": 6}]}`))

	src, closer, err := openPackSource(dir)
	require.NoError(t, err)
	defer closer.Close()
	imported, err := importPack(context.Background(), src)
	require.NoError(t, err)

	assert.Equal(t, "App Instance", imported.Pack.Name)
	assert.Equal(t, "1.12.2", imported.Pack.Minecraft)
	assert.Equal(t, map[string]string{"forge": "14.23.5.2860"}, imported.Loaders)
	require.Len(t, imported.Pack.Mods, 1)
	assert.True(t, imported.Pack.Mods[0].Optional)
	require.Len(t, imported.Files, 1)
	assert.Equal(t, "config/a.cfg", imported.Files[0].Name())
}

func TestDetect(t *testing.T) {
	setup(t)
	inst, err := instance.New("Detect")
	require.NoError(t, err)
	require.NoError(t, os.MkdirAll(inst.ModsDir(), 0755))

	known := []byte("known mod contents")
	require.NoError(t, os.WriteFile(filepath.Join(inst.ModsDir(), "known.jar"), known, 0644))
	require.NoError(t, os.WriteFile(filepath.Join(inst.ModsDir(), "mystery.jar"), []byte("mystery"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(inst.ModsDir(), "readme.txt"), []byte("not a jar"), 0644))
	inst.Launcher.Mods = []instance.DisableableMod{{Name: "Known", File: "known.jar", Type: core.TypeMods}}

	fp, err := murmur2.Fingerprint(bytes.NewReader(known))
	require.NoError(t, err)
	httpmock.RegisterResponder("POST", apiURL+"/v1/fingerprints/432", func(req *http.Request) (*http.Response, error) {
		var body struct {
			Fingerprints []uint32 `json:"fingerprints"`
		}
		data, _ := io.ReadAll(req.Body)
		if err := json.Unmarshal(data, &body); err != nil || len(body.Fingerprints) != 2 {
			return httpmock.NewStringResponse(400, "bad request"), nil
		}
		return httpmock.NewStringResponse(200, `{"data": {
			"exactMatches": [{"id": 7, "file": {"id": 70, "modId": 7, "fileName": "known-1.0.jar", "fileFingerprint": `+
			strconv.FormatUint(uint64(fp), 10)+`}}],
			"exactFingerprints": [`+strconv.FormatUint(uint64(fp), 10)+`]
		}}`), nil
	})
	httpmock.RegisterResponder("POST", apiURL+"/v1/mods", httpmock.NewStringResponder(200, `{"data": [{"id": 7, "name": "Known Mod", "classId": 6}]}`))

	res, err := detect(context.Background(), inst)
	require.NoError(t, err)
	assert.Equal(t, []string{"known.jar"}, res.Matched)
	assert.Equal(t, []string{"mystery.jar"}, res.Unmatched)

	loaded, err := instance.Load(inst.Root())
	require.NoError(t, err)
	require.Len(t, loaded.Launcher.Mods, 1)
	require.NotNil(t, loaded.Launcher.Mods[0].CurseForge)
	assert.Equal(t, uint32(7), loaded.Launcher.Mods[0].CurseForge.ProjectID)
	assert.Equal(t, uint32(70), loaded.Launcher.Mods[0].CurseForge.FileID)
}

func TestExportInstance(t *testing.T) {
	setup(t)
	inst, err := instance.New("Export Me")
	require.NoError(t, err)
	inst.Launcher.Minecraft = "1.12.2"
	inst.Launcher.Version = "3.1"
	require.NoError(t, os.MkdirAll(inst.ModsDir(), 0755))
	require.NoError(t, os.MkdirAll(inst.ConfigDir(), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(inst.ModsDir(), "cf.jar"), []byte("cf"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(inst.ModsDir(), "local.jar"), []byte("local"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(inst.ConfigDir(), "local.cfg"), []byte("cfg"), 0644))
	inst.Launcher.Mods = []instance.DisableableMod{
		{Name: "From CurseForge", File: "cf.jar", Type: core.TypeMods, CurseForge: &instance.CurseForgeRef{ProjectID: 5, FileID: 50}},
		{Name: "Local <Mod>", File: "local.jar", Type: core.TypeMods},
	}

	var buf bytes.Buffer
	res, err := exportInstance(inst, &buf, 123)
	require.NoError(t, err)
	assert.Equal(t, 1, res.CurseForgeFiles)
	assert.ElementsMatch(t, []string{"mods/local.jar", "config/local.cfg"}, res.Overrides)

	zr, err := zip.NewReader(bytes.NewReader(buf.Bytes()), int64(buf.Len()))
	require.NoError(t, err)
	entries := make(map[string]string)
	for _, f := range zr.File {
		rc, err := f.Open()
		require.NoError(t, err)
		data, err := io.ReadAll(rc)
		require.NoError(t, err)
		rc.Close()
		entries[f.Name] = string(data)
	}
	assert.Equal(t, "local", entries["overrides/mods/local.jar"])
	assert.Equal(t, "cfg", entries["overrides/config/local.cfg"])
	assert.NotContains(t, entries, "overrides/mods/cf.jar")
	assert.Contains(t, entries["modlist.html"], "Local &lt;Mod&gt;")

	var manifest struct {
		Minecraft struct {
			Version string `json:"version"`
		} `json:"minecraft"`
		Name      string `json:"name"`
		Version   string `json:"version"`
		ProjectID uint32 `json:"projectID"`
		Files     []struct {
			ProjectID uint32 `json:"projectID"`
			FileID    uint32 `json:"fileID"`
			Required  bool   `json:"required"`
		} `json:"files"`
	}
	require.NoError(t, json.Unmarshal([]byte(entries["manifest.json"]), &manifest))
	assert.Equal(t, "1.12.2", manifest.Minecraft.Version)
	assert.Equal(t, "Export Me", manifest.Name)
	assert.Equal(t, uint32(123), manifest.ProjectID)
	require.Len(t, manifest.Files, 1)
	assert.Equal(t, uint32(50), manifest.Files[0].FileID)
	assert.True(t, manifest.Files[0].Required)
}
