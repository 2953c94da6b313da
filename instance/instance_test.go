package instance

import (
	"archive/zip"
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/packlaunch/packlaunch/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeZip(t *testing.T, path string, entries map[string]string) {
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for name, content := range entries {
		w, err := zw.Create(name)
		require.NoError(t, err)
		_, err = w.Write([]byte(content))
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0644))
}

func newTestInstance(t *testing.T, name string) *Instance {
	useDataDir(t)
	inst, err := New(name)
	require.NoError(t, err)
	inst.Launcher.Minecraft = "1.12.2"
	require.NoError(t, os.MkdirAll(inst.Root(), 0755))
	return inst
}

func TestSaveAndLoad(t *testing.T) {
	inst := newTestInstance(t, "My Pack!")
	assert.Equal(t, "MyPack", filepath.Base(inst.Root()))
	inst.Launcher.Mods = append(inst.Launcher.Mods, DisableableMod{Name: "A", File: "a.jar", Type: core.TypeMods})
	require.NoError(t, inst.Save())

	loaded, err := Load(inst.Root())
	require.NoError(t, err)
	assert.Equal(t, "My Pack!", loaded.Name())
	assert.Equal(t, CurrentDataVersion, loaded.DataVersion)
	assert.Equal(t, inst.Launcher.Mods, loaded.Launcher.Mods)

	_, err = Load(t.TempDir())
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestNewRejectsEmptyName(t *testing.T) {
	useDataDir(t)
	_, err := New("!!!")
	assert.Error(t, err)
}

func TestDisableAndEnable(t *testing.T) {
	inst := newTestInstance(t, "Toggle")
	mod := DisableableMod{Name: "Some Mod", File: "somemod.jar", Type: core.TypeMods}
	writeZip(t, filepath.Join(inst.ModsDir(), "somemod.jar"), map[string]string{"a.class": "a"})

	require.NoError(t, mod.Disable(inst))
	assert.True(t, mod.Disabled)
	assert.FileExists(t, filepath.Join(inst.DisabledModsDir(), "somemod.jar"))
	assert.NoFileExists(t, filepath.Join(inst.ModsDir(), "somemod.jar"))

	require.NoError(t, mod.Enable(inst))
	assert.False(t, mod.Disabled)
	assert.FileExists(t, filepath.Join(inst.ModsDir(), "somemod.jar"))
	assert.NoFileExists(t, filepath.Join(inst.DisabledModsDir(), "somemod.jar"))
}

func TestEnableJarModStripsMetaInf(t *testing.T) {
	inst := newTestInstance(t, "Jar")
	writeZip(t, inst.MinecraftJar(), map[string]string{
		"net/minecraft/client/Minecraft.class": "mc",
		"META-INF/MOJANG_C.SF":                 "sig",
	})
	writeZip(t, filepath.Join(inst.DisabledModsDir(), "jarmod.zip"), map[string]string{"x.class": "x"})
	mod := DisableableMod{Name: "Jar Mod", File: "jarmod.zip", Type: core.TypeJar, Disabled: true}

	require.NoError(t, mod.Enable(inst))
	assert.FileExists(t, filepath.Join(inst.JarModsDir(), "jarmod.zip"))

	_, err := core.ReadZipEntry(inst.MinecraftJar(), "META-INF/MOJANG_C.SF")
	assert.ErrorIs(t, err, os.ErrNotExist)
	data, err := core.ReadZipEntry(inst.MinecraftJar(), "net/minecraft/client/Minecraft.class")
	require.NoError(t, err)
	assert.Equal(t, "mc", string(data))
}

func TestModDirectories(t *testing.T) {
	inst := newTestInstance(t, "Dirs")
	cases := map[core.ModType]string{
		core.TypeJar:          inst.JarModsDir(),
		core.TypeForge:        inst.JarModsDir(),
		core.TypeMCPC:         inst.JarModsDir(),
		core.TypeTexturePack:  inst.TexturePacksDir(),
		core.TypeResourcePack: inst.ResourcePacksDir(),
		core.TypeMods:         inst.ModsDir(),
		core.TypeIC2Lib:       filepath.Join(inst.Root(), "mods", "ic2"),
		core.TypeDenLib:       filepath.Join(inst.Root(), "mods", "denlib"),
		core.TypeCoreMods:     inst.CoreModsDir(),
		core.TypeShaderPack:   inst.ShaderPacksDir(),
	}
	for typ, want := range cases {
		m := DisableableMod{Type: typ}
		got, err := m.Dir(inst)
		require.NoError(t, err, typ)
		assert.Equal(t, want, got, typ)
	}

	m := DisableableMod{Type: core.TypeExtract}
	_, err := m.Dir(inst)
	assert.Error(t, err)
	assert.Error(t, m.Disable(inst))
}

func TestServerModDirectories(t *testing.T) {
	inst := newTestInstance(t, "Server Dirs")
	inst.Type = "server"
	for _, typ := range []core.ModType{core.TypeForge, core.TypeMCPC} {
		m := DisableableMod{Type: typ}
		got, err := m.Dir(inst)
		require.NoError(t, err, typ)
		assert.Equal(t, inst.Root(), got, typ)
	}
}

func TestRefreshKeepsUnpackedFiles(t *testing.T) {
	inst := newTestInstance(t, "Unpacked")
	writeZip(t, filepath.Join(inst.ModsDir(), "extracted.jar"), map[string]string{"a": "a"})
	writeZip(t, filepath.Join(inst.TexturePacksDir(), "TexturePack.zip"), map[string]string{"pack.png": "p"})
	inst.Launcher.Mods = []DisableableMod{
		{Name: "Extracted", Type: core.TypeExtract, Files: []string{"mods/extracted.jar"}},
		{Name: "Textures", Type: core.TypeTexturePackExtract, Files: []string{"texturepacks/TexturePack.zip"}},
		{Name: "Merged", Type: core.TypeJar},
	}

	result, err := inst.Refresh()
	require.NoError(t, err)
	assert.False(t, result.Changed())
	assert.Len(t, inst.Launcher.Mods, 3)
	assert.Equal(t, []string{filepath.Join(inst.ModsDir(), "extracted.jar")}, inst.FindMod("Extracted").TrackedPaths(inst))
}

func TestDisableMissingFile(t *testing.T) {
	inst := newTestInstance(t, "Missing")
	mod := DisableableMod{Name: "Gone", File: "gone.jar", Type: core.TypeMods}
	assert.Error(t, mod.Disable(inst))
	assert.False(t, mod.Disabled)
}

func TestRefresh(t *testing.T) {
	inst := newTestInstance(t, "Refresh")
	writeZip(t, filepath.Join(inst.ModsDir(), "tracked.jar"), map[string]string{"a": "a"})
	writeZip(t, filepath.Join(inst.ModsDir(), "fabricmod.jar"), map[string]string{
		"fabric.mod.json": `{"id": "fancy", "name": "Fancy Mod", "version": "2.0.1"}`,
	})
	writeZip(t, filepath.Join(inst.JarModsDir(), "extra.zip"), map[string]string{"b": "b"})
	require.NoError(t, os.WriteFile(filepath.Join(inst.ModsDir(), "notes.txt"), []byte("hi"), 0644))
	inst.Launcher.Mods = []DisableableMod{
		{Name: "Tracked", File: "tracked.jar", Type: core.TypeMods},
		{Name: "Deleted", File: "deleted.jar", Type: core.TypeMods},
	}

	result, err := inst.Refresh()
	require.NoError(t, err)
	assert.True(t, result.Changed())
	assert.Equal(t, []string{"Deleted"}, result.Removed)
	assert.ElementsMatch(t, []string{"Fancy Mod", "extra"}, result.Added)

	fancy := inst.FindMod("Fancy Mod")
	require.NotNil(t, fancy)
	assert.True(t, fancy.UserAdded)
	assert.Equal(t, "2.0.1", fancy.Version)
	assert.Equal(t, []string{"extra.zip"}, inst.Launcher.JarOrder)

	result, err = inst.Refresh()
	require.NoError(t, err)
	assert.False(t, result.Changed())
}

func TestFind(t *testing.T) {
	useDataDir(t)
	var instances []*Instance
	for _, name := range []string{"Vanilla Plus", "Sky Factory", "FTB Revelation"} {
		inst, err := New(name)
		require.NoError(t, err)
		instances = append(instances, inst)
	}

	found, err := Find(instances, "sky factory")
	require.NoError(t, err)
	assert.Equal(t, "Sky Factory", found.Name())

	found, err = Find(instances, "SkyFactory")
	require.NoError(t, err)
	assert.Equal(t, "Sky Factory", found.Name())

	found, err = Find(instances, "revel")
	require.NoError(t, err)
	assert.Equal(t, "FTB Revelation", found.Name())

	_, err = Find(instances, "zzz")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestListSkipsLegacyWithoutResolver(t *testing.T) {
	useDataDir(t)
	writeLegacy(t, legacyInstanceJson)
	b, err := New("Beta")
	require.NoError(t, err)
	require.NoError(t, os.MkdirAll(b.Root(), 0755))
	require.NoError(t, b.Save())
	a, err := New("alpha")
	require.NoError(t, err)
	require.NoError(t, os.MkdirAll(a.Root(), 0755))
	require.NoError(t, a.Save())

	list, err := List(context.Background(), nil)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "alpha", list[0].Name())
	assert.Equal(t, "Beta", list[1].Name())
}
