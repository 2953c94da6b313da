package instance

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/packlaunch/packlaunch/core"
	"github.com/packlaunch/packlaunch/minecraft"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func useDataDir(t *testing.T) string {
	dir := t.TempDir()
	viper.Set("data-dir", dir)
	t.Cleanup(func() {
		viper.Set("data-dir", "")
	})
	return dir
}

type fakeResolver struct {
	versions map[string]*minecraft.Version
	calls    int
}

func (f *fakeResolver) ResolveVersion(_ context.Context, id string) (*minecraft.Version, error) {
	f.calls++
	v, ok := f.versions[id]
	if !ok {
		return nil, errors.New(id + " is not a valid Minecraft version")
	}
	return v, nil
}

func legacyResolver() *fakeResolver {
	return &fakeResolver{versions: map[string]*minecraft.Version{
		"1.7.10": {
			ID:                 "1.7.10",
			MainClass:          "net.minecraft.client.main.Main",
			MinecraftArguments: "--username ${auth_player_name} --session ${auth_session}",
			Assets:             "1.7.10",
			Libraries:          []minecraft.Library{{Name: "com.mojang:realms:1.3.5"}},
		},
		"1.16.5": {
			ID:        "1.16.5",
			MainClass: "net.minecraft.client.main.Main",
			Arguments: &minecraft.Arguments{
				Game: []minecraft.Argument{{Values: []string{"--username", "${auth_player_name}"}}},
			},
			AssetIndex: minecraft.AssetIndexRef{ID: "1.16"},
		},
	}}
}

const legacyInstanceJson = `{
	"name": "Test Pack",
	"pack": "Test Pack",
	"version": "1.2.0",
	"minecraftVersion": "1.7.10",
	"java": {"min": "1.7", "max": "1.8"},
	"memory": "2048",
	"permgen": 256,
	"librariesNeeded": "forge-1.7.10.jar,launchwrapper-1.12.jar,net/old/style.jar",
	"minecraftArguments": "--username ${auth_player_name} --tweakClass cpw.mods.fml.common.launcher.FMLTweaker",
	"mainClass": "net.minecraft.launchwrapper.Launch",
	"isConverted": false,
	"dataVersion": 0,
	"mods": [
		{"name": "Forge", "file": "forge-universal.jar", "type": "forge", "optional": false},
		{"name": "Old Jar Mod", "file": "oldjarmod.zip", "type": "jar", "optional": true},
		{"name": "Some Mod", "file": "somemod.jar", "type": "mods", "optional": true, "disabled": true}
	],
	"ignoredUpdates": ["1.2.1"]
}`

func writeLegacy(t *testing.T, content string) string {
	instancesDir, err := core.GetInstancesDir()
	require.NoError(t, err)
	dir := filepath.Join(instancesDir, "TestPack")
	require.NoError(t, os.MkdirAll(dir, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, FileName), []byte(content), 0644))
	return dir
}

func TestMigrateLegacyInstance(t *testing.T) {
	useDataDir(t)
	librariesDir, err := core.GetLibrariesDir()
	require.NoError(t, err)
	require.NoError(t, os.MkdirAll(librariesDir, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(librariesDir, "forge-1.7.10.jar"), []byte("forge"), 0644))

	dir := writeLegacy(t, legacyInstanceJson)
	_, err = Load(dir)
	require.ErrorIs(t, err, ErrLegacyFormat)

	inst, err := LoadOrMigrate(context.Background(), dir, legacyResolver())
	require.NoError(t, err)

	assert.Equal(t, CurrentDataVersion, inst.DataVersion)
	assert.Equal(t, "Test Pack", inst.Name())
	assert.Equal(t, "1.7.10", inst.Launcher.Minecraft)
	assert.Equal(t, 2048, inst.Launcher.RequiredMemory)
	assert.Equal(t, 256, inst.Launcher.RequiredPermGen)
	assert.Equal(t, ">= 7, <= 8", inst.Launcher.Java)
	assert.Equal(t, []string{"1.2.1"}, inst.Launcher.IgnoredUpdates)
	assert.Equal(t, "net.minecraft.launchwrapper.Launch", inst.MainClass)

	// The pack's arguments moved to extra arguments, which hold the whole template for old versions
	assert.Equal(t, []string{"--username", "${auth_player_name}", "--tweakClass", "cpw.mods.fml.common.launcher.FMLTweaker"}, inst.Arguments.Game)

	// No mod was selected, so they all were
	for _, m := range inst.Launcher.Mods {
		assert.True(t, m.WasSelected, m.Name)
	}
	assert.Equal(t, []string{"forge-universal.jar", "oldjarmod.zip"}, inst.Launcher.JarOrder)

	require.Len(t, inst.Libraries, 3)
	forge := inst.Libraries[0]
	assert.Equal(t, "forge-1.7.10.jar", forge.Name)
	assert.Equal(t, "forge-1.7.10.jar", forge.Downloads.Artifact.Path)
	assert.Equal(t, sha1Of(t, "forge"), forge.Downloads.Artifact.SHA1)
	assert.Equal(t, int64(5), forge.Downloads.Artifact.Size)
	assert.Equal(t, "launchwrapper-1.12.jar", inst.Libraries[1].Name)
	assert.Empty(t, inst.Libraries[1].Downloads.Artifact.SHA1)
	assert.Equal(t, "com.mojang:realms:1.3.5", inst.Libraries[2].Name)

	// Persisted in the new format
	reloaded, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, inst.Launcher.Mods, reloaded.Launcher.Mods)
	assert.Equal(t, inst.Arguments, reloaded.Arguments)
}

func sha1Of(t *testing.T, content string) string {
	p := filepath.Join(t.TempDir(), "f")
	require.NoError(t, os.WriteFile(p, []byte(content), 0644))
	h, err := core.HashFile(p, "sha1")
	require.NoError(t, err)
	return h
}

func TestMigrateKeepsSelectionsAndAppendsExtraArguments(t *testing.T) {
	useDataDir(t)
	dir := writeLegacy(t, `{
		"name": "Modern",
		"minecraftVersion": "1.16.5",
		"isConverted": true,
		"dataVersion": 2,
		"extraArguments": "--fullscreen",
		"libraries": ["kept.jar"],
		"librariesNeeded": "ignored.jar",
		"mods": [
			{"name": "A", "file": "a.jar", "type": "mods", "optional": true, "wasSelected": true},
			{"name": "B", "file": "b.jar", "type": "mods", "optional": true, "wasSelected": false}
		]
	}`)

	inst, err := Migrate(context.Background(), dir, legacyResolver())
	require.NoError(t, err)

	assert.Equal(t, []string{"--username", "${auth_player_name}", "--fullscreen"}, inst.Arguments.Game)
	assert.Equal(t, "1.16", inst.AssetIndex.ID)
	assert.Equal(t, "Modern", inst.Launcher.Pack)
	assert.True(t, inst.Launcher.Mods[0].WasSelected)
	assert.False(t, inst.Launcher.Mods[1].WasSelected)
	// At data version 2 the libraries list is already authoritative
	require.Len(t, inst.Libraries, 1)
	assert.Equal(t, "kept.jar", inst.Libraries[0].Name)
}

func TestMigrateFailureLeavesFileUntouched(t *testing.T) {
	useDataDir(t)
	content := `{"name": "Broken", "minecraftVersion": "0.0.1", "dataVersion": 0}`
	dir := writeLegacy(t, content)

	_, err := Migrate(context.Background(), dir, legacyResolver())
	require.Error(t, err)

	data, err := os.ReadFile(filepath.Join(dir, FileName))
	require.NoError(t, err)
	assert.Equal(t, content, string(data))
}

func TestMigrateIsIdempotent(t *testing.T) {
	useDataDir(t)
	dir := writeLegacy(t, legacyInstanceJson)
	resolver := legacyResolver()

	first, err := Migrate(context.Background(), dir, resolver)
	require.NoError(t, err)
	second, err := Migrate(context.Background(), dir, resolver)
	require.NoError(t, err)

	assert.Equal(t, 1, resolver.calls)
	assert.Equal(t, first.Launcher.Mods, second.Launcher.Mods)
	assert.Equal(t, first.Libraries, second.Libraries)
}

func TestConvertSteps(t *testing.T) {
	l := &legacyInstance{
		MinecraftArguments: "--a b",
		LibrariesNeeded:    "x.jar,y.jar",
		Mods:               []DisableableMod{{Name: "A"}, {Name: "B", UserAdded: true, WasSelected: true}},
	}
	l.convert()
	assert.True(t, l.IsConverted)
	assert.Equal(t, "--a b", l.ExtraArguments)
	assert.Empty(t, l.MinecraftArguments)
	assert.Equal(t, 2, l.DataVersion)
	assert.Equal(t, []string{"x.jar", "y.jar"}, l.Libraries)
	// A user added mod being selected doesn't count as a pack selection
	assert.True(t, l.Mods[0].WasSelected)

	// Running again changes nothing
	before := *l
	l.convert()
	assert.Equal(t, before, *l)
}

func TestNeedsMigration(t *testing.T) {
	useDataDir(t)
	dir := writeLegacy(t, legacyInstanceJson)
	needs, err := NeedsMigration(dir)
	require.NoError(t, err)
	assert.True(t, needs)

	_, err = Migrate(context.Background(), dir, legacyResolver())
	require.NoError(t, err)
	needs, err = NeedsMigration(dir)
	require.NoError(t, err)
	assert.False(t, needs)

	_, err = NeedsMigration(t.TempDir())
	assert.ErrorIs(t, err, ErrNotFound)
}
