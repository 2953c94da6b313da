package launch

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/packlaunch/packlaunch/account"
	"github.com/packlaunch/packlaunch/core"
	"github.com/packlaunch/packlaunch/instance"
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

func TestParseJavaVersion(t *testing.T) {
	cases := []struct {
		output string
		major  int
		semver string
	}{
		{"java version \"1.8.0_292\"\nJava(TM) SE Runtime Environment (build 1.8.0_292-b10)\nJava HotSpot(TM) 64-Bit Server VM", 8, "8.0.292"},
		{"openjdk version \"17.0.2\" 2022-01-18\nOpenJDK 64-Bit Server VM", 17, "17.0.2"},
		{"openjdk version \"21\" 2023-09-19", 21, "21.0.0"},
		{"java version \"1.7.0_80\"", 7, "7.0.80"},
	}
	for _, c := range cases {
		j, err := ParseJavaVersion(c.output)
		require.NoError(t, err)
		assert.Equal(t, c.major, j.Major)
		v, err := j.Semver()
		require.NoError(t, err)
		assert.Equal(t, c.semver, v.String())
	}

	j, _ := ParseJavaVersion(cases[1].output)
	assert.True(t, j.Is64Bit)

	_, err := ParseJavaVersion("bash: java: command not found")
	assert.Error(t, err)
}

func TestCheckJava(t *testing.T) {
	java8, err := ParseJavaVersion(`java version "1.8.0_292"`)
	require.NoError(t, err)
	java17, err := ParseJavaVersion(`openjdk version "17.0.2"`)
	require.NoError(t, err)

	assert.NoError(t, CheckJava(java8, ""))
	assert.NoError(t, CheckJava(java8, ">= 7, <= 8"))
	assert.ErrorIs(t, CheckJava(java17, ">= 7, <= 8"), ErrJavaIncompatible)
	assert.NoError(t, CheckJava(java17, ">= 16"))
	assert.Error(t, CheckJava(java17, "not a constraint"))
}

func TestClampMemory(t *testing.T) {
	assert.Equal(t, 4096, clampMemory(2048, 4096, 16384))
	// More than half the host's memory is never forced
	assert.Equal(t, 2048, clampMemory(2048, 6144, 8192))
	assert.Equal(t, 3072, clampMemory(3072, 2048, 8192))
	assert.Equal(t, 4096, clampMemory(2048, 4096, 0))
}

func TestMemoryFlags(t *testing.T) {
	inst := &instance.Instance{}
	inst.Launcher.MaximumMemory = 1024
	inst.Launcher.InitialMemory = 2048
	inst.Launcher.RequiredMemory = 3072
	inst.Launcher.RequiredPermGen = 512

	flags := MemoryFlags(inst, Java{Major: 8}, 16384)
	assert.Equal(t, []string{"-Xms2048M", "-Xmx3072M", "-XX:MetaspaceSize=512M"}, flags)

	flags = MemoryFlags(inst, Java{Major: 7}, 4096)
	assert.Equal(t, []string{"-Xms1024M", "-Xmx1024M", "-XX:PermSize=512M"}, flags)
}

func testInstance(t *testing.T) *instance.Instance {
	useDataDir(t)
	inst, err := instance.New("Arg Test")
	require.NoError(t, err)
	inst.ID = "1.7.10"
	inst.MainClass = "net.minecraft.launchwrapper.Launch"
	inst.AssetIndex.ID = "1.7.10"
	inst.Launcher.Minecraft = "1.7.10"
	inst.Arguments.Game = []string{"--username", "${auth_player_name}", "--uuid", "${auth_uuid}",
		"--accessToken", "${auth_access_token}", "--assetsDir", "${assets_root}", "--userProperties", "${user_properties}"}
	inst.Libraries = []minecraft.Library{
		{Name: "net.minecraft:launchwrapper:1.12"},
		{Name: "org.example:nowhere:1.0", Rules: []minecraft.Rule{{Action: "allow", OS: &minecraft.RuleOS{Name: "nowhere"}}}},
	}
	inst.Launcher.Mods = []instance.DisableableMod{
		{Name: "Forge", File: "forge.jar", Type: core.TypeForge},
		{Name: "Jar Mod", File: "jarmod.zip", Type: core.TypeJar},
	}
	inst.Launcher.JarOrder = []string{"forge.jar", "jarmod.zip", "missing.zip"}
	for _, f := range []string{"forge.jar", "jarmod.zip"} {
		require.NoError(t, os.MkdirAll(inst.JarModsDir(), 0755))
		require.NoError(t, os.WriteFile(filepath.Join(inst.JarModsDir(), f), []byte("x"), 0644))
	}
	return inst
}

func TestArguments(t *testing.T) {
	inst := testInstance(t)
	acc := &account.Account{Username: "Steve", UUID: account.OfflineUUID("Steve")}
	opts := Options{Account: acc, Java: Java{Major: 8}, LibrariesDir: "/libs", AssetsDir: "/assets"}

	args := Arguments(inst, opts)

	sep := string(os.PathListSeparator)
	cp := strings.Join([]string{
		filepath.Join(inst.JarModsDir(), "forge.jar"),
		filepath.Join(inst.JarModsDir(), "jarmod.zip"),
		filepath.Join("/libs", "net/minecraft/launchwrapper/1.12/launchwrapper-1.12.jar"),
		inst.MinecraftJar(),
	}, sep)

	assert.Equal(t, "-XX:-OmitStackTraceInFastThrow", args[0])
	assert.Contains(t, args, "-Dfml.ignorePatchDiscrepancies=true")
	assert.Contains(t, args, "-Djava.library.path="+inst.NativesDir())

	cpIdx := indexOf(args, "-cp")
	require.NotEqual(t, -1, cpIdx)
	assert.Equal(t, cp, args[cpIdx+1])
	assert.Equal(t, "net.minecraft.launchwrapper.Launch", args[cpIdx+2])

	game := args[cpIdx+3:]
	id := strings.ReplaceAll(acc.UUID.String(), "-", "")
	assert.Equal(t, []string{"--username", "Steve", "--uuid", id, "--accessToken", "0", "--assetsDir", "/assets",
		"--userProperties", "{}", "--width", "854", "--height", "480"}, game)

	redacted := Redact(args, acc)
	joined := strings.Join(redacted, " ")
	assert.NotContains(t, joined, "Steve")
	assert.NotContains(t, joined, id)
	assert.Equal(t, "REDACTED", redacted[indexOf(redacted, "--accessToken")+1])
}

func TestArgumentsUseJvmTemplate(t *testing.T) {
	inst := testInstance(t)
	inst.Launcher.JarOrder = nil
	inst.Arguments.JVM = []string{"-Djava.library.path=${natives_directory}", "-Dminecraft.launcher.brand=${launcher_name}", "-cp", "${classpath}"}
	inst.Arguments.Game = []string{"--width", "${resolution_width}"}
	viper.Set("window.width", 1280)
	t.Cleanup(func() { viper.Set("window.width", 0) })

	args := Arguments(inst, Options{Account: &account.Account{Username: "Alex"}, Java: Java{Major: 17}})
	assert.Contains(t, args, "-Dminecraft.launcher.brand=packlaunch")
	assert.NotContains(t, args, "-Dfml.ignorePatchDiscrepancies=true")
	assert.Equal(t, []string{"--width", "1280"}, args[len(args)-2:])
}

func TestEnvironmentDropsJavaOptions(t *testing.T) {
	t.Setenv("_JAVA_OPTIONS", "-Xmx128M")
	for _, kv := range environment() {
		assert.False(t, strings.HasPrefix(kv, "_JAVA_OPTIONS="))
	}
}

func TestRunRecordsPlayTime(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("uses a shell script in place of java")
	}
	inst := testInstance(t)
	require.NoError(t, os.MkdirAll(inst.BinDir(), 0755))
	require.NoError(t, os.WriteFile(inst.MinecraftJar(), []byte("jar"), 0644))
	require.NoError(t, inst.Save())

	fakeJava := filepath.Join(t.TempDir(), "java")
	require.NoError(t, os.WriteFile(fakeJava, []byte("#!/bin/sh\necho started\nexit 3\n"), 0755))

	acc := &account.Account{Username: "Steve", UUID: account.OfflineUUID("Steve")}
	result, err := Run(context.Background(), inst, Options{Account: acc, Java: Java{Path: fakeJava, Major: 8}})
	require.NoError(t, err)
	assert.Equal(t, 3, result.ExitCode)

	reloaded, err := instance.Load(inst.Root())
	require.NoError(t, err)
	assert.Equal(t, 1, reloaded.Launcher.NumPlays)
	assert.False(t, reloaded.Launcher.LastPlayed.IsZero())
}

func TestCommandNeedsInstalledJar(t *testing.T) {
	inst := testInstance(t)
	_, err := Command(context.Background(), inst, Options{Account: &account.Account{Username: "Steve"}})
	assert.Error(t, err)
}

func indexOf(list []string, s string) int {
	for i, v := range list {
		if v == s {
			return i
		}
	}
	return -1
}

func TestRedactOnlyWholeNames(t *testing.T) {
	acc := &account.Account{Username: "Bob", UUID: account.OfflineUUID("Bob")}
	id := strings.ReplaceAll(acc.UUID.String(), "-", "")
	args := []string{"-Djava.library.path=/home/Bobcat/natives", "Bob", "--uuid", id, "--session", "token:0:" + id,
		"--gameDir", "/games/Bob"}

	assert.Equal(t, []string{"-Djava.library.path=/home/Bobcat/natives", "REDACTED", "--uuid", "REDACTED",
		"--session", "REDACTED", "--gameDir", "/games/Bob"}, Redact(args, acc))

	redact := lineRedactor(acc)
	assert.Equal(t, "REDACTED joined the game, Bobcat spawned", redact("Bob joined the game, Bobcat spawned"))
	assert.Equal(t, "Setting user: REDACTED (REDACTED)", redact("Setting user: Bob ("+acc.UUID.String()+")"))
}

func TestForwardOutputDrainsLongLines(t *testing.T) {
	long := strings.Repeat("x", 2*1024*1024)
	r := strings.NewReader("first\n" + long + "\nafter\n")
	forwardOutput(r, "stdout", nil)
	assert.Zero(t, r.Len())
}
