package launch

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"github.com/packlaunch/packlaunch/account"
	"github.com/packlaunch/packlaunch/core"
	"github.com/packlaunch/packlaunch/instance"
	"github.com/spf13/viper"
)

// LauncherName and LauncherVersion fill ${launcher_name} and ${launcher_version}
var (
	LauncherName    = "packlaunch"
	LauncherVersion = "dev"
)

// Options holds what a launch needs besides the instance
type Options struct {
	Account      *account.Account
	Java         Java
	LibrariesDir string
	AssetsDir    string
	// HostMemory is the total RAM in MB; zero skips the memory clamp
	HostMemory uint64
}

// Classpath lists jar mods in jar order, then libraries, then the game jar
func Classpath(inst *instance.Instance, librariesDir string) []string {
	var cp []string
	for _, name := range inst.Launcher.JarOrder {
		p := filepath.Join(inst.JarModsDir(), name)
		if core.FileExists(p) {
			cp = append(cp, p)
		}
	}
	for _, lib := range inst.Libraries {
		if !lib.Applies() {
			continue
		}
		artifact, ok := lib.Artifact()
		if !ok {
			continue
		}
		cp = append(cp, filepath.Join(librariesDir, filepath.FromSlash(artifact.Path)))
	}
	return append(cp, inst.MinecraftJar())
}

// hasCustomJarMods reports whether the classpath carries jar mods other than Forge itself
func hasCustomJarMods(inst *instance.Instance) bool {
	for _, name := range inst.Launcher.JarOrder {
		for _, m := range inst.Launcher.Mods {
			if m.File == name && m.Type == core.TypeJar && !m.Disabled {
				return true
			}
		}
	}
	return false
}

// MemoryFlags gives the -Xms, -Xmx and permgen flags for an instance
func MemoryFlags(inst *instance.Instance, java Java, hostMemory uint64) []string {
	initial := firstPositive(inst.Launcher.InitialMemory, viper.GetInt("memory.initial"), 512)
	maximum := firstPositive(inst.Launcher.MaximumMemory, viper.GetInt("memory.maximum"), 2048)
	permGen := firstPositive(inst.Launcher.PermGen, viper.GetInt("memory.permgen"), 256)

	maximum = clampMemory(maximum, inst.Launcher.RequiredMemory, hostMemory)
	if inst.Launcher.RequiredPermGen > permGen {
		permGen = inst.Launcher.RequiredPermGen
	}
	if initial > maximum {
		initial = maximum
	}

	flags := []string{"-Xms" + strconv.Itoa(initial) + "M", "-Xmx" + strconv.Itoa(maximum) + "M"}
	if java.Major >= 8 {
		flags = append(flags, "-XX:MetaspaceSize="+strconv.Itoa(permGen)+"M")
	} else {
		flags = append(flags, "-XX:PermSize="+strconv.Itoa(permGen)+"M")
	}
	return flags
}

// clampMemory raises the configured maximum to what the pack needs, but only while that stays within half of the
// host's memory
func clampMemory(configured int, required int, hostMemory uint64) int {
	if required <= configured {
		return configured
	}
	if hostMemory == 0 || uint64(required) <= hostMemory/2 {
		return required
	}
	return configured
}

func firstPositive(values ...int) int {
	for _, v := range values {
		if v > 0 {
			return v
		}
	}
	return 0
}

// gameAssetsDir is where ${game_assets} points: the instance resources for very old versions, the virtual
// folder for pre 1.7.3 indexes, otherwise the shared assets folder
func gameAssetsDir(inst *instance.Instance, assetsDir string) string {
	if inst.Launcher.MapToResources {
		return inst.ResourcesDir()
	}
	id := inst.AssetIndex.ID
	if id == "legacy" || id == "pre-1.6" {
		return filepath.Join(assetsDir, "virtual", id)
	}
	return assetsDir
}

// substitutions builds the ${...} replacements for the game and JVM argument templates
func substitutions(inst *instance.Instance, opts Options, cp []string) map[string]string {
	acc := opts.Account
	id := strings.ReplaceAll(acc.UUID.String(), "-", "")
	width, height := windowSize()
	return map[string]string{
		"auth_player_name":    acc.Username,
		"profile_name":        inst.Name(),
		"version_name":        inst.ID,
		"version_type":        LauncherName,
		"game_directory":      inst.Root(),
		"game_assets":         gameAssetsDir(inst, opts.AssetsDir),
		"assets_root":         opts.AssetsDir,
		"assets_index_name":   inst.AssetIndex.ID,
		"auth_uuid":           id,
		"auth_access_token":   acc.AccessToken(),
		"auth_session":        fmt.Sprintf("token:%s:%s", acc.AccessToken(), id),
		"auth_xuid":           "0",
		"clientid":            "0",
		"user_type":           acc.UserType(),
		"user_properties":     "{}",
		"resolution_width":    strconv.Itoa(width),
		"resolution_height":   strconv.Itoa(height),
		"natives_directory":   inst.NativesDir(),
		"launcher_name":       LauncherName,
		"launcher_version":    LauncherVersion,
		"library_directory":   opts.LibrariesDir,
		"classpath_separator": string(os.PathListSeparator),
		"classpath":           strings.Join(cp, string(os.PathListSeparator)),
	}
}

func substitute(args []string, vars map[string]string) []string {
	out := make([]string, 0, len(args))
	for _, a := range args {
		for k, v := range vars {
			if strings.Contains(a, "${") {
				a = strings.ReplaceAll(a, "${"+k+"}", v)
			}
		}
		out = append(out, a)
	}
	return out
}

func windowSize() (int, int) {
	return firstPositive(viper.GetInt("window.width"), 854), firstPositive(viper.GetInt("window.height"), 480)
}

// Arguments builds the full argument list passed to java for a client instance
func Arguments(inst *instance.Instance, opts Options) []string {
	cp := Classpath(inst, opts.LibrariesDir)
	vars := substitutions(inst, opts, cp)

	args := []string{"-XX:-OmitStackTraceInFastThrow"}
	args = append(args, MemoryFlags(inst, opts.Java, opts.HostMemory)...)
	args = append(args, "-Duser.language=en", "-Duser.country=US")
	if hasCustomJarMods(inst) {
		args = append(args, "-Dfml.ignorePatchDiscrepancies=true", "-Dfml.ignoreInvalidMinecraftCertificates=true")
	}
	javaArgs := inst.Launcher.JavaArguments
	if javaArgs == "" {
		javaArgs = viper.GetString("java.arguments")
	}
	args = append(args, strings.Fields(javaArgs)...)

	if len(inst.Arguments.JVM) > 0 {
		args = append(args, substitute(inst.Arguments.JVM, vars)...)
	} else {
		args = append(args, "-Djava.library.path="+inst.NativesDir(), "-cp", vars["classpath"])
	}
	args = append(args, inst.MainClass)

	game := inst.Arguments.Game
	if len(game) == 0 {
		game = legacyGameArguments
	}
	args = append(args, substitute(game, vars)...)
	if !strings.Contains(strings.Join(game, " "), "${resolution_width}") {
		args = append(args, "--width", vars["resolution_width"], "--height", vars["resolution_height"])
	}
	return args
}

// ServerArguments builds the argument list for running a server instance's jar
func ServerArguments(inst *instance.Instance, opts Options) []string {
	args := MemoryFlags(inst, opts.Java, opts.HostMemory)
	javaArgs := inst.Launcher.JavaArguments
	if javaArgs == "" {
		javaArgs = viper.GetString("java.arguments")
	}
	args = append(args, strings.Fields(javaArgs)...)
	return append(args, "-jar", inst.MinecraftJar(), "nogui")
}

// Used for instances whose version JSON carried no argument template at all
var legacyGameArguments = []string{
	"--username", "${auth_player_name}",
	"--session", "${auth_session}",
	"--version", "${version_name}",
	"--gameDir", "${game_directory}",
	"--assetsDir", "${game_assets}",
}

const redacted = "REDACTED"

// Arguments whose value is an account detail
var accountFlags = map[string]bool{
	"--username":    true,
	"--uuid":        true,
	"--accessToken": true,
	"--session":     true,
}

// Redact hides the account's name, UUID and token in args before they're logged, unless debug logging is on. The
// name is only hidden where it makes up a whole argument, so paths and other names containing it survive.
func Redact(args []string, acc *account.Account) []string {
	if core.Debugging() || acc == nil {
		return args
	}
	out := make([]string, len(args))
	for i, a := range args {
		if a == acc.Username || (i > 0 && accountFlags[args[i-1]]) {
			out[i] = redacted
			continue
		}
		out[i] = redactIDs(a, acc)
	}
	return out
}

// lineRedactor returns a func hiding the account's details in lines of game output. The name is only replaced where
// it stands as a whole word.
func lineRedactor(acc *account.Account) func(string) string {
	if core.Debugging() || acc == nil {
		return func(line string) string { return line }
	}
	if acc.Username == "" {
		return func(line string) string { return redactIDs(line, acc) }
	}
	name := regexp.MustCompile(`\b` + regexp.QuoteMeta(acc.Username) + `\b`)
	return func(line string) string {
		return name.ReplaceAllLiteralString(redactIDs(line, acc), redacted)
	}
}

func redactIDs(s string, acc *account.Account) string {
	id := acc.UUID.String()
	s = strings.ReplaceAll(s, id, redacted)
	return strings.ReplaceAll(s, strings.ReplaceAll(id, "-", ""), redacted)
}
