package launch

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"regexp"
	"runtime"
	"strconv"
	"strings"

	"github.com/Masterminds/semver/v3"
	"github.com/spf13/viper"
)

// ErrJavaIncompatible is returned when the Java runtime doesn't satisfy the pack's requirement
var ErrJavaIncompatible = errors.New("java version does not meet the pack's requirement")

var (
	javaVersionPattern = regexp.MustCompile(`(java|openjdk) version "([^"]*)"`)
	javaMajorPattern   = regexp.MustCompile(`^(?:1\.)?([0-9]+)`)
	javaPartsPattern   = regexp.MustCompile(`[0-9]+`)
	java64BitPattern   = regexp.MustCompile(`64-Bit`)
)

// Java describes a Java runtime
type Java struct {
	Path    string
	Version string
	Major   int
	Is64Bit bool
}

// JavaExecutable returns the java binary to launch with: the instance override, then the java.path config key,
// then JAVA_HOME, then whatever is on the PATH
func JavaExecutable(override string) string {
	if override != "" {
		return override
	}
	if p := viper.GetString("java.path"); p != "" {
		return p
	}
	name := "java"
	if runtime.GOOS == "windows" {
		name = "javaw.exe"
	}
	if home := os.Getenv("JAVA_HOME"); home != "" {
		return filepath.Join(home, "bin", name)
	}
	return name
}

// DetectJava runs java -version and parses what it prints
func DetectJava(ctx context.Context, path string) (Java, error) {
	// javaw has no console, so ask java next to it
	probe := path
	if strings.HasSuffix(strings.ToLower(probe), "javaw.exe") {
		probe = probe[:len(probe)-len("javaw.exe")] + "java.exe"
	}
	out, err := exec.CommandContext(ctx, probe, "-version").CombinedOutput()
	if err != nil {
		return Java{}, fmt.Errorf("failed to run %s -version: %w", probe, err)
	}
	j, err := ParseJavaVersion(string(out))
	if err != nil {
		return Java{}, err
	}
	j.Path = path
	return j, nil
}

// ParseJavaVersion reads the output of java -version
func ParseJavaVersion(output string) (Java, error) {
	m := javaVersionPattern.FindStringSubmatch(output)
	if m == nil {
		return Java{}, fmt.Errorf("unrecognised java -version output: %q", strings.TrimSpace(output))
	}
	j := Java{Version: m[2], Is64Bit: java64BitPattern.MatchString(output)}
	major := javaMajorPattern.FindStringSubmatch(j.Version)
	if major == nil {
		return Java{}, fmt.Errorf("unrecognised java version %s", j.Version)
	}
	j.Major, _ = strconv.Atoi(major[1])
	return j, nil
}

// Semver converts the Java version to semantic versioning with the major version first, so 1.8.0_292 is 8.0.292
func (j Java) Semver() (*semver.Version, error) {
	v := j.Version
	if strings.HasPrefix(v, "1.") {
		v = v[2:]
	}
	parts := javaPartsPattern.FindAllString(v, 3)
	for len(parts) < 3 {
		parts = append(parts, "0")
	}
	return semver.NewVersion(strings.Join(parts, "."))
}

// CheckJava tests the runtime against a constraint such as ">= 8, <= 17"; an empty constraint always passes
func CheckJava(j Java, constraint string) error {
	if constraint == "" {
		return nil
	}
	c, err := semver.NewConstraint(constraint)
	if err != nil {
		return fmt.Errorf("invalid java requirement %q: %w", constraint, err)
	}
	v, err := j.Semver()
	if err != nil {
		return fmt.Errorf("failed to parse java version %s: %w", j.Version, err)
	}
	if !c.Check(v) {
		return fmt.Errorf("%w: have %s, need %s", ErrJavaIncompatible, j.Version, constraint)
	}
	return nil
}
