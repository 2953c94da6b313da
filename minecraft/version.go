package minecraft

import (
	"encoding/json"
	"fmt"
	"runtime"
	"strings"

	"github.com/unascribed/FlexVer/go/flexver"
)

// Version is a Minecraft version JSON
type Version struct {
	ID                 string              `json:"id"`
	Type               string              `json:"type"`
	MainClass          string              `json:"mainClass"`
	MinecraftArguments string              `json:"minecraftArguments,omitempty"`
	Arguments          *Arguments          `json:"arguments,omitempty"`
	Assets             string              `json:"assets"`
	AssetIndex         AssetIndexRef       `json:"assetIndex"`
	Downloads          map[string]Download `json:"downloads"`
	Libraries          []Library           `json:"libraries"`
	JavaVersion        struct {
		Component    string `json:"component"`
		MajorVersion int    `json:"majorVersion"`
	} `json:"javaVersion"`
}

type Download struct {
	Path string `json:"path,omitempty"`
	SHA1 string `json:"sha1"`
	Size int64  `json:"size"`
	URL  string `json:"url"`
}

type AssetIndexRef struct {
	ID        string `json:"id"`
	SHA1      string `json:"sha1"`
	Size      int64  `json:"size"`
	TotalSize int64  `json:"totalSize"`
	URL       string `json:"url"`
}

// Arguments holds the structured argument lists used from 1.13 onwards
type Arguments struct {
	Game []Argument `json:"game"`
	JVM  []Argument `json:"jvm"`
}

// Argument is either a plain string or a set of values guarded by rules
type Argument struct {
	Values []string
	Rules  []Rule
}

func (a *Argument) UnmarshalJSON(data []byte) error {
	var plain string
	if err := json.Unmarshal(data, &plain); err == nil {
		a.Values = []string{plain}
		return nil
	}
	var ruled struct {
		Rules []Rule          `json:"rules"`
		Value json.RawMessage `json:"value"`
	}
	if err := json.Unmarshal(data, &ruled); err != nil {
		return err
	}
	a.Rules = ruled.Rules
	if err := json.Unmarshal(ruled.Value, &plain); err == nil {
		a.Values = []string{plain}
		return nil
	}
	return json.Unmarshal(ruled.Value, &a.Values)
}

func (a Argument) MarshalJSON() ([]byte, error) {
	if len(a.Rules) == 0 && len(a.Values) == 1 {
		return json.Marshal(a.Values[0])
	}
	return json.Marshal(struct {
		Rules []Rule   `json:"rules,omitempty"`
		Value []string `json:"value"`
	}{a.Rules, a.Values})
}

type Rule struct {
	Action   string          `json:"action"`
	OS       *RuleOS         `json:"os,omitempty"`
	Features map[string]bool `json:"features,omitempty"`
}

type RuleOS struct {
	Name    string `json:"name,omitempty"`
	Version string `json:"version,omitempty"`
	Arch    string `json:"arch,omitempty"`
}

// RulesAllow evaluates rules for the current platform. Feature-gated rules (demo mode, custom resolution...)
// never match.
func RulesAllow(rules []Rule) bool {
	if len(rules) == 0 {
		return true
	}
	allowed := false
	for _, r := range rules {
		if len(r.Features) > 0 {
			continue
		}
		if r.OS != nil {
			if r.OS.Name != "" && r.OS.Name != OSName() {
				continue
			}
			if r.OS.Arch != "" && r.OS.Arch != archName() {
				continue
			}
		}
		allowed = r.Action == "allow"
	}
	return allowed
}

// OSName is the platform name used in version JSON rules
func OSName() string {
	switch runtime.GOOS {
	case "darwin":
		return "osx"
	case "windows":
		return "windows"
	default:
		return "linux"
	}
}

func archName() string {
	if runtime.GOARCH == "386" {
		return "x86"
	}
	return runtime.GOARCH
}

func archBits() string {
	if runtime.GOARCH == "386" || runtime.GOARCH == "arm" {
		return "32"
	}
	return "64"
}

// Applicable returns the argument values that apply to this platform
func (a Argument) Applicable() []string {
	if RulesAllow(a.Rules) {
		return a.Values
	}
	return nil
}

// GameArguments returns the game argument template, from either format
func (v *Version) GameArguments() []string {
	if v.Arguments != nil {
		var out []string
		for _, a := range v.Arguments.Game {
			out = append(out, a.Applicable()...)
		}
		return out
	}
	return strings.Fields(v.MinecraftArguments)
}

// JVMArguments returns the JVM argument template; versions before 1.13 have none
func (v *Version) JVMArguments() []string {
	if v.Arguments == nil {
		return nil
	}
	var out []string
	for _, a := range v.Arguments.JVM {
		out = append(out, a.Applicable()...)
	}
	return out
}

// AssetIndexID returns the asset index name, which old versions only give through "assets"
func (v *Version) AssetIndexID() string {
	if v.AssetIndex.ID != "" {
		return v.AssetIndex.ID
	}
	if v.Assets != "" {
		return v.Assets
	}
	return "legacy"
}

// UsesCoreMods reports whether Forge for this Minecraft version loads core mods from a separate folder,
// which stopped with 1.6
func UsesCoreMods(version string) bool {
	if version == "" {
		return false
	}
	return flexver.Compare(version, "1.6") < 0
}

// MavenPath converts group:artifact:version[:classifier][@ext] into a repository path
func MavenPath(coordinate string) (string, error) {
	ext := "jar"
	if idx := strings.LastIndex(coordinate, "@"); idx >= 0 {
		ext = coordinate[idx+1:]
		coordinate = coordinate[:idx]
	}
	parts := strings.Split(coordinate, ":")
	if len(parts) < 3 || len(parts) > 4 {
		return "", fmt.Errorf("invalid library name %s", coordinate)
	}
	group, artifact, version := strings.ReplaceAll(parts[0], ".", "/"), parts[1], parts[2]
	file := artifact + "-" + version
	if len(parts) == 4 {
		file += "-" + parts[3]
	}
	return group + "/" + artifact + "/" + version + "/" + file + "." + ext, nil
}
