package core

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"strings"

	"github.com/BurntSushi/toml"
)

// PackVersion is a single version of a modpack, usually read from pack.toml
type PackVersion struct {
	Name    string `toml:"name"`
	Version string `toml:"version"`
	// Minecraft is the Minecraft version id the pack is built on
	Minecraft string `toml:"minecraft"`
	// Java is a version constraint on the JVM, such as ">= 8, < 9"
	Java           string `toml:"java,omitempty"`
	Memory         int    `toml:"memory,omitempty"`
	PermGen        int    `toml:"permgen,omitempty"`
	MainClass      string `toml:"main-class,omitempty"`
	ExtraArguments string `toml:"extra-arguments,omitempty"`

	Libraries []PackLibrary `toml:"libraries,omitempty"`
	Mods      []Mod         `toml:"mods"`
	Actions   []Action      `toml:"actions,omitempty"`
	// Deletes lists instance relative paths removed when updating to this version
	Deletes []string `toml:"deletes,omitempty"`

	Messages struct {
		Install string `toml:"install,omitempty"`
		Update  string `toml:"update,omitempty"`
	} `toml:"messages,omitempty"`
	Warnings map[string]string `toml:"warnings,omitempty"`
	Colours  map[string]string `toml:"colours,omitempty"`
}

// PackLibrary is an extra jar a pack puts on the class path
type PackLibrary struct {
	File     string       `toml:"file"`
	URL      string       `toml:"url"`
	Hash     string       `toml:"hash,omitempty"`
	Size     int64        `toml:"size,omitempty"`
	Download DownloadType `toml:"download,omitempty"`
	// Server is where the library goes, relative to the root, when installing a server
	Server string `toml:"server,omitempty"`
}

// LoadPackVersion reads a pack version from a local path or an http(s) URL
func LoadPackVersion(ctx context.Context, source string) (*PackVersion, error) {
	if strings.HasPrefix(source, "http://") || strings.HasPrefix(source, "https://") {
		resp, err := GetWithUAContext(ctx, source, "application/toml")
		if err != nil {
			return nil, fmt.Errorf("failed to download pack %s: %w", source, err)
		}
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			return nil, fmt.Errorf("failed to download pack %s: invalid response status: %v", source, resp.Status)
		}
		var pack PackVersion
		if _, err := toml.NewDecoder(resp.Body).Decode(&pack); err != nil {
			return nil, fmt.Errorf("failed to parse pack %s: %w", source, err)
		}
		return &pack, pack.Validate()
	}
	data, err := os.ReadFile(source)
	if err != nil {
		return nil, err
	}
	var pack PackVersion
	if _, err := toml.Decode(string(data), &pack); err != nil {
		return nil, fmt.Errorf("failed to parse pack %s: %w", source, err)
	}
	return &pack, pack.Validate()
}

// Write saves the pack version as TOML
func (p *PackVersion) Write(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	enc := toml.NewEncoder(f)
	// Disable indentation
	enc.Indent = ""
	return enc.Encode(p)
}

// Validate checks the pack for problems that would only show up halfway through an install
func (p *PackVersion) Validate() error {
	if p.Name == "" {
		return fmt.Errorf("pack has no name")
	}
	if p.Minecraft == "" {
		return fmt.Errorf("pack %s does not specify a Minecraft version", p.Name)
	}
	seen := make(map[string]bool, len(p.Mods))
	for i := range p.Mods {
		m := &p.Mods[i]
		if err := m.Validate(); err != nil {
			return err
		}
		if seen[m.Name] {
			return fmt.Errorf("pack %s declares mod %s more than once", p.Name, m.Name)
		}
		seen[m.Name] = true
	}
	for i := range p.Mods {
		m := &p.Mods[i]
		for _, dep := range m.Depends {
			if !seen[dep] {
				return fmt.Errorf("mod %s depends on unknown mod %s", m.Name, dep)
			}
		}
		if m.Linked != "" && !seen[m.Linked] {
			return fmt.Errorf("mod %s is linked to unknown mod %s", m.Name, m.Linked)
		}
	}
	for i := range p.Actions {
		a := &p.Actions[i]
		if err := a.Validate(); err != nil {
			return err
		}
		for _, name := range a.Mods {
			if !seen[name] {
				return fmt.Errorf("%s action %s refers to unknown mod %s", a.Action, a.SaveAs, name)
			}
		}
	}
	return nil
}

// FindMod returns the mod with the given name, or nil
func (p *PackVersion) FindMod(name string) *Mod {
	for i := range p.Mods {
		if p.Mods[i].Name == name {
			return &p.Mods[i]
		}
	}
	return nil
}

// OptionalMods returns the optional, non-hidden mods for a side, which the user can choose from
func (p *PackVersion) OptionalMods(server bool) []*Mod {
	var out []*Mod
	for i := range p.Mods {
		m := &p.Mods[i]
		if m.Optional && !m.Hidden && m.Linked == "" && m.IsForSide(server) {
			out = append(out, m)
		}
	}
	return out
}

// ResolveSelection returns the mods to install for a side given the names of the optional mods the user
// chose. Required mods are always included, dependencies are pulled in, linked mods follow the mod they
// are linked to, and at most one mod per group may be chosen.
func (p *PackVersion) ResolveSelection(chosen []string, server bool) ([]*Mod, error) {
	selected := make(map[string]bool)
	for _, name := range chosen {
		m := p.FindMod(name)
		if m == nil {
			return nil, fmt.Errorf("pack %s has no mod named %s", p.Name, name)
		}
		selected[name] = true
	}

	var visit func(m *Mod)
	visit = func(m *Mod) {
		for _, dep := range m.Depends {
			if selected[dep] {
				continue
			}
			selected[dep] = true
			if d := p.FindMod(dep); d != nil {
				visit(d)
			}
		}
	}
	for i := range p.Mods {
		m := &p.Mods[i]
		if !m.Optional {
			selected[m.Name] = true
		}
	}
	for i := range p.Mods {
		m := &p.Mods[i]
		if selected[m.Name] {
			visit(m)
		}
	}
	// Linked mods follow their parent, possibly through a chain
	for changed := true; changed; {
		changed = false
		for i := range p.Mods {
			m := &p.Mods[i]
			if m.Linked != "" && selected[m.Linked] && !selected[m.Name] {
				selected[m.Name] = true
				changed = true
			}
		}
	}

	groups := make(map[string]string)
	var out []*Mod
	for i := range p.Mods {
		m := &p.Mods[i]
		if !selected[m.Name] || !m.IsForSide(server) {
			continue
		}
		if m.Group != "" && m.Optional {
			if other, ok := groups[m.Group]; ok {
				return nil, fmt.Errorf("mods %s and %s are both in group %s, only one can be selected", other, m.Name, m.Group)
			}
			groups[m.Group] = m.Name
		}
		out = append(out, m)
	}
	return out, nil
}
