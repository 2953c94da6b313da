package core

import (
	"fmt"
	"regexp"
	"slices"
)

// ModType decides where and how a downloaded mod is installed
type ModType string

const (
	TypeJar                 ModType = "jar"
	TypeForge               ModType = "forge"
	TypeMCPC                ModType = "mcpc"
	TypeMods                ModType = "mods"
	TypePlugins             ModType = "plugins"
	TypeIC2Lib              ModType = "ic2lib"
	TypeDenLib              ModType = "denlib"
	TypeFlan                ModType = "flan"
	TypeDependency          ModType = "dependency"
	TypeCoreMods            ModType = "coremods"
	TypeTexturePack         ModType = "texturepack"
	TypeResourcePack        ModType = "resourcepack"
	TypeTexturePackExtract  ModType = "texturepackextract"
	TypeResourcePackExtract ModType = "resourcepackextract"
	TypeShaderPack          ModType = "shaderpack"
	TypeMillenaire          ModType = "millenaire"
	TypeExtract             ModType = "extract"
	TypeDecomp              ModType = "decomp"
)

var knownModTypes = map[ModType]bool{
	TypeJar: true, TypeForge: true, TypeMCPC: true, TypeMods: true, TypePlugins: true, TypeIC2Lib: true,
	TypeDenLib: true, TypeFlan: true, TypeDependency: true, TypeCoreMods: true, TypeTexturePack: true,
	TypeResourcePack: true, TypeTexturePackExtract: true, TypeResourcePackExtract: true, TypeShaderPack: true,
	TypeMillenaire: true, TypeExtract: true, TypeDecomp: true,
}

// Valid reports whether t is a known mod type
func (t ModType) Valid() bool {
	return knownModTypes[t]
}

// The destinations an extract or decomp mod can be installed to
const (
	DestCoreMods = "coremods"
	DestJar      = "jar"
	DestMods     = "mods"
	DestRoot     = "root"
)

// DownloadType says how a mod's file is obtained
type DownloadType string

const (
	// DownloadDirect fetches the URL as given
	DownloadDirect DownloadType = "direct"
	// DownloadServer fetches the URL relative to the configured mirrors
	DownloadServer DownloadType = "server"
	// DownloadBrowser needs the user to download the file themselves
	DownloadBrowser DownloadType = "browser"
)

// The three possible values of Side (the side that the mod is on) are "server", "client", and "both".
const (
	ServerSide    = "server"
	ClientSide    = "client"
	UniversalSide = "both"
)

// Mod is an artifact declared by a pack version
type Mod struct {
	Name        string `toml:"name"`
	Version     string `toml:"version,omitempty"`
	Description string `toml:"description,omitempty"`

	URL      string       `toml:"url"`
	File     string       `toml:"file"`
	Hash     string       `toml:"hash,omitempty"`
	HashType string       `toml:"hash-type,omitempty"`
	Size     int64        `toml:"size,omitempty"`
	Type     ModType      `toml:"type"`
	Download DownloadType `toml:"download,omitempty"`
	// FilePrefix is prepended to the installed file name, so load order can be controlled
	FilePrefix string `toml:"file-prefix,omitempty"`
	// FilePattern matches the real file name of a browser download when it varies between versions
	FilePattern    string `toml:"file-pattern,omitempty"`
	FilePreference string `toml:"file-preference,omitempty"`
	FileCheck      string `toml:"file-check,omitempty"`

	ExtractTo     string `toml:"extract-to,omitempty"`
	ExtractFolder string `toml:"extract-folder,omitempty"`
	DecompFile    string `toml:"decomp-file,omitempty"`
	DecompType    string `toml:"decomp-type,omitempty"`

	Side string `toml:"side,omitempty"`

	ServerURL      string       `toml:"server-url,omitempty"`
	ServerFile     string       `toml:"server-file,omitempty"`
	ServerHash     string       `toml:"server-hash,omitempty"`
	ServerType     ModType      `toml:"server-type,omitempty"`
	ServerDownload DownloadType `toml:"server-download,omitempty"`

	Optional    bool     `toml:"optional,omitempty"`
	Selected    bool     `toml:"selected,omitempty"`
	Recommended bool     `toml:"recommended,omitempty"`
	Hidden      bool     `toml:"hidden,omitempty"`
	Library     bool     `toml:"library,omitempty"`
	Group       string   `toml:"group,omitempty"`
	Category    string   `toml:"category,omitempty"`
	Linked      string   `toml:"linked,omitempty"`
	Depends     []string `toml:"depends,omitempty"`
	Colour      string   `toml:"colour,omitempty"`
	Warning     string   `toml:"warning,omitempty"`
}

var unsafeNameChars = regexp.MustCompile(`[^A-Za-z0-9]`)

// SafeName is the mod's name with everything but letters and digits removed, used for generated file names
func (m *Mod) SafeName() string {
	return unsafeNameChars.ReplaceAllString(m.Name, "")
}

// IsForSide reports whether the mod is installed on a client (server false) or server (server true)
func (m *Mod) IsForSide(server bool) bool {
	switch m.Side {
	case ServerSide:
		return server
	case ClientSide:
		return !server
	}
	return true
}

// usesServerVariant is true when installing a server and the mod has a separate server file
func (m *Mod) usesServerVariant(server bool) bool {
	return server && m.ServerURL != ""
}

// FileName is the name the mod is installed under: FilePrefix followed by the (server) file name
func (m *Mod) FileName(server bool) string {
	if m.usesServerVariant(server) && m.ServerFile != "" {
		return m.FilePrefix + m.ServerFile
	}
	return m.FilePrefix + m.File
}

// DownloadFileName is the name of the file as it is downloaded, without FilePrefix
func (m *Mod) DownloadFileName(server bool) string {
	if m.usesServerVariant(server) && m.ServerFile != "" {
		return m.ServerFile
	}
	return m.File
}

func (m *Mod) DownloadURL(server bool) string {
	if m.usesServerVariant(server) {
		return CleanPackURL(m.ServerURL)
	}
	return CleanPackURL(m.URL)
}

func (m *Mod) ExpectedHash(server bool) string {
	if m.usesServerVariant(server) {
		return m.ServerHash
	}
	return m.Hash
}

func (m *Mod) TypeFor(server bool) ModType {
	if m.usesServerVariant(server) && m.ServerType != "" {
		return m.ServerType
	}
	return m.Type
}

func (m *Mod) DownloadTypeFor(server bool) DownloadType {
	dl := m.Download
	if m.usesServerVariant(server) && m.ServerDownload != "" {
		dl = m.ServerDownload
	}
	if dl == "" {
		return DownloadDirect
	}
	return dl
}

// Validate checks the fields that the installer depends on
func (m *Mod) Validate() error {
	if m.Name == "" {
		return fmt.Errorf("mod with file %s has no name", m.File)
	}
	if !m.Type.Valid() {
		return fmt.Errorf("mod %s has unknown type %q", m.Name, m.Type)
	}
	if m.ServerType != "" && !m.ServerType.Valid() {
		return fmt.Errorf("mod %s has unknown server type %q", m.Name, m.ServerType)
	}
	if m.File == "" && m.FilePattern == "" {
		return fmt.Errorf("mod %s has no file", m.Name)
	}
	switch m.Type {
	case TypeExtract:
		if !validDest(m.ExtractTo, DestCoreMods, DestMods, DestRoot) {
			return fmt.Errorf("mod %s has invalid extract-to %q", m.Name, m.ExtractTo)
		}
		if m.ExtractFolder == "" {
			return fmt.Errorf("mod %s is an extract mod without extract-folder", m.Name)
		}
	case TypeDecomp:
		if !validDest(m.DecompType, DestCoreMods, DestJar, DestMods, DestRoot) {
			return fmt.Errorf("mod %s has invalid decomp-type %q", m.Name, m.DecompType)
		}
		if m.DecompFile == "" {
			return fmt.Errorf("mod %s is a decomp mod without decomp-file", m.Name)
		}
	}
	switch m.Download {
	case "", DownloadDirect, DownloadServer, DownloadBrowser:
	default:
		return fmt.Errorf("mod %s has unknown download type %q", m.Name, m.Download)
	}
	return nil
}

// validDest matches destinations exactly, as the installer does
func validDest(dest string, allowed ...string) bool {
	return slices.Contains(allowed, dest)
}
