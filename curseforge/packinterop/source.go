package packinterop

import (
	"archive/zip"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"
)

// File is a file of a pack being imported, named with forward slashes relative to the pack root
type File interface {
	Name() string
	Open() (io.ReadCloser, error)
}

// Source is where a pack is imported from: a modpack zip or a folder
type Source interface {
	Files() ([]File, error)
	// MetaFile is the manifest.json or minecraftinstance.json describing the pack
	MetaFile() File
}

// Metadata is a modpack in one of the formats CurseForge uses
type Metadata interface {
	Name() string
	PackVersion() string
	PackAuthor() string
	// Versions maps "minecraft" and any mod loader ids to their versions
	Versions() map[string]string
	Mods() []AddonFileReference
	// OverrideFiles lists the files to copy into the instance, named relative to its root
	OverrideFiles() ([]File, error)
}

type namedFile struct {
	name string
	open func() (io.ReadCloser, error)
}

func (f namedFile) Name() string                 { return f.name }
func (f namedFile) Open() (io.ReadCloser, error) { return f.open() }

// renamed gives a file a different name, such as its path with the overrides folder stripped
func renamed(f File, name string) File {
	return namedFile{name: name, open: f.Open}
}

type dirSource struct {
	dir      string
	metaName string
}

// DirSource reads a pack from a folder, such as an instance of the CurseForge app
func DirSource(dir string, metaName string) Source {
	return dirSource{dir: dir, metaName: metaName}
}

func (s dirSource) file(rel string) File {
	p := filepath.Join(s.dir, filepath.FromSlash(rel))
	return namedFile{name: rel, open: func() (io.ReadCloser, error) {
		return os.Open(p)
	}}
}

func (s dirSource) Files() ([]File, error) {
	var list []File
	err := filepath.WalkDir(s.dir, func(p string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return err
		}
		rel, err := filepath.Rel(s.dir, p)
		if err != nil {
			return err
		}
		list = append(list, s.file(filepath.ToSlash(rel)))
		return nil
	})
	if err != nil {
		return nil, err
	}
	return list, nil
}

func (s dirSource) MetaFile() File {
	return s.file(s.metaName)
}

type zipSource struct {
	meta  File
	files []File
}

// ZipSource reads a modpack zip whose metadata file is metaName at the root of the archive
func ZipSource(r *zip.Reader, metaName string) (Source, error) {
	s := &zipSource{files: make([]File, 0, len(r.File))}
	for _, f := range r.File {
		if f.Mode().IsDir() {
			continue
		}
		zf := namedFile{name: path.Clean(f.Name), open: f.Open}
		if zf.name == metaName {
			s.meta = zf
		}
		s.files = append(s.files, zf)
	}
	if s.meta == nil {
		return nil, fmt.Errorf("zip has no %s", metaName)
	}
	return s, nil
}

func (s *zipSource) Files() ([]File, error) {
	return s.files, nil
}

func (s *zipSource) MetaFile() File {
	return s.meta
}
