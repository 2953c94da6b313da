package core

import (
	"archive/zip"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// CopyFile copies src to dst, creating dst's parent directories and replacing dst if it exists
func CopyFile(src string, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	if err := os.MkdirAll(filepath.Dir(dst), 0755); err != nil {
		return err
	}
	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		_ = out.Close()
		return fmt.Errorf("failed to copy %s to %s: %w", src, dst, err)
	}
	return out.Close()
}

// CopyFileToDir copies src into dir, keeping its file name
func CopyFileToDir(src string, dir string) error {
	return CopyFile(src, filepath.Join(dir, filepath.Base(src)))
}

// CopyDir recursively copies the contents of src into dst
func CopyDir(src string, dst string) error {
	return filepath.WalkDir(src, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(src, path)
		if err != nil {
			return err
		}
		target := filepath.Join(dst, rel)
		if d.IsDir() {
			return os.MkdirAll(target, 0755)
		}
		return CopyFile(path, target)
	})
}

// MoveFile renames src to dst, falling back to copy and delete when they are on different devices
func MoveFile(src string, dst string) error {
	if err := os.MkdirAll(filepath.Dir(dst), 0755); err != nil {
		return err
	}
	if err := os.Rename(src, dst); err == nil {
		return nil
	}
	info, err := os.Stat(src)
	if err != nil {
		return err
	}
	if info.IsDir() {
		err = CopyDir(src, dst)
	} else {
		err = CopyFile(src, dst)
	}
	if err != nil {
		return err
	}
	return os.RemoveAll(src)
}

// FileExists reports whether path exists and is a regular file
func FileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}

// RemoveIfExists deletes path, ignoring it not existing
func RemoveIfExists(path string) error {
	err := os.RemoveAll(path)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}

// Unzip extracts the zip file at src into dir. Entries that would escape dir are rejected.
func Unzip(src string, dir string) error {
	return UnzipFiltered(src, dir, nil)
}

// UnzipFiltered extracts the entries of src for which keep returns true (all entries when keep is nil)
func UnzipFiltered(src string, dir string, keep func(name string) bool) error {
	r, err := zip.OpenReader(src)
	if err != nil {
		return fmt.Errorf("failed to open archive %s: %w", src, err)
	}
	defer r.Close()

	root, err := filepath.Abs(dir)
	if err != nil {
		return err
	}
	for _, f := range r.File {
		if keep != nil && !keep(f.Name) {
			continue
		}
		target := filepath.Join(root, filepath.FromSlash(f.Name))
		if target != root && !strings.HasPrefix(target, root+string(os.PathSeparator)) {
			return fmt.Errorf("archive entry %s escapes the destination directory", f.Name)
		}
		if f.FileInfo().IsDir() {
			if err := os.MkdirAll(target, 0755); err != nil {
				return err
			}
			continue
		}
		if err := extractZipEntry(f, target); err != nil {
			return fmt.Errorf("failed to extract %s from %s: %w", f.Name, src, err)
		}
	}
	return nil
}

func extractZipEntry(f *zip.File, target string) error {
	if err := os.MkdirAll(filepath.Dir(target), 0755); err != nil {
		return err
	}
	rc, err := f.Open()
	if err != nil {
		return err
	}
	defer rc.Close()
	out, err := os.Create(target)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, rc); err != nil {
		_ = out.Close()
		return err
	}
	return out.Close()
}

// ZipDir writes the contents of dir to a new zip file at dst, with paths relative to dir
func ZipDir(dir string, dst string) error {
	return ZipDirFiltered(dir, dst, nil)
}

// ZipDirFiltered is ZipDir, skipping any relative (slash separated) path for which skip returns true
func ZipDirFiltered(dir string, dst string, skip func(rel string, isDir bool) bool) error {
	if err := os.MkdirAll(filepath.Dir(dst), 0755); err != nil {
		return err
	}
	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	zw := zip.NewWriter(out)

	err = filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(dir, path)
		if err != nil {
			return err
		}
		if rel == "." {
			return nil
		}
		rel = filepath.ToSlash(rel)
		if skip != nil && skip(rel, d.IsDir()) {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			_, err := zw.Create(rel + "/")
			return err
		}
		// Don't zip ourselves
		if abs, err := filepath.Abs(path); err == nil {
			if absDst, err := filepath.Abs(dst); err == nil && abs == absDst {
				return nil
			}
		}
		w, err := zw.Create(rel)
		if err != nil {
			return err
		}
		in, err := os.Open(path)
		if err != nil {
			return err
		}
		_, err = io.Copy(w, in)
		_ = in.Close()
		return err
	})
	if err != nil {
		_ = zw.Close()
		_ = out.Close()
		return fmt.Errorf("failed to zip %s: %w", dir, err)
	}
	if err := zw.Close(); err != nil {
		_ = out.Close()
		return err
	}
	return out.Close()
}

// RewriteZip copies the zip at path into a new archive, dropping entries for which drop returns true and
// appending extra entries, then replaces path with the result
func RewriteZip(path string, drop func(name string) bool, extra map[string][]byte) error {
	r, err := zip.OpenReader(path)
	if err != nil {
		return fmt.Errorf("failed to open archive %s: %w", path, err)
	}
	tmpPath := path + ".tmp"
	out, err := os.Create(tmpPath)
	if err != nil {
		_ = r.Close()
		return err
	}
	zw := zip.NewWriter(out)
	err = func() error {
		for _, f := range r.File {
			if drop != nil && drop(f.Name) {
				continue
			}
			if _, ok := extra[f.Name]; ok {
				continue
			}
			if err := zw.Copy(f); err != nil {
				return err
			}
		}
		for name, data := range extra {
			w, err := zw.Create(name)
			if err != nil {
				return err
			}
			if _, err := w.Write(data); err != nil {
				return err
			}
		}
		return zw.Close()
	}()
	_ = r.Close()
	if cerr := out.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("failed to rewrite archive %s: %w", path, err)
	}
	return os.Rename(tmpPath, path)
}

// ReadZipEntry returns the contents of a single entry of the zip at path, or fs.ErrNotExist
func ReadZipEntry(path string, name string) ([]byte, error) {
	r, err := zip.OpenReader(path)
	if err != nil {
		return nil, err
	}
	defer r.Close()
	for _, f := range r.File {
		if f.Name == name {
			rc, err := f.Open()
			if err != nil {
				return nil, err
			}
			defer rc.Close()
			return io.ReadAll(rc)
		}
	}
	return nil, fs.ErrNotExist
}

// WriteFileAtomic writes data to a temporary file next to path, syncs it and renames it over path
func WriteFileAtomic(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".tmp*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return err
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return err
	}
	if err := os.Rename(tmpName, path); err != nil {
		_ = os.Remove(tmpName)
		return err
	}
	return nil
}
