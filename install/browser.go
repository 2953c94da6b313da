package install

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/dlclark/regexp2"
	"github.com/packlaunch/packlaunch/core"
	"go.uber.org/zap"
)

// browserSearch locates the files of mods that can only be downloaded through a browser
type browserSearch struct {
	cacheDir     string
	downloadsDir string
	server       bool
}

// resolveBrowserDownloads finds browser downloads in the cache or the user's Downloads folder, asking the user to
// fetch whatever is still missing until everything is found
func (i *Installer) resolveBrowserDownloads(ctx context.Context, mods []*core.Mod, cacheDir string) error {
	downloadsDir, err := core.GetDownloadsDir()
	if err != nil {
		core.Log.Warn("failed to find the downloads folder", zap.Error(err))
	}
	s := browserSearch{cacheDir: cacheDir, downloadsDir: downloadsDir, server: i.Server}

	missing := s.find(mods, i.downloads, true)
	for len(missing) > 0 {
		if err := ctx.Err(); err != nil {
			return err
		}
		if i.ManualDownload == nil {
			names := make([]string, len(missing))
			for idx, m := range missing {
				names[idx] = m.Name
			}
			return fmt.Errorf("%w: these mods must be downloaded manually: %s", ErrCancelled, strings.Join(names, ", "))
		}
		if err := i.ManualDownload(missing, downloadsDir); err != nil {
			return err
		}
		missing = s.find(missing, i.downloads, false)
	}
	return nil
}

// find records the location of each mod it can find in found, and returns the rest. Pattern matched files are
// only searched for before prompting when the mod asks for it with file-check = "before".
func (s browserSearch) find(mods []*core.Mod, found map[string]string, beforePrompt bool) []*core.Mod {
	var missing []*core.Mod
	for _, m := range mods {
		path, err := s.locate(m, beforePrompt)
		if err != nil {
			core.Log.Warn("ignoring browser download", zap.String("mod", m.Name), zap.Error(err))
		}
		if path == "" {
			missing = append(missing, m)
			continue
		}
		found[m.Name] = path
	}
	return missing
}

func (s browserSearch) locate(m *core.Mod, beforePrompt bool) (string, error) {
	if m.FilePattern != "" {
		if beforePrompt && !strings.EqualFold(m.FileCheck, "before") {
			return "", nil
		}
		return s.locatePattern(m)
	}

	name := m.DownloadFileName(s.server)
	cached := filepath.Join(s.cacheDir, name)
	if core.FileExists(cached) && s.verify(m, cached) {
		return cached, nil
	}
	if s.downloadsDir == "" {
		return "", nil
	}
	// Browsers sometimes add .zip to files they don't recognise
	for _, candidate := range []string{name, name + ".zip"} {
		p := filepath.Join(s.downloadsDir, candidate)
		if !core.FileExists(p) {
			continue
		}
		if !s.verify(m, p) {
			return "", fmt.Errorf("%s doesn't match the expected hash", p)
		}
		if err := core.MoveFile(p, cached); err != nil {
			return "", err
		}
		return cached, nil
	}
	return "", nil
}

// locatePattern picks a file matching the mod's pattern from the Downloads folder or the cache, preferring the
// first or last match in name order as the mod asks
func (s browserSearch) locatePattern(m *core.Mod) (string, error) {
	re, err := regexp2.Compile(m.FilePattern, regexp2.None)
	if err != nil {
		return "", fmt.Errorf("invalid file pattern %q: %w", m.FilePattern, err)
	}
	for _, dir := range []string{s.downloadsDir, s.cacheDir} {
		if dir == "" {
			continue
		}
		matches, err := matchingFiles(dir, re)
		if err != nil {
			return "", err
		}
		if len(matches) == 0 {
			continue
		}
		chosen := matches[0]
		if strings.EqualFold(m.FilePreference, "last") {
			chosen = matches[len(matches)-1]
		}
		src := filepath.Join(dir, chosen)
		if dir == s.cacheDir {
			return src, nil
		}
		cached := filepath.Join(s.cacheDir, chosen)
		if err := core.MoveFile(src, cached); err != nil {
			return "", err
		}
		return cached, nil
	}
	return "", nil
}

func matchingFiles(dir string, re *regexp2.Regexp) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	var out []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if ok, err := re.MatchString(e.Name()); err == nil && ok {
			out = append(out, e.Name())
		}
	}
	sort.Strings(out)
	return out, nil
}

// verify checks a found file against the mod's hash, if it has one
func (s browserSearch) verify(m *core.Mod, path string) bool {
	expected := m.ExpectedHash(s.server)
	if expected == "" {
		return true
	}
	hashType := m.HashType
	if hashType == "" {
		hashType = core.HashTypeFor(expected)
	}
	actual, err := core.HashFile(path, hashType)
	return err == nil && core.HashMatches(actual, expected)
}
