package instance

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/packlaunch/packlaunch/core"
	"github.com/sahilm/fuzzy"
	"go.uber.org/zap"
)

// List loads every instance under the instances directory, sorted by name. Legacy instances are migrated
// when a resolver is given, and skipped otherwise.
func List(ctx context.Context, resolver VersionResolver) ([]*Instance, error) {
	instancesDir, err := core.GetInstancesDir()
	if err != nil {
		return nil, err
	}
	entries, err := os.ReadDir(instancesDir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}
	var out []*Instance
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		dir := filepath.Join(instancesDir, e.Name())
		var inst *Instance
		if resolver != nil {
			inst, err = LoadOrMigrate(ctx, dir, resolver)
		} else {
			inst, err = Load(dir)
		}
		if err != nil {
			if !errors.Is(err, ErrNotFound) {
				core.Log.Warn("skipping instance", zap.String("dir", dir), zap.Error(err))
			}
			continue
		}
		out = append(out, inst)
	}
	sort.Slice(out, func(i, j int) bool {
		return strings.ToLower(out[i].Name()) < strings.ToLower(out[j].Name())
	})
	return out, nil
}

// Find returns the instance with the given name or directory name, falling back to the single best fuzzy
// match
func Find(instances []*Instance, name string) (*Instance, error) {
	names := make([]string, len(instances))
	for i, inst := range instances {
		if strings.EqualFold(inst.Name(), name) || filepath.Base(inst.Root()) == name {
			return inst, nil
		}
		names[i] = inst.Name()
	}
	matches := fuzzy.Find(name, names)
	if len(matches) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	if len(matches) > 1 && matches[0].Score == matches[1].Score {
		return nil, fmt.Errorf("%w: %s is ambiguous between %s and %s", ErrNotFound, name, matches[0].Str, matches[1].Str)
	}
	return instances[matches[0].Index], nil
}

// FindModFuzzy looks up a tracked mod by exact name, then by fuzzy match
func (i *Instance) FindModFuzzy(name string) (*DisableableMod, error) {
	if m := i.FindMod(name); m != nil {
		return m, nil
	}
	names := make([]string, len(i.Launcher.Mods))
	for idx, m := range i.Launcher.Mods {
		if strings.EqualFold(m.Name, name) || m.File == name {
			return &i.Launcher.Mods[idx], nil
		}
		names[idx] = m.Name
	}
	matches := fuzzy.Find(name, names)
	if len(matches) == 0 {
		return nil, fmt.Errorf("no mod named %s in instance %s", name, i.Name())
	}
	return &i.Launcher.Mods[matches[0].Index], nil
}

// Exists reports whether an instance with this name's directory is already present
func Exists(name string) bool {
	instancesDir, err := core.GetInstancesDir()
	if err != nil {
		return false
	}
	return core.FileExists(filepath.Join(instancesDir, SafeName(name), FileName))
}

// Remove deletes an instance and all of its files
func Remove(i *Instance) error {
	if i.Root() == "" {
		return errors.New("instance has no root directory")
	}
	if err := os.RemoveAll(i.Root()); err != nil {
		return fmt.Errorf("failed to remove instance %s: %w", i.Name(), err)
	}
	return nil
}
