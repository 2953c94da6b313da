package install

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/packlaunch/packlaunch/core"
	"github.com/packlaunch/packlaunch/instance"
	"go.uber.org/zap"
)

// runActions applies the pack's actions to the installed mods. Actions for the other side, or naming a mod that
// wasn't installed, are skipped.
func (i *Installer) runActions() error {
	for idx := range i.Pack.Actions {
		a := &i.Pack.Actions[idx]
		if !a.IsForSide(i.Server) {
			continue
		}
		if !i.allInstalled(a.Mods) {
			core.Log.Debug("skipping action for mods that aren't installed", zap.Strings("mods", a.Mods))
			continue
		}
		var err error
		switch a.Action {
		case core.ActionCreateZip:
			err = i.createZip(a)
		case core.ActionRename:
			err = i.rename(a)
		default:
			err = fmt.Errorf("unknown action %q", a.Action)
		}
		if err != nil {
			return fmt.Errorf("action %s on %v failed: %w", a.Action, a.Mods, err)
		}
	}
	return nil
}

func (i *Installer) allInstalled(names []string) bool {
	for _, n := range names {
		if i.installedMod(n) == nil {
			return false
		}
	}
	return true
}

func (i *Installer) installedMod(name string) *instance.DisableableMod {
	for idx := range i.installed {
		if i.installed[idx].Name == name {
			return &i.installed[idx]
		}
	}
	return nil
}

// createZip unpacks every source mod's download into one folder and zips it into mods, coremods or the jar
func (i *Installer) createZip(a *core.Action) error {
	work := filepath.Join(i.tempDir, "createzip", a.SaveAs)
	for _, name := range a.Mods {
		m := i.Pack.FindMod(name)
		src, ok := i.DownloadedFile(m)
		if !ok {
			return fmt.Errorf("%s was not downloaded", name)
		}
		if err := core.Unzip(src, work); err != nil {
			return err
		}
	}

	var dir string
	typ := core.ModType(a.Type)
	switch a.Type {
	case core.DestMods:
		dir = i.Instance.ModsDir()
	case core.DestCoreMods:
		dir = i.coreModsDir()
		typ = i.coreModsType()
	case core.DestJar:
		dir = i.Instance.JarModsDir()
		typ = core.TypeJar
	default:
		return fmt.Errorf("cannot create a zip of type %q", a.Type)
	}
	if err := core.ZipDir(work, filepath.Join(dir, a.SaveAs)); err != nil {
		return err
	}
	if a.Type == core.DestJar {
		i.jarOrder = append(i.jarOrder, a.SaveAs)
	}
	i.installed = append(i.installed, instance.DisableableMod{
		Name:        a.SaveAs,
		File:        a.SaveAs,
		Type:        typ,
		WasSelected: true,
	})

	if a.After == core.ActionAfterDelete {
		for _, name := range a.Mods {
			if err := i.uninstall(name); err != nil {
				return err
			}
		}
	}
	return nil
}

// rename gives a single installed mod's file a new name in place
func (i *Installer) rename(a *core.Action) error {
	rec := i.installedMod(a.Mods[0])
	path := i.InstalledFile(i.Pack.FindMod(a.Mods[0]))
	if path == "" {
		return fmt.Errorf("%s has no installed file to rename", rec.Name)
	}
	dst := filepath.Join(filepath.Dir(path), a.SaveAs)
	if err := os.Rename(path, dst); err != nil {
		return err
	}
	for idx, f := range i.jarOrder {
		if f == rec.File {
			i.jarOrder[idx] = a.SaveAs
		}
	}
	rec.File = a.SaveAs
	return nil
}

// uninstall removes a mod installed earlier in this install, and forgets it
func (i *Installer) uninstall(name string) error {
	m := i.Pack.FindMod(name)
	if path := i.InstalledFile(m); path != "" {
		if err := core.RemoveIfExists(path); err != nil {
			return err
		}
	}
	rec := i.installedMod(name)
	for _, f := range rec.Files {
		if err := core.RemoveIfExists(filepath.Join(i.Instance.Root(), filepath.FromSlash(f))); err != nil {
			return err
		}
	}
	order := i.jarOrder[:0]
	for _, f := range i.jarOrder {
		if f != rec.File {
			order = append(order, f)
		}
	}
	i.jarOrder = order

	kept := i.installed[:0]
	for _, r := range i.installed {
		if r.Name != name {
			kept = append(kept, r)
		}
	}
	i.installed = kept
	return nil
}
