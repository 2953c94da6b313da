package install

import (
	"github.com/packlaunch/packlaunch/core"
	"github.com/packlaunch/packlaunch/instance"
)

// UpdateAvailable reports whether pack is a different version of the instance's pack that the user hasn't chosen to
// ignore
func UpdateAvailable(inst *instance.Instance, pack *core.PackVersion) bool {
	if pack.Version == inst.Launcher.Version {
		return false
	}
	for _, v := range inst.Launcher.IgnoredUpdates {
		if v == pack.Version {
			return false
		}
	}
	return true
}

// IgnoreUpdate stops UpdateAvailable offering this version of the pack again. The instance is not saved.
func IgnoreUpdate(inst *instance.Instance, version string) {
	for _, v := range inst.Launcher.IgnoredUpdates {
		if v == version {
			return
		}
	}
	inst.Launcher.IgnoredUpdates = append(inst.Launcher.IgnoredUpdates, version)
}

// NewUpdate prepares an installer that moves inst to another version of its pack, keeping the optional mods chosen
// before (where the new version still has them), user added mods and which mods were disabled
func NewUpdate(inst *instance.Instance, pack *core.PackVersion) *Installer {
	var selected []string
	for _, name := range inst.SelectedMods() {
		if m := pack.FindMod(name); m != nil && m.Optional {
			selected = append(selected, name)
		}
	}
	return &Installer{
		Pack:      pack,
		Instance:  inst,
		Server:    inst.IsServer(),
		Selected:  selected,
		Reinstall: true,
		Source:    inst.Launcher.PackSource,
	}
}

// NewOptionalMods lists the optional mods of pack that aren't installed in the instance, for asking the user about
func NewOptionalMods(inst *instance.Instance, pack *core.PackVersion) []*core.Mod {
	var out []*core.Mod
	for _, m := range pack.OptionalMods(inst.IsServer()) {
		if inst.FindMod(m.Name) == nil {
			out = append(out, m)
		}
	}
	return out
}
