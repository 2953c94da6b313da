package core

import "fmt"

// The actions a pack can run after its mods are installed
const (
	ActionCreateZip = "createzip"
	ActionRename    = "rename"
)

// ActionAfterDelete removes the source mods once the action has run
const ActionAfterDelete = "delete"

// Action post-processes already installed mods
type Action struct {
	Action string   `toml:"action"`
	Mods   []string `toml:"mods"`
	// Type is the destination of a created zip: mods, coremods or jar
	Type   string `toml:"type,omitempty"`
	SaveAs string `toml:"save-as"`
	After  string `toml:"after,omitempty"`
	Side   string `toml:"side,omitempty"`
}

// IsForSide reports whether the action runs on a client (server false) or server (server true)
func (a *Action) IsForSide(server bool) bool {
	switch a.Side {
	case ServerSide:
		return server
	case ClientSide:
		return !server
	}
	return true
}

func (a *Action) Validate() error {
	switch a.Action {
	case ActionCreateZip:
		if len(a.Mods) < 2 {
			return fmt.Errorf("createzip action %s needs at least 2 mods", a.SaveAs)
		}
		if !validDest(a.Type, DestMods, DestCoreMods, DestJar) {
			return fmt.Errorf("createzip action %s has invalid type %q", a.SaveAs, a.Type)
		}
	case ActionRename:
		if len(a.Mods) != 1 {
			return fmt.Errorf("rename action %s needs exactly 1 mod", a.SaveAs)
		}
	default:
		return fmt.Errorf("unknown action %q", a.Action)
	}
	if a.SaveAs == "" {
		return fmt.Errorf("%s action has no save-as", a.Action)
	}
	return nil
}
