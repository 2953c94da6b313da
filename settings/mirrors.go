package settings

import (
	"fmt"
	"net/url"
	"os"

	"github.com/packlaunch/packlaunch/core"
	"github.com/spf13/cobra"
)

var mirrorsCmd = &cobra.Command{
	Use:   "mirrors",
	Short: "List the mirrors launcher files are downloaded from, in failover order",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		for i, s := range core.GetServers() {
			fmt.Printf("%d. %s (%s)\n", i+1, s.Name, s.URL)
		}
	},
}

var mirrorsAddCmd = &cobra.Command{
	Use:   "add <name> <url>",
	Short: "Add a mirror, or change the URL of an existing one",
	Args:  cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		if err := addMirror(args[0], args[1]); err != nil {
			fmt.Println(err)
			os.Exit(1)
		}
		fmt.Printf("Mirror %s set to %s\n", args[0], args[1])
	},
}

var mirrorsRemoveCmd = &cobra.Command{
	Use:     "remove <name>",
	Aliases: []string{"rm"},
	Short:   "Remove a mirror",
	Args:    cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		if err := removeMirror(args[0]); err != nil {
			fmt.Println(err)
			os.Exit(1)
		}
		fmt.Printf("Mirror %s removed\n", args[0])
	},
}

var mirrorsPreferCmd = &cobra.Command{
	Use:   "prefer [name]",
	Short: "Try a mirror before the others; with no name, go back to the configured order",
	Args:  cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		var name string
		if len(args) > 0 {
			name = args[0]
		}
		if err := preferMirror(name); err != nil {
			fmt.Println(err)
			os.Exit(1)
		}
		if name == "" {
			fmt.Println("Mirror preference cleared")
		} else {
			fmt.Printf("Mirror %s is now tried first\n", name)
		}
	},
}

// configuredMirrors returns the full mirror list, including disabled ones, falling back to the defaults
func configuredMirrors(cfg map[string]interface{}) []core.Server {
	list, ok := cfg["mirrors"].([]map[string]interface{})
	if !ok {
		// Decoded TOML arrays of tables come back as []map[string]interface{}; anything else is replaced
		return append([]core.Server(nil), core.DefaultServers...)
	}
	servers := make([]core.Server, 0, len(list))
	for _, v := range list {
		s := core.Server{}
		s.Name, _ = v["name"].(string)
		s.URL, _ = v["url"].(string)
		s.UserSelectable, _ = v["user-selectable"].(bool)
		s.Disabled, _ = v["disabled"].(bool)
		servers = append(servers, s)
	}
	return servers
}

func setMirrors(cfg map[string]interface{}, servers []core.Server) {
	list := make([]map[string]interface{}, len(servers))
	for i, s := range servers {
		entry := map[string]interface{}{"name": s.Name, "url": s.URL}
		if s.UserSelectable {
			entry["user-selectable"] = true
		}
		if s.Disabled {
			entry["disabled"] = true
		}
		list[i] = entry
	}
	setKey(cfg, "mirrors", list)
}

func addMirror(name string, rawURL string) error {
	u, err := url.Parse(rawURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("%s is not an http(s) URL", rawURL)
	}
	return updateConfig(func(cfg map[string]interface{}) error {
		servers := configuredMirrors(cfg)
		for i, s := range servers {
			if s.Name == name {
				servers[i].URL = rawURL
				servers[i].Disabled = false
				setMirrors(cfg, servers)
				return nil
			}
		}
		setMirrors(cfg, append(servers, core.Server{Name: name, URL: rawURL, UserSelectable: true}))
		return nil
	})
}

func removeMirror(name string) error {
	return updateConfig(func(cfg map[string]interface{}) error {
		servers := configuredMirrors(cfg)
		kept := servers[:0]
		for _, s := range servers {
			if s.Name != name {
				kept = append(kept, s)
			}
		}
		if len(kept) == len(servers) {
			return fmt.Errorf("no mirror named %s", name)
		}
		if len(kept) == 0 {
			return fmt.Errorf("%s is the only mirror and can't be removed", name)
		}
		setMirrors(cfg, kept)
		if pref, _ := cfg["mirror"].(string); pref == name {
			setKey(cfg, "mirror", nil)
		}
		return nil
	})
}

func preferMirror(name string) error {
	return updateConfig(func(cfg map[string]interface{}) error {
		if name == "" {
			setKey(cfg, "mirror", nil)
			return nil
		}
		for _, s := range configuredMirrors(cfg) {
			if s.Name == name {
				setKey(cfg, "mirror", name)
				return nil
			}
		}
		return fmt.Errorf("no mirror named %s", name)
	})
}

func init() {
	settingsCmd.AddCommand(mirrorsCmd)
	mirrorsCmd.AddCommand(mirrorsAddCmd)
	mirrorsCmd.AddCommand(mirrorsRemoveCmd)
	mirrorsCmd.AddCommand(mirrorsPreferCmd)
}
