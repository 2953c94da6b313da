package core

import (
	"strings"

	"github.com/spf13/viper"
)

// Server is a CDN host that launcher-hosted files can be fetched from
type Server struct {
	Name           string `toml:"name" mapstructure:"name"`
	URL            string `toml:"url" mapstructure:"url"`
	UserSelectable bool   `toml:"user-selectable,omitempty" mapstructure:"user-selectable"`
	Disabled       bool   `toml:"disabled,omitempty" mapstructure:"disabled"`
}

// FileURL returns the URL of path on this server
func (s Server) FileURL(path string) string {
	return strings.TrimSuffix(s.URL, "/") + "/" + strings.TrimPrefix(path, "/")
}

// DefaultServers is used when no mirrors are configured
var DefaultServers = []Server{
	{Name: "Primary", URL: "https://download.nodecdn.net/containers/atl", UserSelectable: true},
}

// GetServers returns the enabled mirrors in failover order. The configured preferred server (if any) is
// moved to the front.
func GetServers() []Server {
	var configured []Server
	if err := viper.UnmarshalKey("mirrors", &configured); err != nil || len(configured) == 0 {
		configured = DefaultServers
	}
	preferred := viper.GetString("mirror")

	servers := make([]Server, 0, len(configured))
	for _, s := range configured {
		if s.Disabled {
			continue
		}
		if preferred != "" && s.Name == preferred {
			servers = append([]Server{s}, servers...)
		} else {
			servers = append(servers, s)
		}
	}
	return servers
}
