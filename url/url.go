package url

import (
	"github.com/packlaunch/packlaunch/cmd"
	"github.com/spf13/cobra"
)

var urlCmd = &cobra.Command{
	Use:   "url",
	Short: "Add files from a direct download link, for sites that are not directly supported",
}

func init() {
	cmd.Add(urlCmd)
}
