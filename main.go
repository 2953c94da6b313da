package main

import (
	"github.com/packlaunch/packlaunch/cmd"

	// Modules of packlaunch
	_ "github.com/packlaunch/packlaunch/curseforge"
	_ "github.com/packlaunch/packlaunch/github"
	_ "github.com/packlaunch/packlaunch/migrate"
	_ "github.com/packlaunch/packlaunch/modrinth"
	_ "github.com/packlaunch/packlaunch/settings"
	_ "github.com/packlaunch/packlaunch/url"
	_ "github.com/packlaunch/packlaunch/utils"
)

func main() {
	cmd.Execute()
}
