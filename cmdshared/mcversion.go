package cmdshared

import (
	"context"
	"fmt"
	"os"

	"github.com/packlaunch/packlaunch/minecraft"
)

// GetValidMCVersions fetches the Mojang version manifest
func GetValidMCVersions(ctx context.Context) (minecraft.VersionManifest, error) {
	return minecraft.DefaultClient.GetManifest(ctx)
}

// CheckValidMCVersion exits if version is not in the manifest. An empty version means the latest release.
func CheckValidMCVersion(ctx context.Context, version string) string {
	manifest, err := GetValidMCVersions(ctx)
	if err != nil {
		fmt.Printf("Failed to get latest minecraft versions: %v\n", err)
		os.Exit(1)
	}
	if version == "" {
		return manifest.Latest.Release
	}
	if _, ok := manifest.Find(version); !ok {
		fmt.Println("Given version is not a valid Minecraft version!")
		os.Exit(1)
	}
	return version
}
