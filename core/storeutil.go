package core

import (
	"os"
	"path/filepath"
	"runtime"

	"github.com/spf13/viper"
)

// GetLauncherDataDir returns the root of all launcher state; --data-dir overrides the platform default
func GetLauncherDataDir() (string, error) {
	if dir := viper.GetString("data-dir"); dir != "" {
		return filepath.Abs(dir)
	}
	if //goland:noinspection GoBoolExpressions
	runtime.GOOS == "linux" {
		// Prefer $XDG_DATA_HOME over $XDG_CACHE_HOME
		dataHome := os.Getenv("XDG_DATA_HOME")
		if dataHome != "" {
			return filepath.Join(dataHome, "packlaunch"), nil
		}
	}
	userConfigDir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(userConfigDir, "packlaunch"), nil
}

func dataSubdir(name ...string) (string, error) {
	dataDir, err := GetLauncherDataDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(append([]string{dataDir}, name...)...), nil
}

func GetInstancesDir() (string, error) {
	return dataSubdir("instances")
}

func GetLibrariesDir() (string, error) {
	return dataSubdir("libraries")
}

func GetAssetsDir() (string, error) {
	return dataSubdir("assets")
}

// GetFailedDownloadsDir is where files which could not be verified from any mirror are kept for inspection
func GetFailedDownloadsDir() (string, error) {
	return dataSubdir("failed-downloads")
}

func GetBackupsDir() (string, error) {
	return dataSubdir("backups")
}

// GetDownloadsCacheDir holds verified mod downloads, so reinstalls and other instances can reuse them
func GetDownloadsCacheDir() (string, error) {
	return dataSubdir("downloads")
}

func GetLauncherTempDir() (string, error) {
	return dataSubdir("temp")
}

func GetAccountsFile() (string, error) {
	return dataSubdir("accounts.json")
}

func GetLauncherCache() (string, error) {
	userCacheDir, err := os.UserCacheDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(userCacheDir, "packlaunch"), nil
}
