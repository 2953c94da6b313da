//go:build !windows

package core

import (
	"os"
	"path/filepath"
)

// GetDownloadsDir returns $XDG_DOWNLOAD_DIR, falling back to ~/Downloads
func GetDownloadsDir() (string, error) {
	if dir := os.Getenv("XDG_DOWNLOAD_DIR"); dir != "" {
		return dir, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, "Downloads"), nil
}
