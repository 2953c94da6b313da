package core

import (
	"golang.org/x/sys/windows"
)

// GetDownloadsDir returns the user's Downloads known folder, where browser downloads end up
func GetDownloadsDir() (string, error) {
	return windows.KnownFolderPath(windows.FOLDERID_Downloads, 0)
}
