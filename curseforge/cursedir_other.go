//go:build !windows

package curseforge

import (
	"errors"
	"os"
	"path/filepath"
)

func getCurseDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	curseDir := filepath.Join(home, "Documents", "curseforge")
	if _, err := os.Stat(curseDir); err == nil {
		return curseDir, nil
	}
	return "", errors.New("curse installation directory cannot be found")
}
