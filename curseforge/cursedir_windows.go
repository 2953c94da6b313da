package curseforge

import (
	"errors"
	"os"
	"path/filepath"

	"golang.org/x/sys/windows"
)

// getCurseDir finds the CurseForge app's data folder in Documents, under any of the names the app has used
func getCurseDir() (string, error) {
	docs, err := windows.KnownFolderPath(windows.FOLDERID_Documents, 0)
	if err != nil {
		return "", err
	}
	for _, name := range []string{"curseforge", "Curse", "Twitch"} {
		dir := filepath.Join(docs, name)
		if info, err := os.Stat(dir); err == nil && info.IsDir() {
			return dir, nil
		}
	}
	return "", errors.New("couldn't find the CurseForge app folder in " + docs)
}
